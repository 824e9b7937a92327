package attribute

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hostguard/compliance/internal/hosterr"
	"github.com/hostguard/compliance/internal/hosthandler"
	"github.com/hostguard/compliance/internal/privilege"
)

// PositionKind names where a LineInFile line is expected to live.
type PositionKind int

const (
	PositionAnywhere PositionKind = iota
	PositionTop
	PositionBottom
	PositionSpecificLineNumber
)

// Position describes where a line is expected within a file. LineNumber is
// meaningful only when Kind is PositionSpecificLineNumber, and is 1-based.
type Position struct {
	Kind       PositionKind
	LineNumber int
}

// LineState names whether a line is expected to be present or absent.
type LineState string

const (
	LinePresent LineState = "present"
	LineAbsent  LineState = "absent"
)

func Anywhere() Position { return Position{Kind: PositionAnywhere} }
func Top() Position      { return Position{Kind: PositionTop} }
func Bottom() Position   { return Position{Kind: PositionBottom} }
func AtLine(n int) Position {
	return Position{Kind: PositionSpecificLineNumber, LineNumber: n}
}

func (k PositionKind) String() string {
	switch k {
	case PositionTop:
		return "top"
	case PositionBottom:
		return "bottom"
	case PositionSpecificLineNumber:
		return "specific_line_number"
	default:
		return "anywhere"
	}
}

type positionWire struct {
	Kind       string `json:"kind" yaml:"kind"`
	LineNumber int    `json:"line_number,omitempty" yaml:"line_number,omitempty"`
}

func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal(positionWire{Kind: p.Kind.String(), LineNumber: p.LineNumber})
}

func (p *Position) UnmarshalJSON(data []byte) error {
	var w positionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Kind {
	case "top":
		*p = Top()
	case "bottom":
		*p = Bottom()
	case "specific_line_number":
		*p = AtLine(w.LineNumber)
	default:
		*p = Anywhere()
	}
	return nil
}

// LineInFile is the expected-state record for a single line's presence (and
// optionally exact position) within a text file. State defaults to
// LinePresent when empty; Position is meaningful only when State is
// LinePresent.
type LineInFile struct {
	Path     string    `json:"path" yaml:"path"`
	Line     string    `json:"line" yaml:"line"`
	Position Position  `json:"position" yaml:"position"`
	State    LineState `json:"state,omitempty" yaml:"state,omitempty"`
}

// effectiveState returns State, defaulting an unset (zero-value) State to
// LinePresent so documents that omit it keep the historical behavior.
func (a LineInFile) effectiveState() LineState {
	if a.State == "" {
		return LinePresent
	}
	return a.State
}

type LineInFileBuilder struct {
	lif LineInFile
}

func NewLineInFileBuilder(path, line string) *LineInFileBuilder {
	return &LineInFileBuilder{lif: LineInFile{Path: path, Line: line, Position: Anywhere(), State: LinePresent}}
}

func (b *LineInFileBuilder) WithPosition(pos Position) *LineInFileBuilder {
	b.lif.Position = pos
	return b
}

func (b *LineInFileBuilder) WithState(state LineState) *LineInFileBuilder {
	b.lif.State = state
	return b
}

func (b *LineInFileBuilder) Build() (LineInFile, error) {
	if b.lif.Path == "" {
		return LineInFile{}, hosterr.New(hosterr.KindIncoherentExpectedState, "lineinfile attribute has no path set")
	}
	if b.lif.Line == "" {
		return LineInFile{}, hosterr.New(hosterr.KindIncoherentExpectedState, "lineinfile attribute has no line set")
	}
	if b.lif.Position.Kind == PositionSpecificLineNumber && b.lif.Position.LineNumber < 1 {
		return LineInFile{}, hosterr.New(hosterr.KindIncoherentExpectedState, "lineinfile attribute has a non-positive specific line number")
	}
	return b.lif, nil
}

// LineInFileApiCall is the executable counterpart of a LineInFile
// remediation. For State LinePresent: delete every line currently matching
// (if any), then insert the line at the expected position. For LineAbsent:
// delete every matching line and stop — there is nothing to insert.
type LineInFileApiCall struct {
	path        string
	line        string
	position    Position
	matchedAt   []int
	fileIsEmpty bool
	totalLines  int
	absent      bool
	privilege   privilege.Privilege
}

func (c LineInFileApiCall) Display() string {
	if c.absent {
		return fmt.Sprintf("LineInFile (absent) - %s in %s", c.line, c.path)
	}
	return fmt.Sprintf("LineInFile - %s in %s", c.line, c.path)
}

func (c LineInFileApiCall) Call(ctx context.Context, h hosthandler.HostHandler) (InternalApiCallOutcome, error) {
	if len(c.matchedAt) > 0 {
		outcome, err := runAndClassify(ctx, h, c.deleteCommand(), c.privilege, "delete existing occurrences of "+c.line)
		if err != nil || outcome.Status != Success {
			return outcome, err
		}
	}
	if c.absent {
		return InternalApiCallOutcome{Status: Success}, nil
	}
	return runAndClassify(ctx, h, c.insertCommand(), c.privilege, "insert "+c.line)
}

func (c LineInFileApiCall) deleteCommand() string {
	var sb strings.Builder
	for i, ln := range c.matchedAt {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(strconv.Itoa(ln))
		sb.WriteByte('d')
	}
	return fmt.Sprintf("sed -i '%s' %s", sb.String(), c.path)
}

func (c LineInFileApiCall) insertCommand() string {
	if c.fileIsEmpty {
		return fmt.Sprintf("echo %s >> %s", shQuote(c.line), c.path)
	}
	switch c.position.Kind {
	case PositionTop:
		return fmt.Sprintf("sed -i '1 i %s' %s", c.line, c.path)
	case PositionSpecificLineNumber:
		return fmt.Sprintf("sed -i '%d i %s' %s", c.position.LineNumber, c.line, c.path)
	default:
		return fmt.Sprintf("sed -i '%d i %s' %s", c.totalLines, c.line, c.path)
	}
}

func shQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Assess implements Detail.
func (a LineInFile) Assess(ctx context.Context, h hosthandler.HostHandler, priv privilege.Privilege) (ComplianceAssessment, error) {
	grepAvailable, err := h.IsCommandAvailable(ctx, "grep", priv)
	if err != nil {
		return ComplianceAssessment{}, err
	}
	sedAvailable, err := h.IsCommandAvailable(ctx, "sed", priv)
	if err != nil {
		return ComplianceAssessment{}, err
	}
	if !grepAvailable || !sedAvailable {
		return ComplianceAssessment{}, hosterr.New(hosterr.KindFailedDryRunEvaluation, "grep/sed not working on this host")
	}

	matchedAt, totalLines, fileIsEmpty, err := probeLine(ctx, h, priv, a.Path, a.Line)
	if err != nil {
		return ComplianceAssessment{}, err
	}

	if a.effectiveState() == LineAbsent {
		var remediation Remediation
		if len(matchedAt) == 0 {
			remediation = None("Line already absent")
		} else {
			remediation = Concrete(LineInFileApiCall{
				path:      a.Path,
				line:      a.Line,
				matchedAt: matchedAt,
				absent:    true,
				privilege: priv,
			})
		}
		if !HasConcreteChange([]Remediation{remediation}) {
			return CompliantAssessment(), nil
		}
		return NonCompliantAssessment([]Remediation{remediation}), nil
	}

	if positionSatisfied(a.Position, matchedAt, totalLines) {
		return CompliantAssessment(), nil
	}

	call := LineInFileApiCall{
		path:        a.Path,
		line:        a.Line,
		position:    a.Position,
		matchedAt:   matchedAt,
		fileIsEmpty: fileIsEmpty,
		totalLines:  totalLines,
		privilege:   priv,
	}
	return NonCompliantAssessment([]Remediation{Concrete(call)}), nil
}

func positionSatisfied(pos Position, matchedAt []int, totalLines int) bool {
	if len(matchedAt) == 0 {
		return false
	}
	switch pos.Kind {
	case PositionAnywhere:
		return true
	case PositionTop:
		return matchedAt[0] == 1
	case PositionBottom:
		return matchedAt[len(matchedAt)-1] == totalLines
	case PositionSpecificLineNumber:
		for _, m := range matchedAt {
			if m == pos.LineNumber {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// probeLine reports every line number at which line appears verbatim
// (grep -n -F -w), the file's total line count (wc -l), and whether the
// file is empty.
func probeLine(ctx context.Context, h hosthandler.HostHandler, priv privilege.Privilege, path, line string) ([]int, int, bool, error) {
	grepRes, err := h.RunCommand(ctx, fmt.Sprintf("grep -n -F -w %s %s", shQuote(line), path), priv)
	if err != nil {
		return nil, 0, false, err
	}
	var matched []int
	if grepRes.Success() {
		for _, ln := range strings.Split(strings.TrimRight(grepRes.Stdout, "\n"), "\n") {
			if ln == "" {
				continue
			}
			parts := strings.SplitN(ln, ":", 2)
			n, convErr := strconv.Atoi(parts[0])
			if convErr == nil {
				matched = append(matched, n)
			}
		}
	} else if grepRes.ReturnCode != 1 {
		return nil, 0, false, hosterr.New(hosterr.KindFailedDryRunEvaluation, fmt.Sprintf("grep on %s: unexpected exit code %d", path, grepRes.ReturnCode))
	}

	wcRes, err := h.RunCommand(ctx, fmt.Sprintf("wc -l < %s", path), priv)
	if err != nil {
		return nil, 0, false, err
	}
	total := 0
	if wcRes.Success() {
		total, _ = strconv.Atoi(strings.TrimSpace(wcRes.Stdout))
	}

	sizeRes, err := h.RunCommand(ctx, fmt.Sprintf("wc -c < %s", path), priv)
	if err != nil {
		return nil, 0, false, err
	}
	empty := false
	if sizeRes.Success() {
		bytes, _ := strconv.Atoi(strings.TrimSpace(sizeRes.Stdout))
		empty = bytes == 0
	}

	return matched, total, empty, nil
}
