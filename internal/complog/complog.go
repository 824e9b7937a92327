// Package complog provides the tagged-line logging convention used
// throughout this codebase: every line is prefixed with a bracketed
// component tag, e.g. "[worker] applied 3 remediations".
package complog

import "log"

// Logger writes tagged lines for one component.
type Logger struct {
	tag string
}

// Tag returns a Logger that prefixes every line with "[tag] ".
func Tag(tag string) Logger {
	return Logger{tag: tag}
}

func (l Logger) Printf(format string, args ...any) {
	log.Printf("["+l.tag+"] "+format, args...)
}

func (l Logger) Println(args ...any) {
	line := append([]any{"[" + l.tag + "]"}, args...)
	log.Println(line...)
}
