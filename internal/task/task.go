// Package task defines the distributable unit of work: a host, an expected
// state to check it against, and which operation to run. A Task is
// serializable end to end, so it can cross a wire to a worker and its
// result can cross back.
package task

import (
	"context"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/hostguard/compliance/internal/hosthandler"
	"github.com/hostguard/compliance/internal/managedhost"
	"github.com/hostguard/compliance/internal/state"
)

// correlationIDAlphabet matches the URL-safe alphabet used elsewhere in the
// corpus for externally-visible identifiers.
const correlationIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
const correlationIDLength = 21

// Job names which operation a Task performs against its host.
type Job string

const (
	JobAssess Job = "assess"
	JobReach  Job = "reach"
)

// Task is a single distributable unit of work.
type Task struct {
	CorrelationID string              `json:"correlation_id" yaml:"correlation_id"`
	Host          string              `json:"host" yaml:"host"`
	ExpectedState state.ExpectedState `json:"expected_state" yaml:"expected_state"`
	Job           Job                 `json:"job" yaml:"job"`
}

// New builds a Task with a freshly generated 21-character correlation ID.
func New(host string, es state.ExpectedState, job Job) (Task, error) {
	id, err := gonanoid.Generate(correlationIDAlphabet, correlationIDLength)
	if err != nil {
		return Task{}, fmt.Errorf("generate correlation id: %w", err)
	}
	return Task{CorrelationID: id, Host: host, ExpectedState: es, Job: job}, nil
}

// ResultKind names which shape a Result carries. Exactly one of the
// corresponding fields on Result is populated.
type ResultKind string

const (
	ResultAssessment ResultKind = "assessment"
	ResultReach      ResultKind = "reach"
)

// Result is a Task's outcome, carrying the same correlation ID as the
// originating Task so a caller can match responses to requests.
type Result struct {
	CorrelationID string                                 `json:"correlation_id" yaml:"correlation_id"`
	Kind          ResultKind                             `json:"kind" yaml:"kind"`
	Assessment    *managedhost.HostComplianceAssessment  `json:"assessment,omitempty" yaml:"assessment,omitempty"`
	Reach         *managedhost.HostReachResult           `json:"reach,omitempty" yaml:"reach,omitempty"`
	Error         string                                 `json:"error,omitempty" yaml:"error,omitempty"`
}

// Run connects handler to the task's host, performs the requested job, and
// disconnects regardless of outcome. It never panics on a run-time failure;
// errors are surfaced through Result.Error so the caller can still
// serialize and return the Result to whoever dispatched the Task.
func Run(ctx context.Context, t Task, handler hosthandler.HostHandler, vars map[string]string) Result {
	mh := managedhost.New(t.Host, handler, vars)

	if err := mh.Connect(ctx); err != nil {
		return Result{CorrelationID: t.CorrelationID, Error: err.Error()}
	}
	defer mh.Disconnect()

	switch t.Job {
	case JobAssess:
		assessment, err := mh.AssessCompliance(ctx, t.ExpectedState)
		if err != nil {
			return Result{CorrelationID: t.CorrelationID, Error: err.Error()}
		}
		return Result{CorrelationID: t.CorrelationID, Kind: ResultAssessment, Assessment: &assessment}
	case JobReach:
		reach, err := mh.ReachCompliance(ctx, t.ExpectedState)
		if err != nil {
			return Result{CorrelationID: t.CorrelationID, Error: err.Error()}
		}
		return Result{CorrelationID: t.CorrelationID, Kind: ResultReach, Reach: &reach}
	default:
		return Result{CorrelationID: t.CorrelationID, Error: fmt.Sprintf("task: unknown job %q", t.Job)}
	}
}
