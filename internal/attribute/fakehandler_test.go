package attribute

import (
	"context"
	"fmt"

	"github.com/hostguard/compliance/internal/command"
	"github.com/hostguard/compliance/internal/hosthandler"
	"github.com/hostguard/compliance/internal/privilege"
)

// fakeHandler is a scripted hosthandler.HostHandler for attribute unit
// tests: each call to RunCommand is matched against a table of exact
// command strings, and every invocation is recorded for later assertions.
type fakeHandler struct {
	available map[string]bool
	responses map[string]command.Result
	calls     []string
}

func newFakeHandler() *fakeHandler {
	return &fakeHandler{
		available: make(map[string]bool),
		responses: make(map[string]command.Result),
	}
}

func (f *fakeHandler) withAvailable(cmd string, ok bool) *fakeHandler {
	f.available[cmd] = ok
	return f
}

func (f *fakeHandler) withResponse(cmd string, res command.Result) *fakeHandler {
	f.responses[cmd] = res
	return f
}

func (f *fakeHandler) Connect(ctx context.Context, endpoint string) error { return nil }
func (f *fakeHandler) IsConnected() bool                                 { return true }
func (f *fakeHandler) Disconnect() error                                 { return nil }
func (f *fakeHandler) Clone() hosthandler.HostHandler                    { return f }

func (f *fakeHandler) IsCommandAvailable(ctx context.Context, cmd string, priv privilege.Privilege) (bool, error) {
	if ok, known := f.available[cmd]; known {
		return ok, nil
	}
	return true, nil
}

func (f *fakeHandler) RunCommand(ctx context.Context, cmd string, priv privilege.Privilege) (command.Result, error) {
	f.calls = append(f.calls, cmd)
	if res, ok := f.responses[cmd]; ok {
		return res, nil
	}
	return command.Result{}, fmt.Errorf("fakeHandler: no scripted response for command %q", cmd)
}
