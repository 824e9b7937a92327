package managedhost

import (
	"context"
	"fmt"
	"sync"

	"github.com/hostguard/compliance/internal/command"
	"github.com/hostguard/compliance/internal/hosthandler"
	"github.com/hostguard/compliance/internal/privilege"
)

// fakeHandler is a scripted hosthandler.HostHandler safe for concurrent use
// by the parallel-assessment path: Clone shares the same response table.
type fakeHandler struct {
	mu        *sync.Mutex
	connected bool
	responses map[string]command.Result
	calls     *[]string
}

func newFakeHandler() *fakeHandler {
	calls := []string{}
	return &fakeHandler{
		mu:        &sync.Mutex{},
		connected: true,
		responses: make(map[string]command.Result),
		calls:     &calls,
	}
}

func (f *fakeHandler) withResponse(cmd string, res command.Result) *fakeHandler {
	f.responses[cmd] = res
	return f
}

func (f *fakeHandler) Connect(ctx context.Context, endpoint string) error { f.connected = true; return nil }
func (f *fakeHandler) IsConnected() bool                                 { return f.connected }
func (f *fakeHandler) Disconnect() error                                 { f.connected = false; return nil }
func (f *fakeHandler) Clone() hosthandler.HostHandler {
	return &fakeHandler{mu: f.mu, connected: f.connected, responses: f.responses, calls: f.calls}
}

func (f *fakeHandler) IsCommandAvailable(ctx context.Context, cmd string, priv privilege.Privilege) (bool, error) {
	return true, nil
}

func (f *fakeHandler) RunCommand(ctx context.Context, cmd string, priv privilege.Privilege) (command.Result, error) {
	f.mu.Lock()
	*f.calls = append(*f.calls, cmd)
	f.mu.Unlock()
	if res, ok := f.responses[cmd]; ok {
		return res, nil
	}
	return command.Result{}, fmt.Errorf("fakeHandler: no scripted response for command %q", cmd)
}
