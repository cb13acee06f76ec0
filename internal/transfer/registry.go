package transfer

import (
	"context"
	"errors"
	"sync"

	liberrors "github.com/joe/nexus-library/pkg/errors"
)

// ErrAborted is the cause of a transfer stopped through Abort.
var ErrAborted = errors.New("transfer aborted")

// Registry maps abort handles to running transfers.
type Registry struct {
	mu     sync.Mutex
	active map[string]context.CancelCauseFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{active: make(map[string]context.CancelCauseFunc)}
}

func (r *Registry) register(id string, cancel context.CancelCauseFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.active[id]; exists {
		return liberrors.Newf(liberrors.KindTransfer, "register", "transfer %q is already running", id)
	}

	r.active[id] = cancel

	return nil
}

func (r *Registry) release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.active, id)
}

// Abort stops the transfer registered under id. Aborting an unknown or
// finished transfer succeeds.
func (r *Registry) Abort(id string) error {
	r.mu.Lock()
	cancel, ok := r.active[id]
	r.mu.Unlock()

	if ok {
		cancel(ErrAborted)
	}

	return nil
}

// Running reports whether a transfer is registered under id.
func (r *Registry) Running(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.active[id]

	return ok
}
