// Package uow defines the unit-of-work boundary shared by every stock
// workflow. A transaction travels in the context so repositories join it
// without being handed an explicit handle.
package uow

import (
	"context"
	"sync"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
)

// Transactor runs fn inside one atomic transaction. A call made while a
// transaction is already open on ctx joins it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type hooksKey struct{}

// Hooks collects callbacks that must only run once the outermost
// transaction has committed.
type Hooks struct {
	mu  sync.Mutex
	fns []func(ctx context.Context)
}

// WithHooks attaches a fresh hook list to ctx. Transactor implementations
// call it when opening the outermost transaction.
func WithHooks(ctx context.Context) (context.Context, *Hooks) {
	h := &Hooks{}
	return context.WithValue(ctx, hooksKey{}, h), h
}

// AfterCommit registers fn to run after commit. Outside a transaction fn runs
// immediately.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	h, ok := ctx.Value(hooksKey{}).(*Hooks)
	if !ok {
		fn(ctx)
		return
	}
	h.mu.Lock()
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
}

// Run executes the registered callbacks in registration order.
func (h *Hooks) Run(ctx context.Context) {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()

	// committed work must not be tied to the request deadline
	ctx = context.WithoutCancel(ctx)
	for _, fn := range fns {
		fn(ctx)
	}
}

// Retry re-runs fn while it fails with a retryable concurrency conflict, at
// most attempts times in total. Any other error is returned as is.
func Retry(ctx context.Context, attempts int, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = fn(ctx)
		if err == nil || !apperr.Retryable(err) {
			return err
		}
	}
	return err
}

// Active reports whether ctx is inside a transaction opened by a Transactor.
func Active(ctx context.Context) bool {
	_, ok := ctx.Value(hooksKey{}).(*Hooks)
	return ok
}

// Run executes fn in a transaction. At the outermost level the whole
// transaction is retried on concurrency conflicts; a nested call joins the
// open transaction and leaves retrying to its owner.
func Run(ctx context.Context, tx Transactor, attempts int, fn func(ctx context.Context) error) error {
	if Active(ctx) {
		return tx.WithinTransaction(ctx, fn)
	}
	return Retry(ctx, attempts, func(ctx context.Context) error {
		return tx.WithinTransaction(ctx, fn)
	})
}
