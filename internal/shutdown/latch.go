// Package shutdown provides the process shutdown latch.
package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// Hook is run when the latch is released.
type Hook func(ctx context.Context) error

// Latch blocks the main goroutine until the process is asked to stop, then
// runs the registered hooks in reverse registration order.
type Latch struct {
	timeout time.Duration

	mu      sync.Mutex
	hooks   []namedHook
	release chan struct{}
	once    sync.Once
	done    chan struct{}
}

type namedHook struct {
	name string
	fn   Hook
}

// NewLatch creates a latch whose hooks share a single timeout.
func NewLatch(timeout time.Duration) *Latch {
	return &Latch{
		timeout: timeout,
		release: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// OnShutdown registers a hook.
func (l *Latch) OnShutdown(name string, hook Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, namedHook{name: name, fn: hook})
}

// Release opens the latch without a signal. Safe to call more than once.
func (l *Latch) Release() {
	l.once.Do(func() { close(l.release) })
}

// Wait blocks until SIGINT, SIGTERM, Release or ctx cancellation, then runs the hooks.
func (l *Latch) Wait(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutdown requested")
	case <-l.release:
		log.Info().Msg("shutdown released")
	case <-ctx.Done():
		log.Info().Msg("shutdown context cancelled")
	}

	err := l.runHooks()
	close(l.done)
	return err
}

// Done is closed once every hook has run.
func (l *Latch) Done() <-chan struct{} {
	return l.done
}

func (l *Latch) runHooks() error {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	l.mu.Lock()
	hooks := make([]namedHook, len(l.hooks))
	copy(hooks, l.hooks)
	l.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i].fn(ctx); err != nil {
			log.Err(err).Str("hook", hooks[i].name).Msg("shutdown hook failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
