package closer

import (
	"context"
	"sync"

	"github.com/jnardiello/printfarmhq-sub002/platform/logger"
)

// CloseFunc releases a single resource. It must be safe to call once.
type CloseFunc func(ctx context.Context) error

type namedCloser struct {
	name string
	fn   CloseFunc
}

type closer struct {
	mu      sync.Mutex
	closers []namedCloser
	log     *logger.Logger
}

var global = &closer{log: logger.L()}

func SetLogger(l *logger.Logger) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.log = l
}

// Add registers an anonymous closer.
func Add(fn CloseFunc) {
	AddNamed("", fn)
}

// AddNamed registers a closer that is reported by name during shutdown.
func AddNamed(name string, fn CloseFunc) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.closers = append(global.closers, namedCloser{name: name, fn: fn})
}

// CloseAll runs every registered closer in reverse registration order, so
// resources shut down before their dependencies. The first error is returned
// but the remaining closers still run.
func CloseAll(ctx context.Context) error {
	global.mu.Lock()
	closers := global.closers
	global.closers = nil
	log := global.log
	global.mu.Unlock()

	var firstErr error
	for i := len(closers) - 1; i >= 0; i-- {
		c := closers[i]
		if c.name != "" {
			log.Info(ctx, "closing", logger.String("resource", c.name))
		}
		if err := c.fn(ctx); err != nil {
			log.Error(ctx, "close failed",
				logger.String("resource", c.name),
				logger.ErrorF(err),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
