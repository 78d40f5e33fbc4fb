package implementors

import (
	"log/slog"
	"runtime/debug"
)

// Middleware wraps a Consumer to add cross-cutting behavior.
// Middleware executes in FIFO order (first given wraps outermost, onion model).
type Middleware func(next Consumer) Consumer

// Chain wraps c with mws. Chain(c, a, b) delivers through a, then b, then c.
func Chain(c Consumer, mws ...Middleware) Consumer {
	for i := len(mws) - 1; i >= 0; i-- {
		c = mws[i](c)
	}
	return c
}

// RecoverMiddleware stops a panicking consumer from unwinding into the
// registry. The delivery is dropped and the panic is logged with its stack.
func RecoverMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Consumer) Consumer {
		return ConsumerFunc(func(delivery Implementors) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("consumer panicked, delivery dropped",
						"panic", r,
						"capabilities", len(delivery),
						"records", delivery.Count(),
						"stack", string(debug.Stack()))
				}
			}()
			next.Consume(delivery)
		})
	}
}

// LoggingMiddleware logs every delivery at debug level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Consumer) Consumer {
		return ConsumerFunc(func(delivery Implementors) {
			logger.Debug("delivering implementors",
				"capabilities", len(delivery),
				"records", delivery.Count())
			next.Consume(delivery)
		})
	}
}
