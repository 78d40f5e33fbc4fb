package implementors_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/reglet-dev/reglet-docindex/implementors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain_Order(t *testing.T) {
	t.Parallel()

	var trace []string
	tag := func(name string) implementors.Middleware {
		return func(next implementors.Consumer) implementors.Consumer {
			return implementors.ConsumerFunc(func(d implementors.Implementors) {
				trace = append(trace, name)
				next.Consume(d)
			})
		}
	}

	c := implementors.Chain(implementors.ConsumerFunc(func(implementors.Implementors) {
		trace = append(trace, "consumer")
	}), tag("first"), tag("second"))
	c.Consume(implementors.Implementors{})

	assert.Equal(t, []string{"first", "second", "consumer"}, trace)
}

func TestRecoverMiddleware_KeepsRegistryDelivering(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var got []string
	calls := 0
	consumer := implementors.ConsumerFunc(func(d implementors.Implementors) {
		calls++
		if calls == 1 {
			panic("renderer not ready")
		}
		got = append(got, d.Capabilities()...)
	})

	reg := implementors.NewRegistry(implementors.WithLogger(logger))
	require.NoError(t, reg.Attach(implementors.Chain(consumer,
		implementors.RecoverMiddleware(logger),
		implementors.LoggingMiddleware(logger))))

	require.NoError(t, reg.Ingest(*implementors.NewFragment("a").Add("T1", rec("A"))))
	require.NoError(t, reg.Ingest(*implementors.NewFragment("b").Add("T2", rec("B"))))

	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"T2"}, got)
	assert.Contains(t, logs.String(), "consumer panicked")
	assert.Contains(t, logs.String(), "delivering implementors")
}
