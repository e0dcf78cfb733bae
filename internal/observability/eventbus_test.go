package observability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/davidbz/folio/internal/observability"
)

func TestEventBus_Publish(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	bus := observability.NewEventBus(zap.New(core))

	ctx := observability.WithRunID(context.Background(), "run-1")
	ctx = observability.WithFile(ctx, "a.pdf")

	bus.Publish(ctx, "file.finished", map[string]interface{}{
		"index":  0,
		"failed": false,
	})

	entries := logs.FilterMessage("file.finished").All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	require.Equal(t, "file.finished", fields["event"])
	require.Equal(t, "run-1", fields["run_id"])
	require.Equal(t, "a.pdf", fields["file"])
	require.Equal(t, false, fields["failed"])
}

func TestFromContext_AttachesFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	observability.SetLogger(zap.New(core))
	t.Cleanup(func() { observability.SetLogger(zap.NewNop()) })

	ctx := observability.WithRunID(context.Background(), "run-2")
	ctx = observability.WithModel(ctx, "gpt-4.1-nano")

	observability.FromContext(ctx).Info("hello")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "run-2", entries[0].ContextMap()["run_id"])
	require.Equal(t, "gpt-4.1-nano", entries[0].ContextMap()["model"])
	require.NotContains(t, entries[0].ContextMap(), "file")
}
