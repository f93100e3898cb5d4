package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "forumd", cfg.ServiceName)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInit_Disabled(t *testing.T) {
	tp, err := Init(DefaultConfig())
	require.NoError(t, err)
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestSpanHelpers_NoProvider(t *testing.T) {
	ctx, span := TraceModeration(context.Background(), "resolve", "r1")
	require.NotNil(t, span)
	defer span.End()

	assert.NotPanics(t, func() {
		AddSpanAttributes(ctx, CommentIDKey.String("c1"))
		RecordError(ctx, errors.New("boom"))
	})

	_, remote := TraceRemoteCall(ctx, "GET", "api.local", "/users/u1")
	remote.End()
}
