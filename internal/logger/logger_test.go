package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Environments(t *testing.T) {
	for _, env := range []string{"prod", "local", "docker"} {
		l, err := New(env, Options{})
		require.NoError(t, err, env)
		assert.NotNil(t, l)
	}

	_, err := New("staging", Options{})
	assert.ErrorContains(t, err, "unknown environment")
}

func TestNew_Levels(t *testing.T) {
	l, err := New("prod", Options{})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))

	l, err = New("prod", Options{Interactive: true})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l, err = New("local", Options{Interactive: true, Level: "debug"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	_, err = New("prod", Options{Level: "loud"})
	assert.ErrorContains(t, err, "invalid log level")
}

func TestFromContext_DefaultsToNop(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.False(t, l.Core().Enabled(zapcore.ErrorLevel))
}

func TestWith_PropagatesFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := ContextWithLogger(context.Background(), zap.New(core))

	ctx, l := With(ctx, zap.String("kind", "layer"))
	l.Info("first")
	FromContext(ctx).Info("second")

	require.Equal(t, 2, logs.Len())
	for _, e := range logs.All() {
		assert.Equal(t, "layer", e.ContextMap()["kind"], e.Message)
	}
}
