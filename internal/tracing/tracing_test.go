package tracing

import (
	"context"
	"testing"

	"garage-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), config.TracingConfig{})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_Enabled(t *testing.T) {
	shutdown, err := Init(context.Background(), config.TracingConfig{
		Enabled:     true,
		Endpoint:    "localhost:4318",
		Insecure:    true,
		ServiceName: "garage-backend",
		Environment: "test",
		SampleRatio: 1,
	})
	require.NoError(t, err)
	// Nothing was recorded, so shutdown has nothing to flush.
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewResource(t *testing.T) {
	res := newResource(config.TracingConfig{ServiceName: "garage-backend", Environment: "staging"})
	v, ok := res.Set().Value(attribute.Key("service.name"))
	require.True(t, ok)
	assert.Equal(t, "garage-backend", v.AsString())
	v, ok = res.Set().Value(attribute.Key("deployment.environment"))
	require.True(t, ok)
	assert.Equal(t, "staging", v.AsString())
}
