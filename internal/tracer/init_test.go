package tracer

import (
	"context"
	"testing"

	"einvoice-assistant-be/internal/config"
	"einvoice-assistant-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func TestDisabledTracerIsNoop(t *testing.T) {
	shutdown := InitTracer(config.TracingConfig{Enabled: false}, "test", logger.NewNopLogger())
	assert.NoError(t, shutdown(context.Background()))
}
