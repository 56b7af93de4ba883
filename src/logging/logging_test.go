package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"git.collab.network/collab/src/oops"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestPrettyWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(NewPrettyZerologWriter(&buf))

	logger.Error().
		Err(oops.New(errors.New("connection reset"), "failed to deliver notification")).
		Int("notification", 12).
		Msg("delivery failed")

	out := buf.String()
	assert.Contains(t, out, "delivery failed")
	assert.Contains(t, out, "failed to deliver notification: connection reset")
	assert.Contains(t, out, "notification: 12")
}

func TestExtractLogger(t *testing.T) {
	t.Run("falls back to the global logger", func(t *testing.T) {
		assert.Same(t, GlobalLogger(), ExtractLogger(context.Background()))
	})
	t.Run("attached logger", func(t *testing.T) {
		logger := zerolog.Nop()
		ctx := AttachLoggerToContext(&logger, context.Background())
		assert.Same(t, &logger, ExtractLogger(ctx))
	})
}
