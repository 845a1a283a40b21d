package backend_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"takeoff/internal/backend"
	"takeoff/internal/config"
	"takeoff/internal/port"
)

type fakeBackend struct{ name string }

func (f fakeBackend) Name() string    { return f.name }
func (f fakeBackend) Available() bool { return true }
func (f fakeBackend) Extract(context.Context, port.ExtractInput) (string, error) {
	return "", nil
}

func TestNew_RegisteredProvider(t *testing.T) {
	backend.RegisterProvider("fake", func(cfg *config.BackendProviderConfig) (port.VisionBackend, error) {
		return fakeBackend{name: cfg.Provider}, nil
	})

	b, err := backend.New(&config.BackendProviderConfig{Provider: "fake"})

	require.NoError(t, err)
	assert.Equal(t, "fake", b.Name())
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := backend.New(&config.BackendProviderConfig{Provider: "does-not-exist"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown vision backend provider")
}

func TestParseRetryAfterHeader(t *testing.T) {
	assert.Equal(t, 30, backend.ParseRetryAfterHeader("30"))
	assert.Equal(t, 0, backend.ParseRetryAfterHeader(""))
	assert.Equal(t, 0, backend.ParseRetryAfterHeader("Wed, 21 Oct 2015 07:28:00 GMT"))
}

func TestRateLimitError(t *testing.T) {
	base := assert.AnError
	err := backend.NewRateLimitError("anthropic", base, 30)

	assert.Equal(t, 30*time.Second, err.RetryAfter)
	assert.ErrorIs(t, err, base)

	defaulted := backend.NewRateLimitError("openai", base, 0)
	assert.Equal(t, 60*time.Second, defaulted.RetryAfter)
}
