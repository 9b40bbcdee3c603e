package errors

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelWrapping(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", NotFoundf("device %d", 3), IsNotFound},
		{"invalid input", InvalidInputf("bad value %q", "x"), IsInvalidInput},
		{"device unavailable", DeviceUnavailablef("port closed"), IsDeviceUnavailable},
		{"write timeout", WriteTimeoutf("attempt %d", 2), IsWriteTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			// Another layer of wrapping must not break the sentinel check.
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.True(t, tt.check(wrapped))
		})
	}
}

func TestWriteTimeoutIsNotDeviceUnavailable(t *testing.T) {
	err := WriteTimeoutf("attempt 1")
	assert.True(t, IsWriteTimeout(err))
	assert.False(t, IsDeviceUnavailable(err))
}

func TestWrapErrorf(t *testing.T) {
	base := errors.New("boom")
	wrapped := WrapErrorf(base, "writing device %d", 1)
	require.Error(t, wrapped)
	assert.ErrorIs(t, wrapped, base)
	assert.Contains(t, wrapped.Error(), "writing device 1")

	assert.Nil(t, WrapErrorf(nil, "ignored"))
}

func TestLogErrorAndReturn(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	err := errors.New("bus fault")
	got := LogErrorAndReturn(logger, err, "write failed", "device", 2)
	assert.Equal(t, err, got)
	assert.Contains(t, buf.String(), "write failed")
	assert.Contains(t, buf.String(), "bus fault")

	buf.Reset()
	assert.Nil(t, LogErrorAndReturn(logger, nil, "should not log"))
	assert.Empty(t, buf.String())
}
