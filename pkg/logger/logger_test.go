package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestContextFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Level: zerolog.InfoLevel, Output: &buf})

	ctx := logg.WithRequestID(context.Background(), "req-123")
	ctx = logg.WithUserID(ctx, "user-456")
	logg.Info(ctx, "hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "req-123", entry["request_id"])
	require.Equal(t, "user-456", entry["user_id"])
	require.Equal(t, "test", entry["service"])
	require.Equal(t, "hello", entry["message"])
}

func TestErrorIncludesStack(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	logg.Error(context.Background(), "boom", nil)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Contains(t, entry, "stack")
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	require.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	require.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
	require.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	require.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
}
