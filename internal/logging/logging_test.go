package logging

import (
	"bytes"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// captureStderr points os.Stderr at a pipe while build runs, so the logger
// it returns writes into the pipe; the returned read func closes the write
// end and returns everything written.
func captureStderr(t *testing.T, build func() zerolog.Logger) (zerolog.Logger, func() string) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stderr
	os.Stderr = w
	log := build()
	os.Stderr = orig
	return log, func() string {
		require.NoError(t, w.Close())
		var buf bytes.Buffer
		_, err := buf.ReadFrom(r)
		require.NoError(t, err)
		return buf.String()
	}
}

func TestNewTagsRole(t *testing.T) {
	log, read := captureStderr(t, func() zerolog.Logger { return New("supervisor", false, "info") })
	log.Info().Msg("hello")
	require.Contains(t, read(), `"role":"supervisor"`)
}

func TestForWorkerTagsWorkerID(t *testing.T) {
	log, read := captureStderr(t, func() zerolog.Logger { return ForWorker(3, false, "debug") })
	require.Equal(t, zerolog.DebugLevel, log.GetLevel())
	log.Info().Msg("hello")
	require.Contains(t, read(), `"worker_id":3`)
}

func TestNewFallsBackToInfoOnBadLevel(t *testing.T) {
	log := New("tick", false, "not-a-real-level")
	require.Equal(t, zerolog.InfoLevel, log.GetLevel())
}
