package supervisor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ancillary-agi/snakearena/internal/config"
)

func TestChildArgsIncludesOverriddenTunables(t *testing.T) {
	cfg := config.Default()
	cfg.Port = 9001
	cfg.Workers = 3
	cfg.TickInterval = 150 * time.Millisecond
	cfg.ClientTimeout = 10 * time.Second
	cfg.LogPretty = true

	args := childArgs(cfg)

	require.Contains(t, args, "9001")
	require.Contains(t, args, "3")
	require.Contains(t, args, "150ms")
	require.Contains(t, args, "10s")
	require.Contains(t, args, "--log-pretty=true")
}
