package supervisor

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/ancillary-agi/snakearena/internal/config"
)

// Inherited fd numbers in a re-exec'd child. exec.Cmd.ExtraFiles assigns
// fd 3, 4, ... in the order given; both roles get the region at fd 3, and
// only workers additionally get the shared listener at fd 4.
const (
	RegionFD   = 3
	ListenerFD = 4
)

// RoleFlag and WorkerIDFlag are the hidden flags cmd/snakearena uses to
// recognize a re-exec'd child and dispatch it to the worker or tick
// entrypoint instead of the normal supervisor startup path.
const (
	RoleFlag     = "--internal-role"
	WorkerIDFlag = "--internal-worker-id"
)

// childArgs reconstructs the visible CLI flags so a re-exec'd child parses
// an equivalent config.Config from its own argv, without needing to share
// any state with the parent beyond the inherited fds.
func childArgs(cfg config.Config) []string {
	return []string{
		"--width", strconv.Itoa(cfg.Width),
		"--height", strconv.Itoa(cfg.Height),
		"--slots", strconv.Itoa(cfg.Slots),
		"--body-cap", strconv.Itoa(cfg.BodyCap),
		"--food-count", strconv.Itoa(cfg.FoodCount),
		"--port", strconv.Itoa(cfg.Port),
		"--workers", strconv.Itoa(cfg.Workers),
		"--tick-interval", cfg.TickInterval.String(),
		"--client-timeout", cfg.ClientTimeout.String(),
		"--max-payload", strconv.Itoa(cfg.MaxPayload),
		"--log-pretty=" + strconv.FormatBool(cfg.LogPretty), // bool flags need "=" form in argv
		"--log-level", cfg.LogLevel,
	}
}

// launchWorker re-execs the current binary as worker id, handing it a
// fresh dup of the region fd and a fresh dup of the listener fd.
func launchWorker(binPath string, cfg config.Config, regionFile, listenerFile *os.File, id int) (*exec.Cmd, error) {
	args := append(childArgs(cfg), RoleFlag+"=worker", fmt.Sprintf("%s=%d", WorkerIDFlag, id))
	cmd := exec.Command(binPath, args...)
	cmd.ExtraFiles = []*os.File{regionFile, listenerFile}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("supervisor: start worker %d: %w", id, err)
	}
	return cmd, nil
}

// launchTick re-execs the current binary as the tick simulator process,
// handing it only the region fd — it never touches the listener.
func launchTick(binPath string, cfg config.Config, regionFile *os.File) (*exec.Cmd, error) {
	args := append(childArgs(cfg), RoleFlag+"=tick")
	cmd := exec.Command(binPath, args...)
	cmd.ExtraFiles = []*os.File{regionFile}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("supervisor: start tick process: %w", err)
	}
	return cmd, nil
}
