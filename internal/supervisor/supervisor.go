// Package supervisor implements the parent process: it creates the shared
// memory region and the listening socket, re-execs itself as N worker
// processes and one tick process with those file descriptors inherited,
// and tears everything down in response to a termination signal. Self-re-exec
// with exec.Cmd.ExtraFiles stands in for fork(), the same pattern used by
// process-supervising Go binaries such as Docker/Moby's reexec package.
package supervisor

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/ancillary-agi/snakearena/internal/config"
	"github.com/ancillary-agi/snakearena/internal/ipc"
	"github.com/ancillary-agi/snakearena/internal/logging"
	"github.com/ancillary-agi/snakearena/internal/state"
)

// Supervisor owns the shared region, the listener, and every child
// process's lifetime.
type Supervisor struct {
	cfg config.Config
	log zerolog.Logger

	region   *ipc.Region
	listener *net.TCPListener

	workers []*exec.Cmd
	tick    *exec.Cmd
}

// New creates and initializes the shared region, seeds the board, and
// binds the listening socket. The region and listener are ready for
// children to inherit, but no child has been launched yet.
func New(cfg config.Config, log zerolog.Logger) (*Supervisor, error) {
	region, err := ipc.Create(cfg.Width, cfg.Height, cfg.Slots, cfg.BodyCap)
	if err != nil {
		return nil, fmt.Errorf("supervisor: create region: %w", err)
	}

	state.New(region, cfg.FoodCount).InitBoard()

	ln, err := listenReuseAddr(cfg.Port)
	if err != nil {
		region.Close()
		return nil, fmt.Errorf("supervisor: listen :%d: %w", cfg.Port, err)
	}

	return &Supervisor{cfg: cfg, log: log, region: region, listener: ln}, nil
}

// listenReuseAddr binds a TCP listener with SO_REUSEADDR set, so a
// restarted supervisor isn't blocked by a prior run's TIME_WAIT sockets.
func listenReuseAddr(port int) (*net.TCPListener, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
	ln, err := lc.Listen(context.Background(), "tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}
	return ln.(*net.TCPListener), nil
}

// Launch re-execs the current binary as cfg.Workers worker processes and
// one tick process, each with the appropriate fds inherited.
func (s *Supervisor) Launch() error {
	binPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("supervisor: resolve executable path: %w", err)
	}

	listenerFile, err := s.listener.File()
	if err != nil {
		return fmt.Errorf("supervisor: dup listener fd: %w", err)
	}
	defer listenerFile.Close()

	for i := 0; i < s.cfg.Workers; i++ {
		regionFile, err := s.region.File()
		if err != nil {
			return fmt.Errorf("supervisor: dup region fd for worker %d: %w", i, err)
		}
		lnDup, err := dupFile(listenerFile)
		if err != nil {
			regionFile.Close()
			return fmt.Errorf("supervisor: dup listener fd for worker %d: %w", i, err)
		}
		cmd, err := launchWorker(binPath, s.cfg, regionFile, lnDup, i)
		regionFile.Close()
		lnDup.Close()
		if err != nil {
			return err
		}
		s.log.Info().Int("worker_id", i).Int("pid", cmd.Process.Pid).Msg("worker launched")
		s.workers = append(s.workers, cmd)
	}

	regionFile, err := s.region.File()
	if err != nil {
		return fmt.Errorf("supervisor: dup region fd for tick process: %w", err)
	}
	tickCmd, err := launchTick(binPath, s.cfg, regionFile)
	regionFile.Close()
	if err != nil {
		return err
	}
	s.log.Info().Int("pid", tickCmd.Process.Pid).Msg("tick process launched")
	s.tick = tickCmd

	return nil
}

func dupFile(f *os.File) (*os.File, error) {
	fd, err := unix.Dup(int(f.Fd()))
	if err != nil {
		return nil, err
	}
	return os.NewFile(uintptr(fd), f.Name()), nil
}

// Run blocks until ctx is cancelled (normally by a signal handler wired in
// cmd/snakearena), then tears everything down: children are signaled,
// reaped, and the region and listener released.
func (s *Supervisor) Run(ctx context.Context) error {
	<-ctx.Done()
	return s.Shutdown()
}

// Shutdown terminates and reaps every child, then releases the region and
// listener. Safe to call even if Launch partially failed.
func (s *Supervisor) Shutdown() error {
	s.log.Info().Msg("supervisor shutting down")

	all := append([]*exec.Cmd{}, s.workers...)
	if s.tick != nil {
		all = append(all, s.tick)
	}
	for _, cmd := range all {
		if cmd.Process == nil {
			continue
		}
		_ = cmd.Process.Signal(syscall.SIGTERM)
	}

	reapDeadline := time.After(5 * time.Second)
	for _, cmd := range all {
		done := make(chan struct{})
		go func(c *exec.Cmd) {
			c.Wait()
			close(done)
		}(cmd)
		select {
		case <-done:
		case <-reapDeadline:
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
		}
	}

	if err := s.region.Close(); err != nil {
		s.log.Error().Err(err).Msg("unmap region failed")
	}
	if err := s.listener.Close(); err != nil {
		s.log.Error().Err(err).Msg("close listener failed")
	}
	return nil
}

// NotifyContext returns a context cancelled on SIGINT or SIGTERM, the
// signal set that triggers orderly supervisor teardown.
func NotifyContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// RunWorkerRole is the re-exec entrypoint for a child started with
// --internal-role=worker: attach the inherited region and listener fds and
// run the worker event loop until ctx is cancelled.
func RunWorkerRole(ctx context.Context, cfg config.Config, workerID int) error {
	log := logging.ForWorker(workerID, cfg.LogPretty, cfg.LogLevel)

	regionFile := os.NewFile(uintptr(RegionFD), "snakearena-state")
	region, err := ipc.Attach(regionFile, cfg.Width, cfg.Height, cfg.Slots, cfg.BodyCap)
	if err != nil {
		return fmt.Errorf("worker %d: attach region: %w", workerID, err)
	}
	defer region.Close()

	st := state.New(region, cfg.FoodCount)

	return runWorkerLoop(ctx, cfg, workerID, st, log)
}

// RunTickRole is the re-exec entrypoint for a child started with
// --internal-role=tick: attach the inherited region fd and run the fixed
// cadence simulation advance until ctx is cancelled.
func RunTickRole(ctx context.Context, cfg config.Config) error {
	log := logging.New("tick", cfg.LogPretty, cfg.LogLevel)

	regionFile := os.NewFile(uintptr(RegionFD), "snakearena-state")
	region, err := ipc.Attach(regionFile, cfg.Width, cfg.Height, cfg.Slots, cfg.BodyCap)
	if err != nil {
		return fmt.Errorf("tick process: attach region: %w", err)
	}
	defer region.Close()

	st := state.New(region, cfg.FoodCount)
	return runTickLoop(ctx, cfg, st, log)
}
