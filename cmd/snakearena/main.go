// Command snakearena is the supervisor entrypoint. A plain invocation
// starts the supervisor: it creates the shared region and listener, then
// re-execs itself with a hidden --internal-role flag to become a worker or
// the tick process.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ancillary-agi/snakearena/internal/config"
	"github.com/ancillary-agi/snakearena/internal/logging"
	"github.com/ancillary-agi/snakearena/internal/supervisor"
)

func main() {
	var (
		configPath                   string
		width, height                int
		slots, bodyCap, foodCount    int
		port, workers                int
		tickInterval, clientTimeout  string
		maxPayload                   int
		logPretty                    bool
		logLevel                     string
		internalRole                 string
		internalWorkerID             int
	)

	root := &cobra.Command{
		Use:   "snakearena",
		Short: "Multiplayer arcade snake server: preforked core over shared memory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			applyFlagOverrides(&cfg, cmd, width, height, slots, bodyCap, foodCount,
				port, workers, tickInterval, clientTimeout, maxPayload, logPretty, logLevel)
			if err := cfg.Validate(); err != nil {
				return err
			}

			if internalRole != "" {
				return runChildRole(internalRole, internalWorkerID, cfg)
			}
			return runSupervisor(cfg, configPath)
		},
		SilenceUsage: true,
	}

	flags := root.Flags()
	flags.StringVar(&configPath, "config", "", "optional YAML config file path")
	flags.IntVar(&width, "width", 0, "grid width (default 40)")
	flags.IntVar(&height, "height", 0, "grid height (default 40)")
	flags.IntVar(&slots, "slots", 0, "player slot capacity (default 100)")
	flags.IntVar(&bodyCap, "body-cap", 0, "max snake body length (default 100)")
	flags.IntVar(&foodCount, "food-count", 0, "food cells seeded at startup (default 20)")
	flags.IntVar(&port, "port", 0, "TCP listen port (default 8888)")
	flags.IntVar(&workers, "workers", 0, "worker process count (default 8)")
	flags.StringVar(&tickInterval, "tick-interval", "", "tick cadence, e.g. 200ms (default 200ms)")
	flags.StringVar(&clientTimeout, "client-timeout", "", "idle client timeout, e.g. 30s (default 30s)")
	flags.IntVar(&maxPayload, "max-payload", 0, "max frame payload size in bytes (default 262144)")
	flags.BoolVar(&logPretty, "log-pretty", false, "console-pretty logs instead of JSON")
	flags.StringVar(&logLevel, "log-level", "", "zerolog level name (default info)")

	// Hidden re-exec flags: never surfaced to an operator, only used by the
	// supervisor when launching worker and tick children.
	flags.StringVar(&internalRole, supervisor.RoleFlag[2:], "", "internal: child process role")
	flags.IntVar(&internalWorkerID, supervisor.WorkerIDFlag[2:], 0, "internal: worker id")
	_ = flags.MarkHidden(supervisor.RoleFlag[2:])
	_ = flags.MarkHidden(supervisor.WorkerIDFlag[2:])

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func applyFlagOverrides(cfg *config.Config, cmd *cobra.Command, width, height, slots, bodyCap, foodCount,
	port, workers int, tickInterval, clientTimeout string, maxPayload int, logPretty bool, logLevel string) {
	f := cmd.Flags()
	if f.Changed("width") {
		cfg.Width = width
	}
	if f.Changed("height") {
		cfg.Height = height
	}
	if f.Changed("slots") {
		cfg.Slots = slots
	}
	if f.Changed("body-cap") {
		cfg.BodyCap = bodyCap
	}
	if f.Changed("food-count") {
		cfg.FoodCount = foodCount
	}
	if f.Changed("port") {
		cfg.Port = port
	}
	if f.Changed("workers") {
		cfg.Workers = workers
	}
	if f.Changed("tick-interval") {
		if d, err := time.ParseDuration(tickInterval); err == nil {
			cfg.TickInterval = d
		}
	}
	if f.Changed("client-timeout") {
		if d, err := time.ParseDuration(clientTimeout); err == nil {
			cfg.ClientTimeout = d
		}
	}
	if f.Changed("max-payload") {
		cfg.MaxPayload = maxPayload
	}
	if f.Changed("log-pretty") {
		cfg.LogPretty = logPretty
	}
	if f.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
}

func runSupervisor(cfg config.Config, configPath string) error {
	log := logging.New("supervisor", cfg.LogPretty, cfg.LogLevel)

	sup, err := supervisor.New(cfg, log)
	if err != nil {
		return err
	}
	if err := sup.Launch(); err != nil {
		_ = sup.Shutdown()
		return err
	}

	stopWatch, err := config.WatchNotify(configPath, log)
	if err != nil {
		log.Warn().Err(err).Msg("config file watch disabled")
		stopWatch = func() {}
	}
	defer stopWatch()

	ctx, cancel := supervisor.NotifyContext()
	defer cancel()

	log.Info().Int("port", cfg.Port).Int("workers", cfg.Workers).Msg("supervisor ready")
	return sup.Run(ctx)
}

func runChildRole(role string, workerID int, cfg config.Config) error {
	ctx, cancel := supervisor.NotifyContext()
	defer cancel()

	switch role {
	case "worker":
		return supervisor.RunWorkerRole(ctx, cfg, workerID)
	case "tick":
		return supervisor.RunTickRole(ctx, cfg)
	default:
		return fmt.Errorf("snakearena: unknown internal role %q", role)
	}
}
