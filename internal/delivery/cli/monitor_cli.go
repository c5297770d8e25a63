package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"procPulse/config"
	"procPulse/internal/domain"
	"procPulse/internal/usecase"
)

// CLI wires the cobra command tree to the monitor service.
type CLI struct {
	service *usecase.MonitorService
	cfg     *config.Config
}

func New(service *usecase.MonitorService, cfg *config.Config) *CLI {
	return &CLI{service: service, cfg: cfg}
}

func (c *CLI) Execute() error {
	return c.rootCmd().Execute()
}

func (c *CLI) rootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "procpulse",
		Short: "Bounded process monitoring with memory-leak detection",
		Long: `procPulse samples a running process at a fixed interval for a bounded
duration, records CPU, resident memory and descriptor usage, and flags
probable memory-leak behavior in the collected series.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := log.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}
			log.SetLevel(lvl)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel,
		"log-level",
		c.cfg.LogLevel,
		"Log level. One of debug, info, warn, error, fatal, panic.",
	)

	root.AddCommand(c.monitorCmd(), versionCmd())
	return root
}

func (c *CLI) monitorCmd() *cobra.Command {
	var (
		interval    time.Duration
		byPID       bool
		output      string
		monitorAll  bool
		strictMatch bool
	)

	cmd := &cobra.Command{
		Use:   "monitor <name|pid> <duration>",
		Short: "Sample a process for a bounded duration and analyze it for memory leaks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := domain.ParseTarget(args[0], byPID)
			if err != nil {
				return err
			}
			duration, err := time.ParseDuration(args[1])
			if err != nil {
				return fmt.Errorf("invalid duration %q: %w", args[1], err)
			}
			if output == "" {
				output = config.DefaultReportName(time.Now())
			}

			runCfg := usecase.MonitorConfig{
				Target:      target,
				Interval:    interval,
				Duration:    duration,
				OutputPath:  output,
				MonitorAll:  monitorAll,
				StrictMatch: strictMatch,
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			runs, err := c.service.Monitor(ctx, runCfg)
			if err != nil {
				return err
			}
			return renderRuns(cmd.OutOrStdout(), runs)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", c.cfg.SampleInterval, "sampling interval")
	cmd.Flags().BoolVar(&byPID, "by-pid", false, "treat the identifier as a numeric process id")
	cmd.Flags().StringVar(&output, "output", "", "report file path (default procpulse_report_<timestamp>.csv)")
	cmd.Flags().BoolVar(&monitorAll, "all", false, "monitor every process matching the name, each independently")
	cmd.Flags().BoolVar(&strictMatch, "strict-match", false, "fail when a name matches more than one process")
	return cmd
}

// signalContext cancels the run between ticks on SIGINT/SIGTERM; the partial
// series is still analyzed and reported.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			log.Info("stop signal received, finishing with partial series")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// renderRuns prints one verdict row per monitored process.
func renderRuns(w io.Writer, runs []usecase.TargetRun) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PID\tSAMPLES\tVERDICT\tGROWTH(B/s)\tRISING\tREPORT")
	for _, run := range runs {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%.2f\t%.3f\t%s\n",
			run.PID,
			run.Series.Len(),
			run.Verdict.Classification,
			run.Verdict.GrowthBytesPerSec,
			run.Verdict.RisingFraction,
			run.ReportPath,
		)
	}
	return tw.Flush()
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "procPulse v1.0")
			fmt.Fprintln(cmd.OutOrStdout(), "Bounded process sampling and memory-leak detection")
		},
	}
}
