package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/cuemby/fluxdns/pkg/api"
	"github.com/cuemby/fluxdns/pkg/log"
	"github.com/cuemby/fluxdns/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Reconcile DNS continuously",
	Long: `Run a reconciliation pass immediately and then every interval until
interrupted. Health, readiness, metrics and the last pass report are served on
the status address.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("status-addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		svc, err := newService(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		status := api.NewStatusServer(svc.reconciler)
		errCh := make(chan error, 1)
		go func() {
			if err := status.Start(cfg.Server.Addr); err != nil {
				errCh <- fmt.Errorf("status server error: %w", err)
			}
		}()

		log.Logger.Info().
			Str("zone", cfg.DNS.Zone).
			Str("filter", cfg.Catalog.Filter).
			Dur("interval", cfg.Interval).
			Str("probe", cfg.Probe.Type).
			Str("version", Version).
			Msg("fluxdns starting")

		svc.reconciler.Start(ctx)

		var runErr error
		select {
		case <-ctx.Done():
			log.Info("shutting down")
		case err := <-errCh:
			runErr = err
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := status.Shutdown(shutdownCtx); err != nil {
			log.Logger.Warn().Err(err).Msg("status server shutdown")
		}

		return multierr.Combine(runErr, svc.Close())
	},
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single reconciliation pass and print the outcome",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		svc, err := newService(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report := svc.reconciler.RunPass(ctx)
		printReport(cmd, report)

		if report.Count(types.OutcomeFailed) > 0 {
			return fmt.Errorf("%d application(s) failed", report.Count(types.OutcomeFailed))
		}
		return nil
	},
}

func init() {
	runCmd.Flags().String("status-addr", "", "Address for the status/metrics server (overrides config)")
}

func printReport(cmd *cobra.Command, report types.PassReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Pass %s: %d application(s) in %s\n\n", report.ID, report.Applications, report.Duration.Round(time.Millisecond))
	if len(report.Outcomes) == 0 {
		return
	}

	names := make([]string, 0, len(report.Outcomes))
	for name := range report.Outcomes {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "APPLICATION\tOUTCOME\tPEER\tCANDIDATES\tLIVE\tADDRESS\tERROR")
	for _, name := range names {
		o := report.Outcomes[name]
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			o.App, o.Kind, dash(o.Peer), o.Candidates, o.Live, dash(o.Selected), dash(o.Error))
	}
	_ = w.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
