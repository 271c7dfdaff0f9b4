package main

import (
	"fmt"
	"os"

	"github.com/cuemby/fluxdns/pkg/config"
	"github.com/cuemby/fluxdns/pkg/log"
	"github.com/cuemby/fluxdns/pkg/metrics"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fluxdns",
	Short: "fluxdns - DNS records that follow live Flux application instances",
	Long: `fluxdns keeps one A record per Flux application pointed at an instance
that is actually serving players.

Every pass it reads the application catalog, asks a reachable directory peer
where each application runs, probes every reported instance and points
<app>.<zone> at the first live one. When nothing can be verified the record
is left alone.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"fluxdns version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit JSON logs")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(onceCmd)
	rootCmd.AddCommand(peersCmd)
	rootCmd.AddCommand(appsCmd)
}

// loadConfig reads the config file, applies the environment and flags, and
// initialises logging. Validation is left to the caller since not every
// command needs DNS credentials.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if cmd.Flags().Changed("json-logs") {
		cfg.Log.JSON, _ = cmd.Flags().GetBool("json-logs")
	}

	log.Init(log.Config{
		Level:      log.ParseLevel(cfg.Log.Level),
		JSONOutput: cfg.Log.JSON,
	})
	metrics.SetVersion(Version)

	return cfg, nil
}
