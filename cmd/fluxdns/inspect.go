package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/cuemby/fluxdns/pkg/catalog"
	"github.com/cuemby/fluxdns/pkg/directory"
	"github.com/spf13/cobra"
)

var peersCmd = &cobra.Command{
	Use:   "peers",
	Short: "Check which directory peers are reachable",
	Long: `Read the peer list and dial every peer's control port, reporting the
peers a pass would use. Nothing is written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		peers, err := directory.LoadPeers(cfg.Directory.PeersFile)
		if err != nil {
			return err
		}
		selector, err := newSelector(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		all, _ := cmd.Flags().GetBool("all")
		if all {
			selector.MaxPeers = len(peers)
		}

		selected := selector.Select(ctx, peers)
		reachable := make(map[string]bool, len(selected))
		for _, p := range selected {
			reachable[p.Address] = true
		}

		// Selection stops at the cap; peers after the last selected one were never dialed
		checkedUpTo := len(peers)
		if len(selected) > 0 && len(selected) >= selector.MaxPeers {
			last := selected[len(selected)-1].Address
			for i, p := range peers {
				if p.Address == last {
					checkedUpTo = i + 1
					break
				}
			}
		}

		out := cmd.OutOrStdout()
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PEER\tSTATUS\tURL")
		for i, p := range peers {
			status := "unreachable"
			switch {
			case reachable[p.Address]:
				status = "reachable"
			case i >= checkedUpTo:
				status = "not checked"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.Address, status, directory.PeerURL(p, cfg.Directory.ControlPort, cfg.Directory.Domain))
		}
		_ = w.Flush()

		fmt.Fprintf(out, "\n%d of %d peer(s) selected\n", len(selected), len(peers))
		return nil
	},
}

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "Show which catalog applications the filter selects",
	Long: `Fetch the application catalog, apply the configured filter and compare
the result with the tracked-application store. The store is only rewritten
with --sync.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if filter, _ := cmd.Flags().GetString("filter"); filter != "" {
			cfg.Catalog.Filter = filter
		}

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		if sync, _ := cmd.Flags().GetBool("sync"); sync {
			result, err := newSyncer(cfg, store).Refresh(ctx)
			if err != nil {
				return err
			}
			if result.StoreErr != nil {
				return result.StoreErr
			}
			fmt.Fprintf(out, "Tracking %d application(s): %d added, %d removed\n",
				len(result.Apps), len(result.Added), len(result.Removed))
			return nil
		}

		apps, err := catalog.NewClient(cfg.Catalog.URL, cfg.Catalog.Timeout).Fetch(ctx)
		if err != nil {
			return err
		}
		existing, err := store.Load()
		if err != nil {
			return err
		}

		desired := catalog.FilterNames(apps, cfg.Catalog.Filter)
		updated, added, removed := catalog.Sync(existing, desired)

		isNew := make(map[string]bool, len(added))
		for _, name := range added {
			isNew[name] = true
		}

		for _, name := range updated {
			marker := " "
			if isNew[name] {
				marker = "+"
			}
			fmt.Fprintf(out, "%s %s\n", marker, name)
		}
		for _, name := range removed {
			fmt.Fprintf(out, "- %s\n", name)
		}
		fmt.Fprintf(out, "\n%d of %d catalog application(s) match %q\n", len(desired), len(apps), cfg.Catalog.Filter)
		return nil
	},
}

func init() {
	peersCmd.Flags().Bool("all", false, "Check every peer instead of stopping at max_peers")

	appsCmd.Flags().String("filter", "", "Filter pattern (overrides config)")
	appsCmd.Flags().Bool("sync", false, "Rewrite the tracked-application store")
}
