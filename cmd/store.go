package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	evictDays  int
	clearForce bool
)

// storeCmd groups item store maintenance subcommands.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect and maintain the item store",
}

var storeStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print item store statistics as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newMaintenanceApp(cmd.Context(), GetConfig())
		if err != nil {
			return err
		}
		defer a.Close()
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(a.store.Stats())
	},
}

var storeEvictCmd = &cobra.Command{
	Use:   "evict",
	Short: "Remove items older than --days (default store.max_age_days)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		days := evictDays
		if days <= 0 {
			days = cfg.Store.MaxAgeDays
		}
		a, err := newMaintenanceApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		n := a.store.EvictOlderThan(cmd.Context(), days)
		fmt.Fprintf(cmd.OutOrStdout(), "evicted %d items older than %d days\n", n, days)
		return nil
	},
}

var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every item from the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearForce {
			return errors.New("refusing to clear the store without --yes")
		}
		a, err := newMaintenanceApp(cmd.Context(), GetConfig())
		if err != nil {
			return err
		}
		defer a.Close()
		n := a.store.Clear(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "cleared %d items\n", n)
		return nil
	},
}

func init() {
	storeEvictCmd.Flags().IntVar(&evictDays, "days", 0, "max item age in days")
	storeClearCmd.Flags().BoolVar(&clearForce, "yes", false, "confirm clearing")
	storeCmd.AddCommand(storeStatsCmd, storeEvictCmd, storeClearCmd)
	rootCmd.AddCommand(storeCmd)
}
