package main

import (
	"fmt"

	"kind-match/internal/scheduler"

	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Create missing matches for approved applications once and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		c, err := build(cfg, log)
		if err != nil {
			return err
		}
		defer c.Close()

		repaired := scheduler.New(c.applications, cfg.ReconcileInterval, log).RunOnce(cmd.Context())
		fmt.Printf("repaired %d application(s)\n", repaired)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
