package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/burnedikt/diasend-nightscout-bridge/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Synchronize the pump settings",
	Long:  "The profile command copies the basal schedule and pump settings from diasend to the Nightscout profile",
	RunE:  func(cmd *cobra.Command, args []string) error { return Run(syncProfile) },
}

func syncProfile(synchronizer *profile.Synchronizer) error {
	if !synchronizer.Enabled() {
		return fmt.Errorf("no nightscout profile name is configured")
	}
	if err := synchronizer.Sync(context.Background()); err != nil {
		return err
	}
	fmt.Println("Profile is up to date")
	return nil
}

func init() {
	rootCmd.AddCommand(profileCmd)
}
