package command

import (
	"github.com/spf13/cobra"

	"github.com/burnedikt/diasend-nightscout-bridge/app"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bridge",
	Long:  "The run command polls diasend and publishes new records to Nightscout until interrupted",
	Run:   func(cmd *cobra.Command, args []string) { app.MainLoop() },
}

func init() {
	rootCmd.AddCommand(runCmd)
}
