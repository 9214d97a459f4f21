package command

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X github.com/burnedikt/diasend-nightscout-bridge/cmd/bridge/command.Version=..."
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run:   func(cmd *cobra.Command, args []string) { fmt.Println(Version) },
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
