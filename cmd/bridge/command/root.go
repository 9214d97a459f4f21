package command

import (
	"fmt"
	"os"

	"github.com/DataDog/datadog-agent/pkg/util/fxutil"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/burnedikt/diasend-nightscout-bridge/app"
)

var logLevel string

// Run executes a given function with dependencies supplied by the bridge DI graph
// `f` must return an error or nothing
// `opts` can be used to supply additional arguments that are not provided by the bridge
func Run(f interface{}, opts ...fx.Option) error {
	deps := append(opts, app.Dependencies()...)
	return fxutil.OneShot(f, deps...)
}

var rootCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Synchronizes diasend records to Nightscout",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("log-level") {
			return nil
		}
		// Overwrite zap's log level
		return os.Setenv("BRIDGE_LOG_LEVEL", logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "v", "info", "Log Level")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
