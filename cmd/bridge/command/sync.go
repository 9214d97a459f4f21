package command

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/burnedikt/diasend-nightscout-bridge/nightscout"
	"github.com/burnedikt/diasend-nightscout-bridge/reconcile"
)

var dryRun bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a single reconciliation cycle",
	Long:  "The sync command reconciles the records published since the latest bridge record in Nightscout and exits",
	RunE: func(cmd *cobra.Command, args []string) error {
		if dryRun {
			return Run(planCycle)
		}
		return Run(syncCycle)
	},
}

func syncCycle(bridge *reconcile.Bridge) error {
	if err := bridge.Sync(context.Background()); err != nil {
		return err
	}
	fmt.Printf("Synchronized records up to %s\n", bridge.Watermark().Format(time.RFC3339))
	return nil
}

func planCycle(bridge *reconcile.Bridge) error {
	plan, err := bridge.DryRun(context.Background())
	if err != nil {
		return err
	}
	if plan.IsEmpty() {
		fmt.Printf("Nothing to do between %s and %s\n", plan.From.Format(time.RFC3339), plan.To.Format(time.RFC3339))
		return nil
	}

	for _, entry := range plan.Entries {
		fmt.Printf("create entry      %s %s\n", entry.BaseEntry().DateString, entry.EntryType())
	}
	for _, treatment := range plan.Treatments {
		fmt.Printf("create treatment  %s\n", nightscout.Reference(treatment))
	}
	for _, treatment := range plan.Deletions {
		fmt.Printf("delete treatment  %s %s\n", treatment.TreatmentBase().ID, nightscout.Reference(treatment))
	}
	for _, bolus := range plan.Withheld {
		fmt.Printf("withhold bolus    %s\n", nightscout.Reference(bolus))
	}
	if plan.Malformed > 0 {
		fmt.Printf("Skipped %v malformed records\n", plan.Malformed)
	}
	return nil
}

func init() {
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the planned changes without applying them")
	rootCmd.AddCommand(syncCmd)
}
