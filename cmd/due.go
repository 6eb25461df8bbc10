package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "List people due for review, most overdue first",
	Args:  cobra.NoArgs,
	RunE:  runDue,
}

func init() {
	rootCmd.AddCommand(dueCmd)
	dueCmd.Flags().Bool("json", false, "Output as JSON")
}

func runDue(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := setupApp(ctx, indexOnDemand)
	if err != nil {
		return err
	}
	defer a.close()

	due, err := a.svc.Due(ctx)
	if err != nil {
		return err
	}
	if mustGetBool(cmd, "json") {
		return outputJSON(due)
	}
	if len(due) == 0 {
		fmt.Println("Nobody is due for review.")
		return nil
	}

	fmt.Printf("%d people due for review:\n", len(due))
	for _, st := range due {
		switch {
		case st.State == nil:
			fmt.Printf("  %-30s never quizzed\n", st.DisplayName)
		case st.DaysUntilReview < 0:
			fmt.Printf("  %-30s %d days overdue\n", st.DisplayName, -st.DaysUntilReview)
		default:
			fmt.Printf("  %-30s due today\n", st.DisplayName)
		}
	}
	return nil
}
