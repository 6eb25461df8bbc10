package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-recall/internal/recall"
)

var personCmd = &cobra.Command{
	Use:   "person",
	Short: "Manage known people",
}

var personAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a person",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPersonAdd,
}

var personListCmd = &cobra.Command{
	Use:   "list",
	Short: "List people with their review schedule",
	Args:  cobra.NoArgs,
	RunE:  runPersonList,
}

var personDeleteCmd = &cobra.Command{
	Use:   "delete <person-id>",
	Short: "Delete a person with samples, review state and attempts",
	Args:  cobra.ExactArgs(1),
	RunE:  runPersonDelete,
}

func init() {
	rootCmd.AddCommand(personCmd)
	personCmd.AddCommand(personAddCmd, personListCmd, personDeleteCmd)

	personAddCmd.Flags().String("notes", "", "Free-text notes, e.g. where you met")
	personAddCmd.Flags().StringSlice("tag", nil, "Tag to attach (repeatable)")
	personAddCmd.Flags().Bool("json", false, "Output as JSON")

	personListCmd.Flags().String("tag", "", "Only list people with this tag")
	personListCmd.Flags().Bool("json", false, "Output as JSON")
}

func runPersonAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := setupApp(ctx, indexOnDemand)
	if err != nil {
		return err
	}
	defer a.close()

	p, err := a.svc.AddPerson(ctx, recall.PersonInput{
		DisplayName: strings.Join(args, " "),
		Notes:       mustGetString(cmd, "notes"),
		Tags:        mustGetStringSlice(cmd, "tag"),
	})
	if err != nil {
		return err
	}
	if mustGetBool(cmd, "json") {
		return outputJSON(p)
	}
	fmt.Printf("Added %s (%s)\n", p.DisplayName, p.ID)
	return nil
}

func runPersonList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := setupApp(ctx, indexOnDemand)
	if err != nil {
		return err
	}
	defer a.close()

	people, err := a.svc.Store().List(ctx)
	if err != nil {
		return fmt.Errorf("listing people: %w", err)
	}
	tag := mustGetString(cmd, "tag")
	now := a.svc.Now()

	statuses := make([]recall.ReviewStatus, 0, len(people))
	samples := make([]int, 0, len(people))
	for _, p := range people {
		if tag != "" && !p.HasTag(tag) {
			continue
		}
		statuses = append(statuses, recall.StatusOf(p, now))
		samples = append(samples, len(p.Samples))
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(statuses)
	}
	if len(statuses) == 0 {
		fmt.Println("No people found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSAMPLES\tPHASE\tNEXT REVIEW\tACCURACY")
	for i, st := range statuses {
		next := "now"
		if !st.NeedsReview {
			next = fmt.Sprintf("in %d days", st.DaysUntilReview)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%.0f%%\n", st.PersonID, st.DisplayName, samples[i], st.Phase, next, st.Accuracy*100)
	}
	return w.Flush()
}

func runPersonDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := setupApp(ctx, indexOnDemand)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.svc.DeletePerson(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}
