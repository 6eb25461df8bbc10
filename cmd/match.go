package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/kozaktomas/face-recall/internal/facematch"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Identify a face embedding against known people",
	Long: `Score a face embedding against every known person and print the decision.
With --assign an accepted match is stored as a new sample of the matched person.
Review and reject decisions are never stored.`,
	Args: cobra.NoArgs,
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	addEmbeddingFlags(matchCmd)
	matchCmd.Flags().Bool("assign", false, "Store the sample when the match is accepted")
	matchCmd.Flags().Int("limit", 5, "Number of candidates to print")
	matchCmd.Flags().Bool("json", false, "Output as JSON")
}

func runMatch(cmd *cobra.Command, args []string) error {
	in, err := sampleInputFromFlags(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := setupApp(ctx, indexOnDemand)
	if err != nil {
		return err
	}
	defer a.close()

	var (
		result facematch.MatchResult
		sample *database.FaceSample
	)
	if mustGetBool(cmd, "assign") {
		result, sample, err = a.svc.MatchAndAssign(ctx, in)
	} else {
		result, err = a.svc.Match(ctx, in.Embedding)
	}
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(struct {
			facematch.MatchResult
			Sample *database.FaceSample `json:"sample,omitempty"`
		}{result, sample})
	}

	names := make(map[string]string)
	if people, err := a.svc.Store().List(ctx); err == nil {
		for _, p := range people {
			names[p.ID] = p.DisplayName
		}
	}

	switch result.Decision {
	case facematch.Accept:
		fmt.Printf("Accept: %s (%.3f)\n", names[result.BestPersonID], result.BestScore)
	case facematch.Review:
		fmt.Printf("Review: possibly %s (%.3f)\n", names[result.BestPersonID], result.BestScore)
	default:
		fmt.Printf("Reject: no known person (best %.3f)\n", result.BestScore)
	}
	if result.Ambiguous {
		fmt.Println("Two candidates scored the same, confirm manually.")
	}
	if sample != nil {
		fmt.Printf("Stored sample %s\n", sample.ID)
	}

	limit := mustGetInt(cmd, "limit")
	for i, c := range result.Candidates {
		if i >= limit {
			break
		}
		fmt.Printf("  %d. %-30s %.3f\n", i+1, names[c.PersonID], c.Score)
	}
	return nil
}
