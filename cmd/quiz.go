package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-recall/internal/quiz"
	"github.com/kozaktomas/face-recall/internal/recall"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Run an interactive name quiz in the terminal",
	Long: `Run a quiz session. For each face pick the right name by number.
In spaced mode people due for review come first; if nobody is due everyone
with a sample is quizzed. Each answer reschedules the person's next review.`,
	Args: cobra.NoArgs,
	RunE: runQuiz,
}

func init() {
	rootCmd.AddCommand(quizCmd)

	quizCmd.Flags().String("mode", "spaced", "Session mode: spaced, all or filtered")
	quizCmd.Flags().String("tag", "", "Only quiz people with this tag (filtered mode)")
	quizCmd.Flags().StringSlice("person", nil, "Only quiz these person IDs (filtered mode)")
	quizCmd.Flags().Int("limit", 0, "Maximum number of questions (default from QUIZ_SESSION_SIZE)")
	quizCmd.Flags().Int("distractors", -1, "Wrong names per question (default from QUIZ_DISTRACTORS)")
	quizCmd.Flags().Int64("seed", 0, "Seed for a reproducible session (random when unset)")
}

func quizOptionsFromFlags(cmd *cobra.Command) (quiz.Options, error) {
	mode, err := quiz.ParseMode(mustGetString(cmd, "mode"))
	if err != nil {
		return quiz.Options{}, err
	}
	opts := quiz.Options{
		Mode: mode,
		Filter: quiz.Filter{
			PersonIDs: mustGetStringSlice(cmd, "person"),
			Tag:       mustGetString(cmd, "tag"),
		},
		DistractorCount: mustGetInt(cmd, "distractors"),
		Limit:           mustGetInt(cmd, "limit"),
		Seed:            optionalInt64(cmd, "seed"),
	}
	return opts, nil
}

func runQuiz(cmd *cobra.Command, args []string) error {
	opts, err := quizOptionsFromFlags(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := setupApp(ctx, indexOnDemand)
	if err != nil {
		return err
	}
	defer a.close()

	session, err := a.svc.BuildQuiz(ctx, opts)
	if err != nil {
		return err
	}
	if session.Empty() {
		fmt.Println("Nobody to quiz. Add people with face samples first.")
		return nil
	}

	summary, err := playQuiz(ctx, a.svc, session, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("\nScore: %d/%d (%.0f%%) - %s\n", summary.Correct, summary.Total, summary.Accuracy, tierMessage(summary.Tier))
	return nil
}

// playQuiz asks every item of session on out and reads numbered answers from in.
// An empty line or EOF ends the session early.
func playQuiz(ctx context.Context, svc *recall.Service, session *quiz.Session, in io.Reader, out io.Writer) (quiz.Summary, error) {
	scanner := bufio.NewScanner(in)
	_, total := session.Progress()

	for n := 1; ; n++ {
		item := session.Next()
		if item == nil {
			break
		}

		fmt.Fprintf(out, "\n[%d/%d] Who is this?", n, total)
		if item.Sample.SourceContext != "" {
			fmt.Fprintf(out, " (seen at %s, %s)", item.Sample.SourceContext, item.Sample.CapturedAt.Format("2006-01-02"))
		}
		fmt.Fprintf(out, "\n  sample %s\n", item.Sample.ID)
		for i, o := range item.Options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, o.Name)
		}

		asked := time.Now()
		choice, ok := readChoice(scanner, out, len(item.Options))
		if !ok {
			break
		}
		elapsed := int(time.Since(asked).Milliseconds())

		outcome, err := svc.Answer(ctx, session, item.PersonID, item.Options[choice].PersonID, &elapsed)
		if err != nil {
			return quiz.Summary{}, err
		}
		if outcome.Correct {
			fmt.Fprintf(out, "Correct! Next review in %d days.\n", outcome.Review.Interval)
		} else {
			fmt.Fprintf(out, "No, this is %s. You will see them again tomorrow.\n", outcome.CorrectName)
		}
		if streak := session.Streak(); streak >= 3 {
			fmt.Fprintf(out, "%d in a row!\n", streak)
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return quiz.Summary{}, fmt.Errorf("reading answer: %w", err)
	}
	return session.Complete(), nil
}

// readChoice reads a 1-based option number, asking again on invalid input.
func readChoice(scanner *bufio.Scanner, out io.Writer, options int) (int, bool) {
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return 0, false
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			return 0, false
		}
		n, err := strconv.Atoi(line)
		if err == nil && n >= 1 && n <= options {
			return n - 1, true
		}
		fmt.Fprintf(out, "Enter a number between 1 and %d.\n", options)
	}
}

func tierMessage(t quiz.Tier) string {
	switch t {
	case quiz.Excellent:
		return "excellent"
	case quiz.Good:
		return "good, keep going"
	default:
		return "needs practice"
	}
}
