package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-recall/internal/recall"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Manage face samples",
}

var sampleAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Store a face embedding",
	Long: `Store a face embedding produced by an external face embedding model.
The embedding is a JSON array of numbers given with --embedding, read from a
file with --embedding @path, or from stdin with --embedding -.
Without --person the sample is stored unassigned for later labeling.`,
	Args: cobra.NoArgs,
	RunE: runSampleAdd,
}

func init() {
	rootCmd.AddCommand(sampleCmd)
	sampleCmd.AddCommand(sampleAddCmd)

	addEmbeddingFlags(sampleAddCmd)
	sampleAddCmd.Flags().String("person", "", "Person ID owning the sample")
	sampleAddCmd.Flags().Bool("profile", false, "Use the sample as the person's quiz picture")
	sampleAddCmd.Flags().Bool("json", false, "Output as JSON")
}

// addEmbeddingFlags registers the flags describing a captured face.
func addEmbeddingFlags(cmd *cobra.Command) {
	cmd.Flags().String("embedding", "", "Embedding as JSON array, @file or - for stdin")
	cmd.Flags().String("context", "", "Where the face was captured")
	cmd.Flags().String("captured-at", "", "Capture time in RFC 3339 (default now)")
}

// readEmbedding parses the --embedding flag value.
func readEmbedding(value string) ([]float32, error) {
	var raw []byte
	switch {
	case value == "":
		return nil, errors.New("--embedding is required")
	case value == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading embedding from stdin: %w", err)
		}
		raw = data
	case strings.HasPrefix(value, "@"):
		data, err := os.ReadFile(strings.TrimPrefix(value, "@"))
		if err != nil {
			return nil, fmt.Errorf("reading embedding file: %w", err)
		}
		raw = data
	default:
		raw = []byte(value)
	}

	var embedding []float32
	if err := json.Unmarshal(raw, &embedding); err != nil {
		return nil, fmt.Errorf("parsing embedding: %w", err)
	}
	if len(embedding) == 0 {
		return nil, recall.ErrEmptyEmbedding
	}
	return embedding, nil
}

// sampleInputFromFlags builds a sample from the embedding flags.
func sampleInputFromFlags(cmd *cobra.Command) (recall.SampleInput, error) {
	embedding, err := readEmbedding(mustGetString(cmd, "embedding"))
	if err != nil {
		return recall.SampleInput{}, err
	}
	in := recall.SampleInput{
		Embedding:     embedding,
		SourceContext: mustGetString(cmd, "context"),
	}
	in.CapturedAt, err = optionalTime(cmd, "captured-at")
	if err != nil {
		return recall.SampleInput{}, err
	}
	return in, nil
}

func runSampleAdd(cmd *cobra.Command, args []string) error {
	in, err := sampleInputFromFlags(cmd)
	if err != nil {
		return err
	}
	in.PersonID = mustGetString(cmd, "person")
	profile := mustGetBool(cmd, "profile")
	if profile && in.PersonID == "" {
		return errors.New("--profile requires --person")
	}

	ctx := context.Background()
	a, err := setupApp(ctx, indexOnDemand)
	if err != nil {
		return err
	}
	defer a.close()

	sample, err := a.svc.AddSample(ctx, in)
	if err != nil {
		return err
	}
	if profile {
		if err := a.svc.SetProfileSample(ctx, in.PersonID, sample.ID); err != nil {
			return err
		}
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(sample)
	}
	if sample.PersonID == "" {
		fmt.Printf("Stored unassigned sample %s (%d dimensions)\n", sample.ID, sample.Dim)
	} else {
		fmt.Printf("Stored sample %s for %s (%d dimensions)\n", sample.ID, sample.PersonID, sample.Dim)
	}
	return nil
}
