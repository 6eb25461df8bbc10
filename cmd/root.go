package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-recall",
	Short: "Remember the names of the people you meet",
	Long: `Face Recall stores face embeddings of people you have met, identifies
new captures against them and quizzes you on their names with spaced
repetition, so the people you see rarely come back before you forget them.`,
	SilenceUsage: true,
}

var (
	envFile  string
	logLevel string
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides LOG_LEVEL)")
}

// initConfig loads the dotenv file without overriding variables already set.
// Flags win over both.
func initConfig() {
	if err := godotenv.Load(envFile); err != nil && rootCmd.PersistentFlags().Changed("env-file") {
		fmt.Fprintf(os.Stderr, "Warning: could not load %s: %v\n", envFile, err)
	}
	if logLevel != "" {
		_ = os.Setenv("LOG_LEVEL", logLevel)
	}
}
