package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// mustFlag reads a flag registered in init(). A lookup error is a wiring
// bug in this package, so it panics instead of returning.
func mustFlag[T any](cmd *cobra.Command, name string, get func(*pflag.FlagSet, string) (T, error)) T {
	val, err := get(cmd.Flags(), name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	return mustFlag(cmd, name, (*pflag.FlagSet).GetBool)
}

func mustGetInt(cmd *cobra.Command, name string) int {
	return mustFlag(cmd, name, (*pflag.FlagSet).GetInt)
}

func mustGetString(cmd *cobra.Command, name string) string {
	return mustFlag(cmd, name, (*pflag.FlagSet).GetString)
}

func mustGetStringSlice(cmd *cobra.Command, name string) []string {
	return mustFlag(cmd, name, (*pflag.FlagSet).GetStringSlice)
}

// optionalInt64 returns nil unless the user set the flag, so 0 stays a usable value.
func optionalInt64(cmd *cobra.Command, name string) *int64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v := mustFlag(cmd, name, (*pflag.FlagSet).GetInt64)
	return &v
}

// optionalTime parses an RFC 3339 flag. An empty flag yields the zero time.
func optionalTime(cmd *cobra.Command, name string) (time.Time, error) {
	s := mustGetString(cmd, name)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return t, nil
}
