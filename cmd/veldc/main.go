// Package main implements the veldc profile tool: inspection and merging
// of Veld execution profiles.
package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"

	"github.com/GriffinCanCode/veld-compiler/pkg/logger"
	"github.com/GriffinCanCode/veld-compiler/pkg/profile"
)

const version = "0.1.0"

func main() {
	initLogging()

	root := &cobra.Command{
		Use:           "veldc",
		Short:         "Veld compiler profile tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(profileCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// initLogging configures the logger from the environment so the tool and
// the compiler proper share one knob.
func initLogging() {
	level := logger.LevelInfo
	switch env.Str("VELD_LOG_LEVEL", "info") {
	case "debug":
		level = logger.LevelDebug
	case "warn":
		level = logger.LevelWarn
	case "error":
		level = logger.LevelError
	}
	_ = logger.Init(logger.Config{
		Level:  level,
		Format: env.Str("VELD_LOG_FORMAT", "text"),
		Output: os.Stderr,
	})
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show tool version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("veldc version %s\n", version)
		},
	}
}

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Inspect and merge execution profiles",
	}
	cmd.AddCommand(profileShowCmd(), profileMergeCmd())
	return cmd
}

func profileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [file]",
		Short: "List the functions recorded in a profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := env.Str("VELD_PROFILE", "veld.profdata")
			if len(args) == 1 {
				path = args[0]
			}

			r, err := profile.Open(path)
			if err != nil {
				return err
			}
			logger.LogProfileOpen(path, r.NumFunctions())

			records := r.Records()
			names := make([]string, 0, len(records))
			for name := range records {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				rec := records[name]
				// Counter 0 is the function entry count. A record with no
				// counters is malformed; flag it rather than fail the listing.
				entries := "(malformed: no counters)"
				if len(rec.Counts) > 0 {
					entries = strconv.FormatUint(rec.Counts[0], 10)
				} else {
					logger.Warn("Profile record has no counters", "function", name)
				}
				fmt.Printf("%s\n  hash: %#016x  counters: %d  entries: %s\n",
					name, rec.Hash, len(rec.Counts), entries)
			}
			return nil
		},
	}
}

func profileMergeCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "merge <file>...",
		Short: "Merge profiles from multiple instrumented runs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := profile.NewBuilder()
			for _, path := range args {
				r, err := profile.Open(path)
				if err != nil {
					return err
				}
				for _, name := range b.Merge(r.Records()) {
					logger.Warn("Skipping record with mismatched hash during merge",
						"function", name, "path", path)
				}
			}
			return b.WriteFile(output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", env.Str("VELD_PROFILE", "veld.profdata"),
		"merged profile output path")
	return cmd
}
