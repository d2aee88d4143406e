package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sketchlog/internal/writer"
)

var (
	mergeOutput string
	mergePretty bool
)

// mergeCmd merges profile state files.
var mergeCmd = &cobra.Command{
	Use:   "merge [state files...]",
	Short: "Merge profile state files",
	Long: `Merges two or more profile state files (written by the local writer
with state output enabled, or by a previous merge) into one profile.
All inputs must describe the same dataset with the same tags.

Writes the merged state to --out and prints the merged summary.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "out", "o", "merged.profile.json", "merged state output path")
	mergeCmd.Flags().BoolVar(&mergePretty, "pretty", false, "indent JSON output")
}

func runMerge(cmd *cobra.Command, args []string) error {
	merged, err := writer.ReadProfile(args[0])
	if err != nil {
		return err
	}

	for _, path := range args[1:] {
		p, err := writer.ReadProfile(path)
		if err != nil {
			return err
		}
		if err := merged.Merge(p); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		logger.Debug("merged profile state", zap.String("path", path))
	}

	var data []byte
	if mergePretty {
		data, err = json.MarshalIndent(merged, "", "  ")
	} else {
		data, err = json.Marshal(merged)
	}
	if err != nil {
		return fmt.Errorf("marshal merged profile: %w", err)
	}
	if err := os.WriteFile(mergeOutput, data, 0644); err != nil {
		return fmt.Errorf("write merged profile: %w", err)
	}

	logger.Info("merged profiles",
		zap.Int("inputs", len(args)),
		zap.String("out", mergeOutput))

	fmt.Print(renderSummaryTable(merged.Summary(), defaultTableStyles()))
	return nil
}
