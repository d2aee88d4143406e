package main

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sketchlog/internal/config"
	"sketchlog/internal/core"
	"sketchlog/internal/session"
)

var (
	profileDataset     string
	profileSegmentKeys []string
	profileRotateUnit  string
	profileRotateEvery int
	profileOutputDir   string
	profileStorePath   string
	profileState       bool
	profilePretty      bool
	profileJobs        int
)

// profileCmd profiles one or more CSV files.
var profileCmd = &cobra.Command{
	Use:   "profile [csv files...]",
	Short: "Profile CSV files into dataset summaries",
	Long: `Streams each CSV file into a dataset profile and flushes the results
through the configured writers. By default each file becomes its own
dataset named after the file; --dataset folds every file into one
dataset instead.

Files are profiled concurrently, bounded by --jobs.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProfile,
}

func init() {
	profileCmd.Flags().StringVarP(&profileDataset, "dataset", "d", "", "dataset name (default: file basename, one dataset per file)")
	profileCmd.Flags().StringSliceVar(&profileSegmentKeys, "segment-keys", nil, "group-by columns for segmented profiling")
	profileCmd.Flags().StringVar(&profileRotateUnit, "rotate", "", "rotation unit: s, m, h, or d")
	profileCmd.Flags().IntVar(&profileRotateEvery, "interval", 1, "rotation interval multiplier")
	profileCmd.Flags().StringVarP(&profileOutputDir, "output", "o", "", "output directory (overrides config)")
	profileCmd.Flags().StringVar(&profileStorePath, "store", "", "profile store path (overrides config)")
	profileCmd.Flags().BoolVar(&profileState, "state", false, "also write full profile state for later merging")
	profileCmd.Flags().BoolVar(&profilePretty, "pretty", false, "indent JSON output")
	profileCmd.Flags().IntVarP(&profileJobs, "jobs", "j", 4, "max files profiled concurrently")
}

func runProfile(cmd *cobra.Command, args []string) error {
	applyProfileOverrides(cfg)

	sess, err := session.NewSession(cfg)
	if err != nil {
		return err
	}

	logger.Info("profiling files",
		zap.Int("files", len(args)),
		zap.String("session", sess.ID()),
		zap.Strings("segment_keys", profileSegmentKeys),
	)

	g, ctx := errgroup.WithContext(cmd.Context())
	if profileJobs > 0 {
		g.SetLimit(profileJobs)
	}

	for _, path := range args {
		path := path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			name := profileDataset
			if name == "" {
				name = datasetNameFromPath(path)
			}
			l, err := sess.Logger(name)
			if err != nil {
				return err
			}
			if err := l.LogCSVFile(path, session.CSVOptions{}); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			logger.Debug("profiled file", zap.String("path", path), zap.String("dataset", name))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		sess.Close()
		return err
	}

	profiles, err := sess.Close()
	if err != nil {
		return err
	}

	styles := defaultTableStyles()
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Print(renderSummaryTable(profiles[name].Summary(), styles))
	}
	return nil
}

// applyProfileOverrides folds flag values into the loaded config.
func applyProfileOverrides(cfg *config.Config) {
	if len(profileSegmentKeys) > 0 {
		cfg.Session.SegmentKeys = profileSegmentKeys
		cfg.Session.FixedSegments = nil
	}
	if profileRotateUnit != "" {
		cfg.Session.Rotation = config.RotationConfig{
			Unit:     profileRotateUnit,
			Interval: profileRotateEvery,
		}
	}
	if profileStorePath != "" {
		cfg.Store.Path = profileStorePath
	}
	for i := range cfg.Writers {
		if cfg.Writers[i].Type == "local" {
			if profileOutputDir != "" {
				cfg.Writers[i].Path = profileOutputDir
			}
			if profileState {
				cfg.Writers[i].State = true
			}
			if profilePretty {
				cfg.Writers[i].Pretty = true
			}
		}
	}
}

func datasetNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// renderSummaryTable renders a dataset summary as a per-column table.
func renderSummaryTable(s core.DatasetSummary, styles tableStyles) string {
	title := fmt.Sprintf("%s (%d rows)", s.Name, s.RowCount)
	t := newSimpleTable(title, "column", "type", "count", "nulls", "uniq~", "mean", "stddev", "min", "max", "top item")

	cols := make([]string, 0, len(s.Columns))
	for name := range s.Columns {
		cols = append(cols, name)
	}
	sort.Strings(cols)

	for _, name := range cols {
		col := s.Columns[name]
		mean, stddev, min, max := "-", "-", "-", "-"
		if col.Numbers != nil {
			mean = formatFloat(col.Numbers.Mean)
			stddev = formatFloat(col.Numbers.StdDev)
			min = formatFloat(col.Numbers.Min)
			max = formatFloat(col.Numbers.Max)
		}
		top := "-"
		if len(col.FrequentItems) > 0 {
			it := col.FrequentItems[0]
			top = fmt.Sprintf("%s (%d)", it.Item, it.Count)
		}
		t.AddRow(name, string(col.InferredType),
			strconv.FormatInt(col.Count, 10),
			strconv.FormatInt(col.NullCount, 10),
			formatFloat(col.EstUniqueCount),
			mean, stddev, min, max, top)
	}

	return t.View(styles)
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "-"
	}
	return strconv.FormatFloat(f, 'g', 6, 64)
}
