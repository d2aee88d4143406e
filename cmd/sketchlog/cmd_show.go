package main

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sketchlog/internal/store"
)

var (
	showDataset string
	showColumn  string
	showLimit   int
	showDBPath  string
)

// showCmd inspects the profile store.
var showCmd = &cobra.Command{
	Use:   "show [profile-id]",
	Short: "Inspect stored profiles",
	Long: `Without arguments, lists stored profiles (newest first). With a
profile ID, shows that profile's per-column summary. With --column,
shows a column's statistics across stored profiles of a dataset so
distribution drift is visible at a glance.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVarP(&showDataset, "dataset", "d", "", "filter by dataset name")
	showCmd.Flags().StringVar(&showColumn, "column", "", "show one column's history across profiles (requires --dataset)")
	showCmd.Flags().IntVarP(&showLimit, "limit", "n", 20, "max rows to show")
	showCmd.Flags().StringVar(&showDBPath, "db", "", "profile store path (overrides config)")
}

func runShow(cmd *cobra.Command, args []string) error {
	path := showDBPath
	if path == "" {
		path = cfg.Store.Path
	}

	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	styles := defaultTableStyles()

	if showColumn != "" {
		if showDataset == "" {
			return fmt.Errorf("--column requires --dataset")
		}
		return showColumnHistory(st, styles)
	}

	if len(args) == 1 {
		return showProfile(st, args[0], styles)
	}

	return listProfiles(st, styles)
}

func listProfiles(st *store.ProfileStore, styles tableStyles) error {
	profiles, err := st.ListProfiles(showDataset, showLimit)
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		fmt.Println("No stored profiles.")
		return nil
	}

	t := newSimpleTable("Stored profiles", "id", "dataset", "rows", "columns", "dataset ts", "created")
	for _, p := range profiles {
		t.AddRow(p.ID, p.Dataset,
			strconv.FormatInt(p.Summary.RowCount, 10),
			strconv.Itoa(len(p.Summary.Columns)),
			p.DatasetTimestamp.Format("2006-01-02 15:04:05"),
			p.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Print(t.View(styles))
	return nil
}

func showProfile(st *store.ProfileStore, id string, styles tableStyles) error {
	p, err := st.GetProfile(id)
	if err != nil {
		return err
	}
	fmt.Print(renderSummaryTable(p.Summary, styles))
	return nil
}

func showColumnHistory(st *store.ProfileStore, styles tableStyles) error {
	stats, err := st.ColumnStats(showDataset, showColumn, showLimit)
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		fmt.Printf("No stored stats for %s.%s\n", showDataset, showColumn)
		return nil
	}

	title := fmt.Sprintf("%s.%s history", showDataset, showColumn)
	t := newSimpleTable(title, "dataset ts", "type", "count", "nulls", "uniq~", "mean", "stddev", "min", "max")
	for _, c := range stats {
		t.AddRow(
			c.DatasetTimestamp.Format("2006-01-02 15:04:05"),
			c.InferredType,
			strconv.FormatInt(c.Total, 10),
			strconv.FormatInt(c.Nulls, 10),
			formatFloat(c.EstUnique),
			nullableFloat(c.Mean),
			nullableFloat(c.StdDev),
			nullableFloat(c.Min),
			nullableFloat(c.Max),
		)
	}
	fmt.Print(t.View(styles))
	return nil
}

func nullableFloat(f sql.NullFloat64) string {
	if !f.Valid {
		return "-"
	}
	return formatFloat(f.Float64)
}
