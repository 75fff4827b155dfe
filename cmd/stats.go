package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/uni-matcher/internal/catalog"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print catalog statistics",
	Run: func(cmd *cobra.Command, _ []string) {
		_, logger, m := prepare(context.Background())

		output, _ := cmd.Flags().GetString("output")
		if err := printStats(os.Stdout, output, m.Stats()); err != nil {
			logger.Fatal("printing stats", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringP("output", "o", outputTable, "output format: table or json")
}

func printStats(w io.Writer, output string, stats catalog.Stats) error {
	switch output {
	case outputJSON:
		return writeJSON(w, stats)
	case outputTable:
	default:
		return fmt.Errorf("unknown output format: %s", output)
	}

	fmt.Fprintf(w, "universities: %d\ncountries: %d\n\n", stats.TotalUniversities, stats.CountriesCount)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tMIN\tMAX\tAVERAGE")
	for _, row := range []struct {
		name string
		r    catalog.Range
	}{
		{name: "tuition_usd", r: stats.Tuition},
		{name: "gpa_min", r: stats.GPAMin},
		{name: "gpa_competitive", r: stats.GPACompetitive},
		{name: "test_benchmark", r: stats.TestScore},
		{name: "ielts_min", r: stats.IELTS},
	} {
		fmt.Fprintf(tw, "%s\t%g\t%g\t%g\n", row.name, row.r.Min, row.r.Max, row.r.Average)
	}
	return tw.Flush()
}
