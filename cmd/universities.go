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

var universitiesCmd = &cobra.Command{
	Use:   "universities",
	Short: "List catalog universities",
	Run: func(cmd *cobra.Command, _ []string) {
		universities(cmd)
	},
}

func init() {
	rootCmd.AddCommand(universitiesCmd)

	universitiesCmd.Flags().String("country", "", "only universities in the country")
	universitiesCmd.Flags().Float64("max-tuition", 0, "only universities with tuition up to the value")
	universitiesCmd.Flags().Int("min-rank", 0, "only universities ranked at or below the value")
	universitiesCmd.Flags().Int("max-rank", 0, "only universities ranked at or above the value")
	universitiesCmd.Flags().Bool("dump", false, "dump the listing to a temporary json file")
	universitiesCmd.Flags().StringP("output", "o", outputTable, "output format: table or json")
}

func universities(cmd *cobra.Command) {
	_, logger, m := prepare(context.Background())

	flags := cmd.Flags()
	q := catalog.Query{}
	q.Country, _ = flags.GetString("country")
	if flags.Changed("max-tuition") {
		v, _ := flags.GetFloat64("max-tuition")
		q.MaxTuition = &v
	}
	if flags.Changed("min-rank") {
		v, _ := flags.GetInt("min-rank")
		q.MinRank = &v
	}
	if flags.Changed("max-rank") {
		v, _ := flags.GetInt("max-rank")
		q.MaxRank = &v
	}

	found := m.GetAll(q)
	logger.Info("getting universities", zap.Int("count", len(found)))

	if dump, _ := flags.GetBool("dump"); dump {
		filename, err := catalog.DumpToTmpFile(found)
		if err != nil {
			logger.Fatal("dump results to file", zap.Error(err))
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return
	}

	output, _ := flags.GetString("output")
	if err := printUniversities(os.Stdout, output, found); err != nil {
		logger.Fatal("printing universities", zap.Error(err))
	}
}

func printUniversities(w io.Writer, output string, found []*catalog.University) error {
	switch output {
	case outputJSON:
		return writeJSON(w, found)
	case outputTable:
	default:
		return fmt.Errorf("unknown output format: %s", output)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WORLD RANK\tUNIVERSITY\tCOUNTRY\tTUITION\tGPA MIN\tTEST\tIELTS\tDEADLINE\tSECTORS")
	for _, u := range found {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.0f\t%.2f\t%d\t%.1f\t%s\t%s\n",
			u.WorldRank, u.Name, u.Country, u.TuitionUSD, u.GPAMin,
			u.TestBenchmark, u.IELTSMin, u.AppDeadline, u.TopSectors,
		)
	}
	return tw.Flush()
}
