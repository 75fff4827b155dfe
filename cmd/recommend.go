package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spigell/uni-matcher/internal/catalog"
	"github.com/spigell/uni-matcher/internal/matcher"
	"github.com/spigell/uni-matcher/internal/profile"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend universities for a student profile",
	Run: func(cmd *cobra.Command, _ []string) {
		recommend(cmd)
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().Float64("gpa", 0, "GPA on a 4.0 scale")
	recommendCmd.Flags().Float64("budget", 0, "yearly budget in USD")
	recommendCmd.Flags().Int("test-score", 0, "standardized test score (400-1600)")
	recommendCmd.Flags().Float64("ielts", 0, "IELTS score (0-9)")
	recommendCmd.Flags().StringSlice("country", nil, "preferred country, may be repeated")
	recommendCmd.Flags().StringSlice("sector", nil, "preferred sector, may be repeated")
	recommendCmd.Flags().Int("limit", 0, "maximum number of recommendations (default from matching.default-limit)")
	recommendCmd.Flags().BoolP("interactive", "i", false, "ask for missing profile values")
	recommendCmd.Flags().StringP("output", "o", outputTable, "output format: table or json")
}

func recommend(cmd *cobra.Command) {
	_, logger, m := prepare(context.Background())

	in, err := inputFromFlags(cmd.Flags())
	if err != nil {
		logger.Fatal("reading flags", zap.Error(err))
	}

	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		if err := promptMissing(&in); err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
	}

	p, err := in.Profile()
	if err != nil {
		logger.Fatal("invalid profile",
			zap.Error(err),
			zap.String("hint", "set --gpa, --budget, --test-score and --ielts or use --interactive"),
		)
	}

	for _, status := range m.Filters(p) {
		logger.Debug("filter",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	rec, err := m.Recommend(p, limit)
	if err != nil {
		logger.Fatal("recommending", zap.Error(err))
	}

	if rec.TotalMatches == 0 {
		logger.Info("no universities match the profile")
	}

	output, _ := cmd.Flags().GetString("output")
	if err := printRecommendation(os.Stdout, output, rec); err != nil {
		logger.Fatal("printing recommendations", zap.Error(err))
	}
}

// inputFromFlags collects the profile values that were set on the command line.
func inputFromFlags(flags *pflag.FlagSet) (profile.Input, error) {
	var in profile.Input

	if flags.Changed("gpa") {
		v, err := flags.GetFloat64("gpa")
		if err != nil {
			return in, err
		}
		in.GPA = &v
	}
	if flags.Changed("budget") {
		v, err := flags.GetFloat64("budget")
		if err != nil {
			return in, err
		}
		in.Budget = &v
	}
	if flags.Changed("test-score") {
		v, err := flags.GetInt("test-score")
		if err != nil {
			return in, err
		}
		in.TestScore = &v
	}
	if flags.Changed("ielts") {
		v, err := flags.GetFloat64("ielts")
		if err != nil {
			return in, err
		}
		in.IELTSScore = &v
	}

	var err error
	if in.PreferredCountries, err = flags.GetStringSlice("country"); err != nil {
		return in, err
	}
	if in.PreferredSectors, err = flags.GetStringSlice("sector"); err != nil {
		return in, err
	}

	return in, nil
}

// promptMissing asks for every required value that is still missing.
func promptMissing(in *profile.Input) error {
	for _, field := range in.Missing() {
		var err error
		switch field {
		case "gpa":
			in.GPA, err = promptFloat("GPA", catalog.MinGPA, catalog.MaxGPA)
		case "budget":
			in.Budget, err = promptFloat("Budget (USD)", 0, 0)
		case "test_score":
			in.TestScore, err = promptInt("Test score", catalog.MinTestScore, catalog.MaxTestScore)
		case "ielts_score":
			in.IELTSScore, err = promptFloat("IELTS score", catalog.MinIELTS, catalog.MaxIELTS)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// promptFloat reads a number in [lower, upper]. Zero upper means no upper bound.
func promptFloat(label string, lower, upper float64) (*float64, error) {
	validate := func(input string) error {
		_, err := parseFloat(input, lower, upper)
		return err
	}

	raw, err := (&promptui.Prompt{Label: label, Validate: validate}).Run()
	if err != nil {
		return nil, err
	}

	v, err := parseFloat(raw, lower, upper)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func promptInt(label string, lower, upper int) (*int, error) {
	validate := func(input string) error {
		_, err := parseInt(input, lower, upper)
		return err
	}

	raw, err := (&promptui.Prompt{Label: label, Validate: validate}).Run()
	if err != nil {
		return nil, err
	}

	v, err := parseInt(raw, lower, upper)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseFloat(input string, lower, upper float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	if v < lower || (upper > 0 && v > upper) {
		if upper > 0 {
			return 0, fmt.Errorf("must be between %g and %g", lower, upper)
		}
		return 0, fmt.Errorf("must be at least %g", lower)
	}
	return v, nil
}

func parseInt(input string, lower, upper int) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, errors.New("not an integer")
	}
	if v < lower || v > upper {
		return 0, fmt.Errorf("must be between %d and %d", lower, upper)
	}
	return v, nil
}

func printRecommendation(w io.Writer, output string, rec *matcher.Recommendation) error {
	switch output {
	case outputJSON:
		return writeJSON(w, rec)
	case outputTable:
	default:
		return fmt.Errorf("unknown output format: %s", output)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tUNIVERSITY\tCOUNTRY\tWORLD RANK\tTUITION\tSCORE\tGPA\tBUDGET\tTEST\tRANK")
	for i, r := range rec.Recommendations {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%.0f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
			i+1, r.Name, r.Country, r.WorldRank, r.TuitionUSD, r.MatchScore,
			r.Breakdown.GPA, r.Breakdown.Budget, r.Breakdown.TestScore, r.Breakdown.WorldRank,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "showing %d of %d matches\n", rec.Count, rec.TotalMatches)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
