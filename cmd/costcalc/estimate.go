package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bher20/costcalc/internal/dataset"
	"github.com/bher20/costcalc/internal/estimator"
	"github.com/bher20/costcalc/internal/money"
)

// filterFlags binds the estimator filter to command-line flags.
type filterFlags struct {
	data   string
	asJSON bool
	f      estimator.Filter
	level  string
	house  string
}

func (ff *filterFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&ff.data, "data", "data.json", "dataset file (.json or .xlsx) or http(s) URL")
	fs.BoolVar(&ff.asJSON, "json", false, "print JSON instead of a table")
	fs.StringVar(&ff.level, "level", string(estimator.LevelUndergraduate), "Undergraduate or Graduate")
	fs.StringVar(&ff.f.Residency, "residency", estimator.ResidencyDomestic, "Domestic or International")
	fs.StringVar(&ff.f.Province, "province", estimator.ProvinceOntario, "ON, Non-ON or INT")
	fs.StringVar(&ff.f.Load, "load", "Full-Time", "course load")
	fs.StringVar(&ff.f.CohortYear, "cohort", "", "cohort year, e.g. 2024-2025")
	fs.StringVar(&ff.f.Credits, "credits", "", "credits per term for part-time loads")
	fs.StringVar(&ff.f.Program, "program", "", "program name")
	fs.StringVar(&ff.f.Major, "major", "", "major (undergraduate full-time only)")
	fs.StringVar(&ff.house, "housing", string(estimator.HousingNone), "None, OnCampus or OffCampus")
	fs.StringVar(&ff.f.OnCampusRoom, "room", "", "on-campus room type")
	fs.StringVar(&ff.f.OnCampusResidence, "residence", "", "on-campus residence")
	fs.StringVar(&ff.f.OffCampusRoom, "offcampus-room", "", "off-campus room type")
	fs.StringVar(&ff.f.MealPlan, "meal-plan", estimator.MealPlanNone, "meal plan name")
	fs.BoolVar(&ff.f.IncludeSummer, "summer", false, "include the summer term (graduate only)")
}

func (ff *filterFlags) filter() estimator.Filter {
	f := ff.f
	f.Level = estimator.Level(ff.level)
	f.Housing = estimator.Housing(ff.house)
	return f
}

func (ff *filterFlags) load(cmd *cobra.Command) (*dataset.Dataset, error) {
	return dataset.Load(cmd.Context(), nil, ff.data)
}

var estimateFlags filterFlags

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Compute one estimate from a dataset file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := estimateFlags.load(cmd)
		if err != nil {
			return err
		}
		est := estimator.Compute(ds, estimateFlags.filter())
		if estimateFlags.asJSON {
			return writeJSON(cmd.OutOrStdout(), est)
		}
		return printEstimate(cmd.OutOrStdout(), est)
	},
}

var optionsFlags filterFlags

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Print the selectable values for a filter",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := optionsFlags.load(cmd)
		if err != nil {
			return err
		}
		opts := estimator.AllOptions(ds, optionsFlags.filter())
		if optionsFlags.asJSON {
			return writeJSON(cmd.OutOrStdout(), opts)
		}
		return printOptions(cmd.OutOrStdout(), opts)
	},
}

func init() {
	estimateFlags.register(estimateCmd.Flags())
	optionsFlags.register(optionsCmd.Flags())
	rootCmd.AddCommand(estimateCmd, optionsCmd)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printEstimate(w io.Writer, est estimator.Estimate) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, l := range est.Lines {
		fmt.Fprintf(tw, "%s\t%s\t\n", l.Label, money.Format(l.Amount))
	}
	fmt.Fprintf(tw, "Grand total\t%s\t\n", money.Format(est.GrandTotal))
	return tw.Flush()
}

func printOptions(w io.Writer, opts estimator.Options) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row := func(name string, values []string) {
		fmt.Fprintf(tw, "%s\t%s\n", name, strings.Join(values, ", "))
	}
	row("programs", opts.Programs)
	row("majors", opts.Majors)
	row("cohorts", opts.Cohorts)
	row("provinces", opts.Provinces)
	row("credits", opts.Credits)
	row("rooms", opts.Rooms)
	row("residences", opts.Residences)
	row("offcampus", opts.OffCampus)
	plans := make([]string, 0, len(opts.MealPlans))
	for _, p := range opts.MealPlans {
		plans = append(plans, p.Label)
	}
	row("mealplans", plans)
	return tw.Flush()
}
