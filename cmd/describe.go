package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/edps-sim/edps-sim/sim"
)

// describeCmd validates a facility config and prints its resolved tables
var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Validate a facility config and print its resources, acuities, treatments and patterns",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		cfg, err := loadConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		f, err := cfg.Resolve()
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := describeFacility(cmd.OutOrStdout(), f); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// describeFacility writes one aligned table per facility section.
func describeFacility(w io.Writer, f *sim.Facility) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "%s\n", f)
	fmt.Fprintf(tw, "warm_up=%d\tarrival_horizon=%d\tseed=%d\tselection=%s\tinterval=%s\n\n",
		f.WarmUpTime, f.ArrivalHorizon, f.Seed, f.SelectionName, f.Arrival.Interval)

	fmt.Fprintln(tw, "ID\tRESOURCE\tQUANTITY\tTREATMENTS")
	for r, label := range f.ResourceLabels {
		var treatments []string
		for _, t := range f.TreatmentsOn(r) {
			treatments = append(treatments, f.TreatmentLabels[t])
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%v\n", r, label, f.Capacities[r], treatments)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "ID\tACUITY\tPROBABILITY\tWEIGHT")
	for a, label := range f.AcuityLabels {
		fmt.Fprintf(tw, "%d\t%s\t%.3f\t%g\n", a, label, f.AcuityProbabilities[a], f.AcuityWeights[a])
	}
	fmt.Fprintln(tw)

	fmt.Fprint(tw, "ID\tTREATMENT\tRESOURCE")
	for _, label := range f.AcuityLabels {
		fmt.Fprintf(tw, "\t%s", label)
	}
	fmt.Fprintln(tw)
	for t, label := range f.TreatmentLabels {
		fmt.Fprintf(tw, "%d\t%s\t%s", t, label, f.ResourceLabels[f.ResourceOf(t)])
		for a := range f.AcuityLabels {
			fmt.Fprintf(tw, "\t%s", f.Duration(t, a))
		}
		fmt.Fprintln(tw)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "ID\tPATTERN\tWEIGHT\tORDER")
	for p, label := range f.PatternLabels {
		fmt.Fprintf(tw, "%d\t%s\t%g\t%s\n", p, label, f.PatternWeights[p], f.PatternString(p))
	}
	return tw.Flush()
}
