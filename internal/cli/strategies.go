package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ignite/ppc-optimizer/internal/domain"
	"github.com/ignite/ppc-optimizer/internal/optimizer"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the strategies and their default thresholds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printStrategies(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}

func printStrategies(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STRATEGY\tTARGET ACOS\tMIN CR\tMIN CLICKS")
	for _, s := range domain.AllStrategies() {
		t, _ := optimizer.StrategyDefaults(s)
		fmt.Fprintf(w, "%s\t%.1f%%\t%.1f%%\t%d\n", s, t.TargetACOS*100, t.MinConversionRate*100, t.MinClicks)
	}
	return w.Flush()
}
