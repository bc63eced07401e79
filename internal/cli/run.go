package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ignite/ppc-optimizer/internal/datanorm"
	"github.com/ignite/ppc-optimizer/internal/domain"
	"github.com/ignite/ppc-optimizer/internal/export"
	"github.com/ignite/ppc-optimizer/internal/optimizer"
	"github.com/ignite/ppc-optimizer/internal/service/optimization"
)

// runFlags are the options of one offline run.
type runFlags struct {
	name         string
	strategy     string
	targetACOS   float64
	minCR        float64
	minClicks    int
	out          string
	noExport     bool
	jsonOutput   bool
	noBids       bool
	noPauses     bool
	noPlacements bool

	// set when the matching threshold flag was given explicitly
	hasTargetACOS bool
	hasMinCR      bool
	hasMinClicks  bool
}

var runOpts runFlags

var runCmd = &cobra.Command{
	Use:   "run <report>",
	Short: "Optimize a bulk report and write the updated workbook",
	Long:  `Optimize an Amazon Ads bulk report (.xlsx or .csv).

The updated workbook is written next to the report as <name>_optimized.xlsx
unless --out or --no-export is given. Thresholds not set by flag fall back to
the strategy defaults.

Examples:
  ppcopt run bulk.xlsx --strategy market-leader
  ppcopt run bulk.csv --target-acos 0.15 --min-clicks 30 --out updated.xlsx
  ppcopt run bulk.xlsx --json > result.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := runOpts
		f.hasTargetACOS = cmd.Flags().Changed("target-acos")
		f.hasMinCR = cmd.Flags().Changed("min-cr")
		f.hasMinClicks = cmd.Flags().Changed("min-clicks")

		st, err := loadSettings(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return runOptimize(cmd.OutOrStdout(), args[0], f, st)
	},
}

func init() {
	runCmd.Flags().StringVar(&runOpts.name, "name", "", "client name shown in the summary")
	runCmd.Flags().StringVarP(&runOpts.strategy, "strategy", "s", "", "strategy: market-leader, large-inventory or standard")
	runCmd.Flags().Float64Var(&runOpts.targetACOS, "target-acos", 0, "target ACOS as a fraction, e.g. 0.15")
	runCmd.Flags().Float64Var(&runOpts.minCR, "min-cr", 0, "minimum conversion rate as a fraction")
	runCmd.Flags().IntVar(&runOpts.minClicks, "min-clicks", 0, "minimum clicks before a row is judged")
	runCmd.Flags().StringVarP(&runOpts.out, "out", "o", "", "path of the updated workbook")
	runCmd.Flags().BoolVar(&runOpts.noExport, "no-export", false, "do not write the updated workbook")
	runCmd.Flags().BoolVar(&runOpts.jsonOutput, "json", false, "print the full result as JSON instead of the summary")
	runCmd.Flags().BoolVar(&runOpts.noBids, "no-bids", false, "leave keyword bids unchanged in the export")
	runCmd.Flags().BoolVar(&runOpts.noPauses, "no-pauses", false, "do not pause rows in the export")
	runCmd.Flags().BoolVar(&runOpts.noPlacements, "no-placements", false, "leave placement adjustments unchanged in the export")
	rootCmd.AddCommand(runCmd)
}

func (f runFlags) overrides() domain.ProfileOverrides {
	var o domain.ProfileOverrides
	if f.hasTargetACOS {
		v := f.targetACOS
		o.TargetACOS = &v
	}
	if f.hasMinCR {
		v := f.minCR
		o.MinConversionRate = &v
	}
	if f.hasMinClicks {
		v := f.minClicks
		o.MinClicks = &v
	}
	return o
}

func (f runFlags) exportOptions(defaults export.Options) export.Options {
	opts := defaults
	if f.noBids {
		opts.KeywordBids = false
	}
	if f.noPauses {
		opts.Pauses = false
	}
	if f.noPlacements {
		opts.Placements = false
	}
	return opts
}

// runOptimize parses the report, runs the optimizer, writes the export and
// prints either the summary or the JSON result to out.
func runOptimize(out io.Writer, reportPath string, f runFlags, st settings) error {
	strategy := domain.Strategy(f.strategy)
	if strategy == "" {
		strategy = domain.Strategy(st.defaultStrategy)
	}
	p, err := optimizer.ResolveProfile(f.name, strategy, f.overrides())
	if err != nil {
		return err
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}
	if len(data) == 0 {
		return optimization.ErrEmptyReport
	}
	wb, rep, err := datanorm.Parse(bytes.NewReader(data), reportPath)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(reportPath), err)
	}

	res, err := optimizer.Run(rep.Rows, p, st.run)
	if err != nil {
		return err
	}
	res.SourceFile = filepath.Base(reportPath)

	var exportPath string
	if !f.noExport {
		exportPath = f.out
		if exportPath == "" {
			exportPath = filepath.Join(filepath.Dir(reportPath), optimization.ExportFilename(res.SourceFile))
		}
		if err := writeExport(exportPath, data, wb, rep, res, f.exportOptions(st.export)); err != nil {
			return err
		}
	}

	if f.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	summary, err := export.NewSummaryRenderer().Render(res, st.topChanges)
	if err != nil {
		return err
	}
	fmt.Fprint(out, summary)
	if exportPath != "" {
		fmt.Fprintf(out, "\nUpdated workbook: %s\n", exportPath)
	}
	return nil
}

func writeExport(path string, original []byte, wb *datanorm.Workbook, rep *datanorm.Report, res *domain.Result, opts export.Options) error {
	var buf bytes.Buffer
	if _, err := export.WriteWorkbook(&buf, original, wb, rep, res, opts); err != nil {
		return fmt.Errorf("failed to build workbook: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
