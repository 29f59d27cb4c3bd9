package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/diamond-desk/internal/batch"
	"github.com/ziadkadry99/diamond-desk/internal/config"
	"github.com/ziadkadry99/diamond-desk/internal/pricing"
	"github.com/ziadkadry99/diamond-desk/internal/progress"
)

var estimateReq pricing.Request

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate a diamond price from the command line",
	Long: `Runs the configured price model on a single diamond. Every attribute is required;
run with no flags to see which ones are missing.

With --batch, every row of the matching CSV files is priced instead. The files
need a header naming the attributes (carat_weight, cut, color, clarity, polish,
symmetry, report); each is written back out with a prediction_label column.`,
	Example: `  diamonddesk estimate --carat 1.1 --cut Ideal --color G --clarity VVS2 \
    --polish EX --symmetry VG --report GIA
  diamonddesk estimate --batch 'data/**/*.csv' --out priced/`,
	RunE: runEstimate,
}

var (
	estimateCarat  float64
	estimateBatch  []string
	estimateOutDir string
)

func init() {
	f := estimateCmd.Flags()
	f.Float64Var(&estimateCarat, "carat", 0, fmt.Sprintf("weight in carats (%.2f to %.2f)", pricing.MinCaratWeight, pricing.MaxCaratWeight))
	f.StringVar(&estimateReq.Cut, "cut", "", "cut grade")
	f.StringVar(&estimateReq.Color, "color", "", "color grade")
	f.StringVar(&estimateReq.Clarity, "clarity", "", "clarity grade")
	f.StringVar(&estimateReq.Polish, "polish", "", "polish grade")
	f.StringVar(&estimateReq.Symmetry, "symmetry", "", "symmetry grade")
	f.StringVar(&estimateReq.Report, "report", "", "grading laboratory")
	f.StringSliceVar(&estimateBatch, "batch", nil, "price every row of the CSV files matching these globs")
	f.StringVar(&estimateOutDir, "out", "", "directory for batch output (default: next to each input)")
	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if len(estimateBatch) > 0 {
		return runBatchEstimate(cfg)
	}

	req := estimateReq
	if cmd.Flags().Changed("carat") {
		req.CaratWeight = &estimateCarat
	}

	if warnings := req.Validate(); len(warnings) > 0 {
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w.Message)
		}
		return fmt.Errorf("%d attribute(s) missing or invalid", len(warnings))
	}

	predictor, err := createPredictorFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("loading price model: %w", err)
	}

	est, err := pricing.NewEstimator(predictor).Estimate(context.Background(), req)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Printf("Model: %s\n", predictor.Name())
	}
	fmt.Printf("Estimated price: $%.2f\n", est.Price)
	return nil
}

func runBatchEstimate(cfg *config.Config) error {
	files, err := batch.Expand(estimateBatch)
	if err != nil {
		return err
	}

	predictor, err := createPredictorFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("loading price model: %w", err)
	}

	if estimateOutDir != "" {
		if err := os.MkdirAll(estimateOutDir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	scorer := batch.NewScorer(pricing.NewEstimator(predictor), progress.NewReporter("Estimating prices"))
	res, err := scorer.ScoreFiles(context.Background(), files, estimateOutDir)
	if err != nil {
		return err
	}

	fmt.Printf("Priced %d of %d rows in %d file(s); %d rows had missing or invalid attributes.\n",
		res.Priced, res.Rows, res.Files, res.Rejected)
	return nil
}
