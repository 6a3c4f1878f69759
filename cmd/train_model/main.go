package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"mlinfer/config"
	"mlinfer/db"
	"mlinfer/logger"
	"mlinfer/ml"
)

type options struct {
	modelPath  string
	dataPath   string
	c          float64
	ledgerPath string
}

var opts options

var rootCmd = &cobra.Command{
	Use:          "train_model",
	Short:        "fit the classifier and write its artifact",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), opts, cmd.OutOrStdout())
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&opts.modelPath, "model_path", config.DefaultModelPath, "model output path")
	flags.StringVar(&opts.dataPath, "data", "", "CSV dataset with value,label columns (default: built-in four points)")
	flags.Float64Var(&opts.c, "c", 1, "inverse L2 regularisation strength")
	flags.StringVar(&opts.ledgerPath, "ledger", "", "sqlite file to record the training run in")
}

func run(ctx context.Context, opts options, out io.Writer) error {
	samples := ml.DefaultDataset()
	if opts.dataPath != "" {
		loaded, err := ml.LoadDataset(opts.dataPath)
		if err != nil {
			return fmt.Errorf("load dataset: %w", err)
		}
		samples = loaded
	}

	model := ml.NewLogisticRegression(opts.c)
	if err := model.Train(samples); err != nil {
		return fmt.Errorf("train model: %w", err)
	}

	eval, err := ml.Evaluate(model, samples)
	if err != nil {
		return fmt.Errorf("evaluate model: %w", err)
	}
	boundary, hasBoundary := model.Boundary()
	logger.Infof("accuracy=%.2f logloss=%.4f boundary=%.4f samples=%d", eval.Accuracy, eval.LogLoss, boundary, eval.Samples)

	if err := os.MkdirAll(filepath.Dir(opts.modelPath), 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	if err := model.Save(opts.modelPath); err != nil {
		return fmt.Errorf("save model: %w", err)
	}

	if opts.ledgerPath != "" {
		ledger, err := db.OpenLedger(opts.ledgerPath)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer ledger.Close()

		id, err := ledger.RecordTraining(ctx, db.TrainingRun{
			ModelName:  ml.ModelTypeLogisticRegression,
			ModelPath:  opts.modelPath,
			Accuracy:   eval.Accuracy,
			LogLoss:    eval.LogLoss,
			Boundary:   sql.NullFloat64{Float64: boundary, Valid: hasBoundary},
			DataPoints: eval.Samples,
			TrainedAt:  time.Now(),
		})
		if err != nil {
			return fmt.Errorf("record training: %w", err)
		}
		logger.Infof("training run %d recorded in %s", id, opts.ledgerPath)
	}

	fmt.Fprintf(out, "model saved to %s\n", opts.modelPath)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
