package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhijing-jin/nereval"
)

func (c *CLI) newEvaluateCommand() *cobra.Command {
	cfg := &nereval.Config{}
	var timeoutSec int

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Decode the test corpus and score predictions with the official scorer",
		Example: `  nereval evaluate --train data/eng.train --test data/eng.testb \
    --embedding data/glove.6B.100d.txt.gz --checkpoint models/ner_best.json \
    --output tmp/eng.testb.pred --scorer eval/conlleval.v2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Timeout = time.Duration(timeoutSec) * time.Second
			slog.Info("Evaluating", "test", cfg.Test, "checkpoint", cfg.Checkpoint, "batch-size", cfg.BatchSize)
			start := time.Now()
			result, err := nereval.Evaluate(cfg)
			if err != nil {
				return err
			}
			slog.Debug("Evaluation completed", "duration", time.Since(start))

			fmt.Printf("Sentences evaluated: %d (oov words: %d)\n", result.Sentences, result.OOV)
			fmt.Printf("Accuracy:  %6.2f%%\n", result.Report.Accuracy)
			fmt.Printf("Precision: %6.2f%%\n", result.Report.Precision)
			fmt.Printf("Recall:    %6.2f%%\n", result.Report.Recall)
			fmt.Printf("F1:        %6.2f\n", result.Report.F1)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.Train, "train", "", "Path of the training corpus (alphabet construction)")
	cmd.Flags().StringVar(&cfg.Dev, "dev", "", "Path of the dev corpus")
	cmd.Flags().StringVar(&cfg.Test, "test", "", "Path of the test corpus to evaluate")
	cmd.Flags().StringVar(&cfg.EmbeddingPath, "embedding", "", "Path of the pretrained embedding dictionary (.txt or .txt.gz)")
	cmd.Flags().IntVar(&cfg.EmbeddingDim, "embedding-dim", 100, "Embedding width when no dictionary is given")
	cmd.Flags().StringVar(&cfg.AlphabetDir, "alphabets-folder", "data/alphabets", "Folder holding persisted alphabets")
	cmd.Flags().IntVar(&cfg.MaxVocab, "max-vocab", 50000, "Word alphabet size cap")
	cmd.Flags().StringVar(&cfg.Flavor, "flavor", "std", "Model variant: std or weight_drop")
	cmd.Flags().StringVar(&cfg.Checkpoint, "checkpoint", "", "Trained model checkpoint to restore")
	cmd.Flags().IntVar(&cfg.BatchSize, "batch-size", 16, "Number of sentences per batch")
	cmd.Flags().StringVar(&cfg.OutputFile, "output", "", "File receiving the rendered predictions")
	cmd.Flags().StringVar(&cfg.ScoreFile, "score-file", "tmp/score", "File receiving the raw scorer report")
	cmd.Flags().StringVar(&cfg.ResultFile, "result-file", "results/evaluation", "Append-only result log")
	cmd.Flags().StringVar(&cfg.ScorerPath, "scorer", "eval/conlleval.v2", "Path of the external scorer executable")
	cmd.Flags().BoolVar(&cfg.Raw, "raw", false, "Evaluate in raw tagging format (-r)")
	cmd.Flags().StringVar(&cfg.OutsideTag, "o-tag", "O", "Label of the outside tag")
	cmd.Flags().IntVar(&timeoutSec, "scorer-timeout", 120, "Scorer timeout in seconds")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", 0, "Seed for embedding-table fallback sampling")

	_ = cmd.MarkFlagRequired("train")
	_ = cmd.MarkFlagRequired("test")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
