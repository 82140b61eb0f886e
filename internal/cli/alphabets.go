package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/zhijing-jin/nereval/conll"
	"github.com/zhijing-jin/nereval/embedding"
)

func (c *CLI) newAlphabetsCommand() *cobra.Command {
	var train, dev, test, embeddingPath, folder string
	var maxVocab int

	cmd := &cobra.Command{
		Use:   "alphabets",
		Short: "Build and persist word/char/tag alphabets from the corpora",
		Example: `  nereval alphabets --train data/eng.train --dev data/eng.testa \
    --test data/eng.testb --embedding data/glove.6B.100d.txt.gz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var dict map[string][]float64
			if embeddingPath != "" {
				var dim int
				var err error
				dict, dim, err = embedding.LoadDict(embeddingPath)
				if err != nil {
					return err
				}
				slog.Info("Loaded embedding dictionary", "entries", len(dict), "dim", dim)
			}

			var dataPaths []string
			for _, p := range []string{dev, test} {
				if p != "" {
					dataPaths = append(dataPaths, p)
				}
			}
			alphabets, err := conll.CreateAlphabets(folder, train, dataPaths, dict, maxVocab)
			if err != nil {
				return err
			}

			fmt.Printf("Word alphabet size: %d\n", alphabets.Word.Size())
			fmt.Printf("Character alphabet size: %d\n", alphabets.Char.Size())
			fmt.Printf("Tag alphabet size: %d\n", alphabets.Tag.Size())
			return nil
		},
	}

	cmd.Flags().StringVar(&train, "train", "", "Path of the training corpus")
	cmd.Flags().StringVar(&dev, "dev", "", "Path of the dev corpus")
	cmd.Flags().StringVar(&test, "test", "", "Path of the test corpus")
	cmd.Flags().StringVar(&embeddingPath, "embedding", "", "Path of the pretrained embedding dictionary")
	cmd.Flags().StringVar(&folder, "alphabets-folder", "data/alphabets", "Destination folder for persisted alphabets")
	cmd.Flags().IntVar(&maxVocab, "max-vocab", 50000, "Word alphabet size cap")
	_ = cmd.MarkFlagRequired("train")

	return cmd
}
