package main

import (
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/hupe1980/recgo"
	"github.com/hupe1980/recgo/model"
)

// newRecommendCmd creates the "recgo recommend" subcommand.
func newRecommendCmd(flags *rootFlags) *cobra.Command {
	var (
		intentPath string
		k          int
		indexType  string
	)

	cmd := &cobra.Command{
		Use:   "recommend --intent <file>",
		Short: "Run one intent and print the result as JSON",
		Long: "Read an intent document (use - for stdin), run the pipeline once and\n" +
			"print the result. An intent whose candidates are all filtered prints\n" +
			"status \"empty\" and exits 0.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Reject bad input before paying for artifact loading.
			in, err := readIntent(intentPath, cmd.InOrStdin())
			if err != nil {
				return err
			}

			a, err := loadApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if k > 0 {
				a.cfg.Selection.K = k
			}
			if indexType != "" {
				a.cfg.Retrieval.IndexType = indexType
			}

			rec, err := openRecommender(cmd.Context(), a, recgo.NoopMetricsCollector{}, nil)
			if err != nil {
				return err
			}
			res, err := rec.Recommend(cmd.Context(), in)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&intentPath, "intent", "", "intent JSON file, - for stdin")
	cmd.Flags().IntVar(&k, "k", 0, "number of recommendations (overrides selection.k)")
	cmd.Flags().StringVar(&indexType, "index", "", "retrieval backend (overrides retrieval.index_type)")
	_ = cmd.MarkFlagRequired("intent")
	return cmd
}

func readIntent(path string, stdin io.Reader) (*model.Intent, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, &model.InvalidIntentError{Field: "intent", Reason: err.Error()}
	}
	return model.ParseIntent(data)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
