package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dvloznov/finance-categorizer/internal/analytics"
	"github.com/dvloznov/finance-categorizer/internal/domain"
	"github.com/dvloznov/finance-categorizer/internal/importer"
	infrabq "github.com/dvloznov/finance-categorizer/internal/infra/bigquery"
	"github.com/dvloznov/finance-categorizer/internal/pipeline"
)

func newImportCommand(o *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a bank export file and categorize its transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app) error {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open %s: %w", args[0], err)
				}
				defer f.Close()

				svc := importer.NewService(nil, a.vault, a.pipeline)
				res, err := svc.Import(ctx, format, f, filepath.Base(args[0]))
				if err != nil {
					return err
				}
				if err := a.save(ctx); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				incomeColor.Fprintf(out, "Imported %d transactions", res.Batch.Count)
				fmt.Fprintf(out, " (batch %s, %d categorized, %d rows skipped)\n",
					res.Batch.ID, res.Categorized, res.Skipped)
				printUnmapped(out, a.pipeline.UnmappedSummary(5))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "",
		"export format ("+strings.Join(importer.DefaultRegistry().Formats(), ", ")+")")
	_ = cmd.MarkFlagRequired("format")
	return cmd
}

func newReclassifyCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reclassify",
		Short: "Re-run categorization on transactions that are still unresolved",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app) error {
				n := a.pipeline.ReclassifyUnknown(ctx, a.vault.Transactions())
				if err := a.save(ctx); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Reclassified %d transactions, %d still unresolved\n",
					n, len(analytics.UnknownTransactions(a.vault.Transactions())))
				printUnmapped(out, a.pipeline.UnmappedSummary(pipeline.DefaultUnmappedLimit))
				return nil
			})
		},
	}
}

func newTrainCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train the statistical classifier on categorized transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				status := a.model.Fit(a.vault.Transactions())
				if !status.Trained {
					warnColor.Fprintf(out, "Not enough labeled data: %d samples in %d classes\n",
						status.Samples, len(status.Classes))
					return nil
				}

				path := a.cfg.Classifier.ModelPath
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					return fmt.Errorf("create model dir: %w", err)
				}
				if err := a.model.Save(path); err != nil {
					return err
				}

				incomeColor.Fprintf(out, "Trained on %d samples, %d classes\n", status.Samples, len(status.Classes))
				if m := status.Metrics; m != nil {
					fmt.Fprintf(out, "Hold-out accuracy %.3f, macro F1 %.3f (%d samples)\n",
						m.Accuracy, m.F1Macro, m.TestSamples)
				}
				fmt.Fprintf(out, "Saved to %s\n", path)
				return nil
			})
		},
	}
}

func newUnmappedCommand(o *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "unmapped",
		Short: "List the most frequent bank categories missing from the mapping table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app) error {
				// Dry run on copies without the external model; stored
				// categories stay as they are. Transfers never reach the
				// pipeline on import, so they are left out here too.
				dry := pipeline.New(pipeline.WithClassifier(a.model))
				for _, tx := range a.vault.Transactions() {
					if tx.Type == domain.TypeTransfer {
						continue
					}
					c := *tx
					c.ClearCategory()
					dry.Categorize(ctx, &c)
				}

				entries := dry.UnmappedSummary(limit)
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Every bank category is mapped")
					return nil
				}
				printUnmapped(cmd.OutOrStdout(), entries)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", pipeline.DefaultUnmappedLimit, "number of entries to show")
	return cmd
}

func newRemoveBatchCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-batch ID",
		Short: "Delete an imported file and all of its transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app) error {
				id := args[0]
				found := false
				for _, b := range a.vault.Batches() {
					if b.ID == id {
						found = true
						break
					}
				}
				if !found {
					return fmt.Errorf("batch %s not found", id)
				}

				n := a.vault.RemoveBatch(id)
				if err := a.save(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed batch %s with %d transactions\n", id, n)
				return nil
			})
		},
	}
}

func newExportBQCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export-bq",
		Short: "Export categorized transactions to BigQuery",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app) error {
				bq := a.cfg.BigQuery
				e, err := infrabq.NewExporter(ctx, bq.Project, bq.Dataset, bq.Table)
				if err != nil {
					return err
				}
				defer e.Close()

				n, err := e.Export(ctx, a.vault.Transactions())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows to %s.%s.%s\n", n, bq.Project, bq.Dataset, bq.Table)
				return nil
			})
		},
	}
}

func newDatasetCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dataset",
		Short: "Print labeled training examples as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app) error {
				enc := json.NewEncoder(cmd.OutOrStdout())
				for _, row := range analytics.MLDataset(a.vault.Transactions()) {
					if err := enc.Encode(row); err != nil {
						return fmt.Errorf("encode row: %w", err)
					}
				}
				return nil
			})
		},
	}
}

func newStatusCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show stored data and model readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				txs := a.vault.Transactions()

				headerColor.Fprintln(out, "Vault")
				fmt.Fprintf(out, "  Transactions: %d\n", len(txs))
				fmt.Fprintf(out, "  Accounts:     %d\n", len(a.vault.Accounts()))
				fmt.Fprintf(out, "  Unresolved:   %d\n", len(analytics.UnknownTransactions(txs)))

				headerColor.Fprintln(out, "Batches")
				batches := a.vault.Batches()
				if len(batches) == 0 {
					fmt.Fprintln(out, "  none")
				}
				for _, b := range batches {
					fmt.Fprintf(out, "  %s  %-6s %-30s %5d  %s\n",
						b.ID, b.Bank, b.Filename, b.Count, b.ImportedAt.Format("2006-01-02 15:04"))
				}

				headerColor.Fprintln(out, "Models")
				st := a.model.Status()
				if st.Trained {
					fmt.Fprintf(out, "  Classifier:   trained on %d samples, %d classes\n", st.Samples, len(st.Classes))
				} else {
					warnColor.Fprintln(out, "  Classifier:   not trained")
				}
				ls := a.llm.Status()
				if ls.Ready {
					fmt.Fprintf(out, "  External:     %s via %s\n", ls.Model, a.cfg.LLM.Provider)
				} else {
					warnColor.Fprintln(out, "  External:     disabled")
				}
				return nil
			})
		},
	}
}

func printUnmapped(out io.Writer, entries []pipeline.UnmappedEntry) {
	if len(entries) == 0 {
		return
	}
	headerColor.Fprintln(out, "Unmapped bank categories")
	for _, e := range entries {
		fmt.Fprintf(out, "  %5d  %-8s %s\n", e.Count, e.Bank, e.BankCategory)
	}
}
