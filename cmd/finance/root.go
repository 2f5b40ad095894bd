package main

import (
	"context"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dvloznov/finance-categorizer/internal/logger"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	incomeColor  = color.New(color.FgGreen)
	expenseColor = color.New(color.FgRed)
	warnColor    = color.New(color.FgYellow)
)

type rootOptions struct {
	configPath string
}

// run opens the app for one command invocation and closes it afterwards.
func (o *rootOptions) run(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := openApp(ctx, o.configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(logger.WithContext(ctx, a.log), a)
}

func newRootCommand() *cobra.Command {
	o := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "finance",
		Short: "Categorize bank transactions and report on spending",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&o.configPath, "config", "", "path to a YAML config file")

	rootCmd.AddCommand(
		newImportCommand(o),
		newReclassifyCommand(o),
		newTrainCommand(o),
		newUnmappedCommand(o),
		newReportCommand(o),
		newRemoveBatchCommand(o),
		newExportBQCommand(o),
		newDatasetCommand(o),
		newStatusCommand(o),
	)
	return rootCmd
}
