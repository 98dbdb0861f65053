package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conciliar-dev/conciliar/internal/config"
	"github.com/conciliar-dev/conciliar/internal/history"
	"github.com/conciliar-dev/conciliar/internal/importer"
	"github.com/conciliar-dev/conciliar/internal/model"
	"github.com/conciliar-dev/conciliar/internal/normalize"
	"github.com/conciliar-dev/conciliar/internal/pipeline"
	"github.com/conciliar-dev/conciliar/internal/reconcile"
	"github.com/conciliar-dev/conciliar/internal/report"
)

// runOptions are the batch-mode flags.
type runOptions struct {
	bankFile   string
	systemFile string
	outFile    string
	writeCSV   bool
	archive    bool
}

func newRunCommand(g *globalFlags) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile a bank export against a system export and write the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ctx, _, err := g.load(cmd.Context())
			if err != nil {
				return err
			}
			applyRunFlags(cmd, cfg, opts)
			return runReconcile(ctx, cmd.OutOrStdout(), cfg, opts.archive)
		},
	}

	cmd.Flags().StringVar(&opts.bankFile, "bank", "", "bank statement export (.xlsx or .csv)")
	cmd.Flags().StringVar(&opts.systemFile, "system", "", "system export (.xlsx or .csv)")
	cmd.Flags().StringVar(&opts.outFile, "out", "", "report workbook to write")
	cmd.Flags().BoolVar(&opts.writeCSV, "csv", false, "also write the add/remove lists as CSV next to the report")
	cmd.Flags().BoolVar(&opts.archive, "archive", false, "move the inputs to processed/ after a successful run")

	return cmd
}

// applyRunFlags overrides config with flags the user set explicitly.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config, opts runOptions) {
	if cmd.Flags().Changed("bank") {
		cfg.Input.BankFile = opts.bankFile
	}
	if cmd.Flags().Changed("system") {
		cfg.Input.SystemFile = opts.systemFile
	}
	if cmd.Flags().Changed("out") {
		cfg.Output.ReportFile = opts.outFile
	}
	if cmd.Flags().Changed("csv") {
		cfg.Output.WriteCSV = opts.writeCSV
	}
}

func runReconcile(ctx context.Context, out io.Writer, cfg *config.Config, archive bool) error {
	for _, f := range []struct{ label, path string }{
		{"bank", cfg.Input.BankFile},
		{"system", cfg.Input.SystemFile},
	} {
		if _, err := os.Stat(f.path); errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s file %s not found", f.label, f.path)
		} else if err != nil {
			return fmt.Errorf("checking %s file: %w", f.label, err)
		}
	}

	outDir := filepath.Dir(cfg.Output.ReportFile)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	svcOpts, closeHistory, err := historyOption(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeHistory()

	svc := pipeline.NewService(
		importer.DefaultRegistry(),
		normalize.New(normalize.WithScale(cfg.Reconcile.AmountScale)),
		svcOpts...,
	)
	res, err := svc.Run(ctx, pipeline.RunParams{
		BankFile:   cfg.Input.BankFile,
		SystemFile: cfg.Input.SystemFile,
		Origin:     history.OriginCLI,
	})
	if err != nil {
		return err
	}

	if err := writeWorkbook(cfg.Output.ReportFile, res.Sheets()); err != nil {
		return err
	}
	if cfg.Output.WriteCSV {
		if err := writeDiffs(outDir, res.Result); err != nil {
			return err
		}
	}

	report.Console(out, res.Result)
	if n := len(res.Rejected); n > 0 {
		fmt.Fprintf(out, "Skipped %d invalid row(s); see the log for details.\n", n)
	}
	fmt.Fprintf(out, "Report written to %s\n", cfg.Output.ReportFile)

	if archive {
		for _, p := range []string{cfg.Input.BankFile, cfg.Input.SystemFile} {
			dst, err := importer.Archive(p)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Archived %s\n", dst)
		}
	}
	return nil
}

// historyOption opens the run history when configured.
func historyOption(ctx context.Context, cfg *config.Config) ([]pipeline.Option, func(), error) {
	if cfg.History.Path == "" {
		return nil, func() {}, nil
	}
	store, err := history.Open(ctx, cfg.History.Path)
	if err != nil {
		return nil, nil, err
	}
	return []pipeline.Option{pipeline.WithRecorder(store)}, func() { _ = store.Close() }, nil
}

func writeWorkbook(path string, sheets []report.Sheet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := report.WriteXLSX(f, sheets); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing report: %w", err)
	}
	return nil
}

func writeDiffs(dir string, res reconcile.Result) error {
	lists := []struct {
		name    string
		records []model.Transaction
		action  string
	}{
		{report.AddFileName, res.BankOnly, report.ActionAdd},
		{report.RemoveFileName, res.SystemOnly, report.ActionRemove},
	}
	for _, l := range lists {
		f, err := os.Create(filepath.Join(dir, l.name))
		if err != nil {
			return fmt.Errorf("creating %s: %w", l.name, err)
		}
		if err := report.WriteDiffCSV(f, l.records, l.action); err != nil {
			_ = f.Close()
			return fmt.Errorf("writing %s: %w", l.name, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", l.name, err)
		}
	}
	return nil
}
