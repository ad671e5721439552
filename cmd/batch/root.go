package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-script-validator/internal/batch"
	"go-script-validator/internal/config"
	"go-script-validator/internal/container"
	"go-script-validator/internal/logger"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type options struct {
	configFile string
	pdfOut     string
	metaOut    string
	noIPFS     bool
	workers    int
	xlsx       bool
	progress   bool
}

// processorFactory builds the service for a run; tests replace it
var processorFactory = func(ctx context.Context, cfg *config.Config, storeType string) (batch.Processor, func() error, error) {
	c, err := container.NewContainer(ctx, cfg, container.Options{StoreType: storeType})
	if err != nil {
		return nil, nil, err
	}
	return c.Service(), c.Close, nil
}

// exitError carries the process exit code out of cobra
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "batch <file-or-dir>",
		Short: "Extract and validate metadata from scanned answer scripts",
		Long: `Processes a single PDF or image, or every .pdf, .png, .jpg and .jpeg file in a
directory. One JSON status line is printed per file; a summary is written to the
metadata output directory.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), args[0], opts, cmd.Flags().Changed("workers"), stdout, stderr)
		},
	}

	cmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "YAML config file")
	cmd.Flags().StringVar(&opts.pdfOut, "pdf-out", "", "archive PDF directory (default from config)")
	cmd.Flags().StringVar(&opts.metaOut, "meta-out", "", "metadata JSON directory (default from config)")
	cmd.Flags().BoolVar(&opts.noIPFS, "no-ipfs", false, "skip uploading archive copies")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 1, "files processed concurrently")
	cmd.Flags().BoolVar(&opts.xlsx, "xlsx", false, "also write batch_summary.xlsx")
	cmd.Flags().BoolVar(&opts.progress, "progress", true, "show a progress bar on stderr")

	return cmd
}

func execute(args []string, stdout, stderr io.Writer) int {
	// Result lines own stdout
	logger.SetOutput(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stderr)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintln(stderr, "error:", err)
	return exitUsage
}

func runBatch(ctx context.Context, input string, opts *options, workersSet bool, stdout, stderr io.Writer) error {
	files, err := batch.CollectInputs(input)
	if err != nil {
		msg := err.Error()
		if os.IsNotExist(err) {
			msg = "input not found"
		}
		fmt.Fprintln(stdout, batch.EncodeLine(batch.Line{Status: batch.StatusError, File: input, Error: msg}))
		return &exitError{code: exitUsage, err: err}
	}

	configFile := opts.configFile
	if configFile == "" {
		configFile = os.Getenv("CONFIG_FILE")
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return &exitError{code: exitFailure, err: fmt.Errorf("load config: %w", err)}
	}
	logger.SetLevel(cfg.LogLevel)

	pdfOut, metaOut := cfg.Output.PDFDir, cfg.Output.MetaDir
	if opts.pdfOut != "" {
		pdfOut = opts.pdfOut
	}
	if opts.metaOut != "" {
		metaOut = opts.metaOut
	}
	workers := cfg.BatchWorkers
	if workersSet {
		workers = opts.workers
	}

	storeType := cfg.Store.Type
	if opts.noIPFS {
		storeType = config.StoreNone
	}

	processor, closeFn, err := processorFactory(ctx, cfg, storeType)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return &exitError{code: exitFailure, err: err}
	}
	defer closeFn()

	var bar *progressbar.ProgressBar
	if opts.progress && len(files) > 1 {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionSetDescription("processing"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionOnCompletion(func() { fmt.Fprint(stderr, "\n") }),
		)
	}

	results := batch.Run(ctx, processor, files, batch.Options{
		Workers:    workers,
		Upload:     storeType != config.StoreNone,
		PDFOutDir:  pdfOut,
		MetaOutDir: metaOut,
		OnResult: func(r batch.Result) {
			fmt.Fprintln(stdout, batch.EncodeLine(r.Line()))
			if bar != nil {
				_ = bar.Add(1)
			}
		},
	})
	if bar != nil {
		_ = bar.Finish()
	}

	summary := batch.Summarize(results, time.Now())
	if _, err := batch.WriteJSON(metaOut, summary); err != nil {
		return &exitError{code: exitFailure, err: err}
	}
	if opts.xlsx {
		if _, err := batch.WriteXLSX(metaOut, summary); err != nil {
			return &exitError{code: exitFailure, err: err}
		}
	}

	// per-file failures are reported on their lines and in the summary, not in the exit code
	return nil
}
