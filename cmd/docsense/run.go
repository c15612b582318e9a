package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"docsense/internal/app"
	"docsense/internal/domain"
	"docsense/internal/pipeline"
	"docsense/internal/report"
	"docsense/internal/service"
)

type runOptions struct {
	threshold  float64
	reportPath string
	asJSON     bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run <files...>",
		Short: "Process documents and print their classification and fields",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFiles(cmd, root, opts, args)
		},
	}
	cmd.Flags().Float64VarP(&opts.threshold, "threshold", "t", -1, "minimum OCR confidence (default from config)")
	cmd.Flags().StringVarP(&opts.reportPath, "report", "r", "", "write a summary report (.csv, .xlsx, or a directory)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print results as JSON")
	return cmd
}

func runFiles(cmd *cobra.Command, root *rootOptions, opts *runOptions, paths []string) error {
	cfg, log, err := root.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if opts.reportPath != "" {
		if info, err := os.Stat(opts.reportPath); err == nil && info.IsDir() {
			opts.reportPath = defaultReportName(opts.reportPath, "csv")
		}
		if _, err := reportWriter(opts.reportPath); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	files := make([]service.NamedFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		files = append(files, service.NamedFile{Name: filepath.Base(p), Data: data})
	}

	popts := a.Defaults
	if opts.threshold >= 0 {
		popts = pipeline.Options{Threshold: opts.threshold}
	}

	batch, err := a.Documents.ProcessFiles(ctx, files, popts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		if err := printJSON(out, batch); err != nil {
			return err
		}
	} else {
		printTable(out, batch)
	}

	if opts.reportPath != "" {
		if err := writeReport(opts.reportPath, batch); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "report written to %s\n", opts.reportPath)
	}

	if len(batch.Results) == 0 {
		return fmt.Errorf("no document could be processed")
	}
	return nil
}

func printJSON(w io.Writer, batch *domain.BatchResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Results           []domain.FileResult  `json:"results"`
		Failed            []domain.FileFailure `json:"failed"`
		TotalDetections   int                  `json:"total_detections"`
		AverageConfidence string               `json:"average_confidence"`
	}{batch.Results, batch.Failed, batch.TotalDetections, domain.FormatConfidence(batch.AverageConfidence())})
}

func printTable(w io.Writer, batch *domain.BatchResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOCUMENT\tCLASSIFICATION\tCONFIDENCE\tFIELDS")
	for _, r := range batch.Results {
		parts := make([]string, 0, len(r.Extraction.Names))
		for _, name := range r.Extraction.Names {
			parts = append(parts, name+"="+r.Fields[name])
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.DocumentName, r.Classification, r.Confidence, strings.Join(parts, "; "))
	}
	for _, f := range batch.Failed {
		fmt.Fprintf(tw, "%s\tFAILED\t-\t%s\n", f.DocumentName, f.Error)
	}
	_ = tw.Flush()
}

type reportFunc func(path string, batch *domain.BatchResult) error

func reportWriter(path string) (reportFunc, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return func(path string, batch *domain.BatchResult) error {
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			return report.WriteCSV(f, batch)
		}, nil
	case ".xlsx":
		return func(path string, batch *domain.BatchResult) error {
			data, err := report.XLSX(batch)
			if err != nil {
				return err
			}
			return os.WriteFile(path, data, 0o644)
		}, nil
	default:
		return nil, fmt.Errorf("report must end in .csv or .xlsx, got %s", path)
	}
}

func writeReport(path string, batch *domain.BatchResult) error {
	write, err := reportWriter(path)
	if err != nil {
		return err
	}
	if err := write(path, batch); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// defaultReportName names a CSV report placed in dir.
func defaultReportName(dir, ext string) string {
	return filepath.Join(dir, report.BuildFilename(ext, time.Now()))
}
