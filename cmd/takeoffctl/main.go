// Command takeoffctl runs the parsing pipeline against local files without
// the server, database, or object storage. Useful for tuning extraction
// settings against a corpus of documents.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"takeoff/internal/aggregate"
	"takeoff/internal/analyzer"
	"takeoff/internal/backend"
	"takeoff/internal/backend/anthropic"
	"takeoff/internal/backend/openai"
	"takeoff/internal/config"
	"takeoff/internal/normalize"
	"takeoff/internal/ocr"
	"takeoff/internal/port"
	"takeoff/internal/render"
	"takeoff/internal/strategy"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "takeoffctl",
		Short:         "Parse construction documents from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newAnalyzeCmd(), newParseCmd(), newVersionCmd())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <file>",
		Short: "Print document metrics without parsing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			metrics, err := analyzer.New(cfg.OCR.Pdftotext).Analyze(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(metrics)
		},
	}
}

func newParseCmd() *cobra.Command {
	var maxPages int

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Run the full extraction pipeline on a local file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			selector, cleanup, err := buildSelector(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			docAnalyzer := analyzer.New(cfg.OCR.Pdftotext)
			metrics, err := docAnalyzer.Analyze(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Minute)
			defer cancel()

			chain := selector.SelectChain(metrics)
			result, err := selector.ExecuteChain(ctx, args[0], metrics, chain, maxPages)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}

	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "limit analysis to the first N pages (0 = all)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the takeoffctl version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

// buildSelector wires the strategy chain the same way the server does, minus
// persistence. The returned cleanup releases the OCR engine.
func buildSelector(cfg *config.Config) (*strategy.Selector, func(), error) {
	backend.RegisterProvider("anthropic", func(c *config.BackendProviderConfig) (port.VisionBackend, error) {
		return anthropic.NewBackend(c), nil
	})
	backend.RegisterProvider("openai", func(c *config.BackendProviderConfig) (port.VisionBackend, error) {
		return openai.NewBackend(c), nil
	})

	visionBackend, err := backend.New(&cfg.Backend.Primary)
	if err != nil {
		return nil, nil, err
	}

	normalizer, err := normalize.New()
	if err != nil {
		return nil, nil, err
	}
	aggregator := aggregate.New(cfg.Parse.DedupThreshold)
	renderer := render.NewPDFRenderer(cfg.OCR.Pdftoppm)
	tiler := render.NewTiler(render.TileConfig{
		ByteBudget:      cfg.Parse.ByteBudget,
		BudgetMargin:    cfg.Parse.ByteBudgetMargin,
		OverlapFraction: cfg.Parse.OverlapFraction,
		QualityMax:      cfg.Parse.JPEGQualityMax,
		QualityMin:      cfg.Parse.JPEGQualityMin,
		MaxTilePx:       cfg.Parse.MaxTilePx,
	})

	cleanup := func() {}
	var ocrEngine port.OCREngine
	if cfg.Parse.EnableOCR {
		engine, err := ocr.New(cfg.OCR.Language, cfg.OCR.PSM)
		if err != nil {
			log.Printf("ocr engine unavailable, disabling OCR fallback: %v", err)
		} else {
			ocrEngine = engine
			cleanup = func() { _ = engine.Close() }
		}
	}

	selector := strategy.NewSelector(
		strategy.NewFullDocument(visionBackend, normalizer,
			cfg.Parse.EnableFullDocument, cfg.Parse.FullDocMaxSizeMB, cfg.Parse.FullDocMaxPages),
		strategy.NewTiling(visionBackend, renderer, tiler, normalizer, aggregator, strategy.TilingConfig{
			Enabled:     cfg.Parse.EnableTiling,
			CoarseDPI:   cfg.Parse.CoarseDPI,
			DetailDPI:   cfg.Parse.DetailDPI,
			Concurrency: cfg.Parse.Concurrency,
			TileTimeout: time.Duration(cfg.Parse.TileTimeoutSecs) * time.Second,
		}),
		strategy.NewOCR(ocrEngine, renderer, cfg.Parse.EnableOCR, cfg.OCR.DPI),
	)
	return selector, cleanup, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
