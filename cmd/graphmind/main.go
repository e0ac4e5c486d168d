// Command graphmind builds a knowledge graph from local files and URLs and
// prints it as JSON.
//
//	graphmind [-demo id] [-max-tokens n] [-out file] <file|url>...
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/graphmind/graphmind/internal/config"
	"github.com/graphmind/graphmind/internal/metrics"
	"github.com/graphmind/graphmind/internal/util"
	"github.com/graphmind/graphmind/pkg/ai"
	"github.com/graphmind/graphmind/pkg/common"
	"github.com/graphmind/graphmind/pkg/graph"
	"github.com/graphmind/graphmind/pkg/loader"
	"github.com/graphmind/graphmind/pkg/loader/io"
	"github.com/graphmind/graphmind/pkg/loader/pdf"
	"github.com/graphmind/graphmind/pkg/loader/web"
	"github.com/graphmind/graphmind/pkg/logger"
	"github.com/graphmind/graphmind/pkg/session"
)

type output struct {
	GraphData *common.GraphData   `json:"graphData"`
	Summary   string              `json:"summary,omitempty"`
	Stats     *graph.ProcessStats `json:"stats,omitempty"`
	Metrics   *ai.ModelMetrics    `json:"metrics,omitempty"`
}

func main() {
	demoID := flag.String("demo", "", "load a demo dataset instead of extracting")
	maxTokens := flag.Int("max-tokens", 0, "chunk budget in tokens (defaults to CHUNK_MAX_TOKENS)")
	outPath := flag.String("out", "", "write the result to this file instead of stdout")
	flag.Parse()

	util.LoadEnv()
	cfg := config.Load()
	if *maxTokens > 0 {
		cfg.ChunkMaxTokens = *maxTokens
	}
	cfg.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *demoID, flag.Args(), *outPath); err != nil {
		logger.Fatal("graphmind failed", "err", err)
	}
}

func run(ctx context.Context, cfg config.Config, demoID string, args []string, outPath string) error {
	if demoID == "" && len(args) == 0 {
		return errors.New("no input: pass files or URLs, or -demo <id>")
	}

	aiClient, err := cfg.NewAIClient()
	if err != nil {
		return fmt.Errorf("failed to create AI client: %w", err)
	}

	ctrl := session.NewController(session.NewControllerParams{
		GraphClient: cfg.NewGraphClient(metrics.NewCollector()),
		Extractor:   cfg.NewExtractor(aiClient),
	})
	defer ctrl.Close()

	if demoID != "" {
		if _, err := ctrl.LoadDemo(demoID); err != nil {
			return err
		}
	} else {
		docs, err := loadArgs(ctx, args)
		if err != nil {
			return err
		}
		if _, err := ctrl.SetDocuments(ctx, docs); err != nil {
			return err
		}
		if err := wait(ctx, ctrl); err != nil {
			return err
		}
	}

	state := ctrl.Snapshot()
	if state.Phase == session.PhaseFailed {
		return fmt.Errorf("graph build failed: %s", state.Error)
	}

	res := output{
		GraphData: state.GraphData,
		Summary:   state.Summary,
		Stats:     state.Stats,
	}
	if aiClient != nil {
		m := aiClient.GetMetrics()
		res.Metrics = &m
	}

	w := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// loadArgs turns every argument into a document. http and https arguments
// are fetched, everything else is read from disk.
func loadArgs(ctx context.Context, args []string) ([]common.Document, error) {
	files := io.NewIOTextLoader()
	pdfs := pdf.NewPDFTextLoader(files)
	pages := web.NewWebLoader(nil)

	docs := make([]common.Document, 0, len(args))
	for _, arg := range args {
		var (
			src loader.Source
			err error
		)
		if _, urlErr := web.ParseURL(arg); urlErr == nil {
			src, err = loader.NewURLSource(loader.NewSourceParams{Location: arg, Loader: pages})
		} else {
			kind, ok := loader.DetectFileKind(arg, "")
			if !ok {
				return nil, fmt.Errorf("%w: %s", loader.ErrUnsupportedFile, arg)
			}
			var l loader.TextLoader = files
			if kind == loader.FileKindPDF {
				l = pdfs
			}
			src, err = loader.NewFileSource(loader.NewSourceParams{
				Name:     filepath.Base(arg),
				Location: arg,
				Loader:   l,
			})
		}
		if err != nil {
			return nil, err
		}

		doc, err := src.Document(ctx)
		if err != nil {
			return nil, err
		}
		logger.Info("[CLI] Loaded document", "name", doc.Name, "characters", len(doc.Content))
		docs = append(docs, doc)
	}
	return docs, nil
}

// wait blocks until the build finishes or ctx is cancelled.
func wait(ctx context.Context, ctrl *session.Controller) error {
	done := make(chan struct{})
	go func() {
		ctrl.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		ctrl.Close()
		return ctx.Err()
	}
}
