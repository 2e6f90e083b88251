// The server command runs the print-shop backend: the customer submission
// and tracking API, the staff management API, and the live order feeds.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/printgenie/orderflow/internal/config"
	"github.com/printgenie/orderflow/internal/gcp"
	"github.com/printgenie/orderflow/internal/httpapi"
	"github.com/printgenie/orderflow/internal/live"
	"github.com/printgenie/orderflow/internal/orders"
	"github.com/printgenie/orderflow/internal/precheck"
	"github.com/printgenie/orderflow/internal/store"
	"github.com/printgenie/orderflow/internal/upload"
)

func main() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Critical: invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		slog.Error("Critical: failed to initialize services", "error", err)
		os.Exit(1)
	}

	hub := live.NewHub()
	view := live.NewView(deps.orderStore, hub, logger)

	handlers := &httpapi.Handlers{
		Orders:    orders.NewService(deps.orderStore, deps.summarizer, logger),
		Store:     deps.orderStore,
		Config:    deps.configStore,
		Blobs:     deps.blobs,
		Gate:      precheck.NewGate(deps.judge, logger),
		Assistant: deps.assistant,
		Hub:       hub,
		Log:       logger,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpapi.NewRouter(handlers, cfg.StaffToken),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gCtx)
		return nil
	})
	g.Go(func() error {
		return view.Run(gCtx)
	})
	g.Go(func() error {
		slog.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}

// dependencies collects the backing services the handlers are wired with.
type dependencies struct {
	orderStore  store.OrderStore
	configStore store.ConfigStore
	blobs       upload.BlobStore
	judge       precheck.QualityJudge
	summarizer  orders.Summarizer
	assistant   httpapi.Assistant
}

func buildDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	if cfg.UseMemoryStore {
		slog.Info("Using in-memory store; AI collaborators are disabled")
		mem := store.NewMemory()
		return &dependencies{
			orderStore:  mem,
			configStore: mem,
			blobs:       upload.NewMemoryBlobStore(),
			judge:       devJudge{},
			summarizer:  devSummarizer{},
			assistant:   devAssistant{},
		}, nil
	}

	fsClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, err
	}
	storageClient, err := gcp.NewStorageClient(ctx)
	if err != nil {
		return nil, err
	}
	vertexClient, err := gcp.NewVertexClient(ctx, cfg.ProjectID, cfg.VertexLocation)
	if err != nil {
		return nil, err
	}

	fs := store.NewFirestore(fsClient, logger)
	return &dependencies{
		orderStore:  fs,
		configStore: fs,
		blobs:       gcp.NewBlobBucket(storageClient, cfg.UploadBucket),
		judge:       vertexClient,
		summarizer:  vertexClient,
		assistant:   vertexClient,
	}, nil
}

// Local-development stand-ins for the Vertex collaborators.
type devJudge struct{}

func (devJudge) JudgeImage(ctx context.Context, image []byte, mimeType string, w, h float64) (precheck.Judgement, error) {
	return precheck.Judgement{IsSufficient: true}, nil
}

type devSummarizer struct{}

func (devSummarizer) Summarize(ctx context.Context, notes string) (string, error) {
	return notes, nil
}

type devAssistant struct{}

func (devAssistant) Answer(ctx context.Context, question string) (string, error) {
	return "The assistant is unavailable in local development mode.", nil
}
