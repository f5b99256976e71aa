package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/PabloGalante/vitalito/internal/adapters/http"
	"github.com/PabloGalante/vitalito/internal/adapters/llm"
	"github.com/PabloGalante/vitalito/internal/config"
	"github.com/PabloGalante/vitalito/internal/observability"
)

var chunkDelay time.Duration

var mockAPICmd = &cobra.Command{
	Use:   "mock-api",
	Short: "Serve a local mock of the chat backend",
	Long: `Serve POST /api/chat (data stream) and POST /api/chat/upload-image
with canned replies, for running the UI without a model.`,
	RunE: runMockAPI,
}

func init() {
	mockAPICmd.Flags().DurationVar(&chunkDelay, "chunk-delay", 40*time.Millisecond, "pause between streamed chunks")
}

func runMockAPI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	observability.Init(os.Stdout, cfg.Debug)
	log := observability.Logger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpadapter.NewServer(llm.NewMockLLM(), httpadapter.WithChunkDelay(chunkDelay)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("mock API listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info("mock API shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
