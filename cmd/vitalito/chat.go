package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	httpadapter "github.com/PabloGalante/vitalito/internal/adapters/http"
	"github.com/PabloGalante/vitalito/internal/adapters/llm"
	"github.com/PabloGalante/vitalito/internal/adapters/media"
	"github.com/PabloGalante/vitalito/internal/adapters/speech"
	firestorestore "github.com/PabloGalante/vitalito/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/vitalito/internal/adapters/storage/memory"
	sqlitestore "github.com/PabloGalante/vitalito/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/vitalito/internal/app/capture"
	"github.com/PabloGalante/vitalito/internal/app/conversation"
	"github.com/PabloGalante/vitalito/internal/app/readaloud"
	"github.com/PabloGalante/vitalito/internal/config"
	"github.com/PabloGalante/vitalito/internal/domain"
	"github.com/PabloGalante/vitalito/internal/observability"
	"github.com/PabloGalante/vitalito/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the conversation UI",
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// The UI owns the terminal, so logs go to a file.
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	observability.Init(logFile, cfg.Debug)
	log := observability.Logger()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	api := httpadapter.NewClient(cfg.APIBaseURL, &http.Client{Timeout: 2 * time.Minute})

	var uploader domain.ImageUploader = api
	if cfg.Vision == config.VisionGemini {
		log.Info("using Gemini vision", "model", cfg.ModelName)
		uploader, err = llm.NewGeminiVision(ctx, cfg.GoogleAPIKey, cfg.ModelName)
		if err != nil {
			return fmt.Errorf("init Gemini vision: %w", err)
		}
	}

	var camera domain.MediaCaptureProvider
	switch cfg.Camera {
	case config.CameraFFmpeg:
		log.Info("using ffmpeg camera", "front", cfg.FrontDevice, "back", cfg.BackDevice)
		camera = media.NewFFmpegProvider(cfg.FrontDevice, cfg.BackDevice)
	default:
		camera = media.NewSyntheticProvider(0, 0)
	}

	board := tui.NewBoard(0)
	chat := conversation.NewService(api, board)
	session := capture.NewSession(camera, uploader, chat, board)
	session.Observe(func(s capture.Snapshot) {
		log.Debug("capture state", "capture_id", s.ID, "state", s.State.String(), "facing", s.Facing)
	})

	m := tui.New(ctx, tui.Deps{
		Chat:        chat,
		Store:       store,
		Camera:      session,
		Reader:      readaloud.NewReader(speech.NewEdgeTTS(cfg.TTSVoice), chat, board),
		Board:       board,
		WideColumns: cfg.WideColumns,
	})
	defer m.Close()

	log.Info("chat started", "api", cfg.APIBaseURL, "storage", cfg.StorageBackend, "camera", cfg.Camera, "vision", cfg.Vision)

	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}

	chat.Stop()
	chat.Wait()
	return nil
}

// openStore builds the draft store for the configured backend.
func openStore(ctx context.Context, cfg *config.Config) (domain.KeyValueStore, func(), error) {
	log := observability.Logger()

	switch cfg.StorageBackend {
	case config.StorageFirestore:
		log.Info("using Firestore storage", "project", cfg.GCPProjectID)
		s, err := firestorestore.NewStore(ctx, cfg.GCPProjectID, cfg.FirestoreNamespace)
		if err != nil {
			return nil, nil, fmt.Errorf("init Firestore store: %w", err)
		}
		return s, closer(s), nil

	case config.StorageSQLite:
		log.Info("using SQLite storage", "path", cfg.StoragePath)
		s, err := sqlitestore.Open(cfg.StoragePath)
		if err != nil {
			return nil, nil, fmt.Errorf("init SQLite store: %w", err)
		}
		return s, closer(s), nil

	default:
		log.Info("using in-memory storage")
		return memstore.NewKVStore(), func() {}, nil
	}
}

func closer(c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			observability.Logger().Warn("closing store failed", "error", err)
		}
	}
}
