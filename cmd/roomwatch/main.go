// Command roomwatch joins a room as a headless canvas and keeps a PNG
// snapshot of the scene up to date.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/drawroom/drawroom/internal/board"
	"github.com/drawroom/drawroom/internal/config"
	"github.com/drawroom/drawroom/internal/discovery"
	"github.com/drawroom/drawroom/internal/history"
	"github.com/drawroom/drawroom/internal/render"
	"github.com/drawroom/drawroom/internal/wsclient"
)

// snapshotEvery throttles PNG writes while the room is busy.
const snapshotEvery = time.Second

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	render.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		slog.Error("roomwatch failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.ClientConfig, logger *slog.Logger) error {
	serverURL := cfg.ServerURL
	if serverURL == "" {
		found, err := findRelay(ctx)
		if err != nil {
			return err
		}
		serverURL = found
	}

	wsURL, err := wsclient.RoomURL(serverURL, cfg.Room, cfg.Token)
	if err != nil {
		return err
	}
	conn, err := wsclient.Dial(ctx, wsURL, nil, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	raster, err := render.NewRaster(cfg.CanvasWidth, cfg.CanvasHeight)
	if err != nil {
		return err
	}
	defer raster.Close()

	var lastWrite time.Time
	// Runs on the board loop, the only goroutine touching raster.
	onRedraw := func() {
		if time.Since(lastWrite) < snapshotEvery {
			return
		}
		lastWrite = time.Now()
		if err := writeSnapshot(raster, cfg.Output); err != nil {
			logger.Warn("write snapshot", "error", err, "path", cfg.Output)
		}
	}

	// The board outlives the signal context so the scene can still be read
	// after shutdown starts.
	h := board.Create(context.Background(), raster, cfg.Room, conn,
		board.WithHistory(history.NewClient(serverURL, cfg.Token, nil, logger)),
		board.WithLogger(logger),
		board.WithStrict(cfg.Strict),
		board.WithOnRedraw(onRedraw),
	)
	slog.Info("watching room", "room", cfg.Room, "server", serverURL, "output", cfg.Output)

	<-ctx.Done()

	shapes := h.Shapes()
	h.Destroy()

	// The loop has exited, so raster is ours again.
	if err := writeSnapshot(raster, cfg.Output); err != nil {
		return err
	}
	slog.Info("final snapshot written", "path", cfg.Output, "shapes", len(shapes))
	return nil
}

// findRelay picks the first relay advertised on the local network.
func findRelay(ctx context.Context) (string, error) {
	servers, err := discovery.Browse(ctx, 3*time.Second)
	if err != nil {
		return "", err
	}
	if len(servers) == 0 {
		return "", fmt.Errorf("no relay found on the local network; set DRAWROOM_SERVER")
	}
	slog.Info("discovered relay", "instance", servers[0].Instance, "addr", servers[0].Addr)
	return "http://" + servers[0].Addr, nil
}

// writeSnapshot replaces path atomically so readers never see a partial PNG.
func writeSnapshot(raster *render.Raster, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".roomwatch-*.png")
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := raster.EncodePNG(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
