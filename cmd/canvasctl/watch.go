package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"collabcanvas/internal/camera"
	"collabcanvas/internal/draw"
	"collabcanvas/internal/models"
	"collabcanvas/internal/render"
	"collabcanvas/internal/session"

	"github.com/spf13/pflag"
)

func runWatch(args []string) error {
	var conn connectionFlags
	var snapshot, cameraDir string
	var width, height float64

	fs := pflag.NewFlagSet("watch", pflag.ContinueOnError)
	conn.add(fs)
	fs.StringVar(&snapshot, "snapshot", "", "write the board to this PDF on exit")
	fs.StringVar(&cameraDir, "camera-dir", "", "persist the room camera under this directory")
	fs.Float64Var(&width, "width", 1280, "viewport width")
	fs.Float64Var(&height, "height", 800, "viewport height")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if err := conn.validate(); err != nil {
		return err
	}

	tokens := tokenSource(&conn)
	token, err := tokens.Token()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []draw.Option{draw.WithSurface(render.NewRecorder(width, height))}
	if cameraDir != "" {
		if err := os.MkdirAll(cameraDir, 0o755); err != nil {
			return err
		}
		opts = append(opts, draw.WithCameraStore(camera.NewFileStore(cameraDir)))
	}
	board := draw.NewBoard(conn.room, opts...)

	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	shapes, err := session.FetchShapes(fetchCtx, nil, conn.server, conn.room, token)
	cancel()
	if err != nil {
		return err
	}
	board.Load(shapes)
	slog.Info("Hydrated board", "room", conn.room, "shapes", len(shapes))

	s, err := session.Dial(ctx, conn.wsURL(), conn.room, tokens, board,
		session.WithEventHook(func(ev models.Event) {
			slog.Info("Room event",
				"type", ev.Type,
				"sender", ev.SenderID,
				"shape", ev.ShapeID,
				"shapes", len(board.Shapes()),
			)
		}))
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-s.Done():
		slog.Warn("Disconnected", "error", s.Err())
	}
	s.Close()

	if snapshot == "" {
		return nil
	}
	if err := writePDF(snapshot, width, height, board.Camera(), board.Shapes()); err != nil {
		return err
	}
	slog.Info("Wrote snapshot", "out", snapshot, "shapes", len(board.Shapes()))
	return nil
}
