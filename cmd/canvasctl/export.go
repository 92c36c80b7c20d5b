package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"collabcanvas/internal/camera"
	"collabcanvas/internal/geometry"
	"collabcanvas/internal/render"
	"collabcanvas/internal/session"

	"github.com/spf13/pflag"
)

func runExport(args []string) error {
	var conn connectionFlags
	var out, cameraDir string
	var width, height float64

	fs := pflag.NewFlagSet("export", pflag.ContinueOnError)
	conn.add(fs)
	fs.StringVarP(&out, "out", "o", "board.pdf", "output PDF path")
	fs.Float64Var(&width, "width", 1280, "page width in points")
	fs.Float64Var(&height, "height", 800, "page height in points")
	fs.StringVar(&cameraDir, "camera-dir", "", "render with the camera saved here by watch")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if err := conn.validate(); err != nil {
		return err
	}

	token, err := tokenSource(&conn).Token()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	shapes, err := session.FetchShapes(ctx, nil, conn.server, conn.room, token)
	if err != nil {
		return err
	}

	cam := camera.Default()
	if cameraDir != "" {
		cam = camera.Load(camera.NewFileStore(cameraDir), conn.room)
	}
	if err := writePDF(out, width, height, cam, shapes); err != nil {
		return err
	}
	slog.Info("Exported room", "room", conn.room, "shapes", len(shapes), "out", out)
	return nil
}

func writePDF(path string, width, height float64, cam camera.State, shapes []geometry.Shape) error {
	surface := render.NewPDFSurface(width, height)
	render.Draw(surface, render.Scene{Camera: cam, Shapes: shapes})

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := surface.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
