// phongsphere - software-rasterized Blinn-Phong sphere
// Renders one frame and presents it in the terminal, as a PNG file, or to a
// browser over a websocket.
//
// Controls (terminal):
//
//	Q/Esc/Ctrl+C - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/phongsphere/pkg/display"
	"github.com/taigrr/phongsphere/pkg/models"
	"github.com/taigrr/phongsphere/pkg/render"
)

var (
	outPath    = flag.String("o", "", "Write the frame to a PNG file instead of the terminal")
	exportPath = flag.String("export", "", "Also write the sphere mesh to a GLB file")
	serveAddr  = flag.String("serve", "", "Serve the frame to browsers on this address (e.g. :8080)")
	workers    = flag.Int("workers", 1, "Number of row bands rendered in parallel")
	width      = flag.Int("width", 512, "Frame width in pixels")
	height     = flag.Int("height", 512, "Frame height in pixels")
	longitude  = flag.Int("lon", 32, "Sphere samples per ring (>= 3)")
	latitude   = flag.Int("lat", 16, "Sphere rings including poles (>= 3)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "phongsphere - software-rasterized Blinn-Phong sphere\n\n")
		fmt.Fprintf(os.Stderr, "Usage: phongsphere [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  Q/Esc       - Quit\n")
	}
	flag.Parse()

	log.SetFlags(0)
	log.SetPrefix("phongsphere: ")

	if err := run(); err != nil {
		log.Printf("error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := render.DefaultConfig()
	cfg.Width, cfg.Height = *width, *height
	cfg.Longitude, cfg.Latitude = *longitude, *latitude
	cfg.Workers = *workers

	rc, err := render.NewContext(cfg)
	if err != nil {
		return err
	}
	defer rc.Close()

	start := time.Now()
	stats, err := rc.Render()
	if err != nil {
		return err
	}
	log.Printf("rendered %d faces (%d rejected, %d fragments) in %v",
		stats.Faces, stats.Rejected, stats.Fragments, time.Since(start).Round(time.Microsecond))

	if *exportPath != "" {
		if err := exportMesh(*exportPath, rc.Mesh()); err != nil {
			return err
		}
		log.Printf("wrote %s (%d vertices, %d triangles)",
			*exportPath, rc.Mesh().VertexCount(), rc.Mesh().TriangleCount())
	}

	switch {
	case *outPath != "":
		if err := rc.Frame().SavePNG(*outPath); err != nil {
			return fmt.Errorf("save png: %w", err)
		}
		log.Printf("wrote %s", *outPath)
		return nil
	case *serveAddr != "":
		return serve(*serveAddr, rc.Frame())
	default:
		return present(rc.Frame())
	}
}

func exportMesh(path string, mesh *models.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export mesh: %w", err)
	}
	if err := models.WriteGLB(f, mesh); err != nil {
		f.Close()
		return fmt.Errorf("export mesh: %w", err)
	}
	return f.Close()
}

func serve(addr string, frame *render.FrameStore) error {
	ds := display.NewServer()
	ds.Logf = log.Printf
	if err := ds.Present(frame); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           ds.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Printf("serving on http://%s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// present shows the frame in the terminal until the user quits.
func present(frame *render.FrameStore) error {
	term := uv.DefaultTerminal()
	term.SetLogger(log.Default())

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	draw := func() error {
		term.Draw(frame)
		return term.Display()
	}

	if err := draw(); err != nil {
		cancel()
	}

	go func() {
		for ev := range term.Events() {
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				term.Resize(ev.Width, ev.Height)
				term.Erase()
				if err := draw(); err != nil {
					log.Printf("display: %v", err)
				}
			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("q", "escape", "ctrl+c"):
					cancel()
					return
				}
			}
		}
	}()

	<-ctx.Done()

	term.ShowCursor()
	term.ExitAltScreen()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
	defer shutdownCancel()
	return term.Shutdown(shutdownCtx)
}
