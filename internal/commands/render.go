package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"wallcal/internal/capture"
	"wallcal/internal/convert"
	appLog "wallcal/internal/log"
	"wallcal/internal/render"
	"wallcal/internal/source"
	"wallcal/internal/view"
	"wallcal/internal/web"
)

const (
	engineNative   = "native"
	engineChromium = "chromium"
)

type renderOptions struct {
	view   string
	out    string
	dump   bool
	engine string
}

func addRender(topLevel *cobra.Command, ro *rootOptions) {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one view to preview.png and, with --dump, packed panel planes plus panel.png.",
		Example: `
wallcal render --view weekly
wallcal render --view sliding --dump --out /tmp/wallcal
wallcal render --engine chromium
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := view.Parse(opts.view)
			if err != nil {
				return err
			}
			if opts.engine != engineNative && opts.engine != engineChromium {
				return fmt.Errorf("unknown engine %q", opts.engine)
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			e, err := ro.load(ctx)
			if err != nil {
				return err
			}
			dir := opts.out
			if dir == "" {
				dir = e.cfg.OutputDir
			}

			snap, err := e.store.Refresh(ctx)
			if err != nil {
				return err
			}
			if opts.engine == engineChromium {
				img, err := capturePage(ctx, e, name)
				if err != nil {
					return err
				}
				return writeImage(e, img, dir, opts.dump)
			}
			return writeOutputs(e, snap, name, dir, opts.dump)
		},
	}
	cmd.Flags().StringVar(&opts.view, "view", "", "View to render: weekly, sliding or upcoming")
	cmd.Flags().StringVar(&opts.out, "out", "", "Output directory (defaults to output_dir)")
	cmd.Flags().BoolVar(&opts.dump, "dump", false, "Also write black.bin, red.bin and panel.png")
	cmd.Flags().StringVar(&opts.engine, "engine", engineNative, "Renderer: native or chromium")

	topLevel.AddCommand(cmd)
}

// writeOutputs draws name from snap and writes it to dir.
func writeOutputs(e *env, snap source.Snapshot, name view.Name, dir string, planes bool) error {
	img, err := e.engine.Image(snap, name)
	if err != nil {
		return err
	}
	return writeImage(e, img, dir, planes)
}

func writeImage(e *env, img image.Image, dir string, planes bool) error {
	path := filepath.Join(dir, "preview.png")
	if err := render.SavePNG(path, img); err != nil {
		return err
	}
	appLog.Info("preview written", "path", path, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	if !planes {
		return nil
	}

	panel := convert.Panel{Width: e.cfg.Canvas.Width, Height: e.cfg.Canvas.Height}
	black, red, err := convert.Pack(convert.Fit(img, panel), panel)
	if err != nil {
		return err
	}
	if err := convert.WritePlanes(dir, black, red); err != nil {
		return err
	}
	// panel.png is what the planes will look like on the display.
	shown, err := convert.Unpack(black, red, panel)
	if err != nil {
		return err
	}
	if err := render.SavePNG(filepath.Join(dir, "panel.png"), shown); err != nil {
		return err
	}
	appLog.Info("planes written", "dir", dir, "bytes", len(black))
	return nil
}

// capturePage serves the calendar page on a loopback port for the length of
// one headless Chromium screenshot.
func capturePage(ctx context.Context, e *env, name view.Name) (image.Image, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("commands: listen: %w", err)
	}
	srv := &http.Server{
		Handler:           web.NewServer(e.cfg, e.store, e.engine).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("capture server failed", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	target := url.URL{
		Scheme:   "http",
		Host:     ln.Addr().String(),
		Path:     "/calendar",
		RawQuery: url.Values{"view": {string(name)}}.Encode(),
	}
	opts := capture.Options{
		URL:    target.String(),
		Width:  e.cfg.Canvas.Width,
		Height: e.cfg.Canvas.Height,
	}
	if auth := e.cfg.BasicAuth; auth != nil {
		opts.Username, opts.Password = auth.Username, auth.Password
	}

	data, err := capture.Page(ctx, opts)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("commands: decode screenshot: %w", err)
	}
	return img, nil
}
