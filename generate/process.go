package generate

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"spritegen/config"
	"spritegen/css"
	"spritegen/preview"
	"spritegen/source"
	"spritegen/sprite"
	"spritegen/state"
	"spritegen/utils/images"
)

const (
	defaultSheetName      = "SpriteImage.png"
	defaultStylesheetName = "style.css"
	defaultPreviewName    = "preview.html"
)

// Result describes produced artifacts.
type Result struct {
	Images     int
	Width      int
	Height     int
	Sheet      string
	Stylesheet string
	Preview    string // empty when preview is disabled
	Elapsed    time.Duration
}

type options struct {
	alloc sprite.Allocator
}

type Option func(*options)

// WithAllocator sets allocator for all pixel buffers used during processing.
func WithAllocator(alloc sprite.Allocator) Option {
	return func(o *options) {
		o.alloc = alloc
	}
}

// Process produces sprite sheet, stylesheet and optional preview page in dst
// from images found at src. Nothing in dst is created or changed unless all
// steps succeed, previous artifacts are overwritten.
func Process(ctx context.Context, src, dst string, env *state.LocalEnv, log *zap.Logger, opts ...Option) (*Result, error) {
	start := time.Now()

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.alloc == nil {
		o.alloc = sprite.NewPool()
	}
	if log == nil {
		log = zap.NewNop()
	}
	cfg := &env.Cfg.Sprite

	// prepare everything coming from configuration first
	sheetName := config.OutputFileName(cfg.ImageName, defaultSheetName)
	styleName := config.OutputFileName(cfg.Stylesheet.Name, defaultStylesheetName)
	previewName := ""
	if cfg.Preview.Enable {
		previewName = config.OutputFileName(cfg.Preview.Name, defaultPreviewName)
	}
	level, err := images.PNGCompression(cfg.PNGCompression)
	if err != nil {
		return nil, &sprite.ConfigurationError{Path: "png_compression", Reason: "bad sheet compression", Err: err}
	}
	gen, err := css.NewGenerator(&cfg.Stylesheet, log)
	if err != nil {
		return nil, &sprite.ConfigurationError{Path: string(config.RuleTemplateFieldName), Reason: "bad rule template", Err: err}
	}

	if fi, err := os.Stat(dst); err == nil && !fi.IsDir() {
		return nil, &sprite.ConfigurationError{Path: dst, Reason: "destination is not a directory"}
	}

	// destination may be inside source, never pick up our own artifacts
	exclude := []string{filepath.Join(dst, sheetName), filepath.Join(dst, styleName)}
	if len(previewName) > 0 {
		exclude = append(exclude, filepath.Join(dst, previewName))
	}
	srcs, err := source.Enumerate(ctx, src, source.Options{
		Extensions: cfg.Extensions,
		Order:      cfg.Order,
		CodePage:   env.CodePage,
		Exclude:    exclude,
	}, log)
	if err != nil {
		return nil, err
	}

	loader := sprite.NewLoader(
		sprite.WithAllocator(o.alloc),
		sprite.WithAutoOrientation(cfg.AutoOrientation),
		sprite.WithSVGSize(cfg.SVG.Width, cfg.SVG.Height),
		sprite.WithLogger(log),
	)
	imgs, err := loader.Load(ctx, srcs)
	if err != nil {
		return nil, err
	}
	defer imgs.Release()

	sheet, placements, err := sprite.Pack(imgs, o.alloc)
	if err != nil {
		return nil, err
	}
	defer sheet.Release()
	// inputs are not needed anymore
	imgs.Release()

	log.Debug("Sprite sheet packed", zap.Int("images", len(placements)), zap.Int("width", sheet.Width), zap.Int("height", sheet.Height))

	style, err := gen.Generate(placements, sheetName)
	if err != nil {
		return nil, err
	}

	var img bytes.Buffer
	if err := images.EncodePNG(&img, sheet.Pixels, level); err != nil {
		return nil, &sprite.EncodeError{Path: filepath.Join(dst, sheetName), Err: err}
	}
	res := &Result{Images: len(placements), Width: sheet.Width, Height: sheet.Height}
	sheet.Release()

	// Generate succeeded, so rules are known to be valid
	rules, err := gen.Rules(placements, sheetName)
	if err != nil {
		return nil, err
	}

	arts := []artifact{{name: sheetName, data: img.Bytes()}, {name: styleName, data: style}}
	if len(previewName) > 0 {
		page, err := preview.Build(cfg.Preview.Title, styleName, rules)
		if err != nil {
			return nil, &sprite.EncodeError{Path: filepath.Join(dst, previewName), Err: err}
		}
		arts = append(arts, artifact{name: previewName, data: page})
	}

	// destination is created only when there is something to put there
	if err := os.MkdirAll(dst, 0755); err != nil {
		return nil, &sprite.ConfigurationError{Path: dst, Reason: "unable to create destination directory", Err: err}
	}
	if err := writeArtifacts(ctx, dst, arts, log); err != nil {
		return nil, err
	}

	res.Sheet = filepath.Join(dst, sheetName)
	res.Stylesheet = filepath.Join(dst, styleName)
	if len(previewName) > 0 {
		res.Preview = filepath.Join(dst, previewName)
	}
	res.Elapsed = time.Since(start)

	if env.Rpt != nil {
		for _, a := range arts {
			env.Rpt.Store("output/"+a.name, filepath.Join(dst, a.name))
		}
		env.Rpt.StoreData("layout.txt", []byte(layoutDump(src, res, rules)))
	}

	log.Info("Sprite sheet generated",
		zap.Int("images", res.Images),
		zap.String("size", fmt.Sprintf("%dx%d", res.Width, res.Height)),
		zap.String("sheet", res.Sheet),
		zap.String("stylesheet", res.Stylesheet),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}
