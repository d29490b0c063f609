package generate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"spritegen/sprite"
)

type artifact struct {
	name string
	data []byte
}

type staged struct {
	tmp    string
	target string
}

// writeArtifacts puts all artifacts into dir. Everything is written to
// temporary files in dir first and only then renamed over targets, so failure
// to write any of them leaves dir untouched.
func writeArtifacts(ctx context.Context, dir string, arts []artifact, log *zap.Logger) (err error) {
	var files []staged
	defer func() {
		if err == nil {
			return
		}
		for _, f := range files {
			if e := os.Remove(f.tmp); e != nil && !os.IsNotExist(e) {
				err = multierr.Append(err, fmt.Errorf("unable to remove temporary file: %w", e))
			}
		}
	}()

	for _, a := range arts {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := filepath.Join(dir, a.name)
		if fi, err := os.Lstat(target); err == nil && !fi.Mode().IsRegular() {
			return &sprite.EncodeError{Path: target, Err: fmt.Errorf("destination exists and is not a regular file")}
		}

		tmp, err := writeTemp(dir, a)
		if len(tmp) > 0 {
			files = append(files, staged{tmp: tmp, target: target})
		}
		if err != nil {
			return &sprite.EncodeError{Path: target, Err: err}
		}
	}

	for i, f := range files {
		if err := os.Rename(f.tmp, f.target); err != nil {
			// already renamed files are in place, do not try to remove them
			files = files[i:]
			return &sprite.EncodeError{Path: f.target, Err: err}
		}
		log.Debug("Artifact written", zap.String("file", f.target))
	}
	return nil
}

func writeTemp(dir string, a artifact) (name string, err error) {
	f, err := os.CreateTemp(dir, "."+a.name+".*.tmp")
	if err != nil {
		return "", err
	}
	name = f.Name()
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	if _, err := f.Write(a.data); err != nil {
		return name, err
	}
	if err := f.Chmod(0644); err != nil {
		return name, err
	}
	return name, f.Sync()
}
