// Package archive compresses finished mirror logs and optionally ships them
// to object storage.
package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"

	appErrors "robobackup/internal/errors"
	osfs "robobackup/internal/infra/fs"
	"robobackup/internal/logging"
)

type Format string

const (
	FormatNone Format = "none"
	FormatGzip Format = "gzip"
	FormatZstd Format = "zstd"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatNone:
		return FormatNone, nil
	case FormatGzip, FormatZstd:
		return f, nil
	default:
		return "", fmt.Errorf("unknown archive format %q (want none, gzip or zstd)", s)
	}
}

func (f Format) Extension() string {
	switch f {
	case FormatGzip:
		return ".gz"
	case FormatZstd:
		return ".zst"
	default:
		return ""
	}
}

// Uploader stores one object. S3Uploader is the production implementation.
type Uploader interface {
	Upload(ctx context.Context, key string, body io.ReadSeeker) (string, error)
}

// Archiver implements app.LogArchiver. With FormatNone and no Uploader it
// does nothing.
type Archiver struct {
	Format Format
	// Dir receives compressed logs. Empty means next to the log itself.
	Dir      string
	Uploader Uploader
	Prefix   string
	Logger   logging.Logger
}

func (a *Archiver) Archive(ctx context.Context, logPath string) (string, error) {
	if (a.Format == "" || a.Format == FormatNone) && a.Uploader == nil {
		return "", nil
	}

	var fsys osfs.OSFS
	if ok, err := fsys.Exists(logPath); err != nil {
		return "", appErrors.Wrap(appErrors.IOFailure, "archive", logPath, err)
	} else if !ok {
		return "", appErrors.Wrap(appErrors.NotFound, "archive", logPath, fmt.Errorf("log %s was not written", filepath.Base(logPath)))
	}

	stop := a.Logger.Measure("Archiving " + filepath.Base(logPath))
	defer stop()

	artifact := logPath
	if a.Format != "" && a.Format != FormatNone {
		compressed, err := a.compress(logPath)
		if err != nil {
			return "", err
		}
		artifact = compressed
	}
	if a.Uploader == nil {
		return artifact, nil
	}

	f, err := os.Open(artifact)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", artifact, err)
	}
	defer f.Close()

	key := path.Join(a.Prefix, filepath.Base(artifact))
	location, err := a.Uploader.Upload(ctx, key, f)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	a.Logger.Verbosef("Uploaded %s to %s", artifact, location)
	return location, nil
}

func (a *Archiver) compress(logPath string) (string, error) {
	src, err := os.Open(logPath)
	if err != nil {
		return "", fmt.Errorf("open log: %w", err)
	}
	defer src.Close()

	dir := a.Dir
	if dir == "" {
		dir = filepath.Dir(logPath)
	}
	if err := (osfs.OSFS{}).MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}
	target := filepath.Join(dir, filepath.Base(logPath)+a.Format.Extension())

	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}

	if err := encode(a.Format, dst, src); err != nil {
		dst.Close()
		os.Remove(target)
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("close archive: %w", err)
	}
	return target, nil
}

func encode(format Format, dst io.Writer, src io.Reader) error {
	var w io.WriteCloser
	switch format {
	case FormatGzip:
		w = pgzip.NewWriter(dst)
	case FormatZstd:
		enc, err := zstd.NewWriter(dst)
		if err != nil {
			return fmt.Errorf("zstd writer: %w", err)
		}
		w = enc
	default:
		return fmt.Errorf("unsupported archive format %q", format)
	}

	if _, err := io.Copy(w, src); err != nil {
		w.Close()
		return fmt.Errorf("compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("compress: %w", err)
	}
	return nil
}
