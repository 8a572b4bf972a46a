// Package check validates external tools before an export starts (Deps) and
// reports their availability for the check command (Run).
package check

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/olimci/albumsync/pkg/export"
	"github.com/olimci/albumsync/pkg/imaging"
	"github.com/olimci/albumsync/pkg/metadata"
)

// Status of one external tool.
type Status struct {
	Name     string
	Path     string // resolved executable, empty when not found
	Version  string
	Required bool // needed by the configured options
	Err      error
}

func (s Status) OK() bool {
	return s.Err == nil
}

// Deps verifies the tools a run with opts needs: exiftool whenever metadata
// is synced and convert whenever images are resized. It returns the first
// failure, wrapping the tool's sentinel error.
func Deps(ctx context.Context, opts export.Options, exif *metadata.ExifTool, conv *imaging.Converter) error {
	if opts.Metadata != export.MetadataOff && opts.Metadata != "" {
		if err := exif.Check(ctx); err != nil {
			return fmt.Errorf("metadata mode %q: %w", opts.Metadata, err)
		}
	}
	if opts.Size != "" {
		if err := conv.Check(ctx); err != nil {
			return fmt.Errorf("resizing to %s: %w", opts.Size, err)
		}
	}
	return nil
}

// Run reports on every external tool. It never fails; problems are carried
// in each Status.
func Run(ctx context.Context, opts export.Options, exif *metadata.ExifTool, conv *imaging.Converter) []Status {
	exifStatus := Status{
		Name:     "exiftool",
		Path:     lookPath(exif.Path),
		Required: opts.Metadata != export.MetadataOff && opts.Metadata != "",
		Err:      exif.Check(ctx),
	}
	if exifStatus.Err == nil {
		if v, err := exif.Version(ctx); err == nil {
			exifStatus.Version = fmt.Sprintf("%.2f", v)
		}
	}

	convStatus := Status{
		Name:     "convert",
		Path:     lookPath(conv.Path),
		Required: opts.Size != "",
		Err:      conv.Check(ctx),
	}

	return []Status{exifStatus, convStatus}
}

func lookPath(name string) string {
	path, err := exec.LookPath(name)
	if err != nil {
		return ""
	}
	return path
}
