// Package export mirrors iPhoto events and albums into a directory tree and
// keeps that tree in sync over repeated runs.
package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/olimci/albumsync/pkg/imaging"
	"github.com/olimci/albumsync/pkg/logging"
	"github.com/olimci/albumsync/pkg/metadata"
	"github.com/olimci/albumsync/pkg/naming"
	"github.com/olimci/albumsync/pkg/utils/fileutils"
	"github.com/sirupsen/logrus"
)

var ErrConflictingOptions = errors.New("conflicting options")

// MetadataMode controls when embedded metadata is compared and rewritten.
type MetadataMode string

const (
	MetadataOff     MetadataMode = "off"
	MetadataChanged MetadataMode = "changed" // only files that were just exported
	MetadataAll     MetadataMode = "all"
)

func ParseMetadataMode(s string) (MetadataMode, error) {
	switch m := MetadataMode(s); m {
	case MetadataOff, MetadataChanged, MetadataAll:
		return m, nil
	case "":
		return MetadataOff, nil
	default:
		return "", fmt.Errorf("unknown metadata mode %q (expected off, changed or all)", s)
	}
}

type Options struct {
	Originals    bool
	Movies       bool
	Link         bool
	Delete       bool
	Update       bool
	DryRun       bool
	Metadata     MetadataMode
	Size         string
	NameTemplate string
	FolderHints  bool
	Picasa       bool
}

func (o Options) Validate() error {
	if o.Size != "" {
		if o.Link {
			return fmt.Errorf("%w: cannot resize and hard link at the same time", ErrConflictingOptions)
		}
		if err := imaging.ValidateSize(o.Size); err != nil {
			return err
		}
	}
	if _, err := ParseMetadataMode(string(o.Metadata)); err != nil {
		return err
	}
	return nil
}

func (o Options) template() string {
	if o.NameTemplate == "" {
		return naming.DefaultTemplate
	}
	return o.NameTemplate
}

// TagEditor reads and rewrites embedded metadata.
type TagEditor interface {
	Read(ctx context.Context, path string) (metadata.Tags, error)
	Write(ctx context.Context, path string, u metadata.Update) error
}

// Resizer writes a shrunk JPEG copy of an image.
type Resizer interface {
	Resize(ctx context.Context, src, dst, size string) error
}

// Env carries the options and collaborators of one run and collects its
// result.
type Env struct {
	Options Options
	Log     logrus.FieldLogger
	Tags    TagEditor
	Resizer Resizer

	result *recorder
	remove func(string) error
}

func NewEnv(opts Options, log logrus.FieldLogger, tags TagEditor, resizer Resizer) *Env {
	if log == nil {
		log = logging.Discard()
	}
	if opts.Metadata == "" {
		opts.Metadata = MetadataOff
	}
	return &Env{
		Options: opts,
		Log:     log,
		Tags:    tags,
		Resizer: resizer,
		result:  newRecorder(),
		remove:  fileutils.RemovePath,
	}
}

// Result returns a snapshot of what the run has done so far.
func (e *Env) Result() Result {
	return e.result.snapshot()
}

func (e *Env) fail(path string, err error) {
	e.result.Failed++
	e.Log.WithField("path", path).WithError(err).Warn("export failed")
}
