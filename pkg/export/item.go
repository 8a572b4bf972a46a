package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/olimci/albumsync/pkg/iphoto"
	"github.com/olimci/albumsync/pkg/metadata"
	"github.com/olimci/albumsync/pkg/utils/fileutils"
	"github.com/sirupsen/logrus"
)

// maxSizeDiff is how far an exported copy may drift in size from its source
// before it is exported again. Rewriting embedded metadata changes the size
// by a few kilobytes.
const maxSizeDiff = 35000

type placement string

const (
	placeCopy   placement = "copy"
	placeLink   placement = "link"
	placeResize placement = "resize"
)

// Item maps one source item onto its exported file and, optionally, a copy
// of its unedited original.
type Item struct {
	Name         string
	Source       *iphoto.Item
	Path         string
	OriginalPath string

	// NFC forms of the planned paths. Path and OriginalPath follow the
	// spelling found on disk.
	key         string
	originalKey string
}

// PlanItem computes the destination paths of src inside dir without touching
// the disk.
func PlanItem(src *iphoto.Item, dir, base, originalsDir string, opts Options) *Item {
	ext := extension(src.ImagePath)
	if resizes(src, opts) {
		ext = "jpg"
	}
	it := &Item{
		Name:   base,
		Source: src,
		Path:   filepath.Join(dir, withExt(base, ext)),
	}
	if opts.Originals && src.OriginalPath != "" {
		it.OriginalPath = filepath.Join(dir, originalsDir, withExt(base, extension(src.OriginalPath)))
	}
	it.key, it.originalKey = it.Path, it.OriginalPath
	return it
}

func extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

func withExt(base, ext string) string {
	if ext == "" {
		return base
	}
	return base + "." + ext
}

func resizes(src *iphoto.Item, opts Options) bool {
	return opts.Size != "" && !src.IsMovie()
}

// IsMember reports whether path is the exported file of this item.
func (it *Item) IsMember(path string) bool {
	return path == it.key
}

// relocate moves the item's paths from below the planned directory key to
// the same names below dir.
func (it *Item) relocate(key, dir string) {
	it.Path = rebase(it.key, key, dir)
	if it.HasOriginal() {
		it.OriginalPath = rebase(it.originalKey, key, dir)
	}
}

func rebase(path, from, to string) string {
	rel, err := filepath.Rel(from, path)
	if err != nil {
		return path
	}
	return filepath.Join(to, rel)
}

// HasOriginal reports whether an original is exported next to the item.
func (it *Item) HasOriginal() bool {
	return it.OriginalPath != ""
}

func (it *Item) mode(opts Options) placement {
	switch {
	case resizes(it.Source, opts):
		return placeResize
	case opts.Link:
		return placeLink
	default:
		return placeCopy
	}
}

// Sync brings the exported files of the item up to date. Failures are logged
// and counted; they never stop the run.
func (it *Item) Sync(ctx context.Context, env *Env) {
	opts := env.Options
	src := it.Source

	exportPrimary, err := stale(it.Path, src.ImagePath, !resizes(src, opts))
	if err != nil {
		env.fail(it.Path, err)
		return
	}

	exportOriginal := false
	if it.HasOriginal() {
		exportOriginal, err = stale(it.OriginalPath, src.OriginalPath, false)
		if err != nil {
			env.fail(it.OriginalPath, err)
			exportOriginal = false
		}
	}

	checkTags := opts.Metadata == MetadataAll || (opts.Metadata == MetadataChanged && exportPrimary)

	// A hard link shares content with its source, so tags are fixed there.
	if checkTags && opts.Link {
		updated, err := env.syncTags(ctx, src.ImagePath, src)
		if err != nil {
			env.fail(src.ImagePath, err)
		} else if updated {
			exportPrimary = true
		}
	}

	placed := true
	if exportPrimary {
		if err := env.place(ctx, src.ImagePath, it.Path, it.mode(opts)); err != nil {
			env.fail(it.Path, err)
			placed = false
		}
	}

	if placed && checkTags && !opts.Link {
		if _, err := env.syncTags(ctx, it.Path, src); err != nil {
			env.fail(it.Path, err)
		}
	}

	if !exportOriginal {
		return
	}
	// The originals folder is created by the first copy or link into it.
	originalMode := placeCopy
	if opts.Link {
		originalMode = placeLink
	}
	tagOriginal := opts.Metadata != MetadataOff
	if tagOriginal && opts.Link {
		if _, err := env.syncTags(ctx, src.OriginalPath, src); err != nil {
			env.fail(src.OriginalPath, err)
		}
	}
	if err := env.place(ctx, src.OriginalPath, it.OriginalPath, originalMode); err != nil {
		env.fail(it.OriginalPath, err)
		return
	}
	if tagOriginal && !opts.Link {
		if _, err := env.syncTags(ctx, it.OriginalPath, src); err != nil {
			env.fail(it.OriginalPath, err)
		}
	}
}

// stale reports whether dest is missing, older than src, or (with checkSize)
// differs from src in size by more than maxSizeDiff.
func stale(dest, src string, checkSize bool) (bool, error) {
	destInfo, err := fileutils.Stat(dest)
	if err != nil {
		return false, err
	}
	if destInfo == nil {
		return true, nil
	}
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, fmt.Errorf("stat source %s: %w", src, err)
	}
	if destInfo.ModTime().Before(srcInfo.ModTime()) {
		return true, nil
	}
	if checkSize {
		diff := destInfo.Size() - srcInfo.Size()
		if diff > maxSizeDiff || diff < -maxSizeDiff {
			return true, nil
		}
	}
	return false, nil
}

// place writes src to dst by copying, linking or resizing. Existing files are
// only replaced with --update.
func (e *Env) place(ctx context.Context, src, dst string, mode placement) error {
	log := e.Log.WithFields(logrus.Fields{"path": dst, "mode": mode})

	existing, err := fileutils.Stat(dst)
	if err != nil {
		return err
	}
	if existing != nil {
		if !e.Options.Update {
			e.result.Stale++
			log.Info("needs update (use --update to refresh it)")
			return nil
		}
		if e.Options.DryRun {
			e.result.Updated++
			log.Info("would update file")
			return nil
		}
		// Copies and resizes overwrite dst; a hard link needs the name free.
		if mode == placeLink {
			if err := os.Remove(dst); err != nil {
				return fmt.Errorf("remove outdated %s: %w", dst, err)
			}
		}
	} else if e.Options.DryRun {
		e.result.Exported++
		log.Info("would export new file")
		return nil
	}

	switch mode {
	case placeLink:
		err = fileutils.LinkFile(src, dst)
	case placeResize:
		if e.Resizer == nil {
			return errors.New("resizing requested but no converter configured")
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("create parent directory for %s: %w", dst, err)
		}
		err = e.Resizer.Resize(ctx, src, dst, e.Options.Size)
	default:
		err = fileutils.CopyFile(src, dst)
	}
	if err != nil {
		return err
	}

	e.result.changed.Add(dst)
	if existing != nil {
		e.result.Updated++
		log.Info("updated file")
	} else {
		e.result.Exported++
		log.Info("new file")
	}
	return nil
}

// syncTags rewrites the embedded metadata of path where it differs from
// item. It reports whether anything needed updating.
func (e *Env) syncTags(ctx context.Context, path string, item *iphoto.Item) (bool, error) {
	if e.Tags == nil || !metadata.Editable(path) {
		return false, nil
	}
	if e.Options.DryRun {
		if info, err := fileutils.Stat(path); err != nil || info == nil {
			return false, err
		}
	}

	have, err := e.Tags.Read(ctx, path)
	if err != nil {
		return false, fmt.Errorf("read metadata of %s: %w", path, err)
	}
	u := metadata.Diff(item.Tags(), have)
	if u.Empty() {
		return false, nil
	}

	log := e.Log.WithFields(logrus.Fields{"path": path, "fields": strings.Join(u.Fields(), ",")})
	if e.Options.DryRun {
		e.result.MetadataUpdated++
		log.Info("would update metadata")
		return true, nil
	}
	if err := e.Tags.Write(ctx, path, u); err != nil {
		return false, fmt.Errorf("write metadata of %s: %w", path, err)
	}
	e.result.MetadataUpdated++
	e.result.changed.Add(path)
	log.Info("updated metadata")
	return true, nil
}
