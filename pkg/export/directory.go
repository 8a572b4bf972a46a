package export

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/olimci/albumsync/pkg/iphoto"
	"github.com/olimci/albumsync/pkg/naming"
	"github.com/olimci/albumsync/pkg/picasa"
	"github.com/olimci/albumsync/pkg/utils/fileutils"
)

const originalsDir = "Originals"

// Directory is the exported folder of one event or album.
type Directory struct {
	Name      string
	Path      string // as spelled on disk once scanned
	Container *iphoto.Container

	key       string // planned NFC path
	originals string
	items     map[string]*Item
	refused   bool // reached through a symbolic link; neither scanned nor generated
}

func newDirectory(name, path string, c *iphoto.Container) *Directory {
	return &Directory{
		Name:      name,
		Path:      path,
		Container: c,
		key:       path,
		originals: originalsDir,
		items:     make(map[string]*Item, len(c.Items)),
	}
}

// PlanItems plans an Item for every exported child of the container and
// returns how many were planned.
func (d *Directory) PlanItems(env *Env) int {
	opts := env.Options
	d.originals = originalsFolder(d.Path, opts.Picasa)

	for _, src := range d.Container.Items {
		if src.IsMovie() && !opts.Movies {
			continue
		}
		base := naming.FileBase(opts.template(), len(d.items)+1, src.Name())
		if strings.TrimSpace(base) == "" {
			base = naming.SanitizeFilename(strings.TrimSuffix(filepath.Base(src.ImagePath), filepath.Ext(src.ImagePath)))
		}
		base = naming.Unique(base, d.items)
		d.items[base] = PlanItem(src, d.Path, base, d.originals, opts)
	}
	return len(d.items)
}

// originalsFolder picks the originals subfolder. Picasa mode uses its own
// hidden folder unless an Originals folder is already in use.
func originalsFolder(dir string, picasaMode bool) string {
	if !picasaMode {
		return originalsDir
	}
	if exists(filepath.Join(dir, picasa.OriginalsDir)) || !exists(filepath.Join(dir, originalsDir)) {
		return picasa.OriginalsDir
	}
	return originalsDir
}

func exists(path string) bool {
	info, err := fileutils.Stat(path)
	return err == nil && info != nil
}

// relocate adopts path, an existing spelling of the planned directory.
func (d *Directory) relocate(path string) {
	if path == d.Path {
		return
	}
	d.Path = path
	for _, it := range d.items {
		it.relocate(d.key, path)
	}
}

// Items returns the planned items in name order.
func (d *Directory) Items() []*Item {
	names := make([]string, 0, len(d.items))
	for name := range d.items {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*Item, 0, len(names))
	for _, name := range names {
		out = append(out, d.items[name])
	}
	return out
}

// Lookup returns the item planned under name.
func (d *Directory) Lookup(name string) *Item {
	return d.items[name]
}

func (d *Directory) isOriginalsFolder(name string, opts Options) bool {
	return name == originalsDir || (opts.Picasa && name == picasa.OriginalsDir)
}

// ScanExisting removes files in the directory that no planned item accounts
// for. Subdirectories for which nested reports true belong to other albums
// and are kept.
func (d *Directory) ScanExisting(env *Env, nested func(key string) bool) error {
	opts := env.Options
	if !exists(d.Path) {
		if opts.DryRun {
			return nil
		}
		if err := os.MkdirAll(d.Path, 0o755); err != nil {
			return err
		}
	}

	var originals []entry
	albumDiff := treeDiff{
		classify: func(e entry) verdict {
			if e.IsDir {
				if opts.Originals && d.isOriginalsFolder(e.Name, opts) {
					originals = append(originals, e)
					return keepEntry
				}
				if nested != nil && nested(e.Key) {
					return keepEntry
				}
				return obsoleteEntry
			}
			if item := d.items[baseName(e.Name)]; item != nil && item.IsMember(e.Key) {
				item.Path = e.Path
				return keepEntry
			}
			return obsoleteEntry
		},
		obsolete: func(e entry) {
			env.removeObsolete(d.Path, e, obsoleteKind(e, "obsolete exported file", "obsolete export directory"))
		},
		log: env.Log,
	}
	if _, err := albumDiff.run(d.Path, d.key); err != nil {
		return err
	}

	originalsDiff := treeDiff{
		classify: func(e entry) verdict {
			if e.IsDir {
				return obsoleteEntry
			}
			if item := d.items[baseName(e.Name)]; item != nil && item.HasOriginal() {
				if item.originalKey == e.Key {
					item.OriginalPath = e.Path
				}
				return keepEntry
			}
			return obsoleteEntry
		},
		obsolete: func(e entry) {
			env.removeObsolete(d.Path, e, obsoleteKind(e, "obsolete original", "obsolete originals directory"))
		},
		log: env.Log,
	}
	for _, o := range originals {
		if _, err := originalsDiff.run(o.Path, o.Key); err != nil {
			return err
		}
	}
	return nil
}

func baseName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Generate creates the directory and syncs every item in name order.
func (d *Directory) Generate(ctx context.Context, env *Env) error {
	if !env.Options.DryRun {
		if err := os.MkdirAll(d.Path, 0o755); err != nil {
			return err
		}
	}
	for _, it := range d.Items() {
		if err := ctx.Err(); err != nil {
			return err
		}
		it.Sync(ctx, env)
	}
	if env.Options.Picasa {
		d.checkPicasa(env)
	}
	return nil
}

// checkPicasa reports a Picasa folder description that differs from the
// album comment.
func (d *Directory) checkPicasa(env *Env) {
	folder, err := picasa.ReadFolder(d.Path)
	if err != nil {
		env.Log.WithError(err).WithField("dir", d.Path).Warn("cannot read picasa folder data")
		return
	}
	want := strings.TrimSpace(d.Container.Comment())
	if strings.TrimSpace(folder.Description) == want {
		return
	}
	env.Log.WithField("dir", d.Path).Warnf("folder descriptions differ: picasa %q, iphoto %q", folder.Description, want)
}
