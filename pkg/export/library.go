package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/olimci/albumsync/pkg/iphoto"
	"github.com/olimci/albumsync/pkg/naming"
	"github.com/olimci/albumsync/pkg/utils/fileutils"
	"github.com/sirupsen/logrus"
)

var ErrOutOfOrder = errors.New("export stages out of order")

type stage int

const (
	stageEmpty stage = iota
	stageDiscovered
	stageReconciled
	stageGenerated
)

func (s stage) String() string {
	switch s {
	case stageDiscovered:
		return "discovered"
	case stageReconciled:
		return "reconciled"
	case stageGenerated:
		return "generated"
	default:
		return "empty"
	}
}

// untitled names containers that have no name of their own.
const untitled = "Untitled"

// Selection chooses which containers Discover turns into directories.
type Selection struct {
	Kinds   []iphoto.Kind
	Include *regexp.Regexp // nil matches every name
	Exclude *regexp.Regexp // nil excludes nothing
}

// CompilePattern compiles a selection pattern. Patterns match at the start
// of a name.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	return re, nil
}

func (s Selection) wants(k iphoto.Kind) bool {
	for _, want := range s.Kinds {
		if want == k {
			return true
		}
	}
	return false
}

func (s Selection) included(name string) bool {
	return s.Include == nil || s.Include.MatchString(name)
}

// selects decides whether a container is exported. A match inherited from a
// folder cannot be excluded; a container's own match can.
func (s Selection) selects(name string, inherited bool) bool {
	if inherited {
		return true
	}
	if !s.included(name) {
		return false
	}
	return s.Exclude == nil || !s.Exclude.MatchString(name)
}

// Library is the planned export tree below Root.
type Library struct {
	Root string

	env   *Env
	stage stage
	dirs  map[string]*Directory // by relative folder name
	paths map[string]*Directory // by absolute path
}

func NewLibrary(root string, env *Env) *Library {
	return &Library{
		Root:  filepath.Clean(root),
		env:   env,
		dirs:  map[string]*Directory{},
		paths: map[string]*Directory{},
	}
}

// Discover walks containers depth first and plans a Directory for every
// selected container with at least one exported item. It may be called once
// per selection before ScanExisting and returns the number of directories
// planned.
func (l *Library) Discover(containers []*iphoto.Container, sel Selection) (int, error) {
	if l.stage > stageDiscovered {
		return 0, fmt.Errorf("%w: discover after %s", ErrOutOfOrder, l.stage)
	}
	l.stage = stageDiscovered
	return l.discover(containers, sel, "", false), nil
}

func (l *Library) discover(containers []*iphoto.Container, sel Selection, prefix string, matched bool) int {
	count := 0
	for _, c := range containers {
		name := c.Name
		if name == "" {
			l.env.Log.Warnf("found a container with no name: %s", c.ID)
			name = untitled
		}

		switch c.Kind {
		case iphoto.KindFolder:
			folder := prefix + naming.SanitizeFolder(name) + "/"
			count += l.discover(c.Children, sel, folder, matched || sel.included(name))
			continue
		case iphoto.KindEvent, iphoto.KindRegular, iphoto.KindSmart, iphoto.KindPublished:
			if !sel.wants(c.Kind) {
				continue
			}
		case iphoto.KindOther:
			continue
		}

		if !sel.selects(name, matched) {
			continue
		}

		folder := prefix
		if l.env.Options.FolderHints {
			if hint := c.FolderHint(); hint != "" {
				folder += naming.SanitizeFolder(hint) + "/"
			}
		}
		folder += naming.SanitizeFolder(name)

		count += l.discover(c.Children, sel, prefix, matched)

		dirName := naming.UniqueFolder(folder, l.dirs)
		d := newDirectory(dirName, filepath.Join(l.Root, filepath.FromSlash(dirName)), c)
		if d.PlanItems(l.env) == 0 {
			continue
		}
		l.dirs[dirName] = d
		l.paths[d.Path] = d
		count++
	}
	return count
}

// Directories returns the planned directories in name order.
func (l *Library) Directories() []*Directory {
	names := make([]string, 0, len(l.dirs))
	for name := range l.dirs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*Directory, 0, len(names))
	for _, name := range names {
		out = append(out, l.dirs[name])
	}
	return out
}

// Directory returns the directory planned under the relative name.
func (l *Library) Directory(name string) *Directory {
	return l.dirs[name]
}

// holdsAlbums reports whether key is a planned album directory or lies above
// one.
func (l *Library) holdsAlbums(key string) bool {
	if l.paths[key] != nil {
		return true
	}
	prefix := key + string(filepath.Separator)
	for path := range l.paths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// ScanExisting removes everything below Root that no planned directory or
// item accounts for. Folders named in excludeFolders are left alone.
func (l *Library) ScanExisting(excludeFolders []string) error {
	if l.stage != stageDiscovered {
		return fmt.Errorf("%w: scan after %s", ErrOutOfOrder, l.stage)
	}
	env := l.env

	if !exists(l.Root) {
		if env.Options.DryRun {
			l.stage = stageReconciled
			return nil
		}
		if err := os.MkdirAll(l.Root, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", l.Root, err)
		}
	}

	for _, d := range l.Directories() {
		d.relocate(onDisk(l.Root, d.key))
		if l.refuseLinked(d) {
			continue
		}
		if err := d.ScanExisting(env, l.holdsAlbums); err != nil {
			env.Log.WithError(err).WithField("dir", d.Path).Warn("cannot scan album directory")
		}
	}

	excluded := make(map[string]bool, len(excludeFolders))
	for _, name := range excludeFolders {
		if name = strings.TrimSpace(name); name != "" {
			excluded[name] = true
		}
	}
	if excluded[filepath.Base(l.Root)] {
		l.stage = stageReconciled
		return nil
	}

	rootDiff := treeDiff{
		classify: func(e entry) verdict {
			switch {
			case e.Link && l.holdsAlbums(e.Key):
				return keepContent
			case !e.IsDir:
				return obsoleteEntry
			case e.Name == vendorCacheDir:
				env.Log.WithField("path", e.Path).Debug("skipping cache folder")
				return keepEntry
			case l.paths[e.Key] != nil, excluded[e.Name]:
				return keepContent
			default:
				return descendEntry
			}
		},
		obsolete: func(e entry) {
			env.removeObsolete(l.Root, e, obsoleteKind(e, "obsolete file", "obsolete directory"))
		},
		log: env.Log,
	}
	if _, err := rootDiff.run(l.Root, l.Root); err != nil {
		return err
	}

	l.stage = stageReconciled
	return nil
}

// refuseLinked marks d as refused when its path below Root passes through a
// symbolic link, so nothing outside Root is scanned, deleted or written.
func (l *Library) refuseLinked(d *Directory) bool {
	link, err := fileutils.FirstSymlink(l.Root, d.Path)
	switch {
	case err != nil:
		l.env.Log.WithError(err).WithField("dir", d.Path).Warn("cannot check album directory, skipping it")
	case link != "":
		l.env.result.Refused++
		l.env.Log.WithFields(logrus.Fields{"dir": d.Path, "link": link}).Error("refusing to export through a symbolic link")
	default:
		return false
	}
	d.refused = true
	return true
}

// Generate creates Root and generates every directory in name order.
func (l *Library) Generate(ctx context.Context) error {
	if l.stage != stageReconciled {
		return fmt.Errorf("%w: generate after %s", ErrOutOfOrder, l.stage)
	}
	if !l.env.Options.DryRun {
		if err := os.MkdirAll(l.Root, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", l.Root, err)
		}
	}
	for _, d := range l.Directories() {
		if d.refused {
			continue
		}
		if err := d.Generate(ctx, l.env); err != nil {
			return fmt.Errorf("generate %s: %w", d.Path, err)
		}
	}
	l.stage = stageGenerated
	return nil
}

// Counts returns the number of planned directories and items.
func (l *Library) Counts() (dirs, items int) {
	for _, d := range l.dirs {
		items += len(d.items)
	}
	return len(l.dirs), items
}
