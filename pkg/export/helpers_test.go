package export

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/olimci/albumsync/pkg/iphoto"
	"github.com/olimci/albumsync/pkg/logging"
	"github.com/olimci/albumsync/pkg/metadata"
	"github.com/olimci/albumsync/pkg/utils/fileutils"
	"github.com/stretchr/testify/require"
)

var sourceTime = time.Date(2009, 5, 29, 10, 0, 0, 0, time.UTC)

type fixture struct {
	t    *testing.T
	src  string
	dest string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{t: t, src: t.TempDir(), dest: t.TempDir()}
}

// sourceFile writes a library file with a fixed modification time.
func (f *fixture) sourceFile(name, content string) string {
	f.t.Helper()
	path := filepath.Join(f.src, name)
	require.NoError(f.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(f.t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(f.t, os.Chtimes(path, sourceTime, sourceTime))
	return path
}

func (f *fixture) photo(file, caption string) *iphoto.Item {
	f.t.Helper()
	return &iphoto.Item{
		ID:        filepath.Base(file),
		Caption:   caption,
		MediaType: "Image",
		ImagePath: f.sourceFile(file, "image "+file),
	}
}

func (f *fixture) movie(file, caption string) *iphoto.Item {
	f.t.Helper()
	item := f.photo(file, caption)
	item.MediaType = "Movie"
	return item
}

func container(kind iphoto.Kind, name string, items []*iphoto.Item, children ...*iphoto.Container) *iphoto.Container {
	return &iphoto.Container{ID: name, Name: name, Kind: kind, Items: items, Children: children}
}

func event(name string, items ...*iphoto.Item) *iphoto.Container {
	return container(iphoto.KindEvent, name, items)
}

func album(name string, items ...*iphoto.Item) *iphoto.Container {
	return container(iphoto.KindRegular, name, items)
}

func folder(name string, children ...*iphoto.Container) *iphoto.Container {
	return container(iphoto.KindFolder, name, nil, children...)
}

func mustPattern(t *testing.T, pattern string) Selection {
	t.Helper()
	re, err := CompilePattern(pattern)
	require.NoError(t, err)
	return Selection{Include: re}
}

type runConfig struct {
	opts     Options
	sel      Selection
	tags     TagEditor
	resizer  Resizer
	excludes []string
	removed  *[]string
}

// run performs discover, scan and generate against the fixture destination.
func (f *fixture) run(cfg runConfig, roots ...*iphoto.Container) (*Library, Result) {
	f.t.Helper()
	if len(cfg.sel.Kinds) == 0 {
		cfg.sel.Kinds = []iphoto.Kind{iphoto.KindEvent, iphoto.KindRegular}
	}
	env := NewEnv(cfg.opts, logging.Discard(), cfg.tags, cfg.resizer)
	if cfg.removed != nil {
		env.remove = func(path string) error {
			*cfg.removed = append(*cfg.removed, path)
			return fileutils.RemovePath(path)
		}
	}

	lib := NewLibrary(f.dest, env)
	_, err := lib.Discover(roots, cfg.sel)
	require.NoError(f.t, err)
	require.NoError(f.t, lib.ScanExisting(cfg.excludes))
	require.NoError(f.t, lib.Generate(context.Background()))
	return lib, env.Result()
}

// files lists every regular file below root as slash-separated relative
// paths.
func files(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	sort.Strings(out)
	return out
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func stat(t *testing.T, path string) os.FileInfo {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info
}

// fakeTags keeps embedded metadata in memory.
type fakeTags struct {
	tags   map[string]metadata.Tags
	reads  []string
	writes []string
}

func newFakeTags() *fakeTags {
	return &fakeTags{tags: map[string]metadata.Tags{}}
}

func (f *fakeTags) Read(_ context.Context, path string) (metadata.Tags, error) {
	f.reads = append(f.reads, path)
	return f.tags[path], nil
}

func (f *fakeTags) Write(_ context.Context, path string, u metadata.Update) error {
	f.writes = append(f.writes, path)
	tags := f.tags[path]
	if u.Caption != nil {
		tags.Caption = *u.Caption
	}
	if u.Keywords != nil {
		tags.Keywords = u.Keywords
	}
	if u.Date != nil {
		tags.Date = *u.Date
	}
	if u.Rating != nil {
		tags.Rating = *u.Rating
	}
	if u.GPS != nil {
		tags.GPS = u.GPS
	}
	f.tags[path] = tags
	return nil
}

type fakeResizer struct {
	calls []string
}

func (r *fakeResizer) Resize(_ context.Context, src, dst, size string) error {
	r.calls = append(r.calls, src+" -> "+dst+" @ "+size)
	return os.WriteFile(dst, []byte("small"), 0o644)
}
