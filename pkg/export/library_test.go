package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/olimci/albumsync/pkg/iphoto"
	"github.com/olimci/albumsync/pkg/utils/fileutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

func TestExportFolderEventSkipsMoviesAndPrunes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	trips := folder("Trips", event("Paris",
		f.photo("IMG001.JPG", "Eiffel"),
		f.movie("IMG002.MOV", "Eiffel"),
	))
	sel := mustPattern(t, "Paris")
	sel.Kinds = []iphoto.Kind{iphoto.KindEvent}

	_, first := f.run(runConfig{sel: sel}, trips)
	assert.Equal(t, []string{"Trips/Paris/Eiffel.jpg"}, files(t, f.dest))
	assert.Equal(t, 1, first.Exported)

	exported := filepath.Join(f.dest, "Trips", "Paris", "Eiffel.jpg")
	before := stat(t, exported)
	writeFile(t, filepath.Join(f.dest, "Trips", "Paris", "old.txt"), "stray")

	_, second := f.run(runConfig{sel: sel, opts: Options{Delete: true}}, trips)
	assert.Equal(t, []string{"Trips/Paris/Eiffel.jpg"}, files(t, f.dest))
	assert.Equal(t, 1, second.Deleted)
	assert.Equal(t, 0, second.Exported+second.Updated)

	after := stat(t, exported)
	assert.True(t, before.ModTime().Equal(after.ModTime()))
	assert.Equal(t, before.Size(), after.Size())
}

func TestExportIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	roots := []*iphoto.Container{
		event("Paris", f.photo("a.jpg", "Eiffel"), f.photo("b.jpg", "Louvre")),
		album("Best of", f.photo("c.png", "")),
	}
	opts := Options{Delete: true, Update: true}

	_, first := f.run(runConfig{opts: opts}, roots...)
	assert.Equal(t, 3, first.Exported)
	assert.Len(t, first.ChangedPaths, 3)

	_, second := f.run(runConfig{opts: opts}, roots...)
	assert.Zero(t, second.Operations())
	assert.Empty(t, second.ChangedPaths)
	assert.Equal(t, []string{"Best of/c.png", "Paris/Eiffel.jpg", "Paris/Louvre.jpg"}, files(t, f.dest))
}

func TestDuplicateCaptionsGetSuffixes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	first := f.photo("1.jpg", "Eiffel")
	paris := event("Paris", first, f.photo("2.jpg", "Eiffel"), f.photo("3.jpg", "Eiffel"))

	lib, _ := f.run(runConfig{}, paris)
	assert.Equal(t, []string{"Paris/Eiffel.jpg", "Paris/Eiffel_1.jpg", "Paris/Eiffel_2.jpg"}, files(t, f.dest))

	dir := lib.Directory("Paris")
	require.NotNil(t, dir)
	assert.Same(t, first, dir.Lookup("Eiffel").Source)
}

func TestDuplicateAlbumNamesGetFolderSuffixes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	inner := album("Paris", f.photo("inner.jpg", "Inner"))
	outer := container(iphoto.KindRegular, "Paris", []*iphoto.Item{f.photo("outer.jpg", "Outer")}, inner)
	other := event("Paris", f.photo("event.jpg", "Event"))

	lib, _ := f.run(runConfig{}, outer, other)

	// Sub-albums are placed before their parent.
	require.NotNil(t, lib.Directory("Paris"))
	assert.Same(t, inner, lib.Directory("Paris").Container)
	assert.Same(t, outer, lib.Directory("Paris_(1)").Container)
	assert.Same(t, other, lib.Directory("Paris_(2)").Container)
	assert.Equal(t, []string{"Paris/Inner.jpg", "Paris_(1)/Outer.jpg", "Paris_(2)/Event.jpg"}, files(t, f.dest))
}

func TestObsoleteFilesAreReportedWithoutDelete(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	paris := event("Paris", f.photo("a.jpg", "Eiffel"))
	stray := filepath.Join(f.dest, "Paris", "stray.jpg")
	writeFile(t, stray, "old export")
	writeFile(t, filepath.Join(f.dest, "Gone", "x.jpg"), "old album")

	// The stray album reports its file and then the folder itself.
	_, res := f.run(runConfig{}, paris)
	assert.Equal(t, 3, res.Obsolete)
	assert.Zero(t, res.Deleted)
	assert.FileExists(t, stray)
	assert.FileExists(t, filepath.Join(f.dest, "Gone", "x.jpg"))
}

func TestScanRemovesObsoleteTree(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	paris := folder("Trips", event("Paris", f.photo("a.jpg", "Eiffel")))

	writeFile(t, filepath.Join(f.dest, "notes.txt"), "root file")
	writeFile(t, filepath.Join(f.dest, "Old", "Album", "x.jpg"), "old")
	require.NoError(t, os.MkdirAll(filepath.Join(f.dest, "Empty", "Nested"), 0o755))
	writeFile(t, filepath.Join(f.dest, "Keep", "mine.jpg"), "excluded")
	writeFile(t, filepath.Join(f.dest, "iPod Photo Cache", "F00", "T1.ithmb"), "cache")
	writeFile(t, filepath.Join(f.dest, "Thumbs.db"), "windows")
	writeFile(t, filepath.Join(f.dest, ".DS_Store"), "finder")
	writeFile(t, filepath.Join(f.dest, "Trips", "stale.jpg"), "old folder file")

	var removed []string
	_, res := f.run(runConfig{opts: Options{Delete: true}, excludes: []string{"Keep"}, removed: &removed}, paris)

	assert.Equal(t, []string{
		".DS_Store",
		"Keep/mine.jpg",
		"Thumbs.db",
		"Trips/Paris/Eiffel.jpg",
		"iPod Photo Cache/F00/T1.ithmb",
	}, files(t, f.dest))
	assert.NoDirExists(t, filepath.Join(f.dest, "Empty"))
	assert.NoDirExists(t, filepath.Join(f.dest, "Old"))
	assert.Equal(t, res.Deleted, len(removed))
	for _, path := range removed {
		assert.True(t, fileutils.IsDescendant(f.dest, path), "deleted %s outside %s", path, f.dest)
	}
}

func TestScanKeepsFoldersHoldingNestedAlbums(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	inner := album("Day 1", f.photo("inner.jpg", "Inner"))
	outer := container(iphoto.KindRegular, "Trip", []*iphoto.Item{f.photo("outer.jpg", "Outer")}, inner)
	nested := container(iphoto.KindRegular, "Day 2", []*iphoto.Item{f.photo("day2.jpg", "Day2")})
	folderWithAlbum := folder("Trip", nested)

	opts := Options{Delete: true}
	f.run(runConfig{opts: opts}, outer, folderWithAlbum)
	_, res := f.run(runConfig{opts: opts}, outer, folderWithAlbum)

	assert.Zero(t, res.Obsolete)
	assert.Contains(t, files(t, f.dest), "Trip/Day 2/Day2.jpg")
	assert.Contains(t, files(t, f.dest), "Trip/Outer.jpg")
}

func TestSelectionInheritanceAndExclude(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	roots := []*iphoto.Container{
		folder("Public", album("Private notes", f.photo("p1.jpg", "Note"))),
		album("Private party", f.photo("p2.jpg", "Party")),
		album("Picnic", f.photo("p3.jpg", "Lunch")),
		album("Work", f.photo("w.jpg", "Desk")),
	}

	sel := mustPattern(t, "P")
	var err error
	sel.Exclude, err = CompilePattern("Private")
	require.NoError(t, err)

	f.run(runConfig{sel: sel}, roots...)
	assert.Equal(t, []string{"Picnic/Lunch.jpg", "Public/Private notes/Note.jpg"}, files(t, f.dest))
}

func TestFolderHintsAddSubfolder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	paris := event("Paris", f.photo("a.jpg", "Eiffel"))
	paris.Comments = "@Travel/2009\nSpring trip"

	lib, _ := f.run(runConfig{opts: Options{FolderHints: true}}, paris)
	assert.NotNil(t, lib.Directory("Travel_2009/Paris"))
	assert.Equal(t, []string{"Travel_2009/Paris/Eiffel.jpg"}, files(t, f.dest))
}

func TestUnnamedContainerIsUntitled(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.run(runConfig{}, event("", f.photo("a.jpg", "Eiffel")))
	assert.Equal(t, []string{"Untitled/Eiffel.jpg"}, files(t, f.dest))
}

func TestEmptyContainersAreNotPlanned(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	lib, _ := f.run(runConfig{}, event("Movies only", f.movie("m.mov", "Clip")), album("Empty"))

	dirs, items := lib.Counts()
	assert.Zero(t, dirs)
	assert.Zero(t, items)
	assert.Empty(t, files(t, f.dest))
}

func TestStagesMustRunInOrder(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	lib := NewLibrary(dest, NewEnv(Options{}, nil, nil, nil))

	require.True(t, errors.Is(lib.ScanExisting(nil), ErrOutOfOrder))
	require.True(t, errors.Is(lib.Generate(context.Background()), ErrOutOfOrder))

	_, err := lib.Discover(nil, Selection{})
	require.NoError(t, err)
	_, err = lib.Discover(nil, Selection{})
	require.NoError(t, err, "discover may run once per selection")

	require.True(t, errors.Is(lib.Generate(context.Background()), ErrOutOfOrder))
	require.NoError(t, lib.ScanExisting(nil))

	_, err = lib.Discover(nil, Selection{})
	require.True(t, errors.Is(err, ErrOutOfOrder))
	require.True(t, errors.Is(lib.ScanExisting(nil), ErrOutOfOrder))
	require.NoError(t, lib.Generate(context.Background()))
}

func TestDryRunLeavesDestinationUntouched(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	stray := filepath.Join(f.dest, "Old", "x.jpg")
	writeFile(t, stray, "old")

	dest := filepath.Join(f.dest, "sub")
	f.dest = dest
	_, res := f.run(runConfig{opts: Options{DryRun: true, Delete: true}}, event("Paris", f.photo("a.jpg", "Eiffel")))
	assert.Equal(t, 1, res.Exported)
	assert.Empty(t, res.ChangedPaths)
	assert.NoDirExists(t, dest)
	assert.FileExists(t, stray)

	f.dest = filepath.Dir(dest)
	_, res = f.run(runConfig{opts: Options{DryRun: true, Delete: true}}, event("Paris", f.photo("a.jpg", "Eiffel")))
	assert.Equal(t, 2, res.Obsolete)
	assert.Zero(t, res.Deleted)
	assert.FileExists(t, stray)
	assert.NoDirExists(t, filepath.Join(f.dest, "Paris"))
}

func TestScanMatchesDecomposedNames(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	item := f.photo("a.jpg", "Café")
	paris := event("Paris", item)

	onDisk := filepath.Join(f.dest, "Paris", norm.NFD.String("Café.jpg"))
	writeFile(t, onDisk, "image a.jpg")
	require.NoError(t, os.Chtimes(onDisk, sourceTime, sourceTime))

	_, res := f.run(runConfig{opts: Options{Delete: true, Update: true}}, paris)
	assert.Zero(t, res.Obsolete)
	assert.Zero(t, res.Operations())
	assert.FileExists(t, onDisk)
	assert.Len(t, files(t, f.dest), 1)
}

func TestScanMatchesDecomposedAlbumFolders(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	paris := event("Café", f.photo("a.jpg", "Eiffel"))

	onDisk := filepath.Join(f.dest, norm.NFD.String("Café"))
	require.NoError(t, os.MkdirAll(onDisk, 0o755))

	_, res := f.run(runConfig{opts: Options{Delete: true}}, paris)
	assert.Zero(t, res.Obsolete)
	assert.Zero(t, res.Deleted)
	assert.Equal(t, []string{norm.NFD.String("Café") + "/Eiffel.jpg"}, files(t, f.dest))
}

func TestSymlinkedAlbumFolderIsRefused(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	outside := t.TempDir()
	precious := filepath.Join(outside, "precious.doc")
	writeFile(t, precious, "keep me")
	require.NoError(t, os.Symlink(outside, filepath.Join(f.dest, "Paris")))

	var removed []string
	_, res := f.run(runConfig{opts: Options{Delete: true, Update: true}, removed: &removed}, event("Paris", f.photo("a.jpg", "Eiffel")))

	assert.Equal(t, 1, res.Refused)
	assert.Zero(t, res.Deleted)
	assert.Zero(t, res.Exported)
	assert.Empty(t, removed)
	assert.FileExists(t, precious)
	assert.NoFileExists(t, filepath.Join(outside, "Eiffel.jpg"))
}

func TestSymlinkedParentFolderIsRefused(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	outside := t.TempDir()
	precious := filepath.Join(outside, "Paris", "precious.doc")
	writeFile(t, precious, "keep me")
	require.NoError(t, os.Symlink(outside, filepath.Join(f.dest, "Trips")))

	trips := folder("Trips", event("Paris", f.photo("a.jpg", "Eiffel")))
	_, res := f.run(runConfig{opts: Options{Delete: true}}, trips)

	assert.Equal(t, 1, res.Refused)
	assert.Zero(t, res.Deleted)
	assert.FileExists(t, precious)
	assert.NoFileExists(t, filepath.Join(outside, "Paris", "Eiffel.jpg"))
}

func TestStraySymlinkIsRemovedNotFollowed(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	outside := t.TempDir()
	precious := filepath.Join(outside, "precious.doc")
	writeFile(t, precious, "keep me")
	link := filepath.Join(f.dest, "Elsewhere")
	require.NoError(t, os.Symlink(outside, link))

	_, res := f.run(runConfig{opts: Options{Delete: true}}, event("Paris", f.photo("a.jpg", "Eiffel")))

	assert.Equal(t, 1, res.Deleted)
	assert.FileExists(t, precious)
	_, err := os.Lstat(link)
	assert.True(t, os.IsNotExist(err))
}
