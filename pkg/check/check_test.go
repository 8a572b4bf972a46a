package check

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/olimci/albumsync/pkg/export"
	"github.com/olimci/albumsync/pkg/imaging"
	"github.com/olimci/albumsync/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeTool(t *testing.T, name, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script tools are not supported on windows")
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

func TestDepsOnlyChecksNeededTools(t *testing.T) {
	t.Parallel()

	missingExif := metadata.NewExifTool(filepath.Join(t.TempDir(), "exiftool"))
	missingConv := imaging.NewConverter(filepath.Join(t.TempDir(), "convert"))
	ctx := context.Background()

	require.NoError(t, Deps(ctx, export.Options{}, missingExif, missingConv))

	err := Deps(ctx, export.Options{Metadata: export.MetadataChanged}, missingExif, missingConv)
	require.ErrorIs(t, err, metadata.ErrExifToolNotFound)

	err = Deps(ctx, export.Options{Size: "800"}, missingExif, missingConv)
	require.ErrorIs(t, err, imaging.ErrConvertNotFound)
}

func TestDepsRejectsOldExifTool(t *testing.T) {
	t.Parallel()

	exif := metadata.NewExifTool(fakeTool(t, "exiftool", `echo 7.30`))
	conv := imaging.NewConverter(fakeTool(t, "convert", `exit 0`))

	err := Deps(context.Background(), export.Options{Metadata: export.MetadataAll, Size: "800"}, exif, conv)
	require.ErrorIs(t, err, metadata.ErrExifToolTooOld)
}

func TestRunReportsEveryTool(t *testing.T) {
	t.Parallel()

	exif := metadata.NewExifTool(fakeTool(t, "exiftool", `echo 12.40`))
	conv := imaging.NewConverter(filepath.Join(t.TempDir(), "convert"))

	report := Run(context.Background(), export.Options{Size: "800"}, exif, conv)
	require.Len(t, report, 2)

	assert.Equal(t, "exiftool", report[0].Name)
	assert.True(t, report[0].OK())
	assert.Equal(t, "12.40", report[0].Version)
	assert.Equal(t, exif.Path, report[0].Path)
	assert.False(t, report[0].Required)

	assert.Equal(t, "convert", report[1].Name)
	assert.False(t, report[1].OK())
	assert.Empty(t, report[1].Path)
	assert.True(t, report[1].Required)
	assert.ErrorIs(t, report[1].Err, imaging.ErrConvertNotFound)
}
