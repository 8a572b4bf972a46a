package picasa

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFolder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := "[Picasa]\nname=Paris\ndescription=Spring trip; with friends\n\n[Eiffel.jpg]\nstar=yes\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, IniFile), []byte(content), 0o644))

	folder, err := ReadFolder(dir)
	require.NoError(t, err)
	assert.Equal(t, "Paris", folder.Name)
	assert.Equal(t, "Spring trip; with friends", folder.Description)
}

func TestReadFolderMissing(t *testing.T) {
	t.Parallel()

	folder, err := ReadFolder(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Folder{}, folder)
}
