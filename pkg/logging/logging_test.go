package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: "warn", Output: &buf})
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewVerboseEnablesDebug(t *testing.T) {
	t.Parallel()

	logger, closer, err := New(Options{Verbose: true, Output: &bytes.Buffer{}})
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	_, _, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestNewWritesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "albumsync.log")
	logger, closer, err := New(Options{File: path, Output: &bytes.Buffer{}})
	require.NoError(t, err)

	logger.WithField("path", "/export/Paris").Info("new file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "new file")
	assert.Contains(t, string(data), "path=/export/Paris")
}
