package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"
)

// verdict is what a scan decides about one directory entry.
type verdict int

const (
	keepEntry    verdict = iota // known, nothing to do
	keepContent                 // known, and makes its parent worth keeping
	descendEntry                // unknown directory: obsolete unless it holds content
	obsoleteEntry
)

// entry is one item of a directory listing. Path is the on-disk path used for
// filesystem calls, Key the NFC form used to compare against planned paths.
type entry struct {
	Name  string
	Path  string
	Key   string
	IsDir bool
	Link  bool // symbolic links are never followed
}

// treeDiff compares a directory against what is planned for it. Entries on
// the ignore list are never classified.
type treeDiff struct {
	classify func(entry) verdict
	obsolete func(entry)
	log      logrus.FieldLogger
}

// run scans dir (compared as key) and reports whether it holds content.
func (t treeDiff) run(dir, key string) (bool, error) {
	list, err := os.ReadDir(dir)
	if err != nil {
		return false, fmt.Errorf("read directory %s: %w", dir, err)
	}

	content := false
	for _, de := range list {
		name := norm.NFC.String(de.Name())
		if ignored(name) {
			continue
		}
		e := entry{
			Name:  name,
			Path:  filepath.Join(dir, de.Name()),
			Key:   filepath.Join(key, name),
			IsDir: de.IsDir(),
			Link:  de.Type()&os.ModeSymlink != 0,
		}

		switch t.classify(e) {
		case keepEntry:
		case keepContent:
			content = true
		case descendEntry:
			sub, err := t.run(e.Path, e.Key)
			if err != nil {
				// Unreadable subtrees are kept.
				t.log.WithError(err).Warn("cannot scan directory")
				content = true
				continue
			}
			if sub {
				content = true
			} else {
				t.obsolete(e)
			}
		case obsoleteEntry:
			t.obsolete(e)
		}
	}
	return content, nil
}

// onDisk returns the existing spelling of path below root. A missing
// component is matched against its siblings by NFC form and keeps its
// planned spelling when none matches.
func onDisk(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return path
	}
	cur := root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		next := filepath.Join(cur, part)
		if _, err := os.Lstat(next); err != nil {
			if match := matchNFC(cur, part); match != "" {
				next = filepath.Join(cur, match)
			}
		}
		cur = next
	}
	return cur
}

func matchNFC(dir, name string) string {
	list, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	want := norm.NFC.String(name)
	for _, de := range list {
		if norm.NFC.String(de.Name()) == want {
			return de.Name()
		}
	}
	return ""
}
