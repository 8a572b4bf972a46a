package export

import (
	"github.com/olimci/albumsync/pkg/utils/fileutils"
	"github.com/sirupsen/logrus"
)

// removeObsolete deletes an obsolete entry found while scanning root. Paths
// that are not strictly below root are refused without touching the disk.
func (e *Env) removeObsolete(root string, ent entry, what string) {
	log := e.Log.WithField("path", ent.Path)
	if !fileutils.IsDescendant(root, ent.Path) {
		e.result.Refused++
		log.WithField("root", root).Error("internal error: refusing to delete path outside the scanned directory")
		return
	}

	e.result.Obsolete++
	switch {
	case !e.Options.Delete:
		log.Warnf("%s (use --delete to remove it)", what)
		return
	case e.Options.DryRun:
		log.Infof("would delete %s", what)
		return
	}

	if err := e.remove(ent.Path); err != nil {
		e.result.Failed++
		log.WithError(err).Warnf("could not delete %s", what)
		return
	}
	e.result.Deleted++
	e.result.changed.Add(ent.Path)
	log.WithFields(logrus.Fields{"dir": ent.IsDir}).Infof("deleted %s", what)
}

func obsoleteKind(ent entry, file, dir string) string {
	if ent.IsDir {
		return dir
	}
	return file
}
