package export

import (
	"strings"

	"github.com/olimci/albumsync/pkg/picasa"
)

// vendorCacheDir is maintained by iTunes inside synced photo folders.
const vendorCacheDir = "iPod Photo Cache"

// ignoredNames are compared case-insensitively.
var ignoredNames = map[string]bool{
	"pspbrwse.jbf":     true,
	"thumbs.db":        true,
	"desktop.ini":      true,
	"ipod photo cache": true,
	"picasa.ini":       true,
	"feed.rss":         true,
	"view online.url":  true,
	"albumdata.xml":    true,
	"albumdata2.xml":   true,
	"pkginfo":          true,
	"imovie data":      true,
	"dir.data":         true,
	"iphoto.ipspot":    true,
	"iphotolock.data":  true,
	"library.data":     true,
	"library.iphoto":   true,
	"library6.iphoto":  true,
	"caches":           true,
}

// ignored reports whether a directory entry is left alone by every scan.
// Hidden entries are ignored, except the Picasa originals folder.
func ignored(name string) bool {
	lower := strings.ToLower(name)
	if strings.HasPrefix(name, ".") {
		return lower != picasa.OriginalsDir
	}
	return ignoredNames[lower]
}
