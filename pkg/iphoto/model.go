// Package iphoto loads the album structure of an iPhoto library: events,
// albums, folders and the images they reference.
package iphoto

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/olimci/albumsync/pkg/metadata"
)

// Kind is the structural role of a container.
type Kind int

const (
	KindOther Kind = iota
	KindFolder
	KindEvent
	KindRegular
	KindSmart
	KindPublished
)

func (k Kind) String() string {
	switch k {
	case KindFolder:
		return "Folder"
	case KindEvent:
		return "Event"
	case KindRegular:
		return "Regular"
	case KindSmart:
		return "Smart"
	case KindPublished:
		return "Published"
	default:
		return "Other"
	}
}

// ParseKind maps an "Album Type" value onto a Kind. Types such as "Book",
// "Slideshow" or "Special Roll" are KindOther.
func ParseKind(s string) Kind {
	switch s {
	case "Folder":
		return KindFolder
	case "Event":
		return KindEvent
	case "Regular":
		return KindRegular
	case "Smart":
		return KindSmart
	case "Published":
		return KindPublished
	default:
		return KindOther
	}
}

// Item is a single photo or movie.
type Item struct {
	ID           string
	Caption      string
	Comment      string
	MediaType    string
	ImagePath    string
	OriginalPath string
	Date         time.Time
	Rating       int
	Keywords     []string
	Faces        []string
	PlaceNames   []string
	GPS          *metadata.GPS
}

func (i *Item) IsMovie() bool {
	return i.MediaType == "Movie"
}

// Name is the caption, or the image file name for uncaptioned items.
func (i *Item) Name() string {
	if i.Caption != "" {
		return i.Caption
	}
	return filepath.Base(i.ImagePath)
}

// Tags is the metadata exported files of this item should carry. The item
// comment becomes the caption; faces and places extend the keywords.
func (i *Item) Tags() metadata.Tags {
	return metadata.Tags{
		Keywords: metadata.MergeKeywords(i.Keywords, i.Faces, i.PlaceNames),
		Caption:  strings.TrimSpace(i.Comment),
		Date:     i.Date,
		Rating:   i.Rating,
		GPS:      i.GPS,
	}
}

// Container is an event, album or folder.
type Container struct {
	ID       string
	Name     string
	Kind     Kind
	Comments string
	Master   bool
	Items    []*Item
	Children []*Container
}

const hintMarker = "@"

// FolderHint returns the first comment line starting with "@", without the
// marker.
func (c *Container) FolderHint() string {
	for _, line := range strings.Split(c.Comments, "\n") {
		if strings.HasPrefix(line, hintMarker) {
			return strings.TrimPrefix(line, hintMarker)
		}
	}
	return ""
}

// Comment returns the comments with folder hint lines removed.
func (c *Container) Comment() string {
	if c.Comments == "" {
		return ""
	}
	var lines []string
	for _, line := range strings.Split(c.Comments, "\n") {
		if !strings.HasPrefix(line, hintMarker) {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func (c *Container) String() string {
	return c.Name + " (" + c.Kind.String() + ")"
}

// Library is a loaded iPhoto library.
type Library struct {
	Dir     string
	Version string
	Master  *Container
	Events  []*Container
	Items   map[string]*Item
}

// Albums returns the top-level albums and folders.
func (l *Library) Albums() []*Container {
	if l.Master == nil {
		return nil
	}
	return l.Master.Children
}
