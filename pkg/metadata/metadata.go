// Package metadata reads and updates the caption, keywords, capture date,
// rating and GPS position embedded in exported image files.
package metadata

import (
	"math"
	"path/filepath"
	"strings"
	"time"
)

// DateLayout is the EXIF DateTimeOriginal layout.
const DateLayout = "2006:01:02 15:04:05"

var editable = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tif":  true,
	".tiff": true,
}

// Editable reports whether path has an extension that can carry embedded tags.
func Editable(path string) bool {
	return editable[strings.ToLower(filepath.Ext(path))]
}

type GPS struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// Valid reports whether the coordinates are within range.
func (g GPS) Valid() bool {
	return math.Abs(g.Latitude) <= 90 && math.Abs(g.Longitude) <= 180
}

// Equal compares coordinates at the six decimal places exiftool reports.
func (g GPS) Equal(other GPS) bool {
	return round6(g.Latitude) == round6(other.Latitude) && round6(g.Longitude) == round6(other.Longitude)
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// Tags is the embedded metadata of one file, or the desired metadata of one
// source item.
type Tags struct {
	Keywords []string  `yaml:"keywords,omitempty"`
	Caption  string    `yaml:"caption,omitempty"`
	Date     time.Time `yaml:"date,omitempty"`
	Rating   int       `yaml:"rating,omitempty"`
	GPS      *GPS      `yaml:"gps,omitempty"`
}

// Update lists the fields to rewrite. Nil fields are left untouched; a
// non-nil empty Keywords clears the keyword list.
type Update struct {
	Caption  *string
	Keywords []string
	Date     *time.Time
	Rating   *int
	GPS      *GPS
}

func (u Update) Empty() bool {
	return u.Caption == nil && u.Keywords == nil && u.Date == nil && u.Rating == nil && u.GPS == nil
}

// Fields names the fields present in u, for log output.
func (u Update) Fields() []string {
	var fields []string
	if u.Caption != nil {
		fields = append(fields, "caption")
	}
	if u.Keywords != nil {
		fields = append(fields, "keywords")
	}
	if u.Date != nil {
		fields = append(fields, "date")
	}
	if u.Rating != nil {
		fields = append(fields, "rating")
	}
	if u.GPS != nil {
		fields = append(fields, "gps")
	}
	return fields
}

// Diff returns the fields of want that differ from what the file has.
func Diff(want, have Tags) Update {
	var u Update

	caption := strings.TrimSpace(want.Caption)
	if caption != strings.TrimSpace(have.Caption) {
		u.Caption = &caption
	}

	if !sameKeywords(want.Keywords, have.Keywords) {
		u.Keywords = append([]string{}, want.Keywords...)
	}

	if !want.Date.IsZero() && (have.Date.IsZero() || want.Date.Format(DateLayout) != have.Date.Format(DateLayout)) {
		date := want.Date
		u.Date = &date
	}

	if want.Rating != have.Rating {
		rating := want.Rating
		u.Rating = &rating
	}

	if want.GPS != nil && (have.GPS == nil || !want.GPS.Equal(*have.GPS)) {
		gps := *want.GPS
		u.GPS = &gps
	}

	return u
}

func sameKeywords(want, have []string) bool {
	if len(want) != len(have) {
		return false
	}
	for _, keyword := range want {
		found := false
		for _, old := range have {
			if strings.TrimSpace(old) == keyword {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// MergeKeywords appends extra keywords (face and place names) that are not
// already present.
func MergeKeywords(keywords []string, extra ...[]string) []string {
	out := append([]string{}, keywords...)
	seen := make(map[string]bool, len(out))
	for _, k := range out {
		seen[k] = true
	}
	for _, list := range extra {
		for _, k := range list {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}
