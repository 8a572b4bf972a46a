package metadata

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// NativeReader reads capture date, GPS position and image description from
// EXIF data without an external tool. It cannot see IPTC keywords or XMP
// ratings.
type NativeReader struct{}

func (NativeReader) Read(_ context.Context, path string) (Tags, error) {
	if !Editable(path) {
		return Tags{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Tags{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	// Non-critical decode errors still leave usable fields behind.
	x, err := exif.Decode(f)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return Tags{}, nil
	}

	var tags Tags
	if date, err := x.DateTime(); err == nil {
		tags.Date = date
	}
	if lat, lon, err := x.LatLong(); err == nil {
		tags.GPS = &GPS{Latitude: lat, Longitude: lon}
	}
	if tag, err := x.Get(exif.ImageDescription); err == nil {
		if desc, err := tag.StringVal(); err == nil {
			tags.Caption = strings.TrimSpace(strings.TrimRight(desc, "\x00"))
		}
	}
	return tags, nil
}
