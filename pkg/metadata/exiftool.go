package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/olimci/albumsync/pkg/version"
)

// MinExifToolVersion is the oldest exiftool with the options used here.
const MinExifToolVersion = 7.47

var (
	ErrExifToolNotFound = errors.New("exiftool not found")
	ErrExifToolTooOld   = errors.New("exiftool is too old")
)

const updatedMarker = "1 image files updated"

var readArgs = []string{
	"-j", "-m", "-q", "-q", "-n",
	"-Keywords", "-Caption-Abstract", "-DateTimeOriginal", "-Rating",
	"-Composite:GPSLatitude", "-Composite:GPSLongitude",
}

// ExifTool runs the exiftool executable.
type ExifTool struct {
	Path string
}

func NewExifTool(path string) *ExifTool {
	if strings.TrimSpace(path) == "" {
		path = "exiftool"
	}
	return &ExifTool{Path: path}
}

func (t *ExifTool) Version(ctx context.Context) (float64, error) {
	out, err := t.run(ctx, "-ver")
	if err != nil {
		return 0, err
	}
	return version.ParseToolVersion(out)
}

// Check verifies that exiftool can be executed and is recent enough.
func (t *ExifTool) Check(ctx context.Context) error {
	if _, err := exec.LookPath(t.Path); err != nil {
		return fmt.Errorf("%w: %s", ErrExifToolNotFound, t.Path)
	}
	v, err := t.Version(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExifToolNotFound, err)
	}
	if v < MinExifToolVersion {
		return fmt.Errorf("%w: found %.2f, need %.2f or newer", ErrExifToolTooOld, v, MinExifToolVersion)
	}
	return nil
}

// Read returns the embedded tags of path. Files without an editable
// extension yield empty tags.
func (t *ExifTool) Read(ctx context.Context, path string) (Tags, error) {
	if !Editable(path) {
		return Tags{}, nil
	}
	args := append(append([]string{}, readArgs...), path)
	out, err := t.run(ctx, args...)
	if err != nil {
		return Tags{}, err
	}
	tags, err := parseJSON([]byte(out))
	if err != nil {
		return Tags{}, fmt.Errorf("parse exiftool output for %s: %w", path, err)
	}
	return tags, nil
}

// Write applies u to path in place, keeping the file modification time.
func (t *ExifTool) Write(ctx context.Context, path string, u Update) error {
	if u.Empty() {
		return nil
	}

	args := []string{"-F", "-P", "-overwrite_original", "-ImageDescription="}
	if u.Caption != nil {
		tmp, err := writeCaptionFile(*u.Caption)
		if err != nil {
			return err
		}
		defer os.Remove(tmp)
		args = append(args, "-Caption-Abstract<="+tmp)
	}
	args = append(args, updateArgs(u)...)
	args = append(args, path)

	out, err := t.run(ctx, args...)
	if err != nil {
		return err
	}
	if !strings.Contains(out, updatedMarker) {
		return fmt.Errorf("update %s: %s", path, strings.TrimSpace(out))
	}
	return nil
}

func updateArgs(u Update) []string {
	var args []string
	if u.Date != nil {
		args = append(args, "-DateTimeOriginal="+u.Date.Format(DateLayout))
	}
	if u.Keywords != nil {
		if len(u.Keywords) == 0 {
			args = append(args, "-keywords=")
		}
		for _, keyword := range u.Keywords {
			args = append(args, "-keywords="+keyword)
		}
	}
	if u.Rating != nil {
		args = append(args, "-Rating="+strconv.Itoa(*u.Rating))
	}
	if u.GPS != nil {
		lat, lon := u.GPS.Latitude, u.GPS.Longitude
		args = append(args,
			fmt.Sprintf("-GPSLatitude=%.6f", abs(lat)),
			"-GPSLatitudeRef="+hemisphere(lat, "N", "S"),
			fmt.Sprintf("-GPSLongitude=%.6f", abs(lon)),
			"-GPSLongitudeRef="+hemisphere(lon, "E", "W"),
		)
	}
	return append(args, "-iptc:CodedCharacterSet=utf8")
}

func hemisphere(v float64, pos, neg string) string {
	if v < 0 {
		return neg
	}
	return pos
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// IPTC captions cannot be set to the empty string.
func writeCaptionFile(caption string) (string, error) {
	if caption == "" {
		caption = " "
	}
	f, err := os.CreateTemp("", "albumsync-caption-*.txt")
	if err != nil {
		return "", fmt.Errorf("create caption file: %w", err)
	}
	if _, err := f.WriteString(caption); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write caption file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close caption file: %w", err)
	}
	return f.Name(), nil
}

func (t *ExifTool) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, t.Path, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return out.String(), fmt.Errorf("run %s: %w: %s", t.Path, err, strings.TrimSpace(out.String()))
	}
	return out.String(), nil
}

type record struct {
	Keywords     flexList   `json:"Keywords"`
	Caption      flexString `json:"Caption-Abstract"`
	DateTime     flexString `json:"DateTimeOriginal"`
	Rating       *float64   `json:"Rating"`
	GPSLatitude  *float64   `json:"GPSLatitude"`
	GPSLongitude *float64   `json:"GPSLongitude"`
}

func parseJSON(data []byte) (Tags, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Tags{}, nil
	}
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return Tags{}, err
	}
	if len(records) == 0 {
		return Tags{}, nil
	}
	r := records[0]

	tags := Tags{
		Caption: string(r.Caption),
	}
	for _, k := range r.Keywords {
		if k != "" && k != "\n" {
			tags.Keywords = append(tags.Keywords, string(k))
		}
	}
	if r.DateTime != "" {
		date, err := time.ParseInLocation(DateLayout, string(r.DateTime), time.Local)
		if err == nil {
			tags.Date = date
		}
	}
	if r.Rating != nil {
		tags.Rating = int(*r.Rating)
	}
	if r.GPSLatitude != nil && r.GPSLongitude != nil {
		tags.GPS = &GPS{Latitude: *r.GPSLatitude, Longitude: *r.GPSLongitude}
	}
	return tags, nil
}

// flexString accepts JSON strings as well as the bare numbers exiftool emits
// for numeric-looking values.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	if string(data) == "null" {
		*s = ""
		return nil
	}
	*s = flexString(data)
	return nil
}

// flexList accepts either a single value or a list.
type flexList []flexString

func (l *flexList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		var v []flexString
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*l = v
		return nil
	}
	var one flexString
	if err := one.UnmarshalJSON(data); err != nil {
		return err
	}
	*l = flexList{one}
	return nil
}
