package iphoto

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/olimci/albumsync/pkg/logging"
	"github.com/sirupsen/logrus"
	"howett.net/plist"
)

var (
	ErrLibraryNotFound    = errors.New("not an iPhoto library")
	ErrUnsupportedVersion = errors.New("unsupported iPhoto version")
)

var albumDataFiles = []string{"AlbumData.xml", "AlbumData2.xml"}

// supportedVersions lists the major application versions whose AlbumData
// layout is understood. Faces and places only exist from version 8.
var supportedVersions = []string{"6.", "7.", "8."}

// appleEpoch is the reference date of Core Data timestamps.
var appleEpoch = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

type LoadOptions struct {
	Faces  bool
	Places bool
	Log    logrus.FieldLogger
}

type albumData struct {
	ApplicationVersion string                 `plist:"Application Version"`
	Keywords           map[string]string      `plist:"List of Keywords"`
	Images             map[string]imageRecord `plist:"Master Image List"`
	Albums             []albumRecord          `plist:"List of Albums"`
	Rolls              []rollRecord           `plist:"List of Rolls"`
}

type imageRecord struct {
	Caption      string   `plist:"Caption"`
	Comment      string   `plist:"Comment"`
	Date         float64  `plist:"DateAsTimerInterval"`
	ImagePath    string   `plist:"ImagePath"`
	OriginalPath string   `plist:"OriginalPath"`
	MediaType    string   `plist:"MediaType"`
	Rating       int      `plist:"Rating"`
	Keywords     []string `plist:"Keywords"`
}

type albumRecord struct {
	ID       int      `plist:"AlbumId"`
	Name     string   `plist:"AlbumName"`
	Type     string   `plist:"Album Type"`
	Master   bool     `plist:"Master"`
	Parent   *int     `plist:"Parent"`
	KeyList  []string `plist:"KeyList"`
	Comments string   `plist:"Comments"`
}

type rollRecord struct {
	RollID    int      `plist:"RollID"`
	AlbumID   int      `plist:"AlbumId"`
	RollName  string   `plist:"RollName"`
	AlbumName string   `plist:"AlbumName"`
	KeyList   []string `plist:"KeyList"`
	Comments  string   `plist:"Comments"`
}

// AlbumDataPath locates the album database inside a library directory.
func AlbumDataPath(dir string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrLibraryNotFound, dir)
	}
	for _, name := range albumDataFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: no AlbumData.xml in %s", ErrLibraryNotFound, dir)
}

// Load reads the library at dir.
func Load(ctx context.Context, dir string, opts LoadOptions) (*Library, error) {
	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}

	path, err := AlbumDataPath(dir)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var data albumData
	if err := plist.NewDecoder(f).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	lib, err := build(dir, data, log)
	if err != nil {
		return nil, err
	}

	if opts.Faces || opts.Places {
		if !strings.HasPrefix(lib.Version, "8.") {
			log.Warnf("no face or place information in iPhoto %s libraries", lib.Version)
			return lib, nil
		}
	}
	if opts.Faces {
		if err := readFaces(ctx, filepath.Join(dir, facesDB), lib.Items); err != nil {
			return nil, err
		}
	}
	if opts.Places {
		if err := readPlaces(ctx, filepath.Join(dir, placesDB), lib.Items, log); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

func build(dir string, data albumData, log logrus.FieldLogger) (*Library, error) {
	if !supported(data.ApplicationVersion) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, data.ApplicationVersion)
	}

	lib := &Library{
		Dir:     dir,
		Version: data.ApplicationVersion,
		Items:   make(map[string]*Item, len(data.Images)),
	}

	for id, rec := range data.Images {
		item := &Item{
			ID:           id,
			Caption:      rec.Caption,
			Comment:      rec.Comment,
			MediaType:    rec.MediaType,
			ImagePath:    rec.ImagePath,
			OriginalPath: rec.OriginalPath,
			Date:         appleTime(rec.Date),
			Rating:       rec.Rating,
		}
		for _, key := range rec.Keywords {
			if keyword, ok := data.Keywords[key]; ok {
				item.Keywords = append(item.Keywords, keyword)
			}
		}
		lib.Items[id] = item
	}

	byID := make(map[int]*Container, len(data.Albums))
	for _, rec := range data.Albums {
		c := &Container{
			ID:       strconv.Itoa(rec.ID),
			Name:     rec.Name,
			Kind:     ParseKind(rec.Type),
			Comments: rec.Comments,
			Master:   rec.Master,
		}
		if c.Kind != KindFolder {
			c.Items = lookupItems(c, rec.KeyList, lib.Items, log)
		}

		var parent *Container
		if rec.Parent == nil {
			parent = lib.Master
		} else {
			parent = byID[*rec.Parent]
		}
		switch {
		case parent != nil:
			parent.Children = append(parent.Children, c)
		case !c.Master:
			log.Warnf("album %s: parent not found", c.Name)
		}

		byID[rec.ID] = c
		if c.Master {
			lib.Master = c
		}
	}

	for _, rec := range data.Rolls {
		id := rec.RollID
		if id == 0 {
			id = rec.AlbumID
		}
		name := rec.RollName
		if name == "" {
			name = rec.AlbumName
		}
		c := &Container{
			ID:       strconv.Itoa(id),
			Name:     name,
			Kind:     KindEvent,
			Comments: rec.Comments,
		}
		c.Items = lookupItems(c, rec.KeyList, lib.Items, log)
		lib.Events = append(lib.Events, c)
	}

	return lib, nil
}

func lookupItems(c *Container, keys []string, items map[string]*Item, log logrus.FieldLogger) []*Item {
	out := make([]*Item, 0, len(keys))
	for _, key := range keys {
		item, ok := items[key]
		if !ok {
			log.Warnf("%s: image with id %s does not exist", c, key)
			continue
		}
		out = append(out, item)
	}
	return out
}

func supported(v string) bool {
	for _, prefix := range supportedVersions {
		if strings.HasPrefix(v, prefix) {
			return true
		}
	}
	return false
}

func appleTime(seconds float64) time.Time {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return time.Time{}
	}
	return appleEpoch.Add(time.Duration(seconds * float64(time.Second))).Local()
}
