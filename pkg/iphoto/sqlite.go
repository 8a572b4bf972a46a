package iphoto

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"

	"github.com/olimci/albumsync/pkg/metadata"
	"github.com/sirupsen/logrus"

	_ "github.com/mattn/go-sqlite3"
)

const (
	facesDB  = "face.db"
	placesDB = "iPhotoMain.db"
)

func openReadOnly(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return db, nil
}

// readFaces adds the names of detected faces to the items they appear in.
func readFaces(ctx context.Context, path string, items map[string]*Item) error {
	db, err := openReadOnly(path)
	if err != nil {
		return err
	}
	defer db.Close()

	names := map[int64]string{}
	rows, err := db.QueryContext(ctx, "SELECT face_key, name FROM face_name WHERE name != ''")
	if err != nil {
		return fmt.Errorf("query face names in %s: %w", path, err)
	}
	for rows.Next() {
		var key int64
		var name string
		if err := rows.Scan(&key, &name); err != nil {
			rows.Close()
			return fmt.Errorf("scan face name: %w", err)
		}
		names[key] = name
	}
	if err := closeRows(rows); err != nil {
		return err
	}

	rows, err = db.QueryContext(ctx, "SELECT image_key, face_key FROM detected_face")
	if err != nil {
		return fmt.Errorf("query detected faces in %s: %w", path, err)
	}
	for rows.Next() {
		var imageKey, faceKey int64
		if err := rows.Scan(&imageKey, &faceKey); err != nil {
			rows.Close()
			return fmt.Errorf("scan detected face: %w", err)
		}
		name, ok := names[faceKey]
		if !ok {
			continue
		}
		if item := items[strconv.FormatInt(imageKey, 10)]; item != nil {
			item.Faces = append(item.Faces, name)
		}
	}
	return closeRows(rows)
}

const placesQuery = `SELECT primaryKey, gpsLatitude, gpsLongitude,
	namedPlace, ocean, country, province, county, city, neighborhood
	FROM SqPhotoInfo
	WHERE isVisible == 1 AND (manualLocation == 1 OR namedPlace > 0)`

// readPlaces adds place names and GPS positions to items.
func readPlaces(ctx context.Context, path string, items map[string]*Item, log logrus.FieldLogger) error {
	db, err := openReadOnly(path)
	if err != nil {
		return err
	}
	defer db.Close()

	userPlaces, err := queryNames(ctx, db, "SELECT primaryKey, name FROM sqUserPlace")
	if err != nil {
		return fmt.Errorf("query user places in %s: %w", path, err)
	}
	placeNames, err := queryNames(ctx, db,
		"SELECT n.place, n.string FROM SqPlace p, SqPlaceName n WHERE p.defaultName = n.primaryKey")
	if err != nil {
		return fmt.Errorf("query place names in %s: %w", path, err)
	}

	rows, err := db.QueryContext(ctx, placesQuery)
	if err != nil {
		return fmt.Errorf("query photo places in %s: %w", path, err)
	}
	for rows.Next() {
		var imageKey int64
		var lat, lon sql.NullFloat64
		var named sql.NullInt64
		var levels [6]sql.NullInt64
		dest := []any{&imageKey, &lat, &lon, &named}
		for i := range levels {
			dest = append(dest, &levels[i])
		}
		if err := rows.Scan(dest...); err != nil {
			rows.Close()
			return fmt.Errorf("scan photo place: %w", err)
		}

		item := items[strconv.FormatInt(imageKey, 10)]
		if item == nil {
			log.Warnf("no image found for place record %d", imageKey)
			continue
		}
		if name := userPlaces[named.Int64]; named.Valid && name != "" {
			item.PlaceNames = append(item.PlaceNames, name)
		}
		for _, key := range levels {
			if !key.Valid || key.Int64 <= 0 {
				continue
			}
			if name := placeNames[key.Int64]; name != "" {
				item.PlaceNames = append(item.PlaceNames, name)
			} else {
				log.Warnf("no place name found for %d", key.Int64)
			}
		}

		gps := metadata.GPS{Latitude: round6(lat.Float64), Longitude: round6(lon.Float64)}
		if lat.Valid && lon.Valid && gps.Valid() {
			item.GPS = &gps
		}
	}
	return closeRows(rows)
}

func queryNames(ctx context.Context, db *sql.DB, query string) (map[int64]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	names := map[int64]string{}
	for rows.Next() {
		var key int64
		var name sql.NullString
		if err := rows.Scan(&key, &name); err != nil {
			rows.Close()
			return nil, err
		}
		names[key] = name.String
	}
	return names, closeRows(rows)
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
