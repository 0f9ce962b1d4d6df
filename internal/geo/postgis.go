package geo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// PrecinctBoundary is a precinct polygon in WGS84 (SRID 4326).
type PrecinctBoundary struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PrecinctID string    `gorm:"uniqueIndex;size:50" json:"precinct_id"`
	Name       string    `json:"name"`
	Geometry   string    `gorm:"type:geometry(Geometry,4326)" json:"-"`
	Source     string    `json:"source"`
}

// PostGISLocator runs the spatial join in the database.
type PostGISLocator struct {
	db *gorm.DB
}

func NewPostGISLocator(db *gorm.DB) *PostGISLocator {
	return &PostGISLocator{db: db}
}

// Migrate enables PostGIS and creates the boundary table. It requires a
// postgres connection.
func (l *PostGISLocator) Migrate(ctx context.Context) error {
	if name := l.db.Dialector.Name(); name != "postgres" {
		return fmt.Errorf("precinct boundaries need postgres, have %s", name)
	}
	d := l.db.WithContext(ctx)
	if err := d.Exec(`CREATE EXTENSION IF NOT EXISTS postgis`).Error; err != nil {
		return fmt.Errorf("enable postgis: %w", err)
	}
	if err := d.AutoMigrate(&PrecinctBoundary{}); err != nil {
		return fmt.Errorf("migrate precinct boundaries: %w", err)
	}
	return nil
}

func (l *PostGISLocator) table() string {
	return l.db.NamingStrategy.TableName("PrecinctBoundary")
}

func (l *PostGISLocator) PrecinctAt(ctx context.Context, lat, lng float64) (string, bool, error) {
	query := `
		SELECT precinct_id
		FROM ` + l.table() + `
		WHERE ST_Contains(geometry, ST_SetSRID(ST_MakePoint($1, $2), 4326))
		ORDER BY precinct_id
		LIMIT 1
	`
	var ids []string
	if err := l.db.WithContext(ctx).Raw(query, lng, lat).Scan(&ids).Error; err != nil {
		return "", false, fmt.Errorf("precinct lookup query failed: %w", err)
	}
	if len(ids) == 0 {
		return "", false, nil
	}
	return ids[0], true, nil
}

func (l *PostGISLocator) Boundary(ctx context.Context, precinctID string) (json.RawMessage, bool, error) {
	var geojson string
	err := l.db.WithContext(ctx).
		Raw(`SELECT ST_AsGeoJSON(geometry) FROM `+l.table()+` WHERE precinct_id = $1`, precinctID).
		Row().Scan(&geojson)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("boundary query failed: %w", err)
	}
	return json.RawMessage(geojson), true, nil
}

// PrecinctsAt joins every point against the boundary table in one query.
func (l *PostGISLocator) PrecinctsAt(ctx context.Context, points []Point) ([]string, error) {
	out := make([]string, len(points))
	if len(points) == 0 {
		return out, nil
	}
	lats := make([]float64, len(points))
	lngs := make([]float64, len(points))
	for i, p := range points {
		lats[i], lngs[i] = p.Lat, p.Lng
	}

	query := `
		SELECT pt.idx, b.precinct_id
		FROM unnest($1::float8[], $2::float8[]) WITH ORDINALITY AS pt(lng, lat, idx)
		JOIN LATERAL (
			SELECT precinct_id
			FROM ` + l.table() + `
			WHERE ST_Contains(geometry, ST_SetSRID(ST_MakePoint(pt.lng, pt.lat), 4326))
			ORDER BY precinct_id
			LIMIT 1
		) b ON true
	`
	rows, err := l.db.WithContext(ctx).Raw(query, pq.Array(lngs), pq.Array(lats)).Rows()
	if err != nil {
		return nil, fmt.Errorf("batch precinct lookup failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var idx int64
		var id string
		if err := rows.Scan(&idx, &id); err != nil {
			return nil, fmt.Errorf("scan precinct lookup: %w", err)
		}
		if idx >= 1 && int(idx) <= len(out) {
			out[idx-1] = id
		}
	}
	return out, rows.Err()
}

// ImportBoundary upserts one precinct polygon given as GeoJSON geometry.
func (l *PostGISLocator) ImportBoundary(ctx context.Context, precinctID, name, source string, geojson json.RawMessage) error {
	err := l.db.WithContext(ctx).Exec(`
		INSERT INTO `+l.table()+` (precinct_id, name, source, geometry)
		VALUES ($1, $2, $3, ST_SetSRID(ST_GeomFromGeoJSON($4), 4326))
		ON CONFLICT (precinct_id) DO UPDATE
		SET name = EXCLUDED.name, source = EXCLUDED.source, geometry = EXCLUDED.geometry
	`, precinctID, name, source, string(geojson)).Error
	if err != nil {
		return fmt.Errorf("import boundary %s: %w", precinctID, err)
	}
	return nil
}
