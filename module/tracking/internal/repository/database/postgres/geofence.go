package postgres

import (
	"context"
	"database/sql"

	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/domain"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/internal/repository/database"
)

var _ database.GeofenceRepository = (*GeofenceRepo)(nil)

type GeofenceRepo struct {
	db *sql.DB
}

func NewGeofenceRepo(db *sql.DB) *GeofenceRepo {
	return &GeofenceRepo{db: db}
}

const geofenceColumns = `id, vehicle_id, name, center_lat, center_lon, radius_meters, alert_on_enter, alert_on_exit, is_active`

func (r *GeofenceRepo) Create(ctx context.Context, gf *domain.Geofence) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO geofences (id, vehicle_id, name, center_lat, center_lon, radius_meters, alert_on_enter, alert_on_exit, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		gf.ID, gf.VehicleID, gf.Name, gf.CenterLat, gf.CenterLon, gf.RadiusMeters, gf.AlertOnEnter, gf.AlertOnExit, gf.IsActive,
	)
	return err
}

func (r *GeofenceRepo) GetActiveByVehicle(ctx context.Context, vehicleID string) ([]domain.Geofence, error) {
	return r.query(ctx,
		`SELECT `+geofenceColumns+` FROM geofences WHERE vehicle_id = $1 AND is_active ORDER BY id`,
		vehicleID,
	)
}

func (r *GeofenceRepo) ListByVehicle(ctx context.Context, vehicleID string) ([]domain.Geofence, error) {
	return r.query(ctx,
		`SELECT `+geofenceColumns+` FROM geofences WHERE vehicle_id = $1 ORDER BY id`,
		vehicleID,
	)
}

func (r *GeofenceRepo) Update(ctx context.Context, gf *domain.Geofence) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE geofences SET name = $2, center_lat = $3, center_lon = $4, radius_meters = $5,
		        alert_on_enter = $6, alert_on_exit = $7, is_active = $8
		 WHERE id = $1`,
		gf.ID, gf.Name, gf.CenterLat, gf.CenterLon, gf.RadiusMeters, gf.AlertOnEnter, gf.AlertOnExit, gf.IsActive,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NewNotFoundError("geofence", gf.ID)
	}
	return nil
}

func (r *GeofenceRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM geofences WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NewNotFoundError("geofence", id)
	}
	return nil
}

func (r *GeofenceRepo) InsertAlert(ctx context.Context, a *domain.GeofenceAlert) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO geofence_alerts (id, vehicle_id, geofence_id, geofence_name, action, latitude, longitude, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.VehicleID, a.Geofence, a.Name, string(a.Action), a.Latitude, a.Longitude, a.Timestamp,
	)
	return err
}

func (r *GeofenceRepo) query(ctx context.Context, q string, args ...any) ([]domain.Geofence, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Geofence
	for rows.Next() {
		var gf domain.Geofence
		if err := rows.Scan(&gf.ID, &gf.VehicleID, &gf.Name, &gf.CenterLat, &gf.CenterLon, &gf.RadiusMeters, &gf.AlertOnEnter, &gf.AlertOnExit, &gf.IsActive); err != nil {
			return nil, err
		}
		results = append(results, gf)
	}
	return results, rows.Err()
}
