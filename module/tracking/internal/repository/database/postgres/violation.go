package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/domain"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/internal/repository/database"
)

var _ database.ViolationRepository = (*ViolationRepo)(nil)

type ViolationRepo struct {
	db *sql.DB
}

func NewViolationRepo(db *sql.DB) *ViolationRepo {
	return &ViolationRepo{db: db}
}

func (r *ViolationRepo) Insert(ctx context.Context, v *domain.SpeedViolation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO speed_violations (id, vehicle_id, driver_id, current_speed, speed_limit, latitude, longitude, severity, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		v.ID, v.VehicleID, nullableString(v.DriverID), v.CurrentSpeed, v.SpeedLimit, v.Latitude, v.Longitude, string(v.Severity), v.Timestamp,
	)
	return err
}

func (r *ViolationRepo) CountInWindow(ctx context.Context, vehicleID string, start, end time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM speed_violations WHERE vehicle_id = $1 AND timestamp >= $2 AND timestamp <= $3`,
		vehicleID, start, end,
	).Scan(&count)
	return count, err
}

func (r *ViolationRepo) List(ctx context.Context, q *domain.ViolationQuery) ([]domain.SpeedViolation, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, vehicle_id, driver_id, current_speed, speed_limit, latitude, longitude, severity, timestamp
		 FROM speed_violations
		 WHERE ($1 = '' OR vehicle_id = $1)
		   AND ($2 = '' OR severity = $2)
		   AND ($3::timestamptz IS NULL OR timestamp >= $3)
		   AND ($4::timestamptz IS NULL OR timestamp <= $4)
		 ORDER BY timestamp DESC LIMIT $5 OFFSET $6`,
		q.VehicleID, string(q.Severity), nullableTime(q.Start), nullableTime(q.End), limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.SpeedViolation
	for rows.Next() {
		var v domain.SpeedViolation
		var driverID sql.NullString
		if err := rows.Scan(&v.ID, &v.VehicleID, &driverID, &v.CurrentSpeed, &v.SpeedLimit, &v.Latitude, &v.Longitude, &v.Severity, &v.Timestamp); err != nil {
			return nil, err
		}
		v.DriverID = driverID.String
		results = append(results, v)
	}
	return results, rows.Err()
}
