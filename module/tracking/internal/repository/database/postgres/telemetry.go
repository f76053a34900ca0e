package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/domain"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/internal/repository/database"
)

var _ database.TelemetryRepository = (*TelemetryRepo)(nil)

type TelemetryRepo struct {
	db *sql.DB
}

func NewTelemetryRepo(db *sql.DB) *TelemetryRepo {
	return &TelemetryRepo{db: db}
}

const sampleColumns = `vehicle_id, latitude, longitude, speed, heading, accuracy, altitude, timestamp, trip_id`

func (r *TelemetryRepo) Insert(ctx context.Context, s *domain.LocationSample) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO location_samples (vehicle_id, latitude, longitude, speed, heading, accuracy, altitude, timestamp, trip_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.VehicleID, s.Latitude, s.Longitude, s.Speed, s.Heading, s.Accuracy, s.Altitude, s.Timestamp, nullableString(s.TripID),
	)
	return err
}

func (r *TelemetryRepo) GetLatest(ctx context.Context, vehicleID string) (*domain.LocationSample, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sampleColumns+` FROM location_samples WHERE vehicle_id = $1 ORDER BY timestamp DESC LIMIT 1`,
		vehicleID,
	)

	s, err := scanSample(row)
	if err == sql.ErrNoRows {
		return nil, domain.NewNotFoundError("location", vehicleID)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *TelemetryRepo) GetHistory(ctx context.Context, q *domain.HistoryQuery) ([]domain.LocationSample, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sampleColumns+` FROM location_samples
		 WHERE ($1 = '' OR vehicle_id = $1)
		   AND ($2 = '' OR trip_id = $2)
		   AND ($3::timestamptz IS NULL OR timestamp >= $3)
		   AND ($4::timestamptz IS NULL OR timestamp <= $4)
		 ORDER BY timestamp ASC LIMIT $5 OFFSET $6`,
		q.VehicleID, q.TripID, nullableTime(q.Start), nullableTime(q.End), limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return collectSamples(rows)
}

func (r *TelemetryRepo) GetSpeedSamples(ctx context.Context, vehicleID string, start, end time.Time) ([]domain.LocationSample, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sampleColumns+` FROM location_samples
		 WHERE vehicle_id = $1 AND speed IS NOT NULL AND timestamp >= $2 AND timestamp <= $3
		 ORDER BY timestamp ASC`,
		vehicleID, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return collectSamples(rows)
}

func (r *TelemetryRepo) GetRange(ctx context.Context, vehicleID string, start, end time.Time) ([]domain.LocationSample, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sampleColumns+` FROM location_samples
		 WHERE vehicle_id = $1 AND timestamp >= $2 AND timestamp <= $3
		 ORDER BY timestamp ASC`,
		vehicleID, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return collectSamples(rows)
}

func (r *TelemetryRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM location_samples WHERE timestamp < $1`, cutoff,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSample(row rowScanner) (*domain.LocationSample, error) {
	var s domain.LocationSample
	var tripID sql.NullString
	if err := row.Scan(&s.VehicleID, &s.Latitude, &s.Longitude, &s.Speed, &s.Heading, &s.Accuracy, &s.Altitude, &s.Timestamp, &tripID); err != nil {
		return nil, err
	}
	s.TripID = tripID.String
	return &s, nil
}

func collectSamples(rows *sql.Rows) ([]domain.LocationSample, error) {
	var results []domain.LocationSample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *s)
	}
	return results, rows.Err()
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
