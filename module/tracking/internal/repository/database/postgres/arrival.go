package postgres

import (
	"context"
	"database/sql"

	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/domain"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/internal/repository/database"
)

var _ database.ArrivalRepository = (*ArrivalRepo)(nil)

// ArrivalRepo reads stop arrivals recorded by the attendance system.
type ArrivalRepo struct {
	db *sql.DB
}

func NewArrivalRepo(db *sql.DB) *ArrivalRepo {
	return &ArrivalRepo{db: db}
}

func (r *ArrivalRepo) RecentArrivals(ctx context.Context, vehicleID, stopID string, limit int) ([]domain.StopArrival, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT vehicle_id, stop_id, arrived_at, delay_minutes FROM stop_arrivals
		 WHERE vehicle_id = $1 AND stop_id = $2 ORDER BY arrived_at DESC LIMIT $3`,
		vehicleID, stopID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.StopArrival
	for rows.Next() {
		var a domain.StopArrival
		if err := rows.Scan(&a.VehicleID, &a.StopID, &a.ArrivedAt, &a.DelayMinutes); err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}
