package stops

import (
	"context"
	"fmt"

	"github.com/passengerflow-console/internal/common/db"
	"github.com/passengerflow-console/pkg/passengerflow/models"
)

// PostgresSource reads stops straight from the backend database
type PostgresSource struct {
	db *db.DB
}

func NewPostgresSource(database *db.DB) *PostgresSource {
	return &PostgresSource{db: database}
}

func (s *PostgresSource) Stops(ctx context.Context) ([]models.Stop, error) {
	query := `
		SELECT s.id, s.name, r.name, s.lat, s.lon
		FROM stops s
		JOIN routes r ON r.id = s.route_id
		ORDER BY s.id
	`

	rows, err := s.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying stops: %w", err)
	}
	defer rows.Close()

	var result []models.Stop
	for rows.Next() {
		var stop models.Stop
		if err := rows.Scan(&stop.ID, &stop.Name, &stop.RouteName, &stop.Lat, &stop.Lon); err != nil {
			return nil, fmt.Errorf("scanning stop: %w", err)
		}
		result = append(result, stop)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stops: %w", err)
	}

	s.db.Logger().Debug("Stops loaded from database", "count", len(result))
	return result, nil
}
