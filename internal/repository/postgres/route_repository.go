package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/journey-microservice/internal/domain"
	"github.com/journey-microservice/internal/domain/repository"
	apperrors "github.com/journey-microservice/internal/pkg/errors"
	"go.uber.org/zap"
)

type routeRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewRouteRepository creates the read-only view over the tracked-routes
// table owned by the route management service.
func NewRouteRepository(db *DB) repository.RouteRepository {
	return &routeRepository{
		db:     db,
		logger: db.logger,
	}
}

// routeRow is the flat table shape; places are embedded column groups.
type routeRow struct {
	ID              uuid.UUID `db:"id"`
	OriginID        string    `db:"origin_id"`
	OriginName      string    `db:"origin_name"`
	OriginLat       float64   `db:"origin_lat"`
	OriginLon       float64   `db:"origin_lon"`
	DestinationID   string    `db:"destination_id"`
	DestinationName string    `db:"destination_name"`
	DestinationLat  float64   `db:"destination_lat"`
	DestinationLon  float64   `db:"destination_lon"`
	RefreshInterval int       `db:"refresh_interval"`
	ResultCount     int       `db:"result_count"`
}

const routeColumns = `
	id,
	COALESCE(origin_id, '') AS origin_id,
	COALESCE(origin_name, '') AS origin_name,
	COALESCE(origin_lat, 0) AS origin_lat,
	COALESCE(origin_lon, 0) AS origin_lon,
	COALESCE(destination_id, '') AS destination_id,
	COALESCE(destination_name, '') AS destination_name,
	COALESCE(destination_lat, 0) AS destination_lat,
	COALESCE(destination_lon, 0) AS destination_lon,
	refresh_interval,
	result_count
`

func (r *routeRepository) GetTrackedRoutes(ctx context.Context) ([]domain.Route, error) {
	var rows []routeRow
	query := `SELECT ` + routeColumns + ` FROM tracked_routes ORDER BY created_at`

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		r.logger.Error("Failed to load tracked routes", zap.Error(err))
		return nil, apperrors.ErrDatabaseError.Wrap(fmt.Errorf("select tracked routes: %w", err))
	}

	routes := make([]domain.Route, 0, len(rows))
	for _, row := range rows {
		routes = append(routes, row.toDomain())
	}
	return routes, nil
}

func (r *routeRepository) GetRoute(ctx context.Context, id uuid.UUID) (*domain.Route, error) {
	var row routeRow
	query := `SELECT ` + routeColumns + ` FROM tracked_routes WHERE id = $1`

	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrRouteNotFound
	}
	if err != nil {
		r.logger.Error("Failed to load route",
			zap.String("route_id", id.String()), zap.Error(err))
		return nil, apperrors.ErrDatabaseError.Wrap(fmt.Errorf("select route: %w", err))
	}

	route := row.toDomain()
	return &route, nil
}

func (row routeRow) toDomain() domain.Route {
	return domain.Route{
		ID: row.ID,
		Origin: domain.Place{
			ID:   row.OriginID,
			Name: row.OriginName,
			Lat:  row.OriginLat,
			Lon:  row.OriginLon,
		},
		Destination: domain.Place{
			ID:   row.DestinationID,
			Name: row.DestinationName,
			Lat:  row.DestinationLat,
			Lon:  row.DestinationLon,
		},
		Interval:    domain.RefreshInterval(row.RefreshInterval),
		ResultCount: row.ResultCount,
	}
}
