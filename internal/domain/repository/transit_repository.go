package repository

import (
	"context"

	"github.com/journey-microservice/internal/domain"
)

// TransitRepository performs a single journey-search attempt against the
// transport API. Retrying, caching and coalescing live above it in the
// fetcher; errors come back classified as pkg/errors AppErrors.
type TransitRepository interface {
	// SearchJourneys issues one conditional GET for the request. A
	// non-empty etag is sent as If-None-Match; a 304 comes back as an
	// APIResult with NotModified set and no body.
	SearchJourneys(ctx context.Context, req domain.JourneySearchRequest, etag string) (*domain.APIResult, error)
}
