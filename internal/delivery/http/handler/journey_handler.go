package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/journey-microservice/internal/pkg/errors"
	"github.com/journey-microservice/internal/pkg/utils"
	"github.com/journey-microservice/internal/pkg/validator"
	"github.com/journey-microservice/internal/usecase"
	"github.com/journey-microservice/internal/usecase/dto"
	"go.uber.org/zap"
)

// JourneyHandler exposes the fetch pipeline to HTTP collaborators.
type JourneyHandler struct {
	journeyUC *usecase.JourneyUseCase
	logger    *zap.Logger
}

// NewJourneyHandler creates a JourneyHandler.
func NewJourneyHandler(journeyUC *usecase.JourneyUseCase, logger *zap.Logger) *JourneyHandler {
	return &JourneyHandler{
		journeyUC: journeyUC,
		logger:    logger,
	}
}

// GetJourneys returns the route's journeys: live, cached-stale, or an
// explicit unavailable state. Recoverable fetch failures never surface
// as HTTP errors.
func (h *JourneyHandler) GetJourneys(c *fiber.Ctx) error {
	routeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.Wrap(err))
	}

	var query dto.JourneysQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.Wrap(err))
	}
	if err := validator.Validate(&query); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.Wrap(err))
	}

	route, err := h.journeyUC.Route(c.Context(), routeID)
	if err != nil {
		return utils.SendError(c, err)
	}

	resultCount := route.ResultCount
	if query.Results > 0 {
		resultCount = query.Results
	}

	result, err := h.journeyUC.FetchJourneys(
		c.Context(),
		route.ID,
		route.Origin,
		route.Destination,
		resultCount,
		parsePriority(query.Priority),
	)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{Total: len(result.Journeys)})
}

// GetBestJourney returns the single best-ranked option for the route.
// An empty body under data means no compliant option exists right now.
func (h *JourneyHandler) GetBestJourney(c *fiber.Ctx) error {
	routeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.Wrap(err))
	}

	best, err := h.journeyUC.BestJourney(c.Context(), routeID)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, best, nil)
}

// GetNextRefresh reports when the OS scheduler should next invoke the
// pipeline for this route.
func (h *JourneyHandler) GetNextRefresh(c *fiber.Ctx) error {
	routeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.Wrap(err))
	}

	next, err := h.journeyUC.NextScheduledRefresh(c.Context(), routeID)
	if err != nil {
		return utils.SendError(c, err)
	}

	resp := dto.NextRefreshResponse{
		RouteID: routeID.String(),
		Manual:  next.IsZero(),
	}
	if !next.IsZero() {
		resp.NextRefresh = &next
	}
	return utils.SendSuccess(c, resp, nil)
}

func parsePriority(s string) usecase.Priority {
	switch s {
	case "critical":
		return usecase.PriorityCritical
	case "high":
		return usecase.PriorityHigh
	case "low":
		return usecase.PriorityLow
	default:
		return usecase.PriorityNormal
	}
}
