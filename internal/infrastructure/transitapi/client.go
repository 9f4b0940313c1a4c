package transitapi

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/journey-microservice/internal/config"
	"github.com/journey-microservice/internal/domain"
	"github.com/journey-microservice/internal/domain/repository"
	apperrors "github.com/journey-microservice/internal/pkg/errors"
	"go.uber.org/zap"
)

type client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     *zap.Logger
}

// NewClient creates the journey-search client for the transport API.
func NewClient(cfg *config.TransitAPIConfig, logger *zap.Logger) repository.TransitRepository {
	return &client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
}

// SearchJourneys issues one conditional GET against the journeys
// endpoint. It classifies every failure into the pipeline's error
// taxonomy; retry policy lives in the fetcher, not here.
func (c *client) SearchJourneys(
	ctx context.Context,
	req domain.JourneySearchRequest,
	etag string,
) (*domain.APIResult, error) {
	if err := req.Origin.Validate(); err != nil {
		return nil, apperrors.ErrInvalidRequest.Wrap(err)
	}
	if err := req.Destination.Validate(); err != nil {
		return nil, apperrors.ErrInvalidRequest.Wrap(err)
	}

	reqURL := c.baseURL + "/journeys?" + req.QueryValues().Encode()
	if _, err := url.ParseRequestURI(reqURL); err != nil {
		return nil, apperrors.ErrInvalidRequest.Wrap(err)
	}

	c.logger.Debug("Calling journey search",
		zap.String("url", reqURL),
		zap.Bool("conditional", etag != ""))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperrors.ErrInvalidRequest.Wrap(err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if etag != "" {
		httpReq.Header.Set("If-None-Match", etag)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("Journey search request failed", zap.Error(err))
		return nil, apperrors.Network(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		c.logger.Debug("Journey search not modified", zap.String("etag", etag))
		return &domain.APIResult{
			NotModified:  true,
			ETag:         resp.Header.Get("ETag"),
			CacheControl: resp.Header.Get("Cache-Control"),
		}, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		c.logger.Warn("Journey search rate limited",
			zap.Intp("retry_after_seconds", retryAfter))
		return nil, apperrors.RateLimited(retryAfter)

	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("Journey search returned error status",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, apperrors.HTTPStatus(resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Network(err)
	}
	if len(body) == 0 {
		return nil, apperrors.DecodingFailed(io.ErrUnexpectedEOF)
	}

	return &domain.APIResult{
		Body:         body,
		ETag:         resp.Header.Get("ETag"),
		CacheControl: resp.Header.Get("Cache-Control"),
	}, nil
}

// parseRetryAfter handles the delta-seconds form of Retry-After. The
// HTTP-date form is rare on this API and treated as absent.
func parseRetryAfter(header string) *int {
	if header == "" {
		return nil
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return nil
	}
	return &secs
}
