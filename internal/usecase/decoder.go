package usecase

import (
	"time"

	"github.com/journey-microservice/internal/domain"
	"go.uber.org/zap"
)

// Decoder converts raw API payloads into normalized journey options.
// Decoding is best-effort: a candidate that fails required-field checks
// is dropped and logged, never fatal for the batch. The decoder itself
// performs no I/O.
type Decoder struct {
	logger *zap.Logger
}

// NewDecoder creates a journey decoder.
func NewDecoder(logger *zap.Logger) *Decoder {
	return &Decoder{logger: logger}
}

// Decode normalizes every decodable candidate in the payload.
func (d *Decoder) Decode(payload *domain.JourneyPayload) []domain.JourneyOption {
	if payload == nil || len(payload.Journeys) == 0 {
		return nil
	}

	options := make([]domain.JourneyOption, 0, len(payload.Journeys))
	for i, raw := range payload.Journeys {
		option, ok := d.decodeJourney(raw)
		if !ok {
			d.logger.Debug("Dropped undecodable journey candidate", zap.Int("index", i))
			continue
		}
		options = append(options, option)
	}
	return options
}

func (d *Decoder) decodeJourney(raw domain.RawJourney) (domain.JourneyOption, bool) {
	if len(raw.Legs) == 0 {
		return domain.JourneyOption{}, false
	}

	first := &raw.Legs[0]
	last := &raw.Legs[len(raw.Legs)-1]

	departure := resolveDeparture(first)
	arrival := resolveArrival(last)
	if departure == nil || arrival == nil || !arrival.After(*departure) {
		return domain.JourneyOption{}, false
	}

	option := domain.JourneyOption{
		Departure:    *departure,
		Arrival:      *arrival,
		TotalMinutes: int(arrival.Sub(*departure) / time.Minute),
		DelayMinutes: delayMinutes(first.DepartureDelay),
		Platform:     resolvePlatform(raw.Legs),
		RefreshToken: raw.RefreshToken,
		Warnings:     d.collectWarnings(raw),
		Legs:         make([]domain.JourneyLeg, 0, len(raw.Legs)),
	}
	if first.Line != nil {
		option.LineName = first.Line.Name
	}

	for i := range raw.Legs {
		option.Legs = append(option.Legs, decodeLeg(&raw.Legs[i]))
	}

	return option, true
}

func decodeLeg(leg *domain.RawLeg) domain.JourneyLeg {
	decoded := domain.JourneyLeg{
		Departure:         timeOrZero(resolveDeparture(leg)),
		Arrival:           timeOrZero(resolveArrival(leg)),
		PlannedDeparture:  leg.PlannedDeparture,
		PlannedArrival:    leg.PlannedArrival,
		Platform:          resolveLegPlatform(leg),
		DelayMinutes:      delayMinutes(leg.DepartureDelay),
		IntermediateStops: intermediateStops(leg),
	}
	if leg.Origin != nil {
		decoded.OriginID = leg.Origin.ID
		decoded.OriginName = leg.Origin.Name
	}
	if leg.Destination != nil {
		decoded.DestinationID = leg.Destination.ID
		decoded.DestinationName = leg.Destination.Name
	}
	if leg.Line != nil {
		decoded.LineName = leg.Line.Name
	}
	return decoded
}

// resolveDeparture prefers the realtime departure over the planned one.
func resolveDeparture(leg *domain.RawLeg) *time.Time {
	if leg.Departure != nil {
		return leg.Departure
	}
	return leg.PlannedDeparture
}

// resolveArrival prefers the realtime arrival over the planned one.
func resolveArrival(leg *domain.RawLeg) *time.Time {
	if leg.Arrival != nil {
		return leg.Arrival
	}
	return leg.PlannedArrival
}

// resolveLegPlatform resolves one leg's departure platform:
// explicit departure platform, then the origin stop's platform, then the
// leg's generic platform field.
func resolveLegPlatform(leg *domain.RawLeg) string {
	if leg.DeparturePlatform != "" {
		return leg.DeparturePlatform
	}
	if leg.PlannedDeparturePlatform != "" {
		return leg.PlannedDeparturePlatform
	}
	if leg.Origin != nil && leg.Origin.Platform != "" {
		return leg.Origin.Platform
	}
	return leg.Platform
}

// resolvePlatform resolves the journey-level platform: the first leg's
// resolution chain, then the first non-empty platform found scanning
// the remaining legs in order.
func resolvePlatform(legs []domain.RawLeg) string {
	if p := resolveLegPlatform(&legs[0]); p != "" {
		return p
	}
	for i := 1; i < len(legs); i++ {
		if p := resolveLegPlatform(&legs[i]); p != "" {
			return p
		}
	}
	return ""
}

// resolveStopoverPlatform resolves an intermediate stop's platform:
// the stopover's own platform, then the leg's, then the stop record's.
func resolveStopoverPlatform(so *domain.RawStopover, leg *domain.RawLeg) string {
	if so.Platform != "" {
		return so.Platform
	}
	if leg.Platform != "" {
		return leg.Platform
	}
	if so.Stop != nil {
		return so.Stop.Platform
	}
	return ""
}

// intermediateStops returns the leg's stopovers with entries matching
// the leg's own origin or destination (by name and id) removed.
func intermediateStops(leg *domain.RawLeg) []domain.StopOver {
	if len(leg.Stopovers) == 0 {
		return nil
	}

	stops := make([]domain.StopOver, 0, len(leg.Stopovers))
	for i := range leg.Stopovers {
		so := &leg.Stopovers[i]
		if so.Stop == nil {
			continue
		}
		if matchesStop(so.Stop, leg.Origin) || matchesStop(so.Stop, leg.Destination) {
			continue
		}
		stops = append(stops, domain.StopOver{
			StopID:    so.Stop.ID,
			StopName:  so.Stop.Name,
			Platform:  resolveStopoverPlatform(so, leg),
			Arrival:   firstTime(so.Arrival, so.PlannedArrival),
			Departure: firstTime(so.Departure, so.PlannedDeparture),
		})
	}
	if len(stops) == 0 {
		return nil
	}
	return stops
}

// matchesStop requires both name and id to match, so two distinct stops
// sharing a name are never conflated.
func matchesStop(a, b *domain.RawStop) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Name == b.Name && a.ID == b.ID
}

// collectWarnings classifies every remark across the journey and its
// legs, keeps the journey-affecting ones and de-duplicates by display
// text preserving first-seen order.
func (d *Decoder) collectWarnings(raw domain.RawJourney) []domain.Warning {
	var warnings []domain.Warning
	seen := make(map[string]bool)

	appendRemarks := func(remarks []domain.RawRemark) {
		for _, r := range remarks {
			parsed := ClassifyRemark(r)
			if parsed == nil || !parsed.AffectsJourney || seen[parsed.Text] {
				continue
			}
			seen[parsed.Text] = true
			warnings = append(warnings, domain.Warning{
				Text:     parsed.Text,
				Severity: parsed.Severity,
			})
		}
	}

	appendRemarks(raw.Remarks)
	for i := range raw.Legs {
		appendRemarks(raw.Legs[i].Remarks)
	}
	return warnings
}

// delayMinutes converts a delay in seconds to whole minutes, truncating
// toward zero. A missing delay field stays nil so "no delay data" is
// distinguishable from "zero delay".
func delayMinutes(delaySeconds *int) *int {
	if delaySeconds == nil {
		return nil
	}
	mins := *delaySeconds / 60
	return &mins
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func firstTime(candidates ...*time.Time) *time.Time {
	for _, t := range candidates {
		if t != nil {
			return t
		}
	}
	return nil
}
