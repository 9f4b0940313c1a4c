package usecase

import (
	"strings"

	"github.com/journey-microservice/internal/domain"
)

// Remark types that mark a notice as journey-affecting.
var affectingRemarkTypes = map[string]bool{
	"warning": true,
	"status":  true,
	"hint":    true,
}

// Realtime-disruption codes that mark a notice as journey-affecting
// regardless of its type.
var disruptionCodes = map[string]bool{
	"cancelled":        true,
	"delayed":          true,
	"platform-changed": true,
}

const genericRemarkText = "Service notice"

// ClassifyRemark turns a raw service notice into a severity-tagged,
// journey-affecting/non-affecting warning. Remarks without a type carry
// no classifiable signal and yield nil.
func ClassifyRemark(r domain.RawRemark) *domain.ParsedRemark {
	if r.Type == "" {
		return nil
	}

	remarkType := strings.ToLower(r.Type)
	code := strings.ToLower(r.Code)

	return &domain.ParsedRemark{
		Text:           remarkText(r),
		Severity:       remarkSeverity(remarkType, code),
		AffectsJourney: affectingRemarkTypes[remarkType] || disruptionCodes[code],
	}
}

func remarkSeverity(remarkType, code string) domain.Severity {
	switch {
	case strings.Contains(remarkType, "warning") || strings.Contains(code, "cancelled"):
		return domain.SeverityCritical
	case strings.Contains(remarkType, "hint") || strings.Contains(code, "delayed"):
		return domain.SeverityWarning
	default:
		return domain.SeverityInfo
	}
}

// remarkText prefers the short summary over the full text, with a
// generic placeholder as the last resort.
func remarkText(r domain.RawRemark) string {
	if s := strings.TrimSpace(r.Summary); s != "" {
		return s
	}
	if t := strings.TrimSpace(r.Text); t != "" {
		return t
	}
	return genericRemarkText
}
