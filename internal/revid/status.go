package revid

import (
	"strings"

	"github.com/scriptreel/scriptreel-api/internal/video"
)

// statusVocabulary is the fixed mapping from the provider's raw status
// strings to canonical video states. Matching is case-insensitive and exact.
var statusVocabulary = map[string]video.Status{
	"pending":     video.StatusPending,
	"processing":  video.StatusBuilding,
	"in_progress": video.StatusBuilding,
	"generating":  video.StatusBuilding,
	"building":    video.StatusBuilding,
	"rendering":   video.StatusBuilding,
	"completed":   video.StatusReady,
	"done":        video.StatusReady,
	"ready":       video.StatusReady,
	"failed":      video.StatusFailed,
	"error":       video.StatusFailed,
}

// MapStatus translates a raw provider status into the canonical vocabulary.
// Unrecognized tokens map to building: unknown transient provider wording
// must never be misreported as terminal.
func MapStatus(raw string) video.Status {
	if s, ok := statusVocabulary[strings.ToLower(raw)]; ok {
		return s
	}
	return video.StatusBuilding
}

// EstimateProgress derives a progress percentage for a raw status. An
// explicit numeric progress wins verbatim, clamped to [0,100]. Otherwise
// the estimate comes from a fixed bucket per lifecycle phase, and 50 when
// the status text fits no bucket. The estimate is deterministic: two calls
// with the same inputs always agree.
func EstimateProgress(raw string, explicit *float64) int {
	if explicit != nil {
		p := int(*explicit)
		if p < 0 {
			return 0
		}
		if p > 100 {
			return 100
		}
		return p
	}

	status := strings.ToLower(raw)
	switch {
	case strings.Contains(status, "pending"), strings.Contains(status, "queued"):
		return 10
	case strings.Contains(status, "generating"):
		return 30
	case strings.Contains(status, "rendering"):
		return 70
	case strings.Contains(status, "completed"), strings.Contains(status, "done"), strings.Contains(status, "ready"):
		return 100
	case strings.Contains(status, "failed"), strings.Contains(status, "error"):
		return 0
	default:
		return 50
	}
}

// Normalize translates a raw provider payload into a provider-neutral
// status result. A payload without a usable status is treated as still
// building rather than an error, so ambiguous webhook bodies never turn
// into provider retry storms.
func Normalize(p StatusPayload) video.StatusResult {
	return video.StatusResult{
		Status:       MapStatus(p.Status),
		Progress:     EstimateProgress(p.Status, p.Progress),
		URL:          p.ResultURL(),
		ErrorMessage: p.Error,
	}
}
