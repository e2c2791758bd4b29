package utils

import (
	"math"
	"strings"
)

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// DefaultNickname builds the fallback display name for a session that joined
// without one, e.g. "User-a1b2".
func DefaultNickname(sessionID string) string {
	prefix := []rune(sessionID)
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	return "User-" + string(prefix)
}

// NormalizeID trims surrounding whitespace from caller supplied ids.
func NormalizeID(id string) string {
	return strings.TrimSpace(id)
}

// ValidCoordinates reports whether lat/lng are finite WGS84 degrees.
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
