package errors

import (
	"math"
	"strings"
	"unicode"
)

// maxIDLength bounds node and link identifiers read from scenario files.
const maxIDLength = 256

// ValidateID validates a node or link identifier.
// The kind is only used to build the message ("node", "link", ...).
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - No surrounding whitespace
//   - Maximum length of 256 characters
func ValidateID(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "%s id cannot be empty", kind)
	}

	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "%s id too long (max %d characters)", kind, maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s id contains invalid control characters", kind)
		}
	}

	if strings.TrimSpace(id) != id {
		return New(ErrCodeInvalidInput, "%s id %q has surrounding whitespace", kind, id)
	}

	return nil
}

// ValidatePitch validates a row or column pitch in pixels.
// Pitches must be finite, positive, and no smaller than the snap unit.
func ValidatePitch(name string, pitch, unit float64) error {
	if math.IsNaN(pitch) || math.IsInf(pitch, 0) {
		return New(ErrCodeInvalidInput, "%s must be a finite number", name)
	}
	if pitch < unit {
		return New(ErrCodeInvalidInput, "%s must be at least %g (got %g)", name, unit, pitch)
	}
	return nil
}
