// Package booking holds the admissibility rules for candidate reservations.
// The same predicate runs client-side before staging a confirmation and
// server-side in the sandbox backend at commit time.
package booking

import (
	"errors"
	"time"
)

var (
	// ErrEmptyRange is returned for zero-length or inverted candidate
	// windows. Callers must reject these before asking about conflicts.
	ErrEmptyRange = errors.New("end must be after start")
)

// Reservation is the minimal view of an existing booking the conflict rule
// needs. Cancelled reservations never appear in the set, so they never count.
type Reservation struct {
	ResourceID string
	SubjectID  string
	Start      time.Time
	End        time.Time
}

// Overlaps reports whether two half-open intervals intersect. Touching
// endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// ValidateRange rejects empty or inverted candidate windows.
func ValidateRange(start, end time.Time) error {
	if !end.After(start) {
		return ErrEmptyRange
	}
	return nil
}

// Conflicts reports whether a candidate window is inadmissible against the
// current reservation set. A reservation blocks the candidate when it
// overlaps AND is either on the same resource or held by the same subject:
// one subject may not hold two simultaneous reservations even across
// resources. Pure predicate, no side effects.
func Conflicts(existing []Reservation, resourceID, subjectID string, start, end time.Time) bool {
	for _, r := range existing {
		if r.ResourceID != resourceID && r.SubjectID != subjectID {
			continue
		}
		if Overlaps(r.Start, r.End, start, end) {
			return true
		}
	}
	return false
}
