// Package availability keeps the published per-date availability of the
// selected resource consistent under superseding refreshes. Requests are
// identified by a monotonically increasing token; a response publishes only
// if its token is still the latest and the resource selection has not moved.
// In-flight I/O is never aborted, its result is simply dropped when stale.
//
// The synchronizer is driven from a single update loop and does no locking
// of its own.
package availability

import (
	"github.com/maltehallstrom/boka/internal/constants"
	"github.com/maltehallstrom/boka/internal/models"
)

// Token identifies one refresh request.
type Token uint64

// Snapshot is one atomically-published availability window: either per-date
// slot lists (time-slot resources) or per-date free flags (full-day
// resources). A snapshot is replaced wholesale, never merged, so availability
// computed against a stale booking set can never leak through.
type Snapshot struct {
	ResourceID  string
	SlotsByDate map[string][]models.Slot
	DayFree     map[string]bool
}

// Synchronizer tracks the latest request token and the currently published
// snapshot for the selected resource.
type Synchronizer struct {
	latest     Token
	resourceID string
	loading    bool
	current    Snapshot
}

// New returns an empty synchronizer.
func New() *Synchronizer {
	return &Synchronizer{}
}

// Begin starts a refresh for resourceID: it advances the token (invalidating
// every outstanding request), records the selection, and raises the loading
// flag. The returned token must accompany the eventual Publish.
func (s *Synchronizer) Begin(resourceID string) Token {
	s.latest++
	s.resourceID = resourceID
	s.loading = true
	return s.latest
}

// Publish installs a completed snapshot. It reports false, leaving published
// state untouched, when the token has been superseded or the resource
// selection changed while the request was in flight.
func (s *Synchronizer) Publish(t Token, snap Snapshot) bool {
	if t != s.latest || snap.ResourceID != s.resourceID {
		return false
	}
	s.current = snap
	s.loading = false
	return true
}

// Fail resolves a request without publishing. Loading clears only if the
// token is still current, so a superseding refresh keeps its own flag.
func (s *Synchronizer) Fail(t Token) bool {
	if t != s.latest {
		return false
	}
	s.loading = false
	return true
}

// Invalidate advances the token and clears the published snapshot. Selecting
// a different resource or logging out goes through here; any response that
// later resolves against an older token is dropped by Publish.
func (s *Synchronizer) Invalidate() {
	s.latest++
	s.loading = false
	s.current = Snapshot{}
}

// Loading reports whether a refresh is outstanding. Refreshes are re-entrant;
// the flag only drives the spinner, never gates input.
func (s *Synchronizer) Loading() bool { return s.loading }

// Current returns the published snapshot. The zero Snapshot means nothing is
// published.
func (s *Synchronizer) Current() Snapshot { return s.current }

// SlotsFor returns the published slots of one date.
func (s *Synchronizer) SlotsFor(date string) []models.Slot {
	return s.current.SlotsByDate[date]
}

// SlotBooked reports whether a slot is taken. Unknown slots count as booked
// so the UI never offers what the backend has not confirmed.
func (s *Synchronizer) SlotBooked(date, slotID string) bool {
	for _, slot := range s.current.SlotsByDate[date] {
		if slot.ID == slotID {
			return slot.IsBooked
		}
	}
	return true
}

// SlotPast reports whether a slot's window has already closed.
func (s *Synchronizer) SlotPast(date, slotID string) bool {
	for _, slot := range s.current.SlotsByDate[date] {
		if slot.ID == slotID {
			return slot.IsPast
		}
	}
	return false
}

// DayBooked reports whether a full-day resource is taken on a date. Dates
// outside the published window count as unknown, not booked.
func (s *Synchronizer) DayBooked(date string) bool {
	free, ok := s.current.DayFree[date]
	return ok && !free
}

// DayBookable reports whether a full-day resource can be reserved on a date.
func (s *Synchronizer) DayBookable(date string) bool {
	free, ok := s.current.DayFree[date]
	return ok && free
}

// BuildDaySnapshot derives the per-date free flags of a full-day resource
// from its synthetic single-slot availability: a date is bookable iff the
// full-day slot exists, is not booked, and is not past.
func BuildDaySnapshot(resourceID string, slotsByDate map[string][]models.Slot) Snapshot {
	free := make(map[string]bool, len(slotsByDate))
	for date, slots := range slotsByDate {
		free[date] = len(slots) > 0 && !slots[0].IsBooked && !slots[0].IsPast
	}
	return Snapshot{ResourceID: resourceID, DayFree: free}
}

// BuildSlotSnapshot wraps per-date slot lists of a time-slot resource.
func BuildSlotSnapshot(resourceID string, slotsByDate map[string][]models.Slot) Snapshot {
	return Snapshot{ResourceID: resourceID, SlotsByDate: slotsByDate}
}

// DatesFor returns the dates a refresh must cover: the visible viewport for
// time-slot resources, the whole horizon for full-day ones.
func DatesFor(bookingType constants.BookingType, days []string, viewportStart int) []string {
	if bookingType == constants.BookingFullDay {
		out := make([]string, len(days))
		copy(out, days)
		return out
	}
	end := viewportStart + constants.VisibleDays
	if end > len(days) {
		end = len(days)
	}
	if viewportStart < 0 || viewportStart > len(days) {
		return nil
	}
	out := make([]string, end-viewportStart)
	copy(out, days[viewportStart:end])
	return out
}
