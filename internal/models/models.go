package models

import (
	"time"

	"github.com/maltehallstrom/boka/internal/constants"
	"github.com/maltehallstrom/boka/internal/utils"
)

// Resource is a bookable asset (laundry machine, guest unit). Resources are
// immutable within a session; a reload replaces the whole set.
type Resource struct {
	ID             string
	Name           string
	BookingType    constants.BookingType
	MaxAdvanceDays int
	MinAdvanceDays int
	PriceUnits     int
	IsBillable     bool
}

// Slot is a derived availability entry, regenerated on every fetch and never
// mutated in place. Its ID is the wall-clock range label, unique within a
// date for a given resource.
type Slot struct {
	ID        string
	StartTime time.Time
	EndTime   time.Time
	IsBooked  bool
	IsPast    bool
}

// Booking is a committed reservation as reported by the backend. The
// canonical list is always re-fetched after a mutation rather than patched
// locally.
type Booking struct {
	ID           string
	ResourceID   string
	ResourceName string
	StartTime    time.Time
	EndTime      time.Time
	Date         string
	SlotLabel    string
	BookingType  constants.BookingType
	PriceUnits   int
}

// ResourceRecord is the loosely-shaped wire form of a resource.
type ResourceRecord struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	BookingType   string `json:"booking_type"`
	MaxFutureDays *int   `json:"max_future_days"`
	MinFutureDays *int   `json:"min_future_days"`
	PriceCents    *int   `json:"price_cents"`
	IsBillable    bool   `json:"is_billable"`
}

// BookingRecord is the loosely-shaped wire form of a booking.
type BookingRecord struct {
	ID           string    `json:"id"`
	ResourceID   string    `json:"resource_id"`
	ResourceName string    `json:"resource_name"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	BookingType  string    `json:"booking_type"`
	PriceCents   int       `json:"price_cents"`
}

// SlotRecord is the loosely-shaped wire form of an availability slot.
type SlotRecord struct {
	ResourceID string    `json:"resource_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	IsBooked   bool      `json:"is_booked"`
	IsPast     bool      `json:"is_past"`
}

func normalizeBookingType(raw string) constants.BookingType {
	if constants.BookingType(raw) == constants.BookingFullDay {
		return constants.BookingFullDay
	}
	return constants.BookingTimeSlot
}

// NormalizeResource maps a wire record into the canonical Resource.
// Missing horizon fields fall back to the defaults; prices arrive in minor
// units and are rounded to whole display units.
func NormalizeResource(rec ResourceRecord) Resource {
	r := Resource{
		ID:             rec.ID,
		Name:           rec.Name,
		BookingType:    normalizeBookingType(rec.BookingType),
		MaxAdvanceDays: constants.DefaultAdvanceDays,
		IsBillable:     rec.IsBillable,
	}
	if rec.MaxFutureDays != nil && *rec.MaxFutureDays >= 0 {
		r.MaxAdvanceDays = *rec.MaxFutureDays
	}
	if rec.MinFutureDays != nil && *rec.MinFutureDays >= 0 {
		r.MinAdvanceDays = *rec.MinFutureDays
	}
	if rec.PriceCents != nil && *rec.PriceCents > 0 {
		r.PriceUnits = (*rec.PriceCents + 50) / 100
	}
	return r
}

// NormalizeResources maps a wire resource list into canonical form.
func NormalizeResources(recs []ResourceRecord) []Resource {
	out := make([]Resource, 0, len(recs))
	for _, rec := range recs {
		out = append(out, NormalizeResource(rec))
	}
	return out
}

// NormalizeBooking maps a wire record into the canonical Booking. The date is
// derived from the start time; time-slot bookings get a wall-clock label,
// full-day bookings none.
func NormalizeBooking(rec BookingRecord) Booking {
	b := Booking{
		ID:           rec.ID,
		ResourceID:   rec.ResourceID,
		ResourceName: rec.ResourceName,
		StartTime:    rec.StartTime,
		EndTime:      rec.EndTime,
		Date:         utils.DateOf(rec.StartTime),
		BookingType:  normalizeBookingType(rec.BookingType),
	}
	if b.BookingType == constants.BookingTimeSlot {
		b.SlotLabel = utils.FormatTimeRange(rec.StartTime, rec.EndTime)
	}
	if rec.PriceCents > 0 {
		b.PriceUnits = (rec.PriceCents + 50) / 100
	}
	return b
}

// NormalizeBookings maps a wire booking list into canonical form.
func NormalizeBookings(recs []BookingRecord) []Booking {
	out := make([]Booking, 0, len(recs))
	for _, rec := range recs {
		out = append(out, NormalizeBooking(rec))
	}
	return out
}

// NormalizeSlot maps a wire record into a Slot keyed by its range label.
func NormalizeSlot(rec SlotRecord) Slot {
	return Slot{
		ID:        utils.FormatTimeRange(rec.StartTime, rec.EndTime),
		StartTime: rec.StartTime,
		EndTime:   rec.EndTime,
		IsBooked:  rec.IsBooked,
		IsPast:    rec.IsPast,
	}
}

// NormalizeSlots maps a wire slot list into canonical form.
func NormalizeSlots(recs []SlotRecord) []Slot {
	out := make([]Slot, 0, len(recs))
	for _, rec := range recs {
		out = append(out, NormalizeSlot(rec))
	}
	return out
}
