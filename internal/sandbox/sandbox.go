// Package sandbox is an in-process backend implementing the api.Client
// contract against a local sqlite database. It exists for demo mode and for
// exercising the workflow without a network: same availability shapes, same
// overlap rejection, same error taxonomy as the real backend.
package sandbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/maltehallstrom/boka/internal/api"
	"github.com/maltehallstrom/boka/internal/booking"
	"github.com/maltehallstrom/boka/internal/constants"
	"github.com/maltehallstrom/boka/internal/models"
	"github.com/maltehallstrom/boka/internal/utils"
)

const (
	slotStartHour   = 6
	slotEndHour     = 22
	slotDurationMin = 60
)

const schema = `
CREATE TABLE IF NOT EXISTS resources (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	booking_type TEXT NOT NULL,
	max_future_days INTEGER NOT NULL,
	min_future_days INTEGER NOT NULL DEFAULT 0,
	price_cents INTEGER NOT NULL DEFAULT 0,
	is_billable INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS users (
	apartment_id TEXT PRIMARY KEY,
	secret TEXT NOT NULL DEFAULT '',
	tag_uid TEXT NOT NULL DEFAULT '',
	active INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS bookings (
	id TEXT PRIMARY KEY,
	apartment_id TEXT NOT NULL,
	resource_id TEXT NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	is_billable INTEGER NOT NULL DEFAULT 0
);
`

// Backend is a sqlite-backed stand-in for the booking backend. Not safe for
// concurrent use beyond what database/sql provides; the kiosk drives it from
// one update loop.
type Backend struct {
	db      *sql.DB
	subject string
	now     func() time.Time
}

// Open creates or opens a sandbox database at path (":memory:" works) and
// seeds demo data when the resource table is empty.
func Open(path string) (*Backend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sandbox database: %w", err)
	}
	b := &Backend{db: db, now: time.Now}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sandbox schema: %w", err)
	}
	if err := b.seed(); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

// Close releases the underlying database.
func (b *Backend) Close() error { return b.db.Close() }

// SetClock overrides the time source. Tests use this to pin "past" slots.
func (b *Backend) SetClock(now func() time.Time) { b.now = now }

func (b *Backend) seed() error {
	var count int
	if err := b.db.QueryRow("SELECT count(*) FROM resources").Scan(&count); err != nil {
		return fmt.Errorf("count resources: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := b.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	resources := []struct {
		id, name, bookingType string
		maxDays, priceCents   int
		billable              bool
	}{
		{"laundry-1", "Tvättstuga 1", string(constants.BookingTimeSlot), 14, 0, false},
		{"laundry-2", "Tvättstuga 2", string(constants.BookingFullDay), 30, 0, false},
		{"guest-apt", "Gästlägenhet", string(constants.BookingFullDay), 90, 25000, true},
	}
	for _, r := range resources {
		billable := 0
		if r.billable {
			billable = 1
		}
		_, err := tx.Exec(
			"INSERT INTO resources (id, name, booking_type, max_future_days, min_future_days, price_cents, is_billable) VALUES (?, ?, ?, ?, 0, ?, ?)",
			r.id, r.name, r.bookingType, r.maxDays, r.priceCents, billable,
		)
		if err != nil {
			return fmt.Errorf("seed resource %s: %w", r.id, err)
		}
	}

	users := []struct{ apartment, secret, tag string }{
		{"1001", "1234", "UID123"},
		{"1002", "", "UID456"},
	}
	for _, u := range users {
		if _, err := tx.Exec(
			"INSERT INTO users (apartment_id, secret, tag_uid, active) VALUES (?, ?, ?, 1)",
			u.apartment, u.secret, u.tag,
		); err != nil {
			return fmt.Errorf("seed user %s: %w", u.apartment, err)
		}
	}

	return tx.Commit()
}

func (b *Backend) reservations(ctx context.Context) ([]booking.Reservation, error) {
	rows, err := b.db.QueryContext(ctx, "SELECT resource_id, apartment_id, start_time, end_time FROM bookings")
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	defer rows.Close()

	var out []booking.Reservation
	for rows.Next() {
		var r booking.Reservation
		var startRaw, endRaw string
		if err := rows.Scan(&r.ResourceID, &r.SubjectID, &startRaw, &endRaw); err != nil {
			return nil, err
		}
		start, err := time.Parse(time.RFC3339, startRaw)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, endRaw)
		if err != nil {
			continue
		}
		r.Start, r.End = start, end
		out = append(out, r)
	}
	return out, rows.Err()
}

func (b *Backend) AuthenticateToken(ctx context.Context, tag string) (string, error) {
	var apartment string
	var active int
	err := b.db.QueryRowContext(ctx,
		"SELECT apartment_id, active FROM users WHERE tag_uid = ?", tag,
	).Scan(&apartment, &active)
	if err == sql.ErrNoRows {
		return "", api.ErrUnauthorized
	}
	if err != nil {
		return "", &api.TransientError{Op: "rfid-login", Err: err}
	}
	if active == 0 {
		return "", api.ErrUnauthorized
	}
	b.subject = apartment
	return apartment, nil
}

func (b *Backend) AuthenticateCredential(ctx context.Context, subjectID, secret string) (string, error) {
	var stored string
	err := b.db.QueryRowContext(ctx,
		"SELECT secret FROM users WHERE apartment_id = ? AND active = 1", subjectID,
	).Scan(&stored)
	if err == sql.ErrNoRows {
		return "", api.ErrUnauthorized
	}
	if err != nil {
		return "", &api.TransientError{Op: "mobile-login", Err: err}
	}
	if stored == "" || stored != secret {
		return "", api.ErrUnauthorized
	}
	b.subject = subjectID
	return subjectID, nil
}

func (b *Backend) ChangeSecret(ctx context.Context, newSecret string) error {
	if b.subject == "" {
		return api.ErrSessionExpired
	}
	if len(newSecret) < constants.MinSecretLength {
		return fmt.Errorf("secret must be at least %d characters", constants.MinSecretLength)
	}
	_, err := b.db.ExecContext(ctx,
		"UPDATE users SET secret = ? WHERE apartment_id = ?", newSecret, b.subject)
	if err != nil {
		return &api.TransientError{Op: "mobile-password", Err: err}
	}
	return nil
}

func (b *Backend) ListResources(ctx context.Context) ([]models.Resource, error) {
	rows, err := b.db.QueryContext(ctx,
		"SELECT id, name, booking_type, max_future_days, min_future_days, price_cents, is_billable FROM resources ORDER BY id")
	if err != nil {
		return nil, &api.TransientError{Op: "resources", Err: err}
	}
	defer rows.Close()

	var recs []models.ResourceRecord
	for rows.Next() {
		var rec models.ResourceRecord
		var maxDays, minDays, priceCents, billable int
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.BookingType, &maxDays, &minDays, &priceCents, &billable); err != nil {
			return nil, &api.TransientError{Op: "resources", Err: err}
		}
		rec.MaxFutureDays = &maxDays
		rec.MinFutureDays = &minDays
		rec.PriceCents = &priceCents
		rec.IsBillable = billable != 0
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &api.TransientError{Op: "resources", Err: err}
	}
	return models.NormalizeResources(recs), nil
}

func (b *Backend) ListBookings(ctx context.Context, subjectID string) ([]models.Booking, error) {
	if subjectID == "" {
		subjectID = b.subject
	}
	rows, err := b.db.QueryContext(ctx, `
		SELECT b.id, b.resource_id, r.name, b.start_time, b.end_time, r.booking_type, r.price_cents
		FROM bookings b JOIN resources r ON r.id = b.resource_id
		WHERE b.apartment_id = ?
		ORDER BY b.start_time`, subjectID)
	if err != nil {
		return nil, &api.TransientError{Op: "bookings", Err: err}
	}
	defer rows.Close()

	var recs []models.BookingRecord
	for rows.Next() {
		var rec models.BookingRecord
		var startRaw, endRaw string
		if err := rows.Scan(&rec.ID, &rec.ResourceID, &rec.ResourceName, &startRaw, &endRaw, &rec.BookingType, &rec.PriceCents); err != nil {
			return nil, &api.TransientError{Op: "bookings", Err: err}
		}
		start, err := time.Parse(time.RFC3339, startRaw)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, endRaw)
		if err != nil {
			continue
		}
		rec.StartTime, rec.EndTime = start, end
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &api.TransientError{Op: "bookings", Err: err}
	}
	return models.NormalizeBookings(recs), nil
}

// resourceBooked reports whether any reservation on the resource itself
// overlaps the window. Slot bookedness is a property of the resource; the
// subject-wide rule applies at commit time only.
func resourceBooked(existing []booking.Reservation, resourceID string, start, end time.Time) bool {
	for _, r := range existing {
		if r.ResourceID == resourceID && booking.Overlaps(r.Start, r.End, start, end) {
			return true
		}
	}
	return false
}

// GetAvailability generates the date's slots for one resource: one synthetic
// midnight-to-midnight slot for full-day resources, hourly slots between
// slotStartHour and slotEndHour otherwise. A slot is booked when any
// reservation on the resource overlaps it.
func (b *Backend) GetAvailability(ctx context.Context, resourceID, date string) ([]models.Slot, error) {
	var bookingType string
	err := b.db.QueryRowContext(ctx,
		"SELECT booking_type FROM resources WHERE id = ?", resourceID,
	).Scan(&bookingType)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &api.TransientError{Op: "slots", Err: err}
	}

	dayStart, dayEnd, err := utils.DayWindow(date)
	if err != nil {
		return nil, err
	}
	existing, err := b.reservations(ctx)
	if err != nil {
		return nil, &api.TransientError{Op: "slots", Err: err}
	}
	now := b.now().UTC()

	var recs []models.SlotRecord
	if constants.BookingType(bookingType) == constants.BookingFullDay {
		recs = append(recs, models.SlotRecord{
			ResourceID: resourceID,
			StartTime:  dayStart,
			EndTime:    dayEnd,
			IsBooked:   resourceBooked(existing, resourceID, dayStart, dayEnd),
			IsPast:     !dayEnd.After(now),
		})
	} else {
		for cur := dayStart.Add(slotStartHour * time.Hour); ; cur = cur.Add(slotDurationMin * time.Minute) {
			end := cur.Add(slotDurationMin * time.Minute)
			if end.After(dayStart.Add(slotEndHour * time.Hour)) {
				break
			}
			recs = append(recs, models.SlotRecord{
				ResourceID: resourceID,
				StartTime:  cur,
				EndTime:    end,
				IsBooked:   resourceBooked(existing, resourceID, cur, end),
				IsPast:     !end.After(now),
			})
		}
	}
	return models.NormalizeSlots(recs), nil
}

func (b *Backend) CreateBooking(ctx context.Context, req api.BookingRequest) (string, error) {
	if b.subject == "" {
		return "", api.ErrSessionExpired
	}
	if err := booking.ValidateRange(req.StartTime, req.EndTime); err != nil {
		return "", err
	}
	existing, err := b.reservations(ctx)
	if err != nil {
		return "", &api.TransientError{Op: "book", Err: err}
	}
	subject := req.SubjectID
	if subject == "" {
		subject = b.subject
	}
	if booking.Conflicts(existing, req.ResourceID, subject, req.StartTime, req.EndTime) {
		return "", api.ErrConflict
	}

	id := uuid.New().String()
	billable := 0
	if req.IsBillable {
		billable = 1
	}
	_, err = b.db.ExecContext(ctx,
		"INSERT INTO bookings (id, apartment_id, resource_id, start_time, end_time, is_billable) VALUES (?, ?, ?, ?, ?, ?)",
		id, subject, req.ResourceID,
		req.StartTime.UTC().Format(time.RFC3339), req.EndTime.UTC().Format(time.RFC3339),
		billable,
	)
	if err != nil {
		return "", &api.TransientError{Op: "book", Err: err}
	}
	return id, nil
}

func (b *Backend) CancelBooking(ctx context.Context, bookingID string) error {
	if b.subject == "" {
		return api.ErrSessionExpired
	}
	res, err := b.db.ExecContext(ctx,
		"DELETE FROM bookings WHERE id = ? AND apartment_id = ?", bookingID, b.subject)
	if err != nil {
		return &api.TransientError{Op: "cancel", Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &api.TransientError{Op: "cancel", Err: err}
	}
	if affected == 0 {
		return api.ErrNotFound
	}
	return nil
}

func (b *Backend) Health(ctx context.Context) error {
	if err := b.db.PingContext(ctx); err != nil {
		return &api.TransientError{Op: "health", Err: err}
	}
	return nil
}
