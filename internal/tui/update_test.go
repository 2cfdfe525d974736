package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/maltehallstrom/boka/internal/api"
	"github.com/maltehallstrom/boka/internal/availability"
	"github.com/maltehallstrom/boka/internal/constants"
	"github.com/maltehallstrom/boka/internal/models"
)

// stubClient satisfies api.Client without touching any backend. Commands
// built against it are never executed in these tests; results are injected
// as messages instead.
type stubClient struct{}

func (stubClient) AuthenticateToken(_ context.Context, _ string) (string, error) { return "", nil }
func (stubClient) AuthenticateCredential(_ context.Context, _, _ string) (string, error) {
	return "", nil
}
func (stubClient) ChangeSecret(_ context.Context, _ string) error          { return nil }
func (stubClient) ListResources(_ context.Context) ([]models.Resource, error) { return nil, nil }
func (stubClient) ListBookings(_ context.Context, _ string) ([]models.Booking, error) {
	return nil, nil
}
func (stubClient) GetAvailability(_ context.Context, _, _ string) ([]models.Slot, error) {
	return nil, nil
}
func (stubClient) CreateBooking(_ context.Context, _ api.BookingRequest) (string, error) {
	return "", nil
}
func (stubClient) CancelBooking(_ context.Context, _ string) error { return nil }
func (stubClient) Health(_ context.Context) error                  { return nil }

func fixedClock() time.Time {
	return time.Date(2026, 3, 6, 8, 0, 0, 0, time.UTC)
}

func testModel(t *testing.T, mode constants.Mode) Model {
	t.Helper()
	return NewModel(Options{Client: stubClient{}, Mode: mode, Clock: fixedClock})
}

func apply(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	mm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return mm, cmd
}

func keyPress(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func testResources() []models.Resource {
	return []models.Resource{
		{ID: "laundry-1", Name: "Tvättstuga 1", BookingType: constants.BookingTimeSlot, MaxAdvanceDays: 14},
		{ID: "guest-apt", Name: "Gästlägenhet", BookingType: constants.BookingFullDay, MaxAdvanceDays: 90, PriceUnits: 250, IsBillable: true},
	}
}

// authenticated builds a model sitting in the setup step with resources
// loaded.
func authenticated(t *testing.T) Model {
	t.Helper()
	m := testModel(t, constants.ModeFrontDesk)
	m, _ = apply(t, m, authResultMsg{subjectID: "1001"})
	m, _ = apply(t, m, resourcesMsg{resources: testResources()})
	return m
}

// inSchedule builds a model in the schedule step for the first resource.
func inSchedule(t *testing.T) Model {
	t.Helper()
	m := authenticated(t)
	m, cmd := apply(t, m, keyPress(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("entering the schedule must start a refresh")
	}
	if m.state != constants.StateSchedule {
		t.Fatalf("state = %v, want schedule", m.state)
	}
	return m
}

func freeSlot() models.Slot {
	return models.Slot{
		ID:        "10:00-11:00",
		StartTime: time.Date(2026, 3, 6, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 6, 11, 0, 0, 0, time.UTC),
	}
}

// publish installs a snapshot directly, sidestepping token arithmetic in
// tests that only need published state.
func publish(m Model, date string, slots ...models.Slot) {
	tok := m.sync.Begin("laundry-1")
	m.sync.Publish(tok, availability.BuildSlotSnapshot("laundry-1", map[string][]models.Slot{date: slots}))
}

func TestTagCaptureSubmitsOnEnter(t *testing.T) {
	m := testModel(t, constants.ModeFrontDesk)

	for _, r := range "UID123" {
		m, _ = apply(t, m, runeKey(r))
	}
	if m.tagBuffer != "UID123" {
		t.Fatalf("tagBuffer = %q", m.tagBuffer)
	}

	m, cmd := apply(t, m, keyPress(tea.KeyEnter))
	if cmd == nil {
		t.Error("enter must submit the scanned tag")
	}
	if !m.loading {
		t.Error("login must raise the loading flag")
	}
	if m.tagBuffer != "" {
		t.Error("submit must clear the buffer")
	}

	// A second enter while the first login is in flight is ignored.
	m, cmd = apply(t, m, keyPress(tea.KeyEnter))
	if cmd != nil {
		t.Error("re-entrant login must be ignored")
	}
}

func TestLoginSuccessEntersSetup(t *testing.T) {
	m := testModel(t, constants.ModeFrontDesk)
	m, cmd := apply(t, m, authResultMsg{subjectID: "1001"})

	if m.State() != constants.StateSetup {
		t.Errorf("state = %v, want setup", m.State())
	}
	if m.SubjectID() != "1001" {
		t.Errorf("subject = %q", m.SubjectID())
	}
	if cmd == nil {
		t.Error("login success must load resources and bookings")
	}
}

func TestLoginFailureStaysAnonymous(t *testing.T) {
	m := testModel(t, constants.ModeFrontDesk)
	m, _ = apply(t, m, authResultMsg{err: api.ErrUnauthorized})

	if m.State() != constants.StateLogin {
		t.Errorf("state = %v, want login", m.State())
	}
	if m.Notice() != msgUnknownTag {
		t.Errorf("notice = %q", m.Notice())
	}
	if m.loading {
		t.Error("failed login must clear the loading flag")
	}
}

func TestSelectResourceComputesHorizon(t *testing.T) {
	m := inSchedule(t)

	if len(m.days) != 14 {
		t.Fatalf("horizon = %d days, want 14", len(m.days))
	}
	if m.days[0] != "2026-03-06" || m.days[13] != "2026-03-19" {
		t.Errorf("horizon = %s .. %s", m.days[0], m.days[13])
	}
	if m.viewportStart != 0 {
		t.Errorf("viewportStart = %d", m.viewportStart)
	}
}

func TestViewportClamping(t *testing.T) {
	m := inSchedule(t)

	// The cursor walks to the viewport edge before the window shifts.
	for i := 0; i < 30; i++ {
		m, _ = apply(t, m, keyPress(tea.KeyRight))
	}
	if m.viewportStart != len(m.days)-constants.VisibleDays {
		t.Errorf("viewportStart = %d, want %d", m.viewportStart, len(m.days)-constants.VisibleDays)
	}
	if m.dayCursor != constants.VisibleDays-1 {
		t.Errorf("dayCursor = %d", m.dayCursor)
	}

	for i := 0; i < 30; i++ {
		m, _ = apply(t, m, keyPress(tea.KeyLeft))
	}
	if m.viewportStart != 0 {
		t.Errorf("viewportStart = %d, want 0", m.viewportStart)
	}
	if m.dayCursor != 0 {
		t.Errorf("dayCursor = %d", m.dayCursor)
	}
}

func TestStaleAvailabilityDropped(t *testing.T) {
	m := inSchedule(t)

	// Entering the schedule invalidated once and began once, so the
	// outstanding token is 2. Walking the cursor to the edge and one step
	// further supersedes it with token 3.
	for i := 0; i < constants.VisibleDays; i++ {
		m, _ = apply(t, m, keyPress(tea.KeyRight))
	}

	stale := availability.BuildSlotSnapshot("laundry-1", map[string][]models.Slot{
		"2026-03-06": {freeSlot()},
	})
	m, _ = apply(t, m, availabilityMsg{token: 2, snapshot: stale})
	if len(m.Availability().SlotsByDate) != 0 {
		t.Error("superseded response must not publish")
	}

	current := availability.BuildSlotSnapshot("laundry-1", map[string][]models.Slot{
		"2026-03-07": {freeSlot()},
	})
	m, _ = apply(t, m, availabilityMsg{token: 3, snapshot: current})
	if len(m.Availability().SlotsByDate) != 1 {
		t.Error("current response must publish")
	}
}

func TestAvailabilityFailureShowsNoticeOnlyWhenCurrent(t *testing.T) {
	m := inSchedule(t)

	m, _ = apply(t, m, availabilityMsg{token: 1, err: &api.TransientError{Op: "slots"}})
	if m.Notice() != "" {
		t.Error("stale failure must be silent")
	}

	m, _ = apply(t, m, availabilityMsg{token: 2, err: &api.TransientError{Op: "slots"}})
	if m.Notice() != msgUnreachable {
		t.Errorf("notice = %q", m.Notice())
	}
}

func TestStageSlotOpensConfirmation(t *testing.T) {
	m := inSchedule(t)
	publish(m, "2026-03-06", freeSlot())

	m, _ = apply(t, m, keyPress(tea.KeyEnter))
	if m.State() != constants.StateConfirm {
		t.Fatalf("state = %v, want confirm", m.State())
	}
	if m.confirm == nil || m.confirm.Action != constants.ConfirmBookSlot {
		t.Fatalf("confirm = %+v", m.confirm)
	}

	m, cmd := apply(t, m, runeKey('y'))
	if cmd == nil {
		t.Error("confirming must issue the commit")
	}
	if !m.loading {
		t.Error("commit must raise the loading flag")
	}
}

func TestStageSlotRejectsBookedSlot(t *testing.T) {
	m := inSchedule(t)
	slot := freeSlot()
	slot.IsBooked = true
	publish(m, "2026-03-06", slot)

	m, _ = apply(t, m, keyPress(tea.KeyEnter))
	if m.State() != constants.StateSchedule {
		t.Errorf("booked slot must not stage, state = %v", m.State())
	}
}

func TestStageSlotRejectsOwnOverlap(t *testing.T) {
	m := inSchedule(t)
	publish(m, "2026-03-06", freeSlot())

	// An overlapping reservation on a different resource still blocks:
	// one apartment, one place at a time.
	m.bookings = []models.Booking{{
		ID:         "b1",
		ResourceID: "guest-apt",
		StartTime:  time.Date(2026, 3, 6, 10, 30, 0, 0, time.UTC),
		EndTime:    time.Date(2026, 3, 6, 11, 30, 0, 0, time.UTC),
	}}

	m, _ = apply(t, m, keyPress(tea.KeyEnter))
	if m.State() != constants.StateSchedule {
		t.Errorf("state = %v, want schedule", m.State())
	}
	if m.Notice() != msgOwnConflict {
		t.Errorf("notice = %q", m.Notice())
	}
}

func TestCommitSuccessDismissesConfirmation(t *testing.T) {
	m := inSchedule(t)
	publish(m, "2026-03-06", freeSlot())
	m, _ = apply(t, m, keyPress(tea.KeyEnter))
	m, _ = apply(t, m, runeKey('y'))

	m, cmd := apply(t, m, commitResultMsg{action: constants.ConfirmBookSlot})
	if m.confirm != nil {
		t.Error("success must dismiss the confirmation")
	}
	if m.State() != constants.StateSchedule {
		t.Errorf("state = %v, want schedule", m.State())
	}
	if cmd == nil {
		t.Error("commit result must trigger reconciliation")
	}
}

func TestCommitConflictKeepsConfirmationOpen(t *testing.T) {
	m := inSchedule(t)
	publish(m, "2026-03-06", freeSlot())
	m, _ = apply(t, m, keyPress(tea.KeyEnter))
	m, _ = apply(t, m, runeKey('y'))

	m, cmd := apply(t, m, commitResultMsg{action: constants.ConfirmBookSlot, err: api.ErrConflict})
	if m.confirm == nil {
		t.Error("failure must keep the confirmation open")
	}
	if m.Notice() != msgActionFailed {
		t.Errorf("notice = %q", m.Notice())
	}
	if m.loading {
		t.Error("loading must clear on commit failure")
	}
	if cmd == nil {
		t.Error("failed commit must still reconcile with the backend")
	}
}

func TestSessionExpiryForcesLogout(t *testing.T) {
	m := inSchedule(t)
	publish(m, "2026-03-06", freeSlot())
	m, _ = apply(t, m, keyPress(tea.KeyEnter))
	m, _ = apply(t, m, runeKey('y'))

	m, _ = apply(t, m, commitResultMsg{action: constants.ConfirmBookSlot, err: api.ErrSessionExpired})
	if m.State() != constants.StateLogin {
		t.Errorf("state = %v, want login", m.State())
	}
	if m.SubjectID() != "" {
		t.Error("subject must clear on forced logout")
	}
	if m.Notice() != msgSessionExpired {
		t.Errorf("notice = %q", m.Notice())
	}
}

func TestLogoutClearsSessionState(t *testing.T) {
	m := inSchedule(t)
	publish(m, "2026-03-06", freeSlot())
	m.bookings = []models.Booking{{ID: "b1"}}

	m, _ = apply(t, m, runeKey('o'))
	if m.State() != constants.StateLogin {
		t.Errorf("state = %v, want login", m.State())
	}
	if m.SubjectID() != "" || len(m.Bookings()) != 0 {
		t.Error("session data must clear on logout")
	}
	if len(m.Availability().SlotsByDate) != 0 {
		t.Error("published availability must clear on logout")
	}

	// A response from before the logout can never land.
	stale := availability.BuildSlotSnapshot("laundry-1", map[string][]models.Slot{
		"2026-03-06": {freeSlot()},
	})
	m, _ = apply(t, m, availabilityMsg{token: 3, snapshot: stale})
	if len(m.Availability().SlotsByDate) != 0 {
		t.Error("pre-logout availability must be dropped")
	}
}

func TestStaleBookingsDropped(t *testing.T) {
	m := authenticated(t)

	m, _ = apply(t, m, bookingsMsg{subjectID: "1001", bookings: []models.Booking{{ID: "b1"}}})
	if len(m.Bookings()) != 1 {
		t.Fatal("current subject's bookings must land")
	}

	// A list issued for the previous subject resolves after a new login.
	m, _ = apply(t, m, bookingsMsg{subjectID: "1002", bookings: []models.Booking{{ID: "b2"}}})
	if len(m.Bookings()) != 1 || m.Bookings()[0].ID != "b1" {
		t.Error("another subject's bookings must be dropped")
	}

	// A list issued before logout resolves after it.
	m, _ = apply(t, m, runeKey('o'))
	m, _ = apply(t, m, bookingsMsg{subjectID: "1001", bookings: []models.Booking{{ID: "b1"}}})
	if len(m.Bookings()) != 0 {
		t.Error("pre-logout bookings must be dropped")
	}

	// Same for a late failure: no notice in the anonymous state.
	m, _ = apply(t, m, bookingsMsg{subjectID: "1001", err: &api.TransientError{Op: "bookings"}})
	if m.Notice() != "" {
		t.Error("pre-logout bookings failure must be silent")
	}
}

func TestBackFromScheduleKeepsResources(t *testing.T) {
	m := inSchedule(t)
	m, _ = apply(t, m, keyPress(tea.KeyEsc))

	if m.State() != constants.StateSetup {
		t.Errorf("state = %v, want setup", m.State())
	}
	if len(m.resources) == 0 {
		t.Error("back navigation must keep the resource list")
	}
	if m.selectedResourceID != "" {
		t.Error("back navigation must clear the selection")
	}
}

func TestNoticeExpiryDropsStaleTicks(t *testing.T) {
	m := testModel(t, constants.ModeFrontDesk)

	m, _ = apply(t, m, authResultMsg{err: &api.TransientError{Op: "rfid-login"}})
	m, _ = apply(t, m, authResultMsg{err: &api.TransientError{Op: "rfid-login"}})

	// The first notice's timer fires after the second notice replaced it.
	m, _ = apply(t, m, noticeExpiredMsg{id: 1})
	if m.Notice() == "" {
		t.Error("stale expiry tick must not clear a newer notice")
	}
	m, _ = apply(t, m, noticeExpiredMsg{id: 2})
	if m.Notice() != "" {
		t.Error("current expiry tick must clear the notice")
	}
}

func TestFullDayStaging(t *testing.T) {
	m := authenticated(t)
	m, _ = apply(t, m, keyPress(tea.KeyDown))
	m, _ = apply(t, m, keyPress(tea.KeyEnter))
	if m.State() != constants.StateSchedule {
		t.Fatalf("state = %v, want schedule", m.State())
	}
	if len(m.days) != 90 {
		t.Fatalf("horizon = %d days, want 90", len(m.days))
	}

	tok := m.sync.Begin("guest-apt")
	m.sync.Publish(tok, availability.BuildDaySnapshot("guest-apt", map[string][]models.Slot{
		"2026-03-06": {{ID: "00:00-00:00"}},
		"2026-03-07": {{ID: "00:00-00:00", IsBooked: true}},
	}))

	// The first day is free and stages with its price.
	m2, _ := apply(t, m, keyPress(tea.KeyEnter))
	if m2.State() != constants.StateConfirm {
		t.Fatalf("state = %v, want confirm", m2.State())
	}
	if m2.confirm.Action != constants.ConfirmBookDay || m2.confirm.PriceUnits != 250 || !m2.confirm.Billable {
		t.Errorf("confirm = %+v", m2.confirm)
	}
	wantStart := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
	if !m2.confirm.Start.Equal(wantStart) || !m2.confirm.End.Equal(wantStart.AddDate(0, 0, 1)) {
		t.Errorf("window = %v .. %v", m2.confirm.Start, m2.confirm.End)
	}

	// The second day is booked and must not stage.
	m, _ = apply(t, m, keyPress(tea.KeyRight))
	m, _ = apply(t, m, keyPress(tea.KeyEnter))
	if m.State() != constants.StateSchedule {
		t.Errorf("booked day staged, state = %v", m.State())
	}
}

func TestCancelStaging(t *testing.T) {
	m := authenticated(t)
	m.bookings = []models.Booking{{
		ID:           "b1",
		ResourceID:   "laundry-1",
		ResourceName: "Tvättstuga 1",
		Date:         "2026-03-06",
		SlotLabel:    "10:00-11:00",
	}}

	m, _ = apply(t, m, keyPress(tea.KeyTab))
	m, _ = apply(t, m, runeKey('x'))
	if m.State() != constants.StateConfirm {
		t.Fatalf("state = %v, want confirm", m.State())
	}
	if m.confirm.Action != constants.ConfirmCancel || m.confirm.BookingID != "b1" {
		t.Errorf("confirm = %+v", m.confirm)
	}

	// Declining returns to setup with nothing staged.
	m, _ = apply(t, m, runeKey('n'))
	if m.State() != constants.StateSetup || m.confirm != nil {
		t.Errorf("state = %v confirm = %+v", m.State(), m.confirm)
	}
}
