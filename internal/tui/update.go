package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/maltehallstrom/boka/internal/api"
	"github.com/maltehallstrom/boka/internal/availability"
	"github.com/maltehallstrom/boka/internal/booking"
	"github.com/maltehallstrom/boka/internal/constants"
	"github.com/maltehallstrom/boka/internal/keyring"
	"github.com/maltehallstrom/boka/internal/logger"
	"github.com/maltehallstrom/boka/internal/models"
	"github.com/maltehallstrom/boka/internal/utils"
)

const (
	msgUnknownTag      = "Tag is not registered or inactive."
	msgBadCredentials  = "Wrong apartment id or password."
	msgUnreachable     = "Backend unreachable. Check the connection."
	msgActionFailed    = "Could not complete the action."
	msgSessionExpired  = "Session expired. Please log in again."
	msgOwnConflict     = "Overlaps one of your bookings."
	msgPasswordUpdated = "Password updated."
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case authResultMsg:
		return m.handleAuthResult(msg)

	case resourcesMsg:
		m.loading = false
		if msg.err != nil {
			cmd := m.showNotice(msgUnreachable)
			return m, cmd
		}
		m.resources = msg.resources
		if m.resourceCursor >= len(m.resources) {
			m.resourceCursor = 0
		}
		return m, nil

	case bookingsMsg:
		// A response issued before logout, or for a previous subject,
		// must never land.
		if m.subjectID == "" || msg.subjectID != m.subjectID {
			logger.Debug("stale bookings dropped", "subject", msg.subjectID)
			return m, nil
		}
		if msg.err != nil {
			cmd := m.showNotice(msgUnreachable)
			return m, cmd
		}
		m.bookings = msg.bookings
		if m.bookingCursor >= len(m.bookings) {
			m.bookingCursor = 0
		}
		return m, nil

	case availabilityMsg:
		if msg.err != nil {
			if m.sync.Fail(msg.token) {
				cmd := m.showNotice(msgUnreachable)
				return m, cmd
			}
			return m, nil
		}
		if !m.sync.Publish(msg.token, msg.snapshot) {
			logger.Debug("stale availability dropped", "token", msg.token)
		}
		return m, nil

	case commitResultMsg:
		return m.handleCommitResult(msg)

	case secretChangedMsg:
		return m.handleSecretChanged(msg)

	case noticeExpiredMsg:
		if msg.id == m.noticeID {
			m.notice = ""
		}
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	switch m.state {
	case constants.StateLogin:
		return m.updateLogin(msg)
	case constants.StateSetup:
		return m.updateSetup(msg)
	case constants.StateSchedule:
		return m.updateSchedule(msg)
	case constants.StateConfirm:
		return m.updateConfirm(msg)
	case constants.StatePassword:
		return m.updatePassword(msg)
	}
	return m, nil
}

// --- async result handling ---

func (m Model) handleAuthResult(msg authResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.loading = false
		if errors.Is(msg.err, api.ErrUnauthorized) {
			// A failed credential attempt keeps the entered apartment
			// id; only the secret is cleared.
			if m.mode == constants.ModeSelfService {
				kept := ""
				if m.loginForm != nil {
					kept = m.loginForm.SubjectID
				}
				m.beginLoginForm(kept)
				cmd := tea.Batch(m.form.Init(), m.showNotice(msgBadCredentials))
				return m, cmd
			}
			cmd := m.showNotice(msgUnknownTag)
			return m, cmd
		}
		cmd := m.showNotice(msgUnreachable)
		return m, cmd
	}

	m.subjectID = msg.subjectID
	m.state = constants.StateSetup
	m.tagBuffer = ""
	m.clearNotice()

	if m.loginForm != nil {
		if m.loginForm.Remember {
			if err := keyring.SetCredential(m.loginForm.SubjectID, m.loginForm.Secret); err != nil {
				logger.Debug("storing credential failed", "error", err)
			}
		} else {
			if err := keyring.DeleteCredential(); err != nil && !errors.Is(err, keyring.ErrNotFound) {
				logger.Debug("clearing credential failed", "error", err)
			}
		}
	}
	m.form = nil

	// Eagerly load the session's working set; loading stays up until the
	// resource list lands.
	return m, tea.Batch(loadResourcesCmd(m.client), loadBookingsCmd(m.client, m.subjectID))
}

func (m Model) handleCommitResult(msg commitResultMsg) (tea.Model, tea.Cmd) {
	m.loading = false

	if msg.err != nil && errors.Is(msg.err, api.ErrSessionExpired) {
		cmd := tea.Batch(m.forceLogout(), m.showNotice(msgSessionExpired))
		return m, cmd
	}

	// Reconverge with server truth regardless of outcome: the booking list
	// and availability are always re-fetched, never locally patched.
	cmds := []tea.Cmd{loadBookingsCmd(m.client, m.subjectID)}
	if refresh := m.refresh(); refresh != nil {
		cmds = append(cmds, refresh)
	}

	if msg.err != nil {
		if api.IsTransient(msg.err) {
			cmds = append(cmds, m.showNotice(msgUnreachable))
		} else {
			// Conflict or not-found: another actor got there first;
			// the refresh just queued shows the current state.
			cmds = append(cmds, m.showNotice(msgActionFailed))
		}
		return m, tea.Batch(cmds...)
	}

	// Only success dismisses the confirmation.
	m.confirm = nil
	m.state = m.stateAfterConfirm(msg.action)
	return m, tea.Batch(cmds...)
}

// stateAfterConfirm returns where a dismissed dialog lands: cancellations are
// staged from setup, bookings from the schedule.
func (m Model) stateAfterConfirm(action constants.ConfirmAction) constants.SessionState {
	if action == constants.ConfirmCancel {
		return constants.StateSetup
	}
	if m.selectedResourceID != "" {
		return constants.StateSchedule
	}
	return constants.StateSetup
}

func (m Model) handleSecretChanged(msg secretChangedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if msg.err != nil {
		if errors.Is(msg.err, api.ErrSessionExpired) {
			cmd := tea.Batch(m.forceLogout(), m.showNotice(msgSessionExpired))
			return m, cmd
		}
		m.passwordForm = &PasswordFormModel{}
		m.form = NewPasswordForm(m.passwordForm)
		cmd := tea.Batch(m.form.Init(), m.showNotice(msgUnreachable))
		return m, cmd
	}
	m.passwordForm = nil
	m.form = nil
	m.state = constants.StateSetup
	cmd := m.showNotice(msgPasswordUpdated)
	return m, cmd
}

// --- per-state input handling ---

func (m Model) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && key.Matches(keyMsg, m.keys.Mode) {
		return m.switchMode()
	}

	if m.mode == constants.ModeFrontDesk {
		return m.updateTagCapture(msg)
	}

	// Self-service: the credential form owns input.
	if m.form == nil {
		m.beginLoginForm("")
		return m, m.form.Init()
	}
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		if m.loading {
			return m, cmd
		}
		m.loading = true
		return m, tea.Batch(cmd, loginCredentialCmd(m.client, m.loginForm.SubjectID, m.loginForm.Secret))
	case huh.StateAborted:
		// Esc in the form starts it over.
		m.beginLoginForm("")
		return m, m.form.Init()
	}
	return m, cmd
}

// updateTagCapture buffers printable keys until Enter submits the scanned
// value; a paste submits directly. This stands in for the RFID reader, which
// presents as a keyboard.
func (m Model) updateTagCapture(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.Type {
	case tea.KeyEnter:
		if m.loading || m.tagBuffer == "" {
			return m, nil
		}
		tag := m.tagBuffer
		m.tagBuffer = ""
		m.loading = true
		m.clearNotice()
		return m, loginTokenCmd(m.client, tag)
	case tea.KeyBackspace:
		if len(m.tagBuffer) > 0 {
			m.tagBuffer = m.tagBuffer[:len(m.tagBuffer)-1]
		}
		return m, nil
	case tea.KeyRunes:
		if keyMsg.Paste {
			if m.loading {
				return m, nil
			}
			m.tagBuffer = ""
			m.loading = true
			m.clearNotice()
			return m, loginTokenCmd(m.client, string(keyMsg.Runes))
		}
		m.tagBuffer += string(keyMsg.Runes)
		return m, nil
	}
	return m, nil
}

func (m Model) switchMode() (tea.Model, tea.Cmd) {
	if m.mode == constants.ModeFrontDesk {
		m.mode = constants.ModeSelfService
		m.beginLoginForm("")
	} else {
		m.mode = constants.ModeFrontDesk
		m.form = nil
		m.loginForm = nil
	}
	m.tagBuffer = ""
	if m.prefs != nil {
		if err := m.prefs.SetMode(m.mode); err != nil {
			logger.Warn("persisting mode failed", "error", err)
		}
	}
	if m.form != nil {
		return m, m.form.Init()
	}
	return m, nil
}

func (m Model) updateSetup(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(keyMsg, m.keys.Logout):
		cmd := m.forceLogout()
		return m, cmd

	case key.Matches(keyMsg, m.keys.Password):
		m.passwordForm = &PasswordFormModel{}
		m.form = NewPasswordForm(m.passwordForm)
		m.state = constants.StatePassword
		return m, m.form.Init()

	case key.Matches(keyMsg, m.keys.Focus):
		if m.focus == focusResources {
			m.focus = focusBookings
		} else {
			m.focus = focusResources
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Up):
		if m.focus == focusResources && m.resourceCursor > 0 {
			m.resourceCursor--
		} else if m.focus == focusBookings && m.bookingCursor > 0 {
			m.bookingCursor--
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Down):
		if m.focus == focusResources && m.resourceCursor < len(m.resources)-1 {
			m.resourceCursor++
		} else if m.focus == focusBookings && m.bookingCursor < len(m.bookings)-1 {
			m.bookingCursor++
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Enter):
		if m.focus == focusResources && m.resourceCursor < len(m.resources) {
			return m.selectResource(m.resources[m.resourceCursor].ID)
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Cancel):
		if m.focus == focusBookings && m.bookingCursor < len(m.bookings) {
			return m.stageCancel(m.bookings[m.bookingCursor])
		}
		return m, nil
	}
	return m, nil
}

func (m Model) updateSchedule(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	r := m.selectedResource()
	if r == nil {
		m.state = constants.StateSetup
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(keyMsg, m.keys.Back):
		// Back to setup keeps the resource list; only the active
		// schedule view goes.
		m.selectedResourceID = ""
		m.days = nil
		m.viewportStart = 0
		m.sync.Invalidate()
		m.state = constants.StateSetup
		return m, nil

	case key.Matches(keyMsg, m.keys.Logout):
		cmd := m.forceLogout()
		return m, cmd
	}

	if r.BookingType == constants.BookingFullDay {
		return m.updateDayGrid(keyMsg)
	}
	return m.updateSlotGrid(keyMsg)
}

func (m Model) updateSlotGrid(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.visibleDays()
	switch {
	case key.Matches(keyMsg, m.keys.Left):
		if m.dayCursor > 0 {
			m.dayCursor--
			return m, nil
		}
		cmd := m.navigate(-1)
		return m, cmd

	case key.Matches(keyMsg, m.keys.Right):
		if m.dayCursor < len(visible)-1 {
			m.dayCursor++
			return m, nil
		}
		cmd := m.navigate(1)
		return m, cmd

	case key.Matches(keyMsg, m.keys.Up):
		if m.slotCursor > 0 {
			m.slotCursor--
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Down):
		if m.dayCursor < len(visible) {
			if slots := m.sync.SlotsFor(visible[m.dayCursor]); m.slotCursor < len(slots)-1 {
				m.slotCursor++
			}
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Enter):
		return m.stageSlotBooking()
	}
	return m, nil
}

func (m Model) updateDayGrid(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	clamp := func(i int) int {
		if i < 0 {
			return 0
		}
		if i >= len(m.days) {
			return len(m.days) - 1
		}
		return i
	}
	switch {
	case key.Matches(keyMsg, m.keys.Left):
		m.dayCursor = clamp(m.dayCursor - 1)
		return m, nil
	case key.Matches(keyMsg, m.keys.Right):
		m.dayCursor = clamp(m.dayCursor + 1)
		return m, nil
	case key.Matches(keyMsg, m.keys.Up):
		m.dayCursor = clamp(m.dayCursor - 7)
		return m, nil
	case key.Matches(keyMsg, m.keys.Down):
		m.dayCursor = clamp(m.dayCursor + 7)
		return m, nil
	case key.Matches(keyMsg, m.keys.Enter):
		return m.stageDayBooking()
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.confirm == nil {
		return m, nil
	}
	switch keyMsg.String() {
	case "y", "Y", "enter":
		if m.loading {
			return m, nil
		}
		return m.commitConfirm()
	case "n", "N", "esc", "q":
		if m.loading {
			return m, nil
		}
		m.state = m.stateAfterConfirm(m.confirm.Action)
		m.confirm = nil
		return m, nil
	}
	return m, nil
}

func (m Model) updatePassword(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.passwordForm = nil
		m.form = nil
		m.state = constants.StateSetup
		return m, nil
	}
	if m.form == nil {
		m.state = constants.StateSetup
		return m, nil
	}
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		if m.loading {
			return m, cmd
		}
		m.loading = true
		return m, tea.Batch(cmd, changeSecretCmd(m.client, m.passwordForm.NewSecret))
	case huh.StateAborted:
		m.passwordForm = nil
		m.form = nil
		m.state = constants.StateSetup
	}
	return m, cmd
}

// --- workflow actions ---

// selectResource moves setup → schedule: it recomputes the day horizon from
// the resource's advance-day bounds, resets the viewport, and starts a
// refresh under a fresh token.
func (m *Model) selectResource(resourceID string) (tea.Model, tea.Cmd) {
	m.selectedResourceID = resourceID
	r := m.selectedResource()
	if r == nil {
		m.selectedResourceID = ""
		return *m, nil
	}
	m.days = m.horizonDays(r)
	m.viewportStart = 0
	m.dayCursor = 0
	m.slotCursor = 0
	m.sync.Invalidate()
	m.state = constants.StateSchedule
	return *m, m.refresh()
}

// refresh begins a new availability request for the current selection. Safe
// to call with nothing selected.
func (m *Model) refresh() tea.Cmd {
	r := m.selectedResource()
	if r == nil {
		return nil
	}
	token := m.sync.Begin(r.ID)
	dates := availability.DatesFor(r.BookingType, m.days, m.viewportStart)
	return refreshCmd(m.client, token, r.ID, r.BookingType, dates)
}

// navigate shifts the 4-day viewport, only while the window stays inside
// [0, totalDays-4]; a shift triggers a fresh refresh.
func (m *Model) navigate(step int) tea.Cmd {
	next := m.viewportStart + step
	if next < 0 || next+constants.VisibleDays > len(m.days) {
		return nil
	}
	m.viewportStart = next
	return m.refresh()
}

// reservationSet adapts the loaded booking list for the conflict rule. Every
// listed reservation belongs to the authenticated subject.
func (m Model) reservationSet() []booking.Reservation {
	out := make([]booking.Reservation, 0, len(m.bookings))
	for _, b := range m.bookings {
		out = append(out, booking.Reservation{
			ResourceID: b.ResourceID,
			SubjectID:  m.subjectID,
			Start:      b.StartTime,
			End:        b.EndTime,
		})
	}
	return out
}

func (m Model) stageSlotBooking() (tea.Model, tea.Cmd) {
	r := m.selectedResource()
	visible := m.visibleDays()
	if r == nil || m.dayCursor >= len(visible) {
		return m, nil
	}
	date := visible[m.dayCursor]
	slots := m.sync.SlotsFor(date)
	if m.slotCursor >= len(slots) {
		return m, nil
	}
	slot := slots[m.slotCursor]
	if slot.IsBooked || slot.IsPast {
		return m, nil
	}
	if err := booking.ValidateRange(slot.StartTime, slot.EndTime); err != nil {
		return m, nil
	}
	if booking.Conflicts(m.reservationSet(), r.ID, m.subjectID, slot.StartTime, slot.EndTime) {
		cmd := m.showNotice(msgOwnConflict)
		return m, cmd
	}
	m.confirm = &confirmRecord{
		Action:       constants.ConfirmBookSlot,
		Title:        "Confirm booking",
		Message:      fmt.Sprintf("Book %s on %s (%s)?", r.Name, date, slot.ID),
		PriceUnits:   r.PriceUnits,
		ResourceID:   r.ID,
		ResourceName: r.Name,
		Date:         date,
		SlotLabel:    slot.ID,
		Start:        slot.StartTime,
		End:          slot.EndTime,
		Billable:     r.IsBillable && r.PriceUnits > 0,
	}
	m.state = constants.StateConfirm
	return m, nil
}

func (m Model) stageDayBooking() (tea.Model, tea.Cmd) {
	r := m.selectedResource()
	if r == nil || m.dayCursor >= len(m.days) {
		return m, nil
	}
	date := m.days[m.dayCursor]
	if !m.sync.DayBookable(date) {
		return m, nil
	}
	start, end, err := utils.DayWindow(date)
	if err != nil {
		return m, nil
	}
	if booking.Conflicts(m.reservationSet(), r.ID, m.subjectID, start, end) {
		cmd := m.showNotice(msgOwnConflict)
		return m, cmd
	}
	m.confirm = &confirmRecord{
		Action:       constants.ConfirmBookDay,
		Title:        "Confirm booking",
		Message:      fmt.Sprintf("Book %s on %s?", r.Name, date),
		PriceUnits:   r.PriceUnits,
		ResourceID:   r.ID,
		ResourceName: r.Name,
		Date:         date,
		Start:        start,
		End:          end,
		Billable:     r.IsBillable && r.PriceUnits > 0,
	}
	m.state = constants.StateConfirm
	return m, nil
}

func (m Model) stageCancel(b models.Booking) (tea.Model, tea.Cmd) {
	message := fmt.Sprintf("Cancel %s on %s?", b.ResourceName, b.Date)
	if b.SlotLabel != "" {
		message = fmt.Sprintf("Cancel %s on %s (%s)?", b.ResourceName, b.Date, b.SlotLabel)
	}
	m.confirm = &confirmRecord{
		Action:       constants.ConfirmCancel,
		Title:        "Cancel booking",
		Message:      message,
		ResourceID:   b.ResourceID,
		ResourceName: b.ResourceName,
		Date:         b.Date,
		BookingID:    b.ID,
	}
	m.state = constants.StateConfirm
	return m, nil
}

func (m Model) commitConfirm() (tea.Model, tea.Cmd) {
	if m.confirm == nil {
		return m, nil
	}
	m.loading = true
	m.clearNotice()
	switch m.confirm.Action {
	case constants.ConfirmCancel:
		return m, cancelCmd(m.client, m.confirm.BookingID)
	default:
		req := api.BookingRequest{
			ResourceID: m.confirm.ResourceID,
			SubjectID:  m.subjectID,
			StartTime:  m.confirm.Start,
			EndTime:    m.confirm.End,
			IsBillable: m.confirm.Billable,
		}
		return m, bookCmd(m.client, req, m.confirm.Action)
	}
}

// forceLogout returns the workflow to its anonymous state and clears every
// piece of session-scoped state. Invalidating the synchronizer advances the
// token, so no response issued before logout can ever publish.
func (m *Model) forceLogout() tea.Cmd {
	m.state = constants.StateLogin
	m.subjectID = ""
	m.selectedResourceID = ""
	m.bookings = nil
	m.days = nil
	m.viewportStart = 0
	m.dayCursor = 0
	m.slotCursor = 0
	m.resourceCursor = 0
	m.bookingCursor = 0
	m.focus = focusResources
	m.confirm = nil
	m.passwordForm = nil
	m.form = nil
	m.loginForm = nil
	m.tagBuffer = ""
	m.loading = false
	m.sync.Invalidate()
	if m.mode == constants.ModeSelfService {
		m.beginLoginForm("")
		return m.form.Init()
	}
	return nil
}

// showNotice replaces the visible notice and restarts its dismissal timer.
// Stale expiry ticks are dropped by id.
func (m *Model) showNotice(text string) tea.Cmd {
	m.noticeID++
	m.notice = text
	return noticeExpiryCmd(m.noticeID)
}

func (m *Model) clearNotice() {
	m.noticeID++
	m.notice = ""
}
