package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/maltehallstrom/boka/internal/constants"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case constants.StateLogin:
		content = m.viewLogin()
	case constants.StateSetup:
		content = m.viewSetup()
	case constants.StateSchedule:
		content = m.viewSchedule()
	case constants.StateConfirm:
		content = m.viewConfirm()
	case constants.StatePassword:
		content = m.viewPassword()
	}

	sections := []string{m.viewHeader(), content}
	if m.notice != "" {
		sections = append(sections, noticeStyle.Render(m.notice))
	}
	sections = append(sections, m.help.View(m.keys))

	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m Model) viewHeader() string {
	title := titleStyle.Render("Boka")
	parts := []string{title}
	if m.subjectID != "" {
		parts = append(parts, dimStyle.Render("apartment "+m.subjectID))
	}
	if m.loading {
		parts = append(parts, dimStyle.Render("working..."))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(parts, "  "))
}

func (m Model) viewLogin() string {
	if m.mode == constants.ModeFrontDesk {
		masked := strings.Repeat("•", len(m.tagBuffer))
		return lipgloss.JoinVertical(lipgloss.Left,
			"",
			"Scan your tag to log in.",
			"",
			selectedStyle.Render(" "+masked+" "),
			"",
			dimStyle.Render("f2 switches to self-service login"),
		)
	}
	if m.form == nil {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.form.View(),
		dimStyle.Render("f2 switches to front-desk login"),
	)
}

func (m Model) viewSetup() string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.viewResourcePane(),
		"   ",
		m.viewBookingPane(),
	)
}

func (m Model) viewResourcePane() string {
	header := "Resources"
	if m.focus == focusResources {
		header = selectedStyle.Render(" Resources ")
	}
	lines := []string{header, ""}
	if len(m.resources) == 0 {
		lines = append(lines, dimStyle.Render("none available"))
	}
	for i, r := range m.resources {
		label := r.Name
		if r.IsBillable && r.PriceUnits > 0 {
			label = fmt.Sprintf("%s (%d kr)", r.Name, r.PriceUnits)
		}
		lines = append(lines, m.cursorLine(label, m.focus == focusResources && i == m.resourceCursor))
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewBookingPane() string {
	header := "Your bookings"
	if m.focus == focusBookings {
		header = selectedStyle.Render(" Your bookings ")
	}
	lines := []string{header, ""}
	if len(m.bookings) == 0 {
		lines = append(lines, dimStyle.Render("none yet"))
	}
	for i, b := range m.bookings {
		label := fmt.Sprintf("%s  %s", b.Date, b.ResourceName)
		if b.SlotLabel != "" {
			label = fmt.Sprintf("%s %s  %s", b.Date, b.SlotLabel, b.ResourceName)
		}
		lines = append(lines, m.cursorLine(label, m.focus == focusBookings && i == m.bookingCursor))
	}
	if m.focus == focusBookings && len(m.bookings) > 0 {
		lines = append(lines, "", dimStyle.Render("x cancels the selected booking"))
	}
	return strings.Join(lines, "\n")
}

func (m Model) cursorLine(label string, selected bool) string {
	if selected {
		return selectedStyle.Render("> " + label)
	}
	return "  " + label
}

func (m Model) viewSchedule() string {
	r := m.selectedResource()
	if r == nil {
		return ""
	}
	header := titleStyle.Render(r.Name)
	if m.sync.Loading() {
		header += dimStyle.Render("  updating...")
	}
	var body string
	if r.BookingType == constants.BookingFullDay {
		body = m.viewDayGrid()
	} else {
		body = m.viewSlotGrid()
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, "", body)
}

// viewSlotGrid renders one column per visible day, slots stacked under the
// date header.
func (m Model) viewSlotGrid() string {
	visible := m.visibleDays()
	cols := make([]string, 0, len(visible)+2)

	back := "  "
	if m.canNavigateBack() {
		back = dimStyle.Render("← ")
	}
	cols = append(cols, back)

	for di, date := range visible {
		lines := []string{date, ""}
		for si, slot := range m.sync.SlotsFor(date) {
			label := slot.ID
			switch {
			case di == m.dayCursor && si == m.slotCursor:
				label = selectedStyle.Render(label)
			case slot.IsBooked:
				label = bookedStyle.Render(label)
			case slot.IsPast:
				label = pastStyle.Render(label)
			default:
				label = freeStyle.Render(label)
			}
			lines = append(lines, label)
		}
		cols = append(cols, strings.Join(lines, "\n"), "  ")
	}

	forward := "  "
	if m.canNavigateForward() {
		forward = dimStyle.Render(" →")
	}
	cols = append(cols, forward)

	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

// viewDayGrid renders the whole horizon as a calendar, seven days per row.
func (m Model) viewDayGrid() string {
	var rows []string
	var row []string
	for i, date := range m.days {
		cell := date[5:] // MM-DD
		switch {
		case i == m.dayCursor:
			cell = selectedStyle.Render(cell)
		case m.sync.DayBookable(date):
			cell = freeStyle.Render(cell)
		default:
			cell = bookedStyle.Render(cell)
		}
		row = append(row, cell)
		if len(row) == 7 {
			rows = append(rows, strings.Join(row, "  "))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, strings.Join(row, "  "))
	}
	return strings.Join(rows, "\n")
}

func (m Model) viewConfirm() string {
	if m.confirm == nil {
		return ""
	}
	lines := []string{
		titleStyle.Render(m.confirm.Title),
		"",
		m.confirm.Message,
	}
	if m.confirm.Billable {
		lines = append(lines, "", fmt.Sprintf("Price: %d kr", m.confirm.PriceUnits))
	}
	if m.confirm.Action == constants.ConfirmCancel {
		lines = append(lines, "", dangerStyle.Render("This cannot be undone."))
	}
	lines = append(lines, "", "[y] Yes    [n] No")

	dialog := lipgloss.JoinVertical(lipgloss.Center, lines...)
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height-4, lipgloss.Center, lipgloss.Center, dialog)
	}
	return dialog
}

func (m Model) viewPassword() string {
	if m.form == nil {
		return ""
	}
	return m.form.View()
}
