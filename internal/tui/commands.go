package tui

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/maltehallstrom/boka/internal/api"
	"github.com/maltehallstrom/boka/internal/availability"
	"github.com/maltehallstrom/boka/internal/constants"
	"github.com/maltehallstrom/boka/internal/logger"
	"github.com/maltehallstrom/boka/internal/models"
)

// Messages carrying asynchronous results back into the update loop. Local
// state only ever changes when one of these is handled, which keeps the
// single-writer model intact.
type (
	authResultMsg struct {
		subjectID string
		err       error
	}

	resourcesMsg struct {
		resources []models.Resource
		err       error
	}

	bookingsMsg struct {
		subjectID string
		bookings  []models.Booking
		err       error
	}

	availabilityMsg struct {
		token    availability.Token
		snapshot availability.Snapshot
		err      error
	}

	commitResultMsg struct {
		action constants.ConfirmAction
		err    error
	}

	secretChangedMsg struct {
		err error
	}

	noticeExpiredMsg struct {
		id int
	}
)

func loginTokenCmd(client api.Client, tag string) tea.Cmd {
	return func() tea.Msg {
		subject, err := client.AuthenticateToken(context.Background(), tag)
		return authResultMsg{subjectID: subject, err: err}
	}
}

func loginCredentialCmd(client api.Client, subjectID, secret string) tea.Cmd {
	return func() tea.Msg {
		subject, err := client.AuthenticateCredential(context.Background(), subjectID, secret)
		return authResultMsg{subjectID: subject, err: err}
	}
}

func loadResourcesCmd(client api.Client) tea.Cmd {
	return func() tea.Msg {
		resources, err := client.ListResources(context.Background())
		return resourcesMsg{resources: resources, err: err}
	}
}

// loadBookingsCmd carries the subject it was issued for; the update loop
// drops the result if the session has moved on, the same way stale
// availability is dropped by token.
func loadBookingsCmd(client api.Client, subjectID string) tea.Cmd {
	return func() tea.Msg {
		bookings, err := client.ListBookings(context.Background(), subjectID)
		return bookingsMsg{subjectID: subjectID, bookings: bookings, err: err}
	}
}

// refreshCmd fetches one date's slots per goroutine and assembles a single
// snapshot. The token travels with the result; the update loop decides
// whether it is still current. The fetches themselves are never aborted.
func refreshCmd(client api.Client, token availability.Token, resourceID string, bookingType constants.BookingType, dates []string) tea.Cmd {
	return func() tea.Msg {
		slotsByDate := make(map[string][]models.Slot, len(dates))
		errs := make([]error, len(dates))

		var wg sync.WaitGroup
		var mu sync.Mutex
		for i, date := range dates {
			wg.Add(1)
			go func(i int, date string) {
				defer wg.Done()
				slots, err := client.GetAvailability(context.Background(), resourceID, date)
				if err != nil {
					errs[i] = err
					return
				}
				mu.Lock()
				slotsByDate[date] = slots
				mu.Unlock()
			}(i, date)
		}
		wg.Wait()

		for _, err := range errs {
			if err != nil {
				return availabilityMsg{token: token, err: err}
			}
		}

		var snap availability.Snapshot
		if bookingType == constants.BookingFullDay {
			snap = availability.BuildDaySnapshot(resourceID, slotsByDate)
		} else {
			snap = availability.BuildSlotSnapshot(resourceID, slotsByDate)
		}
		logger.Debug("availability fetched", "resource", resourceID, "token", token, "dates", len(dates))
		return availabilityMsg{token: token, snapshot: snap}
	}
}

func bookCmd(client api.Client, req api.BookingRequest, action constants.ConfirmAction) tea.Cmd {
	return func() tea.Msg {
		_, err := client.CreateBooking(context.Background(), req)
		return commitResultMsg{action: action, err: err}
	}
}

func cancelCmd(client api.Client, bookingID string) tea.Cmd {
	return func() tea.Msg {
		err := client.CancelBooking(context.Background(), bookingID)
		return commitResultMsg{action: constants.ConfirmCancel, err: err}
	}
}

func changeSecretCmd(client api.Client, newSecret string) tea.Cmd {
	return func() tea.Msg {
		return secretChangedMsg{err: client.ChangeSecret(context.Background(), newSecret)}
	}
}

func noticeExpiryCmd(id int) tea.Cmd {
	return tea.Tick(constants.NoticeDuration, func(time.Time) tea.Msg {
		return noticeExpiredMsg{id: id}
	})
}
