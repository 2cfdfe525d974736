package constants

import "time"

// SessionState represents the current state of the kiosk TUI
type SessionState int

// Mode represents the interaction mode the kiosk runs in
type Mode string

// BookingType represents how a resource is reserved
type BookingType string

// ConfirmAction represents the staged action behind a confirmation dialog
type ConfirmAction string

const (
	AppName               = "boka"
	DefaultKeyringAccount = "stored-credential"
	DefaultConfigPath     = "~/.config/boka/boka.db"
	Version               = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the wall-clock format used for slot labels (HH:MM)
	TimeFormat = "15:04"

	// Mode constants. Front desk is the attended terminal where residents
	// scan a tag; self service is the resident-facing flow with a stored
	// credential pair.
	ModeFrontDesk   Mode = "frontdesk"
	ModeSelfService Mode = "selfservice"
	DefaultMode          = ModeSelfService

	// Booking type constants
	BookingTimeSlot BookingType = "time-slot"
	BookingFullDay  BookingType = "full-day"

	// DefaultAdvanceDays is the booking horizon assumed when a resource
	// does not declare one.
	DefaultAdvanceDays = 30

	// VisibleDays is the width of the schedule viewport for time-slot
	// resources.
	VisibleDays = 4

	// MinSecretLength is the shortest accepted self-service secret.
	MinSecretLength = 4

	// NoticeDuration is how long a transient notice stays on screen before
	// auto-dismissing.
	NoticeDuration = 3500 * time.Millisecond

	// Confirm action constants
	ConfirmBookSlot ConfirmAction = "book-slot"
	ConfirmBookDay  ConfirmAction = "book-day"
	ConfirmCancel   ConfirmAction = "cancel"

	// Prefs keys
	PrefKeyMode = "mode"
)

// Session states of the kiosk TUI. The workflow is anonymous in StateLogin,
// authenticated from StateSetup on; StateConfirm and StatePassword are
// overlays reachable only while authenticated.
const (
	StateLogin SessionState = iota
	StateSetup
	StateSchedule
	StateConfirm
	StatePassword
)
