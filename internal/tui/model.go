package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/maltehallstrom/boka/internal/api"
	"github.com/maltehallstrom/boka/internal/availability"
	"github.com/maltehallstrom/boka/internal/constants"
	"github.com/maltehallstrom/boka/internal/keyring"
	"github.com/maltehallstrom/boka/internal/models"
	"github.com/maltehallstrom/boka/internal/prefs"
	"github.com/maltehallstrom/boka/internal/utils"
)

// LoginFormModel backs the self-service credential form.
type LoginFormModel struct {
	SubjectID string
	Secret    string
	Remember  bool
}

// PasswordFormModel backs the change-password form.
type PasswordFormModel struct {
	NewSecret string
}

// confirmRecord stages a booking or cancellation behind an explicit
// confirmation. Nothing mutates until the record is committed.
type confirmRecord struct {
	Action       constants.ConfirmAction
	Title        string
	Message      string
	PriceUnits   int
	ResourceID   string
	ResourceName string
	Date         string
	SlotLabel    string
	BookingID    string
	Start        time.Time
	End          time.Time
	Billable     bool
}

// setupFocus selects which pane of the setup step has the cursor.
type setupFocus int

const (
	focusResources setupFocus = iota
	focusBookings
)

// Model is the booking workflow state machine. All state transitions happen
// inside Update between awaited I/O completions; asynchronous results arrive
// as messages carrying the token they were issued under.
type Model struct {
	client api.Client
	prefs  *prefs.Store
	sync   *availability.Synchronizer
	now    func() time.Time

	state constants.SessionState
	mode  constants.Mode

	// loading gates re-entrant logins and commits. Availability refreshes
	// are deliberately not gated; they are superseded instead.
	loading bool

	subjectID string
	resources []models.Resource
	bookings  []models.Booking

	// Schedule view: the day horizon of the selected resource and the
	// 4-day viewport into it.
	selectedResourceID string
	days               []string
	viewportStart      int
	dayCursor          int
	slotCursor         int

	// Setup view cursors.
	focus          setupFocus
	resourceCursor int
	bookingCursor  int

	// Front-desk tag capture. Printable keys accumulate here before Enter
	// submits; paste submits directly.
	tagBuffer string

	form         *huh.Form
	loginForm    *LoginFormModel
	passwordForm *PasswordFormModel

	confirm *confirmRecord

	// One transient notice at a time; the id counter drops stale expiry
	// ticks the same way the request token drops stale availability.
	notice   string
	noticeID int

	keys     KeyMap
	help     help.Model
	quitting bool
	width    int
	height   int
}

// Options configures a workflow model.
type Options struct {
	Client api.Client
	Prefs  *prefs.Store
	Mode   constants.Mode
	Clock  func() time.Time
}

// NewModel builds the workflow in its anonymous state.
func NewModel(opts Options) Model {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	mode := opts.Mode
	if mode == "" {
		mode = constants.DefaultMode
	}
	m := Model{
		client: opts.Client,
		prefs:  opts.Prefs,
		sync:   availability.New(),
		now:    clock,
		state:  constants.StateLogin,
		mode:   mode,
		keys:   DefaultKeyMap(),
		help:   help.New(),
	}
	if mode == constants.ModeSelfService {
		m.beginLoginForm("")
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.form != nil {
		return m.form.Init()
	}
	return nil
}

// beginLoginForm (re)creates the credential form. A preserved subject id
// survives a failed attempt; the secret never does. The stored pair from the
// keyring prefills an untouched form.
func (m *Model) beginLoginForm(keepSubjectID string) {
	lf := &LoginFormModel{SubjectID: keepSubjectID}
	if keepSubjectID == "" {
		if subject, secret, err := keyring.GetCredential(); err == nil {
			lf.SubjectID = subject
			lf.Secret = secret
			lf.Remember = true
		}
	}
	m.loginForm = lf
	m.form = NewLoginForm(lf)
}

// selectedResource resolves the current selection against the loaded
// resource set. Derived on demand, never cached.
func (m Model) selectedResource() *models.Resource {
	for i := range m.resources {
		if m.resources[i].ID == m.selectedResourceID {
			return &m.resources[i]
		}
	}
	return nil
}

// horizonDays computes the visible date horizon of a resource from its
// advance-day bounds.
func (m Model) horizonDays(r *models.Resource) []string {
	count := r.MaxAdvanceDays - r.MinAdvanceDays
	if count <= 0 {
		return nil
	}
	return utils.UpcomingDays(m.now().AddDate(0, 0, r.MinAdvanceDays), count)
}

// visibleDays returns the viewport into the day horizon: 4 days for
// time-slot resources, everything for full-day ones.
func (m Model) visibleDays() []string {
	r := m.selectedResource()
	if r == nil {
		return nil
	}
	if r.BookingType == constants.BookingFullDay {
		return m.days
	}
	end := m.viewportStart + constants.VisibleDays
	if end > len(m.days) {
		end = len(m.days)
	}
	return m.days[m.viewportStart:end]
}

// canNavigateBack and canNavigateForward bound the 4-day viewport.
func (m Model) canNavigateBack() bool { return m.viewportStart > 0 }

func (m Model) canNavigateForward() bool {
	return m.viewportStart+constants.VisibleDays < len(m.days)
}

// SubjectID exposes the authenticated subject, empty when anonymous.
func (m Model) SubjectID() string { return m.subjectID }

// State exposes the workflow step.
func (m Model) State() constants.SessionState { return m.state }

// Mode exposes the interaction mode.
func (m Model) Mode() constants.Mode { return m.mode }

// Bookings exposes the loaded reservation list.
func (m Model) Bookings() []models.Booking { return m.bookings }

// Availability exposes the published snapshot.
func (m Model) Availability() availability.Snapshot { return m.sync.Current() }

// Notice exposes the visible transient notice, empty when none.
func (m Model) Notice() string { return m.notice }
