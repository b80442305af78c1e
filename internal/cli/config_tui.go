package cli

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"termcal/config"
	"termcal/internal/i18n"
	"termcal/internal/ui/components"
)

// escapeSeq matches CSI and OSC terminal escape sequences
var escapeSeq = regexp.MustCompile(`\x1b(\[[0-?]*[ -/]*[@-~]|\][^\x07\x1b]*(\x07|\x1b\\))`)

// printable drops escape sequences and control characters so a config value
// cannot restyle the screen
func printable(s string) string {
	return strings.Map(func(r rune) rune {
		if (r < ' ' && r != '\t') || r == 0x7f {
			return -1
		}
		return r
	}, escapeSeq.ReplaceAllString(s, ""))
}

var logLevels = []string{"", "debug", "info", "warn", "error"}

type configStyles struct {
	title, section, label, value, empty, selected, cursor, hint, err lipgloss.Style
	button, buttonSelected, buttonDanger, buttonSuccess              lipgloss.Style
	box, editBox                                                     lipgloss.Style
}

// newConfigStyles builds styles from the active theme
func newConfigStyles() configStyles {
	white := lipgloss.Color("#F9FAFB")
	button := lipgloss.NewStyle().Foreground(white).Background(components.Bg).Padding(0, 2).MarginRight(1)
	return configStyles{
		title:          lipgloss.NewStyle().Bold(true).Foreground(components.Primary).MarginBottom(1),
		section:        lipgloss.NewStyle().Foreground(components.Secondary).Bold(true).MarginTop(1).MarginBottom(1),
		label:          lipgloss.NewStyle().Foreground(components.Secondary).Width(26),
		value:          lipgloss.NewStyle().Foreground(components.Text),
		empty:          lipgloss.NewStyle().Foreground(components.Muted).Italic(true),
		selected:       lipgloss.NewStyle().Foreground(white).Background(components.Primary).Bold(true).Padding(0, 1),
		cursor:         lipgloss.NewStyle().Foreground(components.Primary).Bold(true),
		hint:           lipgloss.NewStyle().Foreground(components.Muted).MarginTop(1),
		err:            lipgloss.NewStyle().Foreground(components.Danger).Bold(true),
		button:         button,
		buttonSelected: button.Background(components.Primary).Bold(true),
		buttonDanger:   button.Background(components.Danger),
		buttonSuccess:  button.Background(components.Success),
		box:            lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(components.Muted).Padding(1, 2),
		editBox:        lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(components.Primary).Padding(1, 2),
	}
}

type rowKind int

const (
	rowField rowKind = iota
	rowAction
	rowHeading
)

// Row groups; index selects the calendar or AI provider
const (
	groupGeneral  = "general"
	groupCalendar = "calendar"
	groupAI       = "ai"
)

type configRow struct {
	group    string
	index    int
	key      string
	label    string
	value    string
	editable bool
	isSecret bool
	kind     rowKind
}

type configMode int

const (
	modeBrowse  configMode = iota // read-only listing
	modeEdit                      // rows selectable, action buttons shown
	modeInput                     // typing a new value for one field
	modeConfirm                   // leaving edit mode with unsaved changes
)

var configKeys = struct {
	Up, Down, Edit, Select, Back key.Binding
	Commit, Abort                key.Binding
	Save, Discard, Stay          key.Binding
}{
	Up:      key.NewBinding(key.WithKeys("up", "k")),
	Down:    key.NewBinding(key.WithKeys("down", "j")),
	Edit:    key.NewBinding(key.WithKeys("e")),
	Select:  key.NewBinding(key.WithKeys("enter", " ")),
	Back:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c")),
	Commit:  key.NewBinding(key.WithKeys("enter")),
	Abort:   key.NewBinding(key.WithKeys("esc")),
	Save:    key.NewBinding(key.WithKeys("y", "s")),
	Discard: key.NewBinding(key.WithKeys("n", "d")),
	Stay:    key.NewBinding(key.WithKeys("esc", "c")),
}

// ConfigTUI browses config.yml and edits it in place
type ConfigTUI struct {
	cfg      config.Config
	rows     []configRow
	cursor   int
	mode     configMode
	input    textinput.Model
	dirty    bool
	loadErr  error
	saveErr  error
	fieldErr string
	width    int
	height   int
	save     func(config.Config) error
	load     func() (config.Config, error)
}

func NewConfigTUI() ConfigTUI {
	cfg, err := config.Load()
	return newConfigTUI(cfg, err, config.Config.Save)
}

func newConfigTUI(cfg config.Config, loadErr error, save func(config.Config) error) ConfigTUI {
	m := ConfigTUI{
		cfg:     cfg,
		loadErr: loadErr,
		width:   80,
		height:  24,
		save:    save,
		load:    config.Load,
	}
	m.buildRows()
	m.clampCursor()
	return m
}

func maskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) > 8:
		return s[:4] + "••••" + s[len(s)-4:]
	default:
		return "••••••••"
	}
}

func (m *ConfigTUI) buildRows() {
	field := func(key, label, value string) configRow {
		return configRow{group: groupGeneral, index: -1, key: key, label: label, value: value, editable: true, kind: rowField}
	}

	native := "off"
	var urls []string
	if n := m.cfg.Notifications; n != nil {
		if n.Native.Enabled {
			native = "on"
		}
		urls = n.URLs
	}

	m.rows = []configRow{
		field("theme", "Theme", m.cfg.Theme),
		field("language", "Language", m.cfg.Language),
		field("week_start", "Week Start", m.cfg.WeekStart),
		field("time_format", "Time Format", m.cfg.TimeFormat),
		field("default_duration_minutes", "Default Duration (min)", strconv.Itoa(m.cfg.DefaultDurationMinutes)),
		field("default_reminder_minutes", "Default Reminder (min)", strconv.Itoa(m.cfg.DefaultReminderMinutes)),
		field("log_level", "Log Level", m.cfg.LogLevel),
		field("storage_backend", "Storage Backend", m.cfg.Storage.Backend),
		field("storage_path", "Storage Path", m.cfg.Storage.Path),
		field("native_notifications", "Native Notifications", native),
		field("notification_urls", "Notification URLs", strings.Join(urls, ", ")),
		field("update_repository", "Update Repository", m.cfg.Update.Repository),
	}

	for i, cal := range m.cfg.Calendars {
		m.rows = append(m.rows,
			configRow{key: "heading", label: fmt.Sprintf("Calendar %d", i+1), kind: rowHeading},
			configRow{group: groupCalendar, index: i, key: "id", label: "ID", value: cal.ID, editable: true, kind: rowField},
			configRow{group: groupCalendar, index: i, key: "title", label: "Title", value: cal.Title, editable: true, kind: rowField},
			configRow{group: groupCalendar, index: i, key: "color", label: "Color", value: cal.Color, editable: true, kind: rowField},
			configRow{group: groupCalendar, index: i, key: "delete", label: "Delete Calendar", kind: rowAction},
		)
	}

	for i, p := range m.cfg.AIProviders {
		m.rows = append(m.rows,
			configRow{key: "heading", label: fmt.Sprintf("AI Provider %d", i+1), kind: rowHeading},
			configRow{group: groupAI, index: i, key: "type", label: "Type", value: string(p.Type), editable: true, kind: rowField},
			configRow{group: groupAI, index: i, key: "name", label: "Name", value: p.Name, editable: true, kind: rowField},
			configRow{group: groupAI, index: i, key: "model", label: "Model", value: p.Model, editable: true, kind: rowField},
			configRow{group: groupAI, index: i, key: "base_url", label: "Base URL", value: p.BaseURL, editable: true, kind: rowField},
			configRow{group: groupAI, index: i, key: "api_key", label: "API Key", value: maskSecret(p.APIKey), editable: true, isSecret: true, kind: rowField},
			configRow{group: groupAI, index: i, key: "delete", label: "Delete Provider", kind: rowAction},
		)
	}

	if m.mode != modeBrowse {
		m.rows = append(m.rows,
			configRow{key: "heading", label: "Actions", kind: rowHeading},
			configRow{key: "add_calendar", label: "Add Calendar", kind: rowAction},
			configRow{key: "add_ai", label: "Add AI Provider", kind: rowAction},
			configRow{key: "save", label: "Save Changes", kind: rowAction},
			configRow{key: "cancel", label: "Cancel", kind: rowAction},
		)
	}
}

func (m ConfigTUI) Init() tea.Cmd { return nil }

func (m ConfigTUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch m.mode {
		case modeConfirm:
			return m.keyConfirm(msg)
		case modeInput:
			return m.keyInput(msg)
		default:
			return m.keyList(msg)
		}
	}
	return m, nil
}

func (m ConfigTUI) keyList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, configKeys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, configKeys.Down):
		m.moveCursor(1)
	case m.mode == modeBrowse && key.Matches(msg, configKeys.Edit):
		if m.loadErr == nil {
			m.setMode(modeEdit)
		}
	case m.mode == modeEdit && key.Matches(msg, configKeys.Select):
		return m.handleSelect()
	case key.Matches(msg, configKeys.Back):
		if m.mode == modeBrowse {
			return m, tea.Quit
		}
		m.leaveEdit()
	}
	return m, nil
}

func (m ConfigTUI) keyInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, configKeys.Commit):
		m.finishInput()
		return m, nil
	case key.Matches(msg, configKeys.Abort):
		m.mode, m.fieldErr = modeEdit, ""
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m ConfigTUI) keyConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, configKeys.Save):
		m.commit()
	case key.Matches(msg, configKeys.Discard):
		m.discard()
	case key.Matches(msg, configKeys.Stay):
		m.mode = modeEdit
	}
	return m, nil
}

// setMode switches mode and rebuilds rows, since edit mode adds buttons
func (m *ConfigTUI) setMode(mode configMode) {
	m.mode = mode
	m.buildRows()
	m.clampCursor()
}

// changed records an edit to m.cfg
func (m *ConfigTUI) changed() {
	m.dirty = true
	m.buildRows()
	m.clampCursor()
}

// leaveEdit returns to browsing, asking first when there are unsaved edits
func (m *ConfigTUI) leaveEdit() {
	if m.dirty {
		m.mode = modeConfirm
		return
	}
	m.setMode(modeBrowse)
}

// commit writes the config. On failure the editor stays open with the error.
func (m *ConfigTUI) commit() {
	if err := m.save(m.cfg); err != nil {
		m.saveErr = err
		m.mode = modeEdit
		return
	}
	m.saveErr, m.dirty = nil, false
	m.setMode(modeBrowse)
}

// discard drops unsaved edits by reloading from disk
func (m *ConfigTUI) discard() {
	m.cfg, m.loadErr = m.load()
	m.saveErr, m.dirty = nil, false
	m.setMode(modeBrowse)
}

func (m *ConfigTUI) moveCursor(delta int) {
	for i := m.cursor + delta; i >= 0 && i < len(m.rows); i += delta {
		if m.rows[i].kind != rowHeading {
			m.cursor = i
			return
		}
	}
}

// clampCursor keeps the cursor on a selectable row after rows change
func (m *ConfigTUI) clampCursor() {
	m.cursor = max(0, min(m.cursor, len(m.rows)-1))
	for m.cursor < len(m.rows)-1 && m.rows[m.cursor].kind == rowHeading {
		m.cursor++
	}
}

func (m ConfigTUI) handleSelect() (tea.Model, tea.Cmd) {
	if m.cursor >= len(m.rows) {
		return m, nil
	}
	row := m.rows[m.cursor]
	if row.kind == rowAction {
		m.runAction(row)
		return m, nil
	}
	if !row.editable {
		return m, nil
	}

	m.mode, m.fieldErr = modeInput, ""
	m.input = textinput.New()
	m.input.Prompt = ""
	m.input.CharLimit = 500
	m.input.Width = 40
	if row.isSecret {
		m.input.Placeholder = "new value, empty keeps the current one"
		m.input.EchoMode = textinput.EchoPassword
		m.input.EchoCharacter = '•'
	} else {
		m.input.SetValue(row.value)
	}
	m.input.Focus()
	return m, textinput.Blink
}

func (m *ConfigTUI) runAction(row configRow) {
	switch row.key {
	case "add_calendar":
		n := len(m.cfg.Calendars) + 1
		m.cfg.Calendars = append(m.cfg.Calendars, config.CalendarConfig{
			ID:    fmt.Sprintf("calendar%d", n),
			Title: fmt.Sprintf("Calendar %d", n),
		})
		m.changed()
	case "add_ai":
		m.cfg.AIProviders = append(m.cfg.AIProviders, config.AIProvider{Type: config.AIProviderTypeCLI})
		m.changed()
	case "delete":
		switch {
		case row.group == groupCalendar && row.index < len(m.cfg.Calendars):
			m.cfg.Calendars = slices.Delete(m.cfg.Calendars, row.index, row.index+1)
		case row.group == groupAI && row.index < len(m.cfg.AIProviders):
			m.cfg.AIProviders = slices.Delete(m.cfg.AIProviders, row.index, row.index+1)
		default:
			return
		}
		m.changed()
	case "save":
		m.commit()
	case "cancel":
		m.leaveEdit()
	}
}

// finishInput validates the typed value and applies it to the selected field
func (m *ConfigTUI) finishInput() {
	ok, err := applyConfigField(&m.cfg, m.rows[m.cursor], strings.TrimSpace(m.input.Value()))
	if err != nil {
		m.fieldErr = err.Error()
		return
	}
	m.mode, m.fieldErr = modeEdit, ""
	if ok {
		m.changed()
		return
	}
	m.buildRows()
}

// applyConfigField validates value and stores it in the field row points to
func applyConfigField(cfg *config.Config, row configRow, value string) (bool, error) {
	set := func(dst *string, v string) bool {
		if *dst == v {
			return false
		}
		*dst = v
		return true
	}
	oneOf := func(dst *string, v string, allowed []string) (bool, error) {
		v = strings.ToLower(v)
		if !slices.Contains(allowed, v) {
			return false, fmt.Errorf("must be one of %s", strings.Join(allowed, ", "))
		}
		return set(dst, v), nil
	}
	minutes := func(dst *int, v string, least int) (bool, error) {
		n, err := strconv.Atoi(v)
		if err != nil || n < least {
			return false, fmt.Errorf("must be a whole number >= %d", least)
		}
		if *dst == n {
			return false, nil
		}
		*dst = n
		return true, nil
	}

	switch row.group {
	case groupGeneral:
		switch row.key {
		case "theme":
			return oneOf(&cfg.Theme, value, components.Themes())
		case "language":
			return oneOf(&cfg.Language, value, append([]string{""}, i18n.SupportedLanguages...))
		case "week_start":
			return oneOf(&cfg.WeekStart, value, []string{"sunday", "monday"})
		case "time_format":
			return oneOf(&cfg.TimeFormat, value, []string{"24h", "12h"})
		case "default_duration_minutes":
			return minutes(&cfg.DefaultDurationMinutes, value, 1)
		case "default_reminder_minutes":
			return minutes(&cfg.DefaultReminderMinutes, value, 0)
		case "log_level":
			return oneOf(&cfg.LogLevel, value, logLevels)
		case "storage_backend":
			return oneOf(&cfg.Storage.Backend, value, []string{config.BackendJSON, config.BackendSQLite})
		case "storage_path":
			return set(&cfg.Storage.Path, value), nil
		case "native_notifications":
			v := strings.ToLower(value)
			if v != "on" && v != "off" {
				return false, fmt.Errorf("must be on or off")
			}
			if cfg.Notifications == nil {
				cfg.Notifications = &config.NotificationConfig{}
			}
			enabled := v == "on"
			if cfg.Notifications.Native.Enabled == enabled {
				return false, nil
			}
			cfg.Notifications.Native.Enabled = enabled
			return true, nil
		case "notification_urls":
			var urls []string
			for _, u := range strings.Split(value, ",") {
				if u = strings.TrimSpace(u); u != "" {
					if !strings.Contains(u, "://") {
						return false, fmt.Errorf("%q is not a service URL", u)
					}
					urls = append(urls, u)
				}
			}
			if cfg.Notifications == nil {
				cfg.Notifications = &config.NotificationConfig{}
			}
			if slices.Equal(cfg.Notifications.URLs, urls) {
				return false, nil
			}
			cfg.Notifications.URLs = urls
			return true, nil
		case "update_repository":
			if owner, name, ok := strings.Cut(value, "/"); !ok || owner == "" || name == "" {
				return false, fmt.Errorf("must be owner/name")
			}
			return set(&cfg.Update.Repository, value), nil
		}

	case groupCalendar:
		if row.index < 0 || row.index >= len(cfg.Calendars) {
			return false, nil
		}
		cal := &cfg.Calendars[row.index]
		switch row.key {
		case "id":
			if value == "" {
				return false, fmt.Errorf("must not be empty")
			}
			for i, other := range cfg.Calendars {
				if i != row.index && other.ID == value {
					return false, fmt.Errorf("calendar %q already exists", value)
				}
			}
			return set(&cal.ID, value), nil
		case "title":
			return set(&cal.Title, value), nil
		case "color":
			if value != "" && !strings.HasPrefix(value, "#") {
				return false, fmt.Errorf("must be a hex color like #7C3AED")
			}
			return set(&cal.Color, value), nil
		}

	case groupAI:
		if row.index < 0 || row.index >= len(cfg.AIProviders) {
			return false, nil
		}
		p := &cfg.AIProviders[row.index]
		switch row.key {
		case "type":
			t := string(p.Type)
			changed, err := oneOf(&t, value, []string{string(config.AIProviderTypeCLI), string(config.AIProviderTypeAPI)})
			p.Type = config.AIProviderType(t)
			return changed, err
		case "name":
			return set(&p.Name, value), nil
		case "model":
			return set(&p.Model, value), nil
		case "base_url":
			return set(&p.BaseURL, value), nil
		case "api_key":
			// Empty input keeps the current key
			if value == "" {
				return false, nil
			}
			return set(&p.APIKey, value), nil
		}
	}
	return false, nil
}

var configHints = map[configMode]string{
	modeBrowse:  "↑↓ move • e edit • q quit",
	modeEdit:    "↑↓ move • enter edit or press • esc done",
	modeInput:   "enter apply • esc cancel",
	modeConfirm: "s save • d discard • c keep editing",
}

func (m ConfigTUI) View() string {
	st := newConfigStyles()

	title := "⚙  termcal configuration"
	if m.dirty {
		title += st.err.Render(" (unsaved)")
	}
	lines := []string{st.title.Render(title), ""}

	for _, problem := range []struct {
		what string
		err  error
	}{{"loading", m.loadErr}, {"saving", m.saveErr}} {
		if problem.err != nil {
			lines = append(lines, st.err.Render(fmt.Sprintf("⚠ Error %s config: %v", problem.what, problem.err)), "")
		}
	}
	if m.mode != modeBrowse {
		lines = append(lines, st.section.Render("━━━ Edit Mode ━━━"), "")
	}

	for i, row := range m.rows {
		lines = append(lines, m.renderRow(st, i == m.cursor, row))
	}

	if m.mode == modeConfirm {
		buttons := st.buttonSuccess.Render(" S  Save ") + "  " +
			st.buttonDanger.Render(" D  Discard ") + "  " +
			st.button.Render(" C  Cancel ")
		dialog := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(components.Danger).
			Padding(1, 2).
			Render(st.err.Render("Unsaved changes!") + "\n\n" + buttons)
		lines = append(lines, "", dialog)
	}

	hint := configHints[m.mode]
	if m.mode == modeBrowse && m.loadErr != nil {
		hint = "↑↓ move • q quit (editing disabled)"
	}
	lines = append(lines, "", st.hint.Render(hint))

	box := st.box
	if m.mode != modeBrowse {
		box = st.editBox
	}
	return box.Render(strings.Join(lines, "\n"))
}

var actionLooks = map[string]struct {
	icon   string
	accent func(configStyles) lipgloss.Style
}{
	"add_calendar": {"+", func(s configStyles) lipgloss.Style { return s.buttonSuccess }},
	"add_ai":       {"+", func(s configStyles) lipgloss.Style { return s.buttonSuccess }},
	"save":         {"✓", func(s configStyles) lipgloss.Style { return s.buttonSuccess }},
	"delete":       {"✕", func(s configStyles) lipgloss.Style { return s.buttonDanger }},
	"cancel":       {"✕", func(s configStyles) lipgloss.Style { return s.button }},
}

func (m ConfigTUI) renderRow(st configStyles, selected bool, row configRow) string {
	pointer := "  "
	if selected {
		pointer = st.cursor.Render("▸ ")
	}

	switch row.kind {
	case rowHeading:
		return "\n" + st.section.Render("─── "+row.label+" ───")

	case rowAction:
		look := actionLooks[row.key]
		label := " " + row.label + " "
		if look.icon != "" {
			label = " " + look.icon + label
		}
		style := st.button
		if look.accent != nil {
			style = look.accent(st)
		}
		if selected {
			style = st.buttonSelected
		}
		return pointer + style.Render(label)
	}

	label := st.label.Render(row.label)
	value := printable(row.value)
	switch {
	case selected && m.mode == modeInput:
		line := pointer + label + m.input.View()
		if m.fieldErr != "" {
			line += "  " + st.err.Render("⚠ "+m.fieldErr)
		}
		return line
	case selected:
		return pointer + label + st.selected.Render(" "+value+" ")
	case value == "":
		return pointer + label + st.empty.Render("(not set)")
	default:
		return pointer + label + st.value.Render(value)
	}
}

func RunConfigTUI() error {
	_, err := tea.NewProgram(NewConfigTUI(), tea.WithAltScreen()).Run()
	return err
}
