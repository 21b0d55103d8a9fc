// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/jeranaias/persona-tui/internal/config"
	"github.com/jeranaias/persona-tui/internal/model"
	"github.com/jeranaias/persona-tui/internal/offline"
	"github.com/jeranaias/persona-tui/internal/provider"
	"github.com/jeranaias/persona-tui/internal/render"
	"github.com/jeranaias/persona-tui/internal/storage"
	"github.com/jeranaias/persona-tui/internal/ui/components"
	"github.com/jeranaias/persona-tui/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateReady     State = iota // Ready for input
	StateStreaming              // Receiving a reply
	StateError                  // Showing an error
)

// mode selects which surface has input focus.
type mode int

const (
	modeChat    mode = iota // Normal chat input
	modeRoster              // Character list panel
	modeCreate              // Character creation wizard
	modeOverlay             // Static text overlay
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// State
	state State
	mode  mode

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int
	ready  bool

	// Configuration and backends
	cfg    *config.Config
	store  *storage.Store
	client *provider.Client
	picker *offline.Picker
	runner *StreamRunner

	// Characters and conversation
	roster       []*model.Character
	character    *model.Character
	conversation *model.Conversation

	// Current streaming reply
	streamingMsgID  string
	streamingBuffer *StreamingBuffer
	renderer        *render.Incremental
	thinkingStart   time.Time

	// UI components
	viewport    viewport.Model
	input       textinput.Model
	spinner     spinner.Model
	statusBar   *components.StatusBar
	rosterPanel *components.Roster

	// Key bindings
	keyMap KeyMap

	// Transient display state
	lastError    *ErrorMsg
	statusMsg    string
	overlayTitle string
	overlayBody  string

	// Character creation wizard
	wizard *createWizard
}

// New creates the chat model. The most recently active character is
// selected; a roster with no activity starts on its first entry.
func New(cfg *config.Config, store *storage.Store, runner *StreamRunner) (Model, error) {
	theme := styles.NewTheme(cfg.UI.Theme)

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "输入消息，或 / 开头的命令..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 30,
	}
	sp.Style = theme.Spinner

	roster, err := store.LoadCharacters()
	if err != nil {
		return Model{}, err
	}

	m := Model{
		state:           StateReady,
		mode:            modeChat,
		theme:           theme,
		cfg:             cfg,
		store:           store,
		client:          provider.NewClient(cfg.ToProviderConfig().Normalize()),
		picker:          offline.NewPicker(),
		runner:          runner,
		roster:          roster,
		streamingBuffer: NewStreamingBuffer(),
		renderer:        render.NewIncremental(render.DefaultWidth),
		viewport:        vp,
		input:           ti,
		spinner:         sp,
		statusBar:       components.NewStatusBar(theme),
		rosterPanel:     components.NewRoster(theme),
		keyMap:          DefaultKeyMap(),
	}

	if ch := mostRecentlyActive(roster); ch != nil {
		if err := m.setCharacter(ch); err != nil {
			return Model{}, err
		}
	}

	return m, nil
}

// mostRecentlyActive picks the character with the newest LastActive,
// falling back to the first entry.
func mostRecentlyActive(roster []*model.Character) *model.Character {
	if len(roster) == 0 {
		return nil
	}
	best := roster[0]
	for _, ch := range roster[1:] {
		if ch.LastActive.After(best.LastActive) {
			best = ch
		}
	}
	return best
}

// =============================================================================
// STATE HELPERS
// =============================================================================

// setCharacter makes ch the active character and loads its
// conversation.
func (m *Model) setCharacter(ch *model.Character) error {
	conv, err := m.store.LoadConversation(ch)
	if err != nil {
		return err
	}
	m.character = ch
	m.conversation = conv
	m.refreshViewport()
	m.viewport.GotoBottom()
	return nil
}

// reloadRoster refreshes the in-memory character list from disk.
func (m *Model) reloadRoster() {
	roster, err := m.store.LoadCharacters()
	if err != nil {
		m.setError("无法读取角色列表", err.Error())
		return
	}
	m.roster = roster
	m.rosterPanel.SetCharacters(roster)
}

// setError records an error for display.
func (m *Model) setError(title, message string) {
	m.lastError = &ErrorMsg{Title: title, Message: message}
	m.state = StateError
}

// clearError dismisses the error display.
func (m *Model) clearError() {
	m.lastError = nil
	if m.state == StateError {
		m.state = StateReady
	}
}

// openOverlay shows a static text overlay until dismissed with Esc.
func (m *Model) openOverlay(title, body string) {
	m.overlayTitle = title
	m.overlayBody = body
	m.mode = modeOverlay
}

// closeOverlay returns to the chat surface.
func (m *Model) closeOverlay() {
	m.overlayTitle = ""
	m.overlayBody = ""
	m.mode = modeChat
}

// applyConfig swaps in a freshly loaded configuration: the provider
// client is rebuilt and the theme follows the configured name.
func (m *Model) applyConfig(cfg *config.Config) {
	themeChanged := m.cfg == nil || m.cfg.UI.Theme != cfg.UI.Theme
	m.cfg = cfg
	m.client = provider.NewClient(cfg.ToProviderConfig().Normalize())

	if themeChanged {
		m.theme = styles.NewTheme(cfg.UI.Theme)
		m.spinner.Style = m.theme.Spinner
		m.statusBar = components.NewStatusBar(m.theme)
		m.statusBar.SetWidth(m.width)
		m.rosterPanel = components.NewRoster(m.theme)
		m.rosterPanel.SetCharacters(m.roster)
		m.refreshViewport()
	}
}

// Character returns the active character, or nil.
func (m *Model) Character() *model.Character {
	return m.character
}

// Conversation returns the active conversation, or nil.
func (m *Model) Conversation() *model.Conversation {
	return m.conversation
}

// =============================================================================
// CHARACTER CREATION WIZARD
// =============================================================================

// wizardField is one prompt of the creation flow.
type wizardField struct {
	label    string
	required bool
}

// createWizard collects character fields one input at a time.
type createWizard struct {
	fields  []wizardField
	answers []string
	idx     int
}

// newCreateWizard starts a wizard at the first field.
func newCreateWizard() *createWizard {
	return &createWizard{
		fields: []wizardField{
			{label: "角色名称", required: true},
			{label: "图标（单个表情符号，留空用 ✨）"},
			{label: "一句话描述"},
			{label: "性格特点"},
			{label: "背景设定"},
			{label: "开场白"},
		},
	}
}

// prompt returns the label of the current field.
func (w *createWizard) prompt() string {
	return w.fields[w.idx].label
}

// submit records an answer. It returns false when a required field was
// left empty; done reports whether all fields are collected.
func (w *createWizard) submit(answer string) (accepted, done bool) {
	answer = trimInput(answer)
	if answer == "" && w.fields[w.idx].required {
		return false, false
	}
	w.answers = append(w.answers, answer)
	w.idx++
	return true, w.idx >= len(w.fields)
}

// build assembles the collected answers into a character.
func (w *createWizard) build() *model.Character {
	name, icon, desc := w.answers[0], w.answers[1], w.answers[2]
	if icon == "" {
		icon = "✨"
	}
	ch := model.NewCharacter(name, icon, desc)
	ch.Personality = w.answers[3]
	ch.Background = w.answers[4]
	ch.OpeningMessage = w.answers[5]
	return ch
}
