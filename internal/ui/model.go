// ABOUTME: Bubbletea model for the scripture chat TUI
// ABOUTME: Loading, quote and chat screens with per-message playback
package ui

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/siervo-de-dios/siervo-go/internal/chat"
	"github.com/siervo-de-dios/siervo-go/internal/player"
	"github.com/siervo-de-dios/siervo-go/pkg/audio/output"
)

type screen int

const (
	screenLoading screen = iota
	screenQuote
	screenChat
)

// Options wires the model to the app
type Options struct {
	Conversation *chat.Conversation
	Quotes       chat.QuoteSource
	Assets       *player.Manager
	Output       output.Output
	VoiceEnabled bool
	Volume       int
	ExportDir    string
}

// Model represents the TUI state
type Model struct {
	screen screen
	quote  chat.Quote

	// Conversation
	conv     *chat.Conversation
	quotes   chat.QuoteSource
	messages []chat.Message
	outgoing string
	pending  bool
	canRetry bool

	// Playback
	deck         *player.Deck
	out          output.Output
	events       chan tea.Msg
	selected     string
	voiceEnabled bool
	volume       int
	muted        bool
	exportDir    string

	// Widgets
	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model

	status string

	// Dimensions
	width  int
	height int
}

// NewModel creates a new TUI model
func NewModel(opts Options) Model {
	events := make(chan tea.Msg, 32)

	assets := opts.Assets
	if assets == nil {
		assets = player.NewManager(player.ManagerConfig{Output: opts.Output})
	}

	deck := player.NewDeck(assets, func(key string, state player.State) {
		// Never block the caller; the view reads controller state directly
		select {
		case events <- playbackMsg{key: key, state: state}:
		default:
		}
	})

	input := textinput.New()
	input.Placeholder = "Escribe tu inquietud o un texto bíblico..."
	input.CharLimit = 2000
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = goldStyle

	volume := opts.Volume
	if volume <= 0 || volume > 100 {
		volume = 100
	}
	exportDir := opts.ExportDir
	if exportDir == "" {
		exportDir = "."
	}

	return Model{
		screen:       screenLoading,
		conv:         opts.Conversation,
		quotes:       opts.Quotes,
		deck:         deck,
		out:          opts.Output,
		events:       events,
		voiceEnabled: opts.VoiceEnabled,
		volume:       volume,
		exportDir:    exportDir,
		input:        input,
		spinner:      spin,
		viewport:     viewport.New(0, 0),
	}
}

// Deck returns the playback controllers owned by the model
func (m Model) Deck() *player.Deck {
	return m.deck
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		loadQuote(m.quotes),
		listen(m.events),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 4
		m.resize()
		m.refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case quoteMsg:
		m.quote = chat.Quote(msg)
		if m.screen == screenLoading {
			m.screen = screenQuote
		}

	case replyMsg:
		m.applyReply(msg)
		m.refresh()

	case playbackMsg:
		m.refresh()
		return m, listen(m.events)

	case downloadMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("No se pudo guardar el audio: %v", msg.err)
		} else {
			m.status = fmt.Sprintf("Audio guardado en %s", msg.path)
		}
	}

	return m, nil
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	}

	switch m.screen {
	case screenQuote:
		if msg.String() == "enter" {
			return m.enterChat()
		}
		return m, nil
	case screenChat:
		return m.handleChatKey(msg)
	}

	return m, nil
}

// enterChat leaves the quote screen and starts the conversation
func (m Model) enterChat() (tea.Model, tea.Cmd) {
	m.screen = screenChat
	m.resize()
	if m.conv == nil {
		return m, nil
	}
	m.pending = true
	m.refresh()
	return m, startConversation(m.conv)
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.send()
	case "ctrl+r":
		if m.pending || !m.canRetry || m.conv == nil {
			return m, nil
		}
		m.pending = true
		m.status = ""
		m.refresh()
		return m, retryMessage(m.conv)
	case "ctrl+v":
		m.voiceEnabled = !m.voiceEnabled
		if m.voiceEnabled {
			m.status = "Voz activada"
		} else {
			m.status = "Voz desactivada"
		}
		return m, nil
	case "tab":
		m.moveSelection(1)
		m.refresh()
		return m, nil
	case "shift+tab":
		m.moveSelection(-1)
		m.refresh()
		return m, nil
	case "ctrl+p":
		m.togglePlayback()
		m.refresh()
		return m, nil
	case "ctrl+d":
		c := m.selectedController()
		if c == nil || !c.HasAudio() {
			return m, nil
		}
		return m, download(c, m.exportDir)
	case "ctrl+s":
		m.muted = !m.muted
		m.applyVolume()
		return m, nil
	case "up":
		m.volume = clampVolume(m.volume + 5)
		m.applyVolume()
		return m, nil
	case "down":
		m.volume = clampVolume(m.volume - 5)
		m.applyVolume()
		return m, nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.pending {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// send submits the input text; empty input and pending replies are ignored
func (m Model) send() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.pending || m.conv == nil {
		return m, nil
	}

	m.input.Reset()
	m.outgoing = text
	m.pending = true
	m.status = ""
	m.refresh()
	return m, sendMessage(m.conv, text)
}

// applyReply mirrors the conversation log and auto-plays new audio
func (m *Model) applyReply(r replyMsg) {
	m.pending = false
	m.outgoing = ""

	if m.conv != nil {
		m.messages = m.conv.Store().Messages()
		m.canRetry = m.conv.CanRetry()
	}

	if r.err != nil {
		log.Printf("Reply error: %v", r.err)
		if m.canRetry {
			m.status = "Pulsa ctrl+r para reintentar"
		}
		return
	}

	if r.msg.ID == "" {
		return
	}

	for _, msg := range m.messages {
		if msg.HasAudio() {
			m.deck.Add(msg.ID, msg.AudioBase64)
		}
	}

	if r.msg.HasAudio() {
		m.selected = r.msg.ID
		m.deck.Arrive(r.msg.ID, r.msg.AudioBase64, m.voiceEnabled)
	}
}

// togglePlayback plays or pauses the selected message
func (m *Model) togglePlayback() {
	c := m.selectedController()
	if c == nil {
		return
	}

	err := c.Toggle()
	switch {
	case err == nil:
		m.status = ""
	case errors.Is(err, player.ErrAssetUnavailable):
	case errors.Is(err, output.ErrPlaybackDenied):
		m.status = "Audio no disponible"
	default:
		log.Printf("Playback error: %v", err)
		m.status = "Audio no disponible"
	}
}

// audioKeys lists messages with audio in display order
func (m Model) audioKeys() []string {
	var keys []string
	for _, msg := range m.messages {
		if msg.HasAudio() {
			keys = append(keys, msg.ID)
		}
	}
	return keys
}

// moveSelection cycles through messages with audio
func (m *Model) moveSelection(delta int) {
	keys := m.audioKeys()
	if len(keys) == 0 {
		return
	}

	current := len(keys) - 1
	for i, k := range keys {
		if k == m.selected {
			current = i
			break
		}
	}

	next := (current + delta + len(keys)) % len(keys)
	m.selected = keys[next]
}

func (m Model) selectedController() *player.Controller {
	if m.selected == "" {
		return nil
	}
	c, ok := m.deck.Get(m.selected)
	if !ok {
		return nil
	}
	return c
}

func (m Model) applyVolume() {
	if m.out == nil {
		return
	}
	m.out.SetVolume(m.volume)
	m.out.SetMuted(m.muted)
}

// resize fits the viewport between the header and the input
func (m *Model) resize() {
	height := m.height - 6
	if height < 1 {
		height = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = height
}

// refresh re-renders the conversation into the viewport
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

func clampVolume(volume int) int {
	if volume < 0 {
		return 0
	}
	if volume > 100 {
		return 100
	}
	return volume
}
