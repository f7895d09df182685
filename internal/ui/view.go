// ABOUTME: Rendering for the scripture chat TUI screens
// ABOUTME: Gold-on-black lipgloss styles with verse highlighting
package ui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/siervo-de-dios/siervo-go/internal/chat"
	"github.com/siervo-de-dios/siervo-go/internal/player"
)

const (
	loadingText = "Inspirando tu alma..."
	pendingText = "Buscando sabiduría en las Escrituras..."
)

var (
	goldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("178"))

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	verseStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("222"))

	referenceStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("178"))

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	modelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("178"))

	helpStyle = lipgloss.NewStyle().Faint(true)

	quoteBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("178")).
			Padding(1, 4)
)

var verseRef = regexp.MustCompile(`[0-9]+:[0-9]+`)

// View renders the TUI
func (m Model) View() string {
	switch m.screen {
	case screenQuote:
		return m.renderQuote()
	case screenChat:
		return m.renderChat()
	default:
		return m.renderLoading()
	}
}

func (m Model) renderLoading() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Siervo de Dios"))
	b.WriteString("\n\n")
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render(loadingText))
	b.WriteString("\n")
	return m.center(b.String())
}

func (m Model) renderQuote() string {
	var b strings.Builder
	b.WriteString(verseStyle.Render(fmt.Sprintf("“%s”", m.quote.Verse)))
	b.WriteString("\n\n")
	b.WriteString(referenceStyle.Render("— " + m.quote.Reference))

	box := quoteBoxStyle.Render(b.String())
	if m.width > 0 {
		box = quoteBoxStyle.Width(min(m.width-4, 72)).Render(b.String())
	}

	view := lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render("Siervo de Dios"),
		subtitleStyle.Render("Luz en tu camino"),
		"",
		box,
		"",
		helpStyle.Render("enter: comenzar  esc: salir"),
	)
	return m.center(view)
}

func (m Model) renderChat() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.pending {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render(pendingText))
	} else {
		b.WriteString(m.input.View())
	}
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(goldStyle.Render(truncate(m.status, max(m.width, 20))))
		b.WriteString("\n")
	}
	b.WriteString(m.renderHelp())
	return b.String()
}

// renderHeader renders the title with voice and volume status
func (m Model) renderHeader() string {
	voice := "Voz: no"
	if m.voiceEnabled {
		voice = "Voz: sí"
	}

	muteIcon := ""
	if m.muted {
		muteIcon = " 🔇"
	}

	return fmt.Sprintf("%s  %s  [%s] %d%%%s",
		titleStyle.Render("Siervo de Dios"),
		subtitleStyle.Render(voice),
		renderBar(m.volume, 100, 10), m.volume, muteIcon)
}

// renderConversation renders every message for the viewport
func (m Model) renderConversation() string {
	var b strings.Builder

	for _, msg := range m.messages {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}

	if m.outgoing != "" {
		b.WriteString(userStyle.Render("Tú: " + m.outgoing))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderMessage(msg chat.Message) string {
	var b strings.Builder

	ts := msg.Timestamp.Format("15:04")
	if msg.Role == chat.RoleUser {
		b.WriteString(subtitleStyle.Render(ts + " Tú"))
	} else {
		b.WriteString(goldStyle.Render(ts + " Siervo de Dios"))
		if msg.HasAudio() {
			b.WriteString(" ")
			b.WriteString(m.renderAudioMarker(msg.ID))
		}
	}
	b.WriteString("\n")

	for _, line := range strings.Split(msg.Text, "\n") {
		switch {
		case msg.Failed:
			b.WriteString(errorStyle.Render(line))
		case msg.Role == chat.RoleUser:
			b.WriteString(userStyle.Render(line))
		case isVerseLine(line):
			b.WriteString(verseStyle.Render(line))
		default:
			b.WriteString(modelStyle.Render(line))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// renderAudioMarker shows the playback state of a message
func (m Model) renderAudioMarker(key string) string {
	icon, length := "▶", ""
	if c, ok := m.deck.Get(key); ok {
		if c.State() == player.Playing {
			icon = "❚❚"
		}
		length = " " + formatDuration(c.Duration())
	}
	marker := "[" + icon + length + "]"

	if key == m.selected {
		return selectedStyle.Render("> " + marker)
	}
	return subtitleStyle.Render(marker)
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	help := "enter:Enviar  tab:Elegir  ctrl+p:Play/Pausa  ctrl+d:Guardar  ctrl+v:Voz  ↑/↓:Volumen  esc:Salir"
	if m.canRetry && !m.pending {
		help = "ctrl+r:Reintentar  " + help
	}
	return helpStyle.Render(help)
}

func (m Model) center(view string) string {
	if m.width == 0 || m.height == 0 {
		return view
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, view)
}

// isVerseLine reports whether a line cites chapter:verse
func isVerseLine(line string) bool {
	return verseRef.MatchString(line)
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

// formatDuration renders m:ss
func formatDuration(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func truncate(s string, length int) string {
	runes := []rune(s)
	if len(runes) <= length {
		return s
	}
	return string(runes[:length-3]) + "..."
}
