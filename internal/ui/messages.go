// ABOUTME: Bubbletea messages and commands for the scripture chat TUI
// ABOUTME: Gemini calls and exports run as commands off the update loop
package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/siervo-de-dios/siervo-go/internal/chat"
	"github.com/siervo-de-dios/siervo-go/internal/player"
)

// quoteMsg carries the loaded quote
type quoteMsg chat.Quote

// replyMsg carries the result of a conversation call
type replyMsg struct {
	msg chat.Message
	err error
}

// playbackMsg reports a controller state change
type playbackMsg struct {
	key   string
	state player.State
}

// downloadMsg reports an export result
type downloadMsg struct {
	path string
	err  error
}

func loadQuote(source chat.QuoteSource) tea.Cmd {
	return func() tea.Msg {
		return quoteMsg(chat.LoadQuote(context.Background(), source))
	}
}

func startConversation(conv *chat.Conversation) tea.Cmd {
	return func() tea.Msg {
		msg, err := conv.Start(context.Background())
		return replyMsg{msg: msg, err: err}
	}
}

func sendMessage(conv *chat.Conversation, text string) tea.Cmd {
	return func() tea.Msg {
		msg, err := conv.Send(context.Background(), text)
		return replyMsg{msg: msg, err: err}
	}
}

func retryMessage(conv *chat.Conversation) tea.Cmd {
	return func() tea.Msg {
		msg, err := conv.Retry(context.Background())
		return replyMsg{msg: msg, err: err}
	}
}

func download(c *player.Controller, dir string) tea.Cmd {
	return func() tea.Msg {
		path, err := c.Download(dir)
		return downloadMsg{path: path, err: err}
	}
}

// listen waits for the next event from playback callbacks
func listen(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}
