// ABOUTME: Line-oriented chat for -no-tui and remote modes
// ABOUTME: Reads commands from stdin and prints the conversation as plain text
package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/siervo-de-dios/siervo-go/internal/chat"
	"github.com/siervo-de-dios/siervo-go/internal/player"
)

// Console commands
const (
	cmdQuit  = "/quit"
	cmdRetry = "/retry"
	cmdPlay  = "/play"
	cmdSave  = "/save"
	cmdVoice = "/voice"
	cmdHelp  = "/help"
)

const pendingLine = "Buscando sabiduría en las Escrituras..."

const helpText = "Comandos: /play reproduce o pausa el último mensaje, /save lo descarga, /voice activa o silencia la voz, /retry reintenta, /quit sale"

// console prints messages and drives the deck for line-oriented modes
type console struct {
	out       io.Writer
	deck      *player.Deck
	voice     bool
	exportDir string
}

func newConsole(a *App, out io.Writer) *console {
	deck := player.NewDeck(a.assets, func(key string, state player.State) {
		log.Printf("Playback %s: %s", key, state)
	})

	return &console{
		out:       out,
		deck:      deck,
		voice:     a.config.Audio.VoiceOutput,
		exportDir: a.config.Audio.ExportDir,
	}
}

func (c *console) close() {
	c.deck.Close()
}

func (c *console) quote(q chat.Quote) {
	fmt.Fprintf(c.out, "\n  %s\n  %s\n\n", q.Verse, q.Reference)
}

// show prints a message and auto-plays it when it is the newest reply
func (c *console) show(msg chat.Message) {
	switch msg.Role {
	case chat.RoleUser:
		fmt.Fprintf(c.out, "Tú: %s\n", msg.Text)
		return
	default:
		fmt.Fprintf(c.out, "Siervo: %s\n", msg.Text)
	}

	if msg.Failed {
		fmt.Fprintf(c.out, "(escribe %s para intentarlo de nuevo)\n", cmdRetry)
		return
	}
	c.deck.Arrive(msg.ID, msg.AudioBase64, c.voice)
}

func (c *console) pending() {
	fmt.Fprintln(c.out, pendingLine)
}

// local handles the playback commands; it reports false for anything else
func (c *console) local(line string) bool {
	switch line {
	case cmdHelp:
		fmt.Fprintln(c.out, helpText)

	case cmdVoice:
		c.voice = !c.voice
		if c.voice {
			fmt.Fprintln(c.out, "Voz activada")
		} else {
			c.deck.PauseAll()
			fmt.Fprintln(c.out, "Voz silenciada")
		}

	case cmdPlay:
		ctrl, ok := c.deck.Get(c.deck.Latest())
		if !ok || !ctrl.HasAudio() {
			fmt.Fprintln(c.out, "Audio no disponible")
			return true
		}
		if err := ctrl.Toggle(); err != nil {
			log.Printf("Playback failed: %v", err)
			fmt.Fprintln(c.out, "Audio no disponible")
		}

	case cmdSave:
		ctrl, ok := c.deck.Get(c.deck.Latest())
		if !ok {
			fmt.Fprintln(c.out, "Audio no disponible")
			return true
		}
		path, err := ctrl.Download(c.exportDir)
		if err != nil {
			log.Printf("Download failed: %v", err)
			fmt.Fprintln(c.out, "Audio no disponible")
			return true
		}
		fmt.Fprintf(c.out, "Guardado en %s\n", path)

	default:
		return false
	}
	return true
}

// scanLines feeds input lines to a channel, closed at EOF
func scanLines(in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			log.Printf("Input error: %v", err)
		}
	}()
	return lines
}

// RunConsole runs the chat on plain text input and output
func (a *App) RunConsole(ctx context.Context, in io.Reader, out io.Writer) error {
	conv, err := a.conversation(ctx)
	if err != nil {
		return err
	}

	c := newConsole(a, out)
	defer c.close()

	c.quote(chat.LoadQuote(ctx, a.services.Quotes))

	welcome, err := conv.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start conversation: %w", err)
	}
	c.show(welcome)
	fmt.Fprintln(out, helpText)

	lines := scanLines(in)
	for {
		select {
		case <-ctx.Done():
			return nil

		case line, ok := <-lines:
			line = strings.TrimSpace(line)
			if !ok || line == cmdQuit {
				return nil
			}
			if line == "" || c.local(line) {
				continue
			}

			var msg chat.Message
			if line == cmdRetry {
				if !conv.CanRetry() {
					fmt.Fprintln(out, "No hay nada que reintentar")
					continue
				}
				c.pending()
				msg, err = conv.Retry(ctx)
			} else {
				c.pending()
				msg, err = conv.Send(ctx, line)
			}

			if err != nil && msg.ID == "" {
				log.Printf("Chat failed: %v", err)
				continue
			}
			c.show(msg)
		}
	}
}
