// ABOUTME: Remote mode against another siervo web server
// ABOUTME: Finds servers over mDNS and chats through the websocket client
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/siervo-de-dios/siervo-go/internal/client"
	"github.com/siervo-de-dios/siervo-go/internal/discovery"
)

// ErrNoServer is returned when discovery finds nothing in time
var ErrNoServer = errors.New("no siervo server found")

// Discover waits for the first advertised web server
func Discover(ctx context.Context, timeout time.Duration) (*discovery.ServerInfo, error) {
	log.Printf("Starting server discovery...")

	disc := discovery.NewManager(discovery.Config{})
	defer disc.Stop()

	if err := disc.Browse(); err != nil {
		return nil, fmt.Errorf("failed to browse: %w", err)
	}

	select {
	case server := <-disc.Servers():
		log.Printf("Discovered server %s at %s", server.Name, server.URL())
		return server, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w after %s", ErrNoServer, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RunRemote chats with a remote web server, playing replies locally
func (a *App) RunRemote(ctx context.Context, addr string, in io.Reader, out io.Writer) error {
	remote := client.NewClient(client.Config{ServerAddr: addr})
	if err := remote.Connect(); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer remote.Close()

	log.Printf("Connected to server: %s", remote.URL())

	c := newConsole(a, out)
	defer c.close()

	lines := scanLines(in)
	for {
		select {
		case <-ctx.Done():
			return nil

		case <-remote.Done():
			return errors.New("connection closed by server")

		case ready := <-remote.Ready:
			log.Printf("Session ready: %s (%dHz %dch %dbit)",
				ready.ConnectionID, ready.SampleRate, ready.Channels, ready.BitDepth)
			c.show(ready.Welcome)
			fmt.Fprintln(out, helpText)

		case <-remote.Pending:
			c.pending()

		case frame := <-remote.Messages:
			c.show(frame.Message)

		case chatErr := <-remote.Errors:
			if chatErr.Message != nil {
				c.show(*chatErr.Message)
			} else {
				fmt.Fprintf(out, "Error: %s\n", chatErr.Error)
				if chatErr.Retry {
					fmt.Fprintf(out, "(escribe %s para intentarlo de nuevo)\n", cmdRetry)
				}
			}

		case line, ok := <-lines:
			line = strings.TrimSpace(line)
			if !ok || line == cmdQuit {
				return nil
			}
			if line == "" || c.local(line) {
				continue
			}

			var err error
			if line == cmdRetry {
				err = remote.Retry()
			} else {
				err = remote.Send(line)
			}
			if err != nil {
				return fmt.Errorf("failed to send: %w", err)
			}
		}
	}
}
