// ABOUTME: Scripture quote shown on the quote screen
// ABOUTME: Best-effort parsing of "verse - reference" replies with fallbacks
package chat

import (
	"context"
	"log"
	"strings"
)

// Quote is a verse and its reference
type Quote struct {
	Verse     string `json:"verse"`
	Reference string `json:"reference"`
}

var (
	// FallbackQuote fills in missing parts of a parsed reply
	FallbackQuote = Quote{
		Verse:     "Jehová es mi pastor; nada me faltará.",
		Reference: "Salmos 23:1",
	}

	// ErrorQuote is shown when the quote request fails
	ErrorQuote = Quote{
		Verse:     "La paz os dejo, mi paz os doy; yo no os la doy como el mundo la da. No se turbe vuestro corazón, ni tenga miedo.",
		Reference: "Juan 14:27",
	}
)

// QuoteSource produces the raw quote reply
type QuoteSource interface {
	QuoteText(ctx context.Context) (string, error)
}

// ParseQuote splits text on hyphens: the first field is the verse, the
// second the reference. A hyphen inside the verse breaks the split.
func ParseQuote(text string) Quote {
	parts := strings.Split(text, "-")

	q := FallbackQuote
	if v := strings.TrimSpace(parts[0]); v != "" {
		q.Verse = v
	}
	if len(parts) > 1 {
		if r := strings.TrimSpace(parts[1]); r != "" {
			q.Reference = r
		}
	}
	return q
}

// LoadQuote asks src for a quote; it never fails
func LoadQuote(ctx context.Context, src QuoteSource) Quote {
	if src == nil {
		return ErrorQuote
	}

	text, err := src.QuoteText(ctx)
	if err != nil {
		log.Printf("Quote request failed: %v", err)
		return ErrorQuote
	}
	return ParseQuote(text)
}
