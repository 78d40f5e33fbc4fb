// Package render turns registry deliveries and sidebar listings into text.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/reglet-dev/reglet-docindex/implementors"
)

// Ensure TextConsumer satisfies the interface.
var _ implementors.Consumer = (*TextConsumer)(nil)

// TextConsumer accumulates every delivery it receives and renders
// capabilities as plain text.
type TextConsumer struct {
	mu         sync.Mutex
	index      implementors.Implementors
	deliveries int
}

// NewTextConsumer creates an empty TextConsumer.
func NewTextConsumer() *TextConsumer {
	return &TextConsumer{index: make(implementors.Implementors)}
}

// Consume merges delivery into the accumulated view.
func (c *TextConsumer) Consume(delivery implementors.Implementors) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index.Merge(delivery)
	c.deliveries++
}

// Deliveries returns how many times Consume has been called.
func (c *TextConsumer) Deliveries() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deliveries
}

// Capabilities returns the capabilities seen so far, sorted.
func (c *TextConsumer) Capabilities() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index.Capabilities()
}

// Records returns a copy of the records received for capability.
func (c *TextConsumer) Records(capability string) []implementors.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]implementors.Record(nil), c.index[capability]...)
}

// Render writes capability with explicit implementations first and
// synthetic ones under a separate heading.
func (c *TextConsumer) Render(w io.Writer, capability string) error {
	records := c.Records(capability)

	var explicit, synthetic []implementors.Record
	for _, rec := range records {
		if rec.Synthetic {
			synthetic = append(synthetic, rec)
		} else {
			explicit = append(explicit, rec)
		}
	}

	var b strings.Builder
	b.WriteString(capability + "\n")
	if len(records) == 0 {
		b.WriteString("  (no implementors)\n")
	}
	writeSection(&b, "Implementors", explicit)
	writeSection(&b, "Auto implementors", synthetic)

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderAll renders every capability in sorted order, separated by blank lines.
func (c *TextConsumer) RenderAll(w io.Writer) error {
	for i, capability := range c.Capabilities() {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := c.Render(w, capability); err != nil {
			return err
		}
	}
	return nil
}

func writeSection(b *strings.Builder, title string, records []implementors.Record) {
	if len(records) == 0 {
		return
	}
	fmt.Fprintf(b, "  %s:\n", title)
	for _, rec := range records {
		text := strings.ReplaceAll(PlainText(rec.Text), "\n", "\n      ")
		if rec.Module != "" {
			fmt.Fprintf(b, "    %s  [%s]\n", text, rec.Module)
		} else {
			fmt.Fprintf(b, "    %s\n", text)
		}
	}
}

// PlainText strips markup from a display text fragment. Entities are
// decoded, <br> becomes a line break and non-breaking spaces become spaces.
func PlainText(fragment string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return tidy(b.String())
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			if name, _ := z.TagName(); string(name) == "br" {
				b.WriteByte('\n')
			}
		}
	}
}

func tidy(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
