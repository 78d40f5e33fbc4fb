package render

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

var (
	// ErrNotInteractive is returned by Browser.Run when stdin is not a terminal.
	ErrNotInteractive = errors.New("browse needs an interactive terminal")

	// ErrNothingToBrowse is returned by Browser.Run before any delivery arrived.
	ErrNothingToBrowse = errors.New("no capabilities to browse")
)

const optionQuit = "\x00quit"

// Browser lets a user pick capabilities from a TextConsumer and renders
// each choice to out.
type Browser struct {
	consumer    *TextConsumer
	out         io.Writer
	interactive func() bool
	choose      func(options []string) (string, error)
}

// NewBrowser creates a Browser over consumer writing to out.
func NewBrowser(consumer *TextConsumer, out io.Writer) *Browser {
	b := &Browser{
		consumer:    consumer,
		out:         out,
		interactive: stdinIsTerminal,
	}
	b.choose = b.prompt
	return b
}

// IsInteractive checks if we're running in an interactive terminal.
func (b *Browser) IsInteractive() bool {
	return b.interactive()
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Run shows the capability picker until the user quits or aborts.
func (b *Browser) Run() error {
	if !b.IsInteractive() {
		return ErrNotInteractive
	}
	for {
		capabilities := b.consumer.Capabilities()
		if len(capabilities) == 0 {
			return ErrNothingToBrowse
		}

		choice, err := b.choose(capabilities)
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		if err != nil {
			return err
		}
		if choice == optionQuit {
			return nil
		}

		if err := b.consumer.Render(b.out, choice); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(b.out); err != nil {
			return err
		}
	}
}

func (b *Browser) prompt(capabilities []string) (string, error) {
	options := make([]huh.Option[string], 0, len(capabilities)+1)
	for _, c := range capabilities {
		label := fmt.Sprintf("%s (%d)", c, len(b.consumer.Records(c)))
		options = append(options, huh.NewOption(label, c))
	}
	options = append(options, huh.NewOption("Quit", optionQuit))

	var selection string
	err := huh.NewSelect[string]().
		Title("Capabilities").
		Description(fmt.Sprintf("%d capabilities indexed", len(capabilities))).
		Options(options...).
		Value(&selection).
		Run()
	return selection, err
}
