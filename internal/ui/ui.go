// Package ui renders the chat banner, prompt and reply blocks.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Primary = lipgloss.Color("#8BC34A") // lime
	Accent  = lipgloss.Color("#2196F3") // blue
	Muted   = lipgloss.Color("#9E9E9E")
	Warning = lipgloss.Color("#FFC107")
)

// Styles holds the lipgloss styles for each block kind.
type Styles struct {
	Banner lipgloss.Style
	Prompt lipgloss.Style
	Reply  lipgloss.Style
	Notice lipgloss.Style
	Muted  lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Banner: lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Accent).
			Padding(0, 2),
		Prompt: lipgloss.NewStyle().Bold(true).Foreground(Accent),
		Reply: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(Primary).
			PaddingLeft(1),
		Notice: lipgloss.NewStyle().Foreground(Warning),
		Muted:  lipgloss.NewStyle().Foreground(Muted).Italic(true),
	}
}

// Printer writes presentation blocks. In plain mode no styling is applied,
// which suits pipes, tests and NO_COLOR terminals.
type Printer struct {
	w      io.Writer
	plain  bool
	styles Styles
}

func NewPrinter(w io.Writer, plain bool) *Printer {
	return &Printer{w: w, plain: plain, styles: DefaultStyles()}
}

// DetectPlain reports whether w should get unstyled output.
func DetectPlain(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return true
	}
	f, ok := w.(*os.File)
	if !ok {
		return true
	}
	info, err := f.Stat()
	if err != nil {
		return true
	}
	return info.Mode()&os.ModeCharDevice == 0
}

func (p *Printer) render(style lipgloss.Style, text string) string {
	if p.plain {
		return text
	}
	return style.Render(text)
}

// Banner prints the welcome block.
func (p *Printer) Banner(greeting, backend string) {
	title := "🤖 DayMate, your everyday assistant"
	body := fmt.Sprintf("%s\n%s! Type /help for commands, /exit to quit.", title, greeting)
	if p.plain {
		fmt.Fprintln(p.w, body)
	} else {
		fmt.Fprintln(p.w, p.styles.Banner.Render(body))
	}
	fmt.Fprintln(p.w, p.render(p.styles.Muted, "generation: "+backend))
}

func (p *Printer) Prompt() {
	fmt.Fprint(p.w, "\n"+p.render(p.styles.Prompt, "you ›")+" ")
}

func (p *Printer) Reply(text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}
	fmt.Fprintln(p.w, p.render(p.styles.Reply, text))
}

// Notice prints an out-of-band message such as a due reminder.
func (p *Printer) Notice(text string) {
	fmt.Fprintln(p.w, p.render(p.styles.Notice, text))
}
