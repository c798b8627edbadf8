// Package ui renders CLI output. Styled when stdout is a terminal, plain
// when piped or when NO_COLOR is set.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/docrag/internal/rag"
	"github.com/Aman-CERP/docrag/internal/search"
)

// Color palette, 256-color codes.
const (
	colorCyan   = "86"  // Primary accent
	colorGray   = "245" // Secondary text
	colorDim    = "238" // Separators
	colorRed    = "196" // Errors
	colorYellow = "220" // Warnings
)

// Styles holds the render styles for one output stream.
type Styles struct {
	Header  lipgloss.Style
	Score   lipgloss.Style
	Label   lipgloss.Style
	Dim     lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
}

func styledStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorCyan)),
		Score:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorCyan)),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorDim)),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorRed)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(colorYellow)),
	}
}

func plainStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle(),
		Score:   lipgloss.NewStyle(),
		Label:   lipgloss.NewStyle(),
		Dim:     lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Warning: lipgloss.NewStyle(),
	}
}

// Renderer writes formatted results to an output stream.
type Renderer struct {
	out    io.Writer
	styles Styles
}

// NewRenderer picks styled or plain output for the writer. Color is used
// only for terminals, and never when NO_COLOR is set.
func NewRenderer(out io.Writer) *Renderer {
	styled := false
	if f, ok := out.(*os.File); ok {
		styled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	if os.Getenv("NO_COLOR") != "" {
		styled = false
	}

	styles := plainStyles()
	if styled {
		styles = styledStyles()
	}
	return &Renderer{out: out, styles: styles}
}

// RenderResults prints a ranked result list.
func (r *Renderer) RenderResults(results []search.RankedResult) {
	if len(results) == 0 {
		fmt.Fprintln(r.out, r.styles.Label.Render("No results."))
		return
	}

	for i, res := range results {
		header := fmt.Sprintf("%d. %s", i+1, sourceOf(res.Metadata))
		fmt.Fprintln(r.out, r.styles.Header.Render(header))
		fmt.Fprintln(r.out, r.styles.Score.Render(
			fmt.Sprintf("   score %.3f (semantic %.3f, keyword %.3f)",
				res.FinalScore, res.SemanticScore, res.KeywordScore)))
		fmt.Fprintln(r.out, indent(snippet(res.Text, 240), "   "))
		if i < len(results)-1 {
			fmt.Fprintln(r.out, r.styles.Dim.Render("   ---"))
		}
	}
}

// RenderAnswer prints a generated answer with its sources and confidence.
func (r *Renderer) RenderAnswer(answer *rag.Answer) {
	fmt.Fprintln(r.out, answer.Text)

	if len(answer.Sources) == 0 {
		return
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.styles.Header.Render("Sources"))
	for i, s := range answer.Sources {
		fmt.Fprintln(r.out, r.styles.Label.Render(
			fmt.Sprintf("  %d. %s (relevance %.2f)", i+1, sourceOf(s.Metadata), s.Relevance)))
	}
	fmt.Fprintln(r.out, r.styles.Label.Render(
		fmt.Sprintf("Confidence: %.2f", answer.Confidence)))
}

// RenderError prints an error message.
func (r *Renderer) RenderError(err error) {
	fmt.Fprintln(r.out, r.styles.Error.Render("Error: ")+err.Error())
}

// RenderKV prints an aligned key-value line, used by stats output.
func (r *Renderer) RenderKV(key, value string) {
	fmt.Fprintf(r.out, "%s %s\n", r.styles.Label.Render(fmt.Sprintf("%-16s", key+":")), value)
}

func sourceOf(metadata map[string]string) string {
	if metadata != nil {
		if s := metadata["source"]; s != "" {
			return s
		}
	}
	return "unknown"
}

// snippet truncates text to max runes on a word boundary.
func snippet(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= max {
		return text
	}
	cut := text[:max]
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
