package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/AndresProano/CleaningDataIt/internal/model"
)

// Renderer writes enriched rows to an output.
type Renderer interface {
	Render(row model.Row) error
}

// Sink is a Renderer backed by a resource that must be flushed and closed.
type Sink interface {
	Renderer
	Flush() error
	Close() error
}

// ---------------------------------------------------------------------------
// Text Renderer (colorized terminal preview)
// ---------------------------------------------------------------------------

var (
	styleDate   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray
	styleStatus = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Faint(true)
	styleSource = lipgloss.NewStyle().Foreground(lipgloss.Color("39")) // cyan
	styleOther  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleClass  = map[string]lipgloss.Style{
		"Paso a Producción":  lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true), // green
		"Base de Datos":      lipgloss.NewStyle().Foreground(lipgloss.Color("220")),           // yellow
		"Publicación":        lipgloss.NewStyle().Foreground(lipgloss.Color("213")),           // pink
		"Análisis Funcional": lipgloss.NewStyle().Foreground(lipgloss.Color("75")),            // blue
	}
)

// TextRenderer prints one colorized line per row.
type TextRenderer struct {
	w io.Writer
}

// NewTextRenderer returns a Renderer that writes colorized text to stdout.
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{w: os.Stdout}
}

func (r *TextRenderer) Render(row model.Row) error {
	date := row.CreateAt
	if date == "" {
		date = "-"
	}
	line := fmt.Sprintf("%s %s %s %s %s",
		styleDate.Render(fmt.Sprintf("%-22s", date)),
		styleClassTag(row.TitleClass),
		styleSource.Render(row.SourceClass),
		styleStatus.Render(row.Status),
		row.Title,
	)
	_, err := fmt.Fprintln(r.w, line)
	return err
}

func (r *TextRenderer) Flush() error { return nil }
func (r *TextRenderer) Close() error { return nil }

func styleClassTag(class string) string {
	padded := fmt.Sprintf("%-18s", class)
	if s, ok := styleClass[class]; ok {
		return s.Render(padded)
	}
	return styleOther.Render(padded)
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints each row as a single JSON object per line.
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer that writes JSON lines to stdout.
func NewJSONRenderer() *JSONRenderer {
	return NewJSONRendererTo(os.Stdout)
}

// NewJSONRendererTo writes JSON lines to w.
func NewJSONRendererTo(w io.Writer) *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(w)}
}

func (r *JSONRenderer) Render(row model.Row) error {
	return r.enc.Encode(row)
}

func (r *JSONRenderer) Flush() error { return nil }
func (r *JSONRenderer) Close() error { return nil }

// ---------------------------------------------------------------------------
// Multi (fan-out to several sinks)
// ---------------------------------------------------------------------------

// Multi renders every row to each sink in order.
type Multi []Sink

func (m Multi) Render(row model.Row) error {
	for _, s := range m {
		if err := s.Render(row); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) Flush() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Flush())
	}
	return errors.Join(errs...)
}

// Close closes every sink, even when an earlier one fails.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
