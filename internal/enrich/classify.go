package enrich

import (
	"strings"

	"github.com/AndresProano/CleaningDataIt/internal/model"
)

// ---------------------------------------------------------------------------
// Title classification
// ---------------------------------------------------------------------------

type rule struct {
	keyword string
	label   string
}

// TitleClassifier labels a request by keywords in its title.
type TitleClassifier struct {
	rules    []rule
	fallback string
}

func NewTitleClassifier() *TitleClassifier {
	return &TitleClassifier{
		rules: []rule{
			{"CDC BDD", "Base de Datos"},
			{"SOLICITUD DE PASO A PRODUCCIÓN", "Paso a Producción"},
			{"PUBLICACIÓN", "Publicación"},
			{"ANALISIS FUNCIONAL", "Análisis Funcional"},
		},
		fallback: "Otros",
	}
}

func (c *TitleClassifier) Name() string { return "title classification" }

func (c *TitleClassifier) Apply(rec model.Record, row *model.Row) error {
	row.TitleClass = c.Classify(rec.Title)
	return nil
}

// Classify returns the label for title; an empty title has no label.
func (c *TitleClassifier) Classify(title string) string {
	if title == "" {
		return ""
	}
	up := strings.ToUpper(title)
	for _, r := range c.rules {
		if strings.Contains(up, r.keyword) {
			return r.label
		}
	}
	return c.fallback
}

// ---------------------------------------------------------------------------
// Source classification
// ---------------------------------------------------------------------------

// SourceClassifier maps the free-form source column onto a fixed set of
// areas. Rules are tried in order, case-insensitively.
type SourceClassifier struct {
	rules     []rule
	fallbacks []rule
	fallback  string
}

func NewSourceClassifier() *SourceClassifier {
	return &SourceClassifier{
		rules: []rule{
			{"control de cambios infraestructura", "Infraestructura"},
			{"infraestructura", "Infraestructura"},
			{"producción", "Producción"},
			{"registro", "Registro"},
			{"usfq path", "USFQ Path"},
		},
		fallbacks: []rule{
			{"produccion", "Producción"},
			{"cdc", "Infraestructura"},
		},
		fallback: "Otro",
	}
}

func (c *SourceClassifier) Name() string { return "source classification" }

func (c *SourceClassifier) Apply(rec model.Record, row *model.Row) error {
	row.SourceClass = c.Classify(rec.Source)
	return nil
}

// Classify returns the area for source, or "Otro".
func (c *SourceClassifier) Classify(source string) string {
	if source == "" {
		return c.fallback
	}
	lower := strings.ToLower(source)
	for _, r := range c.rules {
		if strings.Contains(lower, r.keyword) {
			return r.label
		}
	}
	for _, r := range c.fallbacks {
		if strings.Contains(lower, r.keyword) {
			return r.label
		}
	}
	return c.fallback
}
