package enrich

import (
	"regexp"
	"sort"
	"strings"

	"github.com/AndresProano/CleaningDataIt/internal/model"
)

// DetailExtractor pulls labelled sub-fields ("Área: TI", "- Correo: ...")
// out of the details blob. A value runs from its label to the next ';' or
// the next known label, whichever comes first.
type DetailExtractor struct {
	labels []detailLabel
}

type detailLabel struct {
	key model.DetailKey
	re  *regexp.Regexp
}

// labels must be preceded by start of text, whitespace, ';' or a quote so
// that e.g. "Tarea:" is not read as "Área:".
const labelPrefix = `(?i)(?:^|[\s;"])`

func NewDetailExtractor() *DetailExtractor {
	patterns := []struct {
		key   model.DetailKey
		label string
	}{
		{model.DetailRealizadaPor, `realizada por:`},
		{model.DetailArea, `[áa]rea:`},
		{model.DetailTicket, `ticket de referencia del service desk:`},
		{model.DetailAmbiente, `ambiente:`},
		{model.DetailServicio, `servicio:`},
		{model.DetailServidores, `servidores:`},
		{model.DetailNombreSolicitante, `- nombre:\.*`},
		{model.DetailCorreoSolicitante, `- correo:\.*`},
		{model.DetailCargoSolicitante, `- cargo:\.*`},
		{model.DetailFechaIngreso, `- fecha de ingreso:\.*`},
		{model.DetailCoordinacion, `coordinaci[óo]n quien solicita:`},
		{model.DetailAutoridad, `autoridad[^:;]*:`},
	}

	e := &DetailExtractor{}
	for _, p := range patterns {
		e.labels = append(e.labels, detailLabel{
			key: p.key,
			re:  regexp.MustCompile(labelPrefix + p.label),
		})
	}
	return e
}

func (e *DetailExtractor) Name() string { return "details extraction" }

func (e *DetailExtractor) Apply(rec model.Record, row *model.Row) error {
	for k, v := range e.Extract(rec.Details) {
		row.SetDetail(model.DetailKey(k), v)
	}
	return nil
}

// Extract returns every sub-field found in text, indexed by DetailKey.
func (e *DetailExtractor) Extract(text string) [model.NumDetailKeys]string {
	var out [model.NumDetailKeys]string

	type hit struct {
		key        model.DetailKey
		start, end int
	}
	var hits []hit
	for _, l := range e.labels {
		for _, loc := range l.re.FindAllStringIndex(text, -1) {
			hits = append(hits, hit{key: l.key, start: loc[0], end: loc[1]})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].start != hits[j].start {
			return hits[i].start < hits[j].start
		}
		return hits[i].end > hits[j].end
	})

	// A label found inside another label ("Autoridad del Área:") is part of it.
	kept := hits[:0]
	for _, h := range hits {
		if n := len(kept); n > 0 && h.start < kept[n-1].end {
			continue
		}
		kept = append(kept, h)
	}

	for i, h := range kept {
		if out[h.key] != "" {
			continue
		}
		stop := len(text)
		if i+1 < len(kept) {
			stop = kept[i+1].start
		}
		if j := strings.IndexByte(text[h.end:stop], ';'); j >= 0 {
			stop = h.end + j
		}
		out[h.key] = cleanValue(text[h.end:stop])
	}
	return out
}

// cleanValue drops stray quotes and surrounding blanks.
func cleanValue(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}
