package enrich

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndresProano/CleaningDataIt/internal/model"
)

func TestTitleClassifier(t *testing.T) {
	c := NewTitleClassifier()

	tests := []struct {
		title string
		want  string
	}{
		{"SOLICITUD DE PASO A PRODUCCIÓN", "Paso a Producción"},
		{"Solicitud de paso a producción - portal", "Paso a Producción"},
		{"CDC BDD alumnos", "Base de Datos"},
		{"Publicación de notas", "Publicación"},
		{"ANALISIS FUNCIONAL matrícula", "Análisis Funcional"},
		{"Otra cosa", "Otros"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Classify(tt.title), "title %q", tt.title)
	}
}

func TestSourceClassifier(t *testing.T) {
	c := NewSourceClassifier()

	tests := []struct {
		source string
		want   string
	}{
		{"Control De Cambios Infraestructura", "Infraestructura"},
		{"infraestructura", "Infraestructura"},
		{"Ambiente de Producción", "Producción"},
		{"Ambiente de produccion", "Producción"},
		{"Registro académico", "Registro"},
		{"USFQ Path", "USFQ Path"},
		{"equipo CDC", "Infraestructura"},
		{"Marketing", "Otro"},
		{"", "Otro"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Classify(tt.source), "source %q", tt.source)
	}
}

func TestDateParser(t *testing.T) {
	p := NewDateParser()

	ts, ok := p.Parse("8/15/2025 3:34:50 PM")
	require.True(t, ok)
	assert.Equal(t, 2025, ts.Year())
	assert.Equal(t, 8, int(ts.Month()))
	assert.Equal(t, 15, ts.Day())
	assert.Equal(t, 15, ts.Hour())

	_, ok = p.Parse("08/05/2025  11:02:03 am")
	assert.True(t, ok)

	ts, ok = p.Parse("2025-08-15T15:34:50.1430981")
	require.True(t, ok)
	assert.Equal(t, 15, ts.Day())
	assert.Equal(t, 34, ts.Minute())

	for _, bad := range []string{"", "2025-08-15", "15/8/2025 3:34:50 PM", "ayer"} {
		_, ok := p.Parse(bad)
		assert.False(t, ok, "expected %q to be rejected", bad)
	}
}

func TestDateParserLeavesColumnsEmptyOnMismatch(t *testing.T) {
	var row model.Row
	err := NewDateParser().Apply(model.Record{CreateAt: "sin fecha"}, &row)

	require.NoError(t, err)
	assert.Zero(t, row.Year)
	assert.Zero(t, row.Month)
	assert.Zero(t, row.Day)
}

func TestDetailExtractor(t *testing.T) {
	e := NewDetailExtractor()

	text := `Realizada por: Ana Torres; Área: TI Servicio: Portal web; Servidores: srv01, srv02 ` +
		`Ticket de referencia del Service Desk: SD-1234; ` +
		`- Nombre:........ Juan Pérez - Correo:..... jperez@usfq.edu.ec - Cargo:... Analista ` +
		`- Fecha de ingreso:.......  2025-08-15T15:34:50.1430981 ` +
		`COORDINACIÓN QUIEN SOLICITA: Sistemas; AUTORIDAD QUE APRUEBA: "Decano"`
	got := e.Extract(text)

	assert.Equal(t, "Ana Torres", got[model.DetailRealizadaPor])
	assert.Equal(t, "TI", got[model.DetailArea])
	assert.Equal(t, "Portal web", got[model.DetailServicio])
	assert.Equal(t, "srv01, srv02", got[model.DetailServidores])
	assert.Equal(t, "SD-1234", got[model.DetailTicket])
	assert.Equal(t, "Juan Pérez", got[model.DetailNombreSolicitante])
	assert.Equal(t, "jperez@usfq.edu.ec", got[model.DetailCorreoSolicitante])
	assert.Equal(t, "Analista", got[model.DetailCargoSolicitante])
	assert.Equal(t, "2025-08-15T15:34:50.1430981", got[model.DetailFechaIngreso])
	assert.Equal(t, "Sistemas", got[model.DetailCoordinacion])
	assert.Equal(t, "Decano", got[model.DetailAutoridad])
	assert.Empty(t, got[model.DetailAmbiente])
}

func TestDetailExtractorIgnoresEmbeddedWords(t *testing.T) {
	got := NewDetailExtractor().Extract("Tarea: revisar")
	assert.Empty(t, got[model.DetailArea])
}

func TestDetailExtractorNestedLabel(t *testing.T) {
	got := NewDetailExtractor().Extract("Autoridad del Área: Juan Pérez; Servicio: Web")

	assert.Equal(t, "Juan Pérez", got[model.DetailAutoridad])
	assert.Empty(t, got[model.DetailArea])
	assert.Equal(t, "Web", got[model.DetailServicio])

	got = NewDetailExtractor().Extract("Autoridad del Área: Juan Pérez; Área: TI")
	assert.Equal(t, "Juan Pérez", got[model.DetailAutoridad])
	assert.Equal(t, "TI", got[model.DetailArea])
}

type failingPass struct{ panics bool }

func (f failingPass) Name() string { return "failing" }

func (f failingPass) Apply(model.Record, *model.Row) error {
	if f.panics {
		panic("boom")
	}
	return errors.New("bad input")
}

func TestPipelineWarnsAndContinues(t *testing.T) {
	var warnings []string
	p := New(failingPass{}, NewTitleClassifier(), failingPass{panics: true})
	p.warn = func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	row, n := p.Enrich(model.Record{Title: "PUBLICACIÓN"}, "datos.csv")

	assert.Equal(t, 2, n)
	assert.Len(t, warnings, 2)
	assert.Equal(t, "Publicación", row.TitleClass)
	assert.Equal(t, "datos.csv", row.Path)
}

func TestDefaultPipeline(t *testing.T) {
	rec := model.Record{
		Title:    "SOLICITUD DE PASO A PRODUCCIÓN",
		Details:  "Realizada por: Ana; Ambiente: Producción",
		Source:   "Infraestructura",
		CreateAt: "8/15/2025 3:34:50 PM",
	}
	row, n := Default().Enrich(rec, "")

	assert.Zero(t, n)
	assert.Equal(t, "Paso a Producción", row.TitleClass)
	assert.Equal(t, "Infraestructura", row.SourceClass)
	assert.Equal(t, 2025, row.Year)
	assert.Equal(t, "Ana", row.DetailFields[model.DetailRealizadaPor])
	assert.Equal(t, "Producción", row.Extracted["ambiente"])
	assert.Equal(t, rec, row.Record)
}
