package tokenizer

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndresProano/CleaningDataIt/internal/model"
)

const header = "Title,Details,File,Status,Stage,Source,Create at,Sent by,Sent to,Custom response\n"

const scenario = `"SOLICITUD DE PASO A PRODUCCIÓN, texto detalle","","https://x/y.pdf",Completed,,Infraestructura,8/15/2025 3:34:50 PM,Juan Pérez,"Ana Ruiz","Aprobado";`

func readAll(t *testing.T, input string) ([]model.Record, Stats) {
	t.Helper()
	recs, stats, err := ReadAll(strings.NewReader(input), DefaultOptions())
	require.NoError(t, err)
	return recs, stats
}

func TestEndToEndScenario(t *testing.T) {
	recs, stats := readAll(t, header+scenario+"\n")

	require.Len(t, recs, 1)
	assert.Equal(t, model.Record{
		Title:          "SOLICITUD DE PASO A PRODUCCIÓN",
		Details:        "texto detalle",
		File:           "https://x/y.pdf",
		Status:         "Completed",
		Stage:          "",
		Source:         "Infraestructura",
		CreateAt:       "8/15/2025 3:34:50 PM",
		SentBy:         "Juan Pérez",
		SentTo:         "Ana Ruiz",
		CustomResponse: "Aprobado",
	}, recs[0])
	assert.Equal(t, Stats{Openings: 1, Emitted: 1}, stats)
}

func TestRoundTripAllQuoted(t *testing.T) {
	input := header + `"Titulo","Detalle","http://f","Completed",,"Infra","8/15/2025 3:34:50 PM","Juan","Ana","Ok";` + "\n"
	recs, _ := readAll(t, input)

	require.Len(t, recs, 1)
	assert.Equal(t, []string{
		"Titulo", "Detalle", "http://f", "Completed", "",
		"Infra", "8/15/2025 3:34:50 PM", "Juan", "Ana", "Ok",
	}, recs[0].Values())
	for _, v := range recs[0].Values() {
		assert.NotContains(t, v, `"`)
	}
}

func TestDoubledQuoteEscape(t *testing.T) {
	input := header + `"T","a""b","f",S,,Src,d,by,"to","x""y";` + "\n"
	recs, _ := readAll(t, input)

	require.Len(t, recs, 1)
	assert.Equal(t, `a"b`, recs[0].Details)
	assert.Equal(t, `x"y`, recs[0].CustomResponse)
}

func TestEmbeddedCommaInQuotedTitle(t *testing.T) {
	input := header + `"Solicitud, de paso,"detalle",,Completed,,Registro,8/15/2025 3:34:50 PM,Juan,"Ana","Ok";` + "\n"
	recs, _ := readAll(t, input)

	require.Len(t, recs, 1)
	assert.Equal(t, "Solicitud, de paso", recs[0].Title)
	assert.Equal(t, "detalle", recs[0].Details)
	assert.Equal(t, "", recs[0].File)
	assert.Equal(t, "Completed", recs[0].Status)
	assert.Equal(t, "Registro", recs[0].Source)
}

func TestQuotedTitleWithCommaKeptWhole(t *testing.T) {
	input := header +
		`"Solicitud, de paso","detalle","f",S,,Src,d,by,"to","r";` + "\n" +
		`"Cambio, urgente",,"f",S,,Src,d,by,"to","r";` + "\n" +
		`"Alta, usuario",sin comillas,"f",S,,Src,d,by,"to","r";` + "\n"
	recs, _ := readAll(t, input)

	require.Len(t, recs, 3)
	assert.Equal(t, "Solicitud, de paso", recs[0].Title)
	assert.Equal(t, "detalle", recs[0].Details)
	assert.Equal(t, "f", recs[0].File)

	assert.Equal(t, "Cambio, urgente", recs[1].Title)
	assert.Equal(t, "", recs[1].Details)

	assert.Equal(t, "Alta, usuario", recs[2].Title)
	assert.Equal(t, "sin comillas", recs[2].Details)
}

func TestQuotedTitleSplitBeforeEmptyDetails(t *testing.T) {
	input := header + `"Solicitud, de paso","","f",S,,Src,d,by,"to","r";` + "\n"
	recs, _ := readAll(t, input)

	require.Len(t, recs, 1)
	assert.Equal(t, "Solicitud", recs[0].Title)
	assert.Equal(t, "de paso", recs[0].Details)
	assert.Equal(t, "f", recs[0].File)
}

func TestUnquotedTitleKeepsCommaNotFollowedByQuote(t *testing.T) {
	input := header + `A,B,"Det",,S,,Src,d,by,"to","r";` + "\n"
	recs, _ := readAll(t, input)

	require.Len(t, recs, 1)
	assert.Equal(t, "A,B", recs[0].Title)
	assert.Equal(t, "Det", recs[0].Details)
}

func TestMultilineDetails(t *testing.T) {
	input := header +
		"\"SOLICITUD DE PASO A PRODUCCIÓN,\"Realizada por: Ana\r\nÁrea: TI\nServicio: Web\",,Completed,,Infraestructura,,8/15/2025 3:34:50 PM,Juan Pérez,\"Ana Ruiz\",\"Aprobado\";\r\n"
	recs, _ := readAll(t, input)

	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, "SOLICITUD DE PASO A PRODUCCIÓN", rec.Title)
	assert.Equal(t, "Realizada por: Ana Área: TI Servicio: Web", rec.Details)
	assert.NotContains(t, rec.Details, "\n")
	assert.Equal(t, "", rec.File)
	assert.Equal(t, "Infraestructura", rec.Source)
	assert.Equal(t, "8/15/2025 3:34:50 PM", rec.CreateAt)
	assert.Equal(t, "Aprobado", rec.CustomResponse)
}

func TestLoneQuoteIsContent(t *testing.T) {
	input := header + `"T","dijo "hola" ayer","f",S,,Src,d,by,"to","r";` + "\n"
	recs, _ := readAll(t, input)

	require.Len(t, recs, 1)
	assert.Equal(t, `dijo "hola" ayer`, recs[0].Details)
}

func TestUnquotedTrailingFieldEndsAtSemicolon(t *testing.T) {
	input := header +
		`"T","d","f",S,,Src,d,by,"to",Sin respuesta;` + "\n" +
		`"T2","d2","f2",S,,Src,d,by,"to",;` + "\n"
	recs, stats := readAll(t, input)

	require.Len(t, recs, 2)
	assert.Equal(t, "Sin respuesta", recs[0].CustomResponse)
	assert.Equal(t, "", recs[1].CustomResponse)
	assert.Equal(t, 2, stats.Emitted)
}

func TestUnquotedSentToWithPaddingColumn(t *testing.T) {
	input := header + `"T","d",http://f,,S,,Src,,d,by,Ana,,"r";` + "\n"
	recs, _ := readAll(t, input)

	require.Len(t, recs, 1)
	assert.Equal(t, "http://f", recs[0].File)
	assert.Equal(t, "S", recs[0].Status)
	assert.Equal(t, "Src", recs[0].Source)
	assert.Equal(t, "d", recs[0].CreateAt)
	assert.Equal(t, "Ana", recs[0].SentTo)
	assert.Equal(t, "r", recs[0].CustomResponse)
}

func TestEmittedCountMatchesTerminators(t *testing.T) {
	var b strings.Builder
	b.WriteString(header)
	for i := 0; i < 25; i++ {
		b.WriteString(`"T","linea uno` + "\n" + `linea dos","f",S,,Src,d,by,"to","r";` + "\n")
	}
	input := b.String()
	recs, stats := readAll(t, input)

	assert.Len(t, recs, strings.Count(input, `";`))
	assert.Equal(t, 25, stats.Emitted)
	assert.Equal(t, 0, stats.Truncated)
}

func TestTruncatedRecordIsDiscarded(t *testing.T) {
	input := header +
		`"T1","d","f",S,,Src,d,by,"to","r";` + "\n" +
		`"T2","d","f",S,,Src,d,by,"to","r";` + "\n" +
		`"T3","detalle cortado`
	recs, stats := readAll(t, input)

	require.Len(t, recs, 2)
	assert.Equal(t, "T1", recs[0].Title)
	assert.Equal(t, "T2", recs[1].Title)
	assert.Equal(t, Stats{Openings: 3, Emitted: 2, Truncated: 1}, stats)
}

func TestTruncatedDuringLookahead(t *testing.T) {
	input := header + `"T","d","f",S,,Src,d,by,"to","r"`
	recs, stats := readAll(t, input)

	assert.Empty(t, recs)
	assert.Equal(t, 1, stats.Truncated)
}

func TestIdempotent(t *testing.T) {
	input := header + scenario + "\n" + `"T2","d2","f2",S,,Src,d,by,"to","r";` + "\n"
	first, _ := readAll(t, input)
	second, _ := readAll(t, input)

	require.Len(t, first, 2)
	assert.Equal(t, first, second)
}

func TestHeaderOnly(t *testing.T) {
	recs, stats := readAll(t, header)
	assert.Empty(t, recs)
	assert.Equal(t, Stats{}, stats)

	recs, _ = readAll(t, "")
	assert.Empty(t, recs)
}

func TestWithoutHeader(t *testing.T) {
	opts := DefaultOptions()
	opts.SkipHeader = false
	recs, _, err := ReadAll(strings.NewReader(scenario+"\n"), opts)

	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Aprobado", recs[0].CustomResponse)
}

func TestOffsetAndResume(t *testing.T) {
	rec1 := `"T1","d","f",S,,Src,d,by,"to","r";`
	rec2 := `"T2","d","f",S,,Src,d,by,"to","r";`
	input := header + rec1 + "\n" + rec2 + "\n"

	tok := New(strings.NewReader(input), DefaultOptions())
	require.True(t, tok.Scan())
	off := tok.Offset()
	assert.Equal(t, int64(len(header)+len(rec1)), off)

	opts := DefaultOptions()
	opts.SkipHeader = false
	rest, stats, err := ReadAll(strings.NewReader(input[off:]), opts)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "T2", rest[0].Title)
	assert.Equal(t, 1, stats.Openings)
}

func TestOffsetBeforeFirstRecordIsAfterHeader(t *testing.T) {
	tok := New(strings.NewReader(header+`"T1","d`), DefaultOptions())
	assert.False(t, tok.Scan())
	assert.Equal(t, int64(len(header)), tok.Offset())
}

func TestDeclaredCharset(t *testing.T) {
	cs, err := LookupCharset("ISO-8859-1")
	require.NoError(t, err)

	// "PRODUCCIÓN" with Ó as a single Latin-1 byte
	raw := header + "\"PRODUCCI\xd3N\",\"d\",\"f\",S,,Src,d,by,\"to\",\"r\";\n"
	opts := DefaultOptions()
	opts.Charset = cs
	tok := New(strings.NewReader(raw), opts)

	require.True(t, tok.Scan())
	assert.Equal(t, "PRODUCCIÓN", tok.Record().Title)
	assert.Equal(t, int64(len(raw)-1), tok.Offset())
}

func TestUnsupportedCharset(t *testing.T) {
	_, err := LookupCharset("ebcdic")
	assert.Error(t, err)

	cs, err := LookupCharset("")
	require.NoError(t, err)
	assert.Equal(t, "utf-8", cs.String())
}

func TestReadErrorSurfaces(t *testing.T) {
	boom := errors.New("disk gone")
	r := io.MultiReader(strings.NewReader(header+`"T1","d`), iotest.ErrReader(boom))

	tok := New(r, DefaultOptions())
	assert.False(t, tok.Scan())
	assert.ErrorIs(t, tok.Err(), boom)
}

func TestResetStartsOver(t *testing.T) {
	opts := DefaultOptions()
	opts.SkipHeader = false
	tok := New(strings.NewReader(`"partial","x`), opts)
	assert.False(t, tok.Scan())

	tok.Reset()
	assert.Equal(t, StateTitleOpen, tok.State())
	assert.True(t, tok.acc.Empty())
}

func TestStatesAreNamed(t *testing.T) {
	seen := make(map[string]bool)
	for _, s := range States() {
		name := s.String()
		assert.NotContains(t, name, "State(", "state %d has no name", s)
		assert.False(t, seen[name], "duplicate state name %s", name)
		seen[name] = true
	}
	assert.Equal(t, "State(200)", State(200).String())
	assert.Equal(t, model.FieldCustomResponse, StateCustomResponse.Field())
}
