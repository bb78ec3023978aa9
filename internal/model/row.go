package model

import "strconv"

// DetailKey names a sub-field extracted from the free-text details blob.
type DetailKey int

const (
	DetailRealizadaPor DetailKey = iota
	DetailArea
	DetailTicket
	DetailAmbiente
	DetailServicio
	DetailServidores
	DetailNombreSolicitante
	DetailCorreoSolicitante
	DetailCargoSolicitante
	DetailFechaIngreso
	DetailCoordinacion
	DetailAutoridad

	NumDetailKeys
)

var detailKeys = [NumDetailKeys]string{
	"realizada_por", "area", "ticket", "ambiente", "servicio", "servidores",
	"nombre_solicitante", "correo_solicitante", "cargo_solicitante",
	"fecha_ingreso", "coordinacion", "autoridad",
}

var detailHeaders = [NumDetailKeys]string{
	"Realizada por", "Área", "Ticket", "Ambiente", "Servicio", "Servidores",
	"Nombre solicitante", "Correo solicitante", "Cargo solicitante",
	"Fecha de ingreso", "Coordinación", "Autoridad",
}

func (k DetailKey) String() string {
	if k < 0 || k >= NumDetailKeys {
		return "unknown"
	}
	return detailKeys[k]
}

// Header returns the column title for the sub-field.
func (k DetailKey) Header() string {
	if k < 0 || k >= NumDetailKeys {
		return ""
	}
	return detailHeaders[k]
}

// Row is a Record plus the columns derived by the enrichment passes.
// Derived values are zero when the pass could not produce them.
type Row struct {
	Record

	Path string `json:"path,omitempty"` // input file, not a column

	Year         int                   `json:"year,omitempty"`
	Month        int                   `json:"month,omitempty"`
	Day          int                   `json:"day,omitempty"`
	TitleClass   string                `json:"classificationTitle"`
	SourceClass  string                `json:"classificationSource"`
	DetailFields [NumDetailKeys]string `json:"-"`
	Extracted    map[string]string     `json:"detailFields,omitempty"`
}

// NewRow wraps a Record with empty derived columns.
func NewRow(rec Record, path string) Row {
	return Row{Record: rec, Path: path}
}

// SetDetail stores an extracted sub-field.
func (r *Row) SetDetail(k DetailKey, v string) {
	if k < 0 || k >= NumDetailKeys {
		return
	}
	r.DetailFields[k] = v
	if v == "" {
		return
	}
	if r.Extracted == nil {
		r.Extracted = make(map[string]string)
	}
	r.Extracted[k.String()] = v
}

// Columns returns the fixed tabular header: the ten record fields followed
// by the derived columns.
func Columns() []string {
	cols := make([]string, 0, int(NumFields)+5+int(NumDetailKeys))
	for f := Field(0); f < NumFields; f++ {
		cols = append(cols, f.Header())
	}
	cols = append(cols, "Year", "Month", "Day", "Classification Title", "Classification Source")
	for k := DetailKey(0); k < NumDetailKeys; k++ {
		cols = append(cols, k.Header())
	}
	return cols
}

// Values returns the row's cells aligned with Columns.
func (r Row) Values() []string {
	out := r.Record.Values()
	out = append(out, itoa(r.Year), itoa(r.Month), itoa(r.Day), r.TitleClass, r.SourceClass)
	out = append(out, r.DetailFields[:]...)
	return out
}

// itoa renders zero as an empty cell.
func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
