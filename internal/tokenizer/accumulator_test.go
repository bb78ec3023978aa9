package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AndresProano/CleaningDataIt/internal/model"
)

func appendString(a *Accumulator, f model.Field, s string) {
	for _, ch := range s {
		a.Append(f, ch)
	}
}

func TestAccumulatorSnapshotTrims(t *testing.T) {
	var a Accumulator
	appendString(&a, model.FieldTitle, "  Titulo  ")
	appendString(&a, model.FieldDetails, " uno  dos ")
	appendString(&a, model.FieldStatus, ` "Completed" `)
	appendString(&a, model.FieldStage, "ignored")

	rec := a.Snapshot()
	assert.Equal(t, "Titulo", rec.Title)
	assert.Equal(t, "uno  dos", rec.Details)
	assert.Equal(t, "Completed", rec.Status)
	assert.Equal(t, "", rec.Stage)
}

func TestAccumulatorBoundaryBecomesSpace(t *testing.T) {
	var a Accumulator
	appendString(&a, model.FieldDetails, "a;\nb")
	assert.Equal(t, "a; b", a.Snapshot().Details)
}

func TestAccumulatorResetKeepsCapacity(t *testing.T) {
	var a Accumulator
	appendString(&a, model.FieldDetails, "algo de texto")
	before := cap(a.bufs[model.FieldDetails])

	a.Reset()
	assert.True(t, a.Empty())
	assert.Equal(t, 0, a.Len(model.FieldDetails))
	assert.Equal(t, before, cap(a.bufs[model.FieldDetails]))
}

func TestAccumulatorSplitInto(t *testing.T) {
	var a Accumulator
	appendString(&a, model.FieldTitle, "PUBLICACIÓN, nota, extra")

	assert.True(t, a.SplitInto(model.FieldTitle, model.FieldDetails, ','))
	rec := a.Snapshot()
	assert.Equal(t, "PUBLICACIÓN", rec.Title)
	assert.Equal(t, "nota, extra", rec.Details)

	var b Accumulator
	appendString(&b, model.FieldTitle, "sin coma")
	assert.False(t, b.SplitInto(model.FieldTitle, model.FieldDetails, ','))
	assert.Equal(t, "sin coma", b.Snapshot().Title)
}
