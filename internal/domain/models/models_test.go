package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateAddDays(t *testing.T) {
	assert.Equal(t, Date("2024-04-01"), Date("2024-03-01").AddDays(GestationDays))
	assert.Equal(t, Date("2024-03-01"), Date("2024-02-29").AddDays(1))
	assert.Equal(t, Date("2025-01-01"), Date("2024-12-31").AddDays(1))
	assert.Equal(t, Date("garbage"), Date("garbage").AddDays(3))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-07")
	require.NoError(t, err)
	assert.Equal(t, Date("2024-01-07"), d)

	_, err = ParseDate("2024-1-7")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestDateBetweenIsInclusive(t *testing.T) {
	assert.True(t, Date("2024-01-01").Between("2024-01-01", "2024-01-08"))
	assert.True(t, Date("2024-01-08").Between("2024-01-01", "2024-01-08"))
	assert.False(t, Date("2024-01-09").Between("2024-01-01", "2024-01-08"))
}

func TestParseEventTypes(t *testing.T) {
	types, err := ParseEventTypes("hatched:add, predator:SUBTRACT")
	require.NoError(t, err)

	p, ok := types.Polarity("hatched")
	require.True(t, ok)
	assert.Equal(t, PolarityAdd, p)

	p, ok = types.Polarity("predator")
	require.True(t, ok)
	assert.Equal(t, PolaritySubtract, p)

	p, ok = types.Polarity(EventSold)
	require.True(t, ok)
	assert.Equal(t, PolaritySubtract, p)
}

func TestParseEventTypesRejectsBadInput(t *testing.T) {
	_, err := ParseEventTypes("hatched")
	require.Error(t, err)

	_, err = ParseEventTypes("death:add")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = ParseEventTypes("gift:sideways")
	require.Error(t, err)
}

func TestWithDoesNotMutateReceiver(t *testing.T) {
	base := DefaultEventTypes()
	extended, err := base.With("gift", PolarityAdd)
	require.NoError(t, err)

	assert.True(t, extended.Known("gift"))
	assert.False(t, base.Known("gift"))
}

func TestValidateLedgerEvent(t *testing.T) {
	cost := decimal.RequireFromString("12.50")
	ok := LedgerEvent{Date: "2024-01-01", Type: EventAcquired, Quantity: 3, Sex: SexFemale, Cost: &cost}
	require.NoError(t, Validate(ok))

	bad := ok
	bad.Quantity = 0
	err := Validate(bad)
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "quantity", verr.Field)

	bad = ok
	bad.Date = "01/01/2024"
	err = Validate(bad)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "date", verr.Field)

	bad = ok
	bad.Sex = "X"
	require.Error(t, Validate(bad))

	bad = ok
	bad.Breeds = []BreedEntry{{Breed: "", Hens: 3}}
	err = Validate(bad)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "breeds[0].breed", verr.Field)
}

func TestNotFoundErrorIs(t *testing.T) {
	err := error(NotFoundError{Entity: "breeding record", ID: "x"})
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), `"x"`)
}

func TestBreedingRecordCloneIsDeep(t *testing.T) {
	rec := BreedingRecord{LitterSize: Int(8), Attempts: []Attempt{{ID: "a"}}}
	cp := rec.Clone()
	*cp.LitterSize = 3
	cp.Attempts[0].ID = "b"

	assert.Equal(t, 8, *rec.LitterSize)
	assert.Equal(t, "a", rec.Attempts[0].ID)
}
