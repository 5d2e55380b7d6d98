package postgres

import (
	"math/big"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalNumericRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "100", "123.45", "0.000001", "99999999999999999999.99"} {
		d := decimal.RequireFromString(s)

		got, err := numericToDecimal(decimalToNumeric(d))
		require.NoError(t, err)
		assert.True(t, d.Equal(got), "%s != %s", d, got)
	}
}

func TestNumericToDecimalRejectsNaN(t *testing.T) {
	_, err := numericToDecimal(pgtype.Numeric{NaN: true, Valid: true})
	assert.ErrorIs(t, err, errNonFiniteNumeric)

	_, err = numericToDecimal(pgtype.Numeric{Int: big.NewInt(1), InfinityModifier: pgtype.Infinity, Valid: true})
	assert.ErrorIs(t, err, errNonFiniteNumeric)
}

func TestNumericToDecimalNull(t *testing.T) {
	got, err := numericToDecimal(pgtype.Numeric{})
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestOptionalUUID(t *testing.T) {
	assert.False(t, optionalUUIDToPg(nil).Valid)
	assert.Nil(t, pgToOptionalUUID(pgtype.UUID{}))

	id := uuid.New()
	got := pgToOptionalUUID(optionalUUIDToPg(&id))
	require.NotNil(t, got)
	assert.Equal(t, id, *got)
}
