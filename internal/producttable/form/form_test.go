package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	testCases := []struct {
		name       string
		in         Input
		wantErrs   FieldErrors
		wantValues Values
	}{
		{
			name:       "valid",
			in:         Input{Name: "Tablet", Price: "500", Stock: "5"},
			wantErrs:   FieldErrors{},
			wantValues: Values{Name: "Tablet", Price: 500, Stock: 5},
		},
		{
			name:       "smallest positive price",
			in:         Input{Name: "Gum", Price: "0.01", Stock: "0"},
			wantErrs:   FieldErrors{},
			wantValues: Values{Name: "Gum", Price: 0.01, Stock: 0},
		},
		{
			name:     "zero price",
			in:       Input{Name: "Free", Price: "0", Stock: "1"},
			wantErrs: FieldErrors{FieldPrice: MsgPricePositive},
		},
		{
			name:     "negative price",
			in:       Input{Name: "Debt", Price: "-3", Stock: "1"},
			wantErrs: FieldErrors{FieldPrice: MsgPricePositive},
		},
		{
			name:     "negative stock",
			in:       Input{Name: "Ghost", Price: "1", Stock: "-1"},
			wantErrs: FieldErrors{FieldStock: MsgStockNegative},
		},
		{
			name:     "empty name",
			in:       Input{Name: "", Price: "1", Stock: "1"},
			wantErrs: FieldErrors{FieldName: MsgNameRequired},
		},
		{
			name:     "unparsable numbers",
			in:       Input{Name: "X", Price: "abc", Stock: "2.5"},
			wantErrs: FieldErrors{FieldPrice: MsgPriceNumber, FieldStock: MsgStockWhole},
		},
		{
			name:     "not a number spelled out",
			in:       Input{Name: "X", Price: "NaN", Stock: "1"},
			wantErrs: FieldErrors{FieldPrice: MsgPriceNumber},
		},
		{
			name: "everything empty",
			in:   Input{},
			wantErrs: FieldErrors{
				FieldName:  MsgNameRequired,
				FieldPrice: MsgPriceNumber,
				FieldStock: MsgStockWhole,
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			values, errs := Validate(tc.in)
			// then
			assert.Equal(t, tc.wantErrs, errs)
			if len(tc.wantErrs) == 0 {
				assert.Equal(t, tc.wantValues, values)
			}
		})
	}
}

func TestValidateEdit(t *testing.T) {
	t.Run("any empty field abandons", func(t *testing.T) {
		for _, in := range []Input{
			{Name: "", Price: "1", Stock: "1"},
			{Name: "a", Price: "", Stock: "1"},
			{Name: "a", Price: "1", Stock: " "},
		} {
			_, errs, err := ValidateEdit(in)
			assert.ErrorIs(t, err, ErrEditAbandoned)
			assert.Nil(t, errs)
		}
	})

	t.Run("filled fields follow creation rules", func(t *testing.T) {
		_, errs, err := ValidateEdit(Input{Name: "a", Price: "0", Stock: "1"})
		require.NoError(t, err)
		assert.Equal(t, FieldErrors{FieldPrice: MsgPricePositive}, errs)
	})

	t.Run("valid draft", func(t *testing.T) {
		values, errs, err := ValidateEdit(DraftFor("Laptop", 1200.5, 10))
		require.NoError(t, err)
		assert.Empty(t, errs)
		assert.Equal(t, Values{Name: "Laptop", Price: 1200.5, Stock: 10}, values)
	})
}

func TestDraftFor(t *testing.T) {
	assert.Equal(t, Input{Name: "Phone", Price: "800", Stock: "25"}, DraftFor("Phone", 800, 25))
	assert.Equal(t, "0.01", FormatPrice(0.01))
}
