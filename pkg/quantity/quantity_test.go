package quantity

import (
	"testing"

	"Cooki-Backend/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		weight *domain.ReceiptWeight
		count  int
		want   domain.Quantity
	}{
		{"no weight", nil, 4, domain.Quantity{Value: 4, Unit: domain.UnitPiece}},
		{"grams multiplied", &domain.ReceiptWeight{Value: 250, Unit: "g"}, 2, domain.Quantity{Value: 500, Unit: domain.UnitGram}},
		{"kilograms", &domain.ReceiptWeight{Value: 1.5, Unit: "kg"}, 1, domain.Quantity{Value: 1.5, Unit: domain.UnitKilogram}},
		{"milliliters", &domain.ReceiptWeight{Value: 330, Unit: "ml"}, 6, domain.Quantity{Value: 1980, Unit: domain.UnitMilliliter}},
		{"liters", &domain.ReceiptWeight{Value: 1, Unit: "l"}, 2, domain.Quantity{Value: 2, Unit: domain.UnitLiter}},
		{"pack counts pieces", &domain.ReceiptWeight{Value: 1, Unit: "pack"}, 3, domain.Quantity{Value: 3, Unit: domain.UnitPiece}},
		{"packs ignore value", &domain.ReceiptWeight{Value: 12, Unit: "packs"}, 2, domain.Quantity{Value: 2, Unit: domain.UnitPiece}},
		{"zero count", &domain.ReceiptWeight{Value: 250, Unit: "g"}, 0, domain.Quantity{Value: 0, Unit: domain.UnitGram}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.weight, tt.count))
		})
	}
}

func TestParseUnit(t *testing.T) {
	u, err := ParseUnit(" KG ")
	require.NoError(t, err)
	assert.Equal(t, domain.UnitKilogram, u)

	_, err = ParseUnit("bushel")
	assert.ErrorIs(t, err, domain.ErrInvalidUnit)
}

func TestNew(t *testing.T) {
	q, err := New(2, "cup")
	require.NoError(t, err)
	assert.Equal(t, domain.Quantity{Value: 2, Unit: domain.UnitCup}, q)

	_, err = New(-1, "g")
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}
