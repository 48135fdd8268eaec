// Package quantity turns receipt weights and counts into the canonical
// quantity stored on pantry items.
package quantity

import (
	"fmt"
	"strings"

	"Cooki-Backend/domain"
)

// Normalize returns the item quantity for a receipt line bought count times.
// Lines without a weight, or sold by the pack, are counted in pieces.
func Normalize(weight *domain.ReceiptWeight, count int) domain.Quantity {
	if weight == nil {
		return domain.Quantity{Value: float64(count), Unit: domain.UnitPiece}
	}

	switch weight.Unit {
	case domain.WeightUnitGram:
		return domain.Quantity{Value: weight.Value * float64(count), Unit: domain.UnitGram}
	case domain.WeightUnitKilogram:
		return domain.Quantity{Value: weight.Value * float64(count), Unit: domain.UnitKilogram}
	case domain.WeightUnitMilliliter:
		return domain.Quantity{Value: weight.Value * float64(count), Unit: domain.UnitMilliliter}
	case domain.WeightUnitLiter:
		return domain.Quantity{Value: weight.Value * float64(count), Unit: domain.UnitLiter}
	default:
		// pack, packs
		return domain.Quantity{Value: float64(count), Unit: domain.UnitPiece}
	}
}

// ParseUnit validates a unit typed by a user.
func ParseUnit(s string) (domain.Unit, error) {
	u := domain.Unit(strings.ToLower(strings.TrimSpace(s)))
	switch u {
	case domain.UnitGram, domain.UnitKilogram, domain.UnitMilliliter, domain.UnitLiter,
		domain.UnitPiece, domain.UnitCup, domain.UnitTablespoon, domain.UnitTeaspoon,
		domain.UnitOunce, domain.UnitPound:
		return u, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrInvalidUnit, s)
}

// New validates a manually entered quantity.
func New(value float64, unit string) (domain.Quantity, error) {
	if value < 0 {
		return domain.Quantity{}, domain.ErrInvalidQuantity
	}
	u, err := ParseUnit(unit)
	if err != nil {
		return domain.Quantity{}, err
	}
	return domain.Quantity{Value: value, Unit: u}, nil
}
