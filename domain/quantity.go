package domain

import "errors"

type Unit string

const (
	UnitGram       Unit = "g"
	UnitKilogram   Unit = "kg"
	UnitMilliliter Unit = "ml"
	UnitLiter      Unit = "l"
	UnitPiece      Unit = "piece"
	UnitCup        Unit = "cup"
	UnitTablespoon Unit = "tbsp"
	UnitTeaspoon   Unit = "tsp"
	UnitOunce      Unit = "oz"
	UnitPound      Unit = "lb"
)

var ErrInvalidUnit = errors.New("invalid quantity unit")

// Quantity is the canonical (value, unit) pair stored on every item.
type Quantity struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}
