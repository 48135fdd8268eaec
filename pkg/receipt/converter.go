package receipt

import (
	"fmt"
	"time"

	"Cooki-Backend/domain"
	"Cooki-Backend/entities"
	"Cooki-Backend/pkg/quantity"

	"github.com/google/uuid"
)

// Converter maps parsed receipt lines to pantry items. It does no I/O.
type Converter struct {
	now func() time.Time
}

func NewConverter() *Converter {
	return &Converter{now: time.Now}
}

// Convert returns one item per receipt line, in line order, tagged with the
// session's pantry. Expiry is left unset for the user to fill in.
func (c *Converter) Convert(receipt *domain.ReceiptData, session domain.Session) ([]*entities.Item, error) {
	if !session.HasPantry() {
		return nil, domain.ErrNoActivePantry
	}
	if receipt == nil {
		return []*entities.Item{}, nil
	}

	now := c.now()
	items := make([]*entities.Item, 0, len(receipt.Items))
	for i, line := range receipt.Items {
		if line.Qty < 0 || (line.Weight != nil && line.Weight.Value < 0) {
			return nil, fmt.Errorf("line %d %q: %w", i, line.Name, domain.ErrInvalidQuantity)
		}
		q := quantity.Normalize(line.Weight, line.Qty)
		items = append(items, &entities.Item{
			ID:            uuid.New(),
			PantryID:      session.PantryID,
			Title:         line.Name,
			QuantityValue: q.Value,
			QuantityUnit:  string(q.Unit),
			AddedDate:     now,
			Location:      domain.LocationPantry,
			Category:      domain.CategoryOther,
			CreatedBy:     session.UserID,
		})
	}
	return items, nil
}
