package services

import (
	"errors"
	"fmt"

	"github.com/brianfeister/rawelegancecreations/models"
)

const (
	DefaultCurrency      = "usd"
	TaxBehaviorExclusive = "exclusive"
	MetadataPriceID      = "price_id"
)

var ErrInvalidLineItem = errors.New("invalid line item")

// BuildLineItems normalizes cart entries into checkout line items. Entries
// with a zero quantity are dropped; negative quantities or amounts and
// unnamed items are rejected. The result preserves cart order.
func BuildLineItems(cart []models.CartLineItem) ([]models.CheckoutLineItem, error) {
	items := make([]models.CheckoutLineItem, 0, len(cart))
	for i, entry := range cart {
		switch {
		case entry.Quantity < 0:
			return nil, fmt.Errorf("%w: item %d has negative quantity %d", ErrInvalidLineItem, i, entry.Quantity)
		case entry.UnitAmount < 0:
			return nil, fmt.Errorf("%w: item %d has negative unit amount %d", ErrInvalidLineItem, i, entry.UnitAmount)
		case entry.Quantity == 0:
			continue
		case entry.Name == "":
			return nil, fmt.Errorf("%w: item %d has no name", ErrInvalidLineItem, i)
		}

		item := models.CheckoutLineItem{
			UnitAmount:  entry.UnitAmount,
			Currency:    DefaultCurrency,
			TaxBehavior: TaxBehaviorExclusive,
			ProductName: entry.Name,
			Description: entry.Description,
			Quantity:    entry.Quantity,
		}
		if len(entry.Images) > 0 {
			item.Images = append([]string(nil), entry.Images...)
		}
		if entry.PriceID != "" {
			item.Metadata = map[string]string{MetadataPriceID: entry.PriceID}
		}
		items = append(items, item)
	}
	return items, nil
}
