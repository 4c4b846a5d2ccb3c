package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryDays is the delivery estimate added to an order's creation date.
const DeliveryDays = 7

// ShippingAddress is copied from the member profile when an order is placed
// and never follows later profile changes.
type ShippingAddress struct {
	Address string `json:"address"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
}

// OrderLine freezes quantity and amount at checkout time.
type OrderLine struct {
	ISBN      string          `json:"isbn"`
	Title     string          `json:"title,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}

type Order struct {
	ID        int64           `json:"order_id"`
	UserID    int64           `json:"user_id"`
	CreatedAt time.Time       `json:"created_at"`
	ShipTo    ShippingAddress `json:"ship_to"`
	Lines     []OrderLine     `json:"lines"`
}

func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Amount)
	}
	return total
}

func (o *Order) DeliveryEstimate() time.Time {
	return o.CreatedAt.AddDate(0, 0, DeliveryDays)
}

// Confirmation is what a successful checkout returns to the caller.
type Confirmation struct {
	OrderID          int64           `json:"order_id"`
	CreatedAt        time.Time       `json:"created_at"`
	DeliveryEstimate time.Time       `json:"delivery_estimate"`
	ShipTo           ShippingAddress `json:"ship_to"`
	Lines            []OrderLine     `json:"lines"`
	Total            decimal.Decimal `json:"total"`
}

func NewConfirmation(o *Order) *Confirmation {
	return &Confirmation{
		OrderID:          o.ID,
		CreatedAt:        o.CreatedAt,
		DeliveryEstimate: o.DeliveryEstimate(),
		ShipTo:           o.ShipTo,
		Lines:            o.Lines,
		Total:            o.Total(),
	}
}

// OrderLinesFromCart converts the lines read during validation one to one,
// keeping the amount that was computed from the price as read.
func OrderLinesFromCart(lines []CartLine) []OrderLine {
	out := make([]OrderLine, len(lines))
	for i, l := range lines {
		out[i] = OrderLine{
			ISBN:      l.ISBN,
			Title:     l.Title,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Amount:    l.Amount,
		}
	}
	return out
}

// OrderPlacedEvent is the outbox payload written in the checkout transaction.
type OrderPlacedEvent struct {
	OrderID   int64           `json:"order_id"`
	UserID    int64           `json:"user_id"`
	Lines     []OrderLine     `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	ShipTo    ShippingAddress `json:"ship_to"`
	PlacedAt  time.Time       `json:"placed_at"`
	EventType string          `json:"event_type"`
}

const EventOrderPlaced = "order.placed"
