package domain

import "github.com/shopspring/decimal"

const (
	DefaultQuantity = 1
	MaxQuantity     = 99
)

// CartLine is one (user, book) entry of a cart joined with the book's
// current catalog data.
type CartLine struct {
	ISBN      string          `json:"isbn"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}

type Cart struct {
	UserID int64           `json:"user_id"`
	Lines  []CartLine      `json:"lines"`
	Total  decimal.Decimal `json:"total"`
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

// NewCart prices every line at its current unit price and sums the total.
func NewCart(userID int64, lines []CartLine) *Cart {
	cart := &Cart{
		UserID: userID,
		Lines:  make([]CartLine, 0, len(lines)),
		Total:  decimal.Zero,
	}
	for _, line := range lines {
		line.Amount = line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		cart.Total = cart.Total.Add(line.Amount)
		cart.Lines = append(cart.Lines, line)
	}
	return cart
}
