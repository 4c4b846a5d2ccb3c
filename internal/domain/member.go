package domain

import "time"

// Identity is the authenticated caller bound to a request. The zero value
// means "nobody is logged in".
type Identity struct {
	UserID int64
	Token  string
}

func (i Identity) IsAuthenticated() bool {
	return i.UserID > 0
}

type Member struct {
	UserID       int64     `json:"user_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	Zip          string    `json:"zip"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// ShippingAddress snapshots the member's current address.
func (m *Member) ShippingAddress() ShippingAddress {
	return ShippingAddress{Address: m.Address, City: m.City, Zip: m.Zip}
}
