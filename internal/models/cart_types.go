package models

// CartItem is one entry of the cart embedded in a user.
type CartItem struct {
	ProductID string `json:"product" db:"product_id"`
	Quantity  int    `json:"quantity" db:"quantity"`
}

// CartLine is a cart entry joined with the live product, as returned to the client.
type CartLine struct {
	Product
	Quantity int `json:"quantity"`
}
