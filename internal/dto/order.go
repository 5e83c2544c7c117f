package dto

// CreateOrder is the inbound payload for placing a procurement order.
type CreateOrder struct {
	BuyerID    string            `json:"buyer_id"`
	SupplierID string            `json:"supplier_id"`
	Items      []CreateOrderItem `json:"items"`
}

type CreateOrderItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Unit        string  `json:"unit"`
}
