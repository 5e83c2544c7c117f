package response

type Order struct {
	OrderID     string      `json:"order_id"`
	BuyerID     string      `json:"buyer_id"`
	SupplierID  string      `json:"supplier_id"`
	Items       []OrderItem `json:"items"`
	Status      string      `json:"status"`
	TotalAmount float64     `json:"total_amount"`
	CreatedAt   string      `json:"created_at"`
	UpdatedAt   string      `json:"updated_at"`
}

type OrderItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Unit        string  `json:"unit"`
	Subtotal    float64 `json:"subtotal"`
}

type Inventory struct {
	ProductID         string `json:"product_id"`
	ProductName       string `json:"product_name"`
	AvailableQuantity int    `json:"available_quantity"`
	ReservedQuantity  int    `json:"reserved_quantity"`
}

type Error struct {
	Error string `json:"error"`
}
