package transport

// OpenCartRequest starts a new cart. CartID is optional; one is generated
// when absent.
type OpenCartRequest struct {
	CartID string `json:"cart_id"`
}

// ProductItemRequest carries the product item for add/remove commands.
type ProductItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}
