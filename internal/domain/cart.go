package domain

// CartItem is a single cart line joined with the product it points at.
// Price here is the live catalog price, order snapshots are taken at
// checkout time.
type CartItem struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Artist    string `json:"artist"`
	Price     int64  `json:"price"`
	ImageURL  string `json:"image_url"`
	Quantity  int32  `json:"quantity"`
}

type Cart struct {
	Items []CartItem `json:"items"`
	Total int64      `json:"total"`
}

type AddToCartRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int32 `json:"quantity" validate:"required,gt=0"`
}
