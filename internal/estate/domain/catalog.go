package domain

// Category is a property type such as "House" or "Apartment".
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PriceBand is a price range label such as "0 - $10,000 USD".
type PriceBand struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
