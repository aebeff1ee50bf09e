package model

// Plan is a purchasable subscription tier.
type Plan struct {
	Name     string   `json:"name"`
	Price    int      `json:"price"`
	Features []string `json:"features"`
}
