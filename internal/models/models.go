package models

import (
	"time"
)

// Hat is a single catalog item. Quantity zero means a unique item
// that is removed outright when sold.
type Hat struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Image    string `json:"image"`
	Quantity int    `json:"quantity,omitempty"`
}

// Stock reports how many units a hat represents.
func (h Hat) Stock() int {
	if h.Quantity <= 0 {
		return 1
	}
	return h.Quantity
}

// Transaction is one confirmed trade. Records are append-only and
// never mutated after creation.
type Transaction struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	HatID       string    `json:"hat_id" gorm:"not null"`
	HatName     string    `json:"hat_name"`
	Quantity    int       `json:"quantity" gorm:"default:1"`
	TotalPrice  int       `json:"total_price"`
	Direction   string    `json:"direction" gorm:"not null"` // sale, acquisition
	Counterpart string    `json:"counterpart"`
	CreatedAt   time.Time `json:"created_at"`
}

// Trade directions.
const (
	DirectionSale        = "sale"
	DirectionAcquisition = "acquisition"
)
