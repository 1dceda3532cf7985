package domain

import "time"

// Receipt is the immutable snapshot of a settled order, written once when
// the payment terminal completes its cycle. It feeds the reports surface.
type Receipt struct {
	ID         string     `bson:"_id" json:"id"`
	Items      []CartItem `bson:"items" json:"items"`
	TotalPrice float64    `bson:"total_price" json:"total_price"`
	TotalItems int        `bson:"total_items" json:"total_items"`
	SettledAt  time.Time  `bson:"settled_at" json:"settled_at"`
}
