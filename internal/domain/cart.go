package domain

import "time"

// CartItem is one cart line. Product fields are copied at add time, so a
// later catalog edit does not change an already scanned line. At most one
// line per barcode exists in a cart; quantity is always >= 1 (a quantity
// reaching zero removes the line instead).
type CartItem struct {
	Barcode  string  `bson:"barcode" json:"barcode"`
	Name     string  `bson:"name" json:"name"`
	Price    float64 `bson:"price" json:"price"`
	Image    string  `bson:"image,omitempty" json:"image,omitempty"`
	Quantity int     `bson:"quantity" json:"quantity"`
}

// Total returns price times quantity for this line.
func (i CartItem) Total() float64 {
	return i.Price * float64(i.Quantity)
}

// CartDocument is the shared cart as persisted: a single document visible
// to every connected terminal, replaced wholesale on every mutation.
type CartDocument struct {
	ID          string     `bson:"_id" json:"id"`
	Items       []CartItem `bson:"items" json:"items"`
	LastUpdated time.Time  `bson:"last_updated" json:"last_updated"`
}
