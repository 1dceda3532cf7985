package domain

// Product is a catalog record. The barcode is the primary key: scans,
// cart line items and catalog lookups are all keyed by it.
type Product struct {
	Barcode     string  `bson:"barcode" json:"barcode"`
	Name        string  `bson:"name" json:"name"`
	Price       float64 `bson:"price" json:"price"`
	Image       string  `bson:"image,omitempty" json:"image,omitempty"`
	Description string  `bson:"description,omitempty" json:"description,omitempty"`
	Category    string  `bson:"category,omitempty" json:"category,omitempty"`
	Stock       int     `bson:"stock" json:"stock"`
	Expiry      string  `bson:"expiry,omitempty" json:"expiry,omitempty"`
}
