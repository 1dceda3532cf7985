package domain

import "time"

// PaymentSignal is the singleton hand-off flag between the cart screen and
// the payment terminal screen. Finalize flips it true, settlement flips it
// back false. Last writer wins, there is no versioning.
type PaymentSignal struct {
	ID          string    `bson:"_id" json:"id"`
	ShowPayment bool      `bson:"show_payment" json:"show_payment"`
	LastUpdated time.Time `bson:"last_updated" json:"last_updated"`
}
