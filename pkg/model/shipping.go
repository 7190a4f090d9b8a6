package model

type PaymentMethod string

const (
	PaymentMethodWallet         PaymentMethod = "wallet"
	PaymentMethodCashOnDelivery PaymentMethod = "cashOnDelivery"
)

// ShippingInfo is the validated recipient/delivery record for one checkout
// attempt. It is immutable once handed to a payment gateway and never
// persisted past the session.
type ShippingInfo struct {
	FullName      string        `json:"full_name"`
	Phone         string        `json:"phone"`
	Address       string        `json:"address"`
	City          string        `json:"city"`
	PaymentMethod PaymentMethod `json:"payment_method"`
}
