package checkout

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/geek-guru098/NEPSTORE/pkg/model"
)

// Cities we deliver to.
var deliveryCities = map[string]bool{
	"Kathmandu":  true,
	"Lalitpur":   true,
	"Bhaktapur":  true,
	"Pokhara":    true,
	"Biratnagar": true,
}

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// ValidationError reports which shipping field failed and why. It is
// recoverable: the caller re-prompts, the checkout stage does not advance.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ShippingPayload carries the raw shipping form input.
type ShippingPayload struct {
	FullName      string `json:"full_name"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	PaymentMethod string `json:"payment_method"`
}

// Validate checks the payload and produces an immutable ShippingInfo. Pure:
// no cart access, no network, no side effects.
func (p ShippingPayload) Validate() (model.ShippingInfo, error) {
	fullName := strings.TrimSpace(p.FullName)
	if fullName == "" {
		return model.ShippingInfo{}, &ValidationError{Field: "full_name", Reason: "must not be empty"}
	}

	if !phonePattern.MatchString(p.Phone) {
		return model.ShippingInfo{}, &ValidationError{Field: "phone", Reason: "must be exactly 10 digits"}
	}

	address := strings.TrimSpace(p.Address)
	if address == "" {
		return model.ShippingInfo{}, &ValidationError{Field: "address", Reason: "must not be empty"}
	}

	if !deliveryCities[p.City] {
		return model.ShippingInfo{}, &ValidationError{Field: "city", Reason: fmt.Sprintf("no delivery to %q", p.City)}
	}

	method := model.PaymentMethod(p.PaymentMethod)
	if method != model.PaymentMethodWallet && method != model.PaymentMethodCashOnDelivery {
		return model.ShippingInfo{}, &ValidationError{Field: "payment_method", Reason: fmt.Sprintf("unknown method %q", p.PaymentMethod)}
	}

	return model.ShippingInfo{
		FullName:      fullName,
		Phone:         p.Phone,
		Address:       address,
		City:          p.City,
		PaymentMethod: method,
	}, nil
}
