package checkout

import (
	"testing"

	"github.com/geek-guru098/NEPSTORE/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPayload() ShippingPayload {
	return ShippingPayload{
		FullName:      "Sita Sharma",
		Phone:         "9841000000",
		Address:       "Baneshwor, Ward 10",
		City:          "Kathmandu",
		PaymentMethod: "wallet",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*ShippingPayload)
		wantField string
	}{
		{
			name:   "valid wallet payload",
			mutate: func(p *ShippingPayload) {},
		},
		{
			name:   "valid cash on delivery payload",
			mutate: func(p *ShippingPayload) { p.PaymentMethod = "cashOnDelivery" },
		},
		{
			name:      "empty full name",
			mutate:    func(p *ShippingPayload) { p.FullName = "   " },
			wantField: "full_name",
		},
		{
			name:      "empty address after trimming",
			mutate:    func(p *ShippingPayload) { p.Address = "\t\n " },
			wantField: "address",
		},
		{
			name:      "nine digit phone",
			mutate:    func(p *ShippingPayload) { p.Phone = "984100000" },
			wantField: "phone",
		},
		{
			name:      "eleven digit phone",
			mutate:    func(p *ShippingPayload) { p.Phone = "98410000001" },
			wantField: "phone",
		},
		{
			name:      "phone with letters",
			mutate:    func(p *ShippingPayload) { p.Phone = "98410000ab" },
			wantField: "phone",
		},
		{
			name:      "unrecognized city is rejected not coerced",
			mutate:    func(p *ShippingPayload) { p.City = "kathmandu" },
			wantField: "city",
		},
		{
			name:      "city outside delivery set",
			mutate:    func(p *ShippingPayload) { p.City = "Dharan" },
			wantField: "city",
		},
		{
			name:      "unknown payment method",
			mutate:    func(p *ShippingPayload) { p.PaymentMethod = "creditCard" },
			wantField: "payment_method",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload()
			tt.mutate(&p)

			info, err := p.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, model.PaymentMethod(p.PaymentMethod), info.PaymentMethod)
				return
			}

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestValidateTrimsFields(t *testing.T) {
	p := validPayload()
	p.FullName = "  Sita Sharma  "
	p.Address = " Baneshwor, Ward 10\n"

	info, err := p.Validate()
	require.NoError(t, err)
	assert.Equal(t, "Sita Sharma", info.FullName)
	assert.Equal(t, "Baneshwor, Ward 10", info.Address)
}
