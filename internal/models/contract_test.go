// internal/models/contract_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func TestPriceTermsValidate(t *testing.T) {
	tests := []struct {
		name    string
		terms   PriceTerms
		wantErr bool
	}{
		{"empty terms", PriceTerms{}, false},
		{"allowance only", PriceTerms{Allowance: f(2.5)}, false},
		{"pricing fields only", PriceTerms{CommercialDelivered: f(10), PUA: f(1)}, false},
		{"allowance with pricing field", PriceTerms{Allowance: f(2.5), CommercialDelivered: f(10)}, true},
		{"allowance with ffs", PriceTerms{Allowance: f(2.5), FFS: f(0.5)}, true},

		// Explicit zeros count as unset, not as a conflicting value.
		{"zero allowance with pricing", PriceTerms{Allowance: f(0), NOI: f(3)}, false},
		{"allowance with zero pricing", PriceTerms{Allowance: f(2.5), PTV: f(0)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.terms.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPrincipalIsAdminClass(t *testing.T) {
	assert.True(t, Principal{Capability: CapabilityAdmin}.IsAdminClass())
	assert.True(t, Principal{Capability: CapabilityNPP}.IsAdminClass())
	assert.False(t, Principal{Capability: CapabilityManufacturer}.IsAdminClass())
	assert.False(t, Principal{Capability: CapabilityDistributor}.IsAdminClass())
}

func TestCapabilityFor(t *testing.T) {
	assert.Equal(t, CapabilityAdmin, CapabilityFor(UserTypeAdmin))
	assert.Equal(t, CapabilityNPP, CapabilityFor(UserTypeNPP))
	assert.Equal(t, CapabilityManufacturer, CapabilityFor(UserTypeManufacturer))
	assert.Equal(t, CapabilityDistributor, CapabilityFor(UserTypeDistributor))
}
