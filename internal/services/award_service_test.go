// internal/services/award_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nppdirect/pricing-backend/internal/models"
)

func TestNormalizePriceType(t *testing.T) {
	tests := []struct {
		label string
		want  models.PriceType
	}{
		{"contract_price", models.PriceTypeContractPrice},
		{"Contract Price", models.PriceTypeContractPrice},
		{"guaranteed", models.PriceTypeContractPrice},
		{"GUARANTEED PRICE", models.PriceTypeContractPrice},
		{"firm", models.PriceTypeContractPrice},
		{"  guaranteed  ", models.PriceTypeContractPrice},
		{"contract price at time of purchase", models.PriceTypeContractPriceAtTime},
		{"ATP", models.PriceTypeContractPriceAtTime},
		{"list at time of purchase", models.PriceTypeListAtTime},
		{"List Price", models.PriceTypeListAtTime},
		{"discontinued", models.PriceTypeDiscontinued},
		{"disc", models.PriceTypeDiscontinued},
		{"suspended", models.PriceTypeSuspended},
		{"Suspend", models.PriceTypeSuspended},

		// Unrecognized and empty labels fall back to contract_price.
		{"", models.PriceTypeContractPrice},
		{"promo", models.PriceTypeContractPrice},
		{"??", models.PriceTypeContractPrice},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePriceType(tt.label))
		})
	}
}
