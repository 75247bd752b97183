// internal/models/contract.go
package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Contract struct {
	BaseModel
	Name                        string     `json:"name" gorm:"size:255;not null;index"`
	ManufacturerID              uuid.UUID  `json:"manufacturer_id" gorm:"type:uuid;not null;index"`
	ManufacturerReferenceNumber string     `json:"manufacturer_reference_number" gorm:"size:100;index"`
	IsSuspended                 bool       `json:"is_suspended" gorm:"default:false;index"`
	IsInPerformance             bool       `json:"is_in_performance" gorm:"default:false"`
	CreatedBy                   uuid.UUID  `json:"created_by" gorm:"type:uuid"`
	ModifiedBy                  *uuid.UUID `json:"modified_by" gorm:"type:uuid"`

	Manufacturer Manufacturer      `json:"manufacturer,omitempty" gorm:"foreignKey:ManufacturerID"`
	Versions     []ContractVersion `json:"versions,omitempty" gorm:"foreignKey:ContractID"`
}

// ContractVersion is immutable once created; pricing edits always produce a
// new version with the next monotonic number.
type ContractVersion struct {
	BaseModel
	ContractID    uuid.UUID `json:"contract_id" gorm:"type:uuid;not null;index:idx_contract_version,unique,composite:cv"`
	VersionNumber int       `json:"version_number" gorm:"not null;index:idx_contract_version,unique,composite:cv"`
	StartDate     time.Time `json:"start_date" gorm:"not null"`
	EndDate       time.Time `json:"end_date" gorm:"not null"`
	EffectiveDate time.Time `json:"effective_date"`
	CreatedBy     uuid.UUID `json:"created_by" gorm:"type:uuid"`

	Contract Contract        `json:"contract,omitempty" gorm:"foreignKey:ContractID"`
	Prices   []ContractPrice `json:"prices,omitempty" gorm:"foreignKey:ContractVersionID"`
}

// PriceTerms is the pricing shape shared by contract prices and proposal
// products. Allowance and the delivered/FOB/PUA/FFS/NOI/PTV group are
// mutually exclusive.
type PriceTerms struct {
	Allowance           *float64 `json:"allowance" gorm:"type:decimal(12,4)"`
	CommercialDelivered *float64 `json:"commercial_delivered" gorm:"type:decimal(12,4)"`
	CommercialFOB       *float64 `json:"commercial_fob" gorm:"type:decimal(12,4)"`
	CommodityDelivered  *float64 `json:"commodity_delivered" gorm:"type:decimal(12,4)"`
	CommodityFOB        *float64 `json:"commodity_fob" gorm:"type:decimal(12,4)"`
	PUA                 *float64 `json:"pua" gorm:"type:decimal(12,4)"`
	FFS                 *float64 `json:"ffs" gorm:"type:decimal(12,4)"`
	NOI                 *float64 `json:"noi" gorm:"type:decimal(12,4)"`
	PTV                 *float64 `json:"ptv" gorm:"type:decimal(12,4)"`
}

func nonzero(v *float64) bool {
	return v != nil && *v != 0
}

// Validate enforces the allowance / pricing-field mutual exclusivity.
func (t PriceTerms) Validate() error {
	group := nonzero(t.CommercialDelivered) || nonzero(t.CommercialFOB) ||
		nonzero(t.CommodityDelivered) || nonzero(t.CommodityFOB) ||
		nonzero(t.PUA) || nonzero(t.FFS) || nonzero(t.NOI) || nonzero(t.PTV)
	if nonzero(t.Allowance) && group {
		return errors.New("allowance and pricing fields are mutually exclusive")
	}
	return nil
}

type ContractPrice struct {
	BaseModel
	ContractVersionID uuid.UUID  `json:"contract_version_id" gorm:"type:uuid;not null;index"`
	ProductID         uuid.UUID  `json:"product_id" gorm:"type:uuid;not null;index"`
	PriceType         PriceType  `json:"price_type" gorm:"type:varchar(50);not null;default:'contract_price'"`
	PriceTerms        PriceTerms `json:"price_terms" gorm:"embedded"`
	UOM               string     `json:"uom" gorm:"size:50"`
	EstimatedVolume   *float64   `json:"estimated_volume" gorm:"type:decimal(14,2)"`
	ActualVolume      *float64   `json:"actual_volume" gorm:"type:decimal(14,2)"`
	BillbacksAllowed  bool       `json:"billbacks_allowed" gorm:"default:false"`

	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// Scope assignment rows carry the version number they are valid as-of, so a
// contract's scope can evolve version to version. The effective scope of
// version N in a dimension is the row set with the highest version number
// not exceeding N.

type ContractDistributorAssignment struct {
	BaseModel
	ContractID    uuid.UUID `json:"contract_id" gorm:"type:uuid;not null;index"`
	VersionNumber int       `json:"version_number" gorm:"not null;index"`
	DistributorID uuid.UUID `json:"distributor_id" gorm:"type:uuid;not null;index"`
}

type ContractOpCoAssignment struct {
	BaseModel
	ContractID    uuid.UUID `json:"contract_id" gorm:"type:uuid;not null;index"`
	VersionNumber int       `json:"version_number" gorm:"not null;index"`
	OpCoID        uuid.UUID `json:"opco_id" gorm:"type:uuid;not null;index"`
}

type ContractIndustryAssignment struct {
	BaseModel
	ContractID    uuid.UUID `json:"contract_id" gorm:"type:uuid;not null;index"`
	VersionNumber int       `json:"version_number" gorm:"not null;index"`
	IndustryID    uuid.UUID `json:"industry_id" gorm:"type:uuid;not null;index"`
}

type ContractManufacturerAssignment struct {
	BaseModel
	ContractID     uuid.UUID `json:"contract_id" gorm:"type:uuid;not null;index"`
	VersionNumber  int       `json:"version_number" gorm:"not null;index"`
	ManufacturerID uuid.UUID `json:"manufacturer_id" gorm:"type:uuid;not null;index"`
}
