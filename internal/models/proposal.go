// internal/models/proposal.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Proposal struct {
	BaseModel
	Title          string         `json:"title" gorm:"size:255;not null"`
	ProposalType   ProposalType   `json:"proposal_type" gorm:"type:varchar(30);not null;index"`
	ProposalStatus ProposalStatus `json:"proposal_status" gorm:"type:varchar(20);not null;default:'saved';index"`
	ManufacturerID *uuid.UUID     `json:"manufacturer_id" gorm:"type:uuid;index"`
	StartDate      time.Time      `json:"start_date"`
	EndDate        time.Time      `json:"end_date"`
	Notes          string         `json:"notes" gorm:"type:text"`

	// AmendedContractID is required for amendment proposals; SourceContractID
	// links a renewal proposal back to the contract it renews.
	AmendedContractID *uuid.UUID `json:"amended_contract_id" gorm:"type:uuid;index"`
	SourceContractID  *uuid.UUID `json:"source_contract_id" gorm:"type:uuid;index"`

	CreatedBy  uuid.UUID  `json:"created_by" gorm:"type:uuid"`
	ModifiedBy *uuid.UUID `json:"modified_by" gorm:"type:uuid"`

	Manufacturer *Manufacturer     `json:"manufacturer,omitempty" gorm:"foreignKey:ManufacturerID"`
	Products     []ProposalProduct `json:"products,omitempty" gorm:"foreignKey:ProposalID"`

	// Flat (unversioned) scope id sets.
	Distributors []ProposalDistributor `json:"distributors,omitempty" gorm:"foreignKey:ProposalID"`
	OpCos        []ProposalOpCo        `json:"opcos,omitempty" gorm:"foreignKey:ProposalID"`
	Industries   []ProposalIndustry    `json:"industries,omitempty" gorm:"foreignKey:ProposalID"`
}

type ProposalProduct struct {
	BaseModel
	ProposalID       uuid.UUID             `json:"proposal_id" gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID             `json:"product_id" gorm:"type:uuid;not null;index"`
	PriceTypeLabel   string                `json:"price_type_label" gorm:"size:100"`
	PriceTerms       PriceTerms            `json:"price_terms" gorm:"embedded"`
	UOM              string                `json:"uom" gorm:"size:50"`
	EstimatedVolume  *float64              `json:"estimated_volume" gorm:"type:decimal(14,2)"`
	ActualVolume     *float64              `json:"actual_volume" gorm:"type:decimal(14,2)"`
	BillbacksAllowed bool                  `json:"billbacks_allowed" gorm:"default:false"`
	Status           ProductProposalStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	AmendmentAction  *AmendmentAction      `json:"amendment_action"`

	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

type ProposalDistributor struct {
	BaseModel
	ProposalID    uuid.UUID `json:"proposal_id" gorm:"type:uuid;not null;index"`
	DistributorID uuid.UUID `json:"distributor_id" gorm:"type:uuid;not null;index"`
}

type ProposalOpCo struct {
	BaseModel
	ProposalID uuid.UUID `json:"proposal_id" gorm:"type:uuid;not null;index"`
	OpCoID     uuid.UUID `json:"opco_id" gorm:"type:uuid;not null;index"`
}

type ProposalIndustry struct {
	BaseModel
	ProposalID uuid.UUID `json:"proposal_id" gorm:"type:uuid;not null;index"`
	IndustryID uuid.UUID `json:"industry_id" gorm:"type:uuid;not null;index"`
}

// ProposalStatusHistory is append-only; rows are never updated or deleted.
type ProposalStatusHistory struct {
	BaseModel
	ProposalID uuid.UUID      `json:"proposal_id" gorm:"type:uuid;not null;index"`
	FromStatus ProposalStatus `json:"from_status" gorm:"type:varchar(20)"`
	ToStatus   ProposalStatus `json:"to_status" gorm:"type:varchar(20);not null"`
	ChangedBy  uuid.UUID      `json:"changed_by" gorm:"type:uuid"`
}

// ProposalProductHistory captures per-product changes as JSON snapshots.
type ProposalProductHistory struct {
	BaseModel
	ProposalID        uuid.UUID  `json:"proposal_id" gorm:"type:uuid;not null;index"`
	ProposalProductID *uuid.UUID `json:"proposal_product_id" gorm:"type:uuid;index"`
	ProductID         uuid.UUID  `json:"product_id" gorm:"type:uuid;index"`
	ChangeType        string     `json:"change_type" gorm:"size:30;not null"`
	PreviousValues    JSONB      `json:"previous_values" gorm:"type:jsonb"`
	CurrentValues     JSONB      `json:"current_values" gorm:"type:jsonb"`
	ChangedBy         uuid.UUID  `json:"changed_by" gorm:"type:uuid"`
}
