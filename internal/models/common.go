// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns the primary key client-side so the same models work
// against Postgres and the in-memory test database.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		if s, sok := value.(string); sok {
			bytes = []byte(s)
		} else {
			return nil
		}
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type UserType string

const (
	UserTypeAdmin        UserType = "admin"
	UserTypeNPP          UserType = "npp"
	UserTypeManufacturer UserType = "manufacturer"
	UserTypeDistributor  UserType = "distributor"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// Capability is resolved once at the authentication boundary and carried on
// the Principal; handlers never re-derive it from role strings.
type Capability string

const (
	CapabilityAdmin        Capability = "admin"
	CapabilityNPP          Capability = "npp"
	CapabilityManufacturer Capability = "manufacturer"
	CapabilityDistributor  Capability = "distributor"
)

// CapabilityFor maps a stored user type to its capability.
func CapabilityFor(t UserType) Capability {
	switch t {
	case UserTypeAdmin:
		return CapabilityAdmin
	case UserTypeNPP:
		return CapabilityNPP
	case UserTypeManufacturer:
		return CapabilityManufacturer
	default:
		return CapabilityDistributor
	}
}

// Principal is the authenticated caller, built by the auth middleware and
// passed explicitly through the service layer.
type Principal struct {
	UserID          uuid.UUID   `json:"user_id"`
	Username        string      `json:"username"`
	Capability      Capability  `json:"capability"`
	ManufacturerIDs []uuid.UUID `json:"manufacturer_ids,omitempty"`
}

// IsAdminClass reports whether the principal may drive proposal workflow
// decisions (accept/reject, per-product statuses).
func (p Principal) IsAdminClass() bool {
	return p.Capability == CapabilityAdmin || p.Capability == CapabilityNPP
}

type ProposalType string

const (
	ProposalTypeNewContract ProposalType = "new_contract"
	ProposalTypeAmendment   ProposalType = "amendment"
	ProposalTypeRenewal     ProposalType = "renewal"
)

type ProposalStatus string

const (
	ProposalStatusRequested ProposalStatus = "requested"
	ProposalStatusPending   ProposalStatus = "pending"
	ProposalStatusSaved     ProposalStatus = "saved"
	ProposalStatusSubmitted ProposalStatus = "submitted"
	ProposalStatusCompleted ProposalStatus = "completed"
)

type ProductProposalStatus string

const (
	ProductProposalStatusPending  ProductProposalStatus = "pending"
	ProductProposalStatusAccepted ProductProposalStatus = "accepted"
	ProductProposalStatusRejected ProductProposalStatus = "rejected"
)

// AmendmentAction marks how an amendment product relates to the amended
// contract's current version: 1 = new to the contract, 2 = replaces the
// equivalent product row.
type AmendmentAction int

const (
	AmendmentActionAdd    AmendmentAction = 1
	AmendmentActionUpdate AmendmentAction = 2
)

type PriceType string

const (
	PriceTypeContractPrice       PriceType = "contract_price"
	PriceTypeContractPriceAtTime PriceType = "contract_price_at_time_of_purchase"
	PriceTypeListAtTime          PriceType = "list_at_time_of_purchase"
	PriceTypeDiscontinued        PriceType = "discontinued"
	PriceTypeSuspended           PriceType = "suspended"
)
