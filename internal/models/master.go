// internal/models/master.go
package models

import (
	"github.com/google/uuid"
)

// Master data referenced by contracts and proposals. CRUD for these lives in
// upstream admin tooling; this service only reads them.

type Manufacturer struct {
	BaseModel
	Name            string `json:"name" gorm:"size:255;not null;index"`
	ReferenceNumber string `json:"reference_number" gorm:"size:100;index"`
	IsActive        bool   `json:"is_active" gorm:"default:true"`
}

type Distributor struct {
	BaseModel
	Name     string `json:"name" gorm:"size:255;not null;index"`
	IsActive bool   `json:"is_active" gorm:"default:true"`

	OpCos []OpCo `json:"opcos,omitempty" gorm:"foreignKey:DistributorID"`
}

// OpCo is an operating company under a distributor.
type OpCo struct {
	BaseModel
	DistributorID uuid.UUID `json:"distributor_id" gorm:"type:uuid;not null;index"`
	Name          string    `json:"name" gorm:"size:255;not null;index"`
	IsActive      bool      `json:"is_active" gorm:"default:true"`

	Distributor Distributor `json:"distributor,omitempty" gorm:"foreignKey:DistributorID"`
}

type Industry struct {
	BaseModel
	Name     string `json:"name" gorm:"size:255;not null;index"`
	IsActive bool   `json:"is_active" gorm:"default:true"`
}

type Product struct {
	BaseModel
	ManufacturerID uuid.UUID `json:"manufacturer_id" gorm:"type:uuid;index"`
	Name           string    `json:"name" gorm:"size:255;not null;index"`
	SKU            string    `json:"sku" gorm:"size:100;index"`
	UOM            string    `json:"uom" gorm:"size:50"`
	IsActive       bool      `json:"is_active" gorm:"default:true"`

	Manufacturer Manufacturer `json:"manufacturer,omitempty" gorm:"foreignKey:ManufacturerID"`
}
