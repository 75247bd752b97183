// internal/models/document.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ContractDocument tracks signed paperwork uploaded against a contract.
type ContractDocument struct {
	BaseModel
	ContractID uuid.UUID      `json:"contract_id" gorm:"type:uuid;not null;index"`
	FileName   string         `json:"file_name" gorm:"size:255;not null"`
	FileURL    string         `json:"file_url" gorm:"size:1024;not null"`
	StorageKey string         `json:"storage_key" gorm:"size:512"`
	MimeType   string         `json:"mime_type" gorm:"size:100"`
	Size       int64          `json:"size"`
	Tags       pq.StringArray `json:"tags" gorm:"type:text[]"`
	UploadedBy uuid.UUID      `json:"uploaded_by" gorm:"type:uuid"`
}
