// internal/services/document_service.go
package services

import (
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/nppdirect/pricing-backend/internal/models"
)

// DocumentService tracks signed paperwork attached to contracts. Files live
// in object storage; rows carry the metadata and tags.
type DocumentService struct {
	db      *gorm.DB
	storage *StorageService
}

func NewDocumentService(db *gorm.DB, storage *StorageService) *DocumentService {
	return &DocumentService{db: db, storage: storage}
}

func (s *DocumentService) UploadDocument(contractID uuid.UUID, principal models.Principal, file multipart.File, header *multipart.FileHeader, tags []string) (*models.ContractDocument, error) {
	var contract models.Contract
	if err := s.db.First(&contract, "id = ?", contractID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("contract %s", contractID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	result, err := s.storage.UploadFile(file, header, s.storage.ContractDocumentOptions())
	if err != nil {
		return nil, err
	}

	document := &models.ContractDocument{
		ContractID: contractID,
		FileName:   header.Filename,
		FileURL:    result.URL,
		StorageKey: result.Key,
		MimeType:   result.MimeType,
		Size:       result.Size,
		Tags:       pq.StringArray(tags),
		UploadedBy: principal.UserID,
	}
	if err := s.db.Create(document).Error; err != nil {
		return nil, fmt.Errorf("failed to record document: %w", err)
	}

	return document, nil
}

func (s *DocumentService) ListDocuments(contractID uuid.UUID) ([]models.ContractDocument, error) {
	var contract models.Contract
	if err := s.db.First(&contract, "id = ?", contractID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("contract %s", contractID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	var documents []models.ContractDocument
	if err := s.db.Where("contract_id = ?", contractID).
		Order("created_at DESC").
		Find(&documents).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch documents: %w", err)
	}
	return documents, nil
}

func (s *DocumentService) DeleteDocument(contractID, documentID uuid.UUID) error {
	var document models.ContractDocument
	if err := s.db.First(&document, "id = ? AND contract_id = ?", documentID, contractID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundf("document %s", documentID)
		}
		return fmt.Errorf("database error: %w", err)
	}

	if document.StorageKey != "" {
		if err := s.storage.DeleteFile(document.StorageKey); err != nil {
			return err
		}
	}

	if err := s.db.Delete(&document).Error; err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}
