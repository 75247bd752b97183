// internal/services/master_service.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nppdirect/pricing-backend/internal/models"
	"github.com/nppdirect/pricing-backend/internal/utils"
)

// MasterService serves the read-only reference data the pricing workflow
// hangs off of: manufacturers, distributors, OpCos, industries, products.
// Maintenance of this data happens in an upstream system.
type MasterService struct {
	db *gorm.DB
}

func NewMasterService(db *gorm.DB) *MasterService {
	return &MasterService{db: db}
}

func (s *MasterService) ListManufacturers(params utils.PaginationParams) ([]models.Manufacturer, int64, error) {
	var rows []models.Manufacturer
	total, err := s.list(&models.Manufacturer{}, &rows, params)
	return rows, total, err
}

func (s *MasterService) ListDistributors(params utils.PaginationParams) ([]models.Distributor, int64, error) {
	var rows []models.Distributor
	total, err := s.list(&models.Distributor{}, &rows, params)
	return rows, total, err
}

func (s *MasterService) ListOpCos(params utils.PaginationParams, distributorID *uuid.UUID) ([]models.OpCo, int64, error) {
	query := s.db.Model(&models.OpCo{})
	if distributorID != nil {
		query = query.Where("distributor_id = ?", *distributorID)
	}
	if params.Search != "" {
		query = query.Where("name ILIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count opcos: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"name", "created_at"})
	query = utils.ApplyPagination(query, params)

	var rows []models.OpCo
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch opcos: %w", err)
	}
	return rows, total, nil
}

func (s *MasterService) ListIndustries(params utils.PaginationParams) ([]models.Industry, int64, error) {
	var rows []models.Industry
	total, err := s.list(&models.Industry{}, &rows, params)
	return rows, total, err
}

func (s *MasterService) ListProducts(params utils.PaginationParams) ([]models.Product, int64, error) {
	var rows []models.Product
	total, err := s.list(&models.Product{}, &rows, params)
	return rows, total, err
}

func (s *MasterService) list(model interface{}, dest interface{}, params utils.PaginationParams) (int64, error) {
	query := s.db.Model(model)
	if params.Search != "" {
		query = query.Where("name ILIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"name", "created_at"})
	query = utils.ApplyPagination(query, params)

	if err := query.Find(dest).Error; err != nil {
		return 0, fmt.Errorf("failed to fetch records: %w", err)
	}
	return total, nil
}
