// internal/services/contract_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nppdirect/pricing-backend/internal/database"
	"github.com/nppdirect/pricing-backend/internal/models"
	"github.com/nppdirect/pricing-backend/internal/utils"
)

// ContractService owns the Contract → ContractVersion → ContractPrice
// aggregate. Versions are append-only: every pricing edit materializes a new
// version with the next monotonic number; stored versions are never mutated.
type ContractService struct {
	db       *gorm.DB
	resolver *ScopeResolver
}

func NewContractService(db *gorm.DB) *ContractService {
	return &ContractService{db: db, resolver: NewScopeResolver(db)}
}

type ContractPriceRequest struct {
	ProductID        uuid.UUID         `json:"product_id" validate:"required"`
	PriceType        models.PriceType  `json:"price_type"`
	PriceTerms       models.PriceTerms `json:"price_terms"`
	UOM              string            `json:"uom"`
	EstimatedVolume  *float64          `json:"estimated_volume"`
	ActualVolume     *float64          `json:"actual_volume"`
	BillbacksAllowed bool              `json:"billbacks_allowed"`
}

// ContractVersionRequest drives CreateVersion and UpdateVersion. Nil scope
// slices mean "copy forward from the previous version"; empty slices clear
// the dimension.
type ContractVersionRequest struct {
	utils.DateRange
	EffectiveDate  time.Time              `json:"effective_date"`
	DistributorIDs *[]uuid.UUID           `json:"distributor_ids"`
	OpCoIDs        *[]uuid.UUID           `json:"opco_ids"`
	IndustryIDs    *[]uuid.UUID           `json:"industry_ids"`
	Prices         []ContractPriceRequest `json:"prices"`
}

type CreateContractRequest struct {
	Name                        string                 `json:"name" validate:"required,max=255"`
	ManufacturerID              uuid.UUID              `json:"manufacturer_id" validate:"required"`
	ManufacturerReferenceNumber string                 `json:"manufacturer_reference_number"`
	IsInPerformance             bool                   `json:"is_in_performance"`
	Version                     ContractVersionRequest `json:"version"`
}

func (s *ContractService) GetContract(id uuid.UUID) (*models.Contract, error) {
	var contract models.Contract
	if err := s.db.Preload("Manufacturer").Preload("Versions", func(db *gorm.DB) *gorm.DB {
		return db.Order("version_number ASC")
	}).First(&contract, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("contract %s", id)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &contract, nil
}

func (s *ContractService) ListContracts(params utils.PaginationParams) ([]models.Contract, int64, error) {
	query := s.db.Model(&models.Contract{}).Preload("Manufacturer")

	if params.Search != "" {
		query = query.Where("name ILIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count contracts: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var contracts []models.Contract
	if err := query.Find(&contracts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch contracts: %w", err)
	}

	return contracts, total, nil
}

// CreateContract is the administrative path for legacy data; workflow-driven
// contracts come from the award engine.
func (s *ContractService) CreateContract(principal models.Principal, req *CreateContractRequest) (*models.Contract, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationf("invalid contract: %v", err)
	}
	for _, p := range req.Version.Prices {
		if err := p.PriceTerms.Validate(); err != nil {
			return nil, validationf("product %s: %v", p.ProductID, err)
		}
	}

	contract := &models.Contract{
		Name:                        req.Name,
		ManufacturerID:              req.ManufacturerID,
		ManufacturerReferenceNumber: req.ManufacturerReferenceNumber,
		IsInPerformance:             req.IsInPerformance,
		CreatedBy:                   principal.UserID,
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Create(contract).Error; err != nil {
			return fmt.Errorf("failed to create contract: %w", err)
		}
		_, err := s.createVersionTx(tx, contract, 1, &req.Version, principal.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.GetContract(contract.ID)
}

// CurrentVersion returns the version with the highest number.
func (s *ContractService) CurrentVersion(contractID uuid.UUID) (*models.ContractVersion, error) {
	return currentVersion(s.db, contractID)
}

func currentVersion(db *gorm.DB, contractID uuid.UUID) (*models.ContractVersion, error) {
	var version models.ContractVersion
	if err := db.Where("contract_id = ?", contractID).
		Order("version_number DESC").
		Preload("Prices").
		First(&version).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("contract %s has no versions", contractID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &version, nil
}

func nextVersionNumber(tx *gorm.DB, contractID uuid.UUID) (int, error) {
	var max *int
	if err := tx.Model(&models.ContractVersion{}).
		Where("contract_id = ?", contractID).
		Select("MAX(version_number)").
		Scan(&max).Error; err != nil {
		return 0, fmt.Errorf("failed to compute next version number: %w", err)
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

func (s *ContractService) ListVersions(contractID uuid.UUID) ([]models.ContractVersion, error) {
	if _, err := s.GetContract(contractID); err != nil {
		return nil, err
	}

	var versions []models.ContractVersion
	if err := s.db.Where("contract_id = ?", contractID).
		Order("version_number ASC").
		Preload("Prices").
		Preload("Prices.Product").
		Find(&versions).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch versions: %w", err)
	}
	return versions, nil
}

// CreateVersion appends a new version with the next monotonic number. Scope
// dimensions not present in the request are copied forward from the previous
// version; an explicit empty slice clears the dimension.
func (s *ContractService) CreateVersion(contractID uuid.UUID, principal models.Principal, req *ContractVersionRequest) (*models.ContractVersion, error) {
	contract, err := s.GetContract(contractID)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationf("invalid version: %v", err)
	}
	for _, p := range req.Prices {
		if err := p.PriceTerms.Validate(); err != nil {
			return nil, validationf("product %s: %v", p.ProductID, err)
		}
	}

	var version *models.ContractVersion
	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		number, err := nextVersionNumber(tx, contractID)
		if err != nil {
			return err
		}
		version, err = s.createVersionTx(tx, contract, number, req, principal.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

func (s *ContractService) createVersionTx(tx *gorm.DB, contract *models.Contract, number int, req *ContractVersionRequest, createdBy uuid.UUID) (*models.ContractVersion, error) {
	effective := req.EffectiveDate
	if effective.IsZero() {
		effective = req.StartDate
	}

	version := &models.ContractVersion{
		ContractID:    contract.ID,
		VersionNumber: number,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		EffectiveDate: effective,
		CreatedBy:     createdBy,
	}
	if err := tx.Create(version).Error; err != nil {
		return nil, fmt.Errorf("failed to create contract version: %w", err)
	}

	for _, p := range req.Prices {
		priceType := p.PriceType
		if priceType == "" {
			priceType = models.PriceTypeContractPrice
		}
		price := &models.ContractPrice{
			ContractVersionID: version.ID,
			ProductID:         p.ProductID,
			PriceType:         priceType,
			PriceTerms:        p.PriceTerms,
			UOM:               p.UOM,
			EstimatedVolume:   p.EstimatedVolume,
			ActualVolume:      p.ActualVolume,
			BillbacksAllowed:  p.BillbacksAllowed,
		}
		if err := tx.Create(price).Error; err != nil {
			return nil, fmt.Errorf("failed to create contract price: %w", err)
		}
	}

	if err := writeScopeAssignments(tx, contract, number, req); err != nil {
		return nil, err
	}

	return version, nil
}

// writeScopeAssignments materializes the version's full scope row-set. Nil
// request slices copy the previous version's effective rows forward; non-nil
// slices, including empty ones, replace the dimension outright. Because every
// version carries its complete scope, resolution matches on the exact version
// number and an empty override really clears the dimension.
func writeScopeAssignments(tx *gorm.DB, contract *models.Contract, number int, req *ContractVersionRequest) error {
	distributors, opcos, industries := req.DistributorIDs, req.OpCoIDs, req.IndustryIDs
	if number > 1 && (distributors == nil || opcos == nil || industries == nil) {
		previous, err := NewScopeResolver(tx).ResolveVersionScope(contract.ID, number-1)
		if err != nil {
			return err
		}
		if distributors == nil {
			ids := scopeIDs(previous.DistributorIDs)
			distributors = &ids
		}
		if opcos == nil {
			ids := scopeIDs(previous.OpCoIDs)
			opcos = &ids
		}
		if industries == nil {
			ids := scopeIDs(previous.IndustryIDs)
			industries = &ids
		}
	}

	if distributors != nil {
		for _, id := range *distributors {
			row := &models.ContractDistributorAssignment{ContractID: contract.ID, VersionNumber: number, DistributorID: id}
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("failed to assign distributor: %w", err)
			}
		}
	}
	if opcos != nil {
		for _, id := range *opcos {
			row := &models.ContractOpCoAssignment{ContractID: contract.ID, VersionNumber: number, OpCoID: id}
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("failed to assign opco: %w", err)
			}
		}
	}
	if industries != nil {
		for _, id := range *industries {
			row := &models.ContractIndustryAssignment{ContractID: contract.ID, VersionNumber: number, IndustryID: id}
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("failed to assign industry: %w", err)
			}
		}
	}
	// The manufacturer dimension follows the contract itself.
	row := &models.ContractManufacturerAssignment{ContractID: contract.ID, VersionNumber: number, ManufacturerID: contract.ManufacturerID}
	if err := tx.Create(row).Error; err != nil {
		return fmt.Errorf("failed to assign manufacturer: %w", err)
	}
	return nil
}

// UpdateVersion applies the requested changes as a brand-new version rather
// than mutating the stored one, preserving every version already referenced
// by history. The returned version carries the next monotonic number.
func (s *ContractService) UpdateVersion(contractID, versionID uuid.UUID, principal models.Principal, req *ContractVersionRequest) (*models.ContractVersion, error) {
	contract, err := s.GetContract(contractID)
	if err != nil {
		return nil, err
	}

	var source models.ContractVersion
	if err := s.db.First(&source, "id = ? AND contract_id = ?", versionID, contractID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("version %s of contract %s", versionID, contractID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationf("invalid version: %v", err)
	}
	for _, p := range req.Prices {
		if err := p.PriceTerms.Validate(); err != nil {
			return nil, validationf("product %s: %v", p.ProductID, err)
		}
	}

	var version *models.ContractVersion
	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		number, err := nextVersionNumber(tx, contractID)
		if err != nil {
			return err
		}
		version, err = s.createVersionTx(tx, contract, number, req, principal.UserID)
		if err != nil {
			return err
		}
		return tx.Model(&models.Contract{}).Where("id = ?", contractID).
			Update("modified_by", principal.UserID).Error
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

// CloneVersionByNumber duplicates the prices and scope of the named version
// into a fresh version with the next monotonic number.
func (s *ContractService) CloneVersionByNumber(contractID uuid.UUID, versionNo int, principal models.Principal) (*models.ContractVersion, error) {
	contract, err := s.GetContract(contractID)
	if err != nil {
		return nil, err
	}

	var source models.ContractVersion
	if err := s.db.Preload("Prices").
		First(&source, "contract_id = ? AND version_number = ?", contractID, versionNo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationf("contract %s has no version %d", contractID, versionNo)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	scope, err := s.resolver.ResolveVersionScope(contractID, versionNo)
	if err != nil {
		return nil, err
	}

	req := &ContractVersionRequest{
		DateRange:     utils.DateRange{StartDate: source.StartDate, EndDate: source.EndDate},
		EffectiveDate: source.EffectiveDate,
	}
	distributors := scopeIDs(scope.DistributorIDs)
	opcos := scopeIDs(scope.OpCoIDs)
	industries := scopeIDs(scope.IndustryIDs)
	req.DistributorIDs = &distributors
	req.OpCoIDs = &opcos
	req.IndustryIDs = &industries
	for _, p := range source.Prices {
		req.Prices = append(req.Prices, ContractPriceRequest{
			ProductID:        p.ProductID,
			PriceType:        p.PriceType,
			PriceTerms:       p.PriceTerms,
			UOM:              p.UOM,
			EstimatedVolume:  p.EstimatedVolume,
			ActualVolume:     p.ActualVolume,
			BillbacksAllowed: p.BillbacksAllowed,
		})
	}

	var version *models.ContractVersion
	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		number, err := nextVersionNumber(tx, contractID)
		if err != nil {
			return err
		}
		version, err = s.createVersionTx(tx, contract, number, req, principal.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

func scopeIDs(set map[uuid.UUID]struct{}) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// VersionComparison is the structural diff between two versions of the same
// contract, keyed by product id. Used for audit display, not enforcement.
type VersionComparison struct {
	ContractID uuid.UUID              `json:"contract_id"`
	VersionA   int                    `json:"version_a"`
	VersionB   int                    `json:"version_b"`
	Added      []models.ContractPrice `json:"added"`
	Removed    []models.ContractPrice `json:"removed"`
	Changed    []PriceChange          `json:"changed"`
}

type PriceChange struct {
	ProductID uuid.UUID            `json:"product_id"`
	Before    models.ContractPrice `json:"before"`
	After     models.ContractPrice `json:"after"`
}

func (s *ContractService) CompareVersions(contractID uuid.UUID, versionA, versionB int) (*VersionComparison, error) {
	if _, err := s.GetContract(contractID); err != nil {
		return nil, err
	}

	pricesA, err := s.versionPrices(contractID, versionA)
	if err != nil {
		return nil, err
	}
	pricesB, err := s.versionPrices(contractID, versionB)
	if err != nil {
		return nil, err
	}

	return compareVersionPrices(contractID, versionA, versionB, pricesA, pricesB), nil
}

func (s *ContractService) versionPrices(contractID uuid.UUID, versionNo int) ([]models.ContractPrice, error) {
	var version models.ContractVersion
	if err := s.db.Preload("Prices").Preload("Prices.Product").
		First(&version, "contract_id = ? AND version_number = ?", contractID, versionNo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationf("contract %s has no version %d", contractID, versionNo)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return version.Prices, nil
}

// compareVersionPrices is pure so the diff rules are testable in isolation.
func compareVersionPrices(contractID uuid.UUID, versionA, versionB int, pricesA, pricesB []models.ContractPrice) *VersionComparison {
	cmp := &VersionComparison{
		ContractID: contractID,
		VersionA:   versionA,
		VersionB:   versionB,
		Added:      []models.ContractPrice{},
		Removed:    []models.ContractPrice{},
		Changed:    []PriceChange{},
	}

	byProductA := make(map[uuid.UUID]models.ContractPrice, len(pricesA))
	for _, p := range pricesA {
		byProductA[p.ProductID] = p
	}
	byProductB := make(map[uuid.UUID]models.ContractPrice, len(pricesB))
	for _, p := range pricesB {
		byProductB[p.ProductID] = p
	}

	for _, b := range pricesB {
		a, ok := byProductA[b.ProductID]
		if !ok {
			cmp.Added = append(cmp.Added, b)
			continue
		}
		if !samePriceRow(a, b) {
			cmp.Changed = append(cmp.Changed, PriceChange{ProductID: b.ProductID, Before: a, After: b})
		}
	}
	for _, a := range pricesA {
		if _, ok := byProductB[a.ProductID]; !ok {
			cmp.Removed = append(cmp.Removed, a)
		}
	}

	return cmp
}

func samePriceRow(a, b models.ContractPrice) bool {
	return a.PriceType == b.PriceType &&
		a.UOM == b.UOM &&
		a.BillbacksAllowed == b.BillbacksAllowed &&
		sameAmount(a.EstimatedVolume, b.EstimatedVolume) &&
		sameAmount(a.ActualVolume, b.ActualVolume) &&
		samePriceTerms(a.PriceTerms, b.PriceTerms)
}

func samePriceTerms(a, b models.PriceTerms) bool {
	return sameAmount(a.Allowance, b.Allowance) &&
		sameAmount(a.CommercialDelivered, b.CommercialDelivered) &&
		sameAmount(a.CommercialFOB, b.CommercialFOB) &&
		sameAmount(a.CommodityDelivered, b.CommodityDelivered) &&
		sameAmount(a.CommodityFOB, b.CommodityFOB) &&
		sameAmount(a.PUA, b.PUA) &&
		sameAmount(a.FFS, b.FFS) &&
		sameAmount(a.NOI, b.NOI) &&
		sameAmount(a.PTV, b.PTV)
}

func sameAmount(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Suspend flips the suspension flag; the contract's prices drop out of
// conflict detection but stay in history. Never deletes rows.
func (s *ContractService) Suspend(contractID uuid.UUID, principal models.Principal, suspended bool) (*models.Contract, error) {
	contract, err := s.GetContract(contractID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.Contract{}).Where("id = ?", contractID).
		Updates(map[string]interface{}{
			"is_suspended": suspended,
			"modified_by":  principal.UserID,
		}).Error; err != nil {
		return nil, fmt.Errorf("failed to update contract suspension: %w", err)
	}

	contract.IsSuspended = suspended
	contract.ModifiedBy = &principal.UserID
	return contract, nil
}
