// internal/services/testing_test.go
package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nppdirect/pricing-backend/internal/models"
)

// setupTestDB opens an isolated in-memory database and migrates the pricing
// schema. ContractDocument is left out: its text[] column is Postgres-only
// and document handling is covered by storage-level tests.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.UserManufacturer{},
		&models.Manufacturer{},
		&models.Distributor{},
		&models.OpCo{},
		&models.Industry{},
		&models.Product{},
		&models.Contract{},
		&models.ContractVersion{},
		&models.ContractPrice{},
		&models.ContractDistributorAssignment{},
		&models.ContractOpCoAssignment{},
		&models.ContractIndustryAssignment{},
		&models.ContractManufacturerAssignment{},
		&models.Proposal{},
		&models.ProposalProduct{},
		&models.ProposalDistributor{},
		&models.ProposalOpCo{},
		&models.ProposalIndustry{},
		&models.ProposalStatusHistory{},
		&models.ProposalProductHistory{},
		&models.AuditLog{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}

	return db
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func ptr(v float64) *float64 {
	return &v
}

func adminPrincipal() models.Principal {
	return models.Principal{
		UserID:     uuid.New(),
		Username:   "reviewer",
		Capability: models.CapabilityAdmin,
	}
}

func manufacturerPrincipal(manufacturerIDs ...uuid.UUID) models.Principal {
	return models.Principal{
		UserID:          uuid.New(),
		Username:        "supplier",
		Capability:      models.CapabilityManufacturer,
		ManufacturerIDs: manufacturerIDs,
	}
}

func createManufacturer(t *testing.T, db *gorm.DB, name string) *models.Manufacturer {
	t.Helper()
	m := &models.Manufacturer{Name: name}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("failed to create manufacturer: %v", err)
	}
	return m
}

func createProduct(t *testing.T, db *gorm.DB, name string) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, SKU: name + "-SKU"}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	return p
}

func createDistributor(t *testing.T, db *gorm.DB, name string) *models.Distributor {
	t.Helper()
	d := &models.Distributor{Name: name}
	if err := db.Create(d).Error; err != nil {
		t.Fatalf("failed to create distributor: %v", err)
	}
	return d
}

// createContractWithVersion seeds a contract with one version, one price per
// product and a distributor scope row.
func createContractWithVersion(t *testing.T, db *gorm.DB, manufacturerID uuid.UUID, name string, start, end time.Time, distributorIDs []uuid.UUID, productIDs ...uuid.UUID) *models.Contract {
	t.Helper()

	contract := &models.Contract{
		Name:           name,
		ManufacturerID: manufacturerID,
		CreatedBy:      uuid.New(),
	}
	if err := db.Create(contract).Error; err != nil {
		t.Fatalf("failed to create contract: %v", err)
	}

	version := &models.ContractVersion{
		ContractID:    contract.ID,
		VersionNumber: 1,
		StartDate:     start,
		EndDate:       end,
		EffectiveDate: start,
	}
	if err := db.Create(version).Error; err != nil {
		t.Fatalf("failed to create version: %v", err)
	}

	for _, productID := range productIDs {
		price := &models.ContractPrice{
			ContractVersionID: version.ID,
			ProductID:         productID,
			PriceType:         models.PriceTypeContractPrice,
			PriceTerms:        models.PriceTerms{CommercialDelivered: ptr(10)},
			UOM:               "case",
		}
		if err := db.Create(price).Error; err != nil {
			t.Fatalf("failed to create price: %v", err)
		}
	}

	for _, distributorID := range distributorIDs {
		row := &models.ContractDistributorAssignment{
			ContractID:    contract.ID,
			VersionNumber: 1,
			DistributorID: distributorID,
		}
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("failed to create scope assignment: %v", err)
		}
	}

	return contract
}
