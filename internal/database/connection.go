// internal/database/connection.go
package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nppdirect/pricing-backend/internal/config"
	"github.com/nppdirect/pricing-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	// Enable UUID extension
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	// Run auto-migrations
	err := db.AutoMigrate(
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
		&models.ContractDocument{},
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
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Info("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_type_status ON users(user_type, status)",
		"CREATE INDEX IF NOT EXISTS idx_user_manufacturers_pair ON user_manufacturers(user_id, manufacturer_id)",

		// Contract indexes
		"CREATE INDEX IF NOT EXISTS idx_contracts_manufacturer_suspended ON contracts(manufacturer_id, is_suspended)",
		"CREATE INDEX IF NOT EXISTS idx_contract_versions_dates ON contract_versions(start_date, end_date)",
		"CREATE INDEX IF NOT EXISTS idx_contract_prices_product ON contract_prices(product_id, contract_version_id)",

		// Scope assignment lookups are always (contract, version desc)
		"CREATE INDEX IF NOT EXISTS idx_cda_contract_version ON contract_distributor_assignments(contract_id, version_number DESC)",
		"CREATE INDEX IF NOT EXISTS idx_coa_contract_version ON contract_op_co_assignments(contract_id, version_number DESC)",
		"CREATE INDEX IF NOT EXISTS idx_cia_contract_version ON contract_industry_assignments(contract_id, version_number DESC)",
		"CREATE INDEX IF NOT EXISTS idx_cma_contract_version ON contract_manufacturer_assignments(contract_id, version_number DESC)",

		// Proposal indexes
		"CREATE INDEX IF NOT EXISTS idx_proposals_status_type ON proposals(proposal_status, proposal_type)",
		"CREATE INDEX IF NOT EXISTS idx_proposal_products_status ON proposal_products(proposal_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_proposal_status_histories_proposal ON proposal_status_histories(proposal_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_proposal_product_histories_proposal ON proposal_product_histories(proposal_id, created_at)",

		// Audit indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			logrus.WithError(err).Warnf("Failed to create index: %s", index)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Seed initial data
func SeedInitialData(db *gorm.DB) error {
	logrus.Info("Seeding initial data...")

	// Create default admin user
	var adminCount int64
	db.Model(&models.User{}).Where("user_type = ?", models.UserTypeAdmin).Count(&adminCount)

	if adminCount == 0 {
		admin := &models.User{
			Username: "admin",
			Email:    "admin@nppdirect.com",
			UserType: models.UserTypeAdmin,
			Status:   models.UserStatusActive,
		}

		if err := admin.SetPassword("admin123!@#"); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}

		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		logrus.Info("Default admin user created successfully")
	}

	logrus.Info("Initial data seeding completed")
	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
