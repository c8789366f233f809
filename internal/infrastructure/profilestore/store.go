package profilestore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"rwa_dashboard/internal/app/port"
)

// Profile is the persisted user profile row. Only the wallet binding lives
// here; everything else about a user is derived from the chain.
type Profile struct {
	ID            uint   `gorm:"primaryKey"`
	UserID        string `gorm:"uniqueIndex;size:64"`
	WalletAddress string `gorm:"size:42"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Connect opens the Postgres connection and migrates the profile schema.
func Connect(dsn string) (*gorm.DB, error) {
	config := &gorm.Config{
		Logger:      gormlogger.Default.LogMode(gormlogger.Silent),
		PrepareStmt: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(postgres.Open(dsn), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Profile{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// Store implements port.ProfileStore over GORM.
type Store struct {
	db     *gorm.DB
	logger port.Logger
}

// NewStore creates a profile store over an opened connection.
func NewStore(db *gorm.DB, log port.Logger) *Store {
	return &Store{db: db, logger: log}
}

// SaveWalletAddress upserts the wallet binding for the user.
func (s *Store) SaveWalletAddress(ctx context.Context, userID, address string) error {
	profile := Profile{UserID: userID, WalletAddress: address}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"wallet_address", "updated_at"}),
		}).
		Create(&profile).Error
	if err != nil {
		return fmt.Errorf("failed to save wallet address for user %s: %w", userID, err)
	}
	s.logger.Debug("Saved wallet address", "userId", userID, "address", address)
	return nil
}
