package database

import (
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sharednotes/internal/auth"
	"sharednotes/internal/notes"
)

type Manager struct {
	DB *gorm.DB
}

func NewDatabaseManager() *Manager {
	return &Manager{}
}

func migrations() []any {
	models := []any{&auth.User{}}
	return append(models, notes.Models()...)
}

func (dbm *Manager) Connect() error {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return fmt.Errorf("DATABASE_URL environment variable not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return err
	}

	if err := db.AutoMigrate(migrations()...); err != nil {
		return err
	}
	dbm.DB = db
	return nil
}

// OpenSQLite opens a sqlite database at the given path with the full schema.
// Test suites use this so the domain runs hermetically.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(migrations()...); err != nil {
		return nil, err
	}
	return db, nil
}

func (dbm *Manager) Close() error {
	db, err := dbm.DB.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
