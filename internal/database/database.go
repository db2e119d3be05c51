package database

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sirupsen/logrus"

	"hat-store/internal/models"
)

func Initialize(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto migrate the schema
	if err := db.AutoMigrate(&models.Transaction{}); err != nil {
		return nil, err
	}

	logrus.Info("Database initialized successfully")
	return db, nil
}
