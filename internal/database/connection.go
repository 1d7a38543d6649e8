package database

import (
	"errors"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/l3nnardwlg/echoboard/internal/models"
)

// Database — шлюз к хранилищу: доски, карточки, чаты, личка,
// группы, приглашения. Все запросы идут через его методы.
type Database struct {
	db *gorm.DB
}

// NewDatabase оборачивает готовое соединение; в тестах сюда
// передается in-memory sqlite.
func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) Connect() error {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return errors.New("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return err
	}

	if err := Migrate(db); err != nil {
		return err
	}

	d.db = db

	return nil
}

// Migrate накатывает схему и сидит стартовую группу-лобби.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Contact{},
		&models.Notification{},
		&models.Board{},
		&models.BoardMember{},
		&models.BoardActivity{},
		&models.PresenceEntry{},
		&models.BoardInvite{},
		&models.Card{},
		&models.Message{},
		&models.MessageReaction{},
		&models.DirectMessage{},
		&models.DMReaction{},
		&models.MessageRead{},
		&models.GroupRoom{},
		&models.GroupMessage{},
	)
	if err != nil {
		return err
	}

	var count int64
	if err := db.Model(&models.GroupRoom{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		lobby := models.GroupRoom{Slug: "lobby", Title: "Community Lounge"}
		if err := db.Create(&lobby).Error; err != nil {
			return err
		}
	}

	return nil
}
