package persistence

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"social-hub/domain/model"
	"social-hub/infrastructure/configuration"
)

// NewRepositories opens a GORM connection for MySQL deployments and migrates
// the schema from the domain models.
func NewRepositories() (*gorm.DB, error) {
	cfg := configuration.C.Database.Mysql
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.User{}, &model.Credential{}, &model.PublishedPost{}); err != nil {
		return nil, err
	}
	return db, nil
}
