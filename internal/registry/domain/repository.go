package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, device *Device) error
	Update(ctx context.Context, db *gorm.DB, device *Device) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Device, error)
	FindByCode(ctx context.Context, db *gorm.DB, roomID, code string) (*Device, error)
	List(ctx context.Context, db *gorm.DB, roomID string) ([]Device, error)
}
