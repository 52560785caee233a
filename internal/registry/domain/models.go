package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Device is a monitored appliance or meter attached to a room.
type Device struct {
	ID        snowflake.ID   `json:"id" gorm:"primaryKey"`
	RoomID    string         `json:"room_id" gorm:"column:room_id;type:text;not null;index:ux_devices_room_code,priority:1"`
	FloorID   string         `json:"floor_id" gorm:"column:floor_id;type:text;not null"`
	Code      string         `json:"code" gorm:"type:text;not null;index:ux_devices_room_code,priority:2"`
	Name      string         `json:"name" gorm:"type:text;not null"`
	Kind      string         `json:"kind" gorm:"type:text;not null"`
	Active    bool           `json:"active" gorm:"not null;default:true"`
	Metadata  datatypes.JSON `json:"metadata,omitempty" gorm:"type:json"`
	CreatedAt time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Device) TableName() string { return "devices" }
