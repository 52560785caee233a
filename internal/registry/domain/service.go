package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, roomID string) ([]Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context) (*ExportDocument, error)
}

type CreateRequest struct {
	RoomID   string         `json:"room_id"`
	Name     string         `json:"name"`
	Kind     string         `json:"kind"`
	Active   *bool          `json:"active"`
	Metadata datatypes.JSON `json:"metadata,omitempty"`
}

type UpdateRequest struct {
	ID       string          `json:"id"`
	Name     *string         `json:"name,omitempty"`
	Kind     *string         `json:"kind,omitempty"`
	Active   *bool           `json:"active,omitempty"`
	Metadata *datatypes.JSON `json:"metadata,omitempty"`
}

type Response struct {
	ID        string         `json:"id"`
	RoomID    string         `json:"room_id"`
	FloorID   string         `json:"floor_id"`
	Code      string         `json:"code"`
	Name      string         `json:"name"`
	Kind      string         `json:"kind"`
	Active    bool           `json:"active"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ExportDocument is the downloadable snapshot of the registry.
type ExportDocument struct {
	ExportedAt time.Time  `json:"exported_at"`
	Count      int        `json:"count"`
	Devices    []Response `json:"devices"`
}

var (
	ErrInvalidRoom    = errors.New("invalid_room")
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidKind    = errors.New("invalid_kind")
	ErrInvalidID      = errors.New("invalid_id")
	ErrDeviceNotFound = errors.New("device_not_found")
	ErrDuplicateCode  = errors.New("duplicate_code")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
