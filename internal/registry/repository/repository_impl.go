package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	registrydomain "github.com/fub-iot/bems/internal/registry/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() registrydomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, d *registrydomain.Device) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO devices (id, room_id, floor_id, code, name, kind, active, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID,
		d.RoomID,
		d.FloorID,
		d.Code,
		d.Name,
		d.Kind,
		d.Active,
		d.Metadata,
		d.CreatedAt,
		d.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, d *registrydomain.Device) error {
	return db.WithContext(ctx).Exec(
		`UPDATE devices
		 SET name = ?, kind = ?, active = ?, metadata = ?, updated_at = ?
		 WHERE id = ?`,
		d.Name,
		d.Kind,
		d.Active,
		d.Metadata,
		d.UpdatedAt,
		d.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM devices WHERE id = ?`,
		id,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*registrydomain.Device, error) {
	var device registrydomain.Device
	err := db.WithContext(ctx).Raw(
		`SELECT id, room_id, floor_id, code, name, kind, active, metadata, created_at, updated_at
		 FROM devices WHERE id = ?`,
		id,
	).Scan(&device).Error
	if err != nil {
		return nil, err
	}
	if device.ID == 0 {
		return nil, nil
	}
	return &device, nil
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, roomID, code string) (*registrydomain.Device, error) {
	var device registrydomain.Device
	err := db.WithContext(ctx).Raw(
		`SELECT id, room_id, floor_id, code, name, kind, active, metadata, created_at, updated_at
		 FROM devices WHERE room_id = ? AND code = ?`,
		roomID,
		code,
	).Scan(&device).Error
	if err != nil {
		return nil, err
	}
	if device.ID == 0 {
		return nil, nil
	}
	return &device, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, roomID string) ([]registrydomain.Device, error) {
	query := `SELECT id, room_id, floor_id, code, name, kind, active, metadata, created_at, updated_at
		 FROM devices`
	args := []interface{}{}
	if roomID != "" {
		query += ` WHERE room_id = ?`
		args = append(args, roomID)
	}
	query += ` ORDER BY room_id ASC, code ASC`

	var devices []registrydomain.Device
	err := db.WithContext(ctx).Raw(query, args...).Scan(&devices).Error
	if err != nil {
		return nil, err
	}
	return devices, nil
}
