package policy

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/diewo77/golf-referee/internal/models"
)

// ErrUnknownUser is returned when a session refers to a missing user.
var ErrUnknownUser = errors.New("unknown user")

// Directory loads users for authorization decisions.
type Directory interface {
	User(ctx context.Context, id uint) (*models.User, error)
}

// DBDirectory reads users from the database.
type DBDirectory struct {
	DB *gorm.DB
}

func NewDBDirectory(db *gorm.DB) *DBDirectory {
	return &DBDirectory{DB: db}
}

// User loads a user with its zone.
func (d *DBDirectory) User(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := d.DB.WithContext(ctx).Preload("Zone").First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUser, id)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Role implements gate.RoleLookup over the directory.
func Role(dir Directory) func(ctx context.Context, id uint) (string, error) {
	return func(ctx context.Context, id uint) (string, error) {
		u, err := dir.User(ctx, id)
		if err != nil {
			return "", err
		}
		return u.Role, nil
	}
}
