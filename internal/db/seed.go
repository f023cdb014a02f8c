package db

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/diewo77/golf-referee/internal/models"
)

// Zones are the regional committees (SZR) seeded on first start.
var Zones = []models.Zone{
	{Name: "SZR 1 - Piemonte, Valle d'Aosta, Liguria", Code: "SZR1"},
	{Name: "SZR 2 - Lombardia", Code: "SZR2"},
	{Name: "SZR 3 - Veneto, Trentino, Friuli", Code: "SZR3"},
	{Name: "SZR 4 - Emilia Romagna", Code: "SZR4"},
	{Name: "SZR 5 - Toscana, Umbria", Code: "SZR5"},
	{Name: "SZR 6 - Lazio, Abruzzo, Molise, Sardegna", Code: "SZR6"},
	{Name: "SZR 7 - Sud Italia, Sicilia", Code: "SZR7"},
}

// SeedOptions controls the bootstrap super admin. No admin is created when
// the password is empty.
type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
}

// Seed inserts zones and the bootstrap super admin. It is idempotent.
func Seed(db *gorm.DB, opts SeedOptions, log logrus.FieldLogger) error {
	for _, z := range Zones {
		var existing models.Zone
		err := db.Where("code = ?", z.Code).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := db.Create(&z).Error; err != nil {
				return fmt.Errorf("seed zone %s: %w", z.Code, err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("lookup zone %s: %w", z.Code, err)
		}
	}

	if opts.AdminEmail == "" || opts.AdminPassword == "" {
		log.Debug("no admin credentials configured, skipping admin seed")
		return nil
	}
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", opts.AdminEmail).Count(&count).Error; err != nil {
		return fmt.Errorf("lookup admin: %w", err)
	}
	if count > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := models.User{
		Email:    opts.AdminEmail,
		Name:     "Amministratore",
		Password: string(hash),
		Role:     models.RoleSuperAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.WithField("email", admin.Email).Info("seeded super admin")
	return nil
}
