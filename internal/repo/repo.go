package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_api/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) Migrate(ctx context.Context) error {
	if err := r.DB.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

var seedRoles = map[string][]models.PermissionType{
	models.RoleAdmin: models.AllPermissions,
	models.RoleUser:  {models.PermRead},
}

// Seed makes sure every permission and the built-in roles exist. It is safe to run on
// every start.
func (r *GormRepo) Seed(ctx context.Context) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		perms := make(map[models.PermissionType]models.Permission, len(models.AllPermissions))
		for _, t := range models.AllPermissions {
			p := models.Permission{Type: t}
			if err := tx.Where(models.Permission{Type: t}).FirstOrCreate(&p).Error; err != nil {
				return fmt.Errorf("seed permission %s: %w", t, err)
			}
			perms[t] = p
		}

		for name, types := range seedRoles {
			role := models.Role{Name: name}
			if err := tx.Where(models.Role{Name: name}).FirstOrCreate(&role).Error; err != nil {
				return fmt.Errorf("seed role %s: %w", name, err)
			}
			want := make([]models.Permission, 0, len(types))
			for _, t := range types {
				want = append(want, perms[t])
			}
			if err := tx.Model(&role).Association("Permissions").Replace(want); err != nil {
				return fmt.Errorf("seed role %s permissions: %w", name, err)
			}
		}
		return nil
	})
}

func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
