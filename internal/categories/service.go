package categories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/dispensary-pos/pkg/db"
	"github.com/angelmondragon/dispensary-pos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
)

type Service interface {
	List(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, name string) (*models.Category, error)
	Rename(ctx context.Context, id uuid.UUID, name string) (*models.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("categories repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context) ([]models.Category, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return rows, nil
}

func (s *service) Create(ctx context.Context, name string) (*models.Category, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	row := &models.Category{Name: name}
	if err := s.repo.Create(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	return row, nil
}

// Rename changes the category name and retags its inventory items in the
// same transaction.
func (s *service) Rename(ctx context.Context, id uuid.UUID, name string) (*models.Category, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}

	var renamed *models.Category
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, id)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
		}
		if current.Name == name {
			renamed = current
			return nil
		}
		if err := repo.Rename(ctx, id, name); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "category already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rename category")
		}
		if err := repo.RetagItems(ctx, current.Name, name); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retag inventory items")
		}
		current.Name = name
		renamed = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return renamed, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, id)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
		}
		inUse, err := repo.CountItems(ctx, current.Name)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count category items")
		}
		if inUse > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "category is used by inventory items").
				WithDetails(map[string]any{"items": inUse})
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
		}
		return nil
	})
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "category name required")
	}
	if len(name) > 64 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "category name too long")
	}
	return name, nil
}
