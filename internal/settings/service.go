package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/dispensary-pos/pkg/config"
	"github.com/angelmondragon/dispensary-pos/pkg/db"
	"github.com/angelmondragon/dispensary-pos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
	"github.com/angelmondragon/dispensary-pos/pkg/money"
)

// Service reads and writes company settings, falling back to configured
// defaults until an admin saves them.
type Service interface {
	Get(ctx context.Context) (*models.CompanySettings, error)
	Update(ctx context.Context, input UpdateInput) (*models.CompanySettings, error)
}

// UpdateInput carries optional changes; nil fields keep the current value.
type UpdateInput struct {
	CompanyName   *string
	Address       *string
	Phone         *string
	Email         *string
	TaxRate       *decimal.Decimal
	VATRate       *decimal.Decimal
	Currency      *string
	InvoicePrefix *string
}

type service struct {
	repo     *Repository
	defaults config.SalesConfig
}

func NewService(repo *Repository, defaults config.SalesConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{repo: repo, defaults: defaults}, nil
}

func (s *service) Get(ctx context.Context) (*models.CompanySettings, error) {
	row, err := s.repo.Find(ctx)
	if err != nil {
		if db.IsNotFound(err) {
			return s.fallback(), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company settings")
	}
	return row, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.CompanySettings, error) {
	if input.TaxRate != nil && !money.IsRate(*input.TaxRate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tax rate must be between 0 and 1")
	}
	if input.VATRate != nil && !money.IsRate(*input.VATRate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vat rate must be between 0 and 1")
	}
	if input.InvoicePrefix != nil && strings.TrimSpace(*input.InvoicePrefix) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice prefix cannot be empty")
	}

	current, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	apply(current, input)

	if err := s.repo.Upsert(ctx, current); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save company settings")
	}
	return current, nil
}

func (s *service) fallback() *models.CompanySettings {
	prefix := strings.TrimSpace(s.defaults.InvoicePrefix)
	if prefix == "" {
		prefix = "INV"
	}
	return &models.CompanySettings{
		ID:            models.CompanySettingsID,
		TaxRate:       s.defaults.TaxRate(),
		VATRate:       s.defaults.VATRate(),
		Currency:      s.defaults.Currency,
		InvoicePrefix: prefix,
	}
}

func apply(row *models.CompanySettings, input UpdateInput) {
	if input.CompanyName != nil {
		row.CompanyName = strings.TrimSpace(*input.CompanyName)
	}
	if input.Address != nil {
		row.Address = strings.TrimSpace(*input.Address)
	}
	if input.Phone != nil {
		row.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Email != nil {
		row.Email = strings.TrimSpace(*input.Email)
	}
	if input.TaxRate != nil {
		row.TaxRate = *input.TaxRate
	}
	if input.VATRate != nil {
		row.VATRate = *input.VATRate
	}
	if input.Currency != nil {
		row.Currency = strings.ToUpper(strings.TrimSpace(*input.Currency))
	}
	if input.InvoicePrefix != nil {
		row.InvoicePrefix = strings.TrimSpace(*input.InvoicePrefix)
	}
}
