package members

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/dispensary-pos/pkg/db"
	"github.com/angelmondragon/dispensary-pos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
	"github.com/angelmondragon/dispensary-pos/pkg/money"
	"github.com/angelmondragon/dispensary-pos/pkg/pagination"
)

// Service manages loyalty members and their tiers.
type Service interface {
	ListTiers(ctx context.Context) ([]models.MembershipTier, error)
	UpsertTier(ctx context.Context, name string, rate decimal.Decimal) (*models.MembershipTier, error)
	DeleteTier(ctx context.Context, name string) error

	Create(ctx context.Context, input CreateInput) (*models.Member, error)
	Update(ctx context.Context, uid uuid.UUID, input UpdateInput) (*models.Member, error)
	Delete(ctx context.Context, uid uuid.UUID) error
	Get(ctx context.Context, uid uuid.UUID) (*models.Member, error)
	GetByCardNumber(ctx context.Context, card string) (*models.Member, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (pagination.Page[models.Member], error)

	// RecordPurchase adds a completed sale to the member's running total.
	RecordPurchase(ctx context.Context, tx *gorm.DB, uid uuid.UUID, amount decimal.Decimal) error
	// DiscountRate returns the member's tier rate.
	DiscountRate(ctx context.Context, tx *gorm.DB, uid uuid.UUID) (decimal.Decimal, error)
}

type CreateInput struct {
	CardNumber string
	Name       string
	Phone      *string
	Email      *string
	Tier       string
}

type UpdateInput struct {
	CardNumber *string
	Name       *string
	Phone      *string
	Email      *string
	Tier       *string
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("members repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListTiers(ctx context.Context) ([]models.MembershipTier, error) {
	rows, err := s.repo.ListTiers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tiers")
	}
	return rows, nil
}

func (s *service) UpsertTier(ctx context.Context, name string, rate decimal.Decimal) (*models.MembershipTier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tier name required")
	}
	if !money.IsRate(rate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tier rate must be between 0 and 1")
	}
	tier := &models.MembershipTier{Name: name, Rate: rate}
	if err := s.repo.UpsertTier(ctx, tier); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert tier")
	}
	return tier, nil
}

func (s *service) DeleteTier(ctx context.Context, name string) error {
	if _, err := s.loadTier(ctx, s.repo, name); err != nil {
		return err
	}
	inUse, err := s.repo.CountMembersInTier(ctx, name)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count tier members")
	}
	if inUse > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "tier is assigned to members").
			WithDetails(map[string]any{"members": inUse})
	}
	if err := s.repo.DeleteTier(ctx, name); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete tier")
	}
	return nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Member, error) {
	member := &models.Member{
		CardNumber:     strings.TrimSpace(input.CardNumber),
		Name:           strings.TrimSpace(input.Name),
		Phone:          trimOptional(input.Phone),
		Email:          trimOptional(input.Email),
		Tier:           strings.TrimSpace(input.Tier),
		TotalPurchases: decimal.Zero,
	}
	if err := validateMember(member); err != nil {
		return nil, err
	}
	if _, err := s.loadTier(ctx, s.repo, member.Tier); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, member); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "card number already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create member")
	}
	return member, nil
}

// Update applies profile changes. TotalPurchases is never writable here.
func (s *service) Update(ctx context.Context, uid uuid.UUID, input UpdateInput) (*models.Member, error) {
	member, err := s.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if input.CardNumber != nil {
		member.CardNumber = strings.TrimSpace(*input.CardNumber)
	}
	if input.Name != nil {
		member.Name = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		member.Phone = trimOptional(input.Phone)
	}
	if input.Email != nil {
		member.Email = trimOptional(input.Email)
	}
	if input.Tier != nil {
		member.Tier = strings.TrimSpace(*input.Tier)
		if _, err := s.loadTier(ctx, s.repo, member.Tier); err != nil {
			return nil, err
		}
	}
	if err := validateMember(member); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProfile(ctx, member); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "card number already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update member")
	}
	return member, nil
}

func (s *service) Delete(ctx context.Context, uid uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, uid)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.New(pkgerrors.CodeConflict, "member has orders")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete member")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
	}
	return nil
}

func (s *service) Get(ctx context.Context, uid uuid.UUID) (*models.Member, error) {
	return s.loadMember(ctx, s.repo, uid)
}

func (s *service) GetByCardNumber(ctx context.Context, card string) (*models.Member, error) {
	card = strings.TrimSpace(card)
	if card == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card number required")
	}
	member, err := s.repo.FindByCardNumber(ctx, card)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member")
	}
	return member, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (pagination.Page[models.Member], error) {
	page, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return page, pkgerrors.Ensure(pkgerrors.CodeDependency, err, "list members")
	}
	return page, nil
}

func (s *service) RecordPurchase(ctx context.Context, tx *gorm.DB, uid uuid.UUID, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "purchase amount cannot be negative")
	}
	affected, err := s.repo.WithTx(tx).AddPurchase(ctx, uid, amount)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record member purchase")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
	}
	return nil
}

func (s *service) DiscountRate(ctx context.Context, tx *gorm.DB, uid uuid.UUID) (decimal.Decimal, error) {
	repo := s.repo.WithTx(tx)
	member, err := s.loadMember(ctx, repo, uid)
	if err != nil {
		return decimal.Zero, err
	}
	tier, err := s.loadTier(ctx, repo, member.Tier)
	if err != nil {
		return decimal.Zero, err
	}
	return tier.Rate, nil
}

func (s *service) loadMember(ctx context.Context, repo *Repository, uid uuid.UUID) (*models.Member, error) {
	if uid == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "member uid required")
	}
	member, err := repo.FindByUID(ctx, uid)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member")
	}
	return member, nil
}

func (s *service) loadTier(ctx context.Context, repo *Repository, name string) (*models.MembershipTier, error) {
	tier, err := repo.FindTier(ctx, name)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "membership tier not found").
				WithDetails(map[string]any{"tier": name})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tier")
	}
	return tier, nil
}

func validateMember(m *models.Member) error {
	details := map[string]string{}
	if m.CardNumber == "" {
		details["cardNumber"] = "is required"
	}
	if m.Name == "" {
		details["name"] = "is required"
	}
	if m.Tier == "" {
		details["tier"] = "is required"
	}
	if m.Email != nil {
		if _, err := mail.ParseAddress(*m.Email); err != nil {
			details["email"] = "must be a valid email"
		}
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid member").WithDetails(details)
	}
	return nil
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
