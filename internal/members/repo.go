package members

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/dispensary-pos/pkg/db/models"
	"github.com/angelmondragon/dispensary-pos/pkg/pagination"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) ListTiers(ctx context.Context) ([]models.MembershipTier, error) {
	var rows []models.MembershipTier
	if err := r.db.WithContext(ctx).Order("rate ASC").Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) FindTier(ctx context.Context, name string) (*models.MembershipTier, error) {
	var row models.MembershipTier
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) UpsertTier(ctx context.Context, tier *models.MembershipTier) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate", "updated_at"}),
	}).Create(tier).Error
}

func (r *Repository) DeleteTier(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).Where("name = ?", name).Delete(&models.MembershipTier{}).Error
}

func (r *Repository) CountMembersInTier(ctx context.Context, name string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Member{}).Where("tier = ?", name).Count(&count).Error
	return count, err
}

func (r *Repository) Create(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// UpdateProfile writes the editable columns; total_purchases is left alone.
func (r *Repository) UpdateProfile(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Model(&models.Member{}).Where("uid = ?", member.UID).Updates(map[string]any{
		"card_number": member.CardNumber,
		"name":        member.Name,
		"phone":       member.Phone,
		"email":       member.Email,
		"tier":        member.Tier,
	}).Error
}

func (r *Repository) FindByUID(ctx context.Context, uid uuid.UUID) (*models.Member, error) {
	var row models.Member
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) FindByCardNumber(ctx context.Context, card string) (*models.Member, error) {
	var row models.Member
	if err := r.db.WithContext(ctx).Where("card_number = ?", card).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) Delete(ctx context.Context, uid uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("uid = ?", uid).Delete(&models.Member{})
	return res.RowsAffected, res.Error
}

// AddPurchase increments total_purchases. The caller guarantees amount >= 0.
func (r *Repository) AddPurchase(ctx context.Context, uid uuid.UUID, amount decimal.Decimal) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE members
		SET total_purchases = total_purchases + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE uid = ?
	`, amount, uid)
	return res.RowsAffected, res.Error
}

// ListFilters narrows the member listing.
type ListFilters struct {
	Search string
	Tier   string
}

func (r *Repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (pagination.Page[models.Member], error) {
	q := r.db.WithContext(ctx).Model(&models.Member{})
	if search := strings.TrimSpace(filters.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(card_number) LIKE ? OR LOWER(COALESCE(phone, '')) LIKE ?)", like, like, like)
	}
	if tier := strings.TrimSpace(filters.Tier); tier != "" {
		q = q.Where("tier = ?", tier)
	}

	q, err := pagination.Apply(q, params, "created_at", "uid")
	if err != nil {
		return pagination.Page[models.Member]{}, err
	}

	var rows []models.Member
	if err := q.Find(&rows).Error; err != nil {
		return pagination.Page[models.Member]{}, err
	}
	return pagination.Trim(rows, params.Limit, func(m models.Member) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.UID}
	}), nil
}
