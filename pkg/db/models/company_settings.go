package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CompanySettingsID is the primary key of the only settings row.
const CompanySettingsID = 1

type CompanySettings struct {
	ID            int             `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	CompanyName   string          `gorm:"column:company_name;not null;default:''" json:"companyName"`
	Address       string          `gorm:"column:address;not null;default:''" json:"address"`
	Phone         string          `gorm:"column:phone;not null;default:''" json:"phone"`
	Email         string          `gorm:"column:email;not null;default:''" json:"email"`
	TaxRate       decimal.Decimal `gorm:"column:tax_rate;type:numeric(5,4);not null" json:"taxRate"`
	VATRate       decimal.Decimal `gorm:"column:vat_rate;type:numeric(5,4);not null" json:"vatRate"`
	Currency      string          `gorm:"column:currency;not null" json:"currency"`
	InvoicePrefix string          `gorm:"column:invoice_prefix;not null" json:"invoicePrefix"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (CompanySettings) TableName() string { return "company_settings" }
