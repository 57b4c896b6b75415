package model

import (
	"time"

	"gorm.io/datatypes"
)

// TenantSettings is the typed per-tenant configuration stored as JSON
type TenantSettings struct {
	Currency       string `json:"currency,omitempty" validate:"omitempty,len=3,uppercase"`
	Timezone       string `json:"timezone,omitempty" validate:"omitempty,timezone"`
	InvoicePrefix  string `json:"invoicePrefix,omitempty" validate:"omitempty,max=10"`
	CompanyAddress string `json:"companyAddress,omitempty" validate:"omitempty,max=500"`
	GSTNumber      string `json:"gstNumber,omitempty" validate:"omitempty,len=15,alphanum"`
}

// Tenant represents one transporter company. Tenants are never deleted, only deactivated.
type Tenant struct {
	ID        uint                               `json:"id" gorm:"primaryKey"`
	Name      string                             `json:"name" gorm:"type:varchar(150);not null"`
	Slug      string                             `json:"slug" gorm:"type:varchar(63);uniqueIndex;not null"`
	Domain    *string                            `json:"domain,omitempty" gorm:"type:varchar(255);uniqueIndex"`
	IsActive  bool                               `json:"isActive" gorm:"not null"`
	Settings  datatypes.JSONType[TenantSettings] `json:"settings"`
	CreatedAt time.Time                          `json:"createdAt"`
	UpdatedAt time.Time                          `json:"updatedAt"`
}

// TenantSummary is the superadmin listing row
type TenantSummary struct {
	Tenant
	UserCount int64 `json:"userCount"`
}
