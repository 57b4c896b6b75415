package model

import (
	"time"

	"gorm.io/datatypes"
)

// GlobalSettingsID is the primary key of the only GlobalSettings row
const GlobalSettingsID uint = 1

// GlobalSettings holds platform-wide configuration edited by superadmins
type GlobalSettings struct {
	ID        uint              `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Settings  datatypes.JSONMap `json:"settings"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// All returns every model in migration order
func All() []interface{} {
	return []interface{}{
		&Tenant{},
		&User{},
		&Vehicle{},
		&Driver{},
		&Shipment{},
		&Employee{},
		&Expense{},
		&GlobalSettings{},
	}
}
