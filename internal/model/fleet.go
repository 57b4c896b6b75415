package model

import "time"

// Vehicle is a truck owned by a tenant. IsAvailable is false exactly when a driver holds it.
type Vehicle struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Number      string    `json:"number" gorm:"type:varchar(30);not null;uniqueIndex:idx_vehicles_tenant_number,priority:2"`
	Model       string    `json:"model" gorm:"type:varchar(100);not null"`
	Capacity    float64   `json:"capacity" gorm:"not null"`
	IsAvailable bool      `json:"isAvailable" gorm:"not null;index"`
	TenantID    uint      `json:"tenantId" gorm:"not null;index;uniqueIndex:idx_vehicles_tenant_number,priority:1"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Driver is the profile attached 1:1 to a DRIVER user.
// The unique index on vehicle_id keeps one driver per vehicle.
type Driver struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	LicenseNumber string    `json:"licenseNumber" gorm:"type:varchar(50);not null"`
	Phone         string    `json:"phone" gorm:"type:varchar(20);not null"`
	TenantID      uint      `json:"tenantId" gorm:"not null;index"`
	UserID        uint      `json:"userId" gorm:"not null;uniqueIndex"`
	VehicleID     *uint     `json:"vehicleId" gorm:"uniqueIndex"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	User    *User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Vehicle *Vehicle `json:"vehicle,omitempty" gorm:"foreignKey:VehicleID"`
}
