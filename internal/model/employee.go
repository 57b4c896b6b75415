package model

import "time"

// Employee is a staff record. Role is a free-text job title, not a platform role.
type Employee struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name" gorm:"type:varchar(150);not null"`
	Email         string    `json:"email" gorm:"type:varchar(255)"`
	Phone         string    `json:"phone" gorm:"type:varchar(20)"`
	Address       string    `json:"address" gorm:"type:text"`
	Role          string    `json:"role" gorm:"type:varchar(100);not null;index"`
	Salary        float64   `json:"salary" gorm:"not null"`
	DateOfJoining time.Time `json:"dateOfJoining" gorm:"not null"`
	TenantID      uint      `json:"tenantId" gorm:"not null;index"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
