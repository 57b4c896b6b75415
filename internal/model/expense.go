package model

import "time"

// ExpenseCategory groups expenses for reporting
type ExpenseCategory string

const (
	ExpenseFuel        ExpenseCategory = "FUEL"
	ExpenseMaintenance ExpenseCategory = "MAINTENANCE"
	ExpenseSalary      ExpenseCategory = "SALARY"
	ExpenseToll        ExpenseCategory = "TOLL"
	ExpenseInsurance   ExpenseCategory = "INSURANCE"
	ExpenseRent        ExpenseCategory = "RENT"
	ExpenseUtilities   ExpenseCategory = "UTILITIES"
	ExpenseOffice      ExpenseCategory = "OFFICE"
	ExpenseOther       ExpenseCategory = "OTHER"
)

// ExpenseStatus tracks approval and payment
type ExpenseStatus string

const (
	ExpensePending  ExpenseStatus = "PENDING"
	ExpenseApproved ExpenseStatus = "APPROVED"
	ExpensePaid     ExpenseStatus = "PAID"
	ExpenseRejected ExpenseStatus = "REJECTED"
)

// Expense is a single outgoing payment
type Expense struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Title       string          `json:"title" gorm:"type:varchar(200);not null"`
	Amount      float64         `json:"amount" gorm:"not null"`
	Date        time.Time       `json:"date" gorm:"not null;index"`
	Category    ExpenseCategory `json:"category" gorm:"type:varchar(20);not null;index"`
	Description string          `json:"description" gorm:"type:text"`
	Status      ExpenseStatus   `json:"status" gorm:"type:varchar(20);not null;index"`
	TenantID    uint            `json:"tenantId" gorm:"not null;index"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
