package handler

import (
	"strings"

	"transport-service/internal/model"
)

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest is the body of POST /api/auth/change-password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72,nefield=CurrentPassword"`
}

// ShipmentRequest is the create and full-update body for a shipment
type ShipmentRequest struct {
	BillNo string `json:"billNo" validate:"required,max=50"`
	Date   string `json:"date" validate:"required,date"`

	ConsignorName    string `json:"consignorName" validate:"required,max=150"`
	ConsignorAddress string `json:"consignorAddress" validate:"max=500"`
	ConsignorGST     string `json:"consignorGst" validate:"omitempty,max=20"`
	ConsigneeName    string `json:"consigneeName" validate:"required,max=150"`
	ConsigneeAddress string `json:"consigneeAddress" validate:"max=500"`
	ConsigneeGST     string `json:"consigneeGst" validate:"omitempty,max=20"`

	GoodsType        string  `json:"goodsType" validate:"max=100"`
	GoodsDescription string  `json:"goodsDescription"`
	Weight           float64 `json:"weight" validate:"gt=0"`

	FreightCharges      float64 `json:"freightCharges" validate:"gte=0"`
	HamaliCharges       float64 `json:"hamaliCharges" validate:"gte=0"`
	DoorDeliveryCharges float64 `json:"doorDeliveryCharges" validate:"gte=0"`
	CollectionCharges   float64 `json:"collectionCharges" validate:"gte=0"`
	StatisticalCharges  float64 `json:"statisticalCharges" validate:"gte=0"`
	OtherCharges        float64 `json:"otherCharges" validate:"gte=0"`
	// GrandTotal is accepted for compatibility and recomputed server-side
	GrandTotal *float64 `json:"grandTotal"`

	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=PAID TO_PAY TO_BE_BILLED"`
	Status        string `json:"status" validate:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED DELIVERED"`
	Source        string `json:"source" validate:"required,max=150"`
	Destination   string `json:"destination" validate:"required,max=150"`
	DriverID      *uint  `json:"driverId" validate:"omitempty,gt=0"`
	VehicleID     *uint  `json:"vehicleId" validate:"omitempty,gt=0"`
}

func (r *ShipmentRequest) toModel() (*model.Shipment, error) {
	date, err := mustDate("date", r.Date)
	if err != nil {
		return nil, err
	}
	return &model.Shipment{
		BillNo:              strings.TrimSpace(r.BillNo),
		Date:                date,
		ConsignorName:       r.ConsignorName,
		ConsignorAddress:    r.ConsignorAddress,
		ConsignorGST:        r.ConsignorGST,
		ConsigneeName:       r.ConsigneeName,
		ConsigneeAddress:    r.ConsigneeAddress,
		ConsigneeGST:        r.ConsigneeGST,
		GoodsType:           r.GoodsType,
		GoodsDescription:    r.GoodsDescription,
		Weight:              r.Weight,
		FreightCharges:      r.FreightCharges,
		HamaliCharges:       r.HamaliCharges,
		DoorDeliveryCharges: r.DoorDeliveryCharges,
		CollectionCharges:   r.CollectionCharges,
		StatisticalCharges:  r.StatisticalCharges,
		OtherCharges:        r.OtherCharges,
		PaymentMethod:       model.PaymentMethod(r.PaymentMethod),
		Status:              model.ShipmentStatus(r.Status),
		Source:              r.Source,
		Destination:         r.Destination,
		DriverID:            r.DriverID,
		VehicleID:           r.VehicleID,
	}, nil
}

// ShipmentQuery filters GET /api/shipments
type ShipmentQuery struct {
	ListQuery
	Status        string `query:"status" validate:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED DELIVERED"`
	PaymentMethod string `query:"paymentMethod" validate:"omitempty,oneof=PAID TO_PAY TO_BE_BILLED"`
	FromDate      string `query:"fromDate" validate:"omitempty,date"`
	ToDate        string `query:"toDate" validate:"omitempty,date"`
	DriverID      string `query:"driverId" validate:"omitempty,number"`
	VehicleID     string `query:"vehicleId" validate:"omitempty,number"`
	Source        string `query:"source"`
	Destination   string `query:"destination"`
}

// ShipmentStatusRequest is the body of PATCH /api/shipments/:id/status
type ShipmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING IN_PROGRESS COMPLETED DELIVERED"`
}

// VehicleRequest creates or updates a vehicle. Availability is not editable.
type VehicleRequest struct {
	Number   string  `json:"number" validate:"required,max=30"`
	Model    string  `json:"model" validate:"required,max=100"`
	Capacity float64 `json:"capacity" validate:"gt=0"`
}

// VehicleQuery filters GET /api/vehicles
type VehicleQuery struct {
	ListQuery
	IsAvailable string `query:"isAvailable" validate:"omitempty,boolean"`
}

// CreateDriverRequest creates a driver together with its login
type CreateDriverRequest struct {
	Name          string `json:"name" validate:"required,max=150"`
	Email         string `json:"email" validate:"required,email,max=255"`
	Phone         string `json:"phone" validate:"required,phone"`
	LicenseNumber string `json:"licenseNumber" validate:"required,max=50"`
	VehicleID     *uint  `json:"vehicleId" validate:"omitempty,gt=0"`
}

// UpdateDriverRequest replaces the editable driver fields
type UpdateDriverRequest struct {
	Name          string `json:"name" validate:"required,max=150"`
	Email         string `json:"email" validate:"required,email,max=255"`
	Phone         string `json:"phone" validate:"required,phone"`
	LicenseNumber string `json:"licenseNumber" validate:"required,max=50"`
}

// AssignVehicleRequest is the body of POST /api/drivers/:id/assign-vehicle
type AssignVehicleRequest struct {
	VehicleID uint `json:"vehicleId" validate:"required,gt=0"`
}

// DriverQuery filters GET /api/drivers
type DriverQuery struct {
	ListQuery
	HasVehicle string `query:"hasVehicle" validate:"omitempty,boolean"`
}

// EmployeeRequest creates or updates an employee
type EmployeeRequest struct {
	Name          string  `json:"name" validate:"required,max=150"`
	Email         string  `json:"email" validate:"omitempty,email,max=255"`
	Phone         string  `json:"phone" validate:"omitempty,phone"`
	Address       string  `json:"address" validate:"max=500"`
	Role          string  `json:"role" validate:"required,max=100"`
	Salary        float64 `json:"salary" validate:"gte=0"`
	DateOfJoining string  `json:"dateOfJoining" validate:"required,date,notfuture"`
}

func (r *EmployeeRequest) toModel() (*model.Employee, error) {
	joined, err := mustDate("dateOfJoining", r.DateOfJoining)
	if err != nil {
		return nil, err
	}
	return &model.Employee{
		Name:          r.Name,
		Email:         r.Email,
		Phone:         r.Phone,
		Address:       r.Address,
		Role:          r.Role,
		Salary:        r.Salary,
		DateOfJoining: joined,
	}, nil
}

// EmployeeQuery filters GET /api/employees
type EmployeeQuery struct {
	ListQuery
	Role string `query:"role"`
}

// ExpenseRequest creates or updates an expense
type ExpenseRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	Date        string  `json:"date" validate:"required,date,notfuture"`
	Category    string  `json:"category" validate:"required,oneof=FUEL MAINTENANCE SALARY TOLL INSURANCE RENT UTILITIES OFFICE OTHER"`
	Description string  `json:"description"`
	Status      string  `json:"status" validate:"omitempty,oneof=PENDING APPROVED PAID REJECTED"`
}

func (r *ExpenseRequest) toModel() (*model.Expense, error) {
	date, err := mustDate("date", r.Date)
	if err != nil {
		return nil, err
	}
	return &model.Expense{
		Title:       r.Title,
		Amount:      r.Amount,
		Date:        date,
		Category:    model.ExpenseCategory(r.Category),
		Description: r.Description,
		Status:      model.ExpenseStatus(r.Status),
	}, nil
}

// ExpenseQuery filters GET /api/expenses
type ExpenseQuery struct {
	ListQuery
	Category string `query:"category" validate:"omitempty,oneof=FUEL MAINTENANCE SALARY TOLL INSURANCE RENT UTILITIES OFFICE OTHER"`
	Status   string `query:"status" validate:"omitempty,oneof=PENDING APPROVED PAID REJECTED"`
	FromDate string `query:"fromDate" validate:"omitempty,date"`
	ToDate   string `query:"toDate" validate:"omitempty,date"`
}

// ExpenseStatusRequest is the body of PATCH /api/expenses/:id/status
type ExpenseStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING APPROVED PAID REJECTED"`
}

// CreateUserRequest adds an office user. Drivers are created through /api/drivers.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=150"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=ADMIN DISPATCHER"`
}

// UpdateUserRequest changes an office user's name, email and role
type UpdateUserRequest struct {
	Name  string `json:"name" validate:"required,max=150"`
	Email string `json:"email" validate:"required,email,max=255"`
	Role  string `json:"role" validate:"required,oneof=ADMIN DISPATCHER DRIVER"`
}

// UserQuery filters GET /api/users
type UserQuery struct {
	ListQuery
	Role string `query:"role" validate:"omitempty,oneof=ADMIN DISPATCHER DRIVER"`
}

// ReportQuery selects the report window
type ReportQuery struct {
	StartDate string `query:"startDate" validate:"omitempty,date"`
	EndDate   string `query:"endDate" validate:"omitempty,date"`
	GroupBy   string `query:"groupBy" validate:"omitempty,oneof=month quarter year"`
}

// SearchQuery is the query string of GET /api/search
type SearchQuery struct {
	Q string `query:"q" validate:"max=100"`
}

// CreateTransporterRequest provisions a tenant and its first admin
type CreateTransporterRequest struct {
	Name     string                `json:"name" validate:"required,max=150"`
	Slug     string                `json:"slug" validate:"required,min=2,max=63,slug"`
	Domain   string                `json:"domain" validate:"omitempty,fqdn"`
	Settings *model.TenantSettings `json:"settings"`
	Admin    struct {
		Name     string `json:"name" validate:"required,max=150"`
		Email    string `json:"email" validate:"required,email,max=255"`
		Password string `json:"password" validate:"omitempty,min=8,max=72"`
	} `json:"admin"`
}

// TransporterStatusRequest activates or deactivates a tenant
type TransporterStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// GlobalSettingsRequest replaces the platform settings document
type GlobalSettingsRequest struct {
	Settings map[string]interface{} `json:"settings" validate:"required"`
}
