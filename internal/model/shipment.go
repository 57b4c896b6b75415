package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how a shipment bill is settled
type PaymentMethod string

const (
	PaymentPaid       PaymentMethod = "PAID"
	PaymentToPay      PaymentMethod = "TO_PAY"
	PaymentToBeBilled PaymentMethod = "TO_BE_BILLED"
)

// ShipmentStatus is the delivery state. Any status may follow any other.
type ShipmentStatus string

const (
	ShipmentPending    ShipmentStatus = "PENDING"
	ShipmentInProgress ShipmentStatus = "IN_PROGRESS"
	ShipmentCompleted  ShipmentStatus = "COMPLETED"
	ShipmentDelivered  ShipmentStatus = "DELIVERED"
)

// ShipmentStatuses lists every status in display order
var ShipmentStatuses = []ShipmentStatus{ShipmentPending, ShipmentInProgress, ShipmentCompleted, ShipmentDelivered}

// Shipment is a consignment bill
type Shipment struct {
	ID     uint      `json:"id" gorm:"primaryKey"`
	BillNo string    `json:"billNo" gorm:"type:varchar(50);not null;uniqueIndex:idx_shipments_tenant_bill,priority:2"`
	Date   time.Time `json:"date" gorm:"not null;index"`

	ConsignorName    string `json:"consignorName" gorm:"type:varchar(150);not null"`
	ConsignorAddress string `json:"consignorAddress" gorm:"type:text"`
	ConsignorGST     string `json:"consignorGst" gorm:"type:varchar(20)"`
	ConsigneeName    string `json:"consigneeName" gorm:"type:varchar(150);not null"`
	ConsigneeAddress string `json:"consigneeAddress" gorm:"type:text"`
	ConsigneeGST     string `json:"consigneeGst" gorm:"type:varchar(20)"`

	GoodsType        string  `json:"goodsType" gorm:"type:varchar(100)"`
	GoodsDescription string  `json:"goodsDescription" gorm:"type:text"`
	Weight           float64 `json:"weight" gorm:"not null"`

	FreightCharges      float64 `json:"freightCharges" gorm:"not null"`
	HamaliCharges       float64 `json:"hamaliCharges" gorm:"not null"`
	DoorDeliveryCharges float64 `json:"doorDeliveryCharges" gorm:"not null"`
	CollectionCharges   float64 `json:"collectionCharges" gorm:"not null"`
	StatisticalCharges  float64 `json:"statisticalCharges" gorm:"not null"`
	OtherCharges        float64 `json:"otherCharges" gorm:"not null"`
	GrandTotal          float64 `json:"grandTotal" gorm:"not null"`

	PaymentMethod PaymentMethod  `json:"paymentMethod" gorm:"type:varchar(20);not null;index"`
	Status        ShipmentStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	Source        string         `json:"source" gorm:"type:varchar(150);not null"`
	Destination   string         `json:"destination" gorm:"type:varchar(150);not null"`

	DriverID  *uint     `json:"driverId" gorm:"index"`
	VehicleID *uint     `json:"vehicleId" gorm:"index"`
	TenantID  uint      `json:"tenantId" gorm:"not null;index;uniqueIndex:idx_shipments_tenant_bill,priority:1"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Driver  *Driver  `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
	Vehicle *Vehicle `json:"vehicle,omitempty" gorm:"foreignKey:VehicleID"`
}

// ComputeGrandTotal sums the six charges in decimal and rounds to two places
func (s *Shipment) ComputeGrandTotal() float64 {
	total := decimal.Zero
	for _, charge := range []float64{
		s.FreightCharges,
		s.HamaliCharges,
		s.DoorDeliveryCharges,
		s.CollectionCharges,
		s.StatisticalCharges,
		s.OtherCharges,
	} {
		total = total.Add(decimal.NewFromFloat(charge))
	}
	return total.Round(2).InexactFloat64()
}
