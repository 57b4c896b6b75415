package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeGrandTotal(t *testing.T) {
	s := Shipment{FreightCharges: 500, HamaliCharges: 100}
	assert.Equal(t, 600.0, s.ComputeGrandTotal())
}

func TestComputeGrandTotalAvoidsFloatDrift(t *testing.T) {
	s := Shipment{
		FreightCharges:      0.1,
		HamaliCharges:       0.2,
		DoorDeliveryCharges: 10.005,
		CollectionCharges:   1,
		StatisticalCharges:  2,
		OtherCharges:        3,
	}
	assert.Equal(t, 16.31, s.ComputeGrandTotal())
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleDispatcher.Valid())
	assert.False(t, Role("OWNER").Valid())
}
