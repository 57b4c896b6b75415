package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestCopiesMatchSentinel(t *testing.T) {
	err := fmt.Errorf("loading: %w", NotFound("vehicle"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrTenantNotFound)
	assert.Equal(t, "vehicle not found", From(err).Message)
}

func TestInvalidCredentialsIsUnauthorized(t *testing.T) {
	assert.ErrorIs(t, ErrInvalidCredentials, ErrUnauthorized)
}

func TestFromDB(t *testing.T) {
	assert.ErrorIs(t, FromDB(gorm.ErrRecordNotFound, "shipment", ""), ErrNotFound)

	conflict := FromDB(gorm.ErrDuplicatedKey, "shipment", "billNo already exists")
	assert.ErrorIs(t, conflict, ErrConflict)
	assert.Equal(t, "billNo already exists", From(conflict).Message)

	sqlite := FromDB(errors.New("constraint failed: UNIQUE constraint failed: vehicles.number (2067)"), "vehicle", "dup")
	assert.ErrorIs(t, sqlite, ErrConflict)

	internal := FromDB(errors.New("connection reset"), "vehicle", "dup")
	assert.Equal(t, http.StatusInternalServerError, From(internal).Status)

	assert.NoError(t, FromDB(nil, "x", "y"))
}

func TestFromDBConflictWithoutMessageKeepsDefault(t *testing.T) {
	conflict := FromDB(gorm.ErrDuplicatedKey, "shipment", "")
	assert.ErrorIs(t, conflict, ErrConflict)
	assert.Equal(t, ErrConflict.Message, From(conflict).Message)
	assert.Equal(t, http.StatusConflict, From(conflict).Status)
}

func TestFromDBKeepsApplicationErrors(t *testing.T) {
	assert.Same(t, ErrVehicleUnavailable, FromDB(ErrVehicleUnavailable, "vehicle", "dup"))
}
