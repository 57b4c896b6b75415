package handler

import (
	"math"
	"net/http"
	"strconv"

	"transport-service/internal/apperr"
	"transport-service/internal/events"
	"transport-service/internal/middleware"
	"transport-service/internal/model"
	"transport-service/internal/pdf"
	"transport-service/internal/store"
	"transport-service/pkg/logger"
	"transport-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ListShipments returns one page of the tenant's shipments. DRIVER callers
// only see shipments assigned to them.
func (h *Handler) ListShipments(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}

	var q ShipmentQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	filter, err := shipmentFilter(q)
	if err != nil {
		return err
	}

	own, err := h.ownDriverID(c, tenantID)
	if err != nil {
		return err
	}
	if own != nil {
		if filter.DriverID != nil && *filter.DriverID != *own {
			return c.JSON(http.StatusOK, store.Result[model.Shipment]{Items: []model.Shipment{}, Page: q.page().Page, PageSize: q.page().PageSize})
		}
		filter.DriverID = own
	}

	result, err := h.shipments.List(c.Request().Context(), tenantID, filter, q.page())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func shipmentFilter(q ShipmentQuery) (store.ShipmentFilter, error) {
	dates, err := dateRange("fromDate", q.FromDate, "toDate", q.ToDate)
	if err != nil {
		return store.ShipmentFilter{}, err
	}
	driverID, err := optionalUint("driverId", q.DriverID)
	if err != nil {
		return store.ShipmentFilter{}, err
	}
	vehicleID, err := optionalUint("vehicleId", q.VehicleID)
	if err != nil {
		return store.ShipmentFilter{}, err
	}
	return store.ShipmentFilter{
		Search:        q.term(),
		Status:        model.ShipmentStatus(q.Status),
		PaymentMethod: model.PaymentMethod(q.PaymentMethod),
		Dates:         dates,
		DriverID:      driverID,
		VehicleID:     vehicleID,
		Source:        q.Source,
		Destination:   q.Destination,
	}, nil
}

// loadShipment fetches a shipment the caller may see. Another driver's
// shipment is reported as not found.
func (h *Handler) loadShipment(c echo.Context) (*model.Shipment, uint, error) {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return nil, 0, err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil, 0, err
	}

	shipment, err := h.shipments.Get(c.Request().Context(), tenantID, id)
	if err != nil {
		return nil, 0, err
	}

	own, err := h.ownDriverID(c, tenantID)
	if err != nil {
		return nil, 0, err
	}
	if own != nil && (shipment.DriverID == nil || *shipment.DriverID != *own) {
		return nil, 0, apperr.NotFound("shipment")
	}
	return shipment, tenantID, nil
}

// GetShipment returns one shipment
func (h *Handler) GetShipment(c echo.Context) error {
	shipment, _, err := h.loadShipment(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, shipment)
}

// CreateShipment stores a new shipment bill
func (h *Handler) CreateShipment(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}

	var req ShipmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	shipment, err := req.toModel()
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.shipments.Create(ctx, tenantID, shipment); err != nil {
		return err
	}
	warnGrandTotalMismatch(log, req.GrandTotal, shipment)

	prometheus.RecordResourceOperation("shipments", "create")
	log.Info("Shipment created", zap.Uint("shipment_id", shipment.ID), zap.String("bill_no", shipment.BillNo))
	h.events.Emit(ctx, events.ShipmentCreated, tenantID, shipmentEvent(shipment))

	created, err := h.shipments.Get(ctx, tenantID, shipment.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

// UpdateShipment replaces a shipment. An omitted status keeps the current one.
func (h *Handler) UpdateShipment(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req ShipmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	shipment, err := req.toModel()
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	existing, err := h.shipments.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if shipment.Status == "" {
		shipment.Status = existing.Status
	}

	updated, err := h.shipments.Update(ctx, tenantID, id, shipment)
	if err != nil {
		return err
	}
	warnGrandTotalMismatch(log, req.GrandTotal, updated)

	prometheus.RecordResourceOperation("shipments", "update")
	if updated.Status != existing.Status {
		h.events.Emit(ctx, events.ShipmentStatusChanged, tenantID, statusEvent(updated, existing.Status))
	}
	return c.JSON(http.StatusOK, updated)
}

// UpdateShipmentStatus changes only the status. Drivers may do this for
// their own shipments.
func (h *Handler) UpdateShipmentStatus(c echo.Context) error {
	existing, tenantID, err := h.loadShipment(c)
	if err != nil {
		return err
	}

	var req ShipmentStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	updated, err := h.shipments.UpdateStatus(ctx, tenantID, existing.ID, model.ShipmentStatus(req.Status))
	if err != nil {
		return err
	}

	prometheus.RecordResourceOperation("shipments", "status")
	logger.FromContext(c).Info("Shipment status changed",
		zap.Uint("shipment_id", updated.ID),
		zap.String("from", string(existing.Status)),
		zap.String("to", string(updated.Status)))
	if updated.Status != existing.Status {
		h.events.Emit(ctx, events.ShipmentStatusChanged, tenantID, statusEvent(updated, existing.Status))
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteShipment removes a shipment
func (h *Handler) DeleteShipment(c echo.Context) error {
	tenantID, err := middleware.MustTenantID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.shipments.Delete(c.Request().Context(), tenantID, id); err != nil {
		return err
	}

	prometheus.RecordResourceOperation("shipments", "delete")
	logger.FromContext(c).Info("Shipment deleted", zap.Uint("shipment_id", id))
	return c.NoContent(http.StatusNoContent)
}

// ShipmentPDF streams the consignment bill as a PDF attachment
func (h *Handler) ShipmentPDF(c echo.Context) error {
	shipment, _, err := h.loadShipment(c)
	if err != nil {
		return err
	}
	t, ok := middleware.CurrentTenant(c)
	if !ok {
		return apperr.ErrTenantRequired
	}

	// render fully before writing so a failure can still be sent as JSON
	body, err := pdf.RenderShipmentBytes(t, shipment)
	if err != nil {
		return apperr.ErrInternal.Wrap(err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+pdf.Filename(shipment)+`"`)
	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(len(body)))
	return c.Blob(http.StatusOK, "application/pdf", body)
}

func warnGrandTotalMismatch(log *zap.Logger, sent *float64, s *model.Shipment) {
	if sent == nil || math.Abs(*sent-s.GrandTotal) < 0.005 {
		return
	}
	log.Warn("Client grand total ignored",
		zap.Uint("shipment_id", s.ID),
		zap.Float64("sent", *sent),
		zap.Float64("computed", s.GrandTotal))
}

func shipmentEvent(s *model.Shipment) map[string]interface{} {
	return map[string]interface{}{
		"shipmentId": s.ID,
		"billNo":     s.BillNo,
		"status":     s.Status,
		"grandTotal": s.GrandTotal,
		"driverId":   s.DriverID,
		"vehicleId":  s.VehicleID,
	}
}

func statusEvent(s *model.Shipment, from model.ShipmentStatus) map[string]interface{} {
	return map[string]interface{}{
		"shipmentId": s.ID,
		"billNo":     s.BillNo,
		"from":       from,
		"to":         s.Status,
	}
}
