package handler

import (
	"transport-service/internal/middleware"
	"transport-service/internal/policy"

	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the API. loginLimiter guards the login endpoint and
// may be nil.
func (h *Handler) RegisterRoutes(e *echo.Echo, loginLimiter echo.MiddlewareFunc) {
	e.GET("/health", h.HealthCheck)

	api := e.Group("/api")

	// Public routes
	loginMiddleware := []echo.MiddlewareFunc{}
	if loginLimiter != nil {
		loginMiddleware = append(loginMiddleware, loginLimiter)
	}
	api.POST("/auth/login", h.Login, loginMiddleware...)
	api.GET("/tenants/:slug", h.GetPublicTenant)

	// Authenticated, tenant independent
	authed := api.Group("", middleware.Auth(h.jwt))
	authed.GET("/auth/me", h.Me)
	authed.POST("/auth/change-password", h.ChangePassword)

	sa := authed.Group("/superadmin")
	sa.GET("/settings", h.GetGlobalSettings, h.can(policy.Superadmin, policy.Read))
	sa.PUT("/settings", h.UpdateGlobalSettings, h.can(policy.Superadmin, policy.Update))
	sa.GET("/transporters", h.ListTransporters, h.can(policy.Superadmin, policy.List))
	sa.POST("/transporters", h.CreateTransporter, h.can(policy.Superadmin, policy.Create))
	sa.PATCH("/transporters/:id/status", h.SetTransporterStatus, h.can(policy.Superadmin, policy.Update))

	// Tenant scoped
	t := authed.Group("", middleware.Tenant(h.resolver))

	shipments := t.Group("/shipments")
	shipments.GET("", h.ListShipments, h.can(policy.Shipments, policy.List))
	shipments.POST("", h.CreateShipment, h.can(policy.Shipments, policy.Create))
	shipments.GET("/:id", h.GetShipment, h.can(policy.Shipments, policy.Read))
	shipments.PUT("/:id", h.UpdateShipment, h.can(policy.Shipments, policy.Update))
	shipments.PATCH("/:id/status", h.UpdateShipmentStatus, h.can(policy.Shipments, policy.Status))
	shipments.DELETE("/:id", h.DeleteShipment, h.can(policy.Shipments, policy.Delete))
	shipments.GET("/:id/pdf", h.ShipmentPDF, h.can(policy.Shipments, policy.Read))

	vehicles := t.Group("/vehicles")
	vehicles.GET("", h.ListVehicles, h.can(policy.Vehicles, policy.List))
	vehicles.POST("", h.CreateVehicle, h.can(policy.Vehicles, policy.Create))
	vehicles.GET("/:id", h.GetVehicle, h.can(policy.Vehicles, policy.Read))
	vehicles.PUT("/:id", h.UpdateVehicle, h.can(policy.Vehicles, policy.Update))
	vehicles.DELETE("/:id", h.DeleteVehicle, h.can(policy.Vehicles, policy.Delete))

	drivers := t.Group("/drivers")
	drivers.GET("", h.ListDrivers, h.can(policy.Drivers, policy.List))
	drivers.POST("", h.CreateDriver, h.can(policy.Drivers, policy.Create))
	drivers.GET("/:id", h.GetDriver, h.can(policy.Drivers, policy.Read))
	drivers.PUT("/:id", h.UpdateDriver, h.can(policy.Drivers, policy.Update))
	drivers.DELETE("/:id", h.DeleteDriver, h.can(policy.Drivers, policy.Delete))
	drivers.POST("/:id/assign-vehicle", h.AssignVehicle, h.can(policy.Drivers, policy.Update))
	drivers.POST("/:id/unassign-vehicle", h.UnassignVehicle, h.can(policy.Drivers, policy.Update))

	employees := t.Group("/employees")
	employees.GET("", h.ListEmployees, h.can(policy.Employees, policy.List))
	employees.POST("", h.CreateEmployee, h.can(policy.Employees, policy.Create))
	employees.GET("/:id", h.GetEmployee, h.can(policy.Employees, policy.Read))
	employees.PUT("/:id", h.UpdateEmployee, h.can(policy.Employees, policy.Update))
	employees.DELETE("/:id", h.DeleteEmployee, h.can(policy.Employees, policy.Delete))

	expenses := t.Group("/expenses")
	expenses.GET("", h.ListExpenses, h.can(policy.Expenses, policy.List))
	expenses.POST("", h.CreateExpense, h.can(policy.Expenses, policy.Create))
	expenses.GET("/:id", h.GetExpense, h.can(policy.Expenses, policy.Read))
	expenses.PUT("/:id", h.UpdateExpense, h.can(policy.Expenses, policy.Update))
	expenses.PATCH("/:id/status", h.UpdateExpenseStatus, h.can(policy.Expenses, policy.Status))
	expenses.DELETE("/:id", h.DeleteExpense, h.can(policy.Expenses, policy.Delete))

	users := t.Group("/users")
	users.GET("", h.ListUsers, h.can(policy.Users, policy.List))
	users.POST("", h.CreateUser, h.can(policy.Users, policy.Create))
	users.GET("/:id", h.GetUser, h.can(policy.Users, policy.Read))
	users.PUT("/:id", h.UpdateUser, h.can(policy.Users, policy.Update))
	users.DELETE("/:id", h.DeleteUser, h.can(policy.Users, policy.Delete))

	t.GET("/reports/profit-loss", h.ProfitLoss, h.can(policy.Reports, policy.Read))
	t.GET("/reports/expenses", h.ExpenseReport, h.can(policy.Reports, policy.Read))
	t.GET("/dashboard/stats", h.DashboardStats, h.can(policy.Dashboard, policy.Read))
	t.GET("/search", h.Search, h.can(policy.Search, policy.Read))
	t.GET("/settings", h.GetTenantSettings, h.can(policy.Settings, policy.Read))
	t.PUT("/settings", h.UpdateTenantSettings, h.can(policy.Settings, policy.Update))
}

func (h *Handler) can(resource, action string) echo.MiddlewareFunc {
	return middleware.RequirePermission(h.policy, resource, action)
}
