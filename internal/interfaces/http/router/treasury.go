package router

import (
	"github.com/erp/treasury/internal/interfaces/http/handler"
	"github.com/erp/treasury/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers are the API handlers mounted by TreasuryGroups
type Handlers struct {
	System    *handler.SystemHandler
	Stores    *handler.StoreHandler
	Cashboxes *handler.CashboxHandler
	Sessions  *handler.SessionHandler
	Movements *handler.MovementHandler
	Balances  *handler.BalanceHandler
	Sales     *handler.SaleHandler
	Payments  *handler.PaymentHandler
	Expenses  *handler.ExpenseHandler
}

// TreasuryGroups builds the route groups of the register API. Reads need
// treasury:read; each write needs the permission of its area.
func TreasuryGroups(h Handlers, log *zap.Logger) []RouteRegistrar {
	perm := func(p ...string) gin.HandlerFunc { return middleware.RequirePermission(log, p...) }
	read := perm(middleware.PermTreasuryRead, middleware.PermTreasuryWrite, middleware.PermTreasuryManage)
	write := perm(middleware.PermTreasuryWrite, middleware.PermTreasuryManage)
	manage := perm(middleware.PermTreasuryManage)
	operate := perm(middleware.PermSessionOperate, middleware.PermTreasuryManage)
	finance := perm(middleware.PermFinanceWrite, middleware.PermTreasuryManage)

	system := NewDomainGroup("system", "/system").
		GET("/info", h.System.Info)

	stores := NewDomainGroup("stores", "/stores").
		GET("", read, h.Stores.List).
		GET("/:id", read, h.Stores.Get).
		POST("", perm(middleware.PermStoreManage, middleware.PermTreasuryManage), h.Stores.Create)

	cashboxes := NewDomainGroup("cashboxes", "/cashboxes").
		GET("", read, h.Cashboxes.List).
		GET("/verify", manage, h.Cashboxes.VerifyAll).
		GET("/:id", read, h.Cashboxes.Get).
		GET("/:id/balance", read, h.Cashboxes.CurrentBalance).
		GET("/:id/verify", manage, h.Cashboxes.Verify).
		POST("/:id/resync", manage, h.Cashboxes.Resync).
		POST("/:id/activate", manage, h.Cashboxes.Activate).
		POST("/:id/deactivate", manage, h.Cashboxes.Deactivate).
		GET("/:id/sessions", read, h.Cashboxes.ListSessions).
		POST("/:id/sessions", operate, h.Cashboxes.OpenSession)

	sessions := NewDomainGroup("sessions", "/sessions").
		GET("", read, h.Sessions.List).
		GET("/:id", read, h.Sessions.Get).
		GET("/:id/summary", read, h.Sessions.Summary).
		GET("/:id/counts", read, h.Sessions.ListCounts).
		GET("/:id/movements", read, h.Sessions.ListMovements).
		POST("/:id/counts", operate, h.Sessions.RecordCount).
		POST("/:id/close", operate, h.Sessions.Close)

	movements := NewDomainGroup("movements", "/movements").
		GET("", read, h.Movements.List).
		GET("/:id", read, h.Movements.Get).
		POST("", write, h.Movements.Record)

	balances := NewDomainGroup("balances", "/balances").
		GET("/:channel", read, h.Balances.Compute)

	sales := NewDomainGroup("sales", "/sales").
		GET("", read, h.Sales.List).
		GET("/:id", read, h.Sales.Get).
		POST("", write, h.Sales.Create).
		POST("/:id/payments", write, h.Sales.Pay).
		POST("/:id/refunds", write, h.Sales.Refund).
		POST("/:id/cancel", write, h.Sales.Cancel)

	payments := NewDomainGroup("payments", "/payments").
		GET("/:kind", read, h.Payments.List).
		GET("/:kind/:id", read, h.Payments.Get).
		POST("/:kind", finance, h.Payments.Record)

	expenses := NewDomainGroup("expenses", "/expenses").
		GET("", read, h.Expenses.List).
		GET("/:id", read, h.Expenses.Get).
		POST("", finance, h.Expenses.Create).
		POST("/:id/pay", finance, h.Expenses.Pay).
		POST("/:id/reverse", finance, h.Expenses.ReversePayment).
		POST("/:id/cancel", finance, h.Expenses.Cancel)

	return []RouteRegistrar{system, stores, cashboxes, sessions, movements, balances, sales, payments, expenses}
}

// HealthRoutes mounts the unauthenticated probes on the engine root
func HealthRoutes(engine *gin.Engine, system *handler.SystemHandler) {
	engine.GET("/health", system.Live)
	engine.GET("/health/ready", system.Ready)
}
