package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/tallyhq/tally/tally-backend/internal/middleware"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	authLimiter *middleware.RateLimiter,
	authHandler *AuthHandler,
	categoryHandler *CategoryHandler,
	catalogHandler *CatalogHandler,
	incomeHandler *IncomeHandler,
	spendingHandler *SpendingHandler,
	recurringHandler *RecurringHandler,
	subscriptionHandler *SubscriptionHandler,
	insightsHandler *InsightsHandler,
	wsHandler *WebSocketHandler,
	pageHandler *PageHandler,
) {
	// Page routes. Signed-in users skip the auth pages; the dashboard
	// bounces anonymous visitors to the login page.
	e.GET("/login", pageHandler.Shell, authMiddleware.RedirectAuthenticated("/dashboard"))
	e.GET("/signup", pageHandler.Shell, authMiddleware.RedirectAuthenticated("/dashboard"))
	e.GET("/dashboard", pageHandler.Shell, authMiddleware.Authenticate())

	// API version 1
	api := e.Group("/api/v1")

	// Auth routes (public, rate limited)
	auth := api.Group("/auth")
	auth.POST("/signup", authHandler.Signup, authLimiter.Limit())
	auth.POST("/login", authHandler.Login, authLimiter.Limit())
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/recover", authHandler.Recover, authLimiter.Limit())

	// Profile routes (protected)
	me := api.Group("/auth/me")
	me.Use(authMiddleware.Authenticate())
	me.GET("", authHandler.Me)
	me.PUT("", authHandler.UpdateMe)

	// Category routes (protected)
	categories := api.Group("/categories")
	categories.Use(authMiddleware.Authenticate())
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.ListCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Service catalog routes (protected)
	services := api.Group("/services")
	services.Use(authMiddleware.Authenticate())
	services.POST("", catalogHandler.CreateService)
	services.GET("", catalogHandler.ListServices)
	services.GET("/:id", catalogHandler.GetService)
	services.PUT("/:id", catalogHandler.UpdateService)
	services.DELETE("/:id", catalogHandler.DeleteService)

	// Income routes (protected)
	income := api.Group("/income")
	income.Use(authMiddleware.Authenticate())
	income.POST("", incomeHandler.CreateIncome)
	income.GET("", incomeHandler.ListIncome)
	income.GET("/:id", incomeHandler.GetIncome)
	income.PUT("/:id", incomeHandler.UpdateIncome)
	income.DELETE("/:id", incomeHandler.DeleteIncome)

	// Spending routes (protected), including receipt attachments
	spending := api.Group("/spending")
	spending.Use(authMiddleware.Authenticate())
	spending.POST("", spendingHandler.CreateSpending)
	spending.GET("", spendingHandler.ListSpending)
	spending.GET("/:id", spendingHandler.GetSpending)
	spending.PUT("/:id", spendingHandler.UpdateSpending)
	spending.DELETE("/:id", spendingHandler.DeleteSpending)
	spending.POST("/:id/receipt", spendingHandler.UploadReceipt)
	spending.GET("/:id/receipt", spendingHandler.GetReceiptURL)
	spending.DELETE("/:id/receipt", spendingHandler.DeleteReceipt)

	// Recurring expense routes (protected)
	recurring := api.Group("/recurring-expenses")
	recurring.Use(authMiddleware.Authenticate())
	recurring.POST("", recurringHandler.CreateRecurring)
	recurring.GET("", recurringHandler.ListRecurring)
	recurring.GET("/:id", recurringHandler.GetRecurring)
	recurring.PUT("/:id", recurringHandler.UpdateRecurring)
	recurring.DELETE("/:id", recurringHandler.DeleteRecurring)
	recurring.POST("/:id/payments", recurringHandler.RecordPayment)
	recurring.GET("/:id/payments", recurringHandler.ListPayments)

	// Subscription routes (protected)
	subscriptions := api.Group("/subscriptions")
	subscriptions.Use(authMiddleware.Authenticate())
	subscriptions.POST("", subscriptionHandler.CreateSubscription)
	subscriptions.GET("", subscriptionHandler.ListSubscriptions)
	subscriptions.GET("/:id", subscriptionHandler.GetSubscription)
	subscriptions.PUT("/:id", subscriptionHandler.UpdateSubscription)
	subscriptions.DELETE("/:id", subscriptionHandler.DeleteSubscription)
	subscriptions.POST("/:id/payments", subscriptionHandler.RecordPayment)
	subscriptions.GET("/:id/payments", subscriptionHandler.ListPayments)

	// Insights routes (protected)
	insights := api.Group("/insights")
	insights.Use(authMiddleware.Authenticate())
	insights.GET("/dashboard", insightsHandler.Dashboard)
	insights.GET("/summary", insightsHandler.Summary)
	insights.GET("/cash-flow", insightsHandler.CashFlow)
	insights.GET("/categories", insightsHandler.CategoryBreakdown)
	insights.GET("/upcoming", insightsHandler.UpcomingPayments)

	// WebSocket endpoint (token-authenticated during upgrade)
	e.GET("/ws", wsHandler.HandleWS)
}
