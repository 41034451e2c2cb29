package router

import (
	"time"

	"github.com/walidyoshi/wals-honey-mgmt/internal/config"
	"github.com/walidyoshi/wals-honey-mgmt/internal/handler"
	"github.com/walidyoshi/wals-honey-mgmt/internal/infra"
	"github.com/walidyoshi/wals-honey-mgmt/internal/middleware"
	"github.com/walidyoshi/wals-honey-mgmt/internal/model"
	"github.com/walidyoshi/wals-honey-mgmt/internal/repository"
	"github.com/walidyoshi/wals-honey-mgmt/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	var mailer service.ReceiptMailer
	if cfg.SMTPHost != "" {
		mailer = infra.NewMailer(cfg)
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	reportRepo := repository.NewReportRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	audit := service.NewAuditRecorder(auditRepo)
	reportSvc := service.NewReportService(reportRepo, rdb)

	authSvc := service.NewAuthService(userRepo, cfg)
	customerSvc := service.NewCustomerService(customerRepo)
	batchSvc := service.NewBatchService(batchRepo, movementRepo, audit, reportSvc)
	saleSvc := service.NewSaleService(saleRepo, batchRepo, customerRepo, paymentRepo, movementRepo, audit, reportSvc)
	paymentSvc := service.NewPaymentService(paymentRepo, saleRepo, audit, mailer, reportSvc)
	expenseSvc := service.NewExpenseService(expenseRepo, audit, reportSvc)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	customersH := handler.NewCustomersHandler(customerSvc)
	batchesH := handler.NewBatchesHandler(batchSvc)
	salesH := handler.NewSalesHandler(saleSvc, cfg.BusinessName, cfg.PDFStoragePath)
	paymentsH := handler.NewPaymentsHandler(paymentSvc)
	expensesH := handler.NewExpensesHandler(expenseSvc)
	auditH := handler.NewAuditHandler(audit)
	reportsH := handler.NewReportsHandler(reportSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleStaff)
	adminOnly := middleware.RequireRole(model.RoleAdmin)
	v1 := r.Group("/v1", jwtMW)
	{
		batches := v1.Group("/batches")
		{
			batches.POST("", anyRole, batchesH.Create)
			batches.GET("", anyRole, batchesH.List)
			batches.GET("/:id", anyRole, batchesH.Get)
			batches.PUT("/:id", anyRole, batchesH.Update)
			batches.DELETE("/:id", adminOnly, batchesH.Delete)
			batches.POST("/:id/deactivate", adminOnly, batchesH.Deactivate)
			batches.POST("/:id/reactivate", adminOnly, batchesH.Reactivate)
			batches.POST("/:id/adjust", adminOnly, batchesH.AdjustStock)
			batches.GET("/:id/movements", anyRole, batchesH.ListMovements)
		}

		sales := v1.Group("/sales")
		{
			sales.POST("", anyRole, salesH.Create)
			sales.GET("", anyRole, salesH.List)
			sales.GET("/:id", anyRole, salesH.Get)
			sales.PUT("/:id", anyRole, salesH.Update)
			sales.DELETE("/:id", adminOnly, salesH.Archive)
			sales.POST("/:id/restore", adminOnly, salesH.Restore)
			sales.GET("/:id/receipt", anyRole, salesH.Receipt)

			// Payments nested under their sale
			sales.POST("/:id/payments", anyRole, paymentsH.Record)
			sales.GET("/:id/payments", anyRole, paymentsH.ListBySale)
		}

		payments := v1.Group("/payments")
		{
			payments.PUT("/:id", anyRole, paymentsH.Update)
			payments.DELETE("/:id", adminOnly, paymentsH.Delete)
		}

		customers := v1.Group("/customers")
		{
			customers.POST("", anyRole, customersH.Create)
			customers.GET("", anyRole, customersH.List)
			customers.GET("/:id", anyRole, customersH.Get)
			customers.PUT("/:id", anyRole, customersH.Update)
		}

		expenses := v1.Group("/expenses")
		{
			expenses.POST("", anyRole, expensesH.Create)
			expenses.GET("", anyRole, expensesH.List)
			expenses.GET("/:id", anyRole, expensesH.Get)
			expenses.PUT("/:id", anyRole, expensesH.Update)
			expenses.DELETE("/:id", adminOnly, expensesH.Archive)
			expenses.POST("/:id/restore", adminOnly, expensesH.Restore)
		}

		v1.GET("/audit/:entity/:id", anyRole, auditH.ListForEntity)
		v1.GET("/reports/summary", anyRole, reportsH.Summary)

		users := v1.Group("/users", adminOnly)
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.DELETE("/:id", usersH.Deactivate)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
