package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sales-daily-api/internal/handler"
	"github.com/noah-isme/sales-daily-api/internal/middleware"
	"github.com/noah-isme/sales-daily-api/internal/models"
	"github.com/noah-isme/sales-daily-api/internal/repository"
	"github.com/noah-isme/sales-daily-api/internal/service"
	"github.com/noah-isme/sales-daily-api/pkg/config"
	"github.com/noah-isme/sales-daily-api/pkg/jobs"
)

type dependencies struct {
	logger    *zap.Logger
	metrics   *service.MetricsService
	audit     *service.AuditDispatcher
	auth      *service.AuthService
	authH     *handler.AuthHandler
	staffH    *handler.StaffHandler
	customerH *handler.CustomerHandler
	reportH   *handler.ReportHandler
	metricsH  *handler.MetricsHandler
}

func buildDependencies(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client) *dependencies {
	metrics := service.NewMetricsService()

	var hierarchyCache *service.CacheService
	if redisClient != nil {
		store := repository.NewCacheRepository(redisClient, logr)
		hierarchyCache = service.NewCacheService(store, metrics, cfg.Hierarchy.CacheTTL, logr, true)
	}

	staffRepo := repository.NewStaffRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	reportRepo := repository.NewReportRepository(db)
	audit := service.NewAuditDispatcher(repository.NewAuditRepository(db), logr, jobs.Config{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
	})

	hierarchy := service.NewHierarchyResolver(staffRepo, hierarchyCache, cfg.Hierarchy.CacheTTL, logr)
	gate := service.NewAccessGate(hierarchy, metrics)
	validate := service.NewValidator()

	authSvc := service.NewAuthService(staffRepo, audit, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	limits := service.ReportLimits{
		TextMaxLength:         cfg.Reports.TextMaxLength,
		VisitContentMaxLength: cfg.Reports.VisitContentMaxLength,
		CommentMaxLength:      cfg.Reports.CommentMaxLength,
	}
	reportSvc := service.NewReportService(reportRepo, customerRepo, gate, audit, metrics, limits, validate, logr)
	commentSvc := service.NewCommentService(reportRepo, gate, cfg.Reports.CommentMaxLength, validate, logr)
	staffSvc := service.NewStaffService(staffRepo, hierarchy, audit, validate, logr)
	customerSvc := service.NewCustomerService(customerRepo, validate, logr)
	exportSvc := service.NewExportService(reportSvc, logr, nil, nil)

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	return &dependencies{
		logger:    logr,
		metrics:   metrics,
		audit:     audit,
		auth:      authSvc,
		authH:     handler.NewAuthHandler(authSvc),
		staffH:    handler.NewStaffHandler(staffSvc),
		customerH: handler.NewCustomerHandler(customerSvc),
		reportH:   handler.NewReportHandler(reportSvc, commentSvc, exportSvc),
		metricsH:  handler.NewMetricsHandler(metrics, checks),
	}
}

func registerRoutes(r *gin.Engine, cfg *config.Config, deps *dependencies) {
	r.GET("/health", deps.metricsH.Health)
	r.GET("/ready", deps.metricsH.Ready)
	r.GET("/metrics", deps.metricsH.Prometheus)

	if cfg.Env != config.EnvProduction || cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", deps.authH.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.auth))
	secured.PUT("/auth/password", deps.authH.ChangePassword)
	secured.GET("/me", deps.authH.Me)

	staff := secured.Group("/staff")
	staff.GET("", deps.staffH.List)
	staff.GET("/:id", deps.staffH.Get)
	staff.POST("", middleware.RequireManager(), deps.staffH.Create)
	staff.PUT("/:id", middleware.RequireManager(), deps.staffH.Update)
	staff.DELETE("/:id", middleware.RequireManager(), deps.staffH.Delete)

	customers := secured.Group("/customers")
	customers.GET("", deps.customerH.List)
	customers.GET("/:id", deps.customerH.Get)
	customers.POST("", middleware.Audit(deps.audit, deps.logger, models.AuditActionCustomerCreate, "customer"), deps.customerH.Create)
	customers.PUT("/:id", middleware.Audit(deps.audit, deps.logger, models.AuditActionCustomerUpdate, "customer"), deps.customerH.Update)

	reports := secured.Group("/reports")
	reports.GET("", deps.reportH.List)
	reports.POST("", deps.reportH.Create)
	reports.GET("/pending", middleware.RequireManager(), deps.reportH.Pending)
	reports.GET("/export", deps.reportH.Export)
	reports.GET("/:id", deps.reportH.Get)
	reports.PUT("/:id", deps.reportH.Update)
	reports.DELETE("/:id", deps.reportH.Delete)
	reports.POST("/:id/submit", deps.reportH.Submit)
	reports.POST("/:id/approve", deps.reportH.Approve)
	reports.POST("/:id/reject", deps.reportH.Reject)
	reports.POST("/:id/comments", deps.reportH.Comment)
}
