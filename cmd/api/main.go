package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/campuscore/college-admin-api/api/swagger"
	"github.com/campuscore/college-admin-api/internal/handler"
	"github.com/campuscore/college-admin-api/internal/middleware"
	"github.com/campuscore/college-admin-api/internal/repository"
	"github.com/campuscore/college-admin-api/internal/service"
	"github.com/campuscore/college-admin-api/pkg/cache"
	"github.com/campuscore/college-admin-api/pkg/config"
	"github.com/campuscore/college-admin-api/pkg/database"
	"github.com/campuscore/college-admin-api/pkg/export"
	"github.com/campuscore/college-admin-api/pkg/logger"
	corsmiddleware "github.com/campuscore/college-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campuscore/college-admin-api/pkg/middleware/requestid"
	"github.com/campuscore/college-admin-api/pkg/storage"
)

// @title College Admin API
// @version 1.0.0
// @description Administration backend for faculty, departments, subjects and classes.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	validate := validator.New()

	facultyRepo := repository.NewFacultyRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	classRepo := repository.NewClassRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	var cacheService *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheService = service.NewCacheService(cacheRepo, cfg.Cache.DefaultTTL, logr)
		}
	}

	metricsService := service.NewMetricsService()
	coordinator := service.NewHodCoordinator(facultyRepo, departmentRepo, auditRepo, metricsService, logr)

	authService := service.NewAuthService(adminRepo, auditRepo, cfg.JWT, cfg.Auth.MaxFailedLogins, validate, logr)
	facultyService := service.NewFacultyService(facultyRepo, coordinator, cacheService, validate, logr)
	departmentService := service.NewDepartmentService(departmentRepo, coordinator, auditRepo, cacheService, validate, logr)
	subjectService := service.NewSubjectService(subjectRepo, departmentRepo, cacheService, validate, logr)
	classService := service.NewClassService(classRepo, facultyRepo, departmentRepo, cacheService, validate, logr)
	adminService := service.NewAdminService(adminRepo, auditRepo, validate, logr)

	registry := handler.Registry{
		Auth:       handler.NewAuthHandler(authService),
		Faculty:    handler.NewFacultyHandler(facultyService),
		Department: handler.NewDepartmentHandler(departmentService),
		Subject:    handler.NewSubjectHandler(subjectService),
		Class:      handler.NewClassHandler(classService),
		Admin:      handler.NewAdminHandler(adminService),
	}

	if cfg.Dashboard.Enabled {
		dashboardService := service.NewDashboardService(facultyRepo, departmentRepo, subjectRepo, classRepo, auditRepo, cacheService, logr)
		registry.Dashboard = handler.NewDashboardHandler(dashboardService)
	}
	if cfg.Exports.Enabled {
		exportService := service.NewExportService(facultyRepo, departmentRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)

		exportStore, err := storage.NewLocalStorage(cfg.Exports.Dir)
		if err != nil {
			logr.Warn("export storage unavailable, async exports disabled", zap.Error(err))
			registry.Export = handler.NewExportHandler(exportService, nil)
		} else {
			signer := storage.NewTicketSigner(cfg.JWT.Secret, cfg.Exports.LinkTTL)
			exportJobs := service.NewExportJobService(exportService, exportStore, signer, cfg.Exports.Workers, cfg.Exports.LinkTTL, logr)
			exportJobs.Start(context.Background())
			defer exportJobs.Stop()
			registry.Export = handler.NewExportHandler(exportService, exportJobs)
		}
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, registry, authService)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
