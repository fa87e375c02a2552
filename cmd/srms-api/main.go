package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/aryaniscoding/dbms-project-TE/api/swagger"
	"github.com/aryaniscoding/dbms-project-TE/internal/handler"
	"github.com/aryaniscoding/dbms-project-TE/internal/middleware"
	"github.com/aryaniscoding/dbms-project-TE/internal/models"
	"github.com/aryaniscoding/dbms-project-TE/internal/repository"
	"github.com/aryaniscoding/dbms-project-TE/internal/service"
	"github.com/aryaniscoding/dbms-project-TE/pkg/cache"
	"github.com/aryaniscoding/dbms-project-TE/pkg/config"
	"github.com/aryaniscoding/dbms-project-TE/pkg/database"
	"github.com/aryaniscoding/dbms-project-TE/pkg/export"
	"github.com/aryaniscoding/dbms-project-TE/pkg/logger"
	corsmiddleware "github.com/aryaniscoding/dbms-project-TE/pkg/middleware/cors"
	reqidmiddleware "github.com/aryaniscoding/dbms-project-TE/pkg/middleware/requestid"
)

// @title Student Result Management API
// @version 1.0.0
// @description Role-based academic records backend: marks, grades and results
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

	cacheRepo := repository.NewCacheRepository(nil, logr)
	if cfg.Results.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, result caching disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close()
		}
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	markRepo := repository.NewMarkRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	accessSvc := service.NewAccessService(subjectRepo, userRepo)
	userSvc := service.NewUserService(userRepo, studentRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, export.NewCSVExporter(), validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, userRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, subjectRepo, validate, logr)
	metricsSvc := service.NewMetricsService()
	markSvc := service.NewMarkService(markRepo, studentRepo, accessSvc, cacheRepo, metricsSvc, validate, logr)
	resultSvc := service.NewResultService(markRepo, studentRepo, accessSvc, cacheRepo, export.NewPDFExporter(), metricsSvc, cfg.Results.CacheTTL, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	markHandler := handler.NewMarkHandler(markSvc)
	resultHandler := handler.NewResultHandler(resultSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	admin := api.Group("/admin", middleware.JWT(authSvc), middleware.RBAC(models.RoleAdmin))
	admin.GET("/users", userHandler.List)
	admin.POST("/users", userHandler.Create)
	admin.GET("/students", studentHandler.List)
	admin.POST("/students", studentHandler.Create)
	admin.GET("/students/export", studentHandler.ExportCSV)
	admin.GET("/students/:id", studentHandler.Get)
	admin.GET("/subjects", subjectHandler.List)
	admin.POST("/subjects", subjectHandler.Create)
	admin.PUT("/subjects/:id/teacher", subjectHandler.AssignTeacher)
	admin.GET("/enrollments", enrollmentHandler.List)
	admin.POST("/enrollments", enrollmentHandler.Create)

	teacher := api.Group("/teacher", middleware.JWT(authSvc), middleware.RBAC(models.RoleTeacher))
	teacher.GET("/subjects", subjectHandler.MySubjects)
	teacher.POST("/marks", markHandler.Submit)

	student := api.Group("/student", middleware.JWT(authSvc), middleware.RBAC(models.RoleStudent))
	student.GET("/me", resultHandler.Me)
	student.GET("/result", resultHandler.MyResult)
	student.GET("/result/pdf", resultHandler.MyResultPDF)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
