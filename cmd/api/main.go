package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/edu-markaz/center-api/api/swagger"
	"github.com/edu-markaz/center-api/internal/handler"
	"github.com/edu-markaz/center-api/internal/middleware"
	"github.com/edu-markaz/center-api/internal/repository"
	"github.com/edu-markaz/center-api/internal/service"
	"github.com/edu-markaz/center-api/pkg/cache"
	"github.com/edu-markaz/center-api/pkg/config"
	"github.com/edu-markaz/center-api/pkg/database"
	"github.com/edu-markaz/center-api/pkg/logger"
	corsmiddleware "github.com/edu-markaz/center-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edu-markaz/center-api/pkg/middleware/requestid"
)

// @title Edu Markaz Center API
// @version 1.0.0
// @description Administrative backend for the learning center
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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, group cache disabled", "error", err)
		redisClient = nil
	}

	validate := service.NewValidator()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	dayRepo := repository.NewDayRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	homeworkRepo := repository.NewHomeworkRepository(db)
	examRepo := repository.NewExamRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr).WithMetrics(metricsSvc)

	userSvc := service.NewUserService(userRepo, validate, logr)
	salarySvc := service.NewSalaryService(employeeRepo, logr).WithMetrics(metricsSvc)
	employeeSvc := service.NewEmployeeService(employeeRepo, userSvc, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, userSvc, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, salarySvc, validate, logr)
	roomSvc := service.NewRoomService(roomRepo, validate, logr)
	daySvc := service.NewDayService(dayRepo, validate, logr)
	groupSvc := service.NewGroupService(groupRepo, cacheRepo, cfg.Cache, validate, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, validate, logr)
	homeworkSvc := service.NewHomeworkService(homeworkRepo, groupRepo, employeeRepo, validate, logr)
	examSvc := service.NewExamService(examRepo, groupRepo, roomRepo, validate, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, employeeRepo, validate, logr)
	exportSvc := service.NewExportService(paymentRepo, cfg.Exports, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	employeeHandler := handler.NewEmployeeHandler(employeeSvc, salarySvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	roomHandler := handler.NewRoomHandler(roomSvc)
	dayHandler := handler.NewDayHandler(daySvc)
	groupHandler := handler.NewGroupHandler(groupSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, exportSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	homeworkHandler := handler.NewHomeworkHandler(homeworkSvc)
	examHandler := handler.NewExamHandler(examSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db, cacheRepo)

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
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc), middleware.RequireStaff())
	{
		users := protected.Group("/users")
		{
			users.GET("", userHandler.List)
			users.POST("", userHandler.Create)
			users.POST("/superuser", middleware.RequireSuperuser(), userHandler.CreateSuperuser)
			users.GET("/:id", userHandler.Get)
			users.PUT("/:id", userHandler.Update)
			users.DELETE("/:id", userHandler.Delete)
		}

		employees := protected.Group("/employees")
		{
			employees.GET("", employeeHandler.List)
			employees.POST("", employeeHandler.Create)
			employees.GET("/:id", employeeHandler.Get)
			employees.PUT("/:id", employeeHandler.Update)
			employees.DELETE("/:id", employeeHandler.Delete)
			employees.POST("/:id/salary", employeeHandler.RecomputeSalary)
		}

		students := protected.Group("/students")
		{
			students.GET("", studentHandler.List)
			students.POST("", studentHandler.Create)
			students.GET("/:id", studentHandler.Get)
			students.PUT("/:id", studentHandler.Update)
			students.DELETE("/:id", studentHandler.Delete)
		}

		courses := protected.Group("/courses")
		{
			courses.GET("", courseHandler.List)
			courses.POST("", courseHandler.Create)
			courses.GET("/:id", courseHandler.Get)
			courses.PUT("/:id", courseHandler.Update)
			courses.DELETE("/:id", courseHandler.Delete)
		}

		rooms := protected.Group("/rooms")
		{
			rooms.GET("", roomHandler.List)
			rooms.POST("", roomHandler.Create)
			rooms.GET("/:id", roomHandler.Get)
			rooms.PUT("/:id", roomHandler.Update)
			rooms.DELETE("/:id", roomHandler.Delete)
		}

		days := protected.Group("/days")
		{
			days.GET("", dayHandler.List)
			days.POST("", dayHandler.Create)
			days.GET("/:id", dayHandler.Get)
			days.PUT("/:id", dayHandler.Update)
			days.DELETE("/:id", dayHandler.Delete)
		}

		groups := protected.Group("/groups")
		{
			groups.GET("", groupHandler.List)
			groups.POST("", groupHandler.Create)
			groups.GET("/:id", groupHandler.Get)
			groups.PUT("/:id", groupHandler.Update)
			groups.DELETE("/:id", groupHandler.Delete)
			groups.POST("/:id/students", groupHandler.AddStudent)
			groups.DELETE("/:id/students/:uid", groupHandler.RemoveStudent)
			groups.POST("/:id/students/:uid/archive", groupHandler.ArchiveStudent)
		}

		payments := protected.Group("/payments")
		{
			payments.GET("", paymentHandler.List)
			payments.POST("", paymentHandler.Create)
			payments.GET("/export", paymentHandler.Export)
			payments.GET("/:id", paymentHandler.Get)
			payments.PUT("/:id", paymentHandler.Update)
			payments.DELETE("/:id", paymentHandler.Delete)
		}

		attendances := protected.Group("/attendances")
		{
			attendances.GET("", attendanceHandler.List)
			attendances.POST("", attendanceHandler.Create)
			attendances.GET("/:id", attendanceHandler.Get)
			attendances.PUT("/:id", attendanceHandler.Update)
			attendances.DELETE("/:id", attendanceHandler.Delete)
		}

		homeworks := protected.Group("/homeworks")
		{
			homeworks.GET("", homeworkHandler.List)
			homeworks.POST("", homeworkHandler.Create)
			homeworks.GET("/:id", homeworkHandler.Get)
			homeworks.PUT("/:id", homeworkHandler.Update)
			homeworks.DELETE("/:id", homeworkHandler.Delete)
		}

		exams := protected.Group("/exams")
		{
			exams.GET("", examHandler.List)
			exams.POST("", examHandler.Create)
			exams.GET("/:id", examHandler.Get)
			exams.PUT("/:id", examHandler.Update)
			exams.DELETE("/:id", examHandler.Delete)
		}

		notifications := protected.Group("/notifications")
		{
			notifications.GET("", notificationHandler.List)
			notifications.POST("", notificationHandler.Create)
			notifications.GET("/:id", notificationHandler.Get)
			notifications.PUT("/:id", notificationHandler.Update)
			notifications.DELETE("/:id", notificationHandler.Delete)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
