package main

import (
	"context"
	"fmt"
	"log"
	"net/http/pprof"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sma-adp-scheduler/api/swagger"
	internalhandler "github.com/noah-isme/sma-adp-scheduler/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-adp-scheduler/internal/middleware"
	"github.com/noah-isme/sma-adp-scheduler/internal/models"
	"github.com/noah-isme/sma-adp-scheduler/internal/repository"
	"github.com/noah-isme/sma-adp-scheduler/internal/scheduler"
	"github.com/noah-isme/sma-adp-scheduler/internal/service"
	"github.com/noah-isme/sma-adp-scheduler/pkg/cache"
	"github.com/noah-isme/sma-adp-scheduler/pkg/config"
	"github.com/noah-isme/sma-adp-scheduler/pkg/database"
	"github.com/noah-isme/sma-adp-scheduler/pkg/jobs"
	"github.com/noah-isme/sma-adp-scheduler/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-adp-scheduler/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-adp-scheduler/pkg/middleware/requestid"
	"github.com/noah-isme/sma-adp-scheduler/pkg/storage"
)

// @title SMA ADP Scheduler API
// @version 1.0.0
// @description Academic timetabling service built around a genetic-algorithm schedule generator
// @BasePath /
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsSvc := service.NewMetricsService()
	metricsHandler := internalhandler.NewMetricsHandler(metricsSvc)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise database", "error", err)
	}
	defer db.Close()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/system/metrics", metricsHandler.System)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		registerPprof(r)
	}

	api := r.Group(cfg.APIPrefix)

	userRepo := repository.NewUserRepository(db)
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "sma-adp-scheduler",
		Audience:           []string{"sma-adp-clients"},
	})
	authHandler := internalhandler.NewAuthHandler(authSvc)

	authRoutes := api.Group("/auth")
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/refresh", authHandler.Refresh)
	authRoutes.POST("/forgot-password", authHandler.ForgotPassword)
	authRoutes.POST("/reset-password", authHandler.ResetPassword)
	protectedAuth := authRoutes.Group("")
	protectedAuth.Use(internalmiddleware.JWT(authSvc))
	protectedAuth.POST("/logout", authHandler.Logout)
	protectedAuth.POST("/change-password", authHandler.ChangePassword)
	protectedAuth.GET("/me", authHandler.Me)

	// Domain repositories.
	departmentRepo := repository.NewDepartmentRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	facultyPrefRepo := repository.NewFacultyPreferenceRepository(db)
	termRepo := repository.NewTermRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	mappingRepo := repository.NewCourseMappingRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	semesterScheduleRepo := repository.NewSemesterScheduleRepository(db)
	semesterSlotRepo := repository.NewSemesterScheduleSlotRepository(db)

	var cacheCloser interface{ Close() error }
	var cacheRepo service.CacheRepository
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("cache disabled", "error", err)
	} else {
		cacheCloser = client
		cacheRepo = repository.NewCacheRepository(client, logr)
	}
	if cacheCloser != nil {
		defer cacheCloser.Close()
	}
	scheduleCache := service.NewCacheService(cacheRepo, metricsSvc, 10*time.Minute, logr, cacheRepo != nil)

	// Domain services.
	departmentSvc := service.NewDepartmentService(departmentRepo, nil, logr)
	facultySvc := service.NewFacultyService(facultyRepo, departmentRepo, nil, logr)
	mappingSvc := service.NewCourseMappingService(mappingRepo, semesterRepo, courseRepo, facultyRepo, nil, logr)
	facultyPrefSvc := service.NewFacultyPreferenceService(facultyRepo, facultyPrefRepo, nil, logr)
	termSvc := service.NewTermService(termRepo, nil, logr)
	semesterSvc := service.NewSemesterService(semesterRepo, nil, logr)
	courseSvc := service.NewCourseService(courseRepo, nil, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, nil, logr, scheduleCache)
	userSvc := service.NewUserService(userRepo, nil, logr)

	schedulerCfg := service.ScheduleGeneratorConfig{
		ProposalTTL: cfg.Scheduler.ProposalTTL,
		GA: scheduler.GAConfig{
			PopulationSize:      cfg.Scheduler.PopulationSize,
			Generations:         cfg.Scheduler.Generations,
			CrossoverRate:       cfg.Scheduler.CrossoverRate,
			MutationRate:        cfg.Scheduler.MutationRate,
			MutationChanceSmart: cfg.Scheduler.MutationChanceSmart,
			TournamentSize:      cfg.Scheduler.TournamentSize,
		},
	}
	if cfg.Scheduler.AcceptanceThreshold != 0 {
		threshold := cfg.Scheduler.AcceptanceThreshold
		schedulerCfg.GA.AcceptanceThreshold = &threshold
	}

	var schedulerHandler *internalhandler.ScheduleGeneratorHandler
	if cfg.Scheduler.Enabled {
		schedulerSvc := service.NewScheduleGeneratorService(
			termRepo,
			semesterRepo,
			courseRepo,
			facultyRepo,
			mappingRepo,
			facultyPrefRepo,
			semesterScheduleRepo,
			semesterSlotRepo,
			scheduleRepo,
			nil,
			logr,
			metricsSvc,
			schedulerCfg,
		)
		schedulerHandler = internalhandler.NewScheduleGeneratorHandler(schedulerSvc)
	}

	var reportHandler *internalhandler.ReportHandler
	if cfg.Reports.Enabled {
		fileStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportCfg := service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
			GA:        schedulerCfg.GA,
		}
		exportSvc := service.NewExportService(
			mappingRepo,
			facultyPrefRepo,
			courseRepo,
			facultyRepo,
			semesterScheduleRepo,
			semesterSlotRepo,
			fileStore,
			signer,
			exportCfg,
			logr,
			nil,
			nil,
		)

		reportRepo := repository.NewReportRepository(db)
		reportWorker := service.NewReportWorker(reportRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
		workers := cfg.Reports.WorkerConcurrency
		if workers <= 0 {
			workers = 1
		}
		queueCfg := jobs.QueueConfig{
			Workers:    workers,
			BufferSize: workers * 4,
			MaxRetries: cfg.Reports.WorkerRetries,
			RetryDelay: 5 * time.Second,
			Logger:     logr,
		}
		queueCtx, cancel := context.WithCancel(context.Background())
		reportQueue := jobs.NewQueue("reports", reportWorker.Handle, queueCfg)
		reportQueue.Start(queueCtx)
		defer func() {
			cancel()
			reportQueue.Stop()
		}()

		reportSvc := service.NewReportService(reportRepo, mappingRepo, reportQueue, exportSvc, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
			MaxRetries:      cfg.Reports.WorkerRetries,
		})
		reportSvc.RecoverPendingJobs(queueCtx)
		reportSvc.StartCleanup(queueCtx)
		reportHandler = internalhandler.NewReportHandler(reportSvc)
	}

	var archiveHandler *internalhandler.ArchiveHandler
	if cfg.Archives.Enabled {
		if cfg.Archives.SignedURLSecret == "" {
			logr.Sugar().Fatal("archives signed url secret not configured")
		}
		archiveRepo := repository.NewArchiveRepository(db)
		archiveStore, err := storage.NewLocalStorage(cfg.Archives.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init archive storage", "error", err)
		}
		archiveSigner := storage.NewSignedURLSigner(cfg.Archives.SignedURLSecret, cfg.Archives.SignedURLTTL)
		archiveSvc := service.NewArchiveService(
			archiveRepo,
			mappingRepo,
			semesterRepo,
			archiveStore,
			archiveSigner,
			userRepo,
			logr,
			service.ArchiveServiceConfig{
				MaxFileSize:  cfg.Archives.MaxFileSizeBytes,
				AllowedMIMEs: cfg.Archives.AllowedMIMEs,
				APIPrefix:    cfg.APIPrefix,
			},
		)
		archiveHandler = internalhandler.NewArchiveHandler(archiveSvc)
	}

	departmentHandler := internalhandler.NewDepartmentHandler(departmentSvc)
	facultyHandler := internalhandler.NewFacultyHandler(facultySvc, mappingSvc, facultyPrefSvc)
	termHandler := internalhandler.NewTermHandler(termSvc)
	semesterHandler := internalhandler.NewSemesterHandler(semesterSvc)
	courseHandler := internalhandler.NewCourseHandler(courseSvc)
	scheduleHandler := internalhandler.NewScheduleHandler(scheduleSvc)
	userHandler := internalhandler.NewUserHandler(userSvc)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))

	staff := internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin))
	anyRole := internalmiddleware.RBAC(string(models.RoleFaculty), string(models.RoleAdmin), string(models.RoleSuperAdmin))
	superOnly := internalmiddleware.RBAC(string(models.RoleSuperAdmin))

	usersGroup := secured.Group("/users")
	usersGroup.GET("", superOnly, userHandler.List)
	usersGroup.POST("", superOnly, userHandler.Create)
	usersGroup.GET("/:id", staff, userHandler.Get)
	usersGroup.PUT("/:id", superOnly, userHandler.Update)
	usersGroup.DELETE("/:id", superOnly, userHandler.Delete)

	departmentsGroup := secured.Group("/departments")
	departmentsGroup.GET("", anyRole, departmentHandler.List)
	departmentsGroup.POST("", staff, departmentHandler.Create)
	departmentsGroup.GET("/:id", anyRole, departmentHandler.Get)
	departmentsGroup.PUT("/:id", staff, departmentHandler.Update)
	departmentsGroup.DELETE("/:id", staff, departmentHandler.Delete)

	coursesGroup := secured.Group("/courses")
	coursesGroup.GET("", anyRole, courseHandler.List)
	coursesGroup.POST("", staff, courseHandler.Create)
	coursesGroup.GET("/:id", anyRole, courseHandler.Get)
	coursesGroup.PUT("/:id", staff, courseHandler.Update)
	coursesGroup.DELETE("/:id", staff, courseHandler.Delete)

	termsGroup := secured.Group("/terms")
	termsGroup.GET("", anyRole, termHandler.List)
	termsGroup.POST("", staff, termHandler.Create)
	termsGroup.GET("/active", anyRole, termHandler.GetActive)
	termsGroup.PUT("/:id", staff, termHandler.Update)
	termsGroup.PUT("/:id/activate", staff, termHandler.SetActive)
	termsGroup.DELETE("/:id", staff, termHandler.Delete)

	semestersGroup := secured.Group("/semesters")
	semestersGroup.GET("", anyRole, semesterHandler.List)
	semestersGroup.POST("", staff, semesterHandler.Create)
	semestersGroup.GET("/:id", anyRole, semesterHandler.Get)
	semestersGroup.PUT("/:id", staff, semesterHandler.Update)
	semestersGroup.DELETE("/:id", staff, semesterHandler.Delete)

	facultyGroup := secured.Group("/faculty")
	facultyGroup.GET("", staff, facultyHandler.List)
	facultyGroup.POST("", staff, facultyHandler.Create)
	facultyGroup.GET("/:id", anyRole, facultyHandler.Get)
	facultyGroup.PUT("/:id", staff, facultyHandler.Update)
	facultyGroup.DELETE("/:id", superOnly, facultyHandler.Delete)
	facultyGroup.GET("/:id/mappings", anyRole, facultyHandler.ListMappings)
	facultyGroup.POST("/:id/mappings", staff, facultyHandler.CreateMapping)
	facultyGroup.DELETE("/:id/mappings/:mid", staff, facultyHandler.DeleteMapping)
	facultyGroup.GET("/:id/preferences", anyRole, facultyHandler.GetPreferences)
	facultyGroup.POST("/:id/preferences", anyRole, facultyHandler.CreatePreference)
	facultyGroup.PUT("/:id/preferences", anyRole, facultyHandler.ReplacePreferences)
	facultyGroup.DELETE("/:id/preferences/:pid", anyRole, facultyHandler.DeletePreference)

	schedulesGroup := secured.Group("/schedules")
	schedulesGroup.Use(internalmiddleware.WithResponseMeta())
	schedulesGroup.GET("", anyRole, scheduleHandler.List)
	schedulesGroup.POST("", staff, scheduleHandler.Create)
	schedulesGroup.POST("/bulk", staff, scheduleHandler.BulkCreate)
	schedulesGroup.PUT("/:id", staff, scheduleHandler.Update)
	schedulesGroup.DELETE("/:id", staff, scheduleHandler.Delete)
	schedulesGroup.GET("/semester/:id", anyRole, scheduleHandler.ListBySemester)
	schedulesGroup.GET("/faculty/:id", anyRole, scheduleHandler.ListByFaculty)

	if schedulerHandler != nil {
		schedulerGroup := secured.Group("/schedules/generator")
		schedulerGroup.Use(staff)
		schedulerGroup.POST("", internalmiddleware.Audit(userRepo, "schedule.generate", "semester_schedule"), schedulerHandler.Generate)
		schedulerGroup.POST("/save", internalmiddleware.Audit(userRepo, "schedule.save", "semester_schedule"), schedulerHandler.Save)
		schedulerGroup.GET("", schedulerHandler.List)
		schedulerGroup.GET("/:id/slots", schedulerHandler.Slots)
		schedulerGroup.DELETE("/:id", superOnly, internalmiddleware.Audit(userRepo, "schedule.delete", "semester_schedule"), schedulerHandler.Delete)
	}

	if reportHandler != nil {
		reportsGroup := secured.Group("/reports")
		reportsGroup.POST("/generate", anyRole, reportHandler.GenerateReport)
		reportsGroup.GET("/status/:id", anyRole, reportHandler.ReportStatus)
		secured.GET("/export/:token", reportHandler.DownloadReport)
	}

	if archiveHandler != nil {
		archivesGroup := secured.Group("/archives")
		archivesGroup.POST("", staff, archiveHandler.Upload)
		archivesGroup.GET("", anyRole, archiveHandler.List)
		archivesGroup.GET("/:id", anyRole, archiveHandler.Get)
		archivesGroup.GET("/:id/download", anyRole, archiveHandler.Download)
		archivesGroup.DELETE("/:id", superOnly, archiveHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func registerPprof(r *gin.Engine) {
	group := r.Group("/debug/pprof")
	group.GET("/", gin.WrapF(pprof.Index))
	group.GET("/cmdline", gin.WrapF(pprof.Cmdline))
	group.GET("/profile", gin.WrapF(pprof.Profile))
	group.POST("/symbol", gin.WrapF(pprof.Symbol))
	group.GET("/symbol", gin.WrapF(pprof.Symbol))
	group.GET("/trace", gin.WrapF(pprof.Trace))
	group.GET("/allocs", gin.WrapH(pprof.Handler("allocs")))
	group.GET("/block", gin.WrapH(pprof.Handler("block")))
	group.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
	group.GET("/heap", gin.WrapH(pprof.Handler("heap")))
	group.GET("/mutex", gin.WrapH(pprof.Handler("mutex")))
	group.GET("/threadcreate", gin.WrapH(pprof.Handler("threadcreate")))
}
