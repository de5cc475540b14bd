package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sma-adp-api/api/swagger"
	"github.com/noah-isme/sma-adp-api/internal/handler"
	"github.com/noah-isme/sma-adp-api/internal/repository"
	"github.com/noah-isme/sma-adp-api/internal/service"
	"github.com/noah-isme/sma-adp-api/pkg/cache"
	"github.com/noah-isme/sma-adp-api/pkg/config"
	"github.com/noah-isme/sma-adp-api/pkg/database"
	"github.com/noah-isme/sma-adp-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-adp-api/pkg/middleware/cors"
	metricsmiddleware "github.com/noah-isme/sma-adp-api/pkg/middleware/metrics"
	reqidmiddleware "github.com/noah-isme/sma-adp-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-adp-api/pkg/metrics"
)

// @title Timetable Service
// @version 0.1.0
// @description Constraint-driven school timetable generator
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

	recorder := metrics.NewRecorder()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise database", "error", err)
	}
	defer db.Close()

	var cacheRepo service.CacheRepository
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("proposal cache disabled", "error", err)
		} else {
			defer client.Close()
			cacheRepo = repository.NewCacheRepository(client, logr)
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(metricsmiddleware.New(recorder))

	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/ready", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(recorder.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	teacherRepo := repository.NewTeacherRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	termRepo := repository.NewTermRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	assignmentRepo := repository.NewTeacherAssignmentRepository(db)
	preferenceRepo := repository.NewTeacherPreferenceRepository(db)
	semesterScheduleRepo := repository.NewSemesterScheduleRepository(db)
	semesterSlotRepo := repository.NewSemesterScheduleSlotRepository(db)

	teacherSvc := service.NewTeacherService(teacherRepo, nil, logr)
	classSvc := service.NewClassService(classRepo, subjectRepo, nil, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, nil, logr)
	termSvc := service.NewTermService(termRepo, nil, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, nil, logr)
	assignmentSvc := service.NewTeacherAssignmentService(
		teacherRepo,
		classRepo,
		subjectRepo,
		termRepo,
		assignmentRepo,
		scheduleRepo,
		preferenceRepo,
		nil,
		logr,
	)
	preferenceSvc := service.NewTeacherPreferenceService(teacherRepo, preferenceRepo, nil, logr)

	schedulerSvc := service.NewScheduleGeneratorService(
		termRepo,
		classRepo,
		subjectRepo,
		teacherRepo,
		assignmentRepo,
		preferenceRepo,
		classroomRepo,
		scheduleRepo,
		semesterScheduleRepo,
		semesterSlotRepo,
		cacheRepo,
		db,
		recorder,
		nil,
		logr,
		service.ScheduleGeneratorConfig{
			ProposalTTL:           cfg.Scheduler.ProposalTTL,
			DefaultBacktrackLimit: cfg.Scheduler.DefaultBacktrackLimit,
		},
	)

	teacherHandler := handler.NewTeacherHandler(teacherSvc, assignmentSvc, preferenceSvc)
	classHandler := handler.NewClassHandler(classSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	termHandler := handler.NewTermHandler(termSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	schedulePreferenceHandler := handler.NewSchedulePreferenceHandler(preferenceSvc)
	schedulerHandler := handler.NewScheduleGeneratorHandler(schedulerSvc)

	teachersGroup := api.Group("/teachers")
	teachersGroup.GET("", teacherHandler.List)
	teachersGroup.POST("", teacherHandler.Create)
	teachersGroup.GET("/:id", teacherHandler.Get)
	teachersGroup.PUT("/:id", teacherHandler.Update)
	teachersGroup.DELETE("/:id", teacherHandler.Delete)
	teachersGroup.GET("/:id/assignments", teacherHandler.ListAssignments)
	teachersGroup.POST("/:id/assignments", teacherHandler.CreateAssignment)
	teachersGroup.DELETE("/:id/assignments/:aid", teacherHandler.DeleteAssignment)
	teachersGroup.GET("/:id/preferences", teacherHandler.GetPreferences)
	teachersGroup.PUT("/:id/preferences", teacherHandler.UpsertPreferences)

	classesGroup := api.Group("/classes")
	classesGroup.GET("", classHandler.List)
	classesGroup.POST("", classHandler.Create)
	classesGroup.GET("/:id", classHandler.Get)
	classesGroup.PUT("/:id", classHandler.Update)
	classesGroup.DELETE("/:id", classHandler.Delete)

	subjectsGroup := api.Group("/subjects")
	subjectsGroup.GET("", subjectHandler.List)
	subjectsGroup.POST("", subjectHandler.Create)
	subjectsGroup.GET("/:id", subjectHandler.Get)
	subjectsGroup.PUT("/:id", subjectHandler.Update)
	subjectsGroup.DELETE("/:id", subjectHandler.Delete)

	termsGroup := api.Group("/terms")
	termsGroup.GET("", termHandler.List)
	termsGroup.POST("", termHandler.Create)
	termsGroup.GET("/active", termHandler.GetActive)
	termsGroup.PUT("/:id", termHandler.Update)
	termsGroup.POST("/set-active", termHandler.SetActive)
	termsGroup.DELETE("/:id", termHandler.Delete)

	schedulesGroup := api.Group("/schedules")
	schedulesGroup.GET("", scheduleHandler.List)
	classesGroup.GET("/:id/schedules", scheduleHandler.ListByClass)
	teachersGroup.GET("/:id/schedules", scheduleHandler.ListByTeacher)
	schedulesGroup.POST("", scheduleHandler.Create)
	schedulesGroup.POST("/bulk", scheduleHandler.BulkCreate)
	schedulesGroup.PUT("/:id", scheduleHandler.Update)
	schedulesGroup.DELETE("/:id", scheduleHandler.Delete)
	schedulesGroup.GET("/preferences", schedulePreferenceHandler.Get)
	schedulesGroup.POST("/preferences", schedulePreferenceHandler.Upsert)

	api.POST("/schedule/generate", schedulerHandler.Generate)
	api.POST("/schedules/generator", schedulerHandler.GenerateAlias)
	api.POST("/schedule/save", schedulerHandler.Save)
	api.GET("/semester-schedule", schedulerHandler.List)
	api.GET("/semester-schedule/:id/slots", schedulerHandler.Slots)
	api.DELETE("/semester-schedule/:id", schedulerHandler.Delete)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("timetable service starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
