package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/vuphan179/ieltsprep/config"
	"github.com/vuphan179/ieltsprep/database"
	adminctrl "github.com/vuphan179/ieltsprep/internal/controller/admin"
	userctrl "github.com/vuphan179/ieltsprep/internal/controller/user"
	"github.com/vuphan179/ieltsprep/internal/logger"
	"github.com/vuphan179/ieltsprep/internal/model"
	"github.com/vuphan179/ieltsprep/internal/repository"
	"github.com/vuphan179/ieltsprep/internal/service"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title IELTS Prep API
// @version 1.0
// @description API for IELTS practice: listening tests with automatic scoring and band conversion, plus AI writing feedback.
// @contact.name API Support
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
		),

		fx.Provide(
			repository.NewTestRepository,
			repository.NewQuestionRepository,
			repository.NewListeningAttemptRepository,
			repository.NewAnswerRecordRepository,
			repository.NewWritingAttemptRepository,
		),

		fx.Provide(
			service.NewTestService,
			service.NewAdminTestService,
			service.NewSubmissionService,
			service.NewWritingFeedbackService,
		),

		fx.Provide(
			adminctrl.NewAdminTestController,
			userctrl.NewUserTestController,
			userctrl.NewWritingController,
		),

		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(AutoMigrateDB),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// URL: http://localhost:PORT/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer configures API routes and manages the server
// lifecycle through fx hooks.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	adminTestCtrl *adminctrl.AdminTestController,
	userTestCtrl *userctrl.UserTestController,
	writingCtrl *userctrl.WritingController,
) {
	adminAPIGroup := router.Group("/api/v1/admin")
	{
		adminAPIGroup.POST("/tests", adminTestCtrl.CreateTest)
	}

	userAPIGroup := router.Group("/api/v1")
	{
		userAPIGroup.GET("/tests", userTestCtrl.GetAllTests)
		userAPIGroup.GET("/tests/:test_id", userTestCtrl.GetTestDetails)
		userAPIGroup.GET("/tests/:test_id/my-attempts", userTestCtrl.GetMyAttempts)

		userAPIGroup.POST("/attempts", userTestCtrl.StartAttempt)
		userAPIGroup.PUT("/attempts/:attempt_id/answers", userTestCtrl.SaveAnswers)
		userAPIGroup.POST("/attempts/:attempt_id/submit", userTestCtrl.SubmitAttempt)
		userAPIGroup.GET("/attempts/:attempt_id", userTestCtrl.GetAttemptDetails)

		userAPIGroup.POST("/writing/feedback", writingCtrl.GetWritingFeedback)
		userAPIGroup.GET("/writing/attempts", writingCtrl.GetWritingHistory)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("IELTS Prep API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.Test{},
		&model.Question{},
		&model.ListeningAttempt{},
		&model.AnswerRecord{},
		&model.WritingAttempt{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully")
	return nil
}
