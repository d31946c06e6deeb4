// Package dependency provides dependency injection for the application.
package dependency

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/todo-app/backend/config"
	"github.com/todo-app/backend/internal/application/usecase/auth"
	"github.com/todo-app/backend/internal/application/usecase/todo"
	"github.com/todo-app/backend/internal/infra/db"
	"github.com/todo-app/backend/internal/infra/server/router"
	"github.com/todo-app/backend/internal/integration/adapters"
	"github.com/todo-app/backend/internal/integration/cache"
	"github.com/todo-app/backend/internal/integration/entrypoint/controller"
	"github.com/todo-app/backend/internal/integration/entrypoint/middleware"
	"github.com/todo-app/backend/internal/integration/persistence"
)

// tracerName identifies spans emitted by the application.
const tracerName = "github.com/todo-app/backend"

// Options overrides defaults chosen by NewInjector.
type Options struct {
	// BcryptCost defaults to adapters.DefaultBcryptCost.
	BcryptCost int
}

// Injector holds all application dependencies.
type Injector struct {
	Config   *config.Config
	Database *db.Database
	Redis    *redis.Client
	Router   *router.Router
}

// NewInjector creates a new dependency injector with all dependencies wired.
func NewInjector(cfg *config.Config, database *db.Database, redisClient *redis.Client, opts Options) *Injector {
	gormDB := database.DB()

	// Create adapters/services
	crashReporter := adapters.NewLogCrashReporter(nil)
	instrumentation := adapters.NewOtelInstrumentation(otel.Tracer(tracerName))
	passwordService := adapters.NewPasswordService(opts.BcryptCost)
	txManager := db.NewTransactionManager(database)

	// Create repositories
	userRepo := persistence.NewUserRepository(gormDB)
	todoRepo := persistence.NewTodoRepository(gormDB, crashReporter)
	sessionRepo := cache.NewSessionRepository(redisClient)

	authService := adapters.NewAuthenticationService(sessionRepo, userRepo, cfg.Session)

	// Create auth use cases
	signUpUseCase := auth.NewSignUpUseCase(userRepo, passwordService, authService)
	signInUseCase := auth.NewSignInUseCase(userRepo, passwordService, authService)
	signOutUseCase := auth.NewSignOutUseCase(authService)

	// Create todo use cases
	toggleTodoUseCase := todo.NewToggleTodoUseCase(todoRepo, instrumentation)
	deleteTodoUseCase := todo.NewDeleteTodoUseCase(todoRepo, instrumentation)
	bulkUpdateUseCase := todo.NewBulkUpdateTodosUseCase(
		instrumentation,
		crashReporter,
		authService,
		txManager,
		toggleTodoUseCase,
		deleteTodoUseCase,
		todo.BulkUpdateConfig{
			Timeout:        cfg.Bulk.Timeout,
			MaxConcurrency: cfg.Bulk.MaxConcurrency,
		},
	)
	listTodosUseCase := todo.NewListTodosUseCase(todoRepo)
	createTodoUseCase := todo.NewCreateTodoUseCase(todoRepo, instrumentation)

	// Create controllers
	healthController := controller.NewHealthController(database.HealthCheck, func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return redisClient.Ping(ctx).Err() == nil
	})
	authController := controller.NewAuthController(signUpUseCase, signInUseCase, signOutUseCase, cfg.Session.CookieName)
	todoController := controller.NewTodoController(listTodosUseCase, createTodoUseCase, bulkUpdateUseCase, cfg.Session.CookieName)

	// Create middleware
	signInRateLimiter := middleware.NewRateLimiter(
		cache.NewFixedWindowLimiter(redisClient, cfg.RateLimit.SignInAttempts, cfg.RateLimit.SignInWindow),
		"sign-in",
	)
	authMiddleware := middleware.NewAuthMiddleware(authService, cfg.Session.CookieName)

	r := router.NewRouter(healthController, authController, todoController, signInRateLimiter, authMiddleware)

	return &Injector{
		Config:   cfg,
		Database: database,
		Redis:    redisClient,
		Router:   r,
	}
}
