package entrypoint

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/library/internal/analytics"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	analyticsrepo "github.com/mrlokans/library/internal/database/analytics"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/users"
	http_controllers "github.com/mrlokans/library/internal/http"
	"github.com/mrlokans/library/internal/scheduler"
	"github.com/mrlokans/library/internal/storage"
	"github.com/mrlokans/library/internal/tasks"
	"github.com/mrlokans/library/web"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill -2 is SIGINT, plain kill is SIGTERM; SIGKILL cannot be caught
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the listener goes away
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// OpenDatabase connects to the configured catalog database with a log level
// suited to the environment.
func OpenDatabase(cfg *config.Config) (*database.Database, error) {
	logLevel := logger.Info
	if cfg.Global.IsProduction() {
		logLevel = logger.Warn
	}
	return database.NewDatabase(cfg.Database.URL, logLevel)
}

// NewSessionManager keeps sessions in the catalog database on SQLite and in
// memory otherwise.
func NewSessionManager(db *database.Database, cfg config.Auth) (*auth.SessionManager, error) {
	if !db.IsSQLite() {
		log.Printf("[AUTH] Using in-memory session store for %s", db.Dialect)
		return auth.NewSessionManager(nil, cfg)
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get SQL DB for sessions: %w", err)
	}
	return auth.NewSessionManager(sqlDB, cfg)
}

// CSRFKey derives the 32-byte CSRF key from the configured secret. An empty
// secret gets a random one, so tokens do not survive a restart.
func CSRFKey(secret string) ([]byte, error) {
	if secret == "" {
		generated, err := auth.GenerateSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate CSRF secret: %w", err)
		}
		log.Printf("WARNING: SECRET_KEY is not set. Generated a temporary secret; forms will expire on restart.")
		secret = generated
	}
	key := sha256.Sum256([]byte(secret))
	return key[:], nil
}

// bootstrapAdmin provisions the admin account from ADMIN_PASSWORD when set.
func bootstrapAdmin(service *auth.Service, cfg config.Admin) {
	if cfg.Password == "" {
		hasUsers, err := service.HasUsers()
		if err == nil && !hasUsers {
			log.Printf("No admin account found. Run '%s create-admin' or set ADMIN_PASSWORD.", os.Args[0])
		}
		return
	}

	user, created, err := service.ProvisionAdmin(cfg.Username, cfg.Email, cfg.Password)
	if err != nil {
		log.Fatalf("Failed to provision admin %q: %v", cfg.Username, err)
	}
	if created {
		log.Printf("[AUTH] Created admin account %q", user.Username)
	}
}

// maintenance holds the optional task queue and its scheduler.
type maintenance struct {
	client    *tasks.Client
	scheduler *scheduler.MaintenanceScheduler
	cancel    context.CancelFunc
}

func startMaintenance(cfg config.Tasks, files *storage.FileStore, bookRepo *books.Repository, analyticsRepo *analyticsrepo.Repository) *maintenance {
	taskCfg := tasks.FromSettings(cfg)

	client, err := tasks.NewClient(taskCfg)
	if err != nil {
		log.Fatalf("Failed to initialize task queue: %v", err)
	}

	client.Register(
		tasks.NewSweepOrphanUploadsQueue(files, bookRepo, taskCfg.OrphanMinAge),
		tasks.NewBackfillAnalyticsQueue(analyticsRepo),
	)

	ctx, cancel := context.WithCancel(context.Background())
	go client.Start(ctx)

	factories := make([]func() backlite.Task, 0, len(tasks.TaskTypes))
	for _, t := range tasks.TaskTypes {
		factories = append(factories, t.New)
	}

	sched := scheduler.NewMaintenanceScheduler(client, cfg.MaintenanceSchedule, factories...)
	if err := sched.Start(ctx); err != nil {
		log.Printf("WARNING: Maintenance schedule disabled: %v", err)
		sched = nil
	}

	return &maintenance{client: client, scheduler: sched, cancel: cancel}
}

func (m *maintenance) stop(ctx context.Context) {
	if m.scheduler != nil {
		m.scheduler.Stop()
	}
	m.client.Stop(ctx)
	m.cancel()
	if err := m.client.Close(); err != nil {
		log.Printf("Error closing task client: %v", err)
	}
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Library v%s (%s)", version, cfg.Global.Environment)

	if cfg.Global.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := OpenDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	files, err := storage.NewFileStore(cfg.Uploads.Dir)
	if err != nil {
		log.Fatalf("Failed to initialize upload directory: %v", err)
	}
	log.Printf("Uploads stored under %s", files.Root())

	bookRepo := books.NewRepository(db.DB)
	analyticsRepo := analyticsrepo.NewRepository(db.DB)
	userRepo := users.NewRepository(db.DB)
	recorder := analytics.NewRecorder(analyticsRepo)

	// Authentication
	authService := auth.NewService(userRepo, cfg.Auth)
	bootstrapAdmin(authService, cfg.Admin)

	sessionManager, err := NewSessionManager(db, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}
	authMiddleware := auth.NewMiddleware(userRepo, sessionManager)
	rateLimiter := auth.NewRateLimiter(cfg.Auth)

	csrfSecret, err := CSRFKey(cfg.Auth.SecretKey)
	if err != nil {
		log.Fatalf("%v", err)
	}

	templates, err := web.ParseTemplates()
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Books:          bookRepo,
		Recorder:       recorder,
		Analytics:      analyticsRepo,
		Files:          files,
		Database:       db,
		UploadsRoot:    files.Root(),
		MaxUploadSize:  cfg.Uploads.MaxSize,
		Templates:      templates,
		StaticFS:       web.StaticFS(),
		AuthService:    authService,
		SessionManager: sessionManager,
		AuthMiddleware: authMiddleware,
		RateLimiter:    rateLimiter,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		Version:        version,
	}

	// Maintenance queue (optional)
	var tasksRuntime *maintenance
	if cfg.Tasks.Enabled {
		tasksRuntime = startMaintenance(cfg.Tasks, files, bookRepo, analyticsRepo)
		routerCfg.TaskQueue = tasksRuntime.client
		routerCfg.Scheduler = tasksRuntime.scheduler
	} else {
		log.Printf("Maintenance tasks disabled (set TASKS_ENABLED=true to enable)")
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if tasksRuntime != nil {
			tasksRuntime.stop(ctx)
		}
		rateLimiter.Stop()
	}

	Serve(router, cfg, onShutdown)
}
