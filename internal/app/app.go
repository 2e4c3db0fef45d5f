package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"stratus/internal/api"
	"stratus/internal/config"
	"stratus/internal/event"
	"stratus/internal/logger"
	"stratus/internal/poller"
	"stratus/internal/reconcile"
	"stratus/internal/service"
	"stratus/internal/storage"
	"stratus/internal/store"
)

const Version = "0.3.0"

type App struct {
	config  *config.Config
	store   *store.Store
	runs    *store.RunDB
	backend *storage.LocalBackend
	bus     *event.Bus

	userService      *service.UserService
	fileService      *service.FileService
	shareService     *service.ShareService
	reconcileService *service.ReconcileService

	auditPoller *poller.Poller
	httpServer  *http.Server
	router      *api.Router
}

func New(ctx context.Context) (*App, error) {
	cfg := config.Load()
	logger.New(cfg.LogLevel, cfg.Dev)

	s, err := store.New(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening index store: %w", err)
	}

	runs, err := store.NewRunDB(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening run store: %w", err)
	}

	backend, err := storage.NewLocalBackend(cfg.StorageRoot)
	if err != nil {
		return nil, fmt.Errorf("opening storage root: %w", err)
	}

	bus := event.NewBus()
	locks := store.NewKeyedMutex()

	// Repos
	ur := store.NewUserRepo(s.GetDB())
	fr := store.NewFileRepo(s.GetDB())
	shr := store.NewShareRepo(s.GetDB())

	// Engine
	reconciler := reconcile.New(
		reconcile.NewScanner(backend.Root()),
		ur, fr, shr, locks, cfg.ReconcileWorkers)

	// Services
	us := service.NewUserService(ur)
	fs := service.NewFileService(backend, fr, shr, locks, bus)
	ss := service.NewShareService(shr, fr, bus)
	rs := service.NewReconcileService(reconciler, runs, bus)

	// API
	router := api.NewRouter(us, cfg.AdminToken)

	uh := api.NewUserHandler(us, fs)
	fh := api.NewFileHandler(fs)
	sh := api.NewShareHandler(ss, fs)
	ah := api.NewAdminHandler(rs)
	eh := api.NewEventHandler(bus)

	v1 := chi.NewRouter()
	v1.Use(router.Auth)
	v1.Mount("/files", fh.Routes())
	v1.Mount("/shares", sh.Routes())
	v1.Get("/me", uh.Me)
	v1.Group(func(r chi.Router) {
		// Bus events carry share tokens and other users' paths; the
		// stream is an operator surface, not a user one.
		r.Use(router.RequireAdmin)
		r.Mount("/admin/users", uh.Routes())
		r.Mount("/admin/index", ah.Routes())
		r.Mount("/events", eh.Routes())
	})
	router.MountV1(v1)

	router.MountPublic(func(r chi.Router) {
		r.Post("/api/v1/login", uh.Login)
		r.Get("/s/{token}", sh.Download)
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router.Handler(),
	}

	return &App{
		config:           cfg,
		store:            s,
		runs:             runs,
		backend:          backend,
		bus:              bus,
		userService:      us,
		fileService:      fs,
		shareService:     ss,
		reconcileService: rs,
		auditPoller:      poller.New(rs, cfg.AuditInterval),
		httpServer:       srv,
		router:           router,
	}, nil
}

func (a *App) Config() *config.Config {
	return a.config
}

func (a *App) Users() *service.UserService {
	return a.userService
}

func (a *App) Reconcile() *service.ReconcileService {
	return a.reconcileService
}

func (a *App) Events() *event.Bus {
	return a.bus
}

// Start launches the HTTP server and, when enabled, a non-blocking index
// audit against the storage root.
func (a *App) Start(ctx context.Context) error {
	if a.config.StartupAudit {
		go a.reconcileService.StartupAudit(ctx)
	}
	a.auditPoller.Start(ctx)

	go func() {
		logger.S.Infow("server listening", "addr", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.L.Error("http server closed", zap.Error(err))
		}
	}()
	return nil
}

func (a *App) Stop() {
	logger.L.Info("shutting down")

	a.auditPoller.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.httpServer.Shutdown(shutdownCtx)

	a.runs.Close()
	a.store.Close()
}

// Run starts the app and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx := context.Background()
	if err := a.Start(ctx); err != nil {
		return err
	}

	logger.PrintBanner(logger.StartupInfo{
		Version:     Version,
		Addr:        a.httpServer.Addr,
		DataDir:     a.config.DataDir,
		StorageRoot: a.config.StorageRoot,
		LogLevel:    a.config.LogLevel,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.Stop()
	return nil
}
