package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"crisis-alert-service/internal/config"
	"crisis-alert-service/internal/escalation"
	hrest "crisis-alert-service/internal/handler/http"
	wshandler "crisis-alert-service/internal/handler/ws"
	"crisis-alert-service/internal/helpers"
	"crisis-alert-service/internal/prefs"
	"crisis-alert-service/internal/repository"
	"crisis-alert-service/internal/router"
	"crisis-alert-service/internal/schedule"
	"crisis-alert-service/internal/scheduler"
	"crisis-alert-service/internal/tracker"
	"crisis-alert-service/internal/usecase"
	"crisis-alert-service/pkg/id"
	"crisis-alert-service/pkg/notifier"
	"crisis-alert-service/pkg/notifier/sinks"
	ws "crisis-alert-service/pkg/notifier/ws"
	"crisis-alert-service/pkg/template"
)

// Server bundles the HTTP server with the engine so shutdown can stop the
// sweeper and armed timers alongside the listener.
type Server struct {
	HTTP   *http.Server
	engine *usecase.AlertEngine
}

func NewServer(cfg config.AppConfig) *Server {
	// --- Storage ---
	var (
		alertRepo repository.AlertRepository
		prefRepo  repository.PreferenceRepository
	)
	if cfg.DatabaseURL != "" {
		dbpool, err := config.ConnectDB(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		alertRepo = repository.NewAlertRepository(dbpool)
		prefRepo = repository.NewPreferenceRepository(dbpool)
	} else {
		log.Println("⚠️ DATABASE_URL not set, running on in-memory storage")
		alertRepo = repository.NewMemoryAlertRepository()
		prefRepo = repository.NewMemoryPreferenceRepository()
	}

	// --- Snowflake ID generator ---
	sf, err := id.NewSnowflake(23)
	if err != nil {
		log.Fatalf("failed to init snowflake: %v", err)
	}

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})

	// --- Delivery sinks ---
	pushGw := sinks.NewPushGateway(cfg.PushGatewayAddr)
	smsGw := sinks.NewSmsGateway(cfg.SmsGatewayAddr)
	emailGw := sinks.NewEmailGateway(cfg.EmailGatewayAddr)

	// --- WS manager and handler ---
	wsManager := ws.NewManager()
	go wsManager.Heartbeat(30 * time.Second)
	wsHandler := wshandler.NewWSHandler(wsManager)

	// --- Templates ---
	tmplService := template.NewTemplateService()

	// --- Engine parts ---
	dispatch := notifier.NewNotifier(pushGw, smsGw, emailGw, wsManager, tmplService)
	dispatch.Timeout = cfg.DispatchTimeout
	cascade := escalation.NewCascade(smsGw, emailGw, tmplService)
	factory := helpers.NewAlertFactory(sf)
	sched := scheduler.NewDeliveryScheduler(schedule.NewTimerSet())
	track := tracker.NewTracker(alertRepo)
	store := prefs.NewStore(prefRepo, pushGw)

	engine := usecase.NewAlertEngine(store, factory, sched, dispatch, cascade, track)
	engine.StartSweeper(cfg.SweepInterval)

	// --- Handlers ---
	restHandler := hrest.NewAlertHandler(engine)

	// --- HTTP routes ---
	r := chi.NewRouter()
	r = router.SetupRoutes(r, restHandler, wsHandler, []byte(cfg.JWTSecret), rdb).(*chi.Mux)

	return &Server{
		HTTP:   &http.Server{Addr: cfg.HTTPAddr, Handler: r},
		engine: engine,
	}
}

func (s *Server) ListenAndServe() error {
	return s.HTTP.ListenAndServe()
}

// Shutdown stops the engine's background work, then closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.engine.Stop()
	return s.HTTP.Shutdown(ctx)
}
