// cmd/bridge runs the live signal bridge: it logs into the terminal gateway,
// streams quotes, evaluates the breakout strategy every second, and fans the
// results out to the dashboard, Redis and SQLite.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pquerna/otp/totp"

	"goldsys/config"
	"goldsys/internal/bridge"
	"goldsys/internal/calendar"
	"goldsys/internal/dashboard"
	"goldsys/internal/feed"
	"goldsys/internal/metrics"
	"goldsys/internal/model"
	"goldsys/internal/notification"
	"goldsys/internal/predictor"
	"goldsys/internal/session"
	redisstore "goldsys/internal/store/redis"
	sqlitestore "goldsys/internal/store/sqlite"
	"goldsys/pkg/terminal"
)

const loginRetryDelay = 10 * time.Second

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[bridge] starting...")

	cfg := config.Load()

	tfs := cfg.ParseTFs()
	signalTF, err := model.ParseTimeframe(cfg.SignalTF)
	if err != nil {
		log.Fatalf("[bridge] bad SIGNAL_TF: %v", err)
	}

	filter, err := session.New(cfg.SessionZone, cfg.SessionOpen, cfg.SessionClose)
	if err != nil {
		log.Fatalf("[bridge] session window: %v", err)
	}

	// ---- Setup metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Setup context for graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("[bridge] shutdown signal received")
		cancel()
	}()

	// ---- Start SQLite writer (off hot path) ----
	os.MkdirAll("data", 0o755)
	sqlWriter, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[bridge] sqlite init failed: %v", err)
	}
	defer sqlWriter.Close()
	health.SetSQLiteOK(true)
	log.Println("[bridge] sqlite writer ready")

	// ---- Start Redis writer ----
	var (
		redisWriter *redisstore.Writer
		buffered    *redisstore.BufferedWriter
	)
	redisWriter, err = redisstore.New(redisstore.WriterConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Printf("[bridge] WARNING: redis init failed: %v (continuing without redis)", err)
		health.SetRedisConnected(false)
		redisWriter = nil
	} else {
		health.SetRedisConnected(true)
		log.Println("[bridge] redis writer ready")

		cb := redisstore.NewCircuitBreaker(5, 30*time.Second)
		cb.OnStateChange = func(from, to redisstore.State) {
			log.Printf("[bridge] redis circuit %s → %s", from, to)
			switch to {
			case redisstore.StateOpen:
				prom.RedisCircuitBreakerState.Set(1)
				prom.RedisCircuitBreakerTrips.Inc()
			case redisstore.StateHalfOpen:
				prom.RedisCircuitBreakerState.Set(2)
			default:
				prom.RedisCircuitBreakerState.Set(0)
			}
		}
		buffered = redisstore.NewBufferedWriter(ctx, redisWriter, cb, 10000)
		buffered.OnBuffer = func() { prom.RedisBufferedWrites.Inc() }
	}

	// ---- Periodic liveness checks ----
	if redisWriter != nil {
		health.StartLivenessChecker(ctx, redisWriter.Client(), sqlWriter.DB(), 10*time.Second)
	} else {
		health.StartLivenessChecker(ctx, nil, sqlWriter.DB(), 10*time.Second)
	}

	// ---- Terminal gateway login (fresh TOTP per attempt) ----
	term := terminal.New(terminal.Config{
		BaseURL: cfg.TerminalBaseURL,
		APIKey:  cfg.TerminalAPIKey,
	})
	login := func() error {
		code := ""
		if cfg.TerminalTOTPSecret != "" {
			c, err := totp.GenerateCode(cfg.TerminalTOTPSecret, time.Now())
			if err != nil {
				return err
			}
			code = c
		}
		return term.Login(ctx, cfg.TerminalAccount, cfg.TerminalPassword, cfg.TerminalServer, code)
	}
	for {
		if err := login(); err == nil {
			break
		} else {
			log.Printf("[bridge] terminal login failed: %v, retrying in %v", err, loginRetryDelay)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(loginRetryDelay):
		}
	}
	health.SetTerminalConnected(true)
	log.Println("[bridge] ✅ terminal connected and authorized")

	// Re-login transparently when the gateway expires the session.
	term.SessionExpiryHook = func() {
		log.Println("[bridge] terminal session expired, re-authenticating...")
		if err := login(); err != nil {
			log.Printf("[bridge] re-login failed: %v", err)
			health.SetTerminalConnected(false)
		}
	}

	// ---- Optional collaborators ----
	var sink *dashboard.Sink
	if cfg.DashboardURL != "" {
		sink = dashboard.NewWithBase(cfg.DashboardURL)
	} else {
		sink = dashboard.New()
	}

	backends := []notification.Notifier{notification.NewLogNotifier()}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		backends = append(backends, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
		log.Println("[bridge] telegram alerts enabled")
	}
	if cfg.WebhookURL != "" {
		backends = append(backends, notification.NewWebhookNotifier(cfg.WebhookURL))
		log.Println("[bridge] webhook alerts enabled")
	}
	notifier := notification.NewMultiNotifier(backends...)

	news := calendar.New(cfg.CalendarURL)

	classifier, err := predictor.Load(cfg.ModelPath)
	if err != nil {
		log.Printf("[bridge] WARNING: classifier load failed: %v (rule signals only)", err)
	}

	// ---- Optional websocket tick feed ----
	var tickCh chan model.Tick
	if cfg.FeedURL != "" {
		tickCh = make(chan model.Tick, 10000)
		stream := feed.New(feed.Config{URL: cfg.FeedURL, Symbol: cfg.Symbol})
		stream.OnReconnect = func() { prom.WSReconnects.Inc() }
		go func() {
			if err := stream.Run(ctx, tickCh); err != nil {
				log.Printf("[bridge] feed stopped: %v", err)
			}
		}()
		log.Printf("[bridge] tick feed: %s", cfg.FeedURL)
	}

	// ---- Assemble and run the bridge service ----
	svc, err := bridge.New(bridge.Config{
		Symbol:   cfg.Symbol,
		TFs:      tfs,
		SignalTF: signalTF,
		Session:  filter,
	}, bridge.Deps{
		Terminal:   term,
		Sink:       sink,
		Redis:      redisWriter,
		Buffered:   buffered,
		Bars:       sqlWriter,
		News:       news,
		Classifier: classifier,
		Notifier:   notifier,
		Prom:       prom,
		Health:     health,
	})
	if err != nil {
		log.Fatalf("[bridge] service init failed: %v", err)
	}

	log.Println("[bridge] ╔════════════════════════════════════════════════════╗")
	log.Println("[bridge] ║  Gold Breakout Signal Bridge Active                ║")
	log.Println("[bridge] ║                                                    ║")
	log.Println("[bridge] ║  [Terminal] → [Breakout V2] → [Dashboard/Redis]    ║")
	log.Printf("[bridge] ║  Symbol: %-8s  Signal TF: %-4s                 ║", cfg.Symbol, signalTF)
	log.Printf("[bridge] ║  Session: %-30s           ║", filter)
	log.Println("[bridge] ╚════════════════════════════════════════════════════╝")

	if err := svc.Run(ctx, tickCh); err != nil {
		log.Fatalf("[bridge] service error: %v", err)
	}

	// ---- Graceful shutdown ----
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer shutCancel()
	metricsSrv.Stop(shutCtx)
	if redisWriter != nil {
		redisWriter.Close()
	}
	term.Logout(context.Background())
	log.Println("[bridge] shutdown complete.")
}
