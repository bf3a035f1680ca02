// Package bridge is the live side of the system: it polls the terminal
// gateway for quotes and bars, evaluates the breakout strategy on the most
// recent window, and pushes tick and history documents to the dashboard,
// Redis and SQLite.
package bridge

import (
	"context"
	"errors"
	"log"
	"time"

	"goldsys/internal/calendar"
	"goldsys/internal/indicator"
	"goldsys/internal/metrics"
	"goldsys/internal/model"
	"goldsys/internal/notification"
	"goldsys/internal/predictor"
	"goldsys/internal/ringbuf"
	"goldsys/internal/session"
	"goldsys/internal/strategy"
	redisstore "goldsys/internal/store/redis"
)

const (
	defaultPollInterval  = time.Second
	defaultEvalBars      = 40
	defaultHistoryBars   = 200
	defaultHistoryResync = 5 * time.Minute
	defaultNewsRefresh   = time.Hour

	// classifierBars covers the 200-period EMA plus one seed bar.
	classifierBars = 220
)

// Terminal is the gateway surface the bridge needs. *terminal.Client
// satisfies it.
type Terminal interface {
	model.BarSource
	SymbolTick(ctx context.Context, symbol string) (*model.Tick, error)
	AccountInfo(ctx context.Context) (*model.Account, error)
}

// Sink receives dashboard documents. *dashboard.Sink satisfies it.
type Sink interface {
	SendTick(ctx context.Context, payload any) error
	SendHistory(ctx context.Context, payload any) error
}

// Config holds the bridge loop parameters.
type Config struct {
	Symbol   string
	TFs      []model.Timeframe // timeframes synced to the dashboard chart
	SignalTF model.Timeframe   // timeframe the strategy evaluates

	PollInterval  time.Duration
	EvalBars      int // bars fetched per strategy evaluation
	HistoryBars   int // bars per history sync
	HistoryResync time.Duration
	NewsRefresh   time.Duration

	// Session overrides the default New York morning window when set.
	Session *session.Filter
}

// Deps are the wired collaborators. Terminal and Sink are required; the rest
// are optional and skipped when nil.
type Deps struct {
	Terminal   Terminal
	Sink       Sink
	Redis      *redisstore.Writer
	Buffered   *redisstore.BufferedWriter // tick path, survives Redis outages
	Bars       model.BarWriter
	News       *calendar.Client
	Classifier *predictor.Model
	Notifier   notification.Notifier
	Prom       *metrics.Metrics
	Health     *metrics.HealthStatus
}

// Service is the top-level orchestrator for the live bridge.
// It wires all dependencies, manages lifecycle, and coordinates goroutines.
type Service struct {
	cfg  Config
	deps Deps

	filter   *session.Filter
	detector *strategy.Detector
	ring     *ringbuf.Ring
	barCh    chan model.Bar

	lastStatus string
	events     []calendar.Event
}

// New creates a Service from the given Config and Deps.
func New(cfg Config, deps Deps) (*Service, error) {
	if deps.Terminal == nil {
		return nil, errors.New("bridge: terminal is required")
	}
	if deps.Sink == nil {
		return nil, errors.New("bridge: sink is required")
	}
	if cfg.Symbol == "" {
		return nil, errors.New("bridge: symbol is required")
	}
	if cfg.SignalTF.Duration() == 0 {
		return nil, errors.New("bridge: invalid signal timeframe")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.EvalBars <= 0 {
		cfg.EvalBars = defaultEvalBars
	}
	if cfg.HistoryBars <= 0 {
		cfg.HistoryBars = defaultHistoryBars
	}
	if cfg.HistoryResync <= 0 {
		cfg.HistoryResync = defaultHistoryResync
	}
	if cfg.NewsRefresh <= 0 {
		cfg.NewsRefresh = defaultNewsRefresh
	}
	if deps.Notifier == nil {
		deps.Notifier = notification.NewLogNotifier()
	}

	filter := cfg.Session
	if filter == nil {
		var err error
		filter, err = session.NewDefault()
		if err != nil {
			return nil, err
		}
	}

	return &Service{
		cfg:        cfg,
		deps:       deps,
		filter:     filter,
		detector:   strategy.NewDetector(filter),
		ring:       ringbuf.New(1024),
		barCh:      make(chan model.Bar, 5000),
		lastStatus: strategy.None.String(),
	}, nil
}

// Run starts all subsystems and blocks until ctx is cancelled.
// tickCh, when non-nil, carries streamed ticks from the websocket feed;
// they are relayed to Redis off the poll path via the ring buffer.
func (s *Service) Run(ctx context.Context, tickCh <-chan model.Tick) error {
	log.Printf("[bridge] starting signal bridge for %s (signal TF %s, poll %v)",
		s.cfg.Symbol, s.cfg.SignalTF, s.cfg.PollInterval)

	if s.deps.Redis != nil {
		go s.deps.Redis.Run(ctx, s.barCh)
	}
	if tickCh != nil {
		go s.forwardTicks(ctx, tickCh)
		go s.publishTicks(ctx)
	}

	s.refreshNews(ctx)
	s.syncAll(ctx)

	poll := time.NewTicker(s.cfg.PollInterval)
	defer poll.Stop()
	resync := time.NewTicker(s.cfg.HistoryResync)
	defer resync.Stop()
	news := time.NewTicker(s.cfg.NewsRefresh)
	defer news.Stop()

	log.Printf("[bridge] ✅ bridge running, session window %s", s.filter)

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return nil
		case <-poll.C:
			s.evaluate(ctx)
		case <-resync.C:
			s.syncAll(ctx)
		case <-news.C:
			s.refreshNews(ctx)
		}
	}
}

func (s *Service) shutdown() {
	log.Println("[bridge] shutdown signal received")
	if n := s.ring.Overflow(); n > 0 {
		log.Printf("[bridge] %d streamed ticks dropped over the run", n)
	}
	log.Println("[bridge] shutdown complete.")
}

// forwardTicks moves feed ticks into the SPSC ring. The ring absorbs bursts
// so a slow Redis round trip never backs up into the feed reader.
func (s *Service) forwardTicks(ctx context.Context, tickCh <-chan model.Tick) {
	for {
		select {
		case <-ctx.Done():
			return
		case tick, ok := <-tickCh:
			if !ok {
				return
			}
			if s.deps.Prom != nil {
				s.deps.Prom.TicksTotal.Inc()
			}
			if !s.ring.Push(tick) {
				if s.deps.Prom != nil {
					s.deps.Prom.DroppedTicks.Inc()
				}
			}
		}
	}
}

// publishTicks drains the ring and relays quotes to the Redis live cache.
func (s *Service) publishTicks(ctx context.Context) {
	idle := time.NewTicker(5 * time.Millisecond)
	defer idle.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-idle.C:
			for {
				tick, ok := s.ring.Pop()
				if !ok {
					break
				}
				if s.deps.Health != nil {
					s.deps.Health.SetLastTickTime(tick.TS)
				}
				s.relayTick(ctx, tick)
			}
		}
	}
}

// relayTick pushes a quote into the Redis live cache, through the buffered
// writer when one is wired so Redis outages only delay the fan-out.
func (s *Service) relayTick(ctx context.Context, tick model.Tick) {
	switch {
	case s.deps.Buffered != nil:
		s.deps.Buffered.WriteTick(tick)
	case s.deps.Redis != nil:
		s.deps.Redis.PublishTick(ctx, tick)
	}
}

// refreshNews reloads today's high-impact calendar events.
func (s *Service) refreshNews(ctx context.Context) {
	if s.deps.News == nil {
		return
	}
	s.events = s.deps.News.TodayEvents(ctx)
	log.Printf("[bridge] context analysis: today has %d key events", len(s.events))
}

// syncAll pushes recent history for every enabled timeframe.
func (s *Service) syncAll(ctx context.Context) {
	for _, tf := range s.cfg.TFs {
		s.syncHistory(ctx, tf)
	}
}

// syncHistory fetches the latest bars for one timeframe and fans them out to
// the dashboard chart, SQLite and the Redis streams.
func (s *Service) syncHistory(ctx context.Context, tf model.Timeframe) {
	bars, err := s.deps.Terminal.RatesFromPos(ctx, s.cfg.Symbol, tf, s.cfg.HistoryBars)
	if err != nil {
		log.Printf("[bridge] history fetch %s failed: %v", tf, err)
		return
	}
	if len(bars) == 0 {
		return
	}

	if err := s.deps.Sink.SendHistory(ctx, toHistory(bars, tf)); err != nil {
		log.Printf("[bridge] history post %s failed: %v", tf, err)
		if s.deps.Prom != nil {
			s.deps.Prom.SinkPostErrors.Inc()
		}
	}

	if s.deps.Bars != nil {
		if err := s.deps.Bars.WriteBars(bars); err != nil {
			log.Printf("[bridge] history persist %s failed: %v", tf, err)
		}
	}

	if s.deps.Redis != nil {
		for _, bar := range bars {
			select {
			case s.barCh <- bar:
			default:
			}
		}
	}

	if s.deps.Prom != nil {
		s.deps.Prom.HistorySyncs.Inc()
	}
	log.Printf("[bridge] synced %d %s bars", len(bars), tf)
}

// evaluate runs one poll cycle: quote, account snapshot, strategy assessment,
// dashboard post.
func (s *Service) evaluate(ctx context.Context) {
	start := time.Now()
	defer func() {
		if s.deps.Prom != nil {
			s.deps.Prom.PollDur.Observe(time.Since(start).Seconds())
		}
	}()

	tick, err := s.deps.Terminal.SymbolTick(ctx, s.cfg.Symbol)
	if err != nil {
		log.Printf("[bridge] could not get tick for %s: %v", s.cfg.Symbol, err)
		if s.deps.Health != nil {
			s.deps.Health.SetTerminalConnected(false)
		}
		return
	}
	acct, err := s.deps.Terminal.AccountInfo(ctx)
	if err != nil {
		log.Printf("[bridge] could not get account info: %v", err)
		if s.deps.Health != nil {
			s.deps.Health.SetTerminalConnected(false)
		}
		return
	}
	if s.deps.Health != nil {
		s.deps.Health.SetTerminalConnected(true)
		s.deps.Health.SetLastTickTime(tick.TS)
	}

	payload := TickPayload{
		Symbol:     s.cfg.Symbol,
		Bid:        tick.Bid,
		Ask:        tick.Ask,
		Equity:     acct.Equity,
		Balance:    acct.Balance,
		Profit:     acct.Profit,
		Timestamp:  time.Now().UnixMilli(),
		Prediction: s.assess(ctx),
	}

	s.relayTick(ctx, *tick)
	if s.deps.Redis != nil {
		s.deps.Redis.PublishPrediction(ctx, s.cfg.Symbol, payloadJSON(payload.Prediction))
	}

	if err := s.deps.Sink.SendTick(ctx, payload); err != nil {
		log.Printf("[bridge] failed to broadcast tick: %v", err)
		if s.deps.Prom != nil {
			s.deps.Prom.SinkPostErrors.Inc()
		}
		return
	}
	log.Printf("[bridge] tick broadcast: %s bid=%.2f status=%s",
		s.cfg.Symbol, tick.Bid, payload.Prediction.Status)
}

// assess evaluates the strategy on the latest bars and returns the dashboard
// assessment. Failures degrade to the neutral prediction, never an error.
func (s *Service) assess(ctx context.Context) strategy.Prediction {
	count := s.cfg.EvalBars
	if s.deps.Classifier != nil && count < classifierBars {
		count = classifierBars
	}

	bars, err := s.deps.Terminal.RatesFromPos(ctx, s.cfg.Symbol, s.cfg.SignalTF, count)
	if err != nil || len(bars) < 2 {
		if err != nil {
			log.Printf("[bridge] inference error: %v", err)
		}
		return strategy.NeutralPrediction()
	}

	frame := indicator.Compute(bars, indicator.DefaultConfig(s.cfg.SignalTF))
	last := len(bars) - 1
	kind := s.detector.At(bars, frame, last)
	vals := frame.At(last)

	pred := strategy.BuildPrediction(kind, vals.VolumeRatio, vals.VolumeRatioOK,
		s.filter.InSession(bars[last].TS), s.filter.String())

	// Classifier probabilities ride along as advisory hold/flat weights.
	if s.deps.Classifier != nil {
		if feats, ok := predictor.ComputeFeatures(bars); ok {
			probs := s.deps.Classifier.Score(feats)
			pred.LongHold = 100 * probs.Long
			pred.ShortHold = 100 * probs.Short
			pred.Flat = 100 * probs.Neutral
		}
	}

	if s.deps.Prom != nil {
		s.deps.Prom.PredictionsTotal.Inc()
	}
	s.noteTransition(ctx, kind, bars[last].Close, vals.VolumeRatio)
	return pred
}

// noteTransition fires an alert when the signal flips from neutral to a
// directional state. Repeated polls inside the same state stay silent.
func (s *Service) noteTransition(ctx context.Context, kind strategy.Kind, price, volRatio float64) {
	status := kind.String()
	if status == s.lastStatus {
		return
	}
	prev := s.lastStatus
	s.lastStatus = status

	if kind == strategy.None {
		return
	}
	if s.deps.Prom != nil {
		s.deps.Prom.SignalsTotal.WithLabelValues(status).Inc()
	}
	log.Printf("[bridge] signal transition %s → %s @ %.2f", prev, status, price)
	alert := notification.SignalAlert(s.cfg.Symbol, kind, price, volRatio)
	if err := s.deps.Notifier.Send(ctx, alert); err != nil {
		log.Printf("[bridge] alert send failed: %v", err)
	}
}
