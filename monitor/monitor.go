// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	GamesCreated     prometheus.Counter
	PlayersJoined    prometheus.Counter
	CardsSubmitted   prometheus.Counter
	RoundsJudged     prometheus.Counter
	GamesExhausted   prometheus.Counter
	InFlight         prometheus.Gauge
	OperationErrors  *prometheus.CounterVec
	OperationLatency *prometheus.HistogramVec
}

// NewMetrics 创建并注册指标。reg 为 nil 时使用默认注册表。
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		GamesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_created_total",
			Help:      "Number of game sessions created",
		}),
		PlayersJoined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "players_joined_total",
			Help:      "Number of players added to existing games",
		}),
		CardsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cards_submitted_total",
			Help:      "Number of response cards played into a round",
		}),
		RoundsJudged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_judged_total",
			Help:      "Number of rounds resolved by a judge",
		}),
		GamesExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_exhausted_total",
			Help:      "Number of games that ran out of prompt cards",
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "operations_in_flight",
			Help:      "Number of game operations waiting for or holding a game lock",
		}),
		OperationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Failed game operations by operation and error code",
		}, []string{"operation", "code"}),
		OperationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Game operation latency including storage",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"operation"}),
	}

	reg.MustRegister(
		m.GamesCreated,
		m.PlayersJoined,
		m.CardsSubmitted,
		m.RoundsJudged,
		m.GamesExhausted,
		m.InFlight,
		m.OperationErrors,
		m.OperationLatency,
	)

	return m
}

type Monitor struct {
	metrics      *Metrics
	startTime    time.Time
	requestCount int64
	mutex        sync.Mutex
}

func NewMonitor(namespace string, reg prometheus.Registerer) *Monitor {
	return &Monitor{
		metrics:   NewMetrics(namespace, reg),
		startTime: time.Now(),
	}
}

// Handler 返回 /metrics 和 /debug/vars 的处理器
func (m *Monitor) Handler() http.Handler {
	expvarOnce.Do(func() {
		expvar.Publish("uptime", expvar.Func(func() interface{} {
			return time.Since(m.startTime).Seconds()
		}))
		expvar.Publish("requests", expvar.Func(func() interface{} {
			return m.Requests()
		}))
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/vars", expvar.Handler())
	return mux
}

// expvar.Publish panics on duplicate names.
var expvarOnce sync.Once

func (m *Monitor) StartServer(addr string) *http.Server {
	srv := &http.Server{Addr: addr, Handler: m.Handler()}
	go srv.ListenAndServe()
	return srv
}

func (m *Monitor) Metrics() *Metrics {
	return m.metrics
}

// ObserveOperation 记录一次操作的耗时和结果，code 为空表示成功
func (m *Monitor) ObserveOperation(op string, duration time.Duration, code string) {
	m.mutex.Lock()
	m.requestCount++
	m.mutex.Unlock()

	m.metrics.OperationLatency.WithLabelValues(op).Observe(duration.Seconds())
	if code != "" {
		m.metrics.OperationErrors.WithLabelValues(op, code).Inc()
	}
}

func (m *Monitor) Requests() int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.requestCount
}

func (m *Monitor) IncGamesCreated()   { m.metrics.GamesCreated.Inc() }
func (m *Monitor) IncPlayersJoined()  { m.metrics.PlayersJoined.Inc() }
func (m *Monitor) IncCardsSubmitted() { m.metrics.CardsSubmitted.Inc() }
func (m *Monitor) IncRoundsJudged()   { m.metrics.RoundsJudged.Inc() }
func (m *Monitor) IncGamesExhausted() { m.metrics.GamesExhausted.Inc() }

func (m *Monitor) IncInFlight() { m.metrics.InFlight.Inc() }
func (m *Monitor) DecInFlight() { m.metrics.InFlight.Dec() }
