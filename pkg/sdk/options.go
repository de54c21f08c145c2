package lostfound

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	username string
	password string
	db       int

	publicBaseURL string

	apiKey      string
	baseURL     string
	model       string
	imageDetail string
	batchSize   int
	cacheTTL    time.Duration
	inline      bool

	dailyTokens   int64
	monthlyTokens int64
	rejectOverrun bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis configures the client to connect to a Redis 8 instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedisACL sets the ACL user and logical database.
func WithRedisACL(username string, db int) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
		c.db = db
	})
}

// WithPublicBaseURL sets the base URL stored images are served from.
// It must match the HTTP service's storage.public_base_url when both share a database.
func WithPublicBaseURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.publicBaseURL = url
	})
}

// WithOpenAI enables image search against an OpenAI-compatible vision model.
// An empty model falls back to gpt-4o.
func WithOpenAI(apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = apiKey
		c.model = model
	})
}

// WithVisionBaseURL points the vision client at a compatible gateway.
func WithVisionBaseURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = url
	})
}

// WithImageDetail sets the image detail hint: low, high or auto.
func WithImageDetail(detail string) Option {
	return optionFunc(func(c *clientConfig) {
		c.imageDetail = detail
	})
}

// WithBatchSize sets how many catalog images go into one comparison call.
// Default: 5.
func WithBatchSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.batchSize = n
	})
}

// WithScoreCache keeps comparison scores in Redis for ttl.
func WithScoreCache(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = ttl
	})
}

// WithInlineImages sends locally stored catalog photos to the provider as data URIs.
// Use when the public base URL is not reachable from the provider.
func WithInlineImages() Option {
	return optionFunc(func(c *clientConfig) {
		c.inline = true
	})
}

// WithTokenBudget caps vision token use per day and per month. Zero means unlimited.
// With reject set, searches fail once a budget is spent; otherwise overruns are only logged.
func WithTokenBudget(daily, monthly int64, reject bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.dailyTokens = daily
		c.monthlyTokens = monthly
		c.rejectOverrun = reject
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
