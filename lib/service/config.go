package service

type Config struct {
	DatabaseUri             string  `envconfig:"DATABASE_URI" required:"true"`
	DatabaseMaxConns        int     `envconfig:"DATABASE_MAX_CONNS" default:"10"`
	DatabaseMaxIdleConns    int     `envconfig:"DATABASE_MAX_IDLE_CONNS" default:"5"`
	DatabaseConnMaxLifetime int     `envconfig:"DATABASE_CONN_MAX_LIFETIME" default:"1800"` // 30 minutes
	DatabaseTimeout         int     `envconfig:"DATABASE_TIMEOUT" default:"60"`             // 60 seconds
	SentryDSN               string  `envconfig:"SENTRY_DSN"`
	SentryTracesSampleRate  float64 `envconfig:"SENTRY_TRACES_SAMPLE_RATE"`
	LogFilePath             string  `envconfig:"LOG_FILE_PATH"`
	AdminToken              string  `envconfig:"ADMIN_TOKEN"`
	Host                    string  `envconfig:"HOST" default:"localhost:3000"`
	Port                    int     `envconfig:"PORT" default:"3000"`
	DefaultRateLimit        int     `envconfig:"DEFAULT_RATE_LIMIT" default:"10"`
	StrictRateLimit         int     `envconfig:"STRICT_RATE_LIMIT" default:"10"`
	BurstRateLimit          int     `envconfig:"BURST_RATE_LIMIT" default:"1"`
	EnablePrometheus        bool    `envconfig:"ENABLE_PROMETHEUS" default:"false"`
	PrometheusPort          int     `envconfig:"PROMETHEUS_PORT" default:"9092"`

	ReepayApiUrl     string `envconfig:"REEPAY_API_URL" default:"https://api.reepay.com/v1"`
	ReepayApiKey     string `envconfig:"REEPAY_API_KEY" required:"true"`
	ReepayTimeout    int    `envconfig:"REEPAY_TIMEOUT" default:"60"`     // in seconds
	ReepayRetryDelay int    `envconfig:"REEPAY_RETRY_DELAY" default:"5"`  // in seconds, wait before the single 429 retry
	WebhookSecretTTL int    `envconfig:"WEBHOOK_SECRET_TTL" default:"3600"` // in seconds

	// Local status strings the remote invoice states map onto. Deployments
	// integrate different shop systems, so these are not hardcoded.
	SyncEnabled      bool   `envconfig:"SYNC_ENABLED" default:"true"`
	StatusCreated    string `envconfig:"STATUS_CREATED" default:"pending"`
	StatusAuthorized string `envconfig:"STATUS_AUTHORIZED" default:"on-hold"`
	StatusSettled    string `envconfig:"STATUS_SETTLED" default:"processing"`
	StatusCancelled  string `envconfig:"STATUS_CANCELLED" default:"cancelled"`
	StatusFailed     string `envconfig:"STATUS_FAILED" default:"failed"`

	// Settle-type categories captured immediately on authorization.
	SettleTypes []string `envconfig:"SETTLE_TYPES" default:"physical,virtual"`

	OrderLockAttempts int `envconfig:"ORDER_LOCK_ATTEMPTS" default:"30"`
	OrderLockWaitMs   int `envconfig:"ORDER_LOCK_WAIT_MS" default:"100"`

	RabbitMQUri           string `envconfig:"RABBITMQ_URI"`
	RabbitMQOrderExchange string `envconfig:"RABBITMQ_ORDER_EXCHANGE" default:"reepay_order"`
}

func (c *Config) settleTypeEnabled(settleType string) bool {
	for _, t := range c.SettleTypes {
		if t == settleType {
			return true
		}
	}
	return false
}
