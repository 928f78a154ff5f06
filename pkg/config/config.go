package config

import "time"

type Config struct {
	App            AppConfig            `mapstructure:"app"`
	HTTP           HTTPConfig           `mapstructure:"http"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Queue          QueueConfig          `mapstructure:"queue"`
	Vault          VaultConfig          `mapstructure:"vault"`
	Scheduler      SchedulerConfig      `mapstructure:"scheduler"`
	Reservation    ReservationConfig    `mapstructure:"reservation"`
	Billing        BillingConfig        `mapstructure:"billing"`
	Cache          CacheConfig          `mapstructure:"cache"`
	OpenTelemetry  OpenTelemetryConfig  `mapstructure:"opentelemetry"`
	Prometheus     PrometheusConfig     `mapstructure:"prometheus"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	CORS           CORSConfig           `mapstructure:"cors"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	LogQueries      bool          `mapstructure:"log_queries"`
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// QueueConfig selects the broker used for lifecycle events.
type QueueConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Provider      string        `mapstructure:"provider"` // nats | rabbitmq
	NATSURL       string        `mapstructure:"nats_url"`
	RabbitMQURL   string        `mapstructure:"rabbitmq_url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

type VaultConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Address     string `mapstructure:"address"`
	Token       string `mapstructure:"token"`
	DatabaseKey string `mapstructure:"database_key"`
}

type SchedulerConfig struct {
	Enabled                 bool          `mapstructure:"enabled"`
	ExpireReservationsEvery time.Duration `mapstructure:"expire_reservations_every"`
	DetectAlmostDoneEvery   time.Duration `mapstructure:"detect_almost_done_every"`
	AlmostDoneWindow        time.Duration `mapstructure:"almost_done_window"`
	TaskTimeout             time.Duration `mapstructure:"task_timeout"`
}

type ReservationConfig struct {
	DefaultHoldMinutes int `mapstructure:"default_hold_minutes"`
	MaxHoldMinutes     int `mapstructure:"max_hold_minutes"`
}

type BillingConfig struct {
	IdleFeePerMinute          float64 `mapstructure:"idle_fee_per_minute"`
	USDToVNDRate              float64 `mapstructure:"usd_to_vnd_rate"`
	USDPriceThreshold         float64 `mapstructure:"usd_price_threshold"`
	MaxSessionKWh             float64 `mapstructure:"max_session_kwh"`
	DefaultBatteryCapacityKWh float64 `mapstructure:"default_battery_capacity_kwh"`
	Currency                  string  `mapstructure:"currency"`
}

type CacheConfig struct {
	SessionSummaryTTL time.Duration `mapstructure:"session_summary_ttl"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

type OpenTelemetryConfig struct {
	Enabled     bool         `mapstructure:"enabled"`
	Jaeger      JaegerConfig `mapstructure:"jaeger"`
	ServiceName string       `mapstructure:"service_name"`
}

type JaegerConfig struct {
	Endpoint     string  `mapstructure:"endpoint"`
	SamplerParam float64 `mapstructure:"sampler_param"`
}

type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      int           `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold float64       `mapstructure:"failure_threshold"`
}

type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	ExposeHeaders  []string `mapstructure:"expose_headers"`
	MaxAge         int      `mapstructure:"max_age"`
	Credentials    bool     `mapstructure:"credentials"`
}
