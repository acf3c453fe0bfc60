package config

import "time"

type Config struct {
	App           AppConfig           `mapstructure:"app"`
	HTTP          HTTPConfig          `mapstructure:"http"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Queue         QueueConfig         `mapstructure:"queue"`
	NATS          NATSConfig          `mapstructure:"nats"`
	RabbitMQ      RabbitMQConfig      `mapstructure:"rabbitmq"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Ledger        LedgerConfig        `mapstructure:"ledger"`
	Charging      ChargingConfig      `mapstructure:"charging"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Vault         VaultConfig         `mapstructure:"vault"`
	OpenTelemetry OpenTelemetryConfig `mapstructure:"opentelemetry"`
	Prometheus    PrometheusConfig    `mapstructure:"prometheus"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	CORS          CORSConfig          `mapstructure:"cors"`
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
	URL          string `mapstructure:"url"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// QueueConfig selects the message queue driver: "nats" or "rabbitmq".
type QueueConfig struct {
	Driver string `mapstructure:"driver"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type RabbitMQConfig struct {
	URL string `mapstructure:"url"`
}

type JWTConfig struct {
	Secret              string        `mapstructure:"secret"`
	AccessTokenDuration time.Duration `mapstructure:"access_token_duration"`
	ChallengeDuration   time.Duration `mapstructure:"challenge_duration"`
}

// LedgerConfig points at the chain gateway, the REST facade over the
// charging contract. Mode "memory" swaps in the in-process ledger for
// development.
type LedgerConfig struct {
	Mode       string        `mapstructure:"mode"`
	GatewayURL string        `mapstructure:"gateway_url"`
	Token      string        `mapstructure:"token"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// ChargingConfig carries the business policy knobs.
type ChargingConfig struct {
	// RequireReservation demands a currently-active reservation held by the
	// caller before a session may start. When false, walk-up charging on any
	// available station is allowed.
	RequireReservation bool `mapstructure:"require_reservation"`
	// BaseRatePerHour overrides the default charging rate (decimal string).
	BaseRatePerHour string `mapstructure:"base_rate_per_hour"`
}

type CacheConfig struct {
	StationListTTL time.Duration `mapstructure:"station_list_ttl"`
}

type VaultConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
	Token   string `mapstructure:"token"`
}

type OpenTelemetryConfig struct {
	Enabled     bool         `mapstructure:"enabled"`
	ServiceName string       `mapstructure:"service_name"`
	Jaeger      JaegerConfig `mapstructure:"jaeger"`
}

type JaegerConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
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
