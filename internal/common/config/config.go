package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Server        ServerConfig            `mapstructure:"server"`
	Model         ModelConfig             `mapstructure:"model"`
	Outlets       OutletsConfig           `mapstructure:"outlets"`
	Batch         BatchConfig             `mapstructure:"batch"`
	Catalog       CatalogConfig           `mapstructure:"catalog"`
	Store         StoreConfig             `mapstructure:"store"`
	Charts        ChartsConfig            `mapstructure:"charts"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Tracing       TracingConfig           `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Address        string `mapstructure:"address"`
	Mode           string `mapstructure:"mode"`          // gin mode: debug, release, test
	ReadTimeout    int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout   int    `mapstructure:"write_timeout"` // milliseconds
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
}

// --- Forecast Configuration ---

// ModelConfig locates the model artifact. Path is resolved against the working
// directory. Cache switches from reloading the file on every prediction to
// loading it once.
type ModelConfig struct {
	Path  string `mapstructure:"path"`
	Cache bool   `mapstructure:"cache"`
}

const (
	OutletSourceBuiltin  = "builtin"
	OutletSourceFile     = "file"
	OutletSourcePostgres = "postgres"
)

type OutletsConfig struct {
	Source string `mapstructure:"source"`
	File   string `mapstructure:"file"`
	Table  string `mapstructure:"table"`
}

const (
	FailurePolicyStrict  = "strict"
	FailurePolicyPartial = "partial"
)

type BatchConfig struct {
	FailurePolicy      string `mapstructure:"failure_policy"`
	RejectExtraColumns bool   `mapstructure:"reject_extra_columns"`
	MaxRows            int    `mapstructure:"max_rows"`
	ResultTTL          int    `mapstructure:"result_ttl"` // milliseconds
}

const (
	CatalogSourceNone          = "none"
	CatalogSourceFile          = "file"
	CatalogSourceElasticsearch = "elasticsearch"
)

type CatalogConfig struct {
	Source     string `mapstructure:"source"`
	File       string `mapstructure:"file"`
	Index      string `mapstructure:"index"`
	MaxResults int    `mapstructure:"max_results"`
}

const (
	StoreBackendMemory = "memory"
	StoreBackendRedis  = "redis"
)

type StoreConfig struct {
	Backend   string `mapstructure:"backend"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// ChartsConfig overrides palette colors by category name and sets the top-N cut of
// the per-outlet chart.
type ChartsConfig struct {
	TopN    int               `mapstructure:"top_n"`
	Palette map[string]string `mapstructure:"palette"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NotificationConfig holds the batch-complete notification channels.
type NotificationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	Email struct {
		Enabled   bool     `mapstructure:"enabled"`
		FromEmail string   `mapstructure:"from_email"`
		To        []string `mapstructure:"to"`
	} `mapstructure:"email"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}
