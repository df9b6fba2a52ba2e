package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8000"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORS            bool          `yaml:"cors" default:"true"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"500ms"`
	} `yaml:"server"`
	Logging struct {
		Level     string `yaml:"level" default:"info"`
		Format    string `yaml:"format" default:"console"`
		Output    string `yaml:"output" default:"stdout"`
		File      string `yaml:"file" default:"logs/api.log"`
		Collector struct {
			Enabled        bool          `yaml:"enabled"`
			Topic          string        `yaml:"topic" default:"pricecast.logs"`
			Interval       time.Duration `yaml:"interval" default:"30s"`
			CountThreshold int           `yaml:"count_threshold" default:"100"`
		} `yaml:"collector"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Model struct {
		Path           string   `yaml:"path" default:"models/model.json"`
		Version        string   `yaml:"version"`
		Features       []string `yaml:"features"`
		StrictFeatures bool     `yaml:"strict_features"`
	} `yaml:"model"`
	Store struct {
		Backend  string        `yaml:"backend" default:"csv"`
		CSVPath  string        `yaml:"csv_path" default:"data/data.csv"`
		SQLite   string        `yaml:"sqlite_path" default:"data/observations.db"`
		Table    string        `yaml:"table" default:"observations"`
		Lock     string        `yaml:"lock" default:"local"`
		LockKey  string        `yaml:"lock_key" default:"observations:upsert"`
		LockTTL  time.Duration `yaml:"lock_ttl" default:"30s"`
		LockWait time.Duration `yaml:"lock_wait" default:"10s"`
	} `yaml:"store"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"pricecast"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"pricecast"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled           bool     `yaml:"enabled"`
		Brokers           []string `yaml:"brokers"`
		EventsTopic       string   `yaml:"events_topic" default:"pricecast.events"`
		ObservationsTopic string   `yaml:"observations_topic" default:"pricecast.observations"`
		RequiredAcks      int      `yaml:"required_acks" default:"-1"`
		Compression       string   `yaml:"compression" default:"gzip"`
		Producer          struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"100ms"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id" default:"pricecast-observations"`
			Workers    int           `yaml:"workers" default:"1"`
			BufferSize int           `yaml:"buffer_size" default:"64"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Retrain struct {
		Enabled      bool          `yaml:"enabled"`
		APIURL       string        `yaml:"api_url" default:"https://api.github.com"`
		Repo         string        `yaml:"repo"`
		Workflow     string        `yaml:"workflow" default:"retrain.yml"`
		Ref          string        `yaml:"ref" default:"main"`
		Token        string        `yaml:"token"`
		Timeout      time.Duration `yaml:"timeout" default:"10s"`
		Burst        float64       `yaml:"burst" default:"2"`
		RefillPerSec float64       `yaml:"refill_per_sec" default:"0.0167"`
		RetryLimit   int           `yaml:"retry_limit" default:"3"`
		RetryDelay   time.Duration `yaml:"retry_delay" default:"30s"`
	} `yaml:"retrain"`
	Evaluation struct {
		MetricsLog      string `yaml:"metrics_log" default:"logs/metrics.log"`
		PushgatewayAddr string `yaml:"pushgateway_addr" default:"localhost:9091"`
		Job             string `yaml:"job" default:"komoditas-model-eval"`
	} `yaml:"evaluation"`
}

// Default returns a configuration populated only from struct defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c, err := decode(b)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func decode(b []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A missing file is tolerated so the service can run on defaults plus env.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
	case os.IsNotExist(err):
		b = nil
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	c, err := decode(b)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("MODEL_PATH"); v != "" {
		c.Model.Path = v
	}
	if v := getenv("MODEL_VERSION"); v != "" {
		c.Model.Version = v
	}
	if v := getenv("STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := getenv("OBSERVATIONS_CSV"); v != "" {
		c.Store.CSVPath = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Redis.Host = host
		if n, err := strconv.Atoi(port); ok && err == nil {
			c.Redis.Port = n
		}
		c.Redis.Enabled = true
	}
	if v := getenv("GITHUB_TOKEN"); v != "" {
		c.Retrain.Token = v
	}
	if v := getenv("PUSHGATEWAY_ADDR"); v != "" {
		c.Evaluation.PushgatewayAddr = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Model.Path == "" {
		return fmt.Errorf("model.path is required")
	}
	switch c.Store.Backend {
	case "csv":
		if c.Store.CSVPath == "" {
			return fmt.Errorf("store.csv_path is required for csv backend")
		}
	case "sqlite":
		if c.Store.SQLite == "" {
			return fmt.Errorf("store.sqlite_path is required for sqlite backend")
		}
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required for clickhouse backend")
		}
	default:
		return fmt.Errorf("store.backend must be 'csv', 'sqlite' or 'clickhouse', got '%s'", c.Store.Backend)
	}
	switch c.Store.Lock {
	case "local", "none":
	case "redis":
		if !c.Redis.Enabled {
			return fmt.Errorf("store.lock 'redis' requires redis.enabled")
		}
	default:
		return fmt.Errorf("store.lock must be 'local', 'redis' or 'none', got '%s'", c.Store.Lock)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Logging.Collector.Enabled && !c.Kafka.Enabled {
		return fmt.Errorf("logging.collector requires kafka.enabled")
	}
	if c.Retrain.Enabled {
		if c.Retrain.Repo == "" || c.Retrain.Workflow == "" {
			return fmt.Errorf("retrain.repo and retrain.workflow are required when retrain is enabled")
		}
		if c.Retrain.Token == "" {
			return fmt.Errorf("retrain.token (or GITHUB_TOKEN) is required when retrain is enabled")
		}
	}
	return nil
}
