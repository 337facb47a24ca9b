package config

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all converter settings, populated from environment variables
// and, optionally, a YAML file named by SFAF_CONFIG_FILE. Environment
// variables take precedence over the file.
type Config struct {
	LogLevel        string        `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat       string        `env:"LOG_FORMAT" validate:"oneof=json text"`
	HTTPAddr        string        `env:"HTTP_ADDR" validate:"required"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	BatchSize       int           `env:"BATCH_SIZE" validate:"min=1,max=1000"`

	// Output artifacts. An empty XLSXOutput disables the workbook.
	JSONOutput  string `env:"SFAF_JSON_OUTPUT" validate:"required"`
	CSVOutput   string `env:"SFAF_CSV_OUTPUT" validate:"required"`
	XLSXOutput  string `env:"SFAF_XLSX_OUTPUT"`
	CSVHeader   bool   `env:"SFAF_CSV_HEADER"`
	Correlation string `env:"SFAF_CORRELATION" validate:"oneof=positional indexed"`

	KafkaEnabled   bool     `env:"KAFKA_ENABLED"`
	KafkaBrokers   []string `env:"KAFKA_BROKERS" validate:"required_if=KafkaEnabled true,dive,hostname_port"`
	KafkaSinkTopic string   `env:"KAFKA_SINK_TOPIC" validate:"required_if=KafkaEnabled true"`

	// Mapbox geocoding configuration.
	MapboxToken     string        `env:"MAPBOX_TOKEN" validate:"required_if=MapboxEnabled true"`
	MapboxEnabled   bool          `env:"MAPBOX_ENABLED"`
	MapboxTimeout   time.Duration `env:"MAPBOX_TIMEOUT" validate:"gt=0"`
	MapboxCacheSize int           `env:"MAPBOX_CACHE_SIZE" validate:"gt=0"`
	MapboxRateLimit float64       `env:"MAPBOX_RATE_LIMIT" validate:"gte=0"`

	// ConfigFile is the YAML file that was read, if any.
	ConfigFile string `env:"SFAF_CONFIG_FILE"`
}

// fileConfig mirrors Config for the optional YAML overlay. Durations are
// strings in time.ParseDuration form.
type fileConfig struct {
	LogLevel        string     `yaml:"log_level"`
	LogFormat       string     `yaml:"log_format"`
	HTTPAddr        string     `yaml:"http_addr"`
	ShutdownTimeout string     `yaml:"shutdown_timeout"`
	BatchSize       int        `yaml:"batch_size"`
	JSONOutput      string     `yaml:"json_output"`
	CSVOutput       string     `yaml:"csv_output"`
	XLSXOutput      string     `yaml:"xlsx_output"`
	CSVHeader       *bool      `yaml:"csv_header"`
	Correlation     string     `yaml:"correlation"`
	Kafka           fileKafka  `yaml:"kafka"`
	Mapbox          fileMapbox `yaml:"mapbox"`
}

type fileKafka struct {
	Enabled   *bool    `yaml:"enabled"`
	Brokers   []string `yaml:"brokers"`
	SinkTopic string   `yaml:"sink_topic"`
}

type fileMapbox struct {
	Token     string   `yaml:"token"`
	Enabled   *bool    `yaml:"enabled"`
	Timeout   string   `yaml:"timeout"`
	CacheSize int      `yaml:"cache_size"`
	RateLimit *float64 `yaml:"rate_limit"`
}

// Load reads configuration from environment variables, applying the YAML
// overlay and then defaults where unset.
func Load() (*Config, error) {
	configFile := os.Getenv("SFAF_CONFIG_FILE")
	var file fileConfig
	if configFile != "" {
		var err error
		if file, err = readFile(configFile); err != nil {
			return nil, err
		}
	}

	shutdownTimeout, err := parseDurationSetting("SHUTDOWN_TIMEOUT", file.ShutdownTimeout, sharedcfg.ParseShutdownTimeout)
	if err != nil {
		return nil, err
	}

	batchSize, err := parseBatchSize(file.BatchSize)
	if err != nil {
		return nil, err
	}

	mapboxTimeoutStr := sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", cmp.Or(file.Mapbox.Timeout, "5s"))
	mapboxTimeout, err := time.ParseDuration(mapboxTimeoutStr)
	if err != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	mapboxCacheSize, err := parseInt("MAPBOX_CACHE_SIZE", file.Mapbox.CacheSize, 1000)
	if err != nil {
		return nil, err
	}

	mapboxRateLimit, err := parseFloat("MAPBOX_RATE_LIMIT", file.Mapbox.RateLimit, 10)
	if err != nil {
		return nil, err
	}

	mapboxToken := sharedcfg.EnvOrDefault("MAPBOX_TOKEN", file.Mapbox.Token)
	mapboxEnabled, err := parseBool("MAPBOX_ENABLED", file.Mapbox.Enabled, mapboxToken != "")
	if err != nil {
		return nil, err
	}

	kafkaEnabled, err := parseBool("KAFKA_ENABLED", file.Kafka.Enabled, false)
	if err != nil {
		return nil, err
	}

	csvHeader, err := parseBool("SFAF_CSV_HEADER", file.CSVHeader, false)
	if err != nil {
		return nil, err
	}

	brokers := file.Kafka.Brokers
	if v := os.Getenv("KAFKA_BROKERS"); v != "" || len(brokers) == 0 {
		brokers = sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092"))
	}

	cfg := &Config{
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", cmp.Or(file.LogLevel, "info")),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", cmp.Or(file.LogFormat, "json")),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", cmp.Or(file.HTTPAddr, ":8080")),
		ShutdownTimeout: shutdownTimeout,
		BatchSize:       batchSize,

		JSONOutput:  sharedcfg.EnvOrDefault("SFAF_JSON_OUTPUT", cmp.Or(file.JSONOutput, "records.json")),
		CSVOutput:   sharedcfg.EnvOrDefault("SFAF_CSV_OUTPUT", cmp.Or(file.CSVOutput, "recordsspreadsheet.csv")),
		XLSXOutput:  sharedcfg.EnvOrDefault("SFAF_XLSX_OUTPUT", file.XLSXOutput),
		CSVHeader:   csvHeader,
		Correlation: sharedcfg.EnvOrDefault("SFAF_CORRELATION", cmp.Or(file.Correlation, "positional")),

		KafkaEnabled:   kafkaEnabled,
		KafkaBrokers:   brokers,
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", cmp.Or(file.Kafka.SinkTopic, "sfaf-normalized-records")),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: mapboxCacheSize,
		MapboxRateLimit: mapboxRateLimit,

		ConfigFile: configFile,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("env")
	})
	return v
}

// Validate checks cross-field constraints and reports violations by their
// environment variable name.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, describe(fe))
	}
	return errors.Join(errs...)
}

func describe(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required_if":
		switch fe.StructField() {
		case "MapboxToken":
			return errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
		case "KafkaBrokers", "KafkaSinkTopic":
			return fmt.Errorf("KAFKA_ENABLED is true but %s is not set", fe.Field())
		}
	case "oneof":
		return fmt.Errorf("invalid %s %q: must be one of %s", fe.Field(), fe.Value(), fe.Param())
	case "hostname_port":
		return fmt.Errorf("invalid KAFKA_BROKERS entry %q: want host:port", fe.Value())
	}
	return fmt.Errorf("invalid %s: failed %s validation", fe.Field(), fe.Tag())
}

func readFile(path string) (fileConfig, error) {
	var fc fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read SFAF_CONFIG_FILE: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse SFAF_CONFIG_FILE %s: %w", path, err)
	}
	return fc, nil
}

// parseDurationSetting lets the environment (through the shared parser)
// win over the file value.
func parseDurationSetting(key, fileVal string, fromEnv func() (time.Duration, error)) (time.Duration, error) {
	if os.Getenv(key) != "" || fileVal == "" {
		return fromEnv()
	}
	d, err := time.ParseDuration(fileVal)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q in config file", key, fileVal)
	}
	return d, nil
}

func parseBatchSize(fileVal int) (int, error) {
	if os.Getenv("BATCH_SIZE") != "" || fileVal == 0 {
		return sharedcfg.ParseBatchSize()
	}
	return fileVal, nil
}

func parseInt(key string, fileVal, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return cmp.Or(fileVal, def), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return n, nil
}

func parseFloat(key string, fileVal *float64, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		if fileVal != nil {
			return *fileVal, nil
		}
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return f, nil
}

func parseBool(key string, fileVal *bool, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		if fileVal != nil {
			return *fileVal, nil
		}
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, s)
	}
	return b, nil
}
