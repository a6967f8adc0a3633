package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "OUTAGE"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Upload    UploadConfig    `yaml:"upload" envconfig:"UPLOAD"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"60s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"120s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"90s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"20"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"10"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/outage.log"`
}

// UploadConfig bounds the work a single aggregation may cause.
type UploadConfig struct {
	MaxUploadBytes int64 `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"52428800"`
	MaxConcurrent  int64 `yaml:"max_concurrent" envconfig:"MAX_CONCURRENT" default:"4"`
	// UnzipSizeLimit caps the decompressed size of one workbook.
	UnzipSizeLimit int64 `yaml:"unzip_size_limit" envconfig:"UNZIP_SIZE_LIMIT" default:"1073741824"`
	// UnzipXMLSizeLimit is the sheet size above which excelize spools to disk.
	UnzipXMLSizeLimit int64 `yaml:"unzip_xml_size_limit" envconfig:"UNZIP_XML_SIZE_LIMIT" default:"16777216"`
	RowBuffer         int   `yaml:"row_buffer" envconfig:"ROW_BUFFER" default:"64"`
}

// TelemetryConfig selects the OpenTelemetry exporters.
type TelemetryConfig struct {
	ServiceName     string  `yaml:"service_name" envconfig:"SERVICE_NAME" default:"site-outage"`
	Environment     string  `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
	TraceExporter   string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none"`
	MetricsExporter string  `yaml:"metrics_exporter" envconfig:"METRICS_EXPORTER" default:"prometheus"`
	SampleRatio     float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom loads configuration from environment variables layered over the
// given YAML file. An empty path skips the file.
func LoadFrom(configFile string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile != "" {
		fileConfig, switches, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
		applySwitches(&cfg, switches)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// fileSwitches records the booleans a YAML file sets explicitly. A plain
// bool cannot tell "false" from "absent".
type fileSwitches struct {
	Security struct {
		EnableCORS *bool `yaml:"enable_cors"`
		RateLimit  struct {
			Enabled *bool `yaml:"enabled"`
		} `yaml:"rate_limit"`
	} `yaml:"security"`
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, fileSwitches, error) {
	var switches fileSwitches

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, switches, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, switches, err
	}
	if err := yaml.Unmarshal(data, &switches); err != nil {
		return nil, switches, err
	}

	return &cfg, switches, nil
}

// applySwitches copies booleans set in the file unless the matching
// environment variable is present.
func applySwitches(cfg *Config, switches fileSwitches) {
	if v := switches.Security.EnableCORS; v != nil && !envSet("SECURITY_ENABLE_CORS") {
		cfg.Security.EnableCORS = *v
	}
	if v := switches.Security.RateLimit.Enabled; v != nil && !envSet("SECURITY_RATE_LIMIT_ENABLED") {
		cfg.Security.RateLimit.Enabled = *v
	}
}

func envSet(key string) bool {
	_, ok := os.LookupEnv(EnvPrefix + "_" + key)
	return ok
}

// mergeConfigs lays file values under the environment. A value still at its
// default is replaced by the file's value when the file sets one.
func mergeConfigs(fileConfig, envConfig Config) Config {
	def := Default()
	out := envConfig

	pick := func(env, file, dflt any) bool {
		return env == dflt && file != dflt && !isZero(file)
	}

	if pick(out.Server.Port, fileConfig.Server.Port, def.Server.Port) {
		out.Server.Port = fileConfig.Server.Port
	}
	if pick(out.Server.ReadTimeout, fileConfig.Server.ReadTimeout, def.Server.ReadTimeout) {
		out.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if pick(out.Server.WriteTimeout, fileConfig.Server.WriteTimeout, def.Server.WriteTimeout) {
		out.Server.WriteTimeout = fileConfig.Server.WriteTimeout
	}
	if pick(out.Server.IdleTimeout, fileConfig.Server.IdleTimeout, def.Server.IdleTimeout) {
		out.Server.IdleTimeout = fileConfig.Server.IdleTimeout
	}
	if pick(out.Server.MaxHeaderBytes, fileConfig.Server.MaxHeaderBytes, def.Server.MaxHeaderBytes) {
		out.Server.MaxHeaderBytes = fileConfig.Server.MaxHeaderBytes
	}
	if pick(out.Server.RequestTimeout, fileConfig.Server.RequestTimeout, def.Server.RequestTimeout) {
		out.Server.RequestTimeout = fileConfig.Server.RequestTimeout
	}
	if pick(out.Server.ShutdownTimeout, fileConfig.Server.ShutdownTimeout, def.Server.ShutdownTimeout) {
		out.Server.ShutdownTimeout = fileConfig.Server.ShutdownTimeout
	}
	if len(fileConfig.Security.AllowedOrigins) > 0 &&
		equalStrings(out.Security.AllowedOrigins, def.Security.AllowedOrigins) {
		out.Security.AllowedOrigins = fileConfig.Security.AllowedOrigins
	}
	if pick(out.Security.RateLimit.RPS, fileConfig.Security.RateLimit.RPS, def.Security.RateLimit.RPS) {
		out.Security.RateLimit.RPS = fileConfig.Security.RateLimit.RPS
	}
	if pick(out.Security.RateLimit.Burst, fileConfig.Security.RateLimit.Burst, def.Security.RateLimit.Burst) {
		out.Security.RateLimit.Burst = fileConfig.Security.RateLimit.Burst
	}
	if pick(out.Logging.Level, fileConfig.Logging.Level, def.Logging.Level) {
		out.Logging.Level = fileConfig.Logging.Level
	}
	if pick(out.Logging.Format, fileConfig.Logging.Format, def.Logging.Format) {
		out.Logging.Format = fileConfig.Logging.Format
	}
	if pick(out.Logging.Output, fileConfig.Logging.Output, def.Logging.Output) {
		out.Logging.Output = fileConfig.Logging.Output
	}
	if pick(out.Logging.FilePath, fileConfig.Logging.FilePath, def.Logging.FilePath) {
		out.Logging.FilePath = fileConfig.Logging.FilePath
	}
	if pick(out.Upload.MaxUploadBytes, fileConfig.Upload.MaxUploadBytes, def.Upload.MaxUploadBytes) {
		out.Upload.MaxUploadBytes = fileConfig.Upload.MaxUploadBytes
	}
	if pick(out.Upload.MaxConcurrent, fileConfig.Upload.MaxConcurrent, def.Upload.MaxConcurrent) {
		out.Upload.MaxConcurrent = fileConfig.Upload.MaxConcurrent
	}
	if pick(out.Upload.UnzipSizeLimit, fileConfig.Upload.UnzipSizeLimit, def.Upload.UnzipSizeLimit) {
		out.Upload.UnzipSizeLimit = fileConfig.Upload.UnzipSizeLimit
	}
	if pick(out.Upload.UnzipXMLSizeLimit, fileConfig.Upload.UnzipXMLSizeLimit, def.Upload.UnzipXMLSizeLimit) {
		out.Upload.UnzipXMLSizeLimit = fileConfig.Upload.UnzipXMLSizeLimit
	}
	if pick(out.Upload.RowBuffer, fileConfig.Upload.RowBuffer, def.Upload.RowBuffer) {
		out.Upload.RowBuffer = fileConfig.Upload.RowBuffer
	}
	if pick(out.Telemetry.ServiceName, fileConfig.Telemetry.ServiceName, def.Telemetry.ServiceName) {
		out.Telemetry.ServiceName = fileConfig.Telemetry.ServiceName
	}
	if pick(out.Telemetry.SampleRatio, fileConfig.Telemetry.SampleRatio, def.Telemetry.SampleRatio) {
		out.Telemetry.SampleRatio = fileConfig.Telemetry.SampleRatio
	}
	if pick(out.Telemetry.Environment, fileConfig.Telemetry.Environment, def.Telemetry.Environment) {
		out.Telemetry.Environment = fileConfig.Telemetry.Environment
	}
	if pick(out.Telemetry.TraceExporter, fileConfig.Telemetry.TraceExporter, def.Telemetry.TraceExporter) {
		out.Telemetry.TraceExporter = fileConfig.Telemetry.TraceExporter
	}
	if pick(out.Telemetry.MetricsExporter, fileConfig.Telemetry.MetricsExporter, def.Telemetry.MetricsExporter) {
		out.Telemetry.MetricsExporter = fileConfig.Telemetry.MetricsExporter
	}

	return out
}

func isZero(v any) bool {
	switch x := v.(type) {
	case int:
		return x == 0
	case int64:
		return x == 0
	case float64:
		return x == 0
	case string:
		return x == ""
	case time.Duration:
		return x == 0
	default:
		return v == nil
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server request timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Upload.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}

	if c.Upload.MaxConcurrent <= 0 {
		return fmt.Errorf("max concurrent aggregations must be positive")
	}

	if c.Upload.RowBuffer < 0 {
		return fmt.Errorf("row buffer must not be negative")
	}

	switch c.Telemetry.TraceExporter {
	case "stdout", "none":
	default:
		return fmt.Errorf("unknown trace exporter: %q", c.Telemetry.TraceExporter)
	}

	switch c.Telemetry.MetricsExporter {
	case "prometheus", "none":
	default:
		return fmt.Errorf("unknown metrics exporter: %q", c.Telemetry.MetricsExporter)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("sample ratio must be within [0, 1]: %v", c.Telemetry.SampleRatio)
	}

	// Logs are always structured JSON.
	c.Logging.Format = "json"

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/outage.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     60 * time.Second,
			WriteTimeout:    120 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  90 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   10,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/outage.log",
		},
		Upload: UploadConfig{
			MaxUploadBytes:    50 << 20,
			MaxConcurrent:     4,
			UnzipSizeLimit:    1 << 30,
			UnzipXMLSizeLimit: 16 << 20,
			RowBuffer:         64,
		},
		Telemetry: TelemetryConfig{
			ServiceName:     "site-outage",
			Environment:     "development",
			TraceExporter:   "none",
			MetricsExporter: "prometheus",
			SampleRatio:     1,
		},
	}
}
