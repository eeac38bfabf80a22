package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Backend  BackendConfig  `yaml:"backend"`
	Stops    StopsConfig    `yaml:"stops"`
	Database DatabaseConfig `yaml:"-"`
	Render   RenderConfig   `yaml:"render"`
	Notify   NotifyConfig   `yaml:"notify"`
	Logging  LoggingConfig  `yaml:"-"`
}

type ServerConfig struct {
	Port           int      `yaml:"port" validate:"gt=0,lt=65536"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
	StaticDir      string   `yaml:"staticDir"`
}

// BackendConfig points at the passenger-flow backend service
type BackendConfig struct {
	BaseURL    string        `yaml:"baseURL" validate:"required,url"`
	Timeout    time.Duration `yaml:"timeout" validate:"gt=0"`
	UseWeather bool          `yaml:"useWeather"`
	// AuthToken is sent as a bearer token when the operator's request carries none
	AuthToken string `yaml:"-"`
}

type StopsConfig struct {
	Source   string        `yaml:"source" validate:"oneof=api postgres"`
	CacheTTL time.Duration `yaml:"cacheTTL" validate:"gte=0"`
	// RefreshInterval reloads the stop list in the background; 0 disables it
	RefreshInterval time.Duration `yaml:"refreshInterval" validate:"gte=0"`
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// Margin is the blank border around the drawable area, in pixels
type Margin struct {
	Top    float64 `yaml:"top" validate:"gte=0"`
	Right  float64 `yaml:"right" validate:"gte=0"`
	Bottom float64 `yaml:"bottom" validate:"gte=0"`
	Left   float64 `yaml:"left" validate:"gte=0"`
}

// RenderConfig controls heatmap geometry; it can be overridden from YAML
type RenderConfig struct {
	Width      float64 `yaml:"width" validate:"gt=0"`
	Height     float64 `yaml:"height" validate:"gt=0"`
	Margin     Margin  `yaml:"margin"`
	NodeRadius float64 `yaml:"nodeRadius" validate:"gt=0"`
	Cyclic     bool    `yaml:"cyclic"`
	TableFrom  int     `yaml:"tableFrom" validate:"gte=0,lte=23"`
	TableTo    int     `yaml:"tableTo" validate:"gte=0,lte=23,gtefield=TableFrom"`
	PNGScale   int     `yaml:"pngScale" validate:"gte=1,lte=4"`
}

type NotifyConfig struct {
	WebhookURL    string        `yaml:"webhookURL" validate:"omitempty,url"`
	ToastDuration time.Duration `yaml:"toastDuration" validate:"gt=0"`
}

type LoggingConfig struct {
	Level    string
	FilePath string
}

// DefaultRender is the 1000x600 canvas the operator UI was designed for
func DefaultRender() RenderConfig {
	return RenderConfig{
		Width:      1000,
		Height:     600,
		Margin:     Margin{Top: 40, Right: 100, Bottom: 40, Left: 100},
		NodeRadius: 20,
		Cyclic:     true,
		TableFrom:  6,
		TableTo:    18,
		PNGScale:   2,
	}
}

// Load reads configuration from the environment, applies the optional YAML
// file named by CONFIG_FILE on top, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           getIntEnv("PORT", 8090),
			AllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:8090"}),
			StaticDir:      getEnv("STATIC_DIR", ""),
		},
		Backend: BackendConfig{
			BaseURL:    getEnv("BACKEND_URL", "http://localhost:8080"),
			Timeout:    getDurationEnv("BACKEND_TIMEOUT", 30*time.Second),
			UseWeather: getBoolEnv("USE_WEATHER", true),
			AuthToken:  getEnv("BACKEND_TOKEN", ""),
		},
		Stops: StopsConfig{
			Source:   getEnv("STOPS_SOURCE", "api"),
			CacheTTL: getDurationEnv("STOPS_CACHE_TTL", 10*time.Minute),

			RefreshInterval: getDurationEnv("STOPS_REFRESH_INTERVAL", 0),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "passengerflow"),
		},
		Render: DefaultRender(),
		Notify: NotifyConfig{
			WebhookURL:    getEnv("NOTIFY_WEBHOOK_URL", ""),
			ToastDuration: getDurationEnv("TOAST_DURATION", 5*time.Second),
		},
		Logging: LoggingConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			FilePath: getEnv("LOG_FILE", "passengerflow-console.log"),
		},
	}

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyFile overlays the YAML file; keys absent from the file keep their current value
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Stops.Source == "postgres" {
		if err := c.Database.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Host == "" || c.DBName == "" || c.User == "" {
		return fmt.Errorf("database host, name and user are required for the postgres stop source")
	}
	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.DBName)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
