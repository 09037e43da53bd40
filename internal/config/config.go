package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration. It is populated by
// viper from the config file and LEARNYST_* environment variables; see
// SetDefaults for the full key space.
type Config struct {
	Logger  LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig     `mapstructure:"browser" yaml:"browser"`
	Target  TargetConfig      `mapstructure:"target" yaml:"target"`
	Queue   QueueConfig       `mapstructure:"queue" yaml:"queue"`
	Server  ServerConfig      `mapstructure:"server" yaml:"server"`
	Courses map[string]string `mapstructure:"courses" yaml:"courses"`
}

// LoggerConfig controls the global zap logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"` // "console" or "json"
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"` // megabytes, per lumberjack
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"` // days
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig maps log levels to terminal colors for the console encoder.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
}

// BrowserConfig controls the headless Chrome process.
type BrowserConfig struct {
	Headless   bool     `mapstructure:"headless" yaml:"headless"`
	DisableGPU bool     `mapstructure:"disable_gpu" yaml:"disable_gpu"`
	NoSandbox  bool     `mapstructure:"no_sandbox" yaml:"no_sandbox"`
	// Args are extra chrome flags, either "--flag" or "--key=value".
	Args []string `mapstructure:"args" yaml:"args"`
}

// TargetConfig describes the admin console being driven and the timing
// bounds for every UI wait against it.
type TargetConfig struct {
	// BaseURL is the admin console root, e.g. "https://techpathai.learnyst.com".
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	// StepTimeout bounds each individual UI step inside an action sequence.
	StepTimeout time.Duration `mapstructure:"step_timeout" yaml:"step_timeout"`
	// ProbeTimeout bounds non-fatal presence checks (is the row there?).
	ProbeTimeout time.Duration `mapstructure:"probe_timeout" yaml:"probe_timeout"`
	// LoginTimeout bounds the whole login sequence, landmark wait included.
	LoginTimeout time.Duration `mapstructure:"login_timeout" yaml:"login_timeout"`
	// LoginInterval is the minimum spacing between login attempts, so a
	// broken target site is not hammered with authentication requests.
	LoginInterval time.Duration `mapstructure:"login_interval" yaml:"login_interval"`
	// SessionIdleTTL closes a session that has not been used for this long;
	// the next action pays for a fresh login.
	SessionIdleTTL time.Duration `mapstructure:"session_idle_ttl" yaml:"session_idle_ttl"`
}

// QueueConfig controls the execution serializer.
type QueueConfig struct {
	// MaxDepth is the number of pending actions accepted before new
	// submissions are rejected as overloaded.
	MaxDepth int `mapstructure:"max_depth" yaml:"max_depth"`
}

// ServerConfig controls the HTTP boundary.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
	// APIKey is the shared secret callers must present. Independent of the
	// target-site credentials carried inside each action.
	APIKey        string        `mapstructure:"api_key" yaml:"api_key"`
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace" yaml:"shutdown_grace"`
}

// defaultCourses is the course-code table shipped with the service. It can
// be replaced wholesale from the config file.
var defaultCourses = map[string]string{
	"fs1":  "Full Stack 1",
	"fs2":  "Full Stack 2",
	"fs3":  "Full Stack 3",
	"fs4":  "Full Stack 4",
	"fs5":  "Full Stack 5",
	"meta": "Meta Interview Advance Concepts",
	"own":  "Ownership",
}

// SetDefaults registers every configuration key with its default value on
// the given viper instance. Calling this before ReadInConfig means a partial
// config file or bare environment still yields a complete Config.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "learnyst-automator")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_gpu", true)
	v.SetDefault("browser.no_sandbox", true)
	v.SetDefault("browser.args", []string{"--disable-dev-shm-usage"})

	v.SetDefault("target.base_url", "https://techpathai.learnyst.com")
	v.SetDefault("target.navigation_timeout", 60*time.Second)
	v.SetDefault("target.step_timeout", 10*time.Second)
	v.SetDefault("target.probe_timeout", 5*time.Second)
	v.SetDefault("target.login_timeout", 90*time.Second)
	v.SetDefault("target.login_interval", 5*time.Second)
	v.SetDefault("target.session_idle_ttl", 30*time.Minute)

	v.SetDefault("queue.max_depth", 32)

	v.SetDefault("server.addr", ":5500")
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.shutdown_grace", 30*time.Second)

	v.SetDefault("courses", defaultCourses)
}

// NewDefault returns a Config carrying only defaults, without touching the
// filesystem or environment. Used by tests and as a fallback.
func NewDefault() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	// Unmarshalling pure defaults cannot fail.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate checks invariants the rest of the system relies on.
func (c *Config) Validate() error {
	if c.Target.BaseURL == "" {
		return fmt.Errorf("target.base_url must be set")
	}
	if c.Queue.MaxDepth <= 0 {
		return fmt.Errorf("queue.max_depth must be positive, got %d", c.Queue.MaxDepth)
	}
	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"target.navigation_timeout", c.Target.NavigationTimeout},
		{"target.step_timeout", c.Target.StepTimeout},
		{"target.probe_timeout", c.Target.ProbeTimeout},
		{"target.login_timeout", c.Target.LoginTimeout},
	} {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got %v", d.name, d.value)
		}
	}
	if len(c.Courses) == 0 {
		return fmt.Errorf("courses table must not be empty")
	}
	return nil
}

// ResolveCourse maps a short course code to its on-site display name.
func (c *Config) ResolveCourse(code string) (string, bool) {
	name, ok := c.Courses[code]
	return name, ok
}
