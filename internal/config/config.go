package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/yoomapp/yoom-web/internal/guard"
)

type Config struct {
	ListenAddr string `env:"YOOM_LISTEN_ADDR" envDefault:":3000"`
	// BaseURL prefixes shareable meeting links.
	BaseURL string `env:"YOOM_BASE_URL"`

	AuthJWTSecret    string `env:"YOOM_AUTH_JWT_SECRET"`
	AuthJWTPublicKey string `env:"YOOM_AUTH_JWT_PUBLIC_KEY"`
	AuthIssuer       string `env:"YOOM_AUTH_ISSUER"`
	SignInURL        string `env:"YOOM_SIGN_IN_URL" envDefault:"/sign-in"`
	// AuthProviderURL is the hosted identity provider the sign-in page hands off to.
	AuthProviderURL string `env:"YOOM_AUTH_PROVIDER_URL"`

	VideoProvider   string `env:"YOOM_VIDEO_PROVIDER" envDefault:"fake"`
	StreamAPIKey    string `env:"YOOM_STREAM_API_KEY"`
	StreamAPISecret string `env:"YOOM_STREAM_API_SECRET"`
	StreamBaseURL   string `env:"YOOM_STREAM_BASE_URL"`
	VideoCallType   string `env:"YOOM_VIDEO_CALL_TYPE" envDefault:"default"`

	AutoJoinInstant bool          `env:"YOOM_AUTO_JOIN_INSTANT" envDefault:"false"`
	SessionIdleTTL  time.Duration `env:"YOOM_SESSION_IDLE_TTL" envDefault:"30m"`

	RoutesFile string `env:"YOOM_ROUTES_FILE"`
	Routes     Routes

	LogLevel     string `env:"YOOM_LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"YOOM_LOG_FORMAT" envDefault:"console"`
	OTELEndpoint string `env:"YOOM_OTEL_ENDPOINT"`
}

// Routes are the guard's pattern sets.
type Routes struct {
	Protected        []string `toml:"protected"`
	APIPrefixes      []string `toml:"api_prefixes"`
	InternalPrefixes []string `toml:"internal_prefixes"`
}

func DefaultRoutes() Routes {
	return Routes{
		Protected:        append([]string(nil), guard.DefaultProtected...),
		APIPrefixes:      append([]string(nil), guard.DefaultAPIPrefixes...),
		InternalPrefixes: append([]string(nil), guard.DefaultInternalPrefixes...),
	}
}

// Build compiles the route sets. Invalid patterns are an error.
func (r Routes) Build() (*guard.Matcher, guard.RunMatcher, error) {
	m, err := guard.NewMatcher(r.Protected)
	if err != nil {
		return nil, guard.RunMatcher{}, err
	}
	return m, guard.RunMatcher{APIPrefixes: r.APIPrefixes, InternalPrefixes: r.InternalPrefixes}, nil
}

func LoadFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Routes = DefaultRoutes()
	if cfg.RoutesFile != "" {
		routes, err := LoadRoutesFile(cfg.RoutesFile)
		if err != nil {
			return Config{}, err
		}
		cfg.Routes = routes
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadRoutesFile reads a TOML routes file. Keys left out keep their defaults.
func LoadRoutesFile(path string) (Routes, error) {
	var fc Routes
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return Routes{}, fmt.Errorf("read routes file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Routes{}, fmt.Errorf("routes file %s: unknown key %s", path, undecoded[0])
	}
	routes := DefaultRoutes()
	if md.IsDefined("protected") {
		routes.Protected = fc.Protected
	}
	if md.IsDefined("api_prefixes") {
		routes.APIPrefixes = fc.APIPrefixes
	}
	if md.IsDefined("internal_prefixes") {
		routes.InternalPrefixes = fc.InternalPrefixes
	}
	return routes, nil
}

// Validate normalizes cfg in place and reports the first problem.
func (cfg *Config) Validate() error {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return errors.New("YOOM_BASE_URL is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("YOOM_BASE_URL must be an absolute http(s) URL, got %q", cfg.BaseURL)
	}
	if cfg.AuthJWTSecret == "" && cfg.AuthJWTPublicKey == "" {
		return errors.New("YOOM_AUTH_JWT_SECRET or YOOM_AUTH_JWT_PUBLIC_KEY is required")
	}
	if cfg.SignInURL == "" {
		cfg.SignInURL = "/sign-in"
	}
	switch cfg.VideoProvider {
	case "fake":
	case "stream":
		if cfg.StreamAPIKey == "" || cfg.StreamAPISecret == "" {
			return errors.New("YOOM_STREAM_API_KEY and YOOM_STREAM_API_SECRET are required for stream video provider")
		}
	default:
		return errors.New("YOOM_VIDEO_PROVIDER must be one of fake|stream")
	}
	if cfg.SessionIdleTTL <= 0 {
		return errors.New("YOOM_SESSION_IDLE_TTL must be positive")
	}
	switch cfg.LogFormat {
	case "console", "json":
	default:
		return errors.New("YOOM_LOG_FORMAT must be one of console|json")
	}
	if _, _, err := cfg.Routes.Build(); err != nil {
		return fmt.Errorf("invalid route patterns: %w", err)
	}
	return nil
}
