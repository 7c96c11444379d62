package internal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"http_server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Security  SecurityConfig  `mapstructure:"security"`
	School    SchoolConfig    `mapstructure:"school"`
	Lifecycle LifecycleConfig `mapstructure:"lifecycle"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Source          string        `mapstructure:"source" validate:"required"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type SecurityConfig struct {
	AccessTokenSecret    string        `mapstructure:"access_token_secret" validate:"required,min=32"`
	RefreshTokenSecret   string        `mapstructure:"refresh_token_secret" validate:"required,min=32"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration" validate:"required"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration" validate:"required"`
	BCryptCost           int           `mapstructure:"bcrypt_cost" validate:"required,min=10,max=15"`
	MaxLoginAttempts     int           `mapstructure:"max_login_attempts" validate:"required,min=1"`
	LoginAttemptWindow   time.Duration `mapstructure:"login_attempt_window" validate:"required"`
}

// SchoolConfig binds email domain suffixes to roles. Role assignment is derived
// from these at user creation time and never changes afterwards.
type SchoolConfig struct {
	AdminDomain string `mapstructure:"admin_domain" validate:"required,startswith=@"`
	GuruDomain  string `mapstructure:"guru_domain" validate:"required,startswith=@"`
	SiswaDomain string `mapstructure:"siswa_domain" validate:"required,startswith=@"`
}

type LifecycleConfig struct {
	StalePendingMaxDays int `mapstructure:"stale_pending_max_days" validate:"required,min=1"`
	ActivityKeepDays    int `mapstructure:"activity_keep_days" validate:"required,min=1"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	if err := c.Server.validateOrigins(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return errors.New("database config: max_idle_conns cannot be greater than max_open_conns")
	}
	if c.Server.ReadTimeout < c.Server.ReadHeaderTimeout {
		return errors.New("server config: read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *ServerConfig) validateOrigins() error {
	if c.AllowedOrigins == "" {
		return nil
	}
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			continue
		}
		if _, err := url.Parse(origin); err != nil {
			return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
		}
	}
	return nil
}

// Origins splits the comma-separated allowed_origins value.
func (c *ServerConfig) Origins() []string {
	if c.AllowedOrigins == "" {
		return []string{"*"}
	}
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

// DomainRole maps an email address to the role its domain suffix implies.
// Unknown domains yield an empty role.
func (c *SchoolConfig) DomainRole(email string) string {
	switch {
	case strings.HasSuffix(email, c.AdminDomain):
		return "admin"
	case strings.HasSuffix(email, c.GuruDomain):
		return "guru"
	case strings.HasSuffix(email, c.SiswaDomain):
		return "siswa"
	default:
		return ""
	}
}

// IsSchoolEmail reports whether the address carries one of the configured
// school domain suffixes.
func (c *SchoolConfig) IsSchoolEmail(email string) bool {
	return c.DomainRole(email) != ""
}
