package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/frahmantamala/agenda-management/internal"
)

var rootCmd = &cobra.Command{
	Use:   "agenda-management",
	Short: "Agenda Management",
	Long:  `School agenda service: event lifecycle, approval workflow and audit trail.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*internal.Config, error) {
	// .env is optional, environment variables win either way
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("ENV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_server.port", 8080)
	v.SetDefault("http_server.read_header_timeout", "5s")
	v.SetDefault("http_server.read_timeout", "15s")
	v.SetDefault("http_server.write_timeout", "30s")
	v.SetDefault("http_server.idle_timeout", "60s")
	v.SetDefault("http_server.allowed_origins", "*")

	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.conn_max_idle_time", "5m")

	v.SetDefault("security.access_token_duration", "15m")
	v.SetDefault("security.refresh_token_duration", "168h")
	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("security.max_login_attempts", 5)
	v.SetDefault("security.login_attempt_window", "15m")

	v.SetDefault("school.admin_domain", "@smkn1kotabekasi.admin.sch.id")
	v.SetDefault("school.guru_domain", "@smkn1kotabekasi.guru.sch.id")
	v.SetDefault("school.siswa_domain", "@smkn1kotabekasi.sch.id")

	v.SetDefault("lifecycle.stale_pending_max_days", 30)
	v.SetDefault("lifecycle.activity_keep_days", 90)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func init() {
	rootCmd.AddCommand(httpServerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(sweepCmd)
}
