package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "opscomposer.cfg.json"

// EnvPrefix prefixes environment overrides, e.g. OPSCOMPOSER_STORAGE_TYPE.
const EnvPrefix = "OPSCOMPOSER"

// APIConfig locates the persistence service the composer saves to
type APIConfig struct {
	ServerURL string        `json:"serverUrl" mapstructure:"serverUrl"`
	Timeout   time.Duration `json:"timeout" mapstructure:"timeout"`
}

// StorageConfig holds mission storage backend settings
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// MemoryConfig holds in-memory backend settings. A non-empty SnapshotPath is
// loaded on start and written on shutdown.
type MemoryConfig struct {
	SnapshotPath string `json:"snapshotPath" mapstructure:"snapshotPath"`
}

// DBConfig holds Postgres connection settings
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// SQLiteConfig holds SQLite backend settings. An empty Path means in-memory.
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// ServerConfig holds persistence service settings
type ServerConfig struct {
	Listen          string        `json:"listen" mapstructure:"listen"`
	ReadTimeout     time.Duration `json:"readTimeout" mapstructure:"readTimeout"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout" mapstructure:"shutdownTimeout"`
}

// RefDataConfig locates the reference data providers
type RefDataConfig struct {
	UsersURL   string `json:"usersUrl" mapstructure:"usersUrl"`
	ShipsURL   string `json:"shipsUrl" mapstructure:"shipsUrl"`
	ShipsFile  string `json:"shipsFile" mapstructure:"shipsFile"`
	UsersFile  string `json:"usersFile" mapstructure:"usersFile"`
	LookupSize int    `json:"lookupCacheSize" mapstructure:"lookupCacheSize"`
}

// InfluxConfig holds mission activity metrics settings
type InfluxConfig struct {
	Enabled  bool          `json:"enabled" mapstructure:"enabled"`
	URL      string        `json:"url" mapstructure:"url"`
	Token    string        `json:"token" mapstructure:"token"`
	Org      string        `json:"org" mapstructure:"org"`
	Bucket   string        `json:"bucket" mapstructure:"bucket"`
	Interval time.Duration `json:"flushInterval" mapstructure:"flushInterval"`
}

// HostConfig holds host container presentation settings
type HostConfig struct {
	FocusDelay time.Duration `json:"focusDelay" mapstructure:"focusDelay"`
}

// Load reads configuration from the JSON file in configDir and sets default values.
// A missing file is not an error; defaults and environment overrides still apply.
func Load(configDir string) error {
	_ = godotenv.Load(filepath.Join(configDir, ".env"))

	setDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("api.serverUrl", "http://localhost:8080")
	viper.SetDefault("api.timeout", "30s")

	viper.SetDefault("server.listen", ":8080")
	viper.SetDefault("server.readTimeout", "15s")
	viper.SetDefault("server.shutdownTimeout", "10s")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.snapshotPath", "")
	viper.SetDefault("storage.sqlite.path", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "opscomposer")

	viper.SetDefault("refdata.usersUrl", "")
	viper.SetDefault("refdata.shipsUrl", "")
	viper.SetDefault("refdata.shipsFile", "")
	viper.SetDefault("refdata.usersFile", "")
	viper.SetDefault("refdata.lookupCacheSize", 512)

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.url", "http://localhost:8086")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "aydocorp")
	viper.SetDefault("influx.bucket", "mission_activity")
	viper.SetDefault("influx.flushInterval", "10s")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("host.focusDelay", "350ms")
}

// GetAPIConfig returns the persistence service client configuration.
func GetAPIConfig() APIConfig {
	return APIConfig{
		ServerURL: viper.GetString("api.serverUrl"),
		Timeout:   viper.GetDuration("api.timeout"),
	}
}

// GetStorageConfig returns the storage backend configuration.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: strings.ToLower(viper.GetString("storage.type")),
		Memory: MemoryConfig{
			SnapshotPath: viper.GetString("storage.memory.snapshotPath"),
		},
		SQLite: SQLiteConfig{
			Path: viper.GetString("storage.sqlite.path"),
		},
	}
}

// GetDBConfig returns the Postgres connection configuration.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}

// GetServerConfig returns the persistence service configuration.
func GetServerConfig() ServerConfig {
	return ServerConfig{
		Listen:          viper.GetString("server.listen"),
		ReadTimeout:     viper.GetDuration("server.readTimeout"),
		ShutdownTimeout: viper.GetDuration("server.shutdownTimeout"),
	}
}

// GetRefDataConfig returns the reference data provider configuration.
func GetRefDataConfig() RefDataConfig {
	return RefDataConfig{
		UsersURL:   viper.GetString("refdata.usersUrl"),
		ShipsURL:   viper.GetString("refdata.shipsUrl"),
		ShipsFile:  viper.GetString("refdata.shipsFile"),
		UsersFile:  viper.GetString("refdata.usersFile"),
		LookupSize: viper.GetInt("refdata.lookupCacheSize"),
	}
}

// GetInfluxConfig returns the metrics sink configuration.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		URL:      viper.GetString("influx.url"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
		Interval: viper.GetDuration("influx.flushInterval"),
	}
}

// GetHostConfig returns host container settings.
func GetHostConfig() HostConfig {
	return HostConfig{
		FocusDelay: viper.GetDuration("host.focusDelay"),
	}
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}
