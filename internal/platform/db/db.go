package db

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

const (
	driverName = "mysql"

	DriverMySQL  = "mysql"
	DriverMemory = "memory"

	ModeDev     = "dev"
	ModeRelease = "release"
)

type DatabaseConfig struct {
	Driver      string `yaml:"driver"` // mysql | memory
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Username    string `yaml:"user"`
	Password    string `yaml:"password"`
	DBName      string `yaml:"dbname"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type Certs struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	// 初回起動時に作成する管理者（空ならスキップ）
	AdminID       string `yaml:"admin_id"`
	AdminPassword string `yaml:"admin_password"`
}

type LendingConfig struct {
	DefaultLoanDays int `yaml:"default_loan_days"`
}

type Config struct {
	Version     string         `yaml:"version"`
	Mode        string         `yaml:"mode"`
	Addr        string         `yaml:"addr"`
	DB          DatabaseConfig `yaml:"database"`
	Certificate Certs          `yaml:"certificate"`
	Auth        AuthConfig     `yaml:"auth"`
	Lending     LendingConfig  `yaml:"lending"`
}

// LoadConfig reads the yaml file, then applies LIBRA_* environment overrides and defaults.
func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイルの読み込み失敗: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("設定ファイルのパース失敗: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	setStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setStr("LIBRA_MODE", &c.Mode)
	setStr("LIBRA_ADDR", &c.Addr)
	setStr("LIBRA_DB_DRIVER", &c.DB.Driver)
	setStr("LIBRA_DB_HOST", &c.DB.Host)
	setStr("LIBRA_DB_USER", &c.DB.Username)
	setStr("LIBRA_DB_PASSWORD", &c.DB.Password)
	setStr("LIBRA_DB_NAME", &c.DB.DBName)
	setStr("LIBRA_JWT_SECRET", &c.Auth.JWTSecret)
	setStr("LIBRA_ADMIN_ID", &c.Auth.AdminID)
	setStr("LIBRA_ADMIN_PASSWORD", &c.Auth.AdminPassword)

	if v := os.Getenv("LIBRA_DB_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LIBRA_DB_PORT が不正: %w", err)
		}
		c.DB.Port = p
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeDev
	}
	if c.Addr == "" {
		c.Addr = ":8443"
	}
	if c.DB.Driver == "" {
		c.DB.Driver = DriverMySQL
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Lending.DefaultLoanDays <= 0 {
		c.Lending.DefaultLoanDays = 14
	}
}

// Validate はモードとドライバの組み合わせを検査する
func (c *Config) Validate() error {
	if c.Mode != ModeDev && c.Mode != ModeRelease {
		return fmt.Errorf("mode must be %q or %q, got %q", ModeDev, ModeRelease, c.Mode)
	}
	if c.DB.Driver != DriverMySQL && c.DB.Driver != DriverMemory {
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverMySQL, DriverMemory, c.DB.Driver)
	}
	if c.Mode == ModeRelease && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required in release mode")
	}
	return nil
}

// DSN builds the go-sql-driver/mysql data source name.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&tls=false&timeout=3s&readTimeout=5s&writeTimeout=5s&loc=UTC",
		c.Username, c.Password, c.Host, c.Port, c.DBName)
}

func Connect(c DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(driverName, c.DSN())
	if err != nil {
		return nil, fmt.Errorf("接続準備に失敗: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("DB接続に失敗: %w", err)
	}

	// 接続プール（合算がMySQLの max_connections を超えないよう配分する）
	db.SetMaxOpenConns(80)
	db.SetMaxIdleConns(20)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}
