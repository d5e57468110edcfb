package config

import (
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config - 환경 변수 설정
type Config struct {
	HTTPAddr     string `env:"HTTP_ADDR" envDefault:":3001"`
	AllowOrigins string `env:"ALLOW_ORIGINS" envDefault:"*"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`

	// 데이터베이스
	DBDriver      string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBPath        string `env:"DB_PATH" envDefault:"ramen-office.db"`
	MySQLHost     string `env:"MYSQL_HOST"`
	MySQLPort     int    `env:"MYSQL_PORT" envDefault:"3306"`
	MySQLUser     string `env:"MYSQL_USER"`
	MySQLPassword string `env:"MYSQL_PASSWORD"`
	MySQLDatabase string `env:"MYSQL_DATABASE"`

	// 네트워크 스캔
	ScanEnabled      bool          `env:"SCAN_ENABLED" envDefault:"true"`
	ScanSubnet       string        `env:"SCAN_SUBNET" envDefault:"192.168.1.0/24"`
	ScanInterval     time.Duration `env:"SCAN_INTERVAL" envDefault:"30s"`
	OfflineThreshold time.Duration `env:"OFFLINE_THRESHOLD" envDefault:"5m"`

	// 활동 로그
	LogFlushSize     int           `env:"LOG_FLUSH_SIZE" envDefault:"50"`
	LogFlushInterval time.Duration `env:"LOG_FLUSH_INTERVAL" envDefault:"10s"`

	// 캐릭터 활동
	ActivityTickInterval  time.Duration `env:"ACTIVITY_TICK_INTERVAL" envDefault:"5s"`
	ActivityMinCooldown   time.Duration `env:"ACTIVITY_MIN_COOLDOWN" envDefault:"60s"`
	ActivityMaxCooldown   time.Duration `env:"ACTIVITY_MAX_COOLDOWN" envDefault:"180s"`
	ActivityProbability   float64       `env:"ACTIVITY_PROBABILITY" envDefault:"0.3"`
	ActivityMaxStarts     int           `env:"ACTIVITY_MAX_STARTS" envDefault:"2"`
	ActivityMinPopulation int           `env:"ACTIVITY_MIN_POPULATION" envDefault:"2"`
	WalkStepDuration      time.Duration `env:"WALK_STEP_DURATION" envDefault:"150ms"`
	FrameInterval         time.Duration `env:"FRAME_INTERVAL" envDefault:"50ms"`
}

// Load - .env 파일(있으면)과 환경 변수에서 설정 로드
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate - 설정 값 검증
func (c Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for sqlite"))
		}
	case "mysql":
		if c.MySQLHost == "" || c.MySQLUser == "" || c.MySQLDatabase == "" {
			errs = append(errs, errors.New("MYSQL_HOST, MYSQL_USER and MYSQL_DATABASE are required for mysql"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver))
	}

	if c.ScanEnabled {
		if _, err := netip.ParsePrefix(c.ScanSubnet); err != nil {
			errs = append(errs, fmt.Errorf("invalid SCAN_SUBNET: %w", err))
		}
		if c.ScanInterval <= 0 {
			errs = append(errs, errors.New("SCAN_INTERVAL must be positive"))
		}
	}
	if c.OfflineThreshold <= 0 {
		errs = append(errs, errors.New("OFFLINE_THRESHOLD must be positive"))
	}
	if c.LogFlushSize <= 0 || c.LogFlushInterval <= 0 {
		errs = append(errs, errors.New("LOG_FLUSH_SIZE and LOG_FLUSH_INTERVAL must be positive"))
	}

	if c.ActivityTickInterval <= 0 {
		errs = append(errs, errors.New("ACTIVITY_TICK_INTERVAL must be positive"))
	}
	if c.ActivityMinCooldown <= 0 || c.ActivityMinCooldown > c.ActivityMaxCooldown {
		errs = append(errs, fmt.Errorf("activity cooldown range [%v, %v] is invalid", c.ActivityMinCooldown, c.ActivityMaxCooldown))
	}
	if c.ActivityProbability < 0 || c.ActivityProbability > 1 {
		errs = append(errs, fmt.Errorf("ACTIVITY_PROBABILITY %v is outside [0, 1]", c.ActivityProbability))
	}
	if c.ActivityMaxStarts <= 0 {
		errs = append(errs, errors.New("ACTIVITY_MAX_STARTS must be positive"))
	}
	if c.ActivityMinPopulation < 0 {
		errs = append(errs, errors.New("ACTIVITY_MIN_POPULATION must not be negative"))
	}
	if c.WalkStepDuration <= 0 || c.FrameInterval <= 0 {
		errs = append(errs, errors.New("WALK_STEP_DURATION and FRAME_INTERVAL must be positive"))
	}

	return errors.Join(errs...)
}

// ScanPrefix - 스캔 대상 subnet (스캔을 끄면 필터 없음)
func (c Config) ScanPrefix() (netip.Prefix, error) {
	if !c.ScanEnabled {
		return netip.Prefix{}, nil
	}
	prefix, err := netip.ParsePrefix(c.ScanSubnet)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("parse SCAN_SUBNET: %w", err)
	}
	return prefix, nil
}

// MySQLDSN - MySQL 접속 문자열
func (c Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.MySQLUser, c.MySQLPassword, c.MySQLHost, c.MySQLPort, c.MySQLDatabase)
}

// NewLogger - LOG_LEVEL에 맞는 zap 로거 생성
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.EncoderConfig.TimeKey = "time"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zcfg.Build()
}
