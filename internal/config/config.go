package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"attendance.service/internal/core/policy"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// The service runs in EKS; DB connection settings, queue URLs and the
// workday policy are injected as environment variables on the pod.

type Config struct {
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBMaxOpenConns int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	ServerPort     string `mapstructure:"SERVER_PORT"`
	IsLocalDev     bool   `mapstructure:"IS_LOCAL_DEV"`

	AWSRegion         string `mapstructure:"AWS_REGION"`
	AWSEndpoint       string `mapstructure:"AWS_ENDPOINT"`
	EventsSQSQueueURL string `mapstructure:"EVENTS_SQS_QUEUE_URL"`
	SweepSQSQueueURL  string `mapstructure:"SWEEP_SQS_QUEUE_URL"`
	EmailSender       string `mapstructure:"EMAIL_SENDER"`
	OTelEndpoint      string `mapstructure:"OTEL_EXPORTER_ENDPOINT"`

	// DirectoryURL selects the HTTP user directory; empty reads the employees table.
	DirectoryURL string `mapstructure:"DIRECTORY_URL"`
	// StoreDriver is "postgres" or "memory".
	StoreDriver        string        `mapstructure:"STORE_DRIVER"`
	StoreTimeout       time.Duration `mapstructure:"STORE_TIMEOUT"`
	IndexRetryAttempts uint          `mapstructure:"INDEX_RETRY_ATTEMPTS"`
	IndexRetryInterval time.Duration `mapstructure:"INDEX_RETRY_INTERVAL"`

	Timezone            string `mapstructure:"TIMEZONE"`
	LateThreshold       string `mapstructure:"LATE_THRESHOLD"`
	AbsentThreshold     string `mapstructure:"ABSENT_THRESHOLD"`
	StandardWorkMinutes int    `mapstructure:"STANDARD_WORK_MINUTES"`

	// SweepMode is "sqs" (external scheduler through SWEEP_SQS_QUEUE_URL) or
	// "schedule" (in-process daily timer at SweepAt).
	SweepMode string `mapstructure:"SWEEP_MODE"`
	SweepAt   string `mapstructure:"SWEEP_AT"`

	// SweepRetryInterval is the first backoff step when a scheduled sweep
	// fails; retries stop before the next scheduled run.
	SweepRetryInterval time.Duration `mapstructure:"SWEEP_RETRY_INTERVAL"`
}

// LoadConfig reads configuration from environment variables. A .env file in
// the working directory is loaded first for local runs; variables already set
// in the environment win.
func LoadConfig() (config Config, err error) {
	if err = godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	// Read in environment variables that match the keys.
	v.AutomaticEnv()

	err = v.Unmarshal(&config)
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_HOST", "db")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "attendance_db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("IS_LOCAL_DEV", false)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	v.SetDefault("EVENTS_SQS_QUEUE_URL", "http://localstack:4566/000000000000/attendance-events")
	v.SetDefault("SWEEP_SQS_QUEUE_URL", "http://localstack:4566/000000000000/attendance-sweep")
	v.SetDefault("EMAIL_SENDER", "attendance@attendance-service.com")
	v.SetDefault("OTEL_EXPORTER_ENDPOINT", "")
	v.SetDefault("DIRECTORY_URL", "")
	v.SetDefault("STORE_DRIVER", "postgres")
	v.SetDefault("STORE_TIMEOUT", "5s")
	v.SetDefault("INDEX_RETRY_ATTEMPTS", 4)
	v.SetDefault("INDEX_RETRY_INTERVAL", "200ms")
	v.SetDefault("TIMEZONE", "Asia/Dhaka")
	v.SetDefault("LATE_THRESHOLD", "10:15")
	v.SetDefault("ABSENT_THRESHOLD", "11:00")
	v.SetDefault("STANDARD_WORK_MINUTES", 480)
	v.SetDefault("SWEEP_MODE", "sqs")
	v.SetDefault("SWEEP_AT", "11:00")
	v.SetDefault("SWEEP_RETRY_INTERVAL", "30s")
}

// Policy builds and validates the workday policy from the configuration.
func (c Config) Policy() (policy.Policy, error) {
	loc, err := c.Location()
	if err != nil {
		return policy.Policy{}, err
	}
	late, err := ParseClock(c.LateThreshold)
	if err != nil {
		return policy.Policy{}, fmt.Errorf("LATE_THRESHOLD: %w", err)
	}
	absent, err := ParseClock(c.AbsentThreshold)
	if err != nil {
		return policy.Policy{}, fmt.Errorf("ABSENT_THRESHOLD: %w", err)
	}

	p := policy.Policy{
		LateThreshold:       late,
		AbsentThreshold:     absent,
		StandardWorkMinutes: c.StandardWorkMinutes,
		Location:            loc,
	}
	if err := p.Validate(); err != nil {
		return policy.Policy{}, err
	}
	return p, nil
}

func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ParseClock parses a time of day such as "10:15" or "10:15:30" into an
// offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q, want HH:MM", s)
}
