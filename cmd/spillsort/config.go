package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

// config is read from the environment (or the file named by
// SPILLSORT_CONFIG) and then overridden by command line flags.
type config struct {
	Store    string `env:"SPILLSORT_STORE"    env-default:"local" validate:"oneof=local s3 minio"`
	WorkDir  string `env:"SPILLSORT_WORKDIR"  env-default:"."     validate:"required_if=Store local"`
	Bucket   string `env:"SPILLSORT_BUCKET"                       validate:"required_unless=Store local"`
	Prefix   string `env:"SPILLSORT_PREFIX"`
	Endpoint string `env:"SPILLSORT_ENDPOINT"                     validate:"required_if=Store minio"`
	Region   string `env:"SPILLSORT_REGION"`

	AccessKey string `env:"SPILLSORT_ACCESS_KEY"`
	SecretKey string `env:"SPILLSORT_SECRET_KEY"`
	Secure    bool   `env:"SPILLSORT_SECURE"`

	Capacity    int    `env:"SPILLSORT_CAPACITY"     validate:"gte=0"`
	MemoryBytes int64  `env:"SPILLSORT_MEMORY"       validate:"gte=0"`
	Compression string `env:"SPILLSORT_COMPRESSION"  env-default:"none" validate:"oneof=none lz4 zstd"`
	IOLimit     int64  `env:"SPILLSORT_IO_LIMIT"     validate:"gte=0"`
	Mmap        bool   `env:"SPILLSORT_MMAP"         env-default:"true"`

	LogLevel    string `env:"SPILLSORT_LOG_LEVEL"    env-default:"info" validate:"oneof=debug info warn error"`
	LogJSON     bool   `env:"SPILLSORT_LOG_JSON"`
	MetricsAddr string `env:"SPILLSORT_METRICS_ADDR" validate:"omitempty,hostname_port"`
}

var validate = validator.New()

func loadConfig() (config, error) {
	var cfg config

	if path := os.Getenv("SPILLSORT_CONFIG"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		return cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("read environment: %w", err)
	}
	return cfg, nil
}

// bind registers a flag for every setting, defaulting to the loaded value.
func (c *config) bind(fs *flag.FlagSet) {
	fs.StringVar(&c.Store, "store", c.Store, "chunk store: local, s3 or minio")
	fs.StringVar(&c.WorkDir, "workdir", c.WorkDir, "directory for chunk files of the local store")
	fs.StringVar(&c.Bucket, "bucket", c.Bucket, "bucket for the s3 and minio stores")
	fs.StringVar(&c.Prefix, "prefix", c.Prefix, "key prefix for chunk objects")
	fs.StringVar(&c.Endpoint, "endpoint", c.Endpoint, "custom S3 or MinIO endpoint")
	fs.StringVar(&c.Region, "region", c.Region, "bucket region")
	fs.IntVar(&c.Capacity, "capacity", c.Capacity, "records sorted in memory per chunk (0: derive from -memory)")
	fs.Int64Var(&c.MemoryBytes, "memory", c.MemoryBytes, "memory budget in bytes for one chunk (0: 100 MB)")
	fs.StringVar(&c.Compression, "compression", c.Compression, "chunk compression: none, lz4 or zstd")
	fs.Int64Var(&c.IOLimit, "io-limit", c.IOLimit, "chunk IO limit in bytes per second (0: unlimited)")
	fs.BoolVar(&c.Mmap, "mmap", c.Mmap, "memory map local chunk files")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn or error")
	fs.BoolVar(&c.LogJSON, "log-json", c.LogJSON, "log as JSON")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "serve Prometheus metrics on this address")
}

func (c *config) validate() error {
	return validate.Struct(c)
}

func (c *config) level() slog.Level {
	var level slog.Level
	_ = level.UnmarshalText([]byte(c.LogLevel))
	return level
}
