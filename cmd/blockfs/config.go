package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/weberc2/blockfs/pkg/fs"
	"gopkg.in/yaml.v2"
)

const (
	envVarPrefix = "BLOCKFS"
	appName      = "blockfs"

	BackendFile     = "file"
	BackendS3       = "s3"
	BackendPostgres = "postgres"
)

type Config struct {
	Backend       string `envconfig:"BLOCKFS_BACKEND"        yaml:"backend"`
	Path          string `envconfig:"BLOCKFS_PATH"           yaml:"path"`
	ImageOffset   int64  `envconfig:"BLOCKFS_IMAGE_OFFSET"   yaml:"imageOffset"`
	Bucket        string `envconfig:"BLOCKFS_BUCKET"         yaml:"bucket"`
	Prefix        string `envconfig:"BLOCKFS_PREFIX"         yaml:"prefix"`
	Gzip          bool   `envconfig:"BLOCKFS_GZIP"           yaml:"gzip"`
	Volume        string `envconfig:"BLOCKFS_VOLUME"         yaml:"volume"`
	CacheCapacity int    `envconfig:"BLOCKFS_CACHE_CAPACITY" yaml:"cacheCapacity"`
	LogLevel      string `envconfig:"BLOCKFS_LOG_LEVEL"      yaml:"logLevel"`
	LogFormat     string `envconfig:"BLOCKFS_LOG_FORMAT"     yaml:"logFormat"`
	Addr          string `envconfig:"BLOCKFS_ADDR"           yaml:"addr"`
}

// LoadConfig reads the config file (if any) and then the environment, which
// takes precedence.
func LoadConfig() (*Config, error) {
	configFile := os.Getenv(envVarPrefix + "_CONFIG_FILE")
	if configFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating config file: %w", err)
		}
		configFile = filepath.Join(home, ".config", appName+".yaml")
	}

	var c Config
	data, err := ioutil.ReadFile(configFile)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshaling config file: %w", err)
	}

	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}

	c.setDefaults()
	return &c, nil
}

func (c *Config) setDefaults() {
	if c.Backend == "" {
		c.Backend = BackendFile
	}
	if c.Path == "" && c.Backend == BackendFile {
		c.Path = appName + ".img"
	}
	if c.Volume == "" {
		c.Volume = "default"
	}
	if c.CacheCapacity == 0 {
		c.CacheCapacity = fs.DefaultCacheCapacity
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.Addr == "" {
		c.Addr = "127.0.0.1:8080"
	}
}

// applyFlags overrides config values with any global flags that were passed
// explicitly.
func (c *Config) applyFlags(ctx *cli.Context) {
	if ctx.IsSet("backend") {
		c.Backend = ctx.String("backend")
	}
	if ctx.IsSet("path") {
		c.Path = ctx.String("path")
	}
	if ctx.IsSet("image-offset") {
		c.ImageOffset = ctx.Int64("image-offset")
	}
	if ctx.IsSet("bucket") {
		c.Bucket = ctx.String("bucket")
	}
	if ctx.IsSet("prefix") {
		c.Prefix = ctx.String("prefix")
	}
	if ctx.IsSet("gzip") {
		c.Gzip = ctx.Bool("gzip")
	}
	if ctx.IsSet("volume") {
		c.Volume = ctx.String("volume")
	}
	if ctx.IsSet("cache") {
		c.CacheCapacity = ctx.Int("cache")
	}
	if ctx.IsSet("log-level") {
		c.LogLevel = ctx.String("log-level")
	}
	if ctx.IsSet("log-format") {
		c.LogFormat = ctx.String("log-format")
	}
}

func (c *Config) Validate() error {
	if y, e := func() (string, string) {
		switch c.Backend {
		case BackendFile:
			if c.Path == "" {
				return "path", "PATH"
			}
		case BackendS3:
			if c.Bucket == "" {
				return "bucket", "BUCKET"
			}
		case BackendPostgres:
		default:
			return "", ""
		}
		if c.Volume == "" {
			return "volume", "VOLUME"
		}
		if c.Addr == "" {
			return "addr", "ADDR"
		}
		return "", ""
	}(); y != "" {
		return fmt.Errorf(
			"missing required configuration: %s / %s_%s",
			y,
			envVarPrefix,
			e,
		)
	}

	switch c.Backend {
	case BackendFile, BackendS3, BackendPostgres:
	default:
		return fmt.Errorf(
			"invalid backend `%s`: wanted one of `%s`, `%s`, `%s`",
			c.Backend,
			BackendFile,
			BackendS3,
			BackendPostgres,
		)
	}
	if c.ImageOffset < 0 {
		return fmt.Errorf("invalid image offset `%d`", c.ImageOffset)
	}
	if c.CacheCapacity < 1 {
		return fmt.Errorf("invalid cache capacity `%d`", c.CacheCapacity)
	}
	return nil
}

func (c *Config) configureLogging() error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("configuring logging: %w", err)
	}
	log.SetLevel(level)

	switch c.LogFormat {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text":
		log.SetFormatter(&log.TextFormatter{})
	default:
		return fmt.Errorf("configuring logging: invalid format `%s`", c.LogFormat)
	}
	log.SetOutput(os.Stderr)
	return nil
}
