// Package config loads linkroute settings.
//
// Sources, lowest priority first: built-in defaults, the TOML config file
// (linkroute.toml in the working directory unless --config names another),
// LINKROUTE_* environment variables, and command-line flags.
//
// Environment variables map to keys by dropping the prefix, lowering the
// case and turning a double underscore into a section dot:
//
//	LINKROUTE_SLOT_UNIT=20              -> slot_unit
//	LINKROUTE_CACHE__BACKEND=redis      -> cache.backend
//	LINKROUTE_CACHE__REDIS_ADDR=db:6379 -> cache.redis_addr
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/matzehuels/linkroute/pkg/cache"
	lrerrors "github.com/matzehuels/linkroute/pkg/errors"
	"github.com/matzehuels/linkroute/pkg/pipeline"
	"github.com/matzehuels/linkroute/pkg/route"
	"github.com/matzehuels/linkroute/pkg/store"
)

// DefaultFile is the config file looked for in the working directory.
const DefaultFile = "linkroute.toml"

const envPrefix = "LINKROUTE_"

// Backends.
const (
	BackendFile  = "file"
	BackendNone  = "none"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Config holds every setting.
type Config struct {
	Axis           string  `koanf:"axis"`
	SlotUnit       float64 `koanf:"slot_unit"`
	MatchTolerance float64 `koanf:"match_tolerance"`

	Cache  CacheConfig  `koanf:"cache"`
	Store  StoreConfig  `koanf:"store"`
	Server ServerConfig `koanf:"server"`
}

// CacheConfig selects the result cache.
type CacheConfig struct {
	Backend       string        `koanf:"backend"`
	Dir           string        `koanf:"dir"`
	TTL           time.Duration `koanf:"ttl"`
	Prefix        string        `koanf:"prefix"`
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
}

// StoreConfig selects the snapshot store.
type StoreConfig struct {
	Backend  string `koanf:"backend"`
	Dir      string `koanf:"dir"`
	MongoURI string `koanf:"mongo_uri"`
	Database string `koanf:"database"`
}

// ServerConfig configures `linkroute serve`.
type ServerConfig struct {
	Addr         string `koanf:"addr"`
	MaxBodyBytes int64  `koanf:"max_body_bytes"`
}

func defaults() map[string]any {
	return map[string]any{
		"axis":            "vertical",
		"slot_unit":       0.0,
		"match_tolerance": float64(route.DefaultMatchTolerance),
		"cache": map[string]any{
			"backend":        BackendFile,
			"dir":            "",
			"ttl":            "168h",
			"prefix":         "linkroute:",
			"redis_addr":     "localhost:6379",
			"redis_password": "",
			"redis_db":       0,
		},
		"store": map[string]any{
			"backend":   BackendFile,
			"dir":       "",
			"mongo_uri": "mongodb://localhost:27017",
			"database":  store.DefaultDatabase,
		},
		"server": map[string]any{
			"addr":           ":8080",
			"max_body_bytes": 8 << 20,
		},
	}
}

// flagKeys maps command-line flag names onto config keys. Flags not listed
// are not config.
var flagKeys = map[string]string{
	"axis":            "axis",
	"slot-unit":       "slot_unit",
	"match-tolerance": "match_tolerance",
	"cache":           "cache.backend",
	"cache-dir":       "cache.dir",
	"redis-addr":      "cache.redis_addr",
	"store":           "store.backend",
	"store-dir":       "store.dir",
	"mongo-uri":       "store.mongo_uri",
	"addr":            "server.addr",
}

// Load reads the configuration. path names the config file; empty means
// DefaultFile if it exists. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(mapProvider(defaults()), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, lrerrors.Wrap(lrerrors.ErrCodeInvalidFormat, err, "config file %s", path)
		}
	} else if explicit || !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config file: %w", err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, f.Value.String()
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, lrerrors.Wrap(lrerrors.ErrCodeInvalidInput, err, "config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate checks backend names and router settings.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendNone:
	default:
		return lrerrors.New(lrerrors.ErrCodeInvalidInput, "unknown cache backend %q (want file, redis or none)", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case BackendFile, BackendMongo:
	default:
		return lrerrors.New(lrerrors.ErrCodeInvalidInput, "unknown store backend %q (want file or mongo)", c.Store.Backend)
	}
	opts := c.PipelineOptions()
	return opts.ValidateAndSetDefaults()
}

// PipelineOptions returns the router fallbacks as pipeline options.
func (c *Config) PipelineOptions() pipeline.Options {
	tol := c.MatchTolerance
	return pipeline.Options{
		Axis:           c.Axis,
		SlotUnit:       c.SlotUnit,
		MatchTolerance: &tol,
	}
}

// DefaultCacheDir is ~/.cache/linkroute.
func DefaultCacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("get cache dir: %w", err)
	}
	return filepath.Join(dir, "linkroute"), nil
}

// OpenCache opens the configured cache backend.
func (c *CacheConfig) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendRedis:
		return cache.NewRedisCache(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB)
	}
	dir := c.Dir
	if dir == "" {
		var err error
		if dir, err = DefaultCacheDir(); err != nil {
			return nil, err
		}
	}
	return cache.NewFileCache(dir)
}

// Keyer returns the keyer for the configured backend. Shared backends get
// the configured prefix.
func (c *CacheConfig) Keyer() cache.Keyer {
	if c.Backend == BackendRedis && c.Prefix != "" {
		return cache.NewScopedKeyer(nil, c.Prefix)
	}
	return cache.NewDefaultKeyer()
}

// OpenStore opens the configured snapshot store.
func (s *StoreConfig) OpenStore(ctx context.Context) (store.Store, error) {
	if s.Backend == BackendMongo {
		return store.NewMongoStore(ctx, s.MongoURI, s.Database)
	}
	return store.NewFileStore(s.Dir)
}

type mapProvider map[string]any

func (p mapProvider) Read() (map[string]any, error) {
	return p, nil
}

func (p mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("mapProvider does not support ReadBytes")
}
