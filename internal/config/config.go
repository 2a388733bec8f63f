package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"buscalisto/internal/domain/models"
)

const DefaultAPIHost = "http://localhost:3000/api"

type ProxyConfig struct {
	Mode string   `yaml:"mode"` // disabled|env|list
	List []string `yaml:"list"`
}

type PolicyConfig struct {
	StaleTime time.Duration `yaml:"stale_time"`
	Retries   int           `yaml:"retries"`
}

type Root struct {
	Env        string            `yaml:"env"`
	Proxy      ProxyConfig       `yaml:"proxy"`
	Categories []models.Category `yaml:"categories"`
	Local      Config            `yaml:"local"`
	Dev        Config            `yaml:"dev"`
	Prod       Config            `yaml:"prod"`
}

type Config struct {
	Env string `yaml:"-"`

	Log struct {
		Level     string `yaml:"level"`
		Format    string `yaml:"format"`
		AddSource bool   `yaml:"add_source"`
	} `yaml:"log"`

	Server struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	API struct {
		Host      string `yaml:"host"`
		UserAgent string `yaml:"user_agent"`
	} `yaml:"api"`

	HTTP struct {
		TimeoutSeconds int `yaml:"timeout_seconds"`
		// Retries applies to the snapshot crawl only. Queries retry per
		// query.policies.
		Retries int `yaml:"retries"`
		Workers int `yaml:"workers"`
	} `yaml:"http"`

	Health struct {
		Timeout  time.Duration `yaml:"timeout"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"health"`

	Fallback struct {
		DatasetPath string        `yaml:"dataset_path"`
		DelayMin    time.Duration `yaml:"delay_min"`
		DelayMax    time.Duration `yaml:"delay_max"`
	} `yaml:"fallback"`

	Query struct {
		RetryDelay time.Duration           `yaml:"retry_delay"`
		Policies   map[string]PolicyConfig `yaml:"policies"`
	} `yaml:"query"`

	Cache struct {
		RedisURL   string `yaml:"redis_url"`
		MaxEntries int    `yaml:"max_entries"`
	} `yaml:"cache"`

	CLI struct {
		OutputFile string `yaml:"output_file"`
	} `yaml:"cli"`

	Snapshot struct {
		PageSize   int    `yaml:"page_size"`
		MaxPages   int    `yaml:"max_pages"`
		Workers    int    `yaml:"workers"`
		OutputFile string `yaml:"output_file"`
	} `yaml:"snapshot"`

	Proxy      ProxyConfig       `yaml:"proxy"`
	Categories []models.Category `yaml:"categories"`
}

// overrides are read from the environment after the yaml profile.
// BUSCALISTO_API_HOST wins over VITE_API_HOST, which is still honoured
// for deployments that share an env file with the web client.
type overrides struct {
	Env         string `env:"BUSCALISTO_ENV"`
	APIHost     string `env:"BUSCALISTO_API_HOST"`
	ViteAPIHost string `env:"VITE_API_HOST"`
	Port        int    `env:"BUSCALISTO_PORT"`
	LogLevel    string `env:"BUSCALISTO_LOG_LEVEL"`
	RedisURL    string `env:"BUSCALISTO_REDIS_URL"`
	DatasetPath string `env:"BUSCALISTO_DATASET"`
}

// Load reads .env (if present), the yaml file at path (if path is not
// empty) and the environment, then applies defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var root Root
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &root); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	var ov overrides
	if err := cleanenv.ReadEnv(&ov); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	env := strings.TrimSpace(strings.ToLower(root.Env))
	if ov.Env != "" {
		env = strings.TrimSpace(strings.ToLower(ov.Env))
	}
	if env == "" {
		env = "local"
	}

	var p Config
	switch env {
	case "local":
		p = root.Local
	case "dev":
		p = root.Dev
	case "prod":
		p = root.Prod
	default:
		return nil, fmt.Errorf("unknown env=%q (expected local|dev|prod)", env)
	}
	p.Env = env

	if isProxyEmpty(p.Proxy) && !isProxyEmpty(root.Proxy) {
		p.Proxy = root.Proxy
	}
	if len(p.Categories) == 0 {
		p.Categories = root.Categories
	}

	applyOverrides(&p, ov)
	applyDefaults(&p)
	return &p, nil
}

func isProxyEmpty(px ProxyConfig) bool {
	return strings.TrimSpace(px.Mode) == "" && len(px.List) == 0
}

func applyOverrides(p *Config, ov overrides) {
	switch {
	case ov.APIHost != "":
		p.API.Host = ov.APIHost
	case ov.ViteAPIHost != "":
		p.API.Host = ov.ViteAPIHost
	}
	if ov.Port > 0 {
		p.Server.Port = ov.Port
	}
	if ov.LogLevel != "" {
		p.Log.Level = ov.LogLevel
	}
	if ov.RedisURL != "" {
		p.Cache.RedisURL = ov.RedisURL
	}
	if ov.DatasetPath != "" {
		p.Fallback.DatasetPath = ov.DatasetPath
	}
}

func applyDefaults(p *Config) {
	p.API.Host = strings.TrimRight(strings.TrimSpace(p.API.Host), "/")
	if p.API.Host == "" {
		p.API.Host = DefaultAPIHost
	}

	if p.Server.Host == "" {
		p.Server.Host = "0.0.0.0"
	}
	if p.Server.Port == 0 {
		p.Server.Port = 8080
	}
	if p.Server.ShutdownTimeout <= 0 {
		p.Server.ShutdownTimeout = 10 * time.Second
	}

	if p.HTTP.TimeoutSeconds <= 0 {
		p.HTTP.TimeoutSeconds = 15
	}
	if p.HTTP.Retries < 0 {
		p.HTTP.Retries = 0
	}
	if p.HTTP.Workers < 0 {
		p.HTTP.Workers = 0
	}

	if p.Health.Timeout <= 0 {
		p.Health.Timeout = 5 * time.Second
	}
	if p.Health.Interval <= 0 {
		p.Health.Interval = 30 * time.Second
	}

	if p.Fallback.DelayMax < p.Fallback.DelayMin {
		p.Fallback.DelayMax = p.Fallback.DelayMin
	}

	if p.Query.RetryDelay <= 0 {
		p.Query.RetryDelay = 250 * time.Millisecond
	}

	if p.Cache.MaxEntries <= 0 {
		p.Cache.MaxEntries = 1024
	}

	if p.CLI.OutputFile == "" {
		p.CLI.OutputFile = "out/result.json"
	}

	if p.Snapshot.PageSize <= 0 {
		p.Snapshot.PageSize = 50
	}
	if p.Snapshot.MaxPages <= 0 {
		p.Snapshot.MaxPages = 200
	}
	if p.Snapshot.Workers <= 0 {
		p.Snapshot.Workers = 4
	}
	if p.Snapshot.OutputFile == "" {
		p.Snapshot.OutputFile = "out/catalogo.json"
	}

	if p.Log.Level == "" {
		if p.Env == "prod" {
			p.Log.Level = "info"
		} else {
			p.Log.Level = "debug"
		}
	}
	if p.Log.Format == "" {
		if p.Env == "prod" {
			p.Log.Format = "json"
		} else {
			p.Log.Format = "text"
		}
	}

	p.Proxy.Mode = strings.ToLower(strings.TrimSpace(p.Proxy.Mode))
	if p.Proxy.Mode == "" {
		p.Proxy.Mode = "disabled"
	}
	if len(p.Proxy.List) > 0 {
		clean := make([]string, 0, len(p.Proxy.List))
		for _, s := range p.Proxy.List {
			s = strings.TrimSpace(s)
			if s != "" {
				clean = append(clean, s)
			}
		}
		p.Proxy.List = clean
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
