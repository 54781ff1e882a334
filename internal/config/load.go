package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "QUILL_"

// envBindings maps environment variables to configuration keys.
var envBindings = map[string]string{
	"QUILL_CLIENT_ENDPOINT":         "client.endpoint",
	"QUILL_CLIENT_TIMEOUT":          "client.timeout",
	"QUILL_CLIENT_DETAILED_NOTICES": "client.detailed_notices",
	"QUILL_SERVER_ADDR":             "server.addr",
	"QUILL_SERVER_METRICS_PATH":     "server.metrics_path",
	"QUILL_SERVER_CORS_ORIGINS":     "server.cors_origins",
	"QUILL_SERVER_MAX_BODY_BYTES":   "server.max_body_bytes",
	"QUILL_SERVER_VALIDATE":         "server.validate",
	"QUILL_GENERATOR_BACKEND":       "generator.backend",
	"QUILL_GENERATOR_MODEL":         "generator.model",
	"QUILL_GENERATOR_API_KEY_ENV":   "generator.api_key_env",
	"QUILL_GENERATOR_BASE_URL":      "generator.base_url",
	"QUILL_GENERATOR_TIMEOUT":       "generator.timeout",
	"QUILL_GENERATOR_MODELS_FILE":   "generator.models_file",
	"QUILL_GENERATOR_FALLBACK":      "generator.fallback",
	"QUILL_CACHE_BACKEND":           "cache.backend",
	"QUILL_CACHE_TTL":               "cache.ttl",
	"QUILL_CACHE_REDIS_ADDR":        "cache.redis.addr",
	"QUILL_CACHE_REDIS_PASSWORD":    "cache.redis.password",
	"QUILL_CACHE_REDIS_DB":          "cache.redis.db",
	"QUILL_CACHE_REDIS_PREFIX":      "cache.redis.prefix",
	"QUILL_LOG_LEVEL":               "log.level",
}

// Load reads the configuration file at path, applies environment overrides
// and validates the result. An empty path reads DefaultPath if it exists.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.Environ())
}

// LoadWithEnv is Load with an explicit environment (KEY=VALUE pairs).
func LoadWithEnv(path string, environ []string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	raw, err := readFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			raw = map[string]any{}
		} else {
			return nil, err
		}
	}

	pruneNil(raw)
	overlayEnv(raw, environ)

	cfg := Default()
	if err := decode(raw, cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	raw := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	return raw, nil
}

// overlayEnv writes QUILL_* variables into raw. QUILL_PROMPTS_<ACTION>
// overrides the template of one action.
func overlayEnv(raw map[string]any, environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		if path, bound := envBindings[key]; bound {
			setPath(raw, strings.Split(path, "."), value)
			continue
		}
		if action, found := strings.CutPrefix(key, EnvPrefix+"PROMPTS_"); found && action != "" {
			setPath(raw, []string{"prompts", strings.ToLower(action)}, value)
		}
	}
}

// pruneNil drops keys without a value (a bare "server:" in YAML) so the
// section keeps its defaults.
func pruneNil(m map[string]any) {
	for k, v := range m {
		switch v := v.(type) {
		case nil:
			delete(m, k)
		case map[string]any:
			pruneNil(v)
		}
	}
}

func setPath(m map[string]any, path []string, value any) {
	for _, p := range path[:len(path)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}

func decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		ZeroFields:       true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			secondsToDurationHook,
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// secondsToDurationHook reads bare numbers as seconds.
func secondsToDurationHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch v := data.(type) {
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	}
	return data, nil
}
