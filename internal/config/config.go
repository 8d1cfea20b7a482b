package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"ethpilot/internal/logger"
)

const (
	EnvPrefix   = "ETHPILOT"
	EnvPath     = "ETHPILOT_CONFIG"
	DefaultPath = "configs/config.yaml"
)

// secretKeys 可以只通过环境变量提供，配置文件中无需出现。
var secretKeys = []string{
	"exchange.api_key",
	"exchange.secret_key",
	"exchange.passphrase",
	"ai.api_key",
	"notify.telegram.bot_token",
	"notify.telegram.chat_id",
}

// ResolvePath picks the config path: explicit flag, then env, then default.
func ResolvePath(flagPath string) string {
	if p := strings.TrimSpace(flagPath); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(EnvPath)); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads the YAML config at path, overlays env secrets and applies defaults.
func Load(path string) (*Config, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

func newViper(path string) (*viper.Viper, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	// .env 可选，缺失时忽略。
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range secretKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	return v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	setKeys := make(keySet)
	collectSettingsKeys(v.AllSettings(), setKeys)
	cfg.applyDefaults(setKeys)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func collectSettingsKeys(settings map[string]any, dest keySet) {
	if len(settings) == 0 {
		return
	}
	flattenConfigKeys("", settings, dest)
}

func flattenConfigKeys(prefix string, node any, dest keySet) {
	switch val := node.(type) {
	case map[string]any:
		for k, child := range val {
			next := strings.ToLower(strings.TrimSpace(k))
			if next == "" {
				continue
			}
			if prefix != "" {
				next = prefix + "." + next
			}
			flattenConfigKeys(next, child, dest)
		}
	case nil:
		// viper reports bound-but-unset env keys as nil; they do not count as set.
	default:
		if prefix != "" {
			dest.mark(prefix)
		}
	}
}

// Holder 保存当前生效的配置；热更新只在周期之间被读取。
type Holder struct {
	mu  sync.RWMutex
	cfg *Config
}

func NewHolder(cfg *Config) *Holder {
	return &Holder{cfg: cfg}
}

func (h *Holder) Current() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

func (h *Holder) Store(cfg *Config) {
	if cfg == nil {
		return
	}
	h.mu.Lock()
	h.cfg = cfg
	h.mu.Unlock()
}

// Watch reloads the config file on change and publishes valid results into h.
// Invalid edits are logged and ignored; the previous config stays active.
func Watch(path string, h *Holder) error {
	v, err := newViper(path)
	if err != nil {
		return err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			logger.Errorf("config reload rejected (%s): %v", evt.Name, err)
			return
		}
		h.Store(cfg)
		logger.Infof("config reloaded from %s", evt.Name)
	})
	v.WatchConfig()
	return nil
}
