package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Auth struct {
		AlertKey string `yaml:"alert_key"`
	} `yaml:"auth"`
	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	OKX struct {
		RESTURL        string        `yaml:"rest_url"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Timeout        time.Duration `yaml:"timeout"`
		MaxRPS         float64       `yaml:"max_rps"`
		StreamEnabled  bool          `yaml:"stream_enabled"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"okx"`
	Telegram struct {
		Enabled  bool          `yaml:"enabled"`
		BotToken string        `yaml:"bot_token"`
		ChatID   string        `yaml:"chat_id"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"telegram"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		Async        bool          `yaml:"async"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Database     string        `yaml:"database"`
		User         string        `yaml:"user"`
		Password     string        `yaml:"password"`
		UseHTTP      bool          `yaml:"use_http"`
		AsyncInsert  bool          `yaml:"async_insert"`
		WaitForAsync bool          `yaml:"wait_for_async_insert"`
		DialTimeout  time.Duration `yaml:"dial_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"clickhouse"`
	Scheduler struct {
		Enabled         bool          `yaml:"enabled"`
		IngestOffset    time.Duration `yaml:"ingest_offset"`
		EvaluateOffset  time.Duration `yaml:"evaluate_offset"`
		InvocationLock  bool          `yaml:"invocation_lock"`
	} `yaml:"scheduler"`
	Symbols []string    `yaml:"symbols"`
	Alert   AlertConfig `yaml:"alert"`
}

// AlertConfig carries every tunable of the gating pipeline. Keys absent from
// the file keep their defaults in Load; explicit zero values are kept.
type AlertConfig struct {
	CooldownMinutes    int      `yaml:"cooldown_minutes"`
	DefaultMode        string   `yaml:"default_mode"`
	DefaultModes       []string `yaml:"default_modes"`
	DefaultRiskProfile string   `yaml:"default_risk_profile"`
	MomentumMin        float64  `yaml:"momentum_min"`
	ShockOIMin         float64  `yaml:"shock_oi_min"`
	ShockPriceMin      float64  `yaml:"shock_price_min"`
	EdgePct1h          float64  `yaml:"edge_pct_1h"`
	SwingMinOIPct      float64  `yaml:"swing_min_oi_pct"`
	SwingReversalMin5m float64  `yaml:"swing_reversal_min_5m"`
	ScalpSweepLookback int      `yaml:"scalp_sweep_lookback"`

	MacroEnabled       bool    `yaml:"macro_enabled"`
	MacroBTCSymbol     string  `yaml:"macro_btc_symbol"`
	MacroBTC4hPriceMin float64 `yaml:"macro_btc_4h_price_min"`
	MacroBTC4hOIMin    float64 `yaml:"macro_btc_4h_oi_min"`
	MacroBlockShorts   bool    `yaml:"macro_block_shorts"`

	RegimeEnabled            bool    `yaml:"regime_enabled"`
	RegimeExpansionPriceMin  float64 `yaml:"regime_expansion_price_min"`
	RegimeExpansionOIMin     float64 `yaml:"regime_expansion_oi_min"`
	RegimeContractionPriceMax float64 `yaml:"regime_contraction_price_max"`
	RegimeContractionOIMax   float64 `yaml:"regime_contraction_oi_max"`
	RegimeContractionWiden   float64 `yaml:"regime_contraction_widen"`

	LeverageEnabled        bool    `yaml:"leverage_enabled"`
	LeverageMaxCap         int     `yaml:"leverage_max_cap"`
	LeverageInstabSoft     float64 `yaml:"leverage_instab_soft"`
	LeverageInstabHard     float64 `yaml:"leverage_instab_hard"`
	LeverageFundingSoft    float64 `yaml:"leverage_funding_soft"`
	LeverageFundingHard    float64 `yaml:"leverage_funding_hard"`

	ForceBypassWarmup bool `yaml:"force_bypass_warmup"`

	HeartbeatKey        string `yaml:"heartbeat_key"`
	HeartbeatTTLSeconds int    `yaml:"heartbeat_ttl_seconds"`

	DrilldownURL   string `yaml:"drilldown_url"`
	MaxConcurrency int    `yaml:"max_concurrency"`
}

// Load reads and parses a YAML configuration file. Defaults are preset
// before unmarshalling so absent keys keep them while explicit zeroes in
// the file win.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("ALERT_KEY"); v != "" {
		c.Auth.AlertKey = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}

	c.Alert.overrideFromEnv()

	return c, nil
}

// overrideFromEnv applies the recognized alert option environment variables.
func (a *AlertConfig) overrideFromEnv() {
	envInt("COOLDOWN_MINUTES", &a.CooldownMinutes)
	envStr("DEFAULT_MODE", &a.DefaultMode)
	if v := os.Getenv("DEFAULT_MODES"); v != "" {
		a.DefaultModes = strings.Split(v, ",")
	}
	envStr("DEFAULT_RISK_PROFILE", &a.DefaultRiskProfile)
	envFloat("MOMENTUM_MIN", &a.MomentumMin)
	envFloat("SHOCK_OI_MIN", &a.ShockOIMin)
	envFloat("SHOCK_PRICE_MIN", &a.ShockPriceMin)
	envFloat("EDGE_PCT_1H", &a.EdgePct1h)
	envFloat("SWING_MIN_OI_PCT", &a.SwingMinOIPct)
	envFloat("SWING_REVERSAL_MIN_5M", &a.SwingReversalMin5m)
	envInt("SCALP_SWEEP_LOOKBACK", &a.ScalpSweepLookback)
	envBool("MACRO_ENABLED", &a.MacroEnabled)
	envStr("MACRO_BTC_SYMBOL", &a.MacroBTCSymbol)
	envFloat("MACRO_BTC_4H_PRICE_MIN", &a.MacroBTC4hPriceMin)
	envFloat("MACRO_BTC_4H_OI_MIN", &a.MacroBTC4hOIMin)
	envBool("MACRO_BLOCK_SHORTS", &a.MacroBlockShorts)
	envBool("REGIME_ENABLED", &a.RegimeEnabled)
	envFloat("REGIME_EXPANSION_PRICE_MIN", &a.RegimeExpansionPriceMin)
	envFloat("REGIME_EXPANSION_OI_MIN", &a.RegimeExpansionOIMin)
	envFloat("REGIME_CONTRACTION_PRICE_MAX", &a.RegimeContractionPriceMax)
	envFloat("REGIME_CONTRACTION_OI_MAX", &a.RegimeContractionOIMax)
	envFloat("REGIME_CONTRACTION_WIDEN", &a.RegimeContractionWiden)
	envBool("FORCE_BYPASS_WARMUP", &a.ForceBypassWarmup)
	envBool("LEVERAGE_ENABLED", &a.LeverageEnabled)
	envInt("LEVERAGE_MAX_CAP", &a.LeverageMaxCap)
	envFloat("LEVERAGE_INSTAB_SOFT", &a.LeverageInstabSoft)
	envFloat("LEVERAGE_INSTAB_HARD", &a.LeverageInstabHard)
	envFloat("LEVERAGE_FUNDING_SOFT", &a.LeverageFundingSoft)
	envFloat("LEVERAGE_FUNDING_HARD", &a.LeverageFundingHard)
	envStr("HEARTBEAT_KEY", &a.HeartbeatKey)
	envInt("HEARTBEAT_TTL_SECONDS", &a.HeartbeatTTLSeconds)
}

// Default returns a config populated with every default value.
func Default() *Config {
	c := &Config{}
	c.Server.Port = 8080
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 10 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Log.Level = "info"
	c.Log.Format = "json"
	c.Log.Output = "stdout"
	c.Redis.Host = "localhost"
	c.Redis.Port = 6379
	c.Redis.Prefix = "pulsegate"
	c.OKX.RESTURL = "https://www.okx.com"
	c.OKX.WebSocketURL = "wss://ws.okx.com:8443/ws/v5/public"
	c.OKX.Timeout = 8 * time.Second
	c.OKX.MaxRPS = 10
	c.OKX.ReconnectDelay = 5 * time.Second
	c.OKX.PingInterval = 20 * time.Second
	c.Telegram.Timeout = 8 * time.Second
	c.Kafka.Compression = "gzip"
	c.Kafka.RequiredAcks = -1
	c.Kafka.MaxAttempts = 3
	c.Kafka.WriteTimeout = 10 * time.Second
	c.Kafka.ReadTimeout = 10 * time.Second
	c.Scheduler.IngestOffset = 5 * time.Second
	c.Scheduler.EvaluateOffset = 60 * time.Second
	c.Scheduler.InvocationLock = true
	c.Alert = DefaultAlertConfig()
	return c
}

// DefaultAlertConfig returns the documented gating defaults.
func DefaultAlertConfig() AlertConfig {
	return AlertConfig{
		CooldownMinutes:    20,
		DefaultMode:        "swing",
		DefaultModes:       []string{"swing"},
		DefaultRiskProfile: "standard",
		MomentumMin:        0.10,
		ShockOIMin:         0.50,
		ShockPriceMin:      0.20,
		EdgePct1h:          0.15,
		SwingMinOIPct:      -0.50,
		SwingReversalMin5m: 0.05,
		ScalpSweepLookback: 3,

		MacroEnabled:       true,
		MacroBTCSymbol:     "BTCUSDT",
		MacroBTC4hPriceMin: 2.0,
		MacroBTC4hOIMin:    0.5,
		MacroBlockShorts:   true,

		RegimeEnabled:             true,
		RegimeExpansionPriceMin:   2.0,
		RegimeExpansionOIMin:      0.5,
		RegimeContractionPriceMax: 0.5,
		RegimeContractionOIMax:    -1.0,
		RegimeContractionWiden:    1.5,

		LeverageEnabled:     true,
		LeverageMaxCap:      20,
		LeverageInstabSoft:  1.0,
		LeverageInstabHard:  2.5,
		LeverageFundingSoft: 0.03,
		LeverageFundingHard: 0.10,

		HeartbeatKey:        "alert:lastRun",
		HeartbeatTTLSeconds: 86400,

		MaxConcurrency: 8,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols cannot be empty")
	}
	if c.Auth.AlertKey == "" {
		return fmt.Errorf("auth.alert_key is required")
	}
	for _, m := range c.Alert.DefaultModes {
		switch m {
		case "scalp", "swing", "build":
		default:
			return fmt.Errorf("alert.default_modes entry must be scalp, swing or build, got '%s'", m)
		}
	}
	switch c.Alert.DefaultRiskProfile {
	case "conservative", "standard", "aggressive":
	default:
		return fmt.Errorf("alert.default_risk_profile must be conservative, standard or aggressive, got '%s'", c.Alert.DefaultRiskProfile)
	}
	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id are required when telegram is enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers are required when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	return nil
}

// Cooldown returns the cooldown as a duration.
func (a *AlertConfig) Cooldown() time.Duration {
	return time.Duration(a.CooldownMinutes) * time.Minute
}

func envStr(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(name string, dst *float64) {
	if v := os.Getenv(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(name string, dst *bool) {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
