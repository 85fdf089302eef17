package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"papertrader/internal/domain"
)

// Config es la configuración completa del trader.
type Config struct {
	Trader  TraderConfig          `yaml:"trader"`
	Broker  BrokerConfig          `yaml:"broker"`
	Risk    domain.RiskParameters `yaml:"risk"`
	Exit    domain.ExitParameters `yaml:"exit"`
	Storage StorageConfig         `yaml:"storage"`
	Metrics MetricsConfig         `yaml:"metrics"`
	Log     LogConfig             `yaml:"log"`
}

// TraderConfig controla el comportamiento del loop de trading.
type TraderConfig struct {
	MarketTier            int  `yaml:"market_tier"`             // tier de watchlist 1-3
	OpenIntervalSeconds   int  `yaml:"open_interval_seconds"`   // cadencia con mercado abierto
	ClosedIntervalSeconds int  `yaml:"closed_interval_seconds"` // cadencia con mercado cerrado
	HistoryBars           int  `yaml:"history_bars"`            // barras por símbolo al arrancar
	ExecutionEnabled      bool `yaml:"execution_enabled"`       // false = sólo órdenes virtuales
	BreakerOverride       bool `yaml:"breaker_override"`        // no tiene efecto; se loggea fuerte si está activo
}

// BrokerConfig contiene los endpoints y credenciales del API del broker.
// Las credenciales normalmente vienen del entorno, no del YAML.
type BrokerConfig struct {
	TradeBase string `yaml:"trade_base"`
	DataBase  string `yaml:"data_base"`
	KeyID     string `yaml:"key_id"`
	SecretKey string `yaml:"secret_key"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN          string `yaml:"dsn"`           // ruta al archivo SQLite, o ":memory:"
	SnapshotPath string `yaml:"snapshot_path"` // export JSON del último ciclo, "" = deshabilitado
}

// MetricsConfig controla el listener de Prometheus.
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"` // ej. ":9464", "" = deshabilitado
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe. Las variables de entorno sobreescriben los valores del YAML para
// las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// OpenInterval devuelve la cadencia de ciclo con mercado abierto.
func (c *Config) OpenInterval() time.Duration {
	return time.Duration(c.Trader.OpenIntervalSeconds) * time.Second
}

// ClosedInterval devuelve la cadencia de ciclo con mercado cerrado.
func (c *Config) ClosedInterval() time.Duration {
	return time.Duration(c.Trader.ClosedIntervalSeconds) * time.Second
}

// Universe devuelve la watchlist del tier configurado.
func (c *Config) Universe() []string {
	return domain.UniverseForTier(c.Trader.MarketTier)
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están
// presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Broker.KeyID = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Broker.SecretKey = v
	}
	if v := os.Getenv("EXECUTION_ENABLED"); v != "" {
		cfg.Trader.ExecutionEnabled = parseBool(v)
	}
	if v := os.Getenv("MARKET_TIER"); v != "" {
		if tier, err := strconv.Atoi(v); err == nil {
			cfg.Trader.MarketTier = tier
		}
	}
	if v := os.Getenv("MIN_CONFIDENCE"); v != "" {
		if conf, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Risk.MinConfidence = conf
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
// Las secciones risk y exit sólo toman defaults cuando están completamente
// ausentes: una sección poblada se toma literal, así un cero explícito
// (ej. max_open_positions: 0 = sin límite) sobrevive la carga.
func setDefaults(cfg *Config) {
	if cfg.Trader.MarketTier <= 0 {
		cfg.Trader.MarketTier = 1
	}
	if cfg.Trader.OpenIntervalSeconds <= 0 {
		cfg.Trader.OpenIntervalSeconds = 120
	}
	if cfg.Trader.ClosedIntervalSeconds <= 0 {
		cfg.Trader.ClosedIntervalSeconds = 900
	}
	if cfg.Trader.HistoryBars <= 0 {
		cfg.Trader.HistoryBars = 100
	}
	if cfg.Risk == (domain.RiskParameters{}) {
		cfg.Risk = domain.DefaultRiskParameters()
	}
	if cfg.Exit == (domain.ExitParameters{}) {
		cfg.Exit = domain.DefaultExitParameters()
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "papertrader.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}
