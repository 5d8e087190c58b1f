package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/rosemary/internal/domain"
)

// ErrInvalid envuelve cualquier error de validación de la configuración.
var ErrInvalid = errors.New("invalid config")

// Config es la configuración completa de rosemary.
type Config struct {
	Lifecycle  LifecycleSection            `yaml:"lifecycle"`
	Strategy   StrategySection             `yaml:"strategy"`
	Allocator  AllocatorConfig             `yaml:"allocator"`
	Hysteresis domain.HysteresisThresholds `yaml:"hysteresis"`
	Simple     domain.SimpleRules          `yaml:"simple"`
	Blend      domain.BlendConfig          `yaml:"blend"`
	Gates      domain.GateThresholds       `yaml:"gates"`
	Risk       domain.RiskConfig           `yaml:"risk"`
	Portfolio  domain.PortfolioConfig      `yaml:"portfolio"`
	Input      InputConfig                 `yaml:"input"`
	Output     OutputConfig                `yaml:"output"`
	Storage    StorageConfig               `yaml:"storage"`
	Log        LogConfig                   `yaml:"log"`
}

// LifecycleSection agrupa el ciclo de vida de cada estrategia.
type LifecycleSection struct {
	Trend   LifecycleConfig `yaml:"trend"`
	MeanRev LifecycleConfig `yaml:"meanrev"`
}

// LifecycleConfig controla holding mínimo y costes de una estrategia.
type LifecycleConfig struct {
	HoldDays      int     `yaml:"hold_days"`
	CostBps       float64 `yaml:"cost_bps"` // por lado
	Sized         bool    `yaml:"sized"`
	CountEntryDay bool    `yaml:"count_entry_day"`
}

// Domain convierte la sección al tipo de dominio (bps → fracción).
func (c LifecycleConfig) Domain() domain.LifecycleConfig {
	return domain.LifecycleConfig{
		HoldDays:      c.HoldDays,
		CostRate:      c.CostBps / 10_000,
		Sized:         c.Sized,
		CountEntryDay: c.CountEntryDay,
	}
}

// StrategySection agrupa los parámetros de señal de cada estrategia.
type StrategySection struct {
	Trend   TrendConfig   `yaml:"trend"`
	MeanRev MeanRevConfig `yaml:"meanrev"`
}

// TrendConfig controla la señal de la estrategia de tendencia.
type TrendConfig struct {
	ModelPath string  `yaml:"model_path"` // YAML con intercept + coefficients
	Threshold float64 `yaml:"threshold"`
	Scale     float64 `yaml:"scale"`    // tamaño = pred / scale en modo sized
	MaxRVol   float64 `yaml:"max_rvol"` // 0 = sin techo
}

// MeanRevConfig controla la señal de reversión a la media.
type MeanRevConfig struct {
	EntryDrop float64 `yaml:"entry_drop"` // ret_5d < -entry_drop
	MaxVol    float64 `yaml:"max_vol"`
}

// AllocatorConfig controla el meta-allocator.
type AllocatorConfig struct {
	Mode         string  `yaml:"mode"`  // hysteresis | simple | soft
	Gamma        float64 `yaml:"gamma"` // sobreescribe blend.gamma si > 0
	Workers      int     `yaml:"workers"`
	GatesEnabled bool    `yaml:"gates_enabled"`
}

// InputConfig indica de dónde leer las barras.
type InputConfig struct {
	BarsPath string   `yaml:"bars_path"`
	Symbols  []string `yaml:"symbols"` // vacío = todos los del fichero
}

// OutputConfig controla dónde se escriben las tablas y cómo se imprime el resumen.
type OutputConfig struct {
	Dir     string `yaml:"dir"`
	Compact bool   `yaml:"compact"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las claves ausentes del YAML conservan los valores por defecto.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

// Parse decodifica el YAML sobre los valores por defecto, aplica variables de
// entorno y valida.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default devuelve la configuración por defecto completa.
func Default() *Config {
	return &Config{
		Lifecycle: LifecycleSection{
			Trend:   LifecycleConfig{HoldDays: 5, CostBps: 5},
			MeanRev: LifecycleConfig{HoldDays: 3, CostBps: 5},
		},
		Strategy: StrategySection{
			Trend:   TrendConfig{Scale: 0.01},
			MeanRev: MeanRevConfig{EntryDrop: 0.02, MaxVol: 0.40},
		},
		Allocator:  AllocatorConfig{Mode: string(domain.ModeHysteresis)},
		Hysteresis: domain.DefaultHysteresis(),
		Simple:     domain.DefaultSimpleRules(),
		Blend:      domain.DefaultBlend(),
		Gates:      domain.DefaultGates(),
		Risk:       domain.DefaultRisk(),
		Portfolio:  domain.DefaultPortfolio(),
	}
}

// MetaConfig construye la configuración del meta-allocator.
func (c *Config) MetaConfig() domain.MetaConfig {
	blend := c.Blend
	if c.Allocator.Gamma > 0 {
		blend.Gamma = c.Allocator.Gamma
	}
	return domain.MetaConfig{
		Mode:         domain.AllocationMode(c.Allocator.Mode),
		Hysteresis:   c.Hysteresis,
		Simple:       c.Simple,
		Blend:        blend,
		Gates:        c.Gates,
		GatesEnabled: c.Allocator.GatesEnabled,
	}
}

// Validate comprueba las secciones comunes a todos los comandos. Las rutas de
// entrada las comprueba ValidateInputs. Falla en el primer error.
func (c *Config) Validate() error {
	checks := []check{
		{"lifecycle.trend", c.Lifecycle.Trend.Domain().Validate()},
		{"lifecycle.meanrev", c.Lifecycle.MeanRev.Domain().Validate()},
		{"allocator", validMode(c.Allocator.Mode)},
		{"", c.Hysteresis.Validate()},
		{"", c.MetaConfig().Blend.Validate()},
		{"", c.Risk.Validate()},
		{"", c.Portfolio.Validate()},
		{"strategy.trend", validScale(c.Strategy.Trend, c.Lifecycle.Trend)},
	}
	return firstInvalid(checks)
}

// ValidateInputs exige lo que necesitan los comandos que leen barras y
// ejecutan el modelo. history y show sólo leen el storage y no lo llaman.
func (c *Config) ValidateInputs() error {
	return firstInvalid([]check{
		{"strategy.trend.model_path", required(c.Strategy.Trend.ModelPath)},
		{"input.bars_path", required(c.Input.BarsPath)},
	})
}

type check struct {
	section string // vacío si el error ya nombra la sección
	err     error
}

func firstInvalid(checks []check) error {
	for _, chk := range checks {
		switch {
		case chk.err == nil:
		case chk.section == "":
			return fmt.Errorf("%w: %w", ErrInvalid, chk.err)
		default:
			return fmt.Errorf("%w: %s: %w", ErrInvalid, chk.section, chk.err)
		}
	}
	return nil
}

func validMode(mode string) error {
	_, err := domain.ParseMode(mode)
	return err
}

func validScale(t TrendConfig, lc LifecycleConfig) error {
	if lc.Sized && t.Scale <= 0 {
		return fmt.Errorf("scale must be > 0 when sized, got %g", t.Scale)
	}
	return nil
}

func required(v string) error {
	if strings.TrimSpace(v) == "" {
		return errors.New("required")
	}
	return nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("ROSEMARY_BARS"); v != "" {
		cfg.Input.BarsPath = v
	}
	if v := os.Getenv("ROSEMARY_MODEL"); v != "" {
		cfg.Strategy.Trend.ModelPath = v
	}
	if v := os.Getenv("ROSEMARY_MODE"); v != "" {
		cfg.Allocator.Mode = v
	}
	if v := os.Getenv("ROSEMARY_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("ROSEMARY_DB"); v != "" {
		cfg.Storage.DSN = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Allocator.Mode == "" {
		cfg.Allocator.Mode = string(domain.ModeHysteresis)
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "out"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "rosemary.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
