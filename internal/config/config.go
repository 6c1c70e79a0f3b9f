package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/garyjia/settlement-converter/internal/annotate"
	"github.com/garyjia/settlement-converter/internal/parser"
	"github.com/garyjia/settlement-converter/internal/reconcile"
	"github.com/garyjia/settlement-converter/internal/settlement"
	"github.com/garyjia/settlement-converter/internal/spreadsheet"
	"github.com/garyjia/settlement-converter/internal/textdecode"
)

// EnvPrefix is prepended to every environment override,
// e.g. SETTLEMENT_REPLY_ANNOTATE_STYLE.
const EnvPrefix = "SETTLEMENT"

// Config holds all application configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Logger LoggerConfig `mapstructure:"logger"`
	Offer  OfferConfig  `mapstructure:"offer"`
	Reply  ReplyConfig  `mapstructure:"reply"`
	Output OutputConfig `mapstructure:"output"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	Mode          string        `mapstructure:"mode"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	MaxUploadSize int64         `mapstructure:"max_upload_size"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// DecodingConfig selects how source text is decoded
type DecodingConfig struct {
	Strategy   string   `mapstructure:"strategy"`
	Encodings  []string `mapstructure:"encodings"`
	SampleSize int      `mapstructure:"sample_size"`
}

// OfferVariantConfig configures one offer conversion flow
type OfferVariantConfig struct {
	Policy       string         `mapstructure:"policy"`
	AmountColumn string         `mapstructure:"amount_column"`
	Sentinel     string         `mapstructure:"sentinel"`
	DropTrailer  bool           `mapstructure:"drop_trailer"`
	Decoding     DecodingConfig `mapstructure:"decoding"`
}

// OfferConfig holds both offer flows
type OfferConfig struct {
	Local OfferVariantConfig `mapstructure:"local"`
	Other OfferVariantConfig `mapstructure:"other"`
}

// ReplyConfig configures reconciliation and annotation, shared by both
// reply flows
type ReplyConfig struct {
	Policy        string         `mapstructure:"policy"`
	Duplicates    string         `mapstructure:"duplicates"`
	AnnotateStyle string         `mapstructure:"annotate_style"`
	SuccessFlag   string         `mapstructure:"success_flag"`
	Decoding      DecodingConfig `mapstructure:"decoding"`
}

// OutputConfig restricts where result files may be written.
// An empty BaseDir allows any location.
type OutputConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// Load loads configuration from an optional YAML file, a .env file in the
// working directory and SETTLEMENT_* environment variables, in increasing
// order of precedence.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration without consulting files or
// the environment.
func Default() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal default config: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.max_upload_size", 32<<20)

	// Logger defaults; stdout carries command reports
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stderr")
	v.SetDefault("logger.format", "console")

	// Local offer defaults
	v.SetDefault("offer.local.policy", string(parser.PolicyReport))
	v.SetDefault("offer.local.amount_column", spreadsheet.KindText.String())
	v.SetDefault("offer.local.drop_trailer", true)
	v.SetDefault("offer.local.decoding.strategy", textdecode.StrategyOrdered)
	v.SetDefault("offer.local.decoding.encodings", textdecode.DefaultEncodings)
	v.SetDefault("offer.local.decoding.sample_size", textdecode.DefaultSampleSize)

	// Other-bank offer defaults
	v.SetDefault("offer.other.policy", string(parser.PolicySkip))
	v.SetDefault("offer.other.amount_column", spreadsheet.KindText.String())
	v.SetDefault("offer.other.sentinel", parser.DefaultSentinel)
	v.SetDefault("offer.other.decoding.strategy", textdecode.StrategyOrdered)
	v.SetDefault("offer.other.decoding.encodings", textdecode.DefaultEncodings)
	v.SetDefault("offer.other.decoding.sample_size", textdecode.DefaultSampleSize)

	// Reply defaults
	v.SetDefault("reply.policy", string(parser.PolicyReport))
	v.SetDefault("reply.duplicates", string(reconcile.DuplicateLastWins))
	v.SetDefault("reply.annotate_style", string(annotate.StyleCompact))
	v.SetDefault("reply.success_flag", settlement.DefaultSuccessFlag)
	v.SetDefault("reply.decoding.strategy", textdecode.StrategySniff)
	v.SetDefault("reply.decoding.encodings", textdecode.DefaultEncodings)
	v.SetDefault("reply.decoding.sample_size", textdecode.DefaultSampleSize)

	v.SetDefault("output.base_dir", "")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.MaxUploadSize <= 0 {
		return fmt.Errorf("server.max_upload_size must be positive")
	}
	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console: %s", c.Logger.Format)
	}

	for name, offer := range map[string]OfferVariantConfig{
		"offer.local": c.Offer.Local,
		"offer.other": c.Offer.Other,
	} {
		if _, err := parser.ParsePolicy(offer.Policy); err != nil {
			return fmt.Errorf("%s.policy: %w", name, err)
		}
		if _, err := spreadsheet.ParseKind(offer.AmountColumn); err != nil {
			return fmt.Errorf("%s.amount_column: %w", name, err)
		}
		if err := offer.Decoding.Validate(); err != nil {
			return fmt.Errorf("%s.decoding: %w", name, err)
		}
	}

	if _, err := parser.ParsePolicy(c.Reply.Policy); err != nil {
		return fmt.Errorf("reply.policy: %w", err)
	}
	if _, err := reconcile.ParseDuplicatePolicy(c.Reply.Duplicates); err != nil {
		return fmt.Errorf("reply.duplicates: %w", err)
	}
	if _, err := annotate.ParseStyle(c.Reply.AnnotateStyle); err != nil {
		return fmt.Errorf("reply.annotate_style: %w", err)
	}
	if strings.TrimSpace(c.Reply.SuccessFlag) == "" {
		return fmt.Errorf("reply.success_flag is required")
	}
	if err := c.Reply.Decoding.Validate(); err != nil {
		return fmt.Errorf("reply.decoding: %w", err)
	}

	return nil
}

// Validate checks that the strategy is known and every encoding resolves.
func (d DecodingConfig) Validate() error {
	if len(d.Encodings) == 0 {
		return fmt.Errorf("at least one encoding is required")
	}
	_, err := textdecode.New(d.Strategy, d.Encodings, d.SampleSize)
	return err
}

// Decoder builds the configured text decoder.
func (d DecodingConfig) Decoder() (textdecode.TextDecoder, error) {
	return textdecode.New(d.Strategy, d.Encodings, d.SampleSize)
}
