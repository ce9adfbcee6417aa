package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/example/tokenreplay/internal/playback"
	"github.com/example/tokenreplay/internal/tokenizer"
)

type Config struct {
	LogLevel  string          `mapstructure:"log_level"`
	UI        string          `mapstructure:"ui"`
	Tokenizer TokenizerConfig `mapstructure:"tokenizer"`
	Playback  PlaybackConfig  `mapstructure:"playback"`
	Share     ShareConfig     `mapstructure:"share"`
	Server    ServerConfig    `mapstructure:"server"`
}

type TokenizerConfig struct {
	Encoding           string `mapstructure:"encoding"`
	SentencePieceModel string `mapstructure:"sentencepiece_model"`
}

type PlaybackConfig struct {
	SpeedMS  int  `mapstructure:"speed_ms"`
	Autoplay bool `mapstructure:"autoplay"`
}

type ShareConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Param   string `mapstructure:"param"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
	MaxTextBytes    int    `mapstructure:"max_text_bytes"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		UI:       UIAuto,
		Tokenizer: TokenizerConfig{
			Encoding:           tokenizer.DefaultEncoding,
			SentencePieceModel: "",
		},
		Playback: PlaybackConfig{
			SpeedMS:  playback.DefaultSpeed.Millis(),
			Autoplay: false,
		},
		Share: ShareConfig{
			BaseURL: "http://localhost:8080/",
			Param:   "s",
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ShutdownTimeout: 30,
			MaxTextBytes:    1 << 20,
		},
	}
}

// flagKeys maps every config key to the flag that overrides it.
var flagKeys = []struct {
	key  string
	flag string
}{
	{"log_level", "log-level"},
	{"ui", "ui"},
	{"tokenizer.encoding", "encoding"},
	{"tokenizer.sentencepiece_model", "sentencepiece-model"},
	{"playback.speed_ms", "speed"},
	{"playback.autoplay", "autoplay"},
	{"share.base_url", "share-base-url"},
	{"share.param", "share-param"},
	{"server.listen_addr", "server-listen-addr"},
	{"server.shutdown_timeout", "server-shutdown-timeout"},
	{"server.max_text_bytes", "server-max-text-bytes"},
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
	fs.String("ui", defaults.UI, "Interactive terminal UI (auto|on|off)")
	fs.String("encoding", defaults.Tokenizer.Encoding,
		"Token encoding ("+strings.Join(tokenizer.Encodings(), "|")+")")
	fs.String("sentencepiece-model", defaults.Tokenizer.SentencePieceModel,
		"Optional SentencePiece model for token count comparisons")
	fs.Int("speed", defaults.Playback.SpeedMS, "Autoplay interval in ms (50|100|200)")
	fs.Bool("autoplay", defaults.Playback.Autoplay, "Start playing as soon as the document is loaded")
	fs.String("share-base-url", defaults.Share.BaseURL, "Base address that share links point to")
	fs.String("share-param", defaults.Share.Param, "Query parameter carrying the share token")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown drain period in seconds")
	fs.Int("server-max-text-bytes", defaults.Server.MaxTextBytes, "Maximum document size accepted by the server")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("TOKENREPLAY")
	replacer := strings.NewReplacer("-", "_", ".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("tokenreplay")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	mode, err := NormalizeUIMode(cfg.UI)
	if err != nil {
		return Config{}, err
	}
	cfg.UI = mode

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("ui", c.UI)
	v.SetDefault("tokenizer.encoding", c.Tokenizer.Encoding)
	v.SetDefault("tokenizer.sentencepiece_model", c.Tokenizer.SentencePieceModel)
	v.SetDefault("playback.speed_ms", c.Playback.SpeedMS)
	v.SetDefault("playback.autoplay", c.Playback.Autoplay)
	v.SetDefault("share.base_url", c.Share.BaseURL)
	v.SetDefault("share.param", c.Share.Param)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
}

// bindFlags binds each flag to its dotted key, so a flag only wins when it was
// set explicitly and config file values still apply otherwise.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, fk := range flagKeys {
		f := fs.Lookup(fk.flag)
		if f == nil {
			continue
		}

		if err := v.BindPFlag(fk.key, f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", fk.flag, err)
		}
	}

	return nil
}

// Speed returns the configured autoplay interval, or the default when the
// configured value is not one of the allowed speeds.
func (c Config) Speed() playback.Speed {
	if s, ok := playback.SpeedFromMillis(c.Playback.SpeedMS); ok {
		return s
	}

	return playback.DefaultSpeed
}
