package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Options controls the global logger. A nil Options in Init pulls the
// values from viper (log.level, log.format, log.no_color).
type Options struct {
	Level   string
	Format  string
	NoColor bool
}

// InitDefault sets up a console logger at info level, for use before
// flags and config are parsed.
func InitDefault() {
	Init(&Options{Level: "info", Format: "console"})
}

func Init(opts *Options) {
	if opts == nil {
		opts = &Options{
			Level:   viper.GetString("log.level"),
			Format:  viper.GetString("log.format"),
			NoColor: viper.GetBool("log.no_color"),
		}
	}

	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if opts.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
		NoColor:    opts.NoColor,
	})
}
