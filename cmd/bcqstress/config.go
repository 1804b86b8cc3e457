// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"time"

	"code.hybscloud.com/bcq"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config controls a stress run. Every field can be set from the
// environment (or a .env file) and overridden by the matching flag.
type Config struct {
	Capacity     int           `env:"BCQ_CAPACITY" envDefault:"1024"`
	Producers    int           `env:"BCQ_PRODUCERS" envDefault:"4"`
	Consumers    int           `env:"BCQ_CONSUMERS" envDefault:"4"`
	Items        int           `env:"BCQ_ITEMS" envDefault:"100000"`
	Strategy     string        `env:"BCQ_STRATEGY" envDefault:"hybrid"`
	SlowPermille uint          `env:"BCQ_SLOW_PERMILLE" envDefault:"5"`
	Timeout      time.Duration `env:"BCQ_TIMEOUT" envDefault:"1m"`
	Detached     bool          `env:"BCQ_DETACHED" envDefault:"false"`
}

var errInvalidConfig = errors.New("bcqstress: invalid config")

// loadConfig reads .env files, the environment and then args, in
// increasing priority. A missing .env file is not an error.
func loadConfig(args []string, dotenv ...string) (Config, error) {
	var cfg Config
	if err := godotenv.Load(dotenv...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	fset := flag.NewFlagSet("bcqstress", flag.ContinueOnError)
	fset.IntVar(&cfg.Capacity, "capacity", cfg.Capacity, "ring capacity (rounded up to a power of 2)")
	fset.IntVar(&cfg.Producers, "producers", cfg.Producers, "concurrent senders")
	fset.IntVar(&cfg.Consumers, "consumers", cfg.Consumers, "concurrent receivers")
	fset.IntVar(&cfg.Items, "items", cfg.Items, "elements published per sender")
	fset.StringVar(&cfg.Strategy, "strategy", cfg.Strategy, "wait strategy: spin|backoff|hybrid|block")
	fset.UintVar(&cfg.SlowPermille, "slow", cfg.SlowPermille, "per-mille chance a receive is followed by a stall")
	fset.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "abort the run after this long")
	fset.BoolVar(&cfg.Detached, "detached", cfg.Detached, "keep sending after the last receiver closes")
	if err := fset.Parse(args); err != nil {
		return cfg, err
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch {
	case c.Capacity < 1:
		return fmt.Errorf("%w: capacity %d", errInvalidConfig, c.Capacity)
	case c.Producers < 1:
		return fmt.Errorf("%w: producers %d", errInvalidConfig, c.Producers)
	case c.Consumers < 1:
		return fmt.Errorf("%w: consumers %d", errInvalidConfig, c.Consumers)
	case c.Items < 1 || c.Items > maxItems:
		return fmt.Errorf("%w: items %d (1..%d)", errInvalidConfig, c.Items, maxItems)
	case c.SlowPermille > 1000:
		return fmt.Errorf("%w: slow %d per mille", errInvalidConfig, c.SlowPermille)
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout %v", errInvalidConfig, c.Timeout)
	}
	if _, err := c.builder(); err != nil {
		return err
	}
	return nil
}

// builder maps the configuration to a queue builder.
func (c Config) builder() (*bcq.Builder, error) {
	b := bcq.New(c.Capacity)
	switch c.Strategy {
	case "spin":
		b.Spin()
	case "backoff":
		b.Backoff()
	case "hybrid", "":
	case "block":
		b.Block()
	default:
		return nil, fmt.Errorf("%w: strategy %q", errInvalidConfig, c.Strategy)
	}
	if c.Detached {
		b.Detached()
	}
	return b, nil
}
