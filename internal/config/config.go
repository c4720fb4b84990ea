package config

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// #region config
// Config is the process configuration shared by every tool. Flags override it.
type Config struct {
	DataDir    string `env:"QUIZCAL_DATA_DIR" envDefault:"data"`
	DB         string `env:"QUIZCAL_DB"` // run log and snapshot history; empty disables both
	Workers    int    `env:"QUIZCAL_WORKERS" envDefault:"0"`
	Solver     string `env:"QUIZCAL_SOLVER" envDefault:"search"`
	SolverPath string `env:"QUIZCAL_SOLVER_PATH"`
	GoalsFile  string `env:"QUIZCAL_GOALS" envDefault:"goals.yaml"`
	LogLevel   string `env:"QUIZCAL_LOG_LEVEL" envDefault:"info"`
	LogJSON    bool   `env:"QUIZCAL_LOG_JSON" envDefault:"false"`
}

// Load reads the optional dotenv files (".env" when none are named) and then
// the environment. Variables already set in the environment win.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// WorkerCount resolves Workers, where 0 means one worker per CPU.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// #endregion config
