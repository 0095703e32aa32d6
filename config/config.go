// Package config collects the settings of a simulation run from defaults, an
// optional .env file, PROCSIM_* environment variables, and command line
// flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/markphelps/optional"
	"github.com/sarchlab/procsim/readyqueue"
	"github.com/sarchlab/procsim/workload"
)

// Environment variables read by Load.
const (
	EnvAlgorithm    = "PROCSIM_ALGORITHM"
	EnvTraceDB      = "PROCSIM_TRACE_DB"
	EnvMonitorPort  = "PROCSIM_MONITOR_PORT"
	EnvMaxProcesses = "PROCSIM_MAX_PROCESSES"
)

// DefaultEnvFile is loaded by Load when no file is named and it exists.
const DefaultEnvFile = ".env"

// ErrInvalidConfig is returned when a setting has an unusable value.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the settings of one run.
type Config struct {
	Algorithm readyqueue.Algorithm

	// TraceDB is the path, without extension, of the SQLite database that
	// receives the trace. Tracing is off when it is empty.
	TraceDB string

	// MonitorPort is the port of the monitoring server. Zero picks a free
	// port.
	MonitorPort int

	MaxProcesses int
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Algorithm:    readyqueue.AlgorithmFIFO,
		MaxProcesses: workload.DefaultMaxProcesses,
	}
}

// Overrides are settings given on the command line. Absent values leave the
// loaded settings unchanged.
type Overrides struct {
	Algorithm    optional.String
	TraceDB      optional.String
	MonitorPort  optional.Int
	MaxProcesses optional.Int
}

// Load reads the env files, or DefaultEnvFile if none is named, and then the
// environment. Variables that are already set are not replaced by the files.
func Load(envFiles ...string) (Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return Config{}, err
	}

	c := Default()
	o := Overrides{}

	if v, ok := os.LookupEnv(EnvAlgorithm); ok {
		o.Algorithm = optional.NewString(v)
	}

	if v, ok := os.LookupEnv(EnvTraceDB); ok {
		o.TraceDB = optional.NewString(v)
	}

	if err := lookupInt(EnvMonitorPort, &o.MonitorPort); err != nil {
		return Config{}, err
	}

	if err := lookupInt(EnvMaxProcesses, &o.MaxProcesses); err != nil {
		return Config{}, err
	}

	return c.Apply(o)
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if _, err := os.Stat(DefaultEnvFile); err != nil {
			return nil
		}

		files = []string{DefaultEnvFile}
	}

	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}

	return nil
}

func lookupInt(name string, dst *optional.Int) error {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}

	i, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not an integer",
			ErrInvalidConfig, name, v)
	}

	*dst = optional.NewInt(i)

	return nil
}

// Apply returns c with the present overrides applied, validated.
func (c Config) Apply(o Overrides) (Config, error) {
	if name, err := o.Algorithm.Get(); err == nil {
		a, err := readyqueue.ParseAlgorithm(name)
		if err != nil {
			return Config{}, err
		}

		c.Algorithm = a
	}

	c.TraceDB = o.TraceDB.OrElse(c.TraceDB)
	c.MonitorPort = o.MonitorPort.OrElse(c.MonitorPort)
	c.MaxProcesses = o.MaxProcesses.OrElse(c.MaxProcesses)

	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

// Validate checks that every setting is usable.
func (c Config) Validate() error {
	if _, err := readyqueue.New(c.Algorithm); err != nil {
		return err
	}

	if c.MonitorPort < 0 || c.MonitorPort > 65535 {
		return fmt.Errorf("%w: monitor port %d is out of range",
			ErrInvalidConfig, c.MonitorPort)
	}

	if c.MonitorPort > 0 && c.MonitorPort < 1000 {
		return fmt.Errorf("%w: monitor port %d is reserved",
			ErrInvalidConfig, c.MonitorPort)
	}

	if c.MaxProcesses <= 0 {
		return fmt.Errorf("%w: max processes must be positive, got %d",
			ErrInvalidConfig, c.MaxProcesses)
	}

	return nil
}

// WorkloadOptions returns the options for reading the workload.
func (c Config) WorkloadOptions() workload.Options {
	return workload.Options{MaxProcesses: c.MaxProcesses}
}
