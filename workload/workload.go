// Package workload reads, writes, and generates the process lists that a
// simulation consumes.
//
// A workload file starts with one header line. Every following non-blank
// line holds the arrival time, burst time, and priority of one process,
// separated by spaces or tabs.
package workload

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/procsim/process"
	"github.com/sarchlab/procsim/sim"
)

// ErrMalformedInput is returned when a record cannot be turned into a process.
var ErrMalformedInput = errors.New("malformed input")

// DefaultMaxProcesses is the number of records read when no limit is given.
const DefaultMaxProcesses = 500

// Header is the first line written by Write.
const Header = "arrival\tburst\tpriority"

// A Spec describes one process before it enters the simulation.
type Spec struct {
	ArrivalTime sim.VTime `json:"arrival_time"`
	BurstTime   sim.VTime `json:"burst_time"`
	Priority    int       `json:"priority"`
}

// Validate checks that the spec can become a process.
func (s Spec) Validate() error {
	if s.ArrivalTime < 0 {
		return fmt.Errorf("%w: negative arrival time %d",
			ErrMalformedInput, s.ArrivalTime)
	}

	if s.BurstTime <= 0 {
		return fmt.Errorf("%w: burst time %d is not positive",
			ErrMalformedInput, s.BurstTime)
	}

	return nil
}

// Options controls how records are read.
type Options struct {
	// MaxProcesses caps the number of records. Records after the cap are
	// not read. Zero means DefaultMaxProcesses.
	MaxProcesses int
}

func (o Options) maxProcesses() int {
	if o.MaxProcesses <= 0 {
		return DefaultMaxProcesses
	}

	return o.MaxProcesses
}

// Load reads the workload file at path.
func Load(path string, opts Options) ([]Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening workload: %w", err)
	}
	defer f.Close()

	specs, err := Parse(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return specs, nil
}

// Parse reads a workload from r. Any bad record fails the whole workload.
func Parse(r io.Reader, opts Options) ([]Spec, error) {
	scanner := bufio.NewScanner(r)
	limit := opts.maxProcesses()
	specs := make([]Spec, 0)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo == 1 {
			continue
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if len(specs) == limit {
			break
		}

		s, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		specs = append(specs, s)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading workload: %w", err)
	}

	return specs, nil
}

func parseLine(line string) (Spec, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return Spec{}, fmt.Errorf("%w: want 3 fields, got %d",
			ErrMalformedInput, len(fields))
	}

	values := make([]int64, 3)
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return Spec{}, fmt.Errorf("%w: %q is not an integer",
				ErrMalformedInput, f)
		}

		values[i] = v
	}

	s := Spec{
		ArrivalTime: sim.VTime(values[0]),
		BurstTime:   sim.VTime(values[1]),
		Priority:    int(values[2]),
	}

	if err := s.Validate(); err != nil {
		return Spec{}, err
	}

	return s, nil
}

// Write writes specs in the format that Parse reads.
func Write(w io.Writer, specs []Spec) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintln(bw, Header); err != nil {
		return err
	}

	for _, s := range specs {
		_, err := fmt.Fprintf(bw, "%d\t%d\t%d\n",
			s.ArrivalTime, s.BurstTime, s.Priority)
		if err != nil {
			return err
		}
	}

	return bw.Flush()
}

// ToProcesses creates a process for each spec, in order, with IDs from gen.
func ToProcesses(specs []Spec, gen process.IDGenerator) []process.Process {
	ps := make([]process.Process, 0, len(specs))

	for _, s := range specs {
		ps = append(ps, process.New(
			gen.Generate(), s.ArrivalTime, s.BurstTime, s.Priority))
	}

	return ps
}

// GeneratorConfig sets the ranges that Generate draws from.
type GeneratorConfig struct {
	MaxInterArrival sim.VTime
	MaxBurst        sim.VTime
	MaxPriority     int
}

// DefaultGeneratorConfig is used by Generate.
var DefaultGeneratorConfig = GeneratorConfig{
	MaxInterArrival: 5,
	MaxBurst:        20,
	MaxPriority:     10,
}

// Generate creates n random specs sorted by arrival time. The same seed
// always gives the same workload.
func Generate(n int, seed int64) []Spec {
	return DefaultGeneratorConfig.Generate(n, seed)
}

// Generate creates n random specs within the ranges of c.
func (c GeneratorConfig) Generate(n int, seed int64) []Spec {
	rng := rand.New(rand.NewSource(seed))
	specs := make([]Spec, 0, n)

	now := sim.VTime(0)
	for i := 0; i < n; i++ {
		if i > 0 && c.MaxInterArrival > 0 {
			now += sim.VTime(rng.Int63n(int64(c.MaxInterArrival) + 1))
		}

		burst := sim.VTime(1)
		if c.MaxBurst > 1 {
			burst += sim.VTime(rng.Int63n(int64(c.MaxBurst)))
		}

		priority := 0
		if c.MaxPriority > 0 {
			priority = rng.Intn(c.MaxPriority + 1)
		}

		specs = append(specs, Spec{
			ArrivalTime: now,
			BurstTime:   burst,
			Priority:    priority,
		})
	}

	return specs
}
