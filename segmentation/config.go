package segmentation

import (
	"log"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-evaluations/common"
	"github.com/nvr-ai/go-evaluations/labels"
)

// Config defines how an Evaluator is set up.
type Config struct {
	// NumClasses is n_class. May be left 0 when ClassSet is given.
	NumClasses int `json:"numClasses" yaml:"numClasses"`
	// ClassSet names a registered label set used to name per-class rows.
	ClassSet labels.SetName `json:"classSet" yaml:"classSet"`
	// Debug enables [DEBUG] logging of every update.
	Debug bool `json:"debug" yaml:"debug"`
}

// DefaultConfig returns the Pascal VOC configuration.
func DefaultConfig() *Config {
	return &Config{
		NumClasses: labels.VOC.Len(),
		ClassSet:   labels.SetVOC,
	}
}

// ParseConfig decodes a YAML (or JSON) evaluator configuration and validates it.
//
// @example
// cfg, err := ParseConfig([]byte("classSet: camvid\ndebug: true\n"))
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse evaluator config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads and parses the evaluator configuration at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	return ParseConfig(data)
}

// Validate resolves the class set and fills NumClasses from it when unset.
//
// Returns:
// - labels.ErrUnknownSet for an unregistered ClassSet.
// - common.ErrInvalidArgument if NumClasses is not positive or disagrees with ClassSet.
func (c *Config) Validate() error {
	_, err := c.resolve()
	return err
}

// resolve validates c and returns its label set, nil when ClassSet is empty.
func (c *Config) resolve() (*labels.Set, error) {
	var set *labels.Set
	if c.ClassSet != "" {
		var err error
		if set, err = labels.Lookup(c.ClassSet); err != nil {
			return nil, err
		}
		if c.NumClasses == 0 {
			c.NumClasses = set.Len()
		}
		if c.NumClasses != set.Len() {
			return nil, errors.Wrapf(common.ErrInvalidArgument,
				"numClasses %d does not match the %d classes of %q", c.NumClasses, set.Len(), c.ClassSet)
		}
	}
	if c.NumClasses <= 0 {
		return nil, errors.Wrapf(common.ErrInvalidArgument, "numClasses must be positive, got %d", c.NumClasses)
	}
	return set, nil
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger used in debug mode (default: log.Default()).
func WithLogger(l *log.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClassSet names per-class rows with set instead of the configured ClassSet.
func WithClassSet(set *labels.Set) Option {
	return func(e *Evaluator) {
		e.set = set
	}
}
