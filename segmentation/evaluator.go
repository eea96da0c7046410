package segmentation

import (
	"log"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-evaluations/common"
	"github.com/nvr-ai/go-evaluations/labels"
)

// Evaluator accumulates label-map pairs over many updates, e.g. one per
// validation batch, and reports metrics over everything seen since the last
// Reset. An Evaluator is not safe for concurrent use.
type Evaluator struct {
	cfg       Config
	set       *labels.Set
	cm        *ConfusionMatrix
	logger    *log.Logger
	debugMode bool
	updates   int
}

// NewEvaluator creates an evaluator from cfg.
//
// Arguments:
// - cfg: The evaluator configuration; validated here.
// - opts: Optional overrides.
//
// Returns:
// - A ready Evaluator.
// - An error if cfg is invalid or an option's class set does not match NumClasses.
//
// @example
//
//	ev, err := NewEvaluator(DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// err = ev.Update(preds, gts)
// fmt.Println(ev.Result())
func NewEvaluator(cfg *Config, opts ...Option) (*Evaluator, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	set, err := c.resolve()
	if err != nil {
		return nil, errors.Wrap(err, "invalid evaluator config")
	}

	cm, err := NewConfusionMatrix(c.NumClasses)
	if err != nil {
		return nil, err
	}
	e := &Evaluator{
		cfg:       c,
		set:       set,
		cm:        cm,
		logger:    log.Default(),
		debugMode: c.Debug,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.set != nil && e.set.Len() != c.NumClasses {
		return nil, errors.Wrapf(common.ErrInvalidArgument,
			"label set %q has %d classes, evaluator has %d", e.set.Name, e.set.Len(), c.NumClasses)
	}
	return e, nil
}

// SetDebugMode enables or disables debug logging.
func (e *Evaluator) SetDebugMode(enabled bool) {
	e.debugMode = enabled
}

// Update adds one batch of label-map pairs. The batch is counted only if
// every pair in it is valid; a failing batch leaves the evaluator unchanged.
func (e *Evaluator) Update(preds, gts []tensor.Tensor) error {
	batch, err := NewConfusionMatrix(e.cm.NumClasses())
	if err != nil {
		return err
	}
	if err := accumulate(batch, preds, gts); err != nil {
		return errors.Wrap(err, "update")
	}
	if err := e.cm.Merge(batch); err != nil {
		return errors.Wrap(err, "update")
	}
	e.updates++

	if e.debugMode {
		e.logger.Printf("[DEBUG] update %d: %d pairs, %.0f pixels counted (%.0f total)",
			e.updates, len(preds), batch.Total(), e.cm.Total())
	}
	return nil
}

// Result derives the metrics of everything accumulated so far.
func (e *Evaluator) Result() *Result {
	res := e.cm.Metrics()
	if e.debugMode {
		e.logger.Printf("[DEBUG] %d updates: %s", e.updates, res)
	}
	return res
}

// PerClass returns the current per-class metrics named by the evaluator's label set.
func (e *Evaluator) PerClass() ([]ClassMetric, error) {
	if e.set == nil {
		return nil, errors.Wrap(common.ErrInvalidArgument, "evaluator has no label set")
	}
	return e.Result().PerClass(e.set)
}

// ConfusionMatrix returns the live accumulator.
func (e *Evaluator) ConfusionMatrix() *ConfusionMatrix {
	return e.cm
}

// Reset discards everything accumulated.
func (e *Evaluator) Reset() {
	e.cm.Reset()
	e.updates = 0
	if e.debugMode {
		e.logger.Printf("[DEBUG] evaluator reset")
	}
}

// Config returns the validated configuration.
func (e *Evaluator) Config() Config {
	return e.cfg
}
