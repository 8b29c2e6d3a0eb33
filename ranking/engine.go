// Package ranking scores batches of artifact records along four independent
// dimensions: self (intrinsic quality), group (standing among same-type
// peers), pipeline (downstream importance) and total (weighted composite).
//
// Every dimension is a pure function of the batch and the clock reading taken
// once per pass, so ranking the same batch twice with a fixed clock yields the
// same scores. Missing or mistyped metadata reads as zero.
package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/artifactcache/artifact"
)

// Dimension names one of the four scores.
type Dimension int

const (
	DimensionTotal Dimension = iota
	DimensionGroup
	DimensionSelf
	DimensionPipeline
)

var dimensionNames = []string{"total", "group", "self", "pipeline"}

func (d Dimension) String() string {
	if d < 0 || int(d) >= len(dimensionNames) {
		return fmt.Sprintf("Dimension(%d)", int(d))
	}
	return dimensionNames[d]
}

// ParseDimension maps "total", "group", "self" or "pipeline" to a Dimension.
func ParseDimension(s string) (Dimension, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range dimensionNames {
		if name == s {
			return Dimension(i), nil
		}
	}
	return 0, fmt.Errorf("ranking: unknown dimension %q", s)
}

// Ranked is a record annotated with its scores. Fields of a dimension are
// meaningful only after that dimension has been computed.
type Ranked struct {
	artifact.Record

	Total         float64 `json:"total_rank"`
	TotalPosition int     `json:"total_rank_position,omitempty"`

	Group         float64 `json:"group_rank"`
	GroupPosition int     `json:"group_rank_position,omitempty"`
	GroupSize     int     `json:"group_size,omitempty"`

	Self         float64 `json:"self_rank"`
	SelfCategory string  `json:"self_rank_category,omitempty"`

	Pipeline     float64 `json:"pipeline_rank"`
	PipelineRole string  `json:"pipeline_role,omitempty"`

	scored uint8
}

// Wrap builds a batch from records.
func Wrap(records []artifact.Record) []*Ranked {
	out := make([]*Ranked, len(records))
	for i := range records {
		out[i] = &Ranked{Record: records[i]}
	}
	return out
}

// Score returns the score of dimension d.
func (r *Ranked) Score(d Dimension) float64 {
	switch d {
	case DimensionGroup:
		return r.Group
	case DimensionSelf:
		return r.Self
	case DimensionPipeline:
		return r.Pipeline
	default:
		return r.Total
	}
}

// Has reports whether dimension d has been computed for r.
func (r *Ranked) Has(d Dimension) bool { return r.scored&(1<<d) != 0 }

func (r *Ranked) mark(d Dimension) { r.scored |= 1 << d }

// Option configures an Engine.
type Option func(*Engine)

// WithWeights overrides the total-rank weights. New validates them.
func WithWeights(w Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithClock overrides the time source used for recency.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Engine computes rankings. It holds no mutable state and is safe for
// concurrent use on distinct batches.
type Engine struct {
	weights Weights
	now     func() time.Time
	logger  *slog.Logger
}

// New returns an Engine with the default weights and the wall clock.
// It fails with ErrInvalidWeights when WithWeights supplied invalid weights.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		weights: DefaultWeights(),
		now:     time.Now,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.weights.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Weights returns the total-rank weights in use.
func (e *Engine) Weights() Weights { return e.weights }

// RankAll computes self, group, pipeline and total ranks, in that order.
// The batch is returned sorted by total rank.
func (e *Engine) RankAll(batch []*Ranked) []*Ranked {
	start := time.Now()
	e.SelfRank(batch)
	e.GroupRank(batch)
	e.PipelineRank(batch)
	e.TotalRank(batch)
	e.logger.Debug("ranked batch", "records", len(batch), "elapsed", time.Since(start))
	return batch
}

// Top returns up to limit records that have dimension d computed, ordered by
// that score descending. The batch itself is not reordered. limit <= 0 means
// no limit.
func Top(batch []*Ranked, d Dimension, limit int) []*Ranked {
	out := make([]*Ranked, 0, len(batch))
	for _, r := range batch {
		if r.Has(d) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score(d) > out[j].Score(d) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// RankBatches runs RankAll on independent batches in parallel. It stops
// scheduling batches once ctx is done and returns ctx's error.
func (e *Engine) RankBatches(ctx context.Context, batches [][]*Ranked) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, b := range batches {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e.RankAll(b)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }
