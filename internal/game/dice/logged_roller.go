package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged decisions.
// Every pick is logged at debug level with its inputs and outcome.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs each decision to logger.
//
// Precondition: src must be non-nil. A nil logger disables logging.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Roller{src: src, logger: logger}
}

// Source returns the wrapped Source.
func (r *Roller) Source() Source { return r.src }

// Weighted picks an index proportionally to weights and logs the pick.
func (r *Roller) Weighted(what string, weights []float64) int {
	i := Weighted(r.src, weights)
	r.logger.Debug("dice pick",
		zap.String("what", what),
		zap.Float64s("weights", weights),
		zap.Int("picked", i),
	)
	return i
}

// Chance flips a biased coin and logs the outcome.
func (r *Roller) Chance(what string, p float64) bool {
	ok := Chance(r.src, p)
	r.logger.Debug("dice chance", zap.String("what", what), zap.Float64("p", p), zap.Bool("result", ok))
	return ok
}

// Spread scales v by a uniform factor in [1-frac, 1+frac).
func (r *Roller) Spread(v, frac float64) float64 {
	return Spread(r.src, v, frac)
}

// Float returns a uniform value in [0, 1).
func (r *Roller) Float() float64 { return Float(r.src) }
