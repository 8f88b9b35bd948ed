package encoder

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/hupe1980/recgo/model"
)

// collaboratorName attributes encoder failures.
const collaboratorName = "text encoder"

// GuardOptions configures Guarded.
type GuardOptions struct {
	// Timeout bounds a single EmbedBatch call. Zero means no timeout.
	Timeout time.Duration
	// Rate is the sustained calls per second. Zero disables rate limiting.
	Rate float64
	// Burst is the limiter bucket size.
	Burst int
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	// Zero disables the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	// OnStateChange is called on breaker transitions.
	OnStateChange func(from, to gobreaker.State)
}

// DefaultGuardOptions are production defaults.
var DefaultGuardOptions = GuardOptions{
	Timeout:          5 * time.Second,
	Rate:             20,
	Burst:            5,
	FailureThreshold: 5,
	OpenTimeout:      30 * time.Second,
}

// Guarded wraps an Encoder with a timeout, a rate limiter and a circuit
// breaker. Every error it returns is a *model.CollaboratorError.
type Guarded struct {
	inner   Encoder
	timeout time.Duration
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[][]float32]
}

var _ Encoder = (*Guarded)(nil)

// NewGuarded wraps inner.
func NewGuarded(inner Encoder, opts GuardOptions) *Guarded {
	g := &Guarded{
		inner:   inner,
		timeout: opts.Timeout,
	}
	if opts.Rate > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(opts.Rate), max(opts.Burst, 1))
	}
	if opts.FailureThreshold > 0 {
		threshold := opts.FailureThreshold
		g.breaker = gobreaker.NewCircuitBreaker[[][]float32](gobreaker.Settings{
			Name:        collaboratorName,
			MaxRequests: 1,
			Timeout:     opts.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			IsSuccessful: func(err error) bool {
				// Caller cancellation says nothing about encoder health.
				return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrEmptyInput)
			},
			OnStateChange: func(_ string, from, to gobreaker.State) {
				if opts.OnStateChange != nil {
					opts.OnStateChange(from, to)
				}
			},
		})
	}
	return g
}

// Dimension returns the wrapped encoder's dimension.
func (g *Guarded) Dimension() int { return g.inner.Dimension() }

// State returns the breaker state (closed when the breaker is disabled).
func (g *Guarded) State() gobreaker.State {
	if g.breaker == nil {
		return gobreaker.StateClosed
	}
	return g.breaker.State()
}

// EmbedBatch calls the wrapped encoder.
func (g *Guarded) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, model.NewCollaboratorError(collaboratorName, err)
		}
	}

	call := func() ([][]float32, error) {
		vecs, err := g.inner.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(texts) {
			return nil, errors.New("encoder returned a wrong number of embeddings")
		}
		return vecs, nil
	}

	var (
		vecs [][]float32
		err  error
	)
	if g.breaker != nil {
		vecs, err = g.breaker.Execute(call)
	} else {
		vecs, err = call()
	}
	if err != nil {
		return nil, model.NewCollaboratorError(collaboratorName, err)
	}
	return vecs, nil
}
