package tspool

import "github.com/concurrency-lab/tspool/hostenv"

// poolOptions holds configuration shared by every Pool constructor in
// this package.
type poolOptions struct {
	env               hostenv.Env
	capacityPerThread int
	oracleDelay       uint64
	collisionSize     uint64
	backoffDelay      uint64
	withOpLog         bool
}

// Option configures a Pool at construction.
type Option interface {
	apply(*poolOptions)
}

type optionFunc func(*poolOptions)

func (f optionFunc) apply(o *poolOptions) { f(o) }

// WithEnv overrides the hostenv.Env a pool's oracle and randomized
// scans use. Defaults to hostenv.NewDefault(numThreads).
func WithEnv(env hostenv.Env) Option {
	return optionFunc(func(o *poolOptions) { o.env = env })
}

// WithCapacityPerThread sets how many items the underlying arena
// reserves per thread. The arena is sized once at construction and
// never grows. Defaults to 1<<20.
func WithCapacityPerThread(n int) Option {
	return optionFunc(func(o *poolOptions) { o.capacityPerThread = n })
}

// WithOracleDelay sets the spin delay (in HWPTime units) used by
// hardware-serialized oracle variants. Ignored by pools constructed
// with an oracle that doesn't take a delay.
func WithOracleDelay(delay uint64) Option {
	return optionFunc(func(o *poolOptions) { o.oracleDelay = delay })
}

// WithCollisionSize sets the elimination array's slot count for
// NewEliminationStackPool. Defaults to 1 slot per thread.
func WithCollisionSize(n uint64) Option {
	return optionFunc(func(o *poolOptions) { o.collisionSize = n })
}

// WithBackoffDelay sets the elimination-backoff spin delay, in HWTime
// units.
func WithBackoffDelay(delay uint64) Option {
	return optionFunc(func(o *poolOptions) { o.backoffDelay = delay })
}

// WithOperationLog enables the optional invoke/response/linearization
// operation logger, backed by this package's own structured Logger.
// Only NewFlatCombiningQueuePool uses it; every other constructor
// ignores it.
func WithOperationLog() Option {
	return optionFunc(func(o *poolOptions) { o.withOpLog = true })
}

const defaultCapacityPerThread = 1 << 20

func resolveOptions(numThreads int, opts []Option) *poolOptions {
	cfg := &poolOptions{capacityPerThread: defaultCapacityPerThread, collisionSize: uint64(numThreads)}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(cfg)
	}
	if cfg.env == nil {
		cfg.env = hostenv.NewDefault(numThreads)
	}
	return cfg
}
