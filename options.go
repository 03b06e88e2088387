package chrono

// Functional options, grounded on eventloop/options.go's
// loopOptions/LoopOption/resolveLoopOptions pattern.

type runtimeOptions struct {
	logger          Logger
	metrics         MetricsProvider
	queueCapHint    int
	timerCapHint    int
}

func defaultRuntimeOptions() runtimeOptions {
	return runtimeOptions{
		logger:       NopLogger{},
		metrics:      NoopMetrics{},
		queueCapHint: 16,
		timerCapHint: 8,
	}
}

// Option configures a Runtime at construction time.
type Option interface {
	apply(*runtimeOptions)
}

type optionFunc func(*runtimeOptions)

func (f optionFunc) apply(o *runtimeOptions) { f(o) }

// WithLogger installs a structured logging sink. The default is
// NopLogger.
func WithLogger(l Logger) Option {
	return optionFunc(func(o *runtimeOptions) { o.logger = l })
}

// WithMetrics installs a metrics sink. The default is NoopMetrics.
func WithMetrics(m MetricsProvider) Option {
	return optionFunc(func(o *runtimeOptions) { o.metrics = m })
}

// WithQueueCapacityHint records a hint of roughly n concurrently-runnable
// tasks. New does not read it, so it has no effect on the Runtime; it is
// never a cap — the ready queue is intrusive and unbounded.
func WithQueueCapacityHint(n int) Option {
	return optionFunc(func(o *runtimeOptions) {
		if n > 0 {
			o.queueCapHint = n
		}
	})
}

// WithTimerCapacityHint pre-sizes the timer min-heap's backing slice for
// roughly n concurrently-pending sleeps.
func WithTimerCapacityHint(n int) Option {
	return optionFunc(func(o *runtimeOptions) {
		if n > 0 {
			o.timerCapHint = n
		}
	})
}

func resolveRuntimeOptions(opts []Option) runtimeOptions {
	o := defaultRuntimeOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}
	return o
}
