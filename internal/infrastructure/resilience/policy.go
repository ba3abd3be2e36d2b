package resilience

import "time"

// Config is the retry and circuit breaker policy of one executor. Zero fields
// take the value of the profile the executor was built for.
type Config struct {
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

// Policies groups the per-dependency profiles. Answer generation and LLM calls
// take seconds each, so they retry less often and back off longer than publish.
type Policies struct {
	Search        Config
	LanguageModel Config
	Publish       Config
}

func DefaultPolicies() Policies {
	return Policies{
		Search:        SearchConfig(),
		LanguageModel: LanguageModelConfig(),
		Publish:       DefaultConfig(),
	}
}

// DefaultConfig suits short broker and storage calls.
func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     400 * time.Millisecond,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      10,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 2,
	}
}

// SearchConfig covers the search engine, where one answer call may run for
// several seconds and a third attempt would outlive most HTTP clients.
func SearchConfig() Config {
	return Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: 500 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Second,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      5,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	}
}

// LanguageModelConfig covers summary and title generation.
func LanguageModelConfig() Config {
	return Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Second,
		RetryMaxBackoff:     4 * time.Second,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      5,
		BreakerFailureRatio:     0.6,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	}
}

func (c Config) normalize() Config {
	return c.withDefaults(DefaultConfig())
}

// withDefaults fills unset or invalid fields from def. BreakerEnabled is taken
// as given.
func (c Config) withDefaults(def Config) Config {
	out := c

	if out.RetryMaxAttempts <= 0 {
		out.RetryMaxAttempts = def.RetryMaxAttempts
	}
	if out.RetryInitialBackoff <= 0 {
		out.RetryInitialBackoff = def.RetryInitialBackoff
	}
	if out.RetryMaxBackoff <= 0 {
		out.RetryMaxBackoff = def.RetryMaxBackoff
	}
	if out.RetryMaxBackoff < out.RetryInitialBackoff {
		out.RetryMaxBackoff = out.RetryInitialBackoff
	}
	if out.RetryMultiplier < 1.0 {
		out.RetryMultiplier = def.RetryMultiplier
	}

	if out.BreakerMinRequests == 0 {
		out.BreakerMinRequests = def.BreakerMinRequests
	}
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if out.BreakerOpenTimeout <= 0 {
		out.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	if out.BreakerHalfOpenMaxCalls == 0 {
		out.BreakerHalfOpenMaxCalls = def.BreakerHalfOpenMaxCalls
	}

	return out
}

// NewExecutors builds one executor per profile. Zero fields in p fall back to
// the matching profile defaults.
func NewExecutors(p Policies) (search, languageModel, publish *Executor) {
	return newExecutor(p.Search.withDefaults(SearchConfig())),
		newExecutor(p.LanguageModel.withDefaults(LanguageModelConfig())),
		newExecutor(p.Publish.withDefaults(DefaultConfig()))
}
