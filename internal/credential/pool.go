package credential

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Strategy selects how AcquireOne picks among the available keys.
type Strategy string

// Supported rotation strategies.
const (
	// StrategyRoundRobin cycles a shared cursor across the available set.
	StrategyRoundRobin Strategy = "round_robin"

	// StrategyRandom picks uniformly among the available set.
	StrategyRandom Strategy = "random"

	// StrategyFailover always prefers the earliest-listed available key.
	StrategyFailover Strategy = "failover"
)

// ParseStrategy converts a configuration string into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyRoundRobin, StrategyRandom, StrategyFailover:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("unknown rotation strategy: %q", s)
	}
}

// FailureKind classifies a provider failure for cooldown purposes.
type FailureKind string

// Failure kinds reported to the pool.
const (
	FailureRateLimit    FailureKind = "rate_limit"
	FailureTimeout      FailureKind = "timeout"
	FailureInvalidKey   FailureKind = "invalid_key"
	FailureUnclassified FailureKind = "unclassified"
)

// Cooldown durations per failure kind. Unclassified failures only cool a
// key down after consecutiveErrorThreshold consecutive errors.
const (
	rateLimitCooldown    = 5 * time.Minute
	timeoutCooldown      = 2 * time.Minute
	invalidKeyCooldown   = 10 * time.Minute
	unclassifiedCooldown = 1 * time.Minute

	consecutiveErrorThreshold = 3
)

// Health is the state of one credential.
type Health string

// A credential is always in exactly one of these states. A cooling
// credential becomes available again lazily, at the next selection
// attempt after its cooldown expires.
const (
	HealthAvailable Health = "available"
	HealthCooling   Health = "cooling"
)

// ErrNoCredentials is returned by constructors given an empty key list.
var ErrNoCredentials = errors.New("credential list cannot be empty")

// keyState is the pool-internal health record of one credential.
type keyState struct {
	key               string
	cooling           bool
	cooldownUntil     time.Time
	consecutiveErrors int
	lastUsedAt        time.Time
}

// Status is a point-in-time snapshot of one credential's health, for
// observability. The key is truncated so snapshots can be logged safely.
type Status struct {
	Key               string    `json:"key"`
	Health            Health    `json:"health"`
	CooldownUntil     time.Time `json:"cooldown_until,omitempty"`
	ConsecutiveErrors int       `json:"consecutive_errors"`
	LastUsedAt        time.Time `json:"last_used_at,omitempty"`
}

// Pool owns a fixed set of equivalent credentials. The set is immutable
// after construction; only health state changes at runtime, and only in
// response to ReportSuccess/ReportFailure.
type Pool struct {
	mu       sync.Mutex
	keys     []*keyState
	cursor   int
	strategy Strategy
	rng      *rand.Rand

	// now is the clock source; replaceable in tests.
	now func() time.Time
}

// NewPool creates a pool over the given ordered key list.
func NewPool(keys []string, strategy Strategy) (*Pool, error) {
	if len(keys) == 0 {
		return nil, ErrNoCredentials
	}

	if _, err := ParseStrategy(string(strategy)); err != nil {
		return nil, err
	}

	states := make([]*keyState, len(keys))
	for i, k := range keys {
		if k == "" {
			return nil, fmt.Errorf("credential at index %d is empty", i)
		}
		states[i] = &keyState{key: k}
	}

	return &Pool{
		keys:     states,
		strategy: strategy,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}, nil
}

// Size returns the total number of configured credentials, regardless of
// health.
func (p *Pool) Size() int {
	return len(p.keys)
}

// AcquireOne returns one usable credential selected under the pool's
// strategy. Cooling credentials whose window has expired are revived
// during the scan. If no credential is available it returns ok=false;
// it never blocks waiting for a cooldown to expire.
func (p *Pool) AcquireOne() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	avail := p.availableLocked()
	if len(avail) == 0 {
		return "", false
	}

	switch p.strategy {
	case StrategyRandom:
		return avail[p.rng.Intn(len(avail))].key, true
	case StrategyFailover:
		return avail[0].key, true
	default: // round robin
		if p.cursor >= len(avail) {
			p.cursor = 0
		}
		ks := avail[p.cursor]
		p.cursor++
		return ks.key, true
	}
}

// AcquireMany returns up to n distinct usable credentials in list order,
// without blocking. When fewer than n are available it returns the short
// list; callers must handle fewer raced attempts than intended.
func (p *Pool) AcquireMany(n int) []string {
	if n <= 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	avail := p.availableLocked()
	if len(avail) > n {
		avail = avail[:n]
	}

	keys := make([]string, len(avail))
	for i, ks := range avail {
		keys[i] = ks.key
	}
	return keys
}

// ReportSuccess records a successful call with the credential. It clears
// the consecutive error count and stamps last use; health is unchanged.
func (p *Pool) ReportSuccess(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ks := p.lookupLocked(key)
	if ks == nil {
		return
	}

	ks.consecutiveErrors = 0
	ks.lastUsedAt = p.now()
}

// ReportFailure records a failed call with the credential and places it
// into cooldown according to the failure kind. Cooldowns do not stack:
// each new failure resets the expiry rather than extending it.
func (p *Pool) ReportFailure(key string, kind FailureKind) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ks := p.lookupLocked(key)
	if ks == nil {
		return
	}

	ks.consecutiveErrors++

	var cooldown time.Duration
	switch kind {
	case FailureRateLimit:
		cooldown = rateLimitCooldown
	case FailureTimeout:
		cooldown = timeoutCooldown
	case FailureInvalidKey:
		cooldown = invalidKeyCooldown
	default:
		if ks.consecutiveErrors < consecutiveErrorThreshold {
			return
		}
		cooldown = unclassifiedCooldown
	}

	ks.cooling = true
	ks.cooldownUntil = p.now().Add(cooldown)
}

// Snapshot returns the current health of every credential in list order.
func (p *Pool) Snapshot() []Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	out := make([]Status, len(p.keys))
	for i, ks := range p.keys {
		health := HealthAvailable
		var until time.Time
		if ks.cooling && now.Before(ks.cooldownUntil) {
			health = HealthCooling
			until = ks.cooldownUntil
		}
		out[i] = Status{
			Key:               redactKey(ks.key),
			Health:            health,
			CooldownUntil:     until,
			ConsecutiveErrors: ks.consecutiveErrors,
			LastUsedAt:        ks.lastUsedAt,
		}
	}
	return out
}

// availableLocked returns the usable credentials in list order, reviving
// any whose cooldown has expired. Callers must hold p.mu.
func (p *Pool) availableLocked() []*keyState {
	now := p.now()
	avail := make([]*keyState, 0, len(p.keys))
	for _, ks := range p.keys {
		if ks.cooling {
			if now.After(ks.cooldownUntil) {
				ks.cooling = false
				ks.cooldownUntil = time.Time{}
				ks.consecutiveErrors = 0
			} else {
				continue
			}
		}
		avail = append(avail, ks)
	}
	return avail
}

// lookupLocked finds the state for a key. Callers must hold p.mu.
func (p *Pool) lookupLocked(key string) *keyState {
	for _, ks := range p.keys {
		if ks.key == key {
			return ks
		}
	}
	return nil
}

// redactKey keeps only a short prefix of the secret for logs and status
// endpoints.
func redactKey(key string) string {
	if len(key) <= 6 {
		return "******"
	}
	return key[:6] + "..."
}
