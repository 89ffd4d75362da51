package httputil

import (
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

// ErrCircuitOpen is returned when a host's breaker is open and the request
// was not attempted.
var ErrCircuitOpen = errors.New("circuit open")

// Breakers keeps one circuit breaker per upstream host. A breaker trips
// after Threshold consecutive transient failures and stays open for an
// exponentially growing cooldown.
type Breakers struct {
	threshold int64
	cooldown  time.Duration

	mu       sync.RWMutex
	breakers map[string]*circuit.Breaker
}

// NewBreakers creates a breaker set. Zero values select 5 failures and a
// 30 second initial cooldown.
func NewBreakers(threshold int, cooldown time.Duration) *Breakers {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breakers{
		threshold: int64(threshold),
		cooldown:  cooldown,
		breakers:  make(map[string]*circuit.Breaker),
	}
}

func (b *Breakers) get(host string) *circuit.Breaker {
	b.mu.RLock()
	br, ok := b.breakers[host]
	b.mu.RUnlock()
	if ok {
		return br
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if br, ok := b.breakers[host]; ok {
		return br
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = b.cooldown
	exp.MaxInterval = 10 * b.cooldown
	exp.Multiplier = 2.0
	exp.MaxElapsedTime = 0
	exp.Reset()

	br = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    exp,
		ShouldTrip: circuit.ThresholdTripFunc(b.threshold),
	})
	b.breakers[host] = br
	return br
}

// Do runs fn through the breaker for host. Only retryable errors count as
// failures; a 404 says nothing about the upstream's health.
func (b *Breakers) Do(host string, fn func() error) error {
	var result error
	err := b.get(host).Call(func() error {
		result = fn()
		if IsRetryable(result) {
			return result
		}
		return nil
	}, 0)
	if errors.Is(err, circuit.ErrBreakerOpen) {
		return fmt.Errorf("%w for %s", ErrCircuitOpen, host)
	}
	if err != nil {
		return err
	}
	return result
}

// States reports "open" or "closed" per host.
func (b *Breakers) States() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	states := make(map[string]string, len(b.breakers))
	for host, br := range b.breakers {
		if br.Tripped() {
			states[host] = "open"
		} else {
			states[host] = "closed"
		}
	}
	return states
}

// HostOf extracts the breaker key from a request URL.
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		if len(rawURL) > 50 {
			return rawURL[:50]
		}
		return rawURL
	}
	return u.Host
}
