package ratelimit

import (
	"sync"
	"time"
)

// Limiter enforces per-account request ceilings on mutating endpoints
// with sliding minute and hour windows.
type Limiter struct {
	requestsPerMinute int
	requestsPerHour   int
	enabled           bool

	mu       sync.Mutex
	accounts map[string]*windows
}

type windows struct {
	minute []time.Time
	hour   []time.Time
}

// NewLimiter creates a new limiter with the given per-account limits.
func NewLimiter(requestsPerMinute, requestsPerHour int, enabled bool) *Limiter {
	return &Limiter{
		requestsPerMinute: requestsPerMinute,
		requestsPerHour:   requestsPerHour,
		enabled:           enabled,
		accounts:          make(map[string]*windows),
	}
}

// Allow checks whether the account may issue another mutating request.
func (l *Limiter) Allow(accountID string) bool {
	if !l.enabled {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.accounts[accountID]
	if !ok {
		w = &windows{}
		l.accounts[accountID] = w
	}

	w.minute = filterTimes(w.minute, now.Add(-1*time.Minute))
	w.hour = filterTimes(w.hour, now.Add(-1*time.Hour))

	if l.requestsPerMinute > 0 && len(w.minute) >= l.requestsPerMinute {
		return false
	}
	if l.requestsPerHour > 0 && len(w.hour) >= l.requestsPerHour {
		return false
	}

	w.minute = append(w.minute, now)
	w.hour = append(w.hour, now)
	return true
}

// Stats contains one account's limiter statistics
type Stats struct {
	Enabled             bool `json:"enabled"`
	RequestsLastMinute  int  `json:"requests_last_minute"`
	RequestsLastHour    int  `json:"requests_last_hour"`
	LimitPerMinute      int  `json:"limit_per_minute"`
	LimitPerHour        int  `json:"limit_per_hour"`
	RemainingThisMinute int  `json:"remaining_this_minute"`
	RemainingThisHour   int  `json:"remaining_this_hour"`
}

// GetStats returns the account's current limiter statistics
func (l *Limiter) GetStats(accountID string) Stats {
	if !l.enabled {
		return Stats{Enabled: false}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.accounts[accountID]
	if !ok {
		w = &windows{}
	}
	w.minute = filterTimes(w.minute, now.Add(-1*time.Minute))
	w.hour = filterTimes(w.hour, now.Add(-1*time.Hour))

	return Stats{
		Enabled:             true,
		RequestsLastMinute:  len(w.minute),
		RequestsLastHour:    len(w.hour),
		LimitPerMinute:      l.requestsPerMinute,
		LimitPerHour:        l.requestsPerHour,
		RemainingThisMinute: maxInt(0, l.requestsPerMinute-len(w.minute)),
		RemainingThisHour:   maxInt(0, l.requestsPerHour-len(w.hour)),
	}
}

// Reset clears all tracked requests (useful for testing)
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts = make(map[string]*windows)
}

// filterTimes keeps only times after the cutoff
func filterTimes(times []time.Time, cutoff time.Time) []time.Time {
	result := make([]time.Time, 0, len(times))
	for _, t := range times {
		if t.After(cutoff) {
			result = append(result, t)
		}
	}
	return result
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
