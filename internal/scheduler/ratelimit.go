package scheduler

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SubjectLimiter enforces the contractual gap between schedule requests per
// authenticated subject.
type SubjectLimiter struct {
	gap time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewSubjectLimiter allows one request per gap per subject, with a burst of
// one.
func NewSubjectLimiter(gap time.Duration) *SubjectLimiter {
	return &SubjectLimiter{
		gap:      gap,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether the subject may issue a request now.
func (l *SubjectLimiter) Allow(subject string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[subject]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(l.gap), 1)
		l.limiters[subject] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}
