package intent

import (
	"sync"
	"time"
)

// UsageTracker accumulates token usage across classification calls.
type UsageTracker struct {
	mu               sync.RWMutex
	promptTokens     int
	completionTokens int
	requests         int
	failures         int
	startTime        time.Time
}

func NewUsageTracker() *UsageTracker {
	return &UsageTracker{startTime: time.Now()}
}

func (u *UsageTracker) AddUsage(promptTokens, completionTokens int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.promptTokens += promptTokens
	u.completionTokens += completionTokens
	u.requests++
}

func (u *UsageTracker) AddFailure() {
	u.mu.Lock()
	u.failures++
	u.mu.Unlock()
}

// UsageStats is a snapshot of a UsageTracker.
type UsageStats struct {
	PromptTokens     int           `json:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens"`
	TotalTokens      int           `json:"total_tokens"`
	Requests         int           `json:"requests"`
	Failures         int           `json:"failures"`
	Since            time.Duration `json:"since"`
}

func (u *UsageTracker) Stats() UsageStats {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return UsageStats{
		PromptTokens:     u.promptTokens,
		CompletionTokens: u.completionTokens,
		TotalTokens:      u.promptTokens + u.completionTokens,
		Requests:         u.requests,
		Failures:         u.failures,
		Since:            time.Since(u.startTime),
	}
}
