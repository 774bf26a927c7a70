package demo

import (
	"math"
	"time"
)

// QueueStats are the aggregate metrics shown on the triage queue header.
type QueueStats struct {
	TotalCases     int `json:"totalCases"`
	WaitingCases   int `json:"waitingCases"`
	RedTriageCases int `json:"redTriageCases"`
	AvgWaitTime    int `json:"avgWaitTime"` // minutes
}

// QueueStats recomputes the queue metrics from current state on every call;
// nothing here is cached. Waiting covers the waiting and ready states. Red
// triage counts exclude completed cases. Average wait is the mean elapsed
// minutes over the waiting set, rounded to the nearest integer, and zero
// when the set is empty.
func (s *Store) QueueStats() QueueStats {
	now := s.now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := QueueStats{TotalCases: len(s.cases)}
	var totalWait float64
	for _, c := range s.cases {
		if c.Status == StatusWaiting || c.Status == StatusReady {
			stats.WaitingCases++
			totalWait += now.Sub(c.CreatedAt).Minutes()
		}
		if c.TriageLevel == TriageRed && c.Status != StatusCompleted {
			stats.RedTriageCases++
		}
	}
	if stats.WaitingCases > 0 {
		stats.AvgWaitTime = int(math.Round(totalWait / float64(stats.WaitingCases)))
	}
	return stats
}

// waitMinutes is the display wait for a case at a given instant.
func waitMinutes(c Case, now time.Time) int {
	return int(now.Sub(c.CreatedAt) / time.Minute)
}
