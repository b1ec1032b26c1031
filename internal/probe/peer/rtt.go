package peer

import (
	"slices"
	"time"
)

// Stats summarises a run of round-trip measurements.
type Stats struct {
	Sent     int
	Received int
	Min      time.Duration
	Max      time.Duration
	Avg      time.Duration
	Median   time.Duration
}

// Lost is the number of pings that never got a pong.
func (s Stats) Lost() int {
	return s.Sent - s.Received
}

// Summarize computes Stats for samples out of sent pings.
func Summarize(sent int, samples []time.Duration) Stats {
	stats := Stats{Sent: sent, Received: len(samples)}
	if len(samples) == 0 {
		return stats
	}

	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	var total time.Duration
	for _, d := range sorted {
		total += d
	}

	stats.Min = sorted[0]
	stats.Max = sorted[len(sorted)-1]
	stats.Avg = total / time.Duration(len(sorted))
	stats.Median = sorted[len(sorted)/2]
	return stats
}
