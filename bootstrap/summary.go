package bootstrap

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kbukum/flowkit/component"
)

// Summary tracks the outcome of a run.
type Summary struct {
	serviceName string
	version     string
	duration    time.Duration
	jobs        []component.Health
}

// NewSummary creates a run summary.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetRunDuration records how long the jobs took.
func (s *Summary) SetRunDuration(d time.Duration) {
	s.duration = d
}

// Record stores the health of every job after the run.
func (s *Summary) Record(health []component.Health) {
	s.jobs = append(s.jobs[:0], health...)
}

// Failed returns the number of unhealthy jobs.
func (s *Summary) Failed() int {
	n := 0
	for _, h := range s.jobs {
		if h.Status == component.StatusUnhealthy {
			n++
		}
	}
	return n
}

// Write prints the summary to w.
func (s *Summary) Write(w io.Writer) {
	fmt.Fprintf(w, "\n🚀 %s v%s ran %d jobs in %.2fs\n\n",
		s.serviceName, s.version, len(s.jobs), s.duration.Seconds())

	if len(s.jobs) == 0 {
		fmt.Fprintf(w, "   └── No jobs registered\n\n")
		return
	}

	fmt.Fprintf(w, "📦 Jobs\n")
	for i, h := range s.jobs {
		prefix := "├──"
		if i == len(s.jobs)-1 {
			prefix = "└──"
		}
		msg := ""
		if h.Message != "" {
			msg = " — " + h.Message
		}
		fmt.Fprintf(w, "   %s %s %s: %s%s\n", prefix, healthStatusIcon(h.Status), h.Name,
			strings.ToLower(string(h.Status)), msg)
	}
	fmt.Fprintf(w, "\n")

	if failed := s.Failed(); failed == 0 {
		fmt.Fprintf(w, "✅ All jobs succeeded (%d/%d)\n\n", len(s.jobs), len(s.jobs))
	} else {
		fmt.Fprintf(w, "⚠️  Some jobs failed (%d/%d)\n\n", failed, len(s.jobs))
	}
}

func healthStatusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
