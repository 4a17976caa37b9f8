// Package schedule manages the recurring synchronization job. The registry
// behind it is abstracted as a Client so the lifecycle rules can be tested
// without a running scheduler.
package schedule

import (
	"fmt"
	"time"

	"pivotsync/internal/logger"
)

// HandlerName identifies the synchronization job in the scheduler registry.
const HandlerName = "pivotsync.sync"

// JobID identifies one registered job inside a Client.
type JobID int

// Client is the scheduler registry the manager drives. CronClient is the
// production implementation.
type Client interface {
	// Add registers a recurring job under the handler name.
	Add(handler string, period time.Duration, job func()) (JobID, error)
	// Jobs returns the ids of every registered job bound to the handler name.
	Jobs(handler string) []JobID
	// Remove deregisters a job. Unknown ids are ignored.
	Remove(id JobID)
}

// Manager owns the schedule lifecycle for the synchronization job. The
// schedule is either absent or active; Install replaces, Uninstall clears.
type Manager struct {
	client Client
	period time.Duration
}

func NewManager(client Client, period time.Duration) *Manager {
	return &Manager{client: client, period: period}
}

// Period converts the config's value/unit pair to a duration. Minutes and
// hours are the supported units.
func Period(every int, unit string) (time.Duration, error) {
	if every <= 0 {
		return 0, fmt.Errorf("schedule period must be positive, got %d", every)
	}
	switch unit {
	case "minutes", "minute", "":
		return time.Duration(every) * time.Minute, nil
	case "hours", "hour":
		return time.Duration(every) * time.Hour, nil
	}
	return 0, fmt.Errorf("unsupported schedule unit %q", unit)
}

// Install registers the synchronization job, first removing any jobs already
// bound to the handler name. Calling it twice leaves exactly one job.
func (m *Manager) Install(job func()) error {
	existing := m.client.Jobs(HandlerName)
	for _, id := range existing {
		m.client.Remove(id)
	}
	if len(existing) > 0 {
		logger.Info("Removed existing schedule before reinstall", "count", len(existing))
	}

	id, err := m.client.Add(HandlerName, m.period, job)
	if err != nil {
		return fmt.Errorf("failed to register schedule: %w", err)
	}

	logger.Info("Schedule installed", "handler", HandlerName, "period", m.period.String(), "job_id", int(id))
	return nil
}

// Uninstall removes the first job bound to the handler name and reports
// whether one was found. Absent schedules are a logged no-op.
func (m *Manager) Uninstall() bool {
	ids := m.client.Jobs(HandlerName)
	if len(ids) == 0 {
		logger.Info("Schedule not found, nothing to remove", "handler", HandlerName)
		return false
	}

	m.client.Remove(ids[0])
	logger.Info("Schedule removed", "handler", HandlerName, "job_id", int(ids[0]))
	return true
}
