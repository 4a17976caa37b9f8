package schedule

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// CronClient implements Client on top of a robfig/cron runner. Cron entries
// carry no names of their own, so the client keeps the id-to-handler map.
type CronClient struct {
	runner *cron.Cron

	mu       sync.Mutex
	handlers map[cron.EntryID]string
}

func NewCronClient() *CronClient {
	return &CronClient{
		runner:   cron.New(),
		handlers: make(map[cron.EntryID]string),
	}
}

func (c *CronClient) Add(handler string, period time.Duration, job func()) (JobID, error) {
	id, err := c.runner.AddFunc("@every "+period.String(), job)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	c.handlers[id] = handler
	c.mu.Unlock()
	return JobID(id), nil
}

func (c *CronClient) Jobs(handler string) []JobID {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ids []JobID
	// Walk the live entries so removed jobs never show up
	for _, entry := range c.runner.Entries() {
		if c.handlers[entry.ID] == handler {
			ids = append(ids, JobID(entry.ID))
		}
	}
	return ids
}

func (c *CronClient) Remove(id JobID) {
	c.runner.Remove(cron.EntryID(id))
	c.mu.Lock()
	delete(c.handlers, cron.EntryID(id))
	c.mu.Unlock()
}

// Start launches the cron runner in its own goroutine.
func (c *CronClient) Start() {
	c.runner.Start()
}

// Stop stops the runner and waits for an in-flight job to finish.
func (c *CronClient) Stop() {
	ctx := c.runner.Stop()
	<-ctx.Done()
}
