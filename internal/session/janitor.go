package session

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// startJanitor runs sweep on a cron schedule such as "@every 1m". The returned
// stop function waits for a running sweep to finish.
func startJanitor(schedule string, sweep func()) (func(), error) {
	c := cron.New()
	if _, err := c.AddFunc(schedule, sweep); err != nil {
		return nil, fmt.Errorf("schedule session janitor: %w", err)
	}
	c.Start()
	return func() { <-c.Stop().Done() }, nil
}
