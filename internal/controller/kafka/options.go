package kafka

import "time"

type Option func(*Controller)

func MaxAttempts(attempts int) Option {
	return func(c *Controller) {
		c.maxAttempts = attempts
	}
}

func RetryBackoff(backoff time.Duration) Option {
	return func(c *Controller) {
		c.retryBackoff = backoff
	}
}

func ProcessTimeout(timeout time.Duration) Option {
	return func(c *Controller) {
		c.processTimeout = timeout
	}
}

func CommitTimeout(timeout time.Duration) Option {
	return func(c *Controller) {
		c.commitTimeout = timeout
	}
}

func Workers(workers int) Option {
	return func(c *Controller) {
		c.workers = workers
	}
}
