// Package background holds services that run independently of the HTTP
// request cycle and shut down via a stop channel.
package background

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/user/chathub-go/stats"
)

// snapshotTimeout bounds each sampling query so a stuck database cannot
// wedge the sampler goroutine.
const snapshotTimeout = 10 * time.Second

// StartStatsSampler periodically logs an activity snapshot. It returns a
// WaitGroup the caller waits on after closing stopChan; an interval of 0
// disables sampling entirely.
func StartStatsSampler(service *stats.Service, interval time.Duration, stopChan <-chan struct{}) *sync.WaitGroup {
	var wg sync.WaitGroup
	if interval <= 0 {
		logrus.Info("Stats sampler disabled")
		return &wg
	}

	logrus.WithField("interval", interval).Info("Stats sampler starting")
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer logrus.Info("Stats sampler stopped")

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sample(service)
			case <-stopChan:
				return
			}
		}
	}()
	return &wg
}

func sample(service *stats.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	totals, err := service.Snapshot(ctx)
	if err != nil {
		logrus.WithError(err).Warn("Stats sampling failed")
		return
	}
	logrus.WithFields(logrus.Fields{
		"users":            totals.Users,
		"online_users":     totals.OnlineUsers,
		"messages":         totals.Messages,
		"private_messages": totals.PrivateCount,
		"friendships":      totals.Friendships,
		"pending_requests": totals.PendingCount,
	}).Info("Activity snapshot")
}
