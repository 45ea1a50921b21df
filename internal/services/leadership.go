package services

import (
	"context"
	"time"

	"auction-platform/internal/domain"
	"auction-platform/pkg/logger"
)

// MaintainLeadership keeps trying to acquire provisioner leadership until the
// context is cancelled. If the current leader dies, its key expires and the
// next attempt here takes over.
func MaintainLeadership(ctx context.Context, leader domain.LeaderElection, instanceID string, retry time.Duration, log logger.Logger) {
	for {
		became, err := leader.BecomeLeader(ctx, instanceID)
		if err != nil {
			log.Error("Failed to acquire leadership", "instance_id", instanceID, "error", err)
		} else if became {
			log.Info("Became provisioner leader", "instance_id", instanceID)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(retry):
		}
	}
}
