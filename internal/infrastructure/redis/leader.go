package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"auction-platform/pkg/logger"
)

const leaderKey = "auction_platform_leader"

// Lua keeps check-and-release and check-and-extend atomic so an instance can
// never delete or refresh a key another instance now owns.
const (
	releaseScript = `
        if redis.call("GET", KEYS[1]) == ARGV[1] then
            return redis.call("DEL", KEYS[1])
        else
            return 0
        end
    `
	extendScript = `
        if redis.call("GET", KEYS[1]) == ARGV[1] then
            return redis.call("EXPIRE", KEYS[1], ARGV[2])
        else
            return 0
        end
    `
)

// leaderCommands is the subset of redis commands the election uses.
type leaderCommands interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// LeaderElection gates the window provisioner so only one instance writes
// window rows. Acquisition is SetNX with a TTL; a heartbeat goroutine extends
// the TTL until leadership is lost or released.
type LeaderElection struct {
	client leaderCommands
	ttl    time.Duration
	log    logger.Logger

	mu            sync.Mutex
	stopHeartbeat chan struct{}
}

func NewLeaderElection(client leaderCommands, ttl time.Duration, log logger.Logger) *LeaderElection {
	return &LeaderElection{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

func (r *LeaderElection) BecomeLeader(ctx context.Context, instanceID string) (bool, error) {
	acquired, err := r.client.SetNX(ctx, leaderKey, instanceID, r.ttl).Result()
	if err != nil {
		return false, err
	}
	if !acquired {
		return false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopHeartbeat == nil {
		r.stopHeartbeat = make(chan struct{})
		go r.heartbeat(instanceID, r.stopHeartbeat)
	}
	return true, nil
}

func (r *LeaderElection) IsLeader(ctx context.Context, instanceID string) (bool, error) {
	currentLeader, err := r.client.Get(ctx, leaderKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return currentLeader == instanceID, nil
}

func (r *LeaderElection) ReleaseLeadership(ctx context.Context, instanceID string) error {
	r.mu.Lock()
	if r.stopHeartbeat != nil {
		close(r.stopHeartbeat)
		r.stopHeartbeat = nil
	}
	r.mu.Unlock()

	_, err := r.client.Eval(ctx, releaseScript, []string{leaderKey}, instanceID).Result()
	return err
}

// heartbeat extends the key at a third of the TTL and exits as soon as the
// extend script reports the key is no longer ours.
func (r *LeaderElection) heartbeat(instanceID string, stop chan struct{}) {
	ticker := time.NewTicker(r.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		result, err := r.client.Eval(ctx, extendScript, []string{leaderKey},
			instanceID, int(r.ttl.Seconds())).Result()
		cancel()

		if err != nil {
			r.log.Error("Failed to extend leadership", "instance_id", instanceID, "error", err)
			continue
		}
		if extended, ok := result.(int64); !ok || extended == 0 {
			r.log.Warn("Lost leadership", "instance_id", instanceID)
			r.mu.Lock()
			// Only clear our own channel; a re-acquisition may have
			// installed a fresh heartbeat in the meantime.
			if r.stopHeartbeat == stop {
				r.stopHeartbeat = nil
			}
			r.mu.Unlock()
			return
		}
	}
}
