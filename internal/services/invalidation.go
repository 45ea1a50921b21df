package services

import (
	"context"

	"auction-platform/internal/cache"
	"auction-platform/internal/domain"
)

// LocalInvalidator applies invalidations straight to the in-process
// coordinator.
type LocalInvalidator struct {
	cache *cache.Coordinator
}

func NewLocalInvalidator(coordinator *cache.Coordinator) *LocalInvalidator {
	return &LocalInvalidator{cache: coordinator}
}

func (l *LocalInvalidator) PublishInvalidation(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		l.cache.Invalidate(tag)
	}
	return nil
}

// FanoutInvalidator forwards tags to several publishers, typically the local
// coordinator plus the Redis broadcast. The first failure is reported after
// every publisher has been tried.
type FanoutInvalidator struct {
	publishers []domain.InvalidationPublisher
}

func NewFanoutInvalidator(publishers ...domain.InvalidationPublisher) *FanoutInvalidator {
	return &FanoutInvalidator{publishers: publishers}
}

func (f *FanoutInvalidator) PublishInvalidation(ctx context.Context, tags ...string) error {
	var firstErr error
	for _, p := range f.publishers {
		if err := p.PublishInvalidation(ctx, tags...); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
