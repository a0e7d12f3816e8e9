package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/estate/internal/estate/assets"
	"github.com/aussiebroadwan/estate/internal/estate/store"
)

// HousekeepingService periodically removes stored images that no listing
// references. They are left behind when an image removal fails on delete
// or a process dies between storing an upload and publishing it.
type HousekeepingService struct {
	Store  store.Store
	Assets assets.Store
	Logger *slog.Logger

	Interval time.Duration

	// GracePeriod protects uploads that are stored but not yet published.
	GracePeriod time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(st store.Store, as assets.Store, logger *slog.Logger, interval, grace time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if grace <= 0 {
		grace = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:       st,
		Assets:      as,
		Logger:      logger,
		Interval:    interval,
		GracePeriod: grace,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop() to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until the worker has finished any in-progress sweep.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep immediately on startup
	s.SweepOrphans(context.Background(), time.Now())

	for {
		select {
		case <-ticker.C:
			s.SweepOrphans(context.Background(), time.Now())
		case <-s.stopCh:
			return
		}
	}
}

// SweepOrphans removes unreferenced assets older than the grace period and
// returns how many were removed.
func (s *HousekeepingService) SweepOrphans(ctx context.Context, now time.Time) int {
	s.Logger.Info("starting orphan image sweep")

	// Objects are listed before references so an image published during
	// the sweep is either referenced or too young to remove.
	objects, err := s.Assets.List(ctx)
	if err != nil {
		s.Logger.Error("failed to list stored images", "error", err)
		return 0
	}

	images, err := s.Store.Listings().ListImages(ctx)
	if err != nil {
		s.Logger.Error("failed to list referenced images", "error", err)
		return 0
	}

	referenced := make(map[string]struct{}, len(images))
	for _, name := range images {
		referenced[name] = struct{}{}
	}

	removed := 0
	for _, obj := range objects {
		if _, ok := referenced[obj.Name]; ok {
			continue
		}
		if now.Sub(obj.ModTime) < s.GracePeriod {
			continue
		}
		if err := s.Assets.Remove(ctx, obj.Name); err != nil {
			s.Logger.Error("failed to remove orphan image", "image", obj.Name, "error", err)
			continue
		}
		s.Logger.Debug("removed orphan image", "image", obj.Name)
		removed++
	}

	s.Logger.Info("orphan image sweep completed", "removed", removed)
	return removed
}
