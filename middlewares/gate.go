package middlewares

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// DiskGate is the ingestion watchdog: a background loop samples free space on
// the storage volume and flips the pipeline into reject mode when it falls
// under the threshold.
type DiskGate struct {
	path     string
	minFree  uint64
	interval time.Duration
	engaged  atomic.Bool
	done     chan struct{}

	// freeBytes is swappable so tests can simulate disk pressure.
	freeBytes func(path string) (uint64, error)
}

func NewDiskGate(path string, minFree uint64, interval time.Duration) *DiskGate {
	return &DiskGate{
		path:      path,
		minFree:   minFree,
		interval:  interval,
		done:      make(chan struct{}),
		freeBytes: statfsFree,
	}
}

func statfsFree(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	return st.Bavail * uint64(st.Bsize), nil
}

// Start launches the sampling loop. It checks once immediately, then on every
// tick until ctx is cancelled.
func (g *DiskGate) Start(ctx context.Context) {
	log.WithFields(log.Fields{
		"path":     g.path,
		"minFree":  g.minFree,
		"interval": g.interval,
	}).Info("disk gate started")

	go func() {
		ticker := time.NewTicker(g.interval)
		defer ticker.Stop()

		g.check()
		for {
			select {
			case <-ticker.C:
				g.check()
			case <-ctx.Done():
				log.Info("disk gate stopping")
				close(g.done)
				return
			}
		}
	}()
}

// Wait blocks until the gate loop has fully stopped.
func (g *DiskGate) Wait() {
	<-g.done
}

// Engaged reports whether the pipeline is currently in reject mode.
func (g *DiskGate) Engaged() bool {
	return g.engaged.Load()
}

func (g *DiskGate) check() {
	free, err := g.freeBytes(g.path)
	if err != nil {
		// Fail open: a broken probe must not take ingestion down.
		log.WithFields(log.Fields{"path": g.path, "error": err}).Error("disk gate probe failed")
		return
	}

	low := free < g.minFree
	if low != g.engaged.Swap(low) {
		if low {
			log.WithFields(log.Fields{"freeBytes": free, "minFree": g.minFree}).Warn("disk gate engaged, rejecting submissions")
		} else {
			log.WithFields(log.Fields{"freeBytes": free}).Info("disk gate released")
		}
	}
}

// Middleware rejects every request with 503 while the gate is engaged. It
// runs before any other pipeline component on the ingest path.
func (g *DiskGate) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if g.Engaged() {
			c.Set(fiber.HeaderRetryAfter, "60")
			return fiber.NewError(fiber.StatusServiceUnavailable, "ingestion temporarily disabled, low disk space")
		}
		return c.Next()
	}
}
