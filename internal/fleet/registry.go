// Package fleet maintains the console's view of the device fleet.
//
// The registry owns its snapshot exclusively: a successful load replaces it
// wholesale, a failed load retains the previous one. There is no background
// refresh; the operator triggers every reload explicitly. A mutex guards the
// snapshot because loads complete on goroutines other than the readers'.
package fleet

import (
	"context"
	"sync"
	"time"

	"relayctl/internal/logging"
	"relayctl/internal/types"
)

// Lister is the slice of the gateway client the registry needs.
type Lister interface {
	ListDevices(ctx context.Context) ([]types.Device, error)
}

// Stats are the derived values recomputed on every snapshot.
type Stats struct {
	Total       int
	Online      int
	Offline     int
	OnlineRatio float64 // 0 when Total is 0
}

// Registry holds the current device snapshot.
type Registry struct {
	api Lister
	log *logging.Logger

	mu       sync.Mutex
	devices  []types.Device
	loadedAt time.Time
}

// NewRegistry creates an empty registry backed by the given gateway client.
func NewRegistry(api Lister) *Registry {
	return &Registry{
		api: api,
		log: logging.Get(logging.CategoryFleet),
	}
}

// Load fetches the full device set and replaces the snapshot atomically.
// On any error the prior snapshot is retained so the operator keeps the
// last known state while deciding whether to retry.
func (r *Registry) Load(ctx context.Context) error {
	devices, err := r.api.ListDevices(ctx)
	if err != nil {
		r.log.Warn("device load failed, keeping prior snapshot: %v", err)
		return err
	}
	r.mu.Lock()
	r.devices = devices
	r.loadedAt = time.Now()
	r.mu.Unlock()
	r.log.Info("device snapshot replaced: %d devices", len(devices))
	return nil
}

// Devices returns the current snapshot. The registry retains ownership;
// callers must not mutate the returned slice.
func (r *Registry) Devices() []types.Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.devices
}

// LoadedAt returns when the snapshot was last replaced; zero before the
// first successful load.
func (r *Registry) LoadedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadedAt
}

// Stats recomputes the derived values from the current snapshot.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ComputeStats(r.devices)
}

// ComputeStats derives online/offline counts and the online ratio.
// The ratio is defined as 0 for an empty fleet.
func ComputeStats(devices []types.Device) Stats {
	s := Stats{Total: len(devices)}
	for _, d := range devices {
		if d.Online {
			s.Online++
		} else {
			s.Offline++
		}
	}
	if s.Total > 0 {
		s.OnlineRatio = float64(s.Online) / float64(s.Total)
	}
	return s
}
