package telemetry

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Fake is an in-memory Provider for tests and preview operation, grounded
// on the share/volume/archive-volume mapping in
// netapp_volume_stats.get_archive_volume_free_space.
type Fake struct {
	mu            sync.Mutex
	capacities    map[string]Capacity
	performances  map[string]Performance
	freeBytes     map[string]int64
	dataVolumes   map[string]string
	archiveShares map[string]string
	archiveVols   map[string]string
}

// NewFake builds an empty fake telemetry provider.
func NewFake() *Fake {
	return &Fake{
		capacities:    make(map[string]Capacity),
		performances:  make(map[string]Performance),
		freeBytes:     make(map[string]int64),
		dataVolumes:   make(map[string]string),
		archiveShares: make(map[string]string),
		archiveVols:   make(map[string]string),
	}
}

// SetShare registers a share's data volume, paired archive share/volume,
// free bytes, capacity, and performance in one call for test setup.
func (f *Fake) SetShare(share, dataVolume, archiveShare, archiveVolume string, freeBytes int64, cap Capacity, perf Performance) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dataVolumes[share] = dataVolume
	f.archiveShares[share] = archiveShare
	f.archiveVols[share] = archiveVolume
	f.freeBytes[share] = freeBytes
	f.capacities[dataVolume] = cap
	f.performances[share] = perf
}

func (f *Fake) Capacity(ctx context.Context, volume string) (Capacity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.capacities[volume]
	if !ok {
		return Capacity{}, nil // unavailable: zeroed, not an error (spec §4.2)
	}
	return c, nil
}

func (f *Fake) Performance(ctx context.Context, share string) (Performance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.performances[share], nil
}

func (f *Fake) Free(ctx context.Context, share string) (int64, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bytesFree, ok := f.freeBytes[share]
	if !ok {
		return 0, "", fmt.Errorf("no free-space entry for share %s", share)
	}
	return bytesFree, f.archiveVols[share], nil
}

func (f *Fake) DataVolume(ctx context.Context, share string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.dataVolumes[share]
	if !ok {
		return "", fmt.Errorf("no data volume mapping for share %s", share)
	}
	return v, nil
}

func (f *Fake) ArchiveShare(ctx context.Context, share string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.archiveShares[share]
	if !ok {
		return "", fmt.Errorf("no archive share mapping for share %s", share)
	}
	return a, nil
}

func (f *Fake) Shares(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.dataVolumes))
	for s := range f.dataVolumes {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}
