package analysis

import (
	"time"

	"github.com/bmharper/ringbuffer"
)

// DefaultZoneHistorySize is how many per-frame samples each zone retains
const DefaultZoneHistorySize = 256

// ZoneSample is one frame's object count inside one zone
type ZoneSample struct {
	FrameID int64     `json:"frameID"`
	PTS     time.Time `json:"pts"`
	Count   int       `json:"count"`
}

type zoneHistory struct {
	samples ringbuffer.RingP[ZoneSample]
	total   int64
}

// recordZoneCounts appends a sample to each zone that had at least one object
// this frame. Zones with zero objects don't get samples; occupancy history is
// sparse by design.
func (a *Analyzer) recordZoneCounts(frameID int64, pts time.Time, counts map[int64]int) {
	a.countersLock.Lock()
	defer a.countersLock.Unlock()
	for zoneID, count := range counts {
		h := a.counters[zoneID]
		if h == nil {
			h = &zoneHistory{samples: ringbuffer.NewRingP[ZoneSample](a.historySize)}
			a.counters[zoneID] = h
		}
		h.samples.Add(ZoneSample{FrameID: frameID, PTS: pts, Count: count})
		h.total += int64(count)
	}
}

// ZoneHistory returns the retained samples of one zone, oldest first
func (a *Analyzer) ZoneHistory(zoneID int64) []ZoneSample {
	a.countersLock.Lock()
	defer a.countersLock.Unlock()
	h := a.counters[zoneID]
	if h == nil {
		return nil
	}
	out := make([]ZoneSample, h.samples.Len())
	for i := 0; i < h.samples.Len(); i++ {
		out[i] = h.samples.Peek(i)
	}
	return out
}

// ZoneTotal returns the lifetime sum of object counts seen inside one zone
func (a *Analyzer) ZoneTotal(zoneID int64) int64 {
	a.countersLock.Lock()
	defer a.countersLock.Unlock()
	h := a.counters[zoneID]
	if h == nil {
		return 0
	}
	return h.total
}

// ClearZoneCounters drops all zone occupancy history
func (a *Analyzer) ClearZoneCounters() {
	a.countersLock.Lock()
	defer a.countersLock.Unlock()
	a.counters = map[int64]*zoneHistory{}
}
