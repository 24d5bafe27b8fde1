package analysis

// SYNC-WATCHER-CHANNEL-SIZE
const WatcherChannelSize = 100

// AddWatcher registers to receive the analysis state of every processed frame
func (a *Analyzer) AddWatcher() chan *AnalysisState {
	a.watchersLock.Lock()
	defer a.watchersLock.Unlock()
	ch := make(chan *AnalysisState, WatcherChannelSize)
	a.watchers = append(a.watchers, ch)
	return ch
}

// RemoveWatcher unregisters a watcher channel
func (a *Analyzer) RemoveWatcher(ch chan *AnalysisState) {
	a.watchersLock.Lock()
	defer a.watchersLock.Unlock()
	for i, w := range a.watchers {
		if w == ch {
			a.watchers = append(a.watchers[:i], a.watchers[i+1:]...)
			return
		}
	}
	a.Log.Warnf("Analyzer.RemoveWatcher failed to find channel")
}

// sendToWatchers fans an analysis state out to all watchers. A watcher that
// has fallen far behind gets frames dropped rather than stalling the pipeline
// (and every other watcher) behind it.
func (a *Analyzer) sendToWatchers(state *AnalysisState) {
	a.watchersLock.RLock()
	defer a.watchersLock.RUnlock()
	for _, ch := range a.watchers {
		// SYNC-WATCHER-CHANNEL-SIZE
		if len(ch) >= cap(ch)*9/10 {
			a.Log.Warnf("Analysis watcher is falling behind. I am going to drop frames.")
		} else {
			ch <- state
		}
	}
}
