package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/arguscam/argus/server/analysis"
	"github.com/cyclopcam/logs"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

const webSocketSendBufferSize = 30

var webSocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 32 * 1024,
}

type webSocketMsg int

const (
	webSocketMsgPause webSocketMsg = iota
	webSocketMsgResume
)

type webSocketJSON struct {
	Command string `json:"command"`
}

var nextWebSocketStreamerID int64

// detectionStreamer pushes per-frame analysis states over a websocket.
// A slow client gets frames dropped from its queue; it never stalls the
// pipeline or other clients.
type detectionStreamer struct {
	log            logs.Log
	streamerID     int64 // Intended to aid in logging/debugging
	closed         atomic.Bool
	paused         atomic.Bool
	fromWebSocket  chan webSocketMsg
	sendQueue      chan *analysis.AnalysisState
	lastDropMsg    time.Time
	nFramesDropped int64
	nFramesSent    int64
}

// httpStreamDetections upgrades to a websocket and streams analysis states
// until the client disconnects
func (s *Server) httpStreamDetections(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	conn, err := webSocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Errorf("Websocket upgrade failed: %v", err)
		return
	}

	streamerID := atomic.AddInt64(&nextWebSocketStreamerID, 1)
	streamer := &detectionStreamer{
		log:        logs.NewPrefixLogger(s.Log, fmt.Sprintf("Detections WebSocket %v", streamerID)),
		streamerID: streamerID,
		sendQueue:  make(chan *analysis.AnalysisState, webSocketSendBufferSize),
	}
	watcher := s.analyzer.AddWatcher()
	defer s.analyzer.RemoveWatcher(watcher)
	streamer.run(conn, watcher, s.shutdownStarted)
}

func (d *detectionStreamer) run(conn *websocket.Conn, watcher chan *analysis.AnalysisState, shutdown chan bool) {
	defer conn.Close()

	d.fromWebSocket = make(chan webSocketMsg, 1)
	go d.webSocketReader(conn)
	go d.webSocketWriter(conn)

	webSocketClosed := false
	for !d.closed.Load() {
		select {
		case state := <-watcher:
			if !d.paused.Load() {
				d.onState(state)
			}
		case msg, ok := <-d.fromWebSocket:
			if !ok {
				webSocketClosed = true
				d.closed.Store(true)
				break
			}
			switch msg {
			case webSocketMsgPause:
				d.paused.Store(true)
			case webSocketMsgResume:
				d.paused.Store(false)
			}
		case <-shutdown:
			d.closed.Store(true)
		}
	}
	close(d.sendQueue)
	if !webSocketClosed {
		conn.Close()
	}
	d.log.Infof("Closed after sending %v frames (%v dropped)", d.nFramesSent, d.nFramesDropped)
}

func (d *detectionStreamer) onState(state *analysis.AnalysisState) {
	now := time.Now()
	if len(d.sendQueue) >= webSocketSendBufferSize {
		d.nFramesDropped++
		if now.Sub(d.lastDropMsg) > 5*time.Second {
			d.log.Infof("Dropped %v/%v frames", d.nFramesDropped, d.nFramesDropped+d.nFramesSent)
			d.lastDropMsg = now
		}
	} else {
		d.nFramesSent++
		d.sendQueue <- state
	}
}

// Read from the websocket and post to our own channel, so that we can
// run a single loop that handles client commands and pipeline states.
func (d *detectionStreamer) webSocketReader(conn *websocket.Conn) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		msg := webSocketJSON{}
		if err := json.Unmarshal(data, &msg); err != nil {
			d.log.Infof("Failed to decode websocket JSON: %v", err)
			continue
		}
		switch msg.Command {
		case "pause":
			d.fromWebSocket <- webSocketMsgPause
		case "resume":
			d.fromWebSocket <- webSocketMsgResume
		default:
			d.log.Infof("Unknown websocket command from client: '%v'", msg.Command)
		}
	}
	close(d.fromWebSocket)
}

// Writes run on their own thread so that a slow client doesn't block the
// receive loop
func (d *detectionStreamer) webSocketWriter(conn *websocket.Conn) {
	for state := range d.sendQueue {
		if d.closed.Load() {
			break
		}
		if d.paused.Load() {
			// When paused, drain the queue without sending
			continue
		}
		if err := conn.WriteJSON(state); err != nil {
			d.log.Infof("Error writing to websocket %v: %v", d.streamerID, err)
			return
		}
	}
}
