// Copyright 2023 Paolo Fabio Zaino
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	cmn "github.com/pzaino/recviz/pkg/common"
	solver "github.com/pzaino/recviz/pkg/solver"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		if currentConfig().API.EnableCORS {
			return true
		}
		origin := r.Header.Get("Origin")
		return origin == "" || strings.HasSuffix(origin, "://"+r.Host)
	},
}

// streamHandler solves the request sent as the first message and plays
// its steps back one message at a time.
func streamHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client
		totalErrors.Add(1)
		cmn.DebugMsg(cmn.DbgLvlDebug, "[%s] websocket upgrade failed: %v", requestID(r), err)
		return
	}
	defer conn.Close() //nolint:errcheck // Don't lint for error not checked, this is a defer statement

	// paced playback outlives the server timeouts
	_ = conn.SetReadDeadline(time.Time{})
	_ = conn.SetWriteDeadline(time.Time{})
	if size := currentConfig().API.MaxBodySize; size > 0 {
		conn.SetReadLimit(size)
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		cmn.DebugMsg(cmn.DbgLvlDebug, "[%s] no solve request received: %v", requestID(r), err)
		return
	}

	var body SolveRequest
	if err := validateBody(r.Context(), solveSchema, data, &body); err != nil {
		totalErrors.Add(1)
		sendStreamError(conn, err)
		return
	}
	res, err := runSolve(r, body)
	if err != nil {
		totalErrors.Add(1)
		sendStreamError(conn, err)
		return
	}

	controls := make(chan string, 8)
	go readControls(conn, controls)

	if !playSteps(conn, res.Steps, controls) {
		return
	}

	totalSuccess.Add(1)
	_ = conn.WriteJSON(StreamMessage{Type: "result", Result: &StreamSummary{
		Result:     solver.Finite(res.Result),
		Mode:       res.Mode,
		Shape:      res.Shape,
		BestEffort: res.BestEffort,
		CallTree:   res.CallTree,
		Warnings:   res.Warnings,
		Steps:      len(res.Steps),
	}})
	closeStream(conn)
}

// playSteps sends the steps paced by the configured delay, honouring
// pause, resume and stop. It returns false when playback was interrupted.
func playSteps(conn *websocket.Conn, steps []solver.Step, controls <-chan string) bool {
	delay := time.Duration(currentConfig().API.StreamStepDelay) * time.Millisecond
	paused := false

	for i := 0; i < len(steps); {
		var tick <-chan time.Time
		if !paused {
			tick = time.After(delay)
		}
		select {
		case c, ok := <-controls:
			if !ok {
				// client went away
				return false
			}
			switch c {
			case streamPause:
				paused = true
			case streamResume:
				paused = false
			case streamStop:
				cmn.DebugMsg(cmn.DbgLvlDebug2, "Stream stopped by the client at step %d of %d", i, len(steps))
				closeStream(conn)
				return false
			}
		case <-tick:
			index := i
			if err := conn.WriteJSON(StreamMessage{Type: "step", Index: &index, Step: steps[i]}); err != nil {
				cmn.DebugMsg(cmn.DbgLvlDebug, "Error writing step %d: %v", i, err)
				return false
			}
			i++
		}
	}
	return true
}

// readControls forwards client control messages until the connection
// is closed. Both plain text ("pause") and {"type":"pause"} are accepted.
func readControls(conn *websocket.Conn, controls chan<- string) {
	defer close(controls)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		msg := strings.ToLower(strings.TrimSpace(string(data)))
		if strings.HasPrefix(msg, "{") {
			var c struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(data, &c); err != nil {
				continue
			}
			msg = strings.ToLower(strings.TrimSpace(c.Type))
		}
		switch msg {
		case streamPause, streamResume, streamStop:
			select {
			case controls <- msg:
			default:
				// playback is not listening anymore
			}
		default:
			cmn.DebugMsg(cmn.DbgLvlDebug3, "Ignoring stream control message '%s'", msg)
		}
	}
}

func sendStreamError(conn *websocket.Conn, err error) {
	_ = conn.WriteJSON(StreamMessage{Type: "error", Error: err.Error()})
	closeStream(conn)
}

func closeStream(conn *websocket.Conn) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}
