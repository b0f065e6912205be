package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/gateway"
	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/llm"
	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/router"
	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/stream"
)

const (
	// wsWriteWait is the timeout for writing control frames.
	wsWriteWait = 10 * time.Second

	// pongWait is the timeout for pong responses.
	pongWait = 60 * time.Second

	// pingPeriod is how often to send ping frames.
	pingPeriod = (pongWait * 9) / 10
)

var errEmptyMessages = errors.New("messages must not be empty")

// handleChatWS serves one streamed completion per WebSocket connection:
// the client sends a single chat request, the server replies with the
// token/terminal event sequence, then the connection closes.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	var req chatRequest
	if err := conn.ReadJSON(&req); err != nil {
		s.log.Warn().Err(err).Msg("websocket read failed")
		return
	}

	streamer := stream.NewStreamer(stream.NewWSSink(conn))
	if len(req.Messages) == 0 {
		streamer.Fail(errEmptyMessages)
		return
	}

	modelID := req.Model
	if req.Auto {
		modelID = router.Classify(req.Messages[len(req.Messages)-1].Content).ModelID
	}
	mapping, err := gateway.Resolve(modelID)
	if err != nil {
		streamer.Fail(err)
		return
	}

	messages, _ := llm.Trim(req.Messages, s.cfg.Budget.ContextTokens)

	done := make(chan struct{})
	defer close(done)
	go s.pingLoop(conn, done)

	s.runStream(r, streamer, mapping.AdapterKind, modelID, messages)
}

// pingLoop keeps the connection alive while a long completion streams.
// Ping frames are control frames, so they do not interleave with the
// streamer's data frames mid-message.
func (s *Server) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
