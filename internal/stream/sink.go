package stream

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// NDJSONSink writes events as newline-delimited JSON. When the writer
// supports http.Flusher each event is flushed immediately so the caller
// sees tokens as they arrive, not at response end.
type NDJSONSink struct {
	w   io.Writer
	enc *json.Encoder
}

// NewNDJSONSink wraps an io.Writer, typically an http.ResponseWriter.
func NewNDJSONSink(w io.Writer) *NDJSONSink {
	return &NDJSONSink{w: w, enc: json.NewEncoder(w)}
}

func (s *NDJSONSink) WriteEvent(ev *Event) error {
	if err := s.enc.Encode(ev); err != nil {
		return err
	}
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

// writeWait bounds how long a single websocket write may block before
// the connection is considered dead.
const writeWait = 10 * time.Second

// WSSink delivers events over a websocket connection as JSON text
// frames.
type WSSink struct {
	conn *websocket.Conn
}

// NewWSSink wraps an upgraded websocket connection.
func NewWSSink(conn *websocket.Conn) *WSSink {
	return &WSSink{conn: conn}
}

func (s *WSSink) WriteEvent(ev *Event) error {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(ev)
}
