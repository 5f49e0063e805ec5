package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/flipper/internal/modules/display"
	"github.com/vmihailenco/msgpack/v5"
	"nhooyr.io/websocket"
)

const (
	streamBuffer       = 32
	streamWriteTimeout = 5 * time.Second
)

// frameEncoder turns an event into one WebSocket frame.
type frameEncoder func(event display.Event) (websocket.MessageType, []byte, error)

func encodeJSONFrame(event display.Event) (websocket.MessageType, []byte, error) {
	data, err := json.Marshal(event)
	return websocket.MessageText, data, err
}

// encodeMsgpackFrame reuses the json tags so both formats share field names.
func encodeMsgpackFrame(event display.Event) (websocket.MessageType, []byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(event); err != nil {
		return websocket.MessageBinary, nil, err
	}
	return websocket.MessageBinary, buf.Bytes(), nil
}

// HandleStream handles GET /api/stream[?format=msgpack]
// The first frame describes the current state, later frames follow each update.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	encode := frameEncoder(encodeJSONFrame)
	format := r.URL.Query().Get("format")
	switch format {
	case "", "json":
		format = "json"
	case "msgpack":
		encode = encodeMsgpackFrame
	default:
		h.writeError(w, http.StatusBadRequest, "format must be json or msgpack")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	state := h.loop.State()
	id, events := state.Subscribe(streamBuffer)
	defer state.Unsubscribe(id)

	// Clients never send; CloseRead cancels ctx once they hang up.
	ctx := conn.CloseRead(r.Context())
	log := h.log.With().Int("subscriber", id).Str("format", format).Logger()
	log.Debug().Msg("Stream client connected")

	view := state.Snapshot()
	initial := display.Event{
		Type:   display.EventStatus,
		Status: view.Status,
		Target: view.Target,
		Result: view.Result,
		Error:  view.LastError,
		At:     time.Now(),
	}
	if err := h.writeFrame(ctx, conn, encode, initial); err != nil {
		log.Debug().Err(err).Msg("Stream client gone")
		return
	}

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("Stream client disconnected")
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case event, ok := <-events:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := h.writeFrame(ctx, conn, encode, event); err != nil {
				log.Debug().Err(err).Msg("Stream write failed")
				return
			}
		}
	}
}

func (h *Handler) writeFrame(ctx context.Context, conn *websocket.Conn, encode frameEncoder, event display.Event) error {
	typ, data, err := encode(event)
	if err != nil {
		h.log.Error().Err(err).Str("type", event.Type).Msg("Failed to encode stream event")
		return nil
	}
	writeCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, typ, data)
}
