package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/LeJamon/restaked/internal/core/events"
)

const (
	streamBuffer     = 256
	streamPingPeriod = 30 * time.Second
	streamPongWait   = 2 * streamPingPeriod
	streamWriteWait  = 10 * time.Second
	streamPageSize   = 500
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleEventStream upgrades to a WebSocket and sends every journal record
// with seq >= from as a JSON text message: first the stored backlog, then
// live records as they are appended. A client that falls more than
// streamBuffer records behind is disconnected and should reconnect with
// from set past the last record it saw.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Journal == nil {
		s.writeError(w, http.StatusNotImplemented, errors.New("event journal disabled"))
		return
	}
	var from uint64
	if raw := r.URL.Query().Get("from"); raw != "" {
		var err error
		if from, err = strconv.ParseUint(raw, 10, 64); err != nil {
			s.writeError(w, http.StatusBadRequest, errors.New("invalid from"))
			return
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("server: websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Subscribe before reading the backlog so nothing appended in between
	// is lost; duplicates are filtered by sequence.
	live := make(chan events.Record, streamBuffer)
	overflow := make(chan struct{})
	unsubscribe := s.cfg.Journal.Subscribe(func(recs []events.Record) {
		for _, rec := range recs {
			select {
			case live <- rec:
			default:
				select {
				case <-overflow:
				default:
					close(overflow)
				}
				return
			}
		}
	})
	defer unsubscribe()

	go drainReads(conn, cancel)

	next, err := s.sendBacklog(ctx, conn, from)
	if err != nil {
		s.log.Debug("server: event stream closed", "error", err)
		return
	}

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-overflow:
			msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "subscriber too slow")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(streamWriteWait))
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		case rec := <-live:
			if rec.Seq < next {
				continue
			}
			if err := writeRecord(conn, rec); err != nil {
				return
			}
			next = rec.Seq + 1
		}
	}
}

// sendBacklog writes stored records from seq onwards and returns the next
// sequence the client expects.
func (s *Server) sendBacklog(ctx context.Context, conn *websocket.Conn, from uint64) (uint64, error) {
	next := max(from, 1)
	for {
		page, err := s.cfg.Journal.List(ctx, next, streamPageSize)
		if err != nil {
			return next, err
		}
		for _, rec := range page {
			if err := writeRecord(conn, rec); err != nil {
				return next, err
			}
			next = rec.Seq + 1
		}
		if len(page) < streamPageSize {
			return next, nil
		}
	}
}

func writeRecord(conn *websocket.Conn, rec events.Record) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(rec)
}

// drainReads discards client messages so control frames are processed, and
// cancels the stream once the client goes away.
func drainReads(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
