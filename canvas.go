/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Gridparty shared canvas
//
// Every participant sees one 10x10 grid of single characters and may change
// any cell. Each accepted change is appended to a history log that clients
// can scrub through and replay locally.
//
// Features:
// - One WebSocket per participant at /ws, id assigned on connect
// - All mutations handled one at a time by a single event loop goroutine
// - History order is the order updates reach the loop, not client timestamps
// - Invalid updates are dropped silently unless --ack-rejects is set
// - Malformed payloads are always dropped silently; the socket stays open
// - Slow participants are dropped instead of stalling the broadcast
// - In-browser QR button to share the grid, backed by go-qrcode

package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/Seednode/gridparty/grid"
)

type Client struct {
	conn *websocket.Conn
	send chan any
	id   string
}

type updateRequest struct {
	client *Client
	msg    grid.ClientMessage
}

// Canvas is the broadcast coordinator. It owns the board and the session
// count; both are only touched from run.
type Canvas struct {
	cfg      *Config
	board    *grid.Board
	sessions grid.Sessions
	clients  map[*Client]bool
	metrics  *canvasMetrics

	register chan *Client
	unreg    chan *Client
	updates  chan updateRequest
	requests chan *Client
	done     chan struct{}

	// set whenever the session count moves; the new count goes out to
	// everyone once the current message is handled
	countChanged bool
}

func newCanvas(cfg *Config, board *grid.Board, metrics *canvasMetrics) *Canvas {
	return &Canvas{
		cfg:      cfg,
		board:    board,
		clients:  make(map[*Client]bool),
		metrics:  metrics,
		register: make(chan *Client),
		unreg:    make(chan *Client),
		updates:  make(chan updateRequest),
		requests: make(chan *Client),
		done:     make(chan struct{}),
	}
}

func (cv *Canvas) run(ctx context.Context) {
	defer close(cv.done)

	for {
		select {
		case c := <-cv.register:
			cv.handleConnect(c)

		case c := <-cv.unreg:
			cv.handleDisconnect(c)

		case ur := <-cv.updates:
			cv.handleUpdate(ur)

		case c := <-cv.requests:
			cv.handleHistoryRequest(c)

		case <-ctx.Done():
			cv.closeAll()
			return
		}

		for cv.countChanged {
			cv.countChanged = false
			cv.broadcast(cv.countMessage())
		}
	}
}

func (cv *Canvas) handleConnect(c *Client) {
	cv.clients[c] = true
	count := cv.sessions.Connect()
	cv.metrics.participants.Set(float64(count))

	logf(cv.cfg, "GRID: Participant %s connected (%d online)", c.id, count)

	cv.sendTo(c, grid.FullGridMessage{
		Type: grid.TypeFullGrid,
		Grid: cv.board.Snapshot(),
	})
	cv.sendTo(c, cv.historyMessage())

	cv.countChanged = true
}

func (cv *Canvas) handleDisconnect(c *Client) {
	if !cv.clients[c] {
		return
	}

	cv.drop(c)

	logf(cv.cfg, "GRID: Participant %s disconnected (%d online)", c.id, cv.sessions.Count())

	cv.countChanged = true
}

// handleUpdate validates a submitted edit and, if it is accepted, applies it
// and sends the change and the new history to everyone, sender included.
func (cv *Canvas) handleUpdate(ur updateRequest) {
	if !cv.clients[ur.client] {
		return
	}

	e, err := grid.Validate(ur.msg.Candidate(), ur.client.id)
	if err != nil {
		cv.metrics.rejected.WithLabelValues(rejectReason(err)).Inc()

		if cv.cfg.ackRejects {
			cv.sendTo(ur.client, grid.UpdateRejectedMessage{
				Type:    grid.TypeUpdateRejected,
				Message: err.Error(),
			})
		}
		return
	}

	cv.board.Accept(e)
	cv.metrics.accepted.Inc()
	cv.metrics.historyLength.Set(float64(cv.board.Len()))

	logf(cv.cfg, "GRID: Participant %s set [%d, %d] to %q", e.ParticipantID, e.Row, e.Col, e.Character)

	cv.broadcast(grid.CellChangedMessage{
		Type:  grid.TypeCellChanged,
		Event: e,
	})
	cv.broadcast(cv.historyMessage())
}

func (cv *Canvas) handleHistoryRequest(c *Client) {
	if !cv.clients[c] {
		return
	}

	cv.sendTo(c, cv.historyMessage())
}

func (cv *Canvas) historyMessage() grid.HistorySnapshotMessage {
	return grid.HistorySnapshotMessage{
		Type:    grid.TypeHistorySnapshot,
		History: cv.board.History(),
	}
}

func (cv *Canvas) countMessage() grid.ParticipantCountMessage {
	return grid.ParticipantCountMessage{
		Type:  grid.TypeParticipantCount,
		Count: cv.sessions.Count(),
	}
}

// sendTo queues msg for c without waiting. A client whose queue is full is
// dropped.
func (cv *Canvas) sendTo(c *Client, msg any) {
	if !cv.clients[c] {
		return
	}

	select {
	case c.send <- msg:
	default:
		logf(cv.cfg, "GRID: Dropping participant %s, send queue full", c.id)
		cv.metrics.dropped.Inc()
		cv.drop(c)
		cv.countChanged = true
	}
}

func (cv *Canvas) broadcast(msg any) {
	for c := range cv.clients {
		cv.sendTo(c, msg)
	}
}

func (cv *Canvas) drop(c *Client) {
	delete(cv.clients, c)
	close(c.send)
	if c.conn != nil {
		_ = c.conn.Close()
	}

	count := cv.sessions.Disconnect()
	cv.metrics.participants.Set(float64(count))
}

func (cv *Canvas) closeAll() {
	for c := range cv.clients {
		cv.drop(c)
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, grid.ErrOutOfBounds):
		return "out_of_bounds"
	case errors.Is(err, grid.ErrCharacterTooLong):
		return "character_too_long"
	default:
		return "invalid"
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func serveWS(cfg *Config, cv *Canvas) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan any, cfg.sendBuffer),
			id:   uuid.NewString(),
		}

		go client.writePump()

		select {
		case cv.register <- client:
		case <-cv.done:
			close(client.send)
			return
		}

		client.readPump(cv)
	}
}

func (c *Client) readPump(cv *Canvas) {
	defer func() {
		select {
		case cv.unreg <- c:
		case <-cv.done:
		}
		_ = c.conn.Close()
	}()

	for {
		_, r, err := c.conn.NextReader()
		if err != nil {
			return
		}

		var msg grid.ClientMessage
		if err := json.NewDecoder(r).Decode(&msg); err != nil {
			if !malformed(err) {
				return
			}
			// a bad payload is dropped like any other rejected update
			cv.metrics.rejected.WithLabelValues("malformed").Inc()
			continue
		}

		switch msg.Type {
		case grid.TypeSubmitUpdate:
			select {
			case cv.updates <- updateRequest{client: c, msg: msg}:
			case <-cv.done:
				return
			}
		case grid.TypeRequestHistory:
			select {
			case cv.requests <- c:
			case <-cv.done:
				return
			}
		default:
			// ignore unknown types
		}
	}
}

func malformed(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	return errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the grid URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../qr; strip it to get the grid page.
	path := strings.TrimSuffix(r.URL.Path, "qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// registerCanvas sets up routes so that:
//   - $prefix/      → HTML client
//   - $prefix/ws    → WebSocket for the shared grid
//   - $prefix/qr    → PNG QR code for the grid URL
func registerCanvas(cfg *Config, mux *httprouter.Router, cv *Canvas, errs chan<- error) {
	mux.GET(cfg.prefix+"/", serveIndex(cfg, errs))

	mux.GET(cfg.prefix+"/ws", serveWS(cfg, cv))

	mux.GET(cfg.prefix+"/qr", qrHandler)
}
