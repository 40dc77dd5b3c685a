// Package server exposes the simulator over WebSocket: live trades, book
// depth snapshots and candle history, plus a Prometheus metrics endpoint.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/marketgrid/exchange-sim/marketdata"
	"github.com/marketgrid/exchange-sim/matching"
)

const (
	writeTimeout   = 10 * time.Second
	pongTimeout    = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// Config holds server settings.
type Config struct {
	Addr string
	// DepthInterval is the period between book depth broadcasts.
	DepthInterval time.Duration
	// Depth is the number of levels per side in a depth snapshot.
	Depth int
}

// Message is the envelope for every frame sent to clients.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// DepthSnapshot carries the top of the book for both sides.
type DepthSnapshot struct {
	Symbol string       `json:"symbol"`
	Bids   []DepthLevel `json:"bids"`
	Asks   []DepthLevel `json:"asks"`
}

// DepthLevel is one aggregated price level of a snapshot.
type DepthLevel struct {
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

// TradeUpdate is the wire form of one executed trade.
type TradeUpdate struct {
	Symbol      string  `json:"symbol"`
	BuyOrderID  uint64  `json:"buyOrderId"`
	SellOrderID uint64  `json:"sellOrderId"`
	Price       float64 `json:"price"`
	Quantity    float64 `json:"quantity"`
	Timestamp   int64   `json:"timestamp"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server is a WebSocket hub broadcasting market data to all connected
// clients and serving candle history on request.
type Server struct {
	symbol  string
	book    *matching.OrderBook
	candles *marketdata.CandleManager
	logger  *zap.Logger
	cfg     Config

	clientsMu sync.Mutex
	clients   map[*client]bool

	register   chan *client
	unregister chan *client
	broadcast  chan []byte

	metrics *metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type client struct {
	id     string
	conn   *websocket.Conn
	server *Server
	send   chan []byte

	closeMu sync.Mutex
	closed  bool
}

// close shuts the send channel down. Only the hub calls it; closeMu orders
// the close against trySend so request handlers never write a closed channel.
func (c *client) close() {
	c.closeMu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.closeMu.Unlock()
}

// trySend queues a frame for the write pump without blocking. Returns false
// when the client is closed or its buffer is full.
func (c *client) trySend(data []byte) bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// New creates a server around the live book and candle manager, registering
// its metrics with the given registry.
func New(symbol string, book *matching.OrderBook, candles *marketdata.CandleManager, reg *prometheus.Registry, logger *zap.Logger, cfg Config) *Server {
	if cfg.Depth <= 0 {
		cfg.Depth = matching.DefaultDepth
	}
	if cfg.DepthInterval <= 0 {
		cfg.DepthInterval = 250 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		symbol:     symbol,
		book:       book,
		candles:    candles,
		logger:     logger,
		cfg:        cfg,
		clients:    make(map[*client]bool),
		register:   make(chan *client, 16),
		unregister: make(chan *client, 16),
		broadcast:  make(chan []byte, 1024),
		metrics:    newMetrics(reg),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Handler returns the HTTP mux with the /ws, /metrics and /health routes.
func (s *Server) Handler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start launches the hub and depth broadcast goroutines. Use it directly when
// the Handler is served through an external listener; Run calls it itself.
func (s *Server) Start() {
	s.wg.Add(2)
	go s.runHub()
	go s.runDepthTicker()
}

// Run starts the hub and serves HTTP until the server is stopped.
func (s *Server) Run(reg *prometheus.Registry) error {
	s.Start()

	httpServer := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(reg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		<-s.ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	s.logger.Info("server listening", zap.String("addr", s.cfg.Addr))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the hub down and waits for its goroutines.
func (s *Server) Stop() {
	s.cancel()
	s.wg.Wait()
}

// OnTrade broadcasts an executed trade. Registered as an engine callback.
func (s *Server) OnTrade(trade matching.Trade) {
	s.metrics.trades.Inc()
	s.metrics.tradedUnits.Add(trade.Quantity.Float64())

	s.send(Message{
		Type: "trade",
		Data: TradeUpdate{
			Symbol:      s.symbol,
			BuyOrderID:  trade.BuyOrderID,
			SellOrderID: trade.SellOrderID,
			Price:       trade.Price.Float64(),
			Quantity:    trade.Quantity.Float64(),
			Timestamp:   trade.Timestamp.UnixMilli(),
		},
		Timestamp: time.Now().UnixMilli(),
	})
}

// BroadcastCandle sends a completed candle to all clients.
func (s *Server) BroadcastCandle(candle marketdata.CompletedCandle) {
	s.send(Message{
		Type:      "candle",
		Data:      candle,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *Server) send(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("marshal broadcast", zap.Error(err))
		return
	}
	select {
	case s.broadcast <- data:
	default:
		// Drop the frame rather than stall the matching loop.
	}
}

func (s *Server) runHub() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			s.clientsMu.Lock()
			for c := range s.clients {
				c.close()
			}
			s.clients = make(map[*client]bool)
			s.clientsMu.Unlock()
			return

		case c := <-s.register:
			s.clientsMu.Lock()
			s.clients[c] = true
			count := len(s.clients)
			s.clientsMu.Unlock()
			s.metrics.clients.Set(float64(count))
			s.logger.Debug("client connected", zap.String("id", c.id), zap.Int("total", count))

		case c := <-s.unregister:
			s.clientsMu.Lock()
			if _, ok := s.clients[c]; ok {
				delete(s.clients, c)
				c.close()
			}
			count := len(s.clients)
			s.clientsMu.Unlock()
			s.metrics.clients.Set(float64(count))
			s.logger.Debug("client disconnected", zap.String("id", c.id), zap.Int("total", count))

		case data := <-s.broadcast:
			s.clientsMu.Lock()
			for c := range s.clients {
				if c.trySend(data) {
					s.metrics.messagesOut.Inc()
				} else {
					delete(s.clients, c)
					c.close()
				}
			}
			s.clientsMu.Unlock()
		}
	}
}

func (s *Server) runDepthTicker() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.DepthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.send(Message{
				Type:      "depth",
				Data:      s.depthSnapshot(),
				Timestamp: time.Now().UnixMilli(),
			})
		}
	}
}

func (s *Server) depthSnapshot() DepthSnapshot {
	return DepthSnapshot{
		Symbol: s.symbol,
		Bids:   toDepthLevels(s.book.TopBids(s.cfg.Depth)),
		Asks:   toDepthLevels(s.book.TopAsks(s.cfg.Depth)),
	}
}

func toDepthLevels(levels []matching.BookLevel) []DepthLevel {
	out := make([]DepthLevel, len(levels))
	for i, level := range levels {
		out[i] = DepthLevel{
			Price:  level.Price.Float64(),
			Volume: level.Volume.Float64(),
		}
	}
	return out
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		id:     uuid.NewString(),
		conn:   conn,
		server: s,
		send:   make(chan []byte, sendBuffer),
	}
	s.register <- c

	go c.writePump()
	go c.readPump()

	c.sendMessage(Message{
		Type:      "welcome",
		Data:      map[string]interface{}{"id": c.id, "symbol": s.symbol},
		Timestamp: time.Now().UnixMilli(),
	})
	c.sendMessage(Message{
		Type:      "depth",
		Data:      s.depthSnapshot(),
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.clientsMu.Lock()
	count := len(s.clients)
	s.clientsMu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"clients": count,
	})
}

func (c *client) readPump() {
	defer func() {
		c.server.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		var raw json.RawMessage
		if err := c.conn.ReadJSON(&raw); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.logger.Debug("websocket read error", zap.String("id", c.id), zap.Error(err))
			}
			return
		}
		c.handleMessage(raw)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type clientRequest struct {
	Type      string `json:"type"`
	Timeframe int    `json:"timeframe"`
}

func (c *client) handleMessage(raw json.RawMessage) {
	var req clientRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.sendError("invalid message")
		return
	}

	switch req.Type {
	case "ping":
		c.sendMessage(Message{Type: "pong", Timestamp: time.Now().UnixMilli()})
	case "candles":
		c.sendCandles(req.Timeframe)
	default:
		c.sendError("unknown message type: " + req.Type)
	}
}

func (c *client) sendCandles(timeframe int) {
	if timeframe == 0 {
		timeframe = marketdata.Timeframes[0]
	}
	history := c.server.candles.Cached(timeframe)
	if current, ok := c.server.candles.Current(timeframe); ok {
		history = append(history, current)
	}
	c.sendMessage(Message{
		Type: "candles",
		Data: map[string]interface{}{
			"timeframe": timeframe,
			"candles":   history,
		},
		Timestamp: time.Now().UnixMilli(),
	})
}

func (c *client) sendMessage(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.server.logger.Error("marshal message", zap.Error(err))
		return
	}
	if c.trySend(data) {
		c.server.metrics.messagesOut.Inc()
	}
}

func (c *client) sendError(text string) {
	c.sendMessage(Message{
		Type:      "error",
		Data:      map[string]interface{}{"message": text},
		Timestamp: time.Now().UnixMilli(),
	})
}
