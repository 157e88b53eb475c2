package okx

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	icache "PulseGate/internal/service/cache"
	xlogger "PulseGate/pkg/logger"

	"github.com/gorilla/websocket"
)

const warmPriceTTL = 10 * time.Second

// Stream keeps a live last-trade-price warm cache fed by the OKX public
// websocket. The ingestor consults it before issuing a REST ticker call;
// a value older than warmPriceTTL is treated as absent.
type Stream struct {
	url            string
	instIDs        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	logger         *xlogger.Logger

	cache *icache.TTLCache

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// NewStream creates a ticker stream for the given instruments.
func NewStream(url string, instIDs []string, reconnectDelay, pingInterval time.Duration, logger *xlogger.Logger) *Stream {
	return &Stream{
		url:            url,
		instIDs:        instIDs,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		logger:         logger,
		cache:          icache.NewTTLCache(),
	}
}

// LastPrice returns the most recent streamed price for an instrument.
func (s *Stream) LastPrice(instID string) (float64, bool) {
	v, ok := s.cache.Get(instID)
	if !ok {
		return 0, false
	}
	p, ok := v.(float64)
	return p, ok
}

// Run connects, subscribes and pumps ticker frames into the warm cache
// until the context is cancelled. Reconnects on read errors.
func (s *Stream) Run(ctx context.Context) {
	for {
		if err := s.connectAndSubscribe(ctx); err != nil {
			s.logger.Warn("okx stream connect failed", xlogger.Error(err))
		} else {
			s.readLoop(ctx)
		}

		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-time.After(s.reconnectDelay):
		}
	}
}

func (s *Stream) connectAndSubscribe(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("okx ws dial: %w", err)
	}

	args := make([]map[string]string, 0, len(s.instIDs))
	for _, id := range s.instIDs {
		args = append(args, map[string]string{"channel": "tickers", "instId": id})
	}
	sub := map[string]interface{}{"op": "subscribe", "args": args}
	if err := conn.WriteJSON(sub); err != nil {
		_ = conn.Close()
		return fmt.Errorf("okx ws subscribe: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()

	s.logger.Info("okx stream connected", xlogger.Int("instruments", len(s.instIDs)))
	return nil
}

type wsTickerFrame struct {
	Arg struct {
		Channel string `json:"channel"`
		InstID  string `json:"instId"`
	} `json:"arg"`
	Data []struct {
		Last string `json:"last"`
	} `json:"data"`
}

func (s *Stream) readLoop(ctx context.Context) {
	pingDone := make(chan struct{})
	go s.pingLoop(ctx, pingDone)
	defer close(pingDone)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn == nil {
			return
		}

		_, b, err := conn.ReadMessage()
		if err != nil {
			s.logger.Warn("okx stream read error", xlogger.Error(err))
			s.Close()
			return
		}

		var frame wsTickerFrame
		if err := json.Unmarshal(b, &frame); err != nil {
			// event/pong frames
			continue
		}
		if frame.Arg.Channel != "tickers" || len(frame.Data) == 0 {
			continue
		}
		if p, err := strconv.ParseFloat(frame.Data[0].Last, 64); err == nil {
			s.cache.Set(frame.Arg.InstID, p, warmPriceTTL)
		}
	}
}

func (s *Stream) pingLoop(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			s.mu.Lock()
			conn := s.conn
			s.mu.Unlock()
			if conn != nil {
				_ = conn.WriteMessage(websocket.TextMessage, []byte("ping"))
			}
		}
	}
}

// Close closes the connection.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}
