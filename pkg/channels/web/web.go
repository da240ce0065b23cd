// Package web serves a WebSocket chat surface.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"github.com/Sayfan-AI/ai-six-sub000/pkg/channels"
	"github.com/Sayfan-AI/ai-six-sub000/pkg/config"
	"github.com/Sayfan-AI/ai-six-sub000/pkg/gateway"
	"github.com/Sayfan-AI/ai-six-sub000/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config is the "web" channel block.
type Config struct {
	// Listen is the HTTP listen address, e.g. ":8080".
	Listen string `json:"listen"`
}

// inbound and outbound are the JSON frames exchanged over the socket.
type inbound struct {
	Text string `json:"text"`
}

type outbound struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Channel serves a WebSocket endpoint at /ws. Each connection is its own
// session.
type Channel struct {
	listen   string
	gw       *gateway.Gateway
	upgrader websocket.Upgrader
}

func New(cfg Config, gw *gateway.Gateway) *Channel {
	return &Channel{
		listen: cfg.Listen,
		gw:     gw,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

func (c *Channel) Name() string {
	return "web"
}

// Start serves until the context is cancelled.
func (c *Channel) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		c.serveConn(ctx, w, r)
	})

	server := &http.Server{Addr: c.listen, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	slog.Info("web channel listening", "addr", c.listen)
	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return ctx.Err()
	}
	return err
}

func (c *Channel) serveConn(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err.Error())
		return
	}
	defer conn.Close()

	session := gateway.SessionContext{
		Channel:    c.Name(),
		SessionKey: utils.GenerateID(),
	}
	// Each connection keys its own session, so release it when the
	// connection goes away or engines accumulate forever.
	defer c.gw.Remove(session)
	slog.Info("web session opened", "session", session.SessionKey, "remote", r.RemoteAddr)

	for {
		var in inbound
		if err := readJSON(conn, &in); err != nil {
			slog.Debug("web session closed", "session", session.SessionKey, "error", err.Error())
			return
		}
		if in.Text == "" {
			continue
		}

		reply, err := c.gw.Dispatch(ctx, session, in.Text)
		out := outbound{Type: "reply", Text: reply}
		if err != nil {
			out = outbound{Type: "error", Text: "Sorry, something went wrong processing your message."}
		}
		if err := writeJSON(conn, out); err != nil {
			slog.Warn("failed to write websocket frame", "session", session.SessionKey, "error", err.Error())
			return
		}
	}
}

func readJSON(conn *websocket.Conn, v any) error {
	_, data, err := conn.ReadMessage()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func writeJSON(conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func init() {
	channels.Register("web", func(raw jsoniter.RawMessage, gw *gateway.Gateway, sysCfg *config.SystemConfig) (channels.Channel, error) {
		var cfg Config
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("invalid web config: %w", err)
		}
		if cfg.Listen == "" {
			cfg.Listen = ":8080"
		}
		return New(cfg, gw), nil
	})
}
