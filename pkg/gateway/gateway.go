// Package gateway routes messages from chat surfaces to per-session engines.
package gateway

import (
	"context"
	"log/slog"

	"github.com/Sayfan-AI/ai-six-sub000/pkg/engine"
	"github.com/Sayfan-AI/ai-six-sub000/pkg/monitor"
)

// SessionContext identifies where an inbound message came from.
type SessionContext struct {
	// Channel is the surface name, e.g. "telegram" or "web".
	Channel string
	// SessionKey uniquely identifies one user on that surface.
	SessionKey string
}

// Gateway owns the session manager and hands each inbound message to the
// right engine.
type Gateway struct {
	sessions *engine.Manager
}

// New creates a gateway over the given session manager.
func New(sessions *engine.Manager) *Gateway {
	return &Gateway{sessions: sessions}
}

// Dispatch routes one user message to its session engine and returns the
// assistant reply.
func (g *Gateway) Dispatch(ctx context.Context, session SessionContext, text string) (string, error) {
	key := session.Channel + ":" + session.SessionKey
	e := g.sessions.Get(key)
	ctx = context.WithValue(ctx, monitor.ConversationIDContextKey, e.ConversationID())

	slog.Debug("dispatching message", "channel", session.Channel, "session", session.SessionKey)
	reply, err := e.SendMessage(ctx, text)
	if err != nil {
		slog.Error("turn failed", "channel", session.Channel, "session", session.SessionKey, "error", err.Error())
		return "", err
	}
	return reply, nil
}

// Engine returns the engine backing a session, creating it if needed.
func (g *Gateway) Engine(session SessionContext) *engine.Engine {
	return g.sessions.Get(session.Channel + ":" + session.SessionKey)
}

// Remove flushes and forgets one session. Surfaces with per-connection
// sessions must call this when the connection ends or their engines pile
// up in the manager.
func (g *Gateway) Remove(session SessionContext) {
	g.sessions.Remove(session.Channel + ":" + session.SessionKey)
}

// Close flushes all sessions.
func (g *Gateway) Close() {
	g.sessions.CloseAll()
}
