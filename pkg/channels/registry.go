// Package channels wires chat surfaces (Telegram, web) to the gateway.
package channels

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/Sayfan-AI/ai-six-sub000/pkg/config"
	"github.com/Sayfan-AI/ai-six-sub000/pkg/gateway"
)

// Channel is one running chat surface. Start blocks until the context is
// cancelled or the surface fails.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
}

// Factory builds a channel from its raw config block.
type Factory func(raw jsoniter.RawMessage, gw *gateway.Gateway, sysCfg *config.SystemConfig) (Channel, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a channel factory available under the given name.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("channels: %q registered twice", name))
	}
	registry[name] = factory
}

// Build constructs every channel named in the config. Unknown names are an
// error; a known channel whose factory fails is skipped with a log entry so
// one bad token does not take down the rest.
func Build(cfg map[string]jsoniter.RawMessage, gw *gateway.Gateway, sysCfg *config.SystemConfig) ([]Channel, error) {
	chs := make([]Channel, 0, len(cfg))
	for name, raw := range cfg {
		registryMu.RLock()
		factory, ok := registry[name]
		registryMu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("unknown channel %q", name)
		}
		ch, err := factory(raw, gw, sysCfg)
		if err != nil {
			slog.Error("channel failed to initialize, skipping", "channel", name, "error", err.Error())
			continue
		}
		chs = append(chs, ch)
	}
	return chs, nil
}
