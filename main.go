package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Sayfan-AI/ai-six-sub000/pkg/channels"
	"github.com/Sayfan-AI/ai-six-sub000/pkg/config"
	"github.com/Sayfan-AI/ai-six-sub000/pkg/engine"
	"github.com/Sayfan-AI/ai-six-sub000/pkg/gateway"
	"github.com/Sayfan-AI/ai-six-sub000/pkg/llm"
	"github.com/Sayfan-AI/ai-six-sub000/pkg/memory"
	"github.com/Sayfan-AI/ai-six-sub000/pkg/monitor"
	"github.com/Sayfan-AI/ai-six-sub000/pkg/tools"

	// Chat surfaces register themselves on import.
	_ "github.com/Sayfan-AI/ai-six-sub000/pkg/channels/telegram"
	_ "github.com/Sayfan-AI/ai-six-sub000/pkg/channels/web"

	// Model backends register themselves on import.
	_ "github.com/Sayfan-AI/ai-six-sub000/pkg/llm/anthropicllm"
	_ "github.com/Sayfan-AI/ai-six-sub000/pkg/llm/geminillm"
	_ "github.com/Sayfan-AI/ai-six-sub000/pkg/llm/ollamallm"
	_ "github.com/Sayfan-AI/ai-six-sub000/pkg/llm/openaillm"
)

func main() {
	cfg, sysCfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	monitor.SetupSlog(sysCfg.LogLevel)

	if err := run(cfg, sysCfg); err != nil {
		slog.Error("fatal", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg *config.Config, sysCfg *config.SystemConfig) error {
	client, err := llm.NewFromConfig(cfg.LLM, sysCfg.MaxRetries, time.Duration(sysCfg.RetryDelayMs)*time.Millisecond)
	if err != nil {
		return err
	}

	store, err := openStore(sysCfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sessions := engine.NewManager(func() *engine.Engine {
		registry := buildRegistry(sysCfg)
		e := engine.New(client, registry, store, sysCfg, cfg.SystemPrompt)
		if sysCfg.EnableTools {
			if err := tools.RegisterMemoryTools(registry, e.ToolManager()); err != nil {
				slog.Error("failed to register memory tools", "error", err.Error())
			}
		}
		return e
	})
	gw := gateway.New(sessions)
	defer gw.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := config.WatchConfig(func(newCfg *config.Config, newSysCfg *config.SystemConfig) {
		// A config change requires rebuilding clients and channels; the
		// simplest safe reload is a restart, so just flag it.
		slog.Warn("configuration changed on disk; restart to apply")
	})
	if err != nil {
		slog.Warn("config watcher unavailable", "error", err.Error())
	} else {
		defer watcher.Close()
	}

	if len(cfg.Channels) == 0 {
		return runREPL(ctx, gw)
	}

	chs, err := channels.Build(cfg.Channels, gw, sysCfg)
	if err != nil {
		return err
	}
	if len(chs) == 0 {
		return fmt.Errorf("no channel started successfully")
	}

	errCh := make(chan error, len(chs))
	for _, ch := range chs {
		go func(ch channels.Channel) {
			slog.Info("channel starting", "channel", ch.Name())
			errCh <- ch.Start(ctx)
		}(ch)
	}

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
		return nil
	case err := <-errCh:
		if err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	}
}

func openStore(sysCfg *config.SystemConfig) (memory.Provider, error) {
	switch sysCfg.StorageBackend {
	case "", "file":
		return memory.NewFileStore(sysCfg.MemoryDir)
	case "sqlite":
		return memory.NewSQLiteStore(sysCfg.MemoryDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", sysCfg.StorageBackend)
	}
}

func buildRegistry(sysCfg *config.SystemConfig) *tools.Registry {
	registry := tools.NewRegistry()
	if !sysCfg.EnableTools {
		return registry
	}
	for _, t := range []tools.Tool{&tools.ShellTool{}, &tools.EchoTool{}} {
		if err := registry.Register(t); err != nil {
			slog.Error("failed to register tool", "tool", t.Name(), "error", err.Error())
		}
	}
	return registry
}

// runREPL is the interactive console surface used when no channels are
// configured.
func runREPL(ctx context.Context, gw *gateway.Gateway) error {
	session := gateway.SessionContext{Channel: "cli", SessionKey: "local"}

	fmt.Println("Type a message and press enter. Ctrl-D or /quit to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}

		reply, err := gw.Dispatch(ctx, session, line)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		fmt.Println(reply)
		if saveErr := gw.Engine(session).LastSaveError(); saveErr != nil {
			fmt.Printf("warning: conversation not saved: %v\n", saveErr)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}
