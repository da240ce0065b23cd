package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ShellTool runs a shell command and returns its combined output.
type ShellTool struct{}

func (t *ShellTool) Name() string {
	return "shell"
}

func (t *ShellTool) Description() string {
	return "Execute a shell command on the host and return its output. Use for file inspection, system queries, and scripting."
}

func (t *ShellTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The shell command to execute",
			},
		},
		"required": []string{"command"},
	}
}

func (t *ShellTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	command, ok := args["command"].(string)
	if !ok || strings.TrimSpace(command) == "" {
		return "", fmt.Errorf("missing required argument 'command'")
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	output, err := cmd.CombinedOutput()
	if err != nil {
		// Command failures carry their output; the model needs both.
		return "", fmt.Errorf("command failed: %v\n%s", err, string(output))
	}
	return string(output), nil
}
