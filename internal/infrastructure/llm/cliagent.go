package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Instruction prepended to every prompt so the agent behaves as a pure text
// generator instead of reaching for its tools.
const textOnlyInstruction = "IMPORTANT: You are being used as a text generation engine. " +
	"Do NOT use any tools (no file reads, writes, bash, web search, etc). " +
	"Do NOT create files. Just output the requested text directly in your response.\n\n"

const defaultCLITimeout = 10 * time.Minute

// Environment variables that make a nested agent invocation believe it is
// already running inside an agent session.
var nestedSessionEnv = []string{"CLAUDECODE", "CLAUDE_CODE"}

var (
	openTagRe  = regexp.MustCompile(`<(p|h[1-6]|div|article|ul|ol)\b`)
	closeTagRe = regexp.MustCompile(`</(p|h[1-6]|div|article|ul|ol)>`)
)

// cliAgentBackend spawns an external command-line agent per exchange. The CLI
// authenticates through its own session; no API key is involved here.
type cliAgentBackend struct {
	command string
	kind    string
	timeout time.Duration
	logger  *slog.Logger
}

func newCLIAgentBackend(command string, logger *slog.Logger) *cliAgentBackend {
	return &cliAgentBackend{
		command: command,
		kind:    detectCLIKind(command),
		timeout: defaultCLITimeout,
		logger:  logger,
	}
}

func detectCLIKind(command string) string {
	switch strings.ToLower(filepath.Base(command)) {
	case "claude", "claude-code":
		return "claude"
	default:
		return "agent"
	}
}

func (b *cliAgentBackend) buildArgs(prompt, system string) []string {
	prompt = textOnlyInstruction + prompt

	if b.kind == "claude" {
		args := []string{"-p", prompt, "--output-format", "json", "--allowedTools", ""}
		if system != "" {
			args = append(args, "--append-system-prompt", system)
		}
		return args
	}

	// Agent-style CLIs have no system prompt flag; fold it into the prompt.
	if system != "" {
		prompt = fmt.Sprintf("<context>\n%s\n</context>\n\n%s", system, prompt)
	}
	return []string{"-p", prompt, "--output-format", "json", "--trust", "--force"}
}

func (b *cliAgentBackend) chat(ctx context.Context, system, user string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, b.command, b.buildArgs(user, system)...)
	// Non-interactive: stdin stays closed (/dev/null).
	cmd.Stdin = nil
	cmd.Env = cleanEnv(os.Environ())

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	b.logger.Debug("spawning cli agent", "command", b.command, "kind", b.kind)
	runErr := cmd.Run()

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("cli agent timed out after %s", b.timeout)
	}

	out := strings.TrimSpace(stdout.String())

	var parsed map[string]any
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		// Not JSON: a clean exit still counts, raw stdout is the answer.
		if runErr != nil {
			return "", fmt.Errorf("cli agent failed: %w: %s", runErr, truncate(stderr.String(), 500))
		}
		return out, nil
	}

	if result, ok := parsed["result"].(string); ok {
		return result, nil
	}
	if blocks, ok := parsed["content"].([]any); ok {
		var texts []string
		for _, raw := range blocks {
			block, ok := raw.(map[string]any)
			if !ok || block["type"] != "text" {
				continue
			}
			if text, ok := block["text"].(string); ok {
				texts = append(texts, text)
			}
		}
		if len(texts) > 0 {
			return strings.Join(texts, "\n"), nil
		}
	}
	return out, nil
}

// cleanBody strips markdown fencing and any preamble/postamble text outside
// the first-to-last recognized HTML tag span.
func (b *cliAgentBackend) cleanBody(text string) string {
	text = strings.TrimSpace(text)

	if idx := strings.Index(text, "```html"); idx != -1 {
		text = text[idx+len("```html"):]
		if end := strings.Index(text, "```"); end != -1 {
			text = text[:end]
		}
	} else if strings.Contains(text, "```") && strings.Contains(text, "<") {
		for _, part := range strings.Split(text, "```") {
			if strings.Contains(part, "<p>") || strings.Contains(part, "<h2>") {
				text = part
				break
			}
		}
	}
	text = strings.TrimSpace(text)

	if loc := openTagRe.FindStringIndex(text); loc != nil && loc[0] > 0 {
		text = text[loc[0]:]
	}

	if locs := closeTagRe.FindAllStringIndex(text, -1); len(locs) > 0 {
		lastClose := locs[len(locs)-1][1]
		if lastClose < len(text) && !strings.Contains(text[lastClose:], "<") {
			text = text[:lastClose]
		}
	}

	return strings.TrimSpace(text)
}

// cleanEnv drops the variables that would make a nested invocation detect an
// enclosing agent session.
func cleanEnv(env []string) []string {
	out := make([]string, 0, len(env))
	for _, kv := range env {
		skip := false
		for _, name := range nestedSessionEnv {
			if strings.HasPrefix(kv, name+"=") {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, kv)
		}
	}
	return out
}
