// Package cgi runs scripts through an external CGI interpreter and relays what it prints.
package cgi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultInterpreter is looked up on PATH when Handler.Interpreter is empty.
const DefaultInterpreter = "php-cgi"

// waitDelay bounds how long a cancelled run may keep its output pipe open through grandchildren.
const waitDelay = 2 * time.Second

var osDefaultInheritEnv = map[string][]string{
	"darwin":  {"DYLD_LIBRARY_PATH"},
	"freebsd": {"LD_LIBRARY_PATH"},
	"linux":   {"LD_LIBRARY_PATH"},
	"openbsd": {"LD_LIBRARY_PATH"},
	"solaris": {"LD_LIBRARY_PATH", "LD_LIBRARY_PATH_32", "LD_LIBRARY_PATH_64"},
	"windows": {"SystemRoot", "COMSPEC", "PATHEXT", "WINDIR"},
}

// Invocation is one fully described interpreter run.
// Env holds the complete environment of the child; nothing is taken from the parent implicitly.
type Invocation struct {
	Binary string
	Args   []string
	Dir    string
	Env    map[string]string
}

// Environ renders Env as sorted KEY=VALUE pairs.
func (inv *Invocation) Environ() []string {
	env := make([]string, 0, len(inv.Env))
	for k, v := range inv.Env {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env
}

// Handler runs scripts with an interpreter in a subprocess.
type Handler struct {
	// Interpreter is the binary to execute, DefaultInterpreter if empty.
	Interpreter string
	Args        []string

	// Dir is the working directory of the interpreter; the server's when empty.
	Dir string

	// InheritEnv names parent environment variables passed through to the script,
	// on top of PATH and the OS defaults.
	InheritEnv []string
	// Env is added to every invocation and may not override QUERY_STRING or SCRIPT_FILENAME.
	Env map[string]string

	// Timeout bounds a single run. Zero means the script may run forever.
	Timeout time.Duration

	// OutputHandler writes the response for a captured run, EZOutputHandler if nil.
	OutputHandler OutputHandler

	Logger zerolog.Logger
}

// Invocation builds the run description for a script.
// query is the raw query component including its leading '?', or empty.
func (h *Handler) Invocation(script, query string) *Invocation {
	bin := h.Interpreter
	if bin == "" {
		bin = DefaultInterpreter
	}

	env := make(map[string]string, len(h.Env)+4)

	envPath := os.Getenv("PATH")
	if envPath == "" {
		envPath = "/bin:/usr/bin:/usr/ucb:/usr/bsd:/usr/local/bin"
	}
	env["PATH"] = envPath

	inherit := append([]string(nil), osDefaultInheritEnv[runtime.GOOS]...)
	for _, e := range append(inherit, h.InheritEnv...) {
		if v := os.Getenv(e); v != "" {
			env[e] = v
		}
	}
	for k, v := range h.Env {
		env[k] = v
	}

	env["QUERY_STRING"] = strings.TrimPrefix(query, "?")
	env["SCRIPT_FILENAME"] = script

	return &Invocation{
		Binary: bin,
		Args:   append([]string(nil), h.Args...),
		Dir:    h.Dir,
		Env:    env,
	}
}

// Run executes inv and returns everything it wrote to stdout and stderr, interleaved.
// A script exiting with a non-zero status is not an error: its output is still the response.
func (h *Handler) Run(ctx context.Context, inv *Invocation) ([]byte, error) {
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	path, err := exec.LookPath(inv.Binary)
	if err != nil {
		return nil, fmt.Errorf("cgi: interpreter %q: %w", inv.Binary, err)
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, path, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Env = inv.Environ()
	// The same writer on both streams makes exec share a single pipe.
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = waitDelay

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("cgi: start %s: %w", path, err)
	}
	return out.Bytes(), h.waitErr(ctx, inv.Env["SCRIPT_FILENAME"], cmd.Wait())
}

// waitErr decides what a finished run of script amounts to. ctx is only blamed when Wait failed,
// so a script that exits cleanly as the timeout fires keeps its output.
func (h *Handler) waitErr(ctx context.Context, script string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("cgi: %s: %w", script, ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		h.Logger.Debug().
			Str("script", script).
			Int("exit", exitErr.ExitCode()).
			Msg("cgi: script exited with non-zero status")
		return nil
	}
	return fmt.Errorf("cgi: wait: %w", err)
}

// ServeScript runs script and writes the response for its output to w.
// The returned status code is the one put on the wire, 0 if nothing was written.
func (h *Handler) ServeScript(ctx context.Context, w io.Writer, script, query string) (int, error) {
	inv := h.Invocation(script, query)
	h.Logger.Debug().
		Str("interpreter", inv.Binary).
		Str("script", script).
		Str("query", inv.Env["QUERY_STRING"]).
		Msg("cgi: run")

	output, err := h.Run(ctx, inv)
	if err != nil {
		return 0, err
	}

	oh := h.OutputHandler
	if oh == nil {
		oh = EZOutputHandler
	}
	return oh(w, h, output)
}
