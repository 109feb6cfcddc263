package cgi

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("error while writing %s: %s", name, err)
	}
	return path
}

func TestInvocation(t *testing.T) {
	h := &Handler{
		Interpreter: "php-cgi",
		Env:         map[string]string{"REDIRECT_STATUS": "200", "QUERY_STRING": "ignored"},
	}

	type test struct {
		Name          string
		Script        string
		Query         string
		ExpectedQuery string
	}

	tt := []test{
		{Name: "Query", Script: "form.php", Query: "?a=1&b=2", ExpectedQuery: "a=1&b=2"},
		{Name: "No query", Script: "index.php", Query: "", ExpectedQuery: ""},
		{Name: "Bare question mark", Script: "dir/x.php", Query: "?", ExpectedQuery: ""},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			inv := h.Invocation(tc.Script, tc.Query)
			if inv.Binary != "php-cgi" {
				t.Fatalf("wrong binary - expected: %s\treceived: %s", "php-cgi", inv.Binary)
			}
			if q := inv.Env["QUERY_STRING"]; q != tc.ExpectedQuery {
				t.Fatalf("wrong QUERY_STRING - expected: %q\treceived: %q", tc.ExpectedQuery, q)
			}
			if s := inv.Env["SCRIPT_FILENAME"]; s != tc.Script {
				t.Fatalf("wrong SCRIPT_FILENAME - expected: %q\treceived: %q", tc.Script, s)
			}
			if inv.Env["REDIRECT_STATUS"] != "200" {
				t.Fatalf("extra environment was not applied: %v", inv.Env)
			}
			if inv.Env["PATH"] == "" {
				t.Fatal("PATH missing from the script environment")
			}
		})
	}
}

func TestServeScript(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts stand in for the interpreter")
	}
	dir := t.TempDir()

	echo := writeScript(t, dir, "echo.sh", `printf 'Content-type: text/plain\n\n'
printf 'query=%s\n' "$QUERY_STRING"
printf 'script=%s\n' "$SCRIPT_FILENAME"
echo oops >&2
`)
	status := writeScript(t, dir, "status.sh", `printf 'Status: 404 Not Found\r\nContent-type: text/html\r\n\r\nmissing'
`)
	failing := writeScript(t, dir, "failing.sh", `printf 'Content-type: text/plain\n\npartial'
exit 3
`)

	type test struct {
		Name           string
		Interpreter    string
		OutputHandler  OutputHandler
		Query          string
		ExpectedStatus int
		ExpectedBody   string
	}

	tt := []test{
		{
			Name:           "Raw output",
			Interpreter:    echo,
			Query:          "?a=1&b=2",
			ExpectedStatus: 200,
			ExpectedBody:   "HTTP/1.0 200 OK \nContent-type: text/plain\n\nquery=a=1&b=2\nscript=form.php\noops\n",
		},
		{
			Name:           "Status ignored by default",
			Interpreter:    status,
			ExpectedStatus: 200,
			ExpectedBody:   "HTTP/1.0 200 OK \nStatus: 404 Not Found\r\nContent-type: text/html\r\n\r\nmissing",
		},
		{
			Name:           "Status honoured",
			Interpreter:    status,
			OutputHandler:  StatusOutputHandler,
			ExpectedStatus: 404,
			ExpectedBody:   "HTTP/1.0 404 Not Found \nContent-type: text/html\r\n\r\nmissing",
		},
		{
			Name:           "Status handler without status",
			Interpreter:    echo,
			OutputHandler:  StatusOutputHandler,
			ExpectedStatus: 200,
			ExpectedBody:   "HTTP/1.0 200 OK \nContent-type: text/plain\n\nquery=\nscript=form.php\noops\n",
		},
		{
			Name:           "Non-zero exit",
			Interpreter:    failing,
			ExpectedStatus: 200,
			ExpectedBody:   "HTTP/1.0 200 OK \nContent-type: text/plain\n\npartial",
		},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			h := &Handler{Interpreter: tc.Interpreter, OutputHandler: tc.OutputHandler}
			var buf bytes.Buffer

			code, err := h.ServeScript(context.Background(), &buf, "form.php", tc.Query)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if code != tc.ExpectedStatus {
				t.Fatalf("wrong status - expected: %d\treceived: %d", tc.ExpectedStatus, code)
			}
			if buf.String() != tc.ExpectedBody {
				t.Fatalf("wrong body - expected: %q\treceived: %q", tc.ExpectedBody, buf.String())
			}
		})
	}
}

func TestServeScriptFailures(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts stand in for the interpreter")
	}
	dir := t.TempDir()
	slow := writeScript(t, dir, "slow.sh", "exec sleep 5\n")

	t.Run("Missing interpreter", func(t *testing.T) {
		h := &Handler{Interpreter: filepath.Join(dir, "does-not-exist")}
		var buf bytes.Buffer
		code, err := h.ServeScript(context.Background(), &buf, "x.php", "")
		if err == nil {
			t.Fatal("expected an error for a missing interpreter")
		}
		if code != 0 || buf.Len() != 0 {
			t.Fatalf("nothing should be written - received status %d and %q", code, buf.String())
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		h := &Handler{Interpreter: slow, Timeout: 100 * time.Millisecond}
		var buf bytes.Buffer
		start := time.Now()
		_, err := h.ServeScript(context.Background(), &buf, "x.php", "")
		if err == nil {
			t.Fatal("expected an error for a script exceeding its timeout")
		}
		if elapsed := time.Since(start); elapsed > 4*time.Second {
			t.Fatalf("timeout was not enforced, run took %s", elapsed)
		}
	})
}

func TestWaitErr(t *testing.T) {
	expired, cancel := context.WithTimeout(context.Background(), -time.Second)
	defer cancel()
	exited := &exec.ExitError{ProcessState: &os.ProcessState{}}
	broken := errors.New("pipe copy failed")

	type test struct {
		Name     string
		Ctx      context.Context
		Err      error
		Expected error
	}

	tt := []test{
		{Name: "Clean exit as the timeout fires", Ctx: expired, Err: nil, Expected: nil},
		{Name: "Killed by the timeout", Ctx: expired, Err: exited, Expected: context.DeadlineExceeded},
		{Name: "Non-zero exit", Ctx: context.Background(), Err: exited, Expected: nil},
		{Name: "Wait failure", Ctx: context.Background(), Err: broken, Expected: broken},
	}

	h := &Handler{}
	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			err := h.waitErr(tc.Ctx, "x.php", tc.Err)
			if tc.Expected == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.Expected) {
				t.Fatalf("wrong error - expected: %v\treceived: %v", tc.Expected, err)
			}
		})
	}
}
