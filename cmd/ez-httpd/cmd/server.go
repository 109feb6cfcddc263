package cmd

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	httpd "github.com/raphaelreyna/ez-httpd"
	"github.com/raphaelreyna/ez-httpd/cgi"
	"github.com/raphaelreyna/ez-httpd/internal/status"
)

const (
	defaultHost = "127.0.0.1"
	defaultPort = "80"
)

// newServer builds the server described by the command line flags.
func newServer(addr string, logger zerolog.Logger) (*httpd.Server, error) {
	env, err := parseEnv(envVars)
	if err != nil {
		return nil, err
	}

	handler := &cgi.Handler{
		Interpreter: interpreter,
		InheritEnv:  inheritEnv,
		Env:         env,
		Timeout:     scriptTimeout,
		Logger:      logger,
	}
	if cgiStatus {
		handler.OutputHandler = cgi.StatusOutputHandler
	}

	return &httpd.Server{
		Addr:            addr,
		Resolver:        &httpd.Resolver{Root: root, Confine: confine},
		CGI:             handler,
		Logger:          logger,
		Stats:           status.NewStats(),
		ShutdownTimeout: shutdownTimeout,
	}, nil
}

// bindAddress turns the optional [server][:port] argument into a listen address.
func bindAddress(args []string) (string, error) {
	host, port := defaultHost, defaultPort
	if len(args) > 0 {
		arg := args[0]
		h, p, found := strings.Cut(arg, ":")
		if h != "" {
			host = h
		}
		if found && p != "" {
			port = p
		}
	}

	if ip := net.ParseIP(host); ip == nil || ip.To4() == nil {
		return "", fmt.Errorf("invalid server address %q: must be an IPv4 address", host)
	}
	if p, err := strconv.Atoi(port); err != nil || p < 1 || p > 65535 {
		return "", fmt.Errorf("invalid port %q: must be between 1 and 65535", port)
	}
	return net.JoinHostPort(host, port), nil
}

func parseEnv(vars []string) (map[string]string, error) {
	env := make(map[string]string, len(vars))
	for _, v := range vars {
		k, val, ok := strings.Cut(v, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid environment variable %q: must be in the form 'KEY=VALUE'", v)
		}
		env[k] = val
	}
	return env, nil
}
