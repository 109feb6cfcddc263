// Package httpd is a small HTTP/1.0 server for static files and CGI scripts.
//
// Every accepted connection carries exactly one request. It is read up to the first blank line,
// answered from the document root (html, htm, jpg, gif and png files are sent as they are, php
// files go through a CGI interpreter) and closed.
package httpd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/raphaelreyna/ez-httpd/cgi"
	"github.com/raphaelreyna/ez-httpd/internal/status"
)

// DefaultAddr is used when Server.Addr is empty.
const DefaultAddr = "127.0.0.1:80"

// DefaultShutdownTimeout is how long the command line server lets open connections drain.
const DefaultShutdownTimeout = 5 * time.Second

type Server struct {
	Addr string

	// Resolver maps targets to files, rooted at the working directory if nil.
	Resolver *Resolver
	// CGI runs php targets, php-cgi with default settings if nil.
	CGI *cgi.Handler

	Logger zerolog.Logger
	Stats  *status.Stats

	// ShutdownTimeout bounds how long Serve waits for open connections once its context is done.
	// Connections still open after it are cut and their scripts killed. Zero cuts them at once.
	ShutdownTimeout time.Duration

	wg sync.WaitGroup
}

// ListenAndServe listens on s.Addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("httpd: listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln and answers each one on its own goroutine. The accept loop never
// waits for a worker.
//
// When ctx is done the listener is closed, in-flight connections get up to ShutdownTimeout to
// finish and ErrServerClosed is returned. Any other accept failure stops the server and is
// returned as is; workers still running are left to complete.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	// Workers outlive cancellation so they can drain. Cancelling workerCtx cuts them.
	workerCtx, cut := context.WithCancel(context.WithoutCancel(ctx))

	s.Logger.Info().Str("addr", ln.Addr().String()).Msg("listening")
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.drain(cut)
				return ErrServerClosed
			}
			ln.Close()
			go func() {
				s.wg.Wait()
				cut()
			}()
			return fmt.Errorf("httpd: accept: %w", err)
		}

		s.Stats.Accepted()
		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			s.ServeConn(workerCtx, c)
		}(conn)
	}
}

// drain waits for the dispatched connections, cutting whatever is left once ShutdownTimeout passes.
func (s *Server) drain(cut context.CancelFunc) {
	defer cut()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	s.Logger.Info().Dur("timeout", s.ShutdownTimeout).Msg("shutting down, waiting for open connections")
	timer := time.NewTimer(s.ShutdownTimeout)
	defer timer.Stop()
	select {
	case <-done:
		return
	case <-timer.C:
	}

	s.Logger.Warn().Msg("shutdown timeout reached, closing open connections")
	cut()
	<-done
}

// Wait blocks until every dispatched connection has been closed.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) resolver() *Resolver {
	if s.Resolver == nil {
		return &Resolver{}
	}
	return s.Resolver
}

func (s *Server) cgi() *cgi.Handler {
	if s.CGI == nil {
		return &cgi.Handler{Logger: s.Logger}
	}
	return s.CGI
}

// IsClosed reports whether err marks an orderly shutdown.
func IsClosed(err error) bool {
	return errors.Is(err, ErrServerClosed)
}
