// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

// Package console provides the line-based TCP adapter players connect
// through.
package console

import (
	"context"
	"log/slog"
	"net"
	"sync"

	"github.com/samber/oops"

	"github.com/opengate/opengate/internal/account"
	"github.com/opengate/opengate/internal/command"
	"github.com/opengate/opengate/internal/session"
)

// Server accepts console connections.
type Server struct {
	addr       string
	listener   net.Listener
	accounts   *account.Service
	sessions   *session.Manager
	dispatcher *command.Dispatcher
	logger     *slog.Logger
	mu         sync.RWMutex
	wg         sync.WaitGroup
}

// NewServer creates a console server.
func NewServer(addr string, accounts *account.Service, sessions *session.Manager, dispatcher *command.Dispatcher, logger *slog.Logger) (*Server, error) {
	if accounts == nil {
		return nil, oops.Errorf("account service is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("session manager is required")
	}
	if dispatcher == nil {
		return nil, oops.Errorf("dispatcher is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		addr:       addr,
		accounts:   accounts,
		sessions:   sessions,
		dispatcher: dispatcher,
		logger:     logger,
	}, nil
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run starts the server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return oops.Code("CONSOLE_LISTEN_FAILED").With("addr", s.addr).Wrap(err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("console server started", "addr", listener.Addr())

	go func() {
		<-ctx.Done()
		if err := listener.Close(); err != nil {
			s.logger.Debug("error closing listener", "error", err)
		}
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return nil
			default:
				s.logger.Error("accept failed", "error", err)
				continue
			}
		}
		handler := NewConnectionHandler(conn, s.accounts, s.sessions, s.dispatcher, s.logger)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			handler.Handle(ctx)
		}()
	}
}
