// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/opengate/opengate/internal/account"
	"github.com/opengate/opengate/internal/command"
	"github.com/opengate/opengate/internal/session"
)

// ConnectionHandler handles a single console connection.
type ConnectionHandler struct {
	conn       net.Conn
	reader     *bufio.Reader
	accounts   *account.Service
	sessions   *session.Manager
	dispatcher *command.Dispatcher
	logger     *slog.Logger
	connID     ulid.ULID
	sess       *session.Session
	playerName string
	remoteHost string
	authed     bool
	operator   bool
	quitting   bool
}

// NewConnectionHandler creates a handler for one connection.
func NewConnectionHandler(conn net.Conn, accounts *account.Service, sessions *session.Manager, dispatcher *command.Dispatcher, logger *slog.Logger) *ConnectionHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &ConnectionHandler{
		conn:       conn,
		reader:     bufio.NewReader(conn),
		accounts:   accounts,
		sessions:   sessions,
		dispatcher: dispatcher,
		logger:     logger,
		connID:     ulid.Make(),
		remoteHost: remoteHost(conn),
	}
	h.operator = isLoopback(h.remoteHost)
	return h
}

func remoteHost(conn net.Conn) string {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return conn.RemoteAddr().String()
	}
	return host
}

func isLoopback(host string) bool {
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Handle processes the connection until closed.
func (h *ConnectionHandler) Handle(ctx context.Context) {
	defer func() {
		if h.sess != nil {
			h.sessions.OnQuit(h.sess)
		}
		if err := h.conn.Close(); err != nil {
			h.logger.Debug("error closing connection", "error", err)
		}
	}()

	h.send("Welcome to OpenGate.")
	h.send("Use: login <name> <password>  or  register <name> <password> <password>")

	lineCh := make(chan string)
	errCh := make(chan error)

	go func() {
		for {
			line, err := h.reader.ReadString('\n')
			if err != nil {
				errCh <- err
				return
			}
			select {
			case lineCh <- strings.TrimSpace(line):
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case err := <-errCh:
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				h.logger.Debug("connection read error",
					"conn_id", h.connID.String(),
					"error", err,
				)
			}
			return

		case line := <-lineCh:
			h.processLine(ctx, line)
			if h.quitting {
				return
			}
		}
	}
}

func (h *ConnectionHandler) processLine(ctx context.Context, line string) {
	cmd, arg, _ := strings.Cut(line, " ")
	cmd = strings.ToLower(cmd)

	switch cmd {
	case "login":
		h.handleLogin(ctx, arg)
		return
	case "register":
		h.handleRegister(ctx, arg)
		return
	case "quit":
		h.handleQuit()
		return
	case "":
		return
	}

	if !h.authed {
		h.send("You must log in first.")
		return
	}

	exec := &command.Execution{
		PlayerName: h.playerName,
		Address:    h.remoteHost,
		Operator:   h.operator,
		Args:       arg,
		Output:     h.conn,
		Services: &command.Services{
			Accounts: h.accounts,
			Sessions: h.sessions,
		},
	}
	if err := h.dispatcher.Dispatch(ctx, line, exec); err != nil {
		h.logger.Debug("command failed",
			"conn_id", h.connID.String(),
			"command", cmd,
			"error", err,
		)
	}
}

func (h *ConnectionHandler) handleLogin(ctx context.Context, arg string) {
	if h.authed {
		h.send("Already logged in.")
		return
	}

	name, password, ok := strings.Cut(arg, " ")
	if !ok || name == "" {
		h.send("Usage: login <name> <password>")
		return
	}

	acct, err := h.accounts.Resolve(ctx, name)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			h.send("You are not registered. Use: register <name> <password> <password>")
			return
		}
		h.logger.Error("login lookup failed", "player", name, "error", err)
		h.send("A database error occurred. Please try again later.")
		return
	}

	match, err := h.accounts.VerifySecret(acct, password)
	if err != nil {
		h.logger.Error("login verification failed", "player", name, "error", err)
		h.send("Your account record is damaged. Contact an operator.")
		return
	}
	if !match {
		h.send("Incorrect password.")
		return
	}

	if err := h.accounts.RecordLogin(ctx, acct, h.remoteHost); err != nil {
		h.logger.Warn("failed to record login", "player", name, "error", err)
	}

	h.finishAuth(ctx, acct.Realname)
}

func (h *ConnectionHandler) handleRegister(ctx context.Context, arg string) {
	if h.authed {
		h.send("Already logged in.")
		return
	}

	name, rest, ok := strings.Cut(arg, " ")
	if !ok || name == "" {
		h.send("Usage: register <name> <password> <password>")
		return
	}
	password, confirm, ok := strings.Cut(rest, " ")
	if !ok {
		h.send("Usage: register <name> <password> <password>")
		return
	}
	if password != strings.TrimSpace(confirm) {
		h.send("Passwords do not match.")
		return
	}

	err := h.accounts.Register(ctx, name, password, h.remoteHost, false)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrAlreadyRegistered):
			h.send("That name is already registered.")
		case errors.Is(err, account.ErrEmptyPassword):
			h.send("Your password cannot be empty.")
		default:
			h.logger.Error("registration failed", "player", name, "error", err)
			h.send("A database error occurred. Please try again later.")
		}
		return
	}

	h.send("Registered.")
	h.finishAuth(ctx, name)
}

func (h *ConnectionHandler) finishAuth(ctx context.Context, name string) {
	kick := func(reason string) {
		h.send("You have been disconnected: " + reason)
		if err := h.conn.Close(); err != nil {
			h.logger.Debug("error closing kicked connection", "error", err)
		}
	}

	sess, err := h.sessions.OnJoin(ctx, name, h.remoteHost, kick)
	if err != nil {
		h.logger.Error("session join failed", "player", name, "error", err)
		h.send("A database error occurred. Please try again later.")
		return
	}

	h.sess = sess
	h.playerName = name
	h.authed = true
	h.send(fmt.Sprintf("Welcome, %s!", name))
}

func (h *ConnectionHandler) handleQuit() {
	h.send("Goodbye!")
	h.quitting = true
}

func (h *ConnectionHandler) send(msg string) {
	if _, err := fmt.Fprintln(h.conn, msg); err != nil {
		h.logger.Debug("failed to send message to client",
			"conn_id", h.connID.String(),
			"error", err,
		)
	}
}
