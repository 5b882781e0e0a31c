// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/opengate/opengate/pkg/errutil"
)

// Dispatcher parses input lines and routes them to registered commands.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *Registry, logger *slog.Logger) (*Dispatcher, error) {
	if registry == nil {
		return nil, oops.Errorf("registry is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{registry: registry, logger: logger}, nil
}

// Dispatch runs the command named by the first word of line. Unknown
// commands and permission failures are reported to the execution's
// output, not returned as errors; handler failures are returned after
// being logged so the connection layer can decide what to do.
func (d *Dispatcher) Dispatch(ctx context.Context, line string, exec *Execution) error {
	name, args, _ := strings.Cut(strings.TrimSpace(line), " ")
	name = strings.ToLower(name)
	if name == "" {
		return nil
	}
	exec.Args = strings.TrimSpace(args)

	entry, ok := d.registry.Get(name)
	if !ok {
		recordExecution(name, StatusNotFound)
		fmt.Fprintf(exec.Output, "Unknown command: %s\n", name)
		return nil
	}

	if entry.Operator && !exec.Operator {
		recordExecution(name, StatusPermissionDenied)
		fmt.Fprintf(exec.Output, "Unknown command: %s\n", name)
		return nil
	}

	start := time.Now()
	err := entry.Handler(ctx, exec)
	recordDuration(name, time.Since(start))

	if err != nil {
		recordExecution(name, StatusError)
		errutil.LogError(ctx, d.logger, "command failed", err)
		return err
	}

	recordExecution(name, StatusSuccess)
	return nil
}
