// -- internal/driverlog/watcher.go --

// Package driverlog tails the WinAppDriver console log and surfaces failed
// round trips as Fault events. The driver process writes every request it
// serves to its log file; watching that file gives an out-of-band view of
// errors even when the automation side swallows or retries them.
package driverlog

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/hpcloud/tail"
	"go.uber.org/zap"
)

// -- Regex Definitions --
var requestLineRegex = regexp.MustCompile(`^(GET|POST|PUT|DELETE|PATCH|HEAD)\s+(/\S*)\s*$`)
var statusLineRegex = regexp.MustCompile(`^HTTP/\d\.\d\s+(\d{3})\b`)
var wireMessageRegex = regexp.MustCompile(`"message"\s*:\s*"((?:[^"\\]|\\.)*)"`)

// Fault is one failed driver round trip observed in the log: the request
// that triggered it, the HTTP status the driver answered with, and the wire
// error message when the response body carried one.
type Fault struct {
	Method  string
	Path    string
	Status  int
	Message string
	At      time.Time
}

// Watcher monitors a WinAppDriver log file for failed requests.
// It tails the file, pairs request lines with their response status, and
// emits a Fault for every non-2xx answer.
type Watcher struct {
	logger *zap.Logger
	// path is the driver log file to monitor.
	path string
	// faults receives one event per failed round trip.
	faults chan Fault
}

// NewWatcher initializes a Watcher for the given driver log file.
// The file must exist by the time Start is called; WinAppDriver creates it
// when launched with its output redirected.
func NewWatcher(path string, logger *zap.Logger) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("driverlog: log file path is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		logger: logger.Named("driverlog"),
		path:   path,
		faults: make(chan Fault, 16),
	}, nil
}

// Faults returns the channel fault events are delivered on. The channel is
// closed when the watcher stops.
func (w *Watcher) Faults() <-chan Fault {
	return w.faults
}

// Start begins tailing the driver log in a separate goroutine. Only lines
// written after Start are considered; the driver's startup banner and any
// history from earlier runs are skipped.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info("Starting driver log watcher.", zap.String("driver_log", w.path))

	t, err := tail.TailFile(w.path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Location:  &tail.SeekInfo{Offset: 0, Whence: 2},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("driverlog: tail %s: %w", w.path, err)
	}

	go w.monitorLoop(ctx, t)
	return nil
}

// The core loop that reads log lines and turns them into Fault events.
// The driver interleaves request lines, response status lines and response
// bodies in a fixed order per round trip, so a small line parser is enough
// to pair them back up.
func (w *Watcher) monitorLoop(ctx context.Context, t *tail.Tail) {
	defer func() {
		t.Stop()
		t.Cleanup()
		close(w.faults)
	}()

	var parser lineParser

	for {
		select {
		case <-ctx.Done():
			w.emit(parser.flush())
			w.logger.Info("Stopping driver log watcher.")
			return

		case line, ok := <-t.Lines:
			if !ok {
				w.emit(parser.flush())
				w.logger.Info("Driver log tailer channel closed.")
				return
			}
			if line.Err != nil {
				w.logger.Warn("Error reading from driver log.", zap.Error(line.Err))
				continue
			}

			if fault, ok := parser.feed(line.Text, time.Now()); ok {
				w.emit(fault, true)
			}
		}
	}
}

// emit delivers a fault without ever blocking the tail loop. A consumer that
// stops draining the channel loses events rather than stalling the watcher.
func (w *Watcher) emit(fault Fault, ok bool) {
	if !ok {
		return
	}
	select {
	case w.faults <- fault:
		w.logger.Debug("Fault queued.",
			zap.String("method", fault.Method),
			zap.String("path", fault.Path),
			zap.Int("status", fault.Status),
		)
	default:
		w.logger.Debug("Fault channel full, dropping event.",
			zap.String("method", fault.Method),
			zap.String("path", fault.Path),
		)
	}
}

// lineParser is the per-line state machine behind the watcher. It remembers
// the most recent request line, arms a pending fault when a non-2xx status
// line follows it, and completes the fault when the response body yields a
// wire error message. A new request line flushes any fault still waiting
// for its message.
type lineParser struct {
	method  string
	path    string
	pending *Fault
}

// feed consumes one log line. It returns a completed Fault and true when the
// line finishes a failed round trip.
func (p *lineParser) feed(line string, now time.Time) (Fault, bool) {
	if m := requestLineRegex.FindStringSubmatch(line); m != nil {
		fault, ok := p.flush()
		p.method, p.path = m[1], m[2]
		return fault, ok
	}

	if m := statusLineRegex.FindStringSubmatch(line); m != nil {
		code, err := strconv.Atoi(m[1])
		if err != nil || p.method == "" {
			return Fault{}, false
		}
		if code < 200 || code >= 300 {
			p.pending = &Fault{Method: p.method, Path: p.path, Status: code, At: now}
		}
		return Fault{}, false
	}

	if p.pending != nil {
		if m := wireMessageRegex.FindStringSubmatch(line); m != nil {
			p.pending.Message = unescapeWireMessage(m[1])
			return p.flush()
		}
	}

	return Fault{}, false
}

// flush surfaces a pending fault whose message never arrived, for example
// when the driver answered with an empty body or the tail ended mid round
// trip.
func (p *lineParser) flush() (Fault, bool) {
	if p.pending == nil {
		return Fault{}, false
	}
	fault := *p.pending
	p.pending = nil
	return fault, true
}

// unescapeWireMessage undoes the JSON string escaping in a captured message.
// The raw capture is kept when unquoting fails.
func unescapeWireMessage(raw string) string {
	unquoted, err := strconv.Unquote(`"` + raw + `"`)
	if err != nil {
		return raw
	}
	return unquoted
}
