// Package engine runs external Go engines speaking GTP (the Go Text
// Protocol) as subprocesses and pools them across game sessions.
package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GTPEngine represents a GTP-compatible Go engine subprocess.
type GTPEngine struct {
	ID uuid.UUID

	cmd *exec.Cmd

	stdinPipe  io.WriteCloser
	stdoutPipe io.ReadCloser
	reader     *bufio.Reader

	mutex    sync.Mutex
	quitChan chan struct{}
	respChan chan response

	logger *zap.Logger
}

type response struct {
	ok   bool
	text string
}

// NewGTPEngine starts the engine process and returns a GTPEngine
// instance. enginePath is the path to the engine executable
// (e.g. "gnugo --mode gtp" style wrappers or a katago script).
func NewGTPEngine(enginePath string, logger *zap.Logger) (*GTPEngine, error) {
	cmd := exec.Command(enginePath)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("StdoutPipe error: %w", err)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("StdinPipe error: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("error starting engine: %w", err)
	}

	e := &GTPEngine{
		ID:         uuid.New(),
		cmd:        cmd,
		stdinPipe:  stdin,
		stdoutPipe: stdout,
		reader:     bufio.NewReader(stdout),
		quitChan:   make(chan struct{}),
		respChan:   make(chan response, 1),
		logger:     logger,
	}

	go e.readLoop()

	return e, nil
}

// readLoop collects engine output. A GTP response is one "=" or "?"
// line plus continuation lines, terminated by a blank line.
func (e *GTPEngine) readLoop() {
	var buf []string

	for {
		select {
		case <-e.quitChan:
			return
		default:
			line, err := e.reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					e.logger.Info("engine closed stdout")
				} else {
					e.logger.Error("error reading engine output", zap.Error(err))
				}
				return
			}
			line = strings.TrimRight(line, "\r\n")

			if line != "" {
				buf = append(buf, line)
				continue
			}
			if len(buf) == 0 {
				continue
			}

			full := strings.Join(buf, "\n")
			buf = nil

			e.logger.Debug("engine response", zap.String("response", full))

			resp := response{ok: strings.HasPrefix(full, "="), text: full}
			resp.text = strings.TrimSpace(strings.TrimLeft(resp.text, "=? \t"))

			select {
			case e.respChan <- resp:
			default:
			}
		}
	}
}

func (e *GTPEngine) writeCommand(cmd string) error {
	_, err := io.WriteString(e.stdinPipe, cmd+"\n")
	return err
}

// Send issues one GTP command and waits for its response.
func (e *GTPEngine) Send(ctx context.Context, cmd string) (string, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if err := e.writeCommand(cmd); err != nil {
		return "", fmt.Errorf("sending %q: %w", cmd, err)
	}

	select {
	case resp := <-e.respChan:
		if !resp.ok {
			return "", fmt.Errorf("engine rejected %q: %s", cmd, resp.text)
		}
		return resp.text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-e.quitChan:
		return "", fmt.Errorf("engine closed while waiting for %q", cmd)
	}
}

// SetupGame configures board size, komi and handicap placement on a
// fresh engine before the first move.
func (e *GTPEngine) SetupGame(ctx context.Context, size int, komi float64, handicap int) error {
	if _, err := e.Send(ctx, "clear_board"); err != nil {
		return err
	}
	if _, err := e.Send(ctx, fmt.Sprintf("boardsize %d", size)); err != nil {
		return err
	}
	if _, err := e.Send(ctx, fmt.Sprintf("komi %.1f", komi)); err != nil {
		return err
	}
	if handicap > 1 {
		if _, err := e.Send(ctx, fmt.Sprintf("fixed_handicap %d", handicap)); err != nil {
			return err
		}
	}
	return nil
}

// Play informs the engine of an opponent move. vertex is a GTP vertex
// such as "D4" or "pass".
func (e *GTPEngine) Play(ctx context.Context, color string, vertex string) error {
	_, err := e.Send(ctx, fmt.Sprintf("play %s %s", gtpColor(color), vertex))
	return err
}

// GenMove asks the engine for its move and reports how long it thought,
// in whole seconds. The vertex is "pass" or "resign" when the engine
// declines to place a stone.
func (e *GTPEngine) GenMove(ctx context.Context, color string) (vertex string, thinkingSeconds int64, err error) {
	started := time.Now()
	resp, err := e.Send(ctx, fmt.Sprintf("genmove %s", gtpColor(color)))
	if err != nil {
		return "", 0, err
	}

	return strings.ToUpper(strings.TrimSpace(resp)), int64(time.Since(started).Seconds()), nil
}

// Close quits the engine process.
func (e *GTPEngine) Close() error {
	close(e.quitChan)
	e.mutex.Lock()
	_ = e.writeCommand("quit")
	e.mutex.Unlock()
	return e.cmd.Wait()
}

func gtpColor(c string) string {
	if strings.HasPrefix(strings.ToLower(c), "w") {
		return "white"
	}
	return "black"
}
