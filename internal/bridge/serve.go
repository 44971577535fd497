package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net"
	"os"
	"sync"
)

// maxLine bounds a single envelope.
const maxLine = 64 << 10

// Envelope is one newline-delimited message on the wire.
type Envelope struct {
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload"`
}

// Serve reads envelopes from r until EOF or ctx is done and dispatches each
// one. Lines that are not valid envelopes are dropped. Returns nil on EOF.
func (rt *Router) Serve(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLine)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var env Envelope
		if err := json.Unmarshal(line, &env); err != nil {
			rt.log.Debug("bridge: drop malformed envelope: %v", err)
			continue
		}
		rt.Dispatch(env.Channel, env.Payload)
	}
	return sc.Err()
}

// ListenAndServe accepts connections on a unix socket at path and serves
// each one until ctx is done. A stale socket file is replaced.
func (rt *Router) ListenAndServe(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return err
	}
	defer os.Remove(path)

	var (
		mu    sync.Mutex
		conns = map[net.Conn]struct{}{}
		wg    sync.WaitGroup
	)

	go func() {
		<-ctx.Done()
		ln.Close()
		mu.Lock()
		for c := range conns {
			c.Close()
		}
		mu.Unlock()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			wg.Wait()
			if ctx.Err() != nil || stderrors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		mu.Lock()
		if ctx.Err() != nil {
			mu.Unlock()
			conn.Close()
			continue
		}
		conns[conn] = struct{}{}
		mu.Unlock()

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				mu.Lock()
				delete(conns, conn)
				mu.Unlock()
				conn.Close()
			}()
			if err := rt.Serve(ctx, conn); err != nil && ctx.Err() == nil {
				rt.log.Debug("bridge: connection ended: %v", err)
			}
		}()
	}
}
