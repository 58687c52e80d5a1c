package uci

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
)

type PoolConfig struct {
	BinaryPath string
	// PerConfigLimit caps live processes per option set. Zero picks a
	// CPU-based default.
	PerConfigLimit int
}

// Pool hands out warm clients keyed by option set so consecutive turns reuse
// a configured process instead of respawning Stockfish. A client released
// with an error is retired, never reused.
type Pool struct {
	binary string
	limit  int

	mu      sync.Mutex
	entries map[string]*poolEntry
	owner   map[*Client]*poolEntry
}

type poolEntry struct {
	opt  Options
	idle []*Client
	live int
	cond *sync.Cond
}

func NewPool(cfg PoolConfig) (*Pool, error) {
	if cfg.BinaryPath == "" {
		return nil, fmt.Errorf("binary path required")
	}
	if _, err := os.Stat(cfg.BinaryPath); err != nil {
		return nil, fmt.Errorf("stockfish binary check: %w", err)
	}
	limit := cfg.PerConfigLimit
	if limit <= 0 {
		limit = defaultPerConfigLimit()
	}
	return &Pool{
		binary:  cfg.BinaryPath,
		limit:   limit,
		entries: make(map[string]*poolEntry),
		owner:   make(map[*Client]*poolEntry),
	}, nil
}

// Acquire returns a ready client for opt, spawning one if the entry is below
// its limit, otherwise waiting for a release. Idle clients that fail the
// ready probe are retired and the search continues.
func (p *Pool) Acquire(ctx context.Context, opt Options) (*Client, error) {
	p.mu.Lock()
	e := p.entryLocked(opt)

	for {
		if n := len(e.idle); n > 0 {
			c := e.idle[n-1]
			e.idle = e.idle[:n-1]
			p.owner[c] = e
			p.mu.Unlock()
			if err := c.Ping(ctx); err != nil {
				p.retire(c)
				p.mu.Lock()
				continue
			}
			return c, nil
		}

		if e.live < p.limit {
			e.live++
			p.mu.Unlock()
			c, err := NewClient(ctx, p.binary, e.opt)
			p.mu.Lock()
			if err != nil {
				e.live--
				e.cond.Signal()
				p.mu.Unlock()
				return nil, err
			}
			p.owner[c] = e
			p.mu.Unlock()
			return c, nil
		}

		// Entry at capacity: wait for a release. AfterFunc wakes the wait
		// when the caller gives up.
		stop := context.AfterFunc(ctx, func() {
			p.mu.Lock()
			e.cond.Broadcast()
			p.mu.Unlock()
		})
		e.cond.Wait()
		stop()
		if ctx.Err() != nil {
			p.mu.Unlock()
			return nil, ctx.Err()
		}
	}
}

// Release returns a client to its entry. A non-nil err retires the client:
// after a failed search the process state is suspect.
func (p *Pool) Release(c *Client, err error) {
	if c == nil {
		return
	}
	p.mu.Lock()
	e, ok := p.owner[c]
	if !ok {
		p.mu.Unlock()
		_ = c.Close()
		return
	}
	delete(p.owner, c)
	if err != nil {
		e.live--
		e.cond.Signal()
		p.mu.Unlock()
		_ = c.Close()
		return
	}
	e.idle = append(e.idle, c)
	e.cond.Signal()
	p.mu.Unlock()
}

// retire drops a checked-out client that turned out to be dead.
func (p *Pool) retire(c *Client) {
	p.mu.Lock()
	if e, ok := p.owner[c]; ok {
		delete(p.owner, c)
		e.live--
		e.cond.Signal()
	}
	p.mu.Unlock()
	_ = c.Close()
}

// Close kills every idle client. Checked-out clients are closed on Release.
func (p *Pool) Close() error {
	p.mu.Lock()
	var idle []*Client
	for _, e := range p.entries {
		idle = append(idle, e.idle...)
		e.live -= len(e.idle)
		e.idle = nil
		e.cond.Broadcast()
	}
	p.owner = make(map[*Client]*poolEntry)
	p.mu.Unlock()

	var errs []error
	for _, c := range idle {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Pool) entryLocked(opt Options) *poolEntry {
	key := fmt.Sprintf("%d/%d/%d/%d/%d", opt.Threads, opt.SkillLevel, opt.HashMB, opt.MultiPV, opt.Elo)
	e, ok := p.entries[key]
	if !ok {
		e = &poolEntry{opt: opt, cond: sync.NewCond(&p.mu)}
		p.entries[key] = e
	}
	return e
}

func defaultPerConfigLimit() int {
	return min(max(runtime.NumCPU(), 2), 4)
}
