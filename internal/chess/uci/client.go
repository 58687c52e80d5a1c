// Package uci drives Stockfish over the UCI text protocol. One Client wraps
// one engine process; Pool keeps warm clients per option set.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kapu/chess-coach-go/internal/obslog"
	"go.uber.org/zap"
)

const (
	handshakeTimeout = 4 * time.Second
	resetAttempts    = 3
	resetRetryDelay  = 150 * time.Millisecond
)

// Options is the engine configuration a client is initialized with. Elo > 0
// additionally enables UCI_LimitStrength.
type Options struct {
	Threads    int
	SkillLevel int
	HashMB     int
	MultiPV    int
	Elo        int
}

// Limits bounds one search. At least one of Depth or MoveTimeMillis must be
// set.
type Limits struct {
	Depth          int
	MoveTimeMillis int
}

// Candidate is one multipv line. Mate lines carry MateIn (signed, from the
// side to move) instead of a centipawn eval.
type Candidate struct {
	Move      string
	EvalCP    int
	Mate      bool
	MateIn    int
	Principal []string
}

type Request struct {
	FEN    string
	Moves  []string
	Limits Limits
}

type Result struct {
	Candidates []Candidate
	BestMove   string
}

// Client owns one engine process. Search is serialized; concurrent callers go
// through the Pool instead.
type Client struct {
	cmd   *exec.Cmd
	in    io.WriteCloser
	lines chan string
	done  chan struct{}

	closeOnce sync.Once
	writeMu   sync.Mutex
	searchMu  sync.Mutex
}

func NewClient(ctx context.Context, binaryPath string, opt Options) (*Client, error) {
	if err := checkOptions(opt); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, binaryPath)
	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		in.Close()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		in.Close()
		out.Close()
		return nil, fmt.Errorf("start engine: %w", err)
	}

	c := &Client{cmd: cmd, in: in, lines: make(chan string), done: make(chan struct{})}
	go c.pump(out)

	if err := c.handshake(ctx, opt); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// pump feeds engine output into c.lines until the process exits or Close
// fires. The channel close is how readers learn the process died. The done
// select keeps a mid-search Close from stranding the goroutine on the send:
// nobody reads c.lines after the client is retired.
func (c *Client) pump(out io.Reader) {
	defer close(c.lines)
	sc := bufio.NewScanner(out)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		select {
		case c.lines <- strings.TrimSpace(sc.Text()):
		case <-c.done:
			return
		}
	}
}

func (c *Client) handshake(ctx context.Context, opt Options) error {
	hsCtx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()

	if err := c.send("uci"); err != nil {
		return fmt.Errorf("send uci: %w", err)
	}
	if err := c.expect(hsCtx, "uciok"); err != nil {
		return fmt.Errorf("wait uciok: %w", err)
	}
	if err := c.configure(opt); err != nil {
		return err
	}
	return c.Ping(hsCtx)
}

func (c *Client) configure(opt Options) error {
	threads := opt.Threads
	if threads <= 0 {
		threads = 1
	}
	settings := []struct {
		name  string
		value string
	}{
		{"Threads", strconv.Itoa(threads)},
		{"Hash", strconv.Itoa(opt.HashMB)},
		{"Skill Level", strconv.Itoa(opt.SkillLevel)},
		{"MultiPV", strconv.Itoa(opt.MultiPV)},
		{"Move Overhead", "100"},
	}
	if opt.Elo > 0 {
		settings = append(settings,
			struct{ name, value string }{"UCI_LimitStrength", "true"},
			struct{ name, value string }{"UCI_Elo", strconv.Itoa(opt.Elo)},
		)
	}
	for _, s := range settings {
		if err := c.send(fmt.Sprintf("setoption name %s value %s", s.name, s.value)); err != nil {
			return fmt.Errorf("setoption %s: %w", s.name, err)
		}
	}
	return nil
}

// Ping round-trips isready/readyok, confirming the process is alive and done
// with prior work.
func (c *Client) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()

	if err := c.send("isready"); err != nil {
		return fmt.Errorf("send isready: %w", err)
	}
	if err := c.expect(pingCtx, "readyok"); err != nil {
		return fmt.Errorf("wait readyok: %w", err)
	}
	return nil
}

// Reset issues ucinewgame. Some engines take a moment to settle, so the ready
// probe retries.
func (c *Client) Reset(ctx context.Context) error {
	if err := c.send("ucinewgame"); err != nil {
		return fmt.Errorf("send ucinewgame: %w", err)
	}
	for attempt := 1; ; attempt++ {
		err := c.Ping(ctx)
		if err == nil {
			return nil
		}
		if attempt >= resetAttempts {
			return err
		}
		obslog.L().Debug("engine not ready after ucinewgame, retrying",
			zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(resetRetryDelay):
		}
	}
}

// Search runs one position/go exchange and collects multipv info lines until
// bestmove arrives.
func (c *Client) Search(ctx context.Context, req Request) (Result, error) {
	c.searchMu.Lock()
	defer c.searchMu.Unlock()

	if err := c.send(positionCommand(req.FEN, req.Moves)); err != nil {
		return Result{}, fmt.Errorf("send position: %w", err)
	}
	goCmd, err := goCommand(req.Limits)
	if err != nil {
		return Result{}, err
	}
	if err := c.send(goCmd); err != nil {
		return Result{}, fmt.Errorf("send go: %w", err)
	}

	searchCtx, cancel := context.WithTimeout(ctx, searchDeadline(req.Limits))
	defer cancel()

	byRank := make(map[int]Candidate)
	for {
		line, err := c.next(searchCtx)
		if err != nil {
			obslog.L().Debug("engine read failed mid-search", zap.String("go", goCmd), zap.Error(err))
			return Result{}, fmt.Errorf("read engine output: %w", err)
		}
		switch {
		case strings.HasPrefix(line, "info "):
			if rank, cand, ok := parseInfoLine(line); ok {
				byRank[rank] = cand
			}
		case strings.HasPrefix(line, "bestmove"):
			res := Result{Candidates: rankedCandidates(byRank)}
			if fields := strings.Fields(line); len(fields) >= 2 {
				res.BestMove = fields[1]
			}
			return res, nil
		}
	}
}

func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	if c.in != nil {
		c.in.Close()
	}
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
	if c.cmd != nil {
		return c.cmd.Wait()
	}
	return nil
}

func (c *Client) send(cmd string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := io.WriteString(c.in, cmd+"\n")
	return err
}

func (c *Client) next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	}
}

func (c *Client) expect(ctx context.Context, token string) error {
	for {
		line, err := c.next(ctx)
		if err != nil {
			return err
		}
		if strings.Contains(line, token) {
			return nil
		}
	}
}

func checkOptions(opt Options) error {
	if opt.SkillLevel < 0 || opt.SkillLevel > 20 {
		return fmt.Errorf("skill level %d out of range 0-20", opt.SkillLevel)
	}
	if opt.HashMB <= 0 {
		return fmt.Errorf("hash size must be > 0: %d", opt.HashMB)
	}
	if opt.MultiPV <= 0 {
		return fmt.Errorf("multipv must be > 0: %d", opt.MultiPV)
	}
	if opt.Elo < 0 {
		return fmt.Errorf("elo must be >= 0: %d", opt.Elo)
	}
	return nil
}

func positionCommand(fen string, moves []string) string {
	var sb strings.Builder
	if fen := strings.TrimSpace(fen); fen == "" || fen == "startpos" {
		sb.WriteString("position startpos")
	} else {
		sb.WriteString("position fen ")
		sb.WriteString(fen)
	}
	if len(moves) > 0 {
		sb.WriteString(" moves ")
		sb.WriteString(strings.Join(moves, " "))
	}
	return sb.String()
}

func goCommand(l Limits) (string, error) {
	parts := []string{"go"}
	if l.Depth > 0 {
		parts = append(parts, "depth", strconv.Itoa(l.Depth))
	}
	if l.MoveTimeMillis > 0 {
		parts = append(parts, "movetime", strconv.Itoa(l.MoveTimeMillis))
	}
	if len(parts) == 1 {
		return "", fmt.Errorf("no search limits specified")
	}
	return strings.Join(parts, " "), nil
}

// searchDeadline gives the engine generous slack past the requested limits so
// slow hosts don't turn every search into a timeout.
func searchDeadline(l Limits) time.Duration {
	if l.MoveTimeMillis > 0 {
		return time.Duration(l.MoveTimeMillis)*time.Millisecond + 5*time.Second
	}
	if l.Depth > 0 {
		d := time.Duration(l.Depth) * 400 * time.Millisecond
		if d < 5*time.Second {
			d = 5 * time.Second
		}
		if d > 25*time.Second {
			d = 25 * time.Second
		}
		return d
	}
	return 5 * time.Second
}

// parseInfoLine extracts the multipv rank and candidate from one info line.
// Lines without a pv tail (depth-only progress chatter) are skipped.
func parseInfoLine(line string) (int, Candidate, bool) {
	fields := strings.Fields(line)
	rank := 1
	var cand Candidate

	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "multipv":
			if i+1 < len(fields) {
				if v, err := strconv.Atoi(fields[i+1]); err == nil {
					rank = v
				}
				i++
			}
		case "score":
			if i+2 < len(fields) {
				if v, err := strconv.Atoi(fields[i+2]); err == nil {
					switch fields[i+1] {
					case "cp":
						cand.EvalCP = v
					case "mate":
						cand.Mate = true
						cand.MateIn = v
					}
				}
				i += 2
			}
		case "pv":
			tail := fields[i+1:]
			if len(tail) == 0 {
				return 0, Candidate{}, false
			}
			cand.Move = tail[0]
			cand.Principal = append([]string(nil), tail...)
			return rank, cand, true
		}
	}
	return 0, Candidate{}, false
}

func rankedCandidates(byRank map[int]Candidate) []Candidate {
	if len(byRank) == 0 {
		return nil
	}
	ranks := make([]int, 0, len(byRank))
	for r := range byRank {
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)
	out := make([]Candidate, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, byRank[r])
	}
	return out
}
