package coach

import (
	"context"
	"fmt"
	"time"

	"github.com/kapu/chess-coach-go/internal/msgcat"
	"go.uber.org/zap"
)

// Fixed degraded-condition sentences. These must stay in sync with the
// coach.degraded_report template in the message catalog.
const (
	DegradedInference = "Coaching is running without the reasoning agent; no behavioral read this turn."
	DegradedTip       = defaultTip
)

// Coach turns a report Request into a structured Report. It is total: every
// failure past this point (agent unreachable, timeout, garbage output)
// degrades to a canned report of identical shape.
type Coach struct {
	completer Completer
	catalog   *msgcat.Catalog
	timeout   time.Duration
	logger    *zap.Logger
}

// NewCoach builds a Coach. completer may be nil (unconfigured agent): every
// report then takes the degraded path. timeout <= 0 means no caller-imposed
// deadline on the agent call.
func NewCoach(completer Completer, catalog *msgcat.Catalog, timeout time.Duration, logger *zap.Logger) *Coach {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coach{completer: completer, catalog: catalog, timeout: timeout, logger: logger}
}

// GenerateReport runs the contract against the reasoning agent and parses the
// reply. Never returns an error.
func (c *Coach) GenerateReport(ctx context.Context, req Request) Report {
	if c.completer == nil {
		return c.Degraded("reasoning agent not configured")
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := c.completer.Complete(callCtx, SystemContract, BuildUserPrompt(req))
	if err != nil {
		c.logger.Warn("agent call failed, serving degraded report",
			zap.Error(err),
			zap.Duration("took", time.Since(start)),
		)
		return c.Degraded("reasoning agent call failed")
	}
	c.logger.Debug("agent reply received",
		zap.Int("bytes", len(text)),
		zap.Duration("took", time.Since(start)),
	)
	return Parse(text)
}

// Degraded builds the canned report for the given human-readable reason. The
// canned text flows through the same parser as real agent output so the two
// paths cannot drift in shape.
func (c *Coach) Degraded(reason string) Report {
	raw := ""
	if c.catalog != nil {
		if rendered, err := c.catalog.Render("coach.degraded_report", map[string]string{"Reason": reason}); err == nil {
			raw = rendered
		} else {
			c.logger.Warn("degraded report template render failed", zap.Error(err))
		}
	}
	if raw == "" {
		raw = fmt.Sprintf("%s\n%s\n- %s\nInference (non-medical, uncertain):\n- %s\n%s\n- %s\n",
			SectionMental, labelObserved, reason, DegradedInference, labelTip, DegradedTip)
	}
	return Parse(raw)
}
