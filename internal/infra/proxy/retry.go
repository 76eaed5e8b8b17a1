package proxy

import (
	"time"

	"github.com/vietddude/acadcom/internal/core/hresult"
	"github.com/vietddude/acadcom/internal/infra/metrics"
)

// do runs call under p's policy. It returns call's result, call's error
// unchanged for non-transient failures, or a *RetryError once the
// cumulative delay has reached the ceiling.
func (p *Proxy) do(op, member string, call func() (any, error)) (any, error) {
	var delay, waited time.Duration

	for attempt := 1; ; attempt++ {
		result, err := call()
		if err == nil {
			metrics.ForeignCallsTotal.WithLabelValues(op, "ok").Inc()
			return result, nil
		}

		if p.policy.Classify(err) == ActionFatal {
			metrics.ForeignCallsTotal.WithLabelValues(op, "error").Inc()
			return nil, err
		}

		code, _ := hresult.FromError(err)
		if delay >= p.policy.MaxTotalDelay || p.policy.StepDelay <= 0 {
			metrics.ForeignCallsTotal.WithLabelValues(op, "exhausted").Inc()
			p.logger.Warn("Foreign call still busy, giving up",
				"op", op, "member", member, "code", code,
				"attempts", attempt, "waited", waited)
			return nil, &RetryError{
				Op:       op,
				Member:   member,
				Attempts: attempt,
				Waited:   waited,
				Err:      err,
			}
		}

		delay += p.policy.StepDelay
		metrics.ForeignRetriesTotal.WithLabelValues(op, code.String()).Inc()
		p.logger.Debug("Foreign call busy, retrying",
			"op", op, "member", member, "code", code,
			"attempt", attempt, "delay", delay)

		p.clock.Sleep(delay)
		waited += delay
		metrics.ForeignBackoffSeconds.WithLabelValues(op).Add(delay.Seconds())
	}
}
