// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/eapache/queue"
	"go.uber.org/zap"

	"github.com/momentics/syncwire/api"
	"github.com/momentics/syncwire/control"
)

// Candidates is the ordered sequence of endpoints still to be tried.
type Candidates struct {
	q *queue.Queue
}

// NewCandidates queues eps in order.
func NewCandidates(eps []api.Endpoint) *Candidates {
	q := queue.New()
	for _, ep := range eps {
		q.Add(ep)
	}
	return &Candidates{q: q}
}

// Len returns the number of untried candidates.
func (c *Candidates) Len() int { return c.q.Length() }

// Next pops the leftmost candidate.
func (c *Candidates) Next() (api.Endpoint, bool) {
	if c.q.Length() == 0 {
		return api.Endpoint{}, false
	}
	return c.q.Remove().(api.Endpoint), true
}

// Connect dials candidates left to right and returns the first transport that
// connects. Remaining candidates are never dialed. When every candidate fails
// the result is a KindConnection error joining each attempt's cause.
func Connect(ctx context.Context, d api.Dialer, eps []api.Endpoint, log *zap.Logger, m *control.MetricsRegistry) (api.Transport, api.Endpoint, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cands := NewCandidates(eps)
	var errs []error
	for {
		ep, ok := cands.Next()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		m.Add(control.MetricConnectAttempts, 1)
		tr, err := d.Dial(ctx, ep)
		if err == nil {
			log.Debug("connected", zap.Stringer("endpoint", ep), zap.Int("skipped", len(errs)))
			return tr, ep, nil
		}
		m.Add(control.MetricConnectFailures, 1)
		log.Warn("connect candidate failed", zap.Stringer("endpoint", ep), zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", ep, err))
	}
	if len(errs) == 0 {
		errs = append(errs, errors.New("no candidate endpoints"))
	}
	return nil, api.Endpoint{}, api.NewError(api.KindConnection, "connect", errors.Join(errs...)).
		WithContext("candidates", len(eps))
}

// Open resolves host and port with r, then connects through d. Resolution
// failures, including an empty candidate list, are KindResolution errors.
func Open(ctx context.Context, r api.Resolver, d api.Dialer, host, port string, log *zap.Logger, m *control.MetricsRegistry) (api.Transport, api.Endpoint, error) {
	if log == nil {
		log = zap.NewNop()
	}
	eps, err := r.Resolve(ctx, host, port)
	if err == nil && len(eps) == 0 {
		err = ErrNoAddresses
	}
	if err != nil {
		return nil, api.Endpoint{}, api.NewError(api.KindResolution, "resolve", err).
			WithContext("host", host).WithContext("port", port)
	}
	log.Debug("resolved", zap.String("host", host), zap.String("port", port), zap.Int("candidates", len(eps)))
	return Connect(ctx, d, eps, log, m)
}
