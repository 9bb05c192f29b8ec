// Package probe performs single outbound status checks against remote
// camera nodes. A probe never retries and never returns a Go error for a
// node-side failure: every outcome is classified into a ProbeResult so
// callers can aggregate without unwinding.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/camhub/camhub/internal/netguard"
	"github.com/camhub/camhub/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var probesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "camhub_probes_total",
		Help: "Total outbound node probes by endpoint and outcome.",
	},
	[]string{"endpoint", "outcome"},
)

func init() {
	prometheus.MustRegister(probesTotal)
}

// Guard is the address-policy surface the prober needs. Satisfied by
// *netguard.Checker.
type Guard interface {
	Check(ctx context.Context, host string) (blocked bool, reason string)
	DialControl(network, address string, c syscall.RawConn) error
}

// Options configures a Prober.
type Options struct {
	Timeout         time.Duration // per-probe budget; default 5s
	ICMPDiagnostics bool          // attach ping stats to unreachable results
	Logger          *zap.Logger
}

// Prober issues outbound HTTP checks with SSRF enforcement on both the
// validation path and the dial path.
type Prober struct {
	guard   Guard
	client  *http.Client
	timeout time.Duration
	icmp    bool
	logger  *zap.Logger
}

// New creates a Prober. The guard's DialControl hook is installed on the
// HTTP transport, so a DNS answer that changes between validation and
// connect is still rejected.
func New(guard Guard, opts Options) *Prober {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	dialer := &net.Dialer{
		Timeout: opts.Timeout,
		Control: guard.DialControl,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          16,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   opts.Timeout,
		ResponseHeaderTimeout: opts.Timeout,
		// Redirect targets would bypass the pre-dial check's intent;
		// the dial hook still vets them, but probes have no business
		// following redirects anyway.
	}

	return &Prober{
		guard: guard,
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		timeout: opts.Timeout,
		icmp:    opts.ICMPDiagnostics,
		logger:  opts.Logger,
	}
}

// Timeout returns the per-probe budget.
func (p *Prober) Timeout() time.Duration {
	return p.timeout
}

// ForwardResult is an action probe outcome plus the raw downstream
// response, so the caller can relay status, content type, and body.
type ForwardResult struct {
	models.ProbeResult
	ContentType string
	Body        []byte
}

// Health probes the node's /health endpoint.
func (p *Prober) Health(ctx context.Context, n *models.Node) models.ProbeResult {
	return p.do(ctx, n, http.MethodGet, "/health", "health", nil)
}

// Ready probes the node's /ready endpoint.
func (p *Prober) Ready(ctx context.Context, n *models.Node) models.ProbeResult {
	return p.do(ctx, n, http.MethodGet, "/ready", "ready", nil)
}

// Metrics probes the node's /metrics endpoint. The body is Prometheus
// text, so the result carries reachability and status but no payload.
func (p *Prober) Metrics(ctx context.Context, n *models.Node) models.ProbeResult {
	return p.do(ctx, n, http.MethodGet, "/metrics", "metrics", nil)
}

// Action forwards a control action (start, stop, snapshot) to the node.
// A non-empty body is passed through as the downstream JSON request
// body. The downstream response travels back verbatim in the result; a
// snapshot answers with image/jpeg, not JSON, so the body is opaque here.
func (p *Prober) Action(ctx context.Context, n *models.Node, action string, body []byte) ForwardResult {
	endpoint := "actions/" + action
	res, ct, raw := p.exec(ctx, n, http.MethodPost, "/api/actions/"+url.PathEscape(action), endpoint, body)
	p.count(endpoint, res)
	return ForwardResult{ProbeResult: res, ContentType: ct, Body: raw}
}

func (p *Prober) do(ctx context.Context, n *models.Node, method, path, endpoint string, body []byte) models.ProbeResult {
	res, _, _ := p.exec(ctx, n, method, path, endpoint, body)
	p.count(endpoint, res)
	return res
}

func (p *Prober) count(endpoint string, res models.ProbeResult) {
	outcome := "ok"
	if res.Error != nil {
		outcome = string(res.Error.Kind)
	}
	probesTotal.WithLabelValues(endpoint, outcome).Inc()
}

func (p *Prober) exec(ctx context.Context, n *models.Node, method, path, endpoint string, body []byte) (models.ProbeResult, string, []byte) {
	res := models.ProbeResult{
		NodeID:    n.ID,
		Endpoint:  endpoint,
		CheckedAt: time.Now().UTC(),
	}

	if n.Transport == models.TransportDocker {
		res.Error = &models.ProbeError{
			Kind:   models.ErrKindTransportUnsupported,
			Reason: "docker transport is not supported",
		}
		return res, "", nil
	}

	// Policy check before any network I/O. A blocked target produces a
	// terse, uniform reason so responses don't leak which class of
	// address the operator tried to reach.
	if blocked, _ := p.guard.Check(ctx, n.Host()); blocked {
		res.Error = &models.ProbeError{
			Kind:   models.ErrKindUnreachable,
			Reason: netguard.BlockedReason,
		}
		return res, "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var reqBody io.Reader = http.NoBody
	if len(body) > 0 {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, n.BaseURL+path, reqBody)
	if err != nil {
		res.Error = &models.ProbeError{
			Kind:   models.ErrKindValidation,
			Reason: fmt.Sprintf("cannot build request: %v", err),
		}
		return res, "", nil
	}
	if n.Auth.Type == models.AuthBearer {
		req.Header.Set("Authorization", "Bearer "+n.Auth.Token)
	}
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.client.Do(req)
	res.LatencyMs = float64(time.Since(start).Microseconds()) / 1000.0

	if err != nil {
		res.Error = p.classifyTransportError(ctx, n, err)
		if p.icmp && res.Error.Kind == models.ErrKindUnreachable {
			if stats, perr := pingHost(ctx, n.Host()); perr == nil {
				res.Details = map[string]any{"icmp": stats}
			}
		}
		return res, "", nil
	}
	defer resp.Body.Close()

	res.HTTPStatus = resp.StatusCode
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		res.Reachable = true
		res.Error = &models.ProbeError{
			Kind:   models.ErrKindUnauthorized,
			Reason: fmt.Sprintf("node rejected credentials (HTTP %d)", resp.StatusCode),
		}
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		res.Reachable = true
		// Payload decode is best effort: a node that answers 200 with a
		// non-JSON body is still reachable.
		if len(raw) > 0 {
			var payload map[string]any
			if json.Unmarshal(raw, &payload) == nil {
				res.Payload = payload
			}
		}
	default:
		res.Reachable = true
	}

	return res, resp.Header.Get("Content-Type"), raw
}

// classifyTransportError maps a client.Do failure onto a probe error kind.
func (p *Prober) classifyTransportError(ctx context.Context, n *models.Node, err error) *models.ProbeError {
	switch {
	case errors.Is(err, netguard.ErrBlocked):
		// Rejected at dial time (DNS rebinding or a redirect target).
		return &models.ProbeError{
			Kind:   models.ErrKindUnreachable,
			Reason: netguard.BlockedReason,
		}
	case errors.Is(err, context.DeadlineExceeded) || isTimeout(err):
		return &models.ProbeError{
			Kind:   models.ErrKindUnreachable,
			Reason: fmt.Sprintf("timeout after %s", p.timeout),
		}
	default:
		p.logger.Debug("probe transport error",
			zap.String("node_id", n.ID),
			zap.Error(err),
		)
		return &models.ProbeError{
			Kind:   models.ErrKindUnreachable,
			Reason: transportReason(err),
		}
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// transportReason unwraps url.Error so the reason is the underlying
// failure ("connection refused", "no such host") rather than the full
// request URL, which may embed credentials-adjacent detail.
func transportReason(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err.Error()
	}
	return err.Error()
}
