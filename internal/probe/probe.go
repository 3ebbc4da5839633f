// Package probe sends one chat-completion request to an LLM provider and
// prints the full request/response cycle for human inspection.
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds the single HTTP call.
const DefaultTimeout = 30 * time.Second

// Request describes one probe.
type Request struct {
	APIURL   string
	APIKey   string
	Model    string
	Prompt   string
	Provider Provider
}

// Result is the response observed by a probe.
type Result struct {
	StatusCode int
	Reason     string
	Elapsed    time.Duration
	Header     http.Header
	Body       []byte
	Reply      string
}

// OK reports whether the upstream answered with HTTP 200.
func (r *Result) OK() bool {
	return r != nil && r.StatusCode == http.StatusOK
}

// ReplyRenderer formats the extracted assistant reply for display.
type ReplyRenderer func(text string) (string, error)

// Option configures a Prober.
type Option func(*Prober)

// WithHTTPClient sets the HTTP client used for the call.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Prober) {
		if client != nil {
			p.client = client
		}
	}
}

// WithOutput sets where the transcript is written. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(p *Prober) {
		if w != nil {
			p.out = w
		}
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithClock sets the clock used for banner timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Prober) {
		if now != nil {
			p.now = now
		}
	}
}

// WithReplyRenderer renders the assistant reply before printing it.
func WithReplyRenderer(render ReplyRenderer) Option {
	return func(p *Prober) {
		p.render = render
	}
}

// WithRawBody also prints the response body exactly as received, quoted,
// ahead of the formatted body.
func WithRawBody(enabled bool) Option {
	return func(p *Prober) {
		p.rawBody = enabled
	}
}

// Prober runs probes. A Prober holds no per-probe state and may be reused.
type Prober struct {
	client  *http.Client
	out     io.Writer
	timeout time.Duration
	now     func() time.Time
	render  ReplyRenderer
	rawBody bool
}

// New constructs a Prober.
func New(opts ...Option) *Prober {
	p := &Prober{
		client:  &http.Client{},
		out:     os.Stdout,
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run probes the endpoint and reports whether it answered with HTTP 200.
// Every failure is printed to the transcript rather than returned.
func (p *Prober) Run(ctx context.Context, req Request) bool {
	_, err := p.Probe(ctx, req)
	return err == nil
}

// Probe performs a single request and prints its transcript. The returned
// error is a *Error for every failed outcome; a non-200 response yields both
// a Result and an error.
func (p *Prober) Probe(ctx context.Context, req Request) (res *Result, err error) {
	t := newTranscript(p.out, p.rawBody)
	defer func() {
		t.footer(p.now())
	}()
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &Error{Kind: KindUnexpected, Err: fmt.Errorf("%v", r)}
			t.failure("unexpected error: %v", r)
			t.println(string(debug.Stack()))
			log.Error().Err(err).Msg("probe panicked")
		}
	}()

	t.banner("AI API probe started", p.now())
	t.inputs(req)

	entry, ok := providers[req.Provider]
	if !ok {
		t.printf("unsupported provider: %s\n", req.Provider)
		return nil, &Error{Kind: KindUnsupportedProvider, Err: fmt.Errorf("provider %q", req.Provider)}
	}

	payload := entry.payload(req.Model, req.Prompt)
	body, err := encodeJSON(payload, false)
	if err != nil {
		t.failure("unexpected error: %v", err)
		return nil, &Error{Kind: KindUnexpected, Err: fmt.Errorf("encode payload: %w", err)}
	}
	shown, err := encodeJSON(payload, true)
	if err != nil {
		t.failure("unexpected error: %v", err)
		return nil, &Error{Kind: KindUnexpected, Err: fmt.Errorf("encode payload: %w", err)}
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Authorization", "Bearer "+req.APIKey)

	shownHeader := header.Clone()
	shownHeader.Set("Authorization", "Bearer "+RedactKey(req.APIKey))
	t.request(shownHeader, shown)

	res, err = p.send(ctx, req.APIURL, header, body)
	if err != nil {
		p.reportTransportError(t, err)
		return nil, err
	}
	t.response(res)

	if !res.OK() {
		t.failure("API probe failed, status code: %d", res.StatusCode)
		return res, &Error{Kind: KindStatus, StatusCode: res.StatusCode}
	}

	res.Reply = entry.reply(res.Body)
	if res.Reply != "" {
		t.reply(p.renderReply(res.Reply))
	}
	t.success()
	return res, nil
}

func (p *Prober) send(ctx context.Context, url string, header http.Header, body []byte) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindRequest, Err: fmt.Errorf("build request: %w", err)}
	}
	httpReq.Header = header

	log.Debug().Str("url", url).Int("body_bytes", len(body)).Msg("sending probe request")
	start := time.Now()
	resp, err := p.client.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		return nil, &Error{Kind: classify(err), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: classify(err), Err: fmt.Errorf("read response body: %w", err)}
	}
	log.Debug().
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Int("body_bytes", len(respBody)).
		Msg("probe response received")

	return &Result{
		StatusCode: resp.StatusCode,
		Reason:     reasonPhrase(resp),
		Elapsed:    elapsed,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

func (p *Prober) reportTransportError(t *transcript, err error) {
	kind := KindOf(err)
	log.Debug().Err(err).Str("kind", kind.String()).Msg("probe request failed")

	switch kind {
	case KindTimeout:
		t.failure("request timed out: the server did not respond within %s", p.timeout)
	case KindConnection:
		t.failure("connection error, could not reach the API server: %v", unwrapCause(err))
		t.println("Check that the API URL is correct and the network is reachable.")
	default:
		t.failure("request failed: %v", unwrapCause(err))
	}
}

func (p *Prober) renderReply(text string) string {
	if p.render == nil {
		return text
	}
	out, err := p.render(text)
	if err != nil {
		log.Warn().Err(err).Msg("render reply")
		return text
	}
	return out
}

func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}

func unwrapCause(err error) error {
	var pe *Error
	if errors.As(err, &pe) && pe.Err != nil {
		return pe.Err
	}
	return err
}
