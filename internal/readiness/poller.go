package readiness

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/learningequality/kolibri-desktop/internal/domain"
	"github.com/learningequality/kolibri-desktop/internal/version"
)

// Prober reports whether the server answered one probe.
type Prober interface {
	Probe(ctx context.Context) bool
}

// Sink receives the machine's UI effects. Implementations are expected to
// marshal calls onto the UI thread.
type Sink interface {
	Navigate(url string)
	ShowRetry()
	ShowError()
}

// HTTPProber probes the server root over HTTP. Any completed response
// counts as up: a 404 or 500 still proves the socket is answering, the
// same signal the upstream launcher accepted from its curl fallback.
type HTTPProber struct {
	url    string
	client *http.Client
}

// NewHTTPProber builds a prober for the server origin with a per-attempt
// timeout.
func NewHTTPProber(rootURL string, timeout time.Duration) *HTTPProber {
	return &HTTPProber{
		url:    rootURL,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProber) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", version.UserAgent())
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// Poller drives the readiness machine against the live server and pushes
// the resulting effects into the sink.
type Poller struct {
	machine  *Machine
	prober   Prober
	sink     Sink
	rootURL  string
	savedURL func() string
	log      zerolog.Logger
}

// NewPoller wires a machine to a prober and a UI sink. savedURL is
// consulted once, at navigation time; it may be nil.
func NewPoller(machine *Machine, prober Prober, sink Sink, rootURL string, savedURL func() string, log zerolog.Logger) *Poller {
	return &Poller{
		machine:  machine,
		prober:   prober,
		sink:     sink,
		rootURL:  rootURL,
		savedURL: savedURL,
		log:      log,
	}
}

// Run probes until the machine reaches a terminal state or ctx is
// canceled, and returns the final state. The first probe fires
// immediately; later ones follow the machine's interval.
func (p *Poller) Run(ctx context.Context) State {
	if p.step(ctx) {
		return p.machine.State()
	}
	ticker := time.NewTicker(p.machine.Interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return p.machine.State()
		case <-ticker.C:
			if p.step(ctx) {
				return p.machine.State()
			}
		}
	}
}

// step runs one probe, applies the transition, and reports whether the
// machine is done.
func (p *Poller) step(ctx context.Context) bool {
	transition := p.machine.Step(p.prober.Probe(ctx))
	switch transition.Effect {
	case EffectNavigate:
		url := p.targetURL()
		p.log.Info().Str("url", url).Msg("Kolibri server is up, loading app")
		p.sink.Navigate(url)
	case EffectShowRetry:
		p.log.Warn().Int("attempt", p.machine.Retries()).Msg("Kolibri server not starting, retrying...")
		p.sink.ShowRetry()
	case EffectShowError:
		p.log.Error().Msg("Kolibri server failed to start, giving up")
		p.sink.ShowError()
	default:
		p.log.Debug().Msg("Kolibri server not yet started, checking again in one second...")
	}
	return p.machine.Done()
}

// targetURL restores the saved URL when it is inside the server origin,
// else falls back to the server root.
func (p *Poller) targetURL() string {
	if p.savedURL != nil {
		if saved := p.savedURL(); domain.InOrigin(saved, p.rootURL) {
			return saved
		}
	}
	return p.rootURL
}
