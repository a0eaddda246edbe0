package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"
)

// ScriptLoader acquires the hosted widget script once. A failed attempt is not
// remembered, so the next Load tries again.
type ScriptLoader struct {
	url        string
	httpClient *http.Client
	log        log.FieldLogger

	mu     sync.Mutex
	script []byte
}

func NewScriptLoader(url string, httpClient *http.Client, logger log.FieldLogger) *ScriptLoader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &ScriptLoader{
		url:        url,
		httpClient: httpClient,
		log:        logger.WithField("component", "gateway-script"),
	}
}

func (l *ScriptLoader) URL() string { return l.url }

func (l *ScriptLoader) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.script != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		l.log.WithError(err).Warn("Failed to fetch widget script")
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		l.log.WithField("status", resp.StatusCode).Warn("Widget script request rejected")
		return fmt.Errorf("%w: script responded %s", ErrUnavailable, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(body) == 0 {
		return fmt.Errorf("%w: empty script", ErrUnavailable)
	}

	l.script = body
	l.log.WithField("bytes", len(body)).Debug("Widget script loaded")
	return nil
}

func (l *ScriptLoader) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.script != nil
}

// Script returns the loaded script, or nil before a successful Load.
func (l *ScriptLoader) Script() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.script
}
