// Package aiproxy forwards /api/copilotkit/* to the external AI-completion
// collaborator. The gateway treats that service as opaque: bodies pass
// through untouched in both directions (including streamed responses), and
// the only transformation is injecting the server-held API key so it never
// reaches the browser.
package aiproxy

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Proxy streams AI-completion traffic to a fixed upstream.
type Proxy struct {
	rp     *httputil.ReverseProxy
	logger zerolog.Logger
}

// New builds a proxy for upstreamURL. apiKey, when set, replaces the
// caller's Authorization header on the way out.
func New(upstreamURL, apiKey string, logger zerolog.Logger) (*Proxy, error) {
	target, err := url.Parse(upstreamURL)
	if err != nil {
		return nil, err
	}

	rp := &httputil.ReverseProxy{
		// FlushInterval < 0 flushes immediately, which keeps server-sent
		// completion streams flowing token by token.
		FlushInterval: -1,
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.Out.URL.Path = strings.TrimPrefix(pr.In.URL.Path, "/api/copilotkit")
			if pr.Out.URL.Path == "" {
				pr.Out.URL.Path = "/"
			}
			pr.Out.Host = target.Host
			if apiKey != "" {
				pr.Out.Header.Set("Authorization", "Bearer "+apiKey)
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error().Err(err).Str("path", r.URL.Path).Msg("ai proxy upstream failure")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"success":false,"error":"AI assistant temporarily unavailable","code":"AI_UPSTREAM_ERROR"}`))
		},
	}

	return &Proxy{rp: rp, logger: logger}, nil
}

// Handler adapts the proxy for echo routes.
func (p *Proxy) Handler(c echo.Context) error {
	p.rp.ServeHTTP(c.Response(), c.Request())
	return nil
}

// RegisterRoutes mounts the proxy under /api/copilotkit.
func (p *Proxy) RegisterRoutes(api *echo.Group) {
	api.Any("/copilotkit", p.Handler)
	api.Any("/copilotkit/*", p.Handler)
}
