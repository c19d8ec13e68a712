package proxy

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"wallgraph/internal/common/logging"
)

// ============================================================
// Proxy Handler
// ============================================================

// hopHeaders are connection-scoped and never forwarded.
var hopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
	"Content-Length":      true,
}

type Proxy struct {
	upstream string
	prefix   string
	client   *http.Client
	logger   *zap.Logger
}

// New forwards requests under prefix to upstream with the prefix stripped.
func New(upstream, prefix string, timeout time.Duration, logger *zap.Logger) *Proxy {
	return &Proxy{
		upstream: strings.TrimRight(upstream, "/"),
		prefix:   prefix,
		client:   &http.Client{Timeout: timeout},
		logger:   logging.OrNop(logger),
	}
}

// Handler forwards the request upstream, keeping its method, body and query.
func (p *Proxy) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		return p.forward(c, p.target(c))
	}
}

func (p *Proxy) target(c fiber.Ctx) string {
	target := p.upstream + strings.TrimPrefix(c.Path(), p.prefix)
	if q := string(c.Request().URI().QueryString()); q != "" {
		target += "?" + q
	}
	return target
}

// forward sends the body as-is. A multipart body keeps its boundary because
// Content-Type is copied verbatim.
func (p *Proxy) forward(c fiber.Ctx, target string) error {
	p.logger.Debug("proxy request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.String("target", target),
		zap.Int("bytes", len(c.Body())),
	)

	req, err := http.NewRequestWithContext(c.Context(), c.Method(), target, bytes.NewReader(c.Body()))
	if err != nil {
		p.logger.Error("proxy build request", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "proxy failed"})
	}

	c.Request().Header.VisitAll(func(key, value []byte) {
		k := string(key)
		if !hopHeaders[http.CanonicalHeaderKey(k)] {
			req.Header.Add(k, string(value))
		}
	})
	req.Header.Set("X-Forwarded-For", c.IP())

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Warn("upstream unreachable", zap.String("target", target), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "failed to reach upstream service"})
	}
	defer resp.Body.Close()

	return p.copyResponse(c, resp)
}

func (p *Proxy) copyResponse(c fiber.Ctx, resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		p.logger.Warn("upstream response unreadable", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "invalid upstream response"})
	}

	for key, values := range resp.Header {
		if hopHeaders[key] || len(values) == 0 {
			continue
		}
		c.Set(key, values[0])
	}

	c.Status(resp.StatusCode)
	return c.Send(data)
}
