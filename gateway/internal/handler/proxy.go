package handler

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// hopHeaders are connection-scoped and must never be relayed by an
// intermediary; the transport recomputes or omits them itself.
var hopHeaders = map[string]struct{}{
	"connection":          {},
	"keep-alive":          {},
	"proxy-authenticate":  {},
	"proxy-authorization": {},
	"te":                  {},
	"trailer":             {},
	"transfer-encoding":   {},
	"upgrade":             {},
	"content-length":      {},
}

// Proxy forwards requests verbatim to named upstreams. It holds no business
// state; targets are resolved from configuration by name.
type Proxy struct {
	targets    map[string]string
	httpClient *http.Client
}

func NewProxy(targets map[string]string) *Proxy {
	// No client timeout: bodies stream in both directions and large
	// payloads must not be cut off mid-transfer. Cancellation comes from
	// the inbound request context instead.
	return &Proxy{
		targets:    targets,
		httpClient: &http.Client{},
	}
}

// Forward sends the inbound request to the named target, streaming the body
// both ways and copying every header except the hop-by-hop set. Any
// transport-level failure becomes a 503 naming the unreachable target.
func (p *Proxy) Forward(c *gin.Context, target, upstreamPath string) {
	base, ok := p.targets[target]
	if !ok || base == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": fmt.Sprintf("upstream %q is not configured", target)})
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, base+upstreamPath, c.Request.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build upstream request"})
		return
	}
	req.ContentLength = c.Request.ContentLength

	for key, values := range c.Request.Header {
		if _, hop := hopHeaders[strings.ToLower(key)]; hop {
			continue
		}
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		log.Printf("[Proxy] %s %s -> %s failed: %v", c.Request.Method, c.Request.URL.Path, target, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": fmt.Sprintf("upstream %q is unavailable", target)})
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		if _, hop := hopHeaders[strings.ToLower(key)]; hop {
			continue
		}
		for _, v := range values {
			c.Writer.Header().Add(key, v)
		}
	}

	c.Status(resp.StatusCode)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		// Headers are already sent; all that is left is to log.
		log.Printf("[Proxy] Streaming response from %s failed: %v", target, err)
	}
}
