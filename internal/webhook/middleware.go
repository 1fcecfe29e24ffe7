package webhook

import (
	"net/url"
	"strings"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const (
	HeaderAPIKey     = "X-Webhook-API-Key"
	contextKeyAPIKey = "webhookKey"
)

// APIKeyAuth resolves the X-Webhook-API-Key header to an active key and
// checks the caller's origin against the key's allowed domains.
func APIKeyAuth(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			origin = c.GetHeader("Referer")
		}
		key, err := svc.Authenticate(c.Request.Context(), c.GetHeader(HeaderAPIKey), origin)
		if err != nil {
			httpkit.HandleError(c, err)
			c.Abort()
			return
		}
		c.Set(contextKeyAPIKey, key)
		c.Next()
	}
}

func keyFromContext(c *gin.Context) (APIKey, error) {
	v, ok := c.Get(contextKeyAPIKey)
	if !ok {
		return APIKey{}, apperr.Unauthorized("missing API key")
	}
	return v.(APIKey), nil
}

// isDomainAllowed matches the origin host against exact domains, "*" and
// wildcard subdomains such as "*.example.com".
func isDomainAllowed(origin string, allowedDomains []string) bool {
	host := originHost(origin)
	if host == "" {
		return false
	}

	for _, domain := range allowedDomains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		switch {
		case domain == "*":
			return true
		case strings.HasPrefix(domain, "*."):
			if strings.HasSuffix(host, domain[1:]) || host == domain[2:] {
				return true
			}
		case host == domain:
			return true
		}
	}
	return false
}

func originHost(origin string) string {
	if origin == "" {
		return ""
	}
	parsed, err := url.Parse(origin)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}
