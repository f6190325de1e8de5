package redis

import "strings"

const namespace = "sf"

// key joins non-empty parts under the storefront namespace.
func key(parts ...string) string {
	b := strings.Builder{}
	b.WriteString(namespace)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}

// IdempotencyKey namespaces a client Idempotency-Key within its request scope.
func (c *Client) IdempotencyKey(scope, id string) string {
	return key("idem", scope, id)
}

// RateLimitKey names a fixed-window counter for one policy and subject.
func (c *Client) RateLimitKey(policy, subject string) string {
	return key("rl", policy, subject)
}

// SessionKey names the live-session marker for an access token jti.
func (c *Client) SessionKey(accessID string) string {
	return key("session", accessID)
}
