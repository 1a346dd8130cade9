// Package target describes the system under inspection. A Context is built
// once at the CLI boundary and passed to every probe constructor; probes
// never reach for ambient state.
package target

import (
	"fmt"
	"net"
	"strings"
)

// Context identifies the target server and how to reach it. Immutable after
// construction.
type Context struct {
	Host       string
	Scheme     string
	SSHUser    string
	SSHKeyPath string
	APIToken   string
	Project    string
}

// BaseURL returns the target's HTTP base URL.
func (c Context) BaseURL() string {
	scheme := c.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s", scheme, c.Host)
}

// Validate rejects contexts that cannot possibly work. Called before any
// retry loop starts so misconfiguration fails fast instead of being retried.
func (c Context) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("target: host is required")
	}
	if strings.ContainsAny(c.Host, " /") {
		return fmt.Errorf("target: malformed host %q", c.Host)
	}
	if ip := net.ParseIP(c.Host); ip == nil {
		// Hostnames are fine, but a stray port or URL is a common mistake.
		if strings.Contains(c.Host, ":") {
			return fmt.Errorf("target: host %q must not include a port or scheme", c.Host)
		}
	}
	return nil
}
