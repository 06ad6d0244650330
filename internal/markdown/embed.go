package markdown

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// DefaultEmbedHosts lists the sites whose pages may be embedded through the
// iframe directive. Subdomains of each entry are accepted too.
var DefaultEmbedHosts = []string{
	"codepen.io",
	"codesandbox.io",
	"stackblitz.com",
	"jsfiddle.net",
	"github.com",
	"gist.github.com",
}

var (
	ErrEmbedURLInvalid       = errors.New("markdown embed: url is not absolute")
	ErrEmbedSchemeNotAllowed = errors.New("markdown embed: scheme must be https")
	ErrEmbedHostNotAllowed   = errors.New("markdown embed: host is not allow-listed")
)

// EmbedPolicy decides which URLs may be embedded.
type EmbedPolicy struct {
	hosts []string
}

// NewEmbedPolicy builds a policy for hosts, or for DefaultEmbedHosts when no
// host is given. Entries are lowercased; a leading "*." or "." is ignored.
func NewEmbedPolicy(hosts ...string) *EmbedPolicy {
	normalized := make([]string, 0, len(hosts))
	seen := map[string]struct{}{}
	for _, host := range hosts {
		host = strings.ToLower(strings.TrimSpace(host))
		host = strings.TrimPrefix(host, "*")
		host = strings.Trim(host, ".")
		if host == "" {
			continue
		}
		if _, ok := seen[host]; ok {
			continue
		}
		seen[host] = struct{}{}
		normalized = append(normalized, host)
	}
	if len(normalized) == 0 {
		normalized = append(normalized, DefaultEmbedHosts...)
	}
	return &EmbedPolicy{hosts: normalized}
}

// Hosts returns a copy of the allow-list.
func (p *EmbedPolicy) Hosts() []string {
	return append([]string(nil), p.list()...)
}

// Allowed reports whether raw passes Validate.
func (p *EmbedPolicy) Allowed(raw string) bool {
	return p.Validate(raw) == nil
}

// Validate returns nil when raw is an absolute https URL on an allow-listed
// host. It never panics.
func (p *EmbedPolicy) Validate(raw string) error {
	candidate := strings.TrimSpace(raw)
	if candidate == "" || strings.IndexFunc(candidate, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) >= 0 {
		return fmt.Errorf("%w: %q", ErrEmbedURLInvalid, raw)
	}

	parsed, err := url.Parse(candidate)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return fmt.Errorf("%w: %q", ErrEmbedURLInvalid, raw)
	}
	if parsed.Scheme != "https" {
		return fmt.Errorf("%w: %q", ErrEmbedSchemeNotAllowed, parsed.Scheme)
	}

	host := strings.TrimSuffix(strings.ToLower(parsed.Hostname()), ".")
	for _, allowed := range p.list() {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrEmbedHostNotAllowed, host)
}

func (p *EmbedPolicy) list() []string {
	if p == nil || len(p.hosts) == 0 {
		return DefaultEmbedHosts
	}
	return p.hosts
}
