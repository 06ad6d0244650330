package markdown

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	classNames    = regexp.MustCompile(`^[A-Za-z0-9_ -]+$`)
	directiveType = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
	sandboxTokens = regexp.MustCompile(`^[a-z -]+$`)
	loadingValues = regexp.MustCompile(`^(lazy|eager)$`)
	// Attribute values are re-escaped on output; only control characters and
	// angle brackets are refused.
	titleText = regexp.MustCompile(`^[^\x00-\x1f<>]*$`)
)

// newSanitizePolicy extends the user generated content policy with the
// markup the preprocessor and renderer emit: container divs, heading ids,
// code block headers and iframes pointing at allow-listed hosts.
func newSanitizePolicy(embeds *EmbedPolicy) *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()

	policy.AllowAttrs("class").Matching(classNames).Globally()
	policy.AllowAttrs("id").Matching(bluemonday.Paragraph).OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	policy.AllowAttrs("data-type").Matching(directiveType).OnElements("div")
	policy.AllowAttrs("data-title").Matching(titleText).OnElements("div")
	policy.AllowElements("div", "details", "summary")

	policy.AllowAttrs("src").Matching(embedSourcePattern(embeds)).OnElements("iframe")
	policy.AllowAttrs("title").Matching(titleText).OnElements("iframe")
	policy.AllowAttrs("loading").Matching(loadingValues).OnElements("iframe")
	policy.AllowAttrs("sandbox").Matching(sandboxTokens).OnElements("iframe")
	policy.AllowAttrs("allowfullscreen").OnElements("iframe")

	return policy
}

// embedSourcePattern matches https URLs on the policy hosts or their
// subdomains.
func embedSourcePattern(embeds *EmbedPolicy) *regexp.Regexp {
	hosts := embeds.list()
	quoted := make([]string, 0, len(hosts))
	for _, host := range hosts {
		quoted = append(quoted, regexp.QuoteMeta(host))
	}
	return regexp.MustCompile(`^https://([A-Za-z0-9-]+\.)*(` + strings.Join(quoted, "|") + `)(:[0-9]+)?([/?#][^\s"'<>]*)?$`)
}
