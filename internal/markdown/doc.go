// Package markdown renders blog articles. A Preprocessor rewrites the
// extended article syntax (::: containers, iframe embeds, [title] fence
// suffixes) into plain Markdown plus marker HTML, and GoldmarkParser turns
// the result into HTML with stable heading ids and titled code blocks.
package markdown
