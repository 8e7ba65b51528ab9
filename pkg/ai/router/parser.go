package router

import (
	"strings"
)

// Prefix constants. A directive must be the first word of the prompt.
const (
	PrefixTable  = "/table:"
	PrefixDomain = "/domain:"
)

// ParsedPrompt contains routing directives extracted from a prompt
type ParsedPrompt struct {
	OriginalPrompt string // Full original prompt
	CleanPrompt    string // Prompt without directives
	TableID        string // Explicit table, if any
	DomainID       string // Explicit domain, if any
}

// Parse extracts routing directives from a prompt.
// Supports:
//   - /table:invoices <prompt>               → route to a table
//   - /domain:fraud_detection <prompt>       → route to a domain
//   - /table:items /domain:revenue_analysis  → both, in any order
//   - <prompt>                               → no directive
//
// Unknown ids are kept as typed; scope enforcement rejects them later.
func Parse(prompt string) *ParsedPrompt {
	parsed := &ParsedPrompt{OriginalPrompt: prompt}
	rest := strings.TrimSpace(prompt)

	for {
		lower := strings.ToLower(rest)
		switch {
		case strings.HasPrefix(lower, PrefixTable) && parsed.TableID == "":
			parsed.TableID, rest = extractKeyAndPrompt(rest[len(PrefixTable):])
		case strings.HasPrefix(lower, PrefixDomain) && parsed.DomainID == "":
			parsed.DomainID, rest = extractKeyAndPrompt(rest[len(PrefixDomain):])
		default:
			parsed.CleanPrompt = rest
			return parsed
		}
	}
}

// extractKeyAndPrompt splits "key prompt" into (key, prompt)
func extractKeyAndPrompt(rest string) (string, string) {
	spaceIdx := strings.Index(rest, " ")
	if spaceIdx == -1 {
		// No space: entire rest is the key, no prompt
		return strings.ToLower(rest), ""
	}
	return strings.ToLower(rest[:spaceIdx]), strings.TrimSpace(rest[spaceIdx+1:])
}

// HasDirective reports whether the prompt named a table or domain explicitly.
func (p *ParsedPrompt) HasDirective() bool {
	return p.TableID != "" || p.DomainID != ""
}

// IsEmpty returns true if the clean prompt is empty
func (p *ParsedPrompt) IsEmpty() bool {
	return strings.TrimSpace(p.CleanPrompt) == ""
}
