// Package scope keeps answers inside the declared taxonomy. It runs before
// any generation call so rejected questions cost nothing.
package scope

import (
	"einvoice-assistant-be/pkg/store"
	"einvoice-assistant-be/pkg/taxonomy"
)

// Reason explains an OutOfScope verdict.
type Reason string

const (
	// ReasonNoMatch: nothing in the question relates to the supported data.
	ReasonNoMatch Reason = "no_match"
	// ReasonUnknownTable: the candidate names a table that does not exist.
	ReasonUnknownTable Reason = "unknown_table"
	// ReasonDomainNotPermitted: the table exists but does not cover the domain.
	ReasonDomainNotPermitted Reason = "domain_not_permitted"
)

// Verdict is either Allowed or OutOfScope.
type Verdict interface {
	verdict()
}

type Allowed struct {
	Candidate store.Candidate
}

type OutOfScope struct {
	Reason    Reason
	Candidate *store.Candidate
	// Supported lists the domains the candidate's table does cover, or every
	// domain when no table applies.
	Supported []string
}

func (Allowed) verdict()    {}
func (OutOfScope) verdict() {}

type Enforcer struct {
	taxonomy *taxonomy.Taxonomy
}

func NewEnforcer(tx *taxonomy.Taxonomy) *Enforcer {
	return &Enforcer{taxonomy: tx}
}

// Enforce checks a candidate against the taxonomy. A nil candidate is the
// no-match case.
func (e *Enforcer) Enforce(c *store.Candidate) Verdict {
	if c == nil {
		return OutOfScope{Reason: ReasonNoMatch, Supported: e.allDomains()}
	}
	if _, ok := e.taxonomy.Table(c.TableID); !ok {
		cp := *c
		return OutOfScope{Reason: ReasonUnknownTable, Candidate: &cp, Supported: e.allDomains()}
	}
	if !e.taxonomy.Permits(c.TableID, c.DomainID) {
		cp := *c
		return OutOfScope{
			Reason:    ReasonDomainNotPermitted,
			Candidate: &cp,
			Supported: e.taxonomy.PermittedDomains(c.TableID),
		}
	}
	return Allowed{Candidate: *c}
}

func (e *Enforcer) allDomains() []string {
	domains := e.taxonomy.Domains()
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		out = append(out, d.ID)
	}
	return out
}
