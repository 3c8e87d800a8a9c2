package evmodel

import "sync/atomic"

// domainCounter backs AllocateDomain. Domains are handed out from a single
// monotonically increasing counter for the lifetime of the process, mirroring
// the original daemon's domain tracker singleton (see DESIGN.md).
var domainCounter uint64

// AllocateDomain returns a Domain that has never been returned before and
// never will be again during this process's lifetime. Safe for concurrent
// use.
func AllocateDomain() Domain {
	return Domain(atomic.AddUint64(&domainCounter, 1))
}

// NamedDomains resolves human-assigned domain names (e.g. the "@keyboard"
// suffix of a key argument) to a stable Domain, handing out the same Domain
// for the same name within one process's lifetime.
type NamedDomains struct {
	byName map[string]Domain
}

func NewNamedDomains() *NamedDomains {
	return &NamedDomains{byName: make(map[string]Domain)}
}

func (n *NamedDomains) Resolve(name string) Domain {
	if d, ok := n.byName[name]; ok {
		return d
	}
	d := AllocateDomain()
	n.byName[name] = d
	return d
}

// TryReverseResolve returns the name a domain was registered under, for
// --print's domain=... suffix, if it was ever named at all.
func (n *NamedDomains) TryReverseResolve(domain Domain) (string, bool) {
	for name, d := range n.byName {
		if d == domain {
			return name, true
		}
	}
	return "", false
}
