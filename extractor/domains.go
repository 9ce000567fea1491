package extractor

import (
	"math/rand"
	"sync"

	"bunkrfetch/internal"
)

// DefaultRoot is used for links on legacy domains, which are never valid
// request targets on their own.
const DefaultRoot = "https://bunkr.si"

// DefaultDomains lists hostnames currently serving content and eligible
// for fallback rotation.
var DefaultDomains = []string{
	"bunkr.ac",
	"bunkr.ci",
	"bunkr.cr",
	"bunkr.fi",
	"bunkr.ph",
	"bunkr.pk",
	"bunkr.ps",
	"bunkr.si",
	"bunkr.sk",
	"bunkr.ws",
	"bunkr.black",
	"bunkr.red",
	"bunkr.media",
	"bunkr.site",
}

// LegacyDomains are recognized in input URLs but never auto-selected;
// requests for them go to DefaultRoot instead.
var LegacyDomains = []string{
	"bunkr.ax",
	"bunkr.cat",
	"bunkr.ru",
	"bunkrr.ru",
	"bunkr.su",
	"bunkrr.su",
	"bunkr.la",
	"bunkr.is",
	"bunkr.to",
}

// DomainPool tracks which hosting domains are usable. It is shared
// process-wide so a challenge discovered by one album pipeline benefits
// every later one; all methods are safe for concurrent use. Domains move
// from active to challenged exactly once and are never resurrected within
// a process lifetime.
type DomainPool struct {
	mu         sync.Mutex
	active     []string
	challenged map[string]struct{}
	legacy     map[string]struct{}
}

// NewDomainPool creates a pool from explicit domain lists. Tests use this
// to build isolated pools; production code uses NewDefaultDomainPool.
func NewDomainPool(active, legacy []string) *DomainPool {
	p := &DomainPool{
		active:     append([]string(nil), active...),
		challenged: make(map[string]struct{}),
		legacy:     make(map[string]struct{}, len(legacy)),
	}
	for _, d := range legacy {
		p.legacy[d] = struct{}{}
	}
	return p
}

// NewDefaultDomainPool creates a pool with the built-in domain lists
func NewDefaultDomainPool() *DomainPool {
	return NewDomainPool(DefaultDomains, LegacyDomains)
}

// PickFallback returns a uniformly random active domain. It fails with
// the fatal domain-exhaustion error when none remain.
func (p *DomainPool) PickFallback() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.active) == 0 {
		return "", internal.NewAllDomainsChallengedError()
	}
	return p.active[rand.Intn(len(p.active))], nil
}

// MarkChallenged moves a domain from active to challenged. Marking an
// already-challenged domain is a no-op. The error return is non-nil only
// when this call empties the active set, which is fatal for the run.
func (p *DomainPool) MarkChallenged(domain string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, done := p.challenged[domain]; done {
		return nil
	}
	p.challenged[domain] = struct{}{}

	for i, d := range p.active {
		if d != domain {
			continue
		}
		p.active = append(p.active[:i], p.active[i+1:]...)
		if len(p.active) == 0 {
			return internal.NewAllDomainsChallengedError()
		}
		break
	}
	return nil
}

// IsChallenged reports whether a domain is known to answer with a
// challenge
func (p *DomainPool) IsChallenged(domain string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, ok := p.challenged[domain]
	return ok
}

// IsLegacy reports whether a domain is usable only as an explicit target
func (p *DomainPool) IsLegacy(domain string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, ok := p.legacy[domain]
	return ok
}

// ActiveCount returns the number of domains still in rotation
func (p *DomainPool) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.active)
}
