// Package address turns optional client input into normalized,
// collision-free inbox addresses on the server's allowed domains.
package address

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultRandomBytes is the random local-part length in bytes when
	// the configuration does not supply a usable value.
	DefaultRandomBytes = 5
	// MinRandomBytes and MaxRandomBytes bound the configured value.
	MinRandomBytes = 3
	MaxRandomBytes = 16

	// maxLocalPartLen bounds the base local part after tag stripping.
	maxLocalPartLen = 64
)

var (
	// ErrDomainNotAllowed is returned when the requested domain is not in
	// the allowed-domain set.
	ErrDomainNotAllowed = errors.New("domain not allowed")

	// ErrInvalidLocalPart is returned when the requested local part fails
	// validation. The error text names the offending local part.
	ErrInvalidLocalPart = errors.New("invalid local part")
)

// Resolver validates and normalizes inbox addresses. It is immutable
// after construction and safe for concurrent use.
type Resolver struct {
	domains     []string // lowercased, order preserved; first is the default
	domainSet   map[string]struct{}
	randomBytes int
}

// NewResolver creates a resolver for the given allowed domains.
// randomBytes is clamped to [MinRandomBytes, MaxRandomBytes]; a
// non-positive value falls back to DefaultRandomBytes.
func NewResolver(domains []string, randomBytes int) (*Resolver, error) {
	if len(domains) == 0 {
		return nil, errors.New("at least one allowed domain is required")
	}

	if randomBytes <= 0 {
		randomBytes = DefaultRandomBytes
	} else if randomBytes < MinRandomBytes {
		randomBytes = MinRandomBytes
	} else if randomBytes > MaxRandomBytes {
		randomBytes = MaxRandomBytes
	}

	r := &Resolver{
		domains:     make([]string, 0, len(domains)),
		domainSet:   make(map[string]struct{}, len(domains)),
		randomBytes: randomBytes,
	}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if _, ok := r.domainSet[d]; ok {
			continue
		}
		r.domains = append(r.domains, d)
		r.domainSet[d] = struct{}{}
	}
	if len(r.domains) == 0 {
		return nil, errors.New("at least one allowed domain is required")
	}

	return r, nil
}

// Domains returns the allowed domains in configuration order.
func (r *Resolver) Domains() []string {
	return append([]string(nil), r.domains...)
}

// Resolve turns optional client input into a normalized address.
//
//   - empty input: a random local part on the first allowed domain
//   - "local@domain": domain checked against the allowed set, at most one
//     "+tag" stripped from the local part, the base local part validated
//   - "domain" (no "@"): domain checked, random local part generated
//
// The result is always lowercase.
func (r *Resolver) Resolve(input string) (string, error) {
	input = strings.ToLower(strings.TrimSpace(input))

	if input == "" {
		return r.RandomAddress(r.domains[0])
	}

	if !strings.Contains(input, "@") {
		if !r.DomainAllowed(input) {
			return "", fmt.Errorf("%w: %q", ErrDomainNotAllowed, input)
		}
		return r.RandomAddress(input)
	}

	at := strings.LastIndex(input, "@")
	local, domain := input[:at], input[at+1:]

	if !r.DomainAllowed(domain) {
		return "", fmt.Errorf("%w: %q", ErrDomainNotAllowed, domain)
	}

	base, err := stripTag(local)
	if err != nil {
		return "", err
	}
	if err := validateLocalPart(base); err != nil {
		return "", err
	}

	return base + "@" + domain, nil
}

// RandomAddress generates a fresh hex local part on the given domain.
// The domain must already be validated; used by the registry for its
// collision retry loop.
func (r *Resolver) RandomAddress(domain string) (string, error) {
	buf := make([]byte, r.randomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate local part: %w", err)
	}
	return hex.EncodeToString(buf) + "@" + strings.ToLower(domain), nil
}

// DomainAllowed reports whether the domain is in the allowed set,
// case-insensitively.
func (r *Resolver) DomainAllowed(domain string) bool {
	_, ok := r.domainSet[strings.ToLower(domain)]
	return ok
}

// stripTag removes a single "+tag" suffix from the local part, so that
// "user+tag@d" and "user@d" share one inbox. More than one "+" fails.
func stripTag(local string) (string, error) {
	switch strings.Count(local, "+") {
	case 0:
		return local, nil
	case 1:
		return local[:strings.Index(local, "+")], nil
	default:
		return "", fmt.Errorf("%w: %q: multiple '+' tags", ErrInvalidLocalPart, local)
	}
}

// validateLocalPart checks the base local part: alphanumeric first and
// last characters, interior restricted to alphanumeric plus ".-_", no
// consecutive dots, bounded length.
func validateLocalPart(local string) error {
	if local == "" {
		return fmt.Errorf("%w: empty local part", ErrInvalidLocalPart)
	}
	if len(local) > maxLocalPartLen {
		return fmt.Errorf("%w: %q: longer than %d characters", ErrInvalidLocalPart, local, maxLocalPartLen)
	}
	if !isAlnum(local[0]) || !isAlnum(local[len(local)-1]) {
		return fmt.Errorf("%w: %q: must start and end with a letter or digit", ErrInvalidLocalPart, local)
	}
	if strings.Contains(local, "..") {
		return fmt.Errorf("%w: %q: consecutive dots", ErrInvalidLocalPart, local)
	}
	for i := 0; i < len(local); i++ {
		c := local[i]
		if isAlnum(c) || c == '.' || c == '-' || c == '_' {
			continue
		}
		return fmt.Errorf("%w: %q: character %q not allowed", ErrInvalidLocalPart, local, c)
	}
	return nil
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}
