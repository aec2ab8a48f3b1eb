package dnsverify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

var (
	ErrDNSLookupFailed = errors.New("dns lookup failed")
	ErrInvalidInput    = errors.New("invalid domain")
	ErrSPFNotFound     = errors.New("spf record not found")
	ErrSPFMismatch     = errors.New("spf record does not authorize sender")
	ErrMXNotFound      = errors.New("mx record not found")
)

// DefaultConcurrency bounds parallel lookups in CheckDomains.
const DefaultConcurrency = 8

// Resolver is the subset of *net.Resolver used by this package.
type Resolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// Domain returns the lowercased domain part of an email address, or "".
func Domain(address string) string {
	at := strings.LastIndexByte(address, '@')
	if at == -1 || at == len(address)-1 {
		return ""
	}
	return normalize(address[at+1:])
}

// VerifySPF checks that domain publishes an SPF record. When include is set,
// the record must also contain the "include:<include>" mechanism.
func VerifySPF(ctx context.Context, r Resolver, domain, include string) error {
	domain = normalize(domain)
	if domain == "" {
		return ErrInvalidInput
	}

	records, err := r.LookupTXT(ctx, domain)
	if err != nil {
		if notFound(err) {
			return ErrSPFNotFound
		}
		return fmt.Errorf("%w: %v", ErrDNSLookupFailed, err)
	}

	for _, record := range records {
		record = strings.ToLower(strings.TrimSpace(record))
		if !strings.HasPrefix(record, "v=spf1") {
			continue
		}
		if include == "" || strings.Contains(record, "include:"+normalize(include)) {
			return nil
		}
		return ErrSPFMismatch
	}
	return ErrSPFNotFound
}

// HasMX checks that domain accepts mail. A domain without MX records but with
// an A record is not accepted here, most providers require MX.
func HasMX(ctx context.Context, r Resolver, domain string) error {
	domain = normalize(domain)
	if domain == "" {
		return ErrInvalidInput
	}

	records, err := r.LookupMX(ctx, domain)
	if err != nil {
		if notFound(err) {
			return ErrMXNotFound
		}
		return fmt.Errorf("%w: %v", ErrDNSLookupFailed, err)
	}
	for _, mx := range records {
		// "." is a null MX: the domain explicitly accepts no mail.
		if mx != nil && mx.Host != "." && mx.Host != "" {
			return nil
		}
	}
	return ErrMXNotFound
}

// CheckDomains runs HasMX for every distinct domain and returns the failures
// keyed by domain. Lookups run concurrently, at most concurrency at a time.
func CheckDomains(ctx context.Context, r Resolver, domains []string, concurrency int) map[string]error {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	seen := make(map[string]struct{}, len(domains))
	unique := make([]string, 0, len(domains))
	for _, d := range domains {
		d = normalize(d)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		unique = append(unique, d)
	}
	sort.Strings(unique)

	var (
		mu     sync.Mutex
		failed = make(map[string]error)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, d := range unique {
		g.Go(func() error {
			if err := HasMX(gctx, r, d); err != nil {
				mu.Lock()
				failed[d] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return failed
}

func normalize(domain string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
}

func notFound(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr) && dnsErr.IsNotFound
}
