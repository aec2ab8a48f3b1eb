package dnsverify_test

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bulkmail/pkg/dnsverify"
)

type fakeResolver struct {
	txt     map[string][]string
	mx      map[string][]*net.MX
	failing map[string]bool
	calls   atomic.Int32
}

func (f *fakeResolver) LookupTXT(_ context.Context, name string) ([]string, error) {
	f.calls.Add(1)
	if f.failing[name] {
		return nil, &net.DNSError{Err: "server misbehaving", Name: name, IsTemporary: true}
	}
	if r, ok := f.txt[name]; ok {
		return r, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: name, IsNotFound: true}
}

func (f *fakeResolver) LookupMX(_ context.Context, name string) ([]*net.MX, error) {
	f.calls.Add(1)
	if f.failing[name] {
		return nil, &net.DNSError{Err: "server misbehaving", Name: name, IsTemporary: true}
	}
	if r, ok := f.mx[name]; ok {
		return r, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: name, IsNotFound: true}
}

func TestDomain(t *testing.T) {
	t.Parallel()

	require.Equal(t, "example.com", dnsverify.Domain("Anna@Example.COM"))
	require.Equal(t, "example.com", dnsverify.Domain("a@b@example.com."))
	require.Empty(t, dnsverify.Domain("anna"))
	require.Empty(t, dnsverify.Domain("anna@"))
}

func TestVerifySPF(t *testing.T) {
	t.Parallel()

	r := &fakeResolver{
		txt: map[string][]string{
			"example.com": {"google-site-verification=abc", "v=spf1 include:_spf.google.com ~all"},
			"plain.test":  {"some other record"},
			"other.test":  {"v=spf1 include:mailgun.org -all"},
		},
		failing: map[string]bool{"broken.test": true},
	}
	ctx := context.Background()

	tests := []struct {
		name    string
		domain  string
		include string
		want    error
	}{
		{"record present", "example.com", "", nil},
		{"include matches", " Example.com ", "_SPF.google.com", nil},
		{"include mismatch", "other.test", "_spf.google.com", dnsverify.ErrSPFMismatch},
		{"no spf among txt", "plain.test", "", dnsverify.ErrSPFNotFound},
		{"no txt at all", "missing.test", "", dnsverify.ErrSPFNotFound},
		{"lookup failure", "broken.test", "", dnsverify.ErrDNSLookupFailed},
		{"empty domain", " ", "", dnsverify.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := dnsverify.VerifySPF(ctx, r, tt.domain, tt.include)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHasMX(t *testing.T) {
	t.Parallel()

	r := &fakeResolver{
		mx: map[string][]*net.MX{
			"example.com": {{Host: "mx1.example.com.", Pref: 10}},
			"null.test":   {{Host: ".", Pref: 0}},
		},
		failing: map[string]bool{"broken.test": true},
	}
	ctx := context.Background()

	require.NoError(t, dnsverify.HasMX(ctx, r, "example.com"))
	require.ErrorIs(t, dnsverify.HasMX(ctx, r, "null.test"), dnsverify.ErrMXNotFound)
	require.ErrorIs(t, dnsverify.HasMX(ctx, r, "missing.test"), dnsverify.ErrMXNotFound)
	require.ErrorIs(t, dnsverify.HasMX(ctx, r, "broken.test"), dnsverify.ErrDNSLookupFailed)
	require.ErrorIs(t, dnsverify.HasMX(ctx, r, ""), dnsverify.ErrInvalidInput)
}

func TestCheckDomains(t *testing.T) {
	t.Parallel()

	r := &fakeResolver{
		mx: map[string][]*net.MX{
			"example.com": {{Host: "mx1.example.com."}},
			"example.org": {{Host: "mx.example.org."}},
		},
	}

	failed := dnsverify.CheckDomains(context.Background(), r,
		[]string{"example.com", "EXAMPLE.com", "example.org", "typo.test", "typo.test"}, 2)

	require.Len(t, failed, 1)
	require.True(t, errors.Is(failed["typo.test"], dnsverify.ErrMXNotFound))
	require.EqualValues(t, 3, r.calls.Load(), "each distinct domain is looked up once")
}
