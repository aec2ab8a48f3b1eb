// Package dnsverify checks the DNS records that decide whether a batch can be
// delivered: the sender domain's SPF record and the recipients' MX records.
//
//	if err := dnsverify.VerifySPF(ctx, net.DefaultResolver, "example.com", "_spf.google.com"); err != nil {
//		// sender domain does not authorize the relay
//	}
//
//	failed := dnsverify.CheckDomains(ctx, net.DefaultResolver, []string{"example.com", "example.org"}, 0)
//	for domain, err := range failed {
//		...
//	}
//
// Lookup errors are reported as ErrDNSLookupFailed. A missing record yields
// ErrSPFNotFound or ErrMXNotFound.
package dnsverify
