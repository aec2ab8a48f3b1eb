package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/bulkmail/internal/recipients"
	"github.com/dmitrymomot/bulkmail/pkg/dnsverify"
	"github.com/dmitrymomot/bulkmail/pkg/health"
)

const connectTimeout = 15 * time.Second

func newCheckCmd(g *globalFlags) *cobra.Command {
	var (
		table   tableFlags
		dumpCSV bool
		connect bool
		dns     bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a recipient table and, optionally, the configured services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := table.load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dumpCSV {
				return t.WriteCSV(out)
			}

			fmt.Fprintf(out, "✓ %d recipients", t.Len())
			if t.Sheet() != "" {
				fmt.Fprintf(out, " (sheet %q)", t.Sheet())
			}
			fmt.Fprintln(out)
			if t.Skipped() > 0 {
				fmt.Fprintf(out, "  %d rows skipped\n", t.Skipped())
			}
			if !t.HasNameColumn() {
				fmt.Fprintln(out, "  no name column, the fallback greeting will be used")
			}

			if dns {
				if err := reportDomains(cmd.Context(), out, net.DefaultResolver, t); err != nil {
					return err
				}
			}
			if !connect {
				return nil
			}
			return checkServices(cmd, g)
		},
	}

	table.register(cmd)
	cmd.Flags().BoolVar(&dumpCSV, "csv", false, "print the normalized recipients as CSV")
	cmd.Flags().BoolVar(&connect, "connect", false, "also check the log storage, open a mail session and look up the sender SPF record")
	cmd.Flags().BoolVar(&dns, "dns", false, "look up MX records of every recipient domain")
	return cmd
}

func checkServices(cmd *cobra.Command, g *globalFlags) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	log := g.consoleLogger(cmd.ErrOrStderr())
	c, err := build(cfg, log)
	if err != nil {
		return err
	}

	err = health.Run(cmd.Context(), health.Checks{
		"storage": c.logs.Ping,
		"transport": func(ctx context.Context) error {
			s, err := c.transport.Open(ctx)
			if err != nil {
				return err
			}
			return s.Close()
		},
	}, health.WithTimeout(connectTimeout), health.WithLogger(log))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ %s transport and %s storage reachable\n", cfg.Transport, cfg.Storage.Driver)

	// SPF only warns: relays such as SES sign with their own domain.
	if domain := dnsverify.Domain(cfg.Sender.Address); domain != "" {
		if err := dnsverify.VerifySPF(cmd.Context(), net.DefaultResolver, domain, ""); err != nil {
			fmt.Fprintf(out, "! %s: %v\n", domain, err)
		}
	}
	return nil
}

// reportDomains prints recipient domains that cannot receive mail. Domains
// without MX records fail the check, lookup errors are only reported.
func reportDomains(ctx context.Context, w io.Writer, r dnsverify.Resolver, t *recipients.Table) error {
	perDomain := make(map[string]int)
	var domains []string
	for _, rec := range t.Records() {
		d := dnsverify.Domain(rec.Email)
		if d == "" {
			continue
		}
		if perDomain[d] == 0 {
			domains = append(domains, d)
		}
		perDomain[d]++
	}

	failed := dnsverify.CheckDomains(ctx, r, domains, 0)
	if len(failed) == 0 {
		fmt.Fprintf(w, "✓ %d recipient domains accept mail\n", len(domains))
		return nil
	}

	names := make([]string, 0, len(failed))
	for d := range failed {
		names = append(names, d)
	}
	sort.Strings(names)

	undeliverable := 0
	for _, d := range names {
		err := failed[d]
		mark := "!"
		if errors.Is(err, dnsverify.ErrMXNotFound) {
			mark = "✗"
			undeliverable++
		}
		fmt.Fprintf(w, "%s %s (%d recipients): %v\n", mark, d, perDomain[d], err)
	}
	if undeliverable > 0 {
		return validationError(fmt.Errorf("%d recipient domains cannot receive mail", undeliverable))
	}
	return nil
}
