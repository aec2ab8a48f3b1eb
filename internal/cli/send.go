package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/bulkmail/internal/dispatch"
	"github.com/dmitrymomot/bulkmail/internal/recipients"
	"github.com/dmitrymomot/bulkmail/pkg/mailer"
)

type tableFlags struct {
	path        string
	sheet       string
	emailColumn string
	nameColumn  string
}

func (f *tableFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.path, "table", "t", "", "recipient table (.xlsx or .csv)")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "worksheet name (default: first sheet)")
	cmd.Flags().StringVar(&f.emailColumn, "email-column", "", "email column header (default: Email)")
	cmd.Flags().StringVar(&f.nameColumn, "name-column", "", "name column header (default: Name)")
	_ = cmd.MarkFlagRequired("table")
}

func (f *tableFlags) load() (*recipients.Table, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, validationError(fmt.Errorf("read recipient table: %w", err))
	}
	table, err := recipients.Parse(filepath.Base(f.path), data,
		recipients.WithColumns(f.emailColumn, f.nameColumn),
		recipients.WithSheet(f.sheet),
	)
	if err != nil {
		return nil, validationError(err)
	}
	return table, nil
}

type sendFlags struct {
	table       tableFlags
	message     string
	messageFile string
	attach      string
	subject     string
	jsonOutput  bool
}

func newSendCmd(g *globalFlags) *cobra.Command {
	f := &sendFlags{}

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one batch from local files",
		Long: `Send one personalized message per recipient row and print the summary.

Exit status is 0 when the batch completed (even with failed deliveries),
2 when the input was rejected and 1 when the mail session could not be
opened or another error occurred.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			batch, err := f.batch()
			if err != nil {
				return err
			}

			c, err := build(cfg, g.consoleLogger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			res, err := c.dispatcher.Run(cmd.Context(), batch)
			if err != nil {
				if errors.Is(err, dispatch.ErrValidation) {
					return validationError(err)
				}
				return err
			}
			return printResult(cmd.OutOrStdout(), res, f.jsonOutput)
		},
	}

	f.table.register(cmd)
	cmd.Flags().StringVarP(&f.message, "message", "m", "", "message template text")
	cmd.Flags().StringVarP(&f.messageFile, "message-file", "f", "", "message template file, may start with YAML frontmatter")
	cmd.Flags().StringVarP(&f.attach, "attach", "a", "", "file attached to every message")
	cmd.Flags().StringVarP(&f.subject, "subject", "s", "", "subject (overrides frontmatter and config)")
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false, "print the result as JSON")
	cmd.MarkFlagsMutuallyExclusive("message", "message-file")
	cmd.MarkFlagsOneRequired("message", "message-file")
	return cmd
}

func (f *sendFlags) batch() (dispatch.Batch, error) {
	var b dispatch.Batch

	raw := []byte(f.message)
	if f.messageFile != "" {
		data, err := os.ReadFile(f.messageFile)
		if err != nil {
			return b, validationError(fmt.Errorf("read message file: %w", err))
		}
		raw = data
	}
	msg, err := mailer.ParseMessageFile(raw)
	if err != nil {
		return b, validationError(err)
	}
	b.Template = msg.Body
	b.Subject = msg.Subject
	if s := strings.TrimSpace(f.subject); s != "" {
		b.Subject = s
	}

	if b.Table, err = f.table.load(); err != nil {
		return b, err
	}

	if f.attach != "" {
		data, err := os.ReadFile(f.attach)
		if err != nil {
			return b, validationError(fmt.Errorf("read attachment: %w", err))
		}
		b.Attachment = mailer.NewAttachment(filepath.Base(f.attach), data)
	}
	return b, nil
}

func printResult(w io.Writer, res *dispatch.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	fmt.Fprintln(w, res.Status)
	fmt.Fprintf(w, "batch:   %s\n", res.ID)
	fmt.Fprintf(w, "log:     %s\n", res.LogURL)
	fmt.Fprintf(w, "sent:    %d/%d\n", res.Sent, res.Total)
	if res.Failed > 0 {
		fmt.Fprintf(w, "failed:  %d\n", res.Failed)
	}
	if res.Skipped > 0 {
		fmt.Fprintf(w, "skipped: %d\n", res.Skipped)
	}
	fmt.Fprintf(w, "took:    %s\n", res.Duration().Round(time.Millisecond))
	return nil
}
