package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	appcashbox "github.com/erp/treasury/internal/application/cashbox"
	"github.com/erp/treasury/internal/bootstrap"
	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// ErrDrift is returned by verify when a cached balance disagrees with the ledger
var ErrDrift = errors.New("cached balance drift detected")

// serviceOpener builds the services for one command run and returns a cleanup func
type serviceOpener func(ctx context.Context, logLevel string) (*bootstrap.Services, func(), error)

type globalFlags struct {
	tenant   string
	logLevel string
	asJSON   bool
}

func newRootCommand(open serviceOpener, out io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "treasuryctl",
		Short:         "Inspect and repair register balances",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&g.tenant, "tenant", "", "tenant ID (required)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level")
	root.PersistentFlags().BoolVar(&g.asJSON, "json", false, "print JSON instead of a table")
	_ = root.MarkPersistentFlagRequired("tenant")

	root.AddCommand(
		newBalanceCommand(g, open),
		newVerifyCommand(g, open),
		newResyncCommand(g, open),
	)
	return root
}

// run parses the tenant, opens the services and hands both to fn
func (g *globalFlags) run(cmd *cobra.Command, open serviceOpener, fn func(ctx context.Context, s *bootstrap.Services, tenantID uuid.UUID) error) error {
	tenantID, err := uuid.Parse(g.tenant)
	if err != nil {
		return fmt.Errorf("invalid --tenant %q", g.tenant)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	services, closeFn, err := open(ctx, g.logLevel)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, services, tenantID)
}

func newBalanceCommand(g *globalFlags, open serviceOpener) *cobra.Command {
	var channel, store string
	var ruleVersion int
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Compute a channel balance from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ch, err := cashbox.ParseBalanceChannel(channel)
			if err != nil {
				return err
			}
			storeID, err := appcashbox.ParseOptionalID("--store", store)
			if err != nil {
				return err
			}
			return g.run(cmd, open, func(ctx context.Context, s *bootstrap.Services, tenantID uuid.UUID) error {
				b, err := s.Balances.Breakdown(ctx, tenantID, ch, storeID, ruleVersion)
				if err != nil {
					return err
				}
				if g.asJSON {
					return writeJSON(cmd.OutOrStdout(), b)
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintf(w, "CHANNEL\t%s\n", b.Channel)
				fmt.Fprintf(w, "RULES\tv%d\n", b.RuleVersion)
				for _, c := range b.Components {
					sign := "-"
					if c.Inflow {
						sign = "+"
					}
					fmt.Fprintf(w, "%s %s\t%s\n", sign, c.Name, c.Amount.StringFixed(2))
				}
				fmt.Fprintf(w, "BALANCE\t%s\n", b.Balance.StringFixed(2))
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&channel, "channel", "cash", "cash, bank or mobile_money")
	cmd.Flags().StringVar(&store, "store", "", "restrict to one store")
	cmd.Flags().IntVar(&ruleVersion, "rule-version", 0, "balance rule version (default current)")
	return cmd
}

func newVerifyCommand(g *globalFlags, open serviceOpener) *cobra.Command {
	var cashboxFlag string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Compare cached register balances with the ledger",
		Long:  "Compare cached register balances with the ledger. Exits non-zero when any register drifted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cashboxID, err := appcashbox.ParseOptionalID("--cashbox", cashboxFlag)
			if err != nil {
				return err
			}
			return g.run(cmd, open, func(ctx context.Context, s *bootstrap.Services, tenantID uuid.UUID) error {
				var reports []appcashbox.DriftReport
				if cashboxID != nil {
					r, err := s.Balances.VerifyRegister(ctx, tenantID, *cashboxID)
					if err != nil {
						return err
					}
					reports = append(reports, *r)
				} else if reports, err = s.Balances.VerifyTenant(ctx, tenantID); err != nil {
					return err
				}

				if err := printReports(cmd.OutOrStdout(), reports, g.asJSON); err != nil {
					return err
				}
				for _, r := range reports {
					if !r.InSync {
						return ErrDrift
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&cashboxFlag, "cashbox", "", "verify one cashbox instead of the whole tenant")
	return cmd
}

func newResyncCommand(g *globalFlags, open serviceOpener) *cobra.Command {
	var cashboxFlag string
	cmd := &cobra.Command{
		Use:   "resync",
		Short: "Overwrite a cached register balance with its recomputation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cashboxID, err := uuid.Parse(cashboxFlag)
			if err != nil {
				return fmt.Errorf("invalid --cashbox %q", cashboxFlag)
			}
			return g.run(cmd, open, func(ctx context.Context, s *bootstrap.Services, tenantID uuid.UUID) error {
				r, err := s.Balances.ResyncRegister(ctx, tenantID, cashboxID)
				if err != nil {
					return err
				}
				return printReports(cmd.OutOrStdout(), []appcashbox.DriftReport{*r}, g.asJSON)
			})
		},
	}
	cmd.Flags().StringVar(&cashboxFlag, "cashbox", "", "cashbox to resync (required)")
	_ = cmd.MarkFlagRequired("cashbox")
	return cmd
}

func printReports(out io.Writer, reports []appcashbox.DriftReport, asJSON bool) error {
	if asJSON {
		return writeJSON(out, reports)
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CASHBOX\tCODE\tCACHED\tCOMPUTED\tDRIFT\tSTATUS")
	for _, r := range reports {
		status := "ok"
		switch {
		case r.Resynced:
			status = "resynced"
		case !r.InSync:
			status = "DRIFT"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", r.CashboxID, r.Code,
			r.Cached.StringFixed(2), r.Computed.StringFixed(2), r.Drift.StringFixed(2), status)
	}
	return w.Flush()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
