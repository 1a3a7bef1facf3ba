package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"greenbonds/internal/usecase/marketplace"
	"greenbonds/pkg/money"
)

func (c *cli) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo users, bonds and investments (idempotent)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.app.Seed(cmd.Context())
			if err != nil {
				return err
			}
			if c.asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d users, %d bonds, %d projects, %d impact metrics, %d investments\n",
				res.Users, res.Bonds, res.Projects, res.Metrics, res.Investments)
			return nil
		},
	}
}

func (c *cli) reconcileCmd() *cobra.Command {
	var repair bool
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare each bond's amount raised with its recorded investments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := c.app.Reconcile.Run(cmd.Context(), repair)
			if err != nil {
				return err
			}
			if c.asJSON {
				return writeJSON(cmd.OutOrStdout(), rep)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "scanned %d bonds, %d drifted\n", rep.Scanned, len(rep.Drifts))
			if len(rep.Drifts) == 0 {
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "BOND\tRAISED\tRECORDED\tMISSING\tREPAIRED\tCAPPED")
			for _, d := range rep.Drifts {
				fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%t\t%t\n", d.BondID, d.AmountRaised, d.Recorded, d.Missing, d.Repaired, d.Capped)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&repair, "repair", false, "raise amountRaised to the recorded sum (capped at the total)")
	return cmd
}

func (c *cli) bondsCmd() *cobra.Command {
	var (
		f    marketplace.Filters
		sort string
	)
	cmd := &cobra.Command{
		Use:   "bonds",
		Short: "List the bond catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.Sort = marketplace.SortKey(sort)
			listing, err := c.app.Market.List(cmd.Context(), f)
			if err != nil {
				return err
			}
			if c.asJSON {
				return writeJSON(cmd.OutOrStdout(), listing)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCOUPON\tMINIMUM\tRAISED\tPROGRESS")
			for _, b := range listing.Bonds {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					b.BondID, b.BondName, money.Percent(b.CouponRate, 1),
					money.Format(b.MinimumInvestment, b.Currency), money.Format(b.AmountRaised, b.Currency),
					money.Percent(b.FundingProgress(), 1))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			s := listing.Summary
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d bonds, total %s, average coupon %s\n",
				s.Count, s.Catalogue, money.Format(s.TotalAmount, ""), money.Percent(s.AverageYield, 2))
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Search, "search", "", "match name, issuer or description")
	cmd.Flags().StringVar(&f.BondType, "type", "", "bond type")
	cmd.Flags().StringVar(&f.ProjectCategory, "category", "", "project category")
	cmd.Flags().StringVar(&f.RiskRating, "risk", "", "risk rating")
	cmd.Flags().StringVar(&sort, "sort", string(marketplace.SortName), "name, yield, maturity, amount or raised")
	return cmd
}

func (c *cli) portfolioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio <user-id>",
		Short: "Show an investor's holdings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.app.Portfolio.Investor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if c.asJSON {
				return writeJSON(cmd.OutOrStdout(), p)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TRANSACTION\tBOND\tAMOUNT\tEXPECTED\tSTATUS")
			for _, h := range p.Holdings {
				name := h.Investment.BondID
				if h.Bond != nil {
					name = h.Bond.BondName
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", h.Investment.TransactionID, name,
					money.Format(h.Investment.InvestmentAmount, ""), money.Format(h.Investment.ExpectedReturn, ""), h.Investment.Status)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "invested %s, expected %s, return %s\n",
				money.Format(p.TotalInvested, ""), money.Format(p.ExpectedValue, ""), money.Percent(p.ReturnPercent, 2))
			im := p.ImpactSummary
			fmt.Fprintf(cmd.OutOrStdout(), "impact: %g t CO2, %g GWh, %g L water, %g ha restored\n",
				im.CO2Reduced, im.EnergyGenerated, im.WaterSaved, im.HectaresRestored)
			return nil
		},
	}
}
