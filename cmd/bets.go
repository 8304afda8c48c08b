package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diamondsights/yrfi-pipeline/internal/bets"
	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
)

func newBetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bets",
		Short: "Log and settle YRFI/NRFI wagers.",
	}
	cmd.AddCommand(newBetsPlaceCmd(), newBetsSettleCmd(), newBetsListCmd(), newBetsSummaryCmd())
	return cmd
}

func newBetsPlaceCmd() *cobra.Command {
	var (
		gameKey string
		side    string
		odds    int
		stake   float64
		prob    float64
	)
	cmd := &cobra.Command{
		Use:     "place",
		Aliases: []string{"log"},
		Short:   "Log a new pending wager.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			bet, err := a.BetLog().Place(cmd.Context(), bets.Bet{
				GameKey:   pipeline.GameKey(gameKey),
				Side:      bets.Side(strings.ToUpper(side)),
				Odds:      odds,
				Stake:     stake,
				ModelProb: prob,
			})
			if err != nil {
				return err
			}
			cmd.Printf("placed %s: %s %s at %+d for $%.2f (edge %+.3f, EV $%+.2f)\n",
				bet.ID, bet.GameKey, bet.Side, bet.Odds, bet.Stake, bet.Edge(), bet.ExpectedValue())
			return nil
		},
	}
	cmd.Flags().StringVar(&gameKey, "game", "", "game key (YYYY-MM-DD_HOME_AWAY)")
	cmd.Flags().StringVar(&side, "side", "", "YRFI or NRFI")
	cmd.Flags().IntVar(&odds, "odds", 0, "American odds, e.g. -115")
	cmd.Flags().Float64Var(&stake, "stake", 0, "stake in dollars")
	cmd.Flags().Float64Var(&prob, "prob", 0, "model probability for the chosen side")
	for _, f := range []string{"game", "side", "odds", "stake"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func newBetsSettleCmd() *cobra.Command {
	var result string
	cmd := &cobra.Command{
		Use:   "settle [BET_ID]",
		Short: "Settle one bet by id, or every pending bet against collected results.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if len(args) == 0 {
				games, err := a.GameStore.Load(cmd.Context())
				if err != nil {
					return err
				}
				settled, err := a.BetLog().SettleAgainst(cmd.Context(), games)
				if err != nil {
					return err
				}
				cmd.Printf("settled %d bet(s)\n", settled)
				return nil
			}
			if result == "" {
				return fmt.Errorf("--result is required when settling by id")
			}
			bet, err := a.BetLog().Settle(cmd.Context(), args[0], bets.Result(strings.ToUpper(result)))
			if err != nil {
				return err
			}
			cmd.Printf("settled %s: %s, P/L $%+.2f\n", bet.ID, bet.Result, bet.ProfitLoss)
			return nil
		},
	}
	cmd.Flags().StringVar(&result, "result", "", "WIN, LOSS, or PUSH")
	return cmd
}

func newBetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every logged bet.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			all, err := a.BetLog().Load(cmd.Context())
			if err != nil {
				return err
			}
			if len(all) == 0 {
				cmd.Println("no bets logged")
				return nil
			}
			for _, b := range all {
				line := fmt.Sprintf("%s  %s  %s %s %+d  $%.2f  %s",
					b.PlacedAt.Format("2006-01-02 15:04"), b.ID, b.GameKey, b.Side, b.Odds, b.Stake, b.Result)
				if b.Result != bets.ResultPending {
					line += fmt.Sprintf("  $%+.2f", b.ProfitLoss)
				}
				cmd.Println(line)
			}
			return nil
		},
	}
}

func newBetsSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show the ledger's win/loss record and ROI.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			all, err := a.BetLog().Load(cmd.Context())
			if err != nil {
				return err
			}
			p := bets.Summarize(all)
			cmd.Printf("bets: %d (%d pending)\n", p.Bets, p.Pending)
			cmd.Printf("record: %d-%d-%d\n", p.Wins, p.Losses, p.Pushes)
			cmd.Printf("staked: $%.2f  profit: $%+.2f  ROI: %+.1f%%\n", p.Staked, p.Profit, p.ROI()*100)
			return nil
		},
	}
}
