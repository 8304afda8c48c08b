// Package bets keeps a log of YRFI/NRFI wagers and settles them against
// collected game results. The log is a CSV next to the other datasets.
package bets

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
	"github.com/diamondsights/yrfi-pipeline/internal/source/draftkings"
)

// Side is which way the wager goes.
type Side string

// Supported wager sides.
const (
	SideYRFI Side = "YRFI"
	SideNRFI Side = "NRFI"
)

// Result is the settlement state of a bet.
type Result string

// Settlement states.
const (
	ResultPending Result = "PENDING"
	ResultWin     Result = "WIN"
	ResultLoss    Result = "LOSS"
	ResultPush    Result = "PUSH"
)

// Bet is one logged wager.
type Bet struct {
	ID         string
	PlacedAt   time.Time
	GameKey    pipeline.GameKey
	Side       Side
	Odds       int
	Stake      float64
	ModelProb  float64
	Result     Result
	ProfitLoss float64
}

// Payout is the profit on a winning bet at American odds (stake excluded).
func (b Bet) Payout() float64 {
	if b.Odds < 0 {
		return b.Stake * (100.0 / float64(-b.Odds))
	}
	return b.Stake * (float64(b.Odds) / 100.0)
}

// ExpectedValue is the model-implied EV of the wager in dollars.
func (b Bet) ExpectedValue() float64 {
	return b.ModelProb*b.Payout() - (1-b.ModelProb)*b.Stake
}

// Edge is the gap between the model's probability and the break-even implied
// probability of the logged price.
func (b Bet) Edge() float64 {
	return b.ModelProb - draftkings.ImpliedProbability(b.Odds)
}

var betsHeader = []string{
	"id", "placed_at", "game_key", "side", "odds", "stake",
	"model_prob", "result", "profit_loss",
}

// Sink mirrors ledger rows to a secondary store.
type Sink interface {
	UpsertBets(ctx context.Context, all []Bet) error
}

// Log is a CSV-backed bet ledger. Mirror, when set, receives every changed
// row after the CSV write lands.
type Log struct {
	Path   string
	Mirror Sink
}

// NewLog points a ledger at a CSV path.
func NewLog(path string) *Log { return &Log{Path: path} }

func (l *Log) mirror(ctx context.Context, changed []Bet) error {
	if l.Mirror == nil || len(changed) == 0 {
		return nil
	}
	if err := l.Mirror.UpsertBets(ctx, changed); err != nil {
		return fmt.Errorf("mirror bets: %w", err)
	}
	return nil
}

// Place appends a pending bet and returns it with its assigned id.
func (l *Log) Place(ctx context.Context, bet Bet) (Bet, error) {
	if bet.GameKey == "" {
		return Bet{}, fmt.Errorf("bet requires a game key")
	}
	if bet.Side != SideYRFI && bet.Side != SideNRFI {
		return Bet{}, fmt.Errorf("bet side must be YRFI or NRFI, got %q", bet.Side)
	}
	if bet.Stake <= 0 {
		return Bet{}, fmt.Errorf("stake must be positive")
	}
	bet.ID = uuid.NewString()
	if bet.PlacedAt.IsZero() {
		bet.PlacedAt = time.Now().UTC()
	}
	bet.Result = ResultPending
	bet.ProfitLoss = 0

	all, err := l.Load(ctx)
	if err != nil {
		return Bet{}, err
	}
	all = append(all, bet)
	if err := l.write(all); err != nil {
		return Bet{}, err
	}
	return bet, l.mirror(ctx, []Bet{bet})
}

// Settle marks a bet's outcome and computes its profit or loss.
func (l *Log) Settle(ctx context.Context, id string, result Result) (Bet, error) {
	all, err := l.Load(ctx)
	if err != nil {
		return Bet{}, err
	}
	for i := range all {
		if all[i].ID != id {
			continue
		}
		all[i].Result = result
		switch result {
		case ResultWin:
			all[i].ProfitLoss = all[i].Payout()
		case ResultLoss:
			all[i].ProfitLoss = -all[i].Stake
		case ResultPush, ResultPending:
			all[i].ProfitLoss = 0
		default:
			return Bet{}, fmt.Errorf("unknown result %q", result)
		}
		bet := all[i]
		if err := l.write(all); err != nil {
			return Bet{}, err
		}
		return bet, l.mirror(ctx, []Bet{bet})
	}
	return Bet{}, fmt.Errorf("no bet with id %s", id)
}

// SettleAgainst resolves every pending bet whose game appears in the results.
// YRFI bets win when a first-inning run scored; NRFI bets win otherwise.
func (l *Log) SettleAgainst(ctx context.Context, games []pipeline.GameRecord) (int, error) {
	byKey := make(map[pipeline.GameKey]pipeline.GameRecord, len(games))
	for _, g := range games {
		byKey[g.Key()] = g
	}
	all, err := l.Load(ctx)
	if err != nil {
		return 0, err
	}
	var changed []Bet
	for i := range all {
		if all[i].Result != ResultPending {
			continue
		}
		g, ok := byKey[all[i].GameKey]
		if !ok {
			continue
		}
		won := (all[i].Side == SideYRFI) == g.FirstInningScored
		if won {
			all[i].Result = ResultWin
			all[i].ProfitLoss = all[i].Payout()
		} else {
			all[i].Result = ResultLoss
			all[i].ProfitLoss = -all[i].Stake
		}
		changed = append(changed, all[i])
	}
	if len(changed) == 0 {
		return 0, nil
	}
	if err := l.write(all); err != nil {
		return 0, err
	}
	return len(changed), l.mirror(ctx, changed)
}

// Load reads the full ledger sorted by placement time.
func (l *Log) Load(ctx context.Context) ([]Bet, error) {
	f, err := os.Open(l.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &pipeline.PersistenceError{Path: l.Path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(betsHeader)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, &pipeline.PersistenceError{Path: l.Path, Err: err}
	}
	if len(rows) == 0 {
		return nil, nil
	}
	bets := make([]Bet, 0, len(rows)-1)
	for _, row := range rows[1:] {
		b, err := betFromRow(row)
		if err != nil {
			return nil, &pipeline.PersistenceError{Path: l.Path, Err: err}
		}
		bets = append(bets, b)
	}
	sort.Slice(bets, func(i, j int) bool { return bets[i].PlacedAt.Before(bets[j].PlacedAt) })
	return bets, nil
}

func (l *Log) write(all []Bet) error {
	dir := filepath.Dir(l.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &pipeline.PersistenceError{Path: l.Path, Err: err}
	}
	tmp, err := os.CreateTemp(dir, ".bets-*")
	if err != nil {
		return &pipeline.PersistenceError{Path: l.Path, Err: err}
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(betsHeader); err != nil {
		tmp.Close()
		return &pipeline.PersistenceError{Path: l.Path, Err: err}
	}
	for _, b := range all {
		row := []string{
			b.ID,
			b.PlacedAt.UTC().Format(time.RFC3339),
			string(b.GameKey),
			string(b.Side),
			strconv.Itoa(b.Odds),
			strconv.FormatFloat(b.Stake, 'f', 2, 64),
			strconv.FormatFloat(b.ModelProb, 'f', -1, 64),
			string(b.Result),
			strconv.FormatFloat(b.ProfitLoss, 'f', 2, 64),
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return &pipeline.PersistenceError{Path: l.Path, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return &pipeline.PersistenceError{Path: l.Path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &pipeline.PersistenceError{Path: l.Path, Err: err}
	}
	if err := os.Rename(tmp.Name(), l.Path); err != nil {
		return &pipeline.PersistenceError{Path: l.Path, Err: err}
	}
	return nil
}

func betFromRow(row []string) (Bet, error) {
	placedAt, err := time.Parse(time.RFC3339, row[1])
	if err != nil {
		return Bet{}, fmt.Errorf("bad placed_at %q: %w", row[1], err)
	}
	odds, err := strconv.Atoi(row[4])
	if err != nil {
		return Bet{}, fmt.Errorf("bad odds %q: %w", row[4], err)
	}
	stake, err := strconv.ParseFloat(row[5], 64)
	if err != nil {
		return Bet{}, fmt.Errorf("bad stake %q: %w", row[5], err)
	}
	prob, err := strconv.ParseFloat(row[6], 64)
	if err != nil {
		return Bet{}, fmt.Errorf("bad model_prob %q: %w", row[6], err)
	}
	pl, err := strconv.ParseFloat(row[8], 64)
	if err != nil {
		return Bet{}, fmt.Errorf("bad profit_loss %q: %w", row[8], err)
	}
	return Bet{
		ID:         row[0],
		PlacedAt:   placedAt,
		GameKey:    pipeline.GameKey(row[2]),
		Side:       Side(row[3]),
		Odds:       odds,
		Stake:      stake,
		ModelProb:  prob,
		Result:     Result(row[7]),
		ProfitLoss: pl,
	}, nil
}

// Performance summarizes a ledger: staked and returned totals, record, and
// ROI over settled bets.
type Performance struct {
	Bets    int
	Pending int
	Wins    int
	Losses  int
	Pushes  int
	Staked  float64
	Profit  float64
}

// ROI is profit over settled stake.
func (p Performance) ROI() float64 {
	if p.Staked == 0 {
		return 0
	}
	return p.Profit / p.Staked
}

// Summarize folds the ledger into a performance line.
func Summarize(all []Bet) Performance {
	var p Performance
	p.Bets = len(all)
	for _, b := range all {
		switch b.Result {
		case ResultPending:
			p.Pending++
			continue
		case ResultWin:
			p.Wins++
		case ResultLoss:
			p.Losses++
		case ResultPush:
			p.Pushes++
		}
		p.Staked += b.Stake
		p.Profit += b.ProfitLoss
	}
	return p
}
