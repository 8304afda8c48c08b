// Package analyze computes descriptive statistics over the collected games:
// the YRFI base rate, scoring rates bucketed by temperature, wind, venue,
// team, and umpire, and simple correlations between weather and first-inning
// scoring.
package analyze

import (
	"fmt"
	"math"
	"sort"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
)

// minBucketGames is the sample floor below which a bucket rate is noise and
// left out of the report.
const minBucketGames = 10

// Bucket is one aggregation row: games counted, games with a first-inning
// run, and the resulting rate.
type Bucket struct {
	Label  string
	Games  int
	Scored int
}

// Rate is the share of games in the bucket with a first-inning run.
func (b Bucket) Rate() float64 {
	if b.Games == 0 {
		return 0
	}
	return float64(b.Scored) / float64(b.Games)
}

func (b Bucket) String() string {
	return fmt.Sprintf("%-22s %4d games  %5.1f%%", b.Label, b.Games, b.Rate()*100)
}

// Report is the full analysis over one merged dataset.
type Report struct {
	Games        int
	BaseRate     float64
	ByTemp       []Bucket
	ByWind       []Bucket
	ByVenue      []Bucket
	ByUmpire     []Bucket
	TeamOffense  []TeamLine
	TempCorr     float64
	WindCorr     float64
	HomeFirstAvg float64
	AwayFirstAvg float64
}

// TeamLine aggregates one club's first-inning runs scored across home and
// away games.
type TeamLine struct {
	Team  string
	Games int
	Runs  int
}

// Avg is runs per game.
func (t TeamLine) Avg() float64 {
	if t.Games == 0 {
		return 0
	}
	return float64(t.Runs) / float64(t.Games)
}

// tempEdges bucket game-time temperature in Fahrenheit.
var tempEdges = []struct {
	label string
	lo    float64
	hi    float64
}{
	{"<50F", math.Inf(-1), 50},
	{"50-59F", 50, 60},
	{"60-69F", 60, 70},
	{"70-79F", 70, 80},
	{"80-89F", 80, 90},
	{">=90F", 90, math.Inf(1)},
}

// windEdges bucket wind speed in mph.
var windEdges = []struct {
	label string
	lo    float64
	hi    float64
}{
	{"calm (<5)", math.Inf(-1), 5},
	{"breezy (5-12)", 5, 12},
	{"windy (>=12)", 12, math.Inf(1)},
}

// Run computes the report. Rows without a given optional field simply do not
// contribute to that field's buckets.
func Run(rows []pipeline.MergedFeatureRow) Report {
	r := Report{Games: len(rows)}
	if len(rows) == 0 {
		return r
	}

	scored := 0
	homeRuns, awayRuns := 0, 0
	tempBuckets := make([]Bucket, len(tempEdges))
	for i := range tempEdges {
		tempBuckets[i].Label = tempEdges[i].label
	}
	windBuckets := make([]Bucket, len(windEdges))
	for i := range windEdges {
		windBuckets[i].Label = windEdges[i].label
	}
	venues := map[string]*Bucket{}
	umps := map[string]*Bucket{}
	offense := map[string]*TeamLine{}

	var temps, tempFlags, winds, windFlags []float64

	for _, row := range rows {
		g := row.Game
		flag := 0.0
		if g.FirstInningScored {
			scored++
			flag = 1.0
		}
		homeRuns += g.HomeRunsInning1
		awayRuns += g.AwayRunsInning1

		if g.Temperature != nil {
			t := *g.Temperature
			for i, e := range tempEdges {
				if t >= e.lo && t < e.hi {
					tempBuckets[i].Games++
					tempBuckets[i].Scored += int(flag)
					break
				}
			}
			temps = append(temps, t)
			tempFlags = append(tempFlags, flag)
		}
		if g.WindSpeed != nil {
			w := *g.WindSpeed
			for i, e := range windEdges {
				if w >= e.lo && w < e.hi {
					windBuckets[i].Games++
					windBuckets[i].Scored += int(flag)
					break
				}
			}
			winds = append(winds, w)
			windFlags = append(windFlags, flag)
		}
		if g.Venue != "" {
			bump(venues, g.Venue, flag)
		}
		if row.Umpire != nil && row.Umpire.Tendency != "" {
			bump(umps, row.Umpire.Tendency, flag)
		}
		addOffense(offense, g.HomeTeam, g.HomeRunsInning1)
		addOffense(offense, g.AwayTeam, g.AwayRunsInning1)
	}

	r.BaseRate = float64(scored) / float64(len(rows))
	r.HomeFirstAvg = float64(homeRuns) / float64(len(rows))
	r.AwayFirstAvg = float64(awayRuns) / float64(len(rows))
	r.ByTemp = prune(tempBuckets)
	r.ByWind = prune(windBuckets)
	r.ByVenue = sortedBuckets(venues)
	r.ByUmpire = sortedBuckets(umps)
	r.TeamOffense = sortedOffense(offense)
	r.TempCorr = Pearson(temps, tempFlags)
	r.WindCorr = Pearson(winds, windFlags)
	return r
}

func bump(m map[string]*Bucket, label string, flag float64) {
	b, ok := m[label]
	if !ok {
		b = &Bucket{Label: label}
		m[label] = b
	}
	b.Games++
	b.Scored += int(flag)
}

func addOffense(m map[string]*TeamLine, team string, runs int) {
	if team == "" {
		return
	}
	t, ok := m[team]
	if !ok {
		t = &TeamLine{Team: team}
		m[team] = t
	}
	t.Games++
	t.Runs += runs
}

func prune(buckets []Bucket) []Bucket {
	out := buckets[:0]
	for _, b := range buckets {
		if b.Games > 0 {
			out = append(out, b)
		}
	}
	return out
}

func sortedBuckets(m map[string]*Bucket) []Bucket {
	out := make([]Bucket, 0, len(m))
	for _, b := range m {
		if b.Games >= minBucketGames {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rate() != out[j].Rate() {
			return out[i].Rate() > out[j].Rate()
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func sortedOffense(m map[string]*TeamLine) []TeamLine {
	out := make([]TeamLine, 0, len(m))
	for _, t := range m {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Avg() != out[j].Avg() {
			return out[i].Avg() > out[j].Avg()
		}
		return out[i].Team < out[j].Team
	})
	return out
}

// Pearson computes the sample correlation coefficient between two equal-length
// series. Degenerate inputs (short series, zero variance) return 0.
func Pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return 0
	}
	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}
