package umpires

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
	"github.com/diamondsights/yrfi-pipeline/internal/teams"
)

// ParseAssignments reads the daily assignments table: one row per game with a
// matchup cell ("PHI @ ATL") and the home-plate umpire's name. Tendency
// columns come from the known-umpires table, league average when the name is
// new.
func ParseAssignments(date string, body []byte) ([]pipeline.UmpireRecord, []error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, []error{&pipeline.MalformedRecordError{
			Source: "umpires", ID: date, Field: "body", Err: err,
		}}
	}

	var recs []pipeline.UmpireRecord
	var bad []error
	doc.Find("table.umpire-assignments tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return // header row
		}
		matchup := strings.TrimSpace(cells.Eq(0).Text())
		name := strings.TrimSpace(cells.Eq(1).Text())
		if matchup == "" || name == "" {
			bad = append(bad, &pipeline.MalformedRecordError{
				Source: "umpires", ID: matchup, Field: "row",
				Err: fmt.Errorf("matchup or umpire name missing"),
			})
			return
		}
		away, home, err := teams.ResolveMatchup(matchup)
		if err != nil {
			bad = append(bad, &pipeline.MalformedRecordError{
				Source: "umpires", ID: matchup, Field: "matchup", Err: err,
			})
			return
		}
		stats, _ := Lookup(name)
		recs = append(recs, pipeline.UmpireRecord{
			Key:       pipeline.MakeGameKey(date, home, away),
			Name:      name,
			ZoneScore: stats.ZoneScore,
			RunImpact: stats.RunImpact,
			Tendency:  stats.Tendency,
		})
	})
	return recs, bad
}
