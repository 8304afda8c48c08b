package draftkings

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
	"github.com/diamondsights/yrfi-pipeline/internal/teams"
)

// movementThreshold is how many cents the line must move before it counts as
// drift toward one side.
const movementThreshold = 5

// firstInningCategory reports whether an offer category carries first-inning
// run markets.
func firstInningCategory(name string) bool {
	n := strings.ToLower(name)
	for _, term := range []string{"first inning", "1st inning", "run scored", "yrfi", "nrfi"} {
		if strings.Contains(n, term) {
			return true
		}
	}
	return false
}

// ParseOdds extracts YRFI/NRFI prices from an event-group payload. Offers
// with only one priced side, an unkeyable matchup label, or unparseable
// prices are reported as malformed and skipped.
func ParseOdds(date string, body []byte) ([]pipeline.OddsRecord, []error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, []error{&pipeline.MalformedRecordError{
			Source: "draftkings", ID: date, Field: "body", Err: err,
		}}
	}

	var recs []pipeline.OddsRecord
	var bad []error
	for _, cat := range resp.EventGroup.OfferCategories {
		if !firstInningCategory(cat.Name) {
			continue
		}
		for _, desc := range cat.Descriptors {
			for _, offerGroup := range desc.OfferSubcategory.Offers {
				for _, item := range offerGroup {
					rec, err := oddsFromOffer(date, item)
					if err != nil {
						bad = append(bad, err)
						continue
					}
					recs = append(recs, rec)
				}
			}
		}
	}
	return recs, bad
}

func oddsFromOffer(date string, item offerItem) (pipeline.OddsRecord, error) {
	var yrfi, nrfi *int
	for _, out := range item.Outcomes {
		price, err := strconv.Atoi(strings.TrimPrefix(out.OddsAmerican, "+"))
		if err != nil {
			continue
		}
		label := strings.ToUpper(out.Label)
		switch {
		case strings.Contains(label, "YES") || strings.Contains(label, "OVER") || strings.Contains(label, "YRFI"):
			p := price
			yrfi = &p
		case strings.Contains(label, "NO") || strings.Contains(label, "UNDER") || strings.Contains(label, "NRFI"):
			p := price
			nrfi = &p
		}
	}
	if yrfi == nil || nrfi == nil {
		return pipeline.OddsRecord{}, &pipeline.MalformedRecordError{
			Source: "draftkings", ID: item.Label, Field: "outcomes",
			Err: errMissingSide,
		}
	}

	away, home, err := teams.ResolveMatchup(item.Label)
	if err != nil {
		return pipeline.OddsRecord{}, &pipeline.MalformedRecordError{
			Source: "draftkings", ID: item.Label, Field: "label", Err: err,
		}
	}

	return pipeline.OddsRecord{
		Key:         pipeline.MakeGameKey(date, home, away),
		YRFIOdds:    *yrfi,
		NRFIOdds:    *nrfi,
		YRFIImplied: ImpliedProbability(*yrfi),
		NRFIImplied: ImpliedProbability(*nrfi),
	}, nil
}

// ImpliedProbability converts American odds to a break-even probability.
// Negative prices are favorites: -115 implies 115/215.
func ImpliedProbability(odds int) float64 {
	if odds < 0 {
		return float64(-odds) / float64(-odds+100)
	}
	return 100.0 / float64(odds+100)
}

// TrackMovement folds a fresh snapshot onto the stored one: the opening
// price sticks to the earliest observation and the movement columns compare
// current against opening. Shortening YRFI prices mean money on a run
// scoring.
func TrackMovement(stored *pipeline.OddsRecord, current pipeline.OddsRecord) pipeline.OddsRecord {
	opening := current.YRFIOdds
	if stored != nil && stored.OpeningYRFI != nil {
		opening = *stored.OpeningYRFI
	}
	current.OpeningYRFI = &opening

	delta := current.YRFIOdds - opening
	current.MovementCents = abs(delta)
	switch {
	case delta < -movementThreshold:
		current.Movement = "YRFI"
	case delta > movementThreshold:
		current.Movement = "NRFI"
	default:
		current.Movement = "none"
	}
	return current
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
