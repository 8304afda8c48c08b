package savant

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
)

// ParseProfile extracts a player's pitch mix and first-inning splits from a
// Savant player page. The arsenal table and the inning-splits table are both
// optional on the page, but a profile with neither is malformed.
func ParseProfile(playerID int64, season int, role pipeline.PlayerRole, body []byte) (pipeline.PitchProfileRecord, error) {
	recordID := strconv.FormatInt(playerID, 10)
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return pipeline.PitchProfileRecord{}, &pipeline.MalformedRecordError{
			Source: "savant", ID: recordID, Field: "body", Err: err,
		}
	}

	rec := pipeline.PitchProfileRecord{
		PlayerID:   playerID,
		PlayerName: strings.TrimSpace(doc.Find("div.player-name, h1.player-name").First().Text()),
		Role:       role,
		Season:     season,
	}

	rec.Arsenal = parseArsenal(doc)
	rec.FirstInning, rec.Remainder = parseInningSplits(doc)

	if len(rec.Arsenal) == 0 && rec.FirstInning == (pipeline.InningLine{}) && rec.Remainder == (pipeline.InningLine{}) {
		return pipeline.PitchProfileRecord{}, &pipeline.MalformedRecordError{
			Source: "savant", ID: recordID, Field: "tables",
			Err: fmt.Errorf("no arsenal or splits tables on page"),
		}
	}
	return rec, nil
}

// parseArsenal reads the pitch-mix table. Row cells are pitch type, usage
// percent, average velocity, whiff percent; rows missing a pitch type or with
// unparseable numbers are skipped.
func parseArsenal(doc *goquery.Document) []pipeline.PitchTypeStats {
	var arsenal []pipeline.PitchTypeStats
	doc.Find("table#pitch-arsenal tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}
		pitch := strings.TrimSpace(cells.Eq(0).Text())
		if pitch == "" {
			return
		}
		usage, err1 := parsePct(cells.Eq(1).Text())
		velo, err2 := parseNum(cells.Eq(2).Text())
		whiff, err3 := parsePct(cells.Eq(3).Text())
		if err1 != nil || err2 != nil || err3 != nil {
			return
		}
		arsenal = append(arsenal, pipeline.PitchTypeStats{
			PitchType:   pitch,
			UsagePct:    usage,
			AvgVelocity: velo,
			WhiffPct:    whiff,
		})
	})
	return arsenal
}

// parseInningSplits reads the first-inning versus later-innings table. Rows
// are labeled by inning group; columns are ERA, WHIP, AVG against, OPS
// against. Batter pages leave the pitching columns blank, which parse to nil.
func parseInningSplits(doc *goquery.Document) (first, rest pipeline.InningLine) {
	doc.Find("table#inning-splits tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 5 {
			return
		}
		line := pipeline.InningLine{
			ERA:        parseOptional(cells.Eq(1).Text()),
			WHIP:       parseOptional(cells.Eq(2).Text()),
			AvgAgainst: parseOptional(cells.Eq(3).Text()),
			OPS:        parseOptional(cells.Eq(4).Text()),
		}
		switch normalizeSplitLabel(cells.Eq(0).Text()) {
		case "1st inning":
			first = line
		case "innings 2+", "later innings":
			rest = line
		}
	})
	return first, rest
}

func normalizeSplitLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func parseNum(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func parsePct(s string) (float64, error) {
	return parseNum(strings.TrimSuffix(strings.TrimSpace(s), "%"))
}

func parseOptional(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || s == "--" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
