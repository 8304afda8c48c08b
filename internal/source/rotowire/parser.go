package rotowire

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
	"github.com/diamondsights/yrfi-pipeline/internal/teams"
)

// topOfOrder is how many lineup slots are kept per team. First-inning
// modeling only ever sees the top of the order.
const topOfOrder = 6

// ParseLineups extracts every lineup card from the daily-lineups page. Cards
// that cannot be keyed to two canonical teams are reported as malformed and
// skipped; the rest of the page still parses.
func ParseLineups(date string, body []byte) ([]pipeline.LineupRecord, []error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, []error{&pipeline.MalformedRecordError{
			Source: "rotowire", ID: date, Field: "body", Err: err,
		}}
	}

	var recs []pipeline.LineupRecord
	var bad []error
	doc.Find("div.lineup").Each(func(i int, card *goquery.Selection) {
		// Promo and tools boxes reuse the lineup class without team names.
		if card.Find("div.lineup__team-name").Length() == 0 {
			return
		}
		rec, err := parseCard(date, i, card)
		if err != nil {
			bad = append(bad, err)
			return
		}
		recs = append(recs, rec)
	})
	return recs, bad
}

// parseCard reads one game card. RotoWire lists the away side first in every
// paired element: team names, pitchers, and the two batter lists.
func parseCard(date string, idx int, card *goquery.Selection) (pipeline.LineupRecord, error) {
	cardID := fmt.Sprintf("%s#%d", date, idx)

	names := card.Find("div.lineup__team-name")
	if names.Length() < 2 {
		return pipeline.LineupRecord{}, &pipeline.MalformedRecordError{
			Source: "rotowire", ID: cardID, Field: "team-name",
			Err: fmt.Errorf("card has %d team names, want 2", names.Length()),
		}
	}
	away, err := teams.Resolve(strings.TrimSpace(names.Eq(0).Text()))
	if err != nil {
		return pipeline.LineupRecord{}, &pipeline.MalformedRecordError{
			Source: "rotowire", ID: cardID, Field: "away-team", Err: err,
		}
	}
	home, err := teams.Resolve(strings.TrimSpace(names.Eq(1).Text()))
	if err != nil {
		return pipeline.LineupRecord{}, &pipeline.MalformedRecordError{
			Source: "rotowire", ID: cardID, Field: "home-team", Err: err,
		}
	}

	rec := pipeline.LineupRecord{
		Key:      pipeline.MakeGameKey(date, home, away),
		Date:     date,
		HomeTeam: home,
		AwayTeam: away,
	}

	pitchers := card.Find("div.lineup__pitcher")
	if pitchers.Length() >= 2 {
		rec.AwayPitcher = pitcherName(pitchers.Eq(0))
		rec.HomePitcher = pitcherName(pitchers.Eq(1))
	}

	confirmed := card.Find("span.lineup__confirmed")
	rec.AwayConfirmed = confirmed.Length() >= 1
	rec.HomeConfirmed = confirmed.Length() >= 2

	lists := card.Find("ul.lineup__list")
	if lists.Length() >= 2 {
		rec.AwayBatters = parseBatters(lists.Eq(0))
		rec.HomeBatters = parseBatters(lists.Eq(1))
	}
	return rec, nil
}

func pitcherName(sel *goquery.Selection) string {
	if a := sel.Find("a").First(); a.Length() > 0 {
		return strings.TrimSpace(a.Text())
	}
	return strings.TrimSpace(sel.Text())
}

func parseBatters(list *goquery.Selection) []pipeline.LineupSlot {
	var slots []pipeline.LineupSlot
	list.Find("li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		if len(slots) >= topOfOrder {
			return false
		}
		link := li.Find("a").First()
		if link.Length() == 0 {
			return true
		}
		name := strings.TrimSpace(link.AttrOr("title", ""))
		if name == "" {
			name = strings.TrimSpace(link.Text())
		}
		if name == "" {
			return true
		}
		slots = append(slots, pipeline.LineupSlot{
			Order:    len(slots) + 1,
			Name:     name,
			Position: strings.TrimSpace(li.Find("span.lineup__pos").First().Text()),
		})
		return true
	})
	return slots
}
