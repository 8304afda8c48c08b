// Package teams maps the many spellings of MLB team names onto canonical ids.
package teams

import (
	"strings"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
)

// aliases maps every known spelling (lowercased) to the canonical abbreviation.
// Sources disagree constantly: Stats API uses full names, RotoWire uses
// abbreviations, DraftKings uses city names. Everything funnels through here.
var aliases = map[string]string{
	"arizona diamondbacks": "ARI", "diamondbacks": "ARI", "ari": "ARI", "az": "ARI", "arizona": "ARI",
	"atlanta braves": "ATL", "braves": "ATL", "atl": "ATL", "atlanta": "ATL",
	"baltimore orioles": "BAL", "orioles": "BAL", "bal": "BAL", "baltimore": "BAL",
	"boston red sox": "BOS", "red sox": "BOS", "bos": "BOS", "boston": "BOS",
	"chicago cubs": "CHC", "cubs": "CHC", "chc": "CHC",
	"chicago white sox": "CWS", "white sox": "CWS", "cws": "CWS", "chw": "CWS",
	"cincinnati reds": "CIN", "reds": "CIN", "cin": "CIN", "cincinnati": "CIN",
	"cleveland guardians": "CLE", "guardians": "CLE", "cle": "CLE", "cleveland": "CLE",
	"colorado rockies": "COL", "rockies": "COL", "col": "COL", "colorado": "COL",
	"detroit tigers": "DET", "tigers": "DET", "det": "DET", "detroit": "DET",
	"houston astros": "HOU", "astros": "HOU", "hou": "HOU", "houston": "HOU",
	"kansas city royals": "KC", "royals": "KC", "kc": "KC", "kcr": "KC", "kansas city": "KC",
	"los angeles angels": "LAA", "angels": "LAA", "laa": "LAA",
	"los angeles dodgers": "LAD", "dodgers": "LAD", "lad": "LAD",
	"miami marlins": "MIA", "marlins": "MIA", "mia": "MIA", "miami": "MIA",
	"milwaukee brewers": "MIL", "brewers": "MIL", "mil": "MIL", "milwaukee": "MIL",
	"minnesota twins": "MIN", "twins": "MIN", "min": "MIN", "minnesota": "MIN",
	"new york mets": "NYM", "mets": "NYM", "nym": "NYM",
	"new york yankees": "NYY", "yankees": "NYY", "nyy": "NYY",
	"oakland athletics": "OAK", "athletics": "OAK", "oak": "OAK", "oakland": "OAK", "a's": "OAK",
	"philadelphia phillies": "PHI", "phillies": "PHI", "phi": "PHI", "philadelphia": "PHI",
	"pittsburgh pirates": "PIT", "pirates": "PIT", "pit": "PIT", "pittsburgh": "PIT",
	"san diego padres": "SD", "padres": "SD", "sd": "SD", "sdp": "SD", "san diego": "SD",
	"san francisco giants": "SF", "giants": "SF", "sf": "SF", "sfg": "SF", "san francisco": "SF",
	"seattle mariners": "SEA", "mariners": "SEA", "sea": "SEA", "seattle": "SEA",
	"st. louis cardinals": "STL", "st louis cardinals": "STL", "cardinals": "STL", "stl": "STL", "st. louis": "STL", "st louis": "STL",
	"tampa bay rays": "TB", "rays": "TB", "tb": "TB", "tbr": "TB", "tampa bay": "TB",
	"texas rangers": "TEX", "rangers": "TEX", "tex": "TEX", "texas": "TEX",
	"toronto blue jays": "TOR", "blue jays": "TOR", "tor": "TOR", "toronto": "TOR",
	"washington nationals": "WSH", "nationals": "WSH", "wsh": "WSH", "was": "WSH", "washington": "WSH",
}

// statsAPIIDs maps canonical abbreviations to MLB Stats API numeric team ids,
// used for schedule filtering.
var statsAPIIDs = map[string]int{
	"ARI": 109, "ATL": 144, "BAL": 110, "BOS": 111, "CHC": 112, "CWS": 145,
	"CIN": 113, "CLE": 114, "COL": 115, "DET": 116, "HOU": 117, "KC": 118,
	"LAA": 108, "LAD": 119, "MIA": 146, "MIL": 158, "MIN": 142, "NYM": 121,
	"NYY": 147, "OAK": 133, "PHI": 143, "PIT": 134, "SD": 135, "SF": 137,
	"SEA": 136, "STL": 138, "TB": 139, "TEX": 140, "TOR": 141, "WSH": 120,
}

// Resolve maps any known team spelling to its canonical id. Unknown names
// fail loudly so mismatched joins never slip through silently.
func Resolve(name string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.TrimSuffix(key, ".")
	if id, ok := aliases[key]; ok {
		return id, nil
	}
	return "", &pipeline.UnknownEntityError{Kind: "team", Name: name}
}

// StatsAPIID returns the MLB Stats API numeric id for the canonical team id.
func StatsAPIID(canonical string) (int, bool) {
	id, ok := statsAPIIDs[strings.ToUpper(canonical)]
	return id, ok
}

// ResolveMatchup parses an "AWY @ HOM" label (the shape odds and umpire
// sources use) into canonical away/home ids.
func ResolveMatchup(label string) (away, home string, err error) {
	parts := strings.Split(label, "@")
	if len(parts) != 2 {
		return "", "", &pipeline.UnknownEntityError{Kind: "matchup", Name: label}
	}
	away, err = Resolve(parts[0])
	if err != nil {
		return "", "", err
	}
	home, err = Resolve(parts[1])
	if err != nil {
		return "", "", err
	}
	return away, home, nil
}
