package umpires

// Stats are one umpire's season tendencies. ZoneScore runs -1 (hitter
// friendly) to +1 (pitcher friendly); RunImpact is expected runs versus
// league average.
type Stats struct {
	ZoneScore float64
	RunImpact float64
	Tendency  string
}

// knownUmpires is the offline fallback table, refreshed each offseason from
// published scorecard numbers. Assignments still come from the live scrape;
// this only covers the tendency columns when the site is down or the umpire
// page lacks them.
var knownUmpires = map[string]Stats{
	"Angel Hernandez":    {ZoneScore: -0.8, RunImpact: 0.45, Tendency: "hitter"},
	"CB Bucknor":         {ZoneScore: -0.6, RunImpact: 0.38, Tendency: "hitter"},
	"Alfonso Marquez":    {ZoneScore: -0.4, RunImpact: 0.22, Tendency: "hitter"},
	"Joe West":           {ZoneScore: -0.3, RunImpact: 0.18, Tendency: "hitter"},
	"Laz Diaz":           {ZoneScore: -0.3, RunImpact: 0.15, Tendency: "hitter"},
	"Mark Carlson":       {ZoneScore: 0.0, RunImpact: 0.00, Tendency: "neutral"},
	"Bill Miller":        {ZoneScore: 0.0, RunImpact: 0.05, Tendency: "neutral"},
	"Dan Iassogna":       {ZoneScore: 0.1, RunImpact: -0.08, Tendency: "neutral"},
	"Jeff Nelson":        {ZoneScore: 0.2, RunImpact: -0.12, Tendency: "pitcher"},
	"Hunter Wendelstedt": {ZoneScore: 0.3, RunImpact: -0.18, Tendency: "pitcher"},
	"Jim Reynolds":       {ZoneScore: 0.3, RunImpact: -0.20, Tendency: "pitcher"},
	"Tom Hallion":        {ZoneScore: 0.4, RunImpact: -0.25, Tendency: "pitcher"},
	"Fieldin Culbreth":   {ZoneScore: 0.5, RunImpact: -0.30, Tendency: "pitcher"},
	"Chad Fairchild":     {ZoneScore: 0.5, RunImpact: -0.28, Tendency: "pitcher"},
	"Nic Lentz":          {ZoneScore: 0.6, RunImpact: -0.35, Tendency: "pitcher"},
	"Ron Kulpa":          {ZoneScore: 0.7, RunImpact: -0.42, Tendency: "pitcher"},
}

// Lookup returns an umpire's tendencies, falling back to league average for
// names outside the table. The second return reports whether the umpire was
// known.
func Lookup(name string) (Stats, bool) {
	if s, ok := knownUmpires[name]; ok {
		return s, true
	}
	return Stats{Tendency: "neutral"}, false
}

// YRFIAdjustment converts run impact into a probability shift: each 0.1 of
// run impact moves the first-inning scoring chance about one point.
func (s Stats) YRFIAdjustment() float64 {
	return s.RunImpact * 0.10
}
