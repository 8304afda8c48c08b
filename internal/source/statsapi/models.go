package statsapi

// Wire shapes for the MLB Stats API. Only the fields the pipeline reads are
// declared; everything else in the payloads is ignored.

type scheduleResponse struct {
	Dates []scheduleDate `json:"dates"`
}

type scheduleDate struct {
	Date  string         `json:"date"`
	Games []scheduleGame `json:"games"`
}

type scheduleGame struct {
	GamePk   int64  `json:"gamePk"`
	GameType string `json:"gameType"`
	Status   struct {
		DetailedState string `json:"detailedState"`
	} `json:"status"`
	Teams struct {
		Home scheduleSide `json:"home"`
		Away scheduleSide `json:"away"`
	} `json:"teams"`
	Venue struct {
		Name string `json:"name"`
	} `json:"venue"`
}

type scheduleSide struct {
	Team struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"team"`
}

type feedResponse struct {
	GameData struct {
		Datetime struct {
			OfficialDate string `json:"officialDate"`
		} `json:"datetime"`
		Venue struct {
			Name string `json:"name"`
		} `json:"venue"`
		Weather struct {
			Temp      string `json:"temp"`
			Wind      string `json:"wind"`
			Condition string `json:"condition"`
		} `json:"weather"`
		Teams struct {
			Home struct {
				Name string `json:"name"`
			} `json:"home"`
			Away struct {
				Name string `json:"name"`
			} `json:"away"`
		} `json:"teams"`
	} `json:"gameData"`
	LiveData struct {
		Linescore struct {
			Innings []struct {
				Home inningHalf `json:"home"`
				Away inningHalf `json:"away"`
			} `json:"innings"`
			Teams struct {
				Home struct {
					Runs *int `json:"runs"`
				} `json:"home"`
				Away struct {
					Runs *int `json:"runs"`
				} `json:"away"`
			} `json:"teams"`
		} `json:"linescore"`
		Boxscore struct {
			Teams struct {
				Home boxscoreTeam `json:"home"`
				Away boxscoreTeam `json:"away"`
			} `json:"teams"`
		} `json:"boxscore"`
	} `json:"liveData"`
}

type inningHalf struct {
	Runs *int `json:"runs"`
}

type boxscoreTeam struct {
	Pitchers []int64 `json:"pitchers"`
	Players  map[string]struct {
		Person struct {
			FullName string `json:"fullName"`
		} `json:"person"`
	} `json:"players"`
}

type peopleSearchResponse struct {
	People []struct {
		ID       int64  `json:"id"`
		FullName string `json:"fullName"`
	} `json:"people"`
}
