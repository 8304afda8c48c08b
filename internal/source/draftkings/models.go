package draftkings

// Wire shapes for the sportsbook's event-group API. The response nests
// first-inning offers four levels deep under the league's offer categories.

type apiResponse struct {
	EventGroup struct {
		OfferCategories []offerCategory `json:"offerCategories"`
	} `json:"eventGroup"`
}

type offerCategory struct {
	Name        string `json:"name"`
	Descriptors []struct {
		OfferSubcategory struct {
			Offers [][]offerItem `json:"offers"`
		} `json:"offerSubcategory"`
	} `json:"offerSubcategoryDescriptors"`
}

type offerItem struct {
	Label    string    `json:"label"`
	Outcomes []outcome `json:"outcomes"`
}

type outcome struct {
	Label        string `json:"label"`
	OddsAmerican string `json:"oddsAmerican"`
}
