package enrich

// countryInfo holds the text-matching vocabulary for one country.
type countryInfo struct {
	code       string
	names      []string
	adjectives []string
	tld        string
	confidence float64 // base confidence for a text match
}

// countryTable is evaluated in this fixed order so extraction is
// deterministic. Base confidences stay below the 0.95 TLD signal.
var countryTable = []countryInfo{
	// North America
	{
		code:       "US",
		names:      []string{"united states", "usa", "u.s.a", "u.s.", "america", "united states of america"},
		adjectives: []string{"american"},
		tld:        "us",
		confidence: 0.9,
	},
	{
		code:       "CA",
		names:      []string{"canada"},
		adjectives: []string{"canadian"},
		tld:        "ca",
		confidence: 0.9,
	},
	{
		code:       "MX",
		names:      []string{"mexico"},
		adjectives: []string{"mexican"},
		tld:        "mx",
		confidence: 0.85,
	},

	// Europe
	{
		code:       "GB",
		names:      []string{"united kingdom", "uk", "u.k.", "great britain", "england", "scotland", "wales", "northern ireland"},
		adjectives: []string{"british", "english", "scottish", "welsh", "northern irish"},
		tld:        "uk",
		confidence: 0.9,
	},
	{
		code:       "DE",
		names:      []string{"germany", "deutschland"},
		adjectives: []string{"german", "deutsche", "deutschen"},
		tld:        "de",
		confidence: 0.9,
	},
	{
		code:       "FR",
		names:      []string{"france"},
		adjectives: []string{"french", "française"},
		tld:        "fr",
		confidence: 0.9,
	},
	{
		code:       "ES",
		names:      []string{"spain", "españa", "espana"},
		adjectives: []string{"spanish", "español", "espanol"},
		tld:        "es",
		confidence: 0.85,
	},
	{
		code:       "IT",
		names:      []string{"italy", "italia"},
		adjectives: []string{"italian", "italiano"},
		tld:        "it",
		confidence: 0.85,
	},

	// Asia-Pacific
	{
		code:       "JP",
		names:      []string{"japan", "nippon", "nihon"},
		adjectives: []string{"japanese"},
		tld:        "jp",
		confidence: 0.9,
	},
	{
		code:       "CN",
		names:      []string{"china", "peoples republic of china", "prc", "zhongguo"},
		adjectives: []string{"chinese"},
		tld:        "cn",
		confidence: 0.9,
	},
	{
		code:       "IN",
		names:      []string{"india", "bharat"},
		adjectives: []string{"indian"},
		tld:        "in",
		confidence: 0.9,
	},
	{
		code:       "SG",
		names:      []string{"singapore"},
		adjectives: []string{"singaporean"},
		tld:        "sg",
		confidence: 0.85,
	},
}

// countryByCode indexes the table for bare-code lookups.
var countryByCode = func() map[string]countryInfo {
	m := make(map[string]countryInfo, len(countryTable))
	for _, c := range countryTable {
		m[c.code] = c
	}
	return m
}()
