package score

// Band awards Points when a value passes Limit. Bands are checked in order
// and the first match wins.
type Band struct {
	Limit  float64
	Points int
}

// Thresholds holds every scoring constant.
type Thresholds struct {
	// Activity bands. Recency matches when days since the last commit are
	// below Limit; the others match when the value is above Limit.
	Recency         []Band
	Contributors    []Band
	PullRequests    []Band
	ReleasesPerYear []Band
	Stars           []Band
	ActivityCap     int

	// Documentation points.
	ReadmeLong     int // runes for the second README point
	ReadmeVeryLong int // runes for the third README point
	MinKeywords    int // keyword count that must be exceeded
	DocCap         float64
}

// DefaultThresholds are the bands used by the package-level functions.
var DefaultThresholds = Thresholds{
	Recency: []Band{
		{90, 30},
		{180, 20},
		{365, 10},
	},
	Contributors: []Band{
		{50, 20},
		{20, 15},
		{10, 10},
		{5, 5},
	},
	PullRequests: []Band{
		{20, 15},
		{10, 10},
		{5, 5},
	},
	ReleasesPerYear: []Band{
		{12, 20},
		{6, 15},
		{3, 10},
		{1, 5},
	},
	Stars: []Band{
		{10000, 15},
		{5000, 12},
		{1000, 9},
		{500, 6},
		{100, 3},
	},
	ActivityCap: 100,

	ReadmeLong:     500,
	ReadmeVeryLong: 2000,
	MinKeywords:    3,
	DocCap:         5,
}

func above(bands []Band, v float64) int {
	for _, b := range bands {
		if v > b.Limit {
			return b.Points
		}
	}
	return 0
}

func below(bands []Band, v float64) int {
	for _, b := range bands {
		if v < b.Limit {
			return b.Points
		}
	}
	return 0
}
