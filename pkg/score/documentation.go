package score

import "unicode/utf8"

// DocInput gathers the documentation signals of one package.
type DocInput struct {
	Readme   string
	Homepage string
	HasWiki  bool
	HasPages bool
	Keywords int
}

// Documentation scores documentation quality from 0 to 5 in half points.
func Documentation(in DocInput) float64 {
	return DefaultThresholds.Documentation(in)
}

// Documentation scores in with the receiver's constants.
func (t Thresholds) Documentation(in DocInput) float64 {
	score := 0.0
	if in.Readme != "" {
		score++
		n := utf8.RuneCountInString(in.Readme)
		if n > t.ReadmeLong {
			score++
		}
		if n > t.ReadmeVeryLong {
			score++
		}
	}
	if in.Homepage != "" {
		score += 0.5
	}
	if in.HasWiki {
		score += 0.5
	}
	if in.HasPages {
		score += 0.5
	}
	if in.Keywords > t.MinKeywords {
		score += 0.5
	}
	return min(t.DocCap, round(score, 1))
}
