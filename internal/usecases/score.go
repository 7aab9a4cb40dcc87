package usecases

import "unicode/utf8"

const (
	WellnessTip = "Stay mindful and take care of yourself!"
	DailyTip    = "Remember to take breaks and prioritize self-care. Small mindful moments can make a big difference. 💙"
)

// Score is an illustrative 1..10 number derived from the text length. It has
// no clinical meaning.
func Score(text string) int {
	return utf8.RuneCountInString(text)%10 + 1
}
