package domain

import (
	"fmt"
	"strings"

	internal_errors "github.com/itchan-dev/emojiprofile/shared/errors"
)

// Mood is the emoji sent to the backend to steer the conversion style.
type Mood string

const (
	MoodHappy  Mood = "😄"
	MoodAngry  Mood = "😠"
	MoodCrying Mood = "😭"
	MoodParty  Mood = "🥳"
)

// DefaultMood is selected until the user picks another one.
const DefaultMood = MoodHappy

// Moods lists the supported moods in display order.
var Moods = []Mood{MoodHappy, MoodAngry, MoodCrying, MoodParty}

const resultFilenamePrefix = "emoji-profile-"

func (m Mood) String() string {
	return string(m)
}

func (m Mood) Valid() bool {
	for _, known := range Moods {
		if m == known {
			return true
		}
	}
	return false
}

// ParseMood accepts exactly one of the supported emoji.
func ParseMood(s string) (Mood, error) {
	m := Mood(strings.TrimSpace(s))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", internal_errors.ErrInvalidMood, s)
	}
	return m, nil
}

// ResultFilename is the name a downloaded conversion is saved under.
func ResultFilename(m Mood) string {
	return resultFilenamePrefix + string(m) + ".png"
}
