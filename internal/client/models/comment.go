package models

import "fmt"

// Comment is a shout or review attached to an episode or movie.
type Comment struct {
	Type    ItemType
	TraktID int
	Text    string
	Spoiler bool
}

// Rating is a 1..10 score for an episode or movie.
type Rating struct {
	Type    ItemType
	TraktID int
	Rating  int
}

// Title is the display information the local store keeps for a trakt item.
type Title struct {
	Type      ItemType
	TraktID   int
	Title     string
	ShowTitle string
	Season    int
	Number    int
}

// Display renders t for user-facing messages.
func (t Title) Display() string {
	if t.Type == ItemEpisode && t.ShowTitle != "" {
		s := fmt.Sprintf("%s %dx%02d", t.ShowTitle, t.Season, t.Number)
		if t.Title != "" {
			s += " " + t.Title
		}
		return s
	}
	return t.Title
}
