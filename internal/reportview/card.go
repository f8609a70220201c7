package reportview

import (
	"fmt"
	"strings"
	"time"

	"github.com/ignatzorin/roadwatch/internal/models"
)

// Card — краткое представление отчёта для списка.
type Card struct {
	Title        string
	Excerpt      string
	Severity     string
	Status       string
	CoverImage   string
	Location     string
	UpvotesLabel string
	Age          string
}

const excerptLength = 120

// Summarize готовит карточку отчёта.
func Summarize(r models.Report, now time.Time) Card {
	c := Card{
		Title:        r.Title,
		Excerpt:      excerpt(r.Description),
		Severity:     capitalize(string(r.Severity)),
		Status:       r.Status.Label(),
		Location:     r.Location.Describe(),
		UpvotesLabel: fmt.Sprintf("%d upvotes", r.Upvotes),
		Age:          relativeAge(r.DateReported, now),
	}
	if r.Upvotes == 1 {
		c.UpvotesLabel = "1 upvote"
	}
	if len(r.Images) > 0 {
		c.CoverImage = r.Images[0]
	}
	return c
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func excerpt(s string) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= excerptLength {
		return string(runes)
	}
	return strings.TrimSpace(string(runes[:excerptLength])) + "…"
}

func relativeAge(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour")
	case d < 30*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day")
	case d < 365*24*time.Hour:
		return plural(int(d/(30*24*time.Hour)), "month")
	default:
		return plural(int(d/(365*24*time.Hour)), "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
