// Package dashboard derives board statistics from a note list and a user
// list.
//
// Aggregate is a pure function of its inputs and the supplied clock value.
// It recomputes everything on each call; board sizes are small enough that
// incremental bookkeeping is not worth its complexity.
package dashboard

import (
	"strings"
	"time"

	"github.com/sakif/stickyboard/internal/model"
)

// ActivityDays is the length of the trailing creation histogram.
const ActivityDays = 7

// UnknownColor is the bucket for notes whose color id is empty.
const UnknownColor = "unknown"

// Stats is the dashboard summary.
type Stats struct {
	TotalNotes int `json:"totalNotes"`
	WithBody   int `json:"withBody"`
	EmptyBody  int `json:"emptyBody"`

	ColorsCount map[string]int `json:"colorsCount"`
	// ColorOrder lists color ids in first-seen order.
	ColorOrder []string `json:"colorOrder"`
	TopColor   string   `json:"topColor"`

	CreatedToday    int `json:"createdToday"`
	CreatedThisWeek int `json:"createdThisWeek"`
	UpdatedToday    int `json:"updatedToday"`

	// Activity[0] is today, Activity[6] six days ago.
	Activity [ActivityDays]int `json:"activity"`

	NotesPerUser map[string]int `json:"notesPerUser"`

	TotalUsers           int `json:"totalUsers"`
	Admins               int `json:"admins"`
	UsersCreatedThisWeek int `json:"usersCreatedThisWeek"`
}

// Aggregate computes Stats for notes and users as seen at now. Day and week
// boundaries are taken in now's location.
func Aggregate(notes []model.ParsedNote, users []model.User, now time.Time) Stats {
	today := StartOfDay(now)
	weekStart := WeekStart(now)

	s := Stats{
		TotalNotes:   len(notes),
		ColorsCount:  make(map[string]int),
		ColorOrder:   []string{},
		NotesPerUser: make(map[string]int),
	}

	for _, n := range notes {
		if strings.TrimSpace(n.Body) != "" {
			s.WithBody++
		} else {
			s.EmptyBody++
		}

		colorID := n.Colors.ID
		if colorID == "" {
			colorID = UnknownColor
		}
		if _, seen := s.ColorsCount[colorID]; !seen {
			s.ColorOrder = append(s.ColorOrder, colorID)
		}
		s.ColorsCount[colorID]++

		if !n.CreatedAt.IsZero() {
			if !n.CreatedAt.Before(today) {
				s.CreatedToday++
			}
			if !n.CreatedAt.Before(weekStart) {
				s.CreatedThisWeek++
			}
			if d, ok := dayIndex(n.CreatedAt, now); ok {
				s.Activity[d]++
			}
		}
		if !n.UpdatedAt.IsZero() && !n.UpdatedAt.Before(today) {
			s.UpdatedToday++
		}

		if n.UserID != "" {
			s.NotesPerUser[n.UserID]++
		}
	}

	s.TopColor = topColor(s.ColorsCount, s.ColorOrder)

	s.TotalUsers = len(users)
	for _, u := range users {
		if u.IsAdmin() {
			s.Admins++
		}
		if !u.CreatedAt.IsZero() && !u.CreatedAt.Before(weekStart) {
			s.UsersCreatedThisWeek++
		}
	}

	return s
}

// topColor returns the most frequent color. Ties go to the color seen first.
func topColor(counts map[string]int, order []string) string {
	top, best := "", 0
	for _, id := range order {
		if counts[id] > best {
			top, best = id, counts[id]
		}
	}
	return top
}

// StartOfDay returns local midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WeekStart returns midnight of the most recent Monday. Weeks start on
// Monday, so for a Sunday the result is six days earlier.
func WeekStart(now time.Time) time.Time {
	sinceMonday := (int(now.Weekday()) + 6) % 7
	return StartOfDay(now).AddDate(0, 0, -sinceMonday)
}

// dayIndex returns how many calendar days t lies before now, if that is
// within the activity window.
func dayIndex(t, now time.Time) (int, bool) {
	t = t.In(now.Location())
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	// Compare civil dates in UTC so DST transitions do not shift the count.
	a := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	b := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	days := int(b.Sub(a).Hours() / 24)
	if days < 0 || days >= ActivityDays {
		return 0, false
	}
	return days, true
}

// Filter returns the notes whose parsed body contains search, ignoring
// case. An empty search returns notes unchanged.
func Filter(notes []model.ParsedNote, search string) []model.ParsedNote {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return notes
	}
	out := make([]model.ParsedNote, 0, len(notes))
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n.Body), search) {
			out = append(out, n)
		}
	}
	return out
}
