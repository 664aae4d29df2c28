package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/stickyboard/internal/model"
	"github.com/sakif/stickyboard/internal/notefmt"
)

// wednesday is 2024-05-15 14:30 local (UTC here for determinism).
var wednesday = time.Date(2024, 5, 15, 14, 30, 0, 0, time.UTC)

func note(id, body, color string, created time.Time) model.ParsedNote {
	return model.ParsedNote{
		ID:        id,
		Body:      body,
		Colors:    model.Colors{ID: color},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestAggregate_ColorsCountAndTopColor(t *testing.T) {
	notes := []model.ParsedNote{
		note("1", "", "red", wednesday),
		note("2", "", "red", wednesday),
		note("3", "", "blue", wednesday),
	}

	s := Aggregate(notes, nil, wednesday)

	assert.Equal(t, map[string]int{"red": 2, "blue": 1}, s.ColorsCount)
	assert.Equal(t, "red", s.TopColor)
	assert.Equal(t, []string{"red", "blue"}, s.ColorOrder)
}

func TestAggregate_TopColorTieGoesToFirstSeen(t *testing.T) {
	notes := []model.ParsedNote{
		note("1", "", "blue", wednesday),
		note("2", "", "red", wednesday),
		note("3", "", "red", wednesday),
		note("4", "", "blue", wednesday),
	}

	s := Aggregate(notes, nil, wednesday)

	assert.Equal(t, "blue", s.TopColor)
}

func TestAggregate_EmptyInput(t *testing.T) {
	s := Aggregate(nil, nil, wednesday)

	assert.Equal(t, 0, s.TotalNotes)
	assert.Equal(t, "", s.TopColor)
	assert.Empty(t, s.ColorsCount)
	assert.Empty(t, s.NotesPerUser)
	assert.Equal(t, [ActivityDays]int{}, s.Activity)
}

func TestAggregate_BodyPartition(t *testing.T) {
	notes := []model.ParsedNote{
		note("1", "hello", "c", wednesday),
		note("2", "", "c", wednesday),
		note("3", "   ", "c", wednesday),
		// parsed bodies are already unwrapped once; leftover quotes are text
		note("4", `""`, "c", wednesday),
		note("5", `"hi"`, "c", wednesday),
	}

	s := Aggregate(notes, nil, wednesday)

	assert.Equal(t, 3, s.WithBody)
	assert.Equal(t, 2, s.EmptyBody)
}

func TestAggregate_MissingColorIsUnknown(t *testing.T) {
	s := Aggregate([]model.ParsedNote{note("1", "", "", wednesday)}, nil, wednesday)

	assert.Equal(t, 1, s.ColorsCount[UnknownColor])
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"wednesday", wednesday, time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)},
		{"monday", time.Date(2024, 5, 13, 8, 0, 0, 0, time.UTC), time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)},
		{"sunday goes back six days", time.Date(2024, 5, 19, 23, 59, 0, 0, time.UTC), time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)},
		{"crosses month", time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC), time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, WeekStart(tt.now).Equal(tt.want), "WeekStart(%v) = %v, want %v", tt.now, WeekStart(tt.now), tt.want)
		})
	}
}

func TestWeekStart_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	// Sunday 20:00 UTC is already Monday 05:00 in UTC+9.
	now := time.Date(2024, 5, 19, 20, 0, 0, 0, time.UTC).In(loc)

	got := WeekStart(now)

	assert.True(t, got.Equal(time.Date(2024, 5, 20, 0, 0, 0, 0, loc)))
}

func TestAggregate_TodayAndWeekCounts(t *testing.T) {
	monday := time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)
	notes := []model.ParsedNote{
		note("today", "", "c", time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)),
		note("monday", "", "c", monday),
		note("sunday-before", "", "c", monday.Add(-time.Second)),
		note("zero", "", "c", time.Time{}),
	}
	notes[1].UpdatedAt = wednesday.Add(-time.Hour)

	s := Aggregate(notes, nil, wednesday)

	assert.Equal(t, 1, s.CreatedToday)
	assert.Equal(t, 2, s.CreatedThisWeek)
	assert.Equal(t, 2, s.UpdatedToday)
}

func TestAggregate_ActivityHistogram(t *testing.T) {
	notes := []model.ParsedNote{
		note("a", "", "c", wednesday.Add(-time.Hour)),          // today
		note("b", "", "c", wednesday.Add(-14*time.Hour-29*time.Minute)), // 00:01 today
		note("c", "", "c", time.Date(2024, 5, 14, 23, 0, 0, 0, time.UTC)),
		note("d", "", "c", time.Date(2024, 5, 9, 1, 0, 0, 0, time.UTC)), // six days ago
		note("e", "", "c", time.Date(2024, 5, 8, 23, 0, 0, 0, time.UTC)), // seven days ago: ignored
		note("f", "", "c", wednesday.Add(48*time.Hour)),                   // future: ignored
		note("g", "", "c", time.Time{}),                                   // unparsable: ignored
	}

	s := Aggregate(notes, nil, wednesday)

	assert.Equal(t, [ActivityDays]int{2, 1, 0, 0, 0, 0, 1}, s.Activity)
}

func TestAggregate_NotesPerUser(t *testing.T) {
	notes := []model.ParsedNote{
		note("1", "", "c", wednesday),
		note("2", "", "c", wednesday),
		note("3", "", "c", wednesday),
	}
	notes[0].UserID = "u1"
	notes[1].UserID = "u1"

	s := Aggregate(notes, nil, wednesday)

	assert.Equal(t, map[string]int{"u1": 2}, s.NotesPerUser)
	assert.Equal(t, 3, s.TotalNotes)
}

func TestAggregate_UserStats(t *testing.T) {
	users := []model.User{
		{ID: "1", Role: model.RoleAdmin, CreatedAt: wednesday.AddDate(0, -1, 0)},
		{ID: "2", Role: model.RoleUser, CreatedAt: wednesday.Add(-time.Hour)},
		{ID: "3", Role: model.RoleUser},
	}

	s := Aggregate(nil, users, wednesday)

	assert.Equal(t, 3, s.TotalUsers)
	assert.Equal(t, 1, s.Admins)
	assert.Equal(t, 1, s.UsersCreatedThisWeek)
}

func TestAggregate_IsDeterministic(t *testing.T) {
	notes := []model.ParsedNote{note("1", "x", "red", wednesday), note("2", "", "blue", wednesday)}

	first := Aggregate(notes, nil, wednesday)
	second := Aggregate(notes, nil, wednesday)

	require.Equal(t, first, second)
}

func TestFilter(t *testing.T) {
	notes := []model.ParsedNote{
		note("1", "Buy MILK", "c", wednesday),
		note("2", "call mom", "c", wednesday),
		note("3", `"milkshake"`, "c", wednesday),
	}

	got := Filter(notes, " milk ")

	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
	assert.Len(t, Filter(notes, ""), 3)
}

func TestFilter_MatchesParsedTextVerbatim(t *testing.T) {
	notes := []model.ParsedNote{
		note("1", `"quoted"`, "c", wednesday),
		note("2", "quoted", "c", wednesday),
	}

	got := Filter(notes, `"quoted"`)

	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
}

func TestAggregate_DoubleEncodedEmptyBodyHasText(t *testing.T) {
	// stored as a JSON string whose content is itself an encoded empty string
	parsed, errs := notefmt.Parse(model.Note{ID: "d", Body: `"\"\""`, Colors: `{"id":"c"}`, Position: `{"x":1,"y":1}`})
	require.Empty(t, errs)
	require.Equal(t, `""`, parsed.Body)

	s := Aggregate([]model.ParsedNote{parsed}, nil, wednesday)

	assert.Equal(t, 1, s.WithBody)
	assert.Zero(t, s.EmptyBody)
}
