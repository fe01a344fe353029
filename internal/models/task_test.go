package models

import (
	"testing"
	"time"
)

// Wednesday 2024-06-12; the surrounding week runs Mon 06-10 through Sun 06-16.
var wednesday = time.Date(2024, 6, 12, 15, 30, 0, 0, time.UTC)

func TestEndOfWeek(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"midweek", wednesday, time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)},
		{"monday", time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC), time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)},
		{"sunday is its own week end", time.Date(2024, 6, 16, 23, 0, 0, 0, time.UTC), time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)},
		{"next monday rolls over", time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 23, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := EndOfWeek(tt.in); !got.Equal(tt.want) {
				t.Errorf("EndOfWeek(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStartOfWeek(t *testing.T) {
	t.Parallel()

	got := StartOfWeek(wednesday)
	want := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("StartOfWeek(%v) = %v, want %v", wednesday, got, want)
	}
}

func TestResolveDueDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		kind    DueDateKind
		custom  string
		want    *time.Time
		wantErr bool
	}{
		{
			name: "none has no due date",
			kind: DueDateNone,
		},
		{
			name: "this week resolves to end of current week",
			kind: DueDateThisWeek,
			want: timePtr(time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)),
		},
		{
			name: "next week resolves to end of following week",
			kind: DueDateNextWeek,
			want: timePtr(time.Date(2024, 6, 23, 0, 0, 0, 0, time.UTC)),
		},
		{
			name:   "custom uses the supplied date",
			kind:   DueDateCustom,
			custom: "2024-07-04",
			want:   timePtr(time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC)),
		},
		{
			name:    "custom rejects unparseable input",
			kind:    DueDateCustom,
			custom:  "next tuesday",
			wantErr: true,
		},
		{
			name:    "custom rejects empty input",
			kind:    DueDateCustom,
			custom:  "",
			wantErr: true,
		},
		{
			name:    "unknown kind rejected",
			kind:    DueDateKind("someday"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ResolveDueDate(tt.kind, tt.custom, wednesday)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("ResolveDueDate() = %v, want %v", got, tt.want)
			}
			if got != nil && !got.Equal(*tt.want) {
				t.Errorf("ResolveDueDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTask_HasHashtag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		hashtags string
		tag      string
		want     bool
	}{
		{"present token", "#work #urgent", "#work", true},
		{"absent token", "#work #urgent", "#personal", false},
		{"match without hash prefix", "#work #urgent", "urgent", true},
		{"token stored without hash", "work urgent", "#work", true},
		{"no partial token match", "#workshop", "#work", false},
		{"empty field", "", "#work", false},
		{"empty tag", "#work", "", false},
		{"duplicate tokens tolerated", "#work #work", "#work", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			task := &Task{Hashtags: tt.hashtags}
			if got := task.HasHashtag(tt.tag); got != tt.want {
				t.Errorf("HasHashtag(%q) on %q = %v, want %v", tt.tag, tt.hashtags, got, tt.want)
			}
		})
	}
}

func TestValidTaskStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		valid bool
	}{
		{"incomplete", true},
		{"complete", true},
		{"completed", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			if got := ValidTaskStatus(tt.value); got != tt.valid {
				t.Errorf("ValidTaskStatus(%q) = %v, want %v", tt.value, got, tt.valid)
			}
		})
	}
}

func TestValidDueDateKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		valid bool
	}{
		{"none", true},
		{"this-week", true},
		{"next-week", true},
		{"custom", true},
		{"someday", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			if got := ValidDueDateKind(tt.value); got != tt.valid {
				t.Errorf("ValidDueDateKind(%q) = %v, want %v", tt.value, got, tt.valid)
			}
		})
	}
}

func timePtr(t time.Time) *time.Time { return &t }
