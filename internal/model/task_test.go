package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    Status
		wantErr bool
	}{
		{raw: "todo", want: StatusTodo},
		{raw: "in-progress", want: StatusInProgress},
		{raw: " review ", want: StatusReview},
		{raw: "done", want: StatusDone},
		{raw: "pending", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseStatus(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatus_OrderAndTitles(t *testing.T) {
	assert.Equal(t, 0, StatusTodo.Index())
	assert.Equal(t, 3, StatusDone.Index())
	assert.Equal(t, -1, Status("archived").Index())
	assert.Equal(t, "In Progress", StatusInProgress.Title())
}

func TestTask_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		task    Task
		wantErr bool
		check   func(*testing.T, Task)
	}{
		{
			name: "defaults priority and lists",
			task: Task{Title: "Write docs", Status: StatusTodo},
			check: func(t *testing.T, task Task) {
				assert.Equal(t, PriorityMedium, task.Priority)
				assert.NotNil(t, task.Assignees)
				assert.NotNil(t, task.Tags)
			},
		},
		{
			name: "tags collapse to a set",
			task: Task{Title: "Tags", Status: StatusTodo, Tags: []string{"api", " api", "ui", "", "api"}},
			check: func(t *testing.T, task Task) {
				assert.Equal(t, []string{"api", "ui"}, task.Tags)
			},
		},
		{
			name:    "empty title",
			task:    Task{Title: "  ", Status: StatusTodo},
			wantErr: true,
		},
		{
			name:    "unknown status",
			task:    Task{Title: "x", Status: "blocked"},
			wantErr: true,
		},
		{
			name:    "missing status",
			task:    Task{Title: "x"},
			wantErr: true,
		},
		{
			name:    "unknown priority",
			task:    Task{Title: "x", Status: StatusDone, Priority: "urgent"},
			wantErr: true,
		},
		{
			name:    "bad due date",
			task:    Task{Title: "x", Status: StatusDone, DueDate: "16/10/2026"},
			wantErr: true,
		},
		{
			name: "valid due date",
			task: Task{Title: "x", Status: StatusDone, DueDate: "2026-10-16"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := tt.task
			err := task.Normalize()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, task)
			}
		})
	}
}

func TestTaskPatch_Apply(t *testing.T) {
	base := Task{
		ID:        "t1",
		Title:     "Original",
		Status:    StatusTodo,
		Priority:  PriorityLow,
		Assignees: []string{"Ann"},
		Tags:      []string{"ops"},
	}

	title := "  Renamed "
	high := PriorityHigh
	got := TaskPatch{Title: &title, Priority: &high, Tags: []string{}}.Apply(base)

	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, PriorityHigh, got.Priority)
	assert.Equal(t, []string{"Ann"}, got.Assignees, "absent field stays untouched")
	assert.Empty(t, got.Tags, "empty list clears the field")
	assert.Equal(t, []string{"ops"}, base.Tags, "base task is not mutated")
}

func TestTaskPatch_JSONDistinguishesNullFromEmpty(t *testing.T) {
	var p TaskPatch
	require.NoError(t, json.Unmarshal([]byte(`{"title":"x","assignees":[],"tags":null}`), &p))

	require.NotNil(t, p.Title)
	assert.NotNil(t, p.Assignees)
	assert.Empty(t, p.Assignees)
	assert.Nil(t, p.Tags)
	assert.Nil(t, p.Status)
}
