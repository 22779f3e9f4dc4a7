package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/shared"
)

type stubRepo struct {
	tasks    map[int64]Task
	reminded map[int64]bool
	nextID   int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{tasks: map[int64]Task{}, reminded: map[int64]bool{}, nextID: 1}
}

func (s *stubRepo) Create(_ context.Context, in Input) (Task, error) {
	t := Task{ID: s.nextID, Title: in.Title, Notes: in.Notes, AssigneeID: in.AssigneeID, DueAt: in.DueAt, RelatedKind: in.RelatedKind, RelatedID: in.RelatedID}
	s.tasks[t.ID] = t
	s.nextID++
	return t, nil
}

func (s *stubRepo) Get(_ context.Context, id int64) (Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return Task{}, shared.ErrNotFound
	}
	return t, nil
}

func (s *stubRepo) List(_ context.Context, f ListFilter, _ shared.Pagination) ([]Task, error) {
	var out []Task
	for _, t := range s.tasks {
		if f.OpenOnly && t.Done {
			continue
		}
		if f.AssigneeID != 0 && (t.AssigneeID == nil || *t.AssigneeID != f.AssigneeID) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *stubRepo) Update(_ context.Context, id int64, in Input) (Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return Task{}, shared.ErrNotFound
	}
	t.Title, t.Notes, t.AssigneeID, t.DueAt = in.Title, in.Notes, in.AssigneeID, in.DueAt
	s.tasks[id] = t
	return t, nil
}

func (s *stubRepo) SetDone(_ context.Context, id int64, done bool, now time.Time) (Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return Task{}, shared.ErrNotFound
	}
	t.Done = done
	if done {
		t.DoneAt = &now
	} else {
		t.DoneAt = nil
	}
	s.tasks[id] = t
	return t, nil
}

func (s *stubRepo) Delete(_ context.Context, id int64) error {
	if _, ok := s.tasks[id]; !ok {
		return shared.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *stubRepo) DueForReminder(_ context.Context, now time.Time, window time.Duration) ([]Task, error) {
	var out []Task
	for id, t := range s.tasks {
		if t.Done || t.AssigneeID == nil || t.DueAt == nil || s.reminded[id] {
			continue
		}
		if t.DueAt.After(now.Add(window)) {
			continue
		}
		s.reminded[id] = true
		out = append(out, t)
	}
	return out, nil
}

func TestCreateRequiresTitle(t *testing.T) {
	svc := NewService(newStubRepo())

	_, err := svc.Create(context.Background(), Input{Title: "  "})
	require.Error(t, err)

	task, err := svc.Create(context.Background(), Input{Title: " Chase plate approval "})
	require.NoError(t, err)
	assert.Equal(t, "Chase plate approval", task.Title)
}

func TestSetDoneStampsAndClears(t *testing.T) {
	svc := NewService(newStubRepo())

	task, err := svc.Create(context.Background(), Input{Title: "Order stock"})
	require.NoError(t, err)

	task, err = svc.SetDone(context.Background(), task.ID, true)
	require.NoError(t, err)
	assert.True(t, task.Done)
	require.NotNil(t, task.DoneAt)

	task, err = svc.SetDone(context.Background(), task.ID, false)
	require.NoError(t, err)
	assert.False(t, task.Done)
	assert.Nil(t, task.DoneAt)
}

func TestDueForReminderWindow(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)
	assignee := int64(3)

	soon := time.Now().Add(2 * time.Hour)
	far := time.Now().Add(72 * time.Hour)

	due, err := svc.Create(context.Background(), Input{Title: "due soon", AssigneeID: &assignee, DueAt: &soon})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), Input{Title: "due later", AssigneeID: &assignee, DueAt: &far})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), Input{Title: "unassigned", DueAt: &soon})
	require.NoError(t, err)

	reminders, err := svc.DueForReminder(context.Background())
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, due.ID, reminders[0].ID)

	// a second scan does not repeat the reminder
	reminders, err = svc.DueForReminder(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reminders)
}

func TestDoneTasksNotReminded(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)
	assignee := int64(3)
	soon := time.Now().Add(time.Hour)

	task, err := svc.Create(context.Background(), Input{Title: "finished", AssigneeID: &assignee, DueAt: &soon})
	require.NoError(t, err)
	_, err = svc.SetDone(context.Background(), task.ID, true)
	require.NoError(t, err)

	reminders, err := svc.DueForReminder(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reminders)
}
