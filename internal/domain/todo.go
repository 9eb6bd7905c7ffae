package domain

import "time"

// Todo is a task owned by exactly one user.
type Todo struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"size:255;not null"`
	Description *string
	Completed   bool `gorm:"not null"`
	UserID      uint `gorm:"not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TodoPatch carries the fields of a partial update. A nil field is left untouched.
type TodoPatch struct {
	Title       *string
	Description *string
	Completed   *bool
}

// TodoSnapshot is the audit payload for CREATE and DELETE entries.
type TodoSnapshot struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
}

// Snapshot captures the current field values of the todo.
func (t *Todo) Snapshot() TodoSnapshot {
	return TodoSnapshot{
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
	}
}

// Diff compares every field present in the patch against the todo and
// returns only the fields whose value would change.
func (p TodoPatch) Diff(current *Todo) ChangeSet {
	changes := ChangeSet{}

	if p.Title != nil && *p.Title != current.Title {
		changes["title"] = FieldChange{From: current.Title, To: *p.Title}
	}
	if p.Description != nil && (current.Description == nil || *p.Description != *current.Description) {
		var from any
		if current.Description != nil {
			from = *current.Description
		}
		changes["description"] = FieldChange{From: from, To: *p.Description}
	}
	if p.Completed != nil && *p.Completed != current.Completed {
		changes["completed"] = FieldChange{From: current.Completed, To: *p.Completed}
	}

	return changes
}

// Apply writes the patch onto the todo and returns the column names it touched.
func (p TodoPatch) Apply(t *Todo) []string {
	columns := make([]string, 0, 3)

	if p.Title != nil {
		t.Title = *p.Title
		columns = append(columns, "title")
	}
	if p.Description != nil {
		d := *p.Description
		t.Description = &d
		columns = append(columns, "description")
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
		columns = append(columns, "completed")
	}

	return columns
}
