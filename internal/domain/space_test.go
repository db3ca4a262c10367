package domain

import (
	"errors"
	"testing"
	"time"
)

func newTestSpace() *Space {
	created := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	s := &Space{
		ID:          "s1",
		Name:        "Research",
		Description: "x",
		Category:    "research",
		Tags:        []string{"ml", "papers"},
		Visibility:  VisibilityPrivate,
		Owner:       UserRef{ID: "u1", Name: "Alice"},
		Members:     []Member{{ID: "u1", Name: "Alice", Role: RoleOwner, LastActive: created}},
		Messages: []Message{
			{ID: "m1", Content: "hi", Type: AuthorUser, UserID: "u1", Timestamp: created},
			{ID: "m2", Content: "hello", Type: AuthorAI, Timestamp: created, Sources: []Source{{Name: "a.pdf", Type: "pdf"}}},
		},
		CreatedAt:    created,
		LastActivity: created,
	}
	s.RecomputeStats()
	return s
}

func TestCreateSpaceInputValidate(t *testing.T) {
	tests := []struct {
		name       string
		input      CreateSpaceInput
		wantErr    bool
		wantFields []string
	}{
		{
			name:  "valid input",
			input: CreateSpaceInput{Name: "Research", Description: "x", Category: "research", Owner: UserRef{ID: "u1"}},
		},
		{
			name:       "missing everything",
			input:      CreateSpaceInput{},
			wantErr:    true,
			wantFields: []string{"name", "description", "category", "owner"},
		},
		{
			name:       "blank name",
			input:      CreateSpaceInput{Name: "  ", Description: "x", Category: "c", Owner: UserRef{ID: "u1"}},
			wantErr:    true,
			wantFields: []string{"name"},
		},
		{
			name:       "unknown visibility",
			input:      CreateSpaceInput{Name: "n", Description: "x", Category: "c", Owner: UserRef{ID: "u1"}, Visibility: "secret"},
			wantErr:    true,
			wantFields: []string{"visibility"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Validate() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("Validate() error = %v, want ErrInvalidInput", err)
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Validate() error is not a ValidationError: %T", err)
			}
			if len(vErr.Fields) != len(tt.wantFields) {
				t.Fatalf("Fields = %v, want %v", vErr.Fields, tt.wantFields)
			}
			for i := range tt.wantFields {
				if vErr.Fields[i] != tt.wantFields[i] {
					t.Errorf("Fields[%d] = %q, want %q", i, vErr.Fields[i], tt.wantFields[i])
				}
			}
		})
	}
}

func TestSpaceClone_IsDeep(t *testing.T) {
	s := newTestSpace()
	exp := s.CreatedAt.Add(time.Hour)
	s.Settings.InviteToken = "tok"
	s.Settings.InviteExpiresAt = &exp

	c := s.Clone()
	c.Tags[0] = "changed"
	c.Members[0].Name = "Mallory"
	c.Messages[1].Sources[0].Name = "changed.pdf"
	*c.Settings.InviteExpiresAt = exp.Add(time.Hour)

	if s.Tags[0] != "ml" {
		t.Error("tags shared with clone")
	}
	if s.Members[0].Name != "Alice" {
		t.Error("members shared with clone")
	}
	if s.Messages[1].Sources[0].Name != "a.pdf" {
		t.Error("message sources shared with clone")
	}
	if !s.Settings.InviteExpiresAt.Equal(exp) {
		t.Error("invite expiry shared with clone")
	}
}

func TestSpaceTouch_NeverMovesBackwards(t *testing.T) {
	s := newTestSpace()
	later := s.LastActivity.Add(time.Minute)

	s.Touch(later)
	if !s.LastActivity.Equal(later) {
		t.Fatalf("LastActivity = %v, want %v", s.LastActivity, later)
	}

	s.Touch(later.Add(-time.Hour))
	if !s.LastActivity.Equal(later) {
		t.Errorf("LastActivity moved backwards to %v", s.LastActivity)
	}
}

func TestSpaceCheckInvariants(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Space)
		wantErr bool
	}{
		{name: "consistent space", mutate: func(s *Space) {}},
		{name: "no members", mutate: func(s *Space) { s.Members = nil; s.RecomputeStats() }, wantErr: true},
		{name: "owner demoted", mutate: func(s *Space) { s.Members[0].Role = RoleMember }, wantErr: true},
		{name: "stats drifted", mutate: func(s *Space) { s.Stats.Messages = 7 }, wantErr: true},
		{
			name: "duplicate member",
			mutate: func(s *Space) {
				s.Members = append(s.Members, Member{ID: "u1", Role: RoleMember})
				s.RecomputeStats()
			},
			wantErr: true,
		},
		{name: "activity before creation", mutate: func(s *Space) { s.LastActivity = s.CreatedAt.Add(-time.Second) }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSpace()
			tt.mutate(s)
			err := s.CheckInvariants()
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckInvariants() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSpaceUpdate_ValidateAndApply(t *testing.T) {
	s := newTestSpace()
	name := "Renamed"
	vis := VisibilityPublic
	tags := []string{"new"}
	visible := true
	update := SpaceUpdate{Name: &name, Visibility: &vis, Tags: &tags, ResourcesVisible: &visible}

	if err := update.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	update.Apply(s)

	if s.Name != "Renamed" || s.Visibility != VisibilityPublic || !s.Settings.ResourcesVisible {
		t.Errorf("update not applied: %+v", s)
	}
	if s.Description != "x" {
		t.Errorf("nil field overwritten: description = %q", s.Description)
	}
	tags[0] = "mutated"
	if s.Tags[0] != "new" {
		t.Error("tags slice shared with update")
	}

	blank := ""
	if err := (&SpaceUpdate{Name: &blank}).Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank name: error = %v, want ErrInvalidInput", err)
	}
}

func TestSettingsRoundTripThroughUpdate(t *testing.T) {
	s := newTestSpace()
	settings := SettingsFrom(s)
	settings.Name = "Other"
	settings.ResourcesVisible = true

	update := settings.ToUpdate()
	update.Apply(s)

	if s.Name != "Other" || !s.Settings.ResourcesVisible {
		t.Errorf("settings not applied: %+v", s)
	}
}

func TestNewMessageValidate(t *testing.T) {
	ok := NewMessage{Content: "hi", Type: AuthorUser, UserID: "u1"}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	bad := NewMessage{Content: " ", Type: "bot"}
	err := bad.Validate()
	var vErr *ValidationError
	if !errors.As(err, &vErr) || len(vErr.Fields) != 2 {
		t.Errorf("Validate() error = %v, want two invalid fields", err)
	}
}
