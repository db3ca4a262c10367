package domain

import (
	"context"
	"slices"
	"strings"
	"time"
)

// Visibility controls who may join a space without an invite token
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// IsValid reports whether v is a known visibility
func (v Visibility) IsValid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// MemberRole is the role of a member within one space
type MemberRole string

const (
	RoleOwner        MemberRole = "owner"
	RoleCollaborator MemberRole = "collaborator"
	RoleMember       MemberRole = "member"
)

// IsValid reports whether r is a known role
func (r MemberRole) IsValid() bool {
	switch r {
	case RoleOwner, RoleCollaborator, RoleMember:
		return true
	}
	return false
}

// Member is a user's participation record within a space
type Member struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Role       MemberRole `json:"role"`
	Avatar     string     `json:"avatar,omitempty"`
	LastActive time.Time  `json:"lastActive"`
}

// Document is metadata for a file attached to a space. Content is stored
// elsewhere; URL points to it when known.
type Document struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
	URL        string    `json:"url,omitempty"`
	// ObjectKey locates the content in document storage, when uploaded there
	ObjectKey string `json:"objectKey,omitempty"`
}

// Settings holds the per-space settings, including the single active invite
type Settings struct {
	ResourcesVisible bool       `json:"resourcesVisible"`
	InviteToken      string     `json:"inviteToken,omitempty"`
	InviteExpiresAt  *time.Time `json:"inviteExpiresAt,omitempty"`
	InviteURL        string     `json:"inviteUrl,omitempty"`
}

// HasInvite reports whether an invite token is stored
func (s Settings) HasInvite() bool {
	return s.InviteToken != "" && s.InviteExpiresAt != nil
}

// Stats are cached counts derived from the space collections
type Stats struct {
	Members   int `json:"members"`
	Documents int `json:"documents"`
	Messages  int `json:"messages"`
}

// Space is the central aggregate: members, documents, messages and settings
type Space struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Category     string     `json:"category"`
	Tags         []string   `json:"tags"`
	Visibility   Visibility `json:"visibility"`
	AIModel      string     `json:"aiModel"`
	Owner        UserRef    `json:"owner"`
	Members      []Member   `json:"members"`
	Documents    []Document `json:"documents"`
	Messages     []Message  `json:"messages"`
	Settings     Settings   `json:"settings"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastActivity time.Time  `json:"lastActivity"`
	Stats        Stats      `json:"stats"`
}

// RecomputeStats refreshes the cached counts from the collections
func (s *Space) RecomputeStats() {
	s.Stats = Stats{
		Members:   len(s.Members),
		Documents: len(s.Documents),
		Messages:  len(s.Messages),
	}
}

// Touch bumps LastActivity to now, never moving it backwards
func (s *Space) Touch(now time.Time) time.Time {
	if now.After(s.LastActivity) {
		s.LastActivity = now
	}
	return s.LastActivity
}

// FindMember returns the index of the member with the given id, or -1
func (s *Space) FindMember(userID string) int {
	for i := range s.Members {
		if s.Members[i].ID == userID {
			return i
		}
	}
	return -1
}

// IsMember reports whether the user is the owner or a member of the space
func (s *Space) IsMember(userID string) bool {
	return s.Owner.ID == userID || s.FindMember(userID) >= 0
}

// FindDocument returns the index of the document with the given id, or -1
func (s *Space) FindDocument(documentID string) int {
	for i := range s.Documents {
		if s.Documents[i].ID == documentID {
			return i
		}
	}
	return -1
}

// CheckInvariants verifies the owner/member and stats invariants
func (s *Space) CheckInvariants() error {
	if len(s.Members) == 0 {
		return NewValidationError("space has no members", "members")
	}
	idx := s.FindMember(s.Owner.ID)
	if idx < 0 || s.Members[idx].Role != RoleOwner {
		return NewValidationError("owner is not an owner member", "owner")
	}
	seen := make(map[string]struct{}, len(s.Members))
	for _, m := range s.Members {
		if _, dup := seen[m.ID]; dup {
			return NewValidationError("duplicate member", "members")
		}
		seen[m.ID] = struct{}{}
	}
	if s.Stats.Members != len(s.Members) || s.Stats.Documents != len(s.Documents) || s.Stats.Messages != len(s.Messages) {
		return NewValidationError("stats out of sync", "stats")
	}
	if s.LastActivity.Before(s.CreatedAt) {
		return NewValidationError("last activity before creation", "lastActivity")
	}
	return nil
}

// Clone returns a deep copy of the space
func (s *Space) Clone() *Space {
	if s == nil {
		return nil
	}
	c := *s
	c.Tags = slices.Clone(s.Tags)
	c.Members = slices.Clone(s.Members)
	c.Documents = slices.Clone(s.Documents)
	if s.Messages != nil {
		c.Messages = make([]Message, len(s.Messages))
		for i, m := range s.Messages {
			c.Messages[i] = m.Clone()
		}
	}
	if s.Settings.InviteExpiresAt != nil {
		exp := *s.Settings.InviteExpiresAt
		c.Settings.InviteExpiresAt = &exp
	}
	return &c
}

// CreateSpaceInput is the data needed to construct a new space
type CreateSpaceInput struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Tags        []string   `json:"tags"`
	Visibility  Visibility `json:"visibility"`
	AIModel     string     `json:"aiModel"`
	Owner       UserRef    `json:"owner"`
	Documents   []Document `json:"documents"`
	Settings    *Settings  `json:"settings,omitempty"`
}

// Validate checks the required creation fields
func (in *CreateSpaceInput) Validate() error {
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(in.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(in.Category) == "" {
		missing = append(missing, "category")
	}
	if strings.TrimSpace(in.Owner.ID) == "" {
		missing = append(missing, "owner")
	}
	if len(missing) > 0 {
		return NewValidationError("missing required fields", missing...)
	}
	if len(in.Name) > MaxSpaceNameLength {
		return NewValidationError("name exceeds maximum length", "name")
	}
	if in.Visibility != "" && !in.Visibility.IsValid() {
		return NewValidationError("unknown visibility", "visibility")
	}
	return nil
}

// SpaceUpdate carries the fields that may change through a plain update.
// Nil fields are left untouched. id, owner and members are not updatable here.
type SpaceUpdate struct {
	Name             *string     `json:"name,omitempty"`
	Description      *string     `json:"description,omitempty"`
	Category         *string     `json:"category,omitempty"`
	Tags             *[]string   `json:"tags,omitempty"`
	Visibility       *Visibility `json:"visibility,omitempty"`
	AIModel          *string     `json:"aiModel,omitempty"`
	ResourcesVisible *bool       `json:"resourcesVisible,omitempty"`
}

// Validate rejects updates that would blank required fields
func (u *SpaceUpdate) Validate() error {
	var invalid []string
	if u.Name != nil && (strings.TrimSpace(*u.Name) == "" || len(*u.Name) > MaxSpaceNameLength) {
		invalid = append(invalid, "name")
	}
	if u.Description != nil && strings.TrimSpace(*u.Description) == "" {
		invalid = append(invalid, "description")
	}
	if u.Category != nil && strings.TrimSpace(*u.Category) == "" {
		invalid = append(invalid, "category")
	}
	if u.Visibility != nil && !u.Visibility.IsValid() {
		invalid = append(invalid, "visibility")
	}
	if len(invalid) > 0 {
		return NewValidationError("invalid fields", invalid...)
	}
	return nil
}

// Apply merges the non-nil fields into the space
func (u *SpaceUpdate) Apply(s *Space) {
	if u.Name != nil {
		s.Name = *u.Name
	}
	if u.Description != nil {
		s.Description = *u.Description
	}
	if u.Category != nil {
		s.Category = *u.Category
	}
	if u.Tags != nil {
		s.Tags = append([]string(nil), (*u.Tags)...)
	}
	if u.Visibility != nil {
		s.Visibility = *u.Visibility
	}
	if u.AIModel != nil {
		s.AIModel = *u.AIModel
	}
	if u.ResourcesVisible != nil {
		s.Settings.ResourcesVisible = *u.ResourcesVisible
	}
}

// SettingsFrom builds the full settings body sent to the remote space API
func SettingsFrom(s *Space) SpaceSettings {
	return SpaceSettings{
		Name:             s.Name,
		Description:      s.Description,
		Category:         s.Category,
		Tags:             append([]string(nil), s.Tags...),
		Visibility:       s.Visibility,
		AIModel:          s.AIModel,
		ResourcesVisible: s.Settings.ResourcesVisible,
	}
}

// SpaceSettings is the full settings body of a space
type SpaceSettings struct {
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Category         string     `json:"category"`
	Tags             []string   `json:"tags"`
	Visibility       Visibility `json:"visibility"`
	AIModel          string     `json:"aiModel"`
	ResourcesVisible bool       `json:"resourcesVisible"`
}

// ToUpdate converts a full settings body into an update
func (s SpaceSettings) ToUpdate() SpaceUpdate {
	tags := append([]string(nil), s.Tags...)
	vis := s.Visibility
	return SpaceUpdate{
		Name:             &s.Name,
		Description:      &s.Description,
		Category:         &s.Category,
		Tags:             &tags,
		Visibility:       &vis,
		AIModel:          &s.AIModel,
		ResourcesVisible: &s.ResourcesVisible,
	}
}

// SpaceRepository defines the entity store operations over spaces
type SpaceRepository interface {
	ListAll() []*Space
	ListPublic() []*Space
	ListForUser(userID string) []*Space
	GetByID(id string) (*Space, bool)
	Create(ctx context.Context, input CreateSpaceInput) (*Space, error)
	Update(ctx context.Context, id string, update SpaceUpdate) (*Space, error)
	Delete(ctx context.Context, id string) error

	Join(ctx context.Context, spaceID, userID, userName string) (*Space, bool, error)
	Leave(ctx context.Context, spaceID, userID string) (*Space, error)
	TouchMember(ctx context.Context, spaceID, userID string) error

	GenerateInvite(ctx context.Context, spaceID string, ttlHours int) (*Invite, error)
	SetInvite(ctx context.Context, spaceID string, invite Invite) error
	RevokeInvite(ctx context.Context, spaceID string) error
	ValidateInvite(spaceID, token string) bool

	AppendMessage(ctx context.Context, spaceID string, msg NewMessage) (*Message, error)
	ListMessages(spaceID string) []Message

	AddDocument(ctx context.Context, spaceID string, doc Document) (*Document, error)
	RemoveDocument(ctx context.Context, spaceID, documentID string) (*Document, error)

	CurrentUser() *User
	SetCurrentUser(ctx context.Context, user *User) error
	ReconcileUser(ctx context.Context, user User) (int, error)
}
