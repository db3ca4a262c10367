// Package memory holds the in-memory authoritative space store. Every
// mutation is followed by a full snapshot write through a domain.SnapshotStore.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dafibh/spaces/spaces-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// inviteTokenBytes is the number of random bytes in an invite token (256 bits)
const inviteTokenBytes = 32

// errNoChange aborts a commit without error and without persisting
var errNoChange = errors.New("no change")

// Config holds the SpaceRepository settings
type Config struct {
	// Origin is the public app origin embedded in invite URLs
	Origin string
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// SpaceRepository implements domain.SpaceRepository in memory.
//
// Committed *domain.Space values are never modified in place. A write stages
// the next state from clones, saves it as the snapshot and only then swaps it
// in, so a failed Save leaves both memory and the store untouched.
type SpaceRepository struct {
	store  domain.SnapshotStore
	origin string
	now    func() time.Time

	mu    sync.RWMutex
	state *state

	// writeMu serializes writers. The committed state cannot move between
	// staging and commit, and snapshots land in state order.
	writeMu sync.Mutex
}

// state is one committed version of the repository
type state struct {
	spaces      map[string]*domain.Space
	order       []string
	currentUser *domain.User
}

func newState() *state {
	return &state{spaces: make(map[string]*domain.Space)}
}

// stage copies the containers; the space values are shared until replaced
func (st *state) stage() *state {
	spaces := make(map[string]*domain.Space, len(st.spaces))
	for id, s := range st.spaces {
		spaces[id] = s
	}
	return &state{
		spaces:      spaces,
		order:       append([]string(nil), st.order...),
		currentUser: st.currentUser,
	}
}

func (st *state) remove(id string) {
	delete(st.spaces, id)
	for i, existing := range st.order {
		if existing == id {
			st.order = append(st.order[:i], st.order[i+1:]...)
			return
		}
	}
}

var _ domain.SpaceRepository = (*SpaceRepository)(nil)

// NewSpaceRepository creates an empty SpaceRepository persisting through store
func NewSpaceRepository(store domain.SnapshotStore, cfg Config) *SpaceRepository {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &SpaceRepository{
		store:  store,
		origin: cfg.Origin,
		now:    cfg.Now,
		state:  newState(),
	}
}

// Load replaces the in-memory state with the persisted snapshot
func (r *SpaceRepository) Load(ctx context.Context) error {
	snap, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	loaded := newState()
	for _, s := range snap.Spaces {
		if s == nil || s.ID == "" {
			continue
		}
		if _, dup := loaded.spaces[s.ID]; dup {
			log.Warn().Str("space_id", s.ID).Msg("Duplicate space in snapshot, keeping first")
			continue
		}
		s.RecomputeStats()
		if err := s.CheckInvariants(); err != nil {
			log.Warn().Err(err).Str("space_id", s.ID).Msg("Loaded space violates invariants")
		}
		loaded.spaces[s.ID] = s
		loaded.order = append(loaded.order, s.ID)
	}
	loaded.currentUser = snap.CurrentUser

	r.writeMu.Lock()
	r.mu.Lock()
	r.state = loaded
	r.mu.Unlock()
	r.writeMu.Unlock()

	log.Info().Int("spaces", len(loaded.order)).Msg("Loaded space snapshot")
	return nil
}

// ListAll returns every space in insertion order
func (r *SpaceRepository) ListAll() []*domain.Space {
	return r.filter(func(*domain.Space) bool { return true })
}

// ListPublic returns the public spaces
func (r *SpaceRepository) ListPublic() []*domain.Space {
	return r.filter(func(s *domain.Space) bool { return s.Visibility == domain.VisibilityPublic })
}

// ListForUser returns the spaces the user owns or is a member of
func (r *SpaceRepository) ListForUser(userID string) []*domain.Space {
	return r.filter(func(s *domain.Space) bool { return s.IsMember(userID) })
}

func (r *SpaceRepository) filter(keep func(*domain.Space) bool) []*domain.Space {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Space, 0, len(r.state.order))
	for _, id := range r.state.order {
		if s := r.state.spaces[id]; keep(s) {
			result = append(result, s.Clone())
		}
	}
	return result
}

// GetByID returns a copy of the space, or false when it does not exist
func (r *SpaceRepository) GetByID(id string) (*domain.Space, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.state.spaces[id]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// Create constructs a new space with the owner as its only member
func (r *SpaceRepository) Create(ctx context.Context, input domain.CreateSpaceInput) (*domain.Space, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := r.now().UTC()
	visibility := input.Visibility
	if visibility == "" {
		visibility = domain.VisibilityPrivate
	}
	tags := append([]string{}, input.Tags...)

	documents := make([]domain.Document, 0, len(input.Documents))
	for _, d := range input.Documents {
		// Stored objects belong to the space that uploaded them
		d.ObjectKey = ""
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		if d.UploadedAt.IsZero() {
			d.UploadedAt = now
		}
		documents = append(documents, d)
	}

	space := &domain.Space{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Category:    input.Category,
		Tags:        tags,
		Visibility:  visibility,
		AIModel:     input.AIModel,
		Owner:       input.Owner,
		Members: []domain.Member{{
			ID:         input.Owner.ID,
			Name:       input.Owner.Name,
			Role:       domain.RoleOwner,
			Avatar:     input.Owner.Avatar,
			LastActive: now,
		}},
		Documents:    documents,
		Messages:     []domain.Message{},
		CreatedAt:    now,
		LastActivity: now,
	}
	if input.Settings != nil {
		space.Settings.ResourcesVisible = input.Settings.ResourcesVisible
	}
	space.RecomputeStats()

	err := r.write(ctx, func(next *state) error {
		id := uuid.NewString()
		for _, taken := next.spaces[id]; taken; _, taken = next.spaces[id] {
			id = uuid.NewString()
		}
		space.ID = id
		next.spaces[id] = space
		next.order = append(next.order, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return space.Clone(), nil
}

// Update merges the given fields into the space
func (r *SpaceRepository) Update(ctx context.Context, id string, update domain.SpaceUpdate) (*domain.Space, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	return r.mutate(ctx, id, func(s *domain.Space, _ time.Time) error {
		update.Apply(s)
		return nil
	})
}

// Delete removes the space permanently
func (r *SpaceRepository) Delete(ctx context.Context, id string) error {
	return r.write(ctx, func(next *state) error {
		if _, ok := next.spaces[id]; !ok {
			return domain.ErrSpaceNotFound
		}
		next.remove(id)
		return nil
	})
}

// Join adds the user as a member. Joining twice is a no-op that reports
// joined=false rather than an error.
func (r *SpaceRepository) Join(ctx context.Context, spaceID, userID, userName string) (*domain.Space, bool, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, false, domain.NewValidationError("missing required fields", "userId")
	}
	joined := false
	space, err := r.mutate(ctx, spaceID, func(s *domain.Space, now time.Time) error {
		if s.FindMember(userID) >= 0 {
			return errNoChange
		}
		s.Members = append(s.Members, domain.Member{
			ID:         userID,
			Name:       userName,
			Role:       domain.RoleMember,
			LastActive: now,
		})
		joined = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return space, joined, nil
}

// Leave removes a non-owner member
func (r *SpaceRepository) Leave(ctx context.Context, spaceID, userID string) (*domain.Space, error) {
	return r.mutate(ctx, spaceID, func(s *domain.Space, _ time.Time) error {
		idx := s.FindMember(userID)
		if idx < 0 {
			return domain.ErrNotAMember
		}
		if s.Members[idx].Role == domain.RoleOwner || s.Owner.ID == userID {
			return domain.ErrOwnerCannotLeave
		}
		s.Members = append(s.Members[:idx], s.Members[idx+1:]...)
		return nil
	})
}

// TouchMember records activity for a member
func (r *SpaceRepository) TouchMember(ctx context.Context, spaceID, userID string) error {
	_, err := r.mutate(ctx, spaceID, func(s *domain.Space, now time.Time) error {
		idx := s.FindMember(userID)
		if idx < 0 {
			return domain.ErrNotAMember
		}
		s.Members[idx].LastActive = now
		return nil
	})
	return err
}

// GenerateInvite issues a fresh invite token, replacing any previous one
func (r *SpaceRepository) GenerateInvite(ctx context.Context, spaceID string, ttlHours int) (*domain.Invite, error) {
	if ttlHours <= 0 || ttlHours > domain.MaxInviteTTLHours {
		return nil, domain.NewValidationError("invite ttl out of range", "ttlHours")
	}
	token, err := generateInviteToken()
	if err != nil {
		return nil, fmt.Errorf("generate invite token: %w", err)
	}

	var invite domain.Invite
	_, err = r.mutate(ctx, spaceID, func(s *domain.Space, now time.Time) error {
		expiresAt := now.Add(time.Duration(ttlHours) * time.Hour)
		invite = domain.Invite{
			SpaceID:   s.ID,
			Token:     token,
			ExpiresAt: expiresAt,
			URL:       domain.BuildInviteURL(r.origin, s.ID, token),
		}
		s.Settings.InviteToken = token
		s.Settings.InviteExpiresAt = &expiresAt
		s.Settings.InviteURL = invite.URL
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

// SetInvite stores an invite issued elsewhere as the single active invite
func (r *SpaceRepository) SetInvite(ctx context.Context, spaceID string, invite domain.Invite) error {
	if invite.Token == "" || invite.ExpiresAt.IsZero() {
		return domain.NewValidationError("incomplete invite", "token", "expiresAt")
	}
	_, err := r.mutate(ctx, spaceID, func(s *domain.Space, _ time.Time) error {
		expiresAt := invite.ExpiresAt.UTC()
		s.Settings.InviteToken = invite.Token
		s.Settings.InviteExpiresAt = &expiresAt
		s.Settings.InviteURL = invite.URL
		if s.Settings.InviteURL == "" {
			s.Settings.InviteURL = domain.BuildInviteURL(r.origin, s.ID, invite.Token)
		}
		return nil
	})
	return err
}

// RevokeInvite clears the active invite
func (r *SpaceRepository) RevokeInvite(ctx context.Context, spaceID string) error {
	_, err := r.mutate(ctx, spaceID, func(s *domain.Space, _ time.Time) error {
		if !s.Settings.HasInvite() {
			return errNoChange
		}
		s.Settings.InviteToken = ""
		s.Settings.InviteExpiresAt = nil
		s.Settings.InviteURL = ""
		return nil
	})
	return err
}

// ValidateInvite reports whether token grants entry to the space. A public
// space also accepts an empty token.
func (r *SpaceRepository) ValidateInvite(spaceID, token string) bool {
	r.mu.RLock()
	s, ok := r.state.spaces[spaceID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if token == "" && s.Visibility == domain.VisibilityPublic {
		return true
	}
	return s.Settings.ValidAt(token, r.now())
}

// AppendMessage assigns an id and timestamp and appends the message to the log
func (r *SpaceRepository) AppendMessage(ctx context.Context, spaceID string, msg domain.NewMessage) (*domain.Message, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	var appended domain.Message
	_, err := r.mutate(ctx, spaceID, func(s *domain.Space, now time.Time) error {
		// Timestamps follow insertion order even if the clock steps back.
		ts := now
		if s.LastActivity.After(ts) {
			ts = s.LastActivity
		}
		if n := len(s.Messages); n > 0 && s.Messages[n-1].Timestamp.After(ts) {
			ts = s.Messages[n-1].Timestamp
		}
		appended = domain.Message{
			ID:        newMessageID(),
			Content:   msg.Content,
			Type:      msg.Type,
			UserID:    msg.UserID,
			Timestamp: ts,
			Sources:   append([]domain.Source(nil), msg.Sources...),
		}
		s.Messages = append(s.Messages, appended)
		s.Touch(ts)
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := appended.Clone()
	return &out, nil
}

// ListMessages returns a copy of the message log, empty for an unknown space
func (r *SpaceRepository) ListMessages(spaceID string) []domain.Message {
	r.mu.RLock()
	s, ok := r.state.spaces[spaceID]
	r.mu.RUnlock()
	if !ok {
		return []domain.Message{}
	}
	out := make([]domain.Message, len(s.Messages))
	for i, m := range s.Messages {
		out[i] = m.Clone()
	}
	return out
}

// AddDocument attaches document metadata to the space
func (r *SpaceRepository) AddDocument(ctx context.Context, spaceID string, doc domain.Document) (*domain.Document, error) {
	if strings.TrimSpace(doc.Name) == "" {
		return nil, domain.NewValidationError("missing required fields", "name")
	}
	if doc.Size < 0 {
		return nil, domain.NewValidationError("invalid fields", "size")
	}

	var added domain.Document
	_, err := r.mutate(ctx, spaceID, func(s *domain.Space, now time.Time) error {
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		} else if s.FindDocument(doc.ID) >= 0 {
			return domain.NewValidationError("duplicate document", "id")
		}
		if doc.UploadedAt.IsZero() {
			doc.UploadedAt = now
		}
		added = doc
		s.Documents = append(s.Documents, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// RemoveDocument detaches document metadata from the space
func (r *SpaceRepository) RemoveDocument(ctx context.Context, spaceID, documentID string) (*domain.Document, error) {
	var removed domain.Document
	_, err := r.mutate(ctx, spaceID, func(s *domain.Space, _ time.Time) error {
		idx := s.FindDocument(documentID)
		if idx < 0 {
			return domain.ErrDocumentNotFound
		}
		removed = s.Documents[idx]
		s.Documents = append(s.Documents[:idx], s.Documents[idx+1:]...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &removed, nil
}

// CurrentUser returns a copy of the cached current user, or nil
func (r *SpaceRepository) CurrentUser() *domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state.currentUser == nil {
		return nil
	}
	u := *r.state.currentUser
	return &u
}

// SetCurrentUser replaces the cached current user; nil clears it
func (r *SpaceRepository) SetCurrentUser(ctx context.Context, user *domain.User) error {
	var cached *domain.User
	if user != nil {
		if strings.TrimSpace(user.ID) == "" {
			return domain.NewValidationError("missing required fields", "id")
		}
		u := *user
		cached = &u
	}

	return r.write(ctx, func(next *state) error {
		next.currentUser = cached
		return nil
	})
}

// ReconcileUser copies the user's display fields into every owner and member
// snapshot that refers to them. It returns the number of spaces changed.
func (r *SpaceRepository) ReconcileUser(ctx context.Context, user domain.User) (int, error) {
	if strings.TrimSpace(user.ID) == "" {
		return 0, domain.NewValidationError("missing required fields", "id")
	}

	changed := 0
	err := r.write(ctx, func(next *state) error {
		now := r.now().UTC()
		for _, id := range next.order {
			updated := next.spaces[id].Clone()
			dirty := false
			if updated.Owner.ID == user.ID && (updated.Owner.Name != user.Name || updated.Owner.Avatar != user.Avatar) {
				updated.Owner.Name = user.Name
				updated.Owner.Avatar = user.Avatar
				dirty = true
			}
			if idx := updated.FindMember(user.ID); idx >= 0 {
				m := &updated.Members[idx]
				if m.Name != user.Name || m.Avatar != user.Avatar {
					m.Name = user.Name
					m.Avatar = user.Avatar
					dirty = true
				}
			}
			if !dirty {
				continue
			}
			updated.RecomputeStats()
			updated.Touch(now)
			next.spaces[id] = updated
			changed++
		}
		if changed == 0 {
			return errNoChange
		}
		return nil
	})
	if errors.Is(err, errNoChange) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// mutate applies fn to a clone of the space and writes the result. When fn
// returns errNoChange nothing is written and the current space is returned.
func (r *SpaceRepository) mutate(ctx context.Context, id string, fn func(s *domain.Space, now time.Time) error) (*domain.Space, error) {
	var result *domain.Space
	err := r.write(ctx, func(next *state) error {
		current, ok := next.spaces[id]
		if !ok {
			return domain.ErrSpaceNotFound
		}
		updated := current.Clone()
		now := r.now().UTC()
		if err := fn(updated, now); err != nil {
			if errors.Is(err, errNoChange) {
				result = current.Clone()
			}
			return err
		}
		updated.RecomputeStats()
		updated.Touch(now)
		next.spaces[id] = updated
		result = updated.Clone()
		return nil
	})
	if err != nil && !errors.Is(err, errNoChange) {
		return nil, err
	}
	return result, nil
}

// write stages a change on a copy of the committed state, saves the staged
// snapshot and commits it only after Save succeeds. A stage error, including
// errNoChange, is returned as is and nothing is saved.
func (r *SpaceRepository) write(ctx context.Context, stage func(next *state) error) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.RLock()
	next := r.state.stage()
	r.mu.RUnlock()

	if err := stage(next); err != nil {
		return err
	}

	snap := r.snapshot(next)
	if err := r.store.Save(ctx, snap); err != nil {
		log.Error().Err(err).Int("spaces", len(snap.Spaces)).Msg("Failed to persist space snapshot")
		return fmt.Errorf("persist snapshot: %w", err)
	}

	r.mu.Lock()
	r.state = next
	r.mu.Unlock()
	return nil
}

// snapshot shares the space values, which are never modified in place
func (r *SpaceRepository) snapshot(st *state) *domain.Snapshot {
	spaces := make([]*domain.Space, 0, len(st.order))
	for _, id := range st.order {
		spaces = append(spaces, st.spaces[id])
	}
	var user *domain.User
	if st.currentUser != nil {
		u := *st.currentUser
		user = &u
	}
	return &domain.Snapshot{
		Version:     domain.SnapshotVersion,
		Spaces:      spaces,
		CurrentUser: user,
		SavedAt:     r.now().UTC(),
	}
}

// generateInviteToken returns a URL-safe random token
func generateInviteToken() (string, error) {
	b := make([]byte, inviteTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// newMessageID returns a time-ordered id so id order follows insertion order
func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
