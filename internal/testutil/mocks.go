package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dafibh/spaces/spaces-backend/internal/domain"
	"github.com/dafibh/spaces/spaces-backend/internal/repository/memory"
	"github.com/dafibh/spaces/spaces-backend/internal/repository/snapshot"
	"github.com/dafibh/spaces/spaces-backend/internal/websocket"
)

// TestOrigin is the app origin used for invite URLs in tests
const TestOrigin = "https://app.example.com"

// Clock is a settable clock for deterministic timestamps
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a Clock starting at t
func NewClock(t time.Time) *Clock {
	return &Clock{now: t.UTC()}
}

// Now returns the current fake time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// NewSpaceRepository returns an in-memory repository backed by a memory
// snapshot store and driven by clock
func NewSpaceRepository(clock *Clock) (*memory.SpaceRepository, *snapshot.MemoryStore) {
	store := snapshot.NewMemoryStore()
	repo := memory.NewSpaceRepository(store, memory.Config{Origin: TestOrigin, Now: clock.Now})
	return repo, store
}

// MockSnapshotStore is a SnapshotStore whose failures can be switched on
type MockSnapshotStore struct {
	mu       sync.Mutex
	Snapshot *domain.Snapshot
	LoadErr  error
	SaveErr  error
	SaveCnt  int
}

// Load returns the stored snapshot or LoadErr
func (m *MockSnapshotStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.Snapshot == nil {
		return snapshot.Empty(), nil
	}
	return m.Snapshot, nil
}

// Save records the snapshot unless SaveErr is set
func (m *MockSnapshotStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Snapshot = snap
	m.SaveCnt++
	return nil
}

// ErrMockUpstream is returned by the gateway mocks' Fail helpers
var ErrMockUpstream = fmt.Errorf("%w: mock upstream down", domain.ErrUpstreamUnavailable)

// MockChatGateway is a mock implementation of domain.ChatGateway
type MockChatGateway struct {
	mu           sync.Mutex
	SendFn       func(req domain.ChatRequest) (*domain.ChatReply, error)
	HistoryFn    func(spaceID string) ([]domain.Message, error)
	Requests     []domain.ChatRequest
	HistoryCalls []string
}

// NewFailingChatGateway returns a chat gateway whose every call fails upstream
func NewFailingChatGateway() *MockChatGateway {
	return &MockChatGateway{
		SendFn: func(domain.ChatRequest) (*domain.ChatReply, error) { return nil, ErrMockUpstream },
		HistoryFn: func(string) ([]domain.Message, error) {
			return nil, ErrMockUpstream
		},
	}
}

// SendMessage records the request and delegates to SendFn
func (m *MockChatGateway) SendMessage(ctx context.Context, req domain.ChatRequest) (*domain.ChatReply, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	fn := m.SendFn
	m.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	return &domain.ChatReply{Message: "echo: " + req.Message}, nil
}

// GetHistory records the call and delegates to HistoryFn
func (m *MockChatGateway) GetHistory(ctx context.Context, spaceID string) ([]domain.Message, error) {
	m.mu.Lock()
	m.HistoryCalls = append(m.HistoryCalls, spaceID)
	fn := m.HistoryFn
	m.mu.Unlock()
	if fn != nil {
		return fn(spaceID)
	}
	return []domain.Message{}, nil
}

// SettingsCall is one recorded UpdateSettings call
type SettingsCall struct {
	SpaceID  string
	Settings domain.SpaceSettings
}

// InviteEmailCall is one recorded SendInviteEmail call
type InviteEmailCall struct {
	SpaceID string
	Email   string
	Role    domain.MemberRole
}

// MockSpaceGateway is a mock implementation of domain.SpaceGateway
type MockSpaceGateway struct {
	mu               sync.Mutex
	UpdateSettingsFn func(spaceID string, settings domain.SpaceSettings) error
	ShareLinkFn      func(spaceID string, ttlHours int) (*domain.ShareLink, error)
	InviteEmailFn    func(spaceID, email string, role domain.MemberRole) error
	SettingsCalls    []SettingsCall
	ShareLinkCalls   []string
	InviteCalls      []InviteEmailCall
}

// NewFailingSpaceGateway returns a space gateway whose every call fails upstream
func NewFailingSpaceGateway() *MockSpaceGateway {
	return &MockSpaceGateway{
		UpdateSettingsFn: func(string, domain.SpaceSettings) error { return ErrMockUpstream },
		ShareLinkFn:      func(string, int) (*domain.ShareLink, error) { return nil, ErrMockUpstream },
		InviteEmailFn:    func(string, string, domain.MemberRole) error { return ErrMockUpstream },
	}
}

// UpdateSettings records the call and delegates to UpdateSettingsFn
func (m *MockSpaceGateway) UpdateSettings(ctx context.Context, spaceID string, settings domain.SpaceSettings) error {
	m.mu.Lock()
	m.SettingsCalls = append(m.SettingsCalls, SettingsCall{SpaceID: spaceID, Settings: settings})
	fn := m.UpdateSettingsFn
	m.mu.Unlock()
	if fn != nil {
		return fn(spaceID, settings)
	}
	return nil
}

// GenerateShareLink records the call and delegates to ShareLinkFn
func (m *MockSpaceGateway) GenerateShareLink(ctx context.Context, spaceID string, ttlHours int) (*domain.ShareLink, error) {
	m.mu.Lock()
	m.ShareLinkCalls = append(m.ShareLinkCalls, spaceID)
	fn := m.ShareLinkFn
	m.mu.Unlock()
	if fn != nil {
		return fn(spaceID, ttlHours)
	}
	return nil, errors.New("mock: ShareLinkFn not set")
}

// SendInviteEmail records the call and delegates to InviteEmailFn
func (m *MockSpaceGateway) SendInviteEmail(ctx context.Context, spaceID, email string, role domain.MemberRole) error {
	m.mu.Lock()
	m.InviteCalls = append(m.InviteCalls, InviteEmailCall{SpaceID: spaceID, Email: email, Role: role})
	fn := m.InviteEmailFn
	m.mu.Unlock()
	if fn != nil {
		return fn(spaceID, email, role)
	}
	return nil
}

// PublishedEvent is one event seen by a RecordingPublisher
type PublishedEvent struct {
	SpaceID string
	Event   websocket.Event
}

// RecordingPublisher records every published event
type RecordingPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
}

// Publish records the event
func (p *RecordingPublisher) Publish(spaceID string, event websocket.Event) {
	p.mu.Lock()
	p.events = append(p.events, PublishedEvent{SpaceID: spaceID, Event: event})
	p.mu.Unlock()
}

// Events returns a copy of the recorded events
func (p *RecordingPublisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PublishedEvent(nil), p.events...)
}

// Types returns the type of each recorded event, in order
func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Event.Type
	}
	return out
}

// MockDocumentStorage is an in-memory DocumentStorage
type MockDocumentStorage struct {
	mu        sync.Mutex
	Deleted   []string
	Uploads   []string
	PresignFn func(objectKey string) (string, error)
	DeleteErr error
}

// PresignUpload returns a fake upload URL for the key
func (m *MockDocumentStorage) PresignUpload(ctx context.Context, objectKey, contentType string, expiry time.Duration) (string, error) {
	m.mu.Lock()
	m.Uploads = append(m.Uploads, objectKey)
	fn := m.PresignFn
	m.mu.Unlock()
	if fn != nil {
		return fn(objectKey)
	}
	return "https://storage.example.com/upload/" + objectKey, nil
}

// PresignGet returns a fake download URL for the key
func (m *MockDocumentStorage) PresignGet(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	m.mu.Lock()
	fn := m.PresignFn
	m.mu.Unlock()
	if fn != nil {
		return fn(objectKey)
	}
	return "https://storage.example.com/get/" + objectKey, nil
}

// Delete records the deleted key
func (m *MockDocumentStorage) Delete(ctx context.Context, objectKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.Deleted = append(m.Deleted, objectKey)
	return nil
}
