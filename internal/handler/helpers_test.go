package handler

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/spaces/spaces-backend/internal/domain"
	"github.com/dafibh/spaces/spaces-backend/internal/middleware"
	"github.com/dafibh/spaces/spaces-backend/internal/repository/memory"
	"github.com/dafibh/spaces/spaces-backend/internal/service"
	"github.com/dafibh/spaces/spaces-backend/internal/testutil"
	"github.com/dafibh/spaces/spaces-backend/internal/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type testServer struct {
	e           *echo.Echo
	repo        *memory.SpaceRepository
	clock       *testutil.Clock
	chatGW      *testutil.MockChatGateway
	spaceGW     *testutil.MockSpaceGateway
	storage     *testutil.MockDocumentStorage
	pub         *testutil.RecordingPublisher
	spaces      *service.SpaceService
	chatLimiter *middleware.RateLimiter
}

type serverOption func(*testServer)

func withFailingGateways() serverOption {
	return func(s *testServer) {
		s.chatGW = testutil.NewFailingChatGateway()
		s.spaceGW = testutil.NewFailingSpaceGateway()
	}
}

func withChatLimit(perMinute int) serverOption {
	return func(s *testServer) {
		s.chatLimiter = middleware.NewRateLimiterWithConfig(perMinute, perMinute)
	}
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	s := &testServer{
		clock:   testutil.NewClock(testStart),
		chatGW:  &testutil.MockChatGateway{},
		spaceGW: &testutil.MockSpaceGateway{},
		storage: &testutil.MockDocumentStorage{},
		pub:     &testutil.RecordingPublisher{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.repo, _ = testutil.NewSpaceRepository(s.clock)

	s.spaces = service.NewSpaceService(s.repo, s.spaceGW)
	s.spaces.SetEventPublisher(s.pub)
	s.spaces.SetDocumentStorage(s.storage)
	invites := service.NewInviteService(s.repo, s.spaces, s.spaceGW, 0)
	invites.SetClock(s.clock.Now)
	invites.SetEventPublisher(s.pub)
	chat := service.NewChatService(s.repo, s.chatGW, service.DefaultFallback)
	chat.SetEventPublisher(s.pub)
	docs := service.NewDocumentService(s.repo, s.storage)
	docs.SetEventPublisher(s.pub)

	var chatLimit echo.MiddlewareFunc
	if s.chatLimiter != nil {
		chatLimit = middleware.RateLimitMiddleware(s.chatLimiter)
		t.Cleanup(s.chatLimiter.Stop)
	}

	s.e = echo.New()
	RegisterRoutes(s.e, middleware.HeaderIdentity(), chatLimit, Handlers{
		Space:     NewSpaceHandler(s.spaces),
		Invite:    NewInviteHandler(s.spaces, invites),
		Chat:      NewChatHandler(chat),
		Document:  NewDocumentHandler(docs),
		Profile:   NewProfileHandler(service.NewProfileService(s.repo)),
		WebSocket: NewWebSocketHandler(websocket.NewHub(), s.spaces, nil, testAllowedOrigins),
	})
	return s
}

// do sends a request as userID; an empty userID sends no identity headers
func (s *testServer) do(t *testing.T, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(data))
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if userID != "" {
		req.Header.Set(middleware.HeaderUserID, userID)
		req.Header.Set(middleware.HeaderUserName, strings.ToUpper(userID[:1])+userID[1:])
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createSpace(t *testing.T, visibility domain.Visibility) *domain.Space {
	t.Helper()
	space, err := s.repo.Create(t.Context(), domain.CreateSpaceInput{
		Name:        "Research",
		Description: "Papers and notes",
		Category:    "research",
		Visibility:  visibility,
		AIModel:     "gpt-4",
		Owner:       domain.UserRef{ID: "alice", Name: "Alice"},
	})
	require.NoError(t, err)
	return space
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, rec.Body.String())
}
