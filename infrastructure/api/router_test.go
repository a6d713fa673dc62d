package api

import (
	"bytes"
	"chatwav/auth"
	"chatwav/domain"
	"chatwav/errors"
	"chatwav/infrastructure/ws"
	"chatwav/mocks"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	alice = domain.User{ID: "u1", Email: "alice@example.com", Username: "alice"}
	now   = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

type fixture struct {
	router   http.Handler
	auth     *mocks.MockIAuthService
	rooms    *mocks.MockIRoomService
	messages *mocks.MockIMessageService
	token    string
}

func newFixture(t *testing.T) fixture {
	ctrl := gomock.NewController(t)
	log := slog.Default()
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	token, err := issuer.GenerateToken(alice)
	require.NoError(t, err)

	f := fixture{
		auth:     mocks.NewMockIAuthService(ctrl),
		rooms:    mocks.NewMockIRoomService(ctrl),
		messages: mocks.NewMockIMessageService(ctrl),
		token:    token,
	}
	f.router = Router{
		Log:      log,
		Verifier: issuer,
		Auth:     NewAuthHandler(log, f.auth),
		Rooms:    NewRoomHandler(log, f.rooms),
		Messages: NewMessageHandler(log, f.messages),
		Origins:  ws.NewOriginPolicy(log, "http://localhost:5173"),
		Now:      func() time.Time { return now },
	}.Build()
	return f
}

func (f fixture) do(method, path string, body any, authenticated bool) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	r := httptest.NewRequest(method, path, reader)
	if authenticated {
		r.Header.Set("Authorization", "Bearer "+f.token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, r)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/health", nil, false)

	req.Equal(http.StatusOK, rec.Code)
	req.JSONEq(`{"status":"ok","timestamp":"2026-03-01T12:00:00Z"}`, rec.Body.String())
}

func TestAuthRoutes(t *testing.T) {
	f := newFixture(t)

	t.Run("should register and answer 201", func(t *testing.T) {
		req := require.New(t)
		input := domain.RegisterRequest{Email: "alice@example.com", Username: "alice", Password: "secret"}
		f.auth.EXPECT().Register(gomock.Any(), input).
			Return(domain.AuthResult{User: alice.Public(), Token: "jwt"}, nil)

		rec := f.do(http.MethodPost, "/api/auth/register", input, false)

		req.Equal(http.StatusCreated, rec.Code)
		body := decode(t, rec)
		req.Equal("jwt", body["token"])
		req.Equal("alice", body["user"].(map[string]any)["username"])
	})

	t.Run("should surface validation and conflicts", func(t *testing.T) {
		req := require.New(t)
		f.auth.EXPECT().Register(gomock.Any(), gomock.Any()).
			Return(domain.AuthResult{}, fmt.Errorf("%w: %s", errors.ErrValidation, "Invalid email address"))
		rec := f.do(http.MethodPost, "/api/auth/register", domain.RegisterRequest{}, false)
		req.Equal(http.StatusBadRequest, rec.Code)
		req.Equal("Invalid email address", decode(t, rec)["error"])

		f.auth.EXPECT().Register(gomock.Any(), gomock.Any()).Return(domain.AuthResult{}, errors.ErrUsernameTaken)
		rec = f.do(http.MethodPost, "/api/auth/register", domain.RegisterRequest{}, false)
		req.Equal(http.StatusConflict, rec.Code)
		req.Equal("Username is already taken", decode(t, rec)["error"])
	})

	t.Run("should reject a malformed body", func(t *testing.T) {
		req := require.New(t)
		r := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, r)
		req.Equal(http.StatusBadRequest, rec.Code)
	})

	t.Run("should answer 401 on bad credentials", func(t *testing.T) {
		req := require.New(t)
		f.auth.EXPECT().Login(gomock.Any(), gomock.Any()).Return(domain.AuthResult{}, errors.ErrInvalidCredentials)

		rec := f.do(http.MethodPost, "/api/auth/login", domain.LoginRequest{Email: "a@b.c", Password: "x"}, false)

		req.Equal(http.StatusUnauthorized, rec.Code)
		req.Equal("Invalid email or password", decode(t, rec)["error"])
	})

	t.Run("should require a token for me", func(t *testing.T) {
		req := require.New(t)
		rec := f.do(http.MethodGet, "/api/auth/me", nil, false)
		req.Equal(http.StatusUnauthorized, rec.Code)

		f.auth.EXPECT().Me(gomock.Any(), alice.ID).Return(alice.Public(), nil)
		rec = f.do(http.MethodGet, "/api/auth/me", nil, true)
		req.Equal(http.StatusOK, rec.Code)
		req.Equal("alice@example.com", decode(t, rec)["user"].(map[string]any)["email"])
	})
}

func TestRoomRoutes(t *testing.T) {
	f := newFixture(t)
	identity := alice.Identity()
	room := domain.Room{ID: "r1", Name: "general", CreatedBy: alice.ID, CreatedAt: now}

	t.Run("should create a room", func(t *testing.T) {
		req := require.New(t)
		f.rooms.EXPECT().Create(gomock.Any(), identity, domain.CreateRoomRequest{Name: "general"}).
			Return(domain.RoomSummary{Room: room, MemberCount: 1, IsMember: true}, nil)

		rec := f.do(http.MethodPost, "/api/rooms", domain.CreateRoomRequest{Name: "general"}, true)

		req.Equal(http.StatusCreated, rec.Code)
		req.JSONEq(`{"room":{"id":"r1","name":"general","description":null,"createdAt":"2026-03-01T12:00:00Z",
			"memberCount":1,"messageCount":0,"isMember":true}}`, rec.Body.String())
	})

	t.Run("should list rooms", func(t *testing.T) {
		req := require.New(t)
		withDescription := room
		withDescription.Description = "talk"
		f.rooms.EXPECT().List(gomock.Any(), alice.ID).
			Return([]domain.RoomSummary{{Room: withDescription, MemberCount: 2, MessageCount: 5}}, nil)

		rec := f.do(http.MethodGet, "/api/rooms", nil, true)

		req.Equal(http.StatusOK, rec.Code)
		rooms := decode(t, rec)["rooms"].([]any)
		req.Len(rooms, 1)
		req.Equal("talk", rooms[0].(map[string]any)["description"])
		req.Equal(false, rooms[0].(map[string]any)["isMember"])
	})

	t.Run("should return room details with members", func(t *testing.T) {
		req := require.New(t)
		f.rooms.EXPECT().Get(gomock.Any(), domain.RoomID("r1")).Return(domain.RoomDetails{
			Room:        room,
			MemberCount: 1,
			Members:     []domain.Member{{UserID: alice.ID, Username: "alice", JoinedAt: now}},
		}, nil)

		rec := f.do(http.MethodGet, "/api/rooms/r1", nil, true)

		req.Equal(http.StatusOK, rec.Code)
		members := decode(t, rec)["room"].(map[string]any)["members"].([]any)
		req.Equal(map[string]any{"id": "u1", "username": "alice", "joinedAt": "2026-03-01T12:00:00Z"}, members[0])
	})

	t.Run("should answer 404 on unknown room", func(t *testing.T) {
		req := require.New(t)
		f.rooms.EXPECT().Get(gomock.Any(), domain.RoomID("nope")).Return(domain.RoomDetails{}, errors.ErrRoomNotFound)

		rec := f.do(http.MethodGet, "/api/rooms/nope", nil, true)

		req.Equal(http.StatusNotFound, rec.Code)
		req.Equal("Room not found", decode(t, rec)["error"])
	})

	t.Run("should join once", func(t *testing.T) {
		req := require.New(t)
		gomock.InOrder(
			f.rooms.EXPECT().Join(gomock.Any(), identity, domain.RoomID("r1")).Return(true, nil),
			f.rooms.EXPECT().Join(gomock.Any(), identity, domain.RoomID("r1")).Return(false, nil),
		)

		rec := f.do(http.MethodPost, "/api/rooms/r1/join", nil, true)
		req.Equal("Joined room successfully", decode(t, rec)["message"])
		rec = f.do(http.MethodPost, "/api/rooms/r1/join", nil, true)
		req.Equal("Already a member of this room", decode(t, rec)["message"])
	})

	t.Run("should answer 400 when leaving a room the user is not in", func(t *testing.T) {
		req := require.New(t)
		f.rooms.EXPECT().Leave(gomock.Any(), alice.ID, domain.RoomID("r1")).Return(errors.ErrNotAMember)

		rec := f.do(http.MethodPost, "/api/rooms/r1/leave", nil, true)

		req.Equal(http.StatusBadRequest, rec.Code)
		req.Equal("Not a member of this room", decode(t, rec)["error"])
	})

	t.Run("should hide internal errors", func(t *testing.T) {
		req := require.New(t)
		f.rooms.EXPECT().List(gomock.Any(), alice.ID).Return(nil, fmt.Errorf("disk on fire"))

		rec := f.do(http.MethodGet, "/api/rooms", nil, true)

		req.Equal(http.StatusInternalServerError, rec.Code)
		req.Equal("Internal server error", decode(t, rec)["error"])
	})
}

func TestMessageRoutes(t *testing.T) {
	f := newFixture(t)

	t.Run("should return a page with its cursor", func(t *testing.T) {
		req := require.New(t)
		id := uuid.New()
		f.messages.EXPECT().History(gomock.Any(), alice.ID, domain.RoomID("r1"), lo.ToPtr("c1")).
			Return(domain.MessagePage{
				Messages: []domain.Message{{
					ID: id, RoomID: "r1", Content: "hi", CreatedAt: now,
					Author: domain.Author{ID: alice.ID, Username: "alice"},
				}},
				NextCursor: lo.ToPtr("c2"),
				HasMore:    true,
			}, nil)

		rec := f.do(http.MethodGet, "/api/messages/r1?cursor=c1", nil, true)

		req.Equal(http.StatusOK, rec.Code)
		req.JSONEq(fmt.Sprintf(`{"messages":[{"id":%q,"content":"hi","createdAt":"2026-03-01T12:00:00Z",
			"roomId":"r1","user":{"id":"u1","username":"alice"}}],"nextCursor":"c2","hasMore":true}`, id),
			rec.Body.String())
	})

	t.Run("should return an empty last page", func(t *testing.T) {
		req := require.New(t)
		f.messages.EXPECT().History(gomock.Any(), alice.ID, domain.RoomID("r1"), gomock.Nil()).
			Return(domain.MessagePage{}, nil)

		rec := f.do(http.MethodGet, "/api/messages/r1", nil, true)

		req.JSONEq(`{"messages":[],"nextCursor":null,"hasMore":false}`, rec.Body.String())
	})

	t.Run("should answer 403 to non members", func(t *testing.T) {
		req := require.New(t)
		f.messages.EXPECT().History(gomock.Any(), alice.ID, domain.RoomID("r1"), gomock.Nil()).
			Return(domain.MessagePage{}, errors.ErrNotAMember)

		rec := f.do(http.MethodGet, "/api/messages/r1", nil, true)

		req.Equal(http.StatusForbidden, rec.Code)
		req.Equal("You must be a member of this room to view messages", decode(t, rec)["error"])
	})
}

func TestCORS(t *testing.T) {
	f := newFixture(t)

	t.Run("should answer preflight without authentication", func(t *testing.T) {
		req := require.New(t)
		r := httptest.NewRequest(http.MethodOptions, "/api/rooms", nil)
		r.Header.Set("Origin", "http://localhost:5173")
		rec := httptest.NewRecorder()

		f.router.ServeHTTP(rec, r)

		req.Equal(http.StatusNoContent, rec.Code)
		req.Equal("http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
		req.Contains(rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	})

	t.Run("should not allow unknown origins", func(t *testing.T) {
		req := require.New(t)
		r := httptest.NewRequest(http.MethodGet, "/health", nil)
		r.Header.Set("Origin", "http://evil.example")
		rec := httptest.NewRecorder()

		f.router.ServeHTTP(rec, r)

		req.Equal(http.StatusOK, rec.Code)
		req.Empty(rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
