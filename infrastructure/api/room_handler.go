package api

import (
	"chatwav/auth"
	"chatwav/contract"
	"chatwav/domain"
	"chatwav/errors"
	goerrors "errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/lo"
)

type roomResponse struct {
	ID           domain.RoomID `json:"id"`
	Name         string        `json:"name"`
	Description  *string       `json:"description"`
	CreatedAt    time.Time     `json:"createdAt"`
	MemberCount  int           `json:"memberCount"`
	MessageCount int           `json:"messageCount"`
	IsMember     bool          `json:"isMember"`
}

type memberResponse struct {
	ID       domain.UserID `json:"id"`
	Username string        `json:"username"`
	JoinedAt time.Time     `json:"joinedAt"`
}

type roomDetailsResponse struct {
	ID           domain.RoomID    `json:"id"`
	Name         string           `json:"name"`
	Description  *string          `json:"description"`
	CreatedAt    time.Time        `json:"createdAt"`
	MemberCount  int              `json:"memberCount"`
	MessageCount int              `json:"messageCount"`
	Members      []memberResponse `json:"members"`
}

type RoomHandler struct {
	log     *slog.Logger
	service contract.IRoomService
}

func NewRoomHandler(log *slog.Logger, service contract.IRoomService) *RoomHandler {
	return &RoomHandler{log: log, service: service}
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	var req domain.CreateRoomRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	summary, err := h.service.Create(r.Context(), identity, req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Room roomResponse `json:"room"`
	}{Room: toRoomResponse(summary)})
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	summaries, err := h.service.List(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Rooms []roomResponse `json:"rooms"`
	}{Rooms: lo.Map(summaries, func(s domain.RoomSummary, _ int) roomResponse {
		return toRoomResponse(s)
	})})
}

func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	details, err := h.service.Get(r.Context(), roomID(r))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Room roomDetailsResponse `json:"room"`
	}{Room: roomDetailsResponse{
		ID:           details.ID,
		Name:         details.Name,
		Description:  lo.EmptyableToPtr(details.Description),
		CreatedAt:    details.CreatedAt,
		MemberCount:  details.MemberCount,
		MessageCount: details.MessageCount,
		Members: lo.Map(details.Members, func(m domain.Member, _ int) memberResponse {
			return memberResponse{ID: m.UserID, Username: m.Username, JoinedAt: m.JoinedAt}
		}),
	}})
}

func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	joined, err := h.service.Join(r.Context(), identity, roomID(r))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	message := "Joined room successfully"
	if !joined {
		message = "Already a member of this room"
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: message})
}

func (h *RoomHandler) Leave(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	err := h.service.Leave(r.Context(), identity.UserID, roomID(r))
	switch {
	case goerrors.Is(err, errors.ErrNotAMember):
		writeError(w, http.StatusBadRequest, "Not a member of this room")
	case err != nil:
		writeServiceError(w, h.log, err)
	default:
		writeJSON(w, http.StatusOK, messageResponse{Message: "Left room successfully"})
	}
}

func toRoomResponse(s domain.RoomSummary) roomResponse {
	return roomResponse{
		ID:           s.ID,
		Name:         s.Name,
		Description:  lo.EmptyableToPtr(s.Description),
		CreatedAt:    s.CreatedAt,
		MemberCount:  s.MemberCount,
		MessageCount: s.MessageCount,
		IsMember:     s.IsMember,
	}
}

func roomID(r *http.Request) domain.RoomID {
	return domain.RoomID(mux.Vars(r)["id"])
}
