package api

import (
	"chatwav/auth"
	"chatwav/contract"
	"chatwav/domain"
	"chatwav/domain/event"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/samber/lo"
)

type historyResponse struct {
	Messages   []event.NewMessage `json:"messages"`
	NextCursor *string            `json:"nextCursor"`
	HasMore    bool               `json:"hasMore"`
}

type MessageHandler struct {
	log     *slog.Logger
	service contract.IMessageService
}

func NewMessageHandler(log *slog.Logger, service contract.IMessageService) *MessageHandler {
	return &MessageHandler{log: log, service: service}
}

// History serves one page of a room, newest first. The cursor of the
// next page is only set when there is one.
func (h *MessageHandler) History(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	roomID := domain.RoomID(mux.Vars(r)["roomId"])
	cursor := lo.EmptyableToPtr(r.URL.Query().Get("cursor"))

	page, err := h.service.History(r.Context(), identity.UserID, roomID, cursor)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{
		Messages:   lo.Map(page.Messages, func(m domain.Message, _ int) event.NewMessage { return event.NewMessageFrom(m) }),
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	})
}
