package api

import (
	"chatwav/errors"
	"encoding/json"
	goerrors "errors"
	"log/slog"
	"net/http"
	"strings"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError answers with the status and text matching err.
// Unmapped errors are logged and hidden behind a 500.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	status := errors.HTTPStatus(err)
	message := clientMessage(err)
	if message == "" {
		log.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeError(w, status, message)
}

func clientMessage(err error) string {
	switch {
	case goerrors.Is(err, errors.ErrValidation):
		return strings.TrimPrefix(err.Error(), errors.ErrValidation.Error()+": ")
	case goerrors.Is(err, errors.ErrUserAlreadyExists):
		return "Email is already taken"
	case goerrors.Is(err, errors.ErrUsernameTaken):
		return "Username is already taken"
	case goerrors.Is(err, errors.ErrInvalidCredentials):
		return "Invalid email or password"
	case goerrors.Is(err, errors.ErrUserNotFound):
		return "User not found"
	case goerrors.Is(err, errors.ErrRoomNotFound):
		return "Room not found"
	case goerrors.Is(err, errors.ErrRoomAlreadyExists):
		return "A room with this name already exists"
	case goerrors.Is(err, errors.ErrNotAMember):
		return "You must be a member of this room to view messages"
	case goerrors.Is(err, errors.ErrUnauthenticated):
		return "Missing or invalid authorization header"
	case goerrors.Is(err, errors.ErrInvalidToken):
		return "Invalid or expired token"
	default:
		return ""
	}
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
