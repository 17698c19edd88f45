package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/pribylovaa/go-friends-service/internal/models"
	"github.com/pribylovaa/go-friends-service/internal/service"
	"github.com/pribylovaa/go-friends-service/internal/transport/http/apierrors"
	"github.com/pribylovaa/go-friends-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"created_at"`
}

type userPageResponse struct {
	Users      []userResponse `json:"users"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int64          `json:"total_pages"`
}

type pendingRequestResponse struct {
	RequestID uuid.UUID `json:"request_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}

type friendRequestAction struct {
	RequestID uuid.UUID `json:"request_id"`
}

// toUserResponse намеренно не содержит password_hash.
func toUserResponse(u models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Age:       u.Age,
		CreatedAt: u.CreatedAt,
	}
}

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := queryInt(q.Get("page"), 1)
	if err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	limit, err := queryInt(q.Get("limit"), 10)
	if err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	result, err := h.svc.ListUsers(r.Context(), q.Get("search"), page, limit)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	users := make([]userResponse, 0, len(result.Users))
	for _, u := range result.Users {
		users = append(users, toUserResponse(u))
	}

	writeJSON(w, http.StatusOK, userPageResponse{
		Users:      users,
		Total:      result.Total,
		Page:       result.Page,
		Limit:      result.Limit,
		TotalPages: result.TotalPages,
	})
}

func (h *Handlers) PendingRequests(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	reqs, err := h.svc.PendingRequests(r.Context(), principal.ID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := make([]pendingRequestResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, pendingRequestResponse{
			RequestID: req.RequestID,
			SenderID:  req.SenderID,
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			CreatedAt: req.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	receiverID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	if err := h.svc.SendFriendRequest(r.Context(), principal.ID, receiverID); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "friend request sent"})
}

func (h *Handlers) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	var in friendRequestAction
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	if err := h.svc.AcceptFriendRequest(r.Context(), principal.ID, in.RequestID); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "friend request accepted"})
}

func (h *Handlers) DeclineFriendRequest(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	var in friendRequestAction
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	if err := h.svc.DeclineFriendRequest(r.Context(), principal.ID, in.RequestID); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "friend request declined"})
}

// queryInt — парсинг числового query-параметра с дефолтом для пустого значения.
func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}

	return strconv.Atoi(raw)
}
