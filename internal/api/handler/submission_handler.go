package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"trailquest/internal/api/middleware"
	"trailquest/internal/app/service"
	"trailquest/internal/common"

	"github.com/go-chi/chi/v5"
)

type SubmissionHandler struct {
	progressionService *service.ProgressionService
}

func NewSubmissionHandler(ps *service.ProgressionService) *SubmissionHandler {
	return &SubmissionHandler{progressionService: ps}
}

func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator) // All submission routes require auth
	r.Get("/me", h.listMySubmissions)

	r.Group(func(reviewRouter chi.Router) {
		reviewRouter.Use(middleware.AnimatorOnly)
		reviewRouter.Post("/{submissionID}/validate", h.validateSubmission)
		reviewRouter.Post("/{submissionID}/reject", h.rejectSubmission)
	})
}

func (h *SubmissionHandler) listMySubmissions(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.GetMemberIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing member context")
		return
	}

	subs, err := h.progressionService.ListForMember(r.Context(), memberID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, subs)
}

type reviewRequest struct {
	Comment *string `json:"comment,omitempty"`
}

// decodeReviewRequest tolerates an empty body; the reviewer comment is
// optional on both decisions.
func decodeReviewRequest(r *http.Request) (reviewRequest, error) {
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		return req, err
	}
	return req, nil
}

func (h *SubmissionHandler) validateSubmission(w http.ResponseWriter, r *http.Request) {
	reviewerID, ok := middleware.GetMemberIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing member context")
		return
	}
	submissionID := chi.URLParam(r, "submissionID")

	req, err := decodeReviewRequest(r)
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	if err := h.progressionService.Validate(r.Context(), submissionID, reviewerID, req.Comment); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SubmissionHandler) rejectSubmission(w http.ResponseWriter, r *http.Request) {
	reviewerID, ok := middleware.GetMemberIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing member context")
		return
	}
	submissionID := chi.URLParam(r, "submissionID")

	req, err := decodeReviewRequest(r)
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	if err := h.progressionService.Reject(r.Context(), submissionID, reviewerID, req.Comment); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
