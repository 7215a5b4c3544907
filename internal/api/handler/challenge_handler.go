package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"trailquest/internal/api/middleware"
	"trailquest/internal/app/service"
	"trailquest/internal/common"
	"trailquest/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ChallengeHandler struct {
	challengeService   *service.ChallengeService
	progressionService *service.ProgressionService
}

func NewChallengeHandler(cs *service.ChallengeService, ps *service.ProgressionService) *ChallengeHandler {
	return &ChallengeHandler{challengeService: cs, progressionService: ps}
}

func (h *ChallengeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listChallenges)            // GET /api/v1/challenges
	r.Get("/{challengeID}", h.getChallenge) // GET /api/v1/challenges/build-a-raft (slug or id)

	r.Group(func(memberRouter chi.Router) {
		memberRouter.Use(middleware.Authenticator)
		memberRouter.Post("/{challengeID}/start", h.startChallenge)
		memberRouter.Post("/{challengeID}/submit", h.submitChallenge)
		memberRouter.Get("/{challengeID}/submission", h.getSubmission)
	})

	r.Group(func(adminRouter chi.Router) {
		adminRouter.Use(middleware.Authenticator)
		adminRouter.Use(middleware.AdminOnly)
		adminRouter.Post("/", h.createChallenge)
		adminRouter.Put("/{challengeID}", h.updateChallenge)
	})
}

func (h *ChallengeHandler) createChallenge(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.GetMemberIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing member context")
		return
	}

	var req service.CreateChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	challenge, err := h.challengeService.CreateChallenge(r.Context(), memberID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, challenge)
}

func (h *ChallengeHandler) updateChallenge(w http.ResponseWriter, r *http.Request) {
	challengeID := chi.URLParam(r, "challengeID")

	var req service.UpdateChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	challenge, err := h.challengeService.UpdateChallenge(r.Context(), challengeID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, challenge)
}

func (h *ChallengeHandler) listChallenges(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	var groupID *string
	if g := r.URL.Query().Get("group_id"); g != "" {
		groupID = &g
	}

	challenges, total, err := h.challengeService.ListChallenges(r.Context(), groupID, true, page, pageSize)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	type PaginatedChallengesResponse struct {
		Challenges []model.Challenge `json:"challenges"`
		Total      int               `json:"total"`
		Page       int               `json:"page"`
		PageSize   int               `json:"page_size"`
	}
	common.RespondWithJSON(w, http.StatusOK, PaginatedChallengesResponse{
		Challenges: challenges,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
	})
}

func (h *ChallengeHandler) getChallenge(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "challengeID")

	challenge, err := h.challengeService.GetChallenge(r.Context(), ref)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, challenge)
}

func (h *ChallengeHandler) startChallenge(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.GetMemberIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing member context")
		return
	}
	challengeID := chi.URLParam(r, "challengeID")

	sub, err := h.progressionService.Start(r.Context(), challengeID, memberID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, sub)
}

type submitChallengeRequest struct {
	Comment       string  `json:"comment"`
	ProofImageURL *string `json:"proof_image_url,omitempty"`
}

func (h *ChallengeHandler) submitChallenge(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.GetMemberIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing member context")
		return
	}
	challengeID := chi.URLParam(r, "challengeID")

	var req submitChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	sub, err := h.progressionService.Submit(r.Context(), challengeID, memberID, req.Comment, req.ProofImageURL)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, sub)
}

func (h *ChallengeHandler) getSubmission(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.GetMemberIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing member context")
		return
	}
	challengeID := chi.URLParam(r, "challengeID")

	sub, err := h.progressionService.GetSubmission(r.Context(), challengeID, memberID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	// sub is nil when the member never attempted the challenge; the client
	// expects an explicit null rather than a 404.
	common.RespondWithJSON(w, http.StatusOK, sub)
}
