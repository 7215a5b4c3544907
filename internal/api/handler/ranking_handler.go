package handler

import (
	"net/http"
	"strconv"
	"trailquest/internal/api/middleware"
	"trailquest/internal/app/service"
	"trailquest/internal/common"

	"github.com/go-chi/chi/v5"
)

type RankingHandler struct {
	rankingService     *service.RankingService
	progressionService *service.ProgressionService
}

func NewRankingHandler(rs *service.RankingService, ps *service.ProgressionService) *RankingHandler {
	return &RankingHandler{rankingService: rs, progressionService: ps}
}

func (h *RankingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{groupID}/ranking", h.individualRanking)
	r.Get("/{groupID}/ranking/sections", h.sectionRanking)

	r.Group(func(authRouter chi.Router) {
		authRouter.Use(middleware.Authenticator)
		authRouter.Get("/{groupID}/ranking/me", h.myRank)
	})

	r.Group(func(reviewRouter chi.Router) {
		reviewRouter.Use(middleware.Authenticator)
		reviewRouter.Use(middleware.AnimatorOnly)
		reviewRouter.Get("/{groupID}/submissions/pending", h.pendingSubmissions)
	})
}

func (h *RankingHandler) individualRanking(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.rankingService.IndividualRanking(r.Context(), groupID, limit)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}

func (h *RankingHandler) sectionRanking(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")

	entries, err := h.rankingService.SectionRanking(r.Context(), groupID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}

func (h *RankingHandler) myRank(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.GetMemberIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing member context")
		return
	}
	groupID := chi.URLParam(r, "groupID")

	rank, err := h.rankingService.IndividualRank(r.Context(), memberID, groupID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]int{"rank": rank})
}

func (h *RankingHandler) pendingSubmissions(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	includeGlobal := r.URL.Query().Get("include_global") != "false"

	subs, err := h.progressionService.ListPendingForGroup(r.Context(), groupID, includeGlobal)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, subs)
}
