package routes

import (
	"context"
	"net/http"

	"github.com/zabege/tg-rec-bot/internal/deps"
	"github.com/zabege/tg-rec-bot/internal/model"
	"github.com/zabege/tg-rec-bot/internal/preference"

	pkghttpx "github.com/zabege/tg-rec-bot/pkg/httpx"
)

// GetSurvey handles GET /surveys/{location}/{participant}
func GetSurvey(d deps.ServerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		draft, err := d.Drafts.Get(r.Context(), r.PathValue("location"), r.PathValue("participant"))
		if err != nil {
			pkghttpx.WriteError(w, r, domainError(err))
			return
		}
		pkghttpx.WriteJSON(w, http.StatusOK, draft)
	}
}

type draftStep func(ctx context.Context, location, participant, value string) (preference.Draft, error)

// SurveyStep handles POST /surveys/{location}/{participant}/{genres|type|era}.
// Genre values toggle; type and era values replace the previous answer.
func SurveyStep(d deps.ServerDeps, step string) http.HandlerFunc {
	var apply draftStep
	switch step {
	case "genres":
		apply = d.Drafts.ToggleGenre
	case "type":
		apply = d.Drafts.SetContentType
	default:
		apply = d.Drafts.SetEra
	}
	return func(w http.ResponseWriter, r *http.Request) {
		type stepReq struct {
			Value string `json:"value" validate:"required"`
		}
		var req stepReq
		if he := decode(r, &req); he != nil {
			pkghttpx.WriteError(w, r, he)
			return
		}
		draft, err := apply(r.Context(), r.PathValue("location"), r.PathValue("participant"), req.Value)
		if err != nil {
			pkghttpx.WriteError(w, r, domainError(err))
			return
		}
		pkghttpx.WriteJSON(w, http.StatusOK, draft)
	}
}

// CompleteSurvey handles POST /surveys/{location}/{participant}/complete
func CompleteSurvey(d deps.ServerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type completeReq struct {
			Mode model.Mode `json:"mode" validate:"required,oneof=single group"`
		}
		var req completeReq
		if he := decode(r, &req); he != nil {
			pkghttpx.WriteError(w, r, he)
			return
		}
		ctx := r.Context()
		resp, err := d.Drafts.Complete(ctx, r.PathValue("location"), r.PathValue("participant"))
		if err != nil {
			pkghttpx.WriteError(w, r, domainError(err))
			return
		}
		res, err := d.Lobby.SubmitSurvey(ctx, resp, req.Mode)
		if err != nil {
			pkghttpx.WriteError(w, r, domainError(err))
			return
		}
		status := http.StatusOK
		if res.Started {
			status = http.StatusCreated
		}
		pkghttpx.WriteJSON(w, status, res)
	}
}
