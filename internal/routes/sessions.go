package routes

import (
	"net/http"

	"github.com/zabege/tg-rec-bot/internal/deps"
	"github.com/zabege/tg-rec-bot/internal/model"

	pkghttpx "github.com/zabege/tg-rec-bot/pkg/httpx"
)

// StartSession handles POST /sessions
func StartSession(d deps.ServerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type startReq struct {
			Owner       string            `json:"owner" validate:"required"`
			Location    string            `json:"location" validate:"required"`
			Genres      []string          `json:"genres" validate:"max=3,dive,oneof=comedy drama fantasy action horror thriller romance animation documentary"`
			ContentType model.ContentType `json:"content_type" validate:"omitempty,oneof=video series either"`
			Era         model.Era         `json:"era" validate:"omitempty,oneof=any pre1980 1980s 1990s 2000s 2010s 2020s"`
		}
		var req startReq
		if he := decode(r, &req); he != nil {
			pkghttpx.WriteError(w, r, he)
			return
		}
		f := model.Filter{Genres: req.Genres, ContentType: req.ContentType, Era: req.Era}
		out, err := d.Lobby.StartSingle(r.Context(), req.Owner, req.Location, f)
		if err != nil {
			pkghttpx.WriteError(w, r, domainError(err))
			return
		}
		pkghttpx.WriteJSON(w, http.StatusCreated, out)
	}
}

// GetSession handles GET /sessions/{id}
func GetSession(d deps.ServerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := d.Engine.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			pkghttpx.WriteError(w, r, domainError(err))
			return
		}
		pkghttpx.WriteJSON(w, http.StatusOK, s)
	}
}

// CurrentSession handles GET /locations/{location}/sessions/current?participant=
func CurrentSession(d deps.ServerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		participant := r.URL.Query().Get("participant")
		if participant == "" {
			pkghttpx.WriteError(w, r, pkghttpx.BadRequest("participant is required", nil))
			return
		}
		s, err := d.Lobby.Current(r.Context(), participant, r.PathValue("location"))
		if err != nil {
			pkghttpx.WriteError(w, r, domainError(err))
			return
		}
		pkghttpx.WriteJSON(w, http.StatusOK, s)
	}
}

// DrawPair handles POST /sessions/{id}/draw
func DrawPair(d deps.ServerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := d.Engine.DrawNextPair(r.Context(), r.PathValue("id"))
		if err != nil {
			pkghttpx.WriteError(w, r, domainError(err))
			return
		}
		pkghttpx.WriteJSON(w, http.StatusOK, out)
	}
}

// Vote handles POST /sessions/{id}/votes
func Vote(d deps.ServerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type voteReq struct {
			Participant string `json:"participant" validate:"required"`
			Position    int    `json:"position" validate:"oneof=1 2"`
			Round       int    `json:"round" validate:"gte=0"`
		}
		var req voteReq
		if he := decode(r, &req); he != nil {
			pkghttpx.WriteError(w, r, he)
			return
		}
		out, err := d.Engine.CastVote(r.Context(), r.PathValue("id"), req.Participant, req.Position, req.Round)
		if err != nil {
			pkghttpx.WriteError(w, r, domainError(err))
			return
		}
		pkghttpx.WriteJSON(w, http.StatusOK, out)
	}
}

// Force handles POST /sessions/{id}/force
func Force(d deps.ServerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type forceReq struct {
			Requester string `json:"requester" validate:"required"`
			Round     int    `json:"round" validate:"gte=0"`
		}
		var req forceReq
		if he := decode(r, &req); he != nil {
			pkghttpx.WriteError(w, r, he)
			return
		}
		out, err := d.Engine.ForceResolve(r.Context(), r.PathValue("id"), req.Requester, req.Round)
		if err != nil {
			pkghttpx.WriteError(w, r, domainError(err))
			return
		}
		pkghttpx.WriteJSON(w, http.StatusOK, out)
	}
}
