package routes

import (
	"net/http"

	"github.com/zabege/tg-rec-bot/internal/deps"

	pkghttpx "github.com/zabege/tg-rec-bot/pkg/httpx"
)

// SetLocation handles PUT /locations/{location}
func SetLocation(d deps.ServerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type locationReq struct {
			MemberCount int `json:"member_count" validate:"gte=1"`
		}
		var req locationReq
		if he := decode(r, &req); he != nil {
			pkghttpx.WriteError(w, r, he)
			return
		}
		ctx := r.Context()
		location := r.PathValue("location")
		if err := d.Locations.SetMemberCount(ctx, location, req.MemberCount); err != nil {
			pkghttpx.WriteError(w, r, domainError(err))
			return
		}
		eligible, err := d.Locations.EligibleVoterCount(ctx, location)
		if err != nil {
			pkghttpx.WriteError(w, r, domainError(err))
			return
		}
		pkghttpx.WriteJSON(w, http.StatusOK, map[string]any{
			"location":     location,
			"member_count": req.MemberCount,
			"eligible":     eligible,
		})
	}
}
