package routes

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/zabege/tg-rec-bot/internal/model"

	pkghttpx "github.com/zabege/tg-rec-bot/pkg/httpx"
)

var validate = validator.New()

// decode reads and validates a request body.
func decode(r *http.Request, v any) *pkghttpx.HTTPError {
	if err := pkghttpx.DecodeJSON(r, v); err != nil {
		return pkghttpx.BadRequest("invalid json", err)
	}
	if err := validate.Struct(v); err != nil {
		he := pkghttpx.BadRequest("invalid request", err)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]any, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			he.Details = map[string]any{"fields": fields}
		}
		return he
	}
	return nil
}

// domainError maps engine and lobby errors onto HTTP responses.
func domainError(err error) *pkghttpx.HTTPError {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return pkghttpx.BadRequest(err.Error(), err)
	case errors.Is(err, model.ErrNotFound):
		return pkghttpx.NotFound("not found", err)
	case errors.Is(err, model.ErrDuplicateVote):
		return pkghttpx.Conflict("already voted this round", err).WithCode("duplicate_vote")
	case errors.Is(err, model.ErrStaleRound):
		return pkghttpx.Conflict("round already resolved", err).WithCode("stale_round")
	case errors.Is(err, model.ErrSessionFinished):
		return pkghttpx.Conflict("battle already finished", err).WithCode("session_finished")
	case errors.Is(err, model.ErrInsufficientCandidates):
		return pkghttpx.UnprocessableEntity("not enough titles match", err).WithCode("insufficient_candidates")
	case errors.Is(err, model.ErrNoData):
		return pkghttpx.UnprocessableEntity("no survey answers yet", err).WithCode("no_data")
	default:
		return pkghttpx.Internal("internal error", err)
	}
}
