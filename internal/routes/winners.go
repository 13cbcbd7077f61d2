package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/zabege/tg-rec-bot/internal/deps"
	"github.com/zabege/tg-rec-bot/internal/repos"

	pkghttpx "github.com/zabege/tg-rec-bot/pkg/httpx"
)

// WinnersCachePrefix prefixes cached winners pages.
const WinnersCachePrefix = "winners:"

// Winners handles GET /winners/{year}/{month}
func Winners(d deps.ServerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		year, err1 := strconv.Atoi(r.PathValue("year"))
		month, err2 := strconv.Atoi(r.PathValue("month"))
		if err1 != nil || err2 != nil || year < 1970 || month < 1 || month > 12 {
			pkghttpx.WriteError(w, r, pkghttpx.BadRequest("invalid year/month", nil))
			return
		}
		from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 1, 0)

		cursor := r.URL.Query().Get("cursor")
		limitStr := r.URL.Query().Get("limit")
		if limitStr == "" {
			limitStr = "20"
		}
		lim64, err := strconv.ParseInt(limitStr, 10, 32)
		if err != nil || lim64 <= 0 || lim64 > 100 {
			pkghttpx.WriteError(w, r, pkghttpx.BadRequest("invalid limit", err))
			return
		}
		var cur *repos.WinnersCursor
		if cursor != "" {
			if d.Signer == nil {
				pkghttpx.WriteError(w, r, pkghttpx.Internal("cursor signer not configured", nil))
				return
			}
			micros, sessionID, decErr := d.Signer.DecodeWinnersCursor(cursor)
			if decErr != nil {
				pkghttpx.WriteError(w, r, pkghttpx.BadRequest("invalid cursor", decErr))
				return
			}
			cur = &repos.WinnersCursor{FinishedAt: time.UnixMicro(micros).UTC(), SessionID: sessionID}
		}

		cacheKey := fmt.Sprintf("%s%04d-%02d:cursor:%s:limit:%d", WinnersCachePrefix, year, month, cursor, lim64)
		if cached, ok := d.Cache.Get(ctx, cacheKey); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(cached))
			return
		}
		items, err := d.Winners.ListWinnersPage(ctx, from, to, cur, int32(lim64))
		if err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.Internal("failed to list winners", err))
			return
		}
		total, err := d.Winners.CountWinners(ctx, from, to)
		if err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.Internal("failed to count winners", err))
			return
		}
		resp := map[string]any{
			"items": items,
			"count": len(items),
			"total": total,
		}
		if len(items) == int(lim64) && d.Signer != nil {
			last := items[len(items)-1]
			resp["next_cursor"] = d.Signer.EncodeWinnersCursor(last.FinishedAt.UnixMicro(), last.SessionID)
		}
		b, _ := json.Marshal(resp)
		// a month still in progress keeps gaining winners
		ttl := 24 * time.Hour
		if time.Now().UTC().Before(to) {
			ttl = 30 * time.Second
		}
		_ = d.Cache.Set(ctx, cacheKey, string(b), ttl)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}
}
