// Package preference turns survey answers into the filter that seeds a battle.
package preference

import (
	"fmt"
	"sort"

	"github.com/zabege/tg-rec-bot/internal/model"
)

// AggregateSingle uses one respondent's answers as the filter.
func AggregateSingle(r model.SurveyResponse) model.Filter {
	return model.Filter{
		Genres:      append([]string(nil), r.Genres...),
		ContentType: r.ContentType,
		Era:         r.Era,
	}
}

// AggregateGroup merges a location's responses. Genres are the top three by
// mention count; content type and era are each a plurality pick. Every tie
// goes to whichever value was seen first in input order.
func AggregateGroup(responses []model.SurveyResponse) (model.Filter, error) {
	if len(responses) == 0 {
		return model.Filter{}, fmt.Errorf("aggregate: %w", model.ErrNoData)
	}
	genres := newTally()
	types := newTally()
	eras := newTally()
	for _, r := range responses {
		for _, g := range r.Genres {
			genres.add(g)
		}
		if r.ContentType != "" {
			types.add(string(r.ContentType))
		}
		if r.Era != "" {
			eras.add(string(r.Era))
		}
	}
	f := model.Filter{Genres: genres.top(model.MaxGenres)}
	if t := types.top(1); len(t) == 1 {
		f.ContentType = model.ContentType(t[0])
	}
	if e := eras.top(1); len(e) == 1 {
		f.Era = model.Era(e[0])
	}
	return f, nil
}

// CompletionThreshold is how many distinct respondents a group survey needs
// before a battle starts: every member but the bot, capped at three.
func CompletionThreshold(eligible int) int {
	n := min(eligible-1, 3)
	return max(n, 1)
}

type tally struct {
	order  []string
	counts map[string]int
}

func newTally() *tally { return &tally{counts: map[string]int{}} }

func (t *tally) add(v string) {
	if _, ok := t.counts[v]; !ok {
		t.order = append(t.order, v)
	}
	t.counts[v]++
}

func (t *tally) top(n int) []string {
	out := append([]string(nil), t.order...)
	sort.SliceStable(out, func(i, j int) bool { return t.counts[out[i]] > t.counts[out[j]] })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
