package qdrant

import "github.com/custodia-labs/slack2rag/internal/core/domain"

// startOfDay turns a YYYY-MM-DD date into the RFC 3339 instant Qdrant's
// datetime range expects. Stored dates are midnight UTC, so comparing
// midnight bounds keeps both ends inclusive.
func startOfDay(date string) string {
	return date + "T00:00:00Z"
}

func matchCondition(key string, value any) map[string]any {
	return map[string]any{
		"key":   key,
		"match": map[string]any{"value": value},
	}
}

// buildFilter translates search options into a Qdrant filter, or nil when
// no filter applies.
func buildFilter(opts domain.SearchOptions) map[string]any {
	var must []any

	if opts.Channel != "" {
		must = append(must, matchCondition(domain.ChannelFilterField(opts.Channel), opts.Channel))
	}

	if opts.DateFrom != "" || opts.DateTo != "" {
		rng := map[string]any{}
		if opts.DateFrom != "" {
			rng["gte"] = startOfDay(opts.DateFrom)
		}
		if opts.DateTo != "" {
			rng["lte"] = startOfDay(opts.DateTo)
		}
		must = append(must, map[string]any{"key": domain.FieldDate, "range": rng})
	}

	if len(must) == 0 {
		return nil
	}
	return map[string]any{"must": must}
}
