package catalogue

import (
	"strconv"
	"strings"
)

// GenerationRequest selects the items of a catalogue. ExplicitIDs keeps the
// raw, uncoerced tokens as supplied by the caller; when it is non-empty it
// takes exclusive priority over CategoryIDs.
type GenerationRequest struct {
	ExplicitIDs []string
	CategoryIDs []int64
}

// ResolvedSelection is a deduplicated, order-preserving list of item IDs.
// An empty selection is valid and means nothing matched.
type ResolvedSelection []int64

// IsEmpty reports whether nothing was selected
func (s ResolvedSelection) IsEmpty() bool {
	return len(s) == 0
}

// IsBlank reports whether the request names neither IDs nor categories
func (r GenerationRequest) IsBlank() bool {
	return len(r.ExplicitIDs) == 0 && len(r.CategoryIDs) == 0
}

// ExplicitRequest builds a request from numeric IDs
func ExplicitRequest(ids ...int64) GenerationRequest {
	tokens := make([]string, 0, len(ids))
	for _, id := range ids {
		tokens = append(tokens, strconv.FormatInt(id, 10))
	}
	return GenerationRequest{ExplicitIDs: tokens}
}

// ParseIDList splits a comma-separated list into trimmed, non-blank tokens.
// Tokens are not validated here.
func ParseIDList(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// CoercePositiveID converts a token to a positive integer ID.
// Non-numeric and non-positive tokens are rejected.
func CoercePositiveID(token string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(token), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// NormalizeIDs coerces tokens to positive IDs, drops invalid ones and removes
// duplicates keeping first-seen order
func NormalizeIDs(tokens []string) []int64 {
	seen := make(map[int64]struct{}, len(tokens))
	ids := make([]int64, 0, len(tokens))
	for _, t := range tokens {
		id, ok := CoercePositiveID(t)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// NormalizeCategoryIDs drops non-positive category IDs and duplicates
func NormalizeCategoryIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
