// Package pagination normalizes the loosely-shaped paginated payloads
// returned by the upstream REST API. Backends wrap list responses in
// zero, one, or two {data: ...} envelopes depending on the endpoint;
// Coerce locates the item array through a bounded unwrap and fills in
// missing pagination scalars instead of failing.
package pagination

import (
	"encoding/json"
	"strconv"
)

// Page is the canonical pagination structure.
type Page[T any] struct {
	Data        []T    `json:"data"`
	CurrentPage int    `json:"current_page"`
	LastPage    int    `json:"last_page"`
	PerPage     int    `json:"per_page"`
	From        int    `json:"from"`
	To          int    `json:"to"`
	Total       int    `json:"total"`
	Path        string `json:"path,omitempty"`
	NextPageURL string `json:"next_page_url,omitempty"`
	PrevPageURL string `json:"prev_page_url,omitempty"`
}

// HasNext reports whether another page follows.
func (p *Page[T]) HasNext() bool {
	return p.CurrentPage < p.LastPage
}

// Coerce extracts a Page from a decoded JSON value of unknown shape.
// The item array may sit behind at most two "data" descents:
//
//	{data: [...], current_page: 1}              one descent
//	{success: true, data: {data: [...], ...}}   two descents
//
// Deeper nesting, a non-object input, or a missing item array all yield
// nil. Coerce is total: it never panics and never returns an error.
// Elements that do not decode into T are skipped rather than aborting
// the whole page.
func Coerce[T any](raw any) *Page[T] {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil
	}

	var items []any
	payload := obj
	for attempt := 0; attempt < 2; attempt++ {
		if arr, ok := payload["data"].([]any); ok {
			items = arr
			break
		}
		inner, ok := payload["data"].(map[string]any)
		if !ok {
			return nil
		}
		payload = inner
	}
	if items == nil {
		return nil
	}

	data := decodeItems[T](items)

	page := &Page[T]{
		Data:        data,
		CurrentPage: toInt(payload["current_page"], 1),
		LastPage:    toInt(payload["last_page"], 1),
		PerPage:     toInt(payload["per_page"], 10),
		From:        toInt(payload["from"], 0),
		To:          toInt(payload["to"], len(items)),
		Total:       toInt(payload["total"], len(items)),
		Path:        toString(payload["path"]),
		NextPageURL: toString(payload["next_page_url"]),
		PrevPageURL: toString(payload["prev_page_url"]),
	}
	return page
}

// CoerceJSON decodes a raw response body and coerces it in one step.
func CoerceJSON[T any](body []byte) *Page[T] {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}
	return Coerce[T](raw)
}

func decodeItems[T any](items []any) []T {
	data := make([]T, 0, len(items))
	for _, item := range items {
		encoded, err := json.Marshal(item)
		if err != nil {
			continue
		}
		var decoded T
		if err := json.Unmarshal(encoded, &decoded); err != nil {
			continue
		}
		data = append(data, decoded)
	}
	return data
}

func toInt(v any, def int) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	}
	return def
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}
