package pagination

import (
	"encoding/json"
	"testing"
)

type row struct {
	ID int `json:"id"`
}

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return v
}

func TestCoerce_DirectArray(t *testing.T) {
	raw := decode(t, `{"data":[{"id":1},{"id":2}],"current_page":1,"last_page":1}`)

	page := Coerce[row](raw)

	if page == nil {
		t.Fatal("expected a page")
	}
	if len(page.Data) != 2 || page.Data[0].ID != 1 || page.Data[1].ID != 2 {
		t.Errorf("data = %+v", page.Data)
	}
	if page.CurrentPage != 1 || page.LastPage != 1 {
		t.Errorf("pages = %d/%d", page.CurrentPage, page.LastPage)
	}
	// Defaults filled from the item count where the source omits fields.
	if page.Total != 2 || page.To != 2 {
		t.Errorf("total = %d, to = %d, want both 2", page.Total, page.To)
	}
}

func TestCoerce_DoubleEnvelope(t *testing.T) {
	raw := decode(t, `{"success":true,"data":{"data":[{"id":7}],"current_page":2,"last_page":5,"total":42}}`)

	page := Coerce[row](raw)

	if page == nil {
		t.Fatal("expected a page")
	}
	if page.CurrentPage != 2 || page.LastPage != 5 || page.Total != 42 {
		t.Errorf("page = %+v", page)
	}
	if !page.HasNext() {
		t.Error("page 2 of 5 should have a next page")
	}
}

func TestCoerce_TripleEnvelopeExceedsBound(t *testing.T) {
	// Only two data descents are attempted; an array three levels down
	// is out of reach and the payload is rejected.
	raw := decode(t, `{"data":{"data":{"data":[{"id":1}],"current_page":2}}}`)

	if page := Coerce[row](raw); page != nil {
		t.Errorf("page = %+v, want nil for a triple-wrapped payload", page)
	}
}

func TestCoerce_MalformedInputs(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{name: "nil", raw: nil},
		{name: "scalar", raw: 42.0},
		{name: "string", raw: "data"},
		{name: "array at top level", raw: []any{map[string]any{"id": 1.0}}},
		{name: "no data key", raw: map[string]any{"items": []any{}}},
		{name: "data is scalar", raw: map[string]any{"data": "oops"}},
		{name: "inner data is scalar", raw: map[string]any{"data": map[string]any{"data": 3.0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if page := Coerce[row](tt.raw); page != nil {
				t.Errorf("Coerce(%v) = %+v, want nil", tt.raw, page)
			}
		})
	}
}

func TestCoerce_ScalarCoercionAndDefaults(t *testing.T) {
	raw := decode(t, `{"data":[],"current_page":"3","last_page":"4","per_page":"25","from":null,"total":false}`)

	page := Coerce[row](raw)

	if page == nil {
		t.Fatal("expected a page")
	}
	if page.CurrentPage != 3 || page.LastPage != 4 || page.PerPage != 25 {
		t.Errorf("numeric strings not coerced: %+v", page)
	}
	if page.From != 0 || page.Total != 0 {
		t.Errorf("defaults not applied: from=%d total=%d", page.From, page.Total)
	}
}

func TestCoerce_SkipsUndecodableElements(t *testing.T) {
	raw := decode(t, `{"data":[{"id":1},{"id":"not-a-number"},{"id":3}]}`)

	page := Coerce[row](raw)

	if page == nil {
		t.Fatal("expected a page")
	}
	if len(page.Data) != 2 || page.Data[0].ID != 1 || page.Data[1].ID != 3 {
		t.Errorf("data = %+v, want the two decodable rows", page.Data)
	}
	// Counts reflect the source array, not the decoded subset.
	if page.Total != 3 {
		t.Errorf("total = %d, want 3", page.Total)
	}
}

func TestCoerceJSON(t *testing.T) {
	if page := CoerceJSON[row]([]byte(`{"data":[{"id":9}]}`)); page == nil || len(page.Data) != 1 {
		t.Errorf("CoerceJSON = %+v", page)
	}
	if page := CoerceJSON[row]([]byte(`{invalid json`)); page != nil {
		t.Error("invalid JSON must coerce to nil")
	}
}
