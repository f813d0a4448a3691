package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRankOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		wantErr  bool
		wantKind OutputKind
		wantLen  int
	}{
		{"list of records", `{"output":[{"mksc_shrn_iscd":"005930"},{"mksc_shrn_iscd":"000660"}]}`, false, OutputMany, 2},
		{"single record", `{"output":{"stck_shrn_iscd":"005930"}}`, false, OutputSingle, 0},
		{"mixed list keeps raw elements", `{"output":[1,"x",{"mksc_shrn_iscd":"005930"}]}`, false, OutputMany, 3},
		{"null output", `{"output":null}`, false, OutputOther, 0},
		{"number output", `{"output":42}`, false, OutputOther, 0},
		{"boolean output", `{"output":true}`, false, OutputOther, 0},
		{"string output", `{"output":"005930"}`, false, OutputOther, 0},
		{"missing output", `{"rt_cd":"0"}`, false, OutputOther, 0},
		{"differently cased key is not output", `{"Output":[{"mksc_shrn_iscd":"005930"}]}`, false, OutputOther, 0},
		{"differently cased key does not shadow output", `{"output":[{"mksc_shrn_iscd":"005930"}],"OUTPUT":null}`, false, OutputMany, 1},
		{"top-level list", `[{"output":[]}]`, false, OutputOther, 0},
		{"top-level null", `null`, false, OutputOther, 0},
		{"invalid json", `not-json`, true, OutputOther, 0},
		{"empty body", ``, true, OutputOther, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := DecodeRankOutput([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, out.Kind)
			assert.Len(t, out.Many, tt.wantLen)
		})
	}
}

func TestAsEntry(t *testing.T) {
	t.Parallel()

	entry, ok := AsEntry([]byte(` {"mksc_shrn_iscd":"005930"}`))
	require.True(t, ok)
	assert.Equal(t, "005930", entry.Field("mksc_shrn_iscd"))

	_, ok = AsEntry([]byte(`"005930"`))
	assert.False(t, ok)

	_, ok = AsEntry([]byte(`[]`))
	assert.False(t, ok)
}

func TestRankEntry_Field(t *testing.T) {
	t.Parallel()

	entry, ok := AsEntry([]byte(`{
		"text": "005930",
		"empty": "",
		"null": null,
		"falsy": false,
		"truthy": true,
		"zero": 0,
		"number": 5930,
		"nested": {"a": 1}
	}`))
	require.True(t, ok)

	tests := []struct {
		field string
		want  string
	}{
		{"text", "005930"},
		{"empty", ""},
		{"null", ""},
		{"falsy", ""},
		{"truthy", ""},
		{"zero", ""},
		{"number", "5930"},
		{"nested", ""},
		{"absent", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.field, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, entry.Field(tt.field))
		})
	}
}

func TestOutputKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "single", OutputSingle.String())
	assert.Equal(t, "many", OutputMany.String())
	assert.Equal(t, "other", OutputOther.String())
}
