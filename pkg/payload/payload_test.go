package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestParseInvalid(t *testing.T) {
	assert.False(t, Parse([]byte(`{"nodes": [`)).Exists())
	assert.False(t, Parse(nil).Exists())
	assert.True(t, Parse([]byte(`{}`)).IsObject())
}

func TestFieldCoalescing(t *testing.T) {
	obj := Parse([]byte(`{"id": null, "name": "", "label": "l", "flag": false}`))

	// null falls through, the empty string does not
	assert.Equal(t, "", Field(obj, "id", "name", "label").String())
	assert.Equal(t, gjson.String, Field(obj, "id", "name", "label").Type)
	assert.Equal(t, "l", Field(obj, "id", "label").String())
	assert.Equal(t, gjson.False, Field(obj, "flag", "label").Type)
	assert.False(t, Field(obj, "missing").Exists())
	assert.False(t, Field(Parse([]byte(`[1]`)), "id").Exists())
}

func TestFieldLiteralKeys(t *testing.T) {
	obj := Parse([]byte(`{"block id": 3, "a.b": 1, "x": 1, "x": 2}`))

	assert.Equal(t, int64(3), Field(obj, "block id").Int())
	assert.Equal(t, int64(1), Field(obj, "a.b").Int())
	assert.Equal(t, int64(2), Field(obj, "x").Int(), "last duplicate key wins")
}

func TestEachEntryKeepsDocumentOrder(t *testing.T) {
	obj := Parse([]byte(`{"zeta": 1, "alpha": 2, "mid": 3}`))

	var keys []string
	EachEntry(obj, func(key string, _ gjson.Result) {
		keys = append(keys, key)
	})
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, keys)

	EachEntry(Parse([]byte(`[1, 2]`)), func(string, gjson.Result) {
		t.Error("arrays have no entries")
	})
}

func TestScalar(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{`"main"`, "main", true},
		{`42`, "42", true},
		{`42.0`, "42", true},
		{`1e3`, "1000", true},
		{`-0.5`, "-0.5", true},
		{`true`, "true", true},
		{`null`, "", false},
		{`{}`, "", false},
		{`[1]`, "", false},
	}
	for _, tt := range tests {
		got, ok := Scalar(Parse([]byte(tt.raw)))
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
	_, ok := Scalar(gjson.Result{})
	assert.False(t, ok, "missing value")
}

func TestBlockID(t *testing.T) {
	tests := []struct {
		raw  string
		want int
		ok   bool
	}{
		{`7`, 7, true},
		{`0`, 0, true},
		{`"12"`, 12, true},
		{`"007"`, 7, true},
		{`1.5`, 0, false},
		{`"1.5"`, 0, false},
		{`"-1"`, 0, false},
		{`"0x10"`, 0, false},
		{`""`, 0, false},
		{`" 1"`, 0, false},
		{`null`, 0, false},
		{`true`, 0, false},
	}
	for _, tt := range tests {
		got, ok := BlockID(Parse([]byte(tt.raw)))
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestLines(t *testing.T) {
	lines := Lines(Parse([]byte(`["mov eax, 1", 2, null, {"op": "ret"}]`)))
	assert.Equal(t, []string{"mov eax, 1", "2", "null", `{"op": "ret"}`}, lines)

	assert.Nil(t, Lines(Parse([]byte(`"ret"`))))
	assert.Equal(t, []string{}, Lines(Parse([]byte(`[]`))))
}

func TestFromValue(t *testing.T) {
	v := FromValue(map[string]any{"nodes": []any{"a", 1}})
	assert.Equal(t, 2, Len(Field(v, "nodes")))

	assert.False(t, FromValue(func() {}).Exists(), "unencodable values are absent")
}
