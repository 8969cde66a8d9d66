package incremental

import (
	"os"
	"path/filepath"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected string
	}{
		{"no state", nil, ""},
		{"date", `ISODate("2020-05-18T16:00:00.000Z")`, `{"updatedAt":{"$gte":ISODate("2020-05-18T16:00:00.000Z")}}`},
		{"number", gojson.Number("42"), `{"updatedAt":{"$gte":42}}`},
		{"float", 1.5, `{"updatedAt":{"$gte":1.5}}`},
		{"string", "abc", `{"updatedAt":{"$gte":"abc"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, err := BuildQuery("updatedAt", State{LastFetchedValue: tt.value})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, query)
		})
	}
}

func TestBuildQuery_UnsupportedValue(t *testing.T) {
	_, err := BuildQuery("c", State{LastFetchedValue: []string{"x"}})
	assert.Error(t, err)
}

func TestDefaultSort(t *testing.T) {
	assert.Equal(t, `{"updatedAt":1}`, DefaultSort("updatedAt"))
}

func TestValueFromDocument(t *testing.T) {
	doc := `{"_id":{"$oid":"5ec2b5a4"},"updatedAt":{"$date":"2020-05-18T16:00:00.000Z"},"n":7,"nested":{"id":"x"}}`

	v, ok, err := ValueFromDocument(doc, "updatedAt")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `ISODate("2020-05-18T16:00:00.000Z")`, v)

	v, ok, err = ValueFromDocument(doc, "n")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, gojson.Number("7"), v)

	v, ok, err = ValueFromDocument(doc, "nested.id")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "x", v)

	_, ok, err = ValueFromDocument(doc, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = ValueFromDocument(doc, "_id")
	assert.Error(t, err)
}

func TestLastValueAndQueryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	content := `{"_id":"1","updatedAt":{"$date":"2020-05-17T10:00:00.000Z"}}
{"_id":"2","updatedAt":{"$date":"2020-05-18T16:00:00.000Z"}}

`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	v, ok, err := LastValue(path, "updatedAt")
	require.NoError(t, err)
	require.True(t, ok)

	query, err := BuildQuery("updatedAt", State{LastFetchedValue: v})
	require.NoError(t, err)
	assert.Equal(t, `{"updatedAt":{"$gte":ISODate("2020-05-18T16:00:00.000Z")}}`, query)
}

func TestLastValue_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	_, ok, err := LastValue(path, "updatedAt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLastValue_MissingFile(t *testing.T) {
	_, _, err := LastValue(filepath.Join(t.TempDir(), "nope.json"), "updatedAt")
	assert.Error(t, err)
}

func TestStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	store, err := LoadStore(path)
	require.NoError(t, err)
	assert.Empty(t, store)

	store["orders"] = State{LastFetchedValue: `ISODate("2020-05-18T16:00:00.000Z")`}
	store["events"] = State{LastFetchedValue: gojson.Number("1589817600")}
	require.NoError(t, store.Save(path))

	loaded, err := LoadStore(path)
	require.NoError(t, err)
	assert.Equal(t, store, loaded)

	query, err := BuildQuery("ts", loaded["events"])
	require.NoError(t, err)
	assert.Equal(t, `{"ts":{"$gte":1589817600}}`, query)
}
