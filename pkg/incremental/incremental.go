// Package incremental builds the query and sort arguments of incremental
// exports and tracks the last exported value of the fetching column.
//
// Dates exported by mongoexport look like {"$date": "..."}. They are read
// back as ISODate("...") strings, carried through JSON as opaque strings
// and unwrapped into a shell literal when the next query is built.
package incremental

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/ajitpratap0/mongoextract/pkg/errors"
	"github.com/ajitpratap0/mongoextract/pkg/extjson"
	"github.com/ajitpratap0/mongoextract/pkg/json"
)

// State is the persisted position of one incremental export
type State struct {
	// LastFetchedValue is a string (possibly ISODate("...")) or a number
	LastFetchedValue interface{} `json:"lastFetchedValue"`
}

// BuildQuery returns the --query value selecting documents whose column is
// at or after the last fetched value. It returns "" when there is no
// previous value, which exports the whole collection.
func BuildQuery(column string, state State) (string, error) {
	if state.LastFetchedValue == nil {
		return "", nil
	}

	switch state.LastFetchedValue.(type) {
	case string, json.Number, float64, int, int64:
	default:
		return "", errors.Newf(errors.ErrorTypeData,
			"unsupported type %T of last fetched value for column %q", state.LastFetchedValue, column)
	}

	encoded, err := json.Marshal(map[string]interface{}{
		column: map[string]interface{}{"$gte": state.LastFetchedValue},
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeData, "failed to encode incremental query")
	}

	return extjson.ToQueryLiteralForm(string(encoded)), nil
}

// DefaultSort returns the --sort value ordering by the fetching column
func DefaultSort(column string) string {
	encoded, _ := json.Marshal(map[string]int{column: 1})
	return string(encoded)
}

// LastValue reads the last document of an export file and returns the value
// of column. Dotted columns address nested fields. ok is false when the
// file is empty or the last document lacks the column.
func LastValue(path, column string) (value interface{}, ok bool, err error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from export configuration
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrorTypeFile, "failed to open export file").
			WithDetail("path", path)
	}
	defer f.Close()

	line, err := lastLine(f)
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrorTypeFile, "failed to read export file").
			WithDetail("path", path)
	}
	if line == "" {
		return nil, false, nil
	}

	return ValueFromDocument(line, column)
}

// ValueFromDocument extracts column from a single exported JSON document
func ValueFromDocument(document, column string) (interface{}, bool, error) {
	dec := json.NewDecoder(strings.NewReader(extjson.ToLexicalForm(document, true)))

	var doc map[string]interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, false, errors.Wrap(err, errors.ErrorTypeData, "failed to decode exported document")
	}

	var current interface{} = doc
	for _, part := range strings.Split(column, ".") {
		m, isMap := current.(map[string]interface{})
		if !isMap {
			return nil, false, nil
		}
		v, found := m[part]
		if !found {
			return nil, false, nil
		}
		current = v
	}

	switch current.(type) {
	case string, json.Number:
		return current, true, nil
	case nil:
		return nil, false, nil
	default:
		return nil, false, errors.Newf(errors.ErrorTypeData,
			"column %q must hold a date, number or string to be used for incremental fetching", column)
	}
}

func lastLine(r io.Reader) (string, error) {
	br := bufio.NewReader(r)
	var last []byte
	for {
		line, err := br.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			last = append(last[:0], trimmed...)
		}
		if err == io.EOF {
			return string(last), nil
		}
		if err != nil {
			return "", err
		}
	}
}

// Store maps export names to their state
type Store map[string]State

// LoadStore reads a state file. A missing file yields an empty store.
func LoadStore(path string) (Store, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is configured by the operator
	if os.IsNotExist(err) {
		return Store{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read state file").
			WithDetail("path", path)
	}

	store := Store{}
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode state file").
			WithDetail("path", path)
	}
	return store, nil
}

// Save writes the store to path
func (s Store) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to encode state")
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write state file").
			WithDetail("path", path)
	}
	return nil
}
