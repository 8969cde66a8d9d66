// Package extjson rewrites MongoDB extended-JSON date literals so they can
// travel through a generic JSON encoder and back.
//
// MongoDB emits dates as {"$date": "..."} and expects ISODate("...") in
// shell queries. Neither form is plain JSON, so dates are carried as opaque
// JSON strings and unwrapped textually afterwards. The patterns below are a
// fixed grammar: text that does not match exactly is returned unchanged.
package extjson

import (
	"regexp"
	"strings"
)

var (
	// {"$date": "<json string>"}; the string may contain escaped characters
	dateWrapperPattern = regexp.MustCompile(`\{\s*"\$date"\s*:\s*("(?:[^"\\]|\\.)*")\s*\}`)

	// "$gte":"ISODate(\"<value>\")" as produced by a JSON encoder
	encodedISODatePattern = regexp.MustCompile(`"\$gte":"ISODate\(\\"([^"\\]*)\\"\)"`)

	jsonStringEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
)

// ToLexicalForm replaces every {"$date": "X"} wrapper in text. Without the
// prefix the wrapper collapses to the string literal "X". With the prefix it
// becomes the JSON string "ISODate(\"X\")".
func ToLexicalForm(text string, withISODatePrefix bool) string {
	return dateWrapperPattern.ReplaceAllStringFunc(text, func(match string) string {
		literal := dateWrapperPattern.FindStringSubmatch(match)[1]
		if !withISODatePrefix {
			return literal
		}
		return `"ISODate(` + jsonStringEscaper.Replace(literal) + `)"`
	})
}

// ToQueryLiteralForm unquotes ISODate tokens that a JSON encoder wrapped in a
// string: "$gte":"ISODate(\"X\")" becomes "$gte":ISODate("X").
func ToQueryLiteralForm(text string) string {
	return encodedISODatePattern.ReplaceAllString(text, `"$$gte":ISODate("${1}")`)
}
