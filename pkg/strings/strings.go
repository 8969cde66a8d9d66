// Package strings provides pooled string building, URI escaping and shell
// argument quoting used when assembling connection strings and commands
package strings

import (
	"fmt"
	"sync"
	"unsafe"
)

// BytesToString converts byte slice to string without allocation
// WARNING: The returned string shares memory with the byte slice.
// Do not modify the byte slice after calling this function.
func BytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// Builder provides efficient string building with zero-copy operations
type Builder struct {
	buf []byte
}

// NewBuilder creates a new string builder
func NewBuilder(capacity int) *Builder {
	return &Builder{
		buf: make([]byte, 0, capacity),
	}
}

// WriteString appends a string to the builder
func (b *Builder) WriteString(s string) {
	b.buf = append(b.buf, s...)
}

// WriteByte appends a byte to the builder
func (b *Builder) WriteByte(c byte) {
	b.buf = append(b.buf, c)
}

// Write implements io.Writer
func (b *Builder) Write(p []byte) (n int, err error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// String returns the built string. The result shares memory with the
// builder; use Clone before returning the builder to a pool.
func (b *Builder) String() string {
	return BytesToString(b.buf)
}

// Len returns the current length
func (b *Builder) Len() int {
	return len(b.buf)
}

// Reset clears the builder for reuse
func (b *Builder) Reset() {
	b.buf = b.buf[:0]
}

// Clone creates a copy of a string (useful when you need to own the memory)
func Clone(s string) string {
	if len(s) == 0 {
		return ""
	}
	b := make([]byte, len(s))
	copy(b, s)
	return BytesToString(b)
}

// ========== Pooled String Building ==========

var (
	// Small strings (< 1KB) - URIs, single commands
	smallBuilderPool = &sync.Pool{
		New: func() interface{} {
			return NewBuilder(1024)
		},
	}

	// Medium strings (1KB - 16KB) - commands carrying large query filters
	mediumBuilderPool = &sync.Pool{
		New: func() interface{} {
			return NewBuilder(16 * 1024)
		},
	}
)

// BuilderSize represents different builder sizes
type BuilderSize int

const (
	Small  BuilderSize = iota // < 1KB
	Medium                    // 1KB+
)

// SizeFor picks the pool that fits an estimated output length
func SizeFor(estimated int) BuilderSize {
	if estimated > 1024 {
		return Medium
	}
	return Small
}

// GetBuilder retrieves a pooled builder of the specified size
func GetBuilder(size BuilderSize) *Builder {
	pool := smallBuilderPool
	if size == Medium {
		pool = mediumBuilderPool
	}

	builder := pool.Get().(*Builder)
	builder.Reset()
	return builder
}

// PutBuilder returns a builder to the appropriate pool
func PutBuilder(builder *Builder, size BuilderSize) {
	if builder == nil {
		return
	}

	pool := smallBuilderPool
	if size == Medium {
		pool = mediumBuilderPool
	}

	builder.Reset()
	pool.Put(builder)
}

// Concat efficiently concatenates strings using pooled builder
func Concat(strs ...string) string {
	if len(strs) == 0 {
		return ""
	}
	if len(strs) == 1 {
		return strs[0]
	}

	totalLen := 0
	for _, s := range strs {
		totalLen += len(s)
	}

	size := SizeFor(totalLen)
	builder := GetBuilder(size)
	defer PutBuilder(builder, size)

	for _, s := range strs {
		builder.WriteString(s)
	}

	return Clone(builder.String())
}

// Sprintf provides a pooled alternative to fmt.Sprintf
func Sprintf(format string, args ...interface{}) string {
	if len(args) == 0 {
		return format
	}

	size := SizeFor(len(format) + len(args)*16)
	builder := GetBuilder(size)
	defer PutBuilder(builder, size)

	fmt.Fprintf(builder, format, args...)

	return Clone(builder.String())
}

// ========== URI Escaping ==========

const upperhex = "0123456789ABCDEF"

// RawURLEncode percent-encodes every byte outside the RFC 3986 unreserved
// set. Spaces become %20. This is the encoding connection-string
// credentials need: sub-delimiters such as '!', '&' or ':' must not survive.
func RawURLEncode(s string) string {
	return escape(s, isUnreserved)
}

// PathSegmentEscape escapes a single path segment. Unlike a full path, '/'
// is escaped.
func PathSegmentEscape(s string) string {
	return escape(s, isPathSegmentSafe)
}

// QueryEscape escapes a query key or value. Spaces become %20.
func QueryEscape(s string) string {
	return escape(s, isUnreserved)
}

func escape(s string, safe func(byte) bool) string {
	needEscape := false
	for i := 0; i < len(s); i++ {
		if !safe(s[i]) {
			needEscape = true
			break
		}
	}

	if !needEscape {
		return s
	}

	size := SizeFor(len(s) * 3)
	builder := GetBuilder(size)
	defer PutBuilder(builder, size)

	for i := 0; i < len(s); i++ {
		c := s[i]
		if safe(c) {
			builder.WriteByte(c)
		} else {
			builder.WriteByte('%')
			builder.WriteByte(upperhex[c>>4])
			builder.WriteByte(upperhex[c&15])
		}
	}

	return Clone(builder.String())
}

// isUnreserved reports RFC 3986 unreserved characters
func isUnreserved(c byte) bool {
	return (c >= 'A' && c <= 'Z') ||
		(c >= 'a' && c <= 'z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.' || c == '~'
}

// isPathSegmentSafe returns true if the byte is safe in a path segment
func isPathSegmentSafe(c byte) bool {
	return isUnreserved(c) ||
		c == ':' || c == '@' || c == '!' ||
		c == '$' || c == '&' || c == '\'' || c == '(' ||
		c == ')' || c == '*' || c == '+' || c == ',' ||
		c == ';' || c == '='
}

// ========== Shell Command Building ==========

// CommandBuilder assembles a single shell command line. Bare words are
// written as-is; arguments are single-quoted.
type CommandBuilder struct {
	builder *Builder
	size    BuilderSize
	empty   bool
}

// NewCommandBuilder creates a new command builder
func NewCommandBuilder(estimatedLength int) *CommandBuilder {
	size := SizeFor(estimatedLength)
	return &CommandBuilder{
		builder: GetBuilder(size),
		size:    size,
		empty:   true,
	}
}

func (cb *CommandBuilder) separate() {
	if !cb.empty {
		cb.builder.WriteByte(' ')
	}
	cb.empty = false
}

// WriteWord writes a token that is emitted verbatim, such as a program name
// or a flag
func (cb *CommandBuilder) WriteWord(word string) *CommandBuilder {
	cb.separate()
	cb.builder.WriteString(word)
	return cb
}

// WriteArg writes a single-quoted argument
func (cb *CommandBuilder) WriteArg(value string) *CommandBuilder {
	cb.separate()
	writeShellQuoted(cb.builder, value)
	return cb
}

// WriteFlag writes "--name 'value'"
func (cb *CommandBuilder) WriteFlag(name, value string) *CommandBuilder {
	return cb.WriteWord("--" + name).WriteArg(value)
}

// String returns the built command
func (cb *CommandBuilder) String() string {
	return Clone(cb.builder.String())
}

// Close releases the builder back to the pool
func (cb *CommandBuilder) Close() {
	if cb.builder != nil {
		PutBuilder(cb.builder, cb.size)
		cb.builder = nil
	}
}

// ShellQuote returns value as one single-quoted POSIX shell word. Embedded
// single quotes are closed, escaped and reopened: ' becomes '\''.
func ShellQuote(value string) string {
	builder := GetBuilder(Small)
	defer PutBuilder(builder, Small)

	writeShellQuoted(builder, value)
	return Clone(builder.String())
}

func writeShellQuoted(b *Builder, value string) {
	b.WriteByte('\'')
	for i := 0; i < len(value); i++ {
		if value[i] == '\'' {
			b.WriteString(`'\''`)
		} else {
			b.WriteByte(value[i])
		}
	}
	b.WriteByte('\'')
}
