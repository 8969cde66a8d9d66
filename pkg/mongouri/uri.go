// Package mongouri builds and parses MongoDB connection strings.
//
// A URI keeps credentials outside of its authority until it is serialized,
// so the same value can be rendered with credentials (for the export tool),
// redacted (for logs) or without them. Multi-host authorities such as
// "h1,h2:27018,h3:27019" are carried verbatim and never re-parsed.
package mongouri

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/ajitpratap0/mongoextract/pkg/errors"
	stringpool "github.com/ajitpratap0/mongoextract/pkg/strings"
)

// Scheme is a MongoDB connection scheme
type Scheme string

const (
	// SchemeStandard is mongodb://
	SchemeStandard Scheme = "mongodb"
	// SchemeSeedlist is mongodb+srv://, resolved through DNS; it has no port
	SchemeSeedlist Scheme = "mongodb+srv"
)

// multiHostPlaceholder stands in for a host list while net/url parses the
// rest of the string; net/url only understands a single host
const multiHostPlaceholder = "mongodb-multihost-placeholder"

const redactedPassword = "xxxxx"

// ParseScheme converts a scheme name to a Scheme
func ParseScheme(s string) (Scheme, bool) {
	switch Scheme(s) {
	case SchemeStandard, SchemeSeedlist:
		return Scheme(s), true
	default:
		return "", false
	}
}

// QueryParam is a single connection option
type QueryParam struct {
	Key   string
	Value string
}

// URI is a validated MongoDB connection target. It is immutable apart from
// SetPassword and SetQueryParams.
type URI struct {
	scheme    Scheme
	host      string // single host without port, or multiHostPlaceholder
	multiHost string // verbatim host list when host is the placeholder
	port      *int
	database  string
	user      *string
	password  *string
	query     []QueryParam
}

// FromParts assembles a URI from structured fields. host may itself be a
// comma-separated host list, which is kept verbatim. A port is dropped for
// the seedlist scheme.
func FromParts(scheme Scheme, user, password *string, host string, port *int, database string, query []QueryParam) *URI {
	u := &URI{
		scheme:   scheme,
		host:     host,
		database: database,
		user:     cloneString(user),
		password: cloneString(password),
		query:    cloneQuery(query),
	}
	if strings.Contains(host, ",") {
		u.host = multiHostPlaceholder
		u.multiHost = host
	}
	if port != nil && scheme != SchemeSeedlist {
		p := *port
		u.port = &p
	}
	return u
}

// FromString parses a connection string. Credentials found in the string
// are moved out of the authority and are reported by HasUser/HasPassword.
func FromString(raw string) (*URI, error) {
	substituted, multiHost := extractMultiHost(raw)

	parsed, err := url.Parse(substituted)
	if err != nil {
		return nil, errors.Wrap(unwrapURLError(err), errors.ErrorTypeParse,
			"connection string is not a valid URI")
	}

	scheme, ok := ParseScheme(parsed.Scheme)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeParse,
			"unsupported scheme %q, expected %q or %q", parsed.Scheme, SchemeStandard, SchemeSeedlist)
	}
	if parsed.Opaque != "" {
		return nil, errors.New(errors.ErrorTypeParse, "connection string must start with scheme://")
	}

	u := &URI{scheme: scheme}

	if parsed.User != nil {
		name := parsed.User.Username()
		u.user = &name
		if pw, set := parsed.User.Password(); set {
			u.password = &pw
		}
		parsed.User = nil
	}
	if strings.Contains(parsed.Host, "@") {
		return nil, errors.New(errors.ErrorTypeParse, "connection string authority contains embedded credentials")
	}

	if multiHost != "" {
		if parsed.Host != multiHostPlaceholder {
			return nil, errors.New(errors.ErrorTypeParse, "unable to parse host list of connection string")
		}
		u.host = multiHostPlaceholder
		u.multiHost = multiHost
	} else {
		if err := u.setHostPort(parsed); err != nil {
			return nil, err
		}
	}

	u.database = strings.TrimPrefix(parsed.Path, "/")

	query, err := parseQuery(parsed.RawQuery)
	if err != nil {
		return nil, err
	}
	u.query = query

	return u, nil
}

func (u *URI) setHostPort(parsed *url.URL) error {
	host := parsed.Host
	if portStr := parsed.Port(); portStr != "" {
		if u.scheme == SchemeSeedlist {
			return errors.Newf(errors.ErrorTypeParse, "%s connection string cannot contain a port", SchemeSeedlist)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeParse, "invalid port in connection string")
		}
		u.port = &port
		host = strings.TrimSuffix(host, ":"+portStr)
	}
	host = strings.TrimSuffix(host, ":")
	if host == "" {
		return errors.New(errors.ErrorTypeParse, "connection string must contain a host")
	}
	u.host = host
	return nil
}

// extractMultiHost replaces a comma-separated host segment with the
// placeholder. It returns raw unchanged when there is a single host.
func extractMultiHost(raw string) (substituted, hosts string) {
	schemeEnd := strings.Index(raw, "://")
	if schemeEnd < 0 {
		return raw, ""
	}
	authStart := schemeEnd + len("://")
	rest := raw[authStart:]

	authEnd := strings.IndexAny(rest, "/?#")
	if authEnd < 0 {
		authEnd = len(rest)
	}
	authority := rest[:authEnd]

	hostStart := strings.LastIndex(authority, "@") + 1
	hostSegment := authority[hostStart:]
	if !strings.Contains(hostSegment, ",") {
		return raw, ""
	}

	substituted = stringpool.Concat(raw[:authStart], authority[:hostStart], multiHostPlaceholder, rest[authEnd:])
	return substituted, hostSegment
}

// parseQuery decodes a raw query string preserving parameter order
func parseQuery(rawQuery string) ([]QueryParam, error) {
	if rawQuery == "" {
		return nil, nil
	}

	var params []QueryParam
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		k, err := url.QueryUnescape(key)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeParse, "invalid query parameter in connection string")
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeParse, "invalid query parameter in connection string")
		}
		params = append(params, QueryParam{Key: k, Value: v})
	}
	return params, nil
}

// unwrapURLError drops the *url.Error envelope, whose message repeats the
// whole input including any password
func unwrapURLError(err error) error {
	if ue, ok := err.(*url.Error); ok {
		return ue.Err
	}
	return err
}

// String returns the full connection string including credentials. Use it
// only where the string is handed to the driver or the export tool.
func (u *URI) String() string {
	return u.render(true, false)
}

// Redacted returns the connection string with the password masked
func (u *URI) Redacted() string {
	return u.render(true, true)
}

// StringWithoutCredentials returns the connection string without userinfo
func (u *URI) StringWithoutCredentials() string {
	return u.render(false, false)
}

func (u *URI) render(withUser, redact bool) string {
	b := stringpool.GetBuilder(stringpool.Small)
	defer stringpool.PutBuilder(b, stringpool.Small)

	b.WriteString(string(u.scheme))
	b.WriteString("://")

	if withUser && u.user != nil {
		b.WriteString(stringpool.RawURLEncode(*u.user))
		if u.password != nil {
			b.WriteByte(':')
			if redact {
				b.WriteString(redactedPassword)
			} else {
				b.WriteString(stringpool.RawURLEncode(*u.password))
			}
		}
		b.WriteByte('@')
	}

	b.WriteString(u.HostPart())

	b.WriteByte('/')
	b.WriteString(stringpool.PathSegmentEscape(u.database))

	for i, p := range u.query {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(stringpool.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(stringpool.QueryEscape(p.Value))
	}

	return stringpool.Clone(b.String())
}

// Scheme returns the connection scheme
func (u *URI) Scheme() Scheme {
	return u.scheme
}

// HostPart returns the authority without userinfo: host[:port] or the
// verbatim host list
func (u *URI) HostPart() string {
	host := u.host
	if u.multiHost != "" {
		host = u.multiHost
	}
	if u.port != nil {
		return stringpool.Concat(host, ":", strconv.Itoa(*u.port))
	}
	return host
}

// IsMultiHost reports whether the authority is a host list
func (u *URI) IsMultiHost() bool {
	return u.multiHost != ""
}

// Port returns the explicit port, if any
func (u *URI) Port() (int, bool) {
	if u.port == nil {
		return 0, false
	}
	return *u.port, true
}

// HasDatabase reports whether a database is set
func (u *URI) HasDatabase() bool {
	return u.database != ""
}

// Database returns the decoded database name
func (u *URI) Database() string {
	return u.database
}

// HasUser reports whether a user is set
func (u *URI) HasUser() bool {
	return u.user != nil
}

// User returns the decoded user name
func (u *URI) User() string {
	if u.user == nil {
		return ""
	}
	return *u.user
}

// HasPassword reports whether a password is set
func (u *URI) HasPassword() bool {
	return u.password != nil
}

// Password returns the decoded password
func (u *URI) Password() string {
	if u.password == nil {
		return ""
	}
	return *u.password
}

// SetPassword sets the password supplied out of band. A password can be set
// only once.
func (u *URI) SetPassword(password string) error {
	if u.password != nil {
		return errors.New(errors.ErrorTypeIllegalState, "password is already set")
	}
	u.password = &password
	return nil
}

// QueryParams returns a copy of the connection options
func (u *URI) QueryParams() []QueryParam {
	return cloneQuery(u.query)
}

// SetQueryParams replaces the connection options
func (u *URI) SetQueryParams(params []QueryParam) {
	u.query = cloneQuery(params)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneQuery(q []QueryParam) []QueryParam {
	if len(q) == 0 {
		return nil
	}
	out := make([]QueryParam, len(q))
	copy(out, q)
	return out
}
