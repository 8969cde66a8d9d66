package mongouri

import (
	stderrors "errors"
	"strings"

	"github.com/ajitpratap0/mongoextract/pkg/config"
	"github.com/ajitpratap0/mongoextract/pkg/errors"
)

// Operator-facing messages. Callers and tests match on the exact wording.
const (
	MsgMissingUser      = `Connection URI must contain user, e.g.: "mongodb://user@hostname/database".`
	MsgEmbeddedPassword = `Connection URI must not contain password. The password must be supplied separately in the "password" field.`
	MsgMissingDatabase  = `Connection URI must contain database, e.g.: "mongodb://user@hostname/database".`
	MsgMissingPort      = `Missing connection parameter "port".`
	MsgMissingHost      = `Missing connection parameter "host".`
	MsgMissingDbName    = `Missing connection parameter "database".`
	MsgInvalidPort      = `Invalid connection parameter "port": must be between 1 and 65535.`
	msgInvalidURIPrefix = "Invalid connection URI: "
)

// Build produces a URI from connection configuration. It is the only place
// where connection problems are turned into user errors; every error it
// returns has type ErrorTypeUser.
func Build(cfg config.DbConfig) (*URI, error) {
	var (
		u   *URI
		err error
	)

	switch cfg.Protocol {
	case config.ProtocolCustomURI:
		u, err = fromCustomURI(cfg)
	case config.ProtocolStandard, config.ProtocolSeedlist, "":
		u, err = fromFields(cfg)
	default:
		return nil, errors.NewUserError(`Unexpected connection protocol "`+string(cfg.Protocol)+`".`, nil)
	}

	if err != nil {
		return nil, toUserError(err)
	}
	return u, nil
}

func fromCustomURI(cfg config.DbConfig) (*URI, error) {
	u, err := FromString(cfg.URI)
	if err != nil {
		return nil, err
	}

	if !u.HasUser() || u.User() == "" {
		return nil, errors.NewUserError(MsgMissingUser, nil)
	}
	if u.HasPassword() {
		return nil, errors.NewUserError(MsgEmbeddedPassword, nil)
	}
	if !u.HasDatabase() {
		return nil, errors.NewUserError(MsgMissingDatabase, nil)
	}

	if cfg.Password != nil {
		if err := u.SetPassword(*cfg.Password); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func fromFields(cfg config.DbConfig) (*URI, error) {
	scheme := SchemeStandard
	if cfg.Protocol == config.ProtocolSeedlist {
		scheme = SchemeSeedlist
	}

	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.NewUserError(MsgMissingHost, nil)
	}
	if strings.TrimSpace(cfg.Database) == "" {
		return nil, errors.NewUserError(MsgMissingDbName, nil)
	}

	port := cfg.Port
	switch scheme {
	case SchemeStandard:
		if port == nil {
			return nil, errors.NewUserError(MsgMissingPort, nil)
		}
		if *port < 1 || *port > 65535 {
			return nil, errors.NewUserError(MsgInvalidPort, nil)
		}
	case SchemeSeedlist:
		port = nil
	}

	var query []QueryParam
	authDb := strings.TrimSpace(cfg.AuthenticationDatabase)
	if cfg.User != nil && cfg.Password != nil && authDb != "" {
		query = append(query, QueryParam{Key: "authSource", Value: authDb})
	}

	return FromParts(scheme, cfg.User, cfg.Password, cfg.Host, port, cfg.Database, query), nil
}

// toUserError converts parse failures into the single user-facing form and
// lets user errors through untouched
func toUserError(err error) error {
	if errors.IsType(err, errors.ErrorTypeUser) {
		return err
	}

	var e *errors.Error
	msg := err.Error()
	if stderrors.As(err, &e) {
		msg = e.Message
		if e.Cause != nil {
			msg += ": " + e.Cause.Error()
		}
	}
	return errors.NewUserError(msgInvalidURIPrefix+msg, err)
}
