// Package mongodb is the MongoDB source of the extractor. It owns the
// connection URI built from configuration, checks connectivity through the
// Go driver and turns export definitions into mongoexport arguments.
package mongodb

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ajitpratap0/mongoextract/pkg/config"
	"github.com/ajitpratap0/mongoextract/pkg/errors"
	"github.com/ajitpratap0/mongoextract/pkg/exportcmd"
	"github.com/ajitpratap0/mongoextract/pkg/incremental"
	"github.com/ajitpratap0/mongoextract/pkg/metrics"
	"github.com/ajitpratap0/mongoextract/pkg/mongouri"
	"github.com/ajitpratap0/mongoextract/pkg/observability"
)

// DefaultConnectTimeout bounds server selection in TestConnection
const DefaultConnectTimeout = 10 * time.Second

// Source is a configured MongoDB database
type Source struct {
	db      config.DbConfig
	uri     *mongouri.URI
	builder *exportcmd.Builder
	logger  *zap.Logger

	// ConnectTimeout bounds server selection in TestConnection
	ConnectTimeout time.Duration
}

// NewSource builds the connection URI for db. Connection problems are
// returned as user errors.
func NewSource(db config.DbConfig, program string, logger *zap.Logger) (*Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	uri, err := mongouri.Build(db)
	if err != nil {
		metrics.RecordURIFailure(string(db.Protocol))
		return nil, err
	}

	return &Source{
		db:             db,
		uri:            uri,
		builder:        exportcmd.NewBuilder(program),
		logger:         logger.With(zap.String("uri", uri.Redacted())),
		ConnectTimeout: DefaultConnectTimeout,
	}, nil
}

// URI returns the connection URI
func (s *Source) URI() *mongouri.URI {
	return s.uri
}

// TestConnection connects with the built URI and pings the configured
// database, which also checks authentication against it.
func (s *Source) TestConnection(ctx context.Context) error {
	err := observability.TraceFunc(ctx, observability.SpanTestConnection, s.testConnection)
	metrics.RecordConnectionCheck(err)
	return err
}

func (s *Source) testConnection(ctx context.Context) error {
	clientOpts := options.Client().
		ApplyURI(s.uri.String()).
		SetServerSelectionTimeout(s.ConnectTimeout).
		SetAppName("mongoextract")

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to connect to MongoDB")
	}
	defer func() {
		_ = client.Disconnect(context.Background()) // Best effort disconnect
	}()

	db := client.Database(s.uri.Database())
	if err := db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to ping MongoDB")
	}

	var info bson.M
	if err := db.RunCommand(ctx, bson.D{{Key: "buildInfo", Value: 1}}).Decode(&info); err != nil {
		s.logger.Warn("failed to get build info", zap.Error(err))
	} else if version, ok := info["version"].(string); ok {
		s.logger.Info("connected to MongoDB", zap.String("version", version))
	}
	return nil
}

// Params returns the mongoexport arguments of an export. Incremental exports
// select documents from the last fetched value on and sort by the fetching
// column unless a sort is configured.
func (s *Source) Params(e config.ExportConfig, outputDir string, state incremental.State) (exportcmd.Params, error) {
	p := exportcmd.Params{
		Collection: e.Collection,
		Query:      e.Query,
		Sort:       e.Sort,
		Limit:      e.Limit,
		Out:        e.OutputPath(outputDir),
	}

	if e.IsIncremental() {
		column := strings.TrimSpace(e.IncrementalFetchingColumn)
		query, err := incremental.BuildQuery(column, state)
		if err != nil {
			return exportcmd.Params{}, err
		}
		p.Query = query
		if strings.TrimSpace(p.Sort) == "" {
			p.Sort = incremental.DefaultSort(column)
		}
	}
	return p, nil
}

// Command renders the export command and its redacted form for logging
func (s *Source) Command(p exportcmd.Params) (command, redacted string) {
	return s.builder.Render(s.uri, p), s.builder.RenderRedacted(s.uri, p)
}
