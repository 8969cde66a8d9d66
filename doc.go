// Package mongoextract exports MongoDB collections to JSON files by driving
// the mongoexport tool.
//
// # Architecture
//
// The extractor is split into small packages:
//
//   - pkg/mongouri builds the connection URI from configuration, either from
//     discrete fields or from an operator-supplied URI with the password
//     supplied separately, and renders it with, without or with masked
//     credentials.
//   - pkg/exportcmd assembles the mongoexport command line with every value
//     single-quoted for the shell.
//   - pkg/extjson rewrites extended-JSON dates between the form mongoexport
//     writes and the form accepted in a --query filter.
//   - pkg/incremental tracks the last exported value of incremental exports.
//   - internal/export runs the commands and records metrics and spans.
//
// # Quick Start
//
//	name: nightly
//	db:
//	  protocol: mongodb
//	  host: localhost
//	  port: 27017
//	  database: shop
//	  user: reader
//	  password: ${MONGO_PASSWORD}
//	exports:
//	  - name: orders
//	    collection: orders
//	    incremental_fetching_column: updatedAt
//
// Then:
//
//	mongoextract test-connection --config config.yaml
//	mongoextract command orders --config config.yaml
//	mongoextract run --config config.yaml
//
// # Errors
//
// Connection problems the operator has to fix are returned as errors of type
// errors.ErrorTypeUser; the CLI prints their message verbatim. Messages never
// contain the connection password.
package mongoextract
