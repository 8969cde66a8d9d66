// Package exportcmd assembles the mongoexport command line for one export.
//
// The command is produced as a single string that is ready to be run by a
// shell. Every value is single-quoted, so query filters and paths coming
// from configuration cannot break out of their argument. Token order is
// fixed:
//
//	mongoexport --uri '…' --collection '…' [--query '…'] [--sort '…'] [--limit '…'] --type 'json' --out '…'
package exportcmd

import (
	"strings"

	"github.com/ajitpratap0/mongoextract/pkg/config"
	"github.com/ajitpratap0/mongoextract/pkg/mongouri"
	stringpool "github.com/ajitpratap0/mongoextract/pkg/strings"
)

// DefaultProgram is the export tool invoked when none is configured
const DefaultProgram = "mongoexport"

const outputType = "json"

// Params are the per-export arguments
type Params struct {
	Collection string
	Query      string
	Sort       string
	Limit      string
	Out        string
}

// Builder renders export commands
type Builder struct {
	// Program is the executable name or path
	Program string
}

// NewBuilder creates a builder for program; an empty program selects
// DefaultProgram
func NewBuilder(program string) *Builder {
	if program == "" {
		program = DefaultProgram
	}
	return &Builder{Program: program}
}

// Build renders the export command with the default program
func Build(db config.DbConfig, p Params) (string, error) {
	return NewBuilder("").Build(db, p)
}

// Build renders the export command. Connection errors are returned as
// produced by mongouri.Build.
func (b *Builder) Build(db config.DbConfig, p Params) (string, error) {
	uri, err := mongouri.Build(db)
	if err != nil {
		return "", err
	}
	return b.render(uri.String(), p), nil
}

// BuildRedacted renders the same command with the password masked, for logs
func (b *Builder) BuildRedacted(db config.DbConfig, p Params) (string, error) {
	uri, err := mongouri.Build(db)
	if err != nil {
		return "", err
	}
	return b.render(uri.Redacted(), p), nil
}

// Render renders the command for an already built URI
func (b *Builder) Render(uri *mongouri.URI, p Params) string {
	return b.render(uri.String(), p)
}

// RenderRedacted renders the command for uri with the password masked
func (b *Builder) RenderRedacted(uri *mongouri.URI, p Params) string {
	return b.render(uri.Redacted(), p)
}

func (b *Builder) render(uri string, p Params) string {
	cb := stringpool.NewCommandBuilder(len(uri) + len(p.Query) + len(p.Sort) + len(p.Out) + 128)
	defer cb.Close()

	cb.WriteWord(b.Program).
		WriteFlag("uri", uri).
		WriteFlag("collection", p.Collection)

	for _, opt := range []struct{ name, value string }{
		{"query", p.Query},
		{"sort", p.Sort},
		{"limit", p.Limit},
	} {
		if strings.TrimSpace(opt.value) == "" {
			continue
		}
		cb.WriteFlag(opt.name, opt.value)
	}

	cb.WriteFlag("type", outputType).
		WriteFlag("out", p.Out)

	return cb.String()
}
