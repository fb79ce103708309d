// Package filelookup implements ParseRootFileLookup: a root node that
// converts a local media handle into a file identifier, submits it to a
// configured URL via the network engine, and recurses into children on
// the fetched document.
package filelookup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"

	"github.com/HOZHENWAI/hydrus/content"
	"github.com/HOZHENWAI/hydrus/contentlink"
	"github.com/HOZHENWAI/hydrus/filestore"
	"github.com/HOZHENWAI/hydrus/hashstore"
	"github.com/HOZHENWAI/hydrus/network"
	"github.com/HOZHENWAI/hydrus/stringconv"
)

// IdentifierKind is FileIdentifier's tag.
type IdentifierKind int

const (
	File IdentifierKind = iota
	MD5
	SHA1
	SHA256
	SHA512
	UserInput
)

func (k IdentifierKind) String() string {
	switch k {
	case File:
		return "file"
	case MD5:
		return "md5"
	case SHA1:
		return "sha1"
	case SHA256:
		return "sha256"
	case SHA512:
		return "sha512"
	case UserInput:
		return "user_input"
	default:
		return fmt.Sprintf("identifierkind(%d)", int(k))
	}
}

// Identifier is FileIdentifier: a tagged variant over a local file path, a
// hash of one of four kinds, or a free-form user-supplied string.
type Identifier struct {
	Kind      IdentifierKind
	Path      string // used when Kind == File
	Bytes     []byte // used when Kind is a hash
	UserInput string // used when Kind == UserInput
}

// value renders the identifier as the string fed to StringConverter.Convert
// before transmission, for every kind except File, which is streamed as a
// multipart attachment instead. Hash kinds yield their raw bytes; any text
// encoding (hex, base64) is the converter's job.
func (id Identifier) value() string {
	switch id.Kind {
	case UserInput:
		return id.UserInput
	default:
		return string(id.Bytes)
	}
}

// Media is the external media handle ConvertMediaToFileIdentifier accepts.
type Media interface {
	PrimaryHash() []byte // the media's SHA256 hash
	MIME() string
}

// ErrUserInputNotPermitted is returned by ConvertMediaToFileIdentifier when
// asked to derive a USER_INPUT identifier: callers must supply that value
// directly, per spec.md §4.7.
var ErrUserInputNotPermitted = errors.New("user_input identifiers cannot be derived from media")

// ErrFileAttachmentWithGET is returned by FetchData: a FILE identifier
// cannot be sent as a GET per spec.md §4.7.
var ErrFileAttachmentWithGET = errors.New("file identifiers cannot be sent via GET")

// Root is ParseRootFileLookup.
type Root struct {
	Name                  string
	URL                   string
	QueryType             network.Method // GET or POST
	FileIdentifierType    IdentifierKind
	Converter             *stringconv.Converter
	FileIdentifierArgName string
	StaticArgs            map[string]string
	Children              []contentlink.Child

	FileStore filestore.Store
	HashStore hashstore.Store
	FS        fs.FS // optional: reads FILE identifiers' bytes for multipart upload

	// Logger receives query progress and swallowed-error diagnostics; a
	// discarding logger is used when unset, per the teacher's
	// pages.Handler.Logger convention.
	Logger *slog.Logger
}

func (r *Root) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func New(name, urlTemplate string, queryType network.Method, idType IdentifierKind, conv *stringconv.Converter, argName string) *Root {
	if conv == nil {
		conv = stringconv.New()
	}
	return &Root{
		Name:                  name,
		URL:                   urlTemplate,
		QueryType:             queryType,
		FileIdentifierType:    idType,
		Converter:             conv,
		FileIdentifierArgName: argName,
		StaticArgs:            map[string]string{},
	}
}

// ConvertMediaToFileIdentifier builds the identifier to submit for media,
// per spec.md §4.7.
func (r *Root) ConvertMediaToFileIdentifier(media Media) (Identifier, error) {
	switch r.FileIdentifierType {
	case SHA256:
		return Identifier{Kind: SHA256, Bytes: media.PrimaryHash()}, nil

	case MD5, SHA1, SHA512:
		if r.HashStore == nil {
			return Identifier{}, fmt.Errorf("convert media to %s identifier: %w", r.FileIdentifierType, errors.New("no hash store configured"))
		}
		target := hashKind(r.FileIdentifierType)
		hashes, err := r.HashStore.FileHashes([][]byte{media.PrimaryHash()}, hashstore.SHA256, target)
		if err != nil {
			return Identifier{}, fmt.Errorf("convert media to %s identifier: %w", r.FileIdentifierType, err)
		}
		return Identifier{Kind: r.FileIdentifierType, Bytes: hashes[0]}, nil

	case File:
		if r.FileStore == nil {
			return Identifier{}, fmt.Errorf("convert media to file identifier: %w", filestore.ErrFileMissing)
		}
		path, err := r.FileStore.GetFilePath(media.PrimaryHash(), media.MIME())
		if err != nil {
			return Identifier{}, fmt.Errorf("convert media to file identifier: %w", err)
		}
		return Identifier{Kind: File, Path: path}, nil

	case UserInput:
		return Identifier{}, ErrUserInputNotPermitted

	default:
		return Identifier{}, fmt.Errorf("unknown file identifier type %s", r.FileIdentifierType)
	}
}

func hashKind(k IdentifierKind) hashstore.Kind {
	switch k {
	case MD5:
		return hashstore.MD5
	case SHA1:
		return hashstore.SHA1
	case SHA512:
		return hashstore.SHA512
	default:
		return hashstore.SHA256
	}
}

// FetchData builds the request for identifier and awaits the network
// engine, per spec.md §4.7.
func (r *Root) FetchData(ctx context.Context, engine network.Engine, identifier Identifier) ([]byte, error) {
	args := make(map[string]string, len(r.StaticArgs)+1)
	for k, v := range r.StaticArgs {
		args[k] = v
	}
	if identifier.Kind != File {
		converted, err := r.Converter.Convert(identifier.value(), nil)
		if err != nil {
			return nil, fmt.Errorf("file lookup %q: convert identifier: %w", r.Name, err)
		}
		args[r.FileIdentifierArgName] = converted
	}

	var job network.NetworkJob

	switch r.QueryType {
	case network.GET:
		if identifier.Kind == File {
			return nil, fmt.Errorf("file lookup %q: %w", r.Name, ErrFileAttachmentWithGET)
		}
		u, err := url.Parse(r.URL)
		if err != nil {
			return nil, fmt.Errorf("file lookup %q: parse url: %w", r.Name, err)
		}
		q := u.Query()
		for k, v := range args {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
		job = engine.NewJob(network.GET, u.String(), "", nil)

	case network.POST:
		form := url.Values{}
		for k, v := range args {
			form.Set(k, v)
		}
		job = engine.NewJob(network.POST, r.URL, "", bytes.NewBufferString(form.Encode()))
		if identifier.Kind == File {
			f, err := r.openFile(identifier.Path)
			if err != nil {
				return nil, fmt.Errorf("file lookup %q: open file: %w", r.Name, err)
			}
			job.SetFiles(map[string]io.Reader{r.FileIdentifierArgName: f})
		}

	default:
		return nil, fmt.Errorf("file lookup %q: unknown query type %s", r.Name, r.QueryType)
	}

	if err := job.WaitUntilDone(ctx); err != nil {
		return nil, err
	}
	return job.GetContent()
}

func (r *Root) openFile(path string) (io.Reader, error) {
	if r.FS == nil {
		return nil, fmt.Errorf("no file system configured for file attachments")
	}
	data, err := fs.ReadFile(r.FS, path)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// DoQuery fetches identifier's document and recurses through Children,
// translating any fetch failure, a veto, or a cancellation from Children
// to an empty result per spec.md §4.7; any other error from Children
// propagates. The job is always finalised.
func (r *Root) DoQuery(ctx context.Context, job network.Job, engine network.Engine, identifier Identifier) ([]content.Result, error) {
	defer job.Finish()

	job.SetVariable("status", fmt.Sprintf("%s: querying", r.Name))

	data, err := r.FetchData(ctx, engine, identifier)
	switch {
	case errors.Is(err, network.ErrCancelled):
		job.SetVariable("status", "Cancelled")
		r.logger().Debug("cancelled", "lookup", r.Name)
		return nil, nil
	case err != nil:
		job.SetVariable("status", fmt.Sprintf("%s: %s", r.Name, err))
		r.logger().Warn("query failed, skipping", "lookup", r.Name, "error", err)
		return nil, nil
	}

	results, err := contentlink.Dispatch(ctx, r.Children, job, engine, string(data), r.URL)
	if err != nil {
		var vetoErr *content.VetoError
		if errors.As(err, &vetoErr) || errors.Is(err, network.ErrCancelled) {
			r.logger().Debug("child dispatch vetoed", "lookup", r.Name, "error", err)
			return nil, nil
		}
		r.logger().Warn("child dispatch failed", "lookup", r.Name, "error", err)
		return nil, fmt.Errorf("file lookup %q: %w", r.Name, err)
	}
	return results, nil
}

// GetParsableContent is the pure union of every descriptor this root's
// children can ever emit.
func (r *Root) GetParsableContent() []content.Descriptor {
	var out []content.Descriptor
	for _, c := range r.Children {
		switch v := c.(type) {
		case *content.Parser:
			out = append(out, v.GetParsableContent()...)
		case *contentlink.Node:
			out = append(out, v.GetParsableContent()...)
		}
	}
	return out
}
