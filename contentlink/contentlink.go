// Package contentlink implements ParseNodeContentLink: a node that
// extracts URLs via a formula, fetches each through the external network
// engine, and recurses into child parsers on the fetched body.
package contentlink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/HOZHENWAI/hydrus/content"
	"github.com/HOZHENWAI/hydrus/htmlformula"
	"github.com/HOZHENWAI/hydrus/network"
)

// DefaultRetryDelay is the pause observed between URLs after a recoverable
// fetch failure, per spec.md §4.5 ("sleep ~2s").
const DefaultRetryDelay = 2 * time.Second

// Child is a member of a ParseNodeContentLink's child list: either a
// *content.Parser or a *Node. Dispatch below type-switches on this tagged
// sum to call each child's Parse with the matching signature, per spec.md
// §9; GetParsableContent switches on it to collect descriptors.
type Child any

// Node is ParseNodeContentLink.
type Node struct {
	Name     string
	Formula  *htmlformula.Formula // produces the URLs to fetch
	Children []Child

	// RetryDelay overrides DefaultRetryDelay; zero means "use the default".
	// Exposed so tests don't have to wait on real sleeps.
	RetryDelay time.Duration

	// Logger receives per-URL progress and swallowed-error diagnostics; a
	// discarding logger is used when unset, per the teacher's
	// pages.Handler.Logger convention.
	Logger *slog.Logger
}

func (n *Node) retryDelay() time.Duration {
	if n.RetryDelay > 0 {
		return n.RetryDelay
	}
	return DefaultRetryDelay
}

func (n *Node) logger() *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// GetParsableContent is the union of every child's descriptors. It is a
// pure function of the tree: it never runs a parser.
func (n *Node) GetParsableContent() []content.Descriptor {
	var out []content.Descriptor
	for _, c := range n.Children {
		switch v := c.(type) {
		case *content.Parser:
			out = append(out, v.GetParsableContent()...)
		case *Node:
			out = append(out, v.GetParsableContent()...)
		}
	}
	return out
}

// Parse resolves the formula's URLs against referralURL, fetches each in
// order through engine, and recurses into Children on every successful
// fetch. Fetch errors are handled per spec.md §4.5/§7: NotFound and other
// recoverable network errors are swallowed per-URL (with a status update
// and a short pause before the next URL); cancellation during a fetch
// stops the loop cleanly; cancellation observed between URLs is
// propagated to the caller.
func (n *Node) Parse(ctx context.Context, job network.Job, engine network.Engine, data string, referralURL string) ([]content.Result, error) {
	basicURLs, err := n.Formula.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("content link %q: resolve urls: %w", n.Name, err)
	}

	absoluteURLs := make([]string, 0, len(basicURLs))
	for _, u := range basicURLs {
		abs, err := resolveURL(referralURL, u)
		if err != nil {
			continue
		}
		absoluteURLs = append(absoluteURLs, abs)
		job.AddURL(abs)
	}

	var results []content.Result

	logger := n.logger()

	for _, u := range absoluteURLs {
		job.SetVariable("status", fmt.Sprintf("%s: fetching %s", n.Name, u))
		logger.Debug("fetching url", "node", n.Name, "url", u)

		netJob := engine.NewJob(network.GET, u, referralURL, nil)
		err := netJob.WaitUntilDone(ctx)

		switch {
		case errors.Is(err, network.ErrCancelled):
			logger.Debug("cancelled", "node", n.Name, "url", u)
			return results, nil

		case errors.Is(err, network.ErrNotFound):
			job.SetVariable("status", fmt.Sprintf("%s: not found: %s", n.Name, u))
			logger.Warn("url not found, skipping", "node", n.Name, "url", u)
			sleep(ctx, n.retryDelay())
			continue

		case err != nil:
			var netErr *network.NetworkError
			if errors.As(err, &netErr) {
				job.SetVariable("status", fmt.Sprintf("%s: network error: %s", n.Name, u))
				logger.Warn("recoverable network error, skipping", "node", n.Name, "url", u, "error", netErr)
				sleep(ctx, n.retryDelay())
				continue
			}
			return results, fmt.Errorf("content link %q: fetch %s: %w", n.Name, u, err)

		default:
			body, err := netJob.GetContent()
			if err != nil {
				return results, fmt.Errorf("content link %q: read content for %s: %w", n.Name, u, err)
			}

			childResults, err := Dispatch(ctx, n.Children, job, engine, string(body), u)
			if err != nil {
				var vetoErr *content.VetoError
				if !errors.As(err, &vetoErr) {
					return results, err
				}
				// veto: siblings abandoned for this document, outer loop continues
			} else {
				results = append(results, childResults...)
			}
		}

		if job.IsCancelled() {
			return results, network.ErrCancelled
		}
	}

	return results, nil
}

// Dispatch calls Parse on every child with the signature matching its
// concrete type: a *Node receives job/engine/referralURL, a
// *content.Parser receives only the document. If any child raises a
// VetoError, Dispatch returns ([], that error) so the caller can tell veto
// apart from a hard failure, per spec.md §4.5's child dispatcher.
func Dispatch(ctx context.Context, children []Child, job network.Job, engine network.Engine, data string, referralURL string) ([]content.Result, error) {
	var results []content.Result
	for _, c := range children {
		switch v := c.(type) {
		case *content.Parser:
			r, err := v.Parse(data)
			if err != nil {
				// a VetoError here aborts the whole dispatch for this
				// document; any other error propagates the same way.
				return nil, err
			}
			results = append(results, r...)
		case *Node:
			r, err := v.Parse(ctx, job, engine, data, referralURL)
			if err != nil {
				return nil, err
			}
			results = append(results, r...)
		default:
			return nil, fmt.Errorf("unknown child type %T", c)
		}
	}
	return results, nil
}

func resolveURL(referral, basic string) (string, error) {
	b, err := url.Parse(basic)
	if err != nil {
		return "", err
	}
	if referral == "" || b.IsAbs() {
		return b.String(), nil
	}
	r, err := url.Parse(referral)
	if err != nil {
		return "", err
	}
	return r.ResolveReference(b).String(), nil
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
