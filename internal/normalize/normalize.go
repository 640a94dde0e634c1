// Package normalize turns resolved GraphQL values into clean text.
// String values are stripped of markup; string values that are links to HTML
// pages are fetched and replaced by the page text.
package normalize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/jonathan/graphql-reader/internal/fetch"
)

// ErrSequenceValue is returned when a list reaches the normalizer. Lists must
// be flattened or reduced to one element by the caller first.
var ErrSequenceValue = errors.New("cannot normalize a list value")

// Getter fetches the content behind a URL.
type Getter interface {
	Get(ctx context.Context, url string) (*fetch.Result, error)
}

// Options configures a Normalizer.
type Options struct {
	// MainContentOnly reduces dereferenced pages to their main content container.
	MainContentOnly bool
	// Verbose logs dereference decisions.
	Verbose bool
}

// Normalizer cleans values, dereferencing URLs through its Getter.
type Normalizer struct {
	getter  Getter
	options Options
}

// New creates a Normalizer. A nil getter disables dereferencing entirely.
func New(getter Getter, opts Options) *Normalizer {
	return &Normalizer{getter: getter, options: opts}
}

// page is the outcome of trying to dereference a string value.
type page struct {
	fetched bool   // the GET succeeded
	isHTML  bool   // the body has an <html> root
	body    string // response body when fetched
}

// Clean converts v to text.
//
//   - nil becomes ""
//   - maps become their JSON text, with no HTML handling
//   - lists are rejected with ErrSequenceValue
//   - a string URL whose content is an HTML document becomes the page text;
//     if the URL cannot be fetched the string is returned unchanged
//   - any other string has its markup stripped and whitespace collapsed
//   - other scalars are formatted as text
func (n *Normalizer) Clean(ctx context.Context, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return n.cleanNonString(v)
	}

	if !fetch.IsAbsoluteURL(s) {
		return stripMarkup(s), nil
	}

	p := n.dereference(ctx, s)
	switch {
	case !p.fetched:
		return s, nil
	case p.isHTML:
		return n.pageText(s, p.body), nil
	default:
		return stripMarkup(s), nil
	}
}

// CleanMetadata cleans a metadata value. A string URL that points at an HTML
// document is kept as the URL itself so identifiers and canonical links stay
// intact; every other value is cleaned like Clean.
func (n *Normalizer) CleanMetadata(ctx context.Context, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return n.cleanNonString(v)
	}

	if !fetch.IsAbsoluteURL(s) {
		return stripMarkup(s), nil
	}

	p := n.dereference(ctx, s)
	if !p.fetched || p.isHTML {
		return s, nil
	}
	return stripMarkup(s), nil
}

func (n *Normalizer) cleanNonString(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case []any:
		return "", ErrSequenceValue
	case map[string]any:
		out, err := json.Marshal(val)
		if err != nil {
			return "", fmt.Errorf("failed to encode object value: %w", err)
		}
		return string(out), nil
	case json.Number:
		return val.String(), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return fmt.Sprint(val), nil
	}
}

// dereference fetches url once. Failures are absorbed and reported as not fetched.
func (n *Normalizer) dereference(ctx context.Context, url string) page {
	if n.getter == nil {
		return page{}
	}

	result, err := n.getter.Get(ctx, url)
	if err != nil {
		if n.options.Verbose {
			log.Printf("[VERBOSE] Dereference of %s failed, keeping value: %v", url, err)
		}
		return page{}
	}

	body := result.Text()
	isHTML := fetch.HasHTMLRoot(body)
	if n.options.Verbose {
		log.Printf("[VERBOSE] Dereferenced %s: %d bytes, html=%t", url, len(body), isHTML)
	}
	return page{fetched: true, isHTML: isHTML, body: body}
}

func (n *Normalizer) pageText(url, body string) string {
	var (
		text string
		err  error
	)
	if n.options.MainContentOnly {
		text, err = fetch.ExtractMainText(body, fetch.DefaultTextSelectors())
	} else {
		text, err = fetch.ExtractText(body)
	}
	if err != nil {
		if n.options.Verbose {
			log.Printf("[VERBOSE] Could not extract text from %s, keeping value: %v", url, err)
		}
		return url
	}
	return text
}

// stripMarkup treats s as a possible HTML fragment. goquery's parser accepts
// any input, so a parse failure means a reader error and s is kept as is.
func stripMarkup(s string) string {
	text, err := fetch.ExtractText(s)
	if err != nil {
		return fetch.CollapseWhitespace(s)
	}
	return text
}
