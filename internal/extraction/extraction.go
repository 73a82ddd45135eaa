// Package extraction talks to the external chart-extraction service. Uploaded
// file references are split into astrology and human design inputs, both
// halves are extracted concurrently, and the results are merged over an
// all-UNKNOWN skeleton.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-alignment-backend/internal/placements"
)

const (
	// DefaultMaxFiles bounds how many references one request considers.
	DefaultMaxFiles = 6
	// MaxFilesPerKind bounds the inputs sent for each chart kind.
	MaxFilesPerKind = 3

	// transportSlack keeps the transport limit behind the caller's deadline.
	transportSlack = 5 * time.Second
)

var (
	// ErrNoFiles is returned when no file references were supplied.
	ErrNoFiles = errors.New("no files provided for extraction")
	// ErrUnavailable is returned by Disabled.
	ErrUnavailable = errors.New("extraction service not configured")
	// ErrTimeout is returned when the transport gives up before the caller's
	// context does.
	ErrTimeout = errors.New("extraction service timed out")
)

// Extractor turns uploaded file references into a placements document.
type Extractor interface {
	Extract(ctx context.Context, files []string) (*placements.Placements, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, files []string) (*placements.Placements, error)

// Extract calls f.
func (f ExtractorFunc) Extract(ctx context.Context, files []string) (*placements.Placements, error) {
	return f(ctx, files)
}

// Disabled always fails with ErrUnavailable.
var Disabled Extractor = ExtractorFunc(func(context.Context, []string) (*placements.Placements, error) {
	return nil, ErrUnavailable
})

// Kind is the chart family a file belongs to.
type Kind string

const (
	KindAstrology   Kind = "astrology"
	KindHumanDesign Kind = "human_design"
)

// Classify guesses a file's chart family from its name.
func Classify(path string) Kind {
	lower := strings.ToLower(path)
	for _, marker := range []string{"humandesign", "human-design", "human_design", "bodygraph"} {
		if strings.Contains(lower, marker) {
			return KindHumanDesign
		}
	}
	return KindAstrology
}

// Split groups file references by kind, dropping blanks, considering at most
// maxFiles references and keeping at most MaxFilesPerKind of each kind.
func Split(files []string, maxFiles int) map[Kind][]string {
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	out := map[Kind][]string{}
	seen := 0
	for _, f := range files {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if seen == maxFiles {
			break
		}
		seen++
		k := Classify(f)
		if len(out[k]) < MaxFilesPerKind {
			out[k] = append(out[k], f)
		}
	}
	return out
}

// Client is an HTTP Extractor.
type Client struct {
	BaseURL  string
	HTTP     *http.Client
	MaxFiles int
}

// NewClient returns a Client for baseURL. The per-call deadline is owned by
// the caller's context; the transport limit sits a little past timeout so a
// hung connection is still released.
func NewClient(baseURL string, timeout time.Duration, maxFiles int) *Client {
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		HTTP:     &http.Client{Timeout: timeout + transportSlack},
		MaxFiles: maxFiles,
	}
}

type extractRequest struct {
	Kind  Kind     `json:"kind"`
	Files []string `json:"files"`
}

type extractResponse struct {
	Astrology   map[string]string `json:"astrology"`
	HumanDesign map[string]string `json:"human_design"`
	Notes       string            `json:"notes"`
}

// Extract implements Extractor.
func (c *Client) Extract(ctx context.Context, files []string) (*placements.Placements, error) {
	groups := Split(files, c.MaxFiles)
	if len(groups) == 0 {
		return nil, ErrNoFiles
	}

	kinds := []Kind{KindAstrology, KindHumanDesign}
	got := make([]*extractResponse, len(kinds))

	g, gCtx := errgroup.WithContext(ctx)
	for i, k := range kinds {
		refs := groups[k]
		if len(refs) == 0 {
			continue
		}
		i, k := i, k
		g.Go(func() error {
			res, err := c.call(gCtx, extractRequest{Kind: k, Files: refs})
			if err != nil {
				return fmt.Errorf("extract %s: %w", k, err)
			}
			got[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := placements.Skeleton()
	if r := got[0]; r != nil {
		merged.Merge(&placements.Placements{Astrology: r.Astrology, Notes: r.Notes})
	}
	if r := got[1]; r != nil {
		merged.Merge(&placements.Placements{HumanDesign: r.HumanDesign, Notes: r.Notes})
	}
	return merged, nil
}

func (c *Client) call(ctx context.Context, body extractRequest) (*extractResponse, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/extract", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var out extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}
