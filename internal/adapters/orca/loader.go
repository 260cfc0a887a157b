package orca

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultNetwork = "mainnet"

	defaultHTTPTimeout = 15 * time.Second
	maxDocumentSize    = 32 << 20
)

// Loader reads raw catalog documents laid out as
// <source>/<type>/orca-<type>-<network>.json, where source is a local
// directory or an http(s) base URL.
type Loader struct {
	source  string
	network string
	client  *http.Client
}

func NewLoader(source, network string) *Loader {
	if network == "" {
		network = DefaultNetwork
	}
	return &Loader{
		source:  strings.TrimRight(source, "/"),
		network: network,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
	}
}

func (l *Loader) Network() string {
	return l.network
}

func (l *Loader) Source() string {
	return l.source
}

func (l *Loader) isRemote() bool {
	return strings.HasPrefix(l.source, "http://") || strings.HasPrefix(l.source, "https://")
}

func (l *Loader) documentPath(doc DocumentType) string {
	return fmt.Sprintf("%s/orca-%s-%s.json", doc, doc, l.network)
}

// Fetch reads every document type.
func (l *Loader) Fetch(ctx context.Context) (RawDocuments, error) {
	raw := make(RawDocuments, len(AllDocuments))
	for _, doc := range AllDocuments {
		data, err := l.fetchOne(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", doc, err)
		}
		raw[doc] = data
	}
	log.Info().Str("source", l.source).Str("network", l.network).Msg("[orcaLoader] fetched catalog documents")
	return raw, nil
}

func (l *Loader) fetchOne(ctx context.Context, doc DocumentType) ([]byte, error) {
	rel := l.documentPath(doc)
	if !l.isRemote() {
		return os.ReadFile(filepath.Join(l.source, filepath.FromSlash(rel)))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source+"/"+rel, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
}
