package port

import (
	"context"
	"io"
)

// ProbeInfo describes what a metadata probe learned about a remote
// file.
type ProbeInfo struct {
	// SupportsRange is true when the server advertises byte-range
	// resumption (Accept-Ranges: bytes).
	SupportsRange bool

	// TotalSize is the advertised content length, 0 when unknown.
	TotalSize int64
}

// Transport performs the raw HTTP operations of one download attempt
// batch. Implementations carry a single outbound identity; the
// orchestrator builds a fresh Transport when it rotates identities and
// releases it on every exit path.
type Transport interface {
	// Probe issues a metadata-only request. Callers treat any error
	// as "resumption unsupported, size unknown" - a failed probe must
	// never abort a download.
	Probe(ctx context.Context, url string) (ProbeInfo, error)

	// Fetch starts a body transfer. A positive offset requests the
	// byte range from offset to the end of the file; the returned
	// error is domain.ErrRangeIgnored if the server answered such a
	// request with a full-content response.
	Fetch(ctx context.Context, url string, offset int64) (io.ReadCloser, error)

	// Close releases the transport's connection resources.
	Close()
}

// TransportFactory builds a Transport presenting the given outbound
// identity string.
type TransportFactory func(userAgent string) Transport
