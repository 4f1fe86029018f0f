package downloader

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io/fs"
	"net"

	"github.com/baldawsari/pdf-downloader-mcp/internal/domain"
)

// Classification is the retry decision for one classified failure.
type Classification struct {
	// Retryable reports whether another attempt may succeed.
	Retryable bool

	// Description is the human-readable failure summary used in logs
	// and the final error message.
	Description string

	// RotateIdentity is set for connection and TLS failures, where
	// presenting a different outbound identity may help.
	RotateIdentity bool
}

// Statuses that are permanent client-side rejections.
var permanentStatuses = map[int]struct{}{
	400: {}, 401: {}, 403: {}, 404: {}, 410: {}, 451: {},
}

// Classify maps a failure to a retry decision and description. Errors
// it does not recognize are treated as retryable.
func Classify(err error) Classification {
	if err == nil {
		return Classification{Retryable: false, Description: "no error"}
	}

	if se, ok := domain.AsStatusError(err); ok {
		return classifyStatus(se)
	}

	if domain.IsValidationError(err) {
		return Classification{Retryable: true, Description: err.Error()}
	}

	if domain.IsConfigError(err) {
		return Classification{Retryable: false, Description: err.Error()}
	}

	// Local filesystem problems (permissions, disk full) are not
	// going to heal between attempts.
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return Classification{Retryable: false, Description: "filesystem error: " + err.Error()}
	}

	if isTimeout(err) {
		return Classification{Retryable: true, Description: "request timeout"}
	}

	if isTLSFailure(err) {
		return Classification{
			Retryable:      true,
			Description:    "TLS error: " + err.Error(),
			RotateIdentity: true,
		}
	}

	if isConnectionFailure(err) {
		return Classification{
			Retryable:      true,
			Description:    "connection error: " + err.Error(),
			RotateIdentity: true,
		}
	}

	return Classification{Retryable: true, Description: "unknown error: " + err.Error()}
}

func classifyStatus(se *domain.StatusError) Classification {
	if _, permanent := permanentStatuses[se.Code]; permanent {
		return Classification{Retryable: false, Description: se.Error()}
	}

	switch {
	case se.Code == 429:
		return Classification{Retryable: true, Description: "rate limited (HTTP 429)"}
	case se.Code >= 500:
		return Classification{Retryable: true, Description: fmt.Sprintf("server error (HTTP %d)", se.Code)}
	case se.Code >= 400:
		return Classification{Retryable: false, Description: fmt.Sprintf("client error (HTTP %d)", se.Code)}
	default:
		return Classification{Retryable: true, Description: se.Error()}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isTLSFailure(err error) bool {
	var (
		recordErr    tls.RecordHeaderError
		verifyErr    *tls.CertificateVerificationError
		authorityErr x509.UnknownAuthorityError
		invalidErr   x509.CertificateInvalidError
		hostnameErr  x509.HostnameError
	)
	return errors.As(err, &recordErr) ||
		errors.As(err, &verifyErr) ||
		errors.As(err, &authorityErr) ||
		errors.As(err, &invalidErr) ||
		errors.As(err, &hostnameErr)
}

func isConnectionFailure(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
