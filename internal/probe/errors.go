package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// Kind classifies why a probe failed.
type Kind int

const (
	KindUnsupportedProvider Kind = iota + 1
	KindTimeout
	KindConnection
	KindRequest
	KindUnexpected
	KindStatus
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedProvider:
		return "unsupported provider"
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection failure"
	case KindRequest:
		return "request failure"
	case KindUnexpected:
		return "unexpected failure"
	case KindStatus:
		return "non-success status"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is returned by Probe for every failed outcome.
type Error struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindStatus:
		return fmt.Sprintf("%s: status %d", e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind carried by err, or 0 if err is not a probe error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

// classify maps a transport error from the HTTP client to a failure kind.
// Timeouts win over connection failures, so a dial timeout is a timeout.
func classify(err error) Kind {
	if isTimeout(err) {
		return KindTimeout
	}
	if isConnectionFailure(err) {
		return KindConnection
	}
	return KindRequest
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnectionFailure(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && (opErr.Op == "dial" || opErr.Op == "remote error") {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	// The server hung up before sending a response.
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var alertErr tls.AlertError
	var certErr *tls.CertificateVerificationError
	var recordErr tls.RecordHeaderError
	var authorityErr x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var invalidErr x509.CertificateInvalidError
	return errors.As(err, &alertErr) ||
		errors.As(err, &certErr) ||
		errors.As(err, &recordErr) ||
		errors.As(err, &authorityErr) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidErr)
}
