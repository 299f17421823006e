package testutil

import (
	"bytes"
	"io"
	"time"

	"dip-go/internal/dip"
	"dip-go/internal/manifest"
)

// DepositCall records one Deposit invocation on a StubTransport.
type DepositCall struct {
	Endpoint manifest.EndpointRecord
	Package  []byte
}

// StubTransport is a dip.Transport that records calls and returns canned
// results. Set Err to make every method fail.
type StubTransport struct {
	// DepositedAt stamps the receipts returned by Deposit.
	DepositedAt time.Time
	// Location is copied into receipts.
	Location string
	// StatementBody is what Statement returns.
	StatementBody []byte
	Err           error

	DepositCalls   []DepositCall
	DeleteCalls    []string // endpoint ids
	StatementCalls []string // endpoint ids
}

func NewStubTransport() *StubTransport { return &StubTransport{} }

func (t *StubTransport) Deposit(ep manifest.EndpointRecord, pkg io.Reader) (*dip.DepositReceipt, error) {
	if t.Err != nil {
		return nil, t.Err
	}
	data, err := io.ReadAll(pkg)
	if err != nil {
		return nil, err
	}
	t.DepositCalls = append(t.DepositCalls, DepositCall{Endpoint: ep, Package: data})
	return &dip.DepositReceipt{DepositedAt: t.DepositedAt, Location: t.Location}, nil
}

func (t *StubTransport) Delete(ep manifest.EndpointRecord) error {
	if t.Err != nil {
		return t.Err
	}
	t.DeleteCalls = append(t.DeleteCalls, ep.ID)
	return nil
}

func (t *StubTransport) Statement(ep manifest.EndpointRecord) (io.ReadCloser, error) {
	if t.Err != nil {
		return nil, t.Err
	}
	t.StatementCalls = append(t.StatementCalls, ep.ID)
	return io.NopCloser(bytes.NewReader(t.StatementBody)), nil
}

// StubPackager is a dip.Packager returning fixed content and recording
// the requested formats.
type StubPackager struct {
	Content []byte
	Err     error
	Formats []string
}

func (p *StubPackager) Package(format string) (io.ReadCloser, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	p.Formats = append(p.Formats, format)
	return io.NopCloser(bytes.NewReader(p.Content)), nil
}

// Compile-time checks
var (
	_ dip.Transport = (*StubTransport)(nil)
	_ dip.Packager  = (*StubPackager)(nil)
)
