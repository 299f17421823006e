package dip

import (
	"io"
	"time"

	"dip-go/internal/manifest"
)

// DepositReceipt reports the outcome of a successful deposit.
type DepositReceipt struct {
	// DepositedAt is when the repository accepted the deposit.
	DepositedAt time.Time
	// Location is the IRI of the repository resource created or updated
	// by the deposit, when the transport reports one.
	Location string
}

// Transport performs deposit operations against a remote repository
// endpoint. Implementations own protocol, authentication, and retries;
// the service only validates endpoints, hands over packaged content, and
// records outcomes.
type Transport interface {
	// Deposit sends a serialized package to the endpoint's collection.
	Deposit(endpoint manifest.EndpointRecord, pkg io.Reader) (*DepositReceipt, error)

	// Delete asks the repository to remove the material previously
	// deposited to the endpoint.
	Delete(endpoint manifest.EndpointRecord) error

	// Statement retrieves the repository's statement describing what it
	// holds for the endpoint. The caller must close the reader.
	Statement(endpoint manifest.EndpointRecord) (io.ReadCloser, error)
}

// Packager serializes the package content into a deposit-ready stream in
// the named format. The caller must close the reader.
type Packager interface {
	Package(format string) (io.ReadCloser, error)
}
