package dip

import (
	"fmt"
	"io"
)

// Deposit packages the tracked content and sends it to the endpoint with
// the given id, then records the deposit time on every registered file.
// The endpoint must be registered and must have a collection URI, and the
// service must have been built with a packager and a transport.
func (s *DIPService) Deposit(endpointID string) (*DepositReceipt, error) {
	ep, ok := s.store.FindEndpoint(endpointID)
	if !ok {
		return nil, fmt.Errorf("endpoint %s: %w", endpointID, ErrNotFound)
	}
	if ep.CollectionURI == "" {
		return nil, fmt.Errorf("%w: endpoint %s has no collection URI", ErrValidation, endpointID)
	}
	if s.packager == nil {
		return nil, fmt.Errorf("no packager configured")
	}
	if s.transport == nil {
		return nil, fmt.Errorf("no deposit transport configured")
	}

	pkg, err := s.packager.Package(ep.PackageFormat)
	if err != nil {
		return nil, fmt.Errorf("packaging content: %w", err)
	}
	defer pkg.Close()

	receipt, err := s.transport.Deposit(ep, pkg)
	if err != nil {
		return nil, fmt.Errorf("depositing to %s: %w", endpointID, err)
	}

	// Stamp every registered file with the repository's deposit time.
	count := 0
	for _, rec := range s.store.ListFiles() {
		if _, err := s.markDeposited(rec.Path, endpointID, receipt.DepositedAt); err != nil {
			return receipt, fmt.Errorf("recording deposit of %s: %w", rec.Path, err)
		}
		count++
	}

	s.logger.Info("deposit complete", "endpoint", endpointID, "files", count)
	return receipt, nil
}

// RepositoryStatement fetches the repository's statement of holdings for
// the endpoint with the given id. The caller must close the reader.
func (s *DIPService) RepositoryStatement(endpointID string) (io.ReadCloser, error) {
	ep, ok := s.store.FindEndpoint(endpointID)
	if !ok {
		return nil, fmt.Errorf("endpoint %s: %w", endpointID, ErrNotFound)
	}
	if s.transport == nil {
		return nil, fmt.Errorf("no deposit transport configured")
	}

	stmt, err := s.transport.Statement(ep)
	if err != nil {
		return nil, fmt.Errorf("fetching statement from %s: %w", endpointID, err)
	}
	return stmt, nil
}
