package dip

import (
	"fmt"

	"dip-go/internal/manifest"
)

// Endpoints returns all registered endpoints in registration order.
func (s *DIPService) Endpoints() []manifest.EndpointRecord {
	return s.store.ListEndpoints()
}

// Endpoint returns the endpoint with the given id, if registered.
func (s *DIPService) Endpoint(id string) (manifest.EndpointRecord, bool) {
	return s.store.FindEndpoint(id)
}

// SetEndpoint registers a deposit endpoint or updates an existing one.
// The service document URI is required. With an empty id a fresh unique
// id is minted; with the id of a registered endpoint the record replaces
// that endpoint in place; an unknown explicit id registers a new endpoint
// under that id. Returns the stored record, including any minted id.
func (s *DIPService) SetEndpoint(rec manifest.EndpointRecord) (manifest.EndpointRecord, error) {
	if rec.ServiceDocumentURI == "" {
		return manifest.EndpointRecord{}, fmt.Errorf("%w: endpoint requires a service document URI", ErrValidation)
	}

	if rec.ID == "" {
		rec.ID = s.mintEndpointID()
	}

	if err := s.store.PutEndpoint(rec); err != nil {
		return manifest.EndpointRecord{}, fmt.Errorf("saving endpoint record: %w", err)
	}

	s.logger.Info("endpoint registered", "id", rec.ID, "service_document", rec.ServiceDocumentURI)
	return rec, nil
}

// mintEndpointID returns a fresh id no registered endpoint is using.
func (s *DIPService) mintEndpointID() string {
	for {
		id := s.idgen.New()
		if _, taken := s.store.FindEndpoint(id); !taken {
			return id
		}
	}
}

// RemoveEndpoint removes the endpoint with the given id from the
// registry. Deposit-log entries referencing the id are left in place so
// the record of past deposits survives. Reports whether an endpoint was
// removed; removing an unknown id is not an error.
//
// When deleteInRepository is true, the endpoint must exist and the
// deposited material is deleted through the transport first; a transport
// failure leaves the endpoint registered.
func (s *DIPService) RemoveEndpoint(id string, deleteInRepository bool) (bool, error) {
	if deleteInRepository {
		ep, ok := s.store.FindEndpoint(id)
		if !ok {
			return false, fmt.Errorf("endpoint %s: %w", id, ErrNotFound)
		}
		if s.transport == nil {
			return false, fmt.Errorf("no deposit transport configured")
		}
		if err := s.transport.Delete(ep); err != nil {
			return false, fmt.Errorf("deleting deposited material: %w", err)
		}
	}

	removed, err := s.store.RemoveEndpoint(id)
	if err != nil {
		return false, fmt.Errorf("removing endpoint record: %w", err)
	}
	if removed {
		s.logger.Info("endpoint removed", "id", id)
	}
	return removed, nil
}
