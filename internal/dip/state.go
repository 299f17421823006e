package dip

import (
	"errors"
	"fmt"
	"io/fs"

	"dip-go/internal/manifest"
)

// SyncState classifies one file/endpoint pairing.
type SyncState string

const (
	// StateUpToDate means the endpoint holds the registered version.
	StateUpToDate SyncState = "up-to-date"
	// StateOutOfDate means the file changed after its last deposit to
	// the endpoint.
	StateOutOfDate SyncState = "out-of-date"
	// StateNotDeposited means the endpoint has never received the file.
	StateNotDeposited SyncState = "not-deposited"
	// StateNoAction means no endpoint applies to the file.
	StateNoAction SyncState = "no-action"
)

// FileState is one reconciliation verdict: the sync state of one
// registered file with respect to one endpoint. For StateNoAction the
// endpoint is nil.
type FileState struct {
	File     manifest.FileRecord
	Endpoint *manifest.EndpointRecord
	State    SyncState
	// LastDeposit is the deposit the verdict compared against. Zero for
	// verdicts without a deposit-log entry.
	LastDeposit manifest.Timestamp
}

// GetState reconciles every registered file against every registered
// endpoint and returns one verdict per applicable pairing.
//
// Before comparing, each file still present on disk is refreshed: when
// its modification time is newer than the recorded updatedAt, the file
// is re-registered so verdicts reflect current content. Files missing
// from disk keep their stored state.
//
// Verdicts are ordered by file registration order. Within a file,
// deposit-log entries come first in log order, then never-deposited
// endpoints in endpoint registration order. Deposit-log entries naming
// endpoints that are no longer registered produce no verdict.
func (s *DIPService) GetState() ([]*FileState, error) {
	s.logger.Debug("computing sync state")

	endpoints := s.store.ListEndpoints()
	byID := make(map[string]int, len(endpoints))
	for i, ep := range endpoints {
		byID[ep.ID] = i
	}

	var states []*FileState

	for _, stored := range s.store.ListFiles() {
		rec, err := s.refreshFile(stored)
		if err != nil {
			return nil, err
		}

		emitted := 0
		covered := make(map[string]bool, len(rec.Deposits))

		// Endpoints the file has been deposited to.
		for _, dep := range rec.Deposits {
			covered[dep.EndpointID] = true
			i, registered := byID[dep.EndpointID]
			if !registered {
				// The endpoint was removed after the deposit. The log
				// entry stays, but there is nothing to reconcile.
				continue
			}
			verdict := StateUpToDate
			if rec.UpdatedAt.After(dep.LastDeposit) {
				verdict = StateOutOfDate
			}
			ep := endpoints[i]
			states = append(states, &FileState{
				File:        rec,
				Endpoint:    &ep,
				State:       verdict,
				LastDeposit: dep.LastDeposit,
			})
			emitted++
		}

		// Endpoints that never received the file.
		for i := range endpoints {
			if covered[endpoints[i].ID] {
				continue
			}
			ep := endpoints[i]
			states = append(states, &FileState{
				File:     rec,
				Endpoint: &ep,
				State:    StateNotDeposited,
			})
			emitted++
		}

		if emitted == 0 {
			states = append(states, &FileState{
				File:  rec,
				State: StateNoAction,
			})
		}
	}

	return states, nil
}

// refreshFile re-registers the file when its on-disk modification time is
// newer than the recorded one. Files missing from disk are returned as
// stored; other resolution failures propagate.
func (s *DIPService) refreshFile(rec manifest.FileRecord) (manifest.FileRecord, error) {
	p, err := s.fsmgr.Resolve(s.absolute(rec.Path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("registered file missing from disk", "path", rec.Path)
			return rec, nil
		}
		return manifest.FileRecord{}, fmt.Errorf("resolving %s: %w", rec.Path, err)
	}
	if p.IsDir() {
		// The registered path now points at a directory. Reconcile from
		// stored state.
		s.logger.Warn("registered file is now a directory", "path", rec.Path)
		return rec, nil
	}

	if manifest.At(p.Info().ModTime()).After(rec.UpdatedAt) {
		refreshed, err := s.RegisterFile(p)
		if err != nil {
			return manifest.FileRecord{}, fmt.Errorf("refreshing %s: %w", rec.Path, err)
		}
		return refreshed, nil
	}
	return rec, nil
}
