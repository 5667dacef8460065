package proofreq

import (
	"context"
	"sort"
	"sync"
	"time"

	id "solcred/pkg/domain"
	"solcred/pkg/platform/sentinel"
)

// InMemoryStore backs tests and dev mode.
type InMemoryStore struct {
	mu        sync.RWMutex
	requests  map[id.ProofRequestID]*ProofRequest
	responses map[id.ProofRequestID][]*Response
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		requests:  make(map[id.ProofRequestID]*ProofRequest),
		responses: make(map[id.ProofRequestID][]*Response),
	}
}

func (s *InMemoryStore) Create(_ context.Context, req *ProofRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[req.ID]; exists {
		return sentinel.ErrConflict
	}
	s.requests[req.ID] = copyRequest(req)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, reqID id.ProofRequestID) (*ProofRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[reqID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyRequest(req), nil
}

func (s *InMemoryStore) ListOpen(_ context.Context) ([]*ProofRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(r *ProofRequest) bool { return r.Status == StatusOpen }), nil
}

func (s *InMemoryStore) ListByVerifier(_ context.Context, verifierID id.AccountID) ([]*ProofRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(r *ProofRequest) bool { return r.VerifierID == verifierID }), nil
}

func (s *InMemoryStore) Close(_ context.Context, reqID id.ProofRequestID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[reqID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if req.Status != StatusOpen {
		return false, nil
	}
	closedAt := at
	req.Status = StatusClosed
	req.ClosedAt = &closedAt
	return true, nil
}

func (s *InMemoryStore) CreateResponse(_ context.Context, resp *Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.responses[resp.RequestID] {
		if existing.HolderID == resp.HolderID {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.responses[resp.RequestID] = append(s.responses[resp.RequestID], copyResponse(resp))
	return nil
}

func (s *InMemoryStore) ListResponses(_ context.Context, reqID id.ProofRequestID) ([]*Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Response, 0, len(s.responses[reqID]))
	for _, resp := range s.responses[reqID] {
		out = append(out, copyResponse(resp))
	}
	return out, nil
}

func (s *InMemoryStore) HasResponded(_ context.Context, reqID id.ProofRequestID, holderID id.AccountID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, resp := range s.responses[reqID] {
		if resp.HolderID == holderID {
			return true, nil
		}
	}
	return false, nil
}

// collect returns matching requests newest first. Caller holds the lock.
func (s *InMemoryStore) collect(match func(*ProofRequest) bool) []*ProofRequest {
	var out []*ProofRequest
	for _, req := range s.requests {
		if match(req) {
			out = append(out, copyRequest(req))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func copyRequest(req *ProofRequest) *ProofRequest {
	dup := *req
	dup.RequestedTypes = append([]string(nil), req.RequestedTypes...)
	dup.TargetHolders = append([]id.AccountID(nil), req.TargetHolders...)
	if req.Requirements != nil {
		dup.Requirements = make(map[string]any, len(req.Requirements))
		for k, v := range req.Requirements {
			dup.Requirements[k] = v
		}
	}
	if req.ExpiresAt != nil {
		t := *req.ExpiresAt
		dup.ExpiresAt = &t
	}
	if req.ClosedAt != nil {
		t := *req.ClosedAt
		dup.ClosedAt = &t
	}
	return &dup
}

func copyResponse(resp *Response) *Response {
	dup := *resp
	dup.CredentialIDs = append([]id.CredentialID(nil), resp.CredentialIDs...)
	return &dup
}
