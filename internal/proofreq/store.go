package proofreq

import (
	"context"
	"time"

	id "solcred/pkg/domain"
)

// Store abstracts proof request and response persistence.
type Store interface {
	Create(ctx context.Context, req *ProofRequest) error
	FindByID(ctx context.Context, reqID id.ProofRequestID) (*ProofRequest, error)
	// ListOpen returns all OPEN requests, newest first.
	ListOpen(ctx context.Context) ([]*ProofRequest, error)
	// ListByVerifier returns the verifier's requests, newest first.
	ListByVerifier(ctx context.Context, verifierID id.AccountID) ([]*ProofRequest, error)
	// Close flips an OPEN request to CLOSED with a compare-and-set on status.
	// Returns false when the request was already closed and sentinel.ErrNotFound
	// when the id does not exist.
	Close(ctx context.Context, reqID id.ProofRequestID, at time.Time) (bool, error)

	// CreateResponse persists a response. Returns sentinel.ErrAlreadyUsed when
	// the holder has already answered the request.
	CreateResponse(ctx context.Context, resp *Response) error
	// ListResponses returns a request's responses, oldest first.
	ListResponses(ctx context.Context, reqID id.ProofRequestID) ([]*Response, error)
	// HasResponded reports whether the holder has answered the request.
	HasResponded(ctx context.Context, reqID id.ProofRequestID, holderID id.AccountID) (bool, error)
}
