package did

import (
	"context"
	"log/slog"

	"solcred/internal/platform/metrics"
	"solcred/internal/platform/tracer"
	dErrors "solcred/pkg/domain-errors"
)

// AccountDirectory is the narrow slice of the account store the resolver
// needs: does any registered account own this wallet address.
type AccountDirectory interface {
	WalletRegistered(ctx context.Context, walletAddress string) (bool, error)
}

// DocumentCache is a read-through cache for resolved documents. Absence is
// never cached; a miss always falls through to the directory.
type DocumentCache interface {
	Get(ctx context.Context, didStr string) (*Document, bool)
	Set(ctx context.Context, didStr string, doc Document)
}

// Resolver builds DID documents for registered wallets.
type Resolver struct {
	directory AccountDirectory
	cache     DocumentCache
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    tracer.Tracer
}

// ResolverOption configures the Resolver.
type ResolverOption func(*Resolver)

// WithCache enables document caching.
func WithCache(cache DocumentCache) ResolverOption {
	return func(r *Resolver) { r.cache = cache }
}

// WithMetrics wires cache hit/miss counters.
func WithMetrics(m *metrics.Metrics) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

// WithTracer sets the tracer for resolution spans.
func WithTracer(t tracer.Tracer) ResolverOption {
	return func(r *Resolver) { r.tracer = t }
}

// NewResolver constructs a Resolver.
func NewResolver(directory AccountDirectory, logger *slog.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{directory: directory, logger: logger, tracer: tracer.NewNoop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveDocument parses the DID, confirms a registered account owns the
// wallet address, and builds the document. Unregistered wallets and
// non-solana methods resolve to not-found.
func (r *Resolver) ResolveDocument(ctx context.Context, didStr string) (doc Document, err error) {
	ctx, span := r.tracer.Start(ctx, tracer.SpanDIDResolve, tracer.String("did", didStr))
	defer func() { span.End(err) }()

	parsed, err := Parse(didStr)
	if err != nil {
		return Document{}, err
	}
	if !parsed.IsSolana() {
		return Document{}, dErrors.New(dErrors.CodeNotFound, "no DID document for method "+parsed.Method)
	}

	if r.cache != nil {
		if cached, ok := r.cache.Get(ctx, parsed.String()); ok {
			if r.metrics != nil {
				r.metrics.DIDCacheHits.Inc()
			}
			return *cached, nil
		}
		if r.metrics != nil {
			r.metrics.DIDCacheMisses.Inc()
		}
	}

	registered, err := r.directory.WalletRegistered(ctx, parsed.Identifier)
	if err != nil {
		return Document{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up wallet")
	}
	if !registered {
		return Document{}, dErrors.New(dErrors.CodeNotFound, "no account owns this wallet address")
	}

	doc = BuildDocument(parsed.Identifier)
	if r.cache != nil {
		r.cache.Set(ctx, parsed.String(), doc)
	}
	return doc, nil
}
