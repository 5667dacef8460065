package did

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "solcred/pkg/domain-errors"
)

type stubDirectory struct {
	wallets map[string]bool
}

func (d *stubDirectory) WalletRegistered(_ context.Context, addr string) (bool, error) {
	return d.wallets[addr], nil
}

type mapCache struct {
	docs map[string]Document
	hits int
}

func (c *mapCache) Get(_ context.Context, didStr string) (*Document, bool) {
	if doc, ok := c.docs[didStr]; ok {
		c.hits++
		return &doc, true
	}
	return nil, false
}

func (c *mapCache) Set(_ context.Context, didStr string, doc Document) {
	c.docs[didStr] = doc
}

type ResolverSuite struct {
	suite.Suite
	directory *stubDirectory
	cache     *mapCache
	resolver  *Resolver
	ctx       context.Context
}

func (s *ResolverSuite) SetupTest() {
	s.directory = &stubDirectory{wallets: map[string]bool{
		"Avq3xW9pKe5FHT2zrNbVuJkM8gDsyC4U": true,
	}}
	s.cache = &mapCache{docs: map[string]Document{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.resolver = NewResolver(s.directory, logger, WithCache(s.cache))
	s.ctx = context.Background()
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) TestResolvesRegisteredWallet() {
	doc, err := s.resolver.ResolveDocument(s.ctx, "did:solana:Avq3xW9pKe5FHT2zrNbVuJkM8gDsyC4U")
	s.Require().NoError(err)
	s.Equal("did:solana:Avq3xW9pKe5FHT2zrNbVuJkM8gDsyC4U", doc.ID)
}

func (s *ResolverSuite) TestNotFoundForUnregisteredWallet() {
	_, err := s.resolver.ResolveDocument(s.ctx, "did:solana:2xR7mKw4vNpQ9sYeGfBhUjZcEnD6TaW8")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ResolverSuite) TestMalformedDIDRejectedBeforeLookup() {
	_, err := s.resolver.ResolveDocument(s.ctx, "garbage")
	s.True(dErrors.HasCode(err, dErrors.CodeMalformedDID))
}

func (s *ResolverSuite) TestForeignMethodIsNotFound() {
	_, err := s.resolver.ResolveDocument(s.ctx, "did:web:example.com")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ResolverSuite) TestSecondResolutionServedFromCache() {
	const didStr = "did:solana:Avq3xW9pKe5FHT2zrNbVuJkM8gDsyC4U"

	_, err := s.resolver.ResolveDocument(s.ctx, didStr)
	s.Require().NoError(err)
	s.Equal(0, s.cache.hits)

	_, err = s.resolver.ResolveDocument(s.ctx, didStr)
	s.Require().NoError(err)
	s.Equal(1, s.cache.hits)
}
