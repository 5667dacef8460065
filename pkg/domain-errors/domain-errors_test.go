package domainerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite tests the domain error primitives.
//
// These are core error primitives used at every trust boundary. Unit tests
// ensure invariants like "wrapped domain errors preserve original code" and
// "errors.Is matches by code" are maintained.
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorInterface() {
	s.Run("returns message when present", func() {
		err := &Error{Code: CodeNotFound, Message: "credential not found"}
		s.Equal("credential not found", err.Error())
	})

	s.Run("returns code when message is empty", func() {
		err := &Error{Code: CodeNotFound}
		s.Equal("not_found", err.Error())
	})
}

func (s *DomainErrorsSuite) TestUnwrap() {
	s.Run("returns wrapped error", func() {
		inner := errors.New("connection refused")
		err := &Error{Code: CodeInternal, Message: "store failure", Err: inner}
		s.Equal(inner, err.Unwrap())
	})

	s.Run("returns nil when no wrapped error", func() {
		err := &Error{Code: CodeNotFound}
		s.Nil(err.Unwrap())
	})
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("preserves code of an already-wrapped domain error", func() {
		inner := New(CodeForbidden, "only the issuer may revoke")
		wrapped := Wrap(inner, CodeInternal, "revoke failed")
		s.True(HasCode(wrapped, CodeForbidden))
		s.False(HasCode(wrapped, CodeInternal))
	})

	s.Run("applies code to plain errors", func() {
		wrapped := Wrap(errors.New("boom"), CodeInternal, "store failure")
		s.True(HasCode(wrapped, CodeInternal))
	})
}

func (s *DomainErrorsSuite) TestIsMatching() {
	s.Run("matches by code only", func() {
		err1 := &Error{Code: CodeMalformedDID, Message: "too many segments"}
		err2 := &Error{Code: CodeMalformedDID, Message: "missing method"}
		s.True(err1.Is(err2))
	})

	s.Run("does not match different codes", func() {
		s.False((&Error{Code: CodeNotFound}).Is(&Error{Code: CodeInternal}))
	})

	s.Run("works with errors.Is through chain", func() {
		inner := &Error{Code: CodeSubjectNotFound, Message: "original"}
		wrapped := Wrap(inner, CodeInternal, "wrapped")
		s.True(errors.Is(wrapped, &Error{Code: CodeSubjectNotFound}))
	})

	s.Run("package-level Is matches codes", func() {
		s.True(Is(New(CodeExternalCredential, "no internal id"), CodeExternalCredential))
		s.False(Is(errors.New("plain"), CodeExternalCredential))
	})
}
