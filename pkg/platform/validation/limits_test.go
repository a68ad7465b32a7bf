package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "civic/pkg/domain-errors"
)

type LimitsSuite struct {
	suite.Suite
}

func TestLimitsSuite(t *testing.T) {
	suite.Run(t, new(LimitsSuite))
}

func (s *LimitsSuite) TestCheckStringLength() {
	s.Run("passes when length equals max", func() {
		s.NoError(CheckStringLength("title", strings.Repeat("a", 100), 100))
	})

	s.Run("counts runes not bytes", func() {
		s.NoError(CheckStringLength("title", strings.Repeat("é", 100), 100))
	})

	s.Run("passes for empty string", func() {
		s.NoError(CheckStringLength("title", "", 100))
	})

	s.Run("fails when length exceeds max", func() {
		err := CheckStringLength("title", strings.Repeat("a", 101), 100)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "title exceeds max length of 100")
	})
}

func (s *LimitsSuite) TestClampLimit() {
	s.Equal(DefaultPageSize, ClampLimit(0))
	s.Equal(DefaultPageSize, ClampLimit(-3))
	s.Equal(10, ClampLimit(10))
	s.Equal(MaxPageSize, ClampLimit(MaxPageSize+1))
}
