package models_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"bloodledger/internal/donation/models"
	dErrors "bloodledger/pkg/domain-errors"
)

type IdentitySuite struct {
	suite.Suite
}

func TestIdentitySuite(t *testing.T) {
	suite.Run(t, new(IdentitySuite))
}

func (s *IdentitySuite) TestParseIdentity() {
	s.Run("trims surrounding space", func() {
		id, err := models.ParseIdentity("  GDONOR ")
		s.Require().NoError(err)
		s.Equal(models.Identity("GDONOR"), id)
	})

	cases := map[string]string{
		"empty":             "   ",
		"inner whitespace":  "G DONOR",
		"longer than limit": strings.Repeat("G", 129),
	}
	for name, input := range cases {
		s.Run("rejects "+name, func() {
			_, err := models.ParseIdentity(input)
			s.ErrorIs(err, models.ErrInvalidIdentity)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func (s *IdentitySuite) TestParseDonationID() {
	id, err := models.ParseDonationID("42")
	s.Require().NoError(err)
	s.Equal(models.DonationID(42), id)
	s.Equal("42", id.String())

	for _, input := range []string{"0", "-1", "abc", ""} {
		_, err := models.ParseDonationID(input)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation), input)
	}
}

func (s *IdentitySuite) TestBloodTypeLabel() {
	s.Equal("AB-", models.BloodType("AB-").Label())
	s.True(models.BloodType("O+").Known())
	s.Equal("other", models.BloodType("Bombay").Label())
}
