package models_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"bloodledger/internal/donation/models"
	dErrors "bloodledger/pkg/domain-errors"
)

type DonationStatsSuite struct {
	suite.Suite
}

func TestDonationStatsSuite(t *testing.T) {
	suite.Run(t, new(DonationStatsSuite))
}

func (s *DonationStatsSuite) TestTransitionsKeepBalance() {
	var stats models.DonationStats
	s.True(stats.Balanced())

	stats.RecordRegistered()
	stats.RecordRegistered()
	stats.RecordRegistered()
	s.Require().NoError(stats.RecordContaminated())
	s.Require().NoError(stats.RecordDelivered())

	s.Equal(models.DonationStats{Total: 3, Active: 1, Delivered: 1, Contaminated: 1}, stats)
	s.True(stats.Balanced())
}

func (s *DonationStatsSuite) TestTransitionWithoutActiveUnit() {
	s.Run("contamination", func() {
		stats := models.DonationStats{Total: 1, Delivered: 1}
		err := stats.RecordContaminated()
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		s.Equal(models.DonationStats{Total: 1, Delivered: 1}, stats)
	})

	s.Run("delivery", func() {
		stats := models.DonationStats{Total: 1, Contaminated: 1}
		err := stats.RecordDelivered()
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *DonationStatsSuite) TestRetention() {
	policy := models.DefaultRetention()
	s.Equal(uint64(25_000), policy.ThresholdSeconds())
	s.Equal(uint64(25_000), policy.ExtendSeconds())
}
