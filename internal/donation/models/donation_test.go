package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	"bloodledger/internal/donation/models"
	dErrors "bloodledger/pkg/domain-errors"
)

type DonationRecordSuite struct {
	suite.Suite
}

func TestDonationRecordSuite(t *testing.T) {
	suite.Run(t, new(DonationRecordSuite))
}

func (s *DonationRecordSuite) newRecord(temp int32) *models.DonationRecord {
	record, err := models.NewDonationRecord(1, "GDONOR", "O+", temp, 100)
	s.Require().NoError(err)
	return record
}

func (s *DonationRecordSuite) TestConstruction() {
	s.Run("rejects id 0", func() {
		_, err := models.NewDonationRecord(0, "GDONOR", "O+", 4, 100)
		s.ErrorIs(err, models.ErrInvalidID)
	})

	s.Run("rejects empty donor", func() {
		_, err := models.NewDonationRecord(1, "", "O+", 4, 100)
		s.ErrorIs(err, models.ErrInvalidIdentity)
	})

	s.Run("starts active with no recipient", func() {
		record := s.newRecord(12)
		s.Equal(models.StatusActive, record.Status)
		s.Equal(int32(12), record.StorageTemp)
		s.Equal(uint64(100), record.CreatedAt)
		s.True(record.Recipient.IsZero())
	})
}

func (s *DonationRecordSuite) TestStatusMachine() {
	s.True(models.StatusActive.CanTransitionTo(models.StatusContaminated))
	s.True(models.StatusActive.CanTransitionTo(models.StatusDelivered))
	s.False(models.StatusActive.CanTransitionTo(models.StatusActive))
	s.False(models.StatusContaminated.CanTransitionTo(models.StatusDelivered))
	s.False(models.StatusDelivered.CanTransitionTo(models.StatusContaminated))
	s.False(models.Status("lost").IsValid())
}

func (s *DonationRecordSuite) TestApplyTemperature() {
	s.Run("safe range is inclusive", func() {
		record := s.newRecord(4)
		s.False(record.ApplyTemperature(2))
		s.False(record.ApplyTemperature(6))
		s.Equal(models.StatusActive, record.Status)
	})

	s.Run("first excursion contaminates", func() {
		record := s.newRecord(4)
		s.True(record.ApplyTemperature(7))
		s.True(record.IsContaminated())
	})

	s.Run("later excursions are not new contaminations", func() {
		record := s.newRecord(4)
		s.True(record.ApplyTemperature(1))
		s.False(record.ApplyTemperature(-5))
		s.Equal(int32(-5), record.StorageTemp)
	})
}

func (s *DonationRecordSuite) TestGuards() {
	s.Run("delivered records refuse storage updates", func() {
		record := s.newRecord(4)
		record.ApplyTransfer("GHOSPITAL")
		err := record.CanUpdateStorage()
		s.ErrorIs(err, models.ErrAlreadyDelivered)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("contaminated records still accept storage updates", func() {
		record := s.newRecord(4)
		record.ApplyTemperature(9)
		s.NoError(record.CanUpdateStorage())
	})

	s.Run("contamination is reported before delivery", func() {
		record := s.newRecord(4)
		record.ApplyTemperature(9)
		s.ErrorIs(record.CanTransfer(), models.ErrContaminated)
	})

	s.Run("delivered records refuse transfer", func() {
		record := s.newRecord(4)
		s.Require().NoError(record.CanTransfer())
		record.ApplyTransfer("GHOSPITAL")
		s.ErrorIs(record.CanTransfer(), models.ErrAlreadyDelivered)
		s.Equal(models.Identity("GHOSPITAL"), record.Recipient)
	})
}

func (s *DonationRecordSuite) TestPlaceholder() {
	placeholder := models.PlaceholderRecord()
	s.True(placeholder.IsPlaceholder())
	s.Equal(models.Identity("none"), placeholder.Donor)
	s.Equal(models.Identity("none"), placeholder.Recipient)
	s.Equal(models.BloodType("Unknown"), placeholder.BloodType)
	s.False(placeholder.IsContaminated())
	s.False(placeholder.IsDelivered())
}

func (s *DonationRecordSuite) TestJSON() {
	s.Run("carries status and derived flags", func() {
		record := s.newRecord(4)
		record.ApplyTemperature(8)
		raw, err := json.Marshal(record)
		s.Require().NoError(err)
		s.JSONEq(`{
			"id": 1, "donor": "GDONOR", "blood_type": "O+", "created_at": 100,
			"storage_temp": 8, "status": "contaminated",
			"is_contaminated": true, "is_delivered": false
		}`, string(raw))
	})

	s.Run("status wins over derived flags on decode", func() {
		var record models.DonationRecord
		err := json.Unmarshal([]byte(`{"id":3,"donor":"GD","status":"delivered","recipient":"GH","is_delivered":false}`), &record)
		s.Require().NoError(err)
		s.True(record.IsDelivered())
		s.Equal(models.Identity("GH"), record.Recipient)
	})

	s.Run("unknown status is rejected", func() {
		var record models.DonationRecord
		err := json.Unmarshal([]byte(`{"id":3,"status":"spilled"}`), &record)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}
