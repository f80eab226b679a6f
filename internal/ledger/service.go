package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vitalflow/internal/utils"
	"vitalflow/pkg/types"

	"github.com/sirupsen/logrus"
)

const defaultMaxAttempts = 3

var ErrCampNotApproved = errors.New("camp is not approved to record donations")

type DonationStore interface {
	Donation(ctx context.Context, donationID string) (*types.Donation, error)
	DonationsByDonor(ctx context.Context, donorID string) ([]*types.Donation, error)
	DonationsByBank(ctx context.Context, bankID string) ([]*types.Donation, error)
	Create(ctx context.Context, donation *types.Donation) error
	SaveRevision(ctx context.Context, donation *types.Donation, expected int) error
}

type DonorStore interface {
	Donor(ctx context.Context, donorID string) (*types.Donor, error)
}

type CampStore interface {
	Camp(ctx context.Context, campID string) (*types.DonationCamp, error)
}

type AllocationRequest struct {
	DonationID             string              `json:"donationId"`
	RecipientID            string              `json:"recipientId"`
	FullName               string              `json:"fullName"`
	Phone                  string              `json:"phone"`
	Email                  string              `json:"email"`
	ComponentGiven         types.ComponentType `json:"componentGiven"`
	ComponentQuantityGiven int                 `json:"componentQuantityGiven"`
}

type ExtractionRequest struct {
	DonationID string                     `json:"donationId"`
	Extracted  []types.ExtractedComponent `json:"extractedComponentsFromWholeBlood"`
}

type DonationRequest struct {
	DonorID           string              `json:"donorId"`
	ComponentType     types.ComponentType `json:"componentType"`
	ComponentQuantity int                 `json:"componentQuantity"`
	BloodGroup        types.BloodGroup    `json:"bloodGroup"`
	DonationTime      *time.Time          `json:"donationTime"`
}

type Service struct {
	donations   DonationStore
	donors      DonorStore
	camps       CampStore
	logger      *logrus.Logger
	maxAttempts int
}

func NewService(donations DonationStore, donors DonorStore, camps CampStore, logger *logrus.Logger) *Service {
	return &Service{
		donations:   donations,
		donors:      donors,
		camps:       camps,
		logger:      logger,
		maxAttempts: defaultMaxAttempts,
	}
}

// AssignRecipient allocates a component of one of bankID's donations to a
// recipient, either a registered donor (RecipientID) or someone identified by
// contact details.
func (s *Service) AssignRecipient(ctx context.Context, bankID string, req AllocationRequest) (*types.Donation, error) {
	if err := validateAllocation(req); err != nil {
		return nil, err
	}

	recipient, err := s.resolveRecipient(ctx, req)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, bankID, req.DonationID, func(d *types.Donation) error {
		return TryAllocate(d, req.ComponentGiven, req.ComponentQuantityGiven, recipient)
	})
}

func validateAllocation(req AllocationRequest) error {
	switch {
	case strings.TrimSpace(req.DonationID) == "":
		return invalid("donationId", "is required")
	case req.ComponentGiven == "":
		return invalid("componentGiven", "is required")
	case !req.ComponentGiven.Valid():
		return invalid("componentGiven", "is not a known component")
	case req.ComponentQuantityGiven <= 0:
		return invalid("componentQuantityGiven", "must be greater than zero")
	}

	if req.RecipientID == "" {
		if strings.TrimSpace(req.FullName) == "" {
			return invalid("fullName", "is required for an unregistered recipient")
		}
		if strings.TrimSpace(req.Phone) == "" {
			return invalid("phone", "is required for an unregistered recipient")
		}
	}

	return nil
}

func (s *Service) resolveRecipient(ctx context.Context, req AllocationRequest) (types.Recipient, error) {
	if req.RecipientID == "" {
		return types.Recipient{
			FullName: strings.TrimSpace(req.FullName),
			Phone:    strings.TrimSpace(req.Phone),
			Email:    strings.TrimSpace(req.Email),
		}, nil
	}

	donor, err := s.donors.Donor(ctx, req.RecipientID)
	if err != nil {
		if errors.Is(err, types.ErrDonorNotFound) {
			return types.Recipient{}, types.ErrRecipientNotFound
		}
		return types.Recipient{}, fmt.Errorf("load recipient: %w", err)
	}

	return types.Recipient{
		Registered:  true,
		RecipientID: utils.StringPtr(donor.ID),
		FullName:    donor.FullName,
		Phone:       donor.Phone,
		Email:       utils.PtrString(donor.Email),
	}, nil
}

// ExtractComponents records how a whole-blood donation was split.
func (s *Service) ExtractComponents(ctx context.Context, bankID string, req ExtractionRequest) (*types.Donation, error) {
	if strings.TrimSpace(req.DonationID) == "" {
		return nil, invalid("donationId", "is required")
	}
	if err := validateExtraction(req.Extracted); err != nil {
		return nil, err
	}

	return s.mutate(ctx, bankID, req.DonationID, func(d *types.Donation) error {
		return RecordExtraction(d, req.Extracted)
	})
}

func validateExtraction(extracted []types.ExtractedComponent) error {
	if len(extracted) == 0 {
		return invalid("extractedComponentsFromWholeBlood", "must list at least one component")
	}

	seen := make(map[types.ComponentType]bool, len(extracted))
	for i, item := range extracted {
		field := fmt.Sprintf("extractedComponentsFromWholeBlood[%d]", i)
		switch {
		case !item.Component.Valid():
			return invalid(field+".component", "is not a known component")
		case item.Component == types.ComponentWholeBlood:
			return invalid(field+".component", "cannot be Whole Blood")
		case item.Quantity <= 0:
			return invalid(field+".quantity", "must be greater than zero")
		case seen[item.Component]:
			return invalid(field+".component", "is listed more than once")
		}
		seen[item.Component] = true
	}

	return nil
}

// mutate loads the donation, applies fn and writes it back conditioned on the
// revision it was loaded at. A concurrent write causes a reload and a fresh
// run of fn, so checks always see the latest allocations.
func (s *Service) mutate(ctx context.Context, bankID, donationID string, fn func(*types.Donation) error) (*types.Donation, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		donation, err := s.Donation(ctx, bankID, donationID)
		if err != nil {
			return nil, err
		}

		expected := donation.Revision
		if err := fn(donation); err != nil {
			return nil, err
		}

		err = s.donations.SaveRevision(ctx, donation, expected)
		if err == nil {
			return donation, nil
		}

		if !errors.Is(err, ErrRevisionConflict) {
			return nil, err
		}

		s.logger.WithFields(logrus.Fields{
			"donation_id": donationID,
			"attempt":     attempt,
		}).Debug("donation revision conflict, retrying")
	}

	return nil, ErrRevisionConflict
}

// AvailableQuantity is a point-in-time report of unallocated quantity per
// component across the bank's donations.
func (s *Service) AvailableQuantity(ctx context.Context, bankID string) (map[types.ComponentType]int, error) {
	donations, err := s.donations.DonationsByBank(ctx, bankID)
	if err != nil {
		return nil, err
	}

	return AvailableByComponent(donations), nil
}

// RecordDonation stores a donation collected at an approved camp. The blood
// bank is taken from the camp.
func (s *Service) RecordDonation(ctx context.Context, campID string, req DonationRequest) (*types.Donation, error) {
	switch {
	case strings.TrimSpace(req.DonorID) == "":
		return nil, invalid("donorId", "is required")
	case !req.ComponentType.Valid():
		return nil, invalid("componentType", "is not a known component")
	case req.ComponentQuantity <= 0:
		return nil, invalid("componentQuantity", "must be greater than zero")
	case req.BloodGroup != "" && !req.BloodGroup.Valid():
		return nil, invalid("bloodGroup", "is not a known blood group")
	}

	camp, err := s.camps.Camp(ctx, campID)
	if err != nil {
		return nil, err
	}

	if camp.Status != types.ApprovalStatusApproved {
		return nil, ErrCampNotApproved
	}

	donor, err := s.donors.Donor(ctx, req.DonorID)
	if err != nil {
		return nil, err
	}

	bloodGroup := req.BloodGroup
	if bloodGroup == "" {
		bloodGroup = donor.BloodGroup
	}

	donation := &types.Donation{
		ID:          utils.NanoID(),
		DonorID:     donor.ID,
		CampID:      camp.ID,
		BloodBankID: camp.BloodBankID,
		ComponentDetails: types.ComponentDetails{
			ComponentType:     req.ComponentType,
			ComponentQuantity: req.ComponentQuantity,
			BloodGroup:        bloodGroup,
		},
	}
	if req.DonationTime != nil {
		donation.DonationTime = *req.DonationTime
	}

	if err := s.donations.Create(ctx, donation); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"donation_id":   donation.ID,
		"camp_id":       camp.ID,
		"blood_bank_id": camp.BloodBankID,
	}).Info("donation recorded")

	return donation, nil
}

// Donation loads a single donation owned by bankID. Donations of other banks
// are reported as not found.
func (s *Service) Donation(ctx context.Context, bankID, donationID string) (*types.Donation, error) {
	donation, err := s.donations.Donation(ctx, donationID)
	if err != nil {
		return nil, err
	}

	if donation.BloodBankID != bankID {
		return nil, types.ErrDonationNotFound
	}

	return donation, nil
}

func (s *Service) DonationsForDonor(ctx context.Context, donorID string) ([]*types.Donation, error) {
	donations, err := s.donations.DonationsByDonor(ctx, donorID)
	return donations, utils.ErrorWrapOrNil(err, "failed to load donor donations")
}

func (s *Service) DonationsForBank(ctx context.Context, bankID string) ([]*types.Donation, error) {
	donations, err := s.donations.DonationsByBank(ctx, bankID)
	return donations, utils.ErrorWrapOrNil(err, "failed to load bank donations")
}
