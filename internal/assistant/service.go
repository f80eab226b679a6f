// Package assistant answers questions from blood banks and camps about their
// own records using a generative model.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"vitalflow/internal/auth"
	"vitalflow/internal/cache"
	"vitalflow/internal/utils"
	"vitalflow/pkg/types"

	"github.com/sirupsen/logrus"
)

const preamble = "You are a bloodbank management system called Vital~Flow AI Assistant, i am providing you with data and question. " +
	"Answer accordingly and do not provide any answer if you think the data being requested is confidential like passwords or ids etc. " +
	"Show stats if required."

const contextKeyPrefix = "assistant-context:"

var ErrEmptyQuestion = errors.New("question is required")

type ChatStore interface {
	History(ctx context.Context, senderID string, contextOnly bool) ([]*types.ChatMessage, error)
	InsertMany(ctx context.Context, messages []*types.ChatMessage) error
	ClearContext(ctx context.Context, senderID string) error
}

type BankRecords interface {
	BloodBank(ctx context.Context, bankID string) (*types.BloodBank, error)
}

type CampRecords interface {
	Camp(ctx context.Context, campID string) (*types.DonationCamp, error)
	CampsByBank(ctx context.Context, bankID string, filter types.CampFilter) ([]*types.DonationCamp, error)
}

type DonationRecords interface {
	DonationsByBank(ctx context.Context, bankID string) ([]*types.Donation, error)
	DonationsByCamp(ctx context.Context, campID string) ([]*types.Donation, error)
}

type DonorRecords interface {
	DonorsByIDs(ctx context.Context, donorIDs []string) ([]*types.Donor, error)
}

type Deps struct {
	Generator  Generator
	Chats      ChatStore
	Banks      BankRecords
	Camps      CampRecords
	Donations  DonationRecords
	Donors     DonorRecords
	Cache      cache.Cache
	ContextTTL time.Duration
	Logger     *logrus.Logger
}

type Service struct {
	Deps
	now func() time.Time
}

func NewService(deps Deps) *Service {
	return &Service{Deps: deps, now: time.Now}
}

type bankContext struct {
	BloodBank *types.BloodBank      `json:"bloodBank"`
	Camps     []*types.DonationCamp `json:"campsAssociatedWithBloodBank"`
	Donations []*types.Donation     `json:"donations"`
	Donors    []*types.Donor        `json:"donors"`
}

type campContext struct {
	Camp      *types.DonationCamp `json:"camp"`
	BloodBank *types.BloodBank    `json:"bloodBank"`
	Donations []*types.Donation   `json:"donations"`
	Donors    []*types.Donor      `json:"donors"`
}

type promptPayload struct {
	Question string          `json:"question"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// Ask sends question, the caller's prior conversation and a snapshot of the
// caller's records to the model, and stores both sides of the exchange.
func (s *Service) Ask(ctx context.Context, session *auth.Session, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	if !session.Allows(auth.RoleBloodBank, auth.RoleCamp) {
		return "", auth.ErrForbidden
	}

	data, err := s.contextFor(ctx, session)
	if err != nil {
		return "", err
	}

	history, err := s.Chats.History(ctx, session.ID, true)
	if err != nil {
		return "", err
	}

	turns := make([]Turn, 0, len(history))
	for _, m := range history {
		turns = append(turns, Turn{Role: m.Role, Text: m.Message})
	}

	prompt, err := buildPrompt(question, data)
	if err != nil {
		return "", err
	}

	answer, err := s.Generator.Generate(ctx, turns, prompt)
	if err != nil {
		return "", err
	}

	now := s.now()
	err = s.Chats.InsertMany(ctx, []*types.ChatMessage{
		{ID: utils.NanoID(), SenderID: session.ID, Role: types.ChatRoleUser, Message: question, ConsiderContext: true, CreatedAt: now},
		{ID: utils.NanoID(), SenderID: session.ID, Role: types.ChatRoleModel, Message: answer, ConsiderContext: true, CreatedAt: now.Add(time.Microsecond)},
	})
	if err != nil {
		s.Logger.WithError(err).WithField("sender_id", session.ID).Error("failed to store chat exchange")
		return "", err
	}

	return answer, nil
}

func buildPrompt(question string, data json.RawMessage) (string, error) {
	payload, err := json.Marshal(promptPayload{Question: question, Data: data})
	if err != nil {
		return "", fmt.Errorf("encode prompt: %w", err)
	}
	return preamble + string(payload), nil
}

// contextFor returns the caller's record snapshot, served from cache while
// fresh.
func (s *Service) contextFor(ctx context.Context, session *auth.Session) (json.RawMessage, error) {
	key := contextKeyPrefix + session.ID

	cached, ok, err := s.Cache.Get(ctx, key)
	if err != nil {
		s.Logger.WithError(err).Warn("assistant context cache read failed")
	} else if ok {
		return cached, nil
	}

	var snapshot any
	switch session.Role {
	case auth.RoleBloodBank:
		snapshot, err = s.bankSnapshot(ctx, session.ID)
	case auth.RoleCamp:
		snapshot, err = s.campSnapshot(ctx, session.ID)
	}
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode assistant context: %w", err)
	}

	if err := s.Cache.Set(ctx, key, raw, s.ContextTTL); err != nil {
		s.Logger.WithError(err).Warn("assistant context cache write failed")
	}

	return raw, nil
}

func (s *Service) bankSnapshot(ctx context.Context, bankID string) (*bankContext, error) {
	bank, err := s.Banks.BloodBank(ctx, bankID)
	if err != nil {
		return nil, err
	}

	camps, err := s.Camps.CampsByBank(ctx, bankID, types.CampFilter{})
	if err != nil {
		return nil, err
	}

	donations, err := s.Donations.DonationsByBank(ctx, bankID)
	if err != nil {
		return nil, err
	}

	donors, err := s.Donors.DonorsByIDs(ctx, donorIDs(donations))
	if err != nil {
		return nil, err
	}

	return &bankContext{BloodBank: bank, Camps: camps, Donations: donations, Donors: donors}, nil
}

func (s *Service) campSnapshot(ctx context.Context, campID string) (*campContext, error) {
	camp, err := s.Camps.Camp(ctx, campID)
	if err != nil {
		return nil, err
	}

	bank, err := s.Banks.BloodBank(ctx, camp.BloodBankID)
	if err != nil && !errors.Is(err, types.ErrBloodBankNotFound) {
		return nil, err
	}

	donations, err := s.Donations.DonationsByCamp(ctx, campID)
	if err != nil {
		return nil, err
	}

	donors, err := s.Donors.DonorsByIDs(ctx, donorIDs(donations))
	if err != nil {
		return nil, err
	}

	return &campContext{Camp: camp, BloodBank: bank, Donations: donations, Donors: donors}, nil
}

func donorIDs(donations []*types.Donation) []string {
	seen := make(map[string]bool, len(donations))
	ids := make([]string, 0, len(donations))
	for _, d := range donations {
		if !seen[d.DonorID] {
			seen[d.DonorID] = true
			ids = append(ids, d.DonorID)
		}
	}
	return ids
}

func (s *Service) History(ctx context.Context, senderID string) ([]*types.ChatMessage, error) {
	return s.Chats.History(ctx, senderID, false)
}

// ClearContext keeps the history but stops it being sent to the model.
func (s *Service) ClearContext(ctx context.Context, senderID string) error {
	return s.Chats.ClearContext(ctx, senderID)
}
