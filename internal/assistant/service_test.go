package assistant

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"vitalflow/internal/auth"
	"vitalflow/internal/cache"
	"vitalflow/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	answer  string
	history []Turn
	prompt  string
	calls   int
}

func (f *fakeGenerator) Generate(_ context.Context, history []Turn, prompt string) (string, error) {
	f.calls++
	f.history = history
	f.prompt = prompt
	return f.answer, nil
}

type fakeChats struct {
	messages []*types.ChatMessage
}

func (f *fakeChats) History(_ context.Context, senderID string, contextOnly bool) ([]*types.ChatMessage, error) {
	var out []*types.ChatMessage
	for _, m := range f.messages {
		if m.SenderID == senderID && (!contextOnly || m.ConsiderContext) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeChats) InsertMany(_ context.Context, messages []*types.ChatMessage) error {
	f.messages = append(f.messages, messages...)
	return nil
}

func (f *fakeChats) ClearContext(_ context.Context, senderID string) error {
	for _, m := range f.messages {
		if m.SenderID == senderID {
			m.ConsiderContext = false
		}
	}
	return nil
}

type fakeRecords struct {
	bank          *types.BloodBank
	camps         []*types.DonationCamp
	donations     []*types.Donation
	donors        []*types.Donor
	donationCalls int
}

func (f *fakeRecords) BloodBank(_ context.Context, bankID string) (*types.BloodBank, error) {
	if f.bank == nil || f.bank.ID != bankID {
		return nil, types.ErrBloodBankNotFound
	}
	return f.bank, nil
}

func (f *fakeRecords) Camp(_ context.Context, campID string) (*types.DonationCamp, error) {
	for _, c := range f.camps {
		if c.ID == campID {
			return c, nil
		}
	}
	return nil, types.ErrCampNotFound
}

func (f *fakeRecords) CampsByBank(_ context.Context, bankID string, _ types.CampFilter) ([]*types.DonationCamp, error) {
	var out []*types.DonationCamp
	for _, c := range f.camps {
		if c.BloodBankID == bankID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRecords) DonationsByBank(_ context.Context, bankID string) ([]*types.Donation, error) {
	f.donationCalls++
	return f.donations, nil
}

func (f *fakeRecords) DonationsByCamp(_ context.Context, campID string) ([]*types.Donation, error) {
	f.donationCalls++
	return f.donations, nil
}

func (f *fakeRecords) DonorsByIDs(_ context.Context, ids []string) ([]*types.Donor, error) {
	return f.donors, nil
}

func newTestService(t *testing.T, gen Generator, chats ChatStore, records *fakeRecords) *Service {
	t.Helper()
	mem, err := cache.NewMemory(16)
	require.NoError(t, err)
	return NewService(Deps{
		Generator:  gen,
		Chats:      chats,
		Banks:      records,
		Camps:      records,
		Donations:  records,
		Donors:     records,
		Cache:      mem,
		ContextTTL: time.Minute,
		Logger:     quietLogger(),
	})
}

func bankSession(id string) *auth.Session {
	return &auth.Session{Principal: auth.Principal{Role: auth.RoleBloodBank, ID: id}}
}

func testRecords() *fakeRecords {
	return &fakeRecords{
		bank:  &types.BloodBank{ID: "bank-1", Name: "City Bank", PasswordHash: "secret-hash"},
		camps: []*types.DonationCamp{{ID: "camp-1", BloodBankID: "bank-1", CampName: "Spring Drive"}},
		donations: []*types.Donation{
			{ID: "don-1", DonorID: "donor-1", BloodBankID: "bank-1"},
			{ID: "don-2", DonorID: "donor-1", BloodBankID: "bank-1"},
		},
		donors: []*types.Donor{{ID: "donor-1", FullName: "A Donor"}},
	}
}

func TestAskBuildsPromptAndStoresExchange(t *testing.T) {
	gen := &fakeGenerator{answer: "You have 2 donations."}
	chats := &fakeChats{}
	svc := newTestService(t, gen, chats, testRecords())

	answer, err := svc.Ask(context.Background(), bankSession("bank-1"), "  how many donations?  ")
	require.NoError(t, err)
	assert.Equal(t, "You have 2 donations.", answer)

	require.True(t, strings.HasPrefix(gen.prompt, preamble))
	var payload struct {
		Question string      `json:"question"`
		Data     bankContext `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(gen.prompt, preamble)), &payload))
	assert.Equal(t, "how many donations?", payload.Question)
	assert.Equal(t, "City Bank", payload.Data.BloodBank.Name)
	assert.Len(t, payload.Data.Camps, 1)
	assert.Len(t, payload.Data.Donations, 2)
	assert.Len(t, payload.Data.Donors, 1)
	assert.NotContains(t, gen.prompt, "secret-hash")

	require.Len(t, chats.messages, 2)
	assert.Equal(t, types.ChatRoleUser, chats.messages[0].Role)
	assert.Equal(t, "how many donations?", chats.messages[0].Message)
	assert.Equal(t, types.ChatRoleModel, chats.messages[1].Role)
	assert.True(t, chats.messages[1].CreatedAt.After(chats.messages[0].CreatedAt))
}

func TestAskSendsContextHistoryAndCachesSnapshot(t *testing.T) {
	gen := &fakeGenerator{answer: "ok"}
	chats := &fakeChats{}
	records := testRecords()
	svc := newTestService(t, gen, chats, records)
	ctx := context.Background()

	_, err := svc.Ask(ctx, bankSession("bank-1"), "first")
	require.NoError(t, err)
	_, err = svc.Ask(ctx, bankSession("bank-1"), "second")
	require.NoError(t, err)

	assert.Equal(t, 1, records.donationCalls)
	require.Len(t, gen.history, 2)
	assert.Equal(t, "first", gen.history[0].Text)
	assert.Equal(t, "ok", gen.history[1].Text)

	require.NoError(t, svc.ClearContext(ctx, "bank-1"))
	_, err = svc.Ask(ctx, bankSession("bank-1"), "third")
	require.NoError(t, err)
	assert.Empty(t, gen.history)

	all, err := svc.History(ctx, "bank-1")
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestAskCampSnapshot(t *testing.T) {
	gen := &fakeGenerator{answer: "ok"}
	svc := newTestService(t, gen, &fakeChats{}, testRecords())

	session := &auth.Session{Principal: auth.Principal{Role: auth.RoleCamp, ID: "camp-1"}}
	_, err := svc.Ask(context.Background(), session, "who donated?")
	require.NoError(t, err)

	var payload struct {
		Data campContext `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(gen.prompt, preamble)), &payload))
	assert.Equal(t, "Spring Drive", payload.Data.Camp.CampName)
	assert.Equal(t, "bank-1", payload.Data.BloodBank.ID)
}

func TestAskRejectsDonorsAndEmptyQuestions(t *testing.T) {
	gen := &fakeGenerator{answer: "ok"}
	svc := newTestService(t, gen, &fakeChats{}, testRecords())
	ctx := context.Background()

	_, err := svc.Ask(ctx, bankSession("bank-1"), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)

	donor := &auth.Session{Principal: auth.Principal{Role: auth.RoleDonor, ID: "donor-1"}}
	_, err = svc.Ask(ctx, donor, "hello")
	assert.ErrorIs(t, err, auth.ErrForbidden)

	assert.Zero(t, gen.calls)
}
