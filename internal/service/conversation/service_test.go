package conversation

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nammaraitha-backend/internal/domain"
	"nammaraitha-backend/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitDefault()
	os.Exit(m.Run())
}

// fakeStore keeps conversations in memory keyed by their triple
type fakeStore struct {
	conversations []*domain.Conversation
	lookupErr     error
	createErr     error
	lookups       int
	creates       int
}

func (s *fakeStore) GetByTriple(ctx context.Context, cropID, farmerID, retailerID uuid.UUID) (*domain.Conversation, error) {
	s.lookups++
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	for _, c := range s.conversations {
		if c.CropID == cropID && c.FarmerID == farmerID && c.RetailerID == retailerID {
			return c, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetByID(ctx context.Context, conversationID uuid.UUID) (*domain.Conversation, error) {
	for _, c := range s.conversations {
		if c.ConversationID == conversationID {
			return c, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) Create(ctx context.Context, conversation *domain.Conversation) error {
	s.creates++
	if s.createErr != nil {
		return s.createErr
	}
	s.conversations = append(s.conversations, conversation)
	return nil
}

func TestResolve_CreatesOnFirstContact(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	cropID := uuid.New()
	farmerID := uuid.New()
	retailerID := uuid.New()

	conversation, err := svc.Resolve(context.Background(), cropID, farmerID, retailerID)

	require.NoError(t, err)
	require.NotNil(t, conversation)
	assert.Equal(t, cropID, conversation.CropID)
	assert.Equal(t, farmerID, conversation.FarmerID)
	assert.Equal(t, retailerID, conversation.RetailerID)
	assert.Equal(t, domain.InitialPreview, conversation.LastMessage)
	assert.Equal(t, 1, store.creates)
}

func TestResolve_SequentialCallsReturnSameConversation(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	cropID := uuid.New()
	farmerID := uuid.New()
	retailerID := uuid.New()

	first, err := svc.Resolve(context.Background(), cropID, farmerID, retailerID)
	require.NoError(t, err)

	second, err := svc.Resolve(context.Background(), cropID, farmerID, retailerID)
	require.NoError(t, err)

	assert.Equal(t, first.ConversationID, second.ConversationID)
	assert.Equal(t, 1, store.creates, "second resolve must reuse the existing thread")
}

func TestResolve_DistinctTriplesGetDistinctThreads(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	farmerID := uuid.New()
	retailerID := uuid.New()

	tomatoes, err := svc.Resolve(context.Background(), uuid.New(), farmerID, retailerID)
	require.NoError(t, err)

	onions, err := svc.Resolve(context.Background(), uuid.New(), farmerID, retailerID)
	require.NoError(t, err)

	assert.NotEqual(t, tomatoes.ConversationID, onions.ConversationID)
}

func TestResolve_MissingKeyRejected(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	id := uuid.New()

	cases := []struct {
		name                        string
		cropID, farmerID, retailerID uuid.UUID
	}{
		{"missing crop", uuid.Nil, id, id},
		{"missing farmer", id, uuid.Nil, id},
		{"missing retailer", id, id, uuid.Nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Resolve(context.Background(), tc.cropID, tc.farmerID, tc.retailerID)

			assert.ErrorIs(t, err, ErrMissingKey)
		})
	}

	assert.Equal(t, 0, store.lookups, "a missing key must not reach the store")
	assert.Equal(t, 0, store.creates)
}

func TestResolve_LookupErrorPropagates(t *testing.T) {
	store := &fakeStore{lookupErr: errors.New("connection refused")}
	svc := NewService(store)

	_, err := svc.Resolve(context.Background(), uuid.New(), uuid.New(), uuid.New())

	assert.Error(t, err)
	assert.Equal(t, 0, store.creates)
}

func TestResolve_CreateErrorPropagates(t *testing.T) {
	store := &fakeStore{createErr: errors.New("connection refused")}
	svc := NewService(store)

	_, err := svc.Resolve(context.Background(), uuid.New(), uuid.New(), uuid.New())

	assert.Error(t, err)
}

func TestGetByID_ChecksMembership(t *testing.T) {
	farmerID := uuid.New()
	retailerID := uuid.New()
	conversation := &domain.Conversation{
		ConversationID: uuid.New(),
		CropID:         uuid.New(),
		FarmerID:       farmerID,
		RetailerID:     retailerID,
	}
	store := &fakeStore{conversations: []*domain.Conversation{conversation}}
	svc := NewService(store)

	got, err := svc.GetByID(context.Background(), conversation.ConversationID, farmerID)
	require.NoError(t, err)
	assert.Equal(t, conversation.ConversationID, got.ConversationID)

	_, err = svc.GetByID(context.Background(), conversation.ConversationID, uuid.New())
	assert.Error(t, err)

	_, err = svc.GetByID(context.Background(), uuid.New(), farmerID)
	assert.Error(t, err)
}
