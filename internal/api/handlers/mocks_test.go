package handlers

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/Ralph2001/marketplace/internal/models"
	"github.com/Ralph2001/marketplace/internal/services"
	"github.com/Ralph2001/marketplace/internal/utils"
)

// MockListingService mocks services.IListingService.
type MockListingService struct {
	mock.Mock
}

func (m *MockListingService) CreateListing(ctx context.Context, userID utils.ShortID, input services.NewListingInput) (*models.Listing, error) {
	args := m.Called(ctx, userID, input)
	var listing *models.Listing
	if args.Get(0) != nil {
		listing = args.Get(0).(*models.Listing)
	}
	return listing, args.Error(1)
}

func (m *MockListingService) SetImageURLs(ctx context.Context, publicID string, urls []string) error {
	args := m.Called(ctx, publicID, urls)
	return args.Error(0)
}

func (m *MockListingService) FindByPublicID(ctx context.Context, publicID string) (*models.Listing, error) {
	args := m.Called(ctx, publicID)
	var listing *models.Listing
	if args.Get(0) != nil {
		listing = args.Get(0).(*models.Listing)
	}
	return listing, args.Error(1)
}

func (m *MockListingService) ListListings(ctx context.Context, filter services.ListFilter, offset, limit int) ([]models.ListingSummary, error) {
	args := m.Called(ctx, filter, offset, limit)
	var summaries []models.ListingSummary
	if args.Get(0) != nil {
		summaries = args.Get(0).([]models.ListingSummary)
	}
	return summaries, args.Error(1)
}

// MockMessageService mocks services.IMessageService.
type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) SendMessage(ctx context.Context, listing *models.Listing, buyerUserID utils.ShortID, buyerEmail, body string) (*services.SendOutcome, error) {
	args := m.Called(ctx, listing, buyerUserID, buyerEmail, body)
	var outcome *services.SendOutcome
	if args.Get(0) != nil {
		outcome = args.Get(0).(*services.SendOutcome)
	}
	return outcome, args.Error(1)
}

func (m *MockMessageService) HasContacted(ctx context.Context, listingPublicID, buyerEmail string) (bool, error) {
	args := m.Called(ctx, listingPublicID, buyerEmail)
	return args.Bool(0), args.Error(1)
}

func (m *MockMessageService) ListInbox(ctx context.Context, sellerEmail string) ([]models.Message, error) {
	args := m.Called(ctx, sellerEmail)
	var messages []models.Message
	if args.Get(0) != nil {
		messages = args.Get(0).([]models.Message)
	}
	return messages, args.Error(1)
}

func (m *MockMessageService) ListForEmail(ctx context.Context, sellerEmail string) ([]models.Message, error) {
	args := m.Called(ctx, sellerEmail)
	var messages []models.Message
	if args.Get(0) != nil {
		messages = args.Get(0).([]models.Message)
	}
	return messages, args.Error(1)
}

// MockUserService mocks services.IUserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, emailAddr, password, displayName string) (*models.User, error) {
	args := m.Called(ctx, emailAddr, password, displayName)
	var user *models.User
	if args.Get(0) != nil {
		user = args.Get(0).(*models.User)
	}
	return user, args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, emailAddr, password string) (*models.User, error) {
	args := m.Called(ctx, emailAddr, password)
	var user *models.User
	if args.Get(0) != nil {
		user = args.Get(0).(*models.User)
	}
	return user, args.Error(1)
}

func (m *MockUserService) FindByID(ctx context.Context, id utils.ShortID) (*models.User, error) {
	args := m.Called(ctx, id)
	var user *models.User
	if args.Get(0) != nil {
		user = args.Get(0).(*models.User)
	}
	return user, args.Error(1)
}

// MockStorage mocks storage.IObjectStorage.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, key, r, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) ListingImageKey(listingID, filename string) string {
	args := m.Called(listingID, filename)
	return args.String(0)
}

func (m *MockStorage) PublicURL(key string) string {
	args := m.Called(key)
	return args.String(0)
}

// MockEnqueuer mocks the ImageEnqueuer interface.
type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) EnqueueImageNormalize(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
