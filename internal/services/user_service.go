package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Ralph2001/marketplace/internal/auth"
	"github.com/Ralph2001/marketplace/internal/config"
	"github.com/Ralph2001/marketplace/internal/db"
	"github.com/Ralph2001/marketplace/internal/models"
	"github.com/Ralph2001/marketplace/internal/utils"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

// IUserService defines account operations.
type IUserService interface {
	Register(ctx context.Context, emailAddr, password, displayName string) (*models.User, error)
	Authenticate(ctx context.Context, emailAddr, password string) (*models.User, error)
	FindByID(ctx context.Context, id utils.ShortID) (*models.User, error)
}

const usersCollection = "users"

type userService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewUserService creates a new UserService.
func NewUserService(database *mongo.Database, cfg *config.Config) IUserService {
	return &userService{db: database, cfg: cfg}
}

// Register creates an account. The unique index on email turns a duplicate
// registration into ErrEmailTaken; ID collisions retry with a fresh ID.
func (s *userService) Register(ctx context.Context, emailAddr, password, displayName string) (*models.User, error) {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))
	if emailAddr == "" || !strings.Contains(emailAddr, "@") {
		return nil, fmt.Errorf("a valid email address is required")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	collection := s.db.Collection(usersCollection)

	// Distinguish email duplicates from _id collisions up front: retrying an
	// email duplicate with a fresh _id would never succeed.
	count, err := collection.CountDocuments(ctx, bson.M{"email": emailAddr})
	if err != nil {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	var user *models.User
	operation := func() error {
		user = &models.User{
			Base: models.Base{
				ID:        utils.NewShortID(),
				CreatedAt: time.Now().UTC(),
			},
			Email:        emailAddr,
			PasswordHash: hash,
			DisplayName:  displayName,
		}
		_, insertErr := collection.InsertOne(ctx, user)
		return insertErr
	}
	if err := db.Try(operation); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate verifies credentials and returns the account. The error is
// identical for unknown email and wrong password.
func (s *userService) Authenticate(ctx context.Context, emailAddr, password string) (*models.User, error) {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))

	var user models.User
	err := s.db.Collection(usersCollection).FindOne(ctx, bson.M{"email": emailAddr}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// FindByID fetches an account by its internal ID.
func (s *userService) FindByID(ctx context.Context, id utils.ShortID) (*models.User, error) {
	var user models.User
	err := s.db.Collection(usersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user %s: %w", id.String(), err)
	}
	return &user, nil
}
