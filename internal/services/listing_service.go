package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Ralph2001/marketplace/internal/config"
	"github.com/Ralph2001/marketplace/internal/db"
	"github.com/Ralph2001/marketplace/internal/models"
	"github.com/Ralph2001/marketplace/internal/utils"
)

var (
	ErrListingNotFound = errors.New("listing not found")
	ErrInvalidListing  = errors.New("invalid listing")
)

// ListFilter selects which listings a feed page contains. The zero value is
// the unfiltered, newest-first feed.
type ListFilter struct {
	// CategorySlug filters by category; it is matched against the slug of
	// each known category, so casing and punctuation in the label don't
	// matter. An unknown slug matches nothing.
	CategorySlug string
	// Search matches a case-insensitive substring of title or description.
	Search string
}

// NewListingInput carries the seller-provided fields for a new listing.
type NewListingInput struct {
	Title        string
	Price        float64
	Category     models.Category
	Description  string
	Location     string
	EmailAddress string
}

// IListingService defines the listing-related operations.
type IListingService interface {
	CreateListing(ctx context.Context, userID utils.ShortID, input NewListingInput) (*models.Listing, error)
	SetImageURLs(ctx context.Context, publicID string, urls []string) error
	FindByPublicID(ctx context.Context, publicID string) (*models.Listing, error)
	ListListings(ctx context.Context, filter ListFilter, offset, limit int) ([]models.ListingSummary, error)
}

const listingsCollection = "listings"

type listingService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewListingService creates a new ListingService.
func NewListingService(database *mongo.Database, cfg *config.Config) IListingService {
	return &listingService{db: database, cfg: cfg}
}

func validateNewListing(input NewListingInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidListing)
	}
	if input.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidListing)
	}
	if !input.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidListing, input.Category)
	}
	if strings.TrimSpace(input.Location) == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidListing)
	}
	if strings.TrimSpace(input.EmailAddress) == "" {
		return fmt.Errorf("%w: contact email is required", ErrInvalidListing)
	}
	return nil
}

// CreateListing inserts a new listing. The public ID is randomly generated;
// on the unlikely collision the insert is retried with a fresh ID.
func (s *listingService) CreateListing(ctx context.Context, userID utils.ShortID, input NewListingInput) (*models.Listing, error) {
	if err := validateNewListing(input); err != nil {
		return nil, err
	}

	collection := s.db.Collection(listingsCollection)
	now := time.Now().UTC()

	var newListing *models.Listing
	operation := func() error {
		newListing = &models.Listing{
			Base: models.Base{
				ID:        utils.NewShortID(),
				CreatedAt: now,
			},
			PublicID:     utils.NewShortID().String(),
			UserID:       userID,
			Title:        strings.TrimSpace(input.Title),
			Price:        input.Price,
			Category:     input.Category,
			Description:  input.Description,
			Location:     input.Location,
			EmailAddress: strings.TrimSpace(input.EmailAddress),
			ImageURLs:    []string{},
		}
		_, insertErr := collection.InsertOne(ctx, newListing)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert new listing for user %s after multiple retries: %w",
			userID.String(), err)
	}
	return newListing, nil
}

// SetImageURLs records the uploaded image URLs on a listing. Called once the
// upload phase of listing creation has finished.
func (s *listingService) SetImageURLs(ctx context.Context, publicID string, urls []string) error {
	if urls == nil {
		urls = []string{}
	}
	result, err := s.db.Collection(listingsCollection).UpdateOne(ctx,
		bson.M{"public_id": publicID},
		bson.M{"$set": bson.M{"image_urls": urls}},
	)
	if err != nil {
		return fmt.Errorf("db error setting image URLs on listing %s: %w", publicID, err)
	}
	if result.MatchedCount == 0 {
		return ErrListingNotFound
	}
	return nil
}

// FindByPublicID fetches a single listing by its public identifier.
func (s *listingService) FindByPublicID(ctx context.Context, publicID string) (*models.Listing, error) {
	var listing models.Listing
	err := s.db.Collection(listingsCollection).FindOne(ctx, bson.M{"public_id": publicID}).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("error finding listing %s: %w", publicID, err)
	}
	return &listing, nil
}

// ListListings returns one page of the feed, newest first, with filtering
// done in the database so offset/limit apply to the filtered set.
func (s *listingService) ListListings(ctx context.Context, filter ListFilter, offset, limit int) ([]models.ListingSummary, error) {
	if limit <= 0 {
		limit = s.cfg.DefaultPageSize
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	query := bson.M{}
	if filter.CategorySlug != "" {
		category, ok := models.CategoryFromSlug(filter.CategorySlug)
		if !ok {
			// Unknown category slug: an empty feed, not an error.
			return []models.ListingSummary{}, nil
		}
		query["category"] = category
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}

	// _id breaks ties between listings created in the same instant, keeping
	// page boundaries stable across requests.
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := s.db.Collection(listingsCollection).Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer cursor.Close(ctx)

	var listings []models.Listing
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}

	summaries := make([]models.ListingSummary, 0, len(listings))
	for i := range listings {
		summaries = append(summaries, listings[i].Summary())
	}
	return summaries, nil
}
