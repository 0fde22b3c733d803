package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Ralph2001/marketplace/internal/config"
	"github.com/Ralph2001/marketplace/internal/models"
	"github.com/Ralph2001/marketplace/internal/services"
	"github.com/Ralph2001/marketplace/internal/storage"
	"github.com/Ralph2001/marketplace/internal/utils"

	"github.com/Ralph2001/marketplace/internal/api/middleware"
)

// ImageEnqueuer schedules background normalization for an uploaded image.
type ImageEnqueuer interface {
	EnqueueImageNormalize(ctx context.Context, key string) error
}

// ListingHandler serves the listing feed, item detail, and authoring endpoints.
type ListingHandler struct {
	cfg            *config.Config
	listingService services.IListingService
	messageService services.IMessageService
	storage        storage.IObjectStorage
	enqueuer       ImageEnqueuer
}

func NewListingHandler(
	cfg *config.Config,
	listingService services.IListingService,
	messageService services.IMessageService,
	store storage.IObjectStorage,
	enqueuer ImageEnqueuer,
) *ListingHandler {
	return &ListingHandler{
		cfg:            cfg,
		listingService: listingService,
		messageService: messageService,
		storage:        store,
		enqueuer:       enqueuer,
	}
}

// ListListings handles GET /api/listings?category=<slug>&search=<term>&page=<n>&limit=<n>.
// An explicit offset parameter is also accepted; page takes precedence.
func (h *ListingHandler) ListListings(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.cfg.DefaultPageSize)))
	if limit <= 0 {
		limit = h.cfg.DefaultPageSize
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page >= 1 {
		offset = (page - 1) * limit
	}

	filter := services.ListFilter{
		CategorySlug: c.Query("category"),
		Search:       c.Query("search"),
	}

	listings, err := h.listingService.ListListings(c.Request.Context(), filter, offset, limit)
	if err != nil {
		log.Printf("Error fetching listings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch listings."})
		return
	}
	c.JSON(http.StatusOK, listings)
}

// GetItem handles GET /api/items/:publicId. Any failure, a missing listing
// included, surfaces as a 500 with a generic body.
func (h *ListingHandler) GetItem(c *gin.Context) {
	listing, err := h.listingService.FindByPublicID(c.Request.Context(), c.Param("publicId"))
	if err != nil {
		log.Printf("Error fetching item %s: %v", c.Param("publicId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch item."})
		return
	}
	c.JSON(http.StatusOK, listing)
}

// GetContactState handles GET /api/items/:publicId/contact-state. Anonymous
// visitors always see contacted=false without a lookup.
func (h *ListingHandler) GetContactState(c *gin.Context) {
	buyerEmail := c.GetString(middleware.ContextKeyUserEmail)

	contacted, err := h.messageService.HasContacted(c.Request.Context(), c.Param("publicId"), buyerEmail)
	if err != nil {
		log.Printf("Error checking contact state: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check contact state."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacted": contacted})
}

// ListCategories handles GET /api/categories.
func (h *ListingHandler) ListCategories(c *gin.Context) {
	cats := models.Categories()
	out := make([]models.CategoryInfo, 0, len(cats))
	for _, cat := range cats {
		out = append(out, cat.Info())
	}
	c.JSON(http.StatusOK, out)
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// partitionImages splits uploaded files into the accepted set and
// per-file warnings. Files past maxCount, over maxBytes, or of a
// non-image type are skipped individually; they never fail the batch.
func partitionImages(files []*multipart.FileHeader, maxCount int, maxBytes int64) (accepted []*multipart.FileHeader, warnings []string) {
	for _, f := range files {
		if len(accepted) == maxCount {
			warnings = append(warnings, fmt.Sprintf("%s skipped: at most %d images per listing", f.Filename, maxCount))
			continue
		}
		if f.Size > maxBytes {
			warnings = append(warnings, fmt.Sprintf("%s skipped: exceeds %dMB limit", f.Filename, maxBytes/(1024*1024)))
			continue
		}
		contentType := f.Header.Get("Content-Type")
		if !allowedImageTypes[contentType] && !strings.HasPrefix(contentType, "image/") {
			warnings = append(warnings, fmt.Sprintf("%s skipped: not an image", f.Filename))
			continue
		}
		accepted = append(accepted, f)
	}
	return accepted, warnings
}

type createListingForm struct {
	Title        string  `form:"title" binding:"required"`
	Price        float64 `form:"price"`
	Category     string  `form:"category" binding:"required"`
	Description  string  `form:"description"`
	Location     string  `form:"location" binding:"required"`
	EmailAddress string  `form:"email_address" binding:"required"`
}

// CreateListing handles POST /api/listings (multipart). The listing document
// is created first; images are then uploaded and attached, so a failed image
// leaves a valid listing with fewer pictures rather than no listing.
func (h *ListingHandler) CreateListing(c *gin.Context) {
	userID, ok := c.MustGet(middleware.ContextKeyUserID).(utils.ShortID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var form createListingForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	input := services.NewListingInput{
		Title:        form.Title,
		Price:        form.Price,
		Category:     models.Category(form.Category),
		Description:  form.Description,
		Location:     form.Location,
		EmailAddress: form.EmailAddress,
	}
	// The form may carry the category as a slug rather than the label.
	if !input.Category.Valid() {
		if cat, ok := models.CategoryFromSlug(form.Category); ok {
			input.Category = cat
		}
	}

	listing, err := h.listingService.CreateListing(c.Request.Context(), userID, input)
	if err != nil {
		if errors.Is(err, services.ErrInvalidListing) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error creating listing: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create listing."})
		return
	}

	var files []*multipart.FileHeader
	if mpForm, err := c.MultipartForm(); err == nil && mpForm != nil {
		files = mpForm.File["images"]
	}

	accepted, warnings := partitionImages(files, h.cfg.MaxImagesPerListing, h.cfg.MaxImageSizeBytes())
	urls := h.uploadImages(c.Request.Context(), listing.PublicID, accepted, &warnings)

	if len(urls) > 0 {
		if err := h.listingService.SetImageURLs(c.Request.Context(), listing.PublicID, urls); err != nil {
			log.Printf("Error attaching images to listing %s: %v", listing.PublicID, err)
			warnings = append(warnings, "images uploaded but could not be attached to the listing")
		} else {
			listing.ImageURLs = urls
		}
	}

	resp := gin.H{"listing": listing}
	if len(warnings) > 0 {
		resp["warnings"] = warnings
	}
	c.JSON(http.StatusCreated, resp)
}

// uploadImages stores each accepted file, isolating per-file failures so one
// bad upload does not discard the rest.
func (h *ListingHandler) uploadImages(ctx context.Context, publicID string, files []*multipart.FileHeader, warnings *[]string) []string {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		src, err := f.Open()
		if err != nil {
			log.Printf("Error opening upload %s: %v", f.Filename, err)
			*warnings = append(*warnings, fmt.Sprintf("%s could not be read", f.Filename))
			continue
		}

		key := h.storage.ListingImageKey(publicID, f.Filename)
		url, err := h.storage.Upload(ctx, key, src, f.Header.Get("Content-Type"))
		src.Close()
		if err != nil {
			log.Printf("Error uploading image %s for listing %s: %v", f.Filename, publicID, err)
			*warnings = append(*warnings, fmt.Sprintf("%s could not be uploaded", f.Filename))
			continue
		}
		urls = append(urls, url)

		if h.enqueuer != nil {
			if err := h.enqueuer.EnqueueImageNormalize(ctx, key); err != nil {
				// Normalization is an optimization; the raw upload is usable.
				log.Printf("Failed to enqueue normalization for %s: %v", key, err)
			}
		}
	}
	return urls
}
