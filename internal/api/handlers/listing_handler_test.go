package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Ralph2001/marketplace/internal/api/middleware"
	"github.com/Ralph2001/marketplace/internal/config"
	"github.com/Ralph2001/marketplace/internal/models"
	"github.com/Ralph2001/marketplace/internal/services"
	"github.com/Ralph2001/marketplace/internal/utils"
)

func handlerTestConfig() *config.Config {
	return &config.Config{
		DefaultPageSize:     10,
		MaxPageSize:         100,
		InboxSize:           5,
		MaxImagesPerListing: 10,
		MaxImageSizeMB:      5,
		AppURL:              "http://localhost:3000",
		JWTSecret:           "test-secret",
	}
}

func setupListingRouter(listings *MockListingService, messages *MockMessageService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewListingHandler(handlerTestConfig(), listings, messages, new(MockStorage), new(MockEnqueuer))

	r := gin.New()
	r.GET("/api/listings", h.ListListings)
	r.GET("/api/items/:publicId", h.GetItem)
	r.GET("/api/items/:publicId/contact-state", h.GetContactState)
	r.GET("/api/categories", h.ListCategories)
	return r
}

func TestListListings_PassesFilterAndPaging(t *testing.T) {
	listings := new(MockListingService)
	r := setupListingRouter(listings, new(MockMessageService))

	expected := []models.ListingSummary{{ID: "ABC123XYZ0", Title: "Lamp"}}
	listings.On("ListListings", mock.Anything,
		services.ListFilter{CategorySlug: "furniture", Search: "lamp"}, 10, 10,
	).Return(expected, nil).Once()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/listings?category=furniture&search=lamp&offset=10&limit=10", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got []models.ListingSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, expected, got)
	listings.AssertExpectations(t)
}

func TestListListings_PageParamTranslatesToOffset(t *testing.T) {
	listings := new(MockListingService)
	r := setupListingRouter(listings, new(MockMessageService))

	listings.On("ListListings", mock.Anything, services.ListFilter{}, 20, 10).
		Return([]models.ListingSummary{}, nil).Once()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/listings?page=3&limit=10", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	listings.AssertExpectations(t)
}

func TestListListings_ServiceError(t *testing.T) {
	listings := new(MockListingService)
	r := setupListingRouter(listings, new(MockMessageService))

	listings.On("ListListings", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("db down")).Once()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/listings", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch listings."}`, w.Body.String())
}

func TestGetItem_NotFoundIsServerError(t *testing.T) {
	listings := new(MockListingService)
	r := setupListingRouter(listings, new(MockMessageService))

	listings.On("FindByPublicID", mock.Anything, "MISSING000").
		Return(nil, services.ErrListingNotFound).Once()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/items/MISSING000", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetContactState_Anonymous(t *testing.T) {
	messages := new(MockMessageService)
	r := setupListingRouter(new(MockListingService), messages)

	messages.On("HasContacted", mock.Anything, "ABC123XYZ0", "").Return(false, nil).Once()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/items/ABC123XYZ0/contact-state", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"contacted":false}`, w.Body.String())
}

func TestListCategories(t *testing.T) {
	r := setupListingRouter(new(MockListingService), new(MockMessageService))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/categories", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got []models.CategoryInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got, len(models.Categories()))
	assert.Equal(t, "electronics", got[0].Slug)
}

func fileHeader(filename, contentType string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{
		Filename: filename,
		Size:     size,
		Header:   textproto.MIMEHeader{"Content-Type": []string{contentType}},
	}
}

func TestPartitionImages(t *testing.T) {
	maxBytes := int64(5 * 1024 * 1024)
	var files []*multipart.FileHeader
	for i := 0; i < 12; i++ {
		files = append(files, fileHeader("ok.jpg", "image/jpeg", 1024))
	}

	accepted, warnings := partitionImages(files, 10, maxBytes)
	assert.Len(t, accepted, 10, "first files up to the cap are accepted")
	assert.Len(t, warnings, 2, "one warning per skipped file")
}

func TestPartitionImages_SkipsBadFilesIndividually(t *testing.T) {
	maxBytes := int64(5 * 1024 * 1024)
	files := []*multipart.FileHeader{
		fileHeader("good.jpg", "image/jpeg", 1024),
		fileHeader("huge.jpg", "image/jpeg", maxBytes+1),
		fileHeader("notes.pdf", "application/pdf", 1024),
		fileHeader("also-good.png", "image/png", 2048),
	}

	accepted, warnings := partitionImages(files, 10, maxBytes)
	require.Len(t, accepted, 2)
	assert.Equal(t, "good.jpg", accepted[0].Filename)
	assert.Equal(t, "also-good.png", accepted[1].Filename)
	assert.Len(t, warnings, 2)
}

func TestCreateListing_AcceptsCategorySlug(t *testing.T) {
	gin.SetMode(gin.TestMode)
	listings := new(MockListingService)
	h := NewListingHandler(handlerTestConfig(), listings, new(MockMessageService), new(MockStorage), new(MockEnqueuer))

	r := gin.New()
	// Simulate an authenticated seller.
	userID := utils.NewShortID()
	r.POST("/api/listings", func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, userID)
	}, h.CreateListing)

	created := &models.Listing{PublicID: "NEWITEM000", Title: "Lamp"}
	listings.On("CreateListing", mock.Anything, userID, mock.MatchedBy(func(in services.NewListingInput) bool {
		return in.Title == "Lamp" && in.Category == models.CategoryFurniture
	})).Return(created, nil).Once()

	form := url.Values{
		"title":         {"Lamp"},
		"price":         {"25"},
		"category":      {"furniture"},
		"location":      {"Springfield"},
		"email_address": {"seller@example.com"},
	}
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/listings", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	listings.AssertExpectations(t)
}

func addImagePart(t *testing.T, mw *multipart.Writer, filename, contentType string, data []byte) {
	t.Helper()
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
}

func TestCreateListing_UploadFailureIsPartial(t *testing.T) {
	gin.SetMode(gin.TestMode)
	listings := new(MockListingService)
	store := new(MockStorage)
	enqueuer := new(MockEnqueuer)
	h := NewListingHandler(handlerTestConfig(), listings, new(MockMessageService), store, enqueuer)

	r := gin.New()
	userID := utils.NewShortID()
	r.POST("/api/listings", func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, userID)
	}, h.CreateListing)

	created := &models.Listing{PublicID: "NEWITEM000", Title: "Lamp"}
	listings.On("CreateListing", mock.Anything, userID, mock.Anything).Return(created, nil).Once()

	store.On("ListingImageKey", "NEWITEM000", "a.jpg").Return("listings/NEWITEM000/a.jpg").Once()
	store.On("ListingImageKey", "NEWITEM000", "b.jpg").Return("listings/NEWITEM000/b.jpg").Once()
	store.On("Upload", mock.Anything, "listings/NEWITEM000/a.jpg", mock.Anything, "image/jpeg").
		Return("https://img.test/a.jpg", nil).Once()
	// The second upload dies; the first must still be attached.
	store.On("Upload", mock.Anything, "listings/NEWITEM000/b.jpg", mock.Anything, "image/jpeg").
		Return("", errors.New("s3 down")).Once()
	enqueuer.On("EnqueueImageNormalize", mock.Anything, "listings/NEWITEM000/a.jpg").Return(nil).Once()
	listings.On("SetImageURLs", mock.Anything, "NEWITEM000", []string{"https://img.test/a.jpg"}).Return(nil).Once()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "Lamp"))
	require.NoError(t, mw.WriteField("price", "25"))
	require.NoError(t, mw.WriteField("category", "furniture"))
	require.NoError(t, mw.WriteField("location", "Springfield"))
	require.NoError(t, mw.WriteField("email_address", "seller@example.com"))
	addImagePart(t, mw, "a.jpg", "image/jpeg", []byte("jpeg-bytes-a"))
	addImagePart(t, mw, "b.jpg", "image/jpeg", []byte("jpeg-bytes-b"))
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/listings", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, "one bad upload must not fail the create")
	var resp struct {
		Listing  models.Listing `json:"listing"`
		Warnings []string       `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"https://img.test/a.jpg"}, resp.Listing.ImageURLs)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "b.jpg")

	listings.AssertExpectations(t)
	store.AssertExpectations(t)
	enqueuer.AssertExpectations(t)
}
