package models

import "github.com/Ralph2001/marketplace/internal/utils"

// Listing is a marketplace item offered for sale. PublicID is the identifier
// carried in URLs and API responses; the internal _id stays private.
type Listing struct {
	Base         `bson:",inline"`
	PublicID     string        `bson:"public_id" json:"id"`
	UserID       utils.ShortID `bson:"user_id" json:"-"`
	Title        string        `bson:"title" json:"title"`
	Price        float64       `bson:"price" json:"price"`
	Category     Category      `bson:"category" json:"category"`
	Description  string        `bson:"description" json:"description"`
	Location     string        `bson:"location" json:"location"`
	EmailAddress string        `bson:"email_address" json:"email_address"`
	ImageURLs    []string      `bson:"image_urls" json:"image_urls"`
}

// ListingSummary is the feed-card projection of a listing.
type ListingSummary struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Price     float64  `json:"price"`
	Category  Category `json:"category"`
	Location  string   `json:"location"`
	ImageURLs []string `json:"image_urls"`
}

// Summary projects the listing to its feed-card form.
func (l *Listing) Summary() ListingSummary {
	return ListingSummary{
		ID:        l.PublicID,
		Title:     l.Title,
		Price:     l.Price,
		Category:  l.Category,
		Location:  l.Location,
		ImageURLs: l.ImageURLs,
	}
}
