package models

import "strings"

// Category is the closed set of listing categories. The stored value is the
// human-readable label; routes and query parameters carry the slug form.
type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryVehicles    Category = "Vehicles"
	CategoryFurniture   Category = "Furniture"
	CategoryClothing    Category = "Clothing & Accessories"
	CategoryHomeGarden  Category = "Home & Garden"
	CategorySports      Category = "Sports & Outdoors"
	CategoryToysGames   Category = "Toys & Games"
	CategoryBooksMedia  Category = "Books & Media"
	CategoryFreeStuff   Category = "Free Stuff"
)

// CategoryInfo is the display metadata attached to every category.
type CategoryInfo struct {
	Label string `json:"label"`
	Slug  string `json:"slug"`
	Icon  string `json:"icon"`
}

// categoryIcons is total over the enum; Info falls back to nothing because
// every declared category must appear here.
var categoryIcons = map[Category]string{
	CategoryElectronics: "cpu",
	CategoryVehicles:    "car",
	CategoryFurniture:   "sofa",
	CategoryClothing:    "shirt",
	CategoryHomeGarden:  "flower",
	CategorySports:      "dumbbell",
	CategoryToysGames:   "gamepad",
	CategoryBooksMedia:  "book-open",
	CategoryFreeStuff:   "gift",
}

// Categories returns the full enum in display order.
func Categories() []Category {
	return []Category{
		CategoryElectronics,
		CategoryVehicles,
		CategoryFurniture,
		CategoryClothing,
		CategoryHomeGarden,
		CategorySports,
		CategoryToysGames,
		CategoryBooksMedia,
		CategoryFreeStuff,
	}
}

// Valid reports whether c is one of the declared categories.
func (c Category) Valid() bool {
	_, ok := categoryIcons[c]
	return ok
}

// Slug returns the URL-safe form of the category label.
func (c Category) Slug() string {
	return Slugify(string(c))
}

// Info returns the display metadata for the category.
func (c Category) Info() CategoryInfo {
	return CategoryInfo{
		Label: string(c),
		Slug:  c.Slug(),
		Icon:  categoryIcons[c],
	}
}

// CategoryFromSlug resolves a request slug back to the canonical category.
// An unknown slug is not an error for callers; it simply matches no listings.
func CategoryFromSlug(slug string) (Category, bool) {
	for _, c := range Categories() {
		if c.Slug() == slug {
			return c, true
		}
	}
	return "", false
}

// Slugify normalizes a label to its URL-safe slug: lowercase, "&" spelled out
// as "and", and every other run of non-alphanumerics collapsed to a single
// hyphen. Matching on slugs keeps case or punctuation differences between the
// stored label and the request from causing false negatives.
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "&", " and ")

	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for _, r := range s {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			if b.Len() > 0 {
				pendingHyphen = true
			}
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
