package models

// Message is one buyer-to-seller contact about a listing. A copy is always
// persisted, whether or not the notification email went out.
type Message struct {
	Base         `bson:",inline"`
	ListingID    string `bson:"listing_id" json:"listing_id"`
	ListingTitle string `bson:"listing_title" json:"listing_title"`
	SellerEmail  string `bson:"seller_email" json:"seller_email"`
	BuyerEmail   string `bson:"buyer_email" json:"buyer_email"`
	Body         string `bson:"message" json:"message"`
}
