package models

// User is an authenticated account. The bcrypt hash never leaves the server.
type User struct {
	Base         `bson:",inline"`
	Email        string `bson:"email" json:"email"`
	PasswordHash string `bson:"password_hash" json:"-"`
	DisplayName  string `bson:"display_name" json:"display_name"`
}
