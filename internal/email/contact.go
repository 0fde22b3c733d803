package email

import (
	"fmt"
	"strings"
)

// ContactSubject builds the subject line for a buyer enquiry email.
func ContactSubject(listingTitle string) string {
	return fmt.Sprintf("Interest in your listing: %s", listingTitle)
}

// BuildContactMessage assembles the complete raw email for a buyer enquiry,
// headers included. Reply-To points at the buyer so the seller can respond
// directly.
func BuildContactMessage(from, to, buyerEmail, listingTitle, body, itemURL string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Reply-To: %s\r\n", buyerEmail)
	fmt.Fprintf(&b, "Subject: %s\r\n", ContactSubject(listingTitle))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "You have a new message from %s regarding your listing.\r\n\r\n", buyerEmail)
	fmt.Fprintf(&b, "Message:\r\n%s\r\n\r\n", body)
	fmt.Fprintf(&b, "View the item here:\r\n%s\r\n", itemURL)
	return []byte(b.String())
}
