package service

import (
	"fmt"
	"math/rand"
	"time"
)

// ticketRefAttempts caps the allocator retry loop. Collisions on a
// 36^5 suffix space are rare enough that hitting the cap signals
// something systemically wrong rather than bad luck.
const ticketRefAttempts = 10

const (
	refSuffixLen = 5
	refCharset   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	refDateLayout = "20060102"
)

// newTicketRef produces a candidate business identifier of the form
// TKT-YYYYMMDD-XXXXX with a random uppercase alphanumeric suffix.
func newTicketRef(now time.Time) string {
	suffix := make([]byte, refSuffixLen)
	for i := range suffix {
		suffix[i] = refCharset[rand.Intn(len(refCharset))]
	}
	return fmt.Sprintf("TKT-%s-%s", now.UTC().Format(refDateLayout), suffix)
}
