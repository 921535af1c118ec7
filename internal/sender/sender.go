package sender

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Oldhoon/accessible-journeys/internal/domain"
)

// Sender delivers an emergency notification through one channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, notification *domain.Notification) error
}

// AlertMessage renders the text sent to a contact.
func AlertMessage(userID string, loc *domain.Coordinates) string {
	if loc == nil {
		return fmt.Sprintf("Emergency alert from %s. Location unavailable.", userID)
	}
	return fmt.Sprintf("Emergency alert from %s. Last known location: %s,%s",
		userID,
		strconv.FormatFloat(loc.Lat, 'f', 6, 64),
		strconv.FormatFloat(loc.Lng, 'f', 6, 64),
	)
}
