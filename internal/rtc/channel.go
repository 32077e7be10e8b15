package rtc

import (
	"fmt"

	"github.com/google/uuid"
)

// Namespace for name-based channel UUIDs. Changing it would strand active
// rooms, so it is fixed for the lifetime of the product.
var channelNamespace = uuid.MustParse("9b1f5c3e-2a74-4a14-8c5d-6f0e9d2b7a41")

// ChannelName derives the room channel for a session. It depends on the
// session id alone, so both participants land on the same channel no matter
// when they join.
func ChannelName(sessionID int64) string {
	name := uuid.NewSHA1(channelNamespace, []byte(fmt.Sprintf("session:%d", sessionID)))
	return "room-" + name.String()
}
