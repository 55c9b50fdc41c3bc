package state

import (
	"context"
)

const (
	CurrentUserId = "CurrentUserId"
	CurrentUserIP = "CurrentIP"
	RequestID     = "RequestID"
)

// CurrentUser returns the authenticated tenant id, or 0. It works on a
// *gin.Context as well as on contexts built with SetCurrentUser.
func CurrentUser(ctx context.Context) uint {
	value := ctx.Value(CurrentUserId)
	if value == nil {
		return 0
	}

	userID, ok := value.(uint)
	if !ok {
		return 0
	}

	return userID
}

func SetCurrentUser(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, CurrentUserId, userID)
}
