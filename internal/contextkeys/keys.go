package contextkeys

import (
	"context"

	"github.com/Essorvi/tgbeta-v8/types"
)

type contextKey string

const (
	userKey         contextKey = "user"
	updateKindKey   contextKey = "update_kind"
	callbackDataKey contextKey = "callback_data"
)

// UpdateKind classifies an incoming update once, in middleware, so the
// main handler switches on a closed set instead of re-inspecting the
// update shape.
type UpdateKind int

const (
	KindUnknown UpdateKind = iota
	KindMessage
	KindCallback
	KindPreCheckout
	KindSettlement
)

func WithUser(ctx context.Context, user *types.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func GetUser(ctx context.Context) (*types.User, bool) {
	user, ok := ctx.Value(userKey).(*types.User)
	return user, ok
}

func WithUpdateKind(ctx context.Context, kind UpdateKind) context.Context {
	return context.WithValue(ctx, updateKindKey, kind)
}

func GetUpdateKind(ctx context.Context) UpdateKind {
	kind, ok := ctx.Value(updateKindKey).(UpdateKind)
	if !ok {
		return KindUnknown
	}
	return kind
}

func WithCallbackData(ctx context.Context, data string) context.Context {
	return context.WithValue(ctx, callbackDataKey, data)
}

func GetCallbackData(ctx context.Context) string {
	data, _ := ctx.Value(callbackDataKey).(string)
	return data
}
