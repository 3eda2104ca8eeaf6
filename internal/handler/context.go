package handler

import (
	"net/http"

	"mobileservice-backend/internal/domain"
	"mobileservice-backend/internal/server/authctx"
)

func currentActor(r *http.Request) *domain.Actor {
	u := authctx.FromContext(r.Context())
	if u == nil {
		return nil
	}
	return &domain.Actor{ID: &u.ID, Email: u.Email}
}

// currentShopID is only called behind RequireShop, so a missing shop id
// means a routing bug; 0 never matches a real shop.
func currentShopID(r *http.Request) int64 {
	u := authctx.FromContext(r.Context())
	if u == nil || u.ShopID == nil {
		return 0
	}
	return *u.ShopID
}

func currentUserID(r *http.Request) int64 {
	u := authctx.FromContext(r.Context())
	if u == nil {
		return 0
	}
	return u.ID
}

func currentActorID(r *http.Request) *int64 {
	u := authctx.FromContext(r.Context())
	if u == nil {
		return nil
	}
	id := u.ID
	return &id
}
