package controllers

import (
	"net/http"

	"github.com/roorreach/marketplace-backend/api/middleware"
	pkgerrors "github.com/roorreach/marketplace-backend/pkg/errors"
	"github.com/roorreach/marketplace-backend/pkg/types"
)

func requireActor(r *http.Request) (types.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return types.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return actor, nil
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}
