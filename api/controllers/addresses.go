package controllers

import (
	"net/http"

	"github.com/inkmint/inkmint-backend/api/responses"
	"github.com/inkmint/inkmint-backend/api/validators"
	address "github.com/inkmint/inkmint-backend/internal/address"
	pkgerrors "github.com/inkmint/inkmint-backend/pkg/errors"
	"github.com/inkmint/inkmint-backend/pkg/logger"
)

func ListAddresses(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := currentUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		items, err := svc.ListAddresses(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"addresses": items})
	}
}

func CreateAddress(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := currentUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload address.Input
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, err := svc.CreateAddress(ctx, userID, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func UpdateAddress(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := currentUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		addressID, err := pathUUID(r, "addressID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload address.Input
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, err := svc.UpdateAddress(ctx, userID, addressID, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

func DeleteAddress(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := currentUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		addressID, err := pathUUID(r, "addressID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.DeleteAddress(ctx, userID, addressID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func SetDefaultAddress(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := currentUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		addressID, err := pathUUID(r, "addressID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, err := svc.SetDefaultAddress(ctx, userID, addressID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}
