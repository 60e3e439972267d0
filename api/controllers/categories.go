package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/inkmint/inkmint-backend/api/responses"
	"github.com/inkmint/inkmint-backend/api/validators"
	category "github.com/inkmint/inkmint-backend/internal/categories"
	pkgerrors "github.com/inkmint/inkmint-backend/pkg/errors"
	"github.com/inkmint/inkmint-backend/pkg/logger"
)

// ListCategories serves the flat active category list. The nested view
// lives at /categories/tree.
func ListCategories(svc category.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		items, err := svc.ListCategories(ctx, false)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"categories": items})
	}
}

func CategoryTree(svc category.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		tree, err := svc.CategoryTree(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"tree": tree})
	}
}

func GetCategoryBySlug(svc category.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		if slug == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "slug required"))
			return
		}

		item, err := svc.GetCategoryBySlug(ctx, slug)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// AdminListCategories includes inactive categories.
func AdminListCategories(svc category.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		items, err := svc.ListCategories(ctx, true)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"categories": items})
	}
}

func AdminCreateCategory(svc category.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		var payload category.Input
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, err := svc.CreateCategory(ctx, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func AdminUpdateCategory(svc category.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		categoryID, err := pathUUID(r, "categoryID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload category.Input
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, err := svc.UpdateCategory(ctx, categoryID, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

func AdminDeleteCategory(svc category.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		categoryID, err := pathUUID(r, "categoryID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.DeleteCategory(ctx, categoryID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
