package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inkmint/inkmint-backend/api/responses"
	"github.com/inkmint/inkmint-backend/api/validators"
	product "github.com/inkmint/inkmint-backend/internal/products"
	pkgerrors "github.com/inkmint/inkmint-backend/pkg/errors"
	"github.com/inkmint/inkmint-backend/pkg/logger"
)

const maxPriceFilterCents = 100_000_000

// ListProducts serves the public catalog listing with optional
// category, search and price filters.
func ListProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		categoryID, err := validators.ParseQueryUUID(r, "category_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		filter := product.ListFilter{
			CategoryID: categoryID,
			Search:     strings.TrimSpace(r.URL.Query().Get("q")),
			ActiveOnly: true,
		}

		if minCents, err := validators.ParseQueryInt(r, "min_cents", -1, 0, maxPriceFilterCents); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		} else if minCents >= 0 {
			filter.MinCents = &minCents
		}
		if maxCents, err := validators.ParseQueryInt(r, "max_cents", -1, 0, maxPriceFilterCents); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		} else if maxCents >= 0 {
			filter.MaxCents = &maxCents
		}

		result, err := svc.ListProducts(ctx, filter, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"products":    result.Products,
			"next_cursor": result.NextCursor,
		})
	}
}

func GetProductBySlug(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		if slug == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "slug required"))
			return
		}

		item, err := svc.GetProductBySlug(ctx, slug)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

type variantPayload struct {
	Name               string `json:"name" validate:"required"`
	SKU                string `json:"sku" validate:"required"`
	PriceOverrideCents *int   `json:"price_override_cents,omitempty" validate:"omitempty,min=0"`
	PriceModifierCents int    `json:"price_modifier_cents"`
	StockQty           int    `json:"stock_qty" validate:"min=0"`
	IsActive           *bool  `json:"is_active,omitempty"`
}

func (p variantPayload) toInput() product.VariantInput {
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return product.VariantInput{
		Name:               p.Name,
		SKU:                p.SKU,
		PriceOverrideCents: p.PriceOverrideCents,
		PriceModifierCents: p.PriceModifierCents,
		StockQty:           p.StockQty,
		IsActive:           active,
	}
}

type createProductPayload struct {
	CategoryID        uuid.UUID        `json:"category_id" validate:"required"`
	SKU               string           `json:"sku" validate:"required"`
	Title             string           `json:"title" validate:"required"`
	Slug              string           `json:"slug" validate:"required"`
	Description       *string          `json:"description,omitempty"`
	BasePriceCents    int              `json:"base_price_cents" validate:"required,min=1"`
	SellingPriceCents *int             `json:"selling_price_cents,omitempty" validate:"omitempty,min=1"`
	IsActive          *bool            `json:"is_active,omitempty"`
	IsCustomizable    bool             `json:"is_customizable"`
	Tags              []string         `json:"tags,omitempty"`
	Variants          []variantPayload `json:"variants,omitempty" validate:"dive"`
}

// AdminCreateProduct adds a catalog entry, optionally with variants.
func AdminCreateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		var payload createProductPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		active := true
		if payload.IsActive != nil {
			active = *payload.IsActive
		}

		input := product.CreateProductInput{
			CategoryID:        payload.CategoryID,
			SKU:               payload.SKU,
			Title:             payload.Title,
			Slug:              payload.Slug,
			Description:       payload.Description,
			BasePriceCents:    payload.BasePriceCents,
			SellingPriceCents: payload.SellingPriceCents,
			IsActive:          active,
			IsCustomizable:    payload.IsCustomizable,
			Tags:              payload.Tags,
		}
		for _, variant := range payload.Variants {
			input.Variants = append(input.Variants, variant.toInput())
		}

		item, err := svc.CreateProduct(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

type updateProductPayload struct {
	CategoryID        *uuid.UUID `json:"category_id,omitempty"`
	SKU               *string    `json:"sku,omitempty"`
	Title             *string    `json:"title,omitempty"`
	Slug              *string    `json:"slug,omitempty"`
	Description       *string    `json:"description,omitempty"`
	BasePriceCents    *int       `json:"base_price_cents,omitempty" validate:"omitempty,min=1"`
	SellingPriceCents *int       `json:"selling_price_cents,omitempty" validate:"omitempty,min=1"`
	ClearSellingPrice bool       `json:"clear_selling_price,omitempty"`
	IsActive          *bool      `json:"is_active,omitempty"`
	IsCustomizable    *bool      `json:"is_customizable,omitempty"`
	Tags              *[]string  `json:"tags,omitempty"`
}

func AdminGetProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, err := svc.GetProduct(ctx, productID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

func AdminUpdateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateProductPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, err := svc.UpdateProduct(ctx, productID, product.UpdateProductInput{
			CategoryID:        payload.CategoryID,
			SKU:               payload.SKU,
			Title:             payload.Title,
			Slug:              payload.Slug,
			Description:       payload.Description,
			BasePriceCents:    payload.BasePriceCents,
			SellingPriceCents: payload.SellingPriceCents,
			ClearSellingPrice: payload.ClearSellingPrice,
			IsActive:          payload.IsActive,
			IsCustomizable:    payload.IsCustomizable,
			Tags:              payload.Tags,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

func AdminDeleteProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.DeleteProduct(ctx, productID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func AdminAddVariant(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload variantPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		variant, err := svc.AddVariant(ctx, productID, payload.toInput())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, variant)
	}
}

func AdminUpdateVariant(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		variantID, err := pathUUID(r, "variantID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload variantPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		variant, err := svc.UpdateVariant(ctx, variantID, payload.toInput())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, variant)
	}
}

func AdminDeleteVariant(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		variantID, err := pathUUID(r, "variantID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.DeleteVariant(ctx, variantID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
