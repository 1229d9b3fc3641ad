package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/symposium-registry/internal/models"
)

type contextKey string

const variantContextKey contextKey = "registration_variant"

// VariantFromContext extracts the registration variant parsed from the URL
func VariantFromContext(ctx context.Context) models.Variant {
	v, _ := ctx.Value(variantContextKey).(models.Variant)
	return v
}

// ContextWithVariant adds the registration variant to context
func ContextWithVariant(ctx context.Context, v models.Variant) context.Context {
	return context.WithValue(ctx, variantContextKey, v)
}

// variantMiddleware parses the {variant} URL parameter
func variantMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, err := models.ParseVariant(chi.URLParam(r, "variant"))
		if err != nil {
			respondError(w, http.StatusNotFound, "unknown_variant", err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithVariant(r.Context(), v)))
	})
}
