package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	require.Equal(t, http.StatusBadRequest, MetadataFor(CodeValidation).HTTPStatus)
	require.Equal(t, http.StatusPaymentRequired, MetadataFor(CodeVerification).HTTPStatus)
	require.Equal(t, http.StatusBadGateway, MetadataFor(CodeGateway).HTTPStatus)
	require.True(t, MetadataFor(CodeGateway).Retryable)
	require.False(t, MetadataFor(CodeVerification).Retryable)
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("BOGUS"))
	require.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("db down")
	err := Wrap(CodeDependency, cause, "load cart")

	require.Equal(t, CodeDependency, err.Code())
	require.Equal(t, "load cart", err.Message())
	require.ErrorIs(t, err, cause)
}

func TestAsUnwrapsNestedError(t *testing.T) {
	inner := New(CodeNotFound, "coupon not found")
	outer := fmt.Errorf("validate coupon: %w", inner)

	typed := As(outer)
	require.NotNil(t, typed)
	require.Equal(t, CodeNotFound, typed.Code())
}

func TestAsReturnsNilForPlainErrors(t *testing.T) {
	require.Nil(t, As(fmt.Errorf("plain")))
	require.Nil(t, As(nil))
}

func TestDumpCollectsChain(t *testing.T) {
	inner := New(CodeConflict, "duplicate order")
	outer := fmt.Errorf("materialize: %w", inner)

	dump := Dump(outer)
	require.Equal(t, CodeConflict, dump.Code)
	require.Len(t, dump.Chain, 2)
	require.Contains(t, dump.TopMessage, "materialize")
}
