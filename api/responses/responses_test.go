package responses

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/inkmint/inkmint-backend/pkg/errors"
	"github.com/inkmint/inkmint-backend/pkg/types"
)

func TestWriteSuccessWrapsData(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"status": "ok"})

	require.Equal(t, 200, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var envelope types.SuccessEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, map[string]any{"status": "ok"}, envelope.Data)
}

func TestWriteErrorUsesCodeMetadata(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))

	require.Equal(t, 404, rec.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "NOT_FOUND", envelope.Error.Code)
	require.Equal(t, "order not found", envelope.Error.Message)
}

func TestWriteErrorHidesInternalMessages(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeInternal, "pg connection refused on 10.0.0.3"))

	require.Equal(t, 500, rec.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "internal server error", envelope.Error.Message)
}

func TestWriteErrorSurfacesVerificationGuidance(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec,
		pkgerrors.New(pkgerrors.CodeVerification, "payment signature mismatch, contact support if any amount was deducted"))

	require.Equal(t, 402, rec.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Contains(t, envelope.Error.Message, "contact support")
}

func TestWriteErrorWrapsUntypedErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, context.DeadlineExceeded)

	require.Equal(t, 500, rec.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "INTERNAL_ERROR", envelope.Error.Code)
}
