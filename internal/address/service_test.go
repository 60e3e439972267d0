package address

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/inkmint/inkmint-backend/pkg/db/models"
	pkgerrors "github.com/inkmint/inkmint-backend/pkg/errors"
)

type fakeAddressStore struct {
	byID map[uuid.UUID]*models.Address
}

func newFakeAddressStore() *fakeAddressStore {
	return &fakeAddressStore{byID: map[uuid.UUID]*models.Address{}}
}

func (f *fakeAddressStore) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Address, error) {
	var out []models.Address
	for _, addr := range f.byID {
		if addr.UserID == userID {
			out = append(out, *addr)
		}
	}
	return out, nil
}

func (f *fakeAddressStore) FindForUser(_ context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	addr, ok := f.byID[addressID]
	if !ok || addr.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *addr
	return &copied, nil
}

func (f *fakeAddressStore) Create(_ context.Context, addr *models.Address) (*models.Address, error) {
	addr.ID = uuid.New()
	f.byID[addr.ID] = addr
	return addr, nil
}

func (f *fakeAddressStore) Update(_ context.Context, addr *models.Address) (*models.Address, error) {
	f.byID[addr.ID] = addr
	return addr, nil
}

func (f *fakeAddressStore) Delete(_ context.Context, userID, addressID uuid.UUID) error {
	if addr, ok := f.byID[addressID]; ok && addr.UserID == userID {
		delete(f.byID, addressID)
	}
	return nil
}

func (f *fakeAddressStore) ClearDefault(_ context.Context, userID uuid.UUID) error {
	for _, addr := range f.byID {
		if addr.UserID == userID {
			addr.IsDefault = false
		}
	}
	return nil
}

func validInput() Input {
	return Input{
		Name:       "Asha Rao",
		Line1:      "12 MG Road",
		City:       "Bengaluru",
		State:      "KA",
		PostalCode: "560001",
		Phone:      "+919900000000",
	}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected coded error, got %v", err)
	require.Equal(t, code, typed.Code())
}

func TestCreateAddressDefaultsCountry(t *testing.T) {
	svc, err := NewService(newFakeAddressStore())
	require.NoError(t, err)

	addr, err := svc.CreateAddress(context.Background(), uuid.New(), validInput())
	require.NoError(t, err)
	require.Equal(t, "IN", addr.Country)
}

func TestCreateAddressValidatesShippableFields(t *testing.T) {
	svc, err := NewService(newFakeAddressStore())
	require.NoError(t, err)

	input := validInput()
	input.Line1 = "  "
	_, err = svc.CreateAddress(context.Background(), uuid.New(), input)
	requireCode(t, err, pkgerrors.CodeValidation)

	input = validInput()
	input.Phone = ""
	_, err = svc.CreateAddress(context.Background(), uuid.New(), input)
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestSetDefaultAddressClearsPrevious(t *testing.T) {
	store := newFakeAddressStore()
	svc, err := NewService(store)
	require.NoError(t, err)

	userID := uuid.New()
	ctx := context.Background()

	input := validInput()
	input.IsDefault = true
	first, err := svc.CreateAddress(ctx, userID, input)
	require.NoError(t, err)
	require.True(t, first.IsDefault)

	second, err := svc.CreateAddress(ctx, userID, validInput())
	require.NoError(t, err)

	promoted, err := svc.SetDefaultAddress(ctx, userID, second.ID)
	require.NoError(t, err)
	require.True(t, promoted.IsDefault)
	require.False(t, store.byID[first.ID].IsDefault, "previous default is cleared")
}

func TestAddressOwnershipReadsAsNotFound(t *testing.T) {
	store := newFakeAddressStore()
	svc, err := NewService(store)
	require.NoError(t, err)

	owner := uuid.New()
	addr, err := svc.CreateAddress(context.Background(), owner, validInput())
	require.NoError(t, err)

	_, err = svc.GetAddress(context.Background(), uuid.New(), addr.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)

	err = svc.DeleteAddress(context.Background(), uuid.New(), addr.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)
	require.Contains(t, store.byID, addr.ID, "foreign delete leaves the row")
}
