package address

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkmint/inkmint-backend/pkg/db/models"
	pkgerrors "github.com/inkmint/inkmint-backend/pkg/errors"
	"github.com/inkmint/inkmint-backend/pkg/types"
)

// Input is the payload for creating or replacing a saved address.
type Input struct {
	Name       string  `json:"name" validate:"required"`
	Line1      string  `json:"line1" validate:"required"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city" validate:"required"`
	State      string  `json:"state" validate:"required"`
	PostalCode string  `json:"postal_code" validate:"required"`
	Country    string  `json:"country,omitempty"`
	Phone      string  `json:"phone" validate:"required"`
	IsDefault  bool    `json:"is_default"`
}

// Service manages a user's saved shipping addresses. Every operation
// is scoped to the owning user; a foreign address reads as not found.
type Service interface {
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	GetAddress(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
	CreateAddress(ctx context.Context, userID uuid.UUID, input Input) (*models.Address, error)
	UpdateAddress(ctx context.Context, userID, addressID uuid.UUID, input Input) (*models.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error
	SetDefaultAddress(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
}

type addressStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	FindForUser(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
	Create(ctx context.Context, addr *models.Address) (*models.Address, error)
	Update(ctx context.Context, addr *models.Address) (*models.Address, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
	ClearDefault(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo addressStore
}

// NewService constructs an address service instance.
func NewService(repo addressStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	addresses, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing addresses")
	}
	return addresses, nil
}

func (s *service) GetAddress(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	addr, err := s.repo.FindForUser(ctx, userID, addressID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading address")
	}
	return addr, nil
}

func (s *service) CreateAddress(ctx context.Context, userID uuid.UUID, input Input) (*models.Address, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.IsDefault {
		if err := s.repo.ClearDefault(ctx, userID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing default address")
		}
	}

	addr := &models.Address{UserID: userID}
	applyInput(addr, input)
	created, err := s.repo.Create(ctx, addr)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating address")
	}
	return created, nil
}

func (s *service) UpdateAddress(ctx context.Context, userID, addressID uuid.UUID, input Input) (*models.Address, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	addr, err := s.GetAddress(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}
	if input.IsDefault && !addr.IsDefault {
		if err := s.repo.ClearDefault(ctx, userID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing default address")
		}
	}

	applyInput(addr, input)
	updated, err := s.repo.Update(ctx, addr)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating address")
	}
	return updated, nil
}

func (s *service) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	if _, err := s.GetAddress(ctx, userID, addressID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, addressID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting address")
	}
	return nil
}

func (s *service) SetDefaultAddress(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	addr, err := s.GetAddress(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}
	if addr.IsDefault {
		return addr, nil
	}
	if err := s.repo.ClearDefault(ctx, userID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing default address")
	}

	addr.IsDefault = true
	updated, err := s.repo.Update(ctx, addr)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating default address")
	}
	return updated, nil
}

func validateInput(input Input) error {
	shippable := types.Address{
		Name:       input.Name,
		Line1:      input.Line1,
		City:       input.City,
		State:      input.State,
		PostalCode: input.PostalCode,
	}
	if err := shippable.Validate(); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient name is required")
	}
	if strings.TrimSpace(input.Phone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "contact phone is required")
	}
	return nil
}

func applyInput(addr *models.Address, input Input) {
	addr.Name = strings.TrimSpace(input.Name)
	addr.Line1 = strings.TrimSpace(input.Line1)
	addr.Line2 = input.Line2
	addr.City = strings.TrimSpace(input.City)
	addr.State = strings.TrimSpace(input.State)
	addr.PostalCode = strings.TrimSpace(input.PostalCode)
	addr.Phone = strings.TrimSpace(input.Phone)
	addr.IsDefault = input.IsDefault
	if country := strings.TrimSpace(input.Country); country != "" {
		addr.Country = country
	} else if addr.Country == "" {
		addr.Country = "IN"
	}
}
