package services

import (
	"context"

	"go.uber.org/zap"

	"pharmacy-storefront/common/logger"
	"pharmacy-storefront/models"
	"pharmacy-storefront/repository"
)

// AddressService defines the current user's address book.
type AddressService interface {
	ListAddresses(ctx context.Context, userID int64) ([]models.Address, *ServiceError)
	AddAddress(ctx context.Context, userID int64, addr *models.Address) (*models.Address, *ServiceError)
}

type addressServiceImpl struct {
	users  repository.UserRepository
	logger *zap.Logger
}

func NewAddressService(users repository.UserRepository, logger *zap.Logger) AddressService {
	return &addressServiceImpl{users: users, logger: logger}
}

func (s *addressServiceImpl) ListAddresses(ctx context.Context, userID int64) ([]models.Address, *ServiceError) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, unauthorized("Unauthorized")
	}
	if user.Addresses == nil {
		return []models.Address{}, nil
	}
	return user.Addresses, nil
}

// AddAddress stores a new address; see repository.UserRepository.AddAddress
// for how the default flag is kept unique.
func (s *addressServiceImpl) AddAddress(ctx context.Context, userID int64, addr *models.Address) (*models.Address, *ServiceError) {
	created, err := s.users.AddAddress(ctx, userID, *addr)
	if err != nil {
		return nil, unauthorized("Unauthorized")
	}
	logger.For(ctx, s.logger).Info("Address added", zap.Int64("user_id", userID), zap.Int64("address_id", created.ID), zap.Bool("default", created.IsDefault))
	return &created, nil
}
