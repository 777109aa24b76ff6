package service

import (
	"context"
	"errors"
	"time"

	rentalserrors "bikerent/internal/rentals/errors"
	"bikerent/internal/rentals/metrics"
	"bikerent/internal/rentals/repository"
	"bikerent/internal/rentals/validator"
	apperrors "bikerent/pkg/errors"
	"bikerent/pkg/logger"
	"bikerent/pkg/model"
	"bikerent/pkg/sanitizer"

	"golang.org/x/sync/errgroup"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

type RentalService interface {
	Create(ctx context.Context, req *model.RentalRequest) (*model.Rental, error)
	Return(ctx context.Context, id string, req *model.ReturnRequest) (*model.Rental, error)
	GetByID(ctx context.Context, id string) (*model.Rental, error)
	Search(ctx context.Context, filter model.RentalFilter, limit int, offset int64) ([]*model.Rental, int64, error)
	ListByRenter(ctx context.Context, renterID string, limit int, offset int64) ([]*model.Rental, int64, error)
}

type rentalService struct {
	rentals   repository.RentalRepository
	directory repository.DirectoryRepository
	validator *validator.RentalValidator
	guard     *ReservationGuard
	returns   *ReturnProcessor
	log       *logger.Logger
	now       func() time.Time
}

func NewRentalService(
	rentals repository.RentalRepository,
	directory repository.DirectoryRepository,
	validator *validator.RentalValidator,
	log *logger.Logger,
) RentalService {
	return &rentalService{
		rentals:   rentals,
		directory: directory,
		validator: validator,
		guard:     NewReservationGuard(rentals, log),
		returns:   NewReturnProcessor(rentals, directory, log),
		log:       log,
		now:       time.Now,
	}
}

func (s *rentalService) Create(ctx context.Context, req *model.RentalRequest) (*model.Rental, error) {
	rental, err := s.create(ctx, req)
	metrics.RentalsCreated.WithLabelValues(metrics.Outcome(err)).Inc()
	return rental, err
}

func (s *rentalService) create(ctx context.Context, req *model.RentalRequest) (*model.Rental, error) {
	req.Serial = sanitizer.NormalizeSerial(req.Serial)
	req.TaxID = sanitizer.NormalizeTaxID(req.TaxID)
	req.ContactEmail = sanitizer.NormalizeEmail(req.ContactEmail)

	if err := s.validator.ValidateRequest(req); err != nil {
		s.log.Warn("Rental validation failed",
			"serial", req.Serial,
			"error", err,
		)
		return nil, validationError("Rental validation failed", err)
	}

	asset, err := s.directory.FindAssetBySerial(ctx, req.Serial)
	if err != nil {
		if errors.Is(err, rentalserrors.ErrAssetNotFound) {
			return nil, apperrors.NotFound("Asset").WithDetails(map[string]any{"serial": req.Serial})
		}
		return nil, apperrors.Internal("Failed to look up asset", err)
	}

	renter, err := s.directory.FindRenterByTaxID(ctx, req.TaxID)
	if err != nil {
		if errors.Is(err, rentalserrors.ErrRenterNotFound) {
			return nil, apperrors.NotFound("Renter").WithDetails(map[string]any{"tax_id": req.TaxID})
		}
		return nil, apperrors.Internal("Failed to look up renter", err)
	}

	start := s.now().UTC()
	rental := &model.Rental{
		AssetID:          asset.ID,
		AssetSerial:      asset.Serial,
		RenterID:         renter.ID,
		RenterTaxID:      renter.TaxID,
		ContactEmail:     req.ContactEmail,
		StartedAt:        start,
		ExpectedReturnAt: ExpectedReturn(start, req.DurationHours),
		DurationHours:    req.DurationHours,
	}

	if err := s.guard.Admit(ctx, rental); err != nil {
		if apperrors.IsAppError(err) {
			s.log.Info("Rental rejected",
				"serial", rental.AssetSerial,
				"error", err,
			)
			return nil, err
		}
		s.log.Error("Failed to create rental",
			"serial", rental.AssetSerial,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create rental", err)
	}

	s.log.Info("Rental created",
		"id", rental.ID,
		"serial", rental.AssetSerial,
		"renter_id", rental.RenterID,
		"expected_return_at", rental.ExpectedReturnAt,
	)
	return rental, nil
}

func (s *rentalService) Return(ctx context.Context, id string, req *model.ReturnRequest) (*model.Rental, error) {
	rental, err := s.doReturn(ctx, id, req)
	metrics.RentalsReturned.WithLabelValues(metrics.Outcome(err)).Inc()
	return rental, err
}

func (s *rentalService) doReturn(ctx context.Context, id string, req *model.ReturnRequest) (*model.Rental, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Rental ID cannot be empty")
	}

	req.TaxID = sanitizer.NormalizeTaxID(req.TaxID)
	if err := s.validator.ValidateReturn(req); err != nil {
		return nil, validationError("Return validation failed", err)
	}

	rental, err := s.returns.Process(ctx, id, req)
	if err != nil {
		if appErr := apperrors.AsAppError(err); appErr.Code == apperrors.CodeInternal {
			s.log.Error("Failed to return rental",
				"id", id,
				"error", err,
			)
		}
		return nil, err
	}
	return rental, nil
}

func (s *rentalService) GetByID(ctx context.Context, id string) (*model.Rental, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Rental ID cannot be empty")
	}

	rental, err := s.rentals.FindByID(ctx, id)
	if err != nil {
		appErr := rentalLookupError(err, id)
		if appErr.Code == apperrors.CodeInternal {
			s.log.Error("Failed to get rental by ID",
				"id", id,
				"error", err,
			)
		}
		return nil, appErr
	}
	return rental, nil
}

func (s *rentalService) Search(ctx context.Context, filter model.RentalFilter, limit int, offset int64) ([]*model.Rental, int64, error) {
	filter = model.RentalFilter{
		Serial: sanitizer.NormalizeSearchTerm(filter.Serial),
		TaxID:  sanitizer.NormalizeSearchTerm(filter.TaxID),
	}
	limit, offset = normalizePage(limit, offset)

	var rentals []*model.Rental
	var count int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rentals, err = s.rentals.Search(gctx, filter, limit, offset)
		return err
	})
	g.Go(func() error {
		var err error
		count, err = s.rentals.CountSearch(gctx, filter)
		return err
	})

	if err := g.Wait(); err != nil {
		s.log.Error("Failed to search rentals", "error", err)
		return nil, 0, apperrors.Internal("Failed to search rentals", err)
	}
	return rentals, count, nil
}

func (s *rentalService) ListByRenter(ctx context.Context, renterID string, limit int, offset int64) ([]*model.Rental, int64, error) {
	if _, err := s.directory.FindRenterByID(ctx, renterID); err != nil {
		if errors.Is(err, rentalserrors.ErrRenterNotFound) {
			return nil, 0, apperrors.NotFoundWithID("Renter", renterID)
		}
		return nil, 0, apperrors.Internal("Failed to look up renter", err)
	}
	limit, offset = normalizePage(limit, offset)

	var rentals []*model.Rental
	var count int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rentals, err = s.rentals.FindByRenter(gctx, renterID, limit, offset)
		return err
	})
	g.Go(func() error {
		var err error
		count, err = s.rentals.CountByRenter(gctx, renterID)
		return err
	})

	if err := g.Wait(); err != nil {
		s.log.Error("Failed to list renter rentals",
			"renter_id", renterID,
			"error", err,
		)
		return nil, 0, apperrors.Internal("Failed to list renter rentals", err)
	}
	return rentals, count, nil
}

func normalizePage(limit int, offset int64) (int, int64) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func validationError(message string, err error) *apperrors.AppError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return apperrors.Validation(message, map[string]any{"errors": fieldErrs})
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
