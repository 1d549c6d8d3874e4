package offers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/oja-market/oja-backend/pkg/db"
	"github.com/oja-market/oja-backend/pkg/db/models"
	"github.com/oja-market/oja-backend/pkg/enums"
	pkgerrors "github.com/oja-market/oja-backend/pkg/errors"
	"github.com/oja-market/oja-backend/pkg/negotiation"
	"github.com/oja-market/oja-backend/pkg/outbox"
	"github.com/oja-market/oja-backend/pkg/outbox/payloads"
	"github.com/oja-market/oja-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines the offer negotiation operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*View, error)
	Get(ctx context.Context, offerID, actorUserID uuid.UUID) (*View, error)
	Accept(ctx context.Context, input AcceptInput) (*AcceptOutcome, error)
	Reject(ctx context.Context, input RejectInput) (*models.Offer, error)
	Withdraw(ctx context.Context, input WithdrawInput) (*models.Offer, error)
	Counter(ctx context.Context, input CounterInput) (*CounterOutcome, error)
	GetChain(ctx context.Context, offerID, actorUserID uuid.UUID) ([]ChainEntry, error)
	Suggestions(ctx context.Context, offerID, actorUserID uuid.UUID) (*SuggestionsResult, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

// ServiceParams collects the service dependencies.
type ServiceParams struct {
	Repo         Repository
	Listings     ListingStore
	Reservations ReservationCreator
	Tx           txRunner
	Outbox       outboxPublisher
	Policy       negotiation.Policy
	MaxAttempts  int
}

type service struct {
	repo         Repository
	listings     ListingStore
	reservations ReservationCreator
	tx           txRunner
	outbox       outboxPublisher
	policy       negotiation.Policy
	maxAttempts  int
	now          func() time.Time
}

// NewService builds the offer service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("offers repository required")
	}
	if params.Listings == nil {
		return nil, fmt.Errorf("listing store required")
	}
	if params.Reservations == nil {
		return nil, fmt.Errorf("reservation creator required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	maxAttempts := params.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &service{
		repo:         params.Repo,
		listings:     params.Listings,
		reservations: params.Reservations,
		tx:           params.Tx,
		outbox:       params.Outbox,
		policy:       params.Policy,
		maxAttempts:  maxAttempts,
		now:          time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*View, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ListingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}

	listing, err := s.listings.Find(ctx, input.ListingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	if listing.SellerID == input.BuyerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Cannot make an offer on your own listing")
	}
	if listing.Status != enums.ListingStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "Listing is no longer available")
	}

	if validation := s.policy.ValidateAmount(input.AmountCents, listing.PriceCents); !validation.Valid {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid offer amount").
			WithDetails(map[string]any{"errors": validation.Errors})
	}

	attempts, err := s.repo.CountByBuyerAndListing(ctx, input.BuyerID, input.ListingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count offer attempts")
	}
	if attempts >= int64(s.maxAttempts) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "Maximum offer attempts reached for this listing").
			WithDetails(map[string]any{"attempts": attempts, "max_attempts": s.maxAttempts})
	}

	pending, err := s.repo.HasPending(ctx, input.BuyerID, input.ListingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending offers")
	}
	if pending {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "You already have a pending offer on this listing")
	}

	now := s.now().UTC()
	offer := models.Offer{
		ListingID:   input.ListingID,
		BuyerID:     input.BuyerID,
		SellerID:    listing.SellerID,
		AmountCents: input.AmountCents,
		Currency:    listing.Currency,
		Message:     input.Message,
		Status:      enums.OfferStatusPending,
		ExpiresAt:   now.Add(s.policy.OfferTTL),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		created, err := repo.Create(ctx, &offer)
		if err != nil {
			// The partial unique index closes the race between the pending
			// check above and this insert.
			if dbpkg.IsUniqueViolation(err, "ux_offers_pending_buyer_listing") {
				return pkgerrors.New(pkgerrors.CodeConflict, "You already have a pending offer on this listing")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create offer")
		}
		offer = *created

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOfferCreated,
			AggregateType: enums.AggregateOffer,
			AggregateID:   offer.ID,
			OccurredAt:    now,
			Actor:         &outbox.ActorRef{UserID: input.BuyerID, Role: enums.RoleBuyer},
			Data: payloads.OfferCreatedEvent{
				OfferID:     offer.ID,
				ListingID:   offer.ListingID,
				BuyerID:     offer.BuyerID,
				SellerID:    offer.SellerID,
				AmountCents: offer.AmountCents,
				Currency:    offer.Currency,
				ExpiresAt:   offer.ExpiresAt,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	view := s.buildView(offer, listing.PriceCents, now)
	return &view, nil
}

func (s *service) Get(ctx context.Context, offerID, actorUserID uuid.UUID) (*View, error) {
	offer, err := s.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if err := requireParty(offer, actorUserID); err != nil {
		return nil, err
	}

	listing, err := s.listings.Find(ctx, offer.ListingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}

	view := s.buildView(*offer, listing.PriceCents, s.now().UTC())
	return &view, nil
}

func (s *service) Accept(ctx context.Context, input AcceptInput) (*AcceptOutcome, error) {
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var outcome AcceptOutcome
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		offer, err := repo.FindForUpdate(ctx, input.OfferID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Offer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
		}

		if err := s.requireRecipient(ctx, repo, offer, input.ActorUserID, "accept"); err != nil {
			return err
		}

		listing, err := s.listings.FindForUpdate(ctx, tx, offer.ListingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
		}

		now := s.now().UTC()
		result, err := s.policy.Accept(*offer, listing.Status, now)
		if err != nil {
			return err
		}

		if err := repo.Update(ctx, &result.Offer); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update offer")
		}

		reservation, err := s.reservations.CreateTx(ctx, tx, &result.Reservation)
		if err != nil {
			// The unique index on offer_id is the backstop should two
			// accepts ever slip past the row lock.
			if dbpkg.IsUniqueViolation(err, "ux_reservations_offer") {
				return pkgerrors.New(pkgerrors.CodeConflict, "Offer already accepted")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reservation")
		}

		if err := s.listings.UpdateStatusTx(ctx, tx, listing.ID, enums.ListingStatusReserved); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve listing")
		}

		actor := &outbox.ActorRef{UserID: input.ActorUserID, Role: roleOf(offer, input.ActorUserID)}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOfferAccepted,
			AggregateType: enums.AggregateOffer,
			AggregateID:   offer.ID,
			OccurredAt:    now,
			Actor:         actor,
			Data: payloads.OfferAcceptedEvent{
				OfferID:              offer.ID,
				ListingID:            offer.ListingID,
				BuyerID:              offer.BuyerID,
				SellerID:             offer.SellerID,
				AmountCents:          offer.AmountCents,
				ReservationID:        reservation.ID,
				ReservationExpiresAt: reservation.ExpiresAt,
			},
		}); err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReservationCreated,
			AggregateType: enums.AggregateReservation,
			AggregateID:   reservation.ID,
			OccurredAt:    now,
			Actor:         actor,
			Data: payloads.ReservationCreatedEvent{
				ReservationID:      reservation.ID,
				ListingID:          reservation.ListingID,
				BuyerID:            reservation.BuyerID,
				OfferID:            reservation.OfferID,
				ReservedPriceCents: reservation.ReservedPriceCents,
				ExpiresAt:          reservation.ExpiresAt,
			},
		}); err != nil {
			return err
		}

		outcome = AcceptOutcome{Offer: result.Offer, Reservation: *reservation}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}

func (s *service) Reject(ctx context.Context, input RejectInput) (*models.Offer, error) {
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}

	var rejected models.Offer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		offer, err := repo.FindForUpdate(ctx, input.OfferID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Offer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
		}

		if err := s.requireRecipient(ctx, repo, offer, input.ActorUserID, "reject"); err != nil {
			return err
		}

		now := s.now().UTC()
		result, err := s.policy.Reject(*offer, input.Reason, input.Message, now)
		if err != nil {
			return err
		}

		if err := repo.Update(ctx, &result); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update offer")
		}

		rejected = result
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOfferRejected,
			AggregateType: enums.AggregateOffer,
			AggregateID:   offer.ID,
			OccurredAt:    now,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: roleOf(offer, input.ActorUserID)},
			Data: payloads.OfferRejectedEvent{
				OfferID:   offer.ID,
				ListingID: offer.ListingID,
				BuyerID:   offer.BuyerID,
				SellerID:  offer.SellerID,
				Reason:    input.Reason,
				Message:   input.Message,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return &rejected, nil
}

func (s *service) Withdraw(ctx context.Context, input WithdrawInput) (*models.Offer, error) {
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var withdrawn models.Offer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		offer, err := repo.FindForUpdate(ctx, input.OfferID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Offer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
		}

		now := s.now().UTC()
		result, err := s.policy.Withdraw(*offer, input.ActorUserID, now)
		if err != nil {
			return err
		}

		if err := repo.Update(ctx, &result); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update offer")
		}

		withdrawn = result
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOfferWithdrawn,
			AggregateType: enums.AggregateOffer,
			AggregateID:   offer.ID,
			OccurredAt:    now,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: enums.RoleBuyer},
			Data: payloads.OfferWithdrawnEvent{
				OfferID:     offer.ID,
				ListingID:   offer.ListingID,
				BuyerID:     offer.BuyerID,
				SellerID:    offer.SellerID,
				WithdrawnAt: now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return &withdrawn, nil
}

func (s *service) Counter(ctx context.Context, input CounterInput) (*CounterOutcome, error) {
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var outcome CounterOutcome
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		offer, err := repo.FindForUpdate(ctx, input.OfferID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Offer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
		}

		chainLength, err := s.chainLength(ctx, repo, offer)
		if err != nil {
			return err
		}
		if err := requireRecipientByChain(offer, input.ActorUserID, chainLength, "counter"); err != nil {
			return err
		}

		listing, err := s.listings.Find(ctx, offer.ListingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
		}
		if validation := s.policy.ValidateAmount(input.AmountCents, listing.PriceCents); !validation.Valid {
			return pkgerrors.New(pkgerrors.CodeValidation, "Invalid offer amount").
				WithDetails(map[string]any{"errors": validation.Errors})
		}

		now := s.now().UTC()
		result, err := s.policy.Counter(*offer, input.AmountCents, input.Message, chainLength, now)
		if err != nil {
			return err
		}

		if err := repo.Update(ctx, &result.Original); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update original offer")
		}
		counter, err := repo.Create(ctx, &result.Counter)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create counter offer")
		}

		actor := &outbox.ActorRef{UserID: input.ActorUserID, Role: roleOf(offer, input.ActorUserID)}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOfferCountered,
			AggregateType: enums.AggregateOffer,
			AggregateID:   offer.ID,
			OccurredAt:    now,
			Actor:         actor,
			Data: payloads.OfferCounteredEvent{
				OriginalOfferID: offer.ID,
				CounterOfferID:  counter.ID,
				ListingID:       offer.ListingID,
				BuyerID:         offer.BuyerID,
				SellerID:        offer.SellerID,
				AmountCents:     counter.AmountCents,
				ChainLength:     chainLength + 1,
			},
		}); err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOfferCreated,
			AggregateType: enums.AggregateOffer,
			AggregateID:   counter.ID,
			OccurredAt:    now,
			Actor:         actor,
			Data: payloads.OfferCreatedEvent{
				OfferID:       counter.ID,
				ListingID:     counter.ListingID,
				BuyerID:       counter.BuyerID,
				SellerID:      counter.SellerID,
				AmountCents:   counter.AmountCents,
				Currency:      counter.Currency,
				ParentOfferID: counter.ParentOfferID,
				ExpiresAt:     counter.ExpiresAt,
			},
		}); err != nil {
			return err
		}

		outcome = CounterOutcome{Original: result.Original, Counter: *counter}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}

func (s *service) GetChain(ctx context.Context, offerID, actorUserID uuid.UUID) ([]ChainEntry, error) {
	offer, err := s.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if err := requireParty(offer, actorUserID); err != nil {
		return nil, err
	}

	ancestry, err := s.repo.FindAncestry(ctx, offerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer chain")
	}

	chain := negotiation.ChainFromSlice(offerID, ancestry)
	entries := make([]ChainEntry, 0, len(chain))
	for i, link := range chain {
		entries = append(entries, ChainEntry{
			Offer:     link,
			Round:     i + 1,
			CreatedAt: link.CreatedAt,
		})
	}
	return entries, nil
}

func (s *service) Suggestions(ctx context.Context, offerID, actorUserID uuid.UUID) (*SuggestionsResult, error) {
	offer, err := s.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if err := requireParty(offer, actorUserID); err != nil {
		return nil, err
	}

	listing, err := s.listings.Find(ctx, offer.ListingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}

	role := roleOf(offer, actorUserID)
	return &SuggestionsResult{
		OfferID:     offer.ID,
		Role:        role,
		Suggestions: s.policy.SuggestCounters(offer.AmountCents, listing.PriceCents, role),
		Rating:      s.policy.Attractiveness(offer.AmountCents, listing.PriceCents),
	}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !params.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be buyer or seller")
	}

	query := listOffersParams{
		UserID:    params.UserID,
		Role:      params.Role,
		Status:    params.Status,
		ListingID: params.ListingID,
		Limit:     params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}

	now := s.now().UTC()
	views := make([]View, 0, len(rows))
	for _, row := range rows {
		views = append(views, View{
			Offer:     row,
			Remaining: negotiation.TimeRemaining(row.ExpiresAt, now),
		})
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Offers: views, NextCursor: cursor}, nil
}

func (s *service) loadOffer(ctx context.Context, offerID uuid.UUID) (*models.Offer, error) {
	offer, err := s.repo.Find(ctx, offerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Offer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}
	return offer, nil
}

func (s *service) buildView(offer models.Offer, listingPriceCents int64, now time.Time) View {
	return View{
		Offer:     offer,
		Remaining: negotiation.TimeRemaining(offer.ExpiresAt, now),
		Rating:    s.policy.Attractiveness(offer.AmountCents, listingPriceCents),
	}
}

// chainLength counts the offer plus all its ancestors.
func (s *service) chainLength(ctx context.Context, repo Repository, offer *models.Offer) (int, error) {
	if offer.ParentOfferID == nil {
		return 1, nil
	}
	ancestry, err := repo.FindAncestry(ctx, offer.ID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer chain")
	}
	return len(ancestry), nil
}

// requireRecipient resolves the chain to work out which party proposed the
// pending offer and checks the actor is the other one.
func (s *service) requireRecipient(ctx context.Context, repo Repository, offer *models.Offer, actorUserID uuid.UUID, verb string) error {
	chainLength, err := s.chainLength(ctx, repo, offer)
	if err != nil {
		return err
	}
	return requireRecipientByChain(offer, actorUserID, chainLength, verb)
}

func requireRecipientByChain(offer *models.Offer, actorUserID uuid.UUID, chainLength int, verb string) error {
	if err := requireParty(offer, actorUserID); err != nil {
		return err
	}
	if recipientOf(offer, chainLength) != actorUserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("Only the offer recipient can %s this offer", verb))
	}
	return nil
}

func requireParty(offer *models.Offer, actorUserID uuid.UUID) error {
	if actorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if offer.BuyerID != actorUserID && offer.SellerID != actorUserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "Offer does not belong to user")
	}
	return nil
}

// recipientOf returns who is expected to respond to the pending offer. The
// root offer is always the buyer's; each counter flips the proposer, so odd
// chain lengths await the seller and even ones await the buyer.
func recipientOf(offer *models.Offer, chainLength int) uuid.UUID {
	if chainLength%2 == 1 {
		return offer.SellerID
	}
	return offer.BuyerID
}

func roleOf(offer *models.Offer, userID uuid.UUID) enums.NegotiationRole {
	if userID == offer.SellerID {
		return enums.RoleSeller
	}
	return enums.RoleBuyer
}
