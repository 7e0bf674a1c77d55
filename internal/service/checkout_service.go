package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"checkout-session-engine/internal/core/domain"
	"checkout-session-engine/internal/core/ports"
	"checkout-session-engine/pkg/apperror"

	"github.com/rs/zerolog"
)

// maxAppendAttempts bounds the optimistic-concurrency retry loop. A
// conflict means another writer claimed the version number first; the
// loop re-reads history and recomputes at the next version. Persistent
// conflict is a transient processing error, not a client error.
const maxAppendAttempts = 3

// CheckoutServiceImpl implements ports.CheckoutService.
type CheckoutServiceImpl struct {
	store       ports.SessionEventStore
	idemIndex   ports.IdempotencyIndex
	replayCache ports.ReplayCache
	merchantSvc ports.MerchantDataService
	orderSvc    ports.OrderService
	dispatcher  ports.WebhookDispatcher
	log         zerolog.Logger
}

// NewCheckoutService creates a new CheckoutServiceImpl.
func NewCheckoutService(
	store ports.SessionEventStore,
	idemIndex ports.IdempotencyIndex,
	replayCache ports.ReplayCache,
	merchantSvc ports.MerchantDataService,
	orderSvc ports.OrderService,
	dispatcher ports.WebhookDispatcher,
	log zerolog.Logger,
) *CheckoutServiceImpl {
	return &CheckoutServiceImpl{
		store:       store,
		idemIndex:   idemIndex,
		replayCache: replayCache,
		merchantSvc: merchantSvc,
		orderSvc:    orderSvc,
		dispatcher:  dispatcher,
		log:         log,
	}
}

// Create starts a new checkout session, or replays the response a
// previous request produced under the same idempotency key.
func (s *CheckoutServiceImpl) Create(ctx context.Context, req ports.CreateSessionRequest) (*domain.CheckoutSession, error) {
	key := req.Meta.IdempotencyKey

	// Layer 1: Redis replay check
	if snap := s.replayFromCache(ctx, key); snap != nil {
		return snap, nil
	}

	sessionID, err := s.idemIndex.Resolve(ctx, key)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("resolve idempotency key: %w", err))
	}

	// Layer 2: event store replay check
	history, err := s.store.History(ctx, sessionID)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("load session history: %w", err))
	}
	if key != "" {
		if snap, ok := history.ByIdempotencyKey[key]; ok {
			s.cacheReplay(ctx, key, snap)
			return snap, nil
		}
	}
	if history.Latest > 0 {
		// The key resolved to a session created by a racing request
		// whose version carries a different key spelling; current state
		// is the closest faithful replay.
		return history.LatestSnapshot(), nil
	}

	md, err := s.merchantSvc.GetMerchantData(ctx, req.Items, req.FulfillmentDetails)
	if err != nil {
		return nil, apperror.ErrMerchantDataUnavailable(err)
	}

	agg := domain.NewAggregate(sessionID)
	agg.ApplyMerchantData(md)
	agg.SetBuyer(req.Buyer)
	agg.SetFulfillmentDetails(req.FulfillmentDetails)
	snapshot := agg.Snapshot()

	version := &domain.SessionVersion{
		SessionID:      sessionID,
		Version:        1,
		Reason:         domain.ReasonCreated,
		IdempotencyKey: key,
		RequestID:      req.Meta.RequestID,
		Snapshot:       snapshot,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.Append(ctx, version); err != nil {
		if errors.Is(err, ports.ErrVersionConflict) {
			// A concurrent create under the same key claimed version 1
			// first; adopt its result.
			history, err = s.store.History(ctx, sessionID)
			if err != nil {
				return nil, apperror.Internal(fmt.Errorf("reload session history: %w", err))
			}
			if snap, ok := history.ByIdempotencyKey[key]; ok && key != "" {
				return snap, nil
			}
			if snap := history.LatestSnapshot(); snap != nil {
				return snap, nil
			}
			return nil, apperror.ErrStoreConflict(ports.ErrVersionConflict)
		}
		return nil, apperror.Internal(fmt.Errorf("append version 1: %w", err))
	}

	s.cacheReplay(ctx, key, snapshot)
	s.dispatcher.Dispatch(domain.NewSessionEvent(domain.EventSessionCreated, snapshot))

	s.log.Info().
		Str("session_id", sessionID).
		Str("request_id", req.Meta.RequestID).
		Int("items", len(req.Items)).
		Msg("checkout session created")

	return snapshot, nil
}

// Get returns the current snapshot of a session.
func (s *CheckoutServiceImpl) Get(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	history, err := s.store.History(ctx, sessionID)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("load session history: %w", err))
	}
	if history.Latest == 0 {
		return nil, apperror.ErrSessionNotFound()
	}
	return history.LatestSnapshot(), nil
}

// Update merges new merchant data, buyer, fulfillment details and
// selections into the session and appends the next version.
func (s *CheckoutServiceImpl) Update(ctx context.Context, sessionID string, req ports.UpdateSessionRequest) (*domain.CheckoutSession, error) {
	key := req.Meta.IdempotencyKey
	// A cached entry may belong to a different session when a client
	// reuses a key; only replay when it matches, otherwise fall through
	// to the per-session history map.
	if snap := s.replayFromCache(ctx, key); snap != nil && snap.ID == sessionID {
		return snap, nil
	}

	for attempt := 1; attempt <= maxAppendAttempts; attempt++ {
		history, err := s.store.History(ctx, sessionID)
		if err != nil {
			return nil, apperror.Internal(fmt.Errorf("load session history: %w", err))
		}
		if history.Latest == 0 {
			return nil, apperror.ErrSessionNotFound()
		}
		if key != "" {
			if snap, ok := history.ByIdempotencyKey[key]; ok {
				s.cacheReplay(ctx, key, snap)
				return snap, nil
			}
		}

		current := history.LatestSnapshot()
		if current.Status.IsTerminal() {
			return nil, apperror.ErrSessionNotModifiable()
		}

		// Effective inputs for re-pricing: anything the request leaves
		// unset keeps its current value.
		items := req.Items
		if items == nil {
			items = current.Items()
		}
		details := req.FulfillmentDetails
		if details == nil {
			details = current.FulfillmentDetails
		}

		md, err := s.merchantSvc.GetMerchantData(ctx, items, details)
		if err != nil {
			return nil, apperror.ErrMerchantDataUnavailable(err)
		}

		agg := domain.Load(current)
		agg.ApplyMerchantData(md)
		agg.SetBuyer(req.Buyer)
		agg.SetFulfillmentDetails(req.FulfillmentDetails)
		if req.SelectedFulfillmentOptions != nil {
			agg.SelectFulfillmentOptions(req.SelectedFulfillmentOptions)
		}
		snapshot := agg.Snapshot()

		version := &domain.SessionVersion{
			SessionID:      sessionID,
			Version:        history.Latest + 1,
			Reason:         domain.ReasonUpdated,
			IdempotencyKey: key,
			RequestID:      req.Meta.RequestID,
			Snapshot:       snapshot,
			CreatedAt:      time.Now().UTC(),
		}
		err = s.store.Append(ctx, version)
		if err == nil {
			s.cacheReplay(ctx, key, snapshot)
			s.dispatcher.Dispatch(domain.NewSessionEvent(domain.EventSessionUpdated, snapshot))
			s.log.Info().
				Str("session_id", sessionID).
				Int("version", version.Version).
				Str("status", string(snapshot.Status)).
				Msg("checkout session updated")
			return snapshot, nil
		}
		if !errors.Is(err, ports.ErrVersionConflict) {
			return nil, apperror.Internal(fmt.Errorf("append version %d: %w", version.Version, err))
		}
		s.log.Debug().
			Str("session_id", sessionID).
			Int("version", version.Version).
			Int("attempt", attempt).
			Msg("version conflict, re-reading history")
	}

	return nil, apperror.ErrStoreConflict(ports.ErrVersionConflict)
}

// Complete attaches an order and moves the session to completed. It
// requires payment data and a ready_for_payment session.
func (s *CheckoutServiceImpl) Complete(ctx context.Context, sessionID string, req ports.CompleteSessionRequest) (*domain.CheckoutSession, error) {
	// The order capability is invoked at most once per completion call;
	// append-conflict retries reuse the order already created.
	var order *domain.Order

	for attempt := 1; attempt <= maxAppendAttempts; attempt++ {
		history, err := s.store.History(ctx, sessionID)
		if err != nil {
			return nil, apperror.Internal(fmt.Errorf("load session history: %w", err))
		}
		if history.Latest == 0 {
			return nil, apperror.ErrSessionNotFound()
		}
		if req.PaymentData == nil || req.PaymentData.Token == "" {
			return nil, apperror.ErrMissingPaymentData()
		}

		agg := domain.Load(history.LatestSnapshot())
		agg.SetBuyer(req.Buyer)
		switch {
		case agg.Status().IsTerminal():
			return nil, apperror.ErrAlreadyCompleted()
		case agg.Status() != domain.StatusReadyForPayment:
			return nil, apperror.ErrSessionNotReady()
		}

		if order == nil {
			order, err = s.orderSvc.CreateOrder(ctx, agg.Snapshot())
			if err != nil {
				return nil, apperror.ErrOrderCreationFailed(err)
			}
		}
		if err := agg.Complete(order); err != nil {
			return nil, apperror.ErrSessionNotReady()
		}
		snapshot := agg.Snapshot()

		version := &domain.SessionVersion{
			SessionID:      sessionID,
			Version:        history.Latest + 1,
			Reason:         domain.ReasonCompleted,
			IdempotencyKey: req.Meta.IdempotencyKey,
			RequestID:      req.Meta.RequestID,
			Snapshot:       snapshot,
			CreatedAt:      time.Now().UTC(),
		}
		err = s.store.Append(ctx, version)
		if err == nil {
			s.cacheReplay(ctx, req.Meta.IdempotencyKey, snapshot)
			s.dispatcher.Dispatch(domain.NewSessionEvent(domain.EventSessionCompleted, snapshot))
			s.dispatcher.Dispatch(domain.NewOrderEvent(snapshot, order))
			s.log.Info().
				Str("session_id", sessionID).
				Str("order_id", order.ID).
				Int("version", version.Version).
				Msg("checkout session completed")
			return snapshot, nil
		}
		if !errors.Is(err, ports.ErrVersionConflict) {
			return nil, apperror.Internal(fmt.Errorf("append version %d: %w", version.Version, err))
		}
		s.log.Debug().
			Str("session_id", sessionID).
			Int("attempt", attempt).
			Msg("version conflict on complete, re-reading history")
	}

	return nil, apperror.ErrStoreConflict(ports.ErrVersionConflict)
}

// Cancel moves a non-terminal session to canceled.
func (s *CheckoutServiceImpl) Cancel(ctx context.Context, sessionID string, meta ports.RequestMeta) (*domain.CheckoutSession, error) {
	for attempt := 1; attempt <= maxAppendAttempts; attempt++ {
		history, err := s.store.History(ctx, sessionID)
		if err != nil {
			return nil, apperror.Internal(fmt.Errorf("load session history: %w", err))
		}
		if history.Latest == 0 {
			return nil, apperror.ErrSessionNotFound()
		}

		agg := domain.Load(history.LatestSnapshot())
		if err := agg.Cancel(); err != nil {
			return nil, apperror.ErrCancellationNotAllowed()
		}
		snapshot := agg.Snapshot()

		version := &domain.SessionVersion{
			SessionID:      sessionID,
			Version:        history.Latest + 1,
			Reason:         domain.ReasonCanceled,
			IdempotencyKey: meta.IdempotencyKey,
			RequestID:      meta.RequestID,
			Snapshot:       snapshot,
			CreatedAt:      time.Now().UTC(),
		}
		err = s.store.Append(ctx, version)
		if err == nil {
			s.cacheReplay(ctx, meta.IdempotencyKey, snapshot)
			s.dispatcher.Dispatch(domain.NewSessionEvent(domain.EventSessionCancelled, snapshot))
			s.log.Info().
				Str("session_id", sessionID).
				Int("version", version.Version).
				Msg("checkout session canceled")
			return snapshot, nil
		}
		if !errors.Is(err, ports.ErrVersionConflict) {
			return nil, apperror.Internal(fmt.Errorf("append version %d: %w", version.Version, err))
		}
	}

	return nil, apperror.ErrStoreConflict(ports.ErrVersionConflict)
}

// replayFromCache returns the cached snapshot for an idempotency key,
// or nil on miss. Cache errors fall through to the event store.
func (s *CheckoutServiceImpl) replayFromCache(ctx context.Context, key string) *domain.CheckoutSession {
	if key == "" {
		return nil
	}
	cached, err := s.replayCache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("replay cache check failed, falling through to store")
		return nil
	}
	if cached == nil {
		return nil
	}
	snap := &domain.CheckoutSession{}
	if err := json.Unmarshal(cached, snap); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("replay cache entry corrupt, falling through to store")
		return nil
	}
	return snap
}

// cacheReplay stores the response snapshot under the key, best-effort.
func (s *CheckoutServiceImpl) cacheReplay(ctx context.Context, key string, snapshot *domain.CheckoutSession) {
	if key == "" {
		return
	}
	respJSON, err := json.Marshal(snapshot)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to marshal replay snapshot")
		return
	}
	if err := s.replayCache.Set(ctx, key, respJSON, domain.IdempotencyTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache replay snapshot")
	}
}
