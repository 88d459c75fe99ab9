package agreement

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/ndavault/pkg/logger"
	"github.com/dmitrymomot/ndavault/svc/entitlement"
	"github.com/dmitrymomot/ndavault/svc/plan"
	"github.com/dmitrymomot/ndavault/svc/subscription"
)

const (
	// MaxFileSize is the largest accepted upload.
	MaxFileSize = 10 << 20

	downloadURLTTL = 15 * time.Minute
)

var pdfMagic = []byte("%PDF-")

// FileStorage stores agreement documents.
type FileStorage interface {
	Save(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// SubscriptionReader provides the subscription used for entitlement checks.
type SubscriptionReader interface {
	Get(ctx context.Context, userID string) (*subscription.Subscription, error)
}

// Upload is a new agreement document with its metadata.
type Upload struct {
	Terms
	FileName string
	Size     int64
	Body     io.Reader
}

// Service implements agreement CRUD on top of the store and file storage,
// enforcing upload limits and alert entitlements.
type Service struct {
	store    Store
	files    FileStorage
	subs     SubscriptionReader
	resolver *entitlement.Resolver
	log      *slog.Logger
	now      func() time.Time
}

type ServiceOption func(*Service)

func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source used to classify agreements.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store Store, files FileStorage, subs SubscriptionReader, resolver *entitlement.Resolver, opts ...ServiceOption) *Service {
	if store == nil || files == nil || subs == nil || resolver == nil {
		panic("agreement: store, file storage, subscription reader and resolver are required")
	}
	s := &Service{
		store:    store,
		files:    files,
		subs:     subs,
		resolver: resolver,
		log:      logger.Nop(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("agreement"))
	return s
}

// Create stores the document and records the agreement with a computed
// status. Alerts start disabled.
func (s *Service) Create(ctx context.Context, userID string, u Upload) (*Agreement, error) {
	if err := u.Terms.validate(); err != nil {
		return nil, err
	}
	if u.Body == nil || u.Size <= 0 {
		return nil, ErrFileRequired
	}
	if u.Size > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	body := bufio.NewReader(u.Body)
	head, err := body.Peek(len(pdfMagic))
	if err != nil || !bytes.Equal(head, pdfMagic) {
		return nil, ErrNotPDF
	}

	sub, err := s.subscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	count, err := s.store.Count(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !s.resolver.CanUploadMore(sub, count) {
		return nil, ErrUploadLimitReached
	}

	now := s.now()
	a := &Agreement{
		UserID:   userID,
		FileName: u.FileName,
		FilePath: fmt.Sprintf("%s/%d-%s.pdf", userID, now.UnixMilli(), uuid.NewString()[:8]),
		FileSize: u.Size,
	}
	u.Terms.applyTo(a)
	a.Status = Classify(a.ExpirationDate, now)

	if err := s.files.Save(ctx, a.FilePath, io.LimitReader(body, MaxFileSize), u.Size, "application/pdf"); err != nil {
		return nil, errors.Join(ErrFailedToStoreFile, err)
	}

	if err := s.store.Create(ctx, a); err != nil {
		if delErr := s.files.Delete(ctx, a.FilePath); delErr != nil {
			s.log.ErrorContext(ctx, "failed to remove orphaned agreement file",
				logger.UserID(userID), slog.String("path", a.FilePath), logger.Error(delErr))
		}
		return nil, err
	}

	s.log.InfoContext(ctx, "agreement created", logger.UserID(userID), logger.AgreementID(a.ID))
	return a, nil
}

// List returns the user's agreements ordered by expiration, with statuses
// recomputed for today.
func (s *Service) List(ctx context.Context, userID string) ([]Agreement, error) {
	list, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range list {
		list[i].Refresh(now)
	}
	return list, nil
}

func (s *Service) Get(ctx context.Context, userID string, id uuid.UUID) (*Agreement, error) {
	a, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	a.Refresh(s.now())
	return a, nil
}

// Update replaces the agreement's terms. The stored status is recomputed only
// when the expiration date changes; otherwise it is left for RefreshStatuses,
// which runs after the daily alert job selects on it.
func (s *Service) Update(ctx context.Context, userID string, id uuid.UUID, terms Terms) (*Agreement, error) {
	if err := terms.validate(); err != nil {
		return nil, err
	}

	a, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	moved := !Date(terms.ExpirationDate).Equal(Date(a.ExpirationDate))
	terms.applyTo(a)
	if moved {
		a.Status = Classify(a.ExpirationDate, now)
	}

	if err := s.store.Update(ctx, a); err != nil {
		return nil, err
	}
	a.Refresh(now)
	return a, nil
}

// SetAlert toggles expiration alerts. Enabling requires the automatic alerts entitlement.
func (s *Service) SetAlert(ctx context.Context, userID string, id uuid.UUID, enabled bool) (*Agreement, error) {
	if enabled {
		sub, err := s.subscription(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !s.resolver.HasFeature(sub, plan.FeatureAutomaticAlerts) {
			return nil, ErrAlertsRequirePro
		}
	}

	a, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	a.AlertEnabled = enabled

	if err := s.store.Update(ctx, a); err != nil {
		return nil, err
	}
	a.Refresh(s.now())
	return a, nil
}

// Delete removes the stored document and the record. A failed file removal is
// logged and does not block deleting the record.
func (s *Service) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	a, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	if a.FilePath != "" {
		if err := s.files.Delete(ctx, a.FilePath); err != nil {
			s.log.ErrorContext(ctx, "failed to delete agreement file",
				logger.UserID(userID), logger.AgreementID(id), logger.Error(err))
		}
	}

	return s.store.Delete(ctx, userID, id)
}

// DownloadURL returns a short-lived link to the stored document.
func (s *Service) DownloadURL(ctx context.Context, userID string, id uuid.UUID) (string, error) {
	a, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	return s.files.PresignGet(ctx, a.FilePath, downloadURLTTL)
}

// RefreshStatuses rewrites stored statuses that drifted since their last
// write and returns how many changed.
func (s *Service) RefreshStatuses(ctx context.Context, asOf time.Time) (int, error) {
	list, err := s.store.ListUnexpired(ctx)
	if err != nil {
		return 0, err
	}

	changed := 0
	for i := range list {
		a := &list[i]
		if !a.Refresh(asOf) {
			continue
		}
		if err := s.store.UpdateStatus(ctx, a.ID, a.Status); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

func (s *Service) subscription(ctx context.Context, userID string) (*subscription.Subscription, error) {
	sub, err := s.subs.Get(ctx, userID)
	if errors.Is(err, subscription.ErrNotFound) {
		return subscription.Default(userID), nil
	}
	return sub, err
}
