package store

import (
	"context"
	"errors"
	"time"

	"github.com/fiffu/stockwatch/lib/errs"
	"github.com/fiffu/stockwatch/lib/models"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	log      *zap.Logger
	db       *gorm.DB
	validate *validator.Validate
}

func NewStore(log *zap.Logger, db *gorm.DB) *Store {
	return &Store{log, db, validator.New()}
}

// Upsert is the outcome of linking a user to a product.
// Created and SizesUpdated both false means the call was a duplicate.
type Upsert struct {
	ProductID    uint
	Created      bool
	SizesUpdated bool
}

type SubscriptionView struct {
	UserID        string
	CatalogID     string
	Name          string
	URL           string
	Version       string
	SelectedSizes models.SizeSet
	CreatedAt     time.Time
}

// Subscribe ensures the user, the product and the link between them in a single transaction.
func (s *Store) Subscribe(ctx context.Context, chatID string, product *models.Product, sizes models.SizeSet) (*Upsert, error) {
	if err := s.validateProduct(product); err != nil {
		return nil, err
	}

	ret := &Upsert{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUser(tx, chatID); err != nil {
			return err
		}

		productID, err := upsertProduct(tx, product)
		if err != nil {
			return err
		}
		ret.ProductID = productID

		ret.Created, ret.SizesUpdated, err = linkSubscription(tx, chatID, productID, sizes)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Sugar().Infow("Upserted subscription",
		"user", chatID, "product_id", ret.ProductID, "created", ret.Created, "sizes_updated", ret.SizesUpdated)
	return ret, nil
}

// UpsertProduct returns the internal id of the product row, creating it or refreshing its URL.
func (s *Store) UpsertProduct(ctx context.Context, product *models.Product) (uint, error) {
	if err := s.validateProduct(product); err != nil {
		return 0, err
	}

	var id uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) (err error) {
		id, err = upsertProduct(tx, product)
		return
	})
	return id, err
}

// AddOrUpdateSubscription links chatID to productID. An existing link only has its sizes replaced
// when sizes is non-empty and differs from the stored selection.
func (s *Store) AddOrUpdateSubscription(ctx context.Context, chatID string, productID uint, sizes models.SizeSet) (created, sizesUpdated bool, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUser(tx, chatID); err != nil {
			return err
		}
		var err error
		created, sizesUpdated, err = linkSubscription(tx, chatID, productID, sizes)
		return err
	})
	return
}

func (s *Store) RemoveSubscription(ctx context.Context, chatID, url string) (bool, error) {
	tx := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id IN (?)", chatID, productIDsByURL(s.db, url)).
		Delete(&models.Subscription{})
	if err := tx.Error; err != nil {
		return false, err
	}
	if tx.RowsAffected == 0 {
		s.log.Sugar().Infow("No subscription to remove", "user", chatID, "url", url)
		return false, nil
	}
	s.log.Sugar().Infow("Removed subscription", "user", chatID, "url", url)
	return true, nil
}

func (s *Store) UserExists(ctx context.Context, chatID string) (bool, error) {
	var count int64
	tx := s.db.WithContext(ctx).Model(&models.User{}).Where("chat_id = ?", chatID).Count(&count)
	return count > 0, tx.Error
}

// ListSubscriptions returns the user's subscriptions in the order they were created.
func (s *Store) ListSubscriptions(ctx context.Context, chatID string) ([]SubscriptionView, error) {
	var subs models.Subscriptions
	tx := s.db.WithContext(ctx).
		Joins("Product").
		Where("subscriptions.user_id = ?", chatID).
		Order("subscriptions.created_at, subscriptions.id").
		Find(&subs)
	if err := tx.Error; err != nil {
		return nil, err
	}
	return toViews(subs), nil
}

// GetSelectedSizes returns nil when there is no subscription or it has no selection.
func (s *Store) GetSelectedSizes(ctx context.Context, chatID, url string) (models.SizeSet, error) {
	var sub models.Subscription
	tx := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id IN (?)", chatID, productIDsByURL(s.db, url)).
		Take(&sub)
	if err := tx.Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return sub.SelectedSizes.OrNil(), nil
}

// SetTracking flags whether a job runs for the subscription, so it can be restored on boot.
func (s *Store) SetTracking(ctx context.Context, chatID, url string, tracking bool) error {
	tx := s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("user_id = ? AND product_id IN (?)", chatID, productIDsByURL(s.db, url)).
		Update("tracking", tracking)
	return tx.Error
}

func (s *Store) ListTracking(ctx context.Context) ([]SubscriptionView, error) {
	var subs models.Subscriptions
	tx := s.db.WithContext(ctx).
		Joins("Product").
		Where("subscriptions.tracking = ?", true).
		Order("subscriptions.created_at, subscriptions.id").
		Find(&subs)
	if err := tx.Error; err != nil {
		return nil, err
	}
	return toViews(subs), nil
}

func (s *Store) validateProduct(product *models.Product) error {
	if product == nil {
		return errs.Validation("product is required")
	}

	err := s.validate.Struct(product)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	details := make(map[string]string, len(fieldErrs))
	for _, e := range fieldErrs {
		details[e.Field()] = e.Tag()
	}
	return errs.ValidationWithDetails("invalid product", details)
}

func ensureUser(tx *gorm.DB, chatID string) error {
	if chatID == "" {
		return errs.Validation("user is required")
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.User{ChatID: chatID}).
		Error
}

func upsertProduct(tx *gorm.DB, product *models.Product) (uint, error) {
	row := models.Product{
		CatalogID: product.CatalogID,
		Name:      product.Name,
		Version:   product.Version,
		URL:       product.URL,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "catalog_id"}, {Name: "name"}, {Name: "version"}},
		DoUpdates: clause.AssignmentColumns([]string{"url", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return 0, err
	}

	// Read back by identity, the conflict path does not reliably report the row id.
	var stored models.Product
	err = tx.
		Where("catalog_id = ? AND name = ? AND version = ?", product.CatalogID, product.Name, product.Version).
		Take(&stored).
		Error
	return stored.ID, err
}

func linkSubscription(tx *gorm.DB, chatID string, productID uint, sizes models.SizeSet) (created, sizesUpdated bool, err error) {
	sizes = models.NewSizeSet(sizes).OrNil()

	var existing models.Subscription
	err = tx.Where("user_id = ? AND product_id = ?", chatID, productID).Take(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		sub := models.Subscription{UserID: chatID, ProductID: productID, SelectedSizes: sizes}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&sub)
		if err = res.Error; err != nil {
			return
		}
		if res.RowsAffected == 1 {
			return true, false, nil
		}

		// Lost the insert to a concurrent subscriber; continue as an update.
		if err = tx.Where("user_id = ? AND product_id = ?", chatID, productID).Take(&existing).Error; err != nil {
			return
		}

	case err != nil:
		return
	}

	if !sizes.Selected() || existing.SelectedSizes.Equal(sizes) {
		return false, false, nil
	}

	err = tx.Model(&models.Subscription{}).
		Where("id = ?", existing.ID).
		Update("selected_sizes", sizes).
		Error
	return false, err == nil, err
}

func productIDsByURL(db *gorm.DB, url string) *gorm.DB {
	return db.Model(&models.Product{}).Select("id").Where("url = ?", url)
}

func toViews(subs models.Subscriptions) []SubscriptionView {
	views := make([]SubscriptionView, len(subs))
	for i, sub := range subs {
		views[i] = SubscriptionView{
			UserID:        sub.UserID,
			CatalogID:     sub.Product.CatalogID,
			Name:          sub.Product.Name,
			URL:           sub.Product.URL,
			Version:       sub.Product.Version,
			SelectedSizes: sub.SelectedSizes.OrNil(),
			CreatedAt:     sub.CreatedAt,
		}
	}
	return views
}
