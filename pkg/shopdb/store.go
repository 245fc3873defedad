package shopdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrInvalidArg = errors.New("invalid argument")
)

const (
	defaultOrderLimit   = 10
	defaultProductLimit = 5
)

type Config struct {
	DSN     string        `split_words:"true" required:"true"`
	Timeout time.Duration `split_words:"true" default:"5s"`
}

// Store reads users, orders and products from PostgreSQL.
type Store struct {
	db *bun.DB
}

func Open(cfg Config) (*Store, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("%w: shop database dsn is required", ErrInvalidArg)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(timeout),
	))
	return NewStore(bun.NewDB(sqldb, pgdialect.New())), nil
}

func MustOpen(cfg Config) *Store {
	s, err := Open(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) UserByID(ctx context.Context, userID int64) (*User, error) {
	user := new(User)
	if err := s.userByIDQuery(user, userID).Scan(ctx); err != nil {
		return nil, wrapNotFound(err, "user id=%d", userID)
	}
	return user, nil
}

func (s *Store) UserByPhone(ctx context.Context, phone string) (*User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, fmt.Errorf("%w: phone is empty", ErrInvalidArg)
	}

	user := new(User)
	if err := s.userByPhoneQuery(user, phone).Scan(ctx); err != nil {
		return nil, wrapNotFound(err, "user phone=%s", phone)
	}
	return user, nil
}

func (s *Store) OrderByID(ctx context.Context, orderID string) (*Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is empty", ErrInvalidArg)
	}

	order := new(Order)
	if err := s.orderByIDQuery(order, orderID).Scan(ctx); err != nil {
		return nil, wrapNotFound(err, "order id=%s", orderID)
	}
	return order, nil
}

// UserOrders returns the user's orders, newest first, with their items.
func (s *Store) UserOrders(ctx context.Context, userID int64, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = defaultOrderLimit
	}

	var orders []Order
	if err := s.userOrdersQuery(&orders, userID, limit).Scan(ctx); err != nil {
		return nil, fmt.Errorf("select orders user id=%d: %w", userID, err)
	}
	return orders, nil
}

func (s *Store) RecentOrdersByPhone(ctx context.Context, phone string, limit int) ([]Order, error) {
	user, err := s.UserByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	return s.UserOrders(ctx, user.UserID, limit)
}

// SearchProducts matches keyword against name, description and keywords, case-insensitively.
func (s *Store) SearchProducts(ctx context.Context, keyword string, limit int) ([]Product, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("%w: keyword is empty", ErrInvalidArg)
	}
	if limit <= 0 {
		limit = defaultProductLimit
	}

	var products []Product
	if err := s.searchProductsQuery(&products, keyword, limit).Scan(ctx); err != nil {
		return nil, fmt.Errorf("search products keyword=%q: %w", keyword, err)
	}
	return products, nil
}

func (s *Store) userByIDQuery(user *User, userID int64) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(user).
		Where("u.user_id = ?", userID).
		Limit(1)
}

func (s *Store) userByPhoneQuery(user *User, phone string) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(user).
		Where("u.phone = ?", phone).
		Limit(1)
}

func (s *Store) orderByIDQuery(order *Order, orderID string) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(order).
		Relation("Items").
		Where("o.order_id = ?", orderID).
		Limit(1)
}

func (s *Store) userOrdersQuery(orders *[]Order, userID int64, limit int) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(orders).
		Relation("Items").
		Where("o.user_id = ?", userID).
		OrderExpr("o.order_date DESC").
		Limit(limit)
}

func (s *Store) searchProductsQuery(products *[]Product, keyword string, limit int) *bun.SelectQuery {
	pattern := "%" + keyword + "%"
	return s.db.NewSelect().
		Model(products).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereOr("p.name ILIKE ?", pattern).
				WhereOr("p.description ILIKE ?", pattern).
				WhereOr("p.keywords ILIKE ?", pattern)
		}).
		OrderExpr("p.name ASC").
		Limit(limit)
}

func wrapNotFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, args...)...)
	}
	return fmt.Errorf("select "+format+": %w", append(args, err)...)
}
