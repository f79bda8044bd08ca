package customers

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/orderdesk-backend/pkg/cache"
	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
	"github.com/angelmondragon/orderdesk-backend/pkg/upstream"
	"github.com/samber/lo"
)

const userTypeCustomer = "customer"

// Directory is the upstream user listing.
type Directory interface {
	ListUsers(ctx context.Context) ([]upstream.User, error)
}

// Customer is a user that can be attached to an order.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Service lists customers.
type Service interface {
	List(ctx context.Context, query string) ([]Customer, error)
}

type service struct {
	dir   Directory
	cache *cache.Cache
	ttl   time.Duration
}

// NewService wires the customer directory. c may be nil to disable caching.
func NewService(dir Directory, c *cache.Cache, ttl time.Duration) (Service, error) {
	if dir == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user directory required")
	}
	return &service{dir: dir, cache: c, ttl: ttl}, nil
}

func (s *service) List(ctx context.Context, query string) ([]Customer, error) {
	users, err := cache.GetOrLoad(ctx, s.cache, s.key(), s.ttl, s.dir.ListUsers)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	return Filter(users, query), nil
}

func (s *service) key() string {
	if s.cache == nil {
		return ""
	}
	return s.cache.Key(cache.PrefixUsers, "all")
}

// Filter keeps users whose type is customer or unset and whose name, email or
// phone contains query, ignoring case.
func Filter(users []upstream.User, query string) []Customer {
	needle := strings.ToLower(strings.TrimSpace(query))
	matches := lo.Filter(users, func(u upstream.User, _ int) bool {
		if u.UserType != nil && !strings.EqualFold(strings.TrimSpace(*u.UserType), userTypeCustomer) {
			return false
		}
		if needle == "" {
			return true
		}
		return lo.SomeBy([]string{u.Name, u.Email, u.Phone}, func(v string) bool {
			return strings.Contains(strings.ToLower(v), needle)
		})
	})
	return lo.Map(matches, func(u upstream.User, _ int) Customer {
		return Customer{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone}
	})
}
