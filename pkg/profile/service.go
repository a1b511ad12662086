package profile

import (
	"context"
	"fmt"

	"github.com/tendant/simple-bff/pkg/backend"
	"github.com/tendant/simple-bff/pkg/credentials"
)

const (
	currentUserPath   = "/users/me"
	organizationsPath = "/organizations"
	deleteAccountPath = "/auth/delete"
)

// User is the upstream profile payload.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Language  string `json:"language"`
}

// Organization is an organization the user belongs to.
type Organization struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// UserUpdate is a partial profile update; zero-valued fields are left
// out of the upstream payload.
type UserUpdate struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Language  string `json:"language,omitempty"`
}

// Service relays profile and organization calls to the upstream API.
type Service struct {
	client *backend.Client
}

// Option configures a Service
type Option func(*Service)

// WithClient sets the backend client.
func WithClient(client *backend.Client) Option {
	return func(s *Service) {
		s.client = client
	}
}

// NewService creates a Service.
func NewService(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentUser fetches the authenticated user's profile. The upstream
// wraps the payload in a data envelope.
func (s *Service) CurrentUser(ctx context.Context, source credentials.Source) (*User, error) {
	client := s.client.WithSource(source)

	var resp struct {
		Data User `json:"data"`
	}
	if err := client.Get(ctx, currentUserPath, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// UpdateUser patches the user's profile and returns the updated record.
// An empty userID is a caller bug, not an upstream failure.
func (s *Service) UpdateUser(ctx context.Context, source credentials.Source, userID string, update UserUpdate) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required to update profile")
	}
	client := s.client.WithSource(source)

	var user User
	if err := client.Patch(ctx, "/users/"+userID, update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Organizations lists the organizations the user belongs to, honoring
// pagination, sort and filter options.
func (s *Service) Organizations(ctx context.Context, source credentials.Source, opts backend.ListOptions) ([]Organization, error) {
	client := s.client.WithSource(source)

	var resp struct {
		Data []Organization `json:"data"`
	}
	if err := client.Get(ctx, organizationsPath, &resp, backend.WithQuery(opts.Values())); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// DeleteAccount deletes the authenticated user's account upstream. The
// caller is expected to clear the session afterwards.
func (s *Service) DeleteAccount(ctx context.Context, source credentials.Source) (string, error) {
	client := s.client.WithSource(source)

	var resp struct {
		Message string `json:"message"`
	}
	if err := client.Post(ctx, deleteAccountPath, struct{}{}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// EntityType names the membership container a user can be removed from.
type EntityType string

const (
	EntityOrganization EntityType = "organization"
	EntityProduct      EntityType = "product"
)

// RemoveMember removes a user from an organization or product.
func (s *Service) RemoveMember(ctx context.Context, source credentials.Source, entity EntityType, entityID, userID string) error {
	if entityID == "" || userID == "" {
		return fmt.Errorf("entity id and user id are required")
	}

	var path string
	switch entity {
	case EntityOrganization:
		path = "/organizations/" + entityID + "/users/" + userID
	case EntityProduct:
		path = "/products/" + entityID + "/users/" + userID
	default:
		return fmt.Errorf("unknown entity type: %q", entity)
	}

	client := s.client.WithSource(source)
	return client.Delete(ctx, path, struct{}{}, nil)
}
