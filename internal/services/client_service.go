package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"billing-backend/internal/billing"
	"billing-backend/internal/models"
	"billing-backend/internal/repositories"
	"billing-backend/internal/timeutil"

	"github.com/google/uuid"
)

type ClientService struct {
	Repo  ClientStore
	cache InvoiceCache
}

// NewClientService creates the client service. cache may be nil; it is
// flushed when a client edit rewrites the contact details of its drafts.
func NewClientService(repo ClientStore, cache InvoiceCache) *ClientService {
	if cache == nil {
		cache = noopCache{}
	}
	return &ClientService{Repo: repo, cache: cache}
}

func (s *ClientService) CreateClient(ctx context.Context, req *models.ClientRequest) (*models.Client, error) {
	if err := validateClient(req); err != nil {
		return nil, err
	}

	now := timeutil.Now()
	client := &models.Client{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Phone:     req.Phone,
		Company:   req.Company,
		Address:   req.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.Repo.Create(ctx, client); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, billing.NewValidationError("a client with this email already exists")
		}
		return nil, &billing.PersistenceError{Op: "create client", Err: err}
	}
	return client, nil
}

func (s *ClientService) GetClient(ctx context.Context, id string) (*models.Client, error) {
	client, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, lookupErr("client", id, "get client", err)
	}
	return client, nil
}

func (s *ClientService) ListClients(ctx context.Context) ([]*models.Client, error) {
	clients, err := s.Repo.List(ctx)
	if err != nil {
		return nil, &billing.PersistenceError{Op: "list clients", Err: err}
	}
	return clients, nil
}

func (s *ClientService) UpdateClient(ctx context.Context, id string, req *models.ClientRequest) (*models.Client, error) {
	if err := validateClient(req); err != nil {
		return nil, err
	}

	client, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, lookupErr("client", id, "get client", err)
	}
	client.Name = strings.TrimSpace(req.Name)
	client.Email = strings.TrimSpace(req.Email)
	client.Phone = req.Phone
	client.Company = req.Company
	client.Address = req.Address
	client.UpdatedAt = timeutil.Now()

	if err := s.Repo.Update(ctx, client); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, billing.NewValidationError("a client with this email already exists")
		}
		return nil, lookupErr("client", id, "update client", err)
	}
	s.cache.InvalidateAll(ctx)
	return client, nil
}

// DeleteClient refuses clients that still have invoices
func (s *ClientService) DeleteClient(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return billing.NewValidationError("client has invoices and cannot be deleted")
		}
		return lookupErr("client", id, "delete client", err)
	}
	return nil
}

func validateClient(req *models.ClientRequest) error {
	var problems []string
	if strings.TrimSpace(req.Name) == "" {
		problems = append(problems, "name is required")
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		problems = append(problems, "email is required")
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		problems = append(problems, "email is not a valid address")
	}
	if len(problems) > 0 {
		return billing.NewValidationError(problems...)
	}
	return nil
}
