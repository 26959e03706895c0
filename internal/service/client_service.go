package service

import (
	"context"
	"strings"

	"github.com/andy/timeledger/internal/domain"
	"github.com/andy/timeledger/internal/logger"
	"github.com/andy/timeledger/internal/repository"
	"github.com/rs/zerolog"
	"github.com/sahilm/fuzzy"
)

// ClientService manages the client registry
type ClientService interface {
	Create(ctx context.Context, client *domain.Client) error
	Get(ctx context.Context, id string) (*domain.Client, error)
	List(ctx context.Context) ([]*domain.Client, error)
	Update(ctx context.Context, client *domain.Client) error

	// Resolve finds a client by id, exact name, or an unambiguous fuzzy name match
	Resolve(ctx context.Context, query string) (*domain.Client, error)
}

type clientService struct {
	clientRepo repository.ClientRepository
	log        zerolog.Logger
}

// NewClientService creates a new client service
func NewClientService(clientRepo repository.ClientRepository) ClientService {
	return &clientService{
		clientRepo: clientRepo,
		log:        logger.WithComponent("clients"),
	}
}

func (s *clientService) Create(ctx context.Context, client *domain.Client) error {
	if err := s.clientRepo.Create(ctx, client); err != nil {
		return err
	}
	s.log.Info().Str("client_id", client.ID).Str("name", client.Name).Msg("client created")
	return nil
}

func (s *clientService) Get(ctx context.Context, id string) (*domain.Client, error) {
	return s.clientRepo.GetByID(ctx, id)
}

func (s *clientService) List(ctx context.Context) ([]*domain.Client, error) {
	return s.clientRepo.List(ctx)
}

func (s *clientService) Update(ctx context.Context, client *domain.Client) error {
	if err := s.clientRepo.Update(ctx, client); err != nil {
		return err
	}
	s.log.Info().Str("client_id", client.ID).Msg("client updated")
	return nil
}

// clientNames adapts a client list to fuzzy.Source
type clientNames []*domain.Client

func (c clientNames) String(i int) string { return c[i].Name }
func (c clientNames) Len() int            { return len(c) }

func (s *clientService) Resolve(ctx context.Context, query string) (*domain.Client, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.NewValidationError("client", "client name or id is required")
	}

	clients, err := s.clientRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, c := range clients {
		if c.ID == query || strings.EqualFold(c.Name, query) {
			return c, nil
		}
	}

	matches := fuzzy.FindFrom(query, clientNames(clients))
	switch {
	case len(matches) == 0:
		return nil, &domain.NotFoundError{Entity: "client", ID: query}
	case len(matches) > 1 && matches[0].Score == matches[1].Score:
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			if m.Score == matches[0].Score {
				names = append(names, clients[m.Index].Name)
			}
		}
		return nil, domain.NewValidationError("client", "%q is ambiguous: %s", query, strings.Join(names, ", "))
	}

	client := clients[matches[0].Index]
	s.log.Debug().Str("query", query).Str("client_id", client.ID).Msgf("resolved client %q", client.Name)
	return client, nil
}
