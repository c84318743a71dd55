package service

import (
	"context"
	"fmt"

	"github.com/systematicmess/calendar-assistant/internal/dto"
	"github.com/systematicmess/calendar-assistant/internal/httpclient"
)

type IHealthService interface {
	Check(ctx context.Context) (*dto.HealthResponse, error)
}

type healthService struct {
	client *httpclient.Client
}

func NewHealthService(client *httpclient.Client) IHealthService {
	return &healthService{client: client}
}

func (s *healthService) Check(ctx context.Context) (*dto.HealthResponse, error) {
	var res dto.HealthResponse
	if err := s.client.GetJSON(ctx, "/healthz", nil, &res); err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}
	return &res, nil
}
