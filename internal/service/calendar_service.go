package service

import (
	"context"
	"net/url"
	"time"

	"github.com/systematicmess/calendar-assistant/internal/cache"
	"github.com/systematicmess/calendar-assistant/internal/dto"
	"github.com/systematicmess/calendar-assistant/internal/httpclient"
)

// EventsResource names the calendar entry in the cache.
const EventsResource = "events"

type ICalendarService interface {
	// Events serves the cached agenda, fetching or revalidating as needed.
	Events(ctx context.Context) cache.Result[dto.EventsResponse]
	// Refresh fetches the agenda regardless of freshness.
	Refresh(ctx context.Context) cache.Result[dto.EventsResponse]
	// Peek reports the cached agenda without sending anything.
	Peek() cache.Result[dto.EventsResponse]
}

type calendarService struct {
	cache *cache.Cache
	query cache.Query[dto.EventsResponse]
}

func NewCalendarService(client *httpclient.Client, c *cache.Cache, staleTime time.Duration) ICalendarService {
	return &calendarService{
		cache: c,
		query: cache.Query[dto.EventsResponse]{
			Name:      EventsResource,
			StaleTime: staleTime,
			Fetch: func(ctx context.Context, sessionID string) (dto.EventsResponse, error) {
				var res dto.EventsResponse
				err := client.GetJSON(
					httpclient.WithSession(ctx, sessionID),
					"/cal/events",
					url.Values{"session_id": {sessionID}},
					&res,
				)
				return res, err
			},
		},
	}
}

func (s *calendarService) Events(ctx context.Context) cache.Result[dto.EventsResponse] {
	return cache.Fetch(ctx, s.cache, s.query)
}

func (s *calendarService) Refresh(ctx context.Context) cache.Result[dto.EventsResponse] {
	return cache.Refresh(ctx, s.cache, s.query)
}

func (s *calendarService) Peek() cache.Result[dto.EventsResponse] {
	return cache.Peek[dto.EventsResponse](s.cache, s.query.Name, s.query.StaleTime)
}
