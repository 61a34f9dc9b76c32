package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"airbnmail/internal/model"
	"airbnmail/internal/repository"
)

// InMemoryNotificationRepository keeps notifications and event links in
// maps. Used by tests and when no DATABASE_URL is configured.
type InMemoryNotificationRepository struct {
	notifications map[string]*model.Notification
	eventLinks    map[string]*model.CalendarEventLink
	mutex         sync.RWMutex
}

func NewInMemoryNotificationRepository() *InMemoryNotificationRepository {
	return &InMemoryNotificationRepository{
		notifications: make(map[string]*model.Notification),
		eventLinks:    make(map[string]*model.CalendarEventLink),
	}
}

func (r *InMemoryNotificationRepository) Get(ctx context.Context, notificationID string) (*model.Notification, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	n, exists := r.notifications[notificationID]
	if !exists {
		return nil, repository.ErrNotFound
	}
	return n, nil
}

func (r *InMemoryNotificationRepository) Upsert(ctx context.Context, n *model.Notification) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.notifications[n.NotificationID] = n
	return nil
}

func (r *InMemoryNotificationRepository) FindBySimilarity(ctx context.Context, propertyName, checkIn, checkOut, guestName string) ([]*model.Notification, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var result []*model.Notification
	for _, n := range r.notifications {
		if n.PropertyName == propertyName && n.CheckIn == checkIn && n.CheckOut == checkOut && n.GuestName == guestName {
			result = append(result, n)
		}
	}
	return result, nil
}

func (r *InMemoryNotificationRepository) FindAll(ctx context.Context, limit, offset int) ([]*model.Notification, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	all := make([]*model.Notification, 0, len(r.notifications))
	for _, n := range r.notifications {
		all = append(all, n)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].ReceivedAt.After(all[j].ReceivedAt)
	})

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *InMemoryNotificationRepository) GetEventLink(ctx context.Context, notificationID string) (*model.CalendarEventLink, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	link, exists := r.eventLinks[notificationID]
	if !exists {
		return nil, repository.ErrNotFound
	}
	return link, nil
}

func (r *InMemoryNotificationRepository) SaveEventLink(ctx context.Context, link *model.CalendarEventLink) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	saved := *link
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now()
	}
	r.eventLinks[link.NotificationID] = &saved
	return nil
}

func (r *InMemoryNotificationRepository) DeleteEventLink(ctx context.Context, notificationID string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.eventLinks, notificationID)
	return nil
}
