// Package testutil provides an in-memory implementation of every repository,
// the event notifier, object storage and the mailer, sharing one state so
// cross-feature behaviour can be tested without Postgres, DynamoDB or Redis.
package testutil

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"Cooki-Backend/domain"
	"Cooki-Backend/entities"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInvalidUUID is what Postgres raises when a malformed id reaches a uuid
// column. The by-id lookups return it instead of a not-found error.
var ErrInvalidUUID = errors.New("invalid input syntax for type uuid")

type Store struct {
	mu sync.Mutex

	Users        map[uuid.UUID]*entities.User
	Pantries     map[uuid.UUID]*entities.Pantry
	Members      map[uuid.UUID]map[uuid.UUID]time.Time
	Items        map[uuid.UUID]*entities.Item
	Scans        map[uuid.UUID]*entities.ReceiptScan
	JoinRequests map[uuid.UUID]*entities.JoinRequest
	Events       map[string][]*entities.Event

	listeners map[string][]chan struct{}
	itemOrder []uuid.UUID
}

func NewStore() *Store {
	return &Store{
		Users:        make(map[uuid.UUID]*entities.User),
		Pantries:     make(map[uuid.UUID]*entities.Pantry),
		Members:      make(map[uuid.UUID]map[uuid.UUID]time.Time),
		Items:        make(map[uuid.UUID]*entities.Item),
		Scans:        make(map[uuid.UUID]*entities.ReceiptScan),
		JoinRequests: make(map[uuid.UUID]*entities.JoinRequest),
		Events:       make(map[string][]*entities.Event),
		listeners:    make(map[string][]chan struct{}),
	}
}

// Seeding helpers

// SeedUser stores a user and returns it.
func (s *Store) SeedUser(name string) *entities.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &entities.User{
		ID:    uuid.New(),
		Name:  name,
		Email: strings.ToLower(name) + "@cooki.test",
	}
	s.Users[u.ID] = u
	return u
}

// SeedPantry stores a pantry owned by owner with the given members and makes
// it the owner's current pantry.
func (s *Store) SeedPantry(name string, owner *entities.User, members ...*entities.User) *entities.Pantry {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &entities.Pantry{
		ID:        uuid.New(),
		Name:      name,
		OwnerID:   owner.ID,
		JoinToken: "token-" + uuid.NewString(),
	}
	s.Pantries[p.ID] = p
	s.Members[p.ID] = map[uuid.UUID]time.Time{owner.ID: time.Now()}
	for _, m := range members {
		s.Members[p.ID][m.ID] = time.Now()
	}
	if u, ok := s.Users[owner.ID]; ok && u.CurrentPantryID == nil {
		id := p.ID
		u.CurrentPantryID = &id
	}
	return s.pantryCopy(p)
}

// MemberIDs lists the pantry's member ids.
func (s *Store) MemberIDs(pantryID uuid.UUID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pantryCopy(s.Pantries[pantryID]).MemberIDs()
}

// PantryIDs lists the pantries userID belongs to.
func (s *Store) PantryIDs(userID uuid.UUID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userCopy(s.Users[userID]).PantryIDs()
}

// ItemsIn lists the items of a pantry in insertion order.
func (s *Store) ItemsIn(pantryID uuid.UUID) []*entities.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []*entities.Item
	for _, id := range s.itemOrder {
		if it, ok := s.Items[id]; ok && it.PantryID == pantryID {
			cp := *it
			res = append(res, &cp)
		}
	}
	return res
}

// EventsOf returns the stored events of a scope, newest first.
func (s *Store) EventsOf(scope domain.EventScope) []*entities.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eventsDesc(scope.Key())
}

func (s *Store) pantryCopy(p *entities.Pantry) *entities.Pantry {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Members = nil
	for uid, joined := range s.Members[p.ID] {
		cp.Members = append(cp.Members, &entities.PantryMember{PantryID: p.ID, UserID: uid, JoinedAt: joined})
	}
	sort.Slice(cp.Members, func(i, j int) bool {
		return cp.Members[i].JoinedAt.Before(cp.Members[j].JoinedAt)
	})
	return &cp
}

func (s *Store) userCopy(u *entities.User) *entities.User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.Memberships = nil
	for pid, members := range s.Members {
		if joined, ok := members[u.ID]; ok {
			cp.Memberships = append(cp.Memberships, &entities.PantryMember{PantryID: pid, UserID: u.ID, JoinedAt: joined})
		}
	}
	return &cp
}

// Users

func (s *Store) RegisterUser(ctx context.Context, user *entities.User, pantry *entities.Pantry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.Users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	pantry.OwnerID = user.ID
	user.CurrentPantryID = &pantry.ID
	cp := *user
	s.Users[user.ID] = &cp
	pcp := *pantry
	pcp.Members = nil
	s.Pantries[pantry.ID] = &pcp
	s.Members[pantry.ID] = map[uuid.UUID]time.Time{user.ID: time.Now()}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	u, ok := s.Users[uid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s.userCopy(u), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.Users {
		if u.Email == email {
			return s.userCopy(u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// Pantries

func (s *Store) CreatePantry(ctx context.Context, pantry *entities.Pantry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.Pantries {
		if p.JoinToken == pantry.JoinToken {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *pantry
	cp.Members = nil
	s.Pantries[pantry.ID] = &cp
	s.Members[pantry.ID] = map[uuid.UUID]time.Time{pantry.OwnerID: time.Now()}
	pantry.Members = s.pantryCopy(&cp).Members
	return nil
}

func (s *Store) GetPantryByID(ctx context.Context, id string) (*entities.Pantry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pid, err := uuid.Parse(id)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	p, ok := s.Pantries[pid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s.pantryCopy(p), nil
}

func (s *Store) GetPantryByJoinToken(ctx context.Context, token string) (*entities.Pantry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.Pantries {
		if p.JoinToken == token {
			return s.pantryCopy(p), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *Store) GetPantriesByUserID(ctx context.Context, userID string) ([]*entities.Pantry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid, _ := uuid.Parse(userID)
	var res []*entities.Pantry
	for pid, members := range s.Members {
		if _, ok := members[uid]; ok {
			res = append(res, s.pantryCopy(s.Pantries[pid]))
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (s *Store) UpdatePantryName(ctx context.Context, id string, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.Pantries[uuid.MustParse(id)]; ok {
		p.Name = name
	}
	return nil
}

func (s *Store) UpdateJoinToken(ctx context.Context, id string, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.Pantries[uuid.MustParse(id)]; ok {
		p.JoinToken = token
	}
	return nil
}

func (s *Store) CountItems(ctx context.Context, pantryID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pid, _ := uuid.Parse(pantryID)
	var n int64
	for _, it := range s.Items {
		if it.PantryID == pid {
			n++
		}
	}
	return n, nil
}

func (s *Store) IsMember(ctx context.Context, pantryID string, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pid, _ := uuid.Parse(pantryID)
	uid, _ := uuid.Parse(userID)
	_, ok := s.Members[pid][uid]
	return ok, nil
}

func (s *Store) AddMember(ctx context.Context, pantryID string, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pid := uuid.MustParse(pantryID)
	uid := uuid.MustParse(userID)
	if _, ok := s.Members[pid][uid]; ok {
		return gorm.ErrDuplicatedKey
	}
	if s.Members[pid] == nil {
		s.Members[pid] = make(map[uuid.UUID]time.Time)
	}
	s.Members[pid][uid] = time.Now()
	return nil
}

func (s *Store) RemoveMember(ctx context.Context, pantryID string, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pid := uuid.MustParse(pantryID)
	uid := uuid.MustParse(userID)
	if _, ok := s.Members[pid][uid]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.Members[pid], uid)
	return nil
}

func (s *Store) CountMembers(ctx context.Context, pantryID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.Members[uuid.MustParse(pantryID)])), nil
}

func (s *Store) GetCurrentPantryID(ctx context.Context, userID string) (*uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	u, ok := s.Users[uid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if u.CurrentPantryID == nil {
		return nil, nil
	}
	id := *u.CurrentPantryID
	return &id, nil
}

func (s *Store) SetCurrentPantryID(ctx context.Context, userID string, pantryID *uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.Users[uuid.MustParse(userID)]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if pantryID == nil {
		u.CurrentPantryID = nil
		return nil
	}
	id := *pantryID
	u.CurrentPantryID = &id
	return nil
}

// Items

func (s *Store) AddItem(ctx context.Context, item *entities.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	now := time.Now()
	item.CreatedAt, item.UpdatedAt = now, now
	cp := *item
	s.Items[item.ID] = &cp
	s.itemOrder = append(s.itemOrder, item.ID)
	return nil
}

func (s *Store) GetItemByID(ctx context.Context, id string) (*entities.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	iid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidUUID
	}
	it, ok := s.Items[iid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *it
	return &cp, nil
}

func (s *Store) UpdateItem(ctx context.Context, item *entities.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Items[item.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	item.UpdatedAt = time.Now()
	cp := *item
	s.Items[item.ID] = &cp
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Items, uuid.MustParse(id))
	return nil
}

func (s *Store) GetItems(ctx context.Context, pantryID string, filter domain.ItemFilter, now time.Time, page, limit int) ([]*entities.Item, int64, error) {
	all, _ := s.GetItemsByPantry(ctx, pantryID)
	var matched []*entities.Item
	for _, it := range all {
		if filter.Location != "" && it.Location != filter.Location {
			continue
		}
		if filter.Category != "" && it.Category != filter.Category {
			continue
		}
		if filter.Status != "" && domain.ExpiryStatusOf(it.ExpiryDate, now) != filter.Status {
			continue
		}
		matched = append(matched, it)
	}

	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return []*entities.Item{}, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *Store) GetItemsByPantry(ctx context.Context, pantryID string) ([]*entities.Item, error) {
	pid, err := uuid.Parse(pantryID)
	if err != nil {
		return nil, err
	}
	return s.ItemsIn(pid), nil
}

// Receipt scans

func (s *Store) CreateReceiptScan(ctx context.Context, scan *entities.ReceiptScan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	scan.CreatedAt = time.Now()
	cp := *scan
	s.Scans[scan.ID] = &cp
	return nil
}

func (s *Store) GetReceiptScanByID(ctx context.Context, id string) (*entities.ReceiptScan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidUUID
	}
	scan, ok := s.Scans[sid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *scan
	return &cp, nil
}

func (s *Store) UpdateReceiptScan(ctx context.Context, scan *entities.ReceiptScan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *scan
	s.Scans[scan.ID] = &cp
	return nil
}

// Join requests

func (s *Store) CreateJoinRequest(ctx context.Context, req *entities.JoinRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.JoinRequests {
		if r.PantryID == req.PantryID && r.RequesterID == req.RequesterID && r.IsPending() {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *req
	s.JoinRequests[req.ID] = &cp
	return nil
}

func (s *Store) GetJoinRequestByID(ctx context.Context, id string) (*entities.JoinRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidUUID
	}
	r, ok := s.JoinRequests[rid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *Store) GetPendingJoinRequest(ctx context.Context, pantryID string, requesterID string) (*entities.JoinRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.JoinRequests {
		if r.PantryID.String() == pantryID && r.RequesterID.String() == requesterID && r.IsPending() {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *Store) GetJoinRequestsByPantry(ctx context.Context, pantryID string, status string) ([]*entities.JoinRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]*entities.JoinRequest, 0)
	for _, r := range s.JoinRequests {
		if r.PantryID.String() != pantryID || (status != "" && r.Status != status) {
			continue
		}
		cp := *r
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (s *Store) ApproveJoinRequest(ctx context.Context, id string, responderID string, at time.Time) (*entities.JoinRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.respond(id, responderID, entities.JoinRequestApproved, at)
	if err != nil {
		return nil, err
	}
	if s.Members[r.PantryID] == nil {
		s.Members[r.PantryID] = make(map[uuid.UUID]time.Time)
	}
	if _, ok := s.Members[r.PantryID][r.RequesterID]; !ok {
		s.Members[r.PantryID][r.RequesterID] = at
	}
	if u, ok := s.Users[r.RequesterID]; ok && u.CurrentPantryID == nil {
		pid := r.PantryID
		u.CurrentPantryID = &pid
	}
	cp := *r
	return &cp, nil
}

func (s *Store) RejectJoinRequest(ctx context.Context, id string, responderID string, at time.Time) (*entities.JoinRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.respond(id, responderID, entities.JoinRequestRejected, at)
	if err != nil {
		return nil, err
	}
	cp := *r
	return &cp, nil
}

func (s *Store) respond(id string, responderID string, status string, at time.Time) (*entities.JoinRequest, error) {
	rid, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrJoinRequestNotFound
	}
	r, ok := s.JoinRequests[rid]
	if !ok {
		return nil, domain.ErrJoinRequestNotFound
	}
	if !r.IsPending() {
		return nil, domain.ErrJoinRequestNotPending
	}
	responder := uuid.MustParse(responderID)
	r.Status = status
	r.RespondedAt = &at
	r.RespondedBy = &responder
	return r, nil
}

// Events

func (s *Store) AppendEvent(ctx context.Context, scope domain.EventScope, event *entities.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event.PK = scope.Key()
	event.SK = domain.EventSortKeyPrefix + event.ID
	cp := *event
	cp.ReadBy = append([]string(nil), event.ReadBy...)
	s.Events[scope.Key()] = append(s.Events[scope.Key()], &cp)
	return nil
}

func (s *Store) GetEvents(ctx context.Context, scope domain.EventScope, limit int) ([]*entities.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.eventsDesc(scope.Key())
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (s *Store) MarkRead(ctx context.Context, scope domain.EventScope, eventID string, readerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.Events[scope.Key()] {
		if e.ID != eventID {
			continue
		}
		if !e.IsReadBy(readerID) {
			e.ReadBy = append(e.ReadBy, readerID)
		}
		return nil
	}
	return domain.ErrEventNotFound
}

// eventsDesc must be called with mu held.
func (s *Store) eventsDesc(key string) []*entities.Event {
	src := s.Events[key]
	res := make([]*entities.Event, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		cp := *src[i]
		cp.ReadBy = append([]string(nil), src[i].ReadBy...)
		res = append(res, &cp)
	}
	return res
}

// Notifier

func (s *Store) Notify(ctx context.Context, channel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.listeners[channel] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (s *Store) Listen(ctx context.Context, channel string) (<-chan struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in := make(chan struct{}, 1)
	s.listeners[channel] = append(s.listeners[channel], in)

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		list := s.listeners[channel]
		for i, ch := range list {
			if ch == in {
				s.listeners[channel] = append(list[:i], list[i+1:]...)
				break
			}
		}
		close(in)
	}()
	return in, nil
}
