package service

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/hostel-booking/internal/model"
	"github.com/iliyamo/hostel-booking/internal/repository"
)

// memStore is a serializable in-memory Store.  InTx runs under one mutex
// and applies its writes to copies that are swapped in only when fn
// succeeds, so a failing transaction leaves no trace.
type memStore struct {
	mu           sync.Mutex
	rooms        map[uint64]model.Room
	hostels      map[uint64]model.Hostel
	reservations map[uint64]model.Reservation
	nextID       uint64

	failInsert   error // returned by InsertReservation after its checks
	failComplete error // returned by CompleteReservation
	commitHook   func(s *memStore) error // runs after fn succeeds; an error discards fn's writes
	beforeTx     func(s *memStore)
	txCount      int
}

func newMemStore() *memStore {
	return &memStore{
		rooms:        make(map[uint64]model.Room),
		hostels:      make(map[uint64]model.Hostel),
		reservations: make(map[uint64]model.Reservation),
	}
}

func (s *memStore) addHostel(h model.Hostel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.Status == "" {
		h.Status = model.HostelStatusApproved
	}
	s.hostels[h.ID] = h
}

func (s *memStore) addRoom(r model.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[r.ID] = r
}

func (s *memStore) room(id uint64) model.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[id]
}

func (s *memStore) byRef(ref string) (model.Reservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reservations {
		if r.PaymentRef == ref {
			return r, true
		}
	}
	return model.Reservation{}, false
}

// setStatus overwrites the status of the reservation recorded for ref.
func (s *memStore) setStatus(ref string, status model.ReservationStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.reservations {
		if r.PaymentRef == ref {
			r.Status = status
			s.reservations[id] = r
		}
	}
}

func (s *memStore) count(status model.ReservationStatus) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.reservations {
		if r.Status == status {
			n++
		}
	}
	return n
}

// bedsHeld sums the beds of completed reservations on a room.
func (s *memStore) bedsHeld(roomID uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.reservations {
		if r.RoomID == roomID && r.Status.HoldsInventory() {
			n += r.SeatsBooked
		}
	}
	return n
}

func (s *memStore) GetRoom(ctx context.Context, id uint64) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	return &r, nil
}

func (s *memStore) GetHostel(ctx context.Context, id uint64) (*model.Hostel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hostels[id]
	if !ok {
		return nil, repository.ErrHostelNotFound
	}
	return &h, nil
}

func (s *memStore) GetReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	return &r, nil
}

func (s *memStore) GetReservationByPaymentRef(ctx context.Context, ref string) (*model.Reservation, error) {
	r, ok := s.byRef(ref)
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	return &r, nil
}

func (s *memStore) CreateHold(ctx context.Context, res *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reservations {
		if r.PaymentRef == res.PaymentRef {
			return repository.ErrDuplicatePaymentRef
		}
	}
	s.nextID++
	res.ID = s.nextID
	res.Status = model.StatusPending
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}
	s.reservations[res.ID] = *res
	return nil
}

func (s *memStore) StaleHolds(ctx context.Context, roomID uint64, cutoff time.Time) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Reservation
	for _, r := range s.reservations {
		if r.RoomID == roomID && r.Status == model.StatusPending && r.CreatedAt.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) InTx(ctx context.Context, fn func(repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCount++
	if s.beforeTx != nil {
		s.beforeTx(s)
	}
	tx := &memTx{
		store:        s,
		rooms:        make(map[uint64]model.Room, len(s.rooms)),
		reservations: make(map[uint64]model.Reservation, len(s.reservations)),
		nextID:       s.nextID,
	}
	for k, v := range s.rooms {
		tx.rooms[k] = v
	}
	for k, v := range s.reservations {
		tx.reservations[k] = v
	}
	if err := fn(tx); err != nil {
		return err
	}
	if s.commitHook != nil {
		if err := s.commitHook(s); err != nil {
			return err
		}
	}
	s.rooms, s.reservations, s.nextID = tx.rooms, tx.reservations, tx.nextID
	return nil
}

type memTx struct {
	store        *memStore
	rooms        map[uint64]model.Room
	reservations map[uint64]model.Reservation
	nextID       uint64
}

func (t *memTx) LockReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	r, ok := t.reservations[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	return &r, nil
}

func (t *memTx) LockReservationByPaymentRef(ctx context.Context, ref string) (*model.Reservation, error) {
	for _, r := range t.reservations {
		if r.PaymentRef == ref {
			return &r, nil
		}
	}
	return nil, repository.ErrReservationNotFound
}

func (t *memTx) DecrementAvailableBeds(ctx context.Context, roomID uint64, seats int) error {
	r, ok := t.rooms[roomID]
	if !ok || r.AvailableBeds < seats {
		return repository.ErrInsufficientBeds
	}
	r.AvailableBeds -= seats
	t.rooms[roomID] = r
	return nil
}

func (t *memTx) IncrementAvailableBeds(ctx context.Context, roomID uint64, seats int) error {
	r, ok := t.rooms[roomID]
	if !ok || r.AvailableBeds+seats > r.TotalBeds {
		return repository.ErrBedsOverflow
	}
	r.AvailableBeds += seats
	t.rooms[roomID] = r
	return nil
}

func (t *memTx) InsertReservation(ctx context.Context, res *model.Reservation) error {
	for _, r := range t.reservations {
		if r.PaymentRef == res.PaymentRef {
			return repository.ErrDuplicatePaymentRef
		}
	}
	if t.store.failInsert != nil {
		return t.store.failInsert
	}
	t.nextID++
	res.ID = t.nextID
	res.CreatedAt = time.Now().UTC()
	t.reservations[res.ID] = *res
	return nil
}

func (t *memTx) CompleteReservation(ctx context.Context, res *model.Reservation) error {
	if t.store.failComplete != nil {
		return t.store.failComplete
	}
	cur, ok := t.reservations[res.ID]
	if !ok || cur.Status != model.StatusPending {
		return repository.ErrStaleStatus
	}
	cur.Status = model.StatusCompleted
	cur.AmountCents = res.AmountCents
	cur.Currency = res.Currency
	t.reservations[res.ID] = cur
	res.Status = model.StatusCompleted
	return nil
}

func (t *memTx) UpdateReservationStatus(ctx context.Context, id uint64, from, to model.ReservationStatus) error {
	cur, ok := t.reservations[id]
	if !ok || cur.Status != from {
		return repository.ErrStaleStatus
	}
	cur.Status = to
	t.reservations[id] = cur
	return nil
}

// recordingNotifier captures notifications.
type recordingNotifier struct {
	mu    sync.Mutex
	notes []Notification
	err   error
}

func (r *recordingNotifier) Notify(ctx context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
	return r.err
}

func (r *recordingNotifier) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notes...)
}
