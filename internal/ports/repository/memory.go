package repository

import (
	"context"
	"sort"
	"sync"

	"attendance.service/internal/core/model"
	"github.com/google/uuid"
)

type userDay struct {
	userID string
	day    model.Day
}

// Memory is an in-process AttendanceStore. It keeps the same uniqueness rule
// as the PostgreSQL store and is used by tests and STORE_DRIVER=memory runs.
type Memory struct {
	mu    sync.RWMutex
	byID  map[string]*model.AttendanceRecord
	byKey map[userDay]string
}

func NewMemory() *Memory {
	return &Memory{
		byID:  make(map[string]*model.AttendanceRecord),
		byKey: make(map[userDay]string),
	}
}

func (m *Memory) FindByUserAndDay(ctx context.Context, userID string, day model.Day) (*model.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byKey[userDay{userID, day}]
	if !ok {
		return nil, nil
	}
	return copyRecord(m.byID[id]), nil
}

func (m *Memory) FindAllByDay(ctx context.Context, day model.Day) ([]model.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.AttendanceRecord
	for _, rec := range m.byID {
		if rec.Date == day {
			out = append(out, *copyRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *Memory) FindRange(ctx context.Context, userID string, start, end model.Day) ([]model.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.AttendanceRecord
	for _, rec := range m.byID {
		if userID != "" && rec.UserID != userID {
			continue
		}
		if rec.Date.Before(start) || rec.Date.After(end) {
			continue
		}
		out = append(out, *copyRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[j].Date.Before(out[i].Date)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (m *Memory) Create(ctx context.Context, record model.AttendanceRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := userDay{record.UserID, record.Date}
	if _, exists := m.byKey[key]; exists {
		return "", model.ErrDuplicateRecord
	}

	record.ID = uuid.NewString()
	m.byID[record.ID] = copyRecord(&record)
	m.byKey[key] = record.ID
	return record.ID, nil
}

func (m *Memory) Update(ctx context.Context, id string, patch model.Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byID[id]
	if !ok {
		return model.ErrNotFound
	}
	if rec.OutTime != nil {
		return model.ErrRecordClosed
	}
	out := patch.OutTime
	rec.OutTime = &out
	rec.Overtime = patch.Overtime
	return nil
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

func copyRecord(rec *model.AttendanceRecord) *model.AttendanceRecord {
	c := *rec
	if rec.InTime != nil {
		t := *rec.InTime
		c.InTime = &t
	}
	if rec.OutTime != nil {
		t := *rec.OutTime
		c.OutTime = &t
	}
	return &c
}
