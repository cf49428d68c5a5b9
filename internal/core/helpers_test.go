package core

import (
	"context"
	"sync"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/core/policy"
	"attendance.service/internal/ports/messaging"
)

var dhaka = time.FixedZone("BDT", 6*60*60)

func testPolicy() policy.Policy {
	p := policy.Default()
	p.Location = dhaka
	return p
}

// on returns an instant on 10 March 2025, Dhaka time.
func on(hour, min int) time.Time {
	return time.Date(2025, time.March, 10, hour, min, 0, 0, dhaka)
}

var testDay = model.Day{Year: 2025, Month: time.March, Day: 10}

type staticDirectory struct {
	users []model.Employee
	err   error
}

func (d *staticDirectory) ListAll(ctx context.Context) ([]model.Employee, error) {
	return d.users, d.err
}

func (d *staticDirectory) Get(ctx context.Context, id string) (*model.Employee, error) {
	for _, u := range d.users {
		if u.ID == id {
			u := u
			return &u, nil
		}
	}
	return nil, model.ErrUserNotFound
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []messaging.AttendanceEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, e messaging.AttendanceEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []messaging.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]messaging.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
