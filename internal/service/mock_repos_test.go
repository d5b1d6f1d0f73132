package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"shiftdesk/backend/internal/model"
	"shiftdesk/backend/internal/repository"
	pkgerrors "shiftdesk/backend/pkg/errors"
	"shiftdesk/backend/pkg/mq"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User // key: user_id
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.UserID == "" {
		user.UserID = "uid-" + user.Email
	}
	if user.Version == 0 {
		user.Version = 1
	}
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[user.UserID]
	if !ok || stored.Version != user.Version {
		return pkgerrors.ErrOptimisticLock
	}
	user.Version++
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, role string) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.User
	for _, u := range m.users {
		if role == "" || u.Role == role {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result, nil
}

func (m *mockUserRepo) CountByRole(_ context.Context, role string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// ── Mock ShiftRepository ──
//
// 存取均做深拷贝，Update 按 version 做比较并交换，与 GORM 实现一致。

type mockShiftRepo struct {
	mu     sync.Mutex
	shifts map[string]*model.Shift

	// beforeUpdate 在版本比较之前调用，可用来模拟并发写入
	beforeUpdate func(shift *model.Shift)
	// updateErr 非 nil 时 Update 直接返回该错误
	updateErr error
	updates   int
}

func newMockShiftRepo() *mockShiftRepo {
	return &mockShiftRepo{shifts: make(map[string]*model.Shift)}
}

func cloneShift(s *model.Shift) *model.Shift {
	cp := *s
	if s.AcceptedEmployees != nil {
		cp.AcceptedEmployees = append(model.EmployeeIDList{}, s.AcceptedEmployees...)
	}
	if s.Attendance != nil {
		cp.Attendance = make(model.AttendanceLedger, len(s.Attendance))
		for i, r := range s.Attendance {
			if r.CheckOut != nil {
				out := *r.CheckOut
				r.CheckOut = &out
			}
			cp.Attendance[i] = r
		}
	}
	return &cp
}

func (m *mockShiftRepo) put(s *model.Shift) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.Version == 0 {
		s.Version = 1
	}
	m.shifts[s.ShiftID] = cloneShift(s)
}

func (m *mockShiftRepo) get(id string) *model.Shift {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.shifts[id]; ok {
		return cloneShift(s)
	}
	return nil
}

func (m *mockShiftRepo) Create(_ context.Context, shift *model.Shift) error {
	if shift.ShiftID == "" {
		shift.ShiftID = "shift-" + shift.Title
	}
	m.put(shift)
	if shift.Version == 0 {
		shift.Version = 1
	}
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	if s := m.get(id); s != nil {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) filter(keep func(s *model.Shift) bool, less func(a, b model.Shift) bool) []model.Shift {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Shift
	for _, s := range m.shifts {
		if keep(s) {
			result = append(result, *cloneShift(s))
		}
	}
	sort.Slice(result, func(i, j int) bool { return less(result[i], result[j]) })
	return result
}

func startAsc(a, b model.Shift) bool  { return a.StartTime.Before(b.StartTime) }
func startDesc(a, b model.Shift) bool { return a.StartTime.After(b.StartTime) }

func (m *mockShiftRepo) ListByOwner(_ context.Context, ownerID, status string, now time.Time) ([]model.Shift, error) {
	switch status {
	case repository.ShiftStatusUpcoming:
		return m.filter(func(s *model.Shift) bool {
			return s.OwnerManagerID == ownerID && !s.StartTime.Before(now)
		}, startAsc), nil
	case repository.ShiftStatusPast:
		return m.filter(func(s *model.Shift) bool {
			return s.OwnerManagerID == ownerID && s.StartTime.Before(now)
		}, startDesc), nil
	default:
		return m.filter(func(s *model.Shift) bool { return s.OwnerManagerID == ownerID }, startAsc), nil
	}
}

func (m *mockShiftRepo) ListAvailable(_ context.Context, now time.Time) ([]model.Shift, error) {
	return m.filter(func(s *model.Shift) bool {
		return !s.StartTime.Before(now) && s.SlotsAvailable > 0
	}, startAsc), nil
}

func (m *mockShiftRepo) ListByRosterMember(_ context.Context, employeeID string) ([]model.Shift, error) {
	return m.filter(func(s *model.Shift) bool { return s.AcceptedEmployees.Contains(employeeID) }, startAsc), nil
}

func (m *mockShiftRepo) ListAttendanceHistory(_ context.Context, employeeID string, from, to *time.Time) ([]model.Shift, error) {
	return m.filter(func(s *model.Shift) bool {
		if !s.AcceptedEmployees.Contains(employeeID) {
			return false
		}
		if _, ok := s.Attendance.FirstFor(employeeID); !ok {
			return false
		}
		if from != nil && s.StartTime.Before(*from) {
			return false
		}
		if to != nil && s.StartTime.After(*to) {
			return false
		}
		return true
	}, startDesc), nil
}

func (m *mockShiftRepo) Update(_ context.Context, shift *model.Shift) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if m.beforeUpdate != nil {
		m.beforeUpdate(shift)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.shifts[shift.ShiftID]
	if !ok || stored.Version != shift.Version {
		return pkgerrors.ErrOptimisticLock
	}
	shift.Version++
	m.shifts[shift.ShiftID] = cloneShift(shift)
	m.updates++
	return nil
}

func (m *mockShiftRepo) Delete(_ context.Context, id, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shifts[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.shifts, id)
	return nil
}

func (m *mockShiftRepo) updateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}

// ── 测试辅助 ──

// newMockRepository 组装不绑定数据库的 Repository 聚合
func newMockRepository() (*repository.Repository, *mockUserRepo, *mockShiftRepo) {
	users := newMockUserRepo()
	shifts := newMockShiftRepo()
	return &repository.Repository{User: users, Shift: shifts}, users, shifts
}

var testShiftStart = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func seedShift(shifts *mockShiftRepo, id, ownerID string, slots int) *model.Shift {
	s := &model.Shift{
		ShiftID:        id,
		Title:          "早班 " + id,
		StartTime:      testShiftStart,
		EndTime:        testShiftStart.Add(8 * time.Hour),
		OwnerManagerID: ownerID,
		SlotsAvailable: slots,
	}
	shifts.put(s)
	return s
}

func seedUser(users *mockUserRepo, id, role string) *model.User {
	u := &model.User{
		UserID:   id,
		Username: "user " + id,
		Email:    id + "@example.com",
		Role:     role,
	}
	_ = users.Create(context.Background(), u)
	return u
}

// recordingPublisher 记录发布的事件
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event mq.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event.Type)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}
