package roster

import (
	"errors"
	"testing"
	"time"

	"shiftdesk/backend/internal/model"
)

func TestComputeHours(t *testing.T) {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   time.Time
		out  time.Time
		want float64
	}{
		{"两个半小时", base, base.Add(2*time.Hour + 30*time.Minute), 2.5},
		{"八小时十五分", base, time.Date(2024, 1, 1, 17, 15, 0, 0, time.UTC), 8.25},
		{"一分钟", base, base.Add(time.Minute), 0.02},
		{"二十分钟", base, base.Add(20 * time.Minute), 0.33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeHours(tt.in, tt.out); got != tt.want {
				t.Errorf("期望 %.2f，实际=%v", tt.want, got)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	ok := []string{
		"2024-01-01T09:00:00Z",
		"2024-01-01T17:00:00+08:00",
		"2024-01-01T09:00:00.000",
		"2024-01-01T09:00:00",
		"2024-01-01T09:00",
		"2024-01-01 09:00:00",
	}
	for _, raw := range ok {
		got, err := ParseTimestamp(raw)
		if err != nil {
			t.Errorf("%q 应可解析: %v", raw, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("%q 期望 %v，实际=%v", raw, want, got)
		}
	}

	got, err := ParseTimestamp("2024-01-01T09:00:00.123456Z")
	if err != nil {
		t.Fatalf("带微秒的时间应可解析: %v", err)
	}
	if got.Nanosecond() != 123_000_000 {
		t.Errorf("期望截断到毫秒，实际纳秒=%d", got.Nanosecond())
	}

	for _, raw := range []string{"", "   ", "yesterday", "2024-13-01T00:00:00Z", "09:00"} {
		if _, err := ParseTimestamp(raw); !errors.Is(err, ErrInvalidTimestamp) {
			t.Errorf("%q 期望 ErrInvalidTimestamp，实际=%v", raw, err)
		}
	}
}

func TestCheckIn_Success_DefaultNow(t *testing.T) {
	s := newShift(1)
	_ = Apply(s, "emp-a")
	now := time.Date(2024, 1, 1, 9, 0, 0, 987_654_321, time.UTC)

	rec, err := CheckIn(s, owner, "emp-a", "", now)
	if err != nil {
		t.Fatalf("CheckIn 应成功: %v", err)
	}
	if !rec.CheckIn.Equal(now.Truncate(time.Millisecond)) {
		t.Errorf("期望签到时间=%v，实际=%v", now.Truncate(time.Millisecond), rec.CheckIn)
	}
	if rec.CheckOut != nil || rec.TotalHours != 0 {
		t.Errorf("新记录应未签退且工时为 0，实际 checkOut=%v hours=%v", rec.CheckOut, rec.TotalHours)
	}
	if len(s.Attendance) != 1 {
		t.Errorf("期望考勤 1 条，实际=%d", len(s.Attendance))
	}
}

func TestCheckIn_Errors(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		authz     Authorizer
		onRoster  bool
		openFirst bool
		requested string
		wantErr   error
	}{
		{"非所有者", OwnerAuthorizer{ManagerID: "mgr-2"}, true, false, "", ErrForbidden},
		{"不在名单", owner, false, false, "", ErrNotAccepted},
		{"重复签到", owner, true, true, "", ErrAlreadyCheckedIn},
		{"时间非法", owner, true, false, "not-a-time", ErrInvalidTimestamp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newShift(1)
			if tt.onRoster {
				_ = Apply(s, "emp-a")
			}
			if tt.openFirst {
				if _, err := CheckIn(s, owner, "emp-a", "", now); err != nil {
					t.Fatalf("首次签到失败: %v", err)
				}
			}
			before := snapshot(s)

			_, err := CheckIn(s, tt.authz, "emp-a", tt.requested, now)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("期望 %v，实际=%v", tt.wantErr, err)
			}
			assertUnchanged(t, before, s)
		})
	}
}

func TestCheckOut_Success(t *testing.T) {
	s := newShift(1)
	_ = Apply(s, "emp-a")
	if _, err := CheckIn(s, owner, "emp-a", "2024-01-01T09:00:00Z", time.Time{}); err != nil {
		t.Fatalf("CheckIn 失败: %v", err)
	}

	rec, err := CheckOut(s, owner, "emp-a", "2024-01-01T17:15:00Z", time.Time{})
	if err != nil {
		t.Fatalf("CheckOut 应成功: %v", err)
	}
	if rec.TotalHours != 8.25 {
		t.Errorf("期望工时 8.25，实际=%v", rec.TotalHours)
	}
	if rec.CheckOut == nil || !rec.CheckOut.After(rec.CheckIn) {
		t.Errorf("签退时间应晚于签到时间，实际=%v", rec.CheckOut)
	}
	if s.Attendance[0].IsOpen() {
		t.Error("快照中的记录应已关闭")
	}
}

func TestCheckOut_DefaultNow(t *testing.T) {
	s := newShift(1)
	_ = Apply(s, "emp-a")
	in := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	_, _ = CheckIn(s, owner, "emp-a", "", in)

	rec, err := CheckOut(s, owner, "emp-a", "", in.Add(150*time.Minute))
	if err != nil {
		t.Fatalf("CheckOut 应成功: %v", err)
	}
	if rec.TotalHours != 2.5 {
		t.Errorf("期望工时 2.5，实际=%v", rec.TotalHours)
	}
}

func TestCheckOut_NotAfterCheckIn(t *testing.T) {
	in := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	for _, out := range []string{"2024-01-01T09:00:00Z", "2024-01-01T08:59:59Z"} {
		s := newShift(1)
		_ = Apply(s, "emp-a")
		_, _ = CheckIn(s, owner, "emp-a", "", in)
		before := snapshot(s)

		_, err := CheckOut(s, owner, "emp-a", out, in)
		if !errors.Is(err, ErrInvalidRange) {
			t.Errorf("%s 期望 ErrInvalidRange，实际=%v", out, err)
		}
		if !s.Attendance[0].IsOpen() {
			t.Errorf("%s 失败后记录应保持未签退", out)
		}
		assertUnchanged(t, before, s)
	}

	// 未提供时间且 now 早于签到时间
	s := newShift(1)
	_ = Apply(s, "emp-a")
	_, _ = CheckIn(s, owner, "emp-a", "", in)
	if _, err := CheckOut(s, owner, "emp-a", "", in.Add(-time.Hour)); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("now 早于签到时间期望 ErrInvalidRange，实际=%v", err)
	}
}

func TestCheckOut_NotCheckedIn(t *testing.T) {
	s := newShift(1)
	_ = Apply(s, "emp-a")

	if _, err := CheckOut(s, owner, "emp-a", "", time.Now()); !errors.Is(err, ErrNotCheckedIn) {
		t.Fatalf("期望 ErrNotCheckedIn，实际=%v", err)
	}

	in := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	_, _ = CheckIn(s, owner, "emp-a", "", in)
	_, _ = CheckOut(s, owner, "emp-a", "", in.Add(time.Hour))
	if _, err := CheckOut(s, owner, "emp-a", "", in.Add(2*time.Hour)); !errors.Is(err, ErrNotCheckedIn) {
		t.Fatalf("已签退后再次签退期望 ErrNotCheckedIn，实际=%v", err)
	}
}

// 旧数据中以 checkOut == checkIn 表示未签退
func TestCheckOut_LegacyOpenRecord(t *testing.T) {
	s := newShift(1)
	_ = Apply(s, "emp-a")
	in := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	legacyOut := in
	s.Attendance = model.AttendanceLedger{{EmployeeID: "emp-a", CheckIn: in, CheckOut: &legacyOut}}

	if _, err := CheckIn(s, owner, "emp-a", "", in); !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Errorf("旧格式未签退记录期望 ErrAlreadyCheckedIn，实际=%v", err)
	}
	rec, err := CheckOut(s, owner, "emp-a", "", in.Add(4*time.Hour))
	if err != nil {
		t.Fatalf("CheckOut 应成功: %v", err)
	}
	if rec.TotalHours != 4 {
		t.Errorf("期望工时 4，实际=%v", rec.TotalHours)
	}
}

// 签到 → 签退 → 再次签到会产生第二条记录，签退作用于未关闭的那条
func TestAttendance_SecondCycle(t *testing.T) {
	s := newShift(1)
	_ = Apply(s, "emp-a")
	in := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	_, _ = CheckIn(s, owner, "emp-a", "", in)
	_, _ = CheckOut(s, owner, "emp-a", "", in.Add(time.Hour))

	if _, err := CheckIn(s, owner, "emp-a", "", in.Add(2*time.Hour)); err != nil {
		t.Fatalf("第二次签到应成功: %v", err)
	}
	rec, err := CheckOut(s, owner, "emp-a", "", in.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("第二次签退应成功: %v", err)
	}
	if !rec.CheckIn.Equal(in.Add(2 * time.Hour)) {
		t.Errorf("签退应作用于第二条记录，实际签到时间=%v", rec.CheckIn)
	}
	first, _ := s.Attendance.FirstFor("emp-a")
	if first.TotalHours != 1 {
		t.Errorf("第一条记录不应被修改，实际工时=%v", first.TotalHours)
	}
}

func TestScenario_EndToEnd(t *testing.T) {
	s := newShift(2)

	if err := Apply(s, "A"); err != nil {
		t.Fatalf("A 申请失败: %v", err)
	}
	if err := Apply(s, "B"); err != nil {
		t.Fatalf("B 申请失败: %v", err)
	}
	if s.SlotsAvailable != 0 {
		t.Fatalf("期望 slots=0，实际=%d", s.SlotsAvailable)
	}
	if err := Apply(s, "C"); !errors.Is(err, ErrNoCapacity) {
		t.Fatalf("C 期望 ErrNoCapacity，实际=%v", err)
	}

	if _, err := CheckIn(s, owner, "A", "2024-01-01T09:00:00Z", time.Time{}); err != nil {
		t.Fatalf("A 签到失败: %v", err)
	}
	rec, err := CheckOut(s, owner, "A", "2024-01-01T13:00:00Z", time.Time{})
	if err != nil {
		t.Fatalf("A 签退失败: %v", err)
	}
	if rec.TotalHours != 4.0 {
		t.Errorf("期望工时 4.0，实际=%v", rec.TotalHours)
	}

	if _, err := Remove(s, owner, "A"); err != nil {
		t.Fatalf("移除 A 失败: %v", err)
	}
	if s.SlotsAvailable != 1 {
		t.Errorf("期望 slots=1，实际=%d", s.SlotsAvailable)
	}
	if len(s.AcceptedEmployees) != 1 || s.AcceptedEmployees[0] != "B" {
		t.Errorf("期望名单=[B]，实际=%v", s.AcceptedEmployees)
	}
	if _, ok := s.Attendance.FirstFor("A"); ok {
		t.Error("A 的考勤记录应已删除")
	}
}
