package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"shiftdesk/backend/internal/dto"
	"shiftdesk/backend/internal/model"
	"shiftdesk/backend/internal/repository"
	"shiftdesk/backend/internal/roster"
)

func setupTestShiftService(now time.Time) (*shiftService, *mockShiftRepo) {
	repo, _, shifts := newMockRepository()
	return newShiftService(repo, DefaultMaxConflictRetries, zap.NewNop(), func() time.Time { return now }), shifts
}

func ptr[T any](v T) *T { return &v }

// ── Create ──

func TestShiftService_Create(t *testing.T) {
	svc, shifts := setupTestShiftService(testShiftStart)

	resp, err := svc.Create(context.Background(), &dto.CreateShiftRequest{
		Title:          "周末早班",
		StartTime:      testShiftStart,
		EndTime:        testShiftStart.Add(8 * time.Hour),
		SlotsAvailable: 3,
	}, testManagerID)
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.SlotsAvailable != 3 {
		t.Errorf("期望 SlotsAvailable=3，实际=%d", resp.SlotsAvailable)
	}
	if len(resp.AcceptedEmployees) != 0 || len(resp.Attendance) != 0 {
		t.Errorf("新班次名单与考勤应为空，实际=%v %v", resp.AcceptedEmployees, resp.Attendance)
	}

	stored := shifts.get(resp.ID)
	if stored == nil || stored.OwnerManagerID != testManagerID {
		t.Fatalf("班次应归属创建者，实际=%+v", stored)
	}
}

func TestShiftService_Create_Invalid(t *testing.T) {
	svc, _ := setupTestShiftService(testShiftStart)

	tests := []struct {
		name    string
		req     dto.CreateShiftRequest
		wantErr error
	}{
		{"结束早于开始", dto.CreateShiftRequest{
			Title: "夜班", StartTime: testShiftStart, EndTime: testShiftStart.Add(-time.Hour), SlotsAvailable: 1,
		}, roster.ErrInvalidShiftWindow},
		{"名额为零", dto.CreateShiftRequest{
			Title: "夜班", StartTime: testShiftStart, EndTime: testShiftStart.Add(time.Hour), SlotsAvailable: 0,
		}, roster.ErrInvalidSlots},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := svc.Create(context.Background(), &req, testManagerID)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际: %v", tt.wantErr, err)
			}
		})
	}
}

// ── GetByID / List ──

func TestShiftService_GetByID_Ownership(t *testing.T) {
	svc, shifts := setupTestShiftService(testShiftStart)
	seedShift(shifts, "s1", testManagerID, 1)

	if _, err := svc.GetByID(context.Background(), "s1", testManagerID); err != nil {
		t.Errorf("归属管理员应可查看: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), "s1", "mgr-2"); !errors.Is(err, roster.ErrForbidden) {
		t.Errorf("期望 ErrForbidden，实际: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), "missing", testManagerID); !errors.Is(err, roster.ErrShiftNotFound) {
		t.Errorf("期望 ErrShiftNotFound，实际: %v", err)
	}
}

func TestShiftService_ListOwnAndAvailable(t *testing.T) {
	now := testShiftStart.AddDate(0, 0, 1)
	svc, shifts := setupTestShiftService(now)

	seedShift(shifts, "past", testManagerID, 1)
	next := seedShift(shifts, "next", testManagerID, 1)
	next.StartTime = now.Add(time.Hour)
	next.EndTime = now.Add(9 * time.Hour)
	shifts.put(next)
	full := seedShift(shifts, "full", testManagerID, 0)
	full.StartTime = now.Add(2 * time.Hour)
	full.EndTime = now.Add(10 * time.Hour)
	shifts.put(full)
	seedShift(shifts, "other", "mgr-2", 1)

	all, err := svc.ListOwn(context.Background(), testManagerID, &dto.ShiftListRequest{})
	if err != nil {
		t.Fatalf("ListOwn 应成功: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("期望 3 个自己的班次，实际=%d", len(all))
	}

	upcoming, _ := svc.ListOwn(context.Background(), testManagerID, &dto.ShiftListRequest{Status: repository.ShiftStatusUpcoming})
	if len(upcoming) != 2 || upcoming[0].ID != "next" {
		t.Errorf("期望未开始班次 [next full]，实际=%+v", upcoming)
	}

	pastList, _ := svc.ListOwn(context.Background(), testManagerID, &dto.ShiftListRequest{Status: repository.ShiftStatusPast})
	if len(pastList) != 1 || pastList[0].ID != "past" {
		t.Errorf("期望已开始班次 [past]，实际=%+v", pastList)
	}

	available, err := svc.ListAvailable(context.Background())
	if err != nil {
		t.Fatalf("ListAvailable 应成功: %v", err)
	}
	if len(available) != 1 || available[0].ID != "next" {
		t.Errorf("可申请班次应只有 next，实际=%+v", available)
	}
}

func TestShiftService_ListPublic(t *testing.T) {
	repo, users, shifts := newMockRepository()
	now := testShiftStart.Add(-time.Hour)
	svc := newShiftService(repo, DefaultMaxConflictRetries, zap.NewNop(), func() time.Time { return now })

	seedUser(users, testManagerID, model.RoleManager)
	open := seedShift(shifts, "open", testManagerID, 2)
	open.AcceptedEmployees = model.EmployeeIDList{"emp-a"}
	open.Notes = "带工牌"
	shifts.put(open)
	seedShift(shifts, "full", testManagerID, 0)
	// 管理员已删除的班次仍然公开，名称为空
	orphan := seedShift(shifts, "orphan", "mgr-gone", 1)
	orphan.StartTime = testShiftStart.Add(24 * time.Hour)
	orphan.EndTime = orphan.StartTime.Add(time.Hour)
	shifts.put(orphan)

	list, err := svc.ListPublic(context.Background())
	if err != nil {
		t.Fatalf("ListPublic 应成功: %v", err)
	}
	if len(list) != 2 || list[0].ID != "open" || list[1].ID != "orphan" {
		t.Fatalf("期望公开班次 [open orphan]，实际=%+v", list)
	}
	if list[0].ManagerName != "user "+testManagerID || list[0].Notes != "带工牌" || list[0].SlotsAvailable != 2 {
		t.Errorf("公开班次字段不符，实际=%+v", list[0])
	}
	if list[1].ManagerName != "" {
		t.Errorf("管理员已删除时名称应为空，实际=%q", list[1].ManagerName)
	}
}

// ── Update / Delete ──

func TestShiftService_Update(t *testing.T) {
	svc, shifts := setupTestShiftService(testShiftStart)
	seedShift(shifts, "s1", testManagerID, 1)

	resp, err := svc.Update(context.Background(), "s1", &dto.UpdateShiftRequest{
		Title:          ptr("晚班"),
		SlotsAvailable: ptr(4),
	}, testManagerID)
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if resp.Title != "晚班" || resp.SlotsAvailable != 4 {
		t.Errorf("期望 Title=晚班 SlotsAvailable=4，实际=%s %d", resp.Title, resp.SlotsAvailable)
	}

	_, err = svc.Update(context.Background(), "s1", &dto.UpdateShiftRequest{
		EndTime: ptr(testShiftStart.Add(-time.Minute)),
	}, testManagerID)
	if !errors.Is(err, roster.ErrInvalidShiftWindow) {
		t.Errorf("期望 ErrInvalidShiftWindow，实际: %v", err)
	}

	_, err = svc.Update(context.Background(), "s1", &dto.UpdateShiftRequest{Title: ptr("抢班")}, "mgr-2")
	if !errors.Is(err, roster.ErrForbidden) {
		t.Errorf("期望 ErrForbidden，实际: %v", err)
	}

	if got := shifts.get("s1"); got.Title != "晚班" {
		t.Errorf("失败的更新不应生效，实际 Title=%s", got.Title)
	}
}

func TestShiftService_Delete(t *testing.T) {
	svc, shifts := setupTestShiftService(testShiftStart)
	seedShift(shifts, "s1", testManagerID, 1)

	if err := svc.Delete(context.Background(), "s1", "mgr-2"); !errors.Is(err, roster.ErrForbidden) {
		t.Errorf("期望 ErrForbidden，实际: %v", err)
	}
	if err := svc.Delete(context.Background(), "s1", testManagerID); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if shifts.get("s1") != nil {
		t.Error("班次应已删除")
	}
}

// ── Attendance ──

func TestShiftService_Attendance(t *testing.T) {
	svc, shifts := setupTestShiftService(testShiftStart)
	s := seedShift(shifts, "s1", testManagerID, 0)
	s.AcceptedEmployees = model.EmployeeIDList{"emp-a"}
	s.Attendance = model.AttendanceLedger{
		// 历史数据：check_out == check_in 视为未签退
		{EmployeeID: "emp-a", CheckIn: testShiftStart, CheckOut: ptr(testShiftStart)},
	}
	shifts.put(s)

	resp, err := svc.Attendance(context.Background(), "s1", testManagerID)
	if err != nil {
		t.Fatalf("Attendance 应成功: %v", err)
	}
	if len(resp.AcceptedEmployees) != 1 || len(resp.Attendance) != 1 {
		t.Fatalf("期望 1 名员工与 1 条记录，实际=%+v", resp)
	}
	if resp.Attendance[0].CheckOut != nil {
		t.Errorf("未签退记录的 check_out 应为 null，实际=%v", resp.Attendance[0].CheckOut)
	}
}
