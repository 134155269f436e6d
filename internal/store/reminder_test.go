package store

import (
	"testing"
	"time"

	"github.com/wibowo/kabarin/internal/database"
	"github.com/wibowo/kabarin/internal/model"
)

func setupReminderTestDB(t *testing.T) (*ReminderStore, *EmployeeStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewReminderStore(db), NewEmployeeStore(db)
}

func testEmployee(t *testing.T, es *EmployeeStore) *model.Employee {
	t.Helper()
	e, err := es.Create("Budi Santoso", "+6281234567890")
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	return e
}

func mustTime(t *testing.T, hhmm string) model.TimeOfDay {
	t.Helper()
	at, err := model.ParseTimeOfDay(hhmm)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return at
}

func TestReminderCreateDaily(t *testing.T) {
	rs, es := setupReminderTestDB(t)
	emp := testEmployee(t, es)

	sched := model.DailySchedule(mustTime(t, "08:00"))
	r, err := rs.Create(emp.ID, "Standup", "Jangan lupa standup pagi", sched, true)
	if err != nil {
		t.Fatalf("create reminder: %v", err)
	}
	if r.Schedule.Kind != model.KindDaily {
		t.Errorf("kind = %q, want %q", r.Schedule.Kind, model.KindDaily)
	}
	if got := r.Schedule.At.String(); got != "08:00" {
		t.Errorf("time = %q, want 08:00", got)
	}
	if !r.Active {
		t.Error("reminder should be active")
	}
}

func TestReminderWeeklyRoundTrip(t *testing.T) {
	rs, es := setupReminderTestDB(t)
	emp := testEmployee(t, es)

	sched, err := model.WeeklySchedule(mustTime(t, "09:15"), []time.Weekday{time.Wednesday, time.Monday})
	if err != nil {
		t.Fatalf("weekly schedule: %v", err)
	}
	created, err := rs.Create(emp.ID, "Laporan", "Kirim laporan mingguan", sched, true)
	if err != nil {
		t.Fatalf("create reminder: %v", err)
	}

	got, err := rs.GetByID(created.ID)
	if err != nil {
		t.Fatalf("get reminder: %v", err)
	}
	if got == nil {
		t.Fatal("reminder not found after create")
	}
	if len(got.Schedule.Days) != 2 {
		t.Fatalf("days len = %d, want 2", len(got.Schedule.Days))
	}
	if !got.Schedule.OnDay(time.Monday) || !got.Schedule.OnDay(time.Wednesday) {
		t.Errorf("day set %v lost members in round trip", got.Schedule.Days)
	}
	if got.Schedule.OnDay(time.Tuesday) {
		t.Error("day set gained Tuesday")
	}
}

func TestReminderOnceRoundTrip(t *testing.T) {
	rs, es := setupReminderTestDB(t)
	emp := testEmployee(t, es)

	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	sched, err := model.OnceSchedule(mustTime(t, "14:45"), date)
	if err != nil {
		t.Fatalf("once schedule: %v", err)
	}
	created, err := rs.Create(emp.ID, "Audit", "Siapkan dokumen audit", sched, true)
	if err != nil {
		t.Fatalf("create reminder: %v", err)
	}

	got, err := rs.GetByID(created.ID)
	if err != nil {
		t.Fatalf("get reminder: %v", err)
	}
	if got.Schedule.Date.Format(model.DateFormat) != "2024-03-10" {
		t.Errorf("date = %s, want 2024-03-10", got.Schedule.Date.Format(model.DateFormat))
	}
}

func TestListActiveExcludesInactive(t *testing.T) {
	rs, es := setupReminderTestDB(t)
	emp := testEmployee(t, es)

	sched := model.DailySchedule(mustTime(t, "08:00"))
	active, err := rs.Create(emp.ID, "Aktif", "msg", sched, true)
	if err != nil {
		t.Fatalf("create active: %v", err)
	}
	if _, err := rs.Create(emp.ID, "Nonaktif", "msg", sched, false); err != nil {
		t.Fatalf("create inactive: %v", err)
	}

	list, err := rs.ListActive()
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(list) != 1 || list[0].ID != active.ID {
		t.Fatalf("ListActive = %d rows, want just the active reminder", len(list))
	}
}

func TestSetActive(t *testing.T) {
	rs, es := setupReminderTestDB(t)
	emp := testEmployee(t, es)

	r, err := rs.Create(emp.ID, "Standup", "msg", model.DailySchedule(mustTime(t, "08:00")), true)
	if err != nil {
		t.Fatalf("create reminder: %v", err)
	}

	if err := rs.SetActive(r.ID, false); err != nil {
		t.Fatalf("set active: %v", err)
	}

	list, err := rs.ListActive()
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("deactivated reminder still listed as active")
	}
}

func TestReminderUpdateChangesSchedule(t *testing.T) {
	rs, es := setupReminderTestDB(t)
	emp := testEmployee(t, es)

	r, err := rs.Create(emp.ID, "Standup", "msg", model.DailySchedule(mustTime(t, "08:00")), true)
	if err != nil {
		t.Fatalf("create reminder: %v", err)
	}

	monthly, err := model.MonthlySchedule(mustTime(t, "10:00"), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("monthly schedule: %v", err)
	}
	updated, err := rs.Update(r.ID, "Gajian", "Cek slip gaji", monthly, true)
	if err != nil {
		t.Fatalf("update reminder: %v", err)
	}
	if updated.Schedule.Kind != model.KindMonthly {
		t.Errorf("kind = %q, want %q", updated.Schedule.Kind, model.KindMonthly)
	}
	if updated.Schedule.Date.Day() != 31 {
		t.Errorf("anchor day = %d, want 31", updated.Schedule.Date.Day())
	}
	if updated.Title != "Gajian" {
		t.Errorf("title = %q, want Gajian", updated.Title)
	}
}

func TestReminderDelete(t *testing.T) {
	rs, es := setupReminderTestDB(t)
	emp := testEmployee(t, es)

	r, err := rs.Create(emp.ID, "Standup", "msg", model.DailySchedule(mustTime(t, "08:00")), true)
	if err != nil {
		t.Fatalf("create reminder: %v", err)
	}
	if err := rs.Delete(r.ID); err != nil {
		t.Fatalf("delete reminder: %v", err)
	}

	got, err := rs.GetByID(r.ID)
	if err != nil {
		t.Fatalf("get reminder: %v", err)
	}
	if got != nil {
		t.Fatal("reminder still present after delete")
	}
}
