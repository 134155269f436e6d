package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/wibowo/kabarin/internal/auth"
	"github.com/wibowo/kabarin/internal/database"
	"github.com/wibowo/kabarin/internal/store"
	"github.com/wibowo/kabarin/internal/websocket"
)

type handlerFixture struct {
	reminders *ReminderHandler
	employees *store.EmployeeStore
	hub       *websocket.Hub
}

func setupReminderHandler(t *testing.T) *handlerFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.Default()
	hub := websocket.NewHub(logger)
	es := store.NewEmployeeStore(db)
	rs := store.NewReminderStore(db)
	return &handlerFixture{
		reminders: NewReminderHandler(rs, es, hub, logger),
		employees: es,
		hub:       hub,
	}
}

func authedRequest(method, target, body string, employeeID int64, role string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := auth.WithAuth(req.Context(), auth.AuthContext{
		UserID:     1,
		EmployeeID: employeeID,
		Role:       role,
	})
	return req.WithContext(ctx)
}

func TestReminderCreate(t *testing.T) {
	f := setupReminderHandler(t)
	emp, err := f.employees.Create("Budi", "628111111111")
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}

	body := `{"judul_reminder":"Standup","pesan_reminder":"Jangan lupa standup","tipe_reminder":"Mingguan","waktu_reminder":"08:00","hari_dalam_minggu":["Senin","Rabu"]}`
	req := authedRequest("POST", "/api/reminders", body, emp.ID, "pegawai")
	rec := httptest.NewRecorder()
	f.reminders.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if got["tipe_reminder"] != "Mingguan" {
		t.Errorf("tipe_reminder = %v, want Mingguan", got["tipe_reminder"])
	}
	if got["pegawai_id"] != float64(emp.ID) {
		t.Errorf("pegawai_id = %v, want %d", got["pegawai_id"], emp.ID)
	}
	days, _ := got["hari_dalam_minggu"].([]any)
	if len(days) != 2 || days[0] != "Senin" || days[1] != "Rabu" {
		t.Errorf("hari_dalam_minggu = %v, want [Senin Rabu]", got["hari_dalam_minggu"])
	}
}

func TestReminderCreateValidation(t *testing.T) {
	f := setupReminderHandler(t)
	emp, err := f.employees.Create("Budi", "628111111111")
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}

	cases := []struct {
		name string
		body string
	}{
		{"missing title", `{"tipe_reminder":"Harian","waktu_reminder":"08:00"}`},
		{"bad kind", `{"judul_reminder":"X","tipe_reminder":"Yearly","waktu_reminder":"08:00"}`},
		{"bad time", `{"judul_reminder":"X","tipe_reminder":"Harian","waktu_reminder":"8am"}`},
		{"weekly without days", `{"judul_reminder":"X","tipe_reminder":"Mingguan","waktu_reminder":"08:00"}`},
		{"bad day name", `{"judul_reminder":"X","tipe_reminder":"Mingguan","waktu_reminder":"08:00","hari_dalam_minggu":["Monday"]}`},
		{"once without date", `{"judul_reminder":"X","tipe_reminder":"Sekali","waktu_reminder":"08:00"}`},
		{"bad date", `{"judul_reminder":"X","tipe_reminder":"Sekali","waktu_reminder":"08:00","tanggal_spesifik":"01/02/2026"}`},
		{"daily with days", `{"judul_reminder":"X","tipe_reminder":"Harian","waktu_reminder":"08:00","hari_dalam_minggu":["Senin"]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := authedRequest("POST", "/api/reminders", tc.body, emp.ID, "pegawai")
			rec := httptest.NewRecorder()
			f.reminders.Create(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
			}
		})
	}
}

func TestReminderCreateForOtherEmployeeForbidden(t *testing.T) {
	f := setupReminderHandler(t)
	budi, _ := f.employees.Create("Budi", "628111111111")
	sari, _ := f.employees.Create("Sari", "628222222222")

	body := `{"pegawai_id":` + jsonID(sari.ID) + `,"judul_reminder":"X","tipe_reminder":"Harian","waktu_reminder":"08:00"}`
	req := authedRequest("POST", "/api/reminders", body, budi.ID, "pegawai")
	rec := httptest.NewRecorder()
	f.reminders.Create(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestReminderListScopedToOwner(t *testing.T) {
	f := setupReminderHandler(t)
	budi, _ := f.employees.Create("Budi", "628111111111")
	sari, _ := f.employees.Create("Sari", "628222222222")

	for _, emp := range []int64{budi.ID, sari.ID} {
		body := `{"pegawai_id":` + jsonID(emp) + `,"judul_reminder":"X","tipe_reminder":"Harian","waktu_reminder":"08:00"}`
		req := authedRequest("POST", "/api/reminders", body, emp, "pegawai")
		rec := httptest.NewRecorder()
		f.reminders.Create(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed reminder: %s", rec.Body.String())
		}
	}

	req := authedRequest("GET", "/api/reminders", "", budi.ID, "pegawai")
	rec := httptest.NewRecorder()
	f.reminders.List(rec, req)

	var list []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len(list) = %d, want 1", len(list))
	}

	// Admin sees everything.
	req = authedRequest("GET", "/api/reminders", "", 0, "admin")
	rec = httptest.NewRecorder()
	f.reminders.List(rec, req)
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("unmarshal admin list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("admin len(list) = %d, want 2", len(list))
	}
}

func TestReminderUpdateAndDeleteHiddenAcrossOwners(t *testing.T) {
	f := setupReminderHandler(t)
	budi, _ := f.employees.Create("Budi", "628111111111")
	sari, _ := f.employees.Create("Sari", "628222222222")

	body := `{"judul_reminder":"Laporan","tipe_reminder":"Harian","waktu_reminder":"17:00"}`
	req := authedRequest("POST", "/api/reminders", body, budi.ID, "pegawai")
	rec := httptest.NewRecorder()
	f.reminders.Create(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed reminder: %s", rec.Body.String())
	}
	var created map[string]any
	json.Unmarshal(rec.Body.Bytes(), &created)
	id := jsonID(int64(created["id"].(float64)))

	req = authedRequest("DELETE", "/api/reminders/"+id, "", sari.ID, "pegawai")
	req.SetPathValue("id", id)
	rec = httptest.NewRecorder()
	f.reminders.Delete(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("cross-owner delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	req = authedRequest("DELETE", "/api/reminders/"+id, "", budi.ID, "pegawai")
	req.SetPathValue("id", id)
	rec = httptest.NewRecorder()
	f.reminders.Delete(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("owner delete status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func jsonID(id int64) string {
	return strconv.FormatInt(id, 10)
}
