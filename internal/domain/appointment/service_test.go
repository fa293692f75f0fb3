package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/santelink/santelink/internal/platform/store"
	"github.com/santelink/santelink/internal/platform/workflow"
)

type invalidation struct {
	kind, id string
	paths    []string
}

type mockNotifier struct {
	calls []invalidation
}

func (n *mockNotifier) Invalidate(_ context.Context, kind, id string, paths ...string) error {
	n.calls = append(n.calls, invalidation{kind, id, paths})
	return nil
}

var fixedNow = time.Date(2024, 7, 29, 8, 0, 0, 0, time.UTC)

func newTestService() (*Service, *mockNotifier) {
	n := &mockNotifier{}
	svc := NewService(store.NewMemory[Appointment](Sequence), n, workflow.Policy{MaxAttempts: 1}, zerolog.Nop())
	svc.now = func() time.Time { return fixedNow }
	return svc, n
}

func validInput() map[string]any {
	return map[string]any{
		"patientId":   "PAT001",
		"patientName": "Alice Wonderland",
		"doctorId":    "DOC001",
		"doctorName":  "Dr. Smith",
		"date":        "2024-07-29",
		"time":        "10:00",
		"reason":      "Follow-up",
	}
}

func TestService_Save(t *testing.T) {
	svc, n := newTestService()
	ctx := context.Background()

	res, a := svc.Save(ctx, validInput())
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Message != "Appointment scheduled successfully." {
		t.Errorf("unexpected message %q", res.Message)
	}
	if res.ID != "APT001" || a.ID != "APT001" {
		t.Errorf("expected APT001, got %s / %s", res.ID, a.ID)
	}
	if a.Status != StatusScheduled {
		t.Errorf("expected status Scheduled, got %s", a.Status)
	}
	if a.Notes != "" {
		t.Errorf("expected empty notes, got %q", a.Notes)
	}
	if !a.CreatedAt.Equal(fixedNow) {
		t.Errorf("expected createdAt %v, got %v", fixedNow, a.CreatedAt)
	}

	stored, err := svc.Get(ctx, "APT001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.PatientName != "Alice Wonderland" {
		t.Errorf("unexpected stored record %+v", stored)
	}

	if len(n.calls) != 1 {
		t.Fatalf("expected 1 invalidation, got %d", len(n.calls))
	}
	paths := n.calls[0].paths
	if len(paths) != 2 || paths[0] != "/appointments" || paths[1] != "/dashboard" {
		t.Errorf("unexpected stale paths %v", paths)
	}
}

func TestService_Save_FourthAppointmentID(t *testing.T) {
	svc, _ := newTestService()
	var last workflow.Result
	for i := 0; i < 4; i++ {
		last, _ = svc.Save(context.Background(), validInput())
	}
	if last.ID != "APT004" {
		t.Errorf("expected APT004, got %s", last.ID)
	}
}

func TestService_Save_InvalidTime(t *testing.T) {
	svc, n := newTestService()
	ctx := context.Background()
	for _, tm := range []string{"99:99", "24:00", "9:30", ""} {
		input := validInput()
		input["time"] = tm
		res, _ := svc.Save(ctx, input)
		if res.Success {
			t.Errorf("time %q: expected failure", tm)
			continue
		}
		if res.Message != Messages.Invalid {
			t.Errorf("time %q: unexpected message %q", tm, res.Message)
		}
		for _, is := range res.Errors {
			if is.Field() != "time" {
				t.Errorf("time %q: unexpected issue on %s", tm, is.Field())
			}
		}
	}
	if count, _ := svc.records.Len(ctx); count != 0 {
		t.Errorf("expected no appointments, got %d", count)
	}
	if len(n.calls) != 0 {
		t.Errorf("expected no invalidations, got %d", len(n.calls))
	}
}

func TestService_Save_ReasonTooLong(t *testing.T) {
	svc, _ := newTestService()
	input := validInput()
	long := make([]byte, 501)
	for i := range long {
		long[i] = 'a'
	}
	input["reason"] = string(long)

	res, _ := svc.Save(context.Background(), input)
	if res.Success {
		t.Fatal("expected failure")
	}
	if len(res.Errors) != 1 || res.Errors[0].Message != "Reason must not exceed 500 characters." {
		t.Errorf("unexpected errors %+v", res.Errors)
	}
}

func TestService_Save_MissingFields(t *testing.T) {
	svc, _ := newTestService()
	res, _ := svc.Save(context.Background(), map[string]any{})
	if res.Success {
		t.Fatal("expected failure")
	}
	want := []string{"patientId", "patientName", "doctorId", "doctorName", "date", "time", "reason"}
	if len(res.Errors) != len(want) {
		t.Fatalf("expected %d issues, got %d: %+v", len(want), len(res.Errors), res.Errors)
	}
	for i, f := range want {
		if res.Errors[i].Field() != f {
			t.Errorf("issue %d: expected %s, got %s", i, f, res.Errors[i].Field())
		}
	}
}

func seeded(t *testing.T) *Service {
	t.Helper()
	svc, _ := newTestService()
	if _, err := svc.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return svc
}

func TestService_Seed(t *testing.T) {
	svc := seeded(t)
	ctx := context.Background()

	if n, _ := svc.records.Len(ctx); n != 5 {
		t.Fatalf("expected 5 appointments, got %d", n)
	}
	a, err := svc.Get(ctx, "APT004")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.PatientName != "Diana Prince" || a.Status != StatusCompleted {
		t.Errorf("unexpected APT004 %+v", a)
	}

	inserted, err := svc.Seed(ctx)
	if err != nil || inserted != 0 {
		t.Errorf("expected second seed to be a no-op, got %d, %v", inserted, err)
	}

	res, _ := svc.Save(ctx, validInput())
	if res.ID != "APT006" {
		t.Errorf("expected APT006 after seed, got %s", res.ID)
	}
}

func TestService_List_Filters(t *testing.T) {
	svc := seeded(t)
	ctx := context.Background()

	tests := []struct {
		name string
		f    Filter
		want []string
	}{
		{"no filter", Filter{}, []string{"APT001", "APT002", "APT003", "APT004", "APT005"}},
		{"by date", Filter{Date: "2024-07-29"}, []string{"APT001", "APT002"}},
		{"search patient name", Filter{Search: "alice"}, []string{"APT001", "APT005"}},
		{"search reason", Filter{Search: "ROUTINE"}, []string{"APT003"}},
		{"by doctor", Filter{DoctorID: "DOC001"}, []string{"APT001", "APT003", "APT005"}},
		{"doctor all", Filter{DoctorID: "all"}, []string{"APT001", "APT002", "APT003", "APT004", "APT005"}},
		{"by status", Filter{Status: StatusCancelled}, []string{"APT005"}},
		{"status all", Filter{Status: "all", Date: "2024-08-01"}, []string{"APT004"}},
		{"combined", Filter{DoctorID: "DOC001", Status: StatusScheduled, Search: "smith"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := svc.List(ctx, tt.f)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(items) != len(tt.want) {
				t.Fatalf("expected %v, got %d items", tt.want, len(items))
			}
			for i, id := range tt.want {
				if items[i].ID != id {
					t.Errorf("item %d: expected %s, got %s", i, id, items[i].ID)
				}
			}
		})
	}
}

func TestService_List_InvalidStatus(t *testing.T) {
	svc := seeded(t)
	if _, err := svc.List(context.Background(), Filter{Status: "Pending"}); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestService_ListByPatient(t *testing.T) {
	svc := seeded(t)
	items, err := svc.ListByPatient(context.Background(), "PAT001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 || items[0].ID != "APT001" || items[1].ID != "APT005" {
		t.Errorf("unexpected appointments %+v", items)
	}
	none, _ := svc.ListByPatient(context.Background(), "PAT999")
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", none)
	}
}

func TestService_Calendar(t *testing.T) {
	svc := seeded(t)
	days, err := svc.Calendar(context.Background(), "2024-07")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %+v", days)
	}
	if days[0] != (DayCount{Date: "2024-07-29", Count: 2}) || days[1] != (DayCount{Date: "2024-07-30", Count: 1}) {
		t.Errorf("unexpected counts %+v", days)
	}

	if _, err := svc.Calendar(context.Background(), "July"); err == nil {
		t.Error("expected error for malformed month")
	}
}

func TestService_Upcoming(t *testing.T) {
	svc := seeded(t)
	items, err := svc.Upcoming(context.Background(), "2024-07-29", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"APT001", "APT002", "APT003"}
	if len(items) != len(want) {
		t.Fatalf("expected %v, got %+v", want, items)
	}
	for i, id := range want {
		if items[i].ID != id {
			t.Errorf("item %d: expected %s, got %s", i, id, items[i].ID)
		}
	}

	later, _ := svc.Upcoming(context.Background(), "2024-07-30", 5)
	if len(later) != 1 || later[0].ID != "APT003" {
		t.Errorf("unexpected upcoming %+v", later)
	}

	limited, _ := svc.Upcoming(context.Background(), "2024-01-01", 2)
	if len(limited) != 2 {
		t.Errorf("expected limit of 2, got %d", len(limited))
	}
}

func TestService_CountByStatus(t *testing.T) {
	svc := seeded(t)
	counts, err := svc.CountByStatus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts[StatusScheduled] != 3 || counts[StatusCompleted] != 1 || counts[StatusCancelled] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
}

func TestService_CountOn(t *testing.T) {
	svc := seeded(t)
	n, err := svc.CountOn(context.Background(), "2024-07-29")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2, got %d", n)
	}
}

func TestService_Doctors(t *testing.T) {
	svc, _ := newTestService()
	docs := svc.Doctors()
	if len(docs) != 3 || docs[2].Name != "Dr. Strange" {
		t.Errorf("unexpected directory %+v", docs)
	}
	docs[0].Name = "changed"
	if svc.Doctors()[0].Name != "Dr. Smith" {
		t.Error("expected Doctors to return a copy")
	}
}
