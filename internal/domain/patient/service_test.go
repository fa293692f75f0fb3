package patient

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/santelink/santelink/internal/platform/store"
	"github.com/santelink/santelink/internal/platform/workflow"
)

type mockNotifier struct {
	paths [][]string
}

func (n *mockNotifier) Invalidate(_ context.Context, _, _ string, paths ...string) error {
	n.paths = append(n.paths, paths)
	return nil
}

var fixedNow = time.Date(2024, 7, 29, 8, 0, 0, 0, time.UTC)

func newTestService() (*Service, *mockNotifier) {
	n := &mockNotifier{}
	svc := NewService(store.NewMemory[Patient](Sequence), n, workflow.Policy{MaxAttempts: 1}, zerolog.Nop())
	svc.now = func() time.Time { return fixedNow }
	return svc, n
}

func validInput() map[string]any {
	return map[string]any{
		"name":        "jean dupont",
		"dateOfBirth": "1980-01-01",
		"gender":      "Male",
		"contact":     "jean@example.com",
		"address":     "1 Rue de la Paix",
		"status":      "Active",
	}
}

func TestService_Save(t *testing.T) {
	svc, n := newTestService()

	res, p := svc.Save(context.Background(), validInput())
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.ID != "PAT001" || res.Message != "Patient registered successfully." {
		t.Errorf("unexpected result %+v", res)
	}
	if p.AvatarURL != "https://placehold.co/100x100.png?text=JE" {
		t.Errorf("unexpected avatar %s", p.AvatarURL)
	}
	if p.Phone != "" || p.MedicalHistorySummary != "" {
		t.Errorf("expected optional defaults, got %+v", p)
	}
	if p.EmergencyContact != (EmergencyContact{}) || p.Insurance != (Insurance{}) {
		t.Errorf("expected empty nested groups, got %+v / %+v", p.EmergencyContact, p.Insurance)
	}
	if len(n.paths) != 1 || strings.Join(n.paths[0], ",") != "/patients,/dashboard" {
		t.Errorf("unexpected invalidations %v", n.paths)
	}
}

func TestService_Save_ChartListsAreEmptyNotNull(t *testing.T) {
	svc, _ := newTestService()
	_, p := svc.Save(context.Background(), validInput())

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"medicalHistory":[]`, `"appointments":[]`, `"prescriptions":[]`, `"alerts":[]`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("expected %s in %s", key, data)
		}
	}
}

func TestService_Save_NestedGroups(t *testing.T) {
	svc, _ := newTestService()
	input := validInput()
	input["emergencyContactName"] = "Marie Dupont"
	input["emergencyContactRelationship"] = "Spouse"
	input["emergencyContactPhone"] = "0601020304"
	input["insuranceProvider"] = "MGEN"
	input["insurancePolicyNumber"] = "POL-42"

	_, p := svc.Save(context.Background(), input)
	want := EmergencyContact{Name: "Marie Dupont", Relationship: "Spouse", Phone: "0601020304"}
	if p.EmergencyContact != want {
		t.Errorf("expected %+v, got %+v", want, p.EmergencyContact)
	}
	if p.Insurance != (Insurance{Provider: "MGEN", PolicyNumber: "POL-42"}) {
		t.Errorf("unexpected insurance %+v", p.Insurance)
	}
}

func TestService_Save_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(map[string]any)
		field   string
		message string
	}{
		{"short name", func(m map[string]any) { m["name"] = "J" }, "name", "Name is required (minimum 2 characters)."},
		{"missing gender", func(m map[string]any) { delete(m, "gender") }, "gender", "Gender is required."},
		{"missing status", func(m map[string]any) { delete(m, "status") }, "status", "Status is required."},
		{"bad email", func(m map[string]any) { m["contact"] = "not-an-email" }, "contact", "Invalid email format."},
		{"long phone", func(m map[string]any) { m["phone"] = strings.Repeat("1", 21) }, "phone", "Phone must not exceed 20 characters."},
		{"long relationship", func(m map[string]any) { m["emergencyContactRelationship"] = strings.Repeat("x", 51) }, "emergencyContactRelationship", "String must contain at most 50 character(s)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, n := newTestService()
			input := validInput()
			tt.mutate(input)

			res, _ := svc.Save(context.Background(), input)
			if res.Success {
				t.Fatal("expected failure")
			}
			if res.Message != Messages.Invalid {
				t.Errorf("unexpected message %q", res.Message)
			}
			if len(res.Errors) != 1 {
				t.Fatalf("expected 1 issue, got %+v", res.Errors)
			}
			if res.Errors[0].Field() != tt.field || res.Errors[0].Message != tt.message {
				t.Errorf("unexpected issue %+v", res.Errors[0])
			}
			if count, _ := svc.records.Len(context.Background()); count != 0 {
				t.Errorf("expected no patients, got %d", count)
			}
			if len(n.paths) != 0 {
				t.Error("expected no invalidation")
			}
		})
	}
}

func TestService_Save_EmptyContactReportsBothRules(t *testing.T) {
	svc, _ := newTestService()
	input := validInput()
	input["contact"] = ""

	res, _ := svc.Save(context.Background(), input)
	if len(res.Errors) != 2 {
		t.Fatalf("expected 2 issues, got %+v", res.Errors)
	}
	if res.Errors[0].Message != "Invalid email format." || res.Errors[1].Message != "Email is required." {
		t.Errorf("unexpected issue order %+v", res.Errors)
	}
}

func TestAvatarURL(t *testing.T) {
	tests := map[string]string{
		"alice":  "AL",
		"Bo":     "BO",
		"élodie": "ÉL",
		"X":      "X",
	}
	for name, want := range tests {
		if got := AvatarURL(name); got != avatarBaseURL+want {
			t.Errorf("AvatarURL(%q) = %s, want suffix %s", name, got, want)
		}
	}
}

func TestAge(t *testing.T) {
	tests := []struct {
		dob  string
		want int
		ok   bool
	}{
		{"1990-05-15", 34, true},
		{"1990-07-29", 34, true},
		{"1990-07-30", 33, true},
		{"2030-01-01", 0, false},
		{"15/05/1990", 0, false},
	}
	for _, tt := range tests {
		got, ok := Age(tt.dob, fixedNow)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Age(%s) = %d, %v; want %d, %v", tt.dob, got, ok, tt.want, tt.ok)
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

func TestService_Detail(t *testing.T) {
	svc := seeded(t)
	d, err := svc.Detail(context.Background(), "PAT001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name != "Alice Wonderland" || d.Age == nil || *d.Age != 34 {
		t.Errorf("unexpected detail %+v", d)
	}

	if _, err := svc.Detail(context.Background(), "PAT404"); err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_List(t *testing.T) {
	svc := seeded(t)
	ctx := context.Background()

	tests := []struct {
		name string
		f    Filter
		want []string
	}{
		{"all", Filter{}, []string{"PAT001", "PAT002", "PAT003", "PAT004", "PAT005"}},
		{"search by name", Filter{Search: "SMITH"}, []string{"PAT002"}},
		{"search by id", Filter{Search: "pat00"}, []string{"PAT001", "PAT002", "PAT003", "PAT004", "PAT005"}},
		{"active only", Filter{Statuses: []string{StatusActive}}, []string{"PAT001", "PAT002", "PAT004"}},
		{"inactive or pending", Filter{Statuses: []string{StatusInactive, StatusPending}}, []string{"PAT003", "PAT005"}},
		{"search and status", Filter{Search: "a", Statuses: []string{StatusInactive}}, []string{"PAT003"}},
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

	if _, err := svc.List(ctx, Filter{Statuses: []string{"Deceased"}}); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestService_Stats(t *testing.T) {
	svc := seeded(t)
	st, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st != (Stats{Total: 5, Active: 3, Inactive: 1, Pending: 1}) {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestService_SeedThenSave(t *testing.T) {
	svc := seeded(t)
	res, _ := svc.Save(context.Background(), validInput())
	if res.ID != "PAT006" {
		t.Errorf("expected PAT006, got %s", res.ID)
	}
}
