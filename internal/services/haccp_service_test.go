package services_test

import (
	"errors"
	"testing"
	"time"

	"gelateria_backend/internal/models"
	"gelateria_backend/internal/repositories"
	"gelateria_backend/internal/services"
)

func newHaccpFixture() (*fakeHaccpRepo, services.HaccpService) {
	repo := newFakeHaccpRepo()
	return repo, services.NewHaccpService(repo, &fakeAudit{}, nil)
}

func TestTemperatureLog(t *testing.T) {
	actor := models.Actor{UserID: 1, Username: "tester"}

	t.Run("in-range reading is recorded", func(t *testing.T) {
		_, svc := newHaccpFixture()
		log, err := svc.CreateTemperatureLog(actor, &models.HaccpTemperatureLog{
			Equipment:   "display case",
			Temperature: -14,
			LimitMin:    floatPtrTest(-16),
			LimitMax:    floatPtrTest(-12),
		})
		if err != nil {
			t.Fatalf("CreateTemperatureLog failed: %v", err)
		}
		if log.Status != models.HaccpStatusRecorded {
			t.Errorf("status = %q, want recorded", log.Status)
		}
	})

	t.Run("out-of-limit reading requires a corrective action", func(t *testing.T) {
		_, svc := newHaccpFixture()
		_, err := svc.CreateTemperatureLog(actor, &models.HaccpTemperatureLog{
			Equipment:   "display case",
			Temperature: -5,
			LimitMin:    floatPtrTest(-16),
			LimitMax:    floatPtrTest(-12),
		})
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("err = %v, want ErrValidation", err)
		}

		action := "moved product to backup freezer"
		if _, err := svc.CreateTemperatureLog(actor, &models.HaccpTemperatureLog{
			Equipment:        "display case",
			Temperature:      -5,
			LimitMin:         floatPtrTest(-16),
			LimitMax:         floatPtrTest(-12),
			CorrectiveAction: &action,
		}); err != nil {
			t.Fatalf("CreateTemperatureLog with corrective action failed: %v", err)
		}
	})

	t.Run("missing equipment", func(t *testing.T) {
		_, svc := newHaccpFixture()
		_, err := svc.CreateTemperatureLog(actor, &models.HaccpTemperatureLog{Temperature: -14})
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("err = %v, want ErrValidation", err)
		}
	})
}

func TestVoidTemperatureLog(t *testing.T) {
	actor := models.Actor{UserID: 1, Username: "tester"}

	t.Run("voiding keeps the row with its reason", func(t *testing.T) {
		repo, svc := newHaccpFixture()
		log, err := svc.CreateTemperatureLog(actor, &models.HaccpTemperatureLog{Equipment: "pasteurizer", Temperature: 85})
		if err != nil {
			t.Fatalf("CreateTemperatureLog failed: %v", err)
		}
		if err := svc.VoidTemperatureLog(actor, log.ID, "reading entered for wrong equipment"); err != nil {
			t.Fatalf("VoidTemperatureLog failed: %v", err)
		}
		stored := repo.tempLogs[log.ID]
		if stored.Status != models.HaccpStatusVoided {
			t.Errorf("status = %q, want voided", stored.Status)
		}
		if stored.VoidReason == nil || *stored.VoidReason == "" {
			t.Error("void reason was not stored")
		}
	})

	t.Run("void requires a reason", func(t *testing.T) {
		_, svc := newHaccpFixture()
		log, _ := svc.CreateTemperatureLog(actor, &models.HaccpTemperatureLog{Equipment: "pasteurizer", Temperature: 85})
		if err := svc.VoidTemperatureLog(actor, log.ID, "   "); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("err = %v, want ErrValidation", err)
		}
	})

	t.Run("double void", func(t *testing.T) {
		_, svc := newHaccpFixture()
		log, _ := svc.CreateTemperatureLog(actor, &models.HaccpTemperatureLog{Equipment: "pasteurizer", Temperature: 85})
		if err := svc.VoidTemperatureLog(actor, log.ID, "first"); err != nil {
			t.Fatalf("first void failed: %v", err)
		}
		if err := svc.VoidTemperatureLog(actor, log.ID, "second"); !errors.Is(err, services.ErrAlreadyVoided) {
			t.Fatalf("err = %v, want ErrAlreadyVoided", err)
		}
	})

	t.Run("voiding an unknown id is not found", func(t *testing.T) {
		_, svc := newHaccpFixture()
		if err := svc.VoidTemperatureLog(actor, 999, "never existed"); !errors.Is(err, services.ErrRecordNotFound) {
			t.Fatalf("err = %v, want ErrRecordNotFound", err)
		}
	})

	t.Run("voided rows are hidden by default", func(t *testing.T) {
		_, svc := newHaccpFixture()
		log, _ := svc.CreateTemperatureLog(actor, &models.HaccpTemperatureLog{Equipment: "pasteurizer", Temperature: 85})
		if err := svc.VoidTemperatureLog(actor, log.ID, "mistake"); err != nil {
			t.Fatalf("void failed: %v", err)
		}
		visible, _, err := svc.GetTemperatureLogs(repositories.HaccpFilters{}, 1, 50)
		if err != nil {
			t.Fatalf("GetTemperatureLogs failed: %v", err)
		}
		if len(visible) != 0 {
			t.Errorf("got %d visible logs, want 0", len(visible))
		}
		all, _, err := svc.GetTemperatureLogs(repositories.HaccpFilters{IncludeVoided: true}, 1, 50)
		if err != nil {
			t.Fatalf("GetTemperatureLogs failed: %v", err)
		}
		if len(all) != 1 {
			t.Errorf("got %d logs with voided included, want 1", len(all))
		}
	})
}

func TestVoidCleaningLog(t *testing.T) {
	actor := models.Actor{UserID: 1, Username: "tester"}
	_, svc := newHaccpFixture()

	log, err := svc.CreateCleaningLog(actor, &models.HaccpCleaningLog{
		Area: "production room", Task: "sanitize work surfaces", Done: true,
	})
	if err != nil {
		t.Fatalf("CreateCleaningLog failed: %v", err)
	}
	if err := svc.VoidCleaningLog(actor, log.ID, "wrong shift"); err != nil {
		t.Fatalf("VoidCleaningLog failed: %v", err)
	}
	if err := svc.VoidCleaningLog(actor, log.ID, "again"); !errors.Is(err, services.ErrAlreadyVoided) {
		t.Fatalf("err = %v, want ErrAlreadyVoided", err)
	}
}

func TestAutoFill(t *testing.T) {
	actor := models.Actor{UserID: 1, Username: "tester"}
	refDate := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	t.Run("fills the full daily plan", func(t *testing.T) {
		repo, svc := newHaccpFixture()
		result, err := svc.AutoFill(actor, services.AutoFillRequest{ReferenceDate: refDate})
		if err != nil {
			t.Fatalf("AutoFill failed: %v", err)
		}
		if result.TemperatureLogsCreated != 5 {
			t.Errorf("temperature logs created = %d, want 5", result.TemperatureLogsCreated)
		}
		if result.CleaningLogsCreated != 5 {
			t.Errorf("cleaning logs created = %d, want 5", result.CleaningLogsCreated)
		}
		if result.Skipped != 0 {
			t.Errorf("skipped = %d, want 0", result.Skipped)
		}
		for _, log := range repo.tempLogs {
			if log.OutOfLimits() {
				t.Errorf("placeholder reading for %s is outside its own limits", log.Equipment)
			}
			if log.ReferenceDate == nil || !log.ReferenceDate.Equal(refDate) {
				t.Errorf("placeholder for %s lost its reference date", log.Equipment)
			}
		}
		for _, log := range repo.cleaningLogs {
			if log.Done {
				t.Errorf("cleaning placeholder %s/%s was created as done", log.Area, log.Task)
			}
		}
	})

	t.Run("rerun skips everything already recorded", func(t *testing.T) {
		_, svc := newHaccpFixture()
		if _, err := svc.AutoFill(actor, services.AutoFillRequest{ReferenceDate: refDate}); err != nil {
			t.Fatalf("first AutoFill failed: %v", err)
		}
		result, err := svc.AutoFill(actor, services.AutoFillRequest{ReferenceDate: refDate})
		if err != nil {
			t.Fatalf("second AutoFill failed: %v", err)
		}
		if result.TemperatureLogsCreated != 0 || result.CleaningLogsCreated != 0 {
			t.Errorf("second run created %d/%d rows, want 0/0", result.TemperatureLogsCreated, result.CleaningLogsCreated)
		}
		if result.Skipped != 10 {
			t.Errorf("skipped = %d, want 10", result.Skipped)
		}
	})

	t.Run("manual entry for one equipment is preserved", func(t *testing.T) {
		_, svc := newHaccpFixture()
		manual := &models.HaccpTemperatureLog{
			Equipment:     "display case",
			Temperature:   -13,
			ReferenceDate: &refDate,
		}
		if _, err := svc.CreateTemperatureLog(actor, manual); err != nil {
			t.Fatalf("manual CreateTemperatureLog failed: %v", err)
		}
		result, err := svc.AutoFill(actor, services.AutoFillRequest{ReferenceDate: refDate})
		if err != nil {
			t.Fatalf("AutoFill failed: %v", err)
		}
		if result.TemperatureLogsCreated != 4 {
			t.Errorf("temperature logs created = %d, want 4", result.TemperatureLogsCreated)
		}
		if result.Skipped != 1 {
			t.Errorf("skipped = %d, want 1", result.Skipped)
		}
	})
}

func floatPtrTest(v float64) *float64 { return &v }
