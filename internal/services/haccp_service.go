package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gelateria_backend/internal/models"
	"gelateria_backend/internal/repositories"
	"gelateria_backend/pkg/utils"
)

// AutoFillRequest fills the daily HACCP registers for a reference date from
// a fixed plan of equipment checks and cleaning tasks.
type AutoFillRequest struct {
	ReferenceDate time.Time `json:"reference_date" binding:"required"`
	Operator      *string   `json:"operator"`
	Shift         *string   `json:"shift"`
}

// AutoFillResult reports how many register rows an auto-fill run created.
type AutoFillResult struct {
	TemperatureLogsCreated int `json:"temperature_logs_created"`
	CleaningLogsCreated    int `json:"cleaning_logs_created"`
	Skipped                int `json:"skipped"`
}

// TemperaturePlanEntry is one equipment check of the daily plan.
type TemperaturePlanEntry struct {
	Equipment   string
	Temperature float64
	LimitMin    *float64
	LimitMax    *float64
}

// CleaningPlanEntry is one sanitation task of the daily plan.
type CleaningPlanEntry struct {
	Area      string
	Task      string
	Frequency string
}

// HaccpService manages the temperature and cleaning compliance registers.
// Records are append-only: correcting a mistake means voiding the record with
// a reason and entering a new one. Nothing is ever physically deleted.
type HaccpService interface {
	CreateTemperatureLog(actor models.Actor, log *models.HaccpTemperatureLog) (*models.HaccpTemperatureLog, error)
	GetTemperatureLogs(filters repositories.HaccpFilters, page, pageSize int) ([]models.HaccpTemperatureLog, int, error)
	VoidTemperatureLog(actor models.Actor, id int64, reason string) error
	CreateCleaningLog(actor models.Actor, log *models.HaccpCleaningLog) (*models.HaccpCleaningLog, error)
	GetCleaningLogs(filters repositories.HaccpFilters, page, pageSize int) ([]models.HaccpCleaningLog, int, error)
	VoidCleaningLog(actor models.Actor, id int64, reason string) error
	// AutoFill creates the day's register rows from the configured plan,
	// skipping entries already recorded for that date.
	AutoFill(actor models.Actor, req AutoFillRequest) (*AutoFillResult, error)
}

type haccpService struct {
	haccpRepo       repositories.HaccpRepository
	auditSvc        AuditService
	db              *sql.DB
	temperaturePlan []TemperaturePlanEntry
	cleaningPlan    []CleaningPlanEntry
}

// NewHaccpService creates a new instance of HaccpService with the default
// daily register plan.
func NewHaccpService(haccpRepo repositories.HaccpRepository, auditSvc AuditService, db *sql.DB) HaccpService {
	return &haccpService{
		haccpRepo:       haccpRepo,
		auditSvc:        auditSvc,
		db:              db,
		temperaturePlan: defaultTemperaturePlan(),
		cleaningPlan:    defaultCleaningPlan(),
	}
}

func floatPtr(v float64) *float64 { return &v }

func defaultTemperaturePlan() []TemperaturePlanEntry {
	return []TemperaturePlanEntry{
		{Equipment: "display case", LimitMin: floatPtr(-16), LimitMax: floatPtr(-12)},
		{Equipment: "blast freezer", LimitMin: floatPtr(-40), LimitMax: floatPtr(-30)},
		{Equipment: "storage freezer", LimitMin: floatPtr(-25), LimitMax: floatPtr(-18)},
		{Equipment: "ingredient fridge", LimitMin: floatPtr(0), LimitMax: floatPtr(4)},
		{Equipment: "pasteurizer", LimitMin: floatPtr(82), LimitMax: floatPtr(90)},
	}
}

func defaultCleaningPlan() []CleaningPlanEntry {
	return []CleaningPlanEntry{
		{Area: "production room", Task: "sanitize work surfaces", Frequency: "daily"},
		{Area: "production room", Task: "clean batch freezer", Frequency: "daily"},
		{Area: "display area", Task: "clean display case glass", Frequency: "daily"},
		{Area: "storage", Task: "check and clean freezer seals", Frequency: "weekly"},
		{Area: "equipment", Task: "deep clean pasteurizer circuit", Frequency: "weekly"},
	}
}

func (s *haccpService) CreateTemperatureLog(actor models.Actor, log *models.HaccpTemperatureLog) (*models.HaccpTemperatureLog, error) {
	if log.Equipment == "" {
		return nil, fmt.Errorf("%w: equipment is required", ErrValidation)
	}
	if log.OutOfLimits() && utils.IsEmpty(derefOrEmpty(log.CorrectiveAction)) {
		return nil, fmt.Errorf("%w: an out-of-limit reading requires a corrective action", ErrValidation)
	}
	if _, err := s.haccpRepo.CreateTemperatureLog(s.db, log); err != nil {
		return nil, err
	}
	s.auditSvc.Record(actor, models.AuditActionCreate, "haccp_temperature_logs", fmt.Sprintf("%d", log.ID), log)
	return log, nil
}

func (s *haccpService) GetTemperatureLogs(filters repositories.HaccpFilters, page, pageSize int) ([]models.HaccpTemperatureLog, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}
	return s.haccpRepo.GetTemperatureLogs(filters, page, pageSize)
}

func (s *haccpService) VoidTemperatureLog(actor models.Actor, id int64, reason string) error {
	if utils.IsEmpty(reason) {
		return fmt.Errorf("%w: a void reason is required", ErrValidation)
	}
	if err := s.haccpRepo.VoidTemperatureLog(s.db, id, reason); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: temperature log %d", ErrRecordNotFound, id)
		}
		if errors.Is(err, repositories.ErrVoided) {
			return fmt.Errorf("%w: temperature log %d", ErrAlreadyVoided, id)
		}
		return err
	}
	s.auditSvc.Record(actor, models.AuditActionUpdate, "haccp_temperature_logs", fmt.Sprintf("%d", id), map[string]string{"voided": reason})
	return nil
}

func (s *haccpService) CreateCleaningLog(actor models.Actor, log *models.HaccpCleaningLog) (*models.HaccpCleaningLog, error) {
	if log.Area == "" || log.Task == "" {
		return nil, fmt.Errorf("%w: area and task are required", ErrValidation)
	}
	if _, err := s.haccpRepo.CreateCleaningLog(s.db, log); err != nil {
		return nil, err
	}
	s.auditSvc.Record(actor, models.AuditActionCreate, "haccp_cleaning_logs", fmt.Sprintf("%d", log.ID), log)
	return log, nil
}

func (s *haccpService) GetCleaningLogs(filters repositories.HaccpFilters, page, pageSize int) ([]models.HaccpCleaningLog, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}
	return s.haccpRepo.GetCleaningLogs(filters, page, pageSize)
}

func (s *haccpService) VoidCleaningLog(actor models.Actor, id int64, reason string) error {
	if utils.IsEmpty(reason) {
		return fmt.Errorf("%w: a void reason is required", ErrValidation)
	}
	if err := s.haccpRepo.VoidCleaningLog(s.db, id, reason); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: cleaning log %d", ErrRecordNotFound, id)
		}
		if errors.Is(err, repositories.ErrVoided) {
			return fmt.Errorf("%w: cleaning log %d", ErrAlreadyVoided, id)
		}
		return err
	}
	s.auditSvc.Record(actor, models.AuditActionUpdate, "haccp_cleaning_logs", fmt.Sprintf("%d", id), map[string]string{"voided": reason})
	return nil
}

// AutoFill pre-creates register rows with in-range placeholder temperatures so
// the operator only adjusts the readings that differ. Cleaning tasks are
// created not-done. Entries already present for the day are left alone.
func (s *haccpService) AutoFill(actor models.Actor, req AutoFillRequest) (*AutoFillResult, error) {
	result := &AutoFillResult{}
	refDate := truncateToDay(req.ReferenceDate)

	for _, entry := range s.temperaturePlan {
		existing, err := s.haccpRepo.CountTemperatureLogsOnDay(entry.Equipment, refDate)
		if err != nil {
			return nil, err
		}
		if existing > 0 {
			result.Skipped++
			continue
		}
		temperature := entry.Temperature
		if entry.LimitMin != nil && entry.LimitMax != nil {
			temperature = (*entry.LimitMin + *entry.LimitMax) / 2
		}
		log := &models.HaccpTemperatureLog{
			Equipment:     entry.Equipment,
			Temperature:   temperature,
			LimitMin:      entry.LimitMin,
			LimitMax:      entry.LimitMax,
			Shift:         req.Shift,
			Operator:      req.Operator,
			ReferenceDate: &refDate,
		}
		if _, err := s.haccpRepo.CreateTemperatureLog(s.db, log); err != nil {
			return nil, err
		}
		result.TemperatureLogsCreated++
	}

	for _, entry := range s.cleaningPlan {
		existing, err := s.haccpRepo.CountCleaningLogsOnDay(entry.Area, entry.Task, refDate)
		if err != nil {
			return nil, err
		}
		if existing > 0 {
			result.Skipped++
			continue
		}
		log := &models.HaccpCleaningLog{
			Area:          entry.Area,
			Task:          entry.Task,
			Frequency:     utils.NewNullString(entry.Frequency),
			Done:          false,
			Shift:         req.Shift,
			Operator:      req.Operator,
			ReferenceDate: &refDate,
		}
		if _, err := s.haccpRepo.CreateCleaningLog(s.db, log); err != nil {
			return nil, err
		}
		result.CleaningLogsCreated++
	}

	s.auditSvc.Record(actor, models.AuditActionAutoFill, "haccp_temperature_logs", refDate.Format("2006-01-02"), result)
	return result, nil
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
