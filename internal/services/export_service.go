package services

import (
	"bytes"
	"fmt"
	"time"

	"gelateria_backend/internal/repositories"

	"github.com/xuri/excelize/v2"
)

// ExportService renders compliance and traceability data as Excel workbooks
// for inspectors and accountants.
type ExportService interface {
	// ExportHaccpRegister writes both HACCP registers for a date range into
	// one workbook, voided rows included and marked.
	ExportHaccpRegister(start, end time.Time) (*bytes.Buffer, string, error)
	// ExportBatchTraceability writes a batch's header and ingredient lines,
	// with lot codes and frozen prices, for recall tracing.
	ExportBatchTraceability(batchID int64) (*bytes.Buffer, string, error)
}

type exportService struct {
	haccpRepo      repositories.HaccpRepository
	productionRepo repositories.ProductionRepository
}

// NewExportService creates a new instance of ExportService.
func NewExportService(haccpRepo repositories.HaccpRepository, productionRepo repositories.ProductionRepository) ExportService {
	return &exportService{haccpRepo: haccpRepo, productionRepo: productionRepo}
}

const exportPageSize = 10000

func (s *exportService) ExportHaccpRegister(start, end time.Time) (*bytes.Buffer, string, error) {
	filters := repositories.HaccpFilters{StartDate: &start, EndDate: &end, IncludeVoided: true}

	tempLogs, _, err := s.haccpRepo.GetTemperatureLogs(filters, 1, exportPageSize)
	if err != nil {
		return nil, "", err
	}
	cleaningLogs, _, err := s.haccpRepo.GetCleaningLogs(filters, 1, exportPageSize)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	tempSheet := "Temperature"
	f.SetSheetName("Sheet1", tempSheet)
	tempHeaders := []string{"Date", "Equipment", "Temperature", "Limit Min", "Limit Max", "Shift", "Operator", "Non-conformity", "Corrective Action", "Status", "Void Reason"}
	for i, h := range tempHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(tempSheet, cell, h)
	}
	for i, log := range tempLogs {
		row := i + 2
		f.SetCellValue(tempSheet, fmt.Sprintf("A%d", row), log.RecordedAt.Format("2006-01-02 15:04"))
		f.SetCellValue(tempSheet, fmt.Sprintf("B%d", row), log.Equipment)
		f.SetCellValue(tempSheet, fmt.Sprintf("C%d", row), log.Temperature)
		if log.LimitMin != nil {
			f.SetCellValue(tempSheet, fmt.Sprintf("D%d", row), *log.LimitMin)
		}
		if log.LimitMax != nil {
			f.SetCellValue(tempSheet, fmt.Sprintf("E%d", row), *log.LimitMax)
		}
		f.SetCellValue(tempSheet, fmt.Sprintf("F%d", row), derefOrEmpty(log.Shift))
		f.SetCellValue(tempSheet, fmt.Sprintf("G%d", row), derefOrEmpty(log.Operator))
		f.SetCellValue(tempSheet, fmt.Sprintf("H%d", row), derefOrEmpty(log.NonConformity))
		f.SetCellValue(tempSheet, fmt.Sprintf("I%d", row), derefOrEmpty(log.CorrectiveAction))
		f.SetCellValue(tempSheet, fmt.Sprintf("J%d", row), log.Status)
		f.SetCellValue(tempSheet, fmt.Sprintf("K%d", row), derefOrEmpty(log.VoidReason))
	}

	cleanSheet := "Cleaning"
	if _, err := f.NewSheet(cleanSheet); err != nil {
		return nil, "", fmt.Errorf("creating cleaning sheet: %w", err)
	}
	cleanHeaders := []string{"Date", "Area", "Task", "Frequency", "Done", "Shift", "Operator", "Notes", "Status", "Void Reason"}
	for i, h := range cleanHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(cleanSheet, cell, h)
	}
	for i, log := range cleaningLogs {
		row := i + 2
		f.SetCellValue(cleanSheet, fmt.Sprintf("A%d", row), log.RecordedAt.Format("2006-01-02 15:04"))
		f.SetCellValue(cleanSheet, fmt.Sprintf("B%d", row), log.Area)
		f.SetCellValue(cleanSheet, fmt.Sprintf("C%d", row), log.Task)
		f.SetCellValue(cleanSheet, fmt.Sprintf("D%d", row), derefOrEmpty(log.Frequency))
		f.SetCellValue(cleanSheet, fmt.Sprintf("E%d", row), log.Done)
		f.SetCellValue(cleanSheet, fmt.Sprintf("F%d", row), derefOrEmpty(log.Shift))
		f.SetCellValue(cleanSheet, fmt.Sprintf("G%d", row), derefOrEmpty(log.Operator))
		f.SetCellValue(cleanSheet, fmt.Sprintf("H%d", row), derefOrEmpty(log.Notes))
		f.SetCellValue(cleanSheet, fmt.Sprintf("I%d", row), log.Status)
		f.SetCellValue(cleanSheet, fmt.Sprintf("J%d", row), derefOrEmpty(log.VoidReason))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("writing workbook: %w", err)
	}
	filename := fmt.Sprintf("haccp_register_%s_%s.xlsx", start.Format("20060102"), end.Format("20060102"))
	return buf, filename, nil
}

func (s *exportService) ExportBatchTraceability(batchID int64) (*bytes.Buffer, string, error) {
	batch, err := s.productionRepo.GetBatchByID(batchID)
	if err != nil {
		return nil, "", err
	}
	details, err := s.productionRepo.GetBatchDetails(batchID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Batch"
	f.SetSheetName("Sheet1", sheet)

	productName := ""
	if batch.Product != nil {
		productName = batch.Product.Name
	}
	f.SetCellValue(sheet, "A1", "Batch ID")
	f.SetCellValue(sheet, "B1", batch.ID)
	f.SetCellValue(sheet, "A2", "Product")
	f.SetCellValue(sheet, "B2", productName)
	f.SetCellValue(sheet, "A3", "Production Date")
	f.SetCellValue(sheet, "B3", batch.ProductionDate.Format("2006-01-02"))
	f.SetCellValue(sheet, "A4", "Produced Quantity")
	f.SetCellValue(sheet, "B4", batch.ProducedQuantity)
	f.SetCellValue(sheet, "C4", batch.YieldUnit)
	f.SetCellValue(sheet, "A5", "Total Cost")
	f.SetCellValue(sheet, "B5", batch.TotalCost.String())
	f.SetCellValue(sheet, "A6", "Unit Cost")
	f.SetCellValue(sheet, "B6", batch.UnitCost.String())

	headers := []string{"Ingredient", "Lot Code", "Quantity Used", "Unit", "Frozen Price", "Price Known", "Line Cost"}
	headerRow := 8
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		f.SetCellValue(sheet, cell, h)
	}
	for i, d := range details {
		row := headerRow + 1 + i
		ingredientName := ""
		if d.Ingredient != nil {
			ingredientName = d.Ingredient.Name
		}
		lotCode := ""
		if d.Lot != nil {
			lotCode = d.Lot.LotCode
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), ingredientName)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), lotCode)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), d.QuantityUsed)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), d.Unit)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), d.FrozenPrice.String())
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), d.PriceKnown)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), d.LineCost.String())
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("writing workbook: %w", err)
	}
	filename := fmt.Sprintf("batch_%d_traceability.xlsx", batchID)
	return buf, filename, nil
}
