package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"branch-inventory-service/internal/models"
	"branch-inventory-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"`
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity     string                 `json:"entity"`
	Version    string                 `json:"version"`
	Columns    []ImportTemplateColumn `json:"columns"`
	SampleData []map[string]string    `json:"sampleData,omitempty"`
}

// ImportRowError represents an error for a specific row
type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportResult represents the result of an import operation
type ImportResult struct {
	Success      bool             `json:"success"`
	TotalRows    int              `json:"totalRows"`
	SuccessCount int              `json:"successCount"`
	FailedCount  int              `json:"failedCount"`
	SkippedCount int              `json:"skippedCount"`
	Errors       []ImportRowError `json:"errors,omitempty"`
	CreatedIDs   []string         `json:"createdIds,omitempty"`
}

// ImportHandler bulk-loads the raw material catalog from CSV or Excel files
type ImportHandler struct {
	tracker *services.BatchTracker
}

func NewImportHandler(tracker *services.BatchTracker) *ImportHandler {
	return &ImportHandler{tracker: tracker}
}

// RawMaterialImportTemplate returns the template for raw materials
func RawMaterialImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "raw_materials",
		Version: "1.0",
		Columns: []ImportTemplateColumn{
			{Name: "name", Description: "Material name, unique per tenant", Required: true, Type: "string", Example: "Tomatoes"},
			{Name: "unit", Description: "Unit of measure", Required: true, Type: "string", Example: "kg"},
			{Name: "type", Description: "Type (RAW, PROCESSED, SEMI_PROCESSED, SUPPLIES)", Required: true, Type: "string", Example: "RAW"},
			{Name: "minimumThreshold", Description: "Low stock fires at or below this quantity", Required: false, Type: "number", Example: "10"},
			{Name: "reorderLevel", Description: "Reorder alert fires at or below this quantity", Required: false, Type: "number", Example: "20"},
			{Name: "shelfLifeDays", Description: "Days until expiry, required unless type is SUPPLIES", Required: false, Type: "number", Example: "5"},
		},
		SampleData: []map[string]string{
			{
				"name":             "Tomatoes",
				"unit":             "kg",
				"type":             "RAW",
				"minimumThreshold": "10",
				"reorderLevel":     "20",
				"shelfLifeDays":    "5",
			},
			{
				"name":             "Napkins",
				"unit":             "pcs",
				"type":             "SUPPLIES",
				"minimumThreshold": "100",
				"reorderLevel":     "200",
				"shelfLifeDays":    "",
			},
		},
	}
}

// GetImportTemplate returns the raw material import template
// GET /api/v1/raw-materials/import/template
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	template := RawMaterialImportTemplate()

	switch format {
	case "csv":
		h.generateCSVTemplate(c, template, "raw_materials")
	case "xlsx":
		h.generateXLSXTemplate(c, template, "RawMaterials")
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "template": template})
	}
}

func (h *ImportHandler) generateCSVTemplate(c *gin.Context, template ImportTemplate, entity string) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_import_template.csv", entity))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}
	writer.Write(headers)

	for _, sample := range template.SampleData {
		row := make([]string, len(template.Columns))
		for i, col := range template.Columns {
			row[i] = sample[col.Name]
		}
		writer.Write(row)
	}
}

func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, template ImportTemplate, sheetName string) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})

	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
	})

	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		if col.Required {
			headerText = col.Name + " *"
		}
		f.SetCellValue(sheetName, cell, headerText)

		if col.Required {
			f.SetCellStyle(sheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 18)
	}

	for rowIdx, sample := range template.SampleData {
		for colIdx, col := range template.Columns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, sample[col.Name])
		}
	}

	sheetIdx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_import_template.xlsx", strings.ToLower(sheetName)))

	f.Write(c.Writer)
}

// ImportRawMaterials imports raw materials from a CSV or Excel file
// POST /api/v1/raw-materials/import
func (h *ImportHandler) ImportRawMaterials(c *gin.Context) {
	tenantID := tenantFromContext(c)
	user := userFromContext(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "FILE_REQUIRED", "Please upload a CSV or Excel file")
		return
	}
	defer file.Close()

	skipDuplicates := c.DefaultPostForm("skipDuplicates", "false") == "true"
	validateOnly := c.DefaultPostForm("validateOnly", "false") == "true"

	rows, parseErr := h.parseFile(file, header.Filename)
	if parseErr != nil {
		respondError(c, http.StatusBadRequest, "PARSE_ERROR", parseErr.Error())
		return
	}

	if len(rows) == 0 {
		respondError(c, http.StatusBadRequest, "EMPTY_FILE", "The file contains no data rows")
		return
	}

	result := h.processRows(c, tenantID, user, rows, skipDuplicates, validateOnly)
	c.JSON(http.StatusOK, result)
}

func (h *ImportHandler) parseFile(file io.Reader, filename string) ([]map[string]string, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return h.parseCSV(file)
	} else if strings.HasSuffix(strings.ToLower(filename), ".xlsx") {
		return h.parseXLSX(file)
	}
	return nil, fmt.Errorf("only CSV and XLSX files are supported")
}

func (h *ImportHandler) parseCSV(file io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(file)

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	normalizeHeaders(headers)

	var rows []map[string]string
	lineNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", lineNum+1, err)
		}

		row := make(map[string]string)
		for i, value := range record {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		row["_row"] = strconv.Itoa(lineNum + 1)
		rows = append(rows, row)
		lineNum++
	}

	return rows, nil
}

func (h *ImportHandler) parseXLSX(file io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	excelRows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}

	if len(excelRows) < 2 {
		return nil, fmt.Errorf("file must have a header row and at least one data row")
	}

	headers := excelRows[0]
	normalizeHeaders(headers)

	var rows []map[string]string
	for rowIdx, excelRow := range excelRows[1:] {
		row := make(map[string]string)
		for i, value := range excelRow {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		row["_row"] = strconv.Itoa(rowIdx + 2)
		rows = append(rows, row)
	}

	return rows, nil
}

func normalizeHeaders(headers []string) {
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.ToLower(headers[i]))
		headers[i] = strings.TrimSuffix(headers[i], " *")
	}
}

func (h *ImportHandler) processRows(c *gin.Context, tenantID string, user *string, rows []map[string]string, skipDuplicates, validateOnly bool) *ImportResult {
	result := &ImportResult{
		TotalRows:  len(rows),
		Errors:     make([]ImportRowError, 0),
		CreatedIDs: make([]string, 0),
	}

	for _, row := range rows {
		rowNum, _ := strconv.Atoi(row["_row"])

		req, rowErrs := buildMaterialRequest(row, rowNum)
		if len(rowErrs) > 0 {
			result.Errors = append(result.Errors, rowErrs...)
			result.FailedCount++
			continue
		}

		if validateOnly {
			result.SuccessCount++
			continue
		}

		material, err := h.tracker.CreateRawMaterial(c.Request.Context(), tenantID, *req, user)
		if err != nil {
			if errors.Is(err, services.ErrDuplicateMaterial) && skipDuplicates {
				result.SkippedCount++
				continue
			}
			result.Errors = append(result.Errors, ImportRowError{
				Row:     rowNum,
				Code:    "CREATE_FAILED",
				Message: err.Error(),
			})
			result.FailedCount++
			continue
		}

		result.CreatedIDs = append(result.CreatedIDs, material.ID.String())
		result.SuccessCount++
	}

	result.Success = result.FailedCount == 0
	return result
}

func buildMaterialRequest(row map[string]string, rowNum int) (*models.CreateRawMaterialRequest, []ImportRowError) {
	var errs []ImportRowError

	for _, col := range []string{"name", "unit", "type"} {
		if row[col] == "" {
			errs = append(errs, ImportRowError{
				Row:     rowNum,
				Column:  col,
				Code:    "REQUIRED_FIELD",
				Message: fmt.Sprintf("Required field '%s' is empty", col),
			})
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	req := &models.CreateRawMaterialRequest{
		Name: row["name"],
		Unit: row["unit"],
		Type: models.MaterialType(strings.ToUpper(row["type"])),
	}
	if !models.ValidMaterialType(req.Type) {
		return nil, []ImportRowError{{
			Row:     rowNum,
			Column:  "type",
			Code:    "INVALID_TYPE",
			Message: fmt.Sprintf("Unknown material type %q", row["type"]),
		}}
	}

	if v := row["minimumthreshold"]; v != "" {
		threshold, err := decimal.NewFromString(v)
		if err != nil {
			return nil, []ImportRowError{{Row: rowNum, Column: "minimumThreshold", Code: "INVALID_NUMBER", Message: "minimumThreshold must be a number"}}
		}
		req.MinimumThreshold = threshold
	}
	if v := row["reorderlevel"]; v != "" {
		level, err := decimal.NewFromString(v)
		if err != nil {
			return nil, []ImportRowError{{Row: rowNum, Column: "reorderLevel", Code: "INVALID_NUMBER", Message: "reorderLevel must be a number"}}
		}
		req.ReorderLevel = level
	}
	if v := row["shelflifedays"]; v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			return nil, []ImportRowError{{Row: rowNum, Column: "shelfLifeDays", Code: "INVALID_NUMBER", Message: "shelfLifeDays must be a positive integer"}}
		}
		req.ShelfLifeDays = &days
	}

	return req, nil
}
