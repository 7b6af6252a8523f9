package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/linesmerrill/secure-evidence-api/models"
)

// AuditSheet is the name of the worksheet holding the audit trail
const AuditSheet = "Audit Logs"

var auditHeaders = []string{
	"Timestamp", "User", "Email", "Role", "Action", "Details", "IP Address", "User Agent", "Request ID",
}

// AuditLogWorkbook renders audit rows into an XLSX workbook, one row per entry in the given
// order. Rows without a user are attributed to "anonymous".
func AuditLogWorkbook(logs []models.PopulatedAuditLog) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", AuditSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, h := range auditHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(AuditSheet, cell, h)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	last, _ := excelize.CoordinatesToCellName(len(auditHeaders), 1)
	f.SetCellStyle(AuditSheet, "A1", last, headerStyle)

	for i, l := range logs {
		name, email, role := "anonymous", "", ""
		if l.User != nil {
			name, email, role = l.User.Name, l.User.Email, string(l.User.Role)
		}
		row := []interface{}{
			l.Timestamp.UTC().Format("2006-01-02T15:04:05Z07:00"),
			name,
			email,
			role,
			l.Action,
			l.Details,
			l.IPAddress,
			l.UserAgent,
			l.RequestID,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(AuditSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(AuditSheet, "A", "A", 22)
	_ = f.SetColWidth(AuditSheet, "F", "F", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write excel buffer: %w", err)
	}
	return buf, nil
}
