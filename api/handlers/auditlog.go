package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/linesmerrill/secure-evidence-api/api"
	"github.com/linesmerrill/secure-evidence-api/api/report"
	"github.com/linesmerrill/secure-evidence-api/config"
	"github.com/linesmerrill/secure-evidence-api/databases"
	"github.com/linesmerrill/secure-evidence-api/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AuditLog exported for testing purposes
type AuditLog struct {
	DB databases.AuditLogDatabase
}

// LogsHandler returns the audit trail newest first. Without a limit the whole trail is returned.
func (a AuditLog) LogsHandler(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit")
	page := queryInt(r, "page")

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	logs, err := a.DB.FindPopulated(ctx, bson.M{}, limit, page)
	if err != nil {
		config.ErrorStatus("failed to get audit logs", http.StatusInternalServerError, w, err)
		return
	}
	if logs == nil {
		logs = []models.PopulatedAuditLog{}
	}
	api.WriteJSON(w, http.StatusOK, logs)
}

// ExportLogsHandler returns the whole audit trail as an XLSX workbook
func (a AuditLog) ExportLogsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	logs, err := a.DB.FindPopulated(ctx, bson.M{}, 0, 1)
	if err != nil {
		config.ErrorStatus("failed to get audit logs", http.StatusInternalServerError, w, err)
		return
	}

	buf, err := report.AuditLogWorkbook(logs)
	if err != nil {
		config.ErrorStatus("failed to build export", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="audit-logs-%s.xlsx"`, time.Now().UTC().Format("20060102")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func queryInt(r *http.Request, key string) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		zap.S().Debugw("ignoring invalid query parameter", "key", key, "value", raw)
		return 0
	}
	return n
}
