package handlers

import (
	"errors"
	"mime"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/linesmerrill/secure-evidence-api/api"
	"github.com/linesmerrill/secure-evidence-api/api/evidence"
	"github.com/linesmerrill/secure-evidence-api/config"
	"github.com/linesmerrill/secure-evidence-api/databases"
	"github.com/linesmerrill/secure-evidence-api/models"
)

// HashHeader carries the recorded SHA-256 of a downloaded evidence file
const HashHeader = "X-Evidence-SHA256"

// Evidence exported for testing purposes
type Evidence struct {
	DB       databases.EvidenceDatabase
	CDB      databases.CaseDatabase
	Gate     *api.Gate
	Receiver evidence.Receiver
	Service  *evidence.Service
}

// UploadEvidenceHandler stores a multipart upload and records it as evidence of the case
// named by the caseId field.
func (e Evidence) UploadEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())

	file, fields, err := e.Receiver.Receive(w, r)
	if err != nil {
		switch {
		case errors.Is(err, evidence.ErrUploadTooLarge):
			config.ErrorStatus("file too large", http.StatusRequestEntityTooLarge, w, err)
		case errors.Is(err, evidence.ErrMalformedUpload):
			config.ErrorStatus("malformed upload", http.StatusBadRequest, w, err)
		default:
			config.ErrorStatus("upload failed", http.StatusInternalServerError, w, err)
		}
		return
	}

	caseID := strings.TrimSpace(fields["caseId"])
	if file != nil && caseID == "" {
		if rmErr := file.Remove(); rmErr != nil {
			zap.S().Errorw("failed to clean up upload", "path", file.Path, "error", rmErr)
		}
		config.ErrorStatus("caseId is required", http.StatusBadRequest, w, nil)
		return
	}

	created, err := e.Service.Ingest(r.Context(), evidence.IngestRequest{
		CaseID:      caseID,
		UploaderID:  u.ID,
		File:        file,
		Description: fields["description"],
		CanAccess: func(c *models.Case) bool {
			return e.Gate.CanView(u, c)
		},
	})
	if err != nil {
		switch {
		case errors.Is(err, evidence.ErrNoFileProvided):
			config.ErrorStatus("please upload a file", http.StatusBadRequest, w, err)
		case errors.Is(err, evidence.ErrCaseNotFound):
			config.ErrorStatus("case not found", http.StatusNotFound, w, err)
		case errors.Is(err, evidence.ErrForbidden):
			config.ErrorStatus("not permitted to access this case", http.StatusForbidden, w, err)
		default:
			config.ErrorStatus("upload failed", http.StatusInternalServerError, w, err)
		}
		return
	}
	api.WriteJSON(w, http.StatusCreated, created)
}

// CaseEvidenceHandler returns the evidence of a case with uploaders populated
func (e Evidence) CaseEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["caseId"]

	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	kase, err := e.CDB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			config.ErrorStatus("case not found", http.StatusNotFound, w, err)
			return
		}
		config.ErrorStatus("failed to get case", http.StatusInternalServerError, w, err)
		return
	}
	if !e.Gate.CanView(api.UserFromContext(r.Context()), kase) {
		config.ErrorStatus("not permitted to access this case", http.StatusForbidden, w, nil)
		return
	}

	items, err := e.DB.FindPopulated(ctx, bson.M{"caseId": cID})
	if err != nil {
		config.ErrorStatus("failed to get evidence", http.StatusInternalServerError, w, err)
		return
	}
	if items == nil {
		items = []models.PopulatedEvidence{}
	}
	api.WriteJSON(w, http.StatusOK, items)
}

// DownloadEvidenceHandler streams the stored file under its original name. The recorded hash
// is sent in the X-Evidence-SHA256 header; the file is not re-hashed on the way out.
func (e Evidence) DownloadEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	evidenceID := mux.Vars(r)["id"]

	eID, err := primitive.ObjectIDFromHex(evidenceID)
	if err != nil {
		config.ErrorStatus("evidence not found", http.StatusNotFound, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	item, err := e.DB.FindOne(ctx, bson.M{"_id": eID})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			config.ErrorStatus("evidence not found", http.StatusNotFound, w, err)
			return
		}
		config.ErrorStatus("failed to get evidence", http.StatusInternalServerError, w, err)
		return
	}

	// evidence of a deleted case stays readable to roles that see every case
	kase, err := e.CDB.FindOne(ctx, bson.M{"_id": item.CaseID})
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		config.ErrorStatus("failed to get case", http.StatusInternalServerError, w, err)
		return
	}
	if !e.Gate.CanView(u, kase) && !e.Gate.Allows(u, api.ActionViewAll) {
		config.ErrorStatus("not permitted to access this case", http.StatusForbidden, w, nil)
		return
	}

	f, err := os.Open(item.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			config.ErrorStatus("file not found on server", http.StatusNotFound, w, err)
			return
		}
		config.ErrorStatus("failed to open evidence file", http.StatusInternalServerError, w, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		config.ErrorStatus("failed to open evidence file", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": item.FileName}))
	if item.FileType != "" {
		w.Header().Set("Content-Type", item.FileType)
	}
	w.Header().Set(HashHeader, item.Hash)
	http.ServeContent(w, r, item.FileName, info.ModTime(), f)
}
