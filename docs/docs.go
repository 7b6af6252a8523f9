// Package docs Secure Evidence API.
//
// Documentation of the Secure Evidence API.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//
//     Consumes:
//     - application/json
//     - multipart/form-data
//
//     Produces:
//     - application/json
//
//     Security:
//     - bearer
//
//    SecurityDefinitions:
//    bearer:
//      type: apiKey
//      name: Authorization
//      in: header
//
// swagger:meta
package docs

import (
	"github.com/linesmerrill/secure-evidence-api/models"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route POST /api/users/login users login
// Exchanges an e-mail and password for a token.
// responses:
//   200: authResponse

// The caller and a signed bearer token.
// swagger:response authResponse
type authResponseWrapper struct {
	// in:body
	Body models.AuthResponse
}

// swagger:route GET /api/cases/{id} cases caseByID
// Gets a single case the caller may see.
// responses:
//   200: caseByIDResponse

// Shows a single case by the given {id}
// swagger:response caseByIDResponse
type caseByIDResponseWrapper struct {
	// in:body
	Body models.PopulatedCase
}

// swagger:route POST /api/evidence evidence uploadEvidence
// Uploads a file as evidence of a case. The response carries the SHA-256 taken at ingest.
// responses:
//   201: evidenceResponse

// The stored evidence record
// swagger:response evidenceResponse
type evidenceResponseWrapper struct {
	// in:body
	Body models.Evidence
}

// swagger:route GET /api/evidence/{caseId}/list evidence caseEvidence
// Lists the evidence of a case.
// responses:
//   200: evidenceListResponse

// The evidence of a case with uploaders populated
// swagger:response evidenceListResponse
type evidenceListResponseWrapper struct {
	// in:body
	Body []models.PopulatedEvidence
}

// swagger:route GET /api/notifications notifications listNotifications
// Lists the caller's notifications newest first.
// responses:
//   200: notificationsResponse

// The caller's notifications
// swagger:response notificationsResponse
type notificationsResponseWrapper struct {
	// in:body
	Body []models.Notification
}

// swagger:route GET /api/logs logs auditLogs
// Lists the audit trail newest first. Admin only.
// responses:
//   200: auditLogsResponse

// The audit trail
// swagger:response auditLogsResponse
type auditLogsResponseWrapper struct {
	// in:body
	Body []models.PopulatedAuditLog
}

// An error body
// swagger:response errorResponse
type errorResponseWrapper struct {
	// in:body
	Body models.ErrorMessageResponse
}
