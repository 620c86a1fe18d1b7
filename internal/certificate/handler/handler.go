// Package handler exposes the certificate lifecycle over HTTP.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"sigil/internal/certificate/models"
	dErrors "sigil/pkg/domain-errors"
	"sigil/pkg/platform/httputil"
	"sigil/pkg/requestcontext"
)

// maxUploadBytes caps the in-memory portion of multipart certificate uploads.
const maxUploadBytes = 10 << 20

// Service defines the certificate operations the handler depends on.
type Service interface {
	Issue(ctx context.Context, req models.IssueRequest) (*models.IssuedCertificate, error)
	IssueFile(ctx context.Context, req models.IssueFileRequest) (*models.IssuedCertificate, error)
	Verify(ctx context.Context, req models.VerifyRequest) (*models.VerificationResult, error)
	VerifyFile(ctx context.Context, req models.VerifyFileRequest) (*models.VerificationResult, error)
	Revoke(ctx context.Context, certificateID, revokedBy string) (*models.CertificateRecord, error)
	ListAll(ctx context.Context) ([]models.CertificateRecord, error)
}

// Handler handles certificate issuance, verification, and revocation endpoints.
type Handler struct {
	logger      *slog.Logger
	certificate Service
}

// New creates a new certificate Handler.
func New(certificate Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:      logger,
		certificate: certificate,
	}
}

// Register registers the certificate routes with the chi router. Revocation is
// expected to be mounted behind the admin guard by the caller.
func (h *Handler) Register(r chi.Router) {
	r.Post("/issue-certificate", h.handleIssue)
	r.Post("/verify-certificate", h.handleVerify)
	r.Post("/issue-pdf-certificate", h.handleIssueFile)
	r.Post("/verify-pdf-certificate", h.handleVerifyFile)
	r.Get("/certificates", h.handleList)
}

// RegisterAdmin registers the admin-only certificate routes.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/certificate/revoke", h.handleRevoke)
}

type issueRequest struct {
	SkillName string `json:"skillName"`
	OwnerID   string `json:"ownerId"`
	Issuer    string `json:"issuer"`
}

func (r *issueRequest) Normalize() {
	r.SkillName = strings.TrimSpace(r.SkillName)
	r.OwnerID = strings.TrimSpace(r.OwnerID)
	r.Issuer = strings.TrimSpace(r.Issuer)
}

func (r *issueRequest) Validate() error {
	if r.SkillName == "" || r.OwnerID == "" || r.Issuer == "" {
		return dErrors.New(dErrors.CodeValidation, "Missing required fields")
	}
	return nil
}

type issueResponse struct {
	Message     string                     `json:"message"`
	Certificate *models.CertificateContent `json:"certificate"`
	Hash        string                     `json:"hash"`
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[issueRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	issued, err := h.certificate.Issue(ctx, models.IssueRequest{
		SkillName: req.SkillName,
		OwnerID:   req.OwnerID,
		Issuer:    req.Issuer,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue certificate",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, issueResponse{
		Message:     "Certificate issued successfully",
		Certificate: issued.Content,
		Hash:        issued.Digest,
	})
}

type verifyRequest struct {
	Certificate    models.CertificateContent `json:"certificate"`
	ClaimedOwnerID string                    `json:"claimedOwnerId"`
}

type verifyResponse struct {
	Status  models.Outcome `json:"status"`
	Message string         `json:"message"`
	Issuer  string         `json:"issuer,omitempty"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeJSON[verifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.certificate.Verify(ctx, models.VerifyRequest{
		Content:        req.Certificate,
		ClaimedOwnerID: req.ClaimedOwnerID,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to verify certificate",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.writeResult(w, result)
}

type issueFileResponse struct {
	Message       string `json:"message"`
	CertificateID string `json:"certificateId"`
	Hash          string `json:"hash"`
}

func (h *Handler) handleIssueFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	content, ok := h.readUpload(w, r, requestID)
	if !ok {
		return
	}

	issued, err := h.certificate.IssueFile(ctx, models.IssueFileRequest{
		Content: content,
		OwnerID: r.FormValue("ownerId"),
		Issuer:  r.FormValue("issuer"),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue file certificate",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, issueFileResponse{
		Message:       "Certificate issued successfully",
		CertificateID: issued.CertificateID.String(),
		Hash:          issued.Digest,
	})
}

func (h *Handler) handleVerifyFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	content, ok := h.readUpload(w, r, requestID)
	if !ok {
		return
	}

	result, err := h.certificate.VerifyFile(ctx, models.VerifyFileRequest{
		Content:        content,
		CertificateID:  r.FormValue("certificateId"),
		ClaimedOwnerID: r.FormValue("claimedOwnerId"),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to verify file certificate",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.writeResult(w, result)
}

type listResponse struct {
	Certificates []models.CertificateRecord `json:"certificates"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.certificate.ListAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list certificates",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	if records == nil {
		records = []models.CertificateRecord{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Certificates: records})
}

type revokeRequest struct {
	CertificateID string `json:"certificateId"`
}

func (r *revokeRequest) Normalize() {
	r.CertificateID = strings.TrimSpace(r.CertificateID)
}

func (r *revokeRequest) Validate() error {
	if r.CertificateID == "" {
		return dErrors.New(dErrors.CodeValidation, "certificateId is required")
	}
	return nil
}

type revokeResponse struct {
	Message     string                    `json:"message"`
	Certificate *models.CertificateRecord `json:"certificate"`
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor := requestcontext.AdminActor(ctx)
	if actor == "" {
		h.logger.ErrorContext(ctx, "admin actor missing from context despite auth middleware",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[revokeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.certificate.Revoke(ctx, req.CertificateID, actor)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to revoke certificate",
			"request_id", requestID,
			"certificate_id", req.CertificateID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, revokeResponse{
		Message:     "Certificate revoked successfully",
		Certificate: record,
	})
}

// writeResult maps a verification result to the wire. Pipeline outcomes are
// 200s; only a malformed request gets a 400.
func (h *Handler) writeResult(w http.ResponseWriter, result *models.VerificationResult) {
	status := http.StatusOK
	if result.Outcome == models.OutcomeError {
		status = http.StatusBadRequest
	}
	httputil.WriteJSON(w, status, verifyResponse{
		Status:  result.Outcome,
		Message: result.Message,
		Issuer:  result.Issuer,
	})
}

// readUpload extracts the uploaded certificate file from a multipart form.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request, requestID string) ([]byte, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.logger.WarnContext(r.Context(), "failed to parse multipart form",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart form"))
		return nil, false
	}

	file, _, err := r.FormFile("certificate")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "Missing required fields"))
		return nil, false
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "failed to read uploaded file"))
		return nil, false
	}
	if len(content) > maxUploadBytes {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "uploaded file too large"))
		return nil, false
	}
	return content, true
}
