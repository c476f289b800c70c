package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"scanlink/backend/config"
	"scanlink/backend/internal/dto"
	"scanlink/backend/internal/model"
	"scanlink/backend/internal/repository"
	apperrors "scanlink/backend/pkg/errors"
	"scanlink/backend/pkg/jwt"
)

// ── test fixture ──

type scanFixture struct {
	svc        ScanService
	cfg        *config.Config
	jwtMgr     *jwt.Manager
	subjects   *mockSubjectRepo
	scans      *mockScanRepo
	shortLinks *mockShortLinkRepo
	issuers    *mockIssuerRepo
	audit      *mockAuditRepo
	consent    *mockConsentRepo
	storage    *mockStorage
	sms        *mockSMS
}

func setupScanFixture() *scanFixture {
	cfg := &config.Config{
		Server: config.ServerConfig{BaseURL: "https://scan.test"},
		Auth: config.AuthConfig{
			JWTSecret:         "test-secret-key-for-unit-testing-2026",
			EntityTokenTTL:    7 * 24 * time.Hour,
			DashboardTokenTTL: 30 * 24 * time.Hour,
			ShortLinkTokenTTL: 7 * 24 * time.Hour,
		},
		Storage: config.StorageConfig{Bucket: "scan-images"},
	}

	subjects := newMockSubjectRepo()
	scans := newMockScanRepo(subjects)
	shortLinks := newMockShortLinkRepo()
	issuers := newMockIssuerRepo()
	audit := newMockAuditRepo()
	consent := newMockConsentRepo(subjects, scans, shortLinks, audit)
	repo := &repository.Repository{
		Subject:   subjects,
		Scan:      scans,
		ShortLink: shortLinks,
		Issuer:    issuers,
		Teacher:   newMockTeacherRepo(),
		Lead:      newMockLeadRepo(),
		Audit:     audit,
		Consent:   consent,
	}

	jwtMgr := jwt.NewManager(&cfg.Auth)
	storage := newMockStorage()
	sms := newMockSMS()

	svc := NewScanService(cfg, repo, jwtMgr, nil, storage, sms, zap.NewNop())
	return &scanFixture{
		svc:        svc,
		cfg:        cfg,
		jwtMgr:     jwtMgr,
		subjects:   subjects,
		scans:      scans,
		shortLinks: shortLinks,
		issuers:    issuers,
		audit:      audit,
		consent:    consent,
		storage:    storage,
		sms:        sms,
	}
}

func createScan(t *testing.T, f *scanFixture, flow string) *dto.CreateScanResponse {
	t.Helper()
	resp, err := f.svc.CreateForSubject(context.Background(), &dto.CreateScanRequest{
		Name:  "Jane Doe",
		Phone: "+1 (555) 123-4567",
		Flow:  flow,
	})
	if err != nil {
		t.Fatalf("CreateForSubject: %v", err)
	}
	return resp
}

// ── creation ──

func TestCreateForSubject_Success(t *testing.T) {
	f := setupScanFixture()

	resp := createScan(t, f, "school")

	scan, ok := f.scans.scans[resp.ScanID]
	if !ok {
		t.Fatal("scan row not created")
	}
	if scan.Status != model.StatusLinkSent {
		t.Errorf("status = %q, want %q", scan.Status, model.StatusLinkSent)
	}
	if scan.FlowType != model.FlowSchool {
		t.Errorf("flow = %q, want school", scan.FlowType)
	}
	if scan.ShortCode == nil || len(*scan.ShortCode) != 8 {
		t.Errorf("short code = %v, want 8 characters", scan.ShortCode)
	}
	if _, ok := f.shortLinks.aliases[resp.ShortCode]; !ok {
		t.Error("short-link alias not created")
	}

	// The scan URL embeds an entity token bound to the new scan.
	idx := strings.Index(resp.ScanURL, "token=")
	if idx < 0 {
		t.Fatalf("scan URL %q carries no token", resp.ScanURL)
	}
	claims, err := f.jwtMgr.Parse(resp.ScanURL[idx+len("token="):])
	if err != nil {
		t.Fatalf("parsing embedded token: %v", err)
	}
	if claims.ScanID != resp.ScanID {
		t.Errorf("token ScanID = %q, want %q", claims.ScanID, resp.ScanID)
	}
	if claims.SubjectID != scan.SubjectID {
		t.Errorf("token SubjectID = %q, want %q", claims.SubjectID, scan.SubjectID)
	}
	if claims.Role != model.RoleSubject {
		t.Errorf("token Role = %q, want subject", claims.Role)
	}
	if claims.Kind != jwt.KindEntity {
		t.Errorf("token Kind = %q, want entity", claims.Kind)
	}

	if len(f.sms.sent) != 1 {
		t.Fatalf("sms sent = %d, want 1", len(f.sms.sent))
	}
	if !strings.Contains(f.sms.sent[0].body, resp.ScanURL) {
		t.Errorf("sms body %q does not carry the scan URL", f.sms.sent[0].body)
	}
}

func TestCreateForSubject_InvalidPhone(t *testing.T) {
	f := setupScanFixture()

	_, err := f.svc.CreateForSubject(context.Background(), &dto.CreateScanRequest{
		Name:  "Jane Doe",
		Phone: "call me",
	})
	if !errors.Is(err, ErrInvalidPhone) {
		t.Errorf("error = %v, want ErrInvalidPhone", err)
	}
	if len(f.scans.scans) != 0 {
		t.Error("scan row created despite invalid phone")
	}
}

func TestCreateForSubject_UnknownFlowDefaultsToClinic(t *testing.T) {
	f := setupScanFixture()

	resp := createScan(t, f, "spa")

	scan := f.scans.scans[resp.ScanID]
	if scan.FlowType != model.FlowClinic {
		t.Errorf("flow = %q, want clinic", scan.FlowType)
	}
}

func TestCreateForSubject_ExplicitIssuerMissing(t *testing.T) {
	f := setupScanFixture()

	_, err := f.svc.CreateForSubject(context.Background(), &dto.CreateScanRequest{
		Name:     "Jane Doe",
		Phone:    "+15551234567",
		IssuerID: "no-such-issuer",
	})
	if !errors.Is(err, ErrIssuerNotFound) {
		t.Errorf("error = %v, want ErrIssuerNotFound", err)
	}
}

func TestCreateForSubject_DefaultIssuerPolicy(t *testing.T) {
	f := setupScanFixture()
	f.issuers.Create(context.Background(), &model.Issuer{Name: "Oldest Clinic"})
	f.issuers.Create(context.Background(), &model.Issuer{Name: "Flagged Clinic", IsDefault: true})

	resp := createScan(t, f, "")

	scan := f.scans.scans[resp.ScanID]
	if scan.IssuerID == nil || *scan.IssuerID != "issuer-2" {
		t.Errorf("issuer = %v, want the flagged default issuer-2", scan.IssuerID)
	}
}

func TestCreateForSubject_SMSFailureDoesNotFailRequest(t *testing.T) {
	f := setupScanFixture()
	f.sms.failErr = errors.New("provider is down")

	resp := createScan(t, f, "gym")

	if _, ok := f.scans.scans[resp.ScanID]; !ok {
		t.Error("scan not created when sms dispatch failed")
	}
}

func TestCreateForSubject_ShortCodeConflictRetries(t *testing.T) {
	f := setupScanFixture()
	f.scans.createErr = gorm.ErrDuplicatedKey

	resp := createScan(t, f, "")

	if resp.ScanID == "" {
		t.Fatal("no scan created after conflict retry")
	}
	if len(resp.ShortCode) != 8 {
		t.Errorf("short code %q, want 8 characters", resp.ShortCode)
	}
}

func TestCreateForSubject_NonConflictCreateErrorSurfaces(t *testing.T) {
	f := setupScanFixture()
	f.scans.createErr = errors.New("connection reset by peer")

	_, err := f.svc.CreateForSubject(context.Background(), &dto.CreateScanRequest{
		Name:  "Jane Doe",
		Phone: "+15551234567",
	})
	if err == nil {
		t.Fatal("expected the create error to surface, got nil")
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("err = %v, want the original create error", err)
	}
	// Only duplicate-key conflicts earn a retry.
	if len(f.scans.scans) != 0 {
		t.Errorf("%d scans stored, want 0 after a failed create", len(f.scans.scans))
	}
}

func TestRegisterIntake_StartsPending(t *testing.T) {
	f := setupScanFixture()

	resp, err := f.svc.RegisterIntake(context.Background(), &dto.RegisterIntakeRequest{
		Name:  "Sam Student",
		Phone: "+15559876543",
		Flow:  "school",
	})
	if err != nil {
		t.Fatalf("RegisterIntake: %v", err)
	}

	scan := f.scans.scans[resp.ScanID]
	if scan.Status != model.StatusPending {
		t.Errorf("status = %q, want pending", scan.Status)
	}
}

// ── resolution ──

func TestResolveByToken_Success(t *testing.T) {
	f := setupScanFixture()
	resp := createScan(t, f, "school")

	token := resp.ScanURL[strings.Index(resp.ScanURL, "token=")+len("token="):]
	view, err := f.svc.ResolveByToken(context.Background(), token)
	if err != nil {
		t.Fatalf("ResolveByToken: %v", err)
	}

	if view.ScanID != resp.ScanID {
		t.Errorf("ScanID = %q, want %q", view.ScanID, resp.ScanID)
	}
	if view.PatientName != "Jane Doe" {
		t.Errorf("PatientName = %q, want Jane Doe", view.PatientName)
	}
	if view.Status != model.StatusLinkSent {
		t.Errorf("Status = %q, want link_sent", view.Status)
	}
}

func TestResolveByToken_Tampered(t *testing.T) {
	f := setupScanFixture()

	_, err := f.svc.ResolveByToken(context.Background(), "tampered.token.value")
	if !errors.Is(err, jwt.ErrTokenInvalid) {
		t.Errorf("error = %v, want ErrTokenInvalid", err)
	}
}

func TestResolveByToken_ScanDeleted(t *testing.T) {
	f := setupScanFixture()
	resp := createScan(t, f, "")
	token := resp.ScanURL[strings.Index(resp.ScanURL, "token=")+len("token="):]

	// Token stays valid after the row goes away; resolution re-validates.
	delete(f.scans.scans, resp.ScanID)

	_, err := f.svc.ResolveByToken(context.Background(), token)
	if !errors.Is(err, ErrScanNotFound) {
		t.Errorf("error = %v, want ErrScanNotFound", err)
	}
}

func TestResolvePatientLink_MintsShortLinkToken(t *testing.T) {
	f := setupScanFixture()
	resp := createScan(t, f, "")

	target, err := f.svc.ResolvePatientLink(context.Background(), strings.ToLower(resp.ShortCode))
	if err != nil {
		t.Fatalf("ResolvePatientLink: %v", err)
	}

	if !strings.HasPrefix(target.URL, "https://scan.test/patient-scan?token=") {
		t.Fatalf("redirect URL = %q", target.URL)
	}
	claims, err := f.jwtMgr.Parse(target.URL[strings.Index(target.URL, "token=")+len("token="):])
	if err != nil {
		t.Fatalf("parsing redirect token: %v", err)
	}
	if claims.Kind != jwt.KindShortLink {
		t.Errorf("token Kind = %q, want shortlink", claims.Kind)
	}
	if claims.ScanID != resp.ScanID {
		t.Errorf("token ScanID = %q, want %q", claims.ScanID, resp.ScanID)
	}
}

func TestResolvePatientLink_UnknownCode(t *testing.T) {
	f := setupScanFixture()

	_, err := f.svc.ResolvePatientLink(context.Background(), "NOPE1234")
	if !errors.Is(err, ErrLinkNotFound) {
		t.Errorf("error = %v, want ErrLinkNotFound", err)
	}
}

func TestResolveByShortCode_RedirectShape(t *testing.T) {
	f := setupScanFixture()
	resp := createScan(t, f, "gym")

	target, err := f.svc.ResolveByShortCode(context.Background(), resp.ShortCode)
	if err != nil {
		t.Fatalf("ResolveByShortCode: %v", err)
	}

	// Scan id rides as both token and userId.
	want := fmt.Sprintf("https://scan.test/gym/results?token=%s&userId=%s", resp.ScanID, resp.ScanID)
	if target.URL != want {
		t.Errorf("redirect URL = %q, want %q", target.URL, want)
	}
}

func TestResolveByShortCode_ClinicFlowUsesMultiusePage(t *testing.T) {
	f := setupScanFixture()
	resp := createScan(t, f, "clinic")

	target, err := f.svc.ResolveByShortCode(context.Background(), resp.ShortCode)
	if err != nil {
		t.Fatalf("ResolveByShortCode: %v", err)
	}
	if !strings.Contains(target.URL, "/multiuse/results?") {
		t.Errorf("redirect URL = %q, want the multiuse results page", target.URL)
	}
}

// ── lifecycle transitions ──

func TestRecordSubmission_Transitions(t *testing.T) {
	f := setupScanFixture()
	resp := createScan(t, f, "school")

	images := []dto.SubmissionImage{
		{Name: "front.jpg", Data: []byte("front")},
		{Name: "left.jpg", Data: []byte("left")},
	}
	if err := f.svc.RecordSubmission(context.Background(), resp.ScanID, 1, images); err != nil {
		t.Fatalf("RecordSubmission: %v", err)
	}

	scan := f.scans.scans[resp.ScanID]
	if scan.Status != model.StatusSubmitted {
		t.Errorf("status = %q, want submitted", scan.Status)
	}
	if scan.Version != 2 {
		t.Errorf("version = %d, want 2", scan.Version)
	}

	path := fmt.Sprintf("scan-images/school/%s/%s/view-1.jpg", scan.ScanID, scan.SubjectID)
	if _, ok := f.storage.uploads[path]; !ok {
		t.Errorf("image not uploaded at %q", path)
	}
	if len(f.storage.uploads) != 2 {
		t.Errorf("uploads = %d, want 2", len(f.storage.uploads))
	}
}

func TestRecordSubmission_NoImages(t *testing.T) {
	f := setupScanFixture()
	resp := createScan(t, f, "")

	err := f.svc.RecordSubmission(context.Background(), resp.ScanID, 1, nil)
	if !errors.Is(err, ErrNoImages) {
		t.Errorf("error = %v, want ErrNoImages", err)
	}
}

func TestRecordSubmission_StaleVersionConflicts(t *testing.T) {
	f := setupScanFixture()
	resp := createScan(t, f, "")

	images := []dto.SubmissionImage{{Name: "front.jpg", Data: []byte("front")}}
	if err := f.svc.RecordSubmission(context.Background(), resp.ScanID, 1, images); err != nil {
		t.Fatalf("first submission: %v", err)
	}

	// Replaying the first observation must not move the row again.
	err := f.svc.RecordSubmission(context.Background(), resp.ScanID, 1, images)
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
	if f.scans.scans[resp.ScanID].Status != model.StatusSubmitted {
		t.Errorf("status = %q, want submitted", f.scans.scans[resp.ScanID].Status)
	}
}

func TestRecordSubmission_UploadFailureKeepsStatus(t *testing.T) {
	f := setupScanFixture()
	resp := createScan(t, f, "")
	f.storage.failErr = errors.New("bucket unavailable")

	err := f.svc.RecordSubmission(context.Background(), resp.ScanID, 1,
		[]dto.SubmissionImage{{Name: "front.jpg", Data: []byte("front")}})
	if err == nil {
		t.Fatal("submission succeeded with failing storage")
	}
	if f.scans.scans[resp.ScanID].Status != model.StatusLinkSent {
		t.Errorf("status moved to %q on failed upload", f.scans.scans[resp.ScanID].Status)
	}
}

func TestDeliverResult_CompletesAndNotifies(t *testing.T) {
	f := setupScanFixture()
	resp := createScan(t, f, "school")
	submitScan(t, f, resp.ScanID)

	f.sms.sent = nil // drop the creation SMS

	view, err := f.svc.DeliverResult(context.Background(), resp.ScanID, model.RoleNurse, "", &dto.DeliverResultRequest{
		Version: 2,
		Result: model.ScanResult{
			School:    &model.SchoolResult{Category: "checkup_recommended"},
			Pathology: &model.PathologyResult{RiskLevel: "moderate"},
			Summary:   "two findings",
		},
	})
	if err != nil {
		t.Fatalf("DeliverResult: %v", err)
	}

	scan := f.scans.scans[resp.ScanID]
	if scan.Status != model.StatusCompleted {
		t.Errorf("status = %q, want completed", scan.Status)
	}
	if scan.CompletedAt == nil {
		t.Error("completed_at not set")
	}
	if scan.Result == nil || scan.Result.Pathology == nil {
		t.Error("result document not stored")
	}

	// Nurse role sees the full, unredacted document.
	if view.Pathology == nil || view.Summary != "two findings" {
		t.Errorf("deliverer view redacted: %+v", view)
	}

	if len(f.sms.sent) != 1 {
		t.Fatalf("sms sent = %d, want 1", len(f.sms.sent))
	}
	if !strings.Contains(f.sms.sent[0].body, "/r/"+resp.ShortCode) {
		t.Errorf("sms body %q does not carry the short link", f.sms.sent[0].body)
	}
}

func TestDeliverResult_StaleVersionConflicts(t *testing.T) {
	f := setupScanFixture()
	resp := createScan(t, f, "")
	submitScan(t, f, resp.ScanID)

	req := &dto.DeliverResultRequest{
		Version: 2,
		Result:  model.ScanResult{Summary: "first"},
	}
	if _, err := f.svc.DeliverResult(context.Background(), resp.ScanID, model.RoleClinic, "", req); err != nil {
		t.Fatalf("first delivery: %v", err)
	}

	_, err := f.svc.DeliverResult(context.Background(), resp.ScanID, model.RoleClinic, "", req)
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestGetResult_NotReady(t *testing.T) {
	f := setupScanFixture()
	resp := createScan(t, f, "")

	_, _, _, err := f.svc.GetResult(context.Background(), resp.ScanID, model.RoleSubject, "")
	if !errors.Is(err, ErrResultNotReady) {
		t.Errorf("error = %v, want ErrResultNotReady", err)
	}
}

func TestGetResult_FiltersByStoredFlow(t *testing.T) {
	f := setupScanFixture()
	resp := createScan(t, f, "school")
	submitScan(t, f, resp.ScanID)

	_, err := f.svc.DeliverResult(context.Background(), resp.ScanID, model.RoleNurse, "", &dto.DeliverResultRequest{
		Version: 2,
		Result: model.ScanResult{
			School:    &model.SchoolResult{Category: "healthy"},
			Pathology: &model.PathologyResult{RiskLevel: "low"},
		},
	})
	if err != nil {
		t.Fatalf("DeliverResult: %v", err)
	}

	view, flow, hasFullAccess, err := f.svc.GetResult(context.Background(), resp.ScanID, model.RoleSubject, "")
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if flow != model.FlowSchool {
		t.Errorf("flow = %q, want school", flow)
	}
	if hasFullAccess {
		t.Error("subject role must not have full access")
	}
	if view.School == nil || view.School.Category != "healthy" {
		t.Errorf("school section missing: %+v", view)
	}
	if view.Pathology != nil {
		t.Error("pathology section leaked to a school-flow subject")
	}
}

func TestGetResult_PartnerRoleSeesEverything(t *testing.T) {
	f := setupScanFixture()
	resp := createScan(t, f, "school")
	submitScan(t, f, resp.ScanID)

	_, err := f.svc.DeliverResult(context.Background(), resp.ScanID, model.RoleNurse, "", &dto.DeliverResultRequest{
		Version: 2,
		Result: model.ScanResult{
			School:    &model.SchoolResult{Category: "urgent"},
			Pathology: &model.PathologyResult{RiskLevel: "high"},
		},
	})
	if err != nil {
		t.Fatalf("DeliverResult: %v", err)
	}

	view, _, hasFullAccess, err := f.svc.GetResult(context.Background(), resp.ScanID, model.RoleParent, "")
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if !hasFullAccess {
		t.Error("parent role must have full access")
	}
	if view.Pathology == nil {
		t.Error("full-access view missing pathology section")
	}
}

// submitScan moves a freshly created scan to submitted (version 2).
func submitScan(t *testing.T, f *scanFixture, scanID string) {
	t.Helper()
	err := f.svc.RecordSubmission(context.Background(), scanID, 1,
		[]dto.SubmissionImage{{Name: "front.jpg", Data: []byte("front")}})
	if err != nil {
		t.Fatalf("submitting scan: %v", err)
	}
}

// ── consent ──

func TestRevokeConsent_Cascades(t *testing.T) {
	f := setupScanFixture()
	resp := createScan(t, f, "school")
	subjectID := f.scans.scans[resp.ScanID].SubjectID

	if err := f.svc.RevokeConsent(context.Background(), subjectID, "parent:account-1"); err != nil {
		t.Fatalf("RevokeConsent: %v", err)
	}

	if _, ok := f.scans.scans[resp.ScanID]; ok {
		t.Error("scan row survived revocation")
	}
	if _, ok := f.shortLinks.aliases[resp.ShortCode]; ok {
		t.Error("short-link alias survived revocation")
	}
	if f.subjects.subjects[subjectID].DataConsent {
		t.Error("data_consent still set")
	}

	if len(f.audit.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(f.audit.entries))
	}
	entry := f.audit.entries[0]
	if entry.Action != model.AuditConsentRevoked {
		t.Errorf("audit action = %q, want %q", entry.Action, model.AuditConsentRevoked)
	}
	if entry.Actor != "parent:account-1" {
		t.Errorf("audit actor = %q", entry.Actor)
	}
}

func TestAuditTrail_SurvivesRevocation(t *testing.T) {
	f := setupScanFixture()
	resp := createScan(t, f, "school")
	subjectID := f.scans.scans[resp.ScanID].SubjectID

	if err := f.svc.RevokeConsent(context.Background(), subjectID, "parent:account-1"); err != nil {
		t.Fatalf("RevokeConsent: %v", err)
	}

	entries, err := f.svc.AuditTrail(context.Background(), subjectID)
	if err != nil {
		t.Fatalf("AuditTrail: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Action != model.AuditConsentRevoked {
		t.Errorf("action = %q, want %q", entries[0].Action, model.AuditConsentRevoked)
	}

	other, err := f.svc.AuditTrail(context.Background(), "some-other-subject")
	if err != nil {
		t.Fatalf("AuditTrail: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("entries for unrelated subject = %d, want 0", len(other))
	}
}

func TestRevokeConsent_UnknownSubject(t *testing.T) {
	f := setupScanFixture()

	err := f.svc.RevokeConsent(context.Background(), "no-such-subject", "parent:account-1")
	if !errors.Is(err, ErrSubjectNotFound) {
		t.Errorf("error = %v, want ErrSubjectNotFound", err)
	}
}

func TestRevokeConsent_FailureLeavesDataIntact(t *testing.T) {
	f := setupScanFixture()
	resp := createScan(t, f, "")
	subjectID := f.scans.scans[resp.ScanID].SubjectID

	f.consent.failErr = errors.New("transaction aborted")

	if err := f.svc.RevokeConsent(context.Background(), subjectID, "clinic:account-2"); err == nil {
		t.Fatal("revocation succeeded despite injected failure")
	}

	if _, ok := f.scans.scans[resp.ScanID]; !ok {
		t.Error("scan removed despite rolled-back cascade")
	}
	if !f.subjects.subjects[subjectID].DataConsent {
		t.Error("data_consent cleared despite rolled-back cascade")
	}
	if len(f.audit.entries) != 0 {
		t.Error("audit entry written despite rolled-back cascade")
	}
}
