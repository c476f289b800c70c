package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"scanlink/backend/internal/integration"
	"scanlink/backend/internal/model"
	"scanlink/backend/internal/repository"
	apperrors "scanlink/backend/pkg/errors"
)

// ── Mock SubjectRepository ──

type mockSubjectRepo struct {
	subjects map[string]*model.Subject
	seq      int
}

func newMockSubjectRepo() *mockSubjectRepo {
	return &mockSubjectRepo{subjects: make(map[string]*model.Subject)}
}

func (m *mockSubjectRepo) Create(_ context.Context, subject *model.Subject) error {
	if subject.SubjectID == "" {
		m.seq++
		subject.SubjectID = fmt.Sprintf("subject-%d", m.seq)
	}
	m.subjects[subject.SubjectID] = subject
	return nil
}

func (m *mockSubjectRepo) GetByID(_ context.Context, id string) (*model.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubjectRepo) GetByPhone(_ context.Context, phone string) (*model.Subject, error) {
	for _, s := range m.subjects {
		if s.Phone == phone {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubjectRepo) Update(_ context.Context, subject *model.Subject) error {
	m.subjects[subject.SubjectID] = subject
	return nil
}

// ── Mock ScanRepository ──

type mockScanRepo struct {
	scans         map[string]*model.Scan
	participation map[string][]repository.ParticipationRow
	subjects      *mockSubjectRepo
	seq           int
	createErr     error // injected once, cleared after firing
}

func newMockScanRepo(subjects *mockSubjectRepo) *mockScanRepo {
	return &mockScanRepo{
		scans:         make(map[string]*model.Scan),
		participation: make(map[string][]repository.ParticipationRow),
		subjects:      subjects,
	}
}

func (m *mockScanRepo) Create(_ context.Context, scan *model.Scan) error {
	if m.createErr != nil {
		err := m.createErr
		m.createErr = nil
		return err
	}
	if scan.ScanID == "" {
		m.seq++
		scan.ScanID = fmt.Sprintf("scan-%d", m.seq)
	}
	if scan.Version == 0 {
		scan.Version = 1
	}
	if scan.CreatedAt.IsZero() {
		scan.CreatedAt = time.Now()
	}
	m.scans[scan.ScanID] = scan
	return nil
}

func (m *mockScanRepo) GetByID(_ context.Context, id string) (*model.Scan, error) {
	scan, ok := m.scans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if s, ok := m.subjects.subjects[scan.SubjectID]; ok {
		scan.Subject = s
	}
	return scan, nil
}

func (m *mockScanRepo) ListBySubject(_ context.Context, subjectID string) ([]model.Scan, error) {
	var result []model.Scan
	for _, s := range m.scans {
		if s.SubjectID == subjectID {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockScanRepo) GetIDByShortCode(_ context.Context, code string) (string, error) {
	for _, s := range m.scans {
		if s.ShortCode != nil && *s.ShortCode == code {
			return s.ScanID, nil
		}
	}
	return "", gorm.ErrRecordNotFound
}

func (m *mockScanRepo) ShortCodeExists(_ context.Context, code string) (bool, error) {
	_, err := m.GetIDByShortCode(nil, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (m *mockScanRepo) TransitionStatus(_ context.Context, scanID, fromStatus, toStatus string, version int) error {
	scan, ok := m.scans[scanID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if scan.Status != fromStatus || scan.Version != version {
		return apperrors.ErrConflict
	}
	scan.Status = toStatus
	scan.Version++
	return nil
}

func (m *mockScanRepo) CompleteWithResult(_ context.Context, scanID string, version int, result *model.ScanResult) error {
	scan, ok := m.scans[scanID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if scan.Status != model.StatusSubmitted || scan.Version != version {
		return apperrors.ErrConflict
	}
	now := time.Now()
	scan.Status = model.StatusCompleted
	scan.Result = result
	scan.CompletedAt = &now
	scan.Version++
	return nil
}

func (m *mockScanRepo) ParticipationByClass(_ context.Context, classID string) ([]repository.ParticipationRow, error) {
	return m.participation[classID], nil
}

// ── Mock ShortLinkRepository ──

type mockShortLinkRepo struct {
	aliases map[string]*model.ShortLinkAlias
}

func newMockShortLinkRepo() *mockShortLinkRepo {
	return &mockShortLinkRepo{aliases: make(map[string]*model.ShortLinkAlias)}
}

func (m *mockShortLinkRepo) Create(_ context.Context, alias *model.ShortLinkAlias) error {
	m.aliases[alias.Code] = alias
	return nil
}

func (m *mockShortLinkRepo) GetByCode(_ context.Context, code string) (*model.ShortLinkAlias, error) {
	if a, ok := m.aliases[code]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShortLinkRepo) Exists(_ context.Context, code string) (bool, error) {
	_, ok := m.aliases[code]
	return ok, nil
}

// ── Mock IssuerRepository ──

type mockIssuerRepo struct {
	issuers []*model.Issuer
}

func newMockIssuerRepo() *mockIssuerRepo {
	return &mockIssuerRepo{}
}

func (m *mockIssuerRepo) Create(_ context.Context, issuer *model.Issuer) error {
	if issuer.IssuerID == "" {
		issuer.IssuerID = fmt.Sprintf("issuer-%d", len(m.issuers)+1)
	}
	m.issuers = append(m.issuers, issuer)
	return nil
}

func (m *mockIssuerRepo) GetByID(_ context.Context, id string) (*model.Issuer, error) {
	for _, i := range m.issuers {
		if i.IssuerID == id {
			return i, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockIssuerRepo) FirstAvailableOrDefault(_ context.Context) (*model.Issuer, error) {
	for _, i := range m.issuers {
		if i.IsDefault {
			return i, nil
		}
	}
	if len(m.issuers) > 0 {
		return m.issuers[0], nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock TeacherRepository ──

type mockTeacherRepo struct {
	teachers map[string]*model.Teacher // key: teacher_id and "email:"+email
	classes  map[string]*model.Class
	seq      int
}

func newMockTeacherRepo() *mockTeacherRepo {
	return &mockTeacherRepo{
		teachers: make(map[string]*model.Teacher),
		classes:  make(map[string]*model.Class),
	}
}

func (m *mockTeacherRepo) Create(_ context.Context, teacher *model.Teacher) error {
	if teacher.TeacherID == "" {
		m.seq++
		teacher.TeacherID = fmt.Sprintf("teacher-%d", m.seq)
	}
	m.teachers[teacher.TeacherID] = teacher
	m.teachers["email:"+teacher.Email] = teacher
	return nil
}

func (m *mockTeacherRepo) GetByID(_ context.Context, id string) (*model.Teacher, error) {
	if t, ok := m.teachers[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeacherRepo) GetByEmail(_ context.Context, email string) (*model.Teacher, error) {
	if t, ok := m.teachers["email:"+email]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeacherRepo) GetClassByID(_ context.Context, classID string) (*model.Class, error) {
	if c, ok := m.classes[classID]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeacherRepo) CreateClass(_ context.Context, class *model.Class) error {
	if class.ClassID == "" {
		class.ClassID = "class-" + class.Name
	}
	m.classes[class.ClassID] = class
	return nil
}

func (m *mockTeacherRepo) ListClassesByTeacher(_ context.Context, teacherID string) ([]model.Class, error) {
	var result []model.Class
	for _, c := range m.classes {
		if c.TeacherID == teacherID {
			result = append(result, *c)
		}
	}
	return result, nil
}

// ── Mock LeadRepository ──

type mockLeadRepo struct {
	leads     []*model.Lead
	createErr error
}

func newMockLeadRepo() *mockLeadRepo {
	return &mockLeadRepo{}
}

func (m *mockLeadRepo) Create(_ context.Context, lead *model.Lead) error {
	if m.createErr != nil {
		return m.createErr
	}
	if lead.LeadID == "" {
		lead.LeadID = fmt.Sprintf("lead-%d", len(m.leads)+1)
	}
	m.leads = append(m.leads, lead)
	return nil
}

func (m *mockLeadRepo) CountBySource(_ context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, l := range m.leads {
		counts[l.Source]++
	}
	return counts, nil
}

// ── Mock AuditRepository ──

type mockAuditRepo struct {
	entries []model.AuditLog
}

func newMockAuditRepo() *mockAuditRepo {
	return &mockAuditRepo{}
}

func (m *mockAuditRepo) WithTx(_ *gorm.DB) repository.AuditRepository {
	return m
}

func (m *mockAuditRepo) Append(_ context.Context, entry *model.AuditLog) error {
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockAuditRepo) ListBySubject(_ context.Context, subjectID string) ([]model.AuditLog, error) {
	var result []model.AuditLog
	for _, e := range m.entries {
		if e.SubjectID != nil && *e.SubjectID == subjectID {
			result = append(result, e)
		}
	}
	return result, nil
}

// ── Mock ConsentRepository ──

// mockConsentRepo applies the cascade against the sibling mocks. failErr
// simulates a rolled-back transaction: nothing is applied.
type mockConsentRepo struct {
	subjects   *mockSubjectRepo
	scans      *mockScanRepo
	shortLinks *mockShortLinkRepo
	audit      *mockAuditRepo
	failErr    error
}

func newMockConsentRepo(subjects *mockSubjectRepo, scans *mockScanRepo, shortLinks *mockShortLinkRepo, audit *mockAuditRepo) *mockConsentRepo {
	return &mockConsentRepo{subjects: subjects, scans: scans, shortLinks: shortLinks, audit: audit}
}

func (m *mockConsentRepo) RevokeCascade(_ context.Context, subjectID, actor string) ([]string, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	subject, ok := m.subjects.subjects[subjectID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	var codes []string
	for id, scan := range m.scans.scans {
		if scan.SubjectID != subjectID {
			continue
		}
		delete(m.scans.scans, id)
		for code, alias := range m.shortLinks.aliases {
			if alias.ScanID == id {
				codes = append(codes, code)
				delete(m.shortLinks.aliases, code)
			}
		}
	}

	subject.DataConsent = false
	m.audit.entries = append(m.audit.entries, model.AuditLog{
		Action:    model.AuditConsentRevoked,
		SubjectID: &subjectID,
		Actor:     actor,
	})
	return codes, nil
}

// ── Mock integrations ──

type mockStorage struct {
	uploads map[string][]byte
	failErr error
}

func newMockStorage() *mockStorage {
	return &mockStorage{uploads: make(map[string][]byte)}
}

func (m *mockStorage) Upload(_ context.Context, bucket, path string, data []byte, _ string, _ bool) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.uploads[bucket+"/"+path] = data
	return nil
}

func (m *mockStorage) Download(_ context.Context, bucket, path string) ([]byte, error) {
	if data, ok := m.uploads[bucket+"/"+path]; ok {
		return data, nil
	}
	return nil, errors.New("object not found")
}

func (m *mockStorage) GetPublicURL(bucket, path string) string {
	return "https://storage.test/" + bucket + "/" + path
}

type sentSMS struct {
	phone string
	body  string
}

type mockSMS struct {
	sent    []sentSMS
	failErr error
}

func newMockSMS() *mockSMS {
	return &mockSMS{}
}

func (m *mockSMS) Send(_ context.Context, toPhone, body string) (*integration.SendResult, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	m.sent = append(m.sent, sentSMS{phone: toPhone, body: body})
	return &integration.SendResult{Success: true, ProviderMessageID: fmt.Sprintf("SM%d", len(m.sent))}, nil
}

type mockCheckout struct {
	lastAmount     int64
	lastSuccessURL string
	lastCancelURL  string
	failErr        error
}

func (m *mockCheckout) CreateSession(_ context.Context, amountCents int64, successURL, cancelURL string) (string, error) {
	if m.failErr != nil {
		return "", m.failErr
	}
	m.lastAmount = amountCents
	m.lastSuccessURL = successURL
	m.lastCancelURL = cancelURL
	return "https://checkout.test/session/cs_1", nil
}

type mockMarketing struct {
	subscribed []string
	failErr    error
}

func (m *mockMarketing) Subscribe(_ context.Context, email string, _ []string) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.subscribed = append(m.subscribed, email)
	return nil
}
