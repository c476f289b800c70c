package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"scanlink/backend/config"
	"scanlink/backend/internal/dto"
	"scanlink/backend/internal/integration"
	"scanlink/backend/internal/model"
	"scanlink/backend/internal/repository"
	"scanlink/backend/pkg/jwt"
	"scanlink/backend/pkg/redis"
	"scanlink/backend/pkg/shortcode"
)

var (
	ErrScanNotFound    = errors.New("scan not found")
	ErrSubjectNotFound = errors.New("subject not found")
	ErrLinkNotFound    = errors.New("short link not found")
	ErrIssuerNotFound  = errors.New("issuer not found")
	ErrInvalidPhone    = errors.New("phone number is invalid")
	ErrNoImages        = errors.New("submission carries no images")
	ErrResultNotReady  = errors.New("scan has no result yet")
)

// ScanService orchestrates the scan lifecycle:
// link_sent → submitted → completed, gated by tokens and short codes.
type ScanService interface {
	CreateForSubject(ctx context.Context, req *dto.CreateScanRequest) (*dto.CreateScanResponse, error)
	RegisterIntake(ctx context.Context, req *dto.RegisterIntakeRequest) (*dto.CreateScanResponse, error)
	ResolveByToken(ctx context.Context, token string) (*dto.ScanView, error)
	ResolvePatientLink(ctx context.Context, code string) (*dto.RedirectTarget, error)
	ResolveByShortCode(ctx context.Context, code string) (*dto.RedirectTarget, error)
	RecordSubmission(ctx context.Context, scanID string, version int, images []dto.SubmissionImage) error
	DeliverResult(ctx context.Context, scanID, role, flowParam string, req *dto.DeliverResultRequest) (*dto.ResultView, error)
	GetResult(ctx context.Context, scanID, role, flowParam string) (*dto.ResultView, model.FlowType, bool, error)
	RevokeConsent(ctx context.Context, subjectID, actor string) error
	AuditTrail(ctx context.Context, subjectID string) ([]model.AuditLog, error)
}

type scanService struct {
	cfg     *config.Config
	repo    *repository.Repository
	jwtMgr  *jwt.Manager
	cache   *redis.Client // nil when Redis is unavailable
	storage integration.ObjectStorage
	sms     integration.SMSSender // nil when SMS is disabled
	logger  *zap.Logger
}

// NewScanService creates the ScanService.
func NewScanService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	cache *redis.Client,
	storage integration.ObjectStorage,
	sms integration.SMSSender,
	logger *zap.Logger,
) ScanService {
	return &scanService{
		cfg:     cfg,
		repo:    repo,
		jwtMgr:  jwtMgr,
		cache:   cache,
		storage: storage,
		sms:     sms,
		logger:  logger,
	}
}

// ── creation ──

func (s *scanService) CreateForSubject(ctx context.Context, req *dto.CreateScanRequest) (*dto.CreateScanResponse, error) {
	return s.create(ctx, req, model.StatusLinkSent)
}

// RegisterIntake is the self-registration QR path: the scan row starts in
// pending until the subject confirms through their link.
func (s *scanService) RegisterIntake(ctx context.Context, req *dto.RegisterIntakeRequest) (*dto.CreateScanResponse, error) {
	return s.create(ctx, &dto.CreateScanRequest{
		Name:  req.Name,
		Phone: req.Phone,
		Flow:  req.Flow,
	}, model.StatusPending)
}

func (s *scanService) create(ctx context.Context, req *dto.CreateScanRequest, initialStatus string) (*dto.CreateScanResponse, error) {
	if !integration.ValidPhone(req.Phone) {
		return nil, ErrInvalidPhone
	}

	issuerID, err := s.resolveIssuer(ctx, req.IssuerID)
	if err != nil {
		return nil, err
	}

	flow := model.FlowClinic
	if model.IsValidFlowType(req.Flow) {
		flow = model.FlowType(req.Flow)
	}

	subject := &model.Subject{
		Name:  req.Name,
		Phone: req.Phone,
	}
	if req.Email != "" {
		email := req.Email
		subject.Email = &email
	}
	if err := s.repo.Subject.Create(ctx, subject); err != nil {
		s.logger.Error("creating subject", zap.Error(err))
		return nil, err
	}

	code, err := shortcode.GenerateUnique(ctx, s.shortCodeTaken)
	if err != nil {
		return nil, err
	}

	scan := &model.Scan{
		SubjectID: subject.SubjectID,
		IssuerID:  issuerID,
		ShortCode: &code,
		Status:    initialStatus,
		FlowType:  flow,
	}
	if err := s.repo.Scan.Create(ctx, scan); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			s.logger.Error("creating scan", zap.Error(err))
			return nil, err
		}
		// Unique-index conflict on the short code: retry once with a
		// fresh candidate before giving up.
		fresh, genErr := shortcode.Generate()
		if genErr != nil {
			return nil, err
		}
		scan.ShortCode = &fresh
		if err = s.repo.Scan.Create(ctx, scan); err != nil {
			s.logger.Error("creating scan", zap.Error(err))
			return nil, err
		}
		code = fresh
	}

	if err := s.repo.ShortLink.Create(ctx, &model.ShortLinkAlias{
		Code:   code,
		ScanID: scan.ScanID,
	}); err != nil {
		s.logger.Error("creating short-link alias", zap.Error(err))
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.CacheShortCode(ctx, code, scan.ScanID); err != nil {
			s.logger.Warn("caching short code", zap.Error(err))
		}
	}

	var issuerIDStr string
	if issuerID != nil {
		issuerIDStr = *issuerID
	}
	token, err := s.jwtMgr.IssueEntityToken(scan.ScanID, subject.SubjectID, issuerIDStr, model.RoleSubject)
	if err != nil {
		s.logger.Error("issuing entity token", zap.Error(err))
		return nil, err
	}

	scanURL := fmt.Sprintf("%s/patient-scan?token=%s", s.cfg.Server.BaseURL, token)

	s.notify(ctx, subject.Phone, fmt.Sprintf("Your smile scan is ready. Start here: %s", scanURL))

	return &dto.CreateScanResponse{
		ScanID:    scan.ScanID,
		ScanURL:   scanURL,
		ShortCode: code,
	}, nil
}

// resolveIssuer applies the first-available-or-default policy when no
// issuer is supplied. A system with no issuer rows creates ownerless
// scans rather than failing.
func (s *scanService) resolveIssuer(ctx context.Context, explicit string) (*string, error) {
	if explicit != "" {
		issuer, err := s.repo.Issuer.GetByID(ctx, explicit)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrIssuerNotFound
			}
			return nil, err
		}
		return &issuer.IssuerID, nil
	}

	issuer, err := s.repo.Issuer.FirstAvailableOrDefault(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &issuer.IssuerID, nil
}

// shortCodeTaken checks both the scan column and the alias table.
func (s *scanService) shortCodeTaken(ctx context.Context, code string) (bool, error) {
	taken, err := s.repo.Scan.ShortCodeExists(ctx, code)
	if err != nil || taken {
		return taken, err
	}
	return s.repo.ShortLink.Exists(ctx, code)
}

// ── resolution ──

func (s *scanService) ResolveByToken(ctx context.Context, token string) (*dto.ScanView, error) {
	claims, err := s.jwtMgr.Parse(token)
	if err != nil {
		return nil, err
	}

	// The token may outlive the rows it references; re-validate.
	scan, err := s.repo.Scan.GetByID(ctx, claims.ScanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScanNotFound
		}
		return nil, err
	}
	if scan.Subject == nil || scan.SubjectID != claims.SubjectID {
		return nil, ErrSubjectNotFound
	}

	return &dto.ScanView{
		ScanID:      scan.ScanID,
		Status:      scan.Status,
		Flow:        scan.FlowType,
		PatientName: scan.Subject.Name,
		Phone:       scan.Subject.Phone,
		CreatedAt:   scan.CreatedAt,
		CompletedAt: scan.CompletedAt,
		Result:      scan.Result, // self view is unredacted
	}, nil
}

// ResolvePatientLink serves /ps/{code}: alias lookup, then a fresh
// short-link token embedded in the patient-scan URL.
func (s *scanService) ResolvePatientLink(ctx context.Context, code string) (*dto.RedirectTarget, error) {
	alias, err := s.repo.ShortLink.GetByCode(ctx, normalizeCode(code))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}

	token, err := s.jwtMgr.IssueShortLinkToken(alias.ScanID, model.RoleSubject)
	if err != nil {
		return nil, err
	}

	return &dto.RedirectTarget{
		URL: fmt.Sprintf("%s/patient-scan?token=%s", s.cfg.Server.BaseURL, token),
	}, nil
}

// ResolveByShortCode serves /r/{code}: the historical raw lookup against
// the scan row, redirecting to the flow's result page. The scan id rides
// as both token and userId — two names for one value, kept for
// compatibility with deployed QR posters.
func (s *scanService) ResolveByShortCode(ctx context.Context, code string) (*dto.RedirectTarget, error) {
	code = normalizeCode(code)

	var scanID string
	if s.cache != nil {
		if cached, err := s.cache.LookupShortCode(ctx, code); err == nil && cached != "" {
			scanID = cached
		}
	}

	if scanID == "" {
		id, err := s.repo.Scan.GetIDByShortCode(ctx, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrLinkNotFound
			}
			return nil, err
		}
		scanID = id
		if s.cache != nil {
			if err := s.cache.CacheShortCode(ctx, code, scanID); err != nil {
				s.logger.Warn("caching short code", zap.Error(err))
			}
		}
	}

	scan, err := s.repo.Scan.GetByID(ctx, scanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}

	return &dto.RedirectTarget{
		URL: fmt.Sprintf("%s/%s/results?token=%s&userId=%s",
			s.cfg.Server.BaseURL, resultPage(scan.FlowType), scanID, scanID),
	}, nil
}

func resultPage(flow model.FlowType) string {
	switch flow {
	case model.FlowGym, model.FlowSchool, model.FlowCharity:
		return string(flow)
	}
	return "multiuse"
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ── lifecycle transitions ──

func (s *scanService) RecordSubmission(ctx context.Context, scanID string, version int, images []dto.SubmissionImage) error {
	if len(images) == 0 {
		return ErrNoImages
	}

	scan, err := s.repo.Scan.GetByID(ctx, scanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrScanNotFound
		}
		return err
	}

	// All images must land before the status moves.
	if s.storage == nil {
		return errors.New("object storage is not configured")
	}
	for i, img := range images {
		path := fmt.Sprintf("%s/%s/%s/view-%d.jpg", scan.FlowType, scan.ScanID, scan.SubjectID, i+1)
		if err := s.storage.Upload(ctx, s.cfg.Storage.Bucket, path, img.Data, "image/jpeg", true); err != nil {
			s.logger.Error("uploading submission image",
				zap.String("scan_id", scanID),
				zap.String("path", path),
				zap.Error(err),
			)
			return err
		}
	}

	from := model.StatusLinkSent
	return s.repo.Scan.TransitionStatus(ctx, scanID, from, model.NextStatus(from), version)
}

func (s *scanService) DeliverResult(ctx context.Context, scanID, role, flowParam string, req *dto.DeliverResultRequest) (*dto.ResultView, error) {
	scan, err := s.repo.Scan.GetByID(ctx, scanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScanNotFound
		}
		return nil, err
	}

	flow := s.effectiveFlow(flowParam, scan.FlowType)

	if err := s.repo.Scan.CompleteWithResult(ctx, scanID, req.Version, &req.Result); err != nil {
		return nil, err
	}

	view := FilterResult(&req.Result, flow, model.HasPartnerAccess(role))

	if scan.Subject != nil && scan.ShortCode != nil {
		s.notify(ctx, scan.Subject.Phone,
			fmt.Sprintf("Your scan results are ready: %s/r/%s", s.cfg.Server.BaseURL, *scan.ShortCode))
	}

	return view, nil
}

func (s *scanService) GetResult(ctx context.Context, scanID, role, flowParam string) (*dto.ResultView, model.FlowType, bool, error) {
	scan, err := s.repo.Scan.GetByID(ctx, scanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", false, ErrScanNotFound
		}
		return nil, "", false, err
	}
	if scan.Result == nil {
		return nil, "", false, ErrResultNotReady
	}

	flow := s.effectiveFlow(flowParam, scan.FlowType)
	hasFullAccess := model.HasPartnerAccess(role)

	return FilterResult(scan.Result, flow, hasFullAccess), flow, hasFullAccess, nil
}

// effectiveFlow wraps the pure resolution with a warning when the
// fail-open partner default fires.
func (s *scanService) effectiveFlow(explicit string, stored model.FlowType) model.FlowType {
	flow := EffectiveFlow(explicit, stored)
	if flow == model.FlowPartner && !model.IsValidFlowType(explicit) && stored != model.FlowPartner {
		s.logger.Warn("unknown flow resolved to partner (full access)",
			zap.String("explicit", explicit),
			zap.String("stored", string(stored)),
		)
	}
	return flow
}

// ── consent ──

func (s *scanService) RevokeConsent(ctx context.Context, subjectID, actor string) error {
	codes, err := s.repo.Consent.RevokeCascade(ctx, subjectID, actor)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubjectNotFound
		}
		s.logger.Error("consent revocation failed", zap.String("subject_id", subjectID), zap.Error(err))
		return err
	}

	if s.cache != nil {
		for _, code := range codes {
			if err := s.cache.InvalidateShortCode(ctx, code); err != nil {
				s.logger.Warn("invalidating cached short code", zap.String("code", code), zap.Error(err))
			}
		}
	}

	s.logger.Info("consent revoked",
		zap.String("subject_id", subjectID),
		zap.String("actor", actor),
		zap.Int("short_links_removed", len(codes)),
	)
	return nil
}

// AuditTrail lists a subject's audit entries, newest first. Revocation
// deletes the scan rows but never the trail, so the history survives the
// subject's data.
func (s *scanService) AuditTrail(ctx context.Context, subjectID string) ([]model.AuditLog, error) {
	return s.repo.Audit.ListBySubject(ctx, subjectID)
}

// ── notification ──

// notify sends an SMS on the request path with a soft-fail contract:
// failures are logged and never fail the surrounding request.
func (s *scanService) notify(ctx context.Context, phone, body string) {
	if s.sms == nil {
		return
	}
	res, err := s.sms.Send(ctx, phone, body)
	if err != nil {
		s.logger.Warn("sms dispatch failed", zap.Error(err))
		return
	}
	s.logger.Info("sms dispatched", zap.String("provider_message_id", res.ProviderMessageID))
}
