package gst

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/domain/accounting"
	"github.com/ledgersg/backend/internal/domain/gst"
	"github.com/ledgersg/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service provides tax code administration and the period aggregation
// and filing operations
type Service struct {
	taxCodeRepo gst.TaxCodeRepository
	periodRepo  gst.ReturnPeriodRepository
	supplyLines gst.SupplyLineReader
	logger      *zap.Logger
}

// NewService creates a new gst Service
func NewService(
	taxCodeRepo gst.TaxCodeRepository,
	periodRepo gst.ReturnPeriodRepository,
	supplyLines gst.SupplyLineReader,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		taxCodeRepo: taxCodeRepo,
		periodRepo:  periodRepo,
		supplyLines: supplyLines,
		logger:      logger,
	}
}

// CreateTaxCodeRequest is the input for creating a tax code version
type CreateTaxCodeRequest struct {
	TenantID         uuid.UUID       `json:"tenant_id"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	Class            gst.TaxClass    `json:"class"`
	Rate             decimal.Decimal `json:"rate"`
	ExcludedFromBase bool            `json:"excluded_from_base"`
	BoxMapping       string          `json:"box_mapping,omitempty"`
	EffectiveFrom    time.Time       `json:"effective_from"`
}

// CreateTaxCode adds a new tax code version. When an open-ended prior
// version of the same code exists it is superseded the instant the new
// version takes effect.
func (s *Service) CreateTaxCode(ctx context.Context, req CreateTaxCodeRequest) (*gst.TaxCode, error) {
	code, err := gst.NewTaxCode(req.TenantID, req.Code, req.Name, req.Class, req.Rate, req.ExcludedFromBase, req.EffectiveFrom)
	if err != nil {
		return nil, err
	}
	if req.BoxMapping != "" {
		code = code.WithBoxMapping(req.BoxMapping)
	}

	versions, err := s.taxCodeRepo.FindVersions(ctx, req.TenantID, req.Code)
	if err != nil {
		return nil, err
	}
	for _, v := range versions {
		if v.EffectiveTo != nil || !v.IsActive {
			continue
		}
		if !v.EffectiveFrom.Before(req.EffectiveFrom) {
			return nil, shared.NewDomainError("VERSION_OVERLAP", "An open-ended version of "+req.Code+" already starts at or after the new effective date")
		}
		if err := v.Supersede(req.EffectiveFrom.Add(-time.Second)); err != nil {
			return nil, err
		}
		if err := s.taxCodeRepo.Save(ctx, v); err != nil {
			return nil, err
		}
	}

	if err := s.taxCodeRepo.Save(ctx, code); err != nil {
		return nil, err
	}
	return code, nil
}

// RateTableFor builds the effective-dated rate table for a tenant
func (s *Service) RateTableFor(ctx context.Context, tenantID uuid.UUID) (*gst.RateTable, error) {
	codes, err := s.taxCodeRepo.SnapshotForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return gst.NewRateTable(codes), nil
}

// CreatePeriod opens a new DRAFT return period over [start, end],
// rejecting overlap with any existing period
func (s *Service) CreatePeriod(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (*gst.ReturnPeriod, error) {
	overlapping, err := s.periodRepo.FindOverlapping(ctx, tenantID, start, end)
	if err != nil {
		return nil, err
	}
	for _, p := range overlapping {
		if p.AmendsPeriodID == nil && p.Status != gst.ReturnStatusFiled {
			return nil, shared.NewDomainError("PERIOD_OVERLAP", "An open period already covers part of this range")
		}
	}
	period, err := gst.NewReturnPeriod(tenantID, start, end)
	if err != nil {
		return nil, err
	}
	if err := s.periodRepo.Save(ctx, period); err != nil {
		return nil, err
	}
	return period, nil
}

// AggregatePeriod computes the return boxes over the posted data in
// [start, end]. It is a pure read: deterministic for unchanged data
// and safe to run concurrently with approvals, which either land in
// the snapshot or do not.
func (s *Service) AggregatePeriod(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (gst.BoxSet, error) {
	if end.Before(start) {
		return gst.BoxSet{}, shared.NewDomainError("INVALID_PERIOD", "Period end cannot precede period start")
	}
	lines, err := s.supplyLines.SupplyLinesInRange(ctx, tenantID, start, end)
	if err != nil {
		return gst.BoxSet{}, err
	}
	return gst.AggregateBoxes(lines), nil
}

// RegeneratePeriod recomputes and stores a DRAFT period's boxes from
// the current posted data
func (s *Service) RegeneratePeriod(ctx context.Context, tenantID, periodID uuid.UUID) (*gst.ReturnPeriod, error) {
	period, err := s.periodRepo.FindByIDForTenant(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}
	boxes, err := s.AggregatePeriod(ctx, tenantID, period.PeriodStart, period.PeriodEnd)
	if err != nil {
		return nil, err
	}
	if err := period.SetBoxes(boxes); err != nil {
		return nil, err
	}
	if err := s.periodRepo.SaveWithLock(ctx, period); err != nil {
		return nil, err
	}
	return period, nil
}

// FilePeriod freezes a period's stored boxes and marks it filed. The
// boxes are regenerated one final time first so the filed values match
// the posted data at the moment of filing.
func (s *Service) FilePeriod(ctx context.Context, tenantID, periodID uuid.UUID, actor, filingReference string) (*gst.ReturnPeriod, error) {
	period, err := s.periodRepo.FindByIDForTenant(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}

	before, err := accounting.SnapshotOf(period)
	if err != nil {
		return nil, err
	}

	boxes, err := s.AggregatePeriod(ctx, tenantID, period.PeriodStart, period.PeriodEnd)
	if err != nil {
		return nil, err
	}
	if err := period.SetBoxes(boxes); err != nil {
		return nil, err
	}
	if err := period.File(actor, filingReference); err != nil {
		return nil, err
	}

	after, err := accounting.SnapshotOf(period)
	if err != nil {
		return nil, err
	}
	audit, err := accounting.NewAuditRecord(tenantID, actor, accounting.AuditActionFile, "ReturnPeriod", period.ID, before, after)
	if err != nil {
		return nil, err
	}
	if err := s.periodRepo.SaveFiling(ctx, period, audit); err != nil {
		return nil, err
	}
	s.logger.Info("filed return period",
		zap.String("tenant_id", tenantID.String()),
		zap.String("period_id", period.ID.String()),
		zap.String("filing_reference", filingReference),
		zap.String("actor", actor))
	return period, nil
}

// AmendPeriod opens a linked DRAFT amendment over a filed period's
// range, seeded with freshly aggregated boxes
func (s *Service) AmendPeriod(ctx context.Context, tenantID, periodID uuid.UUID) (*gst.ReturnPeriod, error) {
	period, err := s.periodRepo.FindByIDForTenant(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}
	amendment, err := period.Amend()
	if err != nil {
		return nil, err
	}
	boxes, err := s.AggregatePeriod(ctx, tenantID, amendment.PeriodStart, amendment.PeriodEnd)
	if err != nil {
		return nil, err
	}
	if err := amendment.SetBoxes(boxes); err != nil {
		return nil, err
	}
	if err := s.periodRepo.Save(ctx, amendment); err != nil {
		return nil, err
	}
	return amendment, nil
}

// GetPeriod loads a return period by ID
func (s *Service) GetPeriod(ctx context.Context, tenantID, periodID uuid.UUID) (*gst.ReturnPeriod, error) {
	return s.periodRepo.FindByIDForTenant(ctx, tenantID, periodID)
}
