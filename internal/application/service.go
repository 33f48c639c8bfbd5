package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"holdings-pricer/internal/domain"

	"go.uber.org/zap"
)

const historySource = "twelvedata"

type PortfolioService struct {
	holdings  HoldingRepo
	refresher *Refresher
	history   QuoteHistoryRepo
	uow       UnitOfWork
	clock     Clock
	idgen     IDGen
	log       *zap.Logger
}

type Option func(*PortfolioService)

func WithClock(c Clock) Option              { return func(s *PortfolioService) { s.clock = c } }
func WithIDGen(g IDGen) Option              { return func(s *PortfolioService) { s.idgen = g } }
func WithHistory(h QuoteHistoryRepo) Option { return func(s *PortfolioService) { s.history = h } }
func WithUnitOfWork(u UnitOfWork) Option    { return func(s *PortfolioService) { s.uow = u } }
func WithLogger(l *zap.Logger) Option       { return func(s *PortfolioService) { s.log = l } }

func NewPortfolioService(holdings HoldingRepo, refresher *Refresher, opts ...Option) *PortfolioService {
	s := &PortfolioService{
		holdings:  holdings,
		refresher: refresher,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	if s.idgen == nil {
		s.idgen = defaultIDGen{}
	}
	if s.uow == nil {
		s.uow = NoopUoW{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// HoldingInput carries the user-editable fields of a holding.
type HoldingInput struct {
	Symbol        string
	Quantity      float64
	PurchasePrice float64
	PurchaseDate  *time.Time
}

func (in HoldingInput) validate() error {
	if !domain.ValidateSymbol(in.Symbol) {
		return fmt.Errorf("%w: invalid symbol %q", ErrBadRequest, in.Symbol)
	}
	if in.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrBadRequest)
	}
	if in.PurchasePrice <= 0 {
		return fmt.Errorf("%w: purchase price must be positive", ErrBadRequest)
	}
	return nil
}

func (s *PortfolioService) ListHoldings(ctx context.Context) ([]domain.Holding, error) {
	hs, err := s.holdings.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(hs, func(i, j int) bool { return hs[i].Ticker < hs[j].Ticker })
	return hs, nil
}

func (s *PortfolioService) GetHolding(ctx context.Context, id string) (domain.Holding, error) {
	return s.holdings.Get(ctx, id)
}

func (s *PortfolioService) AddHolding(ctx context.Context, in HoldingInput) (domain.Holding, error) {
	if err := in.validate(); err != nil {
		return domain.Holding{}, err
	}
	h := domain.NewHolding(s.idgen.NewID(), in.Symbol, in.Quantity, in.PurchasePrice, in.PurchaseDate, s.clock.Now())
	if err := s.holdings.Create(ctx, h); err != nil {
		return domain.Holding{}, err
	}
	return h, nil
}

// UpdateHolding replaces the editable fields. A symbol change drops the
// current price since it belonged to the old security.
func (s *PortfolioService) UpdateHolding(ctx context.Context, id string, in HoldingInput) (domain.Holding, error) {
	if err := in.validate(); err != nil {
		return domain.Holding{}, err
	}
	h, err := s.holdings.Get(ctx, id)
	if err != nil {
		return domain.Holding{}, err
	}
	sym := domain.Symbol(domain.NormalizeSymbol(in.Symbol))
	if sym != h.Ticker {
		h.CurrentPrice, h.LastUpdated = nil, nil
	}
	h.Ticker = sym
	h.Quantity = domain.RoundQuantity(in.Quantity)
	h.PurchasePrice = in.PurchasePrice
	h.PurchaseDate = in.PurchaseDate
	if err := s.holdings.Update(ctx, h); err != nil {
		return domain.Holding{}, err
	}
	return h, nil
}

func (s *PortfolioService) DeleteHolding(ctx context.Context, id string) error {
	return s.holdings.Delete(ctx, id)
}

func (s *PortfolioService) Summary(ctx context.Context) (domain.Summary, error) {
	hs, err := s.holdings.List(ctx)
	if err != nil {
		return domain.Summary{}, err
	}
	return domain.Summarize(hs), nil
}

// RefreshAll refreshes every stored holding and persists the new prices.
// force clears the price cache first, once the batch has started. Storage errors after the batch are
// logged, the prices already applied in memory are not rolled back.
func (s *PortfolioService) RefreshAll(ctx context.Context, force bool) (domain.RefreshReport, error) {
	hs, err := s.ListHoldings(ctx)
	if err != nil {
		return domain.RefreshReport{}, fmt.Errorf("list holdings: %w", err)
	}

	items := make([]domain.Priceable, len(hs))
	before := make([]*time.Time, len(hs))
	for i := range hs {
		items[i] = &hs[i]
		before[i] = hs[i].LastUpdated
	}

	refresh := s.refresher.Refresh
	if force {
		refresh = s.refresher.ForceRefresh
	}
	report, err := refresh(ctx, items)
	if errors.Is(err, ErrRefreshInProgress) || report.BatchID == "" {
		return report, err
	}

	// Persist whatever was applied, including after a cancellation.
	persistCtx := context.WithoutCancel(ctx)
	if perr := s.uow.Do(persistCtx, func(ctx context.Context) error {
		return s.persist(ctx, hs, before, report)
	}); perr != nil {
		s.log.Warn("refresh.persist_failed", zap.String("batch_id", report.BatchID), zap.Error(perr))
	}
	return report, err
}

func (s *PortfolioService) persist(ctx context.Context, hs []domain.Holding, before []*time.Time, report domain.RefreshReport) error {
	for i, h := range hs {
		if h.LastUpdated == nil || h.LastUpdated == before[i] {
			continue
		}
		if err := s.holdings.SavePrice(ctx, h.ID, *h.CurrentPrice, *h.LastUpdated); err != nil {
			return fmt.Errorf("save price %s: %w", h.Ticker, err)
		}
	}
	if s.history == nil {
		return nil
	}
	batchID := report.BatchID
	for _, q := range report.Fetched {
		rec := domain.QuoteHistory{
			Symbol:   q.Symbol,
			Price:    q.Price,
			QuotedAt: q.QuotedAt,
			Source:   historySource,
			BatchID:  &batchID,
		}
		if err := s.history.AppendHistory(ctx, rec); err != nil {
			return fmt.Errorf("append history %s: %w", q.Symbol, err)
		}
	}
	return nil
}

// History lists fetched quotes for symbol. Without a history store it
// returns an empty list.
func (s *PortfolioService) History(ctx context.Context, symbol string, limit int) ([]domain.QuoteHistory, error) {
	if !domain.ValidateSymbol(symbol) {
		return nil, fmt.Errorf("%w: invalid symbol %q", ErrBadRequest, symbol)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrBadRequest)
	}
	if s.history == nil {
		return []domain.QuoteHistory{}, nil
	}
	return s.history.Recent(ctx, domain.NormalizeSymbol(symbol), limit)
}

func (s *PortfolioService) ClearCache(ctx context.Context) error {
	return s.refresher.ClearCache(ctx)
}

func (s *PortfolioService) RefreshState() domain.RefreshState { return s.refresher.State() }

func (s *PortfolioService) SubscribeRefresh() (<-chan domain.RefreshState, func()) {
	return s.refresher.Subscribe()
}
