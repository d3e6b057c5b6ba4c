package grpc

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nyasuto/mond/internal/adapter/presenter"
	"github.com/nyasuto/mond/internal/domain"
	"github.com/nyasuto/mond/internal/usecase/entry"
	"github.com/nyasuto/mond/internal/usecase/market"
	"github.com/nyasuto/mond/internal/usecase/report"
)

// Server implements the ReportService gRPC server
type Server struct {
	EntryService  *entry.EntryService
	ReportService *report.ReportService
	MarketService *market.MarketService
}

var _ ReportServiceServer = (*Server)(nil)

// NewServer creates a new gRPC server instance
func NewServer(entryService *entry.EntryService, reportService *report.ReportService, marketService *market.MarketService) *Server {
	return &Server{
		EntryService:  entryService,
		ReportService: reportService,
		MarketService: marketService,
	}
}

// RegisterAsset handles the RegisterAsset RPC.
// Request: ticker, ccy, name (optional).
func (s *Server) RegisterAsset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fields{req}
	ticker, err := f.requiredText("ticker")
	if err != nil {
		return nil, err
	}
	ccy, err := f.requiredText("ccy")
	if err != nil {
		return nil, err
	}

	asset, err := s.EntryService.RegisterAsset(ctx, ticker, ccy, f.text("name"))
	if err != nil {
		return nil, mapError(err)
	}
	return toStruct(presenter.AssetDocument(asset))
}

// RecordFxRate handles the RecordFxRate RPC.
// Request: date, ccy, rate.
func (s *Server) RecordFxRate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fields{req}
	date, err := f.date("date")
	if err != nil {
		return nil, err
	}
	ccy, err := f.requiredText("ccy")
	if err != nil {
		return nil, err
	}
	rate, err := f.amount("rate", true)
	if err != nil {
		return nil, err
	}

	fx, err := s.EntryService.RecordFxRate(ctx, date, ccy, rate)
	if err != nil {
		return nil, mapError(err)
	}
	return toStruct(presenter.FxRateDocument(fx))
}

// RecordSnapshot handles the RecordSnapshot RPC.
// Request: date, ticker, qty, price_ccy, amount_jpy (optional; derives qty when positive).
func (s *Server) RecordSnapshot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fields{req}
	date, err := f.date("date")
	if err != nil {
		return nil, err
	}
	ticker, err := f.requiredText("ticker")
	if err != nil {
		return nil, err
	}
	price, err := f.amount("price_ccy", true)
	if err != nil {
		return nil, err
	}
	amount, err := f.amount("amount_jpy", false)
	if err != nil {
		return nil, err
	}
	qty, err := f.amount("qty", !amount.IsPositive())
	if err != nil {
		return nil, err
	}

	snapshot, err := s.EntryService.RecordSnapshot(ctx, entry.SnapshotInput{
		Date:       date,
		Ticker:     ticker,
		Quantity:   qty,
		Price:      price,
		AmountHome: amount,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return toStruct(presenter.SnapshotDocument(snapshot))
}

// GetDraft handles the GetDraft RPC.
// Request: date, ticker.
func (s *Server) GetDraft(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fields{req}
	date, err := f.date("date")
	if err != nil {
		return nil, err
	}
	ticker, err := f.requiredText("ticker")
	if err != nil {
		return nil, err
	}

	draft, err := s.EntryService.Draft(ctx, date, ticker)
	if err != nil {
		return nil, mapError(err)
	}
	return toStruct(presenter.DraftDocument(draft))
}

// GetDailyReport handles the GetDailyReport RPC.
// Request: date.
func (s *Server) GetDailyReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	date, err := fields{req}.date("date")
	if err != nil {
		return nil, err
	}

	r, err := s.ReportService.Daily(ctx, date)
	if err != nil {
		return nil, mapError(err)
	}
	return toStruct(presenter.DailyDocument(r))
}

// GetHistory handles the GetHistory RPC.
// Request: start and end (both optional; the whole stored range when omitted), limit (optional).
func (s *Server) GetHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fields{req}
	limit, err := f.count("limit")
	if err != nil {
		return nil, err
	}

	var h *report.HistoryReport
	if f.text("start") == "" && f.text("end") == "" {
		h, err = s.ReportService.FullHistory(ctx, limit)
	} else {
		start, startErr := f.date("start")
		if startErr != nil {
			return nil, startErr
		}
		end, endErr := f.date("end")
		if endErr != nil {
			return nil, endErr
		}
		h, err = s.ReportService.History(ctx, start, end, limit)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return toStruct(presenter.HistoryDocument(h))
}

// CheckDay handles the CheckDay RPC: reconciliation and FX completeness of a date.
// Request: date.
func (s *Server) CheckDay(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	date, err := fields{req}.date("date")
	if err != nil {
		return nil, err
	}

	r, err := s.ReportService.Daily(ctx, date)
	if err != nil {
		return nil, mapError(err)
	}
	return toStruct(presenter.CheckDocument(r))
}

// GetTickerAttribution handles the GetTickerAttribution RPC: one ticker's attribution and weight.
// Request: ticker, date.
func (s *Server) GetTickerAttribution(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fields{req}
	ticker, err := f.requiredText("ticker")
	if err != nil {
		return nil, err
	}
	date, err := f.date("date")
	if err != nil {
		return nil, err
	}

	t, err := s.ReportService.Ticker(ctx, ticker, date)
	if err != nil {
		return nil, mapError(err)
	}
	return toStruct(presenter.TickerAttributionDocument(t.Row, t.Weight))
}

// GetMarketKeys handles the GetMarketKeys RPC: stored price tickers and FX pairs.
func (s *Server) GetMarketKeys(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	keys, err := s.MarketService.Keys(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return toStruct(presenter.KeysDocument(keys))
}

// GetPriceHistory handles the GetPriceHistory RPC.
// Request: start, end, tickers (optional list; every ticker when omitted).
func (s *Server) GetPriceHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fields{req}
	start, end, err := f.dateRange()
	if err != nil {
		return nil, err
	}
	tickers, err := f.list("tickers")
	if err != nil {
		return nil, err
	}

	prices, err := s.MarketService.PriceHistory(ctx, tickers, start, end)
	if err != nil {
		return nil, mapError(err)
	}
	return toStruct(presenter.PriceHistoryDocument(start, end, prices))
}

// GetFxHistory handles the GetFxHistory RPC.
// Request: start, end, pairs (optional list; every pair when omitted).
func (s *Server) GetFxHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fields{req}
	start, end, err := f.dateRange()
	if err != nil {
		return nil, err
	}
	pairs, err := f.list("pairs")
	if err != nil {
		return nil, err
	}

	rates, err := s.MarketService.FxHistory(ctx, pairs, start, end)
	if err != nil {
		return nil, mapError(err)
	}
	return toStruct(presenter.FxHistoryDocument(start, end, rates))
}

// ListSnapshots handles the ListSnapshots RPC: recorded snapshots, newest first.
// Request: limit (optional).
func (s *Server) ListSnapshots(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit, err := fields{req}.count("limit")
	if err != nil {
		return nil, err
	}

	snapshots, err := s.MarketService.Snapshots(ctx, limit)
	if err != nil {
		return nil, mapError(err)
	}
	return toStruct(presenter.SnapshotListDocument(snapshots))
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	errorMsg := err.Error()

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return status.Errorf(codes.InvalidArgument, "%s", errorMsg)
	case errors.Is(err, domain.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s", errorMsg)
	case errors.Is(err, domain.ErrMissingReferenceData),
		errors.Is(err, domain.ErrFxGap),
		errors.Is(err, domain.ErrNoBaseline):
		return status.Errorf(codes.FailedPrecondition, "%s", errorMsg)
	case errors.Is(err, context.Canceled):
		return status.Errorf(codes.Canceled, "%s", errorMsg)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Errorf(codes.DeadlineExceeded, "%s", errorMsg)
	}

	// Default to Internal error for unknown errors
	return status.Errorf(codes.Internal, "%s", errorMsg)
}

func toStruct(doc map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(doc)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return s, nil
}

// fields reads typed request fields; malformed values are InvalidArgument
type fields struct {
	s *structpb.Struct
}

func (f fields) text(key string) string {
	v, ok := f.s.GetFields()[key]
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.GetStringValue())
}

func (f fields) requiredText(key string) (string, error) {
	v := f.text(key)
	if v == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return v, nil
}

func (f fields) date(key string) (time.Time, error) {
	raw, err := f.requiredText(key)
	if err != nil {
		return time.Time{}, err
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", key, err)
	}
	return d, nil
}

// amount accepts a decimal string or a number; a missing optional field is zero
func (f fields) amount(key string, required bool) (decimal.Decimal, error) {
	v, ok := f.s.GetFields()[key]
	if !ok || v.GetKind() == nil {
		if required {
			return decimal.Zero, status.Errorf(codes.InvalidArgument, "%s is required", key)
		}
		return decimal.Zero, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		d, err := decimal.NewFromString(strings.TrimSpace(k.StringValue))
		if err != nil {
			return decimal.Zero, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", key, err)
		}
		return d, nil
	case *structpb.Value_NumberValue:
		return decimal.NewFromFloat(k.NumberValue), nil
	case *structpb.Value_NullValue:
		if required {
			return decimal.Zero, status.Errorf(codes.InvalidArgument, "%s is required", key)
		}
		return decimal.Zero, nil
	default:
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "%s must be a decimal string", key)
	}
}

// count reads a non-negative integer; a missing field is zero
func (f fields) count(key string) (int, error) {
	v, ok := f.s.GetFields()[key]
	if !ok {
		return 0, nil
	}
	var n int
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		if k.NumberValue != math.Trunc(k.NumberValue) || math.IsInf(k.NumberValue, 0) {
			return 0, status.Errorf(codes.InvalidArgument, "%s must be a whole number", key)
		}
		n = int(k.NumberValue)
	case *structpb.Value_StringValue:
		parsed, err := strconv.Atoi(strings.TrimSpace(k.StringValue))
		if err != nil {
			return 0, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", key, err)
		}
		n = parsed
	default:
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a number", key)
	}
	if n < 0 {
		return 0, status.Errorf(codes.InvalidArgument, "%s must not be negative", key)
	}
	return n, nil
}

// list reads a list of strings or a comma separated string; a missing field is empty
func (f fields) list(key string) ([]string, error) {
	out := make([]string, 0)
	v, ok := f.s.GetFields()[key]
	if !ok {
		return out, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_ListValue:
		for _, item := range k.ListValue.GetValues() {
			str, isString := item.GetKind().(*structpb.Value_StringValue)
			if !isString {
				return nil, status.Errorf(codes.InvalidArgument, "%s must be a list of strings", key)
			}
			if p := strings.TrimSpace(str.StringValue); p != "" {
				out = append(out, p)
			}
		}
	case *structpb.Value_StringValue:
		for _, part := range strings.Split(k.StringValue, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	case *structpb.Value_NullValue:
	default:
		return nil, status.Errorf(codes.InvalidArgument, "%s must be a list of strings", key)
	}
	return out, nil
}

// dateRange reads the required start and end fields
func (f fields) dateRange() (time.Time, time.Time, error) {
	start, err := f.date("start")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := f.date("end")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}
