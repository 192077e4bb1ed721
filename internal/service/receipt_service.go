package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/rece/internal/calculator"
	"github.com/mmynk/rece/internal/docstore"
	"github.com/mmynk/rece/internal/metrics"
	"github.com/mmynk/rece/internal/money"
	"github.com/mmynk/rece/internal/receipt"
	"github.com/mmynk/rece/pkg/api"
	"github.com/mmynk/rece/pkg/api/apiconnect"
)

// ReceiptService implements the Connect ReceiptService
type ReceiptService struct {
	apiconnect.UnimplementedReceiptServiceHandler
	store       *docstore.Store
	cache       *calculator.Cache
	paymentNote string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

var _ apiconnect.ReceiptServiceHandler = (*ReceiptService)(nil)

// NewReceiptService creates a new ReceiptService over the given document store.
// An empty paymentNote falls back to calculator.DefaultPaymentNote.
func NewReceiptService(store *docstore.Store, paymentNote string) *ReceiptService {
	if paymentNote == "" {
		paymentNote = calculator.DefaultPaymentNote
	}
	return &ReceiptService{
		store:       store,
		cache:       calculator.NewCache(),
		paymentNote: paymentNote,
		locks:       make(map[string]*sync.Mutex),
	}
}

// lock serializes read-modify-write cycles on one receipt.
func (s *ReceiptService) lock(id string) func() {
	s.mu.Lock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}

func (s *ReceiptService) load(ctx context.Context, id string) (*receipt.Receipt, error) {
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("receipt id required"))
	}
	snap, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, connect.NewError(connect.CodeNotFound, err)
		}
		slog.Error("failed to load receipt", "receipt_id", id, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	r, err := receipt.Decode(snap)
	if err != nil {
		return nil, connect.NewError(connect.CodeNotFound, err)
	}
	return r, nil
}

// mutation is one change to a loaded receipt. The response it returns, if
// any, carries the ids of what it created.
type mutation func(r *receipt.Receipt) (*api.MutationResponse, receipt.Outcome, error)

// mutate loads receipt id, applies fn and commits the recorded ops as one
// batch. A rejected outcome is reported in the response, not as an RPC error.
func (s *ReceiptService) mutate(ctx context.Context, operation, id string, fn mutation) (*connect.Response[api.MutationResponse], error) {
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("receipt id required"))
	}
	unlock := s.lock(id)
	defer unlock()

	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	resp, outcome, err := fn(r)
	if resp == nil {
		resp = &api.MutationResponse{}
	}
	resp.Outcome = string(outcome)
	metrics.MutationOutcomes.WithLabelValues(operation, string(outcome)).Inc()

	switch outcome {
	case receipt.Rejected:
		if err != nil {
			resp.Error = err.Error()
		}
		slog.Debug("mutation rejected", "operation", operation, "receipt_id", id, "error", err)
	case receipt.Applied:
		if ops := r.Changes(); len(ops) > 0 {
			if err := s.store.Apply(ctx, ops...); err != nil {
				slog.Error("failed to apply mutation", "operation", operation, "receipt_id", id, "error", err)
				return nil, connect.NewError(connect.CodeInternal, err)
			}
			slog.Debug("mutation applied", "operation", operation, "receipt_id", id, "ops", len(ops))
		}
	}

	// Render what is stored now, so a failed or refused mutation shows the
	// unchanged receipt.
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp.Receipt = s.render(current)
	return connect.NewResponse(resp), nil
}

// syncTotal republishes the cached total of r when it drifted from the
// receipt's contents. Failures are only logged.
func (s *ReceiptService) syncTotal(ctx context.Context, r *receipt.Receipt) {
	if r.Total.Equal(r.ComputedTotal()) {
		return
	}
	unlock := s.lock(r.ID)
	defer unlock()

	// r may be stale by now.
	current, err := s.load(ctx, r.ID)
	if err != nil {
		return
	}
	op, ok := current.SyncTotal()
	if !ok {
		return
	}
	if err := s.store.Apply(ctx, op); err != nil {
		slog.Warn("failed to republish receipt total", "receipt_id", r.ID, "error", err)
		return
	}
	slog.Debug("receipt total republished", "receipt_id", r.ID, "total", current.Total)
}

// CreateReceipt creates an empty receipt and persists it.
func (s *ReceiptService) CreateReceipt(ctx context.Context, req *connect.Request[api.CreateReceiptRequest]) (*connect.Response[api.MutationResponse], error) {
	var date time.Time
	if req.Msg.Date != 0 {
		date = time.UnixMilli(req.Msg.Date)
	}
	r := receipt.New(req.Msg.Title, date)

	id, err := s.store.Push(ctx, nil, r.Encode())
	if err != nil {
		slog.Error("CreateReceipt failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	r.ID = id
	metrics.MutationOutcomes.WithLabelValues("CreateReceipt", string(receipt.Applied)).Inc()
	slog.Info("receipt created", "receipt_id", id, "title", r.Title)

	return connect.NewResponse(&api.MutationResponse{
		Outcome: string(receipt.Applied),
		ID:      id,
		Receipt: s.render(r),
	}), nil
}

// Summaries lists every receipt, newest first.
func (s *ReceiptService) Summaries(ctx context.Context) ([]api.ReceiptSummary, error) {
	snaps, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}

	summaries := make([]api.ReceiptSummary, 0, len(snaps))
	for _, snap := range snaps {
		r, err := receipt.Decode(snap)
		if err != nil {
			slog.Warn("skipping unreadable receipt", "receipt_id", snap.ID, "error", err)
			continue
		}
		summaries = append(summaries, summarize(r))
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].Date != summaries[j].Date {
			return summaries[i].Date > summaries[j].Date
		}
		return summaries[i].ID > summaries[j].ID
	})
	return summaries, nil
}

// View returns receipt id with its allocation worked out. A missing
// receipt yields an error matching docstore.ErrNotFound.
func (s *ReceiptService) View(ctx context.Context, id string) (*api.ReceiptView, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.syncTotal(ctx, r)
	return s.render(r), nil
}

// Watch calls send with the current view of receipt id and again after
// every change, until ctx is done, send fails or the receipt is deleted.
// The last call for a deleted receipt has Deleted set.
func (s *ReceiptService) Watch(ctx context.Context, id string, send func(*api.WatchReceiptResponse) error) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan docstore.Snapshot)
	stop := s.store.Subscribe(ctx, id, func(snap docstore.Snapshot) {
		select {
		case updates <- snap:
		case <-ctx.Done():
		}
	})
	defer stop()

	slog.Info("watch started", "receipt_id", id)
	defer slog.Info("watch ended", "receipt_id", id)

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-updates:
			if !snap.Exists {
				return send(&api.WatchReceiptResponse{Deleted: true})
			}
			r, err := receipt.Decode(snap)
			if err != nil {
				slog.Warn("skipping unreadable receipt update", "receipt_id", id, "error", err)
				continue
			}
			s.syncTotal(ctx, r)
			if err := send(&api.WatchReceiptResponse{Receipt: s.render(r)}); err != nil {
				return err
			}
		}
	}
}

// ListReceipts returns every receipt, newest first.
func (s *ReceiptService) ListReceipts(ctx context.Context, req *connect.Request[api.ListReceiptsRequest]) (*connect.Response[api.ListReceiptsResponse], error) {
	summaries, err := s.Summaries(ctx)
	if err != nil {
		slog.Error("ListReceipts failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&api.ListReceiptsResponse{Receipts: summaries}), nil
}

// GetReceipt returns one receipt with its allocation.
func (s *ReceiptService) GetReceipt(ctx context.Context, req *connect.Request[api.GetReceiptRequest]) (*connect.Response[api.GetReceiptResponse], error) {
	view, err := s.View(ctx, req.Msg.ID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.GetReceiptResponse{Receipt: view}), nil
}

// WatchReceipt streams the receipt and every later change to it until the
// client goes away or the receipt is deleted.
func (s *ReceiptService) WatchReceipt(ctx context.Context, req *connect.Request[api.WatchReceiptRequest], stream *connect.ServerStream[api.WatchReceiptResponse]) error {
	return s.Watch(ctx, req.Msg.ID, stream.Send)
}

// DeleteReceipt removes a receipt. It needs confirmation and is refused
// while the receipt is locked.
func (s *ReceiptService) DeleteReceipt(ctx context.Context, req *connect.Request[api.DeleteReceiptRequest]) (*connect.Response[api.MutationResponse], error) {
	id := req.Msg.ID
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("receipt id required"))
	}
	unlock := s.lock(id)
	defer unlock()

	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	outcome := receipt.Applied
	switch {
	case !r.Allows(receipt.ActionContents):
		outcome = receipt.Disabled
	case !req.Msg.Confirmed:
		outcome = receipt.Unconfirmed
	}
	metrics.MutationOutcomes.WithLabelValues("DeleteReceipt", string(outcome)).Inc()
	if outcome != receipt.Applied {
		return connect.NewResponse(&api.MutationResponse{Outcome: string(outcome), Receipt: s.render(r)}), nil
	}

	if err := s.store.Remove(ctx, docstore.P(id)); err != nil {
		slog.Error("DeleteReceipt failed", "receipt_id", id, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	s.cache.Forget(id)
	slog.Info("receipt deleted", "receipt_id", id)

	return connect.NewResponse(&api.MutationResponse{Outcome: string(outcome), ID: id}), nil
}

// UpdateReceipt changes title, date and lock state. Unlocking happens
// first and locking last so one request can do both with other changes.
func (s *ReceiptService) UpdateReceipt(ctx context.Context, req *connect.Request[api.UpdateReceiptRequest]) (*connect.Response[api.MutationResponse], error) {
	msg := req.Msg
	return s.mutate(ctx, "UpdateReceipt", msg.ID, func(r *receipt.Receipt) (*api.MutationResponse, receipt.Outcome, error) {
		steps := make([]func() (receipt.Outcome, error), 0, 4)
		if msg.Locked != nil && !*msg.Locked {
			steps = append(steps, func() (receipt.Outcome, error) { return r.SetLocked(false) })
		}
		if msg.Title != nil {
			steps = append(steps, func() (receipt.Outcome, error) { return r.SetTitle(*msg.Title) })
		}
		if msg.Date != nil {
			steps = append(steps, func() (receipt.Outcome, error) { return r.SetDate(time.UnixMilli(*msg.Date)) })
		}
		if msg.Locked != nil && *msg.Locked {
			steps = append(steps, func() (receipt.Outcome, error) { return r.SetLocked(true) })
		}
		outcome, err := runSteps(steps)
		return nil, outcome, err
	})
}

// runSteps runs steps until one is not applied. Recorded ops of earlier
// steps are only committed when every step applied.
func runSteps(steps []func() (receipt.Outcome, error)) (receipt.Outcome, error) {
	for _, step := range steps {
		outcome, err := step()
		if outcome != receipt.Applied {
			return outcome, err
		}
	}
	return receipt.Applied, nil
}

// AddItem adds a line item to a receipt.
func (s *ReceiptService) AddItem(ctx context.Context, req *connect.Request[api.AddItemRequest]) (*connect.Response[api.MutationResponse], error) {
	msg := req.Msg
	return s.mutate(ctx, "AddItem", msg.ReceiptID, func(r *receipt.Receipt) (*api.MutationResponse, receipt.Outcome, error) {
		if !r.Allows(receipt.ActionContents) {
			return nil, receipt.Disabled, nil
		}
		cost, err := money.Parse(msg.Cost)
		if err != nil {
			return nil, receipt.Rejected, err
		}
		quantity := 1
		if msg.Quantity != "" {
			if quantity, err = receipt.ParseQuantity(msg.Quantity); err != nil {
				return nil, receipt.Rejected, err
			}
		}
		id, outcome, err := r.AddItem(msg.Name, cost, quantity)
		return &api.MutationResponse{ID: id}, outcome, err
	})
}

// UpdateItem changes any of an item's name, cost and quantity.
func (s *ReceiptService) UpdateItem(ctx context.Context, req *connect.Request[api.UpdateItemRequest]) (*connect.Response[api.MutationResponse], error) {
	msg := req.Msg
	return s.mutate(ctx, "UpdateItem", msg.ReceiptID, func(r *receipt.Receipt) (*api.MutationResponse, receipt.Outcome, error) {
		if !r.Allows(receipt.ActionContents) {
			return nil, receipt.Disabled, nil
		}
		steps := make([]func() (receipt.Outcome, error), 0, 3)
		if msg.Name != nil {
			steps = append(steps, func() (receipt.Outcome, error) { return r.RenameItem(msg.ItemID, *msg.Name) })
		}
		if msg.Cost != nil {
			cost, err := money.Parse(*msg.Cost)
			if err != nil {
				return nil, receipt.Rejected, err
			}
			steps = append(steps, func() (receipt.Outcome, error) { return r.SetItemCost(msg.ItemID, cost) })
		}
		if msg.Quantity != nil {
			quantity, err := receipt.ParseQuantity(*msg.Quantity)
			if err != nil {
				return nil, receipt.Rejected, err
			}
			steps = append(steps, func() (receipt.Outcome, error) { return r.SetItemQuantity(msg.ItemID, quantity) })
		}
		outcome, err := runSteps(steps)
		return &api.MutationResponse{ID: msg.ItemID}, outcome, err
	})
}

// RemoveItem deletes an item and every claim on it.
func (s *ReceiptService) RemoveItem(ctx context.Context, req *connect.Request[api.RemoveItemRequest]) (*connect.Response[api.MutationResponse], error) {
	msg := req.Msg
	return s.mutate(ctx, "RemoveItem", msg.ReceiptID, func(r *receipt.Receipt) (*api.MutationResponse, receipt.Outcome, error) {
		outcome, err := r.RemoveItem(msg.ItemID, msg.Confirmed)
		return nil, outcome, err
	})
}

// SplitItem replaces an item with parts of equal cost.
func (s *ReceiptService) SplitItem(ctx context.Context, req *connect.Request[api.SplitItemRequest]) (*connect.Response[api.MutationResponse], error) {
	msg := req.Msg
	return s.mutate(ctx, "SplitItem", msg.ReceiptID, func(r *receipt.Receipt) (*api.MutationResponse, receipt.Outcome, error) {
		ids, outcome, err := r.SplitItem(msg.ItemID, msg.Parts)
		return &api.MutationResponse{IDs: ids}, outcome, err
	})
}

// AddPerson adds someone to the receipt.
func (s *ReceiptService) AddPerson(ctx context.Context, req *connect.Request[api.AddPersonRequest]) (*connect.Response[api.MutationResponse], error) {
	msg := req.Msg
	return s.mutate(ctx, "AddPerson", msg.ReceiptID, func(r *receipt.Receipt) (*api.MutationResponse, receipt.Outcome, error) {
		id, outcome, err := r.AddPerson(msg.Name)
		return &api.MutationResponse{ID: id}, outcome, err
	})
}

// UpdatePerson renames a person.
func (s *ReceiptService) UpdatePerson(ctx context.Context, req *connect.Request[api.UpdatePersonRequest]) (*connect.Response[api.MutationResponse], error) {
	msg := req.Msg
	return s.mutate(ctx, "UpdatePerson", msg.ReceiptID, func(r *receipt.Receipt) (*api.MutationResponse, receipt.Outcome, error) {
		if msg.Name == nil {
			return &api.MutationResponse{ID: msg.PersonID}, receipt.Applied, nil
		}
		outcome, err := r.RenamePerson(msg.PersonID, *msg.Name)
		return &api.MutationResponse{ID: msg.PersonID}, outcome, err
	})
}

// SetPaid marks a person as paid or unpaid. Allowed on locked receipts.
func (s *ReceiptService) SetPaid(ctx context.Context, req *connect.Request[api.SetPaidRequest]) (*connect.Response[api.MutationResponse], error) {
	msg := req.Msg
	return s.mutate(ctx, "SetPaid", msg.ReceiptID, func(r *receipt.Receipt) (*api.MutationResponse, receipt.Outcome, error) {
		outcome, err := r.SetPaid(msg.PersonID, msg.Paid)
		return nil, outcome, err
	})
}

// RemovePerson deletes a person and every claim they hold.
func (s *ReceiptService) RemovePerson(ctx context.Context, req *connect.Request[api.RemovePersonRequest]) (*connect.Response[api.MutationResponse], error) {
	msg := req.Msg
	return s.mutate(ctx, "RemovePerson", msg.ReceiptID, func(r *receipt.Receipt) (*api.MutationResponse, receipt.Outcome, error) {
		outcome, err := r.RemovePerson(msg.PersonID, msg.Confirmed)
		return nil, outcome, err
	})
}

// SetShare sets how many units of an item a person claims.
func (s *ReceiptService) SetShare(ctx context.Context, req *connect.Request[api.SetShareRequest]) (*connect.Response[api.MutationResponse], error) {
	msg := req.Msg
	return s.mutate(ctx, "SetShare", msg.ReceiptID, func(r *receipt.Receipt) (*api.MutationResponse, receipt.Outcome, error) {
		outcome, err := r.SetShare(msg.PersonID, msg.ItemID, msg.Quantity)
		return nil, outcome, err
	})
}

var errChargeValue = errors.New("exactly one of amount and percent must be set")

// SetCharge sets tax or tip, as an amount or as a percentage of the subtotal.
func (s *ReceiptService) SetCharge(ctx context.Context, req *connect.Request[api.SetChargeRequest]) (*connect.Response[api.MutationResponse], error) {
	msg := req.Msg
	return s.mutate(ctx, "SetCharge", msg.ReceiptID, func(r *receipt.Receipt) (*api.MutationResponse, receipt.Outcome, error) {
		if !r.Allows(receipt.ActionContents) {
			return nil, receipt.Disabled, nil
		}
		charge := receipt.Charge(msg.Charge)
		switch {
		case (msg.Amount == nil) == (msg.Percent == nil):
			return nil, receipt.Rejected, errChargeValue
		case msg.Amount != nil:
			amount, err := money.Parse(*msg.Amount)
			if err != nil {
				return nil, receipt.Rejected, err
			}
			outcome, err := r.SetCharge(charge, amount)
			return nil, outcome, err
		default:
			pct, err := money.ParsePercent(*msg.Percent)
			if err != nil {
				return nil, receipt.Rejected, err
			}
			outcome, err := r.SetChargePercent(charge, pct)
			return nil, outcome, err
		}
	})
}
