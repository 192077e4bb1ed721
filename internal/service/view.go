package service

import (
	"github.com/mmynk/rece/internal/calculator"
	"github.com/mmynk/rece/internal/metrics"
	"github.com/mmynk/rece/internal/receipt"
	"github.com/mmynk/rece/pkg/api"
)

// render allocates the receipt (through the cache) and builds its view.
func (s *ReceiptService) render(r *receipt.Receipt) *api.ReceiptView {
	alloc, hit := s.cache.Allocate(r.ID, r.Input())
	metrics.AllocationCache.WithLabelValues(metrics.CacheResult(hit)).Inc()

	people := r.SortedPeople()
	settlement := calculator.Settle(people, alloc, calculator.ReceiptNote(r.Title, s.paymentNote))
	links := make(map[string]string, len(settlement.Unpaid))
	for _, owed := range settlement.Unpaid {
		links[owed.PersonID] = owed.PaymentLink
	}

	view := &api.ReceiptView{
		ID:          r.ID,
		Title:       r.Title,
		Date:        r.Date.UnixMilli(),
		Locked:      r.Locked,
		Items:       make([]api.ItemView, 0, len(r.Items)),
		People:      make([]api.PersonView, 0, len(people)),
		Subtotal:    alloc.Subtotal.String(),
		TaxCost:     r.TaxCost.String(),
		TipCost:     r.TipCost.String(),
		TaxPercent:  r.ChargePercent(receipt.ChargeTax).String(),
		TipPercent:  r.ChargePercent(receipt.ChargeTip).String(),
		Total:       alloc.Total.String(),
		Unallocated: alloc.Unallocated.String(),
		Settlement: api.SettlementView{
			Collected:   settlement.Collected.String(),
			Outstanding: settlement.Outstanding.String(),
		},
	}
	if r.Date.IsZero() {
		view.Date = 0
	}

	items := r.SortedItems()
	for _, item := range items {
		status := alloc.Items[item.ID]
		view.Items = append(view.Items, api.ItemView{
			ID:       item.ID,
			Name:     item.Name,
			Cost:     item.Cost.String(),
			Quantity: item.Quantity,
			Claimed:  status.Claimed,
			Full:     status.Full,
			Over:     status.Over,
		})
	}

	for _, p := range people {
		split := alloc.Person(p.ID)
		pv := api.PersonView{
			ID:          p.ID,
			Name:        p.Name,
			Initials:    receipt.Initials(p.Name),
			Paid:        p.Paid,
			Subtotal:    split.Subtotal.String(),
			Tax:         split.Tax.String(),
			Tip:         split.Tip.String(),
			Total:       split.Total.String(),
			Items:       []api.PersonItemView{},
			PaymentLink: links[p.ID],
		}
		for _, item := range items {
			part, ok := split.Items[item.ID]
			if !ok {
				continue
			}
			pv.Items = append(pv.Items, api.PersonItemView{
				ItemID:      item.ID,
				Name:        item.Name,
				Subtotal:    part.Subtotal.String(),
				Shares:      part.Shares,
				TotalShares: part.TotalShares,
				Label:       part.Label(),
			})
		}
		view.People = append(view.People, pv)
	}
	return view
}

func summarize(r *receipt.Receipt) api.ReceiptSummary {
	sum := r.Summary()
	var date int64
	if !sum.Date.IsZero() {
		date = sum.Date.UnixMilli()
	}
	return api.ReceiptSummary{
		ID:     sum.ID,
		Title:  sum.Title,
		Date:   date,
		Total:  sum.Total.String(),
		Locked: sum.Locked,
	}
}
