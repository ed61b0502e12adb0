package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"tenderwatch/db"
)

// DigestStore is the storage slice the scheduler reads and marks.
type DigestStore interface {
	ListPendingDigest(ctx context.Context) ([]db.DigestItem, error)
	MarkTenderAccountNotified(ctx context.Context, id int64) error
}

// DigestScheduler periodically flushes pending tender/criteria pairings
// for subscriptions on a non-real-time frequency. One notification per
// criteria per run, listing every tender matched since the last digest.
type DigestScheduler struct {
	store    DigestStore
	notifier Notifier
	spec     string
	cron     *cron.Cron
}

func NewDigestScheduler(store DigestStore, notifier Notifier, spec string) *DigestScheduler {
	return &DigestScheduler{
		store:    store,
		notifier: notifier,
		spec:     spec,
		cron:     cron.New(),
	}
}

func (d *DigestScheduler) Start() error {
	_, err := d.cron.AddFunc(d.spec, func() {
		if err := d.Run(context.Background()); err != nil {
			log.Printf("digest run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule digest %q: %w", d.spec, err)
	}
	d.cron.Start()
	log.Printf("digest scheduler started (%s)", d.spec)
	return nil
}

func (d *DigestScheduler) Stop() {
	ctx := d.cron.Stop()
	<-ctx.Done()
}

// Run performs one digest pass. Pairings are grouped per criteria; a
// pairing is marked notified only after its group's delivery succeeded,
// so a failed delivery retries on the next run.
func (d *DigestScheduler) Run(ctx context.Context) error {
	items, err := d.store.ListPendingDigest(ctx)
	if err != nil {
		return fmt.Errorf("list pending digest: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	groups := map[int64][]db.DigestItem{}
	order := []int64{}
	for _, it := range items {
		if _, seen := groups[it.CriteriaID]; !seen {
			order = append(order, it.CriteriaID)
		}
		groups[it.CriteriaID] = append(groups[it.CriteriaID], it)
	}

	for _, criteriaID := range order {
		group := groups[criteriaID]
		head := group[0]

		names := make([]string, len(group))
		for i, it := range group {
			names[i] = it.TenderName
		}

		recipients := digestRecipients(head)
		delivered := false
		for _, rcpt := range recipients {
			n := Notification{
				Channel:      head.Channel,
				Recipient:    rcpt,
				Subject:      fmt.Sprintf("%d new tenders for %q", len(group), head.CriteriaName),
				TenderID:     head.TenderID,
				TenderName:   head.TenderName,
				CriteriaID:   head.CriteriaID,
				CriteriaName: head.CriteriaName,
				TenderNames:  names,
			}
			if err := d.notifier.Notify(ctx, n); err != nil {
				log.Printf("digest delivery to %s failed (criteria %d): %v", rcpt, criteriaID, err)
				continue
			}
			delivered = true
		}
		if !delivered {
			continue
		}
		for _, it := range group {
			if err := d.store.MarkTenderAccountNotified(ctx, it.AccountRowID); err != nil {
				log.Printf("mark notified %d failed: %v", it.AccountRowID, err)
			}
		}
	}
	return nil
}

func digestRecipients(it db.DigestItem) []string {
	if it.Channel == "chat" && it.WebhookURL != "" {
		return []string{it.WebhookURL}
	}
	out := append([]string{}, it.UserEmails...)
	return append(out, it.Watchers...)
}
