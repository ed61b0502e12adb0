// Package match evaluates every active subscription against a tender
// after ingestion and dispatches real-time notifications for the
// subscriptions that hit.
package match

import (
	"context"
	"fmt"
	"log"
	"strings"

	"tenderwatch/internal/notify"
	"tenderwatch/models"
)

// Store is the storage slice the matcher needs. Pairings are recorded
// with find-or-create semantics so re-evaluating an updated tender never
// notifies the same subscription twice.
type Store interface {
	ListActiveCriteria(ctx context.Context) ([]models.SearchCriteria, error)
	FindOrCreateTenderAccount(ctx context.Context, tenderID, criteriaID, accountID int64) (bool, *models.TenderAccount, error)
	MarkTenderAccountNotified(ctx context.Context, id int64) error
}

type Config struct {
	// EmptyContractorsMatchAll controls subscriptions with no contractor
	// filter. Off by default: a subscription without contractors matches
	// nothing, which is how customers expect an unconfigured filter to
	// behave.
	EmptyContractorsMatchAll bool

	// AppURL prefixes the tender detail link in notifications.
	AppURL string
}

type Matcher struct {
	store    Store
	notifier notify.Notifier
	cfg      Config
}

func NewMatcher(store Store, notifier notify.Notifier, cfg Config) *Matcher {
	return &Matcher{store: store, notifier: notifier, cfg: cfg}
}

// Evaluate runs the tender against every active subscription, records a
// pairing for each hit, and dispatches real-time notifications for
// newly created pairings of allowed customers. A delivery failure for
// one recipient never blocks the others or the remaining criteria.
func (m *Matcher) Evaluate(ctx context.Context, tender *models.Tender) error {
	criteria, err := m.store.ListActiveCriteria(ctx)
	if err != nil {
		return fmt.Errorf("list criteria: %w", err)
	}

	for i := range criteria {
		c := &criteria[i]
		if !m.Matches(tender, c) {
			continue
		}

		created, pairing, err := m.store.FindOrCreateTenderAccount(ctx, tender.ID, c.ID, c.AccountID)
		if err != nil {
			log.Printf("record match tender=%d criteria=%d: %v", tender.ID, c.ID, err)
			continue
		}
		if !created || c.EmailFrequency != models.FrequencyRealTime || !c.IsAllowedCustomer {
			continue
		}

		if m.dispatch(ctx, tender, c) {
			if err := m.store.MarkTenderAccountNotified(ctx, pairing.ID); err != nil {
				log.Printf("mark notified %d: %v", pairing.ID, err)
			}
		}
	}
	return nil
}

// Matches applies the full predicate:
// (keywords or cpvs) and no exclude word, no excluded cpv, contractor
// filter, budget window, no excluded location, location filter, status
// filter.
func (m *Matcher) Matches(t *models.Tender, c *models.SearchCriteria) bool {
	if !matchesKeywords(t, c.Keywords) && !matchesCpvs(t, c.CpvCodes) {
		return false
	}
	if matchesKeywords(t, c.ExcludeWords) {
		return false
	}
	if matchesCpvs(t, c.ExcludedCpvCodes) {
		return false
	}
	if !m.matchesContractor(t, c.ContractorIDs) {
		return false
	}
	if !inBudget(t.BudgetNoTaxes, c.MinBudgetNoTaxes, c.MaxBudgetNoTaxes) {
		return false
	}
	if overlapsLocations(t, c.ExcludedLocations) {
		return false
	}
	if len(c.Locations) > 0 && !overlapsLocations(t, c.Locations) {
		return false
	}
	if len(c.Statuses) > 0 && !contains(c.Statuses, t.Status) {
		return false
	}
	return true
}

// matchesKeywords is a case-insensitive substring check against the
// tender name. Empty word list never matches, so it can serve both the
// positive and the exclusion side of the predicate.
func matchesKeywords(t *models.Tender, words []string) bool {
	if len(words) == 0 {
		return false
	}
	name := strings.ToLower(t.Name)
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" && strings.Contains(name, w) {
			return true
		}
	}
	return false
}

func matchesCpvs(t *models.Tender, codes []string) bool {
	if len(codes) == 0 {
		return false
	}
	for _, have := range t.CpvCodeStrings() {
		if contains(codes, have) {
			return true
		}
	}
	return false
}

func (m *Matcher) matchesContractor(t *models.Tender, ids []int64) bool {
	if len(ids) == 0 {
		return m.cfg.EmptyContractorsMatchAll
	}
	if t.ContractingOrganizationID == nil {
		return false
	}
	for _, id := range ids {
		if id == *t.ContractingOrganizationID {
			return true
		}
	}
	return false
}

// inBudget passes tenders without a known budget; a known figure must
// fall strictly inside the window. Bounds themselves are excluded and
// the minimum defaults to zero.
func inBudget(budget, min, max *float64) bool {
	if budget == nil {
		return true
	}
	lower := 0.0
	if min != nil {
		lower = *min
	}
	if *budget <= lower {
		return false
	}
	if max != nil && *budget >= *max {
		return false
	}
	return true
}

func overlapsLocations(t *models.Tender, locations []string) bool {
	if len(locations) == 0 {
		return false
	}
	for _, pair := range t.LocationPairs() {
		if contains(locations, pair) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// dispatch delivers one real-time notification per recipient. Reports
// whether at least one delivery succeeded.
func (m *Matcher) dispatch(ctx context.Context, t *models.Tender, c *models.SearchCriteria) bool {
	detail := ""
	if m.cfg.AppURL != "" {
		detail = fmt.Sprintf("%s/tenders/%s", strings.TrimRight(m.cfg.AppURL, "/"), t.Slug)
	}

	var recipients []string
	if c.NotificationChannel == models.ChannelChat && c.ChatWebhookURL != "" {
		recipients = []string{c.ChatWebhookURL}
	} else {
		recipients = append(recipients, c.UserEmails...)
		recipients = append(recipients, c.WatcherEmails...)
	}

	delivered := false
	for _, rcpt := range recipients {
		n := notify.Notification{
			Channel:      c.NotificationChannel,
			Recipient:    rcpt,
			Subject:      fmt.Sprintf("New tender for %q: %s", c.Name, t.Name),
			TenderID:     t.ID,
			TenderName:   t.Name,
			CriteriaID:   c.ID,
			CriteriaName: c.Name,
			DetailURL:    detail,
		}
		if err := m.notifier.Notify(ctx, n); err != nil {
			log.Printf("notify %s (criteria %d, tender %d): %v", rcpt, c.ID, t.ID, err)
			continue
		}
		delivered = true
	}
	return delivered
}
