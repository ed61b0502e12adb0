package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"tenderwatch/db"
	"tenderwatch/internal/notify"
)

type mockDigestStore struct {
	items  []db.DigestItem
	marked []int64
}

func (m *mockDigestStore) ListPendingDigest(ctx context.Context) ([]db.DigestItem, error) {
	return m.items, nil
}

func (m *mockDigestStore) MarkTenderAccountNotified(ctx context.Context, id int64) error {
	m.marked = append(m.marked, id)
	return nil
}

type mockNotifier struct {
	sent []notify.Notification
	fail map[string]error
}

func (m *mockNotifier) Notify(ctx context.Context, n notify.Notification) error {
	if err, ok := m.fail[n.Recipient]; ok {
		return err
	}
	m.sent = append(m.sent, n)
	return nil
}

func TestDigestGroupsByCriteria(t *testing.T) {
	store := &mockDigestStore{items: []db.DigestItem{
		{AccountRowID: 1, CriteriaID: 10, CriteriaName: "Obras", Channel: "email",
			TenderID: 100, TenderName: "Reforma escuela", UserEmails: []string{"a@x.es"}},
		{AccountRowID: 2, CriteriaID: 10, CriteriaName: "Obras", Channel: "email",
			TenderID: 101, TenderName: "Asfaltado vial", UserEmails: []string{"a@x.es"}},
		{AccountRowID: 3, CriteriaID: 20, CriteriaName: "Servicios", Channel: "email",
			TenderID: 102, TenderName: "Limpieza oficinas", UserEmails: []string{"b@x.es"}},
	}}
	n := &mockNotifier{}
	sched := notify.NewDigestScheduler(store, n, "@daily")

	require.NoError(t, sched.Run(context.Background()))
	require.Len(t, n.sent, 2, "one notification per criteria")
	require.Equal(t, []string{"Reforma escuela", "Asfaltado vial"}, n.sent[0].TenderNames)
	require.ElementsMatch(t, []int64{1, 2, 3}, store.marked)
}

func TestDigestFailedDeliveryRetriesNextRun(t *testing.T) {
	store := &mockDigestStore{items: []db.DigestItem{
		{AccountRowID: 1, CriteriaID: 10, CriteriaName: "Obras", Channel: "email",
			TenderID: 100, TenderName: "Reforma escuela", UserEmails: []string{"down@x.es"}},
	}}
	n := &mockNotifier{fail: map[string]error{"down@x.es": errors.New("smtp down")}}
	sched := notify.NewDigestScheduler(store, n, "@daily")

	require.NoError(t, sched.Run(context.Background()))
	require.Empty(t, store.marked, "undelivered pairings stay pending")
}

func TestDigestChatUsesWebhook(t *testing.T) {
	store := &mockDigestStore{items: []db.DigestItem{
		{AccountRowID: 1, CriteriaID: 10, CriteriaName: "Obras", Channel: "chat",
			WebhookURL: "https://hooks.example.com/T1", TenderID: 100,
			TenderName: "Reforma escuela", UserEmails: []string{"ignored@x.es"}},
	}}
	n := &mockNotifier{}
	sched := notify.NewDigestScheduler(store, n, "@daily")

	require.NoError(t, sched.Run(context.Background()))
	require.Len(t, n.sent, 1)
	require.Equal(t, "https://hooks.example.com/T1", n.sent[0].Recipient)
}
