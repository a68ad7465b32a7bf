package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"civic/internal/platform/metrics"
	id "civic/pkg/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func change(table, recordID string) Change {
	return Change{Table: table, Type: ChangeUpdate, RecordID: recordID, OccurredAt: time.Now()}
}

func TestHub_FanOutByTable(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	a := hub.Subscribe(TableDocuments, 4)
	b := hub.Subscribe(TableDocuments, 4)
	other := hub.Subscribe(TableEvents, 4)

	assert.Equal(t, 2, hub.Broadcast(change(TableDocuments, "doc-1")))

	for _, sub := range []*Subscription{a, b} {
		select {
		case got := <-sub.C():
			assert.Equal(t, "doc-1", got.RecordID)
		default:
			t.Fatal("expected a change")
		}
	}
	select {
	case <-other.C():
		t.Fatal("events subscriber must not see document changes")
	default:
	}
}

func TestHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	hub := NewHub(m)
	defer hub.Close()

	slow := hub.Subscribe(TableIncidents, 1)
	fast := hub.Subscribe(TableIncidents, 8)

	for i := 0; i < 3; i++ {
		hub.Broadcast(change(TableIncidents, "r"))
	}

	assert.Len(t, slow.C(), 1)
	assert.Len(t, fast.C(), 3)
	assert.Equal(t, float64(2), promtestutil.ToFloat64(m.RealtimeDropped.WithLabelValues(TableIncidents)))
	assert.Equal(t, float64(2), promtestutil.ToFloat64(m.RealtimeSubscribers))
}

func TestHub_CloseSubscription(t *testing.T) {
	hub := NewHub(nil)
	sub := hub.Subscribe(TableGlossary, 1)
	require.Equal(t, 1, hub.Subscribers(TableGlossary))

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, hub.Subscribers(TableGlossary))
	_, open := <-sub.C()
	assert.False(t, open)

	hub.Close()
	late := hub.Subscribe(TableGlossary, 1)
	_, open = <-late.C()
	assert.False(t, open)
}

func TestHub_PublishImplementsPublisher(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()
	sub := hub.Subscribe(TableEvents, 1)

	var pub Publisher = hub
	require.NoError(t, pub.Publish(context.Background(), change(TableEvents, "e1")))
	assert.Equal(t, "e1", (<-sub.C()).RecordID)
}

func TestRequiredRole(t *testing.T) {
	role, ok := RequiredRole(TableIncidents)
	require.True(t, ok)
	assert.Equal(t, id.RoleAdmin, role)

	role, ok = RequiredRole(TableSubmissions)
	require.True(t, ok)
	assert.Equal(t, id.RoleAdmin, role)

	role, ok = RequiredRole(TableDocuments)
	require.True(t, ok)
	assert.Equal(t, id.RoleMember, role)

	_, ok = RequiredRole("users")
	assert.False(t, ok)
}

func TestNewChange(t *testing.T) {
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	c, err := NewChange(TableEvents, ChangeInsert, "e1", map[string]string{"title": "Town hall"}, at)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Town hall"}`, string(c.Record))
	assert.Equal(t, time.UTC, c.OccurredAt.Location())

	del, err := NewChange(TableEvents, ChangeDelete, "e1", nil, at)
	require.NoError(t, err)
	assert.Nil(t, del.Record)

	_, err = NewChange(TableEvents, ChangeInsert, "e1", make(chan int), at)
	assert.Error(t, err)
}
