package prometheus

import (
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahumphreys87/ddd-workshop/core/es"
	"github.com/ahumphreys87/ddd-workshop/domain/product"
	"github.com/ahumphreys87/ddd-workshop/ports/kv"
)

func TestNewESMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewESMetrics(reg)
	require.NotNil(t, m)

	timer := m.RepoLoadDuration("product")
	assert.NotNil(t, timer)
	timer.ObserveDuration()

	timer = m.RepoSaveDuration("product")
	assert.NotNil(t, timer)
	timer.ObserveDuration()

	m.EventsAppended("product", 5)
	m.ConcurrencyConflict("product")
	m.UnhandledEvent("product", "product.archived")

	em := m.(*esMetrics)
	assert.Equal(t, float64(5), testutil.ToFloat64(em.eventsAppended.WithLabelValues("product")))
	assert.Equal(t, float64(1), testutil.ToFloat64(em.concurrencyConflicts.WithLabelValues("product")))
	assert.Equal(t, float64(1), testutil.ToFloat64(em.unhandledEvents.WithLabelValues("product", "product.archived")))

	count, err := testutil.GatherAndCount(reg, "ddd_es_repo_load_duration_seconds", "ddd_es_repo_save_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNewESMetrics_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewESMetrics(reg)
	assert.Panics(t, func() { NewESMetrics(reg) })
}

func TestESMetrics_Repository(t *testing.T) {
	m := NewESMetrics(prometheus.NewRegistry()).(*esMetrics)
	repo := es.NewTypedRepository(
		slog.Default(),
		kv.NewMemStore(t.Name()),
		product.Empty,
		es.WithMetrics(m),
	)

	p, err := product.New("Widget", "A widget", 100)
	require.NoError(t, err)
	require.NoError(t, p.ChangePrice(120))
	require.NoError(t, repo.Save(t.Context(), p))

	stale, err := repo.GetByID(t.Context(), p.ID())
	require.NoError(t, err)

	require.NoError(t, repo.Update(t.Context(), p.ID(), func(p *product.Product) error {
		return p.ChangeName("Gadget")
	}))

	require.NoError(t, stale.ChangeName("Gizmo"))
	require.ErrorIs(t, repo.Save(t.Context(), stale), es.ErrConcurrencyConflict)

	assert.Equal(t, float64(3), testutil.ToFloat64(m.eventsAppended.WithLabelValues(product.AggregateType)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.concurrencyConflicts.WithLabelValues(product.AggregateType)))
}
