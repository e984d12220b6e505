package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_RecordsOutcomes(t *testing.T) {
	c := New(prometheus.NewRegistry())

	c.Bind(true)
	c.Bind(false)
	c.Bind(false)
	c.Field("reuse")
	c.Incompatible("type_mismatch")
	c.Reload(3, nil)
	c.Reload(0, errors.New("boom"))

	if got := testutil.ToFloat64(c.BindsTotal.WithLabelValues("incompatible")); got != 2 {
		t.Fatalf("incompatible binds = %v", got)
	}
	if got := testutil.ToFloat64(c.BindsTotal.WithLabelValues("ok")); got != 1 {
		t.Fatalf("ok binds = %v", got)
	}
	if got := testutil.ToFloat64(c.FieldBindings.WithLabelValues("reuse")); got != 1 {
		t.Fatalf("reuse fields = %v", got)
	}
	if got := testutil.ToFloat64(c.Incompatibilities.WithLabelValues("type_mismatch")); got != 1 {
		t.Fatalf("incompatibilities = %v", got)
	}
	if got := testutil.ToFloat64(c.SchemaGroups); got != 3 {
		t.Fatalf("groups gauge = %v", got)
	}
	if got := testutil.ToFloat64(c.SchemaReloadErrors); got != 1 {
		t.Fatalf("reload errors = %v", got)
	}
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	c.Bind(true)
	c.Field("ignore")
	c.Incompatible("x")
	c.Reload(1, nil)
}
