package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	domain "github.com/majako/sales-forecaster/pkg/types"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func tsp(s string) *time.Time {
	t := ts(s)
	return &t
}

func TestNewWindow(t *testing.T) {
	t.Parallel()

	w := NewWindow(ts("2026-03-10T15:42:07Z"), 14)

	assert.Equal(t, ts("2026-03-11T00:00:00Z"), w.From, "starts at the beginning of tomorrow")
	assert.Equal(t, ts("2026-03-25T00:00:00Z"), w.Until)
	assert.Equal(t, 14, w.Days)
}

func TestWindowCoverage(t *testing.T) {
	t.Parallel()

	w := Window{
		From:  ts("2026-03-11T00:00:00Z"),
		Until: ts("2026-03-25T00:00:00Z"),
		Days:  14,
	}

	tests := []struct {
		name     string
		discount domain.Discount
		want     float64
	}{
		{
			name:     "both bounds open-ended",
			discount: domain.Discount{},
			want:     1,
		},
		{
			name: "window fully contained in validity",
			discount: domain.Discount{
				StartUTC: tsp("2026-03-01T00:00:00Z"),
				EndUTC:   tsp("2026-04-01T00:00:00Z"),
			},
			want: 1,
		},
		{
			name: "starts exactly at the end of the window",
			discount: domain.Discount{
				StartUTC: tsp("2026-03-25T00:00:00Z"),
			},
			want: 0,
		},
		{
			name: "starts halfway through",
			discount: domain.Discount{
				StartUTC: tsp("2026-03-18T00:00:00Z"),
			},
			want: 0.5,
		},
		{
			name: "ends halfway through",
			discount: domain.Discount{
				EndUTC: tsp("2026-03-18T00:00:00Z"),
			},
			want: 0.5,
		},
		{
			name: "late start and early end combine",
			discount: domain.Discount{
				StartUTC: tsp("2026-03-14T12:00:00Z"),
				EndUTC:   tsp("2026-03-21T12:00:00Z"),
			},
			want: 0.5,
		},
		{
			name: "active window mostly outside goes negative, not clamped",
			discount: domain.Discount{
				StartUTC: tsp("2026-04-01T00:00:00Z"),
			},
			want: -0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, w.Coverage(&tt.discount), 1e-9)
		})
	}
}
