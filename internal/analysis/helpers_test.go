package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/woescope-cli/internal/frame"
)

func strCol(name string, vals ...string) *frame.Column {
	c := &frame.Column{Name: name, Kind: frame.String}
	for _, v := range vals {
		if v == "" {
			c.Values = append(c.Values, frame.Null())
			continue
		}
		c.Values = append(c.Values, frame.Text(v))
	}
	return c
}

func numCol(name string, kind frame.Kind, vals ...float64) *frame.Column {
	c := &frame.Column{Name: name, Kind: kind}
	for _, v := range vals {
		c.Values = append(c.Values, frame.Number(v))
	}
	return c
}

func mustFrame(t *testing.T, cols ...*frame.Column) *frame.Frame {
	t.Helper()
	f, err := frame.New("test.csv", cols...)
	require.NoError(t, err)
	return f
}

// regionFrame is the A/B/C scenario: A/1, A/1, A/0, B/0, B/0, C/1.
func regionFrame(t *testing.T) *frame.Frame {
	return mustFrame(t,
		strCol("region", "A", "A", "A", "B", "B", "C"),
		numCol("target", frame.Int, 1, 1, 0, 0, 0, 1),
	)
}
