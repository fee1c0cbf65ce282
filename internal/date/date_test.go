package date

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Date
	}{
		{name: "canonical", input: "05-Mar-25", want: New(2025, time.March, 5)},
		{name: "lowercase month", input: "05-mar-25", want: New(2025, time.March, 5)},
		{name: "uppercase month", input: "31-DEC-99", want: New(2099, time.December, 31)},
		{name: "single digit day", input: "7-Jan-24", want: New(2024, time.January, 7)},
		{name: "surrounding space", input: "  14-Feb-26 ", want: New(2026, time.February, 14)},
		{name: "iso fallback", input: "2025-11-03", want: New(2025, time.November, 3)},
		{name: "leap day", input: "29-Feb-24", want: New(2024, time.February, 29)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "Parse(%q) = %s, want %s", tt.input, got, tt.want)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, input := range []string{
		"",
		"tomorrow",
		"05-Mrz-25",
		"05-Mar-2025",
		"31-Feb-25",
		"29-Feb-25",
		"123-Jan-25",
		"05/03/25",
		"xx-Mar-25",
		"1999-12-31",
		"2100-01-01",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			assert.Error(t, err)
			_, ok := ParseOptional(input)
			assert.False(t, ok)
		})
	}
}

func TestInRange(t *testing.T) {
	tests := []struct {
		name string
		d    Date
		want bool
	}{
		{name: "first day", d: New(2000, time.January, 1), want: true},
		{name: "last day", d: New(2099, time.December, 31), want: true},
		{name: "day before", d: New(1999, time.December, 31), want: false},
		{name: "day after", d: New(2100, time.January, 1), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.InRange())
		})
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "05-Mar-25", New(2025, time.March, 5).String())
	assert.Equal(t, "01-Jan-00", New(2000, time.January, 1).String())
	assert.Equal(t, "2025-03-05", New(2025, time.March, 5).ISO())
}

func TestRoundTrip_AllDates(t *testing.T) {
	start := New(2000, time.January, 1)
	end := New(2099, time.December, 31)
	for d := start; !end.Before(d); d = d.AddDays(1) {
		parsed, err := Parse(d.String())
		if err != nil {
			t.Fatalf("Parse(%q): %v", d.String(), err)
		}
		if !parsed.Equal(d) {
			t.Fatalf("round trip of %s gave %s", d.ISO(), parsed.ISO())
		}
	}
}

func TestAddDays(t *testing.T) {
	d := New(2025, time.January, 30)
	assert.Equal(t, "02-Feb-25", d.AddDays(3).String())
	assert.Equal(t, "27-Jan-25", d.AddDays(-3).String())
	assert.Equal(t, d.String(), d.AddDays(0).String())
	assert.Equal(t, 3, d.DaysUntil(d.AddDays(3)))
	assert.Equal(t, -3, d.DaysUntil(d.AddDays(-3)))
}

func TestMarshal(t *testing.T) {
	type wrapper struct {
		Due Date `yaml:"due" json:"due"`
	}
	w := wrapper{Due: New(2025, time.June, 9)}

	y, err := yaml.Marshal(w)
	require.NoError(t, err)
	assert.Equal(t, "due: 09-Jun-25\n", string(y))

	var fromYAML wrapper
	require.NoError(t, yaml.Unmarshal(y, &fromYAML))
	assert.True(t, fromYAML.Due.Equal(w.Due))

	j, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":"09-Jun-25"}`, string(j))

	var fromJSON wrapper
	require.NoError(t, json.Unmarshal(j, &fromJSON))
	assert.True(t, fromJSON.Due.Equal(w.Due))
}
