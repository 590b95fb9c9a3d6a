package company

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/invoice-consolidator/internal/layout"
)

func TestNormalizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Sanco_Invoice_2024.pdf", "sanco invoice 2024.pdf"},
		{"N&V-march.xlsx", "n & v march.xlsx"},
		{"  East__Valley  -- report.PDF ", "east valley report.pdf"},
		{"T & M.xls", "t & m.xls"},
		{"plain.pdf", "plain.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeFilename(tt.in))
		})
	}
}

func TestDetector_Detect(t *testing.T) {
	d := NewDetector(nil)

	tests := []struct {
		path string
		want string
	}{
		{"Sanco_Invoice_2024.pdf", "Sanco"},
		{"/data/in/SANCO-statement.xlsx", "Sanco"},
		{"agua_mansa_jan.pdf", "Agua Mansa"},
		{"East-Valley 03.xls", "East Valley"},
		{"american_recycling.pdf", "American Recycling"},
		{"N&V_june.pdf", "N&V"},
		{"t_&_m invoice.pdf", "T&M"},
		{"Greenwaste.PDF", "Greenwaste"},
		{"random_vendor.pdf", UnknownCompany},
		{"", UnknownCompany},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Detect(tt.path))
		})
	}
}

func TestDetector_DetectUsesBaseName(t *testing.T) {
	d := NewDetector(nil)
	assert.Equal(t, UnknownCompany, d.Detect("/archive/sanco/other_vendor.pdf"))
}

func TestDetector_Idempotent(t *testing.T) {
	d := NewDetector(nil)
	for _, kw := range DefaultKeywords() {
		name := kw.Keyword + "_invoice.pdf"
		first := d.Detect(name)
		assert.Equal(t, kw.Company, first)
		assert.Equal(t, first, d.Detect(name))
	}
}

func TestDetector_FirstMatchWins(t *testing.T) {
	d := NewDetector([]Keyword{
		{Keyword: "Valley", Company: "Generic Valley"},
		{Keyword: "east valley", Company: "East Valley"},
	})
	assert.Equal(t, "Generic Valley", d.Detect("east_valley.pdf"))

	kws := d.Keywords()
	require.Len(t, kws, 2)
	assert.Equal(t, "valley", kws[0].Keyword)
}

func wideTable(rows, cols int) layout.Table {
	table := make(layout.Table, rows)
	for r := range table {
		row := make([]string, cols)
		for c := range row {
			row[c] = fmt.Sprintf("r%dc%d", r, c)
		}
		table[r] = row
	}
	return table
}

func TestRule_ApplySanco(t *testing.T) {
	reg, err := NewRegistry(DefaultRules()...)
	require.NoError(t, err)

	filtered, err := reg.Apply("Sanco", wideTable(2, 50))
	require.NoError(t, err)
	assert.Equal(t, []string{"Col_S", "Col_AK", "Col_AP", "Col_AU", "Col_AX"}, filtered.Header)
	assert.Equal(t, layout.Table{
		{"r0c18", "r0c36", "r0c41", "r0c46", "r0c49"},
		{"r1c18", "r1c36", "r1c41", "r1c46", "r1c49"},
	}, filtered.Rows)
}

func TestRule_ApplyTooNarrow(t *testing.T) {
	reg, err := NewRegistry(DefaultRules()...)
	require.NoError(t, err)

	filtered, err := reg.Apply("Sanco", wideTable(3, 49))
	assert.Nil(t, filtered)
	assert.ErrorIs(t, err, ErrIndexOutOfBounds)
}

func TestRule_ApplyRaggedRows(t *testing.T) {
	rule := Rule{Company: "X", Indices: []int{0, 2}}
	require.NoError(t, rule.Validate())

	filtered, err := rule.Apply(layout.Table{{"a"}, {"b", "c", "d"}})
	require.NoError(t, err)
	assert.Equal(t, layout.Table{{"a", ""}, {"b", "d"}}, filtered.Rows)
}

func TestRule_Validate(t *testing.T) {
	tests := []struct {
		name       string
		rule       Rule
		wantErr    bool
		wantLabels []string
	}{
		{
			name:       "labels derived from column letters",
			rule:       Rule{Company: "Edco", Indices: []int{0, 25, 26}},
			wantLabels: []string{"Col_A", "Col_Z", "Col_AA"},
		},
		{
			name:    "empty company",
			rule:    Rule{Indices: []int{1}},
			wantErr: true,
		},
		{
			name:    "no columns",
			rule:    Rule{Company: "Edco"},
			wantErr: true,
		},
		{
			name:    "negative index",
			rule:    Rule{Company: "Edco", Indices: []int{-1}},
			wantErr: true,
		},
		{
			name:    "label count mismatch",
			rule:    Rule{Company: "Edco", Indices: []int{1, 2}, Labels: []string{"one"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLabels, tt.rule.Labels)
		})
	}
}

func TestRegistry(t *testing.T) {
	reg, err := NewRegistry(DefaultRules()...)
	require.NoError(t, err)

	_, ok := reg.Lookup("Dalton")
	assert.False(t, ok)

	_, err = reg.Apply("Dalton", wideTable(1, 60))
	assert.ErrorIs(t, err, ErrNoFilter)

	require.NoError(t, reg.Register(Rule{Company: "Dalton", Indices: []int{1}}))
	require.NoError(t, reg.Register(Rule{Company: "Sanco", Indices: []int{0}}))
	assert.Equal(t, []string{"Sanco", "Dalton"}, reg.Companies())

	rule, ok := reg.Lookup("Sanco")
	require.True(t, ok)
	assert.Equal(t, []int{0}, rule.Indices)

	_, err = NewRegistry(Rule{Company: ""})
	assert.Error(t, err)
}
