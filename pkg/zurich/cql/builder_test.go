package cql

import "testing"

func TestBuilder(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Builder
		want  string
	}{
		{
			name:  "empty",
			build: NewBuilder,
			want:  "",
		},
		{
			name:  "single clause",
			build: func() *Builder { return NewBuilder().Any("Titel", "Schule") },
			want:  `Titel any "Schule"`,
		},
		{
			name: "clauses joined with AND and sorted",
			build: func() *Builder {
				return NewBuilder().
					Any("Titel", "Budget").
					After("beginn_start", "2020-01-01 00:00:00").
					SortDescending("beginn_start")
			},
			want: `Titel any "Budget" AND beginn_start > "2020-01-01 00:00:00" sortBy beginn_start/sort.descending`,
		},
		{
			name:  "quotes escaped",
			build: func() *Builder { return NewBuilder().Equals("Name", `Der "Rat"`) },
			want:  `Name = "Der \"Rat\""`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.build().String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBusinessQuery(t *testing.T) {
	got := BusinessQuery("Schule", 2020, 2024, "Schul- und Sportdepartement")
	want := `Titel any "Schule" AND beginn_start > "2020-01-01 00:00:00" AND beginn_start < "2025-01-01 00:00:00" AND Departement any "Schul- und Sportdepartement" sortBy beginn_start/sort.descending`
	if got != want {
		t.Errorf("BusinessQuery() =\n%s\nwant\n%s", got, want)
	}

	got = BusinessQuery("Velo", 0, 0, "")
	want = `Titel any "Velo" sortBy beginn_start/sort.descending`
	if got != want {
		t.Errorf("BusinessQuery() without filters = %q, want %q", got, want)
	}
}

func TestCommissionQuery(t *testing.T) {
	tests := []struct {
		commission string
		name       string
		active     bool
		want       string
	}{
		{"GPK", "", true, `gremium any "GPK" AND Dauer_end > "9999-12-31 00:00:00"`},
		{"RPK", "Marti", false, `gremium any "RPK" AND Name any "Marti"`},
	}
	for _, tc := range tests {
		t.Run(tc.commission, func(t *testing.T) {
			if got := CommissionQuery(tc.commission, tc.name, tc.active); got != tc.want {
				t.Errorf("CommissionQuery() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMemberQuery(t *testing.T) {
	tests := []struct {
		name   string
		member string
		party  string
		active bool
		want   string
	}{
		{"name and party", "Marti", "SP", true, `NameVorname any "Marti" AND Partei any "SP" AND AktivesRatsmitglied = "true"`},
		{"inactive included", "Peter", "", false, `NameVorname any "Peter"`},
		{"no criteria falls back to active", "", "", false, `AktivesRatsmitglied = "true"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := MemberQuery(tc.member, tc.party, tc.active); got != tc.want {
				t.Errorf("MemberQuery() = %q, want %q", got, tc.want)
			}
		})
	}
}
