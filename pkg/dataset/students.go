package dataset

import "github.com/reportkit-dev/reportkit/pkg/report"

// Students returns the demo student roster used by the example server
// and the end-to-end tests: 26 records filterable by class, gender and
// house, 13 of each gender.
func Students() *Dataset {
	columns := []report.Column{
		{Key: "name", Title: "Name"},
		{Key: "studentClass", Title: "Class"},
		{Key: "gender", Title: "Gender"},
		{Key: "house", Title: "House"},
	}
	rows := []report.Row{
		{"name": "Alice Ahlberg", "studentClass": "9A", "gender": "Female", "house": "Crimson"},
		{"name": "Ben Okafor", "studentClass": "9A", "gender": "Male", "house": "Azure"},
		{"name": "Chloe Duval", "studentClass": "9A", "gender": "Female", "house": "Emerald"},
		{"name": "Daniel Reyes", "studentClass": "9A", "gender": "Male", "house": "Amber"},
		{"name": "Elif Kaya", "studentClass": "9A", "gender": "Female", "house": "Crimson"},
		{"name": "Felix Braun", "studentClass": "9A", "gender": "Male", "house": "Azure"},
		{"name": "Grace Liu", "studentClass": "9B", "gender": "Female", "house": "Emerald"},
		{"name": "Hugo Marchetti", "studentClass": "9B", "gender": "Male", "house": "Amber"},
		{"name": "Ines Almeida", "studentClass": "9B", "gender": "Female", "house": "Crimson"},
		{"name": "Jonas Petersen", "studentClass": "9B", "gender": "Male", "house": "Azure"},
		{"name": "Klara Novak", "studentClass": "9B", "gender": "Female", "house": "Emerald"},
		{"name": "Liam Walsh", "studentClass": "9B", "gender": "Male", "house": "Amber"},
		{"name": "Mariam Haddad", "studentClass": "9B", "gender": "Female", "house": "Crimson"},
		{"name": "Noah Lindgren", "studentClass": "10A", "gender": "Male", "house": "Azure"},
		{"name": "Olga Sokolova", "studentClass": "10A", "gender": "Female", "house": "Emerald"},
		{"name": "Priya Nair", "studentClass": "10A", "gender": "Female", "house": "Amber"},
		{"name": "Quentin Leroy", "studentClass": "10A", "gender": "Male", "house": "Crimson"},
		{"name": "Rosa Jimenez", "studentClass": "10A", "gender": "Female", "house": "Azure"},
		{"name": "Samuel Adeyemi", "studentClass": "10A", "gender": "Male", "house": "Emerald"},
		{"name": "Tara Singh", "studentClass": "10A", "gender": "Female", "house": "Amber"},
		{"name": "Umar Farouk", "studentClass": "10B", "gender": "Male", "house": "Crimson"},
		{"name": "Vera Kovacs", "studentClass": "10B", "gender": "Female", "house": "Azure"},
		{"name": "Willem de Vries", "studentClass": "10B", "gender": "Male", "house": "Emerald"},
		{"name": "Xenia Papadopoulos", "studentClass": "10B", "gender": "Female", "house": "Amber"},
		{"name": "Yusuf Demir", "studentClass": "10B", "gender": "Male", "house": "Crimson"},
		{"name": "Zoe Martin", "studentClass": "10B", "gender": "Female", "house": "Azure"},
	}
	return New(columns, rows)
}
