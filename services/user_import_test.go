package services

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestDeriveUsername(t *testing.T) {
	tests := []struct {
		class string
		roll  string
		want  string
	}{
		{"Class 5A", "23", "class5a23"},
		{"10-B", "7", "10b7"},
		{"  VI ", "042", "vi042"},
		{"Nursery", "1", "nursery1"},
	}
	for _, tt := range tests {
		if got := DeriveUsername(tt.class, tt.roll); got != tt.want {
			t.Errorf("DeriveUsername(%q, %q) = %q, want %q", tt.class, tt.roll, got, tt.want)
		}
	}
}

func TestDeriveDefaultPasswordUsesGuardianFallbackChain(t *testing.T) {
	// Father name wins when present
	if got := DeriveDefaultPassword("2012-04-15", "Ram Kumar", "Sita", "Gita"); got != "20120415ramk" {
		t.Errorf("father name: got %q", got)
	}
	// Mother next
	if got := DeriveDefaultPassword("2012-04-15", "", "Sita Devi", "Gita"); got != "20120415sita" {
		t.Errorf("mother name: got %q", got)
	}
	// Then class teacher
	if got := DeriveDefaultPassword("2012-04-15", "", "", "Gita Sharma"); got != "20120415gita" {
		t.Errorf("teacher name: got %q", got)
	}
	// Finally the literal fallback
	if got := DeriveDefaultPassword("2012-04-15", "", "", ""); got != "20120415defa" {
		t.Errorf("default fallback: got %q", got)
	}
}

func TestDeriveDefaultPasswordTruncatesToTwelve(t *testing.T) {
	got := DeriveDefaultPassword("2012-04-15", "Ramakrishnan Venkataraman", "", "")
	if len(got) != 12 {
		t.Fatalf("expected 12-character password, got %q (%d)", got, len(got))
	}
	if got != "20120415rama" {
		t.Fatalf("unexpected password %q", got)
	}
}

func TestDeriveDefaultPasswordShortInputsKeptWhole(t *testing.T) {
	if got := DeriveDefaultPassword("", "Om", "", ""); got != "om" {
		t.Fatalf("expected short password kept whole, got %q", got)
	}
}

func TestDeriveDefaultPasswordTruncatesByRune(t *testing.T) {
	got := DeriveDefaultPassword("2012-04-15", "José García", "", "")
	if !utf8.ValidString(got) {
		t.Fatalf("password is not valid UTF-8: %q", got)
	}
	if got != "20120415josé" {
		t.Fatalf("unexpected password %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 12 {
		t.Fatalf("expected 12 runes, got %d", n)
	}
}

func TestParseImportCSV(t *testing.T) {
	csvData := `class,roll,dob,displayName,fatherName,motherName,classTeacherName
Class 5A,23,2012-04-15,Asha Verma,Ram Verma,,
Class 5A,24,2012-06-01,Vikram Singh,,Meena Singh,
`
	rows, parseErrors, err := ParseImportCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(parseErrors) != 0 {
		t.Fatalf("unexpected parse errors: %+v", parseErrors)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	if rows[0].Class != "Class 5A" || rows[0].Roll != "23" || rows[0].DOB != "2012-04-15" {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
	if rows[0].FatherName != "Ram Verma" {
		t.Errorf("expected father name, got %q", rows[0].FatherName)
	}
	if rows[1].MotherName != "Meena Singh" {
		t.Errorf("expected mother name, got %q", rows[1].MotherName)
	}
	if rows[0].Line != 2 || rows[1].Line != 3 {
		t.Errorf("expected source lines 2 and 3, got %d and %d", rows[0].Line, rows[1].Line)
	}
}

func TestParseImportCSVKeepsSourceLineNumbers(t *testing.T) {
	// Line 2 has a bare quote the CSV reader rejects; line 3 is fine. The
	// surviving row must keep its own file line, not shift up.
	csvData := "class,roll,dob,displayName\n" +
		"5A,1,2012-04-15,As\"ha\n" +
		"5A,2,2012-06-01,Vikram\n"

	rows, parseErrors, err := ParseImportCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(parseErrors) != 1 {
		t.Fatalf("expected 1 parse error, got %+v", parseErrors)
	}
	if parseErrors[0].Line != 2 {
		t.Errorf("expected parse error on line 2, got %d", parseErrors[0].Line)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 surviving row, got %d", len(rows))
	}
	if rows[0].Line != 3 {
		t.Errorf("expected surviving row on line 3, got %d", rows[0].Line)
	}
	if rows[0].Roll != "2" || rows[0].DisplayName != "Vikram" {
		t.Errorf("unexpected surviving row: %+v", rows[0])
	}
}

func TestImportUsersReportsOffendingRow(t *testing.T) {
	svc := &UserService{}
	rows := []ImportRow{
		{Line: 4, Class: "5A", Roll: "7", DisplayName: "Asha Verma"},
	}

	result := svc.ImportUsers(context.Background(), rows)
	if result.Created != 0 || result.Failed != 1 {
		t.Fatalf("expected 1 failure, got created=%d failed=%d", result.Created, result.Failed)
	}

	detail := result.ErrorDetails[0]
	if detail.Line != 4 {
		t.Errorf("expected the row's own line 4, got %d", detail.Line)
	}
	if detail.Row.Class != "5A" || detail.Row.Roll != "7" || detail.Row.DisplayName != "Asha Verma" {
		t.Errorf("expected the offending row preserved, got %+v", detail.Row)
	}
	if !strings.Contains(detail.Error, "missing required fields") {
		t.Errorf("unexpected error message %q", detail.Error)
	}
}

func TestParseImportCSVHeaderCaseInsensitive(t *testing.T) {
	csvData := "Class,ROLL,Dob,DisplayName\n5B,9,2013-01-02,Ravi\n"
	rows, _, err := ParseImportCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 1 || rows[0].Roll != "9" || rows[0].DisplayName != "Ravi" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestParseImportCSVIgnoresUnknownColumns(t *testing.T) {
	csvData := "class,roll,dob,displayName,section\n5C,3,2013-05-05,Neha,B\n"
	rows, _, err := ParseImportCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 1 || rows[0].DisplayName != "Neha" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestParseImportCSVEmptyFile(t *testing.T) {
	if _, _, err := ParseImportCSV(strings.NewReader("")); err == nil {
		t.Fatalf("expected error for empty file")
	}
}
