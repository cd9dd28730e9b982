package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"schoolportal/model"
	"schoolportal/utils/auth"
)

// ImportRow is one parsed CSV row of the batch user upload. Line is the
// 1-based line of the source file the row was read from.
type ImportRow struct {
	Line             int    `json:"-"`
	Class            string `json:"class"`
	Roll             string `json:"roll"`
	DOB              string `json:"dob"`
	DisplayName      string `json:"displayName"`
	FatherName       string `json:"fatherName,omitempty"`
	MotherName       string `json:"motherName,omitempty"`
	ClassTeacherName string `json:"classTeacherName,omitempty"`
}

// ImportError records why a single row was skipped, carrying the offending
// row so the caller sees exactly what was rejected. Row is zero-valued for
// lines the CSV reader could not parse at all.
type ImportError struct {
	Line  int       `json:"line"`
	Row   ImportRow `json:"row"`
	Error string    `json:"error"`
}

// ImportedUser is a created account plus its derived default password
type ImportedUser struct {
	ID              uint   `json:"id"`
	Username        string `json:"username"`
	DisplayName     string `json:"display_name"`
	Class           string `json:"class"`
	Roll            string `json:"roll"`
	DefaultPassword string `json:"default_password"`
}

// ImportResult summarizes a batch import. Rows are processed independently;
// one bad row never aborts the batch.
type ImportResult struct {
	Created      int            `json:"created"`
	Failed       int            `json:"failed"`
	Users        []ImportedUser `json:"users"`
	ErrorDetails []ImportError  `json:"error_details"`
}

// csv column names, matched case-insensitively
var importColumns = map[string]func(*ImportRow, string){
	"class":            func(r *ImportRow, v string) { r.Class = v },
	"roll":             func(r *ImportRow, v string) { r.Roll = v },
	"dob":              func(r *ImportRow, v string) { r.DOB = v },
	"displayname":      func(r *ImportRow, v string) { r.DisplayName = v },
	"fathername":       func(r *ImportRow, v string) { r.FatherName = v },
	"mothername":       func(r *ImportRow, v string) { r.MotherName = v },
	"classteachername": func(r *ImportRow, v string) { r.ClassTeacherName = v },
}

// ParseImportCSV reads a header-keyed CSV of student rows. Unknown columns
// are ignored; rows with the wrong field count are reported, not fatal.
func ParseImportCSV(r io.Reader) ([]ImportRow, []ImportError, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("csv file is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	setters := make([]func(*ImportRow, string), len(header))
	for i, name := range header {
		setters[i] = importColumns[strings.ToLower(strings.TrimSpace(name))]
	}

	var rows []ImportRow
	var parseErrors []ImportError
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 0
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				line = parseErr.Line
			}
			parseErrors = append(parseErrors, ImportError{Line: line, Error: err.Error()})
			continue
		}

		line, _ := reader.FieldPos(0)
		row := ImportRow{Line: line}
		for i, value := range record {
			if i < len(setters) && setters[i] != nil {
				setters[i](&row, strings.TrimSpace(value))
			}
		}
		rows = append(rows, row)
	}

	return rows, parseErrors, nil
}

// ImportUsers creates accounts for the parsed rows. Every created account
// gets role USER and a derived username and default password. Error details
// carry the row's own source line, so rows skipped earlier in the file never
// shift the numbering.
func (s *UserService) ImportUsers(ctx context.Context, rows []ImportRow) *ImportResult {
	result := &ImportResult{
		Users:        []ImportedUser{},
		ErrorDetails: []ImportError{},
	}

	for _, row := range rows {
		if row.Class == "" || row.Roll == "" || row.DOB == "" || row.DisplayName == "" {
			result.ErrorDetails = append(result.ErrorDetails, ImportError{
				Line:  row.Line,
				Row:   row,
				Error: "missing required fields: class, roll, dob, displayName",
			})
			continue
		}

		dob, err := time.Parse("2006-01-02", row.DOB)
		if err != nil {
			result.ErrorDetails = append(result.ErrorDetails, ImportError{
				Line:  row.Line,
				Row:   row,
				Error: fmt.Sprintf("invalid dob %q, expected YYYY-MM-DD", row.DOB),
			})
			continue
		}

		username := DeriveUsername(row.Class, row.Roll)
		if username == "" {
			result.ErrorDetails = append(result.ErrorDetails, ImportError{
				Line:  row.Line,
				Row:   row,
				Error: "class and roll produce an empty username",
			})
			continue
		}

		taken, err := s.usernameExists(ctx, username)
		if err != nil {
			result.ErrorDetails = append(result.ErrorDetails, ImportError{Line: row.Line, Row: row, Error: err.Error()})
			continue
		}
		if taken {
			result.ErrorDetails = append(result.ErrorDetails, ImportError{
				Line:  row.Line,
				Row:   row,
				Error: fmt.Sprintf("username %s already exists", username),
			})
			continue
		}

		defaultPassword := DeriveDefaultPassword(row.DOB, row.FatherName, row.MotherName, row.ClassTeacherName)
		hash, err := auth.HashPassword(defaultPassword)
		if err != nil {
			result.ErrorDetails = append(result.ErrorDetails, ImportError{Line: row.Line, Row: row, Error: err.Error()})
			continue
		}

		user := model.User{
			Username:           username,
			DisplayName:        row.DisplayName,
			Role:               model.RoleUser,
			PasswordHash:       hash,
			MustChangePassword: true,
			Class:              row.Class,
			Roll:               row.Roll,
			DOB:                &dob,
			FatherName:         row.FatherName,
			MotherName:         row.MotherName,
			ClassTeacherName:   row.ClassTeacherName,
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			result.ErrorDetails = append(result.ErrorDetails, ImportError{Line: row.Line, Row: row, Error: err.Error()})
			continue
		}

		result.Users = append(result.Users, ImportedUser{
			ID:              user.ID,
			Username:        user.Username,
			DisplayName:     user.DisplayName,
			Class:           user.Class,
			Roll:            user.Roll,
			DefaultPassword: defaultPassword,
		})
	}

	result.Created = len(result.Users)
	result.Failed = len(result.ErrorDetails)
	return result
}
