// internal/admission/sheet.go
package admission

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"admission-workers/internal/models"

	"github.com/shopspring/decimal"
)

var maxExaminationNumber = decimal.NewFromInt(math.MaxInt64)

// Score sheet column layout.
const (
	ColExaminationNumber = iota
	ColName
	ColCategory
	ColDepthInterview
	ColNCS
	ColCodingTest
	ColPresent
	sheetColumns
)

var columnNames = [sheetColumns]string{
	"examination number", "name", "category", "depth interview score",
	"ncs score", "coding test score", "presence",
}

type CellKind int

const (
	CellBlank CellKind = iota
	CellNumeric
	CellString
	CellBoolean
)

func (k CellKind) String() string {
	switch k {
	case CellNumeric:
		return "numeric"
	case CellString:
		return "text"
	case CellBoolean:
		return "boolean"
	default:
		return "blank"
	}
}

// Cell is one typed spreadsheet value.
type Cell struct {
	Kind   CellKind
	Number decimal.Decimal
	Text   string
	Bool   bool
}

func NumberCell(v decimal.Decimal) Cell { return Cell{Kind: CellNumeric, Number: v} }
func IntCell(v int64) Cell              { return NumberCell(decimal.NewFromInt(v)) }
func TextCell(s string) Cell            { return Cell{Kind: CellString, Text: s} }
func BoolCell(b bool) Cell              { return Cell{Kind: CellBoolean, Bool: b} }
func BlankCell() Cell                   { return Cell{} }

// UnmarshalJSON maps JSON numbers, strings, booleans and null onto the four
// cell kinds. An empty string is blank, as spreadsheets export it.
func (c *Cell) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*c = BlankCell()
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*c = BlankCell()
		} else {
			*c = TextCell(s)
		}
	case bytes.Equal(b, []byte("true")), bytes.Equal(b, []byte("false")):
		*c = BoolCell(b[0] == 't')
	default:
		d, err := decimal.NewFromString(string(b))
		if err != nil {
			return fmt.Errorf("unsupported cell value %s", b)
		}
		*c = NumberCell(d)
	}
	return nil
}

func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellNumeric:
		return []byte(c.Number.String()), nil
	case CellString:
		return json.Marshal(c.Text)
	case CellBoolean:
		return json.Marshal(c.Bool)
	default:
		return []byte("null"), nil
	}
}

// Grid is a sheet as rows of cells. Row 0 is the header.
type Grid [][]Cell

func (g Grid) cell(row, col int) Cell {
	if col < len(g[row]) {
		return g[row][col]
	}
	return BlankCell()
}

func (g Grid) blankRow(row int) bool {
	for _, c := range g[row] {
		if c.Kind != CellBlank {
			return false
		}
	}
	return true
}

// ScoreSheetRow is one validated line of the second-round sheet.
type ScoreSheetRow struct {
	SheetRow          int                 `json:"sheetRow"`
	ExaminationNumber int64               `json:"examinationNumber"`
	Name              string              `json:"name"`
	Category          models.Category     `json:"category"`
	Present           bool                `json:"present"`
	DepthInterview    decimal.NullDecimal `json:"depthInterview"`
	NCS               decimal.NullDecimal `json:"ncs"`
	CodingTest        decimal.NullDecimal `json:"codingTest"`
}

// SecondRoundInput returns the raw scores of a present row.
func (r ScoreSheetRow) SecondRoundInput() SecondRoundInput {
	return SecondRoundInput{
		DepthInterview: r.DepthInterview.Decimal,
		NCS:            r.NCS.Decimal,
		CodingTest:     r.CodingTest,
	}
}

// ParseScoreSheet validates every data row of grid and returns the rows
// sorted by examination number. All bad cells are reported together in a
// *SheetError. Range checks only run on rows whose cell types are valid.
func ParseScoreSheet(grid Grid, expectedApplicantCount int, cfg QuotaConfig) ([]ScoreSheetRow, error) {
	var (
		rows     []ScoreSheetRow
		problems []CellError
	)

	for r := 1; r < len(grid); r++ {
		if grid.blankRow(r) {
			continue
		}
		row, errs := parseRow(grid, r, cfg)
		if len(errs) > 0 {
			problems = append(problems, errs...)
			continue
		}
		rows = append(rows, row)
	}

	if len(problems) > 0 {
		return nil, &SheetError{Cells: problems}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ExaminationNumber < rows[j].ExaminationNumber
	})

	if len(rows) != expectedApplicantCount {
		return nil, fmt.Errorf("%w: sheet has %d applicants, expected %d",
			ErrRowCountMismatch, len(rows), expectedApplicantCount)
	}
	return rows, nil
}

func parseRow(grid Grid, r int, cfg QuotaConfig) (ScoreSheetRow, []CellError) {
	var errs []CellError
	typeError := func(col int, want string) {
		got := grid.cell(r, col).Kind
		errs = append(errs, CellError{
			Row:    r,
			Column: col,
			Cell:   CellName(r, col),
			Kind:   ErrInvalidCellType.Error(),
			Reason: fmt.Sprintf("%s must be %s, got %s", columnNames[col], want, got),
		})
	}
	expect := func(col int, kinds ...CellKind) {
		got := grid.cell(r, col).Kind
		for _, k := range kinds {
			if got == k {
				return
			}
		}
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = k.String()
		}
		typeError(col, strings.Join(names, " or "))
	}

	expect(ColExaminationNumber, CellNumeric)
	expect(ColName, CellString)
	expect(ColCategory, CellString)
	expect(ColPresent, CellBoolean)

	present := grid.cell(r, ColPresent).Kind == CellBoolean && grid.cell(r, ColPresent).Bool
	if present {
		expect(ColDepthInterview, CellNumeric)
		expect(ColNCS, CellNumeric)
		expect(ColCodingTest, CellNumeric, CellBlank)
	}

	examNo := grid.cell(r, ColExaminationNumber)
	if examNo.Kind == CellNumeric && (!examNo.Number.IsInteger() || !examNo.Number.IsPositive() ||
		examNo.Number.GreaterThan(maxExaminationNumber)) {
		errs = append(errs, CellError{
			Row: r, Column: ColExaminationNumber, Cell: CellName(r, ColExaminationNumber),
			Kind:   ErrInvalidCellType.Error(),
			Reason: fmt.Sprintf("examination number must be a positive whole number, got %s", examNo.Number),
		})
	}

	var category models.Category
	if label := grid.cell(r, ColCategory); label.Kind == CellString {
		c, err := models.ParseCategory(strings.TrimSpace(label.Text))
		if err != nil {
			errs = append(errs, CellError{
				Row: r, Column: ColCategory, Cell: CellName(r, ColCategory),
				Kind:   ErrInvalidCellType.Error(),
				Reason: fmt.Sprintf("unknown category %q", label.Text),
			})
		}
		category = c
	}

	if present && category.UsesCodingTest() && grid.cell(r, ColCodingTest).Kind == CellBlank {
		typeError(ColCodingTest, CellNumeric.String())
	}

	if len(errs) > 0 {
		return ScoreSheetRow{}, errs
	}

	row := ScoreSheetRow{
		SheetRow:          r,
		ExaminationNumber: examNo.Number.IntPart(),
		Name:              grid.cell(r, ColName).Text,
		Category:          category,
		Present:           present,
	}
	if !present {
		return row, nil
	}

	ranges := cfg.RangesFor(category)
	check := func(col int, v decimal.Decimal, bound ScoreRange) {
		if !bound.Contains(v) {
			errs = append(errs, CellError{
				Row: r, Column: col, Cell: CellName(r, col),
				Kind:   ErrScoreOutOfRange.Error(),
				Reason: fmt.Sprintf("%s %s is outside [%s, %s] for %s",
					columnNames[col], v, bound.Min, bound.Max, category),
			})
		}
	}

	interview := grid.cell(r, ColDepthInterview).Number
	ncs := grid.cell(r, ColNCS).Number
	check(ColDepthInterview, interview, ranges.DepthInterview)
	check(ColNCS, ncs, ranges.NCS)
	row.DepthInterview = decimal.NewNullDecimal(interview)
	row.NCS = decimal.NewNullDecimal(ncs)

	if ranges.CodingTest != nil && category.UsesCodingTest() {
		coding := grid.cell(r, ColCodingTest).Number
		check(ColCodingTest, coding, *ranges.CodingTest)
		row.CodingTest = decimal.NewNullDecimal(coding)
	}

	if len(errs) > 0 {
		return ScoreSheetRow{}, errs
	}
	return row, nil
}
