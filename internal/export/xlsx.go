// Package export renders comparison tables as spreadsheets.
package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
)

// CurrencyFormat is the number format of amount cells.
const CurrencyFormat = "$#,##0"

// Sheet names.
const (
	ComparisonSheet = "Comparison"
	NotesSheet      = "Notes"
)

// excludedText replaces the value of a disabled discount.
const excludedText = "Excluded"

// Options selects what the export shows.
type Options struct {
	Hidden  model.HiddenRows
	Toggles model.DiscountToggles
}

// Build renders t into a workbook with a comparison sheet and a notes sheet.
// Hidden rows are omitted and computed rows are bold.
func Build(t *model.ComparisonTable, opts Options) (*xlsx.File, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(ComparisonSheet)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: add comparison sheet")
	}
	notes, err := f.AddSheet(NotesSheet)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: add notes sheet")
	}

	header := sheet.AddRow()
	addText(header, "Item", true)
	for _, v := range t.Vendors {
		addText(header, v, true)
	}
	noteHeader := notes.AddRow()
	for _, h := range []string{"Section", "Item", "Vendor", "Note"} {
		addText(noteHeader, h, true)
	}

	for _, s := range t.Sections {
		addText(sheet.AddRow(), s.Name, true)
		for _, row := range s.Rows {
			if opts.Hidden.Has(row.ID) {
				continue
			}
			bold := s.IsComputed(row)
			r := sheet.AddRow()
			addText(r, row.Label, bold)
			for vi := range t.Vendors {
				var v model.VendorValue
				if vi < len(row.Values) {
					v = row.Values[vi]
				}
				excluded := s.IsDiscounts() && !opts.Toggles.Enabled(t.Vendors[vi], row.ID)
				addValue(r, v, bold, excluded)

				if note := v.NoteText(); note != "" {
					nr := notes.AddRow()
					for _, text := range []string{s.Name, row.Label, t.Vendors[vi], note} {
						addText(nr, text, false)
					}
				}
			}
		}
	}
	return f, nil
}

// Save writes the workbook for t to path.
func Save(path string, t *model.ComparisonTable, opts Options) error {
	f, err := Build(t, opts)
	if err != nil {
		return err
	}
	return eris.Wrapf(f.Save(path), "xlsx: save %s", path)
}

// Write streams the workbook for t to w.
func Write(w io.Writer, t *model.ComparisonTable, opts Options) error {
	f, err := Build(t, opts)
	if err != nil {
		return err
	}
	return eris.Wrap(f.Write(w), "xlsx: write")
}

func addText(row *xlsx.Row, text string, bold bool) {
	cell := row.AddCell()
	cell.SetString(text)
	if bold {
		setBold(cell)
	}
}

func addValue(row *xlsx.Row, v model.VendorValue, bold, excluded bool) {
	if excluded {
		addText(row, excludedText, bold)
		return
	}
	if v.Amount == nil {
		addText(row, v.Display, bold)
		return
	}
	cell := row.AddCell()
	cell.SetFloatWithFormat(*v.Amount, CurrencyFormat)
	if bold {
		setBold(cell)
	}
}

func setBold(cell *xlsx.Cell) {
	style := cell.GetStyle()
	style.Font.Bold = true
	style.ApplyFont = true
	cell.SetStyle(style)
}
