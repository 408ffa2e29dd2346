package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/Pharaon3/bark-automation/internal/ledger"
)

// XLSXLedger keeps ledger rows in a local workbook. Each range addresses a
// worksheet by name; the workbook and sheet are created on first write.
type XLSXLedger struct {
	path string
	mu   sync.Mutex
}

var _ ledger.Store = (*XLSXLedger)(nil)

func NewXLSXLedger(path string) *XLSXLedger {
	return &XLSXLedger{path: path}
}

func (x *XLSXLedger) ReadAllRows(_ context.Context, rng string) ([][]string, error) {
	r, err := ledger.ParseRange(rng)
	if err != nil {
		return nil, err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	f, err := x.open()
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, nil
	}
	sheet, ok := f.Sheet[r.Sheet]
	if !ok {
		return nil, nil
	}

	var rows [][]string
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		cells := make([]string, r.Width())
		for i := range cells {
			if c := r.First + i; c < len(row.Cells) && row.Cells[c] != nil {
				cells[i] = row.Cells[c].String()
			}
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func (x *XLSXLedger) AppendRow(_ context.Context, rng string, row []string) error {
	r, err := ledger.ParseRange(rng)
	if err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	f, sheet, err := x.sheetForWrite(r.Sheet)
	if err != nil {
		return err
	}
	addRow(sheet, r, row)
	return x.save(f)
}

func (x *XLSXLedger) EnsureHeaderRow(_ context.Context, rng string, headers []string) error {
	r, err := ledger.ParseRange(rng)
	if err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	f, sheet, err := x.sheetForWrite(r.Sheet)
	if err != nil {
		return err
	}
	if len(sheet.Rows) > 0 {
		return nil
	}
	addRow(sheet, r, headers)
	return x.save(f)
}

// open returns nil without error when the workbook does not exist yet.
func (x *XLSXLedger) open() (*xlsx.File, error) {
	if _, err := os.Stat(x.path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	f, err := xlsx.OpenFile(x.path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	return f, nil
}

func (x *XLSXLedger) sheetForWrite(name string) (*xlsx.File, *xlsx.Sheet, error) {
	f, err := x.open()
	if err != nil {
		return nil, nil, err
	}
	if f == nil {
		f = xlsx.NewFile()
	}
	if sheet, ok := f.Sheet[name]; ok {
		return f, sheet, nil
	}
	sheet, err := f.AddSheet(name)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "xlsx: add sheet %q", name)
	}
	return f, sheet, nil
}

func (x *XLSXLedger) save(f *xlsx.File) error {
	if err := os.MkdirAll(filepath.Dir(x.path), 0o755); err != nil {
		return eris.Wrap(err, "xlsx: create dir")
	}
	tmp := x.path + ".tmp"
	if err := f.Save(tmp); err != nil {
		return eris.Wrap(err, "xlsx: save")
	}
	return eris.Wrap(os.Rename(tmp, x.path), "xlsx: replace workbook")
}

func addRow(sheet *xlsx.Sheet, r ledger.Range, cells []string) {
	row := sheet.AddRow()
	for i := 0; i < r.First; i++ {
		row.AddCell()
	}
	for i := 0; i < r.Width(); i++ {
		c := row.AddCell()
		c.SetString(at(cells, i))
	}
}
