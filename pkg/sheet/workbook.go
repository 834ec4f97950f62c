// Package sheet records bookings as rows of a local xlsx workbook.
package sheet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"trailer-booking/internal/domain"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet bookings are appended to
const SheetName = "Bookings"

// SubmittedAtHeader heads the column stamped with the time of each row
const SubmittedAtHeader = "Submitted At"

// WorkbookBackend appends each booking to a workbook on disk. Writes are
// serialized; the file is opened and saved per booking.
type WorkbookBackend struct {
	path string
	loc  *time.Location
	now  func() time.Time

	mu sync.Mutex
}

// NewWorkbookBackend creates a backend writing to path. Timestamps use loc,
// or UTC when nil.
func NewWorkbookBackend(path string, loc *time.Location) *WorkbookBackend {
	if loc == nil {
		loc = time.UTC
	}
	return &WorkbookBackend{path: path, loc: loc, now: time.Now}
}

func (b *WorkbookBackend) Name() string {
	return "sheet"
}

// Headers returns the header row of the bookings sheet
func Headers() []string {
	return append(domain.QuestionOrder(), SubmittedAtHeader)
}

// ProcessBooking appends one row holding the booking's answers
func (b *WorkbookBackend) ProcessBooking(ctx context.Context, fields domain.BookingFields) (string, error) {
	if b.path == "" {
		return "", domain.ErrBackendUnavailable
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	f, err := b.open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return "", fmt.Errorf("failed to read bookings sheet: %w", err)
	}
	next := len(rows) + 1
	if next == 1 {
		if err := writeHeader(f); err != nil {
			return "", err
		}
		next = 2
	}

	headers := Headers()
	values := make([]interface{}, len(headers))
	for i, label := range headers[:len(headers)-1] {
		values[i] = fields[label]
	}
	values[len(values)-1] = b.now().In(b.loc).Format("2006-01-02 15:04:05 MST")

	cell, _ := excelize.CoordinatesToCellName(1, next)
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return "", fmt.Errorf("failed to write booking row: %w", err)
	}
	if err := f.SaveAs(b.path); err != nil {
		return "", fmt.Errorf("failed to save bookings workbook: %w", err)
	}

	return domain.MsgBookingReceived, nil
}

// open loads the workbook, creating it with an empty bookings sheet when missing
func (b *WorkbookBackend) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		f = excelize.NewFile()
		if err := f.SetSheetName("Sheet1", SheetName); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create bookings sheet: %w", err)
		}
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open bookings workbook: %w", err)
	}

	idx, err := f.GetSheetIndex(SheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to find bookings sheet: %w", err)
	}
	if idx == -1 {
		if _, err := f.NewSheet(SheetName); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create bookings sheet: %w", err)
		}
	}
	return f, nil
}

func writeHeader(f *excelize.File) error {
	headers := Headers()
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &row); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	// Style headers - Dark Blue background with White text
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#1E3A5F"}},
		Alignment: &excelize.Alignment{Horizontal: "center", WrapText: true},
	})
	endCell, _ := excelize.CoordinatesToCellName(len(headers), 1)
	f.SetCellStyle(SheetName, "A1", endCell, headerStyle)

	endCol, _ := excelize.ColumnNumberToName(len(headers))
	f.SetColWidth(SheetName, "A", endCol, 28)
	return nil
}
