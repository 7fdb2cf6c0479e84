// Package pdf recovers text blocks and tables from vendor PDF invoices.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/garyjia/asset-tracker/internal/domain/entity"
)

// pdfMagic must appear near the start of every PDF file.
var pdfMagic = []byte("%PDF-")

// sniffLen is how far into the file the header is searched for.
const sniffLen = 1024

var errNotPDF = errors.New("not a PDF document")

// checkPDF verifies the file exists and carries a PDF header.
func checkPDF(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &entity.DocumentOpenError{Path: path, Err: err}
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return &entity.DocumentOpenError{Path: path, Err: err}
	}
	if !bytes.Contains(head[:n], pdfMagic) {
		return &entity.DocumentOpenError{Path: path, Err: errNotPDF}
	}
	return nil
}

// guardPage runs fn for one page and turns a panic inside the PDF library
// into a page error.
func guardPage(path string, page int, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &entity.PageExtractionError{Path: path, Page: page, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if err := fn(); err != nil {
		return &entity.PageExtractionError{Path: path, Page: page, Err: err}
	}
	return nil
}
