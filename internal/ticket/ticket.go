// Package ticket renders a finalized booking into a downloadable PDF
// with an embedded QR code.  The core booking flow only guarantees that
// the booking handed over here is committed and carries a transaction
// reference; everything in this package is presentation.
package ticket

import (
    "bytes"
    "errors"
    "fmt"
    "strings"

    "github.com/phpdave11/gofpdf"
    qrcode "github.com/skip2/go-qrcode"

    "github.com/cinetick/movie-booking/internal/repository"
)

// ErrNotFinalized is returned when the booking has no transaction
// reference yet; tickets are only issued for paid-for bookings.
var ErrNotFinalized = errors.New("ticket: booking has no transaction reference")

// QRPayload is the text encoded into the ticket's QR code.  The format
// is line-oriented so gate scanners can parse it without JSON support.
func QRPayload(transactionRef string, bookingID uint64) string {
    return fmt.Sprintf("TransactionID:%s\nBookingID:%d", transactionRef, bookingID)
}

// Issue renders the booking into a single-page A4 PDF: movie, venue,
// show time, seat list, total price, transaction reference and a QR
// code encoding the transaction and booking identifiers.
func Issue(tc *repository.TicketContext) ([]byte, error) {
    b := tc.Booking
    if b.TransactionRef == nil {
        return nil, ErrNotFinalized
    }

    qrPNG, err := qrcode.Encode(QRPayload(*b.TransactionRef, b.ID), qrcode.Medium, 256)
    if err != nil {
        return nil, fmt.Errorf("ticket: encode qr: %w", err)
    }

    pdf := gofpdf.New("P", "mm", "A4", "")
    pdf.SetMargins(15, 15, 15)
    pdf.AddPage()
    pdf.SetAutoPageBreak(false, 0)

    pdf.SetFont("Helvetica", "B", 20)
    pdf.Cell(0, 12, "CINETICK E-TICKET")
    pdf.Ln(16)

    pdf.SetFont("Helvetica", "B", 14)
    pdf.Cell(0, 8, tc.MovieTitle)
    pdf.Ln(10)

    pdf.SetFont("Helvetica", "", 11)
    line := func(label, value string) {
        pdf.SetFont("Helvetica", "B", 11)
        pdf.Cell(35, 7, label)
        pdf.SetFont("Helvetica", "", 11)
        pdf.Cell(0, 7, value)
        pdf.Ln(7)
    }
    line("Theater", tc.TheaterName)
    line("Screen", tc.ScreenName)
    line("Show time", tc.StartsAt.UTC().Format("Mon, 02 Jan 2006 15:04 MST"))
    line("Seats", strings.Join(b.Seats, ", "))
    line("Total", fmt.Sprintf("%.2f", float64(b.TotalCents)/100))
    line("Booking", fmt.Sprintf("#%d", b.ID))
    line("Reference", *b.TransactionRef)

    // QR code in the lower right corner.
    opts := gofpdf.ImageOptions{ImageType: "PNG"}
    pdf.RegisterImageOptionsReader("ticket-qr", opts, bytes.NewReader(qrPNG))
    pdf.ImageOptions("ticket-qr", 150, 220, 40, 40, false, opts, 0, "")

    pdf.SetY(265)
    pdf.SetFont("Helvetica", "I", 8)
    pdf.Cell(0, 5, "Present this ticket and the QR code at the entrance.")

    var buf bytes.Buffer
    if err := pdf.Output(&buf); err != nil {
        return nil, fmt.Errorf("ticket: render pdf: %w", err)
    }
    return buf.Bytes(), nil
}
